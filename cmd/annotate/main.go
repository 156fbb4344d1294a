package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/chenBenjamin97/detection-eval/pkg/config"
	"github.com/chenBenjamin97/detection-eval/pkg/pipeline"
	"github.com/chenBenjamin97/detection-eval/pkg/video"
	"github.com/fatih/color"
	"github.com/k0kubun/go-ansi"
	"github.com/spf13/viper"
)

func main() {
	color.Output = ansi.NewAnsiStdout()

	out := flag.String("out", "", "output annotations directory (directory.predicted)")
	backend := flag.String("backend", "", "detector backend: dnn or exec (producer.backend)")
	model := flag.String("model", "", "ONNX model path for the dnn backend (producer.model)")
	command := flag.String("command", "", "detector command for the exec backend (producer.command)")
	overlay := flag.String("overlay", "", "also write the video with the written boxes drawn on it to this '.avi' file")
	flag.Usage = func() {
		color.Cyan("Usage: annotate [flags] <video>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	videoPath := flag.Arg(0)

	if err := config.Load(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	v := viper.GetViper()
	config.SetupLogging(v)

	for key, value := range map[string]string{
		"directory.predicted": *out,
		"producer.backend":    *backend,
		"producer.model":      *model,
		"producer.command":    *command,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := pipeline.Annotate(ctx, v, videoPath, ansi.NewAnsiStderr(), nil)
	if err != nil {
		color.Red("Annotation failed: %v", err)
		os.Exit(1)
	}

	color.Green("%d frames read, %d annotation files written to '%s'", stats.Frames, stats.FramesWritten, v.GetString("directory.predicted"))

	if *overlay != "" {
		if _, err := video.Overlay(ctx, videoPath, v.GetString("directory.predicted"), "", *overlay, config.ClassNames(v)); err != nil {
			color.Red("Overlay failed: %v", err)
			os.Exit(1)
		}
		color.Green("Overlay written to '%s'", *overlay)
	}
}
