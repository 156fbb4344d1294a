package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/chenBenjamin97/detection-eval/pkg/config"
	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/pipeline"
	"github.com/chenBenjamin97/detection-eval/pkg/render"
	"github.com/chenBenjamin97/detection-eval/pkg/report"
	"github.com/fatih/color"
	"github.com/k0kubun/go-ansi"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	exitOK    = 0
	exitError = 1
	exitEmpty = 2
)

func main() {
	os.Exit(run())
}

//flagKeys maps every config overriding flag to its viper key
var flagKeys = map[string]string{
	"gt":        "directory.ground_truth",
	"pred":      "directory.predicted",
	"mismatch":  "evaluation.mismatch",
	"unmatched": "evaluation.unmatched",
	"output":    "render.output",
	"show":      "render.show",
}

func registerFlags(fs *flag.FlagSet) {
	fs.String("gt", "", "ground truth directory (directory.ground_truth)")
	fs.String("pred", "", "predicted annotations directory (directory.predicted)")
	fs.String("mismatch", "", "label count mismatch policy: fail or truncate (evaluation.mismatch)")
	fs.String("unmatched", "", "unmatched frames policy: exclude or fail (evaluation.unmatched)")
	fs.String("output", "", "heatmap image file (render.output)")
	fs.Bool("show", false, "open the heatmap in a window (render.show), -show=false overrides the config")
}

//applyFlags copies the flags given on the command line over config.yaml and environment values, unset flags are left alone
func applyFlags(fs *flag.FlagSet, v *viper.Viper) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if key == "render.show" {
			var show bool
			if show, err = cast.ToBoolE(f.Value.String()); err == nil {
				v.Set(key, show)
			}
			return
		}
		v.Set(key, f.Value.String())
	})

	return err
}

func run() int {
	color.Output = ansi.NewAnsiStdout()

	noReport := flag.Bool("no-report", false, "do not write the JSON report to directory.reports")
	registerFlags(flag.CommandLine)
	flag.Parse()

	if err := config.Load(); err != nil {
		color.Red("Error: %v", err)
		return exitError
	}
	v := viper.GetViper()
	config.SetupLogging(v)

	if err := applyFlags(flag.CommandLine, v); err != nil {
		color.Red("Error: %v", err)
		return exitError
	}

	result, err := pipeline.Evaluate(v, nil, ansi.NewAnsiStderr(), nil)
	if err != nil && !errors.Is(err, evaluate.ErrEmptyEvaluationSet) {
		color.Red("Evaluation failed: %v", err)
		return exitError
	}

	report.Summary(ansi.NewAnsiStdout(), result)

	if !*noReport && v.GetString("directory.reports") != "" {
		if err := os.MkdirAll(v.GetString("directory.reports"), 0755); err != nil {
			color.Red("Error: %v", err)
			return exitError
		}
		path, err := report.WriteJSON(v.GetString("directory.reports"), result, time.Now())
		if err != nil {
			color.Red("Error: %v", err)
			return exitError
		}
		logrus.Infof("Report saved to '%s'", path)
	}

	if errors.Is(err, evaluate.ErrEmptyEvaluationSet) {
		color.Yellow("No frame is present in both directories, nothing to compare")
		return exitEmpty
	}

	if v.GetString("render.output") != "" || v.GetBool("render.show") {
		opts := render.DefaultOptions()
		if size := v.GetInt("render.cell_size"); size > 0 {
			opts.CellSize = size
		}
		if err := render.Render(result.Matrix, result.ClassNames, opts, v.GetString("render.output"), v.GetBool("render.show")); err != nil {
			color.Red("Render failed: %v", err)
			return exitError
		}
	}

	return exitOK
}
