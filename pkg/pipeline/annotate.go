package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chenBenjamin97/detection-eval/pkg/detector"
	"github.com/chenBenjamin97/detection-eval/pkg/detector/dnn"
	"github.com/chenBenjamin97/detection-eval/pkg/metrics"
	"github.com/chenBenjamin97/detection-eval/pkg/producer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	BackendDNN  = "dnn"
	BackendExec = "exec"
)

//NewDetector builds the detector selected by producer.backend. The returned release func must be called when done.
func NewDetector(v *viper.Viper) (detector.Detector, func(), error) {
	switch backend := v.GetString("producer.backend"); backend {
	case BackendDNN:
		d, err := dnn.New(v.GetString("producer.model"))
		if err != nil {
			return nil, nil, err
		}
		d.InputSize = v.GetInt("producer.input_size")
		d.Confidence = float32(v.GetFloat64("producer.confidence"))
		d.NMS = float32(v.GetFloat64("producer.nms"))
		return d, func() { d.Close() }, nil

	case BackendExec:
		fields := strings.Fields(v.GetString("producer.command"))
		if len(fields) == 0 {
			return nil, nil, fmt.Errorf("NewDetector: producer.command is required by the '%s' backend", BackendExec)
		}
		return detector.NewExec(fields[0], fields[1:]...), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("NewDetector: unknown producer backend '%s'", backend)
	}
}

//NewProducer builds a producer writing to directory.predicted with the configured box size filter
func NewProducer(v *viper.Viper, progress io.Writer) *producer.Producer {
	p := producer.New(v.GetString("directory.predicted"))
	p.MinBoxWidth = v.GetFloat64("producer.min_box_width")
	p.MinBoxHeight = v.GetFloat64("producer.min_box_height")
	p.Progress = progress
	return p
}

//Annotate runs the configured detector over videoPath and writes predicted label files, m may be nil
func Annotate(ctx context.Context, v *viper.Viper, videoPath string, progress io.Writer, m *metrics.Metrics) (producer.Stats, error) {
	det, release, err := NewDetector(v)
	if err != nil {
		if m != nil {
			m.ObserveAnnotation(producer.Stats{}, err)
		}
		return producer.Stats{}, err
	}
	defer release()

	stats, err := NewProducer(v, progress).Run(ctx, det, videoPath)
	if m != nil {
		m.ObserveAnnotation(stats, err)
	}
	if err != nil {
		return stats, fmt.Errorf("Annotate: '%s': %w", videoPath, err)
	}

	logrus.Infof("Annotate: '%s' done, %d frames read, %d files written, %d boxes kept, %d too small",
		videoPath, stats.Frames, stats.FramesWritten, stats.BoxesKept, stats.BoxesTooSmall)
	return stats, nil
}
