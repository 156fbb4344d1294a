package metrics

import (
	"errors"
	"math"
	"net/http"
	"sync/atomic"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/producer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//Metrics holds the evaluation and annotation counters exposed on /metrics
type Metrics struct {
	//Evaluation runs
	EvaluationsRun    atomic.Uint64
	EvaluationsFailed atomic.Uint64
	EvaluationsEmpty  atomic.Uint64
	LabelPairs        atomic.Uint64
	ExcludedFrames    atomic.Uint64
	DroppedLabels     atomic.Uint64

	//Annotation runs
	AnnotationsRun    atomic.Uint64
	AnnotationsFailed atomic.Uint64
	FramesRead        atomic.Uint64
	FramesWritten     atomic.Uint64
	BoxesKept         atomic.Uint64
	BoxesTooSmall     atomic.Uint64

	//stored as math.Float64bits
	lastAccuracy atomic.Uint64

	registry *prometheus.Registry
}

//New creates a Metrics instance with its own Prometheus registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.register()

	return m
}

func (m *Metrics) register() {
	counters := []struct {
		name  string
		help  string
		value *atomic.Uint64
	}{
		{"detection_eval_evaluations_total", "Evaluation runs started", &m.EvaluationsRun},
		{"detection_eval_evaluations_failed_total", "Evaluation runs that returned an error", &m.EvaluationsFailed},
		{"detection_eval_evaluations_empty_total", "Evaluation runs with no common frames to compare", &m.EvaluationsEmpty},
		{"detection_eval_label_pairs_total", "Label pairs counted into confusion matrices", &m.LabelPairs},
		{"detection_eval_excluded_frames_total", "Frames present in only one directory", &m.ExcludedFrames},
		{"detection_eval_dropped_labels_total", "Unpaired labels dropped by truncation", &m.DroppedLabels},
		{"detection_eval_annotations_total", "Annotation runs started", &m.AnnotationsRun},
		{"detection_eval_annotations_failed_total", "Annotation runs that returned an error", &m.AnnotationsFailed},
		{"detection_eval_frames_read_total", "Video frames read by the detector", &m.FramesRead},
		{"detection_eval_frames_written_total", "Annotation files written", &m.FramesWritten},
		{"detection_eval_boxes_kept_total", "Detections written to annotation files", &m.BoxesKept},
		{"detection_eval_boxes_too_small_total", "Detections dropped for being under the minimum size", &m.BoxesTooSmall},
	}

	for _, c := range counters {
		value := c.value
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: c.name,
				Help: c.help,
			},
			func() float64 { return float64(value.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "detection_eval_last_accuracy",
			Help: "Accuracy of the last non empty evaluation",
		},
		m.LastAccuracy,
	))
}

//SetLastAccuracy records the accuracy of the latest evaluation
func (m *Metrics) SetLastAccuracy(v float64) {
	m.lastAccuracy.Store(math.Float64bits(v))
}

//LastAccuracy returns the accuracy of the latest evaluation, 0 before the first one
func (m *Metrics) LastAccuracy() float64 {
	return math.Float64frombits(m.lastAccuracy.Load())
}

//Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

//ObserveEvaluation counts one evaluation run, result may be nil when err is not ErrEmptyEvaluationSet
func (m *Metrics) ObserveEvaluation(result *evaluate.Result, err error) {
	m.EvaluationsRun.Add(1)

	switch {
	case errors.Is(err, evaluate.ErrEmptyEvaluationSet):
		m.EvaluationsEmpty.Add(1)
	case err != nil:
		m.EvaluationsFailed.Add(1)
		return
	}

	if result == nil {
		return
	}

	a := result.Alignment
	m.LabelPairs.Add(uint64(a.Pairs()))
	m.ExcludedFrames.Add(uint64(a.Excluded()))
	m.DroppedLabels.Add(uint64(a.DroppedLabels))
	if !result.Matrix.Empty() {
		m.SetLastAccuracy(result.Matrix.Accuracy())
	}
}

//ObserveAnnotation counts one producer run
func (m *Metrics) ObserveAnnotation(stats producer.Stats, err error) {
	m.AnnotationsRun.Add(1)
	if err != nil {
		m.AnnotationsFailed.Add(1)
	}

	m.FramesRead.Add(uint64(stats.Frames))
	m.FramesWritten.Add(uint64(stats.FramesWritten))
	m.BoxesKept.Add(uint64(stats.BoxesKept))
	m.BoxesTooSmall.Add(uint64(stats.BoxesTooSmall))
}
