package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/detection-eval/pkg/config"
	"github.com/chenBenjamin97/detection-eval/pkg/detector"
	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/metrics"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViper(t *testing.T) *viper.Viper {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	root := t.TempDir()
	v.Set("directory.ground_truth", filepath.Join(root, "ground_truth"))
	v.Set("directory.predicted", filepath.Join(root, "output_annotations"))
	return v
}

func writeLabels(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestNewDetectorExec(t *testing.T) {
	v := testViper(t)
	v.Set("producer.backend", BackendExec)
	v.Set("producer.command", "python3 yolo_inference.py --model best.pt")

	det, release, err := NewDetector(v)
	require.NoError(t, err)
	defer release()

	exec, ok := det.(*detector.Exec)
	require.True(t, ok)
	assert.Equal(t, "python3", exec.Command)
	assert.Equal(t, []string{"yolo_inference.py", "--model", "best.pt"}, exec.Args)
}

func TestNewDetectorErrors(t *testing.T) {
	v := testViper(t)
	v.Set("producer.backend", BackendExec)
	_, _, err := NewDetector(v)
	assert.Error(t, err)

	v.Set("producer.backend", "tensorrt")
	_, _, err = NewDetector(v)
	assert.Error(t, err)

	v.Set("producer.backend", BackendDNN)
	v.Set("producer.model", filepath.Join(t.TempDir(), "missing.onnx"))
	_, _, err = NewDetector(v)
	assert.Error(t, err)
}

func TestNewProducer(t *testing.T) {
	v := testViper(t)
	v.Set("producer.min_box_width", 4)
	v.Set("producer.min_box_height", "6")

	p := NewProducer(v, nil)
	assert.Equal(t, v.GetString("directory.predicted"), p.OutDir)
	assert.Equal(t, 4.0, p.MinBoxWidth)
	assert.Equal(t, 6.0, p.MinBoxHeight)
}

func TestAnnotateExec(t *testing.T) {
	v := testViper(t)
	v.Set("producer.backend", BackendExec)
	v.Set("producer.command", "false")

	m := metrics.New()
	_, err := Annotate(context.Background(), v, "match.mp4", nil, m)
	assert.Error(t, err)
	assert.Equal(t, uint64(1), m.AnnotationsFailed.Load())
}

func TestEvaluate(t *testing.T) {
	v := testViper(t)
	writeLabels(t, v.GetString("directory.ground_truth"), map[string]string{
		"frame_0001.txt": "1 0 0 0 0\n2 0 0 0 0",
		"frame_0002.txt": "3 0 0 0 0",
	})
	writeLabels(t, v.GetString("directory.predicted"), map[string]string{
		"frame_0001.txt": "1 0 0 0 0\n3 0 0 0 0",
		"frame_0002.txt": "3 0 0 0 0",
	})

	m := metrics.New()
	result, err := Evaluate(v, nil, nil, m)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Matrix.Trace())
	assert.Equal(t, uint64(3), m.LabelPairs.Load())
}

func TestEvaluateEmptyAndFailures(t *testing.T) {
	v := testViper(t)
	writeLabels(t, v.GetString("directory.ground_truth"), map[string]string{"frame_0001.txt": "1 0 0 0 0"})
	writeLabels(t, v.GetString("directory.predicted"), map[string]string{"frame_0002.txt": "1 0 0 0 0"})

	m := metrics.New()
	result, err := Evaluate(v, nil, nil, m)
	assert.True(t, errors.Is(err, evaluate.ErrEmptyEvaluationSet))
	require.NotNil(t, result)
	assert.True(t, result.Matrix.Empty())

	_, err = Evaluate(v, &evaluate.Options{Mismatch: evaluate.MismatchFail, Unmatched: evaluate.UnmatchedFail}, nil, m)
	var unmatched *evaluate.UnmatchedFramesError
	assert.True(t, errors.As(err, &unmatched))

	v.Set("evaluation.mismatch", "pad")
	_, err = Evaluate(v, nil, nil, m)
	assert.Error(t, err)

	assert.Equal(t, uint64(3), m.EvaluationsRun.Load())
	assert.Equal(t, uint64(1), m.EvaluationsEmpty.Load())
	assert.Equal(t, uint64(2), m.EvaluationsFailed.Load())
}
