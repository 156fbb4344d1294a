package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func sampleResult(t *testing.T) *evaluate.Result {
	t.Helper()

	m, err := evaluate.BuildConfusionMatrix([]int{1, 2, 2, 3}, []int{1, 2, 3, 3}, 4)
	require.NoError(t, err)

	return &evaluate.Result{
		ClassNames: utils.DefaultClassNames,
		Matrix:     m,
		Alignment: &evaluate.Alignment{
			FrameIDs: []int{1, 2},
			GT:       []int{1, 2, 2, 3},
			Pred:     []int{1, 2, 3, 3},
			GTOnly:   []int{7},
		},
		GTFrames:   3,
		PredFrames: 2,
	}
}

func TestTable(t *testing.T) {
	m, err := evaluate.BuildConfusionMatrix([]int{0, 1}, []int{0, 0}, 2)
	require.NoError(t, err)

	expected := "" +
		"               a       b\n" +
		"       a       1       0\n" +
		"       b       1       0\n"
	assert.Equal(t, expected, Table(m, []string{"a", "b"}))
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, sampleResult(t))

	out := buf.String()
	assert.Contains(t, out, "2 aligned, 3 ground truth, 2 predicted")
	assert.Contains(t, out, "1 only in ground truth, 0 only in predictions")
	assert.Contains(t, out, "0.7500")
	assert.Contains(t, out, "(3/4)")
	assert.Contains(t, out, "Row-normalized")
	assert.Contains(t, out, "0.50")
	assert.NotContains(t, out, "Truncated")
	assert.NotContains(t, out, "[green]")
}

func TestJSON(t *testing.T) {
	doc, err := JSON(sampleResult(t))
	require.NoError(t, err)
	require.True(t, gjson.Valid(doc))

	assert.Equal(t, int64(4), gjson.Get(doc, "total").Int())
	assert.Equal(t, 0.75, gjson.Get(doc, "accuracy").Float())
	assert.Equal(t, int64(1), gjson.Get(doc, "matrix.2.3").Int())
	assert.Equal(t, "referee", gjson.Get(doc, "classes.3").String())
	assert.Equal(t, 0.5, gjson.Get(doc, "matrix_normalized.2.3").Float())
	assert.Equal(t, 1.0, gjson.Get(doc, "matrix_normalized.1.1").Float())
	assert.Equal(t, 0.0, gjson.Get(doc, "matrix_normalized.0.0").Float())
	assert.Equal(t, int64(7), gjson.Get(doc, "frames.ground_truth_only.0").Int())
	assert.Equal(t, 0.5, gjson.Get(doc, "per_class.player.recall").Float())
	assert.Equal(t, int64(2), gjson.Get(doc, "per_class.player.support").Int())
	assert.False(t, gjson.Get(doc, "empty").Bool())
}

func TestJSONEscapesClassNames(t *testing.T) {
	m, err := evaluate.BuildConfusionMatrix([]int{0}, []int{0}, 1)
	require.NoError(t, err)

	doc, err := JSON(&evaluate.Result{ClassNames: []string{"v1.ball"}, Matrix: m, Alignment: &evaluate.Alignment{}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(doc, `per_class.v1\.ball.support`).Int())
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)

	path, err := WriteJSON(dir, sampleResult(t), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evaluation_20240301_140509.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(data))

	_, err = WriteJSON(filepath.Join(dir, "missing"), sampleResult(t), now)
	assert.Error(t, err)
}
