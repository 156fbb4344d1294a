package render

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellColor(t *testing.T) {
	assert.Equal(t, lowColor, CellColor(0, 10))
	assert.Equal(t, lowColor, CellColor(5, 0))
	assert.Equal(t, highColor.R, CellColor(10, 10).R)
	assert.Equal(t, highColor.B, CellColor(20, 10).B)

	mid := CellColor(5, 10)
	assert.Less(t, mid.R, lowColor.R)
	assert.Greater(t, mid.R, highColor.R)
}

func TestTextColor(t *testing.T) {
	assert.Equal(t, black, TextColor(lowColor))
	assert.Equal(t, white, TextColor(highColor))
}

func TestLayout(t *testing.T) {
	l := NewLayout(4, utils.DefaultClassNames, 100)
	w, h := l.Size()
	assert.Equal(t, l.Left+400+l.Right, w)
	assert.Equal(t, l.Top+400+l.Bottom, h)
	assert.Equal(t, image.Rect(l.Left+200, l.Top+100, l.Left+300, l.Top+200), l.Cell(1, 2))
}

func TestHeatmap(t *testing.T) {
	m, err := evaluate.BuildConfusionMatrix([]int{1, 2, 2, 3}, []int{1, 2, 3, 3}, 4)
	require.NoError(t, err)
	before := m.Counts()

	img, err := Heatmap(m, utils.DefaultClassNames, DefaultOptions())
	require.NoError(t, err)
	defer img.Close()

	w, h := NewLayout(4, utils.DefaultClassNames, 100).Size()
	assert.Equal(t, w, img.Cols())
	assert.Equal(t, h, img.Rows())
	assert.Equal(t, before, m.Counts())

	data, err := EncodePNG(img)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])

	path := filepath.Join(t.TempDir(), "matrix.png")
	require.NoError(t, Save(path, img))
}

func TestHeatmapClassNameMismatch(t *testing.T) {
	m, err := evaluate.BuildConfusionMatrix([]int{1}, []int{1}, 4)
	require.NoError(t, err)

	img, err := Heatmap(m, []string{"ball", "player"}, DefaultOptions())
	defer img.Close()
	assert.Error(t, err)
}

func TestRenderEmpty(t *testing.T) {
	m, _ := evaluate.BuildConfusionMatrix(nil, nil, 4)
	err := Render(m, utils.DefaultClassNames, DefaultOptions(), filepath.Join(t.TempDir(), "m.png"), false)
	assert.True(t, errors.Is(err, evaluate.ErrEmptyEvaluationSet))
}

func TestClampCellSize(t *testing.T) {
	cases := []struct {
		size     int
		expected int
	}{
		{0, 100},
		{-5, 100},
		{5, MinCellSize},
		{60, 60},
		{99999, MaxCellSize},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, ClampCellSize(c.size), "size %d", c.size)
	}

	assert.True(t, ValidCellSize(MinCellSize))
	assert.True(t, ValidCellSize(MaxCellSize))
	assert.False(t, ValidCellSize(MaxCellSize+1))
	assert.False(t, ValidCellSize(0))
}

func TestHeatmapOversizedCells(t *testing.T) {
	m, err := evaluate.BuildConfusionMatrix([]int{1}, []int{1}, 4)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.CellSize = 99999
	img, err := Heatmap(m, utils.DefaultClassNames, opts)
	require.NoError(t, err)
	defer img.Close()

	w, h := NewLayout(4, utils.DefaultClassNames, MaxCellSize).Size()
	assert.Equal(t, w, img.Cols())
	assert.Equal(t, h, img.Rows())
}
