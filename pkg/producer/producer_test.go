package producer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
	"github.com/chenBenjamin97/detection-eval/pkg/detector"
	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDetector replays canned frame results
type fakeDetector struct {
	frames []detector.FrameResult
	err    error
}

func (f *fakeDetector) Detect(ctx context.Context, videoPath string, out chan<- detector.FrameResult) error {
	defer close(out)
	for _, r := range f.frames {
		select {
		case out <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func box(class int, xmin, ymin, xmax, ymax float64) detector.Box {
	return detector.Box{Class: class, XYXY: [4]float64{xmin, ymin, xmax, ymax}}
}

func TestFilterFrame(t *testing.T) {
	p := New(t.TempDir())
	records, tooSmall, err := p.FilterFrame(detector.FrameResult{
		Index:  0,
		Width:  200,
		Height: 100,
		Boxes: []detector.Box{
			box(2, 20, 10, 60, 50),
			box(1, 0, 0, 9, 50),
			box(3, 0, 0, 50, 9.5),
			box(1, 100, 50, 110, 60),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tooSmall)
	assert.Equal(t, []annotation.Record{
		{ClassID: 2, Xmin: 0.1, Ymin: 0.1, Xmax: 0.3, Ymax: 0.5},
		{ClassID: 1, Xmin: 0.5, Ymin: 0.5, Xmax: 0.55, Ymax: 0.6},
	}, records)

	_, _, err = p.FilterFrame(detector.FrameResult{Index: 1, Boxes: []detector.Box{box(1, 0, 0, 20, 20)}})
	assert.Error(t, err)
}

func TestRunWritesOnlyFramesWithBoxes(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "output_annotations")
	det := &fakeDetector{frames: []detector.FrameResult{
		{Index: 0, Width: 100, Height: 100, Boxes: []detector.Box{box(2, 10, 10, 40, 40)}},
		{Index: 1, Width: 100, Height: 100},
		{Index: 2, Width: 100, Height: 100, Boxes: []detector.Box{box(1, 10, 10, 12, 12)}},
		{Index: 3, Width: 100, Height: 100, Boxes: []detector.Box{box(3, 0, 0, 50, 50), box(2, 50, 50, 100, 100)}},
	}}

	stats, err := New(outDir).Run(context.Background(), det, "match.mp4")
	require.NoError(t, err)
	assert.Equal(t, Stats{Frames: 4, FramesWritten: 2, Boxes: 4, BoxesKept: 3, BoxesTooSmall: 1}, stats)

	names, err := utils.ListDir(outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"frame_0000.txt", "frame_0003.txt"}, names)

	records, err := annotation.ReadFile(filepath.Join(outDir, "frame_0003.txt"))
	require.NoError(t, err)
	assert.Equal(t, []annotation.Record{
		{ClassID: 3, Xmin: 0, Ymin: 0, Xmax: 0.5, Ymax: 0.5},
		{ClassID: 2, Xmin: 0.5, Ymin: 0.5, Xmax: 1, Ymax: 1},
	}, records)
}

func TestRunDetectorError(t *testing.T) {
	det := &fakeDetector{
		frames: []detector.FrameResult{{Index: 0, Width: 100, Height: 100, Boxes: []detector.Box{box(2, 10, 10, 40, 40)}}},
		err:    errors.New("video ended unexpectedly"),
	}

	stats, err := New(t.TempDir()).Run(context.Background(), det, "match.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video ended unexpectedly")
	assert.Equal(t, 1, stats.FramesWritten)
}

func TestRunInvalidFrameSizeStopsDetector(t *testing.T) {
	frames := make([]detector.FrameResult, 0)
	frames = append(frames, detector.FrameResult{Index: 0, Boxes: []detector.Box{box(1, 0, 0, 20, 20)}})
	for i := 1; i < 100; i++ {
		frames = append(frames, detector.FrameResult{Index: i, Width: 100, Height: 100, Boxes: []detector.Box{box(1, 0, 0, 20, 20)}})
	}

	stats, err := New(t.TempDir()).Run(context.Background(), &fakeDetector{frames: frames}, "match.mp4")
	require.Error(t, err)
	assert.Equal(t, 0, stats.FramesWritten)
}

// Producer output read back by the evaluator against itself yields a pure diagonal matrix
func TestRunOutputEvaluates(t *testing.T) {
	outDir := t.TempDir()
	det := &fakeDetector{frames: []detector.FrameResult{
		{Index: 1, Width: 640, Height: 360, Boxes: []detector.Box{box(1, 10, 10, 30, 30), box(2, 100, 100, 140, 200)}},
		{Index: 2, Width: 640, Height: 360, Boxes: []detector.Box{box(3, 300, 100, 340, 220)}},
	}}

	_, err := New(outDir).Run(context.Background(), det, "match.mp4")
	require.NoError(t, err)

	result, err := evaluate.NewEvaluator(outDir, outDir, utils.DefaultClassNames).Run()
	require.NoError(t, err)
	assert.Equal(t, 3, result.Matrix.Trace())
	assert.Equal(t, 3, result.Matrix.Total())

	_, err = os.Stat(filepath.Join(outDir, "frame_0001.txt"))
	assert.NoError(t, err)
}
