package producer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
	"github.com/chenBenjamin97/detection-eval/pkg/detector"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

//Producer turns detector output into per-frame label files
type Producer struct {
	OutDir string
	//Prefix of the written file names, "frame" when empty
	Prefix       string
	MinBoxWidth  float64
	MinBoxHeight float64
	//Progress receives a frame counter spinner, nothing is drawn when nil
	Progress io.Writer
}

//Stats summarizes one producer run
type Stats struct {
	Frames        int
	FramesWritten int
	Boxes         int
	BoxesKept     int
	BoxesTooSmall int
}

//New returns a Producer writing to outDir with the default 10x10 pixel minimum box size
func New(outDir string) *Producer {
	return &Producer{
		OutDir:       outDir,
		Prefix:       annotation.DefaultPrefix,
		MinBoxWidth:  utils.MinBoxWidth,
		MinBoxHeight: utils.MinBoxHeight,
	}
}

//Run drives det over the video and writes one label file for every frame that keeps at least one box.
//Frames without surviving boxes produce no file.
func (p *Producer) Run(ctx context.Context, det detector.Detector, videoPath string) (Stats, error) {
	stats := Stats{}

	if err := utils.EnsureDir(p.OutDir); err != nil {
		return stats, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultsC := make(chan detector.FrameResult, 16)
	errC := make(chan error, 1)
	go func() {
		errC <- det.Detect(ctx, videoPath, resultsC)
	}()

	bar := p.progressBar()

	var writeErr error
	for result := range resultsC {
		if writeErr != nil { //drain after a failure, the detector stops once ctx is cancelled
			continue
		}

		if err := p.handleFrame(result, &stats); err != nil {
			writeErr = err
			cancel()
			continue
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	detectErr := <-errC
	if writeErr != nil {
		return stats, writeErr
	}
	if detectErr != nil {
		return stats, fmt.Errorf("Run: detector failed on '%s': %w", videoPath, detectErr)
	}

	logrus.Infof("Run: %d frames, %d/%d boxes kept (%d too small), %d label files written to '%s'",
		stats.Frames, stats.BoxesKept, stats.Boxes, stats.BoxesTooSmall, stats.FramesWritten, p.OutDir)
	return stats, nil
}

func (p *Producer) handleFrame(result detector.FrameResult, stats *Stats) error {
	stats.Frames++
	stats.Boxes += len(result.Boxes)

	if len(result.Boxes) == 0 {
		logrus.Debugf("handleFrame: No boxes detected in frame %d", result.Index)
		return nil
	}

	records, tooSmall, err := p.FilterFrame(result)
	if err != nil {
		return err
	}
	stats.BoxesTooSmall += tooSmall
	stats.BoxesKept += len(records)

	if len(records) == 0 {
		logrus.Debugf("handleFrame: No valid annotations for frame %04d", result.Index)
		return nil
	}

	path := filepath.Join(p.OutDir, annotation.FrameFileName(p.Prefix, result.Index))
	if err := annotation.WriteFile(path, records); err != nil {
		return err
	}
	stats.FramesWritten++

	return nil
}

//FilterFrame drops boxes narrower than MinBoxWidth or shorter than MinBoxHeight and normalizes the rest by the frame size
func (p *Producer) FilterFrame(result detector.FrameResult) (records []annotation.Record, tooSmall int, err error) {
	if result.Width <= 0 || result.Height <= 0 {
		return nil, 0, fmt.Errorf("FilterFrame: frame %d has invalid size %dx%d", result.Index, result.Width, result.Height)
	}

	records = make([]annotation.Record, 0, len(result.Boxes))
	for _, box := range result.Boxes {
		if box.Width() < p.MinBoxWidth || box.Height() < p.MinBoxHeight {
			logrus.Debugf("FilterFrame: Skipping box with too small dimensions: %vx%v", box.Width(), box.Height())
			tooSmall++
			continue
		}
		records = append(records, annotation.Normalize(box.Class, box.XYXY, result.Width, result.Height))
	}

	return records, tooSmall, nil
}

func (p *Producer) progressBar() *progressbar.ProgressBar {
	w := p.Progress
	if w == nil {
		w = io.Discard
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan][annotate][reset] frames"),
		progressbar.OptionSpinnerType(14),
	)
}
