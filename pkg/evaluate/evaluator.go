package evaluate

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

//Evaluator compares a directory of predicted frame label files against a directory of ground truth frame label files
type Evaluator struct {
	GroundTruthDir string
	PredictedDir   string
	//ClassNames is the ordered label vocabulary, its length is K
	ClassNames []string
	Options    Options
	//Progress receives one loading bar per directory, nothing is drawn when nil
	Progress io.Writer
}

//Result is the outcome of one evaluation run
type Result struct {
	ClassNames []string
	Matrix     *ConfusionMatrix
	Alignment  *Alignment
	GTFrames   int
	PredFrames int
}

//NewEvaluator returns an Evaluator with the default alignment policies
func NewEvaluator(groundTruthDir, predictedDir string, classNames []string) *Evaluator {
	return &Evaluator{
		GroundTruthDir: groundTruthDir,
		PredictedDir:   predictedDir,
		ClassNames:     classNames,
		Options:        DefaultOptions(),
	}
}

//Run loads both directories, aligns them on common frame ids and builds the confusion matrix.
//When nothing is left to compare, Run returns a Result holding the all-zero matrix together with ErrEmptyEvaluationSet.
func (e *Evaluator) Run() (*Result, error) {
	if len(e.ClassNames) == 0 {
		return nil, errors.New("Run: empty label vocabulary")
	}

	gt, err := LoadFrameLabelsWithProgress(e.GroundTruthDir, e.Progress)
	if err != nil {
		return nil, fmt.Errorf("Run: ground truth: %w", err)
	}

	pred, err := LoadFrameLabelsWithProgress(e.PredictedDir, e.Progress)
	if err != nil {
		return nil, fmt.Errorf("Run: predictions: %w", err)
	}

	alignment, err := AlignAndFlatten(gt, pred, e.Options)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	if alignment.Excluded() > 0 {
		logrus.Infof("Run: excluded %d frames only in ground truth and %d frames only in predictions", len(alignment.GTOnly), len(alignment.PredOnly))
	}
	if alignment.DroppedLabels > 0 {
		logrus.Warnf("Run: truncated %d frames, dropped %d unpaired labels", len(alignment.TruncatedFrames), alignment.DroppedLabels)
	}

	result := &Result{
		ClassNames: e.ClassNames,
		Alignment:  alignment,
		GTFrames:   len(gt),
		PredFrames: len(pred),
	}

	result.Matrix, err = BuildConfusionMatrix(alignment.GT, alignment.Pred, len(e.ClassNames))
	if err != nil {
		if errors.Is(err, ErrEmptyEvaluationSet) {
			return result, err
		}
		return nil, fmt.Errorf("Run: %w", err)
	}

	logrus.Infof("Run: evaluated %d frames, %d label pairs, accuracy %.4f", len(alignment.FrameIDs), alignment.Pairs(), result.Matrix.Accuracy())
	return result, nil
}
