package evaluate

import (
	"errors"
	"fmt"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
)

//ErrEmptyEvaluationSet is returned when no label pairs remain to be counted, either because the ground truth and predicted
//directories share no frame id or because the aligned frames hold no labels
var ErrEmptyEvaluationSet = errors.New("empty evaluation set")

//ParseError is returned for a label file whose name does not carry a frame id
type ParseError = annotation.ParseError

//InvalidClassLabelError is returned for a class token that is not an integer
type InvalidClassLabelError = annotation.InvalidClassLabelError

//FrameLabelCountMismatchError is returned when an aligned frame holds a different number of ground truth and predicted labels.
//Frame is -1 when the mismatch is between two already flattened sequences.
type FrameLabelCountMismatchError struct {
	Frame int
	GT    int
	Pred  int
}

func (e *FrameLabelCountMismatchError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("label count mismatch: %d ground truth labels vs %d predicted labels", e.GT, e.Pred)
	}
	return fmt.Sprintf("label count mismatch in frame %d: %d ground truth labels vs %d predicted labels", e.Frame, e.GT, e.Pred)
}

//LabelOutOfRangeError is returned for a class id outside [0, K)
type LabelOutOfRangeError struct {
	Label    int
	K        int
	Position int
	Source   string
}

func (e *LabelOutOfRangeError) Error() string {
	return fmt.Sprintf("%s label %d at position %d is outside the vocabulary range [0, %d)", e.Source, e.Label, e.Position, e.K)
}

//UnmatchedFramesError is returned when unmatched frames are not allowed and a frame id is present in only one directory
type UnmatchedFramesError struct {
	GTOnly   []int
	PredOnly []int
}

func (e *UnmatchedFramesError) Error() string {
	return fmt.Sprintf("%d frames only in ground truth %v, %d frames only in predictions %v", len(e.GTOnly), e.GTOnly, len(e.PredOnly), e.PredOnly)
}
