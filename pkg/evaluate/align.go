package evaluate

import (
	"errors"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
)

//Alignment holds the flattened class sequences of the frames common to both directories
type Alignment struct {
	//FrameIDs are the aligned frame ids in ascending order
	FrameIDs []int
	GT       []int
	Pred     []int
	//GTOnly and PredOnly are frame ids left out because the other directory does not have them
	GTOnly   []int
	PredOnly []int
	//TruncatedFrames lists frames whose longer side was cut under MismatchTruncate, DroppedLabels counts the labels cut
	TruncatedFrames []int
	DroppedLabels   int
}

//Pairs returns the number of paired label positions
func (a *Alignment) Pairs() int {
	return len(a.GT)
}

//Excluded returns the number of frames present in only one directory
func (a *Alignment) Excluded() int {
	return len(a.GTOnly) + len(a.PredOnly)
}

//AlignAndFlatten walks the frame ids present in both maps in ascending order and appends each frame's ground truth and
//predicted labels to two flat sequences, converting them to integers on the way.
//Frames whose label counts differ are handled according to opts.Mismatch.
func AlignAndFlatten(gt, pred FrameLabels, opts Options) (*Alignment, error) {
	a := &Alignment{
		FrameIDs: make([]int, 0),
		GT:       make([]int, 0),
		Pred:     make([]int, 0),
		GTOnly:   make([]int, 0),
		PredOnly: make([]int, 0),

		TruncatedFrames: make([]int, 0),
	}

	for _, id := range gt.IDs() {
		if _, ok := pred[id]; ok {
			a.FrameIDs = append(a.FrameIDs, id)
		} else {
			a.GTOnly = append(a.GTOnly, id)
		}
	}

	for _, id := range pred.IDs() {
		if _, ok := gt[id]; !ok {
			a.PredOnly = append(a.PredOnly, id)
		}
	}

	if opts.Unmatched == UnmatchedFail && a.Excluded() > 0 {
		return nil, &UnmatchedFramesError{GTOnly: a.GTOnly, PredOnly: a.PredOnly}
	}

	for _, id := range a.FrameIDs {
		gtLabels, err := toClassIDs(gt[id], id)
		if err != nil {
			return nil, err
		}
		predLabels, err := toClassIDs(pred[id], id)
		if err != nil {
			return nil, err
		}

		if len(gtLabels) != len(predLabels) {
			if opts.Mismatch != MismatchTruncate {
				return nil, &FrameLabelCountMismatchError{Frame: id, GT: len(gtLabels), Pred: len(predLabels)}
			}

			n := len(gtLabels)
			if len(predLabels) < n {
				n = len(predLabels)
			}
			a.DroppedLabels += len(gtLabels) + len(predLabels) - 2*n
			a.TruncatedFrames = append(a.TruncatedFrames, id)
			gtLabels, predLabels = gtLabels[:n], predLabels[:n]
		}

		a.GT = append(a.GT, gtLabels...)
		a.Pred = append(a.Pred, predLabels...)
	}

	return a, nil
}

func toClassIDs(tokens []string, frame int) ([]int, error) {
	ids := make([]int, len(tokens))
	for i, token := range tokens {
		id, err := annotation.ParseClass(token)
		if err != nil {
			var invalid *InvalidClassLabelError
			if errors.As(err, &invalid) {
				invalid.Frame = frame
			}
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
