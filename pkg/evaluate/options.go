package evaluate

import "fmt"

//MismatchPolicy decides what happens when an aligned frame holds a different number of ground truth and predicted labels
type MismatchPolicy string

const (
	//MismatchFail aborts with a FrameLabelCountMismatchError naming the frame
	MismatchFail MismatchPolicy = "fail"
	//MismatchTruncate pairs labels positionally up to the shorter count of each frame and drops the rest
	MismatchTruncate MismatchPolicy = "truncate"
)

//UnmatchedPolicy decides what happens to frames present in only one of the two directories
type UnmatchedPolicy string

const (
	//UnmatchedExclude leaves them out of the evaluation and reports how many were left out
	UnmatchedExclude UnmatchedPolicy = "exclude"
	//UnmatchedFail aborts with an UnmatchedFramesError
	UnmatchedFail UnmatchedPolicy = "fail"
)

//Options holds the alignment policies
type Options struct {
	Mismatch  MismatchPolicy
	Unmatched UnmatchedPolicy
}

//DefaultOptions fails on label count mismatches and silently excludes unmatched frames
func DefaultOptions() Options {
	return Options{Mismatch: MismatchFail, Unmatched: UnmatchedExclude}
}

//ParseMismatchPolicy accepts "fail" or "truncate", empty means "fail"
func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	switch MismatchPolicy(s) {
	case "", MismatchFail:
		return MismatchFail, nil
	case MismatchTruncate:
		return MismatchTruncate, nil
	}
	return "", fmt.Errorf("invalid mismatch policy '%s', expected 'fail' or 'truncate'", s)
}

//ParseUnmatchedPolicy accepts "exclude" or "fail", empty means "exclude"
func ParseUnmatchedPolicy(s string) (UnmatchedPolicy, error) {
	switch UnmatchedPolicy(s) {
	case "", UnmatchedExclude:
		return UnmatchedExclude, nil
	case UnmatchedFail:
		return UnmatchedFail, nil
	}
	return "", fmt.Errorf("invalid unmatched frames policy '%s', expected 'exclude' or 'fail'", s)
}
