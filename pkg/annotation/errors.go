package annotation

import "fmt"

//ParseError is returned when a frame id can not be recovered from a label file name
type ParseError struct {
	File   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed label file name '%s': %s", e.File, e.Reason)
}

//InvalidClassLabelError is returned for a class token that is not an integer
type InvalidClassLabelError struct {
	Token string
	// set by callers that know where the token came from
	Frame int
	File  string
}

func (e *InvalidClassLabelError) Error() string {
	switch {
	case e.File != "":
		return fmt.Sprintf("invalid class label '%s' in '%s'", e.Token, e.File)
	case e.Frame >= 0:
		return fmt.Sprintf("invalid class label '%s' in frame %d", e.Token, e.Frame)
	default:
		return fmt.Sprintf("invalid class label '%s'", e.Token)
	}
}
