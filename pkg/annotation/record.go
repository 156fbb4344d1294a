package annotation

import (
	"fmt"
	"strconv"
	"strings"
)

//Record is a single bounding box detection inside one frame.
//Coordinates are normalized to the unit square (xmin, ymin, xmax, ymax).
type Record struct {
	ClassID int
	Xmin    float64
	Ymin    float64
	Xmax    float64
	Ymax    float64
}

//String formats the record the way it is persisted: "class xmin ymin xmax ymax"
func (r Record) String() string {
	return fmt.Sprintf("%d %s %s %s %s", r.ClassID, formatCoord(r.Xmin), formatCoord(r.Ymin), formatCoord(r.Xmax), formatCoord(r.Ymax))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

//ClassToken returns the first whitespace separated token of a label line, which is the class id as written by the producer.
//ok is false for blank lines.
func ClassToken(line string) (token string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

//ParseClass converts a class token to an integer class id
func ParseClass(token string) (int, error) {
	id, err := strconv.Atoi(token)
	if err != nil {
		return 0, &InvalidClassLabelError{Token: token, Frame: -1}
	}
	return id, nil
}

//ParseLine parses a full label line including the bounding box coordinates
func ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Record{}, fmt.Errorf("ParseLine: expected 5 fields, got %d in '%s'", len(fields), line)
	}

	id, err := ParseClass(fields[0])
	if err != nil {
		return Record{}, err
	}

	coords := make([]float64, 4)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Record{}, fmt.Errorf("ParseLine: invalid coordinate '%s', got '%v'", f, err)
		}
		coords[i] = v
	}

	return Record{ClassID: id, Xmin: coords[0], Ymin: coords[1], Xmax: coords[2], Ymax: coords[3]}, nil
}

//Normalize divides pixel xyxy coordinates by the frame size so they land in [0,1]
func Normalize(classID int, xyxy [4]float64, frameWidth, frameHeight int) Record {
	w, h := float64(frameWidth), float64(frameHeight)
	return Record{
		ClassID: classID,
		Xmin:    xyxy[0] / w,
		Ymin:    xyxy[1] / h,
		Xmax:    xyxy[2] / w,
		Ymax:    xyxy[3] / h,
	}
}
