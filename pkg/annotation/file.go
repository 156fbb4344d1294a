package annotation

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//Ext is the extension of every per-frame label file
const Ext = ".txt"

//DefaultPrefix is the file name prefix the producer uses ("frame_0001.txt")
const DefaultPrefix = "frame"

//IsLabelFile reports whether name ends with the label file extension
func IsLabelFile(name string) bool {
	return strings.HasSuffix(name, Ext)
}

//FrameID extracts the frame id from a label file name: the second '_' separated segment, cut at ".txt".
//"frame_0001.txt" -> 1
func FrameID(name string) (int, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, &ParseError{File: name, Reason: "no '_' separated frame id segment"}
	}

	idx := strings.Index(parts[1], Ext)
	segment := parts[1]
	if idx >= 0 {
		segment = segment[:idx]
	}

	if segment == "" {
		return 0, &ParseError{File: name, Reason: "empty frame id segment"}
	}

	id, err := strconv.Atoi(segment)
	if err != nil {
		return 0, &ParseError{File: name, Reason: fmt.Sprintf("frame id '%s' is not an integer", segment)}
	}

	return id, nil
}

//FrameFileName returns the label file name for given frame index, zero padded to 4 digits
func FrameFileName(prefix string, index int) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%04d%s", prefix, index, Ext)
}

//maxLineSize bounds a single label file line
const maxLineSize = 10 << 20

//ReadClassTokens returns the class token of every non-empty line of a label file, in line order
func ReadClassTokens(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadClassTokens: Error, got '%w'", err)
	}
	defer f.Close()

	tokens := make([]string, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if token, ok := ClassToken(scanner.Text()); ok {
			tokens = append(tokens, token)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ReadClassTokens: Error reading '%s', got '%w'", path, err)
	}

	return tokens, nil
}

//ReadFile parses every non-empty line of a label file into a Record
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: Error, got '%w'", err)
	}
	defer f.Close()

	records := make([]Record, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		r, err := ParseLine(line)
		if err != nil {
			var invalid *InvalidClassLabelError
			if errors.As(err, &invalid) {
				invalid.File = path
				return nil, invalid
			}
			return nil, fmt.Errorf("ReadFile: '%s' line %d: %w", path, lineNum, err)
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ReadFile: Error reading '%s', got '%w'", path, err)
	}

	return records, nil
}

//WriteFile writes records one per line, newline separated with no trailing newline.
//An empty slice is refused: frames without detections must not produce a file.
func WriteFile(path string, records []Record) error {
	if len(records) == 0 {
		return errors.New("WriteFile: refusing to write an empty label file")
	}

	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("WriteFile: Could not write '%s', got '%w'", path, err)
	}

	return nil
}
