package detector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const maxLineSize = 10 << 20

//Exec runs an external detector process over a video. The process gets "--video <path>" appended to its arguments and must
//print one JSON object per frame on its standard output:
//
//	{"frame":0,"width":1920,"height":1080,"boxes":[{"xyxy":[10,20,50,90],"cls":2,"conf":0.91}]}
//
//Any other output line is treated as a log line and skipped.
type Exec struct {
	Command string
	Args    []string
}

//NewExec returns a detector running given command, e.g. NewExec("python3", "yolo_inference.py", "--model", "best.pt")
func NewExec(command string, args ...string) *Exec {
	return &Exec{Command: command, Args: args}
}

//Detect starts the detector process and forwards every parsed frame to out
func (e *Exec) Detect(ctx context.Context, videoPath string, out chan<- FrameResult) error {
	defer close(out)

	args := append(append([]string{}, e.Args...), "--video", videoPath)
	cmd := exec.CommandContext(ctx, e.Command, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("Detect: Error, got '%w'", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("Detect: Error starting '%s', got '%w'", e.Command, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var parseErr error
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			if line != "" {
				logrus.Debugf("Detect: %s", line)
			}
			continue
		}

		result, err := ParseFrameLine(line)
		if err != nil {
			parseErr = err
			break
		}

		select {
		case out <- result:
		case <-ctx.Done():
			_ = cmd.Wait()
			return ctx.Err()
		}
	}

	if parseErr != nil {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
		return parseErr
	}

	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("Detect: Error reading detector output, got '%w'", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("Detect: Error waiting detector process, got '%w'", err)
	}

	return nil
}

//ParseFrameLine decodes one JSON frame line printed by a detector process
func ParseFrameLine(line string) (FrameResult, error) {
	if !gjson.Valid(line) {
		return FrameResult{}, fmt.Errorf("ParseFrameLine: invalid JSON '%s'", line)
	}

	parsed := gjson.Parse(line)
	for _, key := range []string{"frame", "width", "height"} {
		if !parsed.Get(key).Exists() {
			return FrameResult{}, fmt.Errorf("ParseFrameLine: missing '%s' in '%s'", key, line)
		}
	}

	result := FrameResult{
		Index:  int(parsed.Get("frame").Int()),
		Width:  int(parsed.Get("width").Int()),
		Height: int(parsed.Get("height").Int()),
		Boxes:  make([]Box, 0),
	}

	var boxErr error
	parsed.Get("boxes").ForEach(func(_, value gjson.Result) bool {
		xyxy := value.Get("xyxy").Array()
		if len(xyxy) != 4 {
			boxErr = errors.New("ParseFrameLine: box 'xyxy' must hold 4 numbers")
			return false
		}
		if !value.Get("cls").Exists() {
			boxErr = errors.New("ParseFrameLine: box is missing 'cls'")
			return false
		}

		box := Box{
			Class:      int(value.Get("cls").Int()),
			Confidence: float32(value.Get("conf").Float()),
		}
		for i, v := range xyxy {
			box.XYXY[i] = v.Float()
		}
		result.Boxes = append(result.Boxes, box)
		return true
	})

	if boxErr != nil {
		return FrameResult{}, fmt.Errorf("%w (frame %d)", boxErr, result.Index)
	}

	return result, nil
}
