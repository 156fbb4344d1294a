package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

//Overlay reads a video and draws the boxes of every frame's annotation file from annotationsDir on it.
//The result is written as XVID (MPEG-4 codec) to outputPath, which should carry the '.avi' extension.
//Frame i is matched with "<prefix>_%04d.txt", frames without a file are copied unchanged.
//It returns the number of frames that had annotations drawn.
func Overlay(ctx context.Context, videoPath, annotationsDir, prefix, outputPath string, classNames []string) (int, error) {
	if prefix == "" {
		prefix = annotation.DefaultPrefix
	}

	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return 0, fmt.Errorf("Overlay: Error, got '%w'", err)
	}
	defer capture.Close()

	videoWriter, err := gocv.VideoWriterFile(outputPath, "XVID", capture.Get(gocv.VideoCaptureFPS), int(capture.Get(gocv.VideoCaptureFrameWidth)), int(capture.Get(gocv.VideoCaptureFrameHeight)), true)
	if err != nil {
		return 0, fmt.Errorf("Overlay: Error, got '%w'", err)
	}
	defer videoWriter.Close()

	frameMat := gocv.NewMat()
	defer frameMat.Close()

	annotated := 0
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return annotated, err
		}

		if ok := capture.Read(&frameMat); !ok { //finished to read all video's frames
			break
		}
		if frameMat.Empty() {
			continue
		}

		records, err := frameRecords(annotationsDir, prefix, index)
		if err != nil {
			return annotated, err
		}
		for _, r := range records {
			plotRecord(&frameMat, r, Label(r.ClassID, classNames))
		}
		if len(records) > 0 {
			annotated++
		}

		if err := videoWriter.Write(frameMat); err != nil {
			return annotated, fmt.Errorf("Overlay: Error writing frame %d, got '%w'", index, err)
		}
	}

	logrus.Infof("Overlay: '%s' written, %d annotated frames", outputPath, annotated)
	return annotated, nil
}

//Label returns the class name of given id, or the id itself when the vocabulary does not cover it
func Label(classID int, classNames []string) string {
	if classID >= 0 && classID < len(classNames) {
		return classNames[classID]
	}
	return strconv.Itoa(classID)
}

func frameRecords(dir, prefix string, index int) ([]annotation.Record, error) {
	records, err := annotation.ReadFile(filepath.Join(dir, annotation.FrameFileName(prefix, index)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return records, err
}
