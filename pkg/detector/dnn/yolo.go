package dnn

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/chenBenjamin97/detection-eval/pkg/detector"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	//DefaultInputSize is the square input size of the exported YOLO model
	DefaultInputSize = 640
	//DefaultConfidence is the minimum class score of a kept detection
	DefaultConfidence = 0.25
	//DefaultNMS is the IoU threshold used by non maximum suppression
	DefaultNMS = 0.45
)

//Detector runs a YOLOv8 ONNX model through OpenCV's dnn module over every frame of a video
type Detector struct {
	net        gocv.Net
	InputSize  int
	Confidence float32
	NMS        float32
}

//New loads the model file (".onnx") and returns a Detector with default thresholds
func New(modelPath string) (*Detector, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("New: Error, got '%w'", err)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("New: Could not load model '%s'", modelPath)
	}

	return &Detector{
		net:        net,
		InputSize:  DefaultInputSize,
		Confidence: DefaultConfidence,
		NMS:        DefaultNMS,
	}, nil
}

//Close releases the loaded network
func (d *Detector) Close() error {
	return d.net.Close()
}

//Detect decodes the video frame by frame and sends the detections of every frame to out
func (d *Detector) Detect(ctx context.Context, videoPath string, out chan<- detector.FrameResult) error {
	defer close(out)

	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return fmt.Errorf("Detect: Error opening '%s', got '%w'", videoPath, err)
	}
	defer capture.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for index := 0; ; index++ {
		if ok := capture.Read(&frame); !ok { //finished to read all video's frames
			return nil
		}

		if frame.Empty() {
			logrus.Debugf("Detect: frame %d is empty, skipping", index)
			continue
		}

		boxes, err := d.detectFrame(frame)
		if err != nil {
			return fmt.Errorf("Detect: frame %d: %w", index, err)
		}

		result := detector.FrameResult{Index: index, Width: frame.Cols(), Height: frame.Rows(), Boxes: boxes}
		select {
		case out <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Detector) detectFrame(frame gocv.Mat) ([]detector.Box, error) {
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(d.InputSize, d.InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	dims := prob.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := prob.DataPtrFloat32()
	if err != nil {
		return nil, err
	}

	scaleX := float64(frame.Cols()) / float64(d.InputSize)
	scaleY := float64(frame.Rows()) / float64(d.InputSize)

	candidates, err := DecodeYOLOv8(data, dims[1], dims[2], scaleX, scaleY, d.Confidence)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return []detector.Box{}, nil
	}

	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Confidence
	}

	indices := gocv.NMSBoxes(ClassOffsetRects(candidates), scores, d.Confidence, d.NMS)

	boxes := make([]detector.Box, 0, len(indices))
	for _, i := range indices {
		boxes = append(boxes, candidates[i])
	}

	return boxes, nil
}

//classOffset is larger than any frame side
const classOffset = 7680

//ClassOffsetRects returns the boxes as rectangles shifted by class*classOffset on both axes,
//so one NMSBoxes call only suppresses overlapping boxes of the same class
func ClassOffsetRects(boxes []detector.Box) []image.Rectangle {
	rects := make([]image.Rectangle, len(boxes))
	for i, b := range boxes {
		offset := b.Class * classOffset
		rects[i] = image.Rect(int(b.XYXY[0])+offset, int(b.XYXY[1])+offset, int(b.XYXY[2])+offset, int(b.XYXY[3])+offset)
	}
	return rects
}

//DecodeYOLOv8 reads a YOLOv8 output tensor of shape [1, 4+classes, anchors] (channel major) and returns every anchor whose best
//class score reaches minScore, as xyxy boxes scaled back to the original frame
func DecodeYOLOv8(data []float32, channels, anchors int, scaleX, scaleY float64, minScore float32) ([]detector.Box, error) {
	if channels <= 4 {
		return nil, fmt.Errorf("DecodeYOLOv8: expected more than 4 channels, got %d", channels)
	}
	if len(data) < channels*anchors {
		return nil, errors.New("DecodeYOLOv8: output tensor is shorter than its shape")
	}

	boxes := make([]detector.Box, 0)
	for a := 0; a < anchors; a++ {
		bestClass, bestScore := -1, float32(0)
		for c := 4; c < channels; c++ {
			if score := data[c*anchors+a]; score > bestScore {
				bestClass, bestScore = c-4, score
			}
		}

		if bestClass < 0 || bestScore < minScore {
			continue
		}

		cx, cy := float64(data[a]), float64(data[anchors+a])
		w, h := float64(data[2*anchors+a]), float64(data[3*anchors+a])

		boxes = append(boxes, detector.Box{
			XYXY: [4]float64{
				(cx - w/2) * scaleX,
				(cy - h/2) * scaleY,
				(cx + w/2) * scaleX,
				(cy + h/2) * scaleY,
			},
			Class:      bestClass,
			Confidence: bestScore,
		})
	}

	return boxes, nil
}
