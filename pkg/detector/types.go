package detector

import "context"

//Box is a single detection in pixel coordinates of the original frame
type Box struct {
	XYXY       [4]float64
	Class      int
	Confidence float32
}

//Width of the box in pixels
func (b Box) Width() float64 {
	return b.XYXY[2] - b.XYXY[0]
}

//Height of the box in pixels
func (b Box) Height() float64 {
	return b.XYXY[3] - b.XYXY[1]
}

//FrameResult holds all detections of one video frame together with the frame's original size
type FrameResult struct {
	Index  int
	Width  int
	Height int
	Boxes  []Box
}

//Detector runs object detection over a whole video, sending one FrameResult per decoded frame in frame order.
//Detect must close out before returning.
type Detector interface {
	Detect(ctx context.Context, videoPath string, out chan<- FrameResult) error
}
