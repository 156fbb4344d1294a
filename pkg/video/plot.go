package video

import (
	"image"
	"image/color"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"gocv.io/x/gocv"
	"golang.org/x/image/colornames"
)

var whiteRGB = color.RGBA{255, 255, 255, 0}

//ClassColor returns the box color of given class id, unknown classes are drawn in gray
func ClassColor(classID int) color.RGBA {
	switch classID {
	case utils.BallClass:
		return colornames.Orange
	case utils.PlayerClass:
		return colornames.Green
	case utils.RefereeClass:
		return colornames.Blue
	default:
		return colornames.Gray
	}
}

//ToPixels converts a normalized record back to a pixel rectangle of a width x height frame
func ToPixels(r annotation.Record, width, height int) image.Rectangle {
	rect := image.Rect(
		int(r.Xmin*float64(width)+0.5),
		int(r.Ymin*float64(height)+0.5),
		int(r.Xmax*float64(width)+0.5),
		int(r.Ymax*float64(height)+0.5),
	)

	return fixBbox(rect, height, width)
}

//fixBbox fixes bounding boxes values in case they are out of frame's range
func fixBbox(bbox image.Rectangle, frameHeight, frameWidth int) image.Rectangle {
	return bbox.Intersect(image.Rect(0, 0, frameWidth, frameHeight))
}

//plotRecord plots given record's bounding box and writes its class name above it
func plotRecord(frame *gocv.Mat, r annotation.Record, label string) {
	bbox := ToPixels(r, frame.Cols(), frame.Rows())
	if bbox.Empty() {
		return
	}

	plotColor := ClassColor(r.ClassID)
	gocv.Rectangle(frame, bbox, plotColor, 2)

	size := gocv.GetTextSize(label, gocv.FontHersheyPlain, 1, 1)
	textY := bbox.Min.Y - 5
	if textY-size.Y < 0 { //no room above the box
		textY = bbox.Min.Y + size.Y + 5
	}
	textBackgroundRect := image.Rect(bbox.Min.X, textY-size.Y-5, bbox.Min.X+size.X+6, textY+5)

	gocv.Rectangle(frame, textBackgroundRect, plotColor, -1) //thickness -1 == filled rectangle
	gocv.PutText(frame, label, image.Pt(bbox.Min.X+3, textY), gocv.FontHersheyPlain, 1, whiteRGB, 1)
}
