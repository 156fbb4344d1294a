package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"gocv.io/x/gocv"
	"golang.org/x/image/colornames"
)

var (
	// end points of the sequential blue palette, low counts are light
	lowColor  = colornames.Aliceblue
	highColor = colornames.Midnightblue

	black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	grid  = colornames.Lightgray
)

//Bounds of Options.CellSize in pixels
const (
	MinCellSize = 20
	MaxCellSize = 400
)

//Options controls the heatmap layout
type Options struct {
	CellSize int
	Title    string
	//Font used for every text on the image
	Face      gocv.HersheyFont
	FontScale float64
}

//DefaultOptions returns 100px cells titled "Confusion Matrix"
func DefaultOptions() Options {
	return Options{
		CellSize:  100,
		Title:     "Confusion Matrix",
		Face:      gocv.FontHersheySimplex,
		FontScale: 0.6,
	}
}

//Layout holds the pixel geometry of a K x K heatmap
type Layout struct {
	Left, Top, Right, Bottom int
	CellSize                 int
	K                        int
}

//NewLayout computes margins large enough for the longest class name
func NewLayout(k int, classNames []string, cellSize int) Layout {
	longest := 0
	for _, name := range classNames {
		if len(name) > longest {
			longest = len(name)
		}
	}

	return Layout{
		Left:     40 + longest*12,
		Top:      70,
		Right:    20,
		Bottom:   80,
		CellSize: cellSize,
		K:        k,
	}
}

//Size returns the image width and height
func (l Layout) Size() (int, int) {
	return l.Left + l.K*l.CellSize + l.Right, l.Top + l.K*l.CellSize + l.Bottom
}

//Cell returns the rectangle of cell (true class t, predicted class p)
func (l Layout) Cell(t, p int) image.Rectangle {
	x := l.Left + p*l.CellSize
	y := l.Top + t*l.CellSize
	return image.Rect(x, y, x+l.CellSize, y+l.CellSize)
}

//ClampCellSize bounds size to [MinCellSize, MaxCellSize], a non positive size means the default
func ClampCellSize(size int) int {
	switch {
	case size <= 0:
		return DefaultOptions().CellSize
	case size < MinCellSize:
		return MinCellSize
	case size > MaxCellSize:
		return MaxCellSize
	}
	return size
}

//ValidCellSize reports whether size can be used as is
func ValidCellSize(size int) bool {
	return size >= MinCellSize && size <= MaxCellSize
}

//CellColor interpolates the palette for value in [0, peak]
func CellColor(value, peak int) color.RGBA {
	if peak <= 0 || value <= 0 {
		return lowColor
	}
	if value > peak {
		value = peak
	}

	f := float64(value) / float64(peak)
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
	}

	return color.RGBA{R: lerp(lowColor.R, highColor.R), G: lerp(lowColor.G, highColor.G), B: lerp(lowColor.B, highColor.B), A: 255}
}

//TextColor picks black or white text for legibility on given background
func TextColor(bg color.RGBA) color.RGBA {
	luminance := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luminance < 128 {
		return white
	}
	return black
}

//Heatmap draws the matrix as an annotated heatmap, rows are true classes and columns predicted classes.
//The caller owns the returned Mat and must Close it.
func Heatmap(m *evaluate.ConfusionMatrix, classNames []string, opts Options) (gocv.Mat, error) {
	if len(classNames) != m.K() {
		return gocv.NewMat(), fmt.Errorf("Heatmap: got %d class names for a %dx%d matrix", len(classNames), m.K(), m.K())
	}
	opts.CellSize = ClampCellSize(opts.CellSize)
	if opts.FontScale <= 0 {
		opts.FontScale = DefaultOptions().FontScale
	}

	layout := NewLayout(m.K(), classNames, opts.CellSize)
	width, height := layout.Size()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), height, width, gocv.MatTypeCV8UC3)

	peak := m.Max()
	for t := 0; t < m.K(); t++ {
		for p := 0; p < m.K(); p++ {
			cell := layout.Cell(t, p)
			bg := CellColor(m.At(t, p), peak)
			gocv.Rectangle(&img, cell, bg, -1) //thickness -1 == filled rectangle
			gocv.Rectangle(&img, cell, grid, 1)
			putCentered(&img, strconv.Itoa(m.At(t, p)), cell, opts, TextColor(bg))
		}
	}

	// column labels under the grid, row labels left of it
	for i, name := range classNames {
		col := layout.Cell(m.K()-1, i)
		putCentered(&img, name, image.Rect(col.Min.X, col.Max.Y+5, col.Max.X, col.Max.Y+30), opts, black)

		row := layout.Cell(i, 0)
		size := gocv.GetTextSize(name, opts.Face, opts.FontScale, 1)
		gocv.PutText(&img, name, image.Pt(row.Min.X-size.X-10, row.Min.Y+(row.Dy()+size.Y)/2), opts.Face, opts.FontScale, black, 1)
	}

	gridRight := layout.Left + m.K()*layout.CellSize
	gridBottom := layout.Top + m.K()*layout.CellSize
	putCentered(&img, "Predicted Labels", image.Rect(layout.Left, gridBottom+35, gridRight, gridBottom+70), opts, black)
	gocv.PutText(&img, "True Labels", image.Pt(10, layout.Top-10), opts.Face, opts.FontScale, black, 1)
	putCentered(&img, opts.Title, image.Rect(layout.Left, 10, gridRight, layout.Top-30), opts, black)

	return img, nil
}

func putCentered(img *gocv.Mat, text string, r image.Rectangle, opts Options, c color.RGBA) {
	size := gocv.GetTextSize(text, opts.Face, opts.FontScale, 1)
	pt := image.Pt(r.Min.X+(r.Dx()-size.X)/2, r.Min.Y+(r.Dy()+size.Y)/2)
	gocv.PutText(img, text, pt, opts.Face, opts.FontScale, c, 1)
}
