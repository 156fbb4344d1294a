package render

import (
	"errors"
	"fmt"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

//Save writes the image to path, the format follows the file extension
func Save(path string, img gocv.Mat) error {
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("Save: Could not write '%s'", path)
	}
	return nil
}

//EncodePNG returns the image encoded as PNG
func EncodePNG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("EncodePNG: Error, got '%w'", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

//Show opens a window with the image and blocks until a key is pressed
func Show(title string, img gocv.Mat) {
	window := gocv.NewWindow(title)
	defer window.Close()

	window.IMShow(img)
	window.WaitKey(0)
}

//Render draws the matrix once, saving it to output when set and opening a window when show is true.
//An empty matrix is never drawn.
func Render(m *evaluate.ConfusionMatrix, classNames []string, opts Options, output string, show bool) error {
	if m.Empty() {
		return evaluate.ErrEmptyEvaluationSet
	}
	if output == "" && !show {
		return errors.New("Render: nothing to do, set an output file or enable show")
	}

	img, err := Heatmap(m, classNames, opts)
	if err != nil {
		return err
	}
	defer img.Close()

	if output != "" {
		if err := Save(output, img); err != nil {
			return err
		}
		logrus.Infof("Render: heatmap saved to '%s'", output)
	}

	if show {
		Show(opts.Title, img)
	}

	return nil
}
