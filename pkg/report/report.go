package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/mitchellh/colorstring"
	"github.com/tidwall/sjson"
	"gonum.org/v1/gonum/mat"
)

//Summary prints the matrix and per class scores of an evaluation result, colored with colorstring tags
func Summary(w io.Writer, result *evaluate.Result) {
	a := result.Alignment
	m := result.Matrix

	colorstring.Fprintf(w, "[bold]Frames:[reset] %d aligned, %d ground truth, %d predicted\n", len(a.FrameIDs), result.GTFrames, result.PredFrames)
	if a.Excluded() > 0 {
		colorstring.Fprintf(w, "[yellow]Excluded:[reset] %d only in ground truth, %d only in predictions\n", len(a.GTOnly), len(a.PredOnly))
	}
	if a.DroppedLabels > 0 {
		colorstring.Fprintf(w, "[yellow]Truncated:[reset] %d frames, %d unpaired labels dropped\n", len(a.TruncatedFrames), a.DroppedLabels)
	}

	fmt.Fprintln(w, "\nConfusion Matrix (rows: true, columns: predicted):")
	fmt.Fprint(w, Table(m, result.ClassNames))

	fmt.Fprintln(w, "\nRow-normalized (recall per true class):")
	fmt.Fprintf(w, "%.2f\n", mat.Formatted(m.Normalized(), mat.Squeeze()))

	fmt.Fprintf(w, "\n%-12s %10s %10s %10s %8s\n", "class", "precision", "recall", "f1", "support")
	for c, name := range result.ClassNames {
		fmt.Fprintf(w, "%-12s %10.4f %10.4f %10.4f %8d\n", name, m.Precision(c), m.Recall(c), m.F1(c), m.Support(c))
	}

	colorstring.Fprintf(w, "\nAccuracy: [green]%.4f[reset] (%d/%d)\n", m.Accuracy(), m.Trace(), m.Total())
}

//Table formats the matrix counts as a plain text grid with class name headers
func Table(m *evaluate.ConfusionMatrix, classNames []string) string {
	width := 8
	for _, name := range classNames {
		if len(name)+2 > width {
			width = len(name) + 2
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s", width, "")
	for _, name := range classNames {
		fmt.Fprintf(&b, "%*s", width, name)
	}
	b.WriteString("\n")

	for t, row := range m.Counts() {
		fmt.Fprintf(&b, "%*s", width, classNames[t])
		for _, c := range row {
			fmt.Fprintf(&b, "%*d", width, c)
		}
		b.WriteString("\n")
	}

	return b.String()
}

//JSON builds the machine readable report of an evaluation result
func JSON(result *evaluate.Result) (string, error) {
	a := result.Alignment
	m := result.Matrix

	doc := "{}"
	set := func(path string, value interface{}) error {
		var err error
		doc, err = sjson.Set(doc, path, value)
		return err
	}

	fields := []struct {
		path  string
		value interface{}
	}{
		{"classes", result.ClassNames},
		{"matrix", m.Counts()},
		{"matrix_normalized", normalizedRows(m)},
		{"total", m.Total()},
		{"accuracy", m.Accuracy()},
		{"frames.aligned", len(a.FrameIDs)},
		{"frames.ground_truth", result.GTFrames},
		{"frames.predicted", result.PredFrames},
		{"frames.ground_truth_only", a.GTOnly},
		{"frames.predicted_only", a.PredOnly},
		{"frames.truncated", a.TruncatedFrames},
		{"dropped_labels", a.DroppedLabels},
		{"empty", m.Empty()},
	}

	for _, f := range fields {
		if err := set(f.path, f.value); err != nil {
			return "", fmt.Errorf("JSON: Error setting '%s', got '%w'", f.path, err)
		}
	}

	for c, name := range result.ClassNames {
		prefix := "per_class." + escapeKey(name)
		for _, f := range []struct {
			key   string
			value interface{}
		}{
			{"precision", m.Precision(c)},
			{"recall", m.Recall(c)},
			{"f1", m.F1(c)},
			{"support", m.Support(c)},
		} {
			if err := set(prefix+"."+f.key, f.value); err != nil {
				return "", fmt.Errorf("JSON: Error setting '%s', got '%w'", prefix, err)
			}
		}
	}

	return doc, nil
}

func normalizedRows(m *evaluate.ConfusionMatrix) [][]float64 {
	n := m.Normalized()
	rows := make([][]float64, m.K())
	for t := range rows {
		rows[t] = n.RawRowView(t)
	}
	return rows
}

//sjson paths treat '.', '*' and '?' as syntax
func escapeKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

//WriteJSON writes the report to dir as "evaluation_<timestamp>.json" and returns the file path
func WriteJSON(dir string, result *evaluate.Result, now time.Time) (string, error) {
	doc, err := JSON(result)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "evaluation_"+now.Format("20060102_150405")+".json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("WriteJSON: Could not write '%s', got '%w'", path, err)
	}

	return path, nil
}
