package evaluate

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

//FrameLabels maps a frame id to the class tokens of that frame, in file line order
type FrameLabels map[int][]string

//IDs returns the frame ids in ascending order
func (fl FrameLabels) IDs() []int {
	ids := make([]int, 0, len(fl))
	for id := range fl {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

//LabelCount returns the total number of labels over all frames
func (fl FrameLabels) LabelCount() int {
	n := 0
	for _, labels := range fl {
		n += len(labels)
	}
	return n
}

//LoadFrameLabels reads every ".txt" label file in dir. All file names are validated before any file is read, so a single
//malformed name fails the whole directory with a ParseError. Only the first token (class id) of each line is kept.
func LoadFrameLabels(dir string) (FrameLabels, error) {
	return LoadFrameLabelsWithProgress(dir, nil)
}

//LoadFrameLabelsWithProgress is LoadFrameLabels drawing a bar that ticks once per file read on progress, nothing is drawn when nil
func LoadFrameLabelsWithProgress(dir string, progress io.Writer) (FrameLabels, error) {
	names, err := utils.ListDir(dir)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int)
	for _, name := range names {
		if !annotation.IsLabelFile(name) {
			continue
		}
		id, err := annotation.FrameID(name)
		if err != nil {
			return nil, fmt.Errorf("LoadFrameLabels: directory '%s': %w", dir, err)
		}
		ids[name] = id
	}

	bar := loadBar(len(ids), dir, progress)

	labels := make(FrameLabels, len(ids))
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			continue
		}

		tokens, err := annotation.ReadClassTokens(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		if _, exists := labels[id]; exists {
			logrus.Warnf("LoadFrameLabels: frame id %d appears more than once in '%s', keeping '%s'", id, dir, name)
		}
		labels[id] = tokens
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	logrus.Debugf("LoadFrameLabels: loaded %d frames (%d labels) from '%s'", len(labels), labels.LabelCount(), dir)
	return labels, nil
}

func loadBar(total int, dir string, w io.Writer) *progressbar.ProgressBar {
	if w == nil || total == 0 {
		return progressbar.NewOptions(-1, progressbar.OptionSetWriter(io.Discard))
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][load][reset] %s", filepath.Base(dir))),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
