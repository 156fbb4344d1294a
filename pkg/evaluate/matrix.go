package evaluate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//ConfusionMatrix is a K x K grid of counts where cell (t, p) counts label pairs with ground truth class t and predicted
//class p. It is immutable once built.
type ConfusionMatrix struct {
	k      int
	counts []int
}

//BuildConfusionMatrix counts (gt[i], pred[i]) pairs over a vocabulary of size k.
//Both sequences must have equal length. Empty input yields an all-zero matrix together with ErrEmptyEvaluationSet.
func BuildConfusionMatrix(gt, pred []int, k int) (*ConfusionMatrix, error) {
	if k <= 0 {
		return nil, fmt.Errorf("BuildConfusionMatrix: vocabulary size must be positive, got %d", k)
	}

	if len(gt) != len(pred) {
		return nil, &FrameLabelCountMismatchError{Frame: -1, GT: len(gt), Pred: len(pred)}
	}

	m := &ConfusionMatrix{k: k, counts: make([]int, k*k)}

	for i := range gt {
		if gt[i] < 0 || gt[i] >= k {
			return nil, &LabelOutOfRangeError{Label: gt[i], K: k, Position: i, Source: "ground truth"}
		}
		if pred[i] < 0 || pred[i] >= k {
			return nil, &LabelOutOfRangeError{Label: pred[i], K: k, Position: i, Source: "predicted"}
		}
		m.counts[gt[i]*k+pred[i]]++
	}

	if len(gt) == 0 {
		return m, ErrEmptyEvaluationSet
	}

	return m, nil
}

//K returns the vocabulary size
func (m *ConfusionMatrix) K() int {
	return m.k
}

//At returns the count of labels of true class t predicted as class p
func (m *ConfusionMatrix) At(t, p int) int {
	return m.counts[t*m.k+p]
}

//Counts returns a copy of the grid as rows of true classes
func (m *ConfusionMatrix) Counts() [][]int {
	rows := make([][]int, m.k)
	for t := 0; t < m.k; t++ {
		rows[t] = make([]int, m.k)
		copy(rows[t], m.counts[t*m.k:(t+1)*m.k])
	}
	return rows
}

//Total returns the sum of all cells
func (m *ConfusionMatrix) Total() int {
	total := 0
	for _, c := range m.counts {
		total += c
	}
	return total
}

//Empty reports whether every cell is zero
func (m *ConfusionMatrix) Empty() bool {
	return m.Total() == 0
}

//Max returns the largest cell
func (m *ConfusionMatrix) Max() int {
	largest := 0
	for _, c := range m.counts {
		if c > largest {
			largest = c
		}
	}
	return largest
}

//Trace returns the number of correctly classified labels
func (m *ConfusionMatrix) Trace() int {
	trace := 0
	for c := 0; c < m.k; c++ {
		trace += m.At(c, c)
	}
	return trace
}

//Support returns the number of ground truth labels of class c
func (m *ConfusionMatrix) Support(c int) int {
	n := 0
	for p := 0; p < m.k; p++ {
		n += m.At(c, p)
	}
	return n
}

//Predicted returns the number of labels predicted as class c
func (m *ConfusionMatrix) Predicted(c int) int {
	n := 0
	for t := 0; t < m.k; t++ {
		n += m.At(t, c)
	}
	return n
}

//Accuracy is trace / total, 0 for an empty matrix
func (m *ConfusionMatrix) Accuracy() float64 {
	return ratio(m.Trace(), m.Total())
}

//Precision of class c, 0 when nothing was predicted as c
func (m *ConfusionMatrix) Precision(c int) float64 {
	return ratio(m.At(c, c), m.Predicted(c))
}

//Recall of class c, 0 when class c has no ground truth labels
func (m *ConfusionMatrix) Recall(c int) float64 {
	return ratio(m.At(c, c), m.Support(c))
}

//F1 of class c
func (m *ConfusionMatrix) F1(c int) float64 {
	p, r := m.Precision(c), m.Recall(c)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

//Dense returns the counts as a new gonum matrix
func (m *ConfusionMatrix) Dense() *mat.Dense {
	data := make([]float64, len(m.counts))
	for i, c := range m.counts {
		data[i] = float64(c)
	}
	return mat.NewDense(m.k, m.k, data)
}

//Normalized returns the matrix with every row divided by its support. Rows without support stay zero.
func (m *ConfusionMatrix) Normalized() *mat.Dense {
	d := m.Dense()
	for t := 0; t < m.k; t++ {
		support := m.Support(t)
		if support == 0 {
			continue
		}
		row := d.RawRowView(t)
		for p := range row {
			row[p] /= float64(support)
		}
	}
	return d
}

func (m *ConfusionMatrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.Dense(), mat.Squeeze()))
}
