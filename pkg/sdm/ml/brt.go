package ml

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Training errors reported by Fit.
var (
	ErrInsufficientData = errors.New("not enough training rows")
	ErrDegenerateLabels = errors.New("all labels identical")
)

// MinTrainRows is the minimum number of rows Fit accepts.
const MinTrainRows = 10

const maxThresholds = 32

// BRT is a boosted regression tree classifier for binary labels with
// a Bernoulli loss.  The zero value is not usable; set the
// hyperparameters before calling Fit.
type BRT struct {
	LearningRate float64
	NTrees       int
	Depth        int // tree complexity: maximum split depth per tree
	BagFraction  float64
	MinLeaf      int
	Seed         int64
	bias         float64
	trees        []*node
	importance   []float64
}

// node is a single split or leaf of a regression tree.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Value     float64 `json:"value"` // leaf only
	Left      *node   `json:"left,omitempty"`
	Right     *node   `json:"right,omitempty"`
}

func (n *node) leaf() bool { return n.Left == nil && n.Right == nil }

func (n *node) eval(row []float64) float64 {
	for !n.leaf() {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Fit fits the model to the given feature matrix and labels.
func (b *BRT) Fit(x *mat.Dense, y *mat.VecDense) error {
	r, c := x.Dims()
	if r < MinTrainRows {
		return fmt.Errorf("fit: %w: %d rows", ErrInsufficientData, r)
	}
	if b.LearningRate <= 0 || b.NTrees <= 0 || b.Depth <= 0 ||
		b.BagFraction <= 0 || b.BagFraction > 1 {
		return fmt.Errorf("fit: bad hyperparameters: lr=%g, trees=%d, depth=%d, bag=%g",
			b.LearningRate, b.NTrees, b.Depth, b.BagFraction)
	}
	pos := 0
	for i := 0; i < r; i++ {
		if y.AtVec(i) == Presence {
			pos++
		}
	}
	if pos == 0 || pos == r {
		return fmt.Errorf("fit: %w", ErrDegenerateLabels)
	}
	minLeaf := b.MinLeaf
	if minLeaf <= 0 {
		minLeaf = 5
	}
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, x)
	}
	base := float64(pos) / float64(r)
	b.bias = math.Log(base / (1 - base))
	b.trees = nil
	b.importance = make([]float64, c)
	rng := rand.New(rand.NewSource(b.Seed))
	f := make([]float64, r)
	for i := range f {
		f[i] = b.bias
	}
	res := make([]float64, r)
	bagSize := int(b.BagFraction * float64(r))
	if bagSize < 2*minLeaf {
		bagSize = r
	}
	for m := 0; m < b.NTrees; m++ {
		for i := 0; i < r; i++ {
			res[i] = y.AtVec(i) - sigmoid(f[i])
		}
		bag := rng.Perm(r)[:bagSize]
		root := b.grow(rows, res, bag, 0, minLeaf)
		if root.leaf() {
			break // no split improves the fit anymore
		}
		b.trees = append(b.trees, root)
		for i := 0; i < r; i++ {
			f[i] += b.LearningRate * root.eval(rows[i])
		}
	}
	return nil
}

// grow recursively fits a regression tree to the residuals of the
// bagged rows, accumulating per-feature influence as it splits.
func (b *BRT) grow(rows [][]float64, res []float64, idx []int, depth, minLeaf int) *node {
	mean, sse := meanSSE(res, idx)
	if depth >= b.Depth || len(idx) < 2*minLeaf {
		return &node{Feature: -1, Value: mean}
	}
	feature, threshold, bestSSE := -1, 0.0, math.MaxFloat64
	for j := range rows[idx[0]] {
		for _, thr := range candidates(rows, idx, j) {
			var left, right meanAcc
			for _, i := range idx {
				if rows[i][j] <= thr {
					left.add(res[i])
				} else {
					right.add(res[i])
				}
			}
			if left.n < minLeaf || right.n < minLeaf {
				continue
			}
			s := left.sse() + right.sse()
			if s < bestSSE {
				feature, threshold, bestSSE = j, thr, s
			}
		}
	}
	if feature < 0 || bestSSE >= sse {
		return &node{Feature: -1, Value: mean}
	}
	b.importance[feature] += sse - bestSSE
	var lidx, ridx []int
	for _, i := range idx {
		if rows[i][feature] <= threshold {
			lidx = append(lidx, i)
		} else {
			ridx = append(ridx, i)
		}
	}
	return &node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.grow(rows, res, lidx, depth+1, minLeaf),
		Right:     b.grow(rows, res, ridx, depth+1, minLeaf),
	}
}

// meanAcc accumulates count, sum and sum of squares for the split
// search.
type meanAcc struct {
	n    int
	sum  float64
	sum2 float64
}

func (a *meanAcc) add(v float64) {
	a.n++
	a.sum += v
	a.sum2 += v * v
}

func (a *meanAcc) sse() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum2 - a.sum*a.sum/float64(a.n)
}

func meanSSE(res []float64, idx []int) (mean, sse float64) {
	var a meanAcc
	for _, i := range idx {
		a.add(res[i])
	}
	return a.sum / float64(a.n), a.sse()
}

// candidates returns up to maxThresholds quantile split candidates
// for the given feature over the bagged rows.
func candidates(rows [][]float64, idx []int, j int) []float64 {
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = rows[i][j]
	}
	sort.Float64s(vals)
	var out []float64
	for k := 1; k < maxThresholds; k++ {
		i := int(math.Round(float64(k) / maxThresholds * float64(len(vals)-1)))
		if i <= 0 || i >= len(vals) {
			continue
		}
		thr := vals[i-1] // split below the quantile so both sides stay non-empty
		if len(out) == 0 || thr != out[len(out)-1] {
			out = append(out, thr)
		}
	}
	return out
}

// PredictProb calculates the presence probability for each row.
func (b *BRT) PredictProb(x *mat.Dense) *mat.VecDense {
	r, c := x.Dims()
	out := mat.NewVecDense(r, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		f := b.bias
		for _, t := range b.trees {
			f += b.LearningRate * t.eval(row)
		}
		out.SetVec(i, sigmoid(f))
	}
	return out
}

// Predict calculates binary predictions using the given cutoff.
// Probabilities at or above the cutoff count as presence, matching
// how Roc sweeps its thresholds.
func (b *BRT) Predict(x *mat.Dense, cutoff float64) *mat.VecDense {
	tmp := b.PredictProb(x)
	for i := 0; i < tmp.Len(); i++ {
		if tmp.AtVec(i) >= cutoff {
			tmp.SetVec(i, Presence)
		} else {
			tmp.SetVec(i, Absence)
		}
	}
	return tmp
}

// Importance returns the relative influence of each predictor column,
// scaled to sum to 100.
func (b *BRT) Importance() []float64 {
	out := make([]float64, len(b.importance))
	var total float64
	for _, v := range b.importance {
		total += v
	}
	if total == 0 {
		return out
	}
	for i, v := range b.importance {
		out[i] = v / total * 100
	}
	return out
}

// NTreesFitted returns the number of trees actually kept by Fit.
func (b *BRT) NTreesFitted() int {
	return len(b.trees)
}

type brtdata struct {
	LearningRate float64
	NTrees       int
	Depth        int
	BagFraction  float64
	MinLeaf      int
	Seed         int64
	Bias         float64
	Trees        []*node
	Importance   []float64
}

func (b *BRT) data() brtdata {
	return brtdata{
		LearningRate: b.LearningRate,
		NTrees:       b.NTrees,
		Depth:        b.Depth,
		BagFraction:  b.BagFraction,
		MinLeaf:      b.MinLeaf,
		Seed:         b.Seed,
		Bias:         b.bias,
		Trees:        b.trees,
		Importance:   b.importance,
	}
}

func (b *BRT) setData(tmp brtdata) {
	*b = BRT{
		LearningRate: tmp.LearningRate,
		NTrees:       tmp.NTrees,
		Depth:        tmp.Depth,
		BagFraction:  tmp.BagFraction,
		MinLeaf:      tmp.MinLeaf,
		Seed:         tmp.Seed,
		bias:         tmp.Bias,
		trees:        tmp.Trees,
		importance:   tmp.Importance,
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (b *BRT) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.data())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *BRT) UnmarshalJSON(data []byte) error {
	var tmp brtdata
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	b.setData(tmp)
	return nil
}

// GobEncode implements the GobEncoder interface.
func (b *BRT) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(b.data())
	return buf.Bytes(), err
}

// GobDecode implements the GobDecoder interface.
func (b *BRT) GobDecode(data []byte) error {
	var tmp brtdata
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&tmp); err != nil {
		return err
	}
	b.setData(tmp)
	return nil
}
