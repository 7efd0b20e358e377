package ml

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
)

// ROCPoint is one point of the ROC sweep.  A row counts as a
// predicted presence if its score is >= Threshold.
type ROCPoint struct {
	Threshold float64
	FPR       float64
	TPR       float64
	Accuracy  float64
}

// Roc sweeps a decreasing threshold over the score range and counts
// confusion outcomes against the given labels.  The returned points
// are ordered by decreasing threshold, starting at (FPR=0, TPR=0).
func Roc(scores, labels []float64) []ROCPoint {
	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	pos, neg := 0, 0
	for _, y := range labels {
		if y == Presence {
			pos++
		} else {
			neg++
		}
	}
	points := []ROCPoint{{
		Threshold: math.Inf(1),
		Accuracy:  float64(neg) / float64(n),
	}}
	tp, fp := 0, 0
	for k := 0; k < n; {
		thr := scores[idx[k]]
		// Rows sharing a score move over the threshold together.
		for ; k < n && scores[idx[k]] == thr; k++ {
			if labels[idx[k]] == Presence {
				tp++
			} else {
				fp++
			}
		}
		points = append(points, ROCPoint{
			Threshold: thr,
			FPR:       rate(fp, neg),
			TPR:       rate(tp, pos),
			Accuracy:  float64(tp+neg-fp) / float64(n),
		})
	}
	return points
}

func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// AUC computes the area under the ROC curve by trapezoidal
// integration over the ordered points.
func AUC(points []ROCPoint) float64 {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.FPR
		ys[i] = p.TPR
	}
	return integrate.Trapezoidal(xs, ys)
}

// BestCutoff selects the threshold maximizing the balanced accuracy
// (TPR+TNR)/2 over the sweep.  Ties resolve to the higher threshold.
func BestCutoff(points []ROCPoint) float64 {
	best, bestScore := 0.5, -1.0
	for _, p := range points {
		if math.IsInf(p.Threshold, 1) {
			continue
		}
		score := (p.TPR + 1 - p.FPR) / 2
		if score > bestScore {
			best, bestScore = p.Threshold, score
		}
	}
	return best
}
