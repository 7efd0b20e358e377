package ml

import (
	"math"
	"testing"
)

func TestRoc(t *testing.T) {
	scores := []float64{0.9, 0.8, 0.7, 0.6}
	labels := []float64{1, 0, 1, 0}
	points := Roc(scores, labels)
	if len(points) != 5 {
		t.Fatalf("expected 5 points; got %d", len(points))
	}
	if !math.IsInf(points[0].Threshold, 1) || points[0].TPR != 0 || points[0].FPR != 0 {
		t.Fatalf("bad leading point: %+v", points[0])
	}
	want := []ROCPoint{
		{math.Inf(1), 0, 0, 0.5},
		{0.9, 0, 0.5, 0.75},
		{0.8, 0.5, 0.5, 0.5},
		{0.7, 0.5, 1, 0.75},
		{0.6, 1, 1, 0.5},
	}
	for i, p := range points {
		if p != want[i] {
			t.Fatalf("point %d: expected %+v; got %+v", i, want[i], p)
		}
	}
	if auc := AUC(points); math.Abs(auc-0.75) > 1e-9 {
		t.Fatalf("expected AUC 0.75; got %f", auc)
	}
}

func TestRocPerfect(t *testing.T) {
	points := Roc([]float64{0.9, 0.8, 0.4, 0.3}, []float64{1, 1, 0, 0})
	if auc := AUC(points); auc != 1.0 {
		t.Fatalf("expected AUC 1.0; got %f", auc)
	}
	if cutoff := BestCutoff(points); cutoff != 0.8 {
		t.Fatalf("expected cutoff 0.8; got %f", cutoff)
	}
}

func TestRocTiedScores(t *testing.T) {
	// Rows sharing a score move over the threshold together.
	points := Roc([]float64{0.5, 0.5, 0.5, 0.5}, []float64{1, 0, 1, 0})
	if len(points) != 2 {
		t.Fatalf("expected 2 points; got %d", len(points))
	}
	if auc := AUC(points); math.Abs(auc-0.5) > 1e-9 {
		t.Fatalf("expected AUC 0.5; got %f", auc)
	}
}

func TestAUCScaleInvariance(t *testing.T) {
	scores := []float64{0.9, 0.2, 0.7, 0.4, 0.55, 0.1}
	labels := []float64{1, 0, 1, 0, 1, 0}
	auc := AUC(Roc(scores, labels))
	scaled := make([]float64, len(scores))
	for i, s := range scores {
		scaled[i] = s * 0.3
	}
	if got := AUC(Roc(scaled, labels)); got != auc {
		t.Fatalf("AUC changed under monotonic rescaling: %f != %f", got, auc)
	}
}

func TestBestCutoffSkipsLeadingPoint(t *testing.T) {
	// All-absence predictions at +Inf must not win even when the
	// balanced accuracy ties.
	points := Roc([]float64{0.6, 0.4}, []float64{0, 1})
	cutoff := BestCutoff(points)
	if math.IsInf(cutoff, 1) {
		t.Fatalf("cutoff is +Inf")
	}
}
