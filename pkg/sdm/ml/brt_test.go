package ml

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// separable draws n rows with a single informative feature: the label
// is presence iff the feature is positive, with a margin around zero.
func separable(n int, features int, seed int64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, 0, n*features)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		x := rng.Float64()*1.9 + 0.1 // [0.1, 2)
		if i%2 == 0 {
			x = -x
		}
		labels[i] = Bool(x > 0)
		data = append(data, x)
		for j := 1; j < features; j++ {
			data = append(data, rng.Float64())
		}
	}
	return mat.NewDense(n, features, data), mat.NewVecDense(n, labels)
}

func testBRT() BRT {
	return BRT{LearningRate: 0.1, NTrees: 50, Depth: 2, BagFraction: 0.8, Seed: 7}
}

func TestFitPerfectSeparation(t *testing.T) {
	brt := testBRT()
	x, y := separable(200, 1, 1)
	if err := brt.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	xt, yt := separable(100, 1, 2)
	probs := brt.PredictProb(xt)
	points := Roc(probs.RawVector().Data, yt.RawVector().Data)
	if auc := AUC(points); auc != 1.0 {
		t.Fatalf("expected AUC 1.0; got %f", auc)
	}
}

func TestFitErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		rows int
		same bool
		want error
	}{
		{"insufficient rows", 5, false, ErrInsufficientData},
		{"degenerate labels", 50, true, ErrDegenerateLabels},
	} {
		t.Run(tc.name, func(t *testing.T) {
			x, y := separable(tc.rows, 1, 1)
			if tc.same {
				for i := 0; i < y.Len(); i++ {
					y.SetVec(i, Presence)
				}
			}
			brt := testBRT()
			err := brt.Fit(x, y)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v; got %v", tc.want, err)
			}
		})
	}
}

func TestFitBadHyperparameters(t *testing.T) {
	x, y := separable(50, 1, 1)
	brt := BRT{}
	if err := brt.Fit(x, y); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFitDeterminism(t *testing.T) {
	x, y := separable(100, 2, 1)
	a, b := testBRT(), testBRT()
	if err := a.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	pa := a.PredictProb(x).RawVector().Data
	pb := b.PredictProb(x).RawVector().Data
	if !reflect.DeepEqual(pa, pb) {
		t.Fatalf("same seed produced different models")
	}
}

func TestImportance(t *testing.T) {
	x, y := separable(200, 3, 1)
	brt := testBRT()
	if err := brt.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	imp := brt.Importance()
	if len(imp) != 3 {
		t.Fatalf("expected 3 influences; got %d", len(imp))
	}
	var sum float64
	for _, v := range imp {
		sum += v
	}
	if sum < 99.999 || sum > 100.001 {
		t.Fatalf("influences sum to %f, not 100", sum)
	}
	if imp[0] <= imp[1] || imp[0] <= imp[2] {
		t.Fatalf("informative predictor not ranked first: %v", imp)
	}
}

func TestJSON(t *testing.T) {
	brt := testBRT()
	x, y := separable(100, 2, 1)
	if err := brt.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(&brt); err != nil {
		t.Fatalf("got error: %v", err)
	}
	var brt2 BRT
	if err := json.NewDecoder(&buf).Decode(&brt2); err != nil {
		t.Fatalf("got error: %v", err)
	}
	pa := brt.PredictProb(x).RawVector().Data
	pb := brt2.PredictProb(x).RawVector().Data
	if !reflect.DeepEqual(pa, pb) {
		t.Fatalf("decoded model predicts differently")
	}
}

func TestPredictCutoff(t *testing.T) {
	brt := testBRT()
	x, y := separable(100, 1, 1)
	if err := brt.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	got := brt.Predict(x, 0.5)
	for i := 0; i < got.Len(); i++ {
		if got.AtVec(i) != y.AtVec(i) {
			t.Fatalf("row %d: expected %v; got %v", i, y.AtVec(i), got.AtVec(i))
		}
	}
	// A score exactly at the cutoff counts as presence, like in the
	// Roc threshold sweep.
	probs := brt.PredictProb(x)
	boundary := brt.Predict(x, probs.AtVec(0))
	if boundary.AtVec(0) != Presence {
		t.Fatalf("expected presence at the cutoff; got %v", boundary.AtVec(0))
	}
}
