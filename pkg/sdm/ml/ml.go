package ml

import (
	"gonum.org/v1/gonum/mat"
)

// Predefined values for absence and presence labels.
const (
	Absence  = float64(0)
	Presence = float64(1)
)

// Bool converts a bool to an absence or presence label.
func Bool(t bool) float64 {
	if t {
		return Presence
	}
	return Absence
}

type Predictor interface {
	PredictProb(x *mat.Dense) *mat.VecDense
}

type Fitter interface {
	Fit(x *mat.Dense, y *mat.VecDense) error
}
