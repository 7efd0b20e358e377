package sdm

import (
	"fmt"

	"github.com/conslab/sdm/pkg/sdm/ml"
	"github.com/conslab/sdm/pkg/sdm/raster"
	"gonum.org/v1/gonum/mat"
)

// PredictRaster applies a fitted model to every cell of a covariate
// stack and returns a single-band probability raster on the stack's
// grid.  Every predictor the model was trained on must be present as
// a band; cells with no-data in any predictor band stay no-data.
func PredictRaster(m *Model, stack *raster.Stack) (*raster.Layer, error) {
	layers := make([]*raster.Layer, len(m.Predictors))
	for i, name := range m.Predictors {
		l, err := stack.Band(name)
		if err != nil {
			return nil, fmt.Errorf("predict: %v", err)
		}
		layers[i] = l
	}
	g := stack.Grid
	out := raster.NewLayer("prediction", g)
	var cells []int
	var data []float64
	row := make([]float64, len(layers))
	for i := 0; i < g.Cols*g.Rows; i++ {
		valid := true
		for j, l := range layers {
			v := l.Data[i]
			if l.IsNoData(v) {
				valid = false
				break
			}
			row[j] = v
		}
		if !valid {
			continue
		}
		cells = append(cells, i)
		data = append(data, row...)
	}
	if len(cells) == 0 {
		Log("predict: no valid cells")
		return out, nil
	}
	x := mat.NewDense(len(cells), len(layers), data)
	probs := m.BRT.PredictProb(x)
	for k, i := range cells {
		out.Data[i] = probs.AtVec(k)
	}
	Log("predict: %d of %d cells predicted", len(cells), g.Cols*g.Rows)
	return out, nil
}

// Classify binarizes a probability raster with the given cutoff.
// Cells at or above the cutoff become presence, matching the
// evaluator's threshold sweep.  No-data cells stay no-data.
func Classify(p *raster.Layer, cutoff float64) *raster.Layer {
	out := raster.NewLayer("classification", p.Grid)
	for i, v := range p.Data {
		if p.IsNoData(v) {
			continue
		}
		out.Data[i] = ml.Bool(v >= cutoff)
	}
	return out
}
