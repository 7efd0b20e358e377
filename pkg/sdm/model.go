package sdm

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"

	"github.com/conslab/sdm/pkg/sdm/ml"
)

// Model is the persisted artifact of a training run: the fitted
// boosted tree model, the predictor band names it was trained on and,
// once eval has derived one, the classification cutoff.
type Model struct {
	Predictors []string `json:"predictors"`
	BRT        *ml.BRT  `json:"brt"`
	Cutoff     float64  `json:"cutoff,omitempty"`
}

// ReadModel reads a model from a gzip compressed json file.
func ReadModel(path string) (*Model, error) {
	Log("reading model from %s", path)
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readModel %s: %v", path, err)
	}
	defer in.Close()
	zip, err := gzip.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("readModel %s: %v", path, err)
	}
	defer zip.Close()
	var m Model
	if err := json.NewDecoder(zip).Decode(&m); err != nil {
		return nil, fmt.Errorf("readModel %s: %v", path, err)
	}
	if m.BRT == nil || len(m.Predictors) == 0 {
		return nil, fmt.Errorf("readModel %s: no fitted model", path)
	}
	return &m, nil
}

// Write writes the model as json encoded, gziped file to the given
// path overwriting any previous existing models.
func (m *Model) Write(path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %v", path, err)
	}
	defer func() {
		if exx := out.Close(); exx != nil && err == nil {
			err = fmt.Errorf("write %s: %v", path, exx)
		}
	}()
	zip := gzip.NewWriter(out)
	defer func() {
		if exx := zip.Close(); exx != nil && err == nil {
			err = fmt.Errorf("write %s: %v", path, exx)
		}
	}()
	if err := json.NewEncoder(zip).Encode(m); err != nil {
		return fmt.Errorf("write %s: %v", path, err)
	}
	return nil
}
