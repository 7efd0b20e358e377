package sdm

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Table is a flat covariate table: one binary label and one value per
// predictor column for each retained point.
type Table struct {
	Names []string
	X     [][]float64
	Y     []float64
}

// TableFromPoints builds a table from extracted points.  All points
// must carry one covariate per name.
func TableFromPoints(names []string, points []Point) (*Table, error) {
	t := &Table{Names: names}
	for _, p := range points {
		if len(p.Covs) != len(names) {
			return nil, fmt.Errorf("table: point has %d covariates, want %d", len(p.Covs), len(names))
		}
		t.X = append(t.X, p.Covs)
		t.Y = append(t.Y, p.Label)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Y)
}

// Select returns a table restricted to the given predictor columns in
// the given order.
func (t *Table) Select(names []string) (*Table, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		cols[i] = -1
		for j, have := range t.Names {
			if have == name {
				cols[i] = j
				break
			}
		}
		if cols[i] < 0 {
			return nil, fmt.Errorf("select: no column %s", name)
		}
	}
	out := &Table{Names: append([]string(nil), names...), Y: t.Y}
	for _, row := range t.X {
		sel := make([]float64, len(cols))
		for i, j := range cols {
			sel[i] = row[j]
		}
		out.X = append(out.X, sel)
	}
	return out, nil
}

// Split deterministically partitions the table into a training and a
// testing subset.  Every row lands in exactly one subset; the
// training subset holds round(frac*len) rows.  Row order within the
// subsets follows the original table.
func (t *Table) Split(frac float64, seed int64) (train, test *Table) {
	n := t.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	inTrain := make([]bool, n)
	nTrain := int(math.Round(frac * float64(n)))
	for _, i := range perm[:nTrain] {
		inTrain[i] = true
	}
	train = &Table{Names: t.Names}
	test = &Table{Names: t.Names}
	for i := 0; i < n; i++ {
		if inTrain[i] {
			train.X = append(train.X, t.X[i])
			train.Y = append(train.Y, t.Y[i])
		} else {
			test.X = append(test.X, t.X[i])
			test.Y = append(test.Y, t.Y[i])
		}
	}
	return train, test
}

// Matrix returns the table as a feature matrix and a label vector.
// An empty table (no rows or no columns) is an error; splitting a
// tiny table can leave a subset without any rows.
func (t *Table) Matrix() (*mat.Dense, *mat.VecDense, error) {
	n := t.Len()
	if n == 0 || len(t.Names) == 0 {
		return nil, nil, fmt.Errorf("matrix: empty table (%d rows, %d columns)", n, len(t.Names))
	}
	data := make([]float64, 0, n*len(t.Names))
	for _, row := range t.X {
		data = append(data, row...)
	}
	return mat.NewDense(n, len(t.Names), data), mat.NewVecDense(n, append([]float64(nil), t.Y...)), nil
}

// Write writes the table as a CSV file with a label column followed
// by the predictor columns.
func (t *Table) Write(path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write table %s: %v", path, err)
	}
	defer func() {
		if exx := out.Close(); exx != nil && err == nil {
			err = fmt.Errorf("write table %s: %v", path, exx)
		}
	}()
	w := csv.NewWriter(out)
	if err := w.Write(append([]string{"label"}, t.Names...)); err != nil {
		return fmt.Errorf("write table %s: %v", path, err)
	}
	record := make([]string, len(t.Names)+1)
	for i, row := range t.X {
		record[0] = formatFloat(t.Y[i])
		for j, v := range row {
			record[j+1] = formatFloat(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write table %s: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write table %s: %v", path, err)
	}
	return nil
}

// ReadTable reads a covariate table written by Write.
func ReadTable(path string) (*Table, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %v", path, err)
	}
	defer in.Close()
	records, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %v", path, err)
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != "label" {
		return nil, fmt.Errorf("read table %s: missing header", path)
	}
	t := &Table{Names: records[0][1:]}
	for _, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, fmt.Errorf("read table %s: ragged record", path)
		}
		y, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("read table %s: bad label %q", path, record[0])
		}
		row := make([]float64, len(t.Names))
		for j, v := range record[1:] {
			if row[j], err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("read table %s: bad value %q", path, v)
			}
		}
		t.X = append(t.X, row)
		t.Y = append(t.Y, y)
	}
	return t, nil
}
