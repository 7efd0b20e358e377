package sdm

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Point is a single occurrence record: a coordinate, a binary label
// and optional year metadata.  Covs holds the extracted covariate
// values; it is nil until extraction.
type Point struct {
	X, Y  float64
	Label float64
	Year  int
	Covs  []float64
}

// WritePoints writes points as a CSV file with an x,y,label,year
// header followed by the given covariate names.  Points without
// covariates and an empty name list give a plain point file.
func WritePoints(path string, names []string, points []Point) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write points %s: %v", path, err)
	}
	defer func() {
		if exx := out.Close(); exx != nil && err == nil {
			err = fmt.Errorf("write points %s: %v", path, exx)
		}
	}()
	w := csv.NewWriter(out)
	header := append([]string{"x", "y", "label", "year"}, names...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write points %s: %v", path, err)
	}
	record := make([]string, len(header))
	for _, p := range points {
		record[0] = formatFloat(p.X)
		record[1] = formatFloat(p.Y)
		record[2] = formatFloat(p.Label)
		record[3] = strconv.Itoa(p.Year)
		if len(p.Covs) != len(names) {
			return fmt.Errorf("write points %s: point has %d covariates, header has %d",
				path, len(p.Covs), len(names))
		}
		for i, v := range p.Covs {
			record[4+i] = formatFloat(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write points %s: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write points %s: %v", path, err)
	}
	return nil
}

// ReadPoints reads a point CSV file written by WritePoints and
// returns the points together with the covariate names from the
// header.
func ReadPoints(path string) ([]Point, []string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read points %s: %v", path, err)
	}
	defer in.Close()
	r := csv.NewReader(in)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read points %s: %v", path, err)
	}
	if len(records) == 0 || len(records[0]) < 4 {
		return nil, nil, fmt.Errorf("read points %s: missing header", path)
	}
	names := records[0][4:]
	var points []Point
	for _, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, nil, fmt.Errorf("read points %s: ragged record", path)
		}
		var p Point
		if p.X, err = strconv.ParseFloat(record[0], 64); err != nil {
			return nil, nil, fmt.Errorf("read points %s: bad x %q", path, record[0])
		}
		if p.Y, err = strconv.ParseFloat(record[1], 64); err != nil {
			return nil, nil, fmt.Errorf("read points %s: bad y %q", path, record[1])
		}
		if p.Label, err = strconv.ParseFloat(record[2], 64); err != nil {
			return nil, nil, fmt.Errorf("read points %s: bad label %q", path, record[2])
		}
		if p.Year, err = strconv.Atoi(record[3]); err != nil {
			return nil, nil, fmt.Errorf("read points %s: bad year %q", path, record[3])
		}
		for _, v := range record[4:] {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("read points %s: bad covariate %q", path, v)
			}
			p.Covs = append(p.Covs, f)
		}
		points = append(points, p)
	}
	return points, names, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
