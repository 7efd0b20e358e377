package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/conslab/sdm/pkg/sdm/vector"
	"github.com/paulmach/orb"
)

// Errors reported by raster operations.  Callers check them with
// errors.Is.
var (
	ErrCorrupt   = errors.New("corrupt raster file")
	ErrGeometry  = errors.New("grid geometry mismatch")
	ErrNoOverlap = errors.New("extents do not overlap")
)

// Grid defines the geometry shared by all bands of a stack: a regular
// cell grid anchored at its lower-left corner.  Rows are stored
// top-down, matching the on-disk order of ESRI ASCII grids.
type Grid struct {
	Cols, Rows int
	X0, Y0     float64 // lower-left corner
	CellSize   float64
	NoData     float64
	Proj       string // e.g. "EPSG:4326"
}

const eps = 1e-9

// Equal reports whether two grids share the same geometry and
// projection.  The no-data sentinel is part of the geometry contract.
func (g Grid) Equal(o Grid) bool {
	return g.Cols == o.Cols && g.Rows == o.Rows &&
		math.Abs(g.X0-o.X0) < eps && math.Abs(g.Y0-o.Y0) < eps &&
		math.Abs(g.CellSize-o.CellSize) < eps &&
		g.NoData == o.NoData && g.Proj == o.Proj
}

// Bound returns the outer extent of the grid.
func (g Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.X0, g.Y0},
		Max: orb.Point{g.X0 + float64(g.Cols)*g.CellSize, g.Y0 + float64(g.Rows)*g.CellSize},
	}
}

// CellCenter returns the coordinate of the center of the given cell.
func (g Grid) CellCenter(col, row int) (x, y float64) {
	x = g.X0 + (float64(col)+0.5)*g.CellSize
	y = g.Y0 + (float64(g.Rows-row)-0.5)*g.CellSize
	return x, y
}

// CellAt returns the cell containing the given coordinate.  Ok is
// false if the coordinate lies outside the grid's extent.
func (g Grid) CellAt(x, y float64) (col, row int, ok bool) {
	fc := (x - g.X0) / g.CellSize
	fr := (y - g.Y0) / g.CellSize
	if fc < 0 || fr < 0 || fc >= float64(g.Cols) || fr >= float64(g.Rows) {
		return 0, 0, false
	}
	return int(fc), g.Rows - 1 - int(fr), true
}

func (g Grid) index(col, row int) int {
	return row*g.Cols + col
}

// Layer is a single named band over a grid.
type Layer struct {
	Name string
	Grid Grid
	Data []float64
}

// NewLayer creates a layer with every cell set to the grid's no-data
// value.
func NewLayer(name string, g Grid) *Layer {
	data := make([]float64, g.Cols*g.Rows)
	for i := range data {
		data[i] = g.NoData
	}
	return &Layer{Name: name, Grid: g, Data: data}
}

// At returns the cell value at the given position.
func (l *Layer) At(col, row int) float64 {
	return l.Data[l.Grid.index(col, row)]
}

// Set sets the cell value at the given position.
func (l *Layer) Set(col, row int, v float64) {
	l.Data[l.Grid.index(col, row)] = v
}

// IsNoData reports whether v is the layer's no-data sentinel.
func (l *Layer) IsNoData(v float64) bool {
	return v == l.Grid.NoData
}

// Stack is a set of bands sharing one grid.  The shared geometry is
// enforced by Add.
type Stack struct {
	Grid   Grid
	Layers []*Layer
}

// NewStack creates a stack from the given layers.  All layers must
// share the same grid geometry.
func NewStack(layers ...*Layer) (*Stack, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("new stack: no layers")
	}
	s := &Stack{Grid: layers[0].Grid}
	for _, l := range layers {
		if err := s.Add(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a band to the stack.  The band must share the stack's
// grid and its name must be unique within the stack.
func (s *Stack) Add(l *Layer) error {
	if !s.Grid.Equal(l.Grid) {
		return fmt.Errorf("add band %s: %w", l.Name, ErrGeometry)
	}
	for _, o := range s.Layers {
		if o.Name == l.Name {
			return fmt.Errorf("add band %s: duplicate band name", l.Name)
		}
	}
	s.Layers = append(s.Layers, l)
	return nil
}

// Band returns the band with the given name.
func (s *Stack) Band(name string) (*Layer, error) {
	for _, l := range s.Layers {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("band %s: no such band", name)
}

// BandNames returns the band names in stack order.
func (s *Stack) BandNames() []string {
	names := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		names[i] = l.Name
	}
	return names
}

// Values appends the cell values of all bands at the given position to
// dst.  Ok is false if any band holds no-data at the position.
func (s *Stack) Values(col, row int, dst []float64) ([]float64, bool) {
	for _, l := range s.Layers {
		v := l.At(col, row)
		if l.IsNoData(v) {
			return dst, false
		}
		dst = append(dst, v)
	}
	return dst, true
}

// Crop restricts the stack's extent to the bounding box of the given
// boundary, snapped outward to cell edges.
func (s *Stack) Crop(b *vector.Boundary) (*Stack, error) {
	g := s.Grid
	if err := checkProj("crop", b.Proj, g.Proj); err != nil {
		return nil, err
	}
	bound := b.Bound()
	col0 := int(math.Floor((bound.Min[0] - g.X0) / g.CellSize))
	col1 := int(math.Ceil((bound.Max[0] - g.X0) / g.CellSize))
	bot0 := int(math.Floor((bound.Min[1] - g.Y0) / g.CellSize))
	bot1 := int(math.Ceil((bound.Max[1] - g.Y0) / g.CellSize))
	col0, col1 = clamp(col0, 0, g.Cols), clamp(col1, 0, g.Cols)
	bot0, bot1 = clamp(bot0, 0, g.Rows), clamp(bot1, 0, g.Rows)
	if col0 >= col1 || bot0 >= bot1 {
		return nil, fmt.Errorf("crop: %w", ErrNoOverlap)
	}
	sub := g
	sub.Cols = col1 - col0
	sub.Rows = bot1 - bot0
	sub.X0 = g.X0 + float64(col0)*g.CellSize
	sub.Y0 = g.Y0 + float64(bot0)*g.CellSize
	rowOff := g.Rows - bot1 // top-based row of the cropped window
	out := &Stack{Grid: sub}
	for _, l := range s.Layers {
		c := NewLayer(l.Name, sub)
		for row := 0; row < sub.Rows; row++ {
			for col := 0; col < sub.Cols; col++ {
				c.Set(col, row, l.At(col+col0, row+rowOff))
			}
		}
		out.Layers = append(out.Layers, c)
	}
	return out, nil
}

// Mask sets all cells whose center lies outside the boundary polygon
// to no-data.
func (s *Stack) Mask(b *vector.Boundary) (*Stack, error) {
	g := s.Grid
	if err := checkProj("mask", b.Proj, g.Proj); err != nil {
		return nil, err
	}
	out := &Stack{Grid: g}
	for _, l := range s.Layers {
		m := NewLayer(l.Name, g)
		for row := 0; row < g.Rows; row++ {
			for col := 0; col < g.Cols; col++ {
				x, y := g.CellCenter(col, row)
				if b.Contains(x, y) {
					m.Set(col, row, l.At(col, row))
				}
			}
		}
		out.Layers = append(out.Layers, m)
	}
	return out, nil
}

// Method selects the resampling method.  There is no default: passing
// the zero value is an error, so categorical data cannot silently be
// interpolated.
type Method int

// Supported resampling methods.
const (
	Nearest Method = iota + 1
	Bilinear
)

// Resample re-grids the stack onto the target grid.  The projection
// must be preserved; use nearest for categorical bands.
func (s *Stack) Resample(target Grid, m Method) (*Stack, error) {
	if m != Nearest && m != Bilinear {
		return nil, fmt.Errorf("resample: method must be explicit")
	}
	if target.Proj != s.Grid.Proj {
		return nil, fmt.Errorf("resample: cannot change projection %s to %s: %w",
			s.Grid.Proj, target.Proj, ErrGeometry)
	}
	out := &Stack{Grid: target}
	for _, l := range s.Layers {
		r := NewLayer(l.Name, target)
		for row := 0; row < target.Rows; row++ {
			for col := 0; col < target.Cols; col++ {
				x, y := target.CellCenter(col, row)
				switch m {
				case Nearest:
					if sc, sr, ok := s.Grid.CellAt(x, y); ok {
						r.Set(col, row, l.At(sc, sr))
					}
				case Bilinear:
					if v, ok := l.bilinear(x, y); ok {
						r.Set(col, row, v)
					}
				}
			}
		}
		out.Layers = append(out.Layers, r)
	}
	return out, nil
}

// bilinear interpolates between the four cell centers surrounding the
// coordinate.  Ok is false outside the extent or next to no-data.
func (l *Layer) bilinear(x, y float64) (float64, bool) {
	g := l.Grid
	fx := (x-g.X0)/g.CellSize - 0.5 // cell-center coordinates
	fy := (y-g.Y0)/g.CellSize - 0.5
	if fx < -0.5 || fy < -0.5 || fx >= float64(g.Cols)-0.5 || fy >= float64(g.Rows)-0.5 {
		return 0, false
	}
	// In the half-cell margin before the first cell center the value
	// is held constant, like beyond the last cell center.
	c0, wx := int(math.Floor(fx)), fx-math.Floor(fx)
	if c0 < 0 {
		c0, wx = 0, 0
	}
	b0, wy := int(math.Floor(fy)), fy-math.Floor(fy)
	if b0 < 0 {
		b0, wy = 0, 0
	}
	c1 := clamp(c0+1, 0, g.Cols-1)
	b1 := clamp(b0+1, 0, g.Rows-1)
	v00 := l.At(c0, g.Rows-1-b0)
	v10 := l.At(c1, g.Rows-1-b0)
	v01 := l.At(c0, g.Rows-1-b1)
	v11 := l.At(c1, g.Rows-1-b1)
	if l.IsNoData(v00) || l.IsNoData(v10) || l.IsNoData(v01) || l.IsNoData(v11) {
		return 0, false
	}
	v0 := v00*(1-wx) + v10*wx
	v1 := v01*(1-wx) + v11*wx
	return v0*(1-wy) + v1*wy, true
}

// Rule maps the half-open value range (Low, High] to Out.
type Rule struct {
	Low, High, Out float64
}

// Policy decides what happens to cells matching no reclassification
// rule.  There is no default: passing the zero value is an error.
type Policy int

// Reclassification policies for unmatched cells.
const (
	PolicyNoData Policy = iota + 1 // unmatched cells become no-data
	PolicyKeep                     // unmatched cells keep their value
)

// Reclassify maps cell values through an ordered rule table.  The
// first matching rule wins; no-data cells stay no-data.
func (l *Layer) Reclassify(rules []Rule, p Policy) (*Layer, error) {
	if p != PolicyNoData && p != PolicyKeep {
		return nil, fmt.Errorf("reclassify: policy must be explicit")
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("reclassify: empty rule table")
	}
	out := NewLayer(l.Name, l.Grid)
	for i, v := range l.Data {
		if l.IsNoData(v) {
			continue
		}
		out.Data[i] = reclassify(v, rules, p, l.Grid.NoData)
	}
	return out, nil
}

// Reclassify applies the rule table to every band of the stack.
func (s *Stack) Reclassify(rules []Rule, p Policy) (*Stack, error) {
	out := &Stack{Grid: s.Grid}
	for _, l := range s.Layers {
		r, err := l.Reclassify(rules, p)
		if err != nil {
			return nil, err
		}
		out.Layers = append(out.Layers, r)
	}
	return out, nil
}

func reclassify(v float64, rules []Rule, p Policy, nodata float64) float64 {
	for _, r := range rules {
		if r.Low < v && v <= r.High {
			return r.Out
		}
	}
	if p == PolicyKeep {
		return v
	}
	return nodata
}

// checkProj compares two projection identifiers.  An empty
// identifier (no .prj sidecar) matches anything.
func checkProj(op, a, b string) error {
	if a != "" && b != "" && a != b {
		return fmt.Errorf("%s: boundary is %s, raster is %s: %w", op, a, b, ErrGeometry)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
