package raster

import (
	"errors"
	"testing"

	"github.com/conslab/sdm/pkg/sdm/vector"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid() Grid {
	return Grid{Cols: 4, Rows: 4, X0: 0, Y0: 0, CellSize: 1, NoData: -9999, Proj: "EPSG:4326"}
}

func rampLayer(name string) *Layer {
	l := NewLayer(name, testGrid())
	for i := range l.Data {
		l.Data[i] = float64(i)
	}
	return l
}

func squareBoundary(x0, y0, x1, y1 float64) *vector.Boundary {
	ring := orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
	return &vector.Boundary{
		Geom: orb.MultiPolygon{orb.Polygon{ring}},
		Proj: "EPSG:4326",
	}
}

func TestCellMath(t *testing.T) {
	g := testGrid()
	x, y := g.CellCenter(0, 0)
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 3.5, y)
	col, row, ok := g.CellAt(0.5, 3.5)
	require.True(t, ok)
	assert.Equal(t, 0, col)
	assert.Equal(t, 0, row)
	_, _, ok = g.CellAt(-0.1, 1)
	assert.False(t, ok)
	_, _, ok = g.CellAt(4.0, 1)
	assert.False(t, ok)
}

func TestStackAdd(t *testing.T) {
	s, err := NewStack(rampLayer("a"), rampLayer("b"))
	require.NoError(t, err)
	other := testGrid()
	other.CellSize = 2
	err = s.Add(NewLayer("c", other))
	assert.True(t, errors.Is(err, ErrGeometry))
	err = s.Add(rampLayer("a"))
	assert.Error(t, err)
}

func TestCropMask(t *testing.T) {
	s, err := NewStack(rampLayer("a"), rampLayer("b"))
	require.NoError(t, err)
	b := squareBoundary(1, 1, 3, 3)
	cropped, err := s.Crop(b)
	require.NoError(t, err)
	assert.Equal(t, 2, cropped.Grid.Cols)
	assert.Equal(t, 2, cropped.Grid.Rows)
	assert.Equal(t, 1.0, cropped.Grid.X0)
	assert.Equal(t, 1.0, cropped.Grid.Y0)
	// Cell (1,1) of the source, value row*cols+col = 2*4+1 = 9, is the
	// lower-left cell of the window.
	a, err := cropped.Band("a")
	require.NoError(t, err)
	assert.Equal(t, 9.0, a.At(0, 1))
	masked, err := cropped.Mask(b)
	require.NoError(t, err)
	// No valid cell outside the boundary geometry.
	for _, l := range masked.Layers {
		for row := 0; row < l.Grid.Rows; row++ {
			for col := 0; col < l.Grid.Cols; col++ {
				v := l.At(col, row)
				if l.IsNoData(v) {
					continue
				}
				x, y := l.Grid.CellCenter(col, row)
				assert.True(t, b.Contains(x, y), "valid cell at (%g,%g) outside boundary", x, y)
			}
		}
	}
}

func TestCropNoOverlap(t *testing.T) {
	s, err := NewStack(rampLayer("a"))
	require.NoError(t, err)
	_, err = s.Crop(squareBoundary(10, 10, 20, 20))
	assert.True(t, errors.Is(err, ErrNoOverlap))
}

func TestCropProjMismatch(t *testing.T) {
	s, err := NewStack(rampLayer("a"))
	require.NoError(t, err)
	b := squareBoundary(1, 1, 3, 3)
	b.Proj = "EPSG:3857"
	_, err = s.Crop(b)
	assert.True(t, errors.Is(err, ErrGeometry))
}

func TestReclassify(t *testing.T) {
	rules := []Rule{{-1, 2, 0}, {2, 3, 1}, {4, 30, 0}}
	for _, tc := range []struct {
		name   string
		in     float64
		policy Policy
		want   float64
	}{
		{"in third range", 5, PolicyNoData, 0},
		{"in first range", 1.5, PolicyNoData, 0},
		{"in second range", 2.5, PolicyNoData, 1},
		{"unmatched to nodata", 3.5, PolicyNoData, -9999},
		{"unmatched kept", 3.5, PolicyKeep, 3.5},
		{"low bound excluded", -1, PolicyKeep, -1},
		{"high bound included", 2, PolicyNoData, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLayer("landcover", testGrid())
			l.Data[0] = tc.in
			out, err := l.Reclassify(rules, tc.policy)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Data[0])
		})
	}
}

func TestReclassifyFirstMatchWins(t *testing.T) {
	l := NewLayer("landcover", testGrid())
	l.Data[0] = 5
	out, err := l.Reclassify([]Rule{{0, 10, 1}, {0, 10, 2}}, PolicyNoData)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Data[0])
}

func TestReclassifyNoDataStays(t *testing.T) {
	l := NewLayer("landcover", testGrid())
	out, err := l.Reclassify([]Rule{{-10000, 10000, 1}}, PolicyKeep)
	require.NoError(t, err)
	assert.True(t, out.IsNoData(out.Data[0]))
}

func TestReclassifyExplicitPolicy(t *testing.T) {
	l := rampLayer("a")
	_, err := l.Reclassify([]Rule{{0, 1, 0}}, 0)
	assert.Error(t, err)
}

func TestResampleExplicitMethod(t *testing.T) {
	s, err := NewStack(rampLayer("a"))
	require.NoError(t, err)
	_, err = s.Resample(testGrid(), 0)
	assert.Error(t, err)
}

func TestResampleNearest(t *testing.T) {
	s, err := NewStack(rampLayer("a"))
	require.NoError(t, err)
	fine := testGrid()
	fine.Cols, fine.Rows, fine.CellSize = 8, 8, 0.5
	out, err := s.Resample(fine, Nearest)
	require.NoError(t, err)
	a := out.Layers[0]
	// Each source cell maps onto a 2x2 block of target cells.
	src := s.Layers[0]
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			assert.Equal(t, src.At(col/2, row/2), a.At(col, row))
		}
	}
}

func TestResampleBilinear(t *testing.T) {
	s, err := NewStack(rampLayer("a"))
	require.NoError(t, err)
	coarse := testGrid()
	coarse.Cols, coarse.Rows, coarse.CellSize = 2, 2, 2
	out, err := s.Resample(coarse, Bilinear)
	require.NoError(t, err)
	a := out.Layers[0]
	// Target cell (0,0) centers at (1,3), midway between the four
	// upper-left source centers with values 0, 1, 4, 5.
	assert.InDelta(t, 2.5, a.At(0, 0), 1e-9)
}

func TestResampleBilinearMargin(t *testing.T) {
	l := rampLayer("a")
	// Interpolation must be continuous across the first cell center.
	left, ok := l.bilinear(0.499, 2)
	require.True(t, ok)
	right, ok := l.bilinear(0.501, 2)
	require.True(t, ok)
	assert.InDelta(t, left, right, 0.01)
	low, ok := l.bilinear(2, 0.499)
	require.True(t, ok)
	high, ok := l.bilinear(2, 0.501)
	require.True(t, ok)
	assert.InDelta(t, low, high, 0.01)
	// The half-cell margin extrapolates the first column: the centers
	// above and below (0.5, 2) hold 8 and 4.
	margin, ok := l.bilinear(0.25, 2)
	require.True(t, ok)
	assert.InDelta(t, 6.0, margin, 1e-9)
}

func TestResampleProjChange(t *testing.T) {
	s, err := NewStack(rampLayer("a"))
	require.NoError(t, err)
	target := testGrid()
	target.Proj = "EPSG:3857"
	_, err = s.Resample(target, Nearest)
	assert.True(t, errors.Is(err, ErrGeometry))
}
