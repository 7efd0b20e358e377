package sdm

import (
	"context"
	"math/rand"
	"sort"

	"github.com/conslab/sdm/pkg/sdm/raster"
	"golang.org/x/sync/errgroup"
)

// StratifiedSample draws up to perClass cells from each class of a
// categorical raster and returns points at the cell centers, labeled
// with the cell's class.  No-data cells are skipped.  The draw is
// deterministic for a fixed seed.  A class with fewer available cells
// than perClass yields all its cells; the shortfall is logged, never
// padded.
func StratifiedSample(l *raster.Layer, perClass int, seed int64) []Point {
	if perClass <= 0 {
		return nil
	}
	classes := make(map[float64][]int)
	for i, v := range l.Data {
		if l.IsNoData(v) {
			continue
		}
		classes[v] = append(classes[v], i)
	}
	values := make([]float64, 0, len(classes))
	for v := range classes {
		values = append(values, v)
	}
	sort.Float64s(values)
	rng := rand.New(rand.NewSource(seed))
	var points []Point
	for _, v := range values {
		cells := classes[v]
		rng.Shuffle(len(cells), func(i, j int) {
			cells[i], cells[j] = cells[j], cells[i]
		})
		n := perClass
		if len(cells) < n {
			Log("sample: class %g has only %d of %d requested cells", v, len(cells), perClass)
			n = len(cells)
		}
		for _, cell := range cells[:n] {
			x, y := l.Grid.CellCenter(cell%l.Grid.Cols, cell/l.Grid.Cols)
			points = append(points, Point{X: x, Y: y, Label: v})
		}
	}
	return points
}

// SamplePoints returns a producer stream func over a stratified
// sample of the given raster.
func SamplePoints(l *raster.Layer, perClass int, seed int64) StreamFunc {
	return func(ctx context.Context, g *errgroup.Group, _ <-chan Point) <-chan Point {
		out := make(chan Point)
		g.Go(func() error {
			defer close(out)
			return SendPoints(ctx, out, StratifiedSample(l, perClass, seed)...)
		})
		return out
	}
}
