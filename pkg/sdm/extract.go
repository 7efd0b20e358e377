package sdm

import (
	"context"

	"github.com/conslab/sdm/pkg/sdm/raster"
	"golang.org/x/sync/errgroup"
)

// Extract enriches each point in the stream with the stack's cell
// values at the point's coordinate.  Points outside the stack's
// extent and points hitting a no-data cell in any band are dropped
// from the stream; the output order matches the input order for
// retained points.
func Extract(stack *raster.Stack) StreamFunc {
	return func(ctx context.Context, g *errgroup.Group, in <-chan Point) <-chan Point {
		out := make(chan Point)
		g.Go(func() error {
			defer close(out)
			total, dropped := 0, 0
			err := EachPoint(ctx, in, func(p Point) error {
				total++
				col, row, ok := stack.Grid.CellAt(p.X, p.Y)
				if !ok {
					dropped++
					return nil
				}
				vals, ok := stack.Values(col, row, nil)
				if !ok {
					dropped++
					return nil
				}
				p.Covs = vals
				return SendPoints(ctx, out, p)
			})
			Log("extract: dropped %d of %d points", dropped, total)
			return err
		})
		return out
	}
}
