package sdm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// StreamFunc is a type def for point stream funcs.
type StreamFunc func(context.Context, *errgroup.Group, <-chan Point) <-chan Point

// Pipe pipes multiple stream funcs together.  The first function in
// the list (the producer) is called with a nil channel.
func Pipe(ctx context.Context, g *errgroup.Group, r StreamFunc, ps ...StreamFunc) <-chan Point {
	out := r(ctx, g, nil)
	for _, p := range ps {
		out = p(ctx, g, out)
	}
	return out
}

// Stream returns a producer stream func that writes the given points
// to its output channel, ignoring its input stream.
func Stream(points []Point) StreamFunc {
	return func(ctx context.Context, g *errgroup.Group, _ <-chan Point) <-chan Point {
		out := make(chan Point)
		g.Go(func() error {
			defer close(out)
			return SendPoints(ctx, out, points...)
		})
		return out
	}
}

// EachPoint iterates over the points in the input channel and calls
// the callback function for each point.
func EachPoint(ctx context.Context, in <-chan Point, f func(Point) error) error {
	for {
		p, ok, err := ReadPoint(ctx, in)
		if err != nil {
			return fmt.Errorf("eachPoint: %v", err)
		}
		if !ok {
			return nil
		}
		if err := f(p); err != nil {
			return fmt.Errorf("eachPoint: %v", err)
		}
	}
}

// ReadPoint reads one point from the given channel.
func ReadPoint(ctx context.Context, in <-chan Point) (Point, bool, error) {
	select {
	case p, ok := <-in:
		return p, ok, nil
	case <-ctx.Done():
		return Point{}, false, fmt.Errorf("readPoint: %v", ctx.Err())
	}
}

// SendPoints writes points into the given output channel.
func SendPoints(ctx context.Context, out chan<- Point, points ...Point) error {
	for _, p := range points {
		select {
		case out <- p:
		case <-ctx.Done():
			return fmt.Errorf("sendPoint: %v", ctx.Err())
		}
	}
	return nil
}

// Collect drains the stream into a slice.
func Collect(ctx context.Context, in <-chan Point) ([]Point, error) {
	var points []Point
	err := EachPoint(ctx, in, func(p Point) error {
		points = append(points, p)
		return nil
	})
	return points, err
}
