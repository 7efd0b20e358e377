package sample

import (
	"context"
	"log"

	"github.com/conslab/sdm/cmd/internal"
	"github.com/conslab/sdm/pkg/sdm"
	"github.com/conslab/sdm/pkg/sdm/raster"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	flags.Flags.Init(CMD)
	CMD.Flags().IntVarP(&flags.size, "size", "n", 0, "set sample size per class (overwrites setting in the configuration file)")
	CMD.Flags().StringVarP(&flags.out, "output", "o", "points.csv", "set output point file")
}

var flags = struct {
	internal.Flags
	size int
	out  string
}{}

// CMD defines the sdm sample command.
var CMD = &cobra.Command{
	Use:   "sample [flags] RASTER",
	Short: "Draw a stratified presence/absence sample from a categorical raster",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

func run(_ *cobra.Command, args []string) {
	c, err := sdm.ReadConfig(flags.Params)
	chk(err)
	c.Overwrite(flags.Model, flags.Seed)
	if flags.size != 0 {
		c.Sampling.Size = flags.size
	}
	l, err := raster.ReadLayer(args[0])
	chk(err)
	g, ctx := errgroup.WithContext(context.Background())
	out := sdm.Pipe(ctx, g, sdm.SamplePoints(l, c.Sampling.Size, c.Seed))
	points, err := sdm.Collect(ctx, out)
	chk(err)
	chk(g.Wait())
	log.Printf("sample: %d points from %s", len(points), args[0])
	chk(sdm.WritePoints(flags.out, nil, points))
}

func chk(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}
