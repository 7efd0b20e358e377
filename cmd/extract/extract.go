package extract

import (
	"context"
	"log"

	"github.com/conslab/sdm/cmd/internal"
	"github.com/conslab/sdm/pkg/sdm"
	"github.com/conslab/sdm/pkg/sdm/raster"
	"github.com/conslab/sdm/pkg/sdm/vector"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	flags.Flags.Init(CMD)
	CMD.Flags().StringVarP(&flags.out, "output", "o", "table.csv", "set output covariate table")
	CMD.Flags().StringVarP(&flags.boundary, "boundary", "b", "", "crop and mask the covariate stack to a boundary file")
}

var flags = struct {
	internal.Flags
	out      string
	boundary string
}{}

// CMD defines the sdm extract command.
var CMD = &cobra.Command{
	Use:   "extract [flags] POINTS BAND [BAND...]",
	Short: "Join occurrence points against a covariate raster stack",
	Long: `Join occurrence points against a covariate raster stack.

Each point is looked up in every band of the stack; points outside
the stack's extent or on a no-data cell are dropped.  The result is a
covariate table with one label column and one column per band.`,
	Args: cobra.MinimumNArgs(2),
	Run:  run,
}

func run(_ *cobra.Command, args []string) {
	points, _, err := sdm.ReadPoints(args[0])
	chk(err)
	stack, err := raster.ReadStack(args[1:]...)
	chk(err)
	stack, err = clip(stack, flags.boundary)
	chk(err)
	g, ctx := errgroup.WithContext(context.Background())
	out := sdm.Pipe(ctx, g,
		sdm.Stream(points),
		sdm.Extract(stack))
	extracted, err := sdm.Collect(ctx, out)
	chk(err)
	chk(g.Wait())
	table, err := sdm.TableFromPoints(stack.BandNames(), extracted)
	chk(err)
	log.Printf("extract: %d of %d points retained", table.Len(), len(points))
	chk(table.Write(flags.out))
}

// clip crops and masks the stack against the boundary, reprojecting
// the boundary into the stack's projection first.
func clip(stack *raster.Stack, path string) (*raster.Stack, error) {
	if path == "" {
		return stack, nil
	}
	b, err := vector.Read(path)
	if err != nil {
		return nil, err
	}
	if stack.Grid.Proj != "" {
		if b, err = b.Reproject(stack.Grid.Proj); err != nil {
			return nil, err
		}
	}
	if stack, err = stack.Crop(b); err != nil {
		return nil, err
	}
	return stack.Mask(b)
}

func chk(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}
