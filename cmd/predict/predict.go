package predict

import (
	"fmt"
	"log"

	"github.com/conslab/sdm/cmd/internal"
	"github.com/conslab/sdm/pkg/sdm"
	"github.com/conslab/sdm/pkg/sdm/raster"
	"github.com/conslab/sdm/pkg/sdm/vector"
	"github.com/spf13/cobra"
)

func init() {
	flags.Flags.Init(CMD)
	CMD.Flags().StringVarP(&flags.out, "output", "o", "prediction.asc", "set output probability raster")
	CMD.Flags().StringVarP(&flags.boundary, "boundary", "b", "", "crop and mask the covariate stack to a boundary file")
	CMD.Flags().StringVar(&flags.like, "like", "", "require the output grid to match the given raster's geometry")
	CMD.Flags().StringVar(&flags.classify, "classify", "", "additionally write a presence/absence raster to the given path")
	CMD.Flags().Float64Var(&flags.cutoff, "cutoff", 0, "set classification cutoff (overwrites the cutoff stored in the model)")
}

var flags = struct {
	internal.Flags
	out      string
	boundary string
	like     string
	classify string
	cutoff   float64
}{}

// CMD defines the sdm predict command.
var CMD = &cobra.Command{
	Use:   "predict [flags] BAND [BAND...]",
	Short: "Apply a fitted model to a covariate raster stack",
	Long: `Apply a fitted model to a covariate raster stack.

Running predict twice with the same model against a current and a
future covariate stack yields directly comparable probability grids;
pass --like with the first prediction to make a geometry mismatch of
the second stack fail instead of producing an incomparable grid.`,
	Args: cobra.MinimumNArgs(1),
	Run:  run,
}

func run(_ *cobra.Command, args []string) {
	c, err := sdm.ReadConfig(flags.Params)
	chk(err)
	c.Overwrite(flags.Model, flags.Seed)
	m, err := sdm.ReadModel(c.Model)
	chk(err)
	stack, err := raster.ReadStack(args...)
	chk(err)
	stack, err = clip(stack, flags.boundary)
	chk(err)
	if flags.like != "" {
		ref, err := raster.ReadLayer(flags.like)
		chk(err)
		if !stack.Grid.Equal(ref.Grid) {
			chk(fmt.Errorf("predict: stack does not match %s: %w", flags.like, raster.ErrGeometry))
		}
	}
	p, err := sdm.PredictRaster(m, stack)
	chk(err)
	chk(raster.WriteLayer(p, flags.out))
	if flags.classify == "" {
		return
	}
	cutoff := flags.cutoff
	if cutoff == 0 {
		cutoff = m.Cutoff
	}
	if cutoff == 0 {
		chk(fmt.Errorf("predict: no cutoff: run eval --update or pass --cutoff"))
	}
	chk(raster.WriteLayer(sdm.Classify(p, cutoff), flags.classify))
}

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
