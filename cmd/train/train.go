package train

import (
	"fmt"
	"log"
	"sort"

	"github.com/conslab/sdm/cmd/internal"
	"github.com/conslab/sdm/pkg/sdm"
	"github.com/conslab/sdm/pkg/sdm/ml"
	"github.com/spf13/cobra"
)

func init() {
	flags.Flags.Init(CMD)
}

var flags = struct {
	internal.Flags
}{}

// CMD defines the sdm train command.
var CMD = &cobra.Command{
	Use:   "train [flags] TABLE",
	Short: "Fit a boosted regression tree model on the training split",
	Long: `Fit a boosted regression tree model on the training split.

The covariate table is split into a training and a testing subset
with the configured fraction and seed; eval re-creates the identical
split from the same configuration.  The fitted model and its
predictor list are written to the configured model file, the variable
influence ranking goes to stdout.`,
	Args: cobra.ExactArgs(1),
	Run:  run,
}

func run(_ *cobra.Command, args []string) {
	c, err := sdm.ReadConfig(flags.Params)
	chk(err)
	c.Overwrite(flags.Model, flags.Seed)
	if c.Model == "" {
		chk(fmt.Errorf("train: no model path: set model in the configuration or pass -M"))
	}
	table, err := sdm.ReadTable(args[0])
	chk(err)
	if len(c.Training.Predictors) > 0 {
		table, err = table.Select(c.Training.Predictors)
		chk(err)
	}
	train, _ := table.Split(c.Training.Split, c.Seed)
	x, y, err := train.Matrix()
	chk(err)
	brt := ml.BRT{
		LearningRate: c.Training.LearningRate,
		NTrees:       c.Training.Trees,
		Depth:        c.Training.Depth,
		BagFraction:  c.Training.BagFraction,
		Seed:         c.Seed,
	}
	log.Printf("train: fitting %d rows, %d predictors, lr=%f, trees=%d, depth=%d, bag=%f",
		train.Len(), len(train.Names), brt.LearningRate, brt.NTrees, brt.Depth, brt.BagFraction)
	chk(brt.Fit(x, y))
	printInfluence(train.Names, brt.Importance())
	m := sdm.Model{Predictors: train.Names, BRT: &brt}
	chk(m.Write(c.Model))
}

func printInfluence(names []string, influence []float64) {
	idx := make([]int, len(names))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return influence[idx[a]] > influence[idx[b]]
	})
	for _, i := range idx {
		fmt.Printf("train,influence,%s,%f\n", names[i], influence[i])
	}
}

func chk(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}
