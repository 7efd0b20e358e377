package eval

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/conslab/sdm/cmd/internal"
	"github.com/conslab/sdm/pkg/sdm"
	"github.com/conslab/sdm/pkg/sdm/ml"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func init() {
	flags.Flags.Init(CMD)
	CMD.Flags().StringVarP(&flags.out, "output", "o", "", "write the ROC point sequence to a csv file")
	CMD.Flags().StringVar(&flags.plotROC, "plot", "", "render the ROC curve to a png file")
	CMD.Flags().StringVar(&flags.plotAcc, "plot-accuracy", "", "render the accuracy-vs-cutoff curve to a png file")
	CMD.Flags().BoolVarP(&flags.update, "update", "u", false, "store the derived cutoff in the model file")
}

var flags = struct {
	internal.Flags
	out     string
	plotROC string
	plotAcc string
	update  bool
}{}

// CMD defines the sdm eval command.
var CMD = &cobra.Command{
	Use:   "eval [flags] TABLE",
	Short: "Evaluate a fitted model on the held-out split",
	Long: `Evaluate a fitted model on the held-out split.

The covariate table is split with the configured fraction and seed,
reproducing the split train used, and the model is scored on the
testing subset.  Reported are the AUC, the ROC point sequence and a
classification cutoff maximizing the balanced accuracy (TPR+TNR)/2.`,
	Args: cobra.ExactArgs(1),
	Run:  run,
}

func run(_ *cobra.Command, args []string) {
	c, err := sdm.ReadConfig(flags.Params)
	chk(err)
	c.Overwrite(flags.Model, flags.Seed)
	m, err := sdm.ReadModel(c.Model)
	chk(err)
	table, err := sdm.ReadTable(args[0])
	chk(err)
	table, err = table.Select(m.Predictors)
	chk(err)
	_, test := table.Split(c.Training.Split, c.Seed)
	x, y, err := test.Matrix()
	chk(err)
	probs := m.BRT.PredictProb(x)
	scores := make([]float64, test.Len())
	for i := range scores {
		scores[i] = probs.AtVec(i)
	}
	points := ml.Roc(scores, y.RawVector().Data)
	auc := ml.AUC(points)
	cutoff := ml.BestCutoff(points)
	fmt.Printf("eval,n,%d\n", test.Len())
	fmt.Printf("eval,auc,%f\n", auc)
	fmt.Printf("eval,cutoff,%f\n", cutoff)
	if flags.out != "" {
		chk(writeROC(points, flags.out))
	}
	if flags.plotROC != "" {
		chk(plotCurve(rocXYs(points), "ROC", "false positive rate", "true positive rate", flags.plotROC))
	}
	if flags.plotAcc != "" {
		chk(plotCurve(accuracyXYs(points), "Accuracy vs cutoff", "cutoff", "accuracy", flags.plotAcc))
	}
	if flags.update {
		m.Cutoff = cutoff
		chk(m.Write(c.Model))
		log.Printf("eval: cutoff %f stored in %s", cutoff, c.Model)
	}
}

func writeROC(points []ml.ROCPoint, path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write roc %s: %v", path, err)
	}
	defer func() {
		if exx := out.Close(); exx != nil && err == nil {
			err = fmt.Errorf("write roc %s: %v", path, exx)
		}
	}()
	w := csv.NewWriter(out)
	if err := w.Write([]string{"threshold", "fpr", "tpr", "accuracy"}); err != nil {
		return fmt.Errorf("write roc %s: %v", path, err)
	}
	for _, p := range points {
		record := []string{
			strconv.FormatFloat(p.Threshold, 'g', -1, 64),
			strconv.FormatFloat(p.FPR, 'g', -1, 64),
			strconv.FormatFloat(p.TPR, 'g', -1, 64),
			strconv.FormatFloat(p.Accuracy, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write roc %s: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write roc %s: %v", path, err)
	}
	return nil
}

func rocXYs(points []ml.ROCPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i].X = p.FPR
		xys[i].Y = p.TPR
	}
	return xys
}

func accuracyXYs(points []ml.ROCPoint) plotter.XYs {
	var xys plotter.XYs
	for _, p := range points {
		if math.IsInf(p.Threshold, 1) {
			continue
		}
		xys = append(xys, plotter.XY{X: p.Threshold, Y: p.Accuracy})
	}
	return xys
}

func plotCurve(xys plotter.XYs, title, xlabel, ylabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("plot %s: %v", path, err)
	}
	p.Add(plotter.NewGrid(), line)
	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("plot %s: %v", path, err)
	}
	return nil
}

func chk(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}
