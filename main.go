package main

import (
	"github.com/conslab/sdm/cmd/eval"
	"github.com/conslab/sdm/cmd/extract"
	"github.com/conslab/sdm/cmd/predict"
	"github.com/conslab/sdm/cmd/reclass"
	"github.com/conslab/sdm/cmd/sample"
	"github.com/conslab/sdm/cmd/train"
	"github.com/conslab/sdm/cmd/version"
	"github.com/conslab/sdm/pkg/sdm"
	"github.com/spf13/cobra"
)

var root = &cobra.Command{
	Use:   "sdm",
	Short: "Species distribution modeling over raster covariates",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		sdm.SetLog(verbose)
	},
}

var verbose bool

func init() {
	root.PersistentFlags().BoolVarP(&verbose, "log", "l", false, "enable logging")
	root.AddCommand(
		eval.CMD,
		extract.CMD,
		predict.CMD,
		reclass.CMD,
		sample.CMD,
		train.CMD,
		version.CMD,
	)
}

func main() {
	root.Execute()
}
