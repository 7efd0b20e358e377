package internal

import (
	"github.com/spf13/cobra"
)

// sdm version
const Version = "v0.1.0"

// Flags is used to define the standard command-line parameters for
// sdm sub commands.
type Flags struct {
	Params string // Path to the configuration file
	Model  string // Model file path
	Seed   int64  // Random seed
}

// Init initializes the standard commandline arguments for the given
// subcommand.
func (flags *Flags) Init(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flags.Params, "parameters", "P", "config.toml", "set path to configuration file")
	cmd.Flags().StringVarP(&flags.Model, "model", "M", "", "set model path (overwrites setting in the configuration file)")
	cmd.Flags().Int64VarP(&flags.Seed, "seed", "s", 0, "set random seed (overwrites setting in the configuration file)")
}
