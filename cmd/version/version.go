package version

import (
	"fmt"
	"os"
	"runtime"

	"github.com/conslab/sdm/cmd/internal"
	"github.com/spf13/cobra"
)

// CMD defines the sdm version command.
var CMD = &cobra.Command{
	Use:   "version",
	Short: "Print sdm's version",
	Run:   run,
}

func run(_ *cobra.Command, args []string) {
	fmt.Printf("%s version: %s [%s/%s]\n", os.Args[0], internal.Version, runtime.GOOS, runtime.GOARCH)
}
