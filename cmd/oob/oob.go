// Package oob implements the out-of-bag error sweep command.
package oob

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/ensego/cmd/internal"
	"github.com/YuminosukeSato/ensego/eval"
)

// CMD defines the ensego oob command.
var CMD = &cobra.Command{
	Use:   "oob",
	Short: "Plot the out-of-bag error over growing ensemble sizes",
	Run:   run,
}

var flags = struct {
	sizes []int
}{}

func init() {
	internal.Setup(CMD)
	CMD.Flags().IntSliceVarP(&flags.sizes, "sizes", "n", nil,
		"set the ensemble sizes to evaluate (overwrites the setting in the configuration file)")
}

func run(_ *cobra.Command, _ []string) {
	cfg, lg := internal.Configure()
	if len(flags.sizes) > 0 {
		cfg.OOB.Sizes = flags.sizes
	}

	res, err := eval.RunOOB(cfg, lg)
	internal.Chk(lg, err)
	internal.Chk(lg, res.WriteReport(os.Stdout))
}
