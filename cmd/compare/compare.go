// Package compare implements the classifier comparison command.
package compare

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/ensego/cmd/internal"
	"github.com/YuminosukeSato/ensego/eval"
)

// CMD defines the ensego compare command.
var CMD = &cobra.Command{
	Use:   "compare",
	Short: "Compare classifiers on a held-out split with optional resampling",
	Run:   run,
}

var flags = struct {
	resampler string
	testSize  float64
}{}

func init() {
	internal.Setup(CMD)
	CMD.Flags().StringVarP(&flags.resampler, "resampler", "r", "",
		"set the training set resampler: none, over or under (overwrites the setting in the configuration file)")
	CMD.Flags().Float64VarP(&flags.testSize, "test-size", "t", 0,
		"set the held-out fraction (overwrites the setting in the configuration file)")
}

func run(_ *cobra.Command, _ []string) {
	cfg, lg := internal.Configure()
	if flags.resampler != "" {
		cfg.Compare.Resampler = flags.resampler
	}
	if flags.testSize != 0 {
		cfg.Compare.TestSize = flags.testSize
	}

	res, err := eval.RunCompare(cfg, lg)
	internal.Chk(lg, err)
	internal.Chk(lg, res.WriteReport(os.Stdout))
}
