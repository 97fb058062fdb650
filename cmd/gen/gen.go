// Package gen implements the synthetic dataset generation command.
package gen

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/ensego/cmd/internal"
	"github.com/YuminosukeSato/ensego/dataset"
	"github.com/YuminosukeSato/ensego/eval"
	"github.com/YuminosukeSato/ensego/pkg/log"
)

// CMD defines the ensego gen command.
var CMD = &cobra.Command{
	Use:   "gen OUT.csv",
	Short: "Generate a synthetic classification dataset as CSV",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}

var flags = struct {
	nsamples  int
	nfeatures int
	weights   []float64
	classSep  float64
}{}

func init() {
	internal.Setup(CMD)
	CMD.Flags().IntVar(&flags.nsamples, "nsamples", 0,
		"set the number of samples (overwrites the setting in the configuration file)")
	CMD.Flags().IntVar(&flags.nfeatures, "nfeatures", 0,
		"set the number of features (overwrites the setting in the configuration file)")
	CMD.Flags().Float64SliceVar(&flags.weights, "weights", nil,
		"set the class proportions (overwrites the setting in the configuration file)")
	CMD.Flags().Float64Var(&flags.classSep, "class-sep", 0,
		"set the separation between class centers (overwrites the setting in the configuration file)")
}

func run(_ *cobra.Command, args []string) {
	cfg, lg := internal.Configure()
	applyFlags(cfg)

	d, err := dataset.MakeClassification(cfg.Data.NSamples, cfg.Data.NFeatures,
		cfg.Data.Weights, cfg.Data.ClassSep, cfg.Seed)
	internal.Chk(lg, err)
	internal.Chk(lg, dataset.WriteCSV(d, args[0]))

	n, p := d.Dims()
	lg.Info("wrote dataset",
		log.SourceKey, args[0],
		log.SamplesKey, n,
		log.FeaturesKey, p)
}

func applyFlags(cfg *eval.Config) {
	if flags.nsamples != 0 {
		cfg.Data.NSamples = flags.nsamples
	}
	if flags.nfeatures != 0 {
		cfg.Data.NFeatures = flags.nfeatures
	}
	if len(flags.weights) > 0 {
		cfg.Data.Weights = flags.weights
	}
	if flags.classSep != 0 {
		cfg.Data.ClassSep = flags.classSep
	}
}
