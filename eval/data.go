package eval

import (
	"github.com/YuminosukeSato/ensego/dataset"
	"github.com/YuminosukeSato/ensego/pkg/log"
)

// loadData resolves the data section of the config into a dataset, either by
// reading the configured CSV file or by generating a synthetic problem.
func loadData(cfg *Config, lg log.Logger) (*dataset.Dataset, error) {
	if cfg.Data.Path != "" {
		var opts []dataset.CSVOption
		if cfg.Data.LabelName != "" {
			opts = append(opts, dataset.WithLabelName(cfg.Data.LabelName))
		}
		d, err := dataset.LoadCSV(cfg.Data.Path, opts...)
		if err != nil {
			return nil, err
		}
		n, p := d.Dims()
		lg.Info("loaded dataset",
			log.SourceKey, cfg.Data.Path,
			log.SamplesKey, n,
			log.FeaturesKey, p,
			log.ClassesKey, len(d.Classes()))
		return d, nil
	}

	d, err := dataset.MakeClassification(cfg.Data.NSamples, cfg.Data.NFeatures,
		cfg.Data.Weights, cfg.Data.ClassSep, cfg.Seed)
	if err != nil {
		return nil, err
	}
	lg.Info("generated synthetic dataset",
		log.SamplesKey, cfg.Data.NSamples,
		log.FeaturesKey, cfg.Data.NFeatures,
		log.ClassesKey, len(d.Classes()),
		log.SeedKey, cfg.Seed)
	return d, nil
}
