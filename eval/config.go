// Package eval runs the experiment workflows: out-of-bag error sweeps over
// growing ensemble sizes and side-by-side classifier comparisons on
// imbalanced data, with optional plots of the results.
package eval

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// Config defines the experiment configuration.
type Config struct {
	Seed    int64         `json:"seed" toml:"seed"`
	Data    DataConfig    `json:"data" toml:"data"`
	OOB     OOBConfig     `json:"oob" toml:"oob"`
	Compare CompareConfig `json:"compare" toml:"compare"`
}

// DataConfig selects the input data. A non-empty Path loads a CSV file;
// otherwise a synthetic problem is generated.
type DataConfig struct {
	Path      string    `json:"path,omitempty" toml:"path"`
	LabelName string    `json:"labelName,omitempty" toml:"labelName"`
	NSamples  int       `json:"nsamples" toml:"nsamples"`
	NFeatures int       `json:"nfeatures" toml:"nfeatures"`
	Weights   []float64 `json:"weights,omitempty" toml:"weights"`
	ClassSep  float64   `json:"classSep" toml:"classSep"`
}

// OOBConfig parameterizes the out-of-bag error sweep.
type OOBConfig struct {
	Sizes      []int   `json:"sizes" toml:"sizes"`
	Criterion  string  `json:"criterion" toml:"criterion"`
	MaxDepth   int     `json:"maxDepth" toml:"maxDepth"`
	MaxSamples float64 `json:"maxSamples" toml:"maxSamples"`
	NJobs      int     `json:"njobs" toml:"njobs"`
	Plot       string  `json:"plot,omitempty" toml:"plot"`
}

// CompareConfig parameterizes the classifier comparison.
type CompareConfig struct {
	TestSize  float64 `json:"testSize" toml:"testSize"`
	Resampler string  `json:"resampler" toml:"resampler"` // "none", "over", "under"
	Scale     bool    `json:"scale" toml:"scale"`
	Trees     int     `json:"trees" toml:"trees"`
	C         float64 `json:"c" toml:"c"`
	MaxIter   int     `json:"maxIter" toml:"maxIter"`
	Plot      string  `json:"plot,omitempty" toml:"plot"`
}

// DefaultConfig returns a configuration with workable defaults for both
// workflows.
func DefaultConfig() *Config {
	return &Config{
		Seed: 42,
		Data: DataConfig{
			NSamples:  500,
			NFeatures: 10,
			Weights:   []float64{0.9, 0.1},
			ClassSep:  1.5,
		},
		OOB: OOBConfig{
			Sizes:      []int{10, 25, 50, 100, 150, 200},
			Criterion:  "gini",
			MaxDepth:   -1,
			MaxSamples: 1.0,
		},
		Compare: CompareConfig{
			TestSize:  0.3,
			Resampler: "over",
			Scale:     true,
			Trees:     100,
			C:         1.0,
			MaxIter:   1000,
		},
	}
}

// ReadConfig reads the config from a toml or json file.
func ReadConfig(file string) (*Config, error) {
	is, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "readConfig %s", file)
	}
	defer is.Close()

	config := DefaultConfig()
	if strings.HasSuffix(file, ".toml") {
		if _, err := toml.NewDecoder(is).Decode(config); err != nil {
			return nil, errors.Wrapf(err, "readConfig %s", file)
		}
		return config, nil
	}
	if err := json.NewDecoder(is).Decode(config); err != nil {
		return nil, errors.Wrapf(err, "readConfig %s", file)
	}
	return config, nil
}

// Overwrite overwrites the appropriate variables in the config with the
// given values. Values only overwrite the variables if they are not go's
// default zero value.
func (c *Config) Overwrite(dataPath string, seed int64, plot string) {
	if dataPath != "" {
		c.Data.Path = dataPath
	}
	if seed != 0 {
		c.Seed = seed
	}
	if plot != "" {
		c.OOB.Plot = plot
		c.Compare.Plot = plot
	}
}

// Validate checks the configuration for values neither workflow can run with.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		if c.Data.NSamples <= 0 {
			return errors.NewValidationError("data.nsamples", "must be positive without an input file", c.Data.NSamples)
		}
		if c.Data.NFeatures <= 0 {
			return errors.NewValidationError("data.nfeatures", "must be positive without an input file", c.Data.NFeatures)
		}
	}
	if len(c.OOB.Sizes) == 0 {
		return errors.NewValidationError("oob.sizes", "must not be empty", c.OOB.Sizes)
	}
	if c.Compare.TestSize <= 0 || c.Compare.TestSize >= 1 {
		return errors.NewValidationError("compare.testSize", "must be in (0, 1)", c.Compare.TestSize)
	}
	switch c.Compare.Resampler {
	case "", "none", "over", "under":
	default:
		return errors.NewValidationError("compare.resampler", "must be \"none\", \"over\" or \"under\"", c.Compare.Resampler)
	}
	return nil
}
