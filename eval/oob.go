package eval

import (
	"fmt"
	"io"
	"time"

	"github.com/YuminosukeSato/ensego/ensemble"
	"github.com/YuminosukeSato/ensego/pkg/log"
)

// OOBResult holds the out-of-bag error at each evaluated ensemble size.
type OOBResult struct {
	Sizes  []int
	Errors []float64
}

// RunOOB fits a bagged-tree ensemble at the largest configured size and
// evaluates the out-of-bag error over growing prefixes of it. A single fit
// suffices because each tree's bootstrap draw is independent of how many
// trees follow it.
func RunOOB(cfg *Config, lg log.Logger) (*OOBResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, err := loadData(cfg, lg)
	if err != nil {
		return nil, err
	}

	maxSize := cfg.OOB.Sizes[len(cfg.OOB.Sizes)-1]
	rf := ensemble.NewRandomForestClassifier(
		ensemble.WithTrees(maxSize),
		ensemble.WithForestCriterion(cfg.OOB.Criterion),
		ensemble.WithForestMaxDepth(cfg.OOB.MaxDepth),
		ensemble.WithForestOOBScore(true),
		ensemble.WithForestNJobs(cfg.OOB.NJobs),
		ensemble.WithForestRandomState(cfg.Seed),
	)

	start := time.Now()
	if err := rf.Fit(d.X, d.Y); err != nil {
		return nil, err
	}
	lg.Info("ensemble fitted",
		log.ModelNameKey, "RandomForestClassifier",
		log.EstimatorsKey, maxSize,
		log.DurationMsKey, time.Since(start).Milliseconds())

	curve, err := rf.OOBCurve(cfg.OOB.Sizes)
	if err != nil {
		return nil, err
	}

	res := &OOBResult{Sizes: cfg.OOB.Sizes, Errors: curve}
	for i, size := range res.Sizes {
		lg.Info("oob point",
			log.EstimatorsKey, size,
			log.OOBErrorKey, res.Errors[i])
	}

	if cfg.OOB.Plot != "" {
		if err := PlotOOBCurve(res, cfg.OOB.Plot); err != nil {
			return nil, err
		}
		lg.Info("wrote oob plot", log.SourceKey, cfg.OOB.Plot)
	}
	return res, nil
}

// WriteReport writes the error curve as a plain text table.
func (r *OOBResult) WriteReport(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%12s %12s\n", "n_estimators", "oob_error"); err != nil {
		return err
	}
	for i, size := range r.Sizes {
		if _, err := fmt.Fprintf(w, "%12d %12.4f\n", size, r.Errors[i]); err != nil {
			return err
		}
	}
	return nil
}
