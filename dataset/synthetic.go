package dataset

import (
	"math/rand"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// MakeClassification generates a synthetic classification dataset of Gaussian
// clusters, one cluster per class. The class weights control the label
// proportions, which makes it easy to produce imbalanced data for resampling
// experiments.
//
// Parameters:
//   - nSamples: total number of samples
//   - nFeatures: number of features
//   - weights: per-class proportions, must sum to ~1.0; nil means two balanced classes
//   - classSep: magnitude of each center coordinate; larger separates classes more
//   - seed: random seed; the same seed always yields the same dataset
func MakeClassification(nSamples, nFeatures int, weights []float64, classSep float64, seed int64) (*Dataset, error) {
	if nSamples <= 0 {
		return nil, errors.NewValidationError("nSamples", "must be positive", nSamples)
	}
	if nFeatures <= 0 {
		return nil, errors.NewValidationError("nFeatures", "must be positive", nFeatures)
	}
	if weights == nil {
		weights = []float64{0.5, 0.5}
	}
	if len(weights) < 2 {
		return nil, errors.NewValidationError("weights", "need at least two classes", len(weights))
	}
	var total float64
	for _, w := range weights {
		if w <= 0 {
			return nil, errors.NewValidationError("weights", "must be positive", w)
		}
		total += w
	}
	if total < 0.999 || total > 1.001 {
		return nil, errors.NewValidationError("weights", "must sum to 1", total)
	}

	rng := rand.New(rand.NewSource(seed))
	nClasses := len(weights)
	// Beyond 62 features the vertex count exceeds any int, so the check
	// only applies to narrow data.
	if nFeatures < 63 && nClasses > 1<<uint(nFeatures) {
		return nil, errors.NewValidationError("weights",
			"more classes than hypercube vertices; add features", nClasses)
	}

	// Class centers sit on distinct hypercube vertices with coordinates
	// ±classSep, so any two centers are at least 2*classSep apart along
	// some axis.
	centers := make([][]float64, nClasses)
	for c := range centers {
		center := make([]float64, nFeatures)
		for j := range center {
			if c>>uint(j)&1 == 1 {
				center[j] = classSep
			} else {
				center[j] = -classSep
			}
		}
		centers[c] = center
	}

	// Per-class sample counts; remainder goes to the majority class to keep
	// the requested total exact.
	counts := make([]int, nClasses)
	assigned := 0
	majority := 0
	for c, w := range weights {
		counts[c] = int(w * float64(nSamples))
		assigned += counts[c]
		if w > weights[majority] {
			majority = c
		}
	}
	counts[majority] += nSamples - assigned

	X := mat.NewDense(nSamples, nFeatures, nil)
	Y := mat.NewDense(nSamples, 1, nil)
	row := 0
	for c, count := range counts {
		for i := 0; i < count; i++ {
			for j := 0; j < nFeatures; j++ {
				X.Set(row, j, centers[c][j]+rng.NormFloat64())
			}
			Y.Set(row, 0, float64(c))
			row++
		}
	}

	names := make([]string, nFeatures)
	for j := range names {
		names[j] = "f" + strconv.Itoa(j)
	}

	// Shuffle rows so class blocks don't survive into splits.
	perm := rng.Perm(nSamples)
	shuffled := &Dataset{X: X, Y: Y, FeatureNames: names}
	return shuffled.Subset(perm), nil
}
