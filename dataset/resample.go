package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// Resampler rebalances the class distribution of a training set. It must only
// ever be applied to the training part of a split; evaluation data stays
// untouched.
type Resampler interface {
	// FitResample returns a rebalanced copy of the data.
	FitResample(X, y mat.Matrix) (*mat.Dense, *mat.Dense, error)
}

// RandomOverSampler balances classes by sampling minority-class rows with
// replacement until every class matches the majority-class count.
type RandomOverSampler struct {
	seed int64
}

// RandomOverSamplerOption is a functional option for RandomOverSampler.
type RandomOverSamplerOption func(*RandomOverSampler)

// WithOverSamplerSeed sets the random seed.
func WithOverSamplerSeed(seed int64) RandomOverSamplerOption {
	return func(s *RandomOverSampler) {
		s.seed = seed
	}
}

// NewRandomOverSampler creates a new RandomOverSampler.
func NewRandomOverSampler(opts ...RandomOverSamplerOption) *RandomOverSampler {
	s := &RandomOverSampler{seed: -1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FitResample implements Resampler.
func (s *RandomOverSampler) FitResample(X, y mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	groups, err := groupByClass(X, y, "RandomOverSampler.FitResample")
	if err != nil {
		return nil, nil, err
	}

	target := 0
	for _, indices := range groups {
		if len(indices) > target {
			target = len(indices)
		}
	}

	rng := newRNG(s.seed)
	var resampled []int
	for _, label := range sortedLabels(groups) {
		indices := groups[label]
		resampled = append(resampled, indices...)
		// Draw with replacement until the class reaches the majority count.
		for i := len(indices); i < target; i++ {
			resampled = append(resampled, indices[rng.Intn(len(indices))])
		}
	}
	return gather(X, y, shuffled(resampled, rng))
}

// RandomUnderSampler balances classes by subsampling every class without
// replacement down to the minority-class count.
type RandomUnderSampler struct {
	seed int64
}

// RandomUnderSamplerOption is a functional option for RandomUnderSampler.
type RandomUnderSamplerOption func(*RandomUnderSampler)

// WithUnderSamplerSeed sets the random seed.
func WithUnderSamplerSeed(seed int64) RandomUnderSamplerOption {
	return func(s *RandomUnderSampler) {
		s.seed = seed
	}
}

// NewRandomUnderSampler creates a new RandomUnderSampler.
func NewRandomUnderSampler(opts ...RandomUnderSamplerOption) *RandomUnderSampler {
	s := &RandomUnderSampler{seed: -1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FitResample implements Resampler.
func (s *RandomUnderSampler) FitResample(X, y mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	groups, err := groupByClass(X, y, "RandomUnderSampler.FitResample")
	if err != nil {
		return nil, nil, err
	}

	target := -1
	for _, indices := range groups {
		if target < 0 || len(indices) < target {
			target = len(indices)
		}
	}

	rng := newRNG(s.seed)
	var resampled []int
	for _, label := range sortedLabels(groups) {
		indices := groups[label]
		perm := rng.Perm(len(indices))
		for i := 0; i < target; i++ {
			resampled = append(resampled, indices[perm[i]])
		}
	}
	return gather(X, y, shuffled(resampled, rng))
}

func newRNG(seed int64) *rand.Rand {
	if seed >= 0 {
		return rand.New(rand.NewSource(seed))
	}
	return rand.New(rand.NewSource(rand.Int63()))
}

// groupByClass validates shapes and returns row indices per class label.
func groupByClass(X, y mat.Matrix, op string) (map[int][]int, error) {
	n, c := X.Dims()
	if n == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return nil, errors.NewValueError(op, "y must be a column vector")
	}
	if yRows != n {
		return nil, errors.NewDimensionError(op, n, yRows, 0)
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		label := int(y.At(i, 0))
		groups[label] = append(groups[label], i)
	}
	if len(groups) < 2 {
		return nil, errors.WithStack(errors.ErrSingleClass)
	}
	return groups, nil
}

func sortedLabels(groups map[int][]int) []int {
	labels := make([]int, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	for i := 1; i < len(labels); i++ {
		for j := i; j > 0 && labels[j-1] > labels[j]; j-- {
			labels[j-1], labels[j] = labels[j], labels[j-1]
		}
	}
	return labels
}

func shuffled(indices []int, rng *rand.Rand) []int {
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}

// gather copies the selected rows into fresh matrices.
func gather(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense, error) {
	_, nFeatures := X.Dims()
	outX := mat.NewDense(len(indices), nFeatures, nil)
	outY := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < nFeatures; j++ {
			outX.Set(i, j, X.At(idx, j))
		}
		outY.Set(i, 0, y.At(idx, 0))
	}
	return outX, outY, nil
}
