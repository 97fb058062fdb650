package dataset

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// TrainTestSplit splits a dataset into a training and a held-out test part.
// testSize is the fraction of samples assigned to the test part, in (0, 1).
// Rows are shuffled with the given seed before splitting.
func TrainTestSplit(d *Dataset, testSize float64, seed int64) (train, test *Dataset, err error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}

	n, _ := d.X.Dims()
	nTest := int(float64(n) * testSize)
	if nTest == 0 || nTest == n {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			"split would leave one side empty; adjust testSize or sample count")
	}

	indices := permutation(n, seed)
	return d.Subset(indices[nTest:]), d.Subset(indices[:nTest]), nil
}

// StratifiedTrainTestSplit splits the dataset preserving per-class proportions.
// Each class contributes floor(count*testSize) samples (at least one when the
// class has more than one sample) to the test part.
func StratifiedTrainTestSplit(d *Dataset, testSize float64, seed int64) (train, test *Dataset, err error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}

	n, _ := d.X.Dims()
	byClass := make(map[int][]int)
	for i := 0; i < n; i++ {
		label := int(d.Y.At(i, 0))
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	var trainIdx, testIdx []int
	for _, label := range d.Classes() {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(float64(len(indices)) * testSize)
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, errors.NewValueError("StratifiedTrainTestSplit",
			"split would leave one side empty; adjust testSize or sample count")
	}

	// Shuffle across classes so the parts are not class-ordered.
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })

	return d.Subset(trainIdx), d.Subset(testIdx), nil
}

// permutation returns a seeded random permutation of [0, n).
func permutation(n int, seed int64) []int {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}
