// Package ensemble implements bootstrap-aggregated classifiers.
//
// BaggingClassifier fits base estimators on bootstrap resamples of the
// training data and aggregates their votes. RandomForestClassifier
// specializes it with decision trees and per-split feature subsampling.
// Both track out-of-bag membership so generalization error can be
// estimated without a held-out set.
package ensemble

import (
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/core/model"
	"github.com/YuminosukeSato/ensego/pkg/errors"
	"github.com/YuminosukeSato/ensego/tree"
)

// BaseBuilder constructs a fresh base estimator. The seed parameterizes any
// randomness inside the estimator itself, distinct from the bootstrap draw.
type BaseBuilder func(seed int64) model.Classifier

var (
	_ model.Classifier      = (*BaggingClassifier)(nil)
	_ model.OOBScorer       = (*BaggingClassifier)(nil)
	_ model.ParameterGetter = (*BaggingClassifier)(nil)
)

// BaggingClassifier fits base estimators on bootstrap samples and predicts
// by majority vote
// Compatible with scikit-learn's BaggingClassifier
type BaggingClassifier struct {
	state *model.StateManager

	// Hyperparameters
	base        BaseBuilder
	nEstimators int
	maxSamples  float64 // Bootstrap size as a fraction of n_samples
	oobScore    bool
	nJobs       int
	randomState int64

	// Fitted state
	estimators_ []model.Classifier
	classes_    []int
	nClasses_   int
	nFeatures_  int

	// Per-estimator out-of-bag bookkeeping. oobIndices_[e] lists the
	// training rows estimator e never saw; oobPredictions_[e] holds the
	// class index it predicts for each of them.
	oobIndices_     [][]int
	oobPredictions_ [][]int
	yIndices_       []int
}

// BaggingOption is a functional option for BaggingClassifier
type BaggingOption func(*BaggingClassifier)

// WithBaseEstimator sets the builder for base estimators
func WithBaseEstimator(base BaseBuilder) BaggingOption {
	return func(bc *BaggingClassifier) {
		bc.base = base
	}
}

// WithNEstimators sets the number of base estimators
func WithNEstimators(n int) BaggingOption {
	return func(bc *BaggingClassifier) {
		bc.nEstimators = n
	}
}

// WithMaxSamples sets the bootstrap size as a fraction of the training set
func WithMaxSamples(fraction float64) BaggingOption {
	return func(bc *BaggingClassifier) {
		bc.maxSamples = fraction
	}
}

// WithOOBScore enables out-of-bag bookkeeping during Fit
func WithOOBScore(enabled bool) BaggingOption {
	return func(bc *BaggingClassifier) {
		bc.oobScore = enabled
	}
}

// WithNJobs sets the number of estimators fitted concurrently.
// Zero or negative uses all CPUs.
func WithNJobs(n int) BaggingOption {
	return func(bc *BaggingClassifier) {
		bc.nJobs = n
	}
}

// WithRandomState sets the random seed for bootstrap sampling
func WithRandomState(seed int64) BaggingOption {
	return func(bc *BaggingClassifier) {
		bc.randomState = seed
	}
}

// NewBaggingClassifier creates a new BaggingClassifier. The default base
// estimator is an unpruned decision tree.
func NewBaggingClassifier(opts ...BaggingOption) *BaggingClassifier {
	bc := &BaggingClassifier{
		state:       model.NewStateManager(),
		nEstimators: 10,
		maxSamples:  1.0,
		oobScore:    false,
		nJobs:       0,
		randomState: -1,
	}

	for _, opt := range opts {
		opt(bc)
	}

	if bc.base == nil {
		bc.base = func(seed int64) model.Classifier {
			return tree.NewDecisionTreeClassifier(tree.WithTreeRandomState(seed))
		}
	}

	return bc
}

// Fit trains the ensemble on bootstrap resamples of the training data
func (bc *BaggingClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "BaggingClassifier.Fit")

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("BaggingClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewValueError("BaggingClassifier.Fit", "y must be a column vector")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("BaggingClassifier.Fit", nSamples, yRows, 0)
	}
	if bc.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", bc.nEstimators)
	}
	if bc.maxSamples <= 0 || bc.maxSamples > 1 {
		return errors.NewValidationError("max_samples", "must be in (0, 1]", bc.maxSamples)
	}

	bc.extractClasses(y)
	bc.nFeatures_ = nFeatures

	classIndex := make(map[int]int, bc.nClasses_)
	for i, c := range bc.classes_ {
		classIndex[c] = i
	}
	bc.yIndices_ = make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		bc.yIndices_[i] = classIndex[int(y.At(i, 0))]
	}

	var rng *rand.Rand
	if bc.randomState >= 0 {
		rng = rand.New(rand.NewSource(bc.randomState))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	// Seeds and bootstrap indices are drawn serially from one source so
	// results do not depend on fit scheduling.
	bagSize := int(bc.maxSamples * float64(nSamples))
	if bagSize < 1 {
		bagSize = 1
	}
	seeds := make([]int64, bc.nEstimators)
	bags := make([][]int, bc.nEstimators)
	for e := 0; e < bc.nEstimators; e++ {
		seeds[e] = rng.Int63()
		bag := make([]int, bagSize)
		for i := range bag {
			bag[i] = rng.Intn(nSamples)
		}
		bags[e] = bag
	}

	bc.estimators_ = make([]model.Classifier, bc.nEstimators)
	bc.oobIndices_ = make([][]int, bc.nEstimators)
	bc.oobPredictions_ = make([][]int, bc.nEstimators)

	limit := bc.nJobs
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for e := 0; e < bc.nEstimators; e++ {
		e := e
		g.Go(func() (err error) {
			// Recover inside the worker, a panicking base estimator must
			// surface as a Fit error rather than crash the process.
			defer errors.Recover(&err, "BaggingClassifier.Fit")

			est := bc.base(seeds[e])

			bagX, bagY := gatherRows(X, y, bags[e])
			if err := est.Fit(bagX, bagY); err != nil {
				return errors.Wrapf(err, "estimator %d", e)
			}
			bc.estimators_[e] = est

			if !bc.oobScore {
				return nil
			}
			oobIdx := outOfBag(bags[e], nSamples)
			bc.oobIndices_[e] = oobIdx
			if len(oobIdx) == 0 {
				return nil
			}
			oobX, _ := gatherRows(X, y, oobIdx)
			pred, err := est.Predict(oobX)
			if err != nil {
				return errors.Wrapf(err, "estimator %d oob predict", e)
			}
			oobPred := make([]int, len(oobIdx))
			for i := range oobIdx {
				oobPred[i] = classIndex[int(pred.At(i, 0))]
			}
			bc.oobPredictions_[e] = oobPred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	bc.state.SetDimensions(nFeatures, nSamples)
	bc.state.SetFitted()
	return nil
}

// extractClasses identifies unique class labels
func (bc *BaggingClassifier) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	bc.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		bc.classes_ = append(bc.classes_, class)
	}
	// Insertion sort, the label sets here are tiny
	for i := 1; i < len(bc.classes_); i++ {
		for j := i; j > 0 && bc.classes_[j] < bc.classes_[j-1]; j-- {
			bc.classes_[j], bc.classes_[j-1] = bc.classes_[j-1], bc.classes_[j]
		}
	}
	bc.nClasses_ = len(bc.classes_)
}

// Predict returns the majority-vote class label for each row of X
func (bc *BaggingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !bc.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingClassifier", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != bc.nFeatures_ {
		return nil, errors.NewDimensionError("BaggingClassifier.Predict", bc.nFeatures_, nFeatures, 1)
	}

	votes, err := bc.voteCounts(X, nSamples)
	if err != nil {
		return nil, err
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < bc.nClasses_; c++ {
			if votes[i][c] > votes[i][best] {
				best = c
			}
		}
		predictions.Set(i, 0, float64(bc.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns the fraction of estimators voting for each class
func (bc *BaggingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !bc.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingClassifier", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != bc.nFeatures_ {
		return nil, errors.NewDimensionError("BaggingClassifier.PredictProba", bc.nFeatures_, nFeatures, 1)
	}

	votes, err := bc.voteCounts(X, nSamples)
	if err != nil {
		return nil, err
	}

	probas := mat.NewDense(nSamples, bc.nClasses_, nil)
	total := float64(len(bc.estimators_))
	for i := 0; i < nSamples; i++ {
		for c := 0; c < bc.nClasses_; c++ {
			probas.Set(i, c, votes[i][c]/total)
		}
	}
	return probas, nil
}

// voteCounts tallies one vote per estimator per sample. Base estimators may
// have seen only a subset of the classes, so their labels are mapped back
// into the ensemble's class ordering.
func (bc *BaggingClassifier) voteCounts(X mat.Matrix, nSamples int) ([][]float64, error) {
	classIndex := make(map[int]int, bc.nClasses_)
	for i, c := range bc.classes_ {
		classIndex[c] = i
	}

	votes := make([][]float64, nSamples)
	for i := range votes {
		votes[i] = make([]float64, bc.nClasses_)
	}

	var mu sync.Mutex
	limit := bc.nJobs
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, est := range bc.estimators_ {
		est := est
		g.Go(func() error {
			pred, err := est.Predict(X)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for i := 0; i < nSamples; i++ {
				votes[i][classIndex[int(pred.At(i, 0))]]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return votes, nil
}

// Score returns the mean accuracy on the given test data and labels
func (bc *BaggingClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := bc.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns the unique class labels seen during fitting
func (bc *BaggingClassifier) Classes() []int {
	return bc.classes_
}

// Estimators returns the fitted base estimators
func (bc *BaggingClassifier) Estimators() []model.Classifier {
	return bc.estimators_
}

// GetParams returns the model hyperparameters
func (bc *BaggingClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators": bc.nEstimators,
		"max_samples":  bc.maxSamples,
		"oob_score":    bc.oobScore,
		"n_jobs":       bc.nJobs,
		"random_state": bc.randomState,
	}
}

// gatherRows copies the listed rows of X and y into new dense matrices.
// Indices may repeat, which is what a bootstrap draw produces.
func gatherRows(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, nFeatures := X.Dims()
	outX := mat.NewDense(len(indices), nFeatures, nil)
	outY := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < nFeatures; j++ {
			outX.Set(i, j, X.At(idx, j))
		}
		outY.Set(i, 0, y.At(idx, 0))
	}
	return outX, outY
}

// outOfBag returns the sample indices absent from the bootstrap draw.
func outOfBag(bag []int, nSamples int) []int {
	inBag := make([]bool, nSamples)
	for _, idx := range bag {
		inBag[idx] = true
	}
	var oob []int
	for i := 0; i < nSamples; i++ {
		if !inBag[i] {
			oob = append(oob, i)
		}
	}
	return oob
}
