// Package svm implements linear support vector classification.
package svm

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/core/model"
	"github.com/YuminosukeSato/ensego/pkg/errors"
)

var (
	_ model.Classifier      = (*LinearSVC)(nil)
	_ model.ParameterGetter = (*LinearSVC)(nil)
)

// LinearSVC is a linear support vector classifier trained with stochastic
// subgradient descent on the hinge loss
// Compatible with scikit-learn's LinearSVC
type LinearSVC struct {
	state *model.StateManager

	// Hyperparameters
	c           float64 // Inverse of regularization strength
	maxIter     int     // Maximum number of epochs
	tol         float64 // Weight-change tolerance per epoch
	classWeight string  // "balanced" or "" for uniform
	randomState int64   // Seed for the sample visiting order

	// Fitted parameters
	coef_      *mat.Dense
	intercept_ []float64
	classes_   []int
	nClasses_  int
	nFeatures_ int
	nIter_     int
}

// SVCOption is a functional option for LinearSVC
type SVCOption func(*LinearSVC)

// WithSVCC sets the inverse regularization strength
func WithSVCC(c float64) SVCOption {
	return func(s *LinearSVC) {
		s.c = c
	}
}

// WithSVCMaxIter sets the maximum number of training epochs
func WithSVCMaxIter(maxIter int) SVCOption {
	return func(s *LinearSVC) {
		s.maxIter = maxIter
	}
}

// WithSVCTol sets the per-epoch weight-change tolerance
func WithSVCTol(tol float64) SVCOption {
	return func(s *LinearSVC) {
		s.tol = tol
	}
}

// WithClassWeight sets the class weighting scheme. "balanced" reweights
// samples inversely proportional to class frequency.
func WithClassWeight(scheme string) SVCOption {
	return func(s *LinearSVC) {
		s.classWeight = scheme
	}
}

// WithSVCRandomState sets the random seed for the sample visiting order
func WithSVCRandomState(seed int64) SVCOption {
	return func(s *LinearSVC) {
		s.randomState = seed
	}
}

// NewLinearSVC creates a new LinearSVC
func NewLinearSVC(opts ...SVCOption) *LinearSVC {
	s := &LinearSVC{
		state:       model.NewStateManager(),
		c:           1.0,
		maxIter:     1000,
		tol:         1e-4,
		classWeight: "",
		randomState: -1,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fit trains the classifier. Multiclass problems are handled one-vs-rest.
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LinearSVC.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewValueError("LinearSVC.Fit", "y must be a column vector")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LinearSVC.Fit", nSamples, yRows, 0)
	}
	if s.c <= 0 {
		return errors.NewValidationError("C", "must be > 0", s.c)
	}
	if s.classWeight != "" && s.classWeight != "balanced" {
		return errors.NewValidationError("class_weight", "must be \"balanced\" or empty", s.classWeight)
	}

	s.extractClasses(y)
	if s.nClasses_ < 2 {
		return errors.NewModelError("LinearSVC.Fit", "invalid input", errors.ErrSingleClass)
	}
	s.nFeatures_ = nFeatures

	weights := s.sampleWeights(y, nSamples)

	var rng *rand.Rand
	if s.randomState >= 0 {
		rng = rand.New(rand.NewSource(s.randomState))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	nModels := s.nClasses_
	if s.nClasses_ == 2 {
		nModels = 1
	}
	s.coef_ = mat.NewDense(nModels, nFeatures, nil)
	s.intercept_ = make([]float64, nModels)
	s.nIter_ = 0
	allConverged := true

	for k := 0; k < nModels; k++ {
		positive := s.classes_[1]
		if s.nClasses_ > 2 {
			positive = s.classes_[k]
		}

		target := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == positive {
				target[i] = 1
			} else {
				target[i] = -1
			}
		}

		w, b, nIter, converged := s.pegasos(X, target, weights, rng)
		s.coef_.SetRow(k, w)
		s.intercept_[k] = b
		if nIter > s.nIter_ {
			s.nIter_ = nIter
		}
		allConverged = allConverged && converged
	}

	if !allConverged {
		errors.Warn(errors.NewConvergenceWarning("LinearSVC", s.maxIter,
			"subgradient descent did not converge, consider increasing max_iter"))
	}

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

// extractClasses identifies unique class labels
func (s *LinearSVC) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	s.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		s.classes_ = append(s.classes_, class)
	}
	sort.Ints(s.classes_)
	s.nClasses_ = len(s.classes_)
}

// sampleWeights resolves the class weighting scheme into per-sample weights.
func (s *LinearSVC) sampleWeights(y mat.Matrix, nSamples int) []float64 {
	weights := make([]float64, nSamples)
	for i := range weights {
		weights[i] = 1
	}
	if s.classWeight != "balanced" {
		return weights
	}

	counts := make(map[int]int, s.nClasses_)
	for i := 0; i < nSamples; i++ {
		counts[int(y.At(i, 0))]++
	}
	for i := 0; i < nSamples; i++ {
		c := int(y.At(i, 0))
		weights[i] = float64(nSamples) / (float64(s.nClasses_) * float64(counts[c]))
	}
	return weights
}

// pegasos runs stochastic subgradient descent on the hinge loss. One epoch
// visits every sample once in random order; the step size decays as
// 1 / (lambda * t).
func (s *LinearSVC) pegasos(X mat.Matrix, target, weights []float64, rng *rand.Rand) (w []float64, b float64, nIter int, converged bool) {
	nSamples, nFeatures := X.Dims()
	w = make([]float64, nFeatures)
	prev := make([]float64, nFeatures)

	lambda := 1.0 / (s.c * float64(nSamples))
	t := 1

	for epoch := 0; epoch < s.maxIter; epoch++ {
		copy(prev, w)

		for _, i := range rng.Perm(nSamples) {
			eta := 1.0 / (lambda * float64(t))
			t++

			margin := b
			for j := 0; j < nFeatures; j++ {
				margin += w[j] * X.At(i, j)
			}
			margin *= target[i]

			shrink := 1 - eta*lambda
			for j := 0; j < nFeatures; j++ {
				w[j] *= shrink
			}
			if margin < 1 {
				step := eta * weights[i] * target[i]
				for j := 0; j < nFeatures; j++ {
					w[j] += step * X.At(i, j)
				}
				b += step
			}
		}

		nIter = epoch + 1
		delta := 0.0
		for j := 0; j < nFeatures; j++ {
			delta += math.Abs(w[j] - prev[j])
		}
		if delta < s.tol {
			return w, b, nIter, true
		}
	}
	return w, b, nIter, false
}

// DecisionFunction returns the signed distances to the separating
// hyperplanes, one column per one-vs-rest model
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearSVC", "DecisionFunction")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != s.nFeatures_ {
		return nil, errors.NewDimensionError("LinearSVC.DecisionFunction", s.nFeatures_, nFeatures, 1)
	}

	rows, _ := s.coef_.Dims()
	scores := mat.NewDense(nSamples, rows, nil)
	for i := 0; i < nSamples; i++ {
		for k := 0; k < rows; k++ {
			z := s.intercept_[k]
			for j := 0; j < nFeatures; j++ {
				z += s.coef_.At(k, j) * X.At(i, j)
			}
			scores.Set(i, k, z)
		}
	}
	return scores, nil
}

// Predict returns the predicted class label for each row of X
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	if s.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			if scores.At(i, 0) >= 0 {
				predictions.Set(i, 0, float64(s.classes_[1]))
			} else {
				predictions.Set(i, 0, float64(s.classes_[0]))
			}
		}
		return predictions, nil
	}

	for i := 0; i < nSamples; i++ {
		best := 0
		for k := 1; k < s.nClasses_; k++ {
			if scores.At(i, k) > scores.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(s.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns probability-like scores obtained by squashing the
// decision values through a sigmoid. These are not calibrated probabilities
// but preserve the ranking of the decision function.
func (s *LinearSVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, s.nClasses_, nil)

	if s.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			p := 1.0 / (1.0 + math.Exp(-scores.At(i, 0)))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
		return probas, nil
	}

	for i := 0; i < nSamples; i++ {
		sum := 0.0
		for k := 0; k < s.nClasses_; k++ {
			p := 1.0 / (1.0 + math.Exp(-scores.At(i, k)))
			probas.Set(i, k, p)
			sum += p
		}
		for k := 0; k < s.nClasses_; k++ {
			probas.Set(i, k, probas.At(i, k)/sum)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := s.Predict(X)
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
func (s *LinearSVC) Classes() []int {
	return s.classes_
}

// Coef returns the fitted coefficient matrix
func (s *LinearSVC) Coef() *mat.Dense {
	return s.coef_
}

// Intercept returns the fitted intercept terms
func (s *LinearSVC) Intercept() []float64 {
	return s.intercept_
}

// GetParams returns the model hyperparameters
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":            s.c,
		"max_iter":     s.maxIter,
		"tol":          s.tol,
		"class_weight": s.classWeight,
		"random_state": s.randomState,
	}
}
