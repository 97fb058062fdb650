// Package linear implements linear classification models.
package linear

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/core/model"
	"github.com/YuminosukeSato/ensego/pkg/errors"
)

var (
	_ model.Classifier      = (*LogisticRegression)(nil)
	_ model.ParameterGetter = (*LogisticRegression)(nil)
)

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // Regularization type: "l2" or "none"
	c            float64 // Inverse of regularization strength
	fitIntercept bool    // Whether to fit the intercept term
	maxIter      int     // Maximum number of iterations
	tol          float64 // Tolerance for stopping criteria
	learningRate float64 // Base learning rate for gradient descent

	// Fitted parameters
	coef_      *mat.Dense // Coefficients, one row per class for multiclass
	intercept_ []float64  // Intercept terms
	classes_   []int      // Unique class labels
	nClasses_  int        // Number of classes
	nFeatures_ int        // Number of features
	nIter_     int        // Actual iterations run
}

// LogisticOption is a functional option for LogisticRegression
type LogisticOption func(*LogisticRegression)

// WithPenalty sets the regularization type ("l2" or "none")
func WithPenalty(penalty string) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithC sets the inverse regularization strength (smaller is stronger)
func WithC(c float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithFitIntercept sets whether to fit an intercept term
func WithFitIntercept(fit bool) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithMaxIter sets the maximum number of gradient descent iterations
func WithMaxIter(maxIter int) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithTol sets the tolerance for the stopping criterion
func WithTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLearningRate sets the base learning rate
func WithLearningRate(rate float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = rate
	}
}

// NewLogisticRegression creates a new LogisticRegression model
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		c:            1.0,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
		learningRate: 1.0,
	}

	for _, opt := range opts {
		opt(lr)
	}

	return lr
}

// Fit trains the model with gradient descent. Multiclass problems are
// handled one-vs-rest.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewValidationError("penalty", "must be \"l2\" or \"none\"", lr.penalty)
	}
	if lr.c <= 0 {
		return errors.NewValidationError("C", "must be > 0", lr.c)
	}

	lr.extractClasses(y)
	if lr.nClasses_ < 2 {
		return errors.NewModelError("LogisticRegression.Fit", "invalid input", errors.ErrSingleClass)
	}
	lr.nFeatures_ = nFeatures

	if lr.nClasses_ == 2 {
		if err := lr.fitBinary(X, y); err != nil {
			return err
		}
	} else {
		if err := lr.fitOneVsRest(X, y); err != nil {
			return err
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}
	sort.Ints(lr.classes_)
	lr.nClasses_ = len(lr.classes_)
}

// fitBinary trains a single weight vector for two classes.
func (lr *LogisticRegression) fitBinary(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()

	// Labels mapped to {0, 1} by class order.
	target := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == lr.classes_[1] {
			target[i] = 1
		}
	}

	weights, intercept, nIter, converged := lr.gradientDescent(X, target)
	lr.coef_ = mat.NewDense(1, nFeatures, weights)
	lr.intercept_ = []float64{intercept}
	lr.nIter_ = nIter

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			"gradient descent did not converge, consider increasing max_iter"))
	}
	return nil
}

// fitOneVsRest trains one binary classifier per class.
func (lr *LogisticRegression) fitOneVsRest(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()

	lr.coef_ = mat.NewDense(lr.nClasses_, nFeatures, nil)
	lr.intercept_ = make([]float64, lr.nClasses_)
	lr.nIter_ = 0
	allConverged := true

	for k, class := range lr.classes_ {
		target := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == class {
				target[i] = 1
			}
		}

		weights, intercept, nIter, converged := lr.gradientDescent(X, target)
		lr.coef_.SetRow(k, weights)
		lr.intercept_[k] = intercept
		if nIter > lr.nIter_ {
			lr.nIter_ = nIter
		}
		allConverged = allConverged && converged
	}

	if !allConverged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			"one-vs-rest gradient descent did not converge for all classes"))
	}
	return nil
}

// gradientDescent minimizes the regularized log loss for binary targets.
// The learning rate decays as base / (1 + 0.1*iter).
func (lr *LogisticRegression) gradientDescent(X mat.Matrix, target []float64) (weights []float64, intercept float64, nIter int, converged bool) {
	nSamples, nFeatures := X.Dims()
	weights = make([]float64, nFeatures)

	lambda := 0.0
	if lr.penalty == "l2" {
		lambda = 1.0 / lr.c
	}

	gradW := make([]float64, nFeatures)
	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i := 0; i < nSamples; i++ {
			z := intercept
			for j := 0; j < nFeatures; j++ {
				z += weights[j] * X.At(i, j)
			}
			residual := sigmoid(z) - target[i]
			for j := 0; j < nFeatures; j++ {
				gradW[j] += residual * X.At(i, j)
			}
			gradB += residual
		}

		maxGrad := 0.0
		n := float64(nSamples)
		for j := 0; j < nFeatures; j++ {
			gradW[j] = gradW[j]/n + lambda*weights[j]/n
			if g := math.Abs(gradW[j]); g > maxGrad {
				maxGrad = g
			}
		}
		gradB /= n
		if lr.fitIntercept {
			if g := math.Abs(gradB); g > maxGrad {
				maxGrad = g
			}
		}

		rate := lr.learningRate / (1.0 + 0.1*float64(iter))
		for j := 0; j < nFeatures; j++ {
			weights[j] -= rate * gradW[j]
		}
		if lr.fitIntercept {
			intercept -= rate * gradB
		}

		nIter = iter + 1
		if maxGrad < lr.tol {
			return weights, intercept, nIter, true
		}
	}
	return weights, intercept, nIter, false
}

// sigmoid computes the logistic function with overflow protection
func sigmoid(z float64) float64 {
	if z > 500 {
		return 1
	}
	if z < -500 {
		return 0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// decisionScores returns the raw linear scores, one column per class for
// multiclass and a single column for binary.
func (lr *LogisticRegression) decisionScores(X mat.Matrix) *mat.Dense {
	nSamples, _ := X.Dims()
	rows, _ := lr.coef_.Dims()

	scores := mat.NewDense(nSamples, rows, nil)
	for i := 0; i < nSamples; i++ {
		for k := 0; k < rows; k++ {
			z := lr.intercept_[k]
			for j := 0; j < lr.nFeatures_; j++ {
				z += lr.coef_.At(k, j) * X.At(i, j)
			}
			scores.Set(i, k, z)
		}
	}
	return scores
}

// Predict returns the predicted class label for each row of X
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.Predict", lr.nFeatures_, nFeatures, 1)
	}

	scores := lr.decisionScores(X)
	predictions := mat.NewDense(nSamples, 1, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			if scores.At(i, 0) >= 0 {
				predictions.Set(i, 0, float64(lr.classes_[1]))
			} else {
				predictions.Set(i, 0, float64(lr.classes_[0]))
			}
		}
		return predictions, nil
	}

	for i := 0; i < nSamples; i++ {
		best := 0
		for k := 1; k < lr.nClasses_; k++ {
			if scores.At(i, k) > scores.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns class probability estimates. Binary problems use the
// sigmoid directly; one-vs-rest scores are passed through a softmax.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures_, nFeatures, 1)
	}

	scores := lr.decisionScores(X)
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
		return probas, nil
	}

	for i := 0; i < nSamples; i++ {
		maxScore := scores.At(i, 0)
		for k := 1; k < lr.nClasses_; k++ {
			if s := scores.At(i, k); s > maxScore {
				maxScore = s
			}
		}
		sum := 0.0
		for k := 0; k < lr.nClasses_; k++ {
			e := math.Exp(scores.At(i, k) - maxScore)
			probas.Set(i, k, e)
			sum += e
		}
		for k := 0; k < lr.nClasses_; k++ {
			probas.Set(i, k, probas.At(i, k)/sum)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
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
func (lr *LogisticRegression) Classes() []int {
	return lr.classes_
}

// Coef returns the fitted coefficient matrix
func (lr *LogisticRegression) Coef() *mat.Dense {
	return lr.coef_
}

// Intercept returns the fitted intercept terms
func (lr *LogisticRegression) Intercept() []float64 {
	return lr.intercept_
}

// NIter returns how many gradient descent iterations Fit actually ran
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"learning_rate": lr.learningRate,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "penalty":
			lr.penalty = value.(string)
		case "C":
			lr.c = value.(float64)
		case "fit_intercept":
			lr.fitIntercept = value.(bool)
		case "max_iter":
			lr.maxIter = value.(int)
		case "tol":
			lr.tol = value.(float64)
		case "learning_rate":
			lr.learningRate = value.(float64)
		default:
			return errors.Newf("unknown parameter: %s", key)
		}
	}
	return nil
}
