// Package model provides the shared estimator interfaces and state management
// used by every classifier in the library.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the mean accuracy of the prediction for classifiers.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Classifier combines the interfaces every classification model implements.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique classes seen during fitting.
	Classes() []int
}

// OOBScorer is the interface for ensemble models that track an out-of-bag
// estimate during fitting.
type OOBScorer interface {
	// OOBScore returns the accuracy estimated on out-of-bag samples.
	OOBScore() (float64, error)

	// OOBError returns 1 - OOBScore.
	OOBError() (float64, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save saves the model to a file.
	Save(path string) error

	// Load loads the model from a file.
	Load(path string) error
}
