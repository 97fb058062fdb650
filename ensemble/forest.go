package ensemble

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/core/model"
	"github.com/YuminosukeSato/ensego/pkg/errors"
	"github.com/YuminosukeSato/ensego/tree"
)

// RandomForestClassifier is a bagging ensemble of decision trees with random
// feature subsampling at each split
// Compatible with scikit-learn's RandomForestClassifier
type RandomForestClassifier struct {
	bagging *BaggingClassifier

	nEstimators     int
	criterion       string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "sqrt", "log2", or "all"
	oobScore        bool
	nJobs           int
	randomState     int64
}

var (
	_ model.Classifier      = (*RandomForestClassifier)(nil)
	_ model.OOBScorer       = (*RandomForestClassifier)(nil)
	_ model.ParameterGetter = (*RandomForestClassifier)(nil)
)

// ForestOption is a functional option for RandomForestClassifier
type ForestOption func(*RandomForestClassifier)

// WithTrees sets the number of trees in the forest
func WithTrees(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

// WithForestCriterion sets the split criterion used by every tree
func WithForestCriterion(criterion string) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.criterion = criterion
	}
}

// WithForestMaxDepth sets the maximum depth of each tree
func WithForestMaxDepth(depth int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

// WithForestMinSamplesSplit sets the minimum samples required to split a node
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesSplit = n
	}
}

// WithForestMinSamplesLeaf sets the minimum samples required at a leaf
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesLeaf = n
	}
}

// WithForestMaxFeatures sets the per-split feature subsampling strategy:
// "sqrt", "log2", or "all"
func WithForestMaxFeatures(strategy string) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxFeatures = strategy
	}
}

// WithForestOOBScore enables out-of-bag bookkeeping during Fit
func WithForestOOBScore(enabled bool) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.oobScore = enabled
	}
}

// WithForestNJobs sets the number of trees fitted concurrently
func WithForestNJobs(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nJobs = n
	}
}

// WithForestRandomState sets the random seed
func WithForestRandomState(seed int64) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.randomState = seed
	}
}

// NewRandomForestClassifier creates a new RandomForestClassifier
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		nEstimators:     100,
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "sqrt",
		oobScore:        false,
		nJobs:           0,
		randomState:     -1,
	}

	for _, opt := range opts {
		opt(rf)
	}

	return rf
}

// Fit trains the forest on the training data
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	_, nFeatures := X.Dims()

	k, err := rf.featuresPerSplit(nFeatures)
	if err != nil {
		return err
	}

	rf.bagging = NewBaggingClassifier(
		WithBaseEstimator(func(seed int64) model.Classifier {
			return tree.NewDecisionTreeClassifier(
				tree.WithCriterion(rf.criterion),
				tree.WithMaxDepth(rf.maxDepth),
				tree.WithMinSamplesSplit(rf.minSamplesSplit),
				tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
				tree.WithMaxFeatures(k),
				tree.WithTreeRandomState(seed),
			)
		}),
		WithNEstimators(rf.nEstimators),
		WithOOBScore(rf.oobScore),
		WithNJobs(rf.nJobs),
		WithRandomState(rf.randomState),
	)
	return rf.bagging.Fit(X, y)
}

// featuresPerSplit resolves the subsampling strategy to a feature count.
func (rf *RandomForestClassifier) featuresPerSplit(nFeatures int) (int, error) {
	switch rf.maxFeatures {
	case "sqrt":
		return int(math.Ceil(math.Sqrt(float64(nFeatures)))), nil
	case "log2":
		k := int(math.Ceil(math.Log2(float64(nFeatures))))
		if k < 1 {
			k = 1
		}
		return k, nil
	case "all":
		return nFeatures, nil
	default:
		return 0, errors.NewValidationError("max_features", "must be \"sqrt\", \"log2\" or \"all\"", rf.maxFeatures)
	}
}

// Predict returns the majority-vote class label for each row of X
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if rf.bagging == nil {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "Predict")
	}
	return rf.bagging.Predict(X)
}

// PredictProba returns the fraction of trees voting for each class
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if rf.bagging == nil {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}
	return rf.bagging.PredictProba(X)
}

// Score returns the mean accuracy on the given test data and labels
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	if rf.bagging == nil {
		return 0, errors.NewNotFittedError("RandomForestClassifier", "Score")
	}
	return rf.bagging.Score(X, y)
}

// Classes returns the unique class labels seen during fitting
func (rf *RandomForestClassifier) Classes() []int {
	if rf.bagging == nil {
		return nil
	}
	return rf.bagging.Classes()
}

// OOBScore returns the out-of-bag accuracy estimate
func (rf *RandomForestClassifier) OOBScore() (float64, error) {
	if rf.bagging == nil {
		return 0, errors.NewNotFittedError("RandomForestClassifier", "OOBScore")
	}
	return rf.bagging.OOBScore()
}

// OOBError returns 1 minus the out-of-bag accuracy
func (rf *RandomForestClassifier) OOBError() (float64, error) {
	if rf.bagging == nil {
		return 0, errors.NewNotFittedError("RandomForestClassifier", "OOBError")
	}
	return rf.bagging.OOBError()
}

// OOBCurve evaluates the out-of-bag error over growing prefixes of the forest
func (rf *RandomForestClassifier) OOBCurve(sizes []int) ([]float64, error) {
	if rf.bagging == nil {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "OOBCurve")
	}
	return rf.bagging.OOBCurve(sizes)
}

// FeatureImportances returns the mean normalized impurity-decrease
// importances across all trees
func (rf *RandomForestClassifier) FeatureImportances() ([]float64, error) {
	if rf.bagging == nil {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "FeatureImportances")
	}

	var importances []float64
	for _, est := range rf.bagging.Estimators() {
		dt, ok := est.(*tree.DecisionTreeClassifier)
		if !ok {
			return nil, errors.New("base estimator is not a decision tree")
		}
		imp := dt.GetFeatureImportances()
		if importances == nil {
			importances = make([]float64, len(imp))
		}
		for i, v := range imp {
			importances[i] += v
		}
	}
	n := float64(rf.nEstimators)
	for i := range importances {
		importances[i] /= n
	}
	return importances, nil
}

// GetParams returns the model hyperparameters
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"criterion":         rf.criterion,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"max_features":      rf.maxFeatures,
		"oob_score":         rf.oobScore,
		"n_jobs":            rf.nJobs,
		"random_state":      rf.randomState,
	}
}
