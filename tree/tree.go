// Package tree implements a CART decision-tree classifier.
//
// The classifier supports gini and entropy split criteria, depth and
// minimum-sample constraints, and optional random feature subsampling per
// split, which is the hook random forests use for decorrelating trees.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/core/model"
	"github.com/YuminosukeSato/ensego/core/parallel"
	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// Rows below this count are predicted sequentially, the goroutine overhead
// dominates on small inputs.
const predictParallelThreshold = 512

var (
	_ model.Classifier      = (*DecisionTreeClassifier)(nil)
	_ model.ParameterGetter = (*DecisionTreeClassifier)(nil)
)

// DecisionTreeClassifier implements a CART classification tree
// Compatible with scikit-learn's DecisionTreeClassifier
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // Split quality: "gini", "entropy"
	maxDepth        int    // Maximum tree depth, -1 for unlimited
	minSamplesSplit int    // Minimum samples required to split a node
	minSamplesLeaf  int    // Minimum samples required at a leaf
	maxFeatures     int    // Features considered per split, 0 means all
	randomState     int64  // Random seed for feature subsampling

	// Fitted state
	root                *node
	classes_            []int
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
	nLeaves_            int
	depth_              int

	rng *rand.Rand
}

// node is a single tree node. Leaves carry the class distribution of the
// training samples that reached them.
type node struct {
	feature     int
	threshold   float64
	left, right *node
	classCounts []float64
	samples     int
	leaf        bool
}

// DecisionTreeOption is a functional option for DecisionTreeClassifier
type DecisionTreeOption func(*DecisionTreeClassifier)

// WithCriterion sets the split quality criterion ("gini" or "entropy")
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth sets the maximum depth of the tree
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required at a leaf
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures limits how many randomly chosen features are considered at
// each split. Zero or a value >= n_features considers all features.
func WithMaxFeatures(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithTreeRandomState sets the random seed for feature subsampling
func WithTreeRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// NewDecisionTreeClassifier creates a new DecisionTreeClassifier
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		randomState:     -1,
	}

	for _, opt := range opts {
		opt(dt)
	}

	if dt.randomState >= 0 {
		dt.rng = rand.New(rand.NewSource(dt.randomState))
	} else {
		dt.rng = rand.New(rand.NewSource(rand.Int63()))
	}

	return dt
}

// Fit grows the tree on the training data
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be \"gini\" or \"entropy\"", dt.criterion)
	}

	dt.extractClasses(y)
	dt.nFeatures_ = nFeatures
	dt.featureImportances_ = make([]float64, nFeatures)
	dt.nLeaves_ = 0
	dt.depth_ = 0

	// Class labels mapped to indices once so node bookkeeping is dense.
	classIndex := make(map[int]int, dt.nClasses_)
	for i, c := range dt.classes_ {
		classIndex[c] = i
	}
	labels := make([]int, nSamples)
	indices := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		labels[i] = classIndex[int(y.At(i, 0))]
		indices[i] = i
	}

	dt.root = dt.grow(X, labels, indices, 0)

	// Normalize accumulated impurity decreases into importances.
	var total float64
	for _, imp := range dt.featureImportances_ {
		total += imp
	}
	if total > 0 {
		for i := range dt.featureImportances_ {
			dt.featureImportances_[i] /= total
		}
	}

	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

// extractClasses identifies unique class labels
func (dt *DecisionTreeClassifier) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	dt.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		dt.classes_ = append(dt.classes_, class)
	}
	sort.Ints(dt.classes_)
	dt.nClasses_ = len(dt.classes_)
}

// grow recursively builds the tree for the samples at the given indices.
func (dt *DecisionTreeClassifier) grow(X mat.Matrix, labels []int, indices []int, depth int) *node {
	counts := make([]float64, dt.nClasses_)
	for _, idx := range indices {
		counts[labels[idx]]++
	}

	n := &node{classCounts: counts, samples: len(indices)}

	if depth > dt.depth_ {
		dt.depth_ = depth
	}

	if dt.isPure(counts) ||
		len(indices) < dt.minSamplesSplit ||
		(dt.maxDepth >= 0 && depth >= dt.maxDepth) {
		n.leaf = true
		dt.nLeaves_++
		return n
	}

	feature, threshold, decrease, ok := dt.bestSplit(X, labels, indices, counts)
	if !ok {
		n.leaf = true
		dt.nLeaves_++
		return n
	}

	var leftIdx, rightIdx []int
	for _, idx := range indices {
		if X.At(idx, feature) <= threshold {
			leftIdx = append(leftIdx, idx)
		} else {
			rightIdx = append(rightIdx, idx)
		}
	}

	n.feature = feature
	n.threshold = threshold
	dt.featureImportances_[feature] += decrease * float64(len(indices))
	n.left = dt.grow(X, labels, leftIdx, depth+1)
	n.right = dt.grow(X, labels, rightIdx, depth+1)
	return n
}

// isPure reports whether all samples belong to one class.
func (dt *DecisionTreeClassifier) isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// bestSplit searches candidate features for the threshold with the largest
// impurity decrease. Candidates are midpoints between distinct consecutive
// feature values.
func (dt *DecisionTreeClassifier) bestSplit(X mat.Matrix, labels []int, indices []int, parentCounts []float64) (feature int, threshold, decrease float64, ok bool) {
	nTotal := float64(len(indices))
	parentImpurity := dt.impurity(parentCounts, nTotal)

	features := dt.candidateFeatures()
	bestDecrease := 0.0

	type valueLabel struct {
		value float64
		label int
	}
	sorted := make([]valueLabel, len(indices))

	for _, f := range features {
		for i, idx := range indices {
			sorted[i] = valueLabel{value: X.At(idx, f), label: labels[idx]}
		}
		sort.Slice(sorted, func(a, b int) bool { return sorted[a].value < sorted[b].value })

		leftCounts := make([]float64, dt.nClasses_)
		rightCounts := make([]float64, dt.nClasses_)
		copy(rightCounts, parentCounts)

		for i := 0; i < len(sorted)-1; i++ {
			leftCounts[sorted[i].label]++
			rightCounts[sorted[i].label]--

			if sorted[i].value == sorted[i+1].value {
				continue
			}
			nLeft := i + 1
			nRight := len(sorted) - nLeft
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			d := parentImpurity -
				(float64(nLeft)/nTotal)*dt.impurity(leftCounts, float64(nLeft)) -
				(float64(nRight)/nTotal)*dt.impurity(rightCounts, float64(nRight))
			if d > bestDecrease {
				bestDecrease = d
				feature = f
				threshold = (sorted[i].value + sorted[i+1].value) / 2
				ok = true
			}
		}
	}

	return feature, threshold, bestDecrease, ok
}

// candidateFeatures returns the features to consider at a split, randomly
// subsampled when maxFeatures is set.
func (dt *DecisionTreeClassifier) candidateFeatures() []int {
	if dt.maxFeatures <= 0 || dt.maxFeatures >= dt.nFeatures_ {
		features := make([]int, dt.nFeatures_)
		for i := range features {
			features[i] = i
		}
		return features
	}
	perm := dt.rng.Perm(dt.nFeatures_)
	return perm[:dt.maxFeatures]
}

// impurity computes the configured impurity of a class count vector.
func (dt *DecisionTreeClassifier) impurity(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	if dt.criterion == "entropy" {
		var h float64
		for _, c := range counts {
			if c > 0 {
				p := c / total
				h -= p * math.Log2(p)
			}
		}
		return h
	}
	// gini
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

// Predict returns the predicted class label for each row of X
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.Predict", dt.nFeatures_, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	parallel.ParallelizeWithThreshold(nSamples, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			leaf := dt.traverse(X, i)
			best := 0
			for c := 1; c < dt.nClasses_; c++ {
				if leaf.classCounts[c] > leaf.classCounts[best] {
					best = c
				}
			}
			predictions.Set(i, 0, float64(dt.classes_[best]))
		}
	})
	return predictions, nil
}

// PredictProba returns the class distribution of the leaf each row falls into
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures_, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, dt.nClasses_, nil)
	parallel.ParallelizeWithThreshold(nSamples, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			leaf := dt.traverse(X, i)
			for c := 0; c < dt.nClasses_; c++ {
				probas.Set(i, c, leaf.classCounts[c]/float64(leaf.samples))
			}
		}
	})
	return probas, nil
}

// traverse walks row i of X down to its leaf.
func (dt *DecisionTreeClassifier) traverse(X mat.Matrix, i int) *node {
	n := dt.root
	for !n.leaf {
		if X.At(i, n.feature) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

// Score returns the mean accuracy on the given test data and labels
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := dt.Predict(X)
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
func (dt *DecisionTreeClassifier) Classes() []int {
	return dt.classes_
}

// GetFeatureImportances returns the normalized impurity-decrease importances
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return dt.featureImportances_
}

// GetDepth returns the depth of the fitted tree
func (dt *DecisionTreeClassifier) GetDepth() int {
	return dt.depth_
}

// GetNLeaves returns the number of leaves in the fitted tree
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	return dt.nLeaves_
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets the model hyperparameters
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			dt.criterion = value.(string)
		case "max_depth":
			dt.maxDepth = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf = value.(int)
		case "max_features":
			dt.maxFeatures = value.(int)
		case "random_state":
			dt.randomState = value.(int64)
			if dt.randomState >= 0 {
				dt.rng = rand.New(rand.NewSource(dt.randomState))
			}
		default:
			return errors.Newf("unknown parameter: %s", key)
		}
	}
	return nil
}
