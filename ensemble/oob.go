package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// OOBScore returns the out-of-bag accuracy estimate of the full ensemble.
// Each training sample is scored only by the estimators whose bootstrap draw
// excluded it, which makes the estimate a proxy for held-out accuracy.
func (bc *BaggingClassifier) OOBScore() (float64, error) {
	if !bc.state.IsFitted() {
		return 0, errors.NewNotFittedError("BaggingClassifier", "OOBScore")
	}
	if !bc.oobScore {
		return 0, errors.NewValueError("BaggingClassifier.OOBScore", "fitted with oob_score disabled")
	}
	correct, covered, err := bc.oobTally(len(bc.estimators_))
	if err != nil {
		return 0, err
	}

	nSamples := len(bc.yIndices_)
	if covered < nSamples {
		errors.Warn(errors.NewOOBCoverageWarning(nSamples, nSamples-covered, len(bc.estimators_)))
	}
	return float64(correct) / float64(covered), nil
}

// OOBError returns 1 minus the out-of-bag accuracy
func (bc *BaggingClassifier) OOBError() (float64, error) {
	score, err := bc.OOBScore()
	if err != nil {
		return 0, err
	}
	return 1 - score, nil
}

// OOBCurve evaluates the out-of-bag error restricted to the first k
// estimators, for every k in sizes. Sizes must be positive, strictly
// increasing, and at most the fitted ensemble size. Fitting once and
// replaying prefixes is equivalent to refitting at each size because the
// bootstrap draws are independent of the ensemble size.
func (bc *BaggingClassifier) OOBCurve(sizes []int) ([]float64, error) {
	if !bc.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingClassifier", "OOBCurve")
	}
	if !bc.oobScore {
		return nil, errors.NewValueError("BaggingClassifier.OOBCurve", "fitted with oob_score disabled")
	}
	if len(sizes) == 0 {
		return nil, errors.NewValueError("BaggingClassifier.OOBCurve", "sizes must not be empty")
	}
	prev := 0
	for _, k := range sizes {
		if k <= prev {
			return nil, errors.NewValidationError("sizes", "must be strictly increasing and positive", sizes)
		}
		if k > len(bc.estimators_) {
			return nil, errors.NewValidationError("sizes", "exceeds the fitted ensemble size", k)
		}
		prev = k
	}

	nSamples := len(bc.yIndices_)
	votes := make([][]int, nSamples)
	for i := range votes {
		votes[i] = make([]int, bc.nClasses_)
	}

	curve := make([]float64, len(sizes))
	next := 0
	for e := 0; e < sizes[len(sizes)-1]; e++ {
		for i, idx := range bc.oobIndices_[e] {
			votes[idx][bc.oobPredictions_[e][i]]++
		}
		if e+1 == sizes[next] {
			correct, covered := tallyVotes(votes, bc.yIndices_)
			if covered == 0 {
				return nil, errors.Wrapf(errors.ErrNoOOBSamples, "ensemble size %d", e+1)
			}
			curve[next] = 1 - float64(correct)/float64(covered)
			next++
		}
	}
	return curve, nil
}

// oobTally counts correct OOB predictions over the first k estimators.
func (bc *BaggingClassifier) oobTally(k int) (correct, covered int, err error) {
	nSamples := len(bc.yIndices_)
	votes := make([][]int, nSamples)
	for i := range votes {
		votes[i] = make([]int, bc.nClasses_)
	}
	for e := 0; e < k; e++ {
		for i, idx := range bc.oobIndices_[e] {
			votes[idx][bc.oobPredictions_[e][i]]++
		}
	}
	correct, covered = tallyVotes(votes, bc.yIndices_)
	if covered == 0 {
		return 0, 0, errors.WithStack(errors.ErrNoOOBSamples)
	}
	return correct, covered, nil
}

// tallyVotes resolves majority votes against the true labels. Samples with
// no votes are excluded; ties go to the lower class index, matching how the
// ensemble breaks ties at predict time.
func tallyVotes(votes [][]int, yIndices []int) (correct, covered int) {
	for i, v := range votes {
		total := 0
		best := 0
		for c, n := range v {
			total += n
			if n > v[best] {
				best = c
			}
		}
		if total == 0 {
			continue
		}
		covered++
		if best == yIndices[i] {
			correct++
		}
	}
	return correct, covered
}

// OOBDecisionFunction returns the per-class OOB vote fractions for every
// training sample. Rows of uncovered samples are all zero.
func (bc *BaggingClassifier) OOBDecisionFunction() (mat.Matrix, error) {
	if !bc.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingClassifier", "OOBDecisionFunction")
	}
	if !bc.oobScore {
		return nil, errors.NewValueError("BaggingClassifier.OOBDecisionFunction", "fitted with oob_score disabled")
	}

	nSamples := len(bc.yIndices_)
	votes := make([][]int, nSamples)
	for i := range votes {
		votes[i] = make([]int, bc.nClasses_)
	}
	for e := range bc.estimators_ {
		for i, idx := range bc.oobIndices_[e] {
			votes[idx][bc.oobPredictions_[e][i]]++
		}
	}

	decision := mat.NewDense(nSamples, bc.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		total := 0
		for _, n := range votes[i] {
			total += n
		}
		if total == 0 {
			continue
		}
		for c := 0; c < bc.nClasses_; c++ {
			decision.Set(i, c, float64(votes[i][c])/float64(total))
		}
	}
	return decision, nil
}
