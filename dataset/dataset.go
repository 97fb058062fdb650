// Package dataset provides tabular data loading, synthetic data generation,
// train/test splitting and class-imbalance resampling.
//
// All functions produce gonum matrices in the shape the estimators expect:
// an n×d feature matrix and an n×1 label column. Labels are class identifiers
// stored as float64 but must be integer-valued.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// Dataset bundles a feature matrix with its label column.
type Dataset struct {
	// X is the n×d feature matrix.
	X *mat.Dense

	// Y is the n×1 label column.
	Y *mat.Dense

	// FeatureNames holds the column names from the CSV header, if any.
	FeatureNames []string
}

// Dims returns the number of samples and features.
func (d *Dataset) Dims() (nSamples, nFeatures int) {
	if d.X == nil {
		return 0, 0
	}
	return d.X.Dims()
}

// Validate checks the well-formedness invariant: X and Y are non-empty and
// the label column length equals the number of rows in X.
func (d *Dataset) Validate() error {
	if d.X == nil || d.Y == nil {
		return errors.NewModelError("Dataset.Validate", "missing data", errors.ErrEmptyData)
	}
	n, c := d.X.Dims()
	if n == 0 || c == 0 {
		return errors.NewModelError("Dataset.Validate", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := d.Y.Dims()
	if yCols != 1 {
		return errors.NewValueError("Dataset.Validate", "y must be a column vector")
	}
	if yRows != n {
		return errors.NewDimensionError("Dataset.Validate", n, yRows, 0)
	}
	return nil
}

// ClassCounts returns the number of samples per class label.
func (d *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	if d.Y == nil {
		return counts
	}
	rows, _ := d.Y.Dims()
	for i := 0; i < rows; i++ {
		counts[int(d.Y.At(i, 0))]++
	}
	return counts
}

// Classes returns the sorted distinct class labels.
func (d *Dataset) Classes() []int {
	counts := d.ClassCounts()
	classes := make([]int, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	// Insertion sort, the label sets here are tiny
	for i := 1; i < len(classes); i++ {
		for j := i; j > 0 && classes[j-1] > classes[j]; j-- {
			classes[j-1], classes[j] = classes[j], classes[j-1]
		}
	}
	return classes
}

// Subset returns a new Dataset containing the rows at the given indices.
// Indices may repeat, which is how bootstrap resampling uses it.
func (d *Dataset) Subset(indices []int) *Dataset {
	if len(indices) == 0 {
		return &Dataset{FeatureNames: d.FeatureNames}
	}
	_, nFeatures := d.X.Dims()
	X := mat.NewDense(len(indices), nFeatures, nil)
	Y := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < nFeatures; j++ {
			X.Set(i, j, d.X.At(idx, j))
		}
		Y.Set(i, 0, d.Y.At(idx, 0))
	}
	return &Dataset{X: X, Y: Y, FeatureNames: d.FeatureNames}
}
