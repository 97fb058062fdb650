package dataset

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// imbalanced returns 10 majority and 3 minority samples.
func imbalanced() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(13, 2, nil)
	y := mat.NewDense(13, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i)*2)
	}
	for i := 10; i < 13; i++ {
		X.Set(i, 0, float64(i)+100)
		X.Set(i, 1, float64(i)*2+100)
		y.Set(i, 0, 1)
	}
	return X, y
}

func countLabels(y *mat.Dense) map[int]int {
	counts := make(map[int]int)
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		counts[int(y.At(i, 0))]++
	}
	return counts
}

func TestRandomOverSampler(t *testing.T) {
	X, y := imbalanced()

	sampler := NewRandomOverSampler(WithOverSamplerSeed(42))
	rX, rY, err := sampler.FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample() error = %v", err)
	}

	counts := countLabels(rY)
	if counts[0] != 10 || counts[1] != 10 {
		t.Errorf("counts after oversampling = %v, want map[0:10 1:10]", counts)
	}

	n, p := rX.Dims()
	if n != 20 || p != 2 {
		t.Errorf("dims = (%d, %d), want (20, 2)", n, p)
	}

	// Every resampled minority row must be a copy of an original one.
	for i := 0; i < n; i++ {
		if rY.At(i, 0) != 1 {
			continue
		}
		if rX.At(i, 0) < 100 {
			t.Errorf("row %d: minority sample with feature %f not drawn from originals", i, rX.At(i, 0))
		}
	}
}

func TestRandomOverSampler_Reproducible(t *testing.T) {
	X, y := imbalanced()

	first, _, err := NewRandomOverSampler(WithOverSamplerSeed(7)).FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample() error = %v", err)
	}
	second, _, err := NewRandomOverSampler(WithOverSamplerSeed(7)).FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample() error = %v", err)
	}

	if !mat.Equal(first, second) {
		t.Error("resampled matrices differ for identical seeds")
	}
}

func TestRandomUnderSampler(t *testing.T) {
	X, y := imbalanced()

	sampler := NewRandomUnderSampler(WithUnderSamplerSeed(42))
	rX, rY, err := sampler.FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample() error = %v", err)
	}

	counts := countLabels(rY)
	if counts[0] != 3 || counts[1] != 3 {
		t.Errorf("counts after undersampling = %v, want map[0:3 1:3]", counts)
	}

	// Undersampling draws without replacement, so majority rows are distinct.
	n, _ := rX.Dims()
	seen := make(map[float64]bool)
	for i := 0; i < n; i++ {
		if rY.At(i, 0) != 0 {
			continue
		}
		v := rX.At(i, 0)
		if seen[v] {
			t.Errorf("majority sample with feature %f drawn twice", v)
		}
		seen[v] = true
	}
}

func TestResamplers_SingleClass(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 1, 1})

	if _, _, err := NewRandomOverSampler().FitResample(X, y); err == nil {
		t.Error("RandomOverSampler should fail with a single class")
	}
	if _, _, err := NewRandomUnderSampler().FitResample(X, y); err == nil {
		t.Error("RandomUnderSampler should fail with a single class")
	}
}

func TestResamplers_Multiclass(t *testing.T) {
	// 5, 3 and 2 samples per class.
	X := mat.NewDense(10, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 2, 2})

	_, overY, err := NewRandomOverSampler(WithOverSamplerSeed(1)).FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample() error = %v", err)
	}
	overCounts := countLabels(overY)
	for c := 0; c < 3; c++ {
		if overCounts[c] != 5 {
			t.Errorf("oversampled class %d count = %d, want 5", c, overCounts[c])
		}
	}

	_, underY, err := NewRandomUnderSampler(WithUnderSamplerSeed(1)).FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample() error = %v", err)
	}
	underCounts := countLabels(underY)
	for c := 0; c < 3; c++ {
		if underCounts[c] != 2 {
			t.Errorf("undersampled class %d count = %d, want 2", c, underCounts[c])
		}
	}
}
