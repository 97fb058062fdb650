package svm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 2, []float64{
		-2, -1,
		-1.5, -2,
		-1, -1.5,
		-2.5, -0.5,
		2, 1,
		1.5, 2,
		1, 1.5,
		2.5, 0.5,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestLinearSVC_Fit(t *testing.T) {
	tests := []struct {
		name    string
		opts    []SVCOption
		wantErr bool
	}{
		{
			name:    "Default parameters",
			opts:    nil,
			wantErr: false,
		},
		{
			name:    "Balanced class weights",
			opts:    []SVCOption{WithClassWeight("balanced")},
			wantErr: false,
		},
		{
			name:    "Invalid class weight",
			opts:    []SVCOption{WithClassWeight("uniform")},
			wantErr: true,
		},
		{
			name:    "Invalid C",
			opts:    []SVCOption{WithSVCC(0)},
			wantErr: true,
		},
	}

	X, y := separableData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLinearSVC(append(tt.opts, WithSVCRandomState(42))...)
			err := s.Fit(X, y)
			if (err != nil) != tt.wantErr {
				t.Errorf("Fit() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLinearSVC_FitSingleClass(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{1, 1, 1})

	s := NewLinearSVC()
	if err := s.Fit(X, y); err == nil {
		t.Error("Fit() should fail with a single class")
	}
}

func TestLinearSVC_Predict(t *testing.T) {
	X, y := separableData()

	s := NewLinearSVC(WithSVCRandomState(42), WithSVCMaxIter(500))
	if err := s.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predictions, err := s.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	for i := 0; i < 8; i++ {
		if predictions.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %.0f, want %.0f", i, predictions.At(i, 0), y.At(i, 0))
		}
	}
}

func TestLinearSVC_PredictNotFitted(t *testing.T) {
	s := NewLinearSVC()
	X := mat.NewDense(2, 2, nil)

	if _, err := s.Predict(X); err == nil {
		t.Error("Predict() should fail before Fit()")
	}
	if _, err := s.DecisionFunction(X); err == nil {
		t.Error("DecisionFunction() should fail before Fit()")
	}
}

func TestLinearSVC_DecisionFunction(t *testing.T) {
	X, y := separableData()

	s := NewLinearSVC(WithSVCRandomState(42), WithSVCMaxIter(500))
	if err := s.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	scores, err := s.DecisionFunction(X)
	if err != nil {
		t.Fatalf("DecisionFunction() error = %v", err)
	}

	rows, cols := scores.Dims()
	if rows != 8 || cols != 1 {
		t.Fatalf("DecisionFunction() dims = (%d, %d), want (8, 1)", rows, cols)
	}

	// Negative-class samples should have negative scores, positives positive.
	for i := 0; i < 4; i++ {
		if scores.At(i, 0) >= 0 {
			t.Errorf("sample %d: score = %f, want < 0", i, scores.At(i, 0))
		}
	}
	for i := 4; i < 8; i++ {
		if scores.At(i, 0) <= 0 {
			t.Errorf("sample %d: score = %f, want > 0", i, scores.At(i, 0))
		}
	}
}

func TestLinearSVC_PredictProba(t *testing.T) {
	X, y := separableData()

	s := NewLinearSVC(WithSVCRandomState(42), WithSVCMaxIter(500))
	if err := s.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	probas, err := s.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 8 || cols != 2 {
		t.Fatalf("PredictProba() dims = (%d, %d), want (8, 2)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		sum := probas.At(i, 0) + probas.At(i, 1)
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d probabilities sum to %f, want 1.0", i, sum)
		}
	}
}

func TestLinearSVC_Reproducibility(t *testing.T) {
	X, y := separableData()

	first := NewLinearSVC(WithSVCRandomState(7), WithSVCMaxIter(200))
	second := NewLinearSVC(WithSVCRandomState(7), WithSVCMaxIter(200))

	if err := first.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := second.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	for j := 0; j < 2; j++ {
		if first.coef_.At(0, j) != second.coef_.At(0, j) {
			t.Fatalf("coefficient %d differs between identically seeded fits", j)
		}
	}
}

func TestLinearSVC_BalancedWeights(t *testing.T) {
	// 10:2 imbalance; balanced weighting should still find the minority.
	X := mat.NewDense(12, 1, []float64{
		-3, -2.8, -2.6, -2.4, -2.2, -2, -1.8, -1.6, -1.4, -1.2,
		3, 3.2,
	})
	y := mat.NewDense(12, 1, []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1})

	s := NewLinearSVC(WithClassWeight("balanced"), WithSVCRandomState(42), WithSVCMaxIter(500))
	if err := s.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predictions, err := s.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 10; i < 12; i++ {
		if predictions.At(i, 0) != 1 {
			t.Errorf("minority sample %d: predicted %.0f, want 1", i, predictions.At(i, 0))
		}
	}
}

func TestLinearSVC_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0, 0.5, 0.2, 0.2, 0.5,
		5, 5, 5.5, 5.2, 5.2, 5.5,
		10, 0, 10.5, 0.2, 10.2, 0.5,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	s := NewLinearSVC(WithSVCRandomState(42), WithSVCMaxIter(500))
	if err := s.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if s.nClasses_ != 3 {
		t.Errorf("nClasses_ = %d, want 3", s.nClasses_)
	}

	score, err := s.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.8 {
		t.Errorf("Score() = %f, want >= 0.8 on separated clusters", score)
	}
}
