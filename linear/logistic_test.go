package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func binaryData() (*mat.Dense, *mat.Dense) {
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

func TestLogisticRegression_Fit(t *testing.T) {
	tests := []struct {
		name    string
		opts    []LogisticOption
		wantErr bool
	}{
		{
			name:    "Default parameters",
			opts:    nil,
			wantErr: false,
		},
		{
			name:    "No regularization",
			opts:    []LogisticOption{WithPenalty("none")},
			wantErr: false,
		},
		{
			name:    "Invalid penalty",
			opts:    []LogisticOption{WithPenalty("l1")},
			wantErr: true,
		},
		{
			name:    "Invalid C",
			opts:    []LogisticOption{WithC(-1)},
			wantErr: true,
		},
	}

	X, y := binaryData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLogisticRegression(tt.opts...)
			err := lr.Fit(X, y)
			if (err != nil) != tt.wantErr {
				t.Errorf("Fit() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogisticRegression_FitSingleClass(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{1, 1, 1})

	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err == nil {
		t.Error("Fit() should fail with a single class")
	}
}

func TestLogisticRegression_Predict(t *testing.T) {
	X, y := binaryData()

	lr := NewLogisticRegression(WithMaxIter(2000))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predictions, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	for i := 0; i < 8; i++ {
		if predictions.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %.0f, want %.0f", i, predictions.At(i, 0), y.At(i, 0))
		}
	}

	if lr.NIter() == 0 {
		t.Error("NIter() = 0 after fitting")
	}
}

func TestLogisticRegression_PredictNotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(2, 2, nil)

	if _, err := lr.Predict(X); err == nil {
		t.Error("Predict() should fail before Fit()")
	}
	if _, err := lr.PredictProba(X); err == nil {
		t.Error("PredictProba() should fail before Fit()")
	}
}

func TestLogisticRegression_PredictDimensionMismatch(t *testing.T) {
	X, y := binaryData()

	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	bad := mat.NewDense(2, 3, nil)
	if _, err := lr.Predict(bad); err == nil {
		t.Error("Predict() should fail on feature count mismatch")
	}
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X, y := binaryData()

	lr := NewLogisticRegression(WithMaxIter(2000))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	probas, err := lr.PredictProba(X)
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

	// The positive class should get high probability for positive samples.
	if probas.At(4, 1) < 0.5 {
		t.Errorf("proba of class 1 for a clear positive = %f, want > 0.5", probas.At(4, 1))
	}
}

func TestLogisticRegression_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0, 0.5, 0.2, 0.2, 0.5,
		5, 5, 5.5, 5.2, 5.2, 5.5,
		10, 0, 10.5, 0.2, 10.2, 0.5,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	lr := NewLogisticRegression(WithMaxIter(3000))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if lr.nClasses_ != 3 {
		t.Errorf("nClasses_ = %d, want 3", lr.nClasses_)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.8 {
		t.Errorf("Score() = %f, want >= 0.8 on separated clusters", score)
	}

	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	_, cols := probas.Dims()
	if cols != 3 {
		t.Fatalf("PredictProba() cols = %d, want 3", cols)
	}
	for i := 0; i < 9; i++ {
		sum := 0.0
		for k := 0; k < 3; k++ {
			sum += probas.At(i, k)
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d probabilities sum to %f, want 1.0", i, sum)
		}
	}
}

func TestLogisticRegression_Score(t *testing.T) {
	X, y := binaryData()

	lr := NewLogisticRegression(WithMaxIter(2000))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score != 1.0 {
		t.Errorf("Score() = %f, want 1.0 on separable training data", score)
	}
}

func TestLogisticRegression_GetParams(t *testing.T) {
	lr := NewLogisticRegression()
	params := lr.GetParams()

	if params["penalty"] != "l2" {
		t.Errorf("default penalty = %v, want l2", params["penalty"])
	}
	if params["C"] != 1.0 {
		t.Errorf("default C = %v, want 1.0", params["C"])
	}
	if params["max_iter"] != 1000 {
		t.Errorf("default max_iter = %v, want 1000", params["max_iter"])
	}
}

func TestLogisticRegression_SetParams(t *testing.T) {
	lr := NewLogisticRegression()

	err := lr.SetParams(map[string]interface{}{
		"C":        10.0,
		"max_iter": 500,
	})
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}

	if lr.c != 10.0 {
		t.Errorf("c = %f, want 10.0", lr.c)
	}
	if lr.maxIter != 500 {
		t.Errorf("maxIter = %d, want 500", lr.maxIter)
	}

	if err := lr.SetParams(map[string]interface{}{"solver": "lbfgs"}); err == nil {
		t.Error("SetParams() should reject unknown parameters")
	}
}
