package tree

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// faultyMatrix reports a valid shape but panics on element access.
type faultyMatrix struct{ rows, cols int }

func (m faultyMatrix) Dims() (int, int)    { return m.rows, m.cols }
func (m faultyMatrix) At(i, j int) float64 { panic("corrupted storage") }
func (m faultyMatrix) T() mat.Matrix       { return m }

func TestDecisionTreeClassifier_FitRecoversPanic(t *testing.T) {
	X, _ := xorData()
	dt := NewDecisionTreeClassifier()

	err := dt.Fit(X, faultyMatrix{rows: 4, cols: 1})
	if err == nil {
		t.Fatal("Fit() should surface the panic as an error")
	}
	if !strings.Contains(err.Error(), "panic in DecisionTreeClassifier.Fit") {
		t.Errorf("Fit() error = %v, want recovered panic", err)
	}
}

// xorData is not linearly separable, so a depth-2 tree must be grown to fit it.
func xorData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	})
	y := mat.NewDense(4, 1, []float64{0, 1, 1, 0})
	return X, y
}

func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		1, 1,
		1.5, 1.2,
		2, 0.8,
		7, 7,
		7.5, 7.2,
		8, 6.8,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestDecisionTreeClassifier_Fit(t *testing.T) {
	tests := []struct {
		name    string
		opts    []DecisionTreeOption
		wantErr bool
	}{
		{
			name:    "Default parameters",
			opts:    nil,
			wantErr: false,
		},
		{
			name:    "Entropy criterion",
			opts:    []DecisionTreeOption{WithCriterion("entropy")},
			wantErr: false,
		},
		{
			name:    "Invalid criterion",
			opts:    []DecisionTreeOption{WithCriterion("mse")},
			wantErr: true,
		},
		{
			name:    "Depth limited",
			opts:    []DecisionTreeOption{WithMaxDepth(1)},
			wantErr: false,
		},
	}

	X, y := separableData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := NewDecisionTreeClassifier(tt.opts...)
			err := dt.Fit(X, y)
			if (err != nil) != tt.wantErr {
				t.Errorf("Fit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && dt.nClasses_ != 2 {
				t.Errorf("nClasses_ = %d, want 2", dt.nClasses_)
			}
		})
	}
}

func TestDecisionTreeClassifier_FitDimensionMismatch(t *testing.T) {
	X := mat.NewDense(4, 2, nil)
	y := mat.NewDense(3, 1, nil)

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err == nil {
		t.Error("Fit() should fail on mismatched sample counts")
	}
}

func TestDecisionTreeClassifier_PredictXOR(t *testing.T) {
	X, y := xorData()

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		if predictions.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %.0f, want %.0f", i, predictions.At(i, 0), y.At(i, 0))
		}
	}

	if dt.GetDepth() < 2 {
		t.Errorf("GetDepth() = %d, want >= 2 for XOR", dt.GetDepth())
	}
}

func TestDecisionTreeClassifier_PredictNotFitted(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	X := mat.NewDense(2, 2, nil)

	if _, err := dt.Predict(X); err == nil {
		t.Error("Predict() should fail before Fit()")
	}
	if _, err := dt.PredictProba(X); err == nil {
		t.Error("PredictProba() should fail before Fit()")
	}
}

func TestDecisionTreeClassifier_PredictProba(t *testing.T) {
	X, y := separableData()

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	probas, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 6 || cols != 2 {
		t.Fatalf("PredictProba() dims = (%d, %d), want (6, 2)", rows, cols)
	}

	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := probas.At(i, j)
			if p < 0 || p > 1 {
				t.Errorf("proba[%d][%d] = %f, out of [0, 1]", i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d probabilities sum to %f, want 1.0", i, sum)
		}
	}
}

func TestDecisionTreeClassifier_Score(t *testing.T) {
	X, y := separableData()

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score != 1.0 {
		t.Errorf("Score() = %f, want 1.0 on separable training data", score)
	}
}

func TestDecisionTreeClassifier_MaxDepth(t *testing.T) {
	X, y := xorData()

	dt := NewDecisionTreeClassifier(WithMaxDepth(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if dt.GetDepth() > 1 {
		t.Errorf("GetDepth() = %d, want <= 1", dt.GetDepth())
	}
	// A depth-1 stump cannot solve XOR.
	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score == 1.0 {
		t.Error("depth-1 tree should not perfectly fit XOR")
	}
}

func TestDecisionTreeClassifier_MinSamplesConstraints(t *testing.T) {
	X, y := separableData()

	unconstrained := NewDecisionTreeClassifier()
	if err := unconstrained.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	constrained := NewDecisionTreeClassifier(WithMinSamplesSplit(10))
	if err := constrained.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if constrained.GetNLeaves() != 1 {
		t.Errorf("GetNLeaves() = %d, want 1 when min_samples_split exceeds n_samples", constrained.GetNLeaves())
	}
	if unconstrained.GetNLeaves() < constrained.GetNLeaves() {
		t.Error("unconstrained tree should have at least as many leaves")
	}
}

func TestDecisionTreeClassifier_FeatureImportances(t *testing.T) {
	// Feature 0 carries all the signal; feature 1 is constant.
	X := mat.NewDense(6, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		10, 5,
		11, 5,
		12, 5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	importances := dt.GetFeatureImportances()
	if len(importances) != 2 {
		t.Fatalf("len(importances) = %d, want 2", len(importances))
	}

	sum := 0.0
	for _, imp := range importances {
		sum += imp
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("importances sum to %f, want 1.0", sum)
	}
	if importances[0] != 1.0 || importances[1] != 0.0 {
		t.Errorf("importances = %v, want [1, 0]", importances)
	}
}

func TestDecisionTreeClassifier_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 1, []float64{1, 2, 3, 11, 12, 13, 21, 22, 23})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if dt.nClasses_ != 3 {
		t.Errorf("nClasses_ = %d, want 3", dt.nClasses_)
	}

	classes := dt.Classes()
	for i, want := range []int{0, 1, 2} {
		if classes[i] != want {
			t.Errorf("classes[%d] = %d, want %d", i, classes[i], want)
		}
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score != 1.0 {
		t.Errorf("Score() = %f, want 1.0", score)
	}
}

func TestDecisionTreeClassifier_MaxFeatures(t *testing.T) {
	X, y := separableData()

	dt := NewDecisionTreeClassifier(WithMaxFeatures(1), WithTreeRandomState(42))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Both features separate the classes here, so any single-feature
	// split still fits the data.
	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score != 1.0 {
		t.Errorf("Score() = %f, want 1.0", score)
	}
}

func TestDecisionTreeClassifier_GetParams(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	params := dt.GetParams()

	if params["criterion"] != "gini" {
		t.Errorf("default criterion = %v, want gini", params["criterion"])
	}
	if params["min_samples_split"] != 2 {
		t.Errorf("default min_samples_split = %v, want 2", params["min_samples_split"])
	}
}

func TestDecisionTreeClassifier_SetParams(t *testing.T) {
	dt := NewDecisionTreeClassifier()

	err := dt.SetParams(map[string]interface{}{
		"criterion":         "entropy",
		"max_depth":         3,
		"min_samples_split": 4,
		"min_samples_leaf":  2,
	})
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}

	if dt.criterion != "entropy" {
		t.Errorf("criterion = %s, want entropy", dt.criterion)
	}
	if dt.maxDepth != 3 {
		t.Errorf("maxDepth = %d, want 3", dt.maxDepth)
	}
	if dt.minSamplesSplit != 4 {
		t.Errorf("minSamplesSplit = %d, want 4", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf != 2 {
		t.Errorf("minSamplesLeaf = %d, want 2", dt.minSamplesLeaf)
	}

	if err := dt.SetParams(map[string]interface{}{"bogus": 1}); err == nil {
		t.Error("SetParams() should reject unknown parameters")
	}
}

func TestDecisionTreeClassifier_SingleClass(t *testing.T) {
	// Bootstrap samples can contain a single class; fitting must succeed.
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{1, 1, 1})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if predictions.At(i, 0) != 1 {
			t.Errorf("sample %d: predicted %.0f, want 1", i, predictions.At(i, 0))
		}
	}
	if dt.GetNLeaves() != 1 {
		t.Errorf("GetNLeaves() = %d, want 1", dt.GetNLeaves())
	}
}

func BenchmarkDecisionTreeClassifier_Fit(b *testing.B) {
	nSamples := 200
	data := make([]float64, nSamples*4)
	labels := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < 4; j++ {
			data[i*4+j] = float64((i*7+j*13)%100) / 10.0
		}
		labels[i] = float64(i % 2)
	}
	X := mat.NewDense(nSamples, 4, data)
	y := mat.NewDense(nSamples, 1, labels)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dt := NewDecisionTreeClassifier(WithMaxDepth(5))
		_ = dt.Fit(X, y)
	}
}
