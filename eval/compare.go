package eval

import (
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/core/model"
	"github.com/YuminosukeSato/ensego/dataset"
	"github.com/YuminosukeSato/ensego/ensemble"
	"github.com/YuminosukeSato/ensego/linear"
	"github.com/YuminosukeSato/ensego/metrics"
	"github.com/YuminosukeSato/ensego/pkg/log"
	"github.com/YuminosukeSato/ensego/preprocessing"
	"github.com/YuminosukeSato/ensego/svm"
)

// ModelResult holds the held-out metrics of one classifier.
type ModelResult struct {
	Name      string
	Accuracy  float64
	Error     float64
	AUC       float64 // NaN for multiclass problems
	ROC       []metrics.ROCPoint
	Confusion [][]int // rows true class, columns predicted
	Labels    []int
}

// CompareResult holds the outcome of a classifier comparison run.
type CompareResult struct {
	Models      []ModelResult
	TrainCounts map[int]int
	TestCounts  map[int]int
}

// RunCompare splits the data into stratified train and test sets, optionally
// rebalances and scales the training set, fits a logistic regression, a
// linear SVC, and a random forest, and scores all three on the untouched
// test set. Only the training set is resampled, so the reported metrics
// reflect the original class distribution.
func RunCompare(cfg *Config, lg log.Logger) (*CompareResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, err := loadData(cfg, lg)
	if err != nil {
		return nil, err
	}

	train, test, err := dataset.StratifiedTrainTestSplit(d, cfg.Compare.TestSize, cfg.Seed)
	if err != nil {
		return nil, err
	}

	trainX, trainY := train.X, train.Y
	if resampler := pickResampler(cfg); resampler != nil {
		trainX, trainY, err = resampler.FitResample(trainX, trainY)
		if err != nil {
			return nil, err
		}
		n, _ := trainX.Dims()
		lg.Info("resampled training set",
			log.OperationKey, log.OperationResample,
			"strategy", cfg.Compare.Resampler,
			log.SamplesKey, n)
	}

	testX := mat.Matrix(test.X)
	fitX := mat.Matrix(trainX)
	if cfg.Compare.Scale {
		scaler := preprocessing.NewStandardScalerDefault()
		fitX, err = scaler.FitTransform(trainX)
		if err != nil {
			return nil, err
		}
		testX, err = scaler.Transform(test.X)
		if err != nil {
			return nil, err
		}
	}

	models := []struct {
		name string
		clf  model.Classifier
	}{
		{"LogisticRegression", linear.NewLogisticRegression(
			linear.WithC(cfg.Compare.C),
			linear.WithMaxIter(cfg.Compare.MaxIter),
		)},
		{"LinearSVC", svm.NewLinearSVC(
			svm.WithSVCC(cfg.Compare.C),
			svm.WithSVCMaxIter(cfg.Compare.MaxIter),
			svm.WithClassWeight("balanced"),
			svm.WithSVCRandomState(cfg.Seed),
		)},
		{"RandomForestClassifier", ensemble.NewRandomForestClassifier(
			ensemble.WithTrees(cfg.Compare.Trees),
			ensemble.WithForestRandomState(cfg.Seed),
		)},
	}

	binary := len(d.Classes()) == 2
	yTrue := columnVector(test.Y, 0)

	// AUC and ROC operate on 0/1 indicators. Arbitrary binary labels such
	// as {1, 2} or {-1, 1} are mapped through the class order, with the
	// higher label as the positive class.
	var positive int
	var yBin *mat.VecDense
	if binary {
		positive = d.Classes()[1]
		yBin = binaryIndicator(yTrue, positive)
	}

	res := &CompareResult{
		TrainCounts: classCounts(trainY),
		TestCounts:  test.ClassCounts(),
	}
	for _, m := range models {
		start := time.Now()
		if err := m.clf.Fit(fitX, trainY); err != nil {
			return nil, err
		}

		acc, err := m.clf.Score(testX, test.Y)
		if err != nil {
			return nil, err
		}
		pred, err := m.clf.Predict(testX)
		if err != nil {
			return nil, err
		}

		mr := ModelResult{Name: m.name, Accuracy: acc, Error: 1 - acc, AUC: math.NaN()}
		mr.Confusion, mr.Labels, err = metrics.ConfusionMatrix(yTrue, columnVector(pred, 0))
		if err != nil {
			return nil, err
		}
		if binary {
			probas, err := m.clf.PredictProba(testX)
			if err != nil {
				return nil, err
			}
			scores := columnVector(probas, classColumn(m.clf.Classes(), positive))
			mr.AUC, err = metrics.AUC(yBin, scores)
			if err != nil {
				return nil, err
			}
			mr.ROC, err = metrics.ROCCurve(yBin, scores)
			if err != nil {
				return nil, err
			}
		}

		lg.Info("model evaluated",
			log.ModelNameKey, m.name,
			log.AccuracyKey, mr.Accuracy,
			log.AUCKey, mr.AUC,
			log.DurationMsKey, time.Since(start).Milliseconds())
		res.Models = append(res.Models, mr)
	}

	if cfg.Compare.Plot != "" && binary {
		if err := PlotROCCurves(res, cfg.Compare.Plot); err != nil {
			return nil, err
		}
		lg.Info("wrote roc plot", log.SourceKey, cfg.Compare.Plot)
	}
	return res, nil
}

// pickResampler maps the config value to a resampler, nil meaning none.
func pickResampler(cfg *Config) dataset.Resampler {
	switch cfg.Compare.Resampler {
	case "over":
		return dataset.NewRandomOverSampler(dataset.WithOverSamplerSeed(cfg.Seed))
	case "under":
		return dataset.NewRandomUnderSampler(dataset.WithUnderSamplerSeed(cfg.Seed))
	default:
		return nil
	}
}

// WriteReport writes the comparison as a plain text table.
func (r *CompareResult) WriteReport(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-24s %10s %10s %10s\n", "model", "accuracy", "error", "auc"); err != nil {
		return err
	}
	for _, m := range r.Models {
		auc := "-"
		if !math.IsNaN(m.AUC) {
			auc = fmt.Sprintf("%.4f", m.AUC)
		}
		if _, err := fmt.Fprintf(w, "%-24s %10.4f %10.4f %10s\n", m.Name, m.Accuracy, m.Error, auc); err != nil {
			return err
		}
	}

	for _, m := range r.Models {
		if len(m.Confusion) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s confusion matrix (rows true, columns predicted):\n", m.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%8s", ""); err != nil {
			return err
		}
		for _, label := range m.Labels {
			if _, err := fmt.Fprintf(w, "%8d", label); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		for i, label := range m.Labels {
			if _, err := fmt.Fprintf(w, "%8d", label); err != nil {
				return err
			}
			for j := range m.Labels {
				if _, err := fmt.Fprintf(w, "%8d", m.Confusion[i][j]); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// binaryIndicator maps labels to 1 where they equal positive and 0 elsewhere.
func binaryIndicator(y *mat.VecDense, positive int) *mat.VecDense {
	n := y.Len()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if int(y.AtVec(i)) == positive {
			out.SetVec(i, 1)
		}
	}
	return out
}

// classColumn locates the probability column of a class label in the
// estimator's class order.
func classColumn(classes []int, label int) int {
	for i, c := range classes {
		if c == label {
			return i
		}
	}
	return len(classes) - 1
}

// columnVector copies one column of a matrix into a vector.
func columnVector(m mat.Matrix, col int) *mat.VecDense {
	rows, _ := m.Dims()
	v := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v.SetVec(i, m.At(i, col))
	}
	return v
}

// classCounts tallies labels in a column vector of class values.
func classCounts(y mat.Matrix) map[int]int {
	rows, _ := y.Dims()
	counts := make(map[int]int)
	for i := 0; i < rows; i++ {
		counts[int(y.At(i, 0))]++
	}
	return counts
}
