package log

// Standard attribute keys for machine learning operations. Using these keys
// consistently enables structured log analysis across the training, sweep and
// evaluation commands. Keys follow a hierarchical naming convention
// (e.g. "model.name", "data.samples").

// Model and operation context.
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "BaggingClassifier", "LogisticRegression", "LinearSVC"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the
	// operation. Examples: "ensemble", "dataset", "eval"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"

	// SourceKey identifies the data source (file path or "synthetic").
	SourceKey = "data.source"
)

// Training and evaluation metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy, range [0, 1].
	AccuracyKey = "metrics.accuracy"

	// ErrorRateKey records classification error rate, range [0, 1].
	ErrorRateKey = "metrics.error_rate"

	// AUCKey records area under the ROC curve, range [0, 1].
	AUCKey = "metrics.auc"

	// OOBErrorKey records the out-of-bag error estimate of an ensemble.
	OOBErrorKey = "metrics.oob_error"

	// EstimatorsKey records the number of estimators in an ensemble.
	EstimatorsKey = "ensemble.n_estimators"

	// SeedKey records the random seed for reproducibility.
	SeedKey = "config.random_seed"
)

// Standard attribute value constants for common operations.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationResample  = "resample"
	OperationSweep     = "sweep"
)
