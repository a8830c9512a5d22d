// Package log defines standard attribute keys for model-evaluation operations.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.trials") so logs from the comparator, the cross-validation pool and
// the individual estimators can be filtered consistently.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "CSP", "LinearDiscriminantAnalysis", "RandomForestClassifier"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific estimator instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "comparator", "model_selection", "decoding"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the evaluation.
	PhaseKey = "ml.phase"
)

// Evaluation context
const (
	// RunIDKey correlates every record of one comparator run.
	RunIDKey = "run.id"

	// PipelineKey names the (transformer, classifier) pipeline.
	PipelineKey = "pipeline.name"

	// TransformerKey names the transformer of a pipeline.
	TransformerKey = "pipeline.transformer"

	// SplitKey is the index of a cross-validation repetition.
	SplitKey = "cv.split"

	// SplitsKey is the total number of cross-validation repetitions.
	SplitsKey = "cv.n_splits"

	// TestSizeKey is the held-out fraction of a shuffle split.
	TestSizeKey = "cv.test_size"

	// WorkersKey is the size of the worker pool.
	WorkersKey = "cv.workers"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (trials or rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) after transformation.
	FeaturesKey = "data.features"

	// ChannelsKey indicates the number of EEG channels.
	ChannelsKey = "data.channels"

	// TimesKey indicates the number of time samples per trial.
	TimesKey = "data.times"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"

	// SubjectKey identifies the recorded subject.
	SubjectKey = "data.subject"

	// RunKey identifies the experimental run of a subject.
	RunKey = "data.run"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records held-out accuracy, range [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// AccuracyStdKey records the population standard deviation of accuracies.
	AccuracyStdKey = "metrics.accuracy_std"

	// IterationKey records the current iteration of an iterative solver.
	IterationKey = "training.iteration"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains estimator hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseLoading    = "loading"
	PhaseEpoching   = "epoching"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorConfiguration     = "INVALID_CONFIGURATION"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
