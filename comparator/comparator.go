// Package comparator benchmarks three (spatial filter, classifier) pipelines
// on the same epochs with repeated shuffle-split cross-validation.
//
// The three pipelines are fixed: t1 feeds Linear Discriminant Analysis, t2 an
// L1 penalised logistic regression and t3 a 150-tree random forest. Each
// pipeline gets its own transformer; every (pipeline, split) task clones it,
// so fitted state is never shared.
package comparator

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/parallel"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/metrics"
	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/pkg/log"
	"github.com/mibench/mibench/sklearn/discriminant_analysis"
	"github.com/mibench/mibench/sklearn/ensemble"
	"github.com/mibench/mibench/sklearn/linear_model"
	"github.com/mibench/mibench/sklearn/model_selection"
	"github.com/mibench/mibench/sklearn/pipeline"
)

// Pipeline names, in report order.
const (
	NameLDA          = "LinearDiscriminantAnalysis"
	NameLogistic     = "LogisticRegression"
	NameRandomForest = "RandomForestClassifier"
)

// Defaults of the evaluation protocol.
const (
	DefaultSplits   = 10
	DefaultTestSize = 0.4
	DefaultSeed     = 42
	ForestSize      = 150
)

// Result is the cross-validated accuracy of one pipeline.
type Result struct {
	Name   string
	Scores []float64
	Mean   float64
	Std    float64
}

// Report holds one Result per pipeline in fixed order.
type Report struct {
	RunID   string
	Results []Result
}

// WriteTo prints "<Name>: accuracy <mean>, std: <std>" for every pipeline.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&b, "%s: accuracy %s, std: %s\n", res.Name, formatScore(res.Mean), formatScore(res.Std))
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (r *Report) String() string {
	var b strings.Builder
	_, _ = r.WriteTo(&b)
	return b.String()
}

// formatScore prints the shortest representation, keeping a fractional
// part on whole numbers so 1 prints as 1.0.
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// Option configures Compare.
type Option func(*config)

type config struct {
	splitter    model_selection.Splitter
	workers     int
	seed        uint64
	logger      log.Logger
	classifiers [3]pipeline.ClassifierFactory
}

// WithSplitter replaces the default ShuffleSplit(10, 0.4, seed).
func WithSplitter(s model_selection.Splitter) Option {
	return func(c *config) {
		c.splitter = s
	}
}

// WithWorkers sets the size of the evaluation pool. Non-positive values use
// one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithSeed sets the seed of the default splitter and of the classifiers.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithLogger sets the run logger. The default is log.GetLogger().
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithClassifiers overrides the classifier factories of the three
// pipelines. Nil entries keep the default; report names are unchanged.
func WithClassifiers(lda, logistic, forest pipeline.ClassifierFactory) Option {
	return func(c *config) {
		for i, f := range []pipeline.ClassifierFactory{lda, logistic, forest} {
			if f != nil {
				c.classifiers[i] = f
			}
		}
	}
}

func defaultClassifiers(seed uint64) [3]pipeline.ClassifierFactory {
	return [3]pipeline.ClassifierFactory{
		func() model.Classifier {
			return discriminant_analysis.NewLinearDiscriminantAnalysis()
		},
		func() model.Classifier {
			return linear_model.NewLogisticRegression(
				linear_model.WithLRPenalty(linear_model.PenaltyL1),
				linear_model.WithLRSolver(linear_model.SolverLiblinear),
				linear_model.WithLRRandomState(int64(seed &^ (1 << 63))),
			)
		},
		func() model.Classifier {
			// trees are grown serially, the evaluation pool already fills the CPUs
			return ensemble.NewRandomForestClassifier(
				ensemble.WithNEstimators(ForestSize),
				ensemble.WithForestRandomState(int64(seed &^ (1 << 63))),
				ensemble.WithForestNJobs(1),
			)
		},
	}
}

// Compare evaluates (t1, LDA), (t2, L1 logistic regression) and
// (t3, random forest) on the same cross-validation partition of (X, y).
//
// Inputs are validated before anything is fitted: a nil, invalid or shared
// transformer is a ConfigurationError, a label count that differs from the
// number of trials an InputShapeError. X and y are never modified. Any
// failing split aborts the run.
func Compare(ctx context.Context, X *tensor.Dense3, y []int, t1, t2, t3 model.TensorTransformer, opts ...Option) (*Report, error) {
	cfg := config{seed: DefaultSeed, logger: log.GetLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	defaults := defaultClassifiers(cfg.seed)
	for i := range cfg.classifiers {
		if cfg.classifiers[i] == nil {
			cfg.classifiers[i] = defaults[i]
		}
	}
	if cfg.splitter == nil {
		cfg.splitter = model_selection.NewShuffleSplit(DefaultSplits, DefaultTestSize, cfg.seed)
	}

	if X == nil {
		return nil, errors.NewModelError("Compare", "empty data", errors.ErrEmptyData)
	}
	trials, channels, times := X.Dims()
	if trials != len(y) {
		return nil, errors.NewFeatureShapeError("comparison", "labels", []int{trials}, []int{len(y)})
	}
	names := []string{NameLDA, NameLogistic, NameRandomForest}
	transformers := []model.TensorTransformer{t1, t2, t3}
	if err := checkTransformers(names, transformers); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := cfg.logger.With(log.RunIDKey, runID, log.ComponentKey, "comparator")
	logger.Info("comparison started",
		log.SamplesKey, trials,
		log.ChannelsKey, channels,
		log.TimesKey, times,
		log.ClassesKey, len(model.UniqueClasses(y)),
		log.SplitsKey, cfg.splitter.NSplits(),
		log.WorkersKey, parallel.Workers(cfg.workers),
	)
	start := time.Now()

	pipelines := make([]*pipeline.Pipeline, len(names))
	for i := range names {
		pipelines[i] = pipeline.New(names[i], transformers[i], cfg.classifiers[i])
	}
	scores, err := model_selection.CrossValScoreMany(ctx, pipelines, X, y, cfg.splitter,
		model_selection.WithWorkers(cfg.workers),
		model_selection.WithLogger(logger),
	)
	if err != nil {
		logger.Error("comparison failed", err)
		return nil, err
	}

	report := &Report{RunID: runID, Results: make([]Result, len(names))}
	for i, name := range names {
		summary, err := metrics.MeanStd(scores[i])
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline %s", name)
		}
		report.Results[i] = Result{Name: name, Scores: scores[i], Mean: summary.Mean, Std: summary.Std}
		fields := []any{
			log.PipelineKey, name,
			log.TransformerKey, transformers[i].Name(),
			log.AccuracyKey, summary.Mean,
			log.AccuracyStdKey, summary.Std,
		}
		if pg, ok := cfg.classifiers[i]().(model.ParameterGetter); ok {
			fields = append(fields, log.HyperParamsKey, pg.GetParams())
		}
		logger.Info("pipeline evaluated", fields...)
	}
	logger.Info("comparison finished", log.DurationMsKey, time.Since(start).Milliseconds())
	return report, nil
}

// checkTransformers rejects nil, invalid and aliased transformers.
func checkTransformers(names []string, transformers []model.TensorTransformer) error {
	for i, t := range transformers {
		if t == nil || reflect.ValueOf(t).Kind() == reflect.Pointer && reflect.ValueOf(t).IsNil() {
			return errors.NewConfigurationError(names[i], "transformer is nil")
		}
		if v, ok := t.(model.Validator); ok {
			if err := v.Validate(); err != nil {
				var cfgErr *errors.ConfigurationError
				if errors.As(err, &cfgErr) {
					return errors.Wrapf(err, "pipeline %s", names[i])
				}
				return errors.NewConfigurationError(names[i], fmt.Sprintf("%s: %v", t.Name(), err))
			}
		}
		for j := 0; j < i; j++ {
			if sameInstance(transformers[j], t) {
				return errors.NewConfigurationError(names[i],
					fmt.Sprintf("transformer %s is already used by %s, every pipeline needs its own instance", t.Name(), names[j]))
			}
		}
	}
	return nil
}

// sameInstance reports whether a and b are the same pointer. Values of
// non-pointer types are never considered shared.
func sameInstance(a, b model.TensorTransformer) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || vb.Kind() != reflect.Pointer {
		return false
	}
	return va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
}
