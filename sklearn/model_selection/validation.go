package model_selection

import (
	"context"
	"time"

	"github.com/mibench/mibench/core/parallel"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/pkg/log"
	"github.com/mibench/mibench/sklearn/pipeline"
)

// Option configures CrossValScore and CrossValScoreMany.
type Option func(*cvConfig)

type cvConfig struct {
	workers int
	logger  log.Logger
}

// WithWorkers sets the size of the worker pool. Non-positive values use
// one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *cvConfig) {
		c.workers = n
	}
}

// WithLogger sets the logger receiving one debug record per scored split.
func WithLogger(l log.Logger) Option {
	return func(c *cvConfig) {
		c.logger = l
	}
}

// CrossValScore returns the held-out accuracy of p on every split.
func CrossValScore(ctx context.Context, p *pipeline.Pipeline, X *tensor.Dense3, y []int, splitter Splitter, opts ...Option) ([]float64, error) {
	scores, err := CrossValScoreMany(ctx, []*pipeline.Pipeline{p}, X, y, splitter, opts...)
	if err != nil {
		return nil, err
	}
	return scores[0], nil
}

// CrossValScoreMany evaluates every pipeline on every split of one shared
// partition. The (pipeline, split) tasks run on a single fixed-size pool;
// each task clones its pipeline and fits it on deep copies of the training
// trials, so neither X, y nor the given pipelines are modified.
//
// The result is indexed [pipeline][split] in input order. The first failing
// task cancels the others and its error, annotated with the pipeline name
// and split index, is returned.
func CrossValScoreMany(ctx context.Context, pipelines []*pipeline.Pipeline, X *tensor.Dense3, y []int, splitter Splitter, opts ...Option) ([][]float64, error) {
	cfg := cvConfig{logger: log.GetLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	trials, _, _ := X.Dims()
	if trials != len(y) {
		return nil, errors.NewFeatureShapeError("cross-validation", "labels", []int{trials}, []int{len(y)})
	}
	for _, p := range pipelines {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	folds, err := splitter.Split(trials, y)
	if err != nil {
		return nil, err
	}

	nSplits := len(folds)
	scores := make([][]float64, len(pipelines))
	for i := range scores {
		scores[i] = make([]float64, nSplits)
	}

	err = parallel.ForEach(ctx, cfg.workers, len(pipelines)*nSplits, func(ctx context.Context, task int) error {
		pi, si := task/nSplits, task%nSplits
		p := pipelines[pi].Clone()
		fold := folds[si]
		logger := cfg.logger.With(log.PipelineKey, p.Name(), log.SplitKey, si)

		start := time.Now()
		score, err := errors.SafeCompute(p.Name()+".fitAndScore", func() (float64, error) {
			return fitAndScore(ctx, p, X, y, fold)
		})
		if err != nil {
			logger.Error("split failed", err)
			return errors.Wrapf(err, "pipeline %s split %d", p.Name(), si)
		}
		scores[pi][si] = score
		logger.Debug("split scored",
			log.AccuracyKey, score,
			log.SamplesKey, len(fold.Train),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func fitAndScore(ctx context.Context, p *pipeline.Pipeline, X *tensor.Dense3, y []int, fold Fold) (float64, error) {
	if err := p.Fit(X.Subset(fold.Train), pick(y, fold.Train)); err != nil {
		return 0, err
	}
	// a cancelled run skips scoring
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.Score(X.Subset(fold.Test), pick(y, fold.Test))
}

func pick(y []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}
