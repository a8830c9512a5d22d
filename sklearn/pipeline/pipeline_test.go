package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/dataset"
	"github.com/mibench/mibench/decoding"
	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/sklearn/discriminant_analysis"
	"github.com/mibench/mibench/sklearn/pipeline"
)

func newLDA() model.Classifier {
	return discriminant_analysis.NewLinearDiscriminantAnalysis()
}

func TestPipeline_FitScore(t *testing.T) {
	X, y, err := dataset.Synthetic(dataset.DefaultSyntheticConfig())
	require.NoError(t, err)

	p := pipeline.New("LinearDiscriminantAnalysis", decoding.NewCSP(4), newLDA)
	assert.Equal(t, "LinearDiscriminantAnalysis", p.Name())
	assert.Nil(t, p.Classifier())

	require.NoError(t, p.Fit(X, y))
	require.NotNil(t, p.Classifier())

	score, err := p.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.8, "class dependent power must be separable")

	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.Len(t, pred, len(y))
}

func TestPipeline_NotFitted(t *testing.T) {
	X, y, err := dataset.Synthetic(dataset.DefaultSyntheticConfig())
	require.NoError(t, err)

	p := pipeline.New("lda", decoding.NewCSP(2), newLDA)
	_, err = p.Score(X, y)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = p.Score(X, y[:3])
	var shape *errors.InputShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "labels", shape.Feature)
}

func TestPipeline_Clone(t *testing.T) {
	X, y, err := dataset.Synthetic(dataset.DefaultSyntheticConfig())
	require.NoError(t, err)

	p := pipeline.New("lda", decoding.NewCSP(2), newLDA)
	require.NoError(t, p.Fit(X, y))

	clone := p.Clone()
	assert.Equal(t, p.Name(), clone.Name())
	assert.NotSame(t, p.Transformer(), clone.Transformer())
	assert.Nil(t, clone.Classifier())
	_, err = clone.Predict(X)
	assert.Error(t, err)
}

func TestPipeline_Validate(t *testing.T) {
	var cfg *errors.ConfigurationError
	assert.True(t, errors.As(pipeline.New("a", nil, newLDA).Validate(), &cfg))
	assert.True(t, errors.As(pipeline.New("b", decoding.NewCSP(2), nil).Validate(), &cfg))

	err := pipeline.New("c", decoding.NewCSP(0), newLDA).Validate()
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfg))
}
