package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	scaler := NewStandardScalerDefault()
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, scaler.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), scaler.Scale[0], 1e-12)
	// constant column keeps unit scale
	assert.Equal(t, 1.0, scaler.Scale[1])

	var sum float64
	for i := 0; i < 4; i++ {
		sum += out.At(i, 0)
		assert.Equal(t, 0.0, out.At(i, 1))
	}
	assert.InDelta(t, 0, sum, 1e-12)

	back, err := scaler.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScalerErrors(t *testing.T) {
	scaler := NewStandardScalerDefault()

	_, err := scaler.Transform(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, scaler.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})))
	_, err = scaler.Transform(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestStandardScalerWithoutMean(t *testing.T) {
	scaler := NewStandardScaler(false, true)
	require.NoError(t, scaler.Fit(mat.NewDense(2, 1, []float64{1, 3})))
	assert.Equal(t, 0.0, scaler.Mean[0])
	assert.InDelta(t, 1.0, scaler.Scale[0], 1e-12)

	clone := scaler.Clone()
	assert.False(t, clone.IsFitted())
	assert.Equal(t, scaler.GetParams(), clone.GetParams())
	assert.Contains(t, scaler.String(), "n_features=1")
}
