package decomposition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

func TestPCAFindsDominantDirection(t *testing.T) {
	// points spread along (1, 1) with small noise along (1, -1)
	data := []float64{}
	for i := -5; i <= 5; i++ {
		noise := 0.01 * float64(i%2)
		data = append(data, float64(i)+noise, float64(i)-noise)
	}
	X := mat.NewDense(11, 2, data)

	pca := NewPCA(1)
	out, err := pca.FitTransform(X)
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 11, r)
	assert.Equal(t, 1, c)

	comp := pca.Components()
	assert.InDelta(t, 1/math.Sqrt2, comp.At(0, 0), 1e-3)
	assert.InDelta(t, 1/math.Sqrt2, comp.At(1, 0), 1e-3)
	assert.Greater(t, pca.ExplainedVarianceRatio()[0], 0.99)

	// projection of the last point is positive after sign normalization
	assert.Greater(t, out.At(10, 0), 0.0)
}

func TestPCAErrors(t *testing.T) {
	_, err := NewPCA(2).Transform(mat.NewDense(2, 2, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	assert.Error(t, NewPCA(0).Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 7})))

	p := NewPCA(5)
	require.NoError(t, p.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 7})))
	assert.Len(t, p.ExplainedVarianceRatio(), 2, "components are capped by the data rank")

	_, err = p.Transform(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	assert.Equal(t, "PCA(n_components=5)", p.Clone().String())
}
