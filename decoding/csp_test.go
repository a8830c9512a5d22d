package decoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/dataset"
	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/sklearn/discriminant_analysis"
)

func epochs(t *testing.T, classes int) (*tensor.Dense3, []int) {
	t.Helper()
	cfg := dataset.DefaultSyntheticConfig()
	cfg.Classes = classes
	X, y, err := dataset.Synthetic(cfg)
	require.NoError(t, err)
	return X, y
}

func labelMatrix(y []int) *mat.Dense {
	m := mat.NewDense(len(y), 1, nil)
	for i, v := range y {
		m.Set(i, 0, float64(v))
	}
	return m
}

func TestCSP_FitTransform(t *testing.T) {
	X, y := epochs(t, 2)
	csp := NewCSP(4)

	features, err := csp.FitTransform(X, y)
	require.NoError(t, err)
	r, c := features.Dims()
	assert.Equal(t, 45, r)
	assert.Equal(t, 4, c)
	assert.True(t, csp.IsFitted())

	// Transform of the training data reproduces FitTransform.
	again, err := csp.Transform(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(features, again, 1e-12))

	filters := csp.Filters()
	fr, fc := filters.Dims()
	assert.Equal(t, 4, fr)
	assert.Equal(t, 8, fc)
	pr, pc := csp.Patterns().Dims()
	assert.Equal(t, 8, pr)
	assert.Equal(t, 8, pc)
}

func TestCSP_ComponentsAreClamped(t *testing.T) {
	X, y := epochs(t, 2)
	features, err := NewCSP(10).FitTransform(X, y)
	require.NoError(t, err)
	_, c := features.Dims()
	assert.Equal(t, 8, c, "at most one component per channel")
}

func TestCSP_FiltersWhitenComposite(t *testing.T) {
	X, y := epochs(t, 2)
	csp := NewCSP(8)
	require.NoError(t, csp.Fit(X, y))

	classes, byClass := labelsToClasses(y)
	covA, err := concatCovariance(X, byClass[classes[0]], RegNone)
	require.NoError(t, err)
	covB, err := concatCovariance(X, byClass[classes[1]], RegNone)
	require.NoError(t, err)
	var composite mat.SymDense
	composite.AddSym(covA, covB)

	W := csp.Filters()
	var tmp, whitened, projectedA mat.Dense
	tmp.Mul(W, &composite)
	whitened.Mul(&tmp, W.T())
	assert.True(t, mat.EqualApprox(&whitened, eye(8), 1e-8), "W (Ca+Cb) Wᵀ = I")

	// eigenvalues of class A ordered by distance to 0.5
	tmp.Reset()
	tmp.Mul(W, covA)
	projectedA.Mul(&tmp, W.T())
	prev := math.Inf(1)
	for k := 0; k < 8; k++ {
		lambda := projectedA.At(k, k)
		assert.GreaterOrEqual(t, lambda, -1e-9)
		assert.LessOrEqual(t, lambda, 1+1e-9)
		d := math.Abs(lambda - 0.5)
		assert.LessOrEqual(t, d, prev+1e-9)
		prev = d
	}
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestCSP_Discriminative(t *testing.T) {
	X, y := epochs(t, 2)
	features, err := NewCSP(4).FitTransform(X, y)
	require.NoError(t, err)

	lda := discriminant_analysis.NewLinearDiscriminantAnalysis()
	labels := labelMatrix(y)
	require.NoError(t, lda.Fit(features, labels))
	acc, err := lda.Score(features, labels)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.85)
}

func TestCSP_Log(t *testing.T) {
	X, y := epochs(t, 2)
	logged, err := NewCSP(3).FitTransform(X, y)
	require.NoError(t, err)
	power, err := NewCSP(3, WithLog(false)).FitTransform(X, y)
	require.NoError(t, err)

	r, c := power.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			require.Greater(t, power.At(i, j), 0.0)
			assert.InDelta(t, math.Log(power.At(i, j)), logged.At(i, j), 1e-9)
		}
	}
}

func TestCSP_Multiclass(t *testing.T) {
	X, y := epochs(t, 3)
	csp := NewCSP(6, WithReg(RegOAS))
	features, err := csp.FitTransform(X, y)
	require.NoError(t, err)
	r, c := features.Dims()
	assert.Equal(t, 45, r)
	assert.Equal(t, 6, c)
}

func TestCSP_Errors(t *testing.T) {
	X, y := epochs(t, 2)

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewCSP(4).Transform(X)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("channel mismatch", func(t *testing.T) {
		csp := NewCSP(4)
		require.NoError(t, csp.Fit(X, y))
		_, err := csp.Transform(tensor.New(2, 5, 160, nil))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("single class", func(t *testing.T) {
		err := NewCSP(4).Fit(X, make([]int, len(y)))
		assert.True(t, errors.Is(err, errors.ErrSingleClass))
	})

	t.Run("label count", func(t *testing.T) {
		err := NewCSP(4).Fit(X, y[:10])
		var se *errors.InputShapeError
		assert.True(t, errors.As(err, &se))
	})

	t.Run("invalid config", func(t *testing.T) {
		for _, csp := range []*CSP{NewCSP(0), NewCSP(4, WithReg("shrunk"))} {
			var ce *errors.ConfigurationError
			assert.True(t, errors.As(csp.Validate(), &ce))
			assert.Error(t, csp.Fit(X, y))
		}
	})
}

func TestCSP_Clone(t *testing.T) {
	X, y := epochs(t, 2)
	csp := NewCSP(5, WithReg(RegOAS), WithLog(false))
	require.NoError(t, csp.Fit(X, y))

	clone, ok := csp.Clone().(*CSP)
	require.True(t, ok)
	assert.False(t, clone.IsFitted())
	assert.Equal(t, csp.GetParams(), clone.GetParams())
	assert.Equal(t, "CSP", clone.Name())
	assert.Equal(t, 5, clone.NComponents())
}
