package discriminant_analysis

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

// blobs draws n points per class around centers with unit variance.
func blobs(n int, centers [][]float64, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	d := len(centers[0])
	X := mat.NewDense(n*len(centers), d, nil)
	y := mat.NewDense(n*len(centers), 1, nil)
	for k, center := range centers {
		for i := 0; i < n; i++ {
			row := k*n + i
			for j := 0; j < d; j++ {
				X.Set(row, j, center[j]+rng.NormFloat64())
			}
			y.Set(row, 0, float64(k))
		}
	}
	return X, y
}

func TestLDA_Binary(t *testing.T) {
	X, y := blobs(40, [][]float64{{0, 0, 0}, {3, 3, 0}}, 1)
	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(X, y))

	acc, err := lda.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)
	assert.Equal(t, []int{0, 1}, lda.Classes())
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, lda.Priors(), 1e-12)

	pred, err := lda.Predict(mat.NewDense(2, 3, []float64{-1, -1, 0, 4, 4, 0}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))
}

func TestLDA_Multiclass(t *testing.T) {
	X, y := blobs(30, [][]float64{{0, 0}, {5, 0}, {0, 5}}, 2)
	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(X, y))

	acc, err := lda.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)

	proba, err := lda.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 3, c)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, proba)
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-9)
	}
}

func TestLDA_MatchesClosedForm(t *testing.T) {
	// For two classes the svd solver is equivalent to w = Σ⁻¹(μ1-μ0).
	X, y := blobs(50, [][]float64{{0, 0}, {2, 1}}, 3)
	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(X, y))

	n, d := X.Dims()
	means := lda.means
	within := mat.NewSymDense(d, nil)
	for i := 0; i < n; i++ {
		c := int(y.At(i, 0))
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				da := X.At(i, a) - means.At(c, a)
				db := X.At(i, b) - means.At(c, b)
				within.SetSym(a, b, within.At(a, b)+da*db)
			}
		}
	}
	within.ScaleSym(1/float64(n-2), within)

	diff := mat.NewVecDense(d, nil)
	diff.SubVec(means.RowView(1), means.RowView(0))
	var w mat.VecDense
	require.NoError(t, w.SolveVec(within, diff))

	coef := lda.Coef()
	for j := 0; j < d; j++ {
		assert.InDelta(t, w.AtVec(j), coef.At(1, j)-coef.At(0, j), 1e-8)
	}
}

func TestLDA_CollinearFeatures(t *testing.T) {
	X, y := blobs(30, [][]float64{{0, 0}, {3, 3}}, 4)
	n, _ := X.Dims()
	wide := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		wide.Set(i, 0, X.At(i, 0))
		wide.Set(i, 1, X.At(i, 1))
		wide.Set(i, 2, 2*X.At(i, 0))
	}
	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(wide, y))
	acc, err := lda.Score(wide, y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.9)
}

func TestLDA_Priors(t *testing.T) {
	X, y := blobs(20, [][]float64{{0}, {1}}, 5)
	lda := NewLinearDiscriminantAnalysis(WithLDAPriors([]float64{9, 1}))
	require.NoError(t, lda.Fit(X, y))
	assert.InDeltaSlice(t, []float64{0.9, 0.1}, lda.Priors(), 1e-12)

	// The midpoint between the class means is pushed to the rare class side.
	mid := (lda.means.At(0, 0) + lda.means.At(1, 0)) / 2
	pred, err := lda.Predict(mat.NewDense(1, 1, []float64{mid}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))

	bad := NewLinearDiscriminantAnalysis(WithLDAPriors([]float64{1, 1, 1}))
	var verr *errors.ValidationError
	assert.True(t, errors.As(bad.Fit(X, y), &verr))
}

func TestLDA_Errors(t *testing.T) {
	X, y := blobs(10, [][]float64{{0, 0}, {3, 3}}, 6)

	t.Run("single class", func(t *testing.T) {
		err := NewLinearDiscriminantAnalysis().Fit(X, mat.NewDense(20, 1, nil))
		assert.True(t, errors.Is(err, errors.ErrSingleClass))
	})

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewLinearDiscriminantAnalysis().Predict(X)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("feature mismatch", func(t *testing.T) {
		lda := NewLinearDiscriminantAnalysis()
		require.NoError(t, lda.Fit(X, y))
		_, err := lda.Predict(mat.NewDense(1, 3, nil))
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("constant features", func(t *testing.T) {
		flat := mat.NewDense(20, 2, nil)
		err := NewLinearDiscriminantAnalysis().Fit(flat, y)
		assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
	})
}

func TestLDA_ProbaIsFinite(t *testing.T) {
	X, y := blobs(20, [][]float64{{0, 0}, {50, 50}}, 7)
	lda := NewLinearDiscriminantAnalysis()
	require.NoError(t, lda.Fit(X, y))
	proba, err := lda.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := proba.At(i, j)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}
