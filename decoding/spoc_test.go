package decoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

func TestSPoC_FitTransform(t *testing.T) {
	X, y := epochs(t, 2)
	spoc := NewSPoC(15, WithReg(RegOAS))

	features, err := spoc.FitTransform(X, y)
	require.NoError(t, err)
	r, c := features.Dims()
	assert.Equal(t, 45, r)
	assert.Equal(t, 8, c, "components are clamped to the channel count")
	assert.Equal(t, 15, spoc.NComponents())
}

func TestSPoC_FiltersNormalizeMeanCovariance(t *testing.T) {
	X, y := epochs(t, 2)
	spoc := NewSPoC(8)
	require.NoError(t, spoc.Fit(X, y))

	trials, channels, _ := X.Dims()
	mean := mat.NewSymDense(channels, nil)
	for i := 0; i < trials; i++ {
		cov, err := Covariance(X.TrialView(i), RegNone)
		require.NoError(t, err)
		mean.AddSym(mean, cov)
	}
	mean.ScaleSym(1/float64(trials), mean)

	W := spoc.Filters()
	var tmp, out mat.Dense
	tmp.Mul(W, mean)
	out.Mul(&tmp, W.T())
	assert.True(t, mat.EqualApprox(&out, eye(channels), 1e-8))
}

func TestSPoC_FirstComponentTracksTarget(t *testing.T) {
	X, y := epochs(t, 2)
	features, err := NewSPoC(1).FitTransform(X, y)
	require.NoError(t, err)

	var mean [2]float64
	var count [2]float64
	for i, label := range y {
		mean[label] += features.At(i, 0)
		count[label]++
	}
	gap := math.Abs(mean[0]/count[0] - mean[1]/count[1])
	assert.Greater(t, gap, 0.5, "log power separates the classes")
}

func TestSPoC_Errors(t *testing.T) {
	X, y := epochs(t, 2)

	t.Run("constant target", func(t *testing.T) {
		err := NewSPoC(4).Fit(X, make([]int, len(y)))
		assert.True(t, errors.Is(err, errors.ErrSingleClass))
	})

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewSPoC(4).Transform(X)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("invalid config", func(t *testing.T) {
		var ce *errors.ConfigurationError
		assert.True(t, errors.As(NewSPoC(0).Validate(), &ce))
	})
}

func TestSPoC_Clone(t *testing.T) {
	spoc := NewSPoC(15, WithReg(RegOAS))
	clone := spoc.Clone()
	assert.NotSame(t, spoc, clone)
	assert.Equal(t, spoc.GetParams(), clone.(*SPoC).GetParams())
}
