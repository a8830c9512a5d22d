package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// blobs returns three classes around (0,0), (4,4) and (8,0) plus two noise
// features.
func blobs(perClass int) (*mat.Dense, *mat.Dense) {
	centres := [][2]float64{{0, 0}, {4, 4}, {8, 0}}
	n := perClass * len(centres)
	X := mat.NewDense(n, 4, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		c := i % len(centres)
		X.Set(i, 0, centres[c][0]+0.5*math.Sin(float64(3*i)))
		X.Set(i, 1, centres[c][1]+0.5*math.Cos(float64(5*i)))
		X.Set(i, 2, math.Sin(float64(7*i)))
		X.Set(i, 3, math.Cos(float64(11*i)))
		y.Set(i, 0, float64(c))
	}
	return X, y
}

func TestRandomForestClassifier_FitPredict(t *testing.T) {
	X, y := blobs(20)
	rf := NewRandomForestClassifier(WithNEstimators(25), WithForestRandomState(42), WithForestNJobs(4))
	require.NoError(t, rf.Fit(X, y))
	assert.Equal(t, 25, rf.NEstimators())
	assert.Equal(t, []int{0, 1, 2}, rf.Classes())

	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.95)

	probas, err := rf.PredictProba(X)
	require.NoError(t, err)
	rows, cols := probas.Dims()
	require.Equal(t, 60, rows)
	require.Equal(t, 3, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, mat.Sum(probas.(*mat.Dense).RowView(i)), 1e-9)
	}

	imp := rf.FeatureImportances()
	require.Len(t, imp, 4)
	assert.Greater(t, imp[0]+imp[1], imp[2]+imp[3], "informative features dominate: %v", imp)
}

// TestRandomForestClassifier_WorkerIndependence checks that the fitted
// forest depends on the seed only, not on how many goroutines grew it.
func TestRandomForestClassifier_WorkerIndependence(t *testing.T) {
	X, y := blobs(10)
	fit := func(jobs int) mat.Matrix {
		rf := NewRandomForestClassifier(WithNEstimators(15), WithForestRandomState(7), WithForestNJobs(jobs))
		require.NoError(t, rf.Fit(X, y))
		p, err := rf.PredictProba(X)
		require.NoError(t, err)
		return p
	}
	assert.True(t, mat.Equal(fit(1), fit(8)))

	other := NewRandomForestClassifier(WithNEstimators(15), WithForestRandomState(8))
	require.NoError(t, other.Fit(X, y))
	assert.Equal(t, 15, other.NEstimators())
}

func TestRandomForestClassifier_NoBootstrap(t *testing.T) {
	X, y := blobs(10)
	rf := NewRandomForestClassifier(WithNEstimators(5), WithBootstrap(false), WithForestMaxFeatures(4), WithForestRandomState(1))
	require.NoError(t, rf.Fit(X, y))

	// every tree sees all samples and all features, so training accuracy is perfect
	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestRandomForestClassifier_Errors(t *testing.T) {
	X, y := blobs(5)

	rf := NewRandomForestClassifier()
	_, err := rf.Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	var verr *errors.ValidationError
	assert.True(t, errors.As(NewRandomForestClassifier(WithNEstimators(0)).Fit(X, y), &verr))
	assert.True(t, errors.As(NewRandomForestClassifier(WithForestCriterion("mse")).Fit(X, y), &verr))

	fitted := NewRandomForestClassifier(WithNEstimators(3), WithForestRandomState(0))
	require.NoError(t, fitted.Fit(X, y))
	_, err = fitted.Predict(mat.NewDense(2, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestRandomForestClassifier_Clone(t *testing.T) {
	X, y := blobs(5)
	rf := NewRandomForestClassifier(WithNEstimators(150), WithForestRandomState(42))
	require.NoError(t, rf.Fit(X, y))

	clone := rf.Clone()
	assert.Equal(t, rf.GetParams(), clone.GetParams())
	assert.Equal(t, 150, clone.GetParams()["n_estimators"])
	_, err := clone.Predict(X)
	assert.Error(t, err)
}
