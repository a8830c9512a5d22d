// Package discriminant_analysis provides Linear Discriminant Analysis.
package discriminant_analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/metrics"
	"github.com/mibench/mibench/pkg/errors"
)

// LinearDiscriminantAnalysis is a classifier with a linear decision boundary,
// obtained by fitting class-conditional Gaussians that share one covariance
// matrix and applying Bayes' rule.
//
// It follows scikit-learn's default "svd" solver: the within-class scatter is
// never inverted explicitly, so collinear features (rank-deficient scatter)
// are handled by dropping directions whose singular value is below Tol.
type LinearDiscriminantAnalysis struct {
	state *model.StateManager

	tol    float64
	priors []float64 // nil: estimated from class frequencies

	classes   []int
	means     *mat.Dense // n_classes × n_features
	coef      *mat.Dense // n_classes × n_features
	intercept []float64
	prior     []float64
}

var _ model.ProbabilisticClassifier = (*LinearDiscriminantAnalysis)(nil)

// LDAOption is a functional option for LinearDiscriminantAnalysis.
type LDAOption func(*LinearDiscriminantAnalysis)

// WithLDATol sets the singular value threshold used to estimate the rank.
func WithLDATol(tol float64) LDAOption {
	return func(l *LinearDiscriminantAnalysis) {
		l.tol = tol
	}
}

// WithLDAPriors fixes the class priors instead of estimating them.
func WithLDAPriors(priors []float64) LDAOption {
	return func(l *LinearDiscriminantAnalysis) {
		l.priors = append([]float64(nil), priors...)
	}
}

// NewLinearDiscriminantAnalysis creates an LDA classifier.
func NewLinearDiscriminantAnalysis(opts ...LDAOption) *LinearDiscriminantAnalysis {
	l := &LinearDiscriminantAnalysis{
		state: model.NewStateManager(),
		tol:   1e-4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fit estimates class means, priors and the discriminant directions.
func (l *LinearDiscriminantAnalysis) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearDiscriminantAnalysis.Fit")

	labels, classes, err := model.CheckFitInput("LinearDiscriminantAnalysis.Fit", X, y)
	if err != nil {
		return err
	}
	n, d := X.Dims()
	k := len(classes)
	if k < 2 {
		return errors.NewModelError("LinearDiscriminantAnalysis.Fit", "at least two classes are required", errors.ErrSingleClass)
	}
	if n <= k {
		return errors.NewValueError("LinearDiscriminantAnalysis.Fit",
			fmt.Sprintf("the number of samples (%d) must be more than the number of classes (%d)", n, k))
	}
	classIdx := model.ClassIndex(classes)

	// priors and class means
	counts := make([]float64, k)
	means := mat.NewDense(k, d, nil)
	for i, label := range labels {
		c := classIdx[label]
		counts[c]++
		for j := 0; j < d; j++ {
			means.Set(c, j, means.At(c, j)+X.At(i, j))
		}
	}
	for c := 0; c < k; c++ {
		row := means.RawRowView(c)
		floats.Scale(1/counts[c], row)
	}
	prior := make([]float64, k)
	if l.priors != nil {
		if len(l.priors) != k {
			return errors.NewValidationError("priors", fmt.Sprintf("must have %d entries", k), l.priors)
		}
		copy(prior, l.priors)
		floats.Scale(1/floats.Sum(prior), prior)
	} else {
		for c := range prior {
			prior[c] = counts[c] / float64(n)
		}
	}

	// within-class centred data, scaled per feature
	xc := mat.NewDense(n, d, nil)
	for i, label := range labels {
		c := classIdx[label]
		for j := 0; j < d; j++ {
			xc.Set(i, j, X.At(i, j)-means.At(c, j))
		}
	}
	std := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, xc)
		std[j] = stat.PopStdDev(col, nil)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	fac := math.Sqrt(1 / float64(n-k))
	xc.Apply(func(_, j int, v float64) float64 { return fac * v / std[j] }, xc)

	var svd mat.SVD
	if !svd.Factorize(xc, mat.SVDThin) {
		return errors.New("LinearDiscriminantAnalysis.Fit: SVD of within-class data did not converge")
	}
	s := svd.Values(nil)
	rank := countAbove(s, l.tol)
	if rank == 0 {
		return errors.Wrap(errors.ErrSingularMatrix, "LinearDiscriminantAnalysis.Fit: within-class data has rank 0")
	}
	var v mat.Dense
	svd.VTo(&v)
	// scalings = (V[:, :rank] / std) / S[:rank]
	scalings := mat.NewDense(d, rank, nil)
	for j := 0; j < d; j++ {
		for r := 0; r < rank; r++ {
			scalings.Set(j, r, v.At(j, r)/std[j]/s[r])
		}
	}

	// between-class scatter in the sphered space
	xbar := make([]float64, d)
	for c := 0; c < k; c++ {
		floats.AddScaled(xbar, prior[c], means.RawRowView(c))
	}
	centredMeans := mat.NewDense(k, d, nil)
	between := mat.NewDense(k, d, nil)
	classFac := 1 / float64(k-1)
	for c := 0; c < k; c++ {
		w := math.Sqrt(float64(n) * prior[c] * classFac)
		for j := 0; j < d; j++ {
			centredMeans.Set(c, j, means.At(c, j)-xbar[j])
			between.Set(c, j, w*(means.At(c, j)-xbar[j]))
		}
	}
	var sphered mat.Dense
	sphered.Mul(between, scalings)

	var svd2 mat.SVD
	if !svd2.Factorize(&sphered, mat.SVDThin) {
		return errors.New("LinearDiscriminantAnalysis.Fit: SVD of class means did not converge")
	}
	s2 := svd2.Values(nil)
	coef := mat.NewDense(k, d, nil)
	intercept := make([]float64, k)
	if rank2 := countAbove(s2, l.tol*s2[0]); rank2 > 0 {
		var v2 mat.Dense
		svd2.VTo(&v2)
		var final mat.Dense
		final.Mul(scalings, v2.Slice(0, rank, 0, rank2))

		var projected mat.Dense
		projected.Mul(centredMeans, &final)
		for c := 0; c < k; c++ {
			row := projected.RawRowView(c)
			intercept[c] = -0.5 * floats.Dot(row, row)
		}
		coef.Mul(&projected, final.T())
	}
	for c := 0; c < k; c++ {
		intercept[c] += errors.StabilizeLog(prior[c]) - floats.Dot(xbar, coef.RawRowView(c))
	}

	if err := errors.CheckMatrix("LinearDiscriminantAnalysis.Fit", coef); err != nil {
		return err
	}

	l.classes = classes
	l.means = means
	l.coef = coef
	l.intercept = intercept
	l.prior = prior
	l.state.SetDimensions(d, n)
	l.state.SetFitted()
	return nil
}

func countAbove(values []float64, tol float64) int {
	n := 0
	for _, v := range values {
		if v > tol {
			n++
		}
	}
	return n
}

// DecisionFunction returns X·coefᵀ + intercept, one column per class.
func (l *LinearDiscriminantAnalysis) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := l.state.RequireFitted("LinearDiscriminantAnalysis", "DecisionFunction"); err != nil {
		return nil, err
	}
	_, d := X.Dims()
	if err := l.state.RequireFeatures("LinearDiscriminantAnalysis.DecisionFunction", d); err != nil {
		return nil, err
	}
	var scores mat.Dense
	scores.Mul(X, l.coef.T())
	scores.Apply(func(_, c int, v float64) float64 { return v + l.intercept[c] }, &scores)
	return &scores, nil
}

// Predict returns the class with the largest discriminant for every row.
func (l *LinearDiscriminantAnalysis) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := l.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, _ := scores.Dims()
	pred := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		pred.Set(i, 0, float64(l.classes[floats.MaxIdx(scores.RawRowView(i))]))
	}
	return pred, nil
}

// PredictProba returns the posterior class probabilities.
func (l *LinearDiscriminantAnalysis) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := l.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n, _ := scores.Dims()
	for i := 0; i < n; i++ {
		row := scores.RawRowView(i)
		lse := errors.LogSumExp(row)
		for c := range row {
			row[c] = math.Exp(row[c] - lse)
		}
	}
	return scores, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (l *LinearDiscriminantAnalysis) Score(X, y mat.Matrix) (float64, error) {
	pred, err := l.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes returns the class labels seen during Fit.
func (l *LinearDiscriminantAnalysis) Classes() []int {
	return append([]int(nil), l.classes...)
}

// Coef returns the n_classes × n_features discriminant weights.
func (l *LinearDiscriminantAnalysis) Coef() *mat.Dense {
	if l.coef == nil {
		return nil
	}
	return mat.DenseCopyOf(l.coef)
}

// Priors returns the class priors used by the model.
func (l *LinearDiscriminantAnalysis) Priors() []float64 {
	return append([]float64(nil), l.prior...)
}

// GetParams returns the model's hyperparameters.
func (l *LinearDiscriminantAnalysis) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"solver": "svd",
		"tol":    l.tol,
		"priors": l.priors,
	}
}
