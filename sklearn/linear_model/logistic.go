package linear_model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/metrics"
	"github.com/mibench/mibench/pkg/errors"
)

// Solvers supported by LogisticRegression.
const (
	SolverLBFGS     = "lbfgs"
	SolverLiblinear = "liblinear"
)

// Penalties supported by LogisticRegression.
const (
	PenaltyL1   = "l1"
	PenaltyL2   = "l2"
	PenaltyNone = "none"
)

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression
//
// Multi-class problems are always solved one-vs-rest. With penalty "l1" the
// liblinear coordinate descent solver is used and the intercept is learnt as
// an extra, penalised feature whose value is interceptScaling.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty          string  // Regularization: "l1", "l2", "none"
	C                float64 // Inverse regularization strength (1/alpha)
	fitIntercept     bool    // Whether to fit intercept
	interceptScaling float64 // Value of the synthetic intercept feature (liblinear)
	randomState      int64   // Random seed, negative for a fresh seed on every Fit
	solver           string  // Solver: "lbfgs", "liblinear"
	maxIter          int     // Maximum iterations
	tol              float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per class
}

var _ model.ProbabilisticClassifier = (*LogisticRegression)(nil)

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:            model.NewStateManager(),
		penalty:          PenaltyL2,
		C:                1.0,
		fitIntercept:     true,
		interceptScaling: 1.0,
		randomState:      -1,
		solver:           SolverLBFGS,
		maxIter:          100,
		tol:              1e-4,
	}

	// Apply options
	for _, opt := range opts {
		opt(lr)
	}

	return lr
}

// Option functions

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRInterceptScaling sets the value of the synthetic intercept feature.
func WithLRInterceptScaling(scaling float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.interceptScaling = scaling
	}
}

// WithLRSolver sets the optimization solver
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed used to order coordinate updates
// and to initialise the gradient descent weights.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// Validate checks the hyperparameter combination.
func (lr *LogisticRegression) Validate() error {
	switch lr.penalty {
	case PenaltyL1, PenaltyL2, PenaltyNone:
	default:
		return errors.NewValidationError("penalty", "must be one of l1, l2, none", lr.penalty)
	}
	switch lr.solver {
	case SolverLBFGS, SolverLiblinear:
	default:
		return errors.NewValidationError("solver", "must be lbfgs or liblinear", lr.solver)
	}
	if lr.penalty == PenaltyL1 && lr.solver != SolverLiblinear {
		return errors.NewValidationError("solver", "penalty l1 is only supported by liblinear", lr.solver)
	}
	if lr.penalty == PenaltyNone && lr.solver == SolverLiblinear {
		return errors.NewValidationError("penalty", "liblinear does not support an unpenalised fit", lr.penalty)
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if lr.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")

	if err := lr.Validate(); err != nil {
		return err
	}
	labels, classes, err := model.CheckFitInput("LogisticRegression.Fit", X, y)
	if err != nil {
		return err
	}
	if len(classes) < 2 {
		return errors.NewModelError("LogisticRegression.Fit", "at least two classes are required", errors.ErrSingleClass)
	}
	nSamples, nFeatures := X.Dims()

	lr.state.Reset()
	lr.classes_ = classes
	lr.nClasses_ = len(classes)
	lr.nFeatures_ = nFeatures

	rng := lr.newRand()

	// Binary problems learn a single weight vector for classes[1].
	positives := classes
	if lr.nClasses_ == 2 {
		positives = classes[1:]
	}
	lr.coef_ = make([][]float64, len(positives))
	lr.intercept_ = make([]float64, len(positives))
	lr.nIter_ = make([]int, len(positives))

	var cols [][]float64
	if lr.solver == SolverLiblinear {
		cols = lr.featureColumns(X)
	}

	for k, class := range positives {
		target := make([]float64, nSamples)
		for i, label := range labels {
			if label == class {
				target[i] = 1
			} else {
				target[i] = -1
			}
		}

		if lr.solver == SolverLiblinear {
			w, iters, converged := lr.fitCoordinateDescent(cols, target, rng)
			if lr.fitIntercept {
				lr.intercept_[k] = w[nFeatures] * lr.interceptScaling
				w = w[:nFeatures]
			}
			lr.coef_[k] = w
			lr.nIter_[k] = iters
			if !converged {
				errors.Warn(errors.NewConvergenceWarning("liblinear", iters,
					fmt.Sprintf("class %d did not converge, increase the number of iterations", class)))
			}
		} else {
			lr.coef_[k] = make([]float64, nFeatures)
			for j := range lr.coef_[k] {
				lr.coef_[k][j] = rng.NormFloat64() * 0.01
			}
			lr.nIter_[k] = lr.fitGradientDescent(X, target, lr.coef_[k], &lr.intercept_[k])
		}

		if err := errors.CheckNumericalStability("LogisticRegression.Fit", lr.coef_[k], lr.nIter_[k]); err != nil {
			return err
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

func (lr *LogisticRegression) newRand() *rand.Rand {
	seed := uint64(lr.randomState)
	if lr.randomState < 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// featureColumns returns X column by column, followed by the intercept
// feature when one is fitted.
func (lr *LogisticRegression) featureColumns(X mat.Matrix) [][]float64 {
	nSamples, nFeatures := X.Dims()
	nCols := nFeatures
	if lr.fitIntercept {
		nCols++
	}
	cols := make([][]float64, nCols)
	for j := 0; j < nFeatures; j++ {
		cols[j] = make([]float64, nSamples)
		mat.Col(cols[j], j, X)
	}
	if lr.fitIntercept {
		bias := make([]float64, nSamples)
		for i := range bias {
			bias[i] = lr.interceptScaling
		}
		cols[nFeatures] = bias
	}
	return cols
}

// Line search constants of liblinear's CDN solver.
const (
	armijoSigma    = 0.01
	armijoBeta     = 0.5
	maxLineSearch  = 20
	hessianEpsilon = 1e-12
)

// fitCoordinateDescent minimises ||w||_1 + C Σ log(1 + exp(-y_i wᵀx_i)) by
// cyclic coordinate descent with one-dimensional Newton steps and an Armijo
// line search (Yuan et al., 2010). Coordinates are visited in a fresh random
// order on every sweep. It stops once the L1 norm of the minimum-norm
// subgradient falls below tol times its initial value.
func (lr *LogisticRegression) fitCoordinateDescent(cols [][]float64, y []float64, rng *rand.Rand) ([]float64, int, bool) {
	nSamples := len(y)
	w := make([]float64, len(cols))
	margin := make([]float64, nSamples) // wᵀx_i
	perm := make([]int, len(cols))
	for j := range perm {
		perm[j] = j
	}

	gnormInit := 0.0
	for iter := 1; iter <= lr.maxIter; iter++ {
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })

		gnorm := 0.0
		for _, j := range perm {
			col := cols[j]
			grad, hess := 0.0, hessianEpsilon
			for i, x := range col {
				if x == 0 {
					continue
				}
				tau := sigmoid(y[i] * margin[i])
				grad += lr.C * (tau - 1) * y[i] * x
				hess += lr.C * tau * (1 - tau) * x * x
			}

			gnorm += subgradientViolation(w[j], grad)

			d := newtonDirection(w[j], grad, hess)
			if math.Abs(d) < 1e-12 {
				continue
			}

			// Armijo rule on the composite objective.
			delta := grad*d + math.Abs(w[j]+d) - math.Abs(w[j])
			step := 1.0
			for ls := 0; ls < maxLineSearch; ls++ {
				change := math.Abs(w[j]+step*d) - math.Abs(w[j])
				for i, x := range col {
					if x == 0 {
						continue
					}
					change += lr.C * (logLoss(y[i]*(margin[i]+step*d*x)) - logLoss(y[i]*margin[i]))
				}
				if change <= armijoSigma*step*delta {
					w[j] += step * d
					floats.AddScaled(margin, step*d, col)
					break
				}
				step *= armijoBeta
			}
		}

		if iter == 1 {
			gnormInit = gnorm
		}
		if gnorm <= lr.tol*gnormInit {
			return w, iter, true
		}
	}
	return w, lr.maxIter, false
}

// subgradientViolation is the magnitude of the minimum-norm subgradient of
// the objective along one coordinate.
func subgradientViolation(w, grad float64) float64 {
	switch {
	case w > 0:
		return math.Abs(grad + 1)
	case w < 0:
		return math.Abs(grad - 1)
	default:
		return math.Max(0, math.Max(grad-1, -1-grad))
	}
}

// newtonDirection solves the one-dimensional quadratic model with the L1 term.
func newtonDirection(w, grad, hess float64) float64 {
	switch {
	case grad+1 <= hess*w:
		return -(grad + 1) / hess
	case grad-1 >= hess*w:
		return -(grad - 1) / hess
	default:
		return -w
	}
}

// logLoss computes log(1 + exp(-m)) without overflow.
func logLoss(m float64) float64 {
	if m > 0 {
		return math.Log1p(math.Exp(-m))
	}
	return -m + math.Log1p(math.Exp(m))
}

// fitGradientDescent fits one binary problem with labels in {-1, +1} by
// gradient descent on the mean log loss plus an L2 term. It returns the
// number of iterations run.
func (lr *LogisticRegression) fitGradientDescent(X mat.Matrix, y []float64, weights []float64, intercept *float64) int {
	nSamples, nFeatures := X.Dims()

	// Better learning rate schedule
	baseLearningRate := 1.0
	gradWeights := make([]float64, nFeatures)
	row := make([]float64, nFeatures)

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradWeights {
			gradWeights[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			mat.Row(row, i, X)
			z := *intercept + floats.Dot(row, weights)
			target := (y[i] + 1) / 2
			residual := sigmoid(z) - target
			gradIntercept += residual
			floats.AddScaled(gradWeights, residual, row)
		}

		// Scale gradients by number of samples
		floats.Scale(1/float64(nSamples), gradWeights)
		gradIntercept /= float64(nSamples)

		// Add L2 regularization gradient
		if lr.penalty == PenaltyL2 {
			lambda := 1.0 / lr.C
			floats.AddScaled(gradWeights, lambda, weights)
		}

		// Adaptive learning rate
		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		floats.AddScaled(weights, -learningRate, gradWeights)
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}

		// Check convergence
		maxGrad := math.Max(math.Abs(gradIntercept), floats.Norm(gradWeights, math.Inf(1)))
		if maxGrad < lr.tol {
			return iter + 1
		}
	}

	return lr.maxIter
}

// DecisionFunction returns the signed distance to every hyperplane: one
// column for binary problems, one per class otherwise.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "DecisionFunction"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}

	scores := mat.NewDense(nSamples, len(lr.coef_), nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		mat.Row(row, i, X)
		for k, w := range lr.coef_ {
			scores.Set(i, k, lr.intercept_[k]+floats.Dot(row, w))
		}
	}
	return scores, nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := scores.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if lr.nClasses_ == 2 {
			class := lr.classes_[0]
			if scores.At(i, 0) > 0 {
				class = lr.classes_[1]
			}
			predictions.Set(i, 0, float64(class))
			continue
		}
		predictions.Set(i, 0, float64(lr.classes_[floats.MaxIdx(scores.RawRowView(i))]))
	}

	return predictions, nil
}

// PredictProba returns probability estimates for each class. One-vs-rest
// probabilities are the per-class sigmoids normalised to sum to one.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := scores.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		if lr.nClasses_ == 2 {
			p := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
			continue
		}
		row := probas.RawRowView(i)
		for k := range row {
			row[k] = sigmoid(scores.At(i, k))
		}
		if sum := floats.Sum(row); sum > 0 {
			floats.Scale(1/sum, row)
		}
	}

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Classes returns the class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// Coef returns a copy of the learnt coefficients, one row per hyperplane.
func (lr *LogisticRegression) Coef() *mat.Dense {
	if len(lr.coef_) == 0 {
		return nil
	}
	coef := mat.NewDense(len(lr.coef_), lr.nFeatures_, nil)
	for k, w := range lr.coef_ {
		coef.SetRow(k, w)
	}
	return coef
}

// Intercept returns a copy of the intercept terms.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept_...)
}

// NIter returns the number of iterations run for every hyperplane.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// Clone returns an unfitted copy with the same hyperparameters.
func (lr *LogisticRegression) Clone() *LogisticRegression {
	clone := *lr
	clone.state = model.NewStateManager()
	clone.coef_ = nil
	clone.intercept_ = nil
	clone.classes_ = nil
	clone.nClasses_ = 0
	clone.nFeatures_ = 0
	clone.nIter_ = nil
	return &clone
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":           lr.penalty,
		"C":                 lr.C,
		"fit_intercept":     lr.fitIntercept,
		"intercept_scaling": lr.interceptScaling,
		"random_state":      lr.randomState,
		"solver":            lr.solver,
		"max_iter":          lr.maxIter,
		"multi_class":       "ovr",
		"tol":               lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "intercept_scaling":
			lr.interceptScaling, ok = value.(float64)
		case "random_state":
			lr.randomState, ok = value.(int64)
		case "solver":
			lr.solver, ok = value.(string)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
