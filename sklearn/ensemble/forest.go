// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/parallel"
	"github.com/mibench/mibench/metrics"
	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/sklearn/tree"
)

// MaxFeaturesSqrt inspects floor(sqrt(n_features)) features per split.
const MaxFeaturesSqrt = -1

// RandomForestClassifier averages the class probabilities of decision trees
// grown on bootstrap resamples of the training data.
//
// Tree seeds are drawn from the forest seed before any tree is grown, so
// the fitted forest does not depend on the number of workers.
type RandomForestClassifier struct {
	state *model.StateManager

	nEstimators     int
	criterion       string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	bootstrap       bool
	randomState     int64
	nJobs           int

	trees    []*tree.DecisionTreeClassifier
	classes_ []int
}

var _ model.ProbabilisticClassifier = (*RandomForestClassifier)(nil)

// ForestOption is a functional option for RandomForestClassifier.
type ForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a forest with scikit-learn defaults:
// 100 trees, gini, bootstrap and sqrt features.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:           model.NewStateManager(),
		nEstimators:     100,
		criterion:       tree.CriterionGini,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     MaxFeaturesSqrt,
		bootstrap:       true,
		randomState:     -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

// WithForestCriterion sets the split criterion of every tree.
func WithForestCriterion(criterion string) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.criterion = criterion
	}
}

// WithForestMaxDepth limits the depth of every tree. Zero means unlimited.
func WithForestMaxDepth(depth int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

// WithForestMinSamplesSplit sets min_samples_split of every tree.
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesSplit = n
	}
}

// WithForestMinSamplesLeaf sets min_samples_leaf of every tree.
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesLeaf = n
	}
}

// WithForestMaxFeatures sets the features inspected per split:
// MaxFeaturesSqrt, tree.MaxFeaturesAll or a positive count.
func WithForestMaxFeatures(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.maxFeatures = n
	}
}

// WithBootstrap toggles bootstrap resampling. Without it every tree sees
// the full training set.
func WithBootstrap(bootstrap bool) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.bootstrap = bootstrap
	}
}

// WithForestRandomState seeds the forest. Negative values draw a fresh
// seed on every Fit.
func WithForestRandomState(seed int64) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.randomState = seed
	}
}

// WithForestNJobs sets the number of goroutines growing trees. Non-positive
// values use one per CPU.
func WithForestNJobs(n int) ForestOption {
	return func(rf *RandomForestClassifier) {
		rf.nJobs = n
	}
}

// Validate checks the forest level hyperparameters; tree level ones are
// checked by every tree.
func (rf *RandomForestClassifier) Validate() error {
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.nEstimators)
	}
	if rf.maxFeatures < MaxFeaturesSqrt {
		return errors.NewValidationError("max_features", "must be sqrt, all or a positive count", rf.maxFeatures)
	}
	return rf.newTree(1, 0).Validate()
}

func (rf *RandomForestClassifier) newTree(nFeatures int, seed int64) *tree.DecisionTreeClassifier {
	maxFeatures := rf.maxFeatures
	if maxFeatures == MaxFeaturesSqrt {
		maxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	return tree.NewDecisionTreeClassifier(
		tree.WithCriterion(rf.criterion),
		tree.WithMaxDepth(rf.maxDepth),
		tree.WithMinSamplesSplit(rf.minSamplesSplit),
		tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
		tree.WithMaxFeatures(maxFeatures),
		tree.WithTreeRandomState(seed),
	)
}

// Fit grows nEstimators trees in parallel.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestClassifier.Fit")

	if err := rf.Validate(); err != nil {
		return err
	}
	labels, classes, err := model.CheckFitInput("RandomForestClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	classIdx := model.ClassIndex(classes)
	encoded := make([]int, nSamples)
	for i, label := range labels {
		encoded[i] = classIdx[label]
	}
	data := mat.DenseCopyOf(X)

	seed := uint64(rf.randomState)
	if rf.randomState < 0 {
		seed = rand.Uint64()
	}
	master := rand.New(rand.NewPCG(seed, seed))
	seeds := make([]int64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = master.Int64()
	}

	trees := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	err = parallel.Chunks(rf.nEstimators, rf.nJobs, func(start, end int) error {
		for i := start; i < end; i++ {
			t := rf.newTree(nFeatures, seeds[i])
			rng := rand.New(rand.NewPCG(uint64(seeds[i]), uint64(seeds[i])))
			var weights []float64
			if rf.bootstrap {
				weights = bootstrapWeights(nSamples, rng)
			}
			if err := t.FitEncoded(data, encoded, classes, weights, rng); err != nil {
				return errors.Wrapf(err, "tree %d", i)
			}
			trees[i] = t
		}
		return nil
	})
	if err != nil {
		return err
	}

	rf.trees = trees
	rf.classes_ = classes
	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()
	return nil
}

// bootstrapWeights draws n samples with replacement and returns how often
// each sample was drawn.
func bootstrapWeights(n int, rng *rand.Rand) []float64 {
	counts := make([]float64, n)
	for i := 0; i < n; i++ {
		counts[rng.IntN(n)]++
	}
	return counts
}

// PredictProba averages the class probabilities of all trees.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	probas, err := rf.predictProba(X)
	if err != nil {
		return nil, err
	}
	return probas, nil
}

func (rf *RandomForestClassifier) predictProba(X mat.Matrix) (*mat.Dense, error) {
	_, d := X.Dims()
	if err := rf.state.RequireFeatures("RandomForestClassifier.PredictProba", d); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	sum := mat.NewDense(n, len(rf.classes_), nil)
	for _, t := range rf.trees {
		p, err := t.PredictProba(X)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, p)
	}
	sum.Scale(1/float64(len(rf.trees)), sum)
	return sum, nil
}

// Predict returns the class with the largest averaged probability.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "Predict"); err != nil {
		return nil, err
	}
	probas, err := rf.predictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := probas.Dims()
	pred := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		pred.Set(i, 0, float64(rf.classes_[floats.MaxIdx(probas.RawRowView(i))]))
	}
	return pred, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes returns the class labels seen during Fit.
func (rf *RandomForestClassifier) Classes() []int {
	return append([]int(nil), rf.classes_...)
}

// NEstimators returns the number of fitted trees.
func (rf *RandomForestClassifier) NEstimators() int {
	return len(rf.trees)
}

// FeatureImportances returns the mean impurity based importance over trees.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	if len(rf.trees) == 0 {
		return nil
	}
	nFeatures, _ := rf.state.GetDimensions()
	imp := make([]float64, nFeatures)
	for _, t := range rf.trees {
		floats.Add(imp, t.GetFeatureImportances())
	}
	if total := floats.Sum(imp); total > 0 {
		floats.Scale(1/total, imp)
	}
	return imp
}

// Clone returns an unfitted copy with the same hyperparameters.
func (rf *RandomForestClassifier) Clone() *RandomForestClassifier {
	clone := *rf
	clone.state = model.NewStateManager()
	clone.trees = nil
	clone.classes_ = nil
	return &clone
}

// GetParams returns the model hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"criterion":         rf.criterion,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"max_features":      rf.maxFeatures,
		"bootstrap":         rf.bootstrap,
		"random_state":      rf.randomState,
		"n_jobs":            rf.nJobs,
	}
}
