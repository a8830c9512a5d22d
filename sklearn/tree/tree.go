// Package tree provides CART decision tree classifiers.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/metrics"
	"github.com/mibench/mibench/pkg/errors"
)

// Split quality criteria.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// MaxFeaturesAll considers every feature at each split.
const MaxFeaturesAll = 0

// leaf marks a node without children.
const leaf = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	depth     int
	// value holds the weighted class distribution of the node, normalised.
	value []float64
}

// DecisionTreeClassifier is a CART classifier grown depth first with the
// best-split strategy.
//
// Features are visited in a random order at every node; with maxFeatures
// set, the search inspects that many features but keeps drawing until at
// least one valid split has been found.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string
	maxDepth        int // <= 0 grows until leaves are pure
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // MaxFeaturesAll or a positive count
	randomState     int64

	// Fitted structure
	nodes        []node
	classes_     []int
	nClasses_    int
	nFeatures_   int
	importances_ []float64
}

var _ model.ProbabilisticClassifier = (*DecisionTreeClassifier)(nil)

// DecisionTreeOption is a functional option for DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a decision tree with scikit-learn defaults.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       CriterionGini,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     MaxFeaturesAll,
		randomState:     -1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithCriterion sets the impurity measure, "gini" or "entropy".
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits the depth of the tree. Zero means unlimited.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets how many features are inspected per split.
func WithMaxFeatures(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithTreeRandomState seeds the feature permutation. Negative values draw a
// fresh seed on every Fit.
func WithTreeRandomState(seed int64) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// Validate checks the hyperparameters.
func (dt *DecisionTreeClassifier) Validate() error {
	if dt.criterion != CriterionGini && dt.criterion != CriterionEntropy {
		return errors.NewValidationError("criterion", "must be gini or entropy", dt.criterion)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	if dt.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must not be negative", dt.maxFeatures)
	}
	return nil
}

// Fit grows the tree on X and the labels in y.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")

	if err := dt.Validate(); err != nil {
		return err
	}
	labels, classes, err := model.CheckFitInput("DecisionTreeClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	classIdx := model.ClassIndex(classes)
	encoded := make([]int, len(labels))
	for i, label := range labels {
		encoded[i] = classIdx[label]
	}

	seed := uint64(dt.randomState)
	if dt.randomState < 0 {
		seed = rand.Uint64()
	}
	return dt.FitEncoded(mat.DenseCopyOf(X), encoded, classes, nil, rand.New(rand.NewPCG(seed, seed)))
}

// FitEncoded grows the tree from class indices into classes, drawing the
// feature order from rng. Samples with zero weight are ignored and nil
// weights count every sample once. Ensembles use it to share one class
// encoding and one random stream per tree.
func (dt *DecisionTreeClassifier) FitEncoded(X *mat.Dense, y []int, classes []int, weights []float64, rng *rand.Rand) error {
	if err := dt.Validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	if len(y) != nSamples || (weights != nil && len(weights) != nSamples) {
		return errors.NewInputShapeError("training", []int{nSamples}, []int{len(y)})
	}
	if weights == nil {
		weights = make([]float64, nSamples)
		for i := range weights {
			weights[i] = 1
		}
	}

	samples := make([]int, 0, nSamples)
	for i, w := range weights {
		if w != 0 {
			samples = append(samples, i)
		}
	}
	if len(samples) == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}

	b := &builder{
		tree:     dt,
		X:        X,
		y:        y,
		weights:  weights,
		nClasses: len(classes),
		rng:      rng,
		features: make([]int, nFeatures),
		imp:      make([]float64, nFeatures),
	}
	for j := range b.features {
		b.features[j] = j
	}

	dt.state.Reset()
	dt.nodes = dt.nodes[:0]
	dt.classes_ = classes
	dt.nClasses_ = len(classes)
	dt.nFeatures_ = nFeatures
	b.grow(samples, 0)

	if total := floats.Sum(b.imp); total > 0 {
		floats.Scale(1/total, b.imp)
	}
	dt.importances_ = b.imp

	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

type builder struct {
	tree     *DecisionTreeClassifier
	X        *mat.Dense
	y        []int
	weights  []float64
	nClasses int
	rng      *rand.Rand
	features []int
	imp      []float64
}

type split struct {
	feature   int
	threshold float64
	pos       int     // samples[:pos] go left after sorting on feature
	proxy     float64 // weighted child impurity, lower is better
}

// grow appends the node for samples and its subtree, returning its index.
func (b *builder) grow(samples []int, depth int) int {
	dt := b.tree
	counts := b.classCounts(samples)
	total := floats.Sum(counts)
	impurity := b.impurity(counts, total)

	idx := len(dt.nodes)
	value := slices.Clone(counts)
	floats.Scale(1/total, value)
	dt.nodes = append(dt.nodes, node{feature: leaf, left: leaf, right: leaf, depth: depth, value: value})

	n := len(samples)
	isLeaf := (dt.maxDepth > 0 && depth >= dt.maxDepth) ||
		n < dt.minSamplesSplit ||
		n < 2*dt.minSamplesLeaf ||
		impurity <= 1e-12
	if isLeaf {
		return idx
	}

	best, ok := b.bestSplit(samples)
	if !ok {
		return idx
	}
	sortByFeature(b.X, samples, best.feature)

	left, right := samples[:best.pos], samples[best.pos:]
	leftCounts := b.classCounts(left)
	rightCounts := b.classCounts(right)
	wl, wr := floats.Sum(leftCounts), floats.Sum(rightCounts)
	b.imp[best.feature] += total*impurity - wl*b.impurity(leftCounts, wl) - wr*b.impurity(rightCounts, wr)

	// children get their own backing arrays since sorting reorders in place
	l := b.grow(slices.Clone(left), depth+1)
	r := b.grow(slices.Clone(right), depth+1)
	dt.nodes[idx].feature = best.feature
	dt.nodes[idx].threshold = best.threshold
	dt.nodes[idx].left = l
	dt.nodes[idx].right = r
	return idx
}

// bestSplit searches the node's features in random order.
func (b *builder) bestSplit(samples []int) (split, bool) {
	dt := b.tree
	nFeatures := len(b.features)
	maxFeatures := dt.maxFeatures
	if maxFeatures == MaxFeaturesAll || maxFeatures > nFeatures {
		maxFeatures = nFeatures
	}

	best := split{proxy: math.Inf(1)}
	found := false
	visited := 0
	for k := 0; k < nFeatures && (visited < maxFeatures || !found); k++ {
		// partial Fisher-Yates draw of the next feature
		swap := k + b.rng.IntN(nFeatures-k)
		b.features[k], b.features[swap] = b.features[swap], b.features[k]
		f := b.features[k]

		sortByFeature(b.X, samples, f)
		if b.X.At(samples[len(samples)-1], f) <= b.X.At(samples[0], f)+1e-7 {
			// constant feature in this node
			continue
		}
		visited++
		if s, ok := b.scanFeature(samples, f); ok && s.proxy < best.proxy {
			best = s
			found = true
		}
	}
	return best, found
}

// scanFeature evaluates every threshold of feature f. samples must be sorted
// by f.
func (b *builder) scanFeature(samples []int, f int) (split, bool) {
	dt := b.tree
	n := len(samples)
	left := make([]float64, b.nClasses)
	right := b.classCounts(samples)
	wl, wr := 0.0, floats.Sum(right)

	best := split{feature: f, proxy: math.Inf(1)}
	found := false
	for pos := 1; pos < n; pos++ {
		i := samples[pos-1]
		w := b.weights[i]
		left[b.y[i]] += w
		right[b.y[i]] -= w
		wl += w
		wr -= w

		lo, hi := b.X.At(i, f), b.X.At(samples[pos], f)
		if hi <= lo+1e-7 {
			continue
		}
		if pos < dt.minSamplesLeaf || n-pos < dt.minSamplesLeaf {
			continue
		}
		proxy := wl*b.impurity(left, wl) + wr*b.impurity(right, wr)
		if proxy < best.proxy {
			threshold := lo/2 + hi/2
			if threshold == hi || math.IsInf(threshold, 0) {
				threshold = lo
			}
			best = split{feature: f, threshold: threshold, pos: pos, proxy: proxy}
			found = true
		}
	}
	return best, found
}

func (b *builder) classCounts(samples []int) []float64 {
	counts := make([]float64, b.nClasses)
	for _, i := range samples {
		counts[b.y[i]] += b.weights[i]
	}
	return counts
}

func (b *builder) impurity(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	switch b.tree.criterion {
	case CriterionEntropy:
		h := 0.0
		for _, c := range counts {
			if c > 0 {
				p := c / total
				h -= p * math.Log2(p)
			}
		}
		return h
	default:
		g := 1.0
		for _, c := range counts {
			p := c / total
			g -= p * p
		}
		return g
	}
}

func sortByFeature(X *mat.Dense, samples []int, f int) {
	slices.SortStableFunc(samples, func(a, b int) int {
		va, vb := X.At(a, f), X.At(b, f)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return a - b
		}
	})
}

// apply returns the leaf reached by one sample.
func (dt *DecisionTreeClassifier) apply(row []float64) *node {
	nd := &dt.nodes[0]
	for nd.left != leaf {
		if row[nd.feature] <= nd.threshold {
			nd = &dt.nodes[nd.left]
		} else {
			nd = &dt.nodes[nd.right]
		}
	}
	return nd
}

func (dt *DecisionTreeClassifier) checkPredict(method string, X mat.Matrix) error {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", method); err != nil {
		return err
	}
	_, d := X.Dims()
	return dt.state.RequireFeatures("DecisionTreeClassifier."+method, d)
}

// PredictProba returns the class distribution of the leaf reached by each row.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredict("PredictProba", X); err != nil {
		return nil, err
	}
	return dt.predictProba(X), nil
}

func (dt *DecisionTreeClassifier) predictProba(X mat.Matrix) *mat.Dense {
	n, d := X.Dims()
	probas := mat.NewDense(n, dt.nClasses_, nil)
	row := make([]float64, d)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		probas.SetRow(i, dt.apply(row).value)
	}
	return probas
}

// Predict returns the most probable class for each row.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredict("Predict", X); err != nil {
		return nil, err
	}
	probas := dt.predictProba(X)
	n, _ := probas.Dims()
	pred := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		pred.Set(i, 0, float64(dt.classes_[floats.MaxIdx(probas.RawRowView(i))]))
	}
	return pred, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes returns the class labels seen during Fit.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// GetFeatureImportances returns the normalised total impurity decrease
// contributed by each feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.importances_...)
}

// GetDepth returns the depth of the deepest leaf.
func (dt *DecisionTreeClassifier) GetDepth() int {
	depth := 0
	for _, nd := range dt.nodes {
		depth = max(depth, nd.depth)
	}
	return depth
}

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	n := 0
	for _, nd := range dt.nodes {
		if nd.left == leaf {
			n++
		}
	}
	return n
}

// Clone returns an unfitted copy with the same hyperparameters.
func (dt *DecisionTreeClassifier) Clone() *DecisionTreeClassifier {
	return &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       dt.criterion,
		maxDepth:        dt.maxDepth,
		minSamplesSplit: dt.minSamplesSplit,
		minSamplesLeaf:  dt.minSamplesLeaf,
		maxFeatures:     dt.maxFeatures,
		randomState:     dt.randomState,
	}
}

// GetParams returns the model hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "criterion":
			dt.criterion, ok = value.(string)
		case "max_depth":
			dt.maxDepth, ok = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf, ok = value.(int)
		case "max_features":
			dt.maxFeatures, ok = value.(int)
		case "random_state":
			dt.randomState, ok = value.(int64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}
