// Package decoding implements supervised spatial filters for epoched EEG:
// Common Spatial Patterns (CSP), Source Power Comodulation (SPoC), plus
// vectorizing and PCA feature extractors. Every transformer maps a
// trials×channels×times tensor to a trials×features matrix and satisfies
// model.TensorTransformer.
package decoding

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
)

// FilterOption configures CSP and SPoC.
type FilterOption func(*filterConfig)

type filterConfig struct {
	nComponents int
	reg         string
	log         bool
}

// WithReg selects the covariance estimator: "" or "empirical" for the sample
// covariance, "oas" for Oracle Approximating Shrinkage.
func WithReg(reg string) FilterOption {
	return func(c *filterConfig) {
		c.reg = reg
	}
}

// WithLog selects natural-log power features (true, the default) or raw
// average power (false).
func WithLog(log bool) FilterOption {
	return func(c *filterConfig) {
		c.log = log
	}
}

func newFilterConfig(nComponents int, opts []FilterOption) filterConfig {
	cfg := filterConfig{nComponents: nComponents, reg: RegNone, log: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c filterConfig) options() []FilterOption {
	return []FilterOption{WithReg(c.reg), WithLog(c.log)}
}

func (c filterConfig) validate(name string) error {
	if c.nComponents < 1 {
		return errors.NewConfigurationError(name, fmt.Sprintf("n_components must be >= 1, got %d", c.nComponents))
	}
	if !validReg(c.reg) {
		return errors.NewConfigurationError(name, fmt.Sprintf("unknown reg %q", c.reg))
	}
	return nil
}

// spatialFilter holds fitted filters (components×channels) and turns trials
// into per-component average power.
type spatialFilter struct {
	state    *model.StateManager
	filters  *mat.Dense
	patterns *mat.Dense
	channels int
}

func newSpatialFilter() spatialFilter {
	return spatialFilter{state: model.NewStateManager()}
}

// setFilters stores the first picks rows of all (components×channels) and
// the matching patterns, taken from the pseudo-inverse of all.
func (f *spatialFilter) setFilters(all *mat.Dense, picks, trials int) error {
	_, channels := all.Dims()
	f.filters = mat.DenseCopyOf(all.Slice(0, picks, 0, channels))

	var pinv mat.Dense
	if err := pseudoInverse(&pinv, all); err != nil {
		return err
	}
	f.patterns = mat.DenseCopyOf(pinv.T())
	f.channels = channels
	f.state.SetDimensions(channels, trials)
	f.state.SetFitted()
	return nil
}

// Filters returns the fitted spatial filters, one component per row.
func (f *spatialFilter) Filters() *mat.Dense {
	if f.filters == nil {
		return nil
	}
	return mat.DenseCopyOf(f.filters)
}

// Patterns returns the spatial patterns, one component per row.
func (f *spatialFilter) Patterns() *mat.Dense {
	if f.patterns == nil {
		return nil
	}
	return mat.DenseCopyOf(f.patterns)
}

// IsFitted reports whether Fit has completed.
func (f *spatialFilter) IsFitted() bool {
	return f.state.IsFitted()
}

func (f *spatialFilter) power(name string, X *tensor.Dense3, logPower bool) (*mat.Dense, error) {
	if err := f.state.RequireFitted(name, "Transform"); err != nil {
		return nil, err
	}
	trials, channels, times := X.Dims()
	if channels != f.channels {
		return nil, errors.NewDimensionError(name+".Transform", f.channels, channels, 1)
	}
	components, _ := f.filters.Dims()

	out := mat.NewDense(trials, components, nil)
	var projected mat.Dense
	for i := 0; i < trials; i++ {
		projected.Reset()
		projected.Mul(f.filters, X.TrialView(i))
		for k := 0; k < components; k++ {
			var p float64
			for _, v := range projected.RawRowView(k) {
				p += v * v
			}
			p /= float64(times)
			if logPower {
				p = errors.StabilizeLog(p)
			}
			out.Set(i, k, p)
		}
	}
	if err := errors.CheckMatrix(name+".Transform", out); err != nil {
		return nil, err
	}
	return out, nil
}

// pseudoInverse computes the Moore-Penrose inverse through a thin SVD.
func pseudoInverse(dst *mat.Dense, a mat.Matrix) error {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return errors.New("pseudo-inverse: SVD did not converge")
	}
	r, c := a.Dims()
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cutoff := 1e-15 * float64(max(r, c))
	if len(values) > 0 {
		cutoff *= values[0]
	}
	inv := make([]float64, len(values))
	for i, s := range values {
		if s > cutoff {
			inv[i] = 1 / s
		}
	}
	// A⁺ = V Σ⁺ Uᵀ
	var vs mat.Dense
	vs.Apply(func(i, j int, x float64) float64 { return x * inv[j] }, &v)
	dst.Mul(&vs, u.T())
	return nil
}

// orderedRows returns the columns of vecs as rows, sorted by key descending.
func orderedRows(vecs *mat.Dense, key func(j int) float64) *mat.Dense {
	n, m := vecs.Dims()
	order := make([]int, m)
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return key(order[a]) > key(order[b])
	})
	rows := mat.NewDense(m, n, nil)
	col := make([]float64, n)
	for r, j := range order {
		mat.Col(col, j, vecs)
		rows.SetRow(r, col)
	}
	return rows
}

// labelsToClasses returns the sorted distinct labels and the trial indices of each.
func labelsToClasses(y []int) ([]int, map[int][]int) {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.Sort(classes)
	return classes, byClass
}

func checkFitInput(name string, X *tensor.Dense3, y []int) error {
	if X == nil {
		return errors.NewModelError(name+".Fit", "empty data", errors.ErrEmptyData)
	}
	trials, _, _ := X.Dims()
	if trials != len(y) {
		return errors.NewInputShapeError("training", []int{trials}, []int{len(y)})
	}
	return nil
}
