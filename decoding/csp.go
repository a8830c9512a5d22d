package decoding

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
)

// CSP implements Common Spatial Patterns.
//
// For two classes the class covariances Σa, Σb are estimated from the
// concatenated trials of each class and the generalized eigenproblem
// Σa w = λ (Σa + Σb) w is solved; filters are ordered by |λ - 0.5| so that the
// first components maximize the variance of one class relative to the other.
// With more classes each class is contrasted against the rest and the
// per-class filters are interleaved. Features are the (log) average power of
// each component over the trial.
//
// If NComponents exceeds the number of available filters, all filters are used.
type CSP struct {
	spatialFilter
	cfg filterConfig
}

var _ model.TensorTransformer = (*CSP)(nil)

// NewCSP creates a CSP transformer with nComponents spatial filters.
//
//	csp := decoding.NewCSP(10, decoding.WithLog(true))
func NewCSP(nComponents int, opts ...FilterOption) *CSP {
	return &CSP{
		spatialFilter: newSpatialFilter(),
		cfg:           newFilterConfig(nComponents, opts),
	}
}

// Name returns "CSP".
func (c *CSP) Name() string { return "CSP" }

// NComponents returns the configured number of components.
func (c *CSP) NComponents() int { return c.cfg.nComponents }

// Validate checks the configuration.
func (c *CSP) Validate() error {
	return c.cfg.validate(c.Name())
}

// Clone returns an unfitted CSP with the same configuration.
func (c *CSP) Clone() model.TensorTransformer {
	return NewCSP(c.cfg.nComponents, c.cfg.options()...)
}

// Fit estimates the spatial filters from labelled trials.
func (c *CSP) Fit(X *tensor.Dense3, y []int) error {
	if err := checkFitInput("CSP", X, y); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	classes, byClass := labelsToClasses(y)
	if len(classes) < 2 {
		return errors.NewModelError("CSP.Fit", "at least two classes are required", errors.ErrSingleClass)
	}

	trials, _, _ := X.Dims()
	var all *mat.Dense
	var err error
	if len(classes) == 2 {
		all, err = c.contrast(X, byClass[classes[0]], byClass[classes[1]])
	} else {
		all, err = c.oneVersusRest(X, classes, byClass, trials)
	}
	if err != nil {
		return errors.Wrap(err, "CSP.Fit")
	}

	rows, _ := all.Dims()
	return c.setFilters(all, min(c.cfg.nComponents, rows), trials)
}

// contrast returns all filters discriminating trials a from trials b, ordered.
func (c *CSP) contrast(X *tensor.Dense3, a, b []int) (*mat.Dense, error) {
	covA, err := concatCovariance(X, a, c.cfg.reg)
	if err != nil {
		return nil, err
	}
	covB, err := concatCovariance(X, b, c.cfg.reg)
	if err != nil {
		return nil, err
	}
	var composite mat.SymDense
	composite.AddSym(covA, covB)

	vals, vecs, err := generalizedEigh(covA, &composite)
	if err != nil {
		return nil, err
	}
	return orderedRows(vecs, func(j int) float64 {
		return math.Abs(vals[j] - 0.5)
	}), nil
}

func (c *CSP) oneVersusRest(X *tensor.Dense3, classes []int, byClass map[int][]int, trials int) (*mat.Dense, error) {
	perClass := make([]*mat.Dense, len(classes))
	for k, cls := range classes {
		rest := make([]int, 0, trials-len(byClass[cls]))
		for _, other := range classes {
			if other != cls {
				rest = append(rest, byClass[other]...)
			}
		}
		filters, err := c.contrast(X, byClass[cls], rest)
		if err != nil {
			return nil, errors.Wrapf(err, "class %d versus rest", cls)
		}
		perClass[k] = filters
	}

	n, channels := perClass[0].Dims()
	all := mat.NewDense(n*len(classes), channels, nil)
	for r := 0; r < n; r++ {
		for k, filters := range perClass {
			all.SetRow(r*len(classes)+k, filters.RawRowView(r))
		}
	}
	return all, nil
}

// Transform projects each trial on the filters and returns the (log) average
// power of every component: a trials×NComponents matrix.
func (c *CSP) Transform(X *tensor.Dense3) (*mat.Dense, error) {
	return c.power("CSP", X, c.cfg.log)
}

// FitTransform fits the filters and transforms X.
func (c *CSP) FitTransform(X *tensor.Dense3, y []int) (*mat.Dense, error) {
	if err := c.Fit(X, y); err != nil {
		return nil, err
	}
	return c.Transform(X)
}

// GetParams returns the transformer's hyperparameters.
func (c *CSP) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": c.cfg.nComponents,
		"reg":          c.cfg.reg,
		"log":          c.cfg.log,
	}
}
