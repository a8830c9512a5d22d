package decoding

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
)

// SPoC implements Source Power Comodulation: spatial filters whose output
// power co-varies with a continuous target, here the standardized labels.
// Filters solve Cz w = λ C w where C is the mean trial covariance and Cz the
// target-weighted mean, ordered by |λ| descending.
type SPoC struct {
	spatialFilter
	cfg filterConfig
}

var _ model.TensorTransformer = (*SPoC)(nil)

// NewSPoC creates a SPoC transformer with nComponents spatial filters.
func NewSPoC(nComponents int, opts ...FilterOption) *SPoC {
	return &SPoC{
		spatialFilter: newSpatialFilter(),
		cfg:           newFilterConfig(nComponents, opts),
	}
}

func (s *SPoC) Name() string { return "SPoC" }

func (s *SPoC) NComponents() int { return s.cfg.nComponents }

func (s *SPoC) Validate() error {
	return s.cfg.validate(s.Name())
}

func (s *SPoC) Clone() model.TensorTransformer {
	return NewSPoC(s.cfg.nComponents, s.cfg.options()...)
}

// Fit estimates the filters from trials and their targets.
func (s *SPoC) Fit(X *tensor.Dense3, y []int) error {
	if err := checkFitInput("SPoC", X, y); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	target := make([]float64, len(y))
	for i, v := range y {
		target[i] = float64(v)
	}
	mean, std := stat.PopMeanStdDev(target, nil)
	if std == 0 || math.IsNaN(std) {
		return errors.NewModelError("SPoC.Fit", "target has zero variance", errors.ErrSingleClass)
	}
	for i := range target {
		target[i] = (target[i] - mean) / std
	}

	trials, channels, _ := X.Dims()
	c := mat.NewSymDense(channels, nil)
	cz := mat.NewSymDense(channels, nil)
	for i := 0; i < trials; i++ {
		cov, err := Covariance(X.TrialView(i), s.cfg.reg)
		if err != nil {
			return errors.Wrapf(err, "SPoC.Fit: trial %d", i)
		}
		c.AddSym(c, cov)
		var weighted mat.SymDense
		weighted.ScaleSym(target[i], cov)
		cz.AddSym(cz, &weighted)
	}
	c.ScaleSym(1/float64(trials), c)
	cz.ScaleSym(1/float64(trials), cz)

	vals, vecs, err := generalizedEigh(cz, c)
	if err != nil {
		return errors.Wrap(err, "SPoC.Fit")
	}
	all := orderedRows(vecs, func(j int) float64 { return math.Abs(vals[j]) })
	return s.setFilters(all, min(s.cfg.nComponents, channels), trials)
}

// Transform returns the (log) average power of every component.
func (s *SPoC) Transform(X *tensor.Dense3) (*mat.Dense, error) {
	return s.power("SPoC", X, s.cfg.log)
}

func (s *SPoC) FitTransform(X *tensor.Dense3, y []int) (*mat.Dense, error) {
	if err := s.Fit(X, y); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *SPoC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_components": s.cfg.nComponents,
		"reg":          s.cfg.reg,
		"log":          s.cfg.log,
	}
}
