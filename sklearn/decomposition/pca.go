// Package decomposition provides principal component analysis.
package decomposition

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/pkg/errors"
)

// PCA projects centred data on its leading principal directions.
// Compatible with scikit-learn's PCA(n_components=k) for integer k.
type PCA struct {
	state *model.StateManager

	nComponents int

	mean                   []float64
	components             *mat.Dense // n_features × k, one direction per column
	explainedVariance      []float64
	explainedVarianceRatio []float64
}

var _ model.Transformer = (*PCA)(nil)

// NewPCA creates a PCA keeping nComponents directions.
func NewPCA(nComponents int) *PCA {
	return &PCA{state: model.NewStateManager(), nComponents: nComponents}
}

// Fit learns the principal directions of X (n_samples × n_features).
func (p *PCA) Fit(X mat.Matrix) error {
	if p.nComponents < 1 {
		return errors.NewValidationError("n_components", "must be >= 1", p.nComponents)
	}
	r, c := X.Dims()
	if r < 2 || c == 0 {
		return errors.NewModelError("PCA.Fit", "at least two samples are required", errors.ErrEmptyData)
	}
	k := min(p.nComponents, r, c)

	var pc stat.PC
	if !pc.PrincipalComponents(X, nil) {
		return errors.New("PCA.Fit: SVD did not converge")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	p.mean = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		p.mean[j] = stat.Mean(col, nil)
	}

	p.components = mat.DenseCopyOf(vecs.Slice(0, c, 0, k))
	flipSigns(p.components)
	p.explainedVariance = append([]float64(nil), vars[:k]...)
	total := floats.Sum(vars)
	p.explainedVarianceRatio = make([]float64, k)
	if total > 0 {
		for i, v := range p.explainedVariance {
			p.explainedVarianceRatio[i] = v / total
		}
	}

	p.state.SetDimensions(c, r)
	p.state.SetFitted()
	return nil
}

// flipSigns makes the largest-magnitude loading of every direction positive
// so that results do not depend on the SVD's arbitrary signs.
func flipSigns(components *mat.Dense) {
	rows, cols := components.Dims()
	for j := 0; j < cols; j++ {
		best := 0.0
		for i := 0; i < rows; i++ {
			if v := components.At(i, j); abs(v) > abs(best) {
				best = v
			}
		}
		if best < 0 {
			for i := 0; i < rows; i++ {
				components.Set(i, j, -components.At(i, j))
			}
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Transform projects X on the fitted directions.
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.state.RequireFitted("PCA", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := p.state.RequireFeatures("PCA.Transform", c); err != nil {
		return nil, err
	}
	centred := mat.NewDense(r, c, nil)
	centred.Apply(func(i, j int, v float64) float64 { return v - p.mean[j] }, X)

	var out mat.Dense
	out.Mul(centred, p.components)
	return &out, nil
}

// FitTransform fits on X and returns its projection.
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// Components returns the principal directions as columns.
func (p *PCA) Components() *mat.Dense {
	if p.components == nil {
		return nil
	}
	return mat.DenseCopyOf(p.components)
}

// ExplainedVarianceRatio returns the fraction of variance of each kept direction.
func (p *PCA) ExplainedVarianceRatio() []float64 {
	return append([]float64(nil), p.explainedVarianceRatio...)
}

// Clone returns an unfitted PCA with the same configuration.
func (p *PCA) Clone() *PCA {
	return NewPCA(p.nComponents)
}

func (p *PCA) String() string {
	return fmt.Sprintf("PCA(n_components=%d)", p.nComponents)
}
