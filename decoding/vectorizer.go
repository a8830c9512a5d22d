package decoding

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
	"github.com/mibench/mibench/preprocessing"
	"github.com/mibench/mibench/sklearn/decomposition"
)

// Vectorizer flattens every trial into one row of channels·times values.
type Vectorizer struct {
	state *model.StateManager
}

var _ model.TensorTransformer = (*Vectorizer)(nil)

func NewVectorizer() *Vectorizer {
	return &Vectorizer{state: model.NewStateManager()}
}

func (v *Vectorizer) Name() string { return "Vectorizer" }

func (v *Vectorizer) Clone() model.TensorTransformer { return NewVectorizer() }

// Fit records the trial shape; labels are ignored.
func (v *Vectorizer) Fit(X *tensor.Dense3, y []int) error {
	if err := checkFitInput("Vectorizer", X, y); err != nil {
		return err
	}
	trials, channels, times := X.Dims()
	v.state.SetDimensions(channels*times, trials)
	v.state.SetFitted()
	return nil
}

func (v *Vectorizer) Transform(X *tensor.Dense3) (*mat.Dense, error) {
	if err := v.state.RequireFitted("Vectorizer", "Transform"); err != nil {
		return nil, err
	}
	_, channels, times := X.Dims()
	if err := v.state.RequireFeatures("Vectorizer.Transform", channels*times); err != nil {
		return nil, err
	}
	return X.Flatten(), nil
}

func (v *Vectorizer) FitTransform(X *tensor.Dense3, y []int) (*mat.Dense, error) {
	if err := v.Fit(X, y); err != nil {
		return nil, err
	}
	return v.Transform(X)
}

// PCAFeatures chains Vectorizer, StandardScaler and PCA.
type PCAFeatures struct {
	nComponents int
	vectorizer  *Vectorizer
	scaler      *preprocessing.StandardScaler
	pca         *decomposition.PCA
}

var _ model.TensorTransformer = (*PCAFeatures)(nil)

// NewPCAFeatures creates the flattened-PCA feature extractor.
func NewPCAFeatures(nComponents int) *PCAFeatures {
	return &PCAFeatures{
		nComponents: nComponents,
		vectorizer:  NewVectorizer(),
		scaler:      preprocessing.NewStandardScalerDefault(),
		pca:         decomposition.NewPCA(nComponents),
	}
}

func (p *PCAFeatures) Name() string { return "PCA" }

func (p *PCAFeatures) Validate() error {
	if p.nComponents < 1 {
		return errors.NewConfigurationError(p.Name(), fmt.Sprintf("n_components must be >= 1, got %d", p.nComponents))
	}
	return nil
}

func (p *PCAFeatures) Clone() model.TensorTransformer { return NewPCAFeatures(p.nComponents) }

func (p *PCAFeatures) Fit(X *tensor.Dense3, y []int) error {
	_, err := p.FitTransform(X, y)
	return err
}

func (p *PCAFeatures) FitTransform(X *tensor.Dense3, y []int) (*mat.Dense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	flat, err := p.vectorizer.FitTransform(X, y)
	if err != nil {
		return nil, err
	}
	scaled, err := p.scaler.FitTransform(flat)
	if err != nil {
		return nil, errors.Wrap(err, "PCA features")
	}
	out, err := p.pca.FitTransform(scaled)
	if err != nil {
		return nil, errors.Wrap(err, "PCA features")
	}
	return mat.DenseCopyOf(out), nil
}

func (p *PCAFeatures) Transform(X *tensor.Dense3) (*mat.Dense, error) {
	flat, err := p.vectorizer.Transform(X)
	if err != nil {
		return nil, err
	}
	scaled, err := p.scaler.Transform(flat)
	if err != nil {
		return nil, err
	}
	out, err := p.pca.Transform(scaled)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(out), nil
}
