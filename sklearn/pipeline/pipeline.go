// Package pipeline chains one spatial-filter transformer with one classifier.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/core/model"
	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/metrics"
	"github.com/mibench/mibench/pkg/errors"
)

// ClassifierFactory builds a fresh, unfitted classifier.
type ClassifierFactory func() model.Classifier

// Pipeline applies a TensorTransformer to trial epochs and feeds the
// resulting trials×features matrix to a classifier.
//
// A Pipeline owns its transformer. Fit replaces the classifier with a new
// instance from the factory, so refitting never reuses fitted state.
type Pipeline struct {
	name          string
	transformer   model.TensorTransformer
	newClassifier ClassifierFactory
	classifier    model.Classifier
}

// New creates a pipeline. It does not validate its arguments; see Validate.
func New(name string, transformer model.TensorTransformer, newClassifier ClassifierFactory) *Pipeline {
	return &Pipeline{
		name:          name,
		transformer:   transformer,
		newClassifier: newClassifier,
	}
}

// Name returns the display name used in reports.
func (p *Pipeline) Name() string { return p.name }

// Transformer returns the pipeline's transformer.
func (p *Pipeline) Transformer() model.TensorTransformer { return p.transformer }

// Classifier returns the fitted classifier, or nil before Fit.
func (p *Pipeline) Classifier() model.Classifier { return p.classifier }

// Validate checks that both stages are present and that the transformer
// configuration is valid.
func (p *Pipeline) Validate() error {
	if p.transformer == nil {
		return errors.NewConfigurationError(p.name, "transformer is nil")
	}
	if p.newClassifier == nil {
		return errors.NewConfigurationError(p.name, "classifier factory is nil")
	}
	if v, ok := p.transformer.(model.Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrapf(err, "%s: %s", p.name, p.transformer.Name())
		}
	}
	return nil
}

// Fit fits the transformer on (X, y), then a new classifier on the
// transformed features.
func (p *Pipeline) Fit(X *tensor.Dense3, y []int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	features, err := p.transformer.FitTransform(X, y)
	if err != nil {
		return errors.Wrapf(err, "%s: fit %s", p.name, p.transformer.Name())
	}
	clf := p.newClassifier()
	if clf == nil {
		return errors.NewConfigurationError(p.name, "classifier factory returned nil")
	}
	if err := clf.Fit(features, model.LabelsToMatrix(y)); err != nil {
		return errors.Wrapf(err, "%s: fit classifier", p.name)
	}
	p.classifier = clf
	return nil
}

func (p *Pipeline) features(X *tensor.Dense3) (*mat.Dense, error) {
	if p.classifier == nil {
		return nil, errors.NewNotFittedError(p.name, "Predict")
	}
	features, err := p.transformer.Transform(X)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: transform", p.name)
	}
	return features, nil
}

// Predict returns one class label per trial.
func (p *Pipeline) Predict(X *tensor.Dense3) ([]int, error) {
	features, err := p.features(X)
	if err != nil {
		return nil, err
	}
	pred, err := p.classifier.Predict(features)
	if err != nil {
		return nil, err
	}
	return model.LabelsFromMatrix(p.name+".Predict", pred)
}

// Score returns the accuracy of the pipeline on (X, y).
func (p *Pipeline) Score(X *tensor.Dense3, y []int) (float64, error) {
	trials, _, _ := X.Dims()
	if trials != len(y) {
		return 0, errors.NewFeatureShapeError("scoring", "labels", []int{trials}, []int{len(y)})
	}
	features, err := p.features(X)
	if err != nil {
		return 0, err
	}
	pred, err := p.classifier.Predict(features)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyLabels(y, pred)
}

// Clone returns an unfitted pipeline with a cloned transformer and the
// same classifier factory.
func (p *Pipeline) Clone() *Pipeline {
	var t model.TensorTransformer
	if p.transformer != nil {
		t = p.transformer.Clone()
	}
	return New(p.name, t, p.newClassifier)
}
