// Package model provides the estimator contracts shared by mibench packages.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter learns from n×d features X and an n×1 column of integer labels y.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor returns an n×1 column of predicted labels.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer は分類器では正解率（accuracy）を返す
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier combines interfaces for classification models.
//
// Predict returns an n×1 column of class labels, Score returns the fraction
// of correctly predicted labels.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// Classes returns the unique classes seen during fitting, ascending.
	Classes() []int
}

// ProbabilisticClassifier is a Classifier with per-class probability estimates.
type ProbabilisticClassifier interface {
	Classifier

	// PredictProba returns an n×len(Classes()) matrix of probabilities.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Validator is implemented by components whose configuration can be checked
// before any data is seen.
type Validator interface {
	Validate() error
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
