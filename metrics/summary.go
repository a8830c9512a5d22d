package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mibench/mibench/pkg/errors"
)

// Summary is the mean and population standard deviation of a score sample.
type Summary struct {
	Mean float64
	Std  float64
}

// MeanStd returns the arithmetic mean and the population (ddof=0) standard
// deviation of scores, matching numpy's mean() and std().
func MeanStd(scores []float64) (Summary, error) {
	if len(scores) == 0 {
		return Summary{}, errors.NewValueError("MeanStd", "empty score list")
	}
	if err := errors.CheckNumericalStability("MeanStd", scores, 0); err != nil {
		return Summary{}, err
	}
	mean, std := stat.PopMeanStdDev(scores, nil)
	// A constant sample can leave a tiny negative variance from rounding.
	if math.IsNaN(std) {
		std = 0
	}
	return Summary{Mean: mean, Std: std}, nil
}
