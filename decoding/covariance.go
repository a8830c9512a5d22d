package decoding

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mibench/mibench/core/tensor"
	"github.com/mibench/mibench/pkg/errors"
)

// Covariance estimator names accepted as Reg.
const (
	RegNone      = ""
	RegEmpirical = "empirical"
	RegOAS       = "oas"
)

func validReg(reg string) bool {
	switch reg {
	case RegNone, RegEmpirical, RegOAS:
		return true
	}
	return false
}

// Covariance estimates the channel covariance of a channels×samples signal.
// Each channel is centred. The empirical estimate is normalized by the number
// of samples (maximum likelihood); RegOAS applies Oracle Approximating
// Shrinkage towards a scaled identity.
func Covariance(x mat.Matrix, reg string) (*mat.SymDense, error) {
	if !validReg(reg) {
		return nil, errors.NewValidationError("reg", "must be \"\", \"empirical\" or \"oas\"", reg)
	}
	_, samples := x.Dims()
	if samples < 2 {
		return nil, errors.NewValueError("Covariance", "at least two samples are required")
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x.T(), nil)
	// stat uses the unbiased n-1 normalization
	cov.ScaleSym(float64(samples-1)/float64(samples), &cov)

	if err := errors.CheckMatrix("Covariance", &cov); err != nil {
		return nil, err
	}
	if reg == RegOAS {
		return oas(&cov, samples), nil
	}
	return &cov, nil
}

// oas shrinks an empirical covariance estimated from n samples:
//
//	shrinkage = min(1, (mean(S²) + μ²) / ((n+1)(mean(S²) - μ²/p)))
//	Σ = (1-shrinkage)·S + shrinkage·μ·I,  μ = trace(S)/p
func oas(emp *mat.SymDense, n int) *mat.SymDense {
	p := emp.SymmetricDim()
	var trace, sumSq float64
	for i := 0; i < p; i++ {
		trace += emp.At(i, i)
		for j := 0; j < p; j++ {
			v := emp.At(i, j)
			sumSq += v * v
		}
	}
	alpha := sumSq / float64(p*p)
	mu := trace / float64(p)
	muSq := mu * mu
	num := alpha + muSq
	den := float64(n+1) * (alpha - muSq/float64(p))

	shrinkage := 1.0
	if den != 0 {
		shrinkage = min(num/den, 1.0)
	}

	out := mat.NewSymDense(p, nil)
	out.ScaleSym(1-shrinkage, emp)
	for i := 0; i < p; i++ {
		out.SetSym(i, i, out.At(i, i)+shrinkage*mu)
	}
	return out
}

// concatCovariance concatenates the selected trials along time and estimates
// one channel covariance from the result.
func concatCovariance(X *tensor.Dense3, trials []int, reg string) (*mat.SymDense, error) {
	_, channels, times := X.Dims()
	concat := mat.NewDense(channels, len(trials)*times, nil)
	for k, i := range trials {
		for c := 0; c < channels; c++ {
			for s := 0; s < times; s++ {
				concat.Set(c, k*times+s, X.At(i, c, s))
			}
		}
	}
	return Covariance(concat, reg)
}
