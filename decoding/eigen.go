package decoding

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mibench/mibench/pkg/errors"
)

// generalizedEigh solves A v = λ B v for symmetric A and symmetric positive
// definite B. Eigenvalues are returned ascending; the eigenvectors are the
// columns of the returned matrix, normalized so that vᵀ B v = 1.
func generalizedEigh(a, b mat.Symmetric) ([]float64, *mat.Dense, error) {
	n := b.SymmetricDim()

	var chol mat.Cholesky
	if !chol.Factorize(b) {
		return nil, nil, errors.Wrap(errors.ErrSingularMatrix, "composite covariance is not positive definite")
	}
	var l, lInv mat.TriDense
	chol.LTo(&l)
	if err := lInv.InverseTri(&l); err != nil {
		return nil, nil, errors.Wrap(err, "whitening")
	}

	// C = L⁻¹ A L⁻ᵀ
	var tmp, c mat.Dense
	tmp.Mul(&lInv, a)
	c.Mul(&tmp, lInv.T())
	whitened := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			whitened.SetSym(i, j, (c.At(i, j)+c.At(j, i))/2)
		}
	}

	var es mat.EigenSym
	if !es.Factorize(whitened, true) {
		return nil, nil, errors.New("eigendecomposition did not converge")
	}
	vals := es.Values(nil)
	var v, w mat.Dense
	es.VectorsTo(&v)
	w.Mul(lInv.T(), &v)
	return vals, &w, nil
}
