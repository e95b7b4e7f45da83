// Package dist provides the Gaussian random-variable value objects used by the
// model selection engine: a multivariate normal that keeps its covariance and
// precision representations consistent under mutation, and an isotropic
// (diagonal, single variance factor) normal used as a weight prior.
package dist

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyMean          = errors.New("mean vector is empty")
	ErrDimMismatch        = errors.New("mean and covariance dimensions do not match")
	ErrSingularPrecision  = errors.New("precision matrix is not positive definite")
	ErrSingularCovariance = errors.New("covariance matrix is not positive definite")
)

// Gaussian is a multivariate normal distribution storing both its covariance
// and precision (inverse covariance). The two representations are kept in sync
// on every write; callers can never observe one without the other having been
// recomputed from it.
type Gaussian struct {
	mean *mat.VecDense
	cov  *mat.SymDense
	prec *mat.SymDense
}

// NewGaussian creates a Gaussian from a mean vector and covariance matrix,
// deriving the precision from the covariance.
func NewGaussian(mean []float64, cov *mat.SymDense) (*Gaussian, error) {
	if len(mean) == 0 {
		return nil, ErrEmptyMean
	}
	if cov.SymmetricDim() != len(mean) {
		return nil, fmt.Errorf(
			"mean has %d elements but covariance is %dx%d, %w",
			len(mean), cov.SymmetricDim(), cov.SymmetricDim(), ErrDimMismatch,
		)
	}

	prec, err := invertSym(cov)
	if err != nil {
		return nil, fmt.Errorf("inverting covariance, %w", ErrSingularCovariance)
	}

	covCopy := mat.NewSymDense(cov.SymmetricDim(), nil)
	covCopy.CopySym(cov)
	return &Gaussian{
		mean: mat.NewVecDense(len(mean), append([]float64(nil), mean...)),
		cov:  covCopy,
		prec: prec,
	}, nil
}

// NewIsotropicGaussian creates a Gaussian with covariance factor*I.
func NewIsotropicGaussian(mean []float64, factor float64) (*Gaussian, error) {
	if factor <= 0 {
		return nil, ErrSingularCovariance
	}
	cov := mat.NewSymDense(len(mean), nil)
	for i := 0; i < len(mean); i++ {
		cov.SetSym(i, i, factor)
	}
	return NewGaussian(mean, cov)
}

// Dim returns the dimensionality of the distribution.
func (g *Gaussian) Dim() int {
	return g.mean.Len()
}

// Mean returns a copy of the mean vector.
func (g *Gaussian) Mean() *mat.VecDense {
	return mat.VecDenseCopyOf(g.mean)
}

// MeanSlice returns the mean as a fresh float slice.
func (g *Gaussian) MeanSlice() []float64 {
	out := make([]float64, g.mean.Len())
	copy(out, g.mean.RawVector().Data)
	return out
}

// Covariance returns a copy of the covariance matrix.
func (g *Gaussian) Covariance() *mat.SymDense {
	out := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	out.CopySym(g.cov)
	return out
}

// Precision returns a copy of the precision matrix.
func (g *Gaussian) Precision() *mat.SymDense {
	out := mat.NewSymDense(g.prec.SymmetricDim(), nil)
	out.CopySym(g.prec)
	return out
}

// SetFromPrecision replaces the distribution's mean and precision, recomputing
// the covariance so both representations stay consistent. This is the write
// path of the conjugate regression update, which naturally produces the new
// precision first.
func (g *Gaussian) SetFromPrecision(mean *mat.VecDense, prec *mat.SymDense) error {
	if mean.Len() != g.mean.Len() || prec.SymmetricDim() != g.mean.Len() {
		return fmt.Errorf(
			"distribution has dimension %d but mean has %d and precision %d, %w",
			g.mean.Len(), mean.Len(), prec.SymmetricDim(), ErrDimMismatch,
		)
	}

	cov, err := invertSym(prec)
	if err != nil {
		return err
	}

	precCopy := mat.NewSymDense(prec.SymmetricDim(), nil)
	precCopy.CopySym(prec)
	g.mean = mat.VecDenseCopyOf(mean)
	g.prec = precCopy
	g.cov = cov
	return nil
}

// invertSym inverts a symmetric positive definite matrix via its Cholesky
// factorization.
func invertSym(s *mat.SymDense) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return nil, ErrSingularPrecision
	}
	inv := mat.NewSymDense(s.SymmetricDim(), nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, fmt.Errorf("%w, %v", ErrSingularPrecision, err)
	}
	return inv, nil
}
