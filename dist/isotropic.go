package dist

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var ErrInvalidFactor = errors.New("variance factor must be positive and finite")

// Isotropic is a diagonal multivariate normal with a single shared variance
// factor, i.e. covariance factor*I. It is the only prior shape the model
// selection engine accepts for hypothesis weight vectors.
type Isotropic struct {
	mean   []float64
	factor float64
}

// NewIsotropic creates an isotropic normal with the given mean and variance
// factor.
func NewIsotropic(mean []float64, factor float64) (*Isotropic, error) {
	if len(mean) == 0 {
		return nil, ErrEmptyMean
	}
	if factor <= 0 || math.IsInf(factor, 0) || math.IsNaN(factor) {
		return nil, fmt.Errorf("got %f, %w", factor, ErrInvalidFactor)
	}
	return &Isotropic{
		mean:   append([]float64(nil), mean...),
		factor: factor,
	}, nil
}

// Dim returns the dimensionality of the distribution.
func (iso *Isotropic) Dim() int {
	return len(iso.mean)
}

// Factor returns the shared variance factor.
func (iso *Isotropic) Factor() float64 {
	return iso.factor
}

// Mean returns a copy of the mean vector.
func (iso *Isotropic) Mean() []float64 {
	return append([]float64(nil), iso.mean...)
}

// LogProb returns the log density of w under the distribution. Each component
// is an independent univariate normal sharing the same variance.
func (iso *Isotropic) LogProb(w []float64) (float64, error) {
	if len(w) != len(iso.mean) {
		return 0, fmt.Errorf(
			"distribution has dimension %d but input has %d, %w",
			len(iso.mean), len(w), ErrDimMismatch,
		)
	}

	norm := distuv.Normal{Mu: 0, Sigma: math.Sqrt(iso.factor)}
	lp := 0.0
	for i, wi := range w {
		lp += norm.LogProb(wi - iso.mean[i])
	}
	return lp, nil
}

// Prob returns the density of w under the distribution.
func (iso *Isotropic) Prob(w []float64) (float64, error) {
	lp, err := iso.LogProb(w)
	if err != nil {
		return 0, err
	}
	return math.Exp(lp), nil
}
