package hypothesis

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNegativeDegree = errors.New("polynomial degree must be non-negative")
	ErrNoCenters      = errors.New("no basis centers")
	ErrInvalidScale   = errors.New("basis scale must be positive and finite")
)

// Polynomial expands an input to [1, x, x^2, ..., x^degree].
type Polynomial struct {
	degree int
}

func NewPolynomial(degree int) (*Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("got %d, %w", degree, ErrNegativeDegree)
	}
	return &Polynomial{degree: degree}, nil
}

func (p *Polynomial) Dim() int {
	return p.degree + 1
}

func (p *Polynomial) Evaluate(x float64) []float64 {
	row := make([]float64, p.degree+1)
	v := 1.0
	for j := range row {
		row[j] = v
		v *= x
	}
	return row
}

// RadialBasis expands an input to a bias term followed by Gaussian bumps
// centered at fixed locations: [1, exp(-(x-c_1)^2/2s^2), ...].
type RadialBasis struct {
	centers []float64
	scale   float64
}

func NewRadialBasis(centers []float64, scale float64) (*RadialBasis, error) {
	if len(centers) == 0 {
		return nil, ErrNoCenters
	}
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("got %f, %w", scale, ErrInvalidScale)
	}
	return &RadialBasis{
		centers: append([]float64(nil), centers...),
		scale:   scale,
	}, nil
}

func (r *RadialBasis) Dim() int {
	return len(r.centers) + 1
}

func (r *RadialBasis) Evaluate(x float64) []float64 {
	row := make([]float64, len(r.centers)+1)
	row[0] = 1.0
	for j, c := range r.centers {
		d := (x - c) / r.scale
		row[j+1] = math.Exp(-0.5 * d * d)
	}
	return row
}

// Sigmoid expands an input to a bias term followed by logistic ramps centered
// at fixed locations: [1, 1/(1+exp(-(x-c_1)/s)), ...].
type Sigmoid struct {
	centers []float64
	scale   float64
}

func NewSigmoid(centers []float64, scale float64) (*Sigmoid, error) {
	if len(centers) == 0 {
		return nil, ErrNoCenters
	}
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("got %f, %w", scale, ErrInvalidScale)
	}
	return &Sigmoid{
		centers: append([]float64(nil), centers...),
		scale:   scale,
	}, nil
}

func (s *Sigmoid) Dim() int {
	return len(s.centers) + 1
}

func (s *Sigmoid) Evaluate(x float64) []float64 {
	row := make([]float64, len(s.centers)+1)
	row[0] = 1.0
	for j, c := range s.centers {
		row[j+1] = 1.0 / (1.0 + math.Exp(-(x-c)/s.scale))
	}
	return row
}
