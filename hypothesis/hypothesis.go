// Package hypothesis defines candidate generative models for the selection
// engine. A hypothesis pairs a set of basis functions with an isotropic
// Gaussian prior over their weights; a collection orders a fixed set of
// hypotheses and assigns each a prior probability mass.
package hypothesis

import (
	"errors"
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-modelselect/mat"

	"github.com/aouyang1/go-modelselect/dist"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoBasis          = errors.New("no basis functions")
	ErrNoPrior          = errors.New("no weight prior")
	ErrBasisDimMismatch = errors.New("basis evaluation width does not match declared dimensionality")
	ErrPriorDimMismatch = errors.New("weight prior dimension does not match basis dimensionality")
	ErrNoHypotheses     = errors.New("no hypotheses in collection")
	ErrPriorLenMismatch = errors.New("prior masses do not match number of hypotheses")
	ErrInvalidPriorMass = errors.New("prior masses must be non-negative and sum to one")
)

// Basis maps an input value to one row of basis-function outputs.
type Basis interface {
	Dim() int
	Evaluate(x float64) []float64
}

// Hypothesis is one candidate model: target values are a weighted sum of the
// basis outputs plus Gaussian noise. Immutable once constructed.
type Hypothesis struct {
	name  string
	basis Basis
	prior *dist.Isotropic
}

// New creates a hypothesis from a basis and a weight prior. The prior must
// have one component per basis function.
func New(name string, basis Basis, prior *dist.Isotropic) (*Hypothesis, error) {
	if basis == nil || basis.Dim() == 0 {
		return nil, ErrNoBasis
	}
	if prior == nil {
		return nil, ErrNoPrior
	}
	if prior.Dim() != basis.Dim() {
		return nil, fmt.Errorf(
			"basis has %d functions but prior has %d components, %w",
			basis.Dim(), prior.Dim(), ErrPriorDimMismatch,
		)
	}
	return &Hypothesis{
		name:  name,
		basis: basis,
		prior: prior,
	}, nil
}

func (h *Hypothesis) Name() string {
	return h.name
}

// Dim returns the number of basis functions, i.e. the weight dimensionality.
func (h *Hypothesis) Dim() int {
	return h.basis.Dim()
}

// Prior returns the weight prior.
func (h *Hypothesis) Prior() *dist.Isotropic {
	return h.prior
}

// Evaluate stacks the basis evaluation of each input into an (n, M) design
// matrix. A basis returning a row of the wrong width is reported rather than
// silently propagated into the regression.
func (h *Hypothesis) Evaluate(xs ...float64) (*mat.Dense, error) {
	var design *mat.Dense
	for i, x := range xs {
		row := h.basis.Evaluate(x)
		if len(row) != h.basis.Dim() {
			return nil, fmt.Errorf(
				"hypothesis %q evaluated input %d to %d values but declares %d, %w",
				h.name, i, len(row), h.basis.Dim(), ErrBasisDimMismatch,
			)
		}
		var err error
		design, err = mat_.AppendRow(design, row)
		if err != nil {
			return nil, err
		}
	}
	return design, nil
}

// Collection is an ordered, fixed set of hypotheses with a prior probability
// mass per hypothesis. The engine references hypotheses only by their index
// into the collection.
type Collection struct {
	hypotheses []*Hypothesis
	prior      []float64
}

// NewCollection creates a collection from the given hypotheses and prior
// masses. A nil prior assigns uniform mass.
func NewCollection(hypotheses []*Hypothesis, prior []float64) (*Collection, error) {
	if len(hypotheses) == 0 {
		return nil, ErrNoHypotheses
	}
	for i, h := range hypotheses {
		if h == nil {
			return nil, fmt.Errorf("hypothesis %d is nil, %w", i, ErrNoHypotheses)
		}
	}

	if prior == nil {
		prior = make([]float64, len(hypotheses))
		for i := range prior {
			prior[i] = 1.0 / float64(len(hypotheses))
		}
	}
	if len(prior) != len(hypotheses) {
		return nil, fmt.Errorf(
			"got %d masses for %d hypotheses, %w",
			len(prior), len(hypotheses), ErrPriorLenMismatch,
		)
	}

	total := 0.0
	for i, p := range prior {
		if p < 0 || math.IsNaN(p) {
			return nil, fmt.Errorf("mass %d is %f, %w", i, p, ErrInvalidPriorMass)
		}
		total += p
	}
	if math.Abs(total-1.0) > 1e-9 {
		return nil, fmt.Errorf("masses sum to %f, %w", total, ErrInvalidPriorMass)
	}

	hyps := make([]*Hypothesis, len(hypotheses))
	copy(hyps, hypotheses)
	masses := make([]float64, len(prior))
	copy(masses, prior)
	return &Collection{
		hypotheses: hyps,
		prior:      masses,
	}, nil
}

// Len returns the number of hypotheses.
func (c *Collection) Len() int {
	return len(c.hypotheses)
}

// Hypothesis returns the hypothesis at index k.
func (c *Collection) Hypothesis(k int) *Hypothesis {
	return c.hypotheses[k]
}

// PriorProb returns the prior probability mass of hypothesis k.
func (c *Collection) PriorProb(k int) float64 {
	return c.prior[k]
}
