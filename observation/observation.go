// Package observation stores the input/target pairs consumed by the model
// selection engine, in arrival order.
package observation

import (
	"errors"
	"fmt"
	"math"
)

var ErrNonFinite = errors.New("observation value is not finite")

// History is the append-only record of all input and target values seen so
// far. Both slices always have the same length and is shared across every
// hypothesis under consideration.
type History struct {
	X []float64
	T []float64
}

// Append records one new input/target pair. Non-finite values are rejected
// before anything is stored.
func (h *History) Append(x, t float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Errorf("input %f, %w", x, ErrNonFinite)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("target %f, %w", t, ErrNonFinite)
	}
	h.X = append(h.X, x)
	h.T = append(h.T, t)
	return nil
}

// Len returns the number of observations consumed so far.
func (h *History) Len() int {
	return len(h.X)
}

// Copy returns a deep copy of the history.
func (h *History) Copy() *History {
	xSeries := make([]float64, len(h.X))
	tSeries := make([]float64, len(h.T))
	copy(xSeries, h.X)
	copy(tSeries, h.T)
	return &History{
		X: xSeries,
		T: tSeries,
	}
}
