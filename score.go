package modelselect

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoObservations = errors.New("no observations consumed yet")
)

// Scores measures how well a hypothesis's current MAP fit tracks the
// accumulated targets. This is a goodness-of-fit diagnostic only; model
// comparison goes through the evidence, which also accounts for complexity.
type Scores struct {
	MSE  float64 // mean squared error
	MAPE float64 // mean average percent error
	R2   float64 // coefficient of determination
}

func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}
	return &Scores{
		MSE:  mse,
		MAPE: mape,
		R2:   stat.RSquaredFrom(predicted, actual, nil),
	}, nil
}

// Scores evaluates hypothesis k's MAP prediction against the full target
// history.
func (e *Engine) Scores(k int) (*Scores, error) {
	if k < 0 || k >= e.hyps.Len() {
		return nil, fmt.Errorf("index %d with %d hypotheses, %w", k, e.hyps.Len(), ErrHypothesisOutOfRange)
	}
	if e.obs.Len() == 0 {
		return nil, ErrNoObservations
	}

	predicted := e.predict(k)
	return NewScores(predicted, e.obs.T)
}

// predict computes Phi_k * m_k, the MAP estimate of every historical target.
func (e *Engine) predict(k int) []float64 {
	n, _ := e.designs[k].Dims()
	yhat := make([]float64, n)
	mean := e.posterior[k].Mean()
	for i := 0; i < n; i++ {
		dot := 0.0
		for j := 0; j < mean.Len(); j++ {
			dot += e.designs[k].At(i, j) * mean.AtVec(j)
		}
		yhat[i] = dot
	}
	return yhat
}

func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

func MAPE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	mape := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) || actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	mape /= float64(len(actual))
	return mape, nil
}
