package modelselect

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-modelselect/dist"
	"github.com/aouyang1/go-modelselect/hypothesis"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrModelHypMismatch = errors.New("model does not match hypothesis collection")
	ErrModelBadState    = errors.New("model state is inconsistent")
)

// HypothesisState is the serializable state of one hypothesis: its current
// weight posterior and its full probability history.
type HypothesisState struct {
	Name                string      `json:"name"`
	PosteriorMean       []float64   `json:"posterior_mean"`
	PosteriorCovariance [][]float64 `json:"posterior_covariance"`
	Probabilities       []float64   `json:"probabilities"`
}

// Model is a snapshot of engine state sufficient to resume updating. It
// carries the observation history, the noise level, and each hypothesis's
// current posterior; the per-step posterior mean/covariance trace is a debug
// log and is not snapshotted, so a restored engine's trace restarts at the
// snapshot point. Basis functions are code, not data: restoring requires the
// same hypothesis collection the snapshot was taken with.
type Model struct {
	ObservationNoise float64           `json:"observation_noise"`
	Inputs           []float64         `json:"inputs"`
	Targets          []float64         `json:"targets"`
	Hypotheses       []HypothesisState `json:"hypotheses"`
}

// Model returns a snapshot of the current engine state.
func (e *Engine) Model() Model {
	obs := e.obs.Copy()
	states := make([]HypothesisState, e.hyps.Len())
	for k := range states {
		cov := e.posterior[k].Covariance()
		dim := cov.SymmetricDim()
		covRows := make([][]float64, dim)
		for i := 0; i < dim; i++ {
			covRows[i] = make([]float64, dim)
			for j := 0; j < dim; j++ {
				covRows[i][j] = cov.At(i, j)
			}
		}
		probs, _ := e.Probabilities(k)
		states[k] = HypothesisState{
			Name:                e.hyps.Hypothesis(k).Name(),
			PosteriorMean:       e.posterior[k].MeanSlice(),
			PosteriorCovariance: covRows,
			Probabilities:       probs,
		}
	}
	return Model{
		ObservationNoise: e.sigma,
		Inputs:           obs.X,
		Targets:          obs.T,
		Hypotheses:       states,
	}
}

// NewFromModel restores an engine from a snapshot and the hypothesis
// collection it was taken with. Design accumulators are rebuilt by
// re-evaluating each hypothesis's basis over the stored inputs.
func NewFromModel(hyps *hypothesis.Collection, model Model, opt *Options) (*Engine, error) {
	e, err := New(hyps, model.ObservationNoise, opt)
	if err != nil {
		return nil, err
	}

	if len(model.Hypotheses) != hyps.Len() {
		return nil, fmt.Errorf(
			"model has %d hypotheses but collection has %d, %w",
			len(model.Hypotheses), hyps.Len(), ErrModelHypMismatch,
		)
	}
	if len(model.Inputs) != len(model.Targets) {
		return nil, fmt.Errorf(
			"model has %d inputs and %d targets, %w",
			len(model.Inputs), len(model.Targets), ErrModelBadState,
		)
	}

	for i := range model.Inputs {
		if err := e.obs.Append(model.Inputs[i], model.Targets[i]); err != nil {
			return nil, fmt.Errorf("restoring observation %d, %w", i, err)
		}
	}

	for k := 0; k < hyps.Len(); k++ {
		hyp := hyps.Hypothesis(k)
		state := model.Hypotheses[k]

		if len(state.Probabilities) != len(model.Inputs)+1 {
			return nil, fmt.Errorf(
				"hypothesis %d has %d probability entries for %d observations, %w",
				k, len(state.Probabilities), len(model.Inputs), ErrModelBadState,
			)
		}
		if len(state.PosteriorMean) != hyp.Dim() {
			return nil, fmt.Errorf(
				"hypothesis %d posterior mean has %d elements but basis has %d, %w",
				k, len(state.PosteriorMean), hyp.Dim(), ErrModelHypMismatch,
			)
		}

		cov, err := symFromRows(state.PosteriorCovariance, hyp.Dim())
		if err != nil {
			return nil, fmt.Errorf("hypothesis %d posterior covariance, %w", k, err)
		}
		post, err := dist.NewGaussian(state.PosteriorMean, cov)
		if err != nil {
			return nil, fmt.Errorf("restoring posterior of hypothesis %d, %w", k, err)
		}
		e.posterior[k] = post

		if len(model.Inputs) > 0 {
			design, err := hyp.Evaluate(model.Inputs...)
			if err != nil {
				return nil, fmt.Errorf("rebuilding design matrix of hypothesis %d, %w", k, err)
			}
			e.designs[k] = design
			e.meanHist[k] = append(e.meanHist[k], post.Mean())
			e.covHist[k] = append(e.covHist[k], post.Covariance())
		}

		e.probHist[k] = append([]float64(nil), state.Probabilities...)
	}

	return e, nil
}

func symFromRows(rows [][]float64, dim int) (*mat.SymDense, error) {
	if len(rows) != dim {
		return nil, fmt.Errorf("got %d rows for dimension %d, %w", len(rows), dim, ErrModelBadState)
	}
	s := mat.NewSymDense(dim, nil)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("row %d has %d columns for dimension %d, %w", i, len(row), dim, ErrModelBadState)
		}
		for j := i; j < dim; j++ {
			s.SetSym(i, j, row[j])
		}
	}
	return s, nil
}
