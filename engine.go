// Package modelselect performs online Bayesian model selection for linear
// regression. Given a fixed collection of basis-function hypotheses, the
// engine consumes one input/target observation at a time, refreshing each
// hypothesis's weight posterior with an exact conjugate update and
// recomputing the normalized model evidence of every hypothesis over the full
// accumulated history. Evidence-based comparison penalizes complex hypotheses
// that do not buy a correspondingly better fit, so the posterior hypothesis
// probabilities implement Occam's razor.
package modelselect

import (
	"errors"
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-modelselect/mat"

	"github.com/aouyang1/go-modelselect/dist"
	"github.com/aouyang1/go-modelselect/hypothesis"
	"github.com/aouyang1/go-modelselect/observation"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrNoCollection            = errors.New("no hypothesis collection")
	ErrInvalidObservationNoise = errors.New("observation noise must be positive and finite")
	ErrDegenerateEvidence      = errors.New("hypothesis evidences sum to zero or are not finite")
	ErrNumericalInstability    = errors.New("numerical instability in posterior update")
	ErrHypothesisOutOfRange    = errors.New("hypothesis index out of range")
)

const ln2Pi = 1.8378770664093453 // log(2*pi)

// Engine owns the per-hypothesis regression state and the shared observation
// history. It is intended for strictly sequential use: each Update call
// depends on the state left behind by the previous one.
type Engine struct {
	opt   *Options
	hyps  *hypothesis.Collection
	sigma float64

	obs       *observation.History
	posterior []*dist.Gaussian // p(w|data, H_k)
	designs   []*mat.Dense     // stacked basis rows of every past input, per hypothesis

	meanHist [][]*mat.VecDense
	covHist  [][]*mat.SymDense
	probHist [][]float64
}

// New creates an engine over the given hypothesis collection with a fixed
// observation-noise standard deviation. Each hypothesis's weight posterior
// starts at its own prior and its probability history starts at its prior
// probability mass.
func New(hyps *hypothesis.Collection, sigma float64, opt *Options) (*Engine, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if hyps == nil || hyps.Len() == 0 {
		return nil, ErrNoCollection
	}
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("got %f, %w", sigma, ErrInvalidObservationNoise)
	}

	numHyp := hyps.Len()
	e := &Engine{
		opt:       opt,
		hyps:      hyps,
		sigma:     sigma,
		obs:       &observation.History{},
		posterior: make([]*dist.Gaussian, numHyp),
		designs:   make([]*mat.Dense, numHyp),
		meanHist:  make([][]*mat.VecDense, numHyp),
		covHist:   make([][]*mat.SymDense, numHyp),
		probHist:  make([][]float64, numHyp),
	}

	for k := 0; k < numHyp; k++ {
		prior := hyps.Hypothesis(k).Prior()
		post, err := dist.NewIsotropicGaussian(prior.Mean(), prior.Factor())
		if err != nil {
			return nil, fmt.Errorf("initializing posterior of hypothesis %d, %w", k, err)
		}
		e.posterior[k] = post
		e.probHist[k] = []float64{hyps.PriorProb(k)}
	}
	return e, nil
}

// Update consumes one new input/target pair. It first refines every
// hypothesis's weight posterior with the conjugate single-point update, then
// recomputes each hypothesis's model evidence from the full accumulated
// design matrix and target history, and finally normalizes the evidences into
// posterior hypothesis probabilities.
//
// Observations must arrive one at a time in order. A dimension mismatch or
// non-finite observation is reported before any state is touched; with the
// default options a degenerate evidence normalization is reported after the
// weight posteriors have already been refreshed, and no probability entry is
// recorded for the failed step.
func (e *Engine) Update(x, t float64) error {
	numHyp := e.hyps.Len()

	// evaluate every basis row up front so a misbehaving hypothesis leaves
	// the engine untouched
	rows := make([][]float64, numHyp)
	for k := 0; k < numHyp; k++ {
		design, err := e.hyps.Hypothesis(k).Evaluate(x)
		if err != nil {
			return err
		}
		rows[k] = mat.Row(nil, 0, design)
	}

	if err := e.obs.Append(x, t); err != nil {
		return err
	}

	sigmaSq := e.sigma * e.sigma

	for k := 0; k < numHyp; k++ {
		if err := e.refreshPosterior(k, rows[k], t, sigmaSq); err != nil {
			return fmt.Errorf("refining posterior of hypothesis %d, %w", k, err)
		}
	}

	evidence := make([]float64, numHyp)
	for k := 0; k < numHyp; k++ {
		ev, err := e.evidence(k, rows[k], sigmaSq)
		if err != nil {
			return fmt.Errorf("computing evidence of hypothesis %d, %w", k, err)
		}
		evidence[k] = ev
	}

	return e.normalize(evidence)
}

// refreshPosterior applies the conjugate Gaussian regression recursion for a
// single new point:
//
//	Lambda_new = Lambda_old + phi phi^T / sigma^2
//	m_new      = Lambda_new^-1 (Lambda_old m_old + phi t / sigma^2)
func (e *Engine) refreshPosterior(k int, row []float64, t, sigmaSq float64) error {
	m := len(row)
	post := e.posterior[k]
	phi := mat.NewVecDense(m, row)

	precOld := post.Precision()
	var precNew mat.SymDense
	precNew.SymRankOne(precOld, 1.0/sigmaSq, phi)

	b := mat.NewVecDense(m, nil)
	b.MulVec(precOld, post.Mean())
	b.AddScaledVec(b, t/sigmaSq, phi)

	var chol mat.Cholesky
	if ok := chol.Factorize(&precNew); !ok {
		return fmt.Errorf("%w, posterior precision is not positive definite", ErrNumericalInstability)
	}
	mean := mat.NewVecDense(m, nil)
	if err := chol.SolveVecTo(mean, b); err != nil {
		return fmt.Errorf("%w, %v", ErrNumericalInstability, err)
	}

	if err := post.SetFromPrecision(mean, &precNew); err != nil {
		return fmt.Errorf("%w, %v", ErrNumericalInstability, err)
	}

	e.meanHist[k] = append(e.meanHist[k], post.Mean())
	e.covHist[k] = append(e.covHist[k], post.Covariance())
	return nil
}

// evidence appends the new basis row to hypothesis k's design accumulator and
// computes the model evidence over the full history:
//
//	A        = Phi^T Phi / sigma^2 + I / sigmaW^2
//	evidence = N(THist | Phi m, sigma^2 I) * prior(m) / sqrt(det(A / 2 pi))
//
// The terms are combined in log space; only the final evidence is
// exponentiated.
func (e *Engine) evidence(k int, row []float64, sigmaSq float64) (float64, error) {
	design, err := mat_.AppendRow(e.designs[k], row)
	if err != nil {
		return 0, err
	}
	e.designs[k] = design

	n, m := design.Dims()
	prior := e.hyps.Hypothesis(k).Prior()
	sigmaWSq := prior.Factor()

	var ata mat.Dense
	ata.Mul(design.T(), design)
	a := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			v := ata.At(i, j) / sigmaSq
			if i == j {
				v += 1.0 / sigmaWSq
			}
			a.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return 0, fmt.Errorf("%w, evidence matrix is not positive definite", ErrNumericalInstability)
	}
	logDenom := 0.5 * (chol.LogDet() - float64(m)*ln2Pi)

	yhat := mat.NewVecDense(n, nil)
	yhat.MulVec(design, e.posterior[k].Mean())

	// likelihood of the accumulated targets under the fitted model, each
	// residual independently Gaussian with the observation noise
	noise := distuv.Normal{Mu: 0, Sigma: e.sigma}
	logNum1 := 0.0
	for i, target := range e.obs.T {
		logNum1 += noise.LogProb(target - yhat.AtVec(i))
	}

	// prior density of the MAP weight estimate
	logNum2, err := prior.LogProb(e.posterior[k].MeanSlice())
	if err != nil {
		return 0, err
	}

	return math.Exp(logNum1 + logNum2 - logDenom), nil
}

func (e *Engine) normalize(evidence []float64) error {
	total := floats.Sum(evidence)

	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		switch e.opt.DegenerateFallback {
		case DegenerateFallbackUniform:
			u := 1.0 / float64(len(evidence))
			for k := range e.probHist {
				e.probHist[k] = append(e.probHist[k], u)
			}
			return nil
		case DegenerateFallbackHold:
			for k := range e.probHist {
				prev := e.probHist[k][len(e.probHist[k])-1]
				e.probHist[k] = append(e.probHist[k], prev)
			}
			return nil
		default:
			return fmt.Errorf("sum of evidences is %f, %w", total, ErrDegenerateEvidence)
		}
	}

	for k, ev := range evidence {
		e.probHist[k] = append(e.probHist[k], ev/total)
	}
	return nil
}

// NumHypotheses returns the number of hypotheses under comparison.
func (e *Engine) NumHypotheses() int {
	return e.hyps.Len()
}

// Len returns the number of observations consumed so far.
func (e *Engine) Len() int {
	return e.obs.Len()
}

// Observations returns a copy of the accumulated input/target history.
func (e *Engine) Observations() *observation.History {
	return e.obs.Copy()
}

// PosteriorMean returns the current posterior mean of hypothesis k's weight
// vector.
func (e *Engine) PosteriorMean(k int) ([]float64, error) {
	if k < 0 || k >= e.hyps.Len() {
		return nil, fmt.Errorf("index %d with %d hypotheses, %w", k, e.hyps.Len(), ErrHypothesisOutOfRange)
	}
	return e.posterior[k].MeanSlice(), nil
}

// PosteriorCovariance returns the current posterior covariance of hypothesis
// k's weight vector.
func (e *Engine) PosteriorCovariance(k int) (*mat.SymDense, error) {
	if k < 0 || k >= e.hyps.Len() {
		return nil, fmt.Errorf("index %d with %d hypotheses, %w", k, e.hyps.Len(), ErrHypothesisOutOfRange)
	}
	return e.posterior[k].Covariance(), nil
}

// Probabilities returns hypothesis k's posterior probability history. The
// first entry is the prior probability before any data.
func (e *Engine) Probabilities(k int) ([]float64, error) {
	if k < 0 || k >= e.hyps.Len() {
		return nil, fmt.Errorf("index %d with %d hypotheses, %w", k, e.hyps.Len(), ErrHypothesisOutOfRange)
	}
	return append([]float64(nil), e.probHist[k]...), nil
}

// CurrentProbabilities returns the latest posterior probability of each
// hypothesis.
func (e *Engine) CurrentProbabilities() []float64 {
	probs := make([]float64, e.hyps.Len())
	for k := range probs {
		probs[k] = e.probHist[k][len(e.probHist[k])-1]
	}
	return probs
}

// PosteriorMeanHistory returns the posterior mean of hypothesis k after every
// update, oldest first.
func (e *Engine) PosteriorMeanHistory(k int) ([]*mat.VecDense, error) {
	if k < 0 || k >= e.hyps.Len() {
		return nil, fmt.Errorf("index %d with %d hypotheses, %w", k, e.hyps.Len(), ErrHypothesisOutOfRange)
	}
	out := make([]*mat.VecDense, len(e.meanHist[k]))
	for i, v := range e.meanHist[k] {
		out[i] = mat.VecDenseCopyOf(v)
	}
	return out, nil
}

// PosteriorCovarianceHistory returns the posterior covariance of hypothesis k
// after every update, oldest first.
func (e *Engine) PosteriorCovarianceHistory(k int) ([]*mat.SymDense, error) {
	if k < 0 || k >= e.hyps.Len() {
		return nil, fmt.Errorf("index %d with %d hypotheses, %w", k, e.hyps.Len(), ErrHypothesisOutOfRange)
	}
	out := make([]*mat.SymDense, len(e.covHist[k]))
	for i, s := range e.covHist[k] {
		cp := mat.NewSymDense(s.SymmetricDim(), nil)
		cp.CopySym(s)
		out[i] = cp
	}
	return out, nil
}

// DesignMatrix returns a copy of hypothesis k's accumulated design matrix, or
// nil before any observations.
func (e *Engine) DesignMatrix(k int) (*mat.Dense, error) {
	if k < 0 || k >= e.hyps.Len() {
		return nil, fmt.Errorf("index %d with %d hypotheses, %w", k, e.hyps.Len(), ErrHypothesisOutOfRange)
	}
	if e.designs[k] == nil {
		return nil, nil
	}
	return mat.DenseCopyOf(e.designs[k]), nil
}
