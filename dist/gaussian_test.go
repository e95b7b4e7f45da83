package dist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewGaussian(t *testing.T) {
	testData := map[string]struct {
		err  error
		mean []float64
		cov  *mat.SymDense
	}{
		"empty mean": {
			ErrEmptyMean,
			nil,
			mat.NewSymDense(1, []float64{1}),
		},
		"dimension mismatch": {
			ErrDimMismatch,
			[]float64{1, 2},
			mat.NewSymDense(1, []float64{1}),
		},
		"singular covariance": {
			ErrSingularCovariance,
			[]float64{1, 2},
			mat.NewSymDense(2, []float64{1, 1, 1, 1}),
		},
		"valid": {
			nil,
			[]float64{1, 2},
			mat.NewSymDense(2, []float64{2, 0, 0, 2}),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			g, err := NewGaussian(td.mean, td.cov)
			if td.err != nil {
				require.ErrorAs(t, err, &td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, len(td.mean), g.Dim())
			assert.Equal(t, td.mean, g.MeanSlice())
		})
	}
}

func TestGaussianPrecisionConsistency(t *testing.T) {
	// cov = [[2, 1], [1, 2]] has inverse 1/3*[[2, -1], [-1, 2]]
	cov := mat.NewSymDense(2, []float64{2, 1, 1, 2})
	g, err := NewGaussian([]float64{0, 0}, cov)
	require.Nil(t, err)

	prec := g.Precision()
	tol := 1e-12
	assert.InDelta(t, 2.0/3.0, prec.At(0, 0), tol)
	assert.InDelta(t, -1.0/3.0, prec.At(0, 1), tol)
	assert.InDelta(t, 2.0/3.0, prec.At(1, 1), tol)
}

func TestGaussianSetFromPrecision(t *testing.T) {
	g, err := NewIsotropicGaussian([]float64{0, 0}, 1.0)
	require.Nil(t, err)

	// precision [[2, 1], [1, 2]] inverts back to 1/3*[[2, -1], [-1, 2]]
	prec := mat.NewSymDense(2, []float64{2, 1, 1, 2})
	mean := mat.NewVecDense(2, []float64{1, -1})
	require.Nil(t, g.SetFromPrecision(mean, prec))

	cov := g.Covariance()
	tol := 1e-12
	assert.InDelta(t, 2.0/3.0, cov.At(0, 0), tol)
	assert.InDelta(t, -1.0/3.0, cov.At(0, 1), tol)
	assert.InDelta(t, 2.0/3.0, cov.At(1, 1), tol)
	assert.Equal(t, []float64{1, -1}, g.MeanSlice())

	// mutating the inputs afterwards must not leak into the distribution
	prec.SetSym(0, 0, 99)
	mean.SetVec(0, 99)
	assert.InDelta(t, 2.0, g.Precision().At(0, 0), tol)
	assert.Equal(t, []float64{1, -1}, g.MeanSlice())
}

func TestGaussianSetFromPrecisionSingular(t *testing.T) {
	g, err := NewIsotropicGaussian([]float64{0, 0}, 1.0)
	require.Nil(t, err)

	singular := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	err = g.SetFromPrecision(mat.NewVecDense(2, nil), singular)
	assert.ErrorIs(t, err, ErrSingularPrecision)

	// failed write leaves the previous state intact
	assert.InDelta(t, 1.0, g.Covariance().At(0, 0), 1e-12)
}

func TestIsotropicLogProb(t *testing.T) {
	iso, err := NewIsotropic([]float64{0, 0}, 2.0)
	require.Nil(t, err)

	// density of N(0, 2I) at the mean is (2*pi*2)^-1
	p, err := iso.Prob([]float64{0, 0})
	require.Nil(t, err)
	assert.InDelta(t, 1.0/(2*math.Pi*2.0), p, 1e-12)

	_, err = iso.LogProb([]float64{0})
	assert.ErrorIs(t, err, ErrDimMismatch)
}

func TestNewIsotropicInvalid(t *testing.T) {
	testData := map[string]struct {
		err    error
		mean   []float64
		factor float64
	}{
		"zero factor":     {ErrInvalidFactor, []float64{0}, 0},
		"negative factor": {ErrInvalidFactor, []float64{0}, -1},
		"nan factor":      {ErrInvalidFactor, []float64{0}, math.NaN()},
		"empty mean":      {ErrEmptyMean, nil, 1},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := NewIsotropic(td.mean, td.factor)
			assert.ErrorAs(t, err, &td.err)
		})
	}
}
