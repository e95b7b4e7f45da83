package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch = errors.New("column size mismatch")
	ErrEmptyRow    = errors.New("empty row")
)

func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if n < 0 {
		n = 0
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// AppendRow returns a new matrix with row stacked below x. A nil x starts a
// fresh single-row matrix, which is how an empty design accumulator grows its
// first observation.
func AppendRow(x *mat.Dense, row []float64) (*mat.Dense, error) {
	if len(row) == 0 {
		return nil, ErrEmptyRow
	}

	data := make([]float64, len(row))
	copy(data, row)

	if x == nil {
		return mat.NewDense(1, len(row), data), nil
	}

	m, n := x.Dims()
	if n != len(row) {
		return nil, fmt.Errorf("matrix has %d columns but row has %d, %w", n, len(row), ErrColMismatch)
	}

	grown := mat.NewDense(m+1, n, nil)
	grown.Slice(0, m, 0, n).(*mat.Dense).Copy(x)
	grown.SetRow(m, data)
	return grown, nil
}
