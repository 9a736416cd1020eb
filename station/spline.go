package station

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
)

// RectSpline is a bicubic interpolant over a rectangular grid of knots,
// built as the tensor product of not-a-knot cubic splines. Outside the knot
// range the boundary value is held.
type RectSpline struct {
	xs, ys []float64
	rows   []interp.NotAKnotCubic // one spline along y per x knot
}

// NewRectSpline fits z, with z[i][j] sampled at (xs[i], ys[j]). Both knot
// vectors need at least 3 strictly increasing values.
func NewRectSpline(xs, ys []float64, z mat.Matrix) (*RectSpline, error) {
	if err := checkKnots("x", xs); err != nil {
		return nil, err
	}
	if err := checkKnots("y", ys); err != nil {
		return nil, err
	}
	if r, c := z.Dims(); r != len(xs) || c != len(ys) {
		return nil, fmt.Errorf("spline values are %dx%d, knots %dx%d: %w",
			r, c, len(xs), len(ys), stationbeam.ErrDataIntegrity)
	}
	s := &RectSpline{
		xs:   append([]float64(nil), xs...),
		ys:   append([]float64(nil), ys...),
		rows: make([]interp.NotAKnotCubic, len(xs)),
	}
	row := make([]float64, len(ys))
	for i := range xs {
		mat.Row(row, i, z)
		if err := s.rows[i].Fit(s.ys, row); err != nil {
			return nil, fmt.Errorf("spline row %d: %w", i, err)
		}
	}
	return s, nil
}

func checkKnots(axis string, v []float64) error {
	if len(v) < 3 {
		return fmt.Errorf("spline %s axis has %d knots, need 3: %w", axis, len(v), stationbeam.ErrConfiguration)
	}
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return fmt.Errorf("spline %s knots not increasing at %d: %w", axis, i, stationbeam.ErrConfiguration)
		}
	}
	return nil
}

// Grid evaluates the spline on the outer product of x and y, returning a
// len(x) by len(y) matrix.
func (s *RectSpline) Grid(x, y []float64) (*mat.Dense, error) {
	out := mat.NewDense(len(x), len(y), nil)
	col := make([]float64, len(s.xs))
	var nak interp.NotAKnotCubic
	for j, yv := range y {
		for i := range s.rows {
			col[i] = s.rows[i].Predict(yv)
		}
		if err := nak.Fit(s.xs, col); err != nil {
			return nil, fmt.Errorf("spline column %v: %w", yv, err)
		}
		for i, xv := range x {
			out.Set(i, j, nak.Predict(xv))
		}
	}
	return out, nil
}
