package sky

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const arcsec = math.Pi / (180 * 3600)

// Precession returns the IAU 1976 rotation from the J2000 mean equator and
// equinox to the mean equator and equinox of t. Its transpose takes
// coordinates of date back to J2000.
func Precession(t time.Time) *mat.Dense {
	c := (JulianDate(t) - 2451545.0) / 36525
	zeta := (2306.2181*c + 0.30188*c*c + 0.017998*c*c*c) * arcsec
	z := (2306.2181*c + 1.09468*c*c + 0.018203*c*c*c) * arcsec
	theta := (2004.3109*c - 0.42665*c*c - 0.041833*c*c*c) * arcsec

	var zy, p mat.Dense
	zy.Mul(rotZ(-z), rotY(theta))
	p.Mul(&zy, rotZ(-zeta))
	return &p
}

// frame rotations about z and y by a, in radians
func rotZ(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}

func rotY(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, 0, -s,
		0, 1, 0,
		s, 0, c,
	})
}
