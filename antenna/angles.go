package antenna

import (
	"math"
	"math/cmplx"
)

// Radian converts degrees to radians
func Radian(degree float64) float64 {
	return degree * math.Pi / 180.0
}

// Degree converts radians to degrees
func Degree(radian float64) float64 {
	return radian * 180.0 / math.Pi
}

// GetEJtheta returns exp(-j*degree), the phasor of a delay given in degrees.
func GetEJtheta(degree float64) complex128 {
	return cmplx.Exp(complex(0.0, -Radian(degree)))
}

// Phasor returns mag*exp(+j*phase) for a phase in degrees.
func Phasor(mag, phase float64) complex128 {
	return complex(mag, 0) * GetEJtheta(-phase)
}

// Direction returns the planar projection (x,y) of the unit arrival vector
// for zenith angle theta and azimuth phi, both in degrees.
func Direction(theta, phi float64) (hx, hy float64) {
	st := math.Sin(Radian(theta))
	return math.Cos(Radian(phi)) * st, math.Sin(Radian(phi)) * st
}
