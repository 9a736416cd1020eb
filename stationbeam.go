// Package stationbeam models the beam pattern of a ring-lattice radio
// telescope station built from identical antenna elements.
package stationbeam

import "math"

// Native angular sampling of the single-element tables and of the
// synthesized beam-pattern grids, in integer degrees.
const (
	NTheta = 91  // zenith angle 0..90
	NPhi   = 360 // azimuth 0..359
)

// SpeedOfLight in m/s
const SpeedOfLight = 299792458.0

// AngleIndex returns the flattened (theta,phi) key used by the element tables
// and by the grid reshape. Theta varies fastest.
func AngleIndex(theta, phi int) int {
	return phi*NTheta + theta
}

// ValidAngle reports whether (theta,phi) lies on the native grid.
func ValidAngle(theta, phi int) bool {
	return theta >= 0 && theta < NTheta && phi >= 0 && phi < NPhi
}

// Wavenumber returns k = 2*pi*f/c for a frequency in MHz.
func Wavenumber(freqMHz int) float64 {
	return 2 * math.Pi * float64(freqMHz) * 1e6 / SpeedOfLight
}
