package deployment

import (
	"fmt"
	"math"

	"github.com/wiless/stationbeam"
	"github.com/wiless/vlib"
)

// Default LoFASM station lattice
const (
	DefaultRings         = 2
	DefaultPerRing       = 6
	DefaultInitialRadius = 441.0
)

// DefaultRadiusFactor is the ring-to-ring radius growth of a LoFASM station.
var DefaultRadiusFactor = math.Sqrt(3)

// RingLattice describes a planar array of concentric rings. Ring i has radius
// InitialRadius*RadiusFactor^i and PerRing elements spread over the angles of
// an inclusive linear span from 0 to 2*pi, so for PerRing > 1 the first and the
// last element of every ring coincide.
type RingLattice struct {
	Rings         int     `json:"rings" mapstructure:"rings"`
	PerRing       int     `json:"per_ring" mapstructure:"per_ring"`
	InitialRadius float64 `json:"initial_radius" mapstructure:"initial_radius"` // meters
	RadiusFactor  float64 `json:"radius_factor" mapstructure:"radius_factor"`
}

// NewRingLattice returns the LoFASM default lattice.
func NewRingLattice() RingLattice {
	return RingLattice{
		Rings:         DefaultRings,
		PerRing:       DefaultPerRing,
		InitialRadius: DefaultInitialRadius,
		RadiusFactor:  DefaultRadiusFactor,
	}
}

// Validate checks the lattice parameters.
func (r RingLattice) Validate() error {
	if r.Rings <= 0 {
		return fmt.Errorf("ring lattice: rings=%d: %w", r.Rings, stationbeam.ErrConfiguration)
	}
	if r.PerRing <= 0 {
		return fmt.Errorf("ring lattice: elements per ring=%d: %w", r.PerRing, stationbeam.ErrConfiguration)
	}
	if r.InitialRadius < 0 || math.IsNaN(r.InitialRadius) || math.IsInf(r.InitialRadius, 0) {
		return fmt.Errorf("ring lattice: initial radius=%v: %w", r.InitialRadius, stationbeam.ErrConfiguration)
	}
	if r.RadiusFactor <= 0 || math.IsNaN(r.RadiusFactor) || math.IsInf(r.RadiusFactor, 0) {
		return fmt.Errorf("ring lattice: radius factor=%v: %w", r.RadiusFactor, stationbeam.ErrConfiguration)
	}
	return nil
}

// Count returns the number of elements in the lattice, duplicates included.
func (r RingLattice) Count() int {
	return r.Rings * r.PerRing
}

// RingRadius returns the radius of ring i in meters.
func (r RingLattice) RingRadius(i int) float64 {
	return r.InitialRadius * math.Pow(r.RadiusFactor, float64(i))
}

// Positions returns the Rings x PerRing element locations relative to the
// array centre. Z is always zero.
func (r RingLattice) Positions() ([][]vlib.Location3D, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	angles := ringAngles(r.PerRing)
	result := make([][]vlib.Location3D, r.Rings)
	for i := range result {
		radius := r.RingRadius(i)
		ring := make([]vlib.Location3D, r.PerRing)
		for j, a := range angles {
			ring[j].X = radius * math.Cos(a)
			ring[j].Y = radius * math.Sin(a)
		}
		result[i] = ring
	}
	return result, nil
}

// ringAngles spans [0,2*pi] with n samples, both endpoints included.
func ringAngles(n int) []float64 {
	result := make([]float64, n)
	if n == 1 {
		return result
	}
	step := 2 * math.Pi / float64(n-1)
	for i := range result {
		result[i] = step * float64(i)
	}
	result[n-1] = 2 * math.Pi
	return result
}
