// Implements the array factor of a ring lattice of identical elements
package antenna

import (
	"fmt"
	"math/cmplx"

	"github.com/wiless/vlib"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/deployment"
	"github.com/wiless/stationbeam/element"
)

// Channels holds the net response magnitude of the four field/polarization
// combinations at one angle and frequency.
type Channels struct {
	XT, YT, XP, YP float64
}

// Response holds the channel magnitudes over the synthesizer frequencies,
// in the order returned by Freqs.
type Response struct {
	XT, YT, XP, YP vlib.VectorF
}

// Synthesizer sums the phase delayed single-element responses of every
// element of a lattice. It holds read-only state and may be shared by
// concurrent goroutines.
type Synthesizer struct {
	lattice  deployment.RingLattice
	elements []vlib.Location3D
	tables   *element.Set
	freqs    []int
	k        map[int]float64
}

// NewSynthesizer builds a synthesizer for the given frequencies (MHz). When
// no frequency is given every table in the set is used. Each frequency must
// have a table.
func NewSynthesizer(lattice deployment.RingLattice, tables *element.Set, freqs ...int) (*Synthesizer, error) {
	if tables == nil {
		return nil, fmt.Errorf("synthesizer: no element tables: %w", stationbeam.ErrDataIntegrity)
	}
	pos, err := lattice.Positions()
	if err != nil {
		return nil, err
	}
	if len(freqs) == 0 {
		freqs = tables.Freqs()
	}
	if len(freqs) == 0 {
		return nil, fmt.Errorf("synthesizer: no frequencies: %w", stationbeam.ErrConfiguration)
	}
	s := &Synthesizer{
		lattice:  lattice,
		elements: make([]vlib.Location3D, 0, lattice.Count()),
		tables:   tables,
		freqs:    append([]int(nil), freqs...),
		k:        make(map[int]float64, len(freqs)),
	}
	for _, ring := range pos {
		s.elements = append(s.elements, ring...)
	}
	for _, f := range s.freqs {
		if _, err := tables.Table(f); err != nil {
			return nil, fmt.Errorf("synthesizer: %w", err)
		}
		s.k[f] = stationbeam.Wavenumber(f)
	}
	return s, nil
}

// Lattice returns the element lattice.
func (s *Synthesizer) Lattice() deployment.RingLattice {
	return s.lattice
}

// Freqs returns the configured frequencies in MHz.
func (s *Synthesizer) Freqs() []int {
	return append([]int(nil), s.freqs...)
}

// Elements returns the number of elements summed, coincident ones included.
func (s *Synthesizer) Elements() int {
	return len(s.elements)
}

// ArrayFactor returns sum_e exp(-j*k*(r_e . hat)) for the arrival direction
// (theta,phi) in degrees and wavenumber k in rad/m.
func (s *Synthesizer) ArrayFactor(theta, phi, k float64) complex128 {
	hx, hy := Direction(theta, phi)
	var af complex128
	for _, e := range s.elements {
		af += GetEJtheta(Degree(k * (e.X*hx + e.Y*hy)))
	}
	return af
}

// Evaluate returns the net channel magnitudes at integer degrees (theta,phi)
// for one configured frequency.
func (s *Synthesizer) Evaluate(theta, phi, freqMHz int) (Channels, error) {
	k, ok := s.k[freqMHz]
	if !ok {
		return Channels{}, fmt.Errorf("synthesizer: %d MHz not configured: %w", freqMHz, stationbeam.ErrDataIntegrity)
	}
	rec, err := s.tables.Get(freqMHz, theta, phi)
	if err != nil {
		return Channels{}, err
	}
	af := s.ArrayFactor(float64(theta), float64(phi), k)
	return Channels{
		XT: cmplx.Abs(Phasor(rec.XTMag, rec.XTPhase) * af),
		YT: cmplx.Abs(Phasor(rec.YTMag, rec.YTPhase) * af),
		XP: cmplx.Abs(Phasor(rec.XPMag, rec.XPPhase) * af),
		YP: cmplx.Abs(Phasor(rec.YPMag, rec.YPPhase) * af),
	}, nil
}

// Response evaluates (theta,phi) at every configured frequency.
func (s *Synthesizer) Response(theta, phi int) (Response, error) {
	n := len(s.freqs)
	r := Response{
		XT: vlib.NewVectorF(n),
		YT: vlib.NewVectorF(n),
		XP: vlib.NewVectorF(n),
		YP: vlib.NewVectorF(n),
	}
	for i, f := range s.freqs {
		c, err := s.Evaluate(theta, phi, f)
		if err != nil {
			return Response{}, err
		}
		r.XT[i], r.YT[i], r.XP[i], r.YP[i] = c.XT, c.YT, c.XP, c.YP
	}
	return r, nil
}
