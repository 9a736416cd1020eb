// Package beampattern drives the array synthesizer over the full native
// (theta,phi) grid and persists the resulting grids per frequency.
package beampattern

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
)

// Grid holds the four channel magnitude grids of one frequency. Each matrix
// is NTheta x NPhi, indexed [theta][phi] in integer degrees.
type Grid struct {
	Freq int
	XT   *mat.Dense
	YT   *mat.Dense
	XP   *mat.Dense
	YP   *mat.Dense
}

// NewGrid returns a zeroed grid for freqMHz.
func NewGrid(freqMHz int) *Grid {
	return &Grid{
		Freq: freqMHz,
		XT:   mat.NewDense(stationbeam.NTheta, stationbeam.NPhi, nil),
		YT:   mat.NewDense(stationbeam.NTheta, stationbeam.NPhi, nil),
		XP:   mat.NewDense(stationbeam.NTheta, stationbeam.NPhi, nil),
		YP:   mat.NewDense(stationbeam.NTheta, stationbeam.NPhi, nil),
	}
}

// Channels returns the four grids keyed by channel name.
func (g *Grid) Channels() map[string]*mat.Dense {
	return map[string]*mat.Dense{"xt": g.XT, "yt": g.YT, "xp": g.XP, "yp": g.YP}
}

// Validate checks that all four grids are present with the native shape.
func (g *Grid) Validate() error {
	for name, m := range g.Channels() {
		if m == nil {
			return fmt.Errorf("grid %d MHz: missing %s: %w", g.Freq, name, stationbeam.ErrDataIntegrity)
		}
		if r, c := m.Dims(); r != stationbeam.NTheta || c != stationbeam.NPhi {
			return fmt.Errorf("grid %d MHz: %s is %dx%d, want %dx%d: %w",
				g.Freq, name, r, c, stationbeam.NTheta, stationbeam.NPhi, stationbeam.ErrDataIntegrity)
		}
	}
	return nil
}

// Equal reports whether both grids hold bit-identical values.
func (g *Grid) Equal(o *Grid) bool {
	if g.Freq != o.Freq {
		return false
	}
	return mat.Equal(g.XT, o.XT) && mat.Equal(g.YT, o.YT) &&
		mat.Equal(g.XP, o.XP) && mat.Equal(g.YP, o.YP)
}

// Composite combines the channels into the total power pattern
// 0.5*(sqrt(xt^2+yt^2) + sqrt(xp^2+yp^2)).
func (g *Grid) Composite() *mat.Dense {
	result := mat.NewDense(stationbeam.NTheta, stationbeam.NPhi, nil)
	result.Apply(func(i, j int, _ float64) float64 {
		return 0.5 * (math.Hypot(g.XT.At(i, j), g.YT.At(i, j)) +
			math.Hypot(g.XP.At(i, j), g.YP.At(i, j)))
	}, result)
	return result
}
