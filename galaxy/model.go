// Package galaxy predicts diffuse galactic sky brightness from an all-sky
// map measured at one frequency and a power-law spectral scaling.
package galaxy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/sky"
)

// Haslam 408 MHz survey defaults.
const (
	DefaultMapFreqMHz = 408.0
	DefaultPowerScale = -2.55
)

// SkyMap returns the map brightness at galactic (l, b) in degrees.
type SkyMap interface {
	At(l, b float64) float64
}

// Model scales a SkyMap measured at MapFreqMHz to other frequencies as
// (f/MapFreqMHz)^PowerScale.
type Model struct {
	Map        SkyMap
	MapFreqMHz float64
	PowerScale float64
}

// NewModel returns a model over m with the 408 MHz defaults.
func NewModel(m SkyMap) *Model {
	return &Model{Map: m, MapFreqMHz: DefaultMapFreqMHz, PowerScale: DefaultPowerScale}
}

// Validate checks the map and the scaling parameters.
func (m *Model) Validate() error {
	if m.Map == nil {
		return fmt.Errorf("galaxy model: no sky map: %w", stationbeam.ErrConfiguration)
	}
	if !(m.MapFreqMHz > 0) || math.IsInf(m.MapFreqMHz, 0) || math.IsNaN(m.PowerScale) {
		return fmt.Errorf("galaxy model: map frequency %v, power %v: %w",
			m.MapFreqMHz, m.PowerScale, stationbeam.ErrConfiguration)
	}
	return nil
}

// Scale returns the spectral factor applied to the map at freqMHz.
func (m *Model) Scale(freqMHz float64) float64 {
	return math.Pow(freqMHz/m.MapFreqMHz, m.PowerScale)
}

// Brightness returns the sky brightness at galactic (l, b) for freqMHz.
func (m *Model) Brightness(l, b, freqMHz float64) float64 {
	return m.Map.At(l, b) * m.Scale(freqMHz)
}

// Grid evaluates the model on every point of a galactic sky grid, keeping
// its (naz, nalt) shape.
func (m *Model) Grid(g *sky.Grid, freqMHz float64) (*mat.Dense, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if g.Frame != sky.Galactic {
		return nil, fmt.Errorf("galaxy model: grid is %v, need galactic: %w", g.Frame, stationbeam.ErrTransform)
	}
	if !(freqMHz > 0) {
		return nil, fmt.Errorf("galaxy model: frequency %v MHz: %w", freqMHz, stationbeam.ErrConfiguration)
	}
	scale := m.Scale(freqMHz)
	r, c := g.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, _ float64) float64 {
		l, b := g.At(i, j)
		return m.Map.At(l, b) * scale
	}, out)
	return out, nil
}
