// Package station models one LoFASM ground station: its beam pattern
// resampled on the station's own altitude/azimuth grid, and the mapping of
// that grid onto the sky at a given time.
package station

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/beampattern"
	"github.com/wiless/stationbeam/sky"
)

// Default station grid resolution.
const (
	DefaultNAlt = 910
	DefaultNAz  = 3590
)

// Config describes a station. Alt and az samples are evenly spaced over
// [0,90] and [0,360] degrees, both ends included.
type Config struct {
	Name     string       `yaml:"name" mapstructure:"name"`
	Location sky.Observer `yaml:"location" mapstructure:"location"`
	NAlt     int          `yaml:"nalt" mapstructure:"nalt"`
	NAz      int          `yaml:"naz" mapstructure:"naz"`
}

// NewConfig returns a config with the default grid resolution.
func NewConfig(name string, loc sky.Observer) Config {
	return Config{Name: name, Location: loc, NAlt: DefaultNAlt, NAz: DefaultNAz}
}

// Validate checks the grid counts and the location.
func (c Config) Validate() error {
	if c.NAlt < 2 || c.NAz < 2 {
		return fmt.Errorf("station %q: grid %dx%d, need at least 2x2: %w", c.Name, c.NAlt, c.NAz, stationbeam.ErrConfiguration)
	}
	return c.Location.Validate()
}

// Model is a station with a fixed alt/az sampling grid.
type Model struct {
	cfg Config
	alt []float64
	az  []float64
}

// New validates cfg and builds the station grid.
func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		cfg: cfg,
		alt: floats.Span(make([]float64, cfg.NAlt), 0, 90),
		az:  floats.Span(make([]float64, cfg.NAz), 0, 360),
	}
	return m, nil
}

// Name returns the station name.
func (m *Model) Name() string { return m.cfg.Name }

// Config returns the station configuration.
func (m *Model) Config() Config { return m.cfg }

// Alt returns a copy of the altitude samples in degrees.
func (m *Model) Alt() []float64 { return append([]float64(nil), m.alt...) }

// Az returns a copy of the azimuth samples in degrees.
func (m *Model) Az() []float64 { return append([]float64(nil), m.az...) }

var thetaKnots, phiKnots = func() ([]float64, []float64) {
	th := make([]float64, stationbeam.NTheta)
	for i := range th {
		th[i] = float64(i)
	}
	ph := make([]float64, stationbeam.NPhi)
	for i := range ph {
		ph[i] = float64(i)
	}
	return th, ph
}()

// BeamPattern loads the grid for freqMHz from src and returns the total
// power pattern interpolated onto the station grid, shape (nalt, naz).
// The altitude samples are used directly as the zenith-angle axis of the
// native grid.
func (m *Model) BeamPattern(freqMHz int, src beampattern.Loader) (*mat.Dense, error) {
	g, err := src.Load(freqMHz)
	if err != nil {
		return nil, fmt.Errorf("station %q: %w", m.cfg.Name, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	sp, err := NewRectSpline(thetaKnots, phiKnots, g.Composite())
	if err != nil {
		return nil, err
	}
	bp, err := sp.Grid(m.alt, m.az)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"station":  m.cfg.Name,
		"freq_mhz": freqMHz,
		"nalt":     len(m.alt),
		"naz":      len(m.az),
	}).Debug("beam pattern interpolated")
	return bp, nil
}

// BeamPatternFromDir is BeamPattern reading grid files from rootDir.
func (m *Model) BeamPatternFromDir(freqMHz int, rootDir string) (*mat.Dense, error) {
	return m.BeamPattern(freqMHz, beampattern.NewDirStore(rootDir))
}

// Sky maps the station mesh into frame at t. The result has shape
// (naz, nalt).
func (m *Model) Sky(t time.Time, frame sky.Frame) (*sky.Grid, error) {
	tr, err := sky.NewTransform(m.cfg.Location, t, frame)
	if err != nil {
		return nil, fmt.Errorf("station %q: %w", m.cfg.Name, err)
	}
	return tr.Mesh(m.alt, m.az), nil
}

// Galactic maps the station mesh to galactic coordinates at t.
func (m *Model) Galactic(t time.Time) (*sky.Grid, error) {
	return m.Sky(t, sky.Galactic)
}

// GalacticAt is Galactic for a timestamp string accepted by sky.ParseTime.
func (m *Model) GalacticAt(ts string) (*sky.Grid, error) {
	t, err := sky.ParseTime(ts)
	if err != nil {
		return nil, err
	}
	return m.Galactic(t)
}
