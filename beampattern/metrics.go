package beampattern

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes grid generation metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	CellsComputed prometheus.Counter
	GridsBuilt    prometheus.Counter
	GridDuration  prometheus.Histogram
}

// NewCollector registers the generator metrics against reg, or the default
// registerer when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	cells, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beampattern_cells_computed_total",
		Help: "Number of (theta,phi) cells synthesized.",
	}), "beampattern_cells_computed_total")
	if err != nil {
		return nil, err
	}

	grids, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "beampattern_grids_built_total",
		Help: "Number of complete beam-pattern grids synthesized.",
	}), "beampattern_grids_built_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "beampattern_grid_duration_seconds",
		Help:    "Wall time to synthesize one beam-pattern grid.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})
	if err := reg.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("register beampattern_grid_duration_seconds: %w", err)
		}
		existing, ok := are.ExistingCollector.(prometheus.Histogram)
		if !ok {
			return nil, fmt.Errorf("beampattern_grid_duration_seconds registered with unexpected type %T", are.ExistingCollector)
		}
		duration = existing
	}

	return &Collector{
		gatherer:      gatherer,
		CellsComputed: cells,
		GridsBuilt:    grids,
		GridDuration:  duration,
	}, nil
}

// WriteTextfile dumps the gathered metrics in the text exposition format,
// for node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.gatherer)
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("%s registered with unexpected type %T", name, are.ExistingCollector)
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return counter, nil
}
