package beampattern

import (
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/antenna"
)

// Evaluator computes the channel magnitudes at one integer (theta,phi) for
// one frequency. *antenna.Synthesizer satisfies it.
type Evaluator interface {
	Evaluate(theta, phi, freqMHz int) (antenna.Channels, error)
}

// Generator fills grids from an Evaluator. Rows of constant theta are
// independent and are shared out to Workers goroutines.
type Generator struct {
	Source  Evaluator
	Workers int        // defaults to runtime.NumCPU()
	Metrics *Collector // optional
}

// Generate evaluates src over the full grid for freqMHz with default settings.
func Generate(src Evaluator, freqMHz int) (*Grid, error) {
	g := Generator{Source: src}
	return g.Run(freqMHz)
}

// Run synthesizes the grid for freqMHz. The first evaluation error aborts
// the remaining rows and is returned; no partial grid is returned.
func (gen *Generator) Run(freqMHz int) (*Grid, error) {
	workers := gen.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > stationbeam.NTheta {
		workers = stationbeam.NTheta
	}
	start := time.Now()
	grid := NewGrid(freqMHz)

	rows := make(chan int)
	done := make(chan struct{})
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			close(done)
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for theta := range rows {
				if err := gen.fillRow(grid, theta); err != nil {
					fail(err)
					return
				}
				if gen.Metrics != nil {
					gen.Metrics.CellsComputed.Add(stationbeam.NPhi)
				}
			}
		}()
	}

feed:
	for theta := 0; theta < stationbeam.NTheta; theta++ {
		select {
		case rows <- theta:
		case <-done:
			break feed
		}
	}
	close(rows)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	elapsed := time.Since(start)
	if gen.Metrics != nil {
		gen.Metrics.GridsBuilt.Inc()
		gen.Metrics.GridDuration.Observe(elapsed.Seconds())
	}
	log.WithFields(log.Fields{
		"freq_mhz": freqMHz,
		"workers":  workers,
		"elapsed":  elapsed,
	}).Info("beam pattern grid synthesized")
	return grid, nil
}

// fillRow writes every phi cell of one theta row. Rows are disjoint, so
// workers never touch the same matrix element.
func (gen *Generator) fillRow(grid *Grid, theta int) error {
	for phi := 0; phi < stationbeam.NPhi; phi++ {
		c, err := gen.Source.Evaluate(theta, phi, grid.Freq)
		if err != nil {
			return err
		}
		grid.XT.Set(theta, phi, c.XT)
		grid.YT.Set(theta, phi, c.YT)
		grid.XP.Set(theta, phi, c.XP)
		grid.YP.Set(theta, phi, c.YP)
	}
	log.WithFields(log.Fields{"freq_mhz": grid.Freq, "theta": theta}).Debug("row done")
	return nil
}
