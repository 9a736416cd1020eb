// Command beamsky reports where a LoFASM station beam points on the sky at
// a given time, and optionally the beam-weighted galactic brightness.
//
//	beamsky -station LF1 -freq 20 -griddir ./grids -time 2021-03-20T06:30:00
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/galaxy"
	"github.com/wiless/stationbeam/sky"
	"github.com/wiless/stationbeam/station"
)

type options struct {
	catalog string
	station string
	freq    int
	gridDir string
	when    string
	frame   string
	skyMap  string
	nalt    int
	naz     int
}

// Report is the outcome of one beamsky run.
type Report struct {
	Station   string
	Time      time.Time
	Frame     sky.Frame
	Peak      float64
	PeakAlt   float64
	PeakAz    float64
	PeakLon   float64
	PeakLat   float64
	ZenithLon float64
	ZenithLat float64
	SkyTemp   float64 // beam weighted, 0 without a sky map
}

func loadStation(o options) (*station.Model, error) {
	cat := station.DefaultCatalog()
	if o.catalog != "" {
		var err error
		if cat, err = station.LoadCatalog(o.catalog); err != nil {
			return nil, err
		}
	}
	e, err := cat.Lookup(o.station)
	if err != nil {
		return nil, err
	}
	cfg := e.Config()
	if o.nalt > 0 {
		cfg.NAlt = o.nalt
	}
	if o.naz > 0 {
		cfg.NAz = o.naz
	}
	return station.New(cfg)
}

// weightedMean returns sum(w*v)/sum(w) where bp is (nalt, naz) and the
// values are laid out (naz, nalt).
func weightedMean(bp, values *mat.Dense) (float64, error) {
	nalt, naz := bp.Dims()
	if r, c := values.Dims(); r != naz || c != nalt {
		return 0, fmt.Errorf("beam %dx%d against sky %dx%d: %w", nalt, naz, r, c, stationbeam.ErrDataIntegrity)
	}
	var num, den float64
	for i := 0; i < nalt; i++ {
		for j := 0; j < naz; j++ {
			w := bp.At(i, j)
			num += w * values.At(j, i)
			den += w
		}
	}
	if den == 0 {
		return 0, fmt.Errorf("beam has no power: %w", stationbeam.ErrDataIntegrity)
	}
	return num / den, nil
}

func run(o options) (*Report, error) {
	m, err := loadStation(o)
	if err != nil {
		return nil, err
	}
	t := time.Now().UTC()
	if o.when != "" {
		if t, err = sky.ParseTime(o.when); err != nil {
			return nil, err
		}
	}
	frame, err := sky.ParseFrame(o.frame)
	if err != nil {
		return nil, err
	}

	bp, err := m.BeamPatternFromDir(o.freq, o.gridDir)
	if err != nil {
		return nil, err
	}
	grid, err := m.Sky(t, frame)
	if err != nil {
		return nil, err
	}

	alt, az := m.Alt(), m.Az()
	r := &Report{Station: m.Name(), Time: t, Frame: frame, Peak: mat.Max(bp)}
	nalt, naz := bp.Dims()
peak:
	for i := 0; i < nalt; i++ {
		for j := 0; j < naz; j++ {
			if bp.At(i, j) == r.Peak {
				r.PeakAlt, r.PeakAz = alt[i], az[j]
				r.PeakLon, r.PeakLat = grid.At(j, i)
				break peak
			}
		}
	}
	r.ZenithLon, r.ZenithLat = grid.At(0, nalt-1)

	if o.skyMap != "" {
		if frame != sky.Galactic {
			return nil, fmt.Errorf("sky map needs the galactic frame: %w", stationbeam.ErrConfiguration)
		}
		cm, err := galaxy.LoadCARMap(o.skyMap)
		if err != nil {
			return nil, err
		}
		temps, err := galaxy.NewModel(cm).Grid(grid, float64(o.freq))
		if err != nil {
			return nil, err
		}
		if r.SkyTemp, err = weightedMean(bp, temps); err != nil {
			return nil, err
		}
	}
	log.WithFields(log.Fields{"station": r.Station, "freq_mhz": o.freq, "time": t}).Debug("beamsky done")
	return r, nil
}

func printReport(r *Report, freq int) {
	head := color.New(color.FgCyan, color.Bold).SprintFunc()
	val := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(color.Output, "%s %s at %s, %d MHz\n", head("station"), r.Station, r.Time.Format(time.RFC3339), freq)
	fmt.Fprintf(color.Output, "%s %s at alt %.2f az %.2f -> %v (%.3f, %.3f)\n",
		head("peak"), val(fmt.Sprintf("%.4f", r.Peak)), r.PeakAlt, r.PeakAz, r.Frame, r.PeakLon, r.PeakLat)
	fmt.Fprintf(color.Output, "%s %v (%s, %s)\n",
		head("zenith"), r.Frame, val(fmt.Sprintf("%.3f", r.ZenithLon)), val(fmt.Sprintf("%.3f", r.ZenithLat)))
	if r.SkyTemp != 0 {
		fmt.Fprintf(color.Output, "%s %s\n", head("sky temperature"), val(fmt.Sprintf("%.1f", r.SkyTemp)))
	}
}

func main() {
	var o options
	flag.StringVar(&o.catalog, "catalog", "", "Station catalog YAML (built-in LoFASM catalog when empty)")
	flag.StringVar(&o.station, "station", "LF1", "Station id or name")
	flag.IntVar(&o.freq, "freq", 20, "Frequency in MHz")
	flag.StringVar(&o.gridDir, "griddir", ".", "Directory holding beamgen grids")
	flag.StringVar(&o.when, "time", "", "UTC observation time (now when empty)")
	flag.StringVar(&o.frame, "frame", "galactic", "Output frame: galactic or equatorial")
	flag.StringVar(&o.skyMap, "skymap", "", "Plate carree sky map for the brightness estimate")
	flag.IntVar(&o.nalt, "nalt", 0, "Altitude samples (catalog value when 0)")
	flag.IntVar(&o.naz, "naz", 0, "Azimuth samples (catalog value when 0)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	r, err := run(o)
	if err != nil {
		color.Red("beamsky: %v", err)
		os.Exit(1)
	}
	printReport(r, o.freq)
}
