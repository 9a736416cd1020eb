// Command beamgen synthesizes the station beam-pattern grid for each
// frequency given on the command line and persists it.
//
//	beamgen -indir ./nec -outdir ./grids 20 25 30 35
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/wiless/vlib"
	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/antenna"
	"github.com/wiless/stationbeam/beampattern"
	"github.com/wiless/stationbeam/element"
)

var (
	indir   string
	outdir  string
	store   string
	workers int
	verbose bool
)

func init() {
	flag.StringVar(&indir, "indir", ".", "Directory holding beamgen config and element tables")
	flag.StringVar(&outdir, "outdir", "", "Directory where grids are written (overrides out_dir)")
	flag.StringVar(&store, "store", "", "Grid store: dir or sqlite (overrides store)")
	flag.IntVar(&workers, "workers", 0, "Worker goroutines per grid (overrides workers)")
	flag.BoolVar(&verbose, "v", false, "Debug logging")
}

// Summary describes one generated grid.
type Summary struct {
	Freq      int     `json:"freq_mhz"`
	Elements  int     `json:"elements"`
	Broadside float64 `json:"broadside"`
	Peak      float64 `json:"peak"`
	PeakTheta int     `json:"peak_theta"`
	PeakPhi   int     `json:"peak_phi"`
	Elapsed   string  `json:"elapsed"`
}

func summarize(g *beampattern.Grid, elements int, elapsed time.Duration) Summary {
	c := g.Composite()
	s := Summary{Freq: g.Freq, Elements: elements, Broadside: c.At(0, 0), Elapsed: elapsed.String()}
	s.Peak = mat.Max(c)
	for th := 0; th < stationbeam.NTheta; th++ {
		for ph := 0; ph < stationbeam.NPhi; ph++ {
			if c.At(th, ph) == s.Peak {
				s.PeakTheta, s.PeakPhi = th, ph
				return s
			}
		}
	}
	return s
}

// generate builds and stores one grid per configured frequency.
func generate(cfg *AppConfig, tables *element.Set, st beampattern.Store, metrics *beampattern.Collector) ([]Summary, error) {
	synth, err := antenna.NewSynthesizer(cfg.Lattice, tables, cfg.Freqs...)
	if err != nil {
		return nil, err
	}
	gen := beampattern.Generator{Source: synth, Workers: cfg.Workers, Metrics: metrics}
	log.WithFields(log.Fields{"lattice": synth.Lattice(), "elements": synth.Elements()}).Info("synthesizer ready")
	var out []Summary
	for _, f := range cfg.Freqs {
		start := time.Now()
		grid, err := gen.Run(f)
		if err != nil {
			return out, fmt.Errorf("generate %d MHz: %w", f, err)
		}
		if err := st.Save(grid); err != nil {
			return out, err
		}
		out = append(out, summarize(grid, synth.Elements(), time.Since(start)))
	}
	return out, nil
}

func parseFreqs(args []string) ([]int, error) {
	freqs := make([]int, 0, len(args))
	for _, a := range args {
		f, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("frequency %q: %w", a, stationbeam.ErrParse)
		}
		freqs = append(freqs, f)
	}
	return freqs, nil
}

func joinOut(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// prepareDirs resolves the table directory against indir and creates the
// output directory.
func prepareDirs(cfg *AppConfig) error {
	finfo, err := os.Stat(indir)
	if err != nil {
		return fmt.Errorf("input dir %s: %w", indir, err)
	}
	if !finfo.IsDir() {
		return fmt.Errorf("input dir %s is not a directory: %w", indir, stationbeam.ErrConfiguration)
	}
	cfg.TableDir = joinOut(indir, cfg.TableDir)
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if cfg.OutDir, err = filepath.Abs(cfg.OutDir); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if cfg.TableDir, err = filepath.Abs(cfg.TableDir); err != nil {
		return fmt.Errorf("table dir: %w", err)
	}
	log.WithFields(log.Fields{"tables": cfg.TableDir, "out": cfg.OutDir}).Info("directories")
	return nil
}

// closeInto runs closer and keeps its error in *err unless *err is
// already set.
func closeInto(err *error, closer func() error) {
	if cerr := closer(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close store: %w", cerr)
	}
}

func run() (err error) {
	cfg, err := ReadAppConfig(indir)
	if err != nil {
		return err
	}
	if outdir != "" {
		cfg.OutDir = outdir
	}
	if store != "" {
		cfg.Store = store
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if flag.NArg() > 0 {
		if cfg.Freqs, err = parseFreqs(flag.Args()); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if err := prepareDirs(cfg); err != nil {
		return err
	}
	tables, err := element.LoadDir(cfg.TableDir, cfg.TablePattern, cfg.Freqs)
	if err != nil {
		return err
	}
	st, closeStore, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer closeInto(&err, closeStore)

	metrics, err := beampattern.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	summaries, err := generate(cfg, tables, st, metrics)
	if err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(joinOut(cfg.OutDir, cfg.MetricsFile)); err != nil {
			return err
		}
	}
	vlib.SaveStructure(summaries, joinOut(cfg.OutDir, "beamgen-summary.json"), true)
	printSummary(summaries)
	return nil
}

func printSummary(summaries []Summary) {
	head := color.New(color.FgCyan, color.Bold).SprintFunc()
	val := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintln(color.Output, head("freq(MHz)  elements  broadside   peak(theta,phi)   elapsed"))
	for _, s := range summaries {
		fmt.Fprintf(color.Output, "%9d  %8d  %9s  %8s (%2d,%3d)   %s\n",
			s.Freq, s.Elements, val(fmt.Sprintf("%.4f", s.Broadside)),
			val(fmt.Sprintf("%.4f", s.Peak)), s.PeakTheta, s.PeakPhi, s.Elapsed)
	}
}

func main() {
	help := flag.Bool("help", false, "prints this help")
	flag.Parse()
	if *help {
		flag.PrintDefaults()
		os.Exit(0)
	}
	if err := run(); err != nil {
		color.Red("beamgen: %v", err)
		os.Exit(1)
	}
}
