package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/beampattern"
	"github.com/wiless/stationbeam/deployment"
	"github.com/wiless/stationbeam/element"
)

func TestReadAppConfigDefaults(t *testing.T) {
	cfg, err := ReadAppConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Lattice != deployment.NewRingLattice() {
		t.Errorf("lattice %+v", cfg.Lattice)
	}
	if cfg.TablePattern != element.DefaultFilePattern || cfg.Store != "dir" || cfg.LogLevel != "info" {
		t.Errorf("config %+v", cfg)
	}
	if err := cfg.Validate(); !errors.Is(err, stationbeam.ErrConfiguration) {
		t.Errorf("no frequencies: got %v", err)
	}
}

func TestReadAppConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`store: sqlite
freqs: [20, 74]
lattice:
  rings: 3
  per_ring: 4
  initial_radius: 10
  radius_factor: 1.5
`)
	if err := os.WriteFile(filepath.Join(dir, "beamgen.yaml"), doc, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEAMGEN_WORKERS", "3")
	t.Setenv("BEAMGEN_LATTICE_RINGS", "5")

	cfg, err := ReadAppConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != "sqlite" || cfg.Workers != 3 {
		t.Errorf("store %q workers %d", cfg.Store, cfg.Workers)
	}
	if len(cfg.Freqs) != 2 || cfg.Freqs[1] != 74 {
		t.Errorf("freqs %v", cfg.Freqs)
	}
	want := deployment.RingLattice{Rings: 5, PerRing: 4, InitialRadius: 10, RadiusFactor: 1.5}
	if cfg.Lattice != want {
		t.Errorf("lattice %+v", cfg.Lattice)
	}
	if err := cfg.Validate(); err != nil {
		t.Error(err)
	}

	cfg.Store = "s3"
	if err := cfg.Validate(); !errors.Is(err, stationbeam.ErrConfiguration) {
		t.Errorf("store s3: got %v", err)
	}
}

func TestParseFreqs(t *testing.T) {
	got, err := parseFreqs([]string{"20", "74"})
	if err != nil || len(got) != 2 || got[0] != 20 || got[1] != 74 {
		t.Fatalf("got %v %v", got, err)
	}
	if _, err := parseFreqs([]string{"74MHz"}); !errors.Is(err, stationbeam.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	one := element.Record{XTMag: 1, YTMag: 1, XPMag: 1, YPMag: 1}
	tables, err := element.NewSet(element.Constant(74, one), element.Constant(30, one))
	if err != nil {
		t.Fatal(err)
	}
	cfg := &AppConfig{
		OutDir:  t.TempDir(),
		Store:   "dir",
		Workers: 4,
		Freqs:   []int{74, 30},
		Lattice: deployment.RingLattice{Rings: 2, PerRing: 3, InitialRadius: 10, RadiusFactor: 1},
	}
	st, closeStore, err := cfg.OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	defer closeStore()
	metrics, err := beampattern.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	summaries, err := generate(cfg, tables, st, metrics)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("%d summaries", len(summaries))
	}
	for _, s := range summaries {
		if s.Elements != 6 || math.Abs(s.Broadside-6*math.Sqrt2) > 1e-9 {
			t.Errorf("%d MHz: %+v", s.Freq, s)
		}
		if s.Peak < s.Broadside {
			t.Errorf("%d MHz: peak %v below broadside", s.Freq, s.Peak)
		}
	}
	if got := testutil.ToFloat64(metrics.GridsBuilt); got != 2 {
		t.Errorf("grids built %v", got)
	}

	g, err := st.Load(74)
	if err != nil {
		t.Fatal(err)
	}
	if g.XT.At(0, 0) != 6 {
		t.Errorf("stored broadside xt %v", g.XT.At(0, 0))
	}

	cfg.Freqs = []int{50}
	if _, err := generate(cfg, tables, st, nil); !errors.Is(err, stationbeam.ErrDataIntegrity) {
		t.Errorf("missing table: got %v", err)
	}
}

func TestCloseInto(t *testing.T) {
	failing := func() error { return errors.New("disk gone") }

	var err error
	closeInto(&err, failing)
	if err == nil || err.Error() != "close store: disk gone" {
		t.Fatalf("close error lost: %v", err)
	}

	err = stationbeam.ErrNotFound
	closeInto(&err, failing)
	if !errors.Is(err, stationbeam.ErrNotFound) {
		t.Fatalf("earlier error replaced: %v", err)
	}

	cfg := &AppConfig{OutDir: t.TempDir(), Store: "sqlite", DBFile: "grids.db"}
	st, closeStore, err := cfg.OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(74); !errors.Is(err, stationbeam.ErrNotFound) {
		t.Fatalf("empty db: got %v", err)
	}
	err = nil
	closeInto(&err, closeStore)
	if err != nil {
		t.Fatalf("closing sqlite store: %v", err)
	}
}
