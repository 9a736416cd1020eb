package galaxy_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/galaxy"
	"github.com/wiless/stationbeam/sky"
)

// linear in l and b, so bilinear lookups are exact away from the seam
func rampMap(t *testing.T) *galaxy.CARMap {
	t.Helper()
	data := mat.NewDense(19, 36, nil) // 10 degree pixels
	data.Apply(func(i, j int, _ float64) float64 {
		return 1000 + float64(j*10) + 0.5*float64(i*10-90)
	}, data)
	m, err := galaxy.NewCARMap(data)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestCARMapLookup(t *testing.T) {
	m := rampMap(t)
	cases := []struct{ l, b, want float64 }{
		{0, 0, 1000},
		{10, -90, 1010 - 45},
		{125, 33, 1125 + 16.5},
		{-235, 33, 1125 + 16.5}, // same as l=125
		{485, 33, 1125 + 16.5},
		{300, 90, 1300 + 45},
		{300, 95, 1300 + 45}, // clamped
	}
	for _, c := range cases {
		if got := m.At(c.l, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("(%v,%v): got %v want %v", c.l, c.b, got, c.want)
		}
	}
	for _, c := range [][2]float64{{math.NaN(), 0}, {math.Inf(1), 0}, {math.Inf(-1), 10}, {10, math.NaN()}} {
		if got := m.At(c[0], c[1]); !math.IsNaN(got) {
			t.Errorf("(%v,%v): got %v, want NaN", c[0], c[1], got)
		}
	}
	// across the seam, halfway between l=350 and l=360(=0)
	if got, want := m.At(355, 0), 0.5*(1350+1000); math.Abs(got-want) > 1e-9 {
		t.Errorf("seam: got %v want %v", got, want)
	}
}

func TestCARMapRoundTrip(t *testing.T) {
	m := rampMap(t)
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ramp.map")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := galaxy.LoadCARMap(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.At(125, 33) != m.At(125, 33) {
		t.Fatal("reloaded map differs")
	}

	if _, err := galaxy.LoadCARMap(path + ".missing"); !errors.Is(err, stationbeam.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := galaxy.ReadCARMap(bytes.NewReader([]byte("junk"))); !errors.Is(err, stationbeam.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
	if _, err := galaxy.NewCARMap(mat.NewDense(1, 5, nil)); !errors.Is(err, stationbeam.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
}

type constMap float64

func (c constMap) At(_, _ float64) float64 { return float64(c) }

func TestBrightnessScaling(t *testing.T) {
	g := galaxy.NewModel(constMap(20))
	if got := g.Brightness(0, 0, 408); got != 20 {
		t.Fatalf("at map frequency: %v", got)
	}
	want := 20 * math.Pow(74.0/408, -2.55)
	if got := g.Brightness(10, 10, 74); math.Abs(got-want) > 1e-9*want {
		t.Fatalf("74 MHz: got %v want %v", got, want)
	}
	custom := &galaxy.Model{Map: constMap(1), MapFreqMHz: 100, PowerScale: -2}
	if got := custom.Brightness(0, 0, 50); math.Abs(got-4) > 1e-12 {
		t.Fatalf("custom scaling: %v", got)
	}
}

func TestModelGrid(t *testing.T) {
	obs := sky.Observer{LatDeg: 26.555465555555557, LonDeg: -97.44199277777778}
	ts := time.Date(2021, 3, 20, 6, 30, 0, 0, time.UTC)
	tr, err := sky.NewTransform(obs, ts, sky.Galactic)
	if err != nil {
		t.Fatal(err)
	}
	grid := tr.Mesh([]float64{0, 45, 90}, []float64{0, 90, 180, 270})

	m := galaxy.NewModel(rampMap(t))
	out, err := m.Grid(grid, 74)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := out.Dims(); r != 4 || c != 3 {
		t.Fatalf("shape %dx%d", r, c)
	}
	l, b := grid.At(1, 1)
	if got, want := out.At(1, 1), m.Brightness(l, b, 74); got != want {
		t.Fatalf("got %v want %v", got, want)
	}

	eq, err := sky.NewTransform(obs, ts, sky.Equatorial)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Grid(eq.Mesh([]float64{0, 90}, []float64{0, 180}), 74); !errors.Is(err, stationbeam.ErrTransform) {
		t.Fatalf("expected transform error, got %v", err)
	}
	if _, err := galaxy.NewModel(nil).Grid(grid, 74); !errors.Is(err, stationbeam.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
