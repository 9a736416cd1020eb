package station_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/beampattern"
	"github.com/wiless/stationbeam/station"
)

type gridLoader map[int]*beampattern.Grid

func (l gridLoader) Load(freq int) (*beampattern.Grid, error) {
	g, ok := l[freq]
	if !ok {
		return nil, fmt.Errorf("grid %d MHz: %w", freq, stationbeam.ErrNotFound)
	}
	return g, nil
}

// smooth is the composite pattern of smoothGrid.
func smooth(theta, phi float64) float64 {
	return 2 + math.Sin(theta*math.Pi/180)*math.Cos(phi*math.Pi/180)
}

// smoothGrid sets xt=xp=smooth and yt=yp=0 so that the composite equals
// smooth itself.
func smoothGrid(freq int) *beampattern.Grid {
	g := beampattern.NewGrid(freq)
	for th := 0; th < stationbeam.NTheta; th++ {
		for ph := 0; ph < stationbeam.NPhi; ph++ {
			v := smooth(float64(th), float64(ph))
			g.XT.Set(th, ph, v)
			g.XP.Set(th, ph, v)
		}
	}
	return g
}

func lf1(t *testing.T, nalt, naz int) *station.Model {
	t.Helper()
	e, err := station.DefaultCatalog().Lookup("LF1")
	if err != nil {
		t.Fatal(err)
	}
	cfg := e.Config()
	cfg.NAlt, cfg.NAz = nalt, naz
	m, err := station.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBeamPatternAtKnots(t *testing.T) {
	g := beampattern.NewGrid(74)
	for th := 0; th < stationbeam.NTheta; th++ {
		for ph := 0; ph < stationbeam.NPhi; ph++ {
			g.XT.Set(th, ph, 1+float64((th*7+ph*13)%17))
			g.YT.Set(th, ph, float64(ph%5))
			g.XP.Set(th, ph, 0.5+float64(th%3))
			g.YP.Set(th, ph, 2)
		}
	}
	want := g.Composite()

	m := lf1(t, 91, 361)
	bp, err := m.BeamPattern(74, gridLoader{74: g})
	if err != nil {
		t.Fatal(err)
	}
	if r, c := bp.Dims(); r != 91 || c != 361 {
		t.Fatalf("shape %dx%d", r, c)
	}
	for th := 0; th < stationbeam.NTheta; th++ {
		for ph := 0; ph < stationbeam.NPhi; ph++ {
			w := want.At(th, ph)
			if math.Abs(bp.At(th, ph)-w) > 1e-3*math.Abs(w) {
				t.Fatalf("(%d,%d): got %v want %v", th, ph, bp.At(th, ph), w)
			}
		}
	}
	// azimuth 360 lies past the last knot and holds its value
	if bp.At(10, 360) != bp.At(10, 359) {
		t.Errorf("az 360: got %v, want boundary %v", bp.At(10, 360), bp.At(10, 359))
	}
}

func TestBeamPatternBetweenKnots(t *testing.T) {
	m := lf1(t, 181, 719)
	bp, err := m.BeamPattern(50, gridLoader{50: smoothGrid(50)})
	if err != nil {
		t.Fatal(err)
	}
	alt, az := m.Alt(), m.Az()
	for i, a := range alt {
		for j, z := range az {
			if z > 359 {
				continue
			}
			if d := math.Abs(bp.At(i, j) - smooth(a, z)); d > 1e-6 {
				t.Fatalf("(%v,%v): off by %v", a, z, d)
			}
		}
	}
}

func TestBeamPatternIdempotent(t *testing.T) {
	m := lf1(t, 31, 73)
	src := gridLoader{60: smoothGrid(60)}
	a, err := m.BeamPattern(60, src)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.BeamPattern(60, src)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a, b) {
		t.Fatal("repeated beam pattern differs")
	}
}

func TestBeamPatternFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := beampattern.NewDirStore(dir).Save(smoothGrid(20)); err != nil {
		t.Fatal(err)
	}
	m := lf1(t, 10, 20)
	bp, err := m.BeamPatternFromDir(20, dir)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := bp.Dims(); r != 10 || c != 20 {
		t.Fatalf("shape %dx%d", r, c)
	}
	if math.Abs(bp.At(9, 0)-smooth(90, 0)) > 1e-9 {
		t.Fatalf("zenith-angle 90, az 0: got %v", bp.At(9, 0))
	}

	if _, err := m.BeamPatternFromDir(21, dir); !errors.Is(err, stationbeam.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := m.BeamPattern(21, gridLoader{}); !errors.Is(err, stationbeam.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGalacticFixture(t *testing.T) {
	m := lf1(t, 3, 5) // alt 0,45,90  az 0,90,180,270,360
	gc, err := m.GalacticAt("2021-03-20T06:30:00")
	if err != nil {
		t.Fatal(err)
	}
	if naz, nalt := gc.Dims(); naz != 5 || nalt != 3 {
		t.Fatalf("dims %d,%d", naz, nalt)
	}
	l, b := gc.At(1, 1)
	if !scalar.EqualWithinAbs(l, 24.22484, 0.01) || !scalar.EqualWithinAbs(b, 58.35128, 0.01) {
		t.Fatalf("alt 45 az 90: l=%v b=%v", l, b)
	}
	l, b = gc.At(0, 2)
	if !scalar.EqualWithinAbs(l, 211.43767, 0.01) || !scalar.EqualWithinAbs(b, 76.57063, 0.01) {
		t.Fatalf("zenith: l=%v b=%v", l, b)
	}

	same, err := m.Galactic(time.Date(2021, 3, 20, 6, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(gc.Lon, same.Lon) || !mat.Equal(gc.Lat, same.Lat) {
		t.Fatal("string and time inputs disagree")
	}

	if _, err := m.GalacticAt("not a time"); !errors.Is(err, stationbeam.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNewValidates(t *testing.T) {
	e, _ := station.DefaultCatalog().Lookup("LF2")
	good := e.Config()
	if good.NAlt != station.DefaultNAlt || good.NAz != station.DefaultNAz {
		t.Fatalf("default grid %dx%d", good.NAlt, good.NAz)
	}

	bad := good
	bad.NAlt = 1
	if _, err := station.New(bad); !errors.Is(err, stationbeam.ErrConfiguration) {
		t.Errorf("nalt=1: got %v", err)
	}
	bad = good
	bad.Location.LatDeg = 120
	if _, err := station.New(bad); !errors.Is(err, stationbeam.ErrTransform) {
		t.Errorf("lat=120: got %v", err)
	}
}
