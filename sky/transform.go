// Package sky converts local horizontal coordinates of a ground station into
// celestial frames at a given time.
package sky

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
)

// Observer is a geodetic station location. Longitude is east positive.
type Observer struct {
	LatDeg     float64 `yaml:"lat_deg" mapstructure:"lat_deg"`
	LonDeg     float64 `yaml:"lon_deg" mapstructure:"lon_deg"`
	ElevationM float64 `yaml:"elevation_m" mapstructure:"elevation_m"`
}

// Validate checks that the location is defined on the ellipsoid.
func (o Observer) Validate() error {
	for _, v := range []float64{o.LatDeg, o.LonDeg, o.ElevationM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("observer %+v: non finite coordinate: %w", o, stationbeam.ErrTransform)
		}
	}
	if o.LatDeg < -90 || o.LatDeg > 90 {
		return fmt.Errorf("observer latitude %v: %w", o.LatDeg, stationbeam.ErrTransform)
	}
	if o.LonDeg < -180 || o.LonDeg > 360 {
		return fmt.Errorf("observer longitude %v: %w", o.LonDeg, stationbeam.ErrTransform)
	}
	if o.ElevationM < -1e4 || o.ElevationM > 1e5 {
		return fmt.Errorf("observer elevation %v m: %w", o.ElevationM, stationbeam.ErrTransform)
	}
	return nil
}

// Frame selects the celestial output frame. Equatorial is J2000 RA/Dec.
type Frame int

const (
	Galactic Frame = iota
	Equatorial
)

var frameNames = [...]string{
	"galactic",
	"equatorial",
}

func (f Frame) String() string {
	if int(f) < 0 || int(f) >= len(frameNames) {
		return "unknown-frame"
	}
	return frameNames[f]
}

// ParseFrame maps a frame name to its Frame.
func ParseFrame(name string) (Frame, error) {
	for i, n := range frameNames {
		if n == name {
			return Frame(i), nil
		}
	}
	return 0, fmt.Errorf("frame %q: %w", name, stationbeam.ErrParse)
}

// equatorial (ICRS) to galactic rotation
var icrsToGalactic = mat.NewDense(3, 3, []float64{
	-0.0548755604162154, -0.8734370902348850, -0.4838350155487132,
	0.4941094278755837, -0.4448296299600112, 0.7469822444972189,
	-0.8676661490190047, -0.1980763734312015, 0.4559837761750669,
})

// Transform maps horizontal (altitude, azimuth) directions seen by one
// observer at one instant into a celestial frame. Azimuth is measured from
// north through east. Directions of date are precessed to J2000 (IAU 1976)
// before the frame rotation. Nutation, aberration and refraction are not
// modelled.
type Transform struct {
	Frame    Frame
	Observer Observer
	Time     time.Time
	LST      float64 // local sidereal time, radians
	m        [9]float64
}

// NewTransform builds the rotation for obs at t.
func NewTransform(obs Observer, t time.Time, frame Frame) (*Transform, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if frame != Galactic && frame != Equatorial {
		return nil, fmt.Errorf("frame %d: %w", int(frame), stationbeam.ErrTransform)
	}
	t = t.UTC()
	lst := math.Mod(GMST(t)+obs.LonDeg*math.Pi/180, 2*math.Pi)
	if lst < 0 {
		lst += 2 * math.Pi
	}
	lat := obs.LatDeg * math.Pi / 180
	sl, cl := math.Sincos(lat)
	ss, cs := math.Sincos(lst)

	// (north, east, up) -> hour-angle frame with x on the local meridian
	horToLocal := mat.NewDense(3, 3, []float64{
		-sl, 0, cl,
		0, 1, 0,
		cl, 0, sl,
	})
	// hour-angle frame -> equatorial of date, rotating by the local sidereal time
	localToEq := mat.NewDense(3, 3, []float64{
		cs, -ss, 0,
		ss, cs, 0,
		0, 0, 1,
	})
	var ofDate, eq mat.Dense
	ofDate.Mul(localToEq, horToLocal)
	// equator of date -> J2000
	eq.Mul(Precession(t).T(), &ofDate)
	rot := &eq
	if frame == Galactic {
		var gal mat.Dense
		gal.Mul(icrsToGalactic, &eq)
		rot = &gal
	}

	tr := &Transform{Frame: frame, Observer: obs, Time: t, LST: lst}
	copy(tr.m[:], rot.RawMatrix().Data)
	return tr, nil
}

// Apply returns the frame longitude and latitude in degrees (l,b for
// galactic, ra,dec for equatorial) of the direction (alt, az) in degrees.
// Longitude is in [0,360).
func (tr *Transform) Apply(altDeg, azDeg float64) (lon, lat float64) {
	sa, ca := math.Sincos(altDeg * math.Pi / 180)
	sA, cA := math.Sincos(azDeg * math.Pi / 180)
	n, e, u := ca*cA, ca*sA, sa
	m := &tr.m
	x := m[0]*n + m[1]*e + m[2]*u
	y := m[3]*n + m[4]*e + m[5]*u
	z := m[6]*n + m[7]*e + m[8]*u
	lon = math.Atan2(y, x) * 180 / math.Pi
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon -= 360
	}
	if z > 1 {
		z = 1
	} else if z < -1 {
		z = -1
	}
	return lon, math.Asin(z) * 180 / math.Pi
}
