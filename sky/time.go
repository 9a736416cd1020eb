package sky

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/wiless/stationbeam"
)

// Layouts accepted by ParseTime, tried in order. Layouts without a zone are
// read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime reads an ISO-8601 style UTC timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("time %q: %w", s, stationbeam.ErrParse)
}

// JulianDate returns the UTC Julian date of t.
func JulianDate(t time.Time) float64 {
	const unixEpochJD = 2440587.5
	return unixEpochJD + float64(t.Unix())/86400 + float64(t.Nanosecond())/(86400*1e9)
}

// GMST returns the Greenwich mean sidereal time of t in radians, [0,2*pi).
func GMST(t time.Time) float64 {
	g := math.Mod(satellite.ThetaG_JD(JulianDate(t)), 2*math.Pi)
	if g < 0 {
		g += 2 * math.Pi
	}
	return g
}
