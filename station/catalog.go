package station

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/sky"
)

//go:embed stations.yaml
var defaultCatalog []byte

const metersPerFoot = 0.3048

// Angle is a YAML angle in degrees, written either as a number or as a
// sexagesimal "d:m:s" string.
type Angle float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Angle) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: angle must be a scalar: %w", value.Line, stationbeam.ErrParse)
	}
	v, err := ParseSexagesimal(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = Angle(v)
	return nil
}

// ParseSexagesimal reads "d", "d:m" or "d:m:s" degrees. A leading sign
// applies to the whole value.
func ParseSexagesimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	sign := 1.0
	body := s
	if strings.HasPrefix(body, "-") {
		sign, body = -1, body[1:]
	} else if strings.HasPrefix(body, "+") {
		body = body[1:]
	}
	parts := strings.Split(body, ":")
	if body == "" || len(parts) > 3 {
		return 0, fmt.Errorf("angle %q: %w", s, stationbeam.ErrParse)
	}
	var deg float64
	scale := 1.0
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("angle %q: %w", s, stationbeam.ErrParse)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("angle %q: minutes and seconds must be below 60: %w", s, stationbeam.ErrParse)
		}
		deg += v / scale
		scale *= 60
	}
	return sign * deg, nil
}

// Length is a YAML length in meters. Values may carry an "m" or "ft" unit.
type Length float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Length) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: length must be a scalar: %w", value.Line, stationbeam.ErrParse)
	}
	s := strings.TrimSpace(value.Value)
	factor := 1.0
	switch {
	case strings.HasSuffix(s, "ft"):
		s, factor = strings.TrimSuffix(s, "ft"), metersPerFoot
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("line %d: length %q: %w", value.Line, value.Value, stationbeam.ErrParse)
	}
	*l = Length(v * factor)
	return nil
}

// Entry is one named station of a catalog.
type Entry struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Lat       Angle  `yaml:"lat"`
	Lon       Angle  `yaml:"lon"`
	Elevation Length `yaml:"elevation"`
	NAlt      int    `yaml:"nalt,omitempty"`
	NAz       int    `yaml:"naz,omitempty"`
}

// Config returns the station configuration of e. Zero grid counts take the
// package defaults.
func (e Entry) Config() Config {
	cfg := Config{
		Name: e.Name,
		Location: sky.Observer{
			LatDeg:     float64(e.Lat),
			LonDeg:     float64(e.Lon),
			ElevationM: float64(e.Elevation),
		},
		NAlt: e.NAlt,
		NAz:  e.NAz,
	}
	if cfg.NAlt == 0 {
		cfg.NAlt = DefaultNAlt
	}
	if cfg.NAz == 0 {
		cfg.NAz = DefaultNAz
	}
	return cfg
}

// Catalog lists named station locations.
type Catalog struct {
	Stations []Entry `yaml:"stations"`
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse station catalog: %w", err)
	}
	seen := make(map[string]bool)
	for _, e := range c.Stations {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("station catalog: entry %+v needs id and name: %w", e, stationbeam.ErrConfiguration)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("station catalog: duplicate id %q: %w", e.ID, stationbeam.ErrConfiguration)
		}
		seen[e.ID] = true
	}
	return &c, nil
}

// LoadCatalog reads and parses the catalog file at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in LoFASM station catalog. Each call
// returns a fresh copy.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a station by id or name, ignoring case.
func (c *Catalog) Lookup(key string) (Entry, error) {
	for _, e := range c.Stations {
		if strings.EqualFold(e.ID, key) || strings.EqualFold(e.Name, key) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("station %q: %w", key, stationbeam.ErrNotFound)
}

// IDs lists the station ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Stations))
	for i, e := range c.Stations {
		ids[i] = e.ID
	}
	return ids
}
