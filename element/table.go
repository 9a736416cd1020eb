// Package element holds the simulated field response of a single antenna
// element, one table per frequency, sampled on the integer-degree
// (theta,phi) grid.
package element

import (
	"fmt"
	"sort"

	"github.com/wiless/stationbeam"
)

// Record is the response of one element at one (theta,phi) sample. The "t"
// and "p" components are given for the x and y polarization channels.
// Magnitudes are linear, phases are in degrees.
type Record struct {
	XTMag   float64 `mapstructure:"xt_mag"`
	XTPhase float64 `mapstructure:"xt_phase"`
	YTMag   float64 `mapstructure:"yt_mag"`
	YTPhase float64 `mapstructure:"yt_phase"`
	XPMag   float64 `mapstructure:"xp_mag"`
	XPPhase float64 `mapstructure:"xp_phase"`
	YPMag   float64 `mapstructure:"yp_mag"`
	YPPhase float64 `mapstructure:"yp_phase"`
}

// Columns lists the table columns a Record is decoded from.
var Columns = []string{
	"xt_mag", "xt_phase",
	"yt_mag", "yt_phase",
	"xp_mag", "xp_phase",
	"yp_mag", "yp_phase",
}

// Rows is the number of records every table must hold.
const Rows = stationbeam.NTheta * stationbeam.NPhi

// Table is the immutable response table for one frequency. Row
// phi*91+theta holds the sample at (theta,phi).
type Table struct {
	freq    int
	records []Record
}

// NewTable copies records into a table for freqMHz. It fails unless exactly
// one record per (theta,phi) sample is supplied.
func NewTable(freqMHz int, records []Record) (*Table, error) {
	if len(records) != Rows {
		return nil, fmt.Errorf("table %d MHz: %d rows, want %d: %w",
			freqMHz, len(records), Rows, stationbeam.ErrDataIntegrity)
	}
	t := &Table{freq: freqMHz, records: make([]Record, Rows)}
	copy(t.records, records)
	return t, nil
}

// Constant returns a table holding rec at every sample, as for an ideal
// isotropic element.
func Constant(freqMHz int, rec Record) *Table {
	t := &Table{freq: freqMHz, records: make([]Record, Rows)}
	for i := range t.records {
		t.records[i] = rec
	}
	return t
}

// Freq returns the table frequency in MHz.
func (t *Table) Freq() int { return t.freq }

// Get returns the record at integer degrees (theta,phi).
func (t *Table) Get(theta, phi int) (Record, error) {
	if !stationbeam.ValidAngle(theta, phi) {
		return Record{}, fmt.Errorf("table %d MHz: no sample at theta=%d phi=%d: %w",
			t.freq, theta, phi, stationbeam.ErrDataIntegrity)
	}
	return t.records[stationbeam.AngleIndex(theta, phi)], nil
}

// Set maps frequencies to their tables. It is read-only once built and is
// safe for concurrent lookups.
type Set struct {
	tables map[int]*Table
}

// NewSet builds a set from tables, rejecting nil and duplicate frequencies.
func NewSet(tables ...*Table) (*Set, error) {
	s := &Set{tables: make(map[int]*Table, len(tables))}
	for _, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("table set: nil table: %w", stationbeam.ErrDataIntegrity)
		}
		if _, dup := s.tables[t.freq]; dup {
			return nil, fmt.Errorf("table set: duplicate table for %d MHz: %w", t.freq, stationbeam.ErrDataIntegrity)
		}
		s.tables[t.freq] = t
	}
	return s, nil
}

// Table returns the table for freqMHz.
func (s *Set) Table(freqMHz int) (*Table, error) {
	t, ok := s.tables[freqMHz]
	if !ok {
		return nil, fmt.Errorf("no element table loaded for %d MHz: %w", freqMHz, stationbeam.ErrDataIntegrity)
	}
	return t, nil
}

// Get returns the record for (freqMHz, theta, phi).
func (s *Set) Get(freqMHz, theta, phi int) (Record, error) {
	t, err := s.Table(freqMHz)
	if err != nil {
		return Record{}, err
	}
	return t.Get(theta, phi)
}

// Freqs returns the loaded frequencies in ascending order.
func (s *Set) Freqs() []int {
	result := make([]int, 0, len(s.tables))
	for f := range s.tables {
		result = append(result, f)
	}
	sort.Ints(result)
	return result
}
