package element

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"

	"github.com/wiless/stationbeam"
)

// DefaultFilePattern names the per-frequency tables written by the
// simulation parser, formatted with the frequency in MHz.
const DefaultFilePattern = "alpha_tpmp_%d.csv"

// ReadCSV decodes a response table for freqMHz. Columns are matched by the
// header names in Columns; any other column is ignored.
func ReadCSV(r io.Reader, freqMHz int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("table %d MHz: read header: %v: %w", freqMHz, err, stationbeam.ErrDataIntegrity)
	}
	index := make(map[string]int, len(Columns))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range Columns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("table %d MHz: missing column %q: %w", freqMHz, name, stationbeam.ErrDataIntegrity)
		}
	}

	records := make([]Record, 0, Rows)
	row := make(map[string]interface{}, len(Columns))
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table %d MHz: line %d: %v: %w", freqMHz, line, err, stationbeam.ErrDataIntegrity)
		}
		for _, name := range Columns {
			v := strings.TrimSpace(fields[index[name]])
			if v == "" {
				return nil, fmt.Errorf("table %d MHz: line %d: empty %s: %w", freqMHz, line, name, stationbeam.ErrDataIntegrity)
			}
			row[name] = v
		}
		var rec Record
		if err := decodeRecord(row, &rec); err != nil {
			return nil, fmt.Errorf("table %d MHz: line %d: %v: %w", freqMHz, line, err, stationbeam.ErrDataIntegrity)
		}
		records = append(records, rec)
	}
	return NewTable(freqMHz, records)
}

func decodeRecord(row map[string]interface{}, rec *Record) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           rec,
	})
	if err != nil {
		return err
	}
	return dec.Decode(row)
}

// LoadFile reads the table for freqMHz from path.
func LoadFile(path string, freqMHz int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("table %d MHz: %s: %w", freqMHz, path, stationbeam.ErrDataIntegrity)
		}
		return nil, fmt.Errorf("table %d MHz: %w", freqMHz, err)
	}
	defer f.Close()
	t, err := ReadCSV(f, freqMHz)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"freq_mhz": freqMHz, "file": path}).Debug("element table loaded")
	return t, nil
}

// LoadDir reads one table per frequency from dir, naming files with pattern
// (DefaultFilePattern when empty). Every table is validated before the set is
// returned.
func LoadDir(dir, pattern string, freqs []int) (*Set, error) {
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	tables := make([]*Table, 0, len(freqs))
	for _, f := range freqs {
		t, err := LoadFile(filepath.Join(dir, fmt.Sprintf(pattern, f)), f)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	log.WithFields(log.Fields{"dir": dir, "tables": len(tables)}).Info("element tables loaded")
	return NewSet(tables...)
}
