package beampattern

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
)

// Loader reads a persisted grid by frequency.
type Loader interface {
	Load(freqMHz int) (*Grid, error)
}

// Store persists grids keyed by frequency.
type Store interface {
	Loader
	Save(g *Grid) error
}

// DefaultFilePattern names a grid file inside a DirStore root.
const DefaultFilePattern = "lofasm_bp_%d.grid"

var gridMagic = [4]byte{'L', 'F', 'B', 'P'}

const gridVersion uint32 = 1

// DirStore keeps one file per frequency under Root. A file holds a small
// header followed by the xt, yt, xp and yp matrices in gonum's binary
// matrix encoding.
type DirStore struct {
	Root    string
	Pattern string // DefaultFilePattern when empty
}

// NewDirStore returns a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Root: dir}
}

// Path returns the file holding the grid for freqMHz.
func (s *DirStore) Path(freqMHz int) string {
	pattern := s.Pattern
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	return filepath.Join(s.Root, fmt.Sprintf(pattern, freqMHz))
}

// Save writes g, replacing any earlier grid for the same frequency. The file
// is written next to its destination and renamed into place.
func (s *DirStore) Save(g *Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return fmt.Errorf("grid store: %w", err)
	}
	tmp, err := os.CreateTemp(s.Root, ".bp-*")
	if err != nil {
		return fmt.Errorf("grid store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encodeGrid(tmp, g); err != nil {
		tmp.Close()
		return fmt.Errorf("grid store: write %d MHz: %w", g.Freq, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("grid store: %w", err)
	}
	path := s.Path(g.Freq)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("grid store: %w", err)
	}
	log.WithFields(log.Fields{"freq_mhz": g.Freq, "file": path}).Info("beam pattern grid saved")
	return nil
}

// Load reads the grid for freqMHz.
func (s *DirStore) Load(freqMHz int) (*Grid, error) {
	path := s.Path(freqMHz)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("grid %d MHz: %s: %w", freqMHz, path, stationbeam.ErrNotFound)
		}
		return nil, fmt.Errorf("grid %d MHz: %w", freqMHz, err)
	}
	defer f.Close()
	g, err := decodeGrid(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("grid %d MHz: %s: %v: %w", freqMHz, path, err, stationbeam.ErrDataIntegrity)
	}
	if g.Freq != freqMHz {
		return nil, fmt.Errorf("grid %d MHz: %s holds %d MHz: %w", freqMHz, path, g.Freq, stationbeam.ErrDataIntegrity)
	}
	return g, nil
}

type gridHeader struct {
	Magic   [4]byte
	Version uint32
	Freq    int32
}

func encodeGrid(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	hdr := gridHeader{Magic: gridMagic, Version: gridVersion, Freq: int32(g.Freq)}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return err
	}
	for _, m := range []*mat.Dense{g.XT, g.YT, g.XP, g.YP} {
		if _, err := m.MarshalBinaryTo(bw); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func decodeGrid(r io.Reader) (*Grid, error) {
	var hdr gridHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.Magic != gridMagic {
		return nil, errors.New("not a beam pattern grid")
	}
	if hdr.Version != gridVersion {
		return nil, fmt.Errorf("unsupported grid version %d", hdr.Version)
	}
	g := &Grid{Freq: int(hdr.Freq)}
	for _, dst := range []**mat.Dense{&g.XT, &g.YT, &g.XP, &g.YP} {
		var m mat.Dense
		if _, err := m.UnmarshalBinaryFrom(r); err != nil {
			return nil, err
		}
		*dst = &m
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
