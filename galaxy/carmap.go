package galaxy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/wiless/stationbeam"
)

// CARMap is an all-sky map in plate carree projection. Row i holds
// latitude -90 + i*180/(rows-1), column j holds longitude j*360/cols.
// Lookups are bilinear and wrap in longitude.
type CARMap struct {
	data *mat.Dense
}

// NewCARMap wraps data, which needs at least 2 rows and 2 columns.
func NewCARMap(data *mat.Dense) (*CARMap, error) {
	if data == nil {
		return nil, fmt.Errorf("sky map: no data: %w", stationbeam.ErrDataIntegrity)
	}
	if r, c := data.Dims(); r < 2 || c < 2 {
		return nil, fmt.Errorf("sky map: %dx%d pixels: %w", r, c, stationbeam.ErrDataIntegrity)
	}
	return &CARMap{data: mat.DenseCopyOf(data)}, nil
}

// Dims returns the number of latitude and longitude pixels.
func (m *CARMap) Dims() (nlat, nlon int) {
	return m.data.Dims()
}

// At implements SkyMap. Non-finite coordinates give NaN.
func (m *CARMap) At(l, b float64) float64 {
	if math.IsNaN(l) || math.IsInf(l, 0) || math.IsNaN(b) {
		return math.NaN()
	}
	nlat, nlon := m.data.Dims()

	x := math.Mod(l, 360) / 360 * float64(nlon)
	if x < 0 {
		x += float64(nlon)
	}
	j0 := int(math.Floor(x))
	fx := x - float64(j0)
	j0 %= nlon
	j1 := (j0 + 1) % nlon

	b = math.Max(-90, math.Min(90, b))
	y := (b + 90) / 180 * float64(nlat-1)
	i0 := int(math.Floor(y))
	if i0 >= nlat-1 {
		i0 = nlat - 2
	}
	fy := y - float64(i0)

	top := (1-fx)*m.data.At(i0, j0) + fx*m.data.At(i0, j1)
	bot := (1-fx)*m.data.At(i0+1, j0) + fx*m.data.At(i0+1, j1)
	return (1-fy)*top + fy*bot
}

// WriteTo stores the map in gonum's binary matrix encoding.
func (m *CARMap) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	n, err := m.data.MarshalBinaryTo(bw)
	if err != nil {
		return int64(n), err
	}
	return int64(n), bw.Flush()
}

// ReadCARMap decodes a map written by WriteTo.
func ReadCARMap(r io.Reader) (*CARMap, error) {
	var data mat.Dense
	if _, err := data.UnmarshalBinaryFrom(bufio.NewReader(r)); err != nil {
		return nil, fmt.Errorf("sky map: %v: %w", err, stationbeam.ErrDataIntegrity)
	}
	return NewCARMap(&data)
}

// LoadCARMap reads the map file at path.
func LoadCARMap(path string) (*CARMap, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sky map %s: %w", path, stationbeam.ErrNotFound)
		}
		return nil, fmt.Errorf("sky map: %w", err)
	}
	defer f.Close()
	m, err := ReadCARMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	nlat, nlon := m.Dims()
	log.WithFields(log.Fields{"file": path, "nlat": nlat, "nlon": nlon}).Debug("sky map loaded")
	return m, nil
}
