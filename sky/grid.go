package sky

import (
	"gonum.org/v1/gonum/mat"
)

// Grid is a horizontal mesh mapped into a celestial frame. Row i holds
// azimuth az[i], column j holds altitude alt[j].
type Grid struct {
	Frame Frame
	Lon   *mat.Dense // l or ra, degrees
	Lat   *mat.Dense // b or dec, degrees
}

// Dims returns the mesh shape (naz, nalt).
func (g *Grid) Dims() (naz, nalt int) {
	return g.Lon.Dims()
}

// At returns the frame coordinates of mesh point (i,j).
func (g *Grid) At(i, j int) (lon, lat float64) {
	return g.Lon.At(i, j), g.Lat.At(i, j)
}

// Mesh applies tr to every (alt[j], az[i]) point.
func (tr *Transform) Mesh(alt, az []float64) *Grid {
	g := &Grid{
		Frame: tr.Frame,
		Lon:   mat.NewDense(len(az), len(alt), nil),
		Lat:   mat.NewDense(len(az), len(alt), nil),
	}
	for i, a := range az {
		for j, h := range alt {
			lon, lat := tr.Apply(h, a)
			g.Lon.Set(i, j, lon)
			g.Lat.Set(i, j, lat)
		}
	}
	return g
}
