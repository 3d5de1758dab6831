/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package ocean

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// ImmersedMask records, for each water column, the lowest vertical cell
// that lies above the sea floor.
type ImmersedMask struct {
	bottom *sparse.DenseArrayInt // (nx, ny)
	nz     int
}

// BuildMask carves the sea floor described by bathymetry out of g.
// bathymetry holds the local column depths [m] (negative below sea level)
// with shape (nx, ny). A cell is inactive when its center lies below the
// bathymetric depth of its column.
func BuildMask(bathymetry *sparse.DenseArray, g *Grid) (*ImmersedMask, error) {
	nx, ny, nz := g.Size()
	if err := checkShape("bathymetry", bathymetry.Shape, nx, ny); err != nil {
		return nil, err
	}
	m := &ImmersedMask{
		bottom: sparse.ZerosDenseInt(nx, ny),
		nz:     nz,
	}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			d := bathymetry.Get(i, j)
			if math.IsNaN(d) {
				return nil, configErrorf("bathymetry of column (%d, %d) is NaN", i, j)
			}
			b := -1
			for k := 0; k < nz; k++ {
				if g.Node(Z, Center, k) >= d {
					b = k
					break
				}
			}
			m.bottom.Set(b, i, j)
		}
	}
	return m, nil
}

// Bottom returns the index of the lowest active cell in column (i, j),
// or -1 if the column is entirely solid.
func (m *ImmersedMask) Bottom(i, j int) int { return m.bottom.Get(i, j) }

// Active returns whether cell (i, j, k) is fluid.
func (m *ImmersedMask) Active(i, j, k int) bool {
	b := m.Bottom(i, j)
	return b >= 0 && k >= b && k < m.nz
}

// ActiveColumns returns the number of columns that contain fluid.
func (m *ImmersedMask) ActiveColumns() int {
	n := 0
	for _, b := range m.bottom.Elements {
		if b >= 0 {
			n++
		}
	}
	return n
}

// ActiveFraction returns the fraction of cells that are fluid.
func (m *ImmersedMask) ActiveFraction() float64 {
	var n int
	for _, b := range m.bottom.Elements {
		if b >= 0 {
			n += m.nz - b
		}
	}
	return float64(n) / float64(len(m.bottom.Elements)*m.nz)
}

// OceanColumn is a local water column that contains fluid.
type OceanColumn struct {
	I, J    int
	Bottom  int
	Outline geom.Polygon
}

// Ocean returns the columns that contain fluid, in x-major order.
func (m *ImmersedMask) Ocean(g *Grid) []OceanColumn {
	nx, ny := m.bottom.Shape[0], m.bottom.Shape[1]
	var o []OceanColumn
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if b := m.Bottom(i, j); b >= 0 {
				o = append(o, OceanColumn{I: i, J: j, Bottom: b, Outline: g.ColumnGeometry(i, j)})
			}
		}
	}
	return o
}
