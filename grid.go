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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// EarthRadius is the default sphere radius [m].
const EarthRadius = 6371.0e3

const deg2rad = math.Pi / 180

// GridConfig holds the information needed to create a latitude-longitude
// grid.
type GridConfig struct {
	Nx, Ny, Nz int // global number of cells along each axis

	Longitude [2]float64 // western and eastern domain edges [degrees]
	Latitude  [2]float64 // southern and northern domain edges [degrees]

	// ZFaces are the Nz+1 vertical face positions [m], increasing
	// upward. The ocean surface is at the last face, so positions
	// below the surface are negative.
	ZFaces []float64

	// Halo is the number of halo cells on each side of each axis.
	// Halos on Flat axes are ignored.
	Halo [3]int

	Topology Topologies

	// StencilRadius is the largest stencil radius of the operators
	// that will run on the grid. It defaults to 1.
	StencilRadius int

	// PrecomputeMetrics specifies whether cell widths, areas and
	// volumes should be calculated once when the grid is created
	// rather than each time they are accessed.
	PrecomputeMetrics bool

	Radius float64 // sphere radius [m]; defaults to EarthRadius.
}

func (c *GridConfig) stencilRadius() int {
	if c.StencilRadius == 0 {
		return 1
	}
	return c.StencilRadius
}

func (c *GridConfig) radius() float64 {
	if c.Radius == 0 {
		return EarthRadius
	}
	return c.Radius
}

// Validate checks the configuration for errors.
func (c *GridConfig) Validate() error {
	n := [3]int{c.Nx, c.Ny, c.Nz}
	for a := X; a <= Z; a++ {
		if n[a] < 1 {
			return configErrorf("%v axis must have at least one cell but has %d", a, n[a])
		}
		t := c.Topology[a]
		if _, ok := topologyNames[t]; !ok {
			return configErrorf("invalid %v topology %v", a, t)
		}
		if t == Flat {
			if n[a] != 1 {
				return configErrorf("Flat %v axis must have 1 cell but has %d", a, n[a])
			}
			continue
		}
		if c.Halo[a] < c.stencilRadius() {
			return configErrorf("%v halo width %d is smaller than the stencil radius %d",
				a, c.Halo[a], c.stencilRadius())
		}
	}
	if c.stencilRadius() < 0 {
		return configErrorf("negative stencil radius %d", c.StencilRadius)
	}
	if err := checkBounds("longitude", c.Longitude, -360, 360); err != nil {
		return err
	}
	if err := checkBounds("latitude", c.Latitude, -90, 90); err != nil {
		return err
	}
	if len(c.ZFaces) != c.Nz+1 {
		return configErrorf("need %d vertical face positions but have %d", c.Nz+1, len(c.ZFaces))
	}
	if floats.HasNaN(c.ZFaces) {
		return configErrorf("vertical face positions contain NaN")
	}
	for k := 1; k < len(c.ZFaces); k++ {
		if math.IsInf(c.ZFaces[k], 0) || math.IsInf(c.ZFaces[k-1], 0) {
			return configErrorf("vertical face positions must be finite")
		}
		if c.ZFaces[k] <= c.ZFaces[k-1] {
			return configErrorf("vertical face positions are not strictly increasing at index %d (%g <= %g)",
				k, c.ZFaces[k], c.ZFaces[k-1])
		}
	}
	if r := c.radius(); r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		return configErrorf("invalid sphere radius %g", c.Radius)
	}
	return nil
}

func checkBounds(name string, b [2]float64, min, max float64) error {
	for _, v := range b {
		if math.IsNaN(v) || v < min || v > max {
			return configErrorf("%s bound %g is outside of [%g, %g]", name, v, min, max)
		}
	}
	if b[1] <= b[0] {
		return configErrorf("%s bounds %v are not increasing", name, b)
	}
	return nil
}

// axis holds the halo-padded node coordinates along one grid direction.
type axis struct {
	n, h  int
	nFace int

	faces   []float64 // n+1+2h face positions; faces[h] is face 0.
	centers []float64 // n+2h center positions; centers[h] is center 0.
}

func newAxis(f []float64, h int, nFace int) axis {
	n := len(f) - 1
	a := axis{n: n, h: h, nFace: nFace}
	a.faces = make([]float64, n+1+2*h)
	copy(a.faces[h:], f)
	lo, hi := f[0], f[n]
	dlo, dhi := f[1]-f[0], f[n]-f[n-1]
	for m := 1; m <= h; m++ {
		a.faces[h-m] = lo - float64(m)*dlo
		a.faces[h+n+m] = hi + float64(m)*dhi
	}
	a.centers = make([]float64, n+2*h)
	for i := range a.centers {
		a.centers[i] = (a.faces[i] + a.faces[i+1]) / 2
	}
	return a
}

func (a *axis) count(l Location) int {
	if l == Face {
		return a.nFace
	}
	return a.n
}

func (a *axis) offset(l Location, i int) int {
	if i < -a.h || i >= a.count(l)+a.h {
		panic(fmt.Errorf("ocean: %v index %d is outside of [%d, %d)", l, i, -a.h, a.count(l)+a.h))
	}
	return i + a.h
}

func (a *axis) node(l Location, i int) float64 {
	o := a.offset(l, i)
	if l == Face {
		return a.faces[o]
	}
	return a.centers[o]
}

// spacing returns the width of the cell around node i. For faces,
// it is the distance between the adjacent centers.
func (a *axis) spacing(l Location, i int) float64 {
	o := a.offset(l, i)
	if l == Center {
		return a.faces[o+1] - a.faces[o]
	}
	switch {
	case o == 0:
		return 2 * (a.centers[0] - a.faces[0])
	case o >= len(a.centers):
		return 2 * (a.faces[o] - a.centers[o-1])
	}
	return a.centers[o] - a.centers[o-1]
}

// Grid is the portion of a staggered latitude-longitude grid that is
// owned by one rank. Coordinates are in degrees horizontally and meters
// vertically.
type Grid struct {
	cfg  GridConfig
	part Partition

	axes   [3]axis
	radius float64
	dLon   float64 // zonal cell width [radians]

	metrics *metrics

	topThickness, bottomThickness float64
}

type metrics struct {
	dxC, dxF []float64 // zonal widths indexed by padded y center and face
	dyC, dyF []float64
	az       []float64 // horizontal cell areas by padded y center
	dzC, dzF []float64 // vertical widths by padded z center and face
}

// NewGrid creates the local grid for partition p.
func NewGrid(cfg *GridConfig, p Partition) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p.GlobalNx != cfg.Nx {
		return nil, configErrorf("partition is for %d columns but the grid has %d", p.GlobalNx, cfg.Nx)
	}
	if _, _, err := PartitionColumns(cfg.Nx, p.Ranks, p.Rank); err != nil {
		return nil, err
	}
	g := &Grid{
		cfg:    *cfg,
		part:   p,
		radius: cfg.radius(),
	}
	g.cfg.ZFaces = append([]float64{}, cfg.ZFaces...)

	halo := cfg.Halo
	for a := X; a <= Z; a++ {
		if cfg.Topology[a] == Flat {
			halo[a] = 0
		}
	}
	g.cfg.Halo = halo

	dLon := (cfg.Longitude[1] - cfg.Longitude[0]) / float64(cfg.Nx)
	g.dLon = dLon * deg2rad
	xf := floats.Span(make([]float64, p.Nx+1),
		cfg.Longitude[0]+float64(p.Start)*dLon, cfg.Longitude[0]+float64(p.End())*dLon)
	xFaces := cfg.Topology[X].faces(p.Nx)
	if cfg.Topology[X] == Bounded && p.Rank != p.Ranks-1 {
		// The east wall face belongs to the last rank only.
		xFaces = p.Nx
	}
	g.axes[X] = newAxis(xf, halo[X], xFaces)

	yf := floats.Span(make([]float64, cfg.Ny+1), cfg.Latitude[0], cfg.Latitude[1])
	g.axes[Y] = newAxis(yf, halo[Y], cfg.Topology[Y].faces(cfg.Ny))
	g.axes[Z] = newAxis(g.cfg.ZFaces, halo[Z], cfg.Topology[Z].faces(cfg.Nz))

	if cfg.PrecomputeMetrics {
		g.precompute()
	}
	g.bottomThickness = g.Dz(0, Center)
	g.topThickness = g.Dz(cfg.Nz-1, Center)
	return g, nil
}

func (g *Grid) precompute() {
	y, z := &g.axes[Y], &g.axes[Z]
	m := &metrics{
		dxC: make([]float64, len(y.centers)),
		dyC: make([]float64, len(y.centers)),
		az:  make([]float64, len(y.centers)),
		dxF: make([]float64, y.nFace+2*y.h),
		dyF: make([]float64, y.nFace+2*y.h),
		dzC: make([]float64, len(z.centers)),
		dzF: make([]float64, z.nFace+2*z.h),
	}
	for o := range m.dxC {
		m.dxC[o] = g.dx(o-y.h, Center)
		m.dyC[o] = g.dy(o-y.h, Center)
		m.az[o] = g.az(o - y.h)
	}
	for o := range m.dxF {
		m.dxF[o] = g.dx(o-y.h, Face)
		m.dyF[o] = g.dy(o-y.h, Face)
	}
	for o := range m.dzC {
		m.dzC[o] = z.spacing(Center, o-z.h)
	}
	for o := range m.dzF {
		m.dzF[o] = z.spacing(Face, o-z.h)
	}
	g.metrics = m
}

// Size returns the number of local cells along each axis.
func (g *Grid) Size() (nx, ny, nz int) {
	return g.axes[X].n, g.axes[Y].n, g.axes[Z].n
}

// GlobalSize returns the number of cells along each axis of the
// whole domain.
func (g *Grid) GlobalSize() (nx, ny, nz int) {
	return g.cfg.Nx, g.cfg.Ny, g.cfg.Nz
}

// Topology returns the topology of each axis.
func (g *Grid) Topology() Topologies { return g.cfg.Topology }

// Halo returns the halo width of each axis.
func (g *Grid) Halo() [3]int { return g.cfg.Halo }

// Partition returns the column range that the grid covers.
func (g *Grid) Partition() Partition { return g.part }

// OnWall returns whether the horizontal node (i, j) of a variable at
// location l lies on a Bounded domain wall. Wall-normal velocities
// there are fixed at zero.
func (g *Grid) OnWall(l Locations, i, j int) bool {
	if l[X] == Face && g.cfg.Topology[X] == Bounded {
		west := i == 0 && g.part.Rank == 0
		east := i == g.axes[X].nFace-1 && g.part.Rank == g.part.Ranks-1
		if west || east {
			return true
		}
	}
	if l[Y] == Face && g.cfg.Topology[Y] == Bounded {
		if j == 0 || j == g.axes[Y].nFace-1 {
			return true
		}
	}
	return false
}

// Config returns a copy of the configuration used to create the grid.
func (g *Grid) Config() GridConfig {
	c := g.cfg
	c.ZFaces = append([]float64{}, g.cfg.ZFaces...)
	return c
}

// Shape returns the number of interior nodes along each axis for a
// variable at location l.
func (g *Grid) Shape(l Locations) [3]int {
	return [3]int{
		g.axes[X].count(l[X]),
		g.axes[Y].count(l[Y]),
		g.axes[Z].count(l[Z]),
	}
}

// Node returns the coordinate of node i along axis a at location l.
// Halo nodes have negative indices or indices past the last interior node.
func (g *Grid) Node(a Axis, l Location, i int) float64 {
	return g.axes[a].node(l, i)
}

// Nodes returns the interior node coordinates along axis a.
func (g *Grid) Nodes(a Axis, l Location) []float64 {
	ax := &g.axes[a]
	if l == Face {
		return append([]float64{}, ax.faces[ax.h:ax.h+ax.nFace]...)
	}
	return append([]float64{}, ax.centers[ax.h:ax.h+ax.n]...)
}

// Dx returns the zonal width [m] of cells at the latitude of y node j.
func (g *Grid) Dx(j int, ly Location) float64 {
	if g.metrics != nil {
		o := g.axes[Y].offset(ly, j)
		if ly == Face {
			return g.metrics.dxF[o]
		}
		return g.metrics.dxC[o]
	}
	return g.dx(j, ly)
}

func (g *Grid) dx(j int, ly Location) float64 {
	return g.radius * math.Cos(g.axes[Y].node(ly, j)*deg2rad) * g.dLon
}

// Dy returns the meridional width [m] of the cell around y node j.
func (g *Grid) Dy(j int, ly Location) float64 {
	if g.metrics != nil {
		o := g.axes[Y].offset(ly, j)
		if ly == Face {
			return g.metrics.dyF[o]
		}
		return g.metrics.dyC[o]
	}
	return g.dy(j, ly)
}

func (g *Grid) dy(j int, ly Location) float64 {
	return g.radius * g.axes[Y].spacing(ly, j) * deg2rad
}

// Dz returns the vertical width [m] of the cell around z node k.
func (g *Grid) Dz(k int, lz Location) float64 {
	if g.metrics != nil {
		o := g.axes[Z].offset(lz, k)
		if lz == Face {
			return g.metrics.dzF[o]
		}
		return g.metrics.dzC[o]
	}
	return g.axes[Z].spacing(lz, k)
}

// Az returns the horizontal area [m²] of cells in row j.
func (g *Grid) Az(j int) float64 {
	if g.metrics != nil {
		return g.metrics.az[g.axes[Y].offset(Center, j)]
	}
	return g.az(j)
}

func (g *Grid) az(j int) float64 {
	y := &g.axes[Y]
	o := y.offset(Center, j)
	s, n := y.faces[o]*deg2rad, y.faces[o+1]*deg2rad
	return g.radius * g.radius * g.dLon * (math.Sin(n) - math.Sin(s))
}

// Ax returns the area [m²] of the x face of cell (j, k).
func (g *Grid) Ax(j, k int) float64 { return g.Dy(j, Center) * g.Dz(k, Center) }

// Ay returns the area [m²] of the y face at y face j and level k.
func (g *Grid) Ay(j, k int) float64 { return g.Dx(j, Face) * g.Dz(k, Center) }

// Volume returns the volume [m³] of cell (j, k). Volumes do not vary
// in the zonal direction.
func (g *Grid) Volume(j, k int) float64 { return g.Az(j) * g.Dz(k, Center) }

// TopThickness returns the vertical thickness [m] of the top cell.
func (g *Grid) TopThickness() float64 { return g.topThickness }

// BottomThickness returns the vertical thickness [m] of the bottom cell.
func (g *Grid) BottomThickness() float64 { return g.bottomThickness }

// Bounds returns the longitude-latitude extent of the local grid.
func (g *Grid) Bounds() *geom.Bounds {
	x, y := &g.axes[X], &g.axes[Y]
	return &geom.Bounds{
		Min: geom.Point{X: x.faces[x.h], Y: y.faces[y.h]},
		Max: geom.Point{X: x.faces[x.h+x.n], Y: y.faces[y.h+y.n]},
	}
}

// ColumnGeometry returns the longitude-latitude outline of column (i, j).
func (g *Grid) ColumnGeometry(i, j int) geom.Polygon {
	x, y := &g.axes[X], &g.axes[Y]
	ox, oy := x.offset(Center, i), y.offset(Center, j)
	w, e := x.faces[ox], x.faces[ox+1]
	s, n := y.faces[oy], y.faces[oy+1]
	return geom.Polygon{{
		geom.Point{X: w, Y: s},
		geom.Point{X: e, Y: s},
		geom.Point{X: e, Y: n},
		geom.Point{X: w, Y: n},
		geom.Point{X: w, Y: s},
	}}
}
