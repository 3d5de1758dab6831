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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ClimatologyTable holds monthly mean surface forcing. Each field has
// shape (nx, ny, MonthsPerCycle), where month m (1-based) is stored at
// index m-1 of the last dimension. Momentum fluxes are positive upward,
// so an eastward wind has a negative zonal flux. Tables are not modified
// after they are created.
type ClimatologyTable struct {
	ZonalStress       *sparse.DenseArray // kinematic zonal momentum flux [m²/s²]
	MeridionalStress  *sparse.DenseArray // kinematic meridional momentum flux [m²/s²]
	TemperatureTarget *sparse.DenseArray // surface temperature [°C]
	SalinityTarget    *sparse.DenseArray // surface salinity [psu]
}

// Names, descriptions and units of the climatology variables in
// netcdf files.
var climatologyVars = []struct {
	name, description, units string
}{
	{"taux", "Zonal kinematic surface stress", "m2 s-2"},
	{"tauy", "Meridional kinematic surface stress", "m2 s-2"},
	{"temperature", "Surface temperature restoring target", "degC"},
	{"salinity", "Surface salinity restoring target", "psu"},
}

// Dimension names used in input files.
var (
	climatologyDims = []string{"x", "y", "month"}
	bathymetryDims  = []string{"x", "y"}
)

// NewClimatologyTable checks that each field has shape (nx, ny, 12)
// and returns a table holding them.
func NewClimatologyTable(nx, ny int, zonal, meridional, temperature, salinity *sparse.DenseArray) (*ClimatologyTable, error) {
	c := &ClimatologyTable{
		ZonalStress:       zonal,
		MeridionalStress:  meridional,
		TemperatureTarget: temperature,
		SalinityTarget:    salinity,
	}
	if err := c.check(nx, ny); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ClimatologyTable) fields() []*sparse.DenseArray {
	return []*sparse.DenseArray{c.ZonalStress, c.MeridionalStress, c.TemperatureTarget, c.SalinityTarget}
}

func (c *ClimatologyTable) check(nx, ny int) error {
	for i, f := range c.fields() {
		name := climatologyVars[i].name
		if f == nil {
			return fmt.Errorf("ocean: climatology variable %s is missing", name)
		}
		if err := checkShape(name, f.Shape, nx, ny, MonthsPerCycle); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the horizontal size of the table.
func (c *ClimatologyTable) Size() (nx, ny int) {
	return c.ZonalStress.Shape[0], c.ZonalStress.Shape[1]
}

// Slice returns the columns of a global table that belong to p.
func (c *ClimatologyTable) Slice(p Partition) (*ClimatologyTable, error) {
	_, ny := c.Size()
	if err := c.check(p.GlobalNx, ny); err != nil {
		return nil, err
	}
	o := make([]*sparse.DenseArray, 4)
	for i, f := range c.fields() {
		var err error
		if o[i], err = p.SliceColumns(climatologyVars[i].name, f); err != nil {
			return nil, err
		}
	}
	return &ClimatologyTable{
		ZonalStress:       o[0],
		MeridionalStress:  o[1],
		TemperatureTarget: o[2],
		SalinityTarget:    o[3],
	}, nil
}

// Write writes the table to netcdf file w.
func (c *ClimatologyTable) Write(w *os.File) error {
	nx, ny := c.Size()
	h := cdf.NewHeader(climatologyDims, []int{nx, ny, MonthsPerCycle})
	h.AddAttribute("", "comment", "Monthly surface forcing climatology")
	h.AddAttribute("", "month_length_days", []float64{MonthLength / SecondsPerDay})
	for _, v := range climatologyVars {
		h.AddVariable(v.name, climatologyDims, []float64{0})
		h.AddAttribute(v.name, "description", v.description)
		h.AddAttribute(v.name, "units", v.units)
	}
	h.Define()
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("ocean: creating climatology file: %v", err)
	}
	for i, data := range c.fields() {
		if err = writeNCF(f, climatologyVars[i].name, data); err != nil {
			return fmt.Errorf("ocean: writing climatology variable %s: %v", climatologyVars[i].name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ReadClimatology reads the columns that belong to p from a netcdf
// climatology file with ny rows. Only the local columns are read.
func ReadClimatology(rw cdf.ReaderWriterAt, p Partition, ny int) (*ClimatologyTable, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("ocean.ReadClimatology: %v", err)
	}
	o := make([]*sparse.DenseArray, 4)
	for i, v := range climatologyVars {
		if o[i], err = readColumns(f, v.name, p, ny, MonthsPerCycle); err != nil {
			return nil, err
		}
	}
	return &ClimatologyTable{
		ZonalStress:       o[0],
		MeridionalStress:  o[1],
		TemperatureTarget: o[2],
		SalinityTarget:    o[3],
	}, nil
}

// WriteBathymetry writes a (nx, ny) array of column depths [m] to
// netcdf file w.
func WriteBathymetry(w *os.File, bathymetry *sparse.DenseArray) error {
	if len(bathymetry.Shape) != 2 {
		return &DataShapeError{Variable: "bathymetry", Want: []int{-1, -1}, Have: bathymetry.Shape}
	}
	h := cdf.NewHeader(bathymetryDims, bathymetry.Shape)
	h.AddAttribute("", "comment", "Ocean bathymetry")
	h.AddVariable("bathymetry", bathymetryDims, []float64{0})
	h.AddAttribute("bathymetry", "description", "Sea floor elevation; negative below sea level")
	h.AddAttribute("bathymetry", "units", "m")
	h.Define()
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("ocean: creating bathymetry file: %v", err)
	}
	if err = writeNCF(f, "bathymetry", bathymetry); err != nil {
		return fmt.Errorf("ocean: writing bathymetry: %v", err)
	}
	return cdf.UpdateNumRecs(w)
}

// ReadBathymetry reads the columns of a global bathymetry file that
// belong to p.
func ReadBathymetry(rw cdf.ReaderWriterAt, p Partition, ny int) (*sparse.DenseArray, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("ocean.ReadBathymetry: %v", err)
	}
	return readColumns(f, "bathymetry", p, ny)
}

// readColumns reads the local columns of variable v, which must have
// shape (p.GlobalNx, trailing...).
func readColumns(f *cdf.File, v string, p Partition, trailing ...int) (*sparse.DenseArray, error) {
	have := f.Header.Lengths(v)
	if have == nil {
		return nil, fmt.Errorf("ocean: variable %s is not in the input file", v)
	}
	want := append([]int{p.GlobalNx}, trailing...)
	if err := checkShape(v, have, want...); err != nil {
		return nil, err
	}
	begin := make([]int, len(want))
	begin[0] = p.Start
	return readSlab(f, v, begin, append([]int{p.Nx}, trailing...))
}

// readSlab reads the contiguous block of variable v that starts at
// index begin and has the given shape.
func readSlab(f *cdf.File, v string, begin, shape []int) (*sparse.DenseArray, error) {
	o := sparse.ZerosDense(shape...)
	r := f.Reader(v, begin, nil)
	buf := r.Zero(len(o.Elements))
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("ocean: reading variable %s: %v", v, err)
	}
	switch b := buf.(type) {
	case []float64:
		copy(o.Elements, b)
	case []float32:
		for i, val := range b {
			o.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("ocean: variable %s has unsupported type %T", v, buf)
	}
	return o, nil
}

// writeNCF writes the whole of variable v.
func writeNCF(f *cdf.File, v string, data *sparse.DenseArray) error {
	end := f.Header.Lengths(v)
	n := 1
	for _, l := range end {
		n *= l
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	w := f.Writer(v, make([]int, len(end)), end)
	_, err := w.Write(data.Elements)
	return err
}
