/*
Copyright © 2013 the InMAP authors.
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

// Package ocean is the core of a distributed, finite-volume ocean model
// on a latitude-longitude grid that is forced by monthly climatological
// surface fluxes. Each rank owns a contiguous block of zonal columns and
// holds only the grid, sea-floor mask and forcing data for those columns.
package ocean

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/ocean/internal/hash"
)

// Model holds the current state of one rank of the model.
type Model struct {
	Grid        *Grid
	Mask        *ImmersedMask // nil if the sea floor is the bottom of the domain
	Climatology *ClimatologyTable
	Fields      *Snapshot

	// Conditions are the boundary conditions, and Fluxes hold the most
	// recently evaluated (nx, ny) flux for each of them.
	Conditions []*BoundaryCondition
	Fluxes     []*sparse.DenseArray

	Dt   float64 // time step [s]
	Step int     // number of completed time steps

	// InitFuncs are functions to be called in the given order
	// at the beginning of the simulation.
	InitFuncs []DomainManipulator

	// RunFuncs are functions to be called in the given order repeatedly
	// until "Done" is true. Therefore, at least one of the functions
	// should set "Done" to true, or the simulation will run forever.
	RunFuncs []DomainManipulator

	// CleanupFuncs are functions to be called in the given order
	// after the simulation has completed.
	CleanupFuncs []DomainManipulator

	// Done specifies whether the simulation is finished.
	Done bool
}

// DomainManipulator is a class of functions that operate on the entire
// rank domain.
type DomainManipulator func(m *Model) error

// Init initializes the simulation by running m.InitFuncs.
func (m *Model) Init() error {
	for _, f := range m.InitFuncs {
		if err := f(m); err != nil {
			return err
		}
	}
	return m.prepare()
}

// Run carries out the simulation by running m.RunFuncs until m.Done is true.
func (m *Model) Run() error {
	for !m.Done {
		for _, f := range m.RunFuncs {
			if err := f(m); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup finishes the simulation by running m.CleanupFuncs.
func (m *Model) Cleanup() error {
	for _, f := range m.CleanupFuncs {
		if err := f(m); err != nil {
			return err
		}
	}
	return nil
}

// prepare checks that the model is complete and allocates the
// flux arrays.
func (m *Model) prepare() error {
	if m.Grid == nil {
		return fmt.Errorf("ocean: the model has no grid")
	}
	if m.Fields == nil {
		m.Fields = NewSnapshot(m.Grid)
	}
	if err := m.Fields.check(m.Grid); err != nil {
		return err
	}
	if _, err := CyclicIndex(m.Fields.Time); err != nil {
		return err
	}
	if m.Dt <= 0 {
		return configErrorf("time step must be positive but is %g", m.Dt)
	}
	nx, ny, _ := m.Grid.Size()
	if m.Mask != nil {
		if err := checkShape("mask", m.Mask.bottom.Shape, nx, ny); err != nil {
			return err
		}
	}
	for _, bc := range m.Conditions {
		if bc.Forcing != nil {
			if err := checkShape(bc.String(), bc.Forcing.Shape, nx, ny, MonthsPerCycle); err != nil {
				return err
			}
		}
	}
	m.Fluxes = make([]*sparse.DenseArray, len(m.Conditions))
	for i := range m.Fluxes {
		m.Fluxes[i] = sparse.ZerosDense(nx, ny)
	}
	return nil
}

// state returns the read-only view of m used to evaluate fluxes.
func (m *Model) state() FluxState {
	return FluxState{Grid: m.Grid, Mask: m.Mask, Fields: m.Fields}
}

// Fingerprint returns a key that identifies the grid, sea floor, forcing
// and boundary conditions of m. Checkpoints can only be restarted by
// models with the same fingerprint.
func (m *Model) Fingerprint() string {
	type condition struct {
		Kind  FluxKind
		Field Field
		Rate  float64
	}
	o := struct {
		Grid        GridConfig
		Partition   Partition
		Bottom      []int
		Climatology []*sparse.DenseArray
		Conditions  []condition
		Dt          float64
	}{
		Grid:      m.Grid.Config(),
		Partition: m.Grid.Partition(),
		Dt:        m.Dt,
	}
	if m.Mask != nil {
		o.Bottom = m.Mask.bottom.Elements
	}
	if m.Climatology != nil {
		o.Climatology = m.Climatology.fields()
	}
	for _, bc := range m.Conditions {
		o.Conditions = append(o.Conditions, condition{Kind: bc.Kind, Field: bc.Field, Rate: bc.Rate})
	}
	return hash.Hash(o)
}

// Setup returns a function that creates the grid, sea-floor mask and
// boundary conditions of the rank that owns partition p. bathymetry and
// c must already be restricted to the columns of p. If bathymetry is nil,
// the bottom of the domain is the sea floor everywhere.
func Setup(cfg *GridConfig, p Partition, bathymetry *sparse.DenseArray, c *ClimatologyTable, params ForcingParams) DomainManipulator {
	return func(m *Model) error {
		g, err := NewGrid(cfg, p)
		if err != nil {
			return err
		}
		m.Grid = g
		if bathymetry != nil {
			if m.Mask, err = BuildMask(bathymetry, g); err != nil {
				return err
			}
		} else {
			params.Immersed = false
		}
		m.Climatology = c
		m.Conditions, err = StandardForcing(c, g, params)
		return err
	}
}

// SetTimestep returns a function that sets the model time step [s].
func SetTimestep(dt float64) DomainManipulator {
	return func(m *Model) error {
		m.Dt = dt
		return nil
	}
}

// InitializeFromClimatology returns a function that sets the
// temperature and salinity of every fluid cell to the climatological
// surface targets at the current model time and sets velocities to zero.
func InitializeFromClimatology() DomainManipulator {
	return func(m *Model) error {
		if m.Fields == nil {
			m.Fields = NewSnapshot(m.Grid)
		}
		ct, err := CyclicIndex(m.Fields.Time)
		if err != nil {
			return err
		}
		nx, ny, nz := m.Grid.Size()
		for _, f := range []struct {
			field  Field
			target *sparse.DenseArray
		}{
			{T, m.Climatology.TemperatureTarget},
			{S, m.Climatology.SalinityTarget},
		} {
			a := m.Fields.Field(f.field)
			for i := 0; i < nx; i++ {
				for j := 0; j < ny; j++ {
					v := ct.Interpolate(f.target.Get(i, j, ct.Current-1), f.target.Get(i, j, ct.Next-1))
					for k := 0; k < nz; k++ {
						if m.Mask == nil || m.Mask.Active(i, j, k) {
							a.Elements[a.Index1d(i, j, k)] = v
						}
					}
				}
			}
		}
		for _, f := range []Field{U, V} {
			a := m.Fields.Field(f)
			for i := range a.Elements {
				a.Elements[i] = 0
			}
		}
		return nil
	}
}
