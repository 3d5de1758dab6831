/*
Copyright (C) 2013-2014 Regents of the University of Minnesota.
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
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ColumnManipulator is a class of functions that operate on a single
// water column (i, j) at cyclic time ct.
type ColumnManipulator func(m *Model, i, j int, ct CyclicTime)

// Calculations returns a function that concurrently runs a series of
// calculations on all of the water columns of the rank. The model state
// must not be modified by the calculators except at the (i, j) entries of
// arrays that belong to the column being processed.
func Calculations(calculators ...ColumnManipulator) DomainManipulator {
	nprocs := runtime.GOMAXPROCS(0) // number of processors

	return func(m *Model) error {
		ct, err := CyclicIndex(m.Fields.Time)
		if err != nil {
			return err
		}
		nx, ny, _ := m.Grid.Size()
		n := nx * ny
		var wg sync.WaitGroup
		wg.Add(nprocs)
		for pp := 0; pp < nprocs; pp++ {
			go func(pp int) {
				for ii := pp; ii < n; ii += nprocs {
					i, j := ii/ny, ii%ny
					for _, f := range calculators {
						f(m, i, j, ct)
					}
				}
				wg.Done()
			}(pp)
		}
		wg.Wait()
		return nil
	}
}

// EvaluateFluxes returns a function that stores the flux of every
// boundary condition at column (i, j) in m.Fluxes.
func EvaluateFluxes() ColumnManipulator {
	return func(m *Model, i, j int, ct CyclicTime) {
		s := m.state()
		for c, bc := range m.Conditions {
			// DenseArray.Set skips zeros, which would leave the
			// previous step's flux in place.
			f := m.Fluxes[c]
			f.Elements[f.Index1d(i, j)] = bc.Flux(i, j, ct, &s)
		}
	}
}

// Integrate returns a function that applies the most recently evaluated
// boundary fluxes to the cells they act on and advances the model time
// by one time step. Surface fluxes are positive upward, out of the
// ocean, and bottom fluxes are positive upward, into the ocean. Cells
// inside the sea floor and velocities normal to a domain wall are left
// unchanged.
//
// Integrate must not run concurrently with Calculations.
func Integrate() DomainManipulator {
	return func(m *Model) error {
		s := m.state()
		nx, ny, _ := m.Grid.Size()
		for c, bc := range m.Conditions {
			a := m.Fields.Field(bc.Field)
			flux := m.Fluxes[c]
			loc := bc.Field.Location()
			sign := 1.
			if bc.Kind.Top() {
				sign = -1
			}
			for i := 0; i < nx; i++ {
				for j := 0; j < ny; j++ {
					if m.Grid.OnWall(loc, i, j) {
						continue
					}
					k := bc.Level(i, j, &s)
					if k < 0 || (m.Mask != nil && !m.Mask.Active(i, j, k)) {
						continue
					}
					a.AddVal(sign*m.Dt*flux.Get(i, j)/m.Grid.Dz(k, Center), i, j, k)
				}
			}
		}
		m.Fields.Time += m.Dt
		m.Step++
		return nil
	}
}

// StopAt returns a function that ends the simulation once the model time
// reaches endTime [s].
func StopAt(endTime float64) DomainManipulator {
	return func(m *Model) error {
		if m.Fields.Time+m.Dt/2 >= endTime {
			m.Done = true
		}
		return nil
	}
}

// StopAfter returns a function that ends the simulation after n steps
// have been completed.
func StopAfter(n int) DomainManipulator {
	return func(m *Model) error {
		if m.Step >= n {
			m.Done = true
		}
		return nil
	}
}

// RunPeriodically returns a function that runs f each time the model
// time passes a multiple of period [s]. f is not run for the multiple
// that the first call starts in.
func RunPeriodically(period float64, f DomainManipulator) DomainManipulator {
	var last float64
	started := false
	return func(m *Model) error {
		n := math.Floor(m.Fields.Time/period + 1e-9)
		if !started {
			last = n
			started = true
			return nil
		}
		if n > last {
			last = n
			return f(m)
		}
		return nil
	}
}

// Log returns a function that writes simulation status messages to l.
func Log(l logrus.FieldLogger) DomainManipulator {
	startTime := time.Now()
	timeStepTime := time.Now()

	return func(m *Model) error {
		ct, err := CyclicIndex(m.Fields.Time)
		if err != nil {
			return err
		}
		l.WithFields(logrus.Fields{
			"step":      m.Step,
			"day":       m.Fields.Time / SecondsPerDay,
			"month":     ct.Current,
			"walltime":  time.Since(startTime).Hours(),
			"Δwalltime": time.Since(timeStepTime).Seconds(),
			"sst":       m.SurfaceMean(T),
			"sss":       m.SurfaceMean(S),
		}).Info("ocean: step complete")
		timeStepTime = time.Now()
		return nil
	}
}

// SurfaceMean returns the area-weighted mean of field f over the fluid
// cells of the top model level.
func (m *Model) SurfaceMean(f Field) float64 {
	nx, ny, nz := m.Grid.Size()
	a := m.Fields.Field(f)
	var sum, area float64
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if m.Mask != nil && !m.Mask.Active(i, j, nz-1) {
				continue
			}
			az := m.Grid.Az(j)
			sum += a.Get(i, j, nz-1) * az
			area += az
		}
	}
	if area == 0 {
		return math.NaN()
	}
	return sum / area
}
