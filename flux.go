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

	"github.com/ctessum/sparse"
)

// FluxKind is the type of a boundary flux.
type FluxKind uint8

const (
	// WindStress is a surface momentum flux interpolated from a
	// monthly stress climatology.
	WindStress FluxKind = iota

	// Relaxation nudges a surface tracer toward a monthly climatological
	// target.
	Relaxation

	// LinearDrag removes momentum at the bottom of the domain
	// at a rate proportional to the near-bed velocity.
	LinearDrag

	// ImmersedDrag is LinearDrag applied at the lowest fluid cell of each
	// column, as determined by the immersed mask.
	ImmersedDrag
)

var fluxKindNames = map[FluxKind]string{
	WindStress:   "WindStress",
	Relaxation:   "Relaxation",
	LinearDrag:   "LinearDrag",
	ImmersedDrag: "ImmersedDrag",
}

func (k FluxKind) String() string {
	if s, ok := fluxKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FluxKind(%d)", uint8(k))
}

// Top returns whether fluxes of kind k are applied at the ocean surface.
// Otherwise they are applied at the sea floor.
func (k FluxKind) Top() bool { return k == WindStress || k == Relaxation }

// BoundaryCondition is a flux boundary condition on one field. Its
// parameters are fixed when it is created.
type BoundaryCondition struct {
	Kind  FluxKind
	Field Field

	// Forcing is the (nx, ny, 12) monthly stress (WindStress) or
	// tracer target (Relaxation) climatology.
	Forcing *sparse.DenseArray

	// Rate is the relaxation rate λ [m/s] for Relaxation or the
	// drag coefficient μ [m/s] for LinearDrag and ImmersedDrag.
	Rate float64
}

// FluxState is the read-only model state that boundary fluxes
// depend on.
type FluxState struct {
	Grid   *Grid
	Mask   *ImmersedMask // may be nil if there is no immersed boundary
	Fields *Snapshot
}

func checkForcing(name string, a *sparse.DenseArray) error {
	if a == nil {
		return fmt.Errorf("ocean: %s forcing is missing", name)
	}
	if len(a.Shape) != 3 {
		return &DataShapeError{Variable: name, Want: []int{-1, -1, MonthsPerCycle}, Have: a.Shape}
	}
	return checkShape(name, a.Shape, a.Shape[0], a.Shape[1], MonthsPerCycle)
}

func checkVelocity(kind FluxKind, f Field) error {
	if f != U && f != V {
		return configErrorf("%v boundary condition requires a velocity field but got %v", kind, f)
	}
	return nil
}

// NewWindStress returns a surface stress boundary condition on
// velocity component f.
func NewWindStress(f Field, stress *sparse.DenseArray) (*BoundaryCondition, error) {
	if err := checkVelocity(WindStress, f); err != nil {
		return nil, err
	}
	if err := checkForcing("stress", stress); err != nil {
		return nil, err
	}
	return &BoundaryCondition{Kind: WindStress, Field: f, Forcing: stress}, nil
}

// NewRelaxation returns a boundary condition that relaxes surface tracer f
// toward target over the given timescale [s]. The relaxation rate is the
// top cell thickness of g divided by the timescale.
func NewRelaxation(f Field, target *sparse.DenseArray, g *Grid, timescale float64) (*BoundaryCondition, error) {
	if f != T && f != S {
		return nil, configErrorf("Relaxation boundary condition requires a tracer field but got %v", f)
	}
	if math.IsNaN(timescale) || math.IsInf(timescale, 0) || timescale <= 0 {
		return nil, configErrorf("restoring timescale must be positive and finite but is %g", timescale)
	}
	if err := checkForcing("target", target); err != nil {
		return nil, err
	}
	return &BoundaryCondition{
		Kind:    Relaxation,
		Field:   f,
		Forcing: target,
		Rate:    g.TopThickness() / timescale,
	}, nil
}

func newDrag(kind FluxKind, f Field, mu float64) (*BoundaryCondition, error) {
	if err := checkVelocity(kind, f); err != nil {
		return nil, err
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return nil, configErrorf("drag coefficient must be finite but is %g", mu)
	}
	return &BoundaryCondition{Kind: kind, Field: f, Rate: mu}, nil
}

// NewLinearDrag returns a drag boundary condition on velocity component f
// at the bottom of the domain, with drag coefficient mu [m/s].
func NewLinearDrag(f Field, mu float64) (*BoundaryCondition, error) {
	return newDrag(LinearDrag, f, mu)
}

// NewImmersedDrag returns a drag boundary condition on velocity component
// f at the lowest fluid cell of each column.
func NewImmersedDrag(f Field, mu float64) (*BoundaryCondition, error) {
	return newDrag(ImmersedDrag, f, mu)
}

// Level returns the vertical index of the cell in column (i, j) that the
// flux is applied to, or -1 if the column has no fluid. Immersed drag on
// a face velocity uses the bottom of column (i, j), whose west or south
// edge the face is, so the level never depends on a neighboring rank.
func (bc *BoundaryCondition) Level(i, j int, s *FluxState) int {
	switch bc.Kind {
	case WindStress, Relaxation:
		_, _, nz := s.Grid.Size()
		return nz - 1
	case LinearDrag:
		return 0
	case ImmersedDrag:
		if s.Mask == nil {
			return 0
		}
		return s.Mask.Bottom(i, j)
	}
	panic(fmt.Errorf("ocean: invalid flux kind %v", bc.Kind))
}

// Flux returns the boundary flux in column (i, j) at cyclic time ct.
// Momentum fluxes are in m²/s² and tracer fluxes are in tracer units
// times m/s. Flux does not modify its inputs, so calls with the same
// arguments return the same value.
func (bc *BoundaryCondition) Flux(i, j int, ct CyclicTime, s *FluxState) float64 {
	switch bc.Kind {
	case WindStress:
		return ct.Interpolate(bc.Forcing.Get(i, j, ct.Current-1), bc.Forcing.Get(i, j, ct.Next-1))
	case Relaxation:
		target := ct.Interpolate(bc.Forcing.Get(i, j, ct.Current-1), bc.Forcing.Get(i, j, ct.Next-1))
		k := bc.Level(i, j, s)
		return bc.Rate * (s.Fields.Field(bc.Field).Get(i, j, k) - target)
	case LinearDrag, ImmersedDrag:
		k := bc.Level(i, j, s)
		if k < 0 {
			return 0
		}
		return -bc.Rate * s.Fields.Field(bc.Field).Get(i, j, k)
	}
	panic(fmt.Errorf("ocean: invalid flux kind %v", bc.Kind))
}

// Evaluate returns the boundary flux in column (i, j) at simulation
// time t [s].
func (bc *BoundaryCondition) Evaluate(i, j int, t float64, s *FluxState) (float64, error) {
	ct, err := CyclicIndex(t)
	if err != nil {
		return math.NaN(), err
	}
	return bc.Flux(i, j, ct, s), nil
}

func (bc *BoundaryCondition) String() string {
	return fmt.Sprintf("%v(%v)", bc.Kind, bc.Field)
}

// ForcingParams holds the constants of the standard surface and bottom
// boundary conditions.
type ForcingParams struct {
	RestoringTimescale float64 // [s]
	DragCoefficient    float64 // [m/s]

	// Immersed specifies whether bottom drag acts on the lowest
	// fluid cell of each column rather than the bottom of the domain.
	Immersed bool
}

// DefaultForcingParams are the standard forcing constants.
var DefaultForcingParams = ForcingParams{
	RestoringTimescale: 7 * SecondsPerDay,
	DragCoefficient:    0.001,
	Immersed:           true,
}

// StandardForcing returns the boundary conditions of a climatologically
// forced ocean: surface wind stress on u and v, surface relaxation of
// T and S, and bottom drag on u and v.
func StandardForcing(c *ClimatologyTable, g *Grid, p ForcingParams) ([]*BoundaryCondition, error) {
	nx, ny, _ := g.Size()
	if err := c.check(nx, ny); err != nil {
		return nil, err
	}
	drag := NewLinearDrag
	if p.Immersed {
		drag = NewImmersedDrag
	}
	var o []*BoundaryCondition
	add := func(bc *BoundaryCondition, err error) error {
		if err != nil {
			return err
		}
		o = append(o, bc)
		return nil
	}
	for _, err := range []error{
		add(NewWindStress(U, c.ZonalStress)),
		add(NewWindStress(V, c.MeridionalStress)),
		add(NewRelaxation(T, c.TemperatureTarget, g, p.RestoringTimescale)),
		add(NewRelaxation(S, c.SalinityTarget, g, p.RestoringTimescale)),
		add(drag(U, p.DragCoefficient)),
		add(drag(V, p.DragCoefficient)),
	} {
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}
