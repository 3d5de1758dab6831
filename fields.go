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

	"github.com/ctessum/sparse"
)

// Field identifies a prognostic model variable.
type Field uint8

// The prognostic variables.
const (
	U Field = iota // zonal velocity [m/s]
	V              // meridional velocity [m/s]
	T              // temperature [°C]
	S              // salinity [psu]
)

// Fields lists every prognostic variable.
var Fields = []Field{U, V, T, S}

var fieldInfo = map[Field]struct {
	name  string
	loc   Locations
	units string
}{
	U: {"u", FCC, "m s-1"},
	V: {"v", CFC, "m s-1"},
	T: {"T", CCC, "degC"},
	S: {"S", CCC, "psu"},
}

func (f Field) String() string {
	if i, ok := fieldInfo[f]; ok {
		return i.name
	}
	return fmt.Sprintf("Field(%d)", uint8(f))
}

// Location returns where f lives on the staggered grid.
func (f Field) Location() Locations { return fieldInfo[f].loc }

// Snapshot holds the model state at one time. Arrays have shape
// g.Shape(f.Location()) with x as the leading dimension and exclude
// halo nodes.
type Snapshot struct {
	Time float64 // [s]

	U, V, T, S *sparse.DenseArray
}

// NewSnapshot returns a zero-valued state for g.
func NewSnapshot(g *Grid) *Snapshot {
	s := new(Snapshot)
	for _, f := range Fields {
		sh := g.Shape(f.Location())
		*s.ref(f) = sparse.ZerosDense(sh[0], sh[1], sh[2])
	}
	return s
}

func (s *Snapshot) ref(f Field) **sparse.DenseArray {
	switch f {
	case U:
		return &s.U
	case V:
		return &s.V
	case T:
		return &s.T
	case S:
		return &s.S
	}
	panic(fmt.Errorf("ocean: invalid field %d", f))
}

// Field returns the array holding f.
func (s *Snapshot) Field(f Field) *sparse.DenseArray { return *s.ref(f) }

// Copy returns a deep copy of s.
func (s *Snapshot) Copy() *Snapshot {
	o := &Snapshot{Time: s.Time}
	for _, f := range Fields {
		*o.ref(f) = s.Field(f).Copy()
	}
	return o
}

// check verifies that every field matches g.
func (s *Snapshot) check(g *Grid) error {
	for _, f := range Fields {
		sh := g.Shape(f.Location())
		a := s.Field(f)
		if a == nil {
			return fmt.Errorf("ocean: field %v is missing", f)
		}
		if err := checkShape(f.String(), a.Shape, sh[0], sh[1], sh[2]); err != nil {
			return err
		}
	}
	return nil
}
