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
	"strings"
)

// Topology specifies the boundary behavior of one grid axis.
type Topology uint8

const (
	// Periodic axes wrap around, so the last cell neighbors the first.
	Periodic Topology = iota
	// Bounded axes end in walls. They have one more face than centers.
	Bounded
	// Flat axes are degenerate: they hold a single cell and
	// nothing varies along them.
	Flat
)

var topologyNames = map[Topology]string{
	Periodic: "Periodic",
	Bounded:  "Bounded",
	Flat:     "Flat",
}

func (t Topology) String() string {
	if s, ok := topologyNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Topology(%d)", uint8(t))
}

// ParseTopology returns the topology with the given
// (case-insensitive) name.
func ParseTopology(s string) (Topology, error) {
	for t, name := range topologyNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, configErrorf("unknown topology %q", s)
}

// faces returns the number of face nodes along an axis with n cells.
func (t Topology) faces(n int) int {
	if t == Bounded {
		return n + 1
	}
	return n
}

// Axis identifies a grid direction.
type Axis int

// The three grid axes. X is zonal, Y is meridional and Z is vertical
// (positive upward).
const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Topologies holds one Topology per axis, in (x, y, z) order.
type Topologies [3]Topology

func (t Topologies) String() string {
	return fmt.Sprintf("(%v, %v, %v)", t[X], t[Y], t[Z])
}

// ParseTopologies parses a triple of topology names, for example
// []string{"Periodic", "Bounded", "Bounded"}.
func ParseTopologies(names []string) (Topologies, error) {
	var o Topologies
	if len(names) != 3 {
		return o, configErrorf("need 3 topologies but got %d", len(names))
	}
	for i, n := range names {
		t, err := ParseTopology(n)
		if err != nil {
			return o, err
		}
		o[i] = t
	}
	return o, nil
}
