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

// Location marks where along an axis a variable lives on a cell.
type Location uint8

const (
	// Center is the cell midpoint.
	Center Location = iota
	// Face is the lower (west, south or bottom) cell edge.
	Face
)

func (l Location) String() string {
	if l == Face {
		return "Face"
	}
	return "Center"
}

// Locations holds one Location per axis, in (x, y, z) order.
type Locations [3]Location

// Staggered variable locations on an Arakawa C grid.
var (
	CCC = Locations{Center, Center, Center} // tracers
	FCC = Locations{Face, Center, Center}   // zonal velocity
	CFC = Locations{Center, Face, Center}   // meridional velocity
	CCF = Locations{Center, Center, Face}   // vertical velocity
)

func (l Locations) String() string {
	s := make([]byte, 3)
	for i, ll := range l {
		s[i] = 'C'
		if ll == Face {
			s[i] = 'F'
		}
	}
	return string(s)
}
