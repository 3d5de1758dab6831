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

import "fmt"

// ConfigurationError is returned when the model setup is invalid, for
// example when the grid cannot be evenly partitioned among ranks or a
// restoring timescale is not positive. It is always fatal to a run.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "ocean: invalid configuration: " + e.Msg
}

// DataShapeError is returned when an input array does not have the
// shape that the grid requires.
type DataShapeError struct {
	Variable string
	Want     []int
	Have     []int
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("ocean: variable %s has shape %v but shape %v is required", e.Variable, e.Have, e.Want)
}

// IndexError is returned when a simulation time cannot be mapped to a
// climatology month.
type IndexError struct {
	Time float64
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("ocean: simulation time %g s does not map to a forcing month", e.Time)
}

func configErrorf(format string, a ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, a...)}
}

func checkShape(name string, have []int, want ...int) error {
	if len(have) != len(want) {
		return &DataShapeError{Variable: name, Want: want, Have: have}
	}
	for i := range want {
		if have[i] != want[i] {
			return &DataShapeError{Variable: name, Want: want, Have: have}
		}
	}
	return nil
}
