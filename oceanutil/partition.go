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

package oceanutil

import (
	"fmt"
	"io"

	"github.com/spatialmodel/ocean"
)

// PrintPartition writes the global columns owned by each of the given
// number of ranks, and the ranks to their west and east, to w.
func PrintPartition(w io.Writer, gc *ocean.GridConfig, ranks int) error {
	ps, err := ocean.Partitions(gc.Nx, ranks)
	if err != nil {
		return err
	}
	periodic := gc.Topology[ocean.X] == ocean.Periodic
	fmt.Fprintf(w, "%6s %8s %8s %8s %6s %6s\n", "rank", "start", "end", "columns", "west", "east")
	for _, p := range ps {
		west, east := p.Neighbors(periodic)
		fmt.Fprintf(w, "%6d %8d %8d %8d %6d %6d\n", p.Rank, p.Start, p.End(), p.Nx, west, east)
	}
	return nil
}
