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
	"encoding/json"
	"fmt"
	"io"

	"github.com/ctessum/geom/encoding/geojson"
	"github.com/spatialmodel/ocean"
)

// feature is a GeoJSON feature holding one water column.
type feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties column            `json:"properties"`
}

type column struct {
	Rank   int `json:"rank"`
	I      int `json:"i"` // global
	J      int `json:"j"`
	Bottom int `json:"bottom"`
	Levels int `json:"levels"`
}

type featureCollection struct {
	Type     string     `json:"type"`
	Features []*feature `json:"features"`
}

// WriteMask builds the immersed sea-floor mask of the given rank (or of
// every rank if rank is -1) from the bathymetry file at path and writes
// the columns that hold water to w as a GeoJSON FeatureCollection.
func WriteMask(w io.Writer, gc *ocean.GridConfig, path string, ranks, rank int) error {
	if path == "" {
		return fmt.Errorf("ocean: you need to specify a BathymetryFile")
	}
	rc := RunConfig{Ranks: ranks, Rank: rank}
	if rank < -1 || rank >= ranks {
		return fmt.Errorf("ocean: rank=%d but should be -1 or in [0, %d)", rank, ranks)
	}
	fc := featureCollection{Type: "FeatureCollection"}
	for _, r := range rc.ranks() {
		p, err := ocean.NewPartition(gc.Nx, ranks, r)
		if err != nil {
			return err
		}
		b, err := readBathymetry(path, p, gc.Ny)
		if err != nil {
			return err
		}
		g, err := ocean.NewGrid(gc, p)
		if err != nil {
			return err
		}
		m, err := ocean.BuildMask(b, g)
		if err != nil {
			return err
		}
		_, _, nz := g.Size()
		for _, c := range m.Ocean(g) {
			gj, err := geojson.ToGeoJSON(c.Outline)
			if err != nil {
				return err
			}
			fc.Features = append(fc.Features, &feature{
				Type:     "Feature",
				Geometry: gj,
				Properties: column{
					Rank:   r,
					I:      p.Start + c.I,
					J:      c.J,
					Bottom: c.Bottom,
					Levels: nz - c.Bottom,
				},
			})
		}
	}
	e := json.NewEncoder(w)
	if err := e.Encode(fc); err != nil {
		return fmt.Errorf("ocean: writing mask: %v", err)
	}
	return nil
}
