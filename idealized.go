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
	"math"

	"github.com/ctessum/sparse"
)

// IdealizedClimatology returns an analytic global forcing climatology
// for the grid described by cfg: a seasonally modulated double-gyre
// zonal wind, no meridional wind, and surface temperature and salinity
// targets that vary with latitude and season.
func IdealizedClimatology(cfg *GridConfig) (*ClimatologyTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	const (
		tau0 = 1e-4 // peak kinematic stress [m²/s²]
		t0   = 30.  // equatorial temperature [°C]
		s0   = 35.  // mean salinity [psu]
	)
	nx, ny := cfg.Nx, cfg.Ny
	c := &ClimatologyTable{
		ZonalStress:       sparse.ZerosDense(nx, ny, MonthsPerCycle),
		MeridionalStress:  sparse.ZerosDense(nx, ny, MonthsPerCycle),
		TemperatureTarget: sparse.ZerosDense(nx, ny, MonthsPerCycle),
		SalinityTarget:    sparse.ZerosDense(nx, ny, MonthsPerCycle),
	}
	lat0, lat1 := cfg.Latitude[0], cfg.Latitude[1]
	dLat := (lat1 - lat0) / float64(ny)
	for j := 0; j < ny; j++ {
		lat := lat0 + (float64(j)+0.5)*dLat
		phi := lat * deg2rad
		y := (lat - lat0) / (lat1 - lat0)
		for m := 0; m < MonthsPerCycle; m++ {
			season := math.Sin(2 * math.Pi * (float64(m) + 0.5) / MonthsPerCycle)
			taux := tau0 * math.Cos(2*math.Pi*y) * (1 + 0.25*season)
			temp := t0*math.Cos(phi) - 2*season*math.Sin(phi)
			salt := s0 + math.Cos(2*phi) + 0.1*season
			for i := 0; i < nx; i++ {
				c.ZonalStress.Set(taux, i, j, m)
				c.TemperatureTarget.Set(temp, i, j, m)
				c.SalinityTarget.Set(salt, i, j, m)
			}
		}
	}
	return c, nil
}

// IdealizedBathymetry returns global sea-floor elevations [m] for the grid
// described by cfg. The basin is as deep as the domain except for a
// mid-basin ridge that rises to 40% of the depth. If walled is true, the
// westernmost and easternmost columns are land.
func IdealizedBathymetry(cfg *GridConfig, walled bool) (*sparse.DenseArray, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	depth := cfg.ZFaces[0]
	b := sparse.ZerosDense(cfg.Nx, cfg.Ny)
	for i := 0; i < cfg.Nx; i++ {
		x := (float64(i) + 0.5) / float64(cfg.Nx)
		ridge := 0.6 * math.Exp(-math.Pow((x-0.5)/0.05, 2))
		for j := 0; j < cfg.Ny; j++ {
			v := depth * (1 - ridge)
			if walled && (i == 0 || i == cfg.Nx-1) {
				v = 100
			}
			b.Set(v, i, j)
		}
	}
	return b, nil
}
