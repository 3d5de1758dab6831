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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/ocean"
	"github.com/spatialmodel/ocean/cloud"
	"github.com/spf13/cast"
)

// RunConfig holds the settings of a simulation other than the grid.
// Times are in seconds.
type RunConfig struct {
	Ranks int
	Rank  int // -1 to run every rank

	ClimatologyFile string
	BathymetryFile  string // empty for a flat sea floor
	RestartFile     string
	OutputFile      string
	LogFile         string

	Forcing ocean.ForcingParams

	Dt, StartTime, EndTime          float64
	LogInterval, CheckpointInterval float64
}

// GridConfig unmarshals a viper configuration for a grid.
func GridConfig(cfg *viper.Viper) (*ocean.GridConfig, error) {
	zFaces, err := toFloat64SliceE(cfg.Get("Grid.ZFaces"))
	if err != nil {
		return nil, fmt.Errorf("ocean: parsing Grid.ZFaces: %v", err)
	}
	halo, err := toIntSliceE(cfg.Get("Grid.Halo"))
	if err != nil {
		return nil, fmt.Errorf("ocean: parsing Grid.Halo: %v", err)
	}
	if len(halo) != 3 {
		return nil, fmt.Errorf("ocean: Grid.Halo must have 3 entries but has %d", len(halo))
	}
	topo, err := ocean.ParseTopologies(expandStringSlice(cast.ToStringSlice(cfg.Get("Grid.Topology"))))
	if err != nil {
		return nil, err
	}
	c := &ocean.GridConfig{
		Nx:                cfg.GetInt("Grid.Nx"),
		Ny:                cfg.GetInt("Grid.Ny"),
		Nz:                cfg.GetInt("Grid.Nz"),
		Longitude:         [2]float64{cfg.GetFloat64("Grid.West"), cfg.GetFloat64("Grid.East")},
		Latitude:          [2]float64{cfg.GetFloat64("Grid.South"), cfg.GetFloat64("Grid.North")},
		ZFaces:            zFaces,
		Halo:              [3]int{halo[0], halo[1], halo[2]},
		Topology:          topo,
		StencilRadius:     cfg.GetInt("Grid.StencilRadius"),
		PrecomputeMetrics: cfg.GetBool("Grid.PrecomputeMetrics"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadRunConfig unmarshals a viper configuration for a simulation.
func LoadRunConfig(cfg *viper.Viper) (*RunConfig, error) {
	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return nil, err
	}
	c := &RunConfig{
		Ranks:           cfg.GetInt("Ranks"),
		Rank:            cfg.GetInt("rank"),
		ClimatologyFile: os.ExpandEnv(cfg.GetString("ClimatologyFile")),
		BathymetryFile:  os.ExpandEnv(cfg.GetString("BathymetryFile")),
		RestartFile:     os.ExpandEnv(cfg.GetString("RestartFile")),
		OutputFile:      outputFile,
		LogFile:         checkLogFile(os.ExpandEnv(cfg.GetString("LogFile")), outputFile),
		Forcing: ocean.ForcingParams{
			RestoringTimescale: cfg.GetFloat64("Forcing.RestoringTimescale") * ocean.SecondsPerDay,
			DragCoefficient:    cfg.GetFloat64("Forcing.DragCoefficient"),
			Immersed:           cfg.GetBool("Forcing.Immersed"),
		},
		Dt:                 cfg.GetFloat64("Dt"),
		StartTime:          cfg.GetFloat64("StartTime") * ocean.SecondsPerDay,
		EndTime:            cfg.GetFloat64("EndTime") * ocean.SecondsPerDay,
		LogInterval:        cfg.GetFloat64("LogInterval") * ocean.SecondsPerDay,
		CheckpointInterval: cfg.GetFloat64("CheckpointInterval") * ocean.SecondsPerDay,
	}
	if c.ClimatologyFile == "" {
		return nil, fmt.Errorf("ocean: you need to specify a ClimatologyFile")
	}
	if c.Ranks < 1 {
		return nil, fmt.Errorf("ocean: Ranks=%d but should be >0", c.Ranks)
	}
	if c.Rank < -1 || c.Rank >= c.Ranks {
		return nil, fmt.Errorf("ocean: rank=%d but should be -1 or in [0, %d)", c.Rank, c.Ranks)
	}
	vars := []float64{c.Dt, c.LogInterval}
	varNames := []string{"Dt", "LogInterval"}
	for i, v := range vars {
		if !(v > 0) {
			return nil, fmt.Errorf("ocean: %s=%g but should be >0", varNames[i], v)
		}
	}
	if c.CheckpointInterval < 0 {
		return nil, fmt.Errorf("ocean: CheckpointInterval=%g but should be >=0", c.CheckpointInterval)
	}
	if !(c.EndTime > c.StartTime) {
		return nil, fmt.Errorf("ocean: EndTime must be after StartTime")
	}
	return c, nil
}

// ranks returns the ranks that c specifies should be simulated.
func (c *RunConfig) ranks() []int {
	if c.Rank >= 0 {
		return []int{c.Rank}
	}
	o := make([]int, c.Ranks)
	for i := range o {
		o[i] = i
	}
	return o
}

// rankFile inserts the rank number before the extension of path
// when more than one rank shares a file name.
func rankFile(path string, rank, ranks int) string {
	if ranks == 1 || path == "" {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s.%d%s", strings.TrimSuffix(path, ext), rank, ext)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`ocean: you need to specify an output file configuration variable (for example: OutputFile="ocean.nc")`)
	}
	f = os.ExpandEnv(f)
	if cloud.IsBlob(f) {
		l, err := cloud.ParseLocation(f)
		if err == nil {
			_, err = l.Open(context.TODO())
		}
		if err != nil {
			return f, fmt.Errorf("ocean: error when checking OutputFile location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("ocean: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		if cloud.IsBlob(outputFile) {
			return "ocean.log"
		}
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}

// maybeDownload returns a local copy of path, downloading it first
// if it is a blob. An empty path is returned unchanged.
func maybeDownload(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	local, err := cloud.MaybeDownload(ctx, path)
	if err != nil {
		return "", fmt.Errorf("ocean: retrieving %s: %v", path, err)
	}
	return local, nil
}

// toIntSliceE converts a configuration value into a slice of integers.
// Values set on the command line or through environment variables may be
// JSON arrays.
func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToIntE(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		var o []int
		if err := json.Unmarshal([]byte(strings.Trim(v, "'")), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return cast.ToIntSliceE(s)
	}
}

// toFloat64SliceE converts a configuration value into a slice of numbers.
func toFloat64SliceE(s interface{}) ([]float64, error) {
	switch v := s.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToFloat64E(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		var o []float64
		if err := json.Unmarshal([]byte(strings.Trim(v, "'")), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type %T", s)
	}
}
