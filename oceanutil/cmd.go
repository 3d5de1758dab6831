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

// Package oceanutil contains the command-line interface and the run
// orchestration of the ocean model.
package oceanutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/ocean"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	gridSets := []*pflag.FlagSet{runCmd.Flags(), partitionCmd.Flags(), maskCmd.Flags(), idealizedCmd.Flags()}
	fileSets := []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags(), idealizedCmd.Flags()}

	// Options are the configuration options available to the model.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Grid.Nx",
			usage: `
              Grid.Nx is the global number of grid cells in the
              zonal (x) direction.`,
			defaultVal: 72,
			flagsets:   gridSets,
		},
		{
			name: "Grid.Ny",
			usage: `
              Grid.Ny is the number of grid cells in the meridional
              (y) direction.`,
			defaultVal: 30,
			flagsets:   gridSets,
		},
		{
			name: "Grid.Nz",
			usage: `
              Grid.Nz is the number of grid cells in the vertical (z)
              direction. It must be one less than the length of Grid.ZFaces.`,
			defaultVal: 6,
			flagsets:   gridSets,
		},
		{
			name: "Grid.West",
			usage: `
              Grid.West is the longitude of the western domain edge [degrees].`,
			defaultVal: 0.0,
			flagsets:   gridSets,
		},
		{
			name: "Grid.East",
			usage: `
              Grid.East is the longitude of the eastern domain edge [degrees].`,
			defaultVal: 360.0,
			flagsets:   gridSets,
		},
		{
			name: "Grid.South",
			usage: `
              Grid.South is the latitude of the southern domain edge [degrees].`,
			defaultVal: -60.0,
			flagsets:   gridSets,
		},
		{
			name: "Grid.North",
			usage: `
              Grid.North is the latitude of the northern domain edge [degrees].`,
			defaultVal: 60.0,
			flagsets:   gridSets,
		},
		{
			name: "Grid.ZFaces",
			usage: `
              Grid.ZFaces are the vertical cell face positions [m], increasing
              upward from the bottom of the domain to the ocean surface at 0.
              It is a list of numbers in a configuration file or a JSON array
              on the command line.`,
			defaultVal: "[-4000, -2500, -1500, -800, -400, -150, 0]",
			flagsets:   gridSets,
		},
		{
			name: "Grid.Topology",
			usage: `
              Grid.Topology is the topology of the x, y and z axes. Each
              entry must be one of Periodic, Bounded or Flat.`,
			defaultVal: []string{"Periodic", "Bounded", "Bounded"},
			flagsets:   gridSets,
		},
		{
			name: "Grid.Halo",
			usage: `
              Grid.Halo is the number of halo cells on each side of the
              x, y and z axes.`,
			defaultVal: []int{1, 1, 1},
			flagsets:   gridSets,
		},
		{
			name: "Grid.StencilRadius",
			usage: `
              Grid.StencilRadius is the largest stencil radius of the model
              operators. Halos of non-Flat axes must be at least this wide.`,
			defaultVal: 1,
			flagsets:   gridSets,
		},
		{
			name: "Grid.PrecomputeMetrics",
			usage: `
              Grid.PrecomputeMetrics specifies whether grid cell widths, areas and
              volumes are calculated once when the grid is created.`,
			defaultVal: true,
			flagsets:   gridSets,
		},
		{
			name: "Ranks",
			usage: `
              Ranks is the number of ranks the zonal columns of the
              domain are divided among. It must divide Grid.Nx.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), partitionCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "rank",
			usage: `
              rank is the rank to simulate. If it is -1, every rank is
              simulated concurrently in the current process.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), maskCmd.Flags()},
		},
		{
			name: "ClimatologyFile",
			usage: `
              ClimatologyFile is the path to the netCDF file holding the monthly
              surface forcing climatology. It can include environment variables
              and can be a blob in the format 'provider://bucket/key'.`,
			defaultVal: "${OCEAN_DATA}/climatology.nc",
			flagsets:   fileSets,
		},
		{
			name: "BathymetryFile",
			usage: `
              BathymetryFile is the path to the netCDF file holding the
              sea-floor elevation [m] of each column. If it is empty, the
              bottom of the domain is the sea floor everywhere. It can include
              environment variables and can be a blob.`,
			defaultVal: "${OCEAN_DATA}/bathymetry.nc",
			flagsets:   fileSets,
		},
		{
			name: "Forcing.RestoringTimescale",
			usage: `
              Forcing.RestoringTimescale is the time scale [days] over which
              surface temperature and salinity relax toward their climatological
              targets.`,
			defaultVal: ocean.DefaultForcingParams.RestoringTimescale / ocean.SecondsPerDay,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Forcing.DragCoefficient",
			usage: `
              Forcing.DragCoefficient is the linear bottom drag coefficient [m/s].`,
			defaultVal: ocean.DefaultForcingParams.DragCoefficient,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Forcing.Immersed",
			usage: `
              Forcing.Immersed specifies whether bottom drag acts on the lowest
              fluid cell of each column rather than on the bottom of the domain.`,
			defaultVal: ocean.DefaultForcingParams.Immersed,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Dt",
			usage: `
              Dt is the model time step [s].`,
			defaultVal: 3600.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "StartTime",
			usage: `
              StartTime is the model time [days] at which the simulation starts.
              It is ignored when restarting from a checkpoint.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "EndTime",
			usage: `
              EndTime is the model time [days] at which the simulation ends.`,
			defaultVal: 360.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogInterval",
			usage: `
              LogInterval is the model time [days] between status messages.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CheckpointInterval",
			usage: `
              CheckpointInterval is the model time [days] between checkpoints.
              If it is zero, a checkpoint is only written at the end of the
              simulation.`,
			defaultVal: 30.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the checkpoint file. When more than one
              rank is simulated, the rank number is appended to the file name.
              It can include environment variables and can be a blob.`,
			shorthand:  "o",
			defaultVal: "${OCEAN_OUT}/ocean.nc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RestartFile",
			usage: `
              RestartFile is the path of the checkpoint to continue the simulation
              from. If it is empty, the simulation starts from the climatology.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank,
              the logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MaskFile",
			usage: `
              MaskFile is the path of the GeoJSON file that the ocean columns of
              the immersed sea-floor mask are written to.`,
			defaultVal: "mask.geojson",
			flagsets:   []*pflag.FlagSet{maskCmd.Flags()},
		},
		{
			name: "Walled",
			usage: `
              Walled specifies whether the idealized sea floor has land at its
              western and eastern edges.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{idealizedCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("OCEAN")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(partitionCmd)
	Root.AddCommand(maskCmd)
	Root.AddCommand(idealizedCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ocean: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ocean",
	Short: "A climatologically forced ocean model.",
	Long: `ocean is a finite-volume ocean model on a latitude-longitude grid that is
forced at its surface by monthly climatological wind stress, temperature and
salinity, and at its sea floor by bottom drag. The zonal columns of the domain
can be divided among several ranks. Use the subcommands specified below to
access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'OCEAN_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of the ocean model.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ocean v%s\n", ocean.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a simulation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run runs a simulation of one rank, or of every rank if --rank=-1, from
StartTime (or from the time stored in RestartFile) until EndTime, writing
checkpoints to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc, err := GridConfig(Cfg)
		if err != nil {
			return err
		}
		rc, err := LoadRunConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(context.Background(), cmd, gc, rc)
	},
	DisableAutoGenTag: true,
}

// partitionCmd is a command that prints the columns owned by each rank.
var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Print the domain partition.",
	Long: `partition prints the range of global zonal columns owned by each rank
and the ranks that neighbor it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc, err := GridConfig(Cfg)
		if err != nil {
			return err
		}
		return PrintPartition(cmd.OutOrStdout(), gc, Cfg.GetInt("Ranks"))
	},
	DisableAutoGenTag: true,
}

// maskCmd is a command that writes the immersed sea-floor mask as GeoJSON.
var maskCmd = &cobra.Command{
	Use:   "mask",
	Short: "Write the sea-floor mask.",
	Long: `mask reads BathymetryFile, creates the immersed sea-floor mask of one
rank (or of every rank if --rank=-1), and writes the columns that hold
water to MaskFile as GeoJSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc, err := GridConfig(Cfg)
		if err != nil {
			return err
		}
		ctx := context.Background()
		bathymetry, err := maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("BathymetryFile")))
		if err != nil {
			return err
		}
		f, err := os.Create(os.ExpandEnv(Cfg.GetString("MaskFile")))
		if err != nil {
			return fmt.Errorf("ocean: creating mask file: %v", err)
		}
		if err = WriteMask(f, gc, bathymetry, Cfg.GetInt("Ranks"), Cfg.GetInt("rank")); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
	DisableAutoGenTag: true,
}

// idealizedCmd is a command that writes idealized forcing files.
var idealizedCmd = &cobra.Command{
	Use:   "idealized",
	Short: "Create idealized input files.",
	Long: `idealized writes an analytic seasonal forcing climatology to ClimatologyFile
and a basin with a mid-ocean ridge to BathymetryFile. The files can be
used to run the model without observational data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc, err := GridConfig(Cfg)
		if err != nil {
			return err
		}
		return Idealized(context.Background(), gc,
			os.ExpandEnv(Cfg.GetString("ClimatologyFile")),
			os.ExpandEnv(Cfg.GetString("BathymetryFile")),
			Cfg.GetBool("Walled"))
	},
	DisableAutoGenTag: true,
}
