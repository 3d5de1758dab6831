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
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ocean"
	"github.com/spatialmodel/ocean/cloud"
	"github.com/spf13/cobra"
)

// Run runs the simulation specified by gc and rc. Each simulated rank
// reads only its own columns of the input files, and ranks simulated in
// the same process share no model state.
func Run(ctx context.Context, cmd *cobra.Command, gc *ocean.GridConfig, rc *RunConfig) error {
	logfile, err := os.Create(rc.LogFile)
	if err != nil {
		return fmt.Errorf("ocean: problem creating log file: %v", err)
	}
	defer logfile.Close()
	log := newLogger(io.MultiWriter(cmd.OutOrStdout(), logfile))

	log.Info("ocean: reading input data")
	climatology, err := maybeDownload(ctx, rc.ClimatologyFile)
	if err != nil {
		return err
	}
	bathymetry, err := maybeDownload(ctx, rc.BathymetryFile)
	if err != nil {
		return err
	}

	ranks := rc.ranks()
	errs := make([]error, len(ranks))
	var wg sync.WaitGroup
	wg.Add(len(ranks))
	for i, r := range ranks {
		go func(i, r int) {
			defer wg.Done()
			l := log.WithFields(logrus.Fields{"rank": r, "ranks": rc.Ranks})
			if errs[i] = runRank(ctx, l, gc, rc, r, climatology, bathymetry); errs[i] != nil {
				l.WithError(errs[i]).Error("ocean: simulation failed")
			}
		}(i, r)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("ocean: rank %d: %v", ranks[i], err)
		}
	}
	log.Info("ocean: simulation complete")
	return nil
}

// newLogger returns a logger that writes plain-text records to w.
func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	return l
}

// runRank simulates a single rank.
func runRank(ctx context.Context, log logrus.FieldLogger, gc *ocean.GridConfig, rc *RunConfig, rank int, climatologyFile, bathymetryFile string) error {
	p, err := ocean.NewPartition(gc.Nx, rc.Ranks, rank)
	if err != nil {
		return err
	}
	c, err := readClimatology(climatologyFile, p, gc.Ny)
	if err != nil {
		return err
	}
	var b *sparse.DenseArray
	if bathymetryFile != "" {
		if b, err = readBathymetry(bathymetryFile, p, gc.Ny); err != nil {
			return err
		}
	}

	start := startAt(rc.StartTime)
	if rc.RestartFile != "" {
		path, err := maybeDownload(ctx, rankFile(rc.RestartFile, rank, rc.Ranks))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("ocean: opening restart file: %v", err)
		}
		defer f.Close()
		start = ocean.Restart(f)
	}

	checkpoint := writeCheckpoint(ctx, log, rankFile(rc.OutputFile, rank, rc.Ranks))
	m := &ocean.Model{
		InitFuncs: []ocean.DomainManipulator{
			ocean.Setup(gc, p, b, c, rc.Forcing),
			ocean.SetTimestep(rc.Dt),
			start,
		},
		RunFuncs: []ocean.DomainManipulator{
			ocean.Calculations(ocean.EvaluateFluxes()),
			ocean.Integrate(),
			ocean.RunPeriodically(rc.LogInterval, ocean.Log(log)),
			ocean.StopAt(rc.EndTime),
		},
		CleanupFuncs: []ocean.DomainManipulator{checkpoint},
	}
	if rc.CheckpointInterval > 0 {
		m.RunFuncs = append(m.RunFuncs, ocean.RunPeriodically(rc.CheckpointInterval, checkpoint))
	}

	if err = m.Init(); err != nil {
		return err
	}
	fields := logrus.Fields{"partition": p.String(), "time": m.Fields.Time}
	if m.Mask != nil {
		fields["active"] = m.Mask.ActiveFraction()
	}
	log.WithFields(fields).Info("ocean: initialized")
	if m.Fields.Time+m.Dt/2 >= rc.EndTime {
		log.Warn("ocean: the simulation starts after EndTime")
		m.Done = true
	}
	if err = m.Run(); err != nil {
		return err
	}
	return m.Cleanup()
}

// startAt returns a function that initializes the model from the
// climatology at time t [s].
func startAt(t float64) ocean.DomainManipulator {
	initialize := ocean.InitializeFromClimatology()
	return func(m *ocean.Model) error {
		m.Fields = ocean.NewSnapshot(m.Grid)
		m.Fields.Time = t
		return initialize(m)
	}
}

// writeCheckpoint returns a function that saves the model state to path,
// which can be a blob.
func writeCheckpoint(ctx context.Context, log logrus.FieldLogger, path string) ocean.DomainManipulator {
	return func(m *ocean.Model) error {
		local := path
		if cloud.IsBlob(path) {
			dir, err := ioutil.TempDir("", "ocean")
			if err != nil {
				return fmt.Errorf("ocean: creating checkpoint directory: %v", err)
			}
			defer os.RemoveAll(dir)
			local = filepath.Join(dir, filepath.Base(path))
		}
		f, err := os.Create(local)
		if err != nil {
			return fmt.Errorf("ocean: creating checkpoint file: %v", err)
		}
		if err = m.WriteCheckpoint(f); err != nil {
			f.Close()
			return err
		}
		if err = f.Close(); err != nil {
			return fmt.Errorf("ocean: closing checkpoint file: %v", err)
		}
		if local != path {
			if err = cloud.Upload(ctx, local, path); err != nil {
				return err
			}
		}
		log.WithFields(logrus.Fields{
			"step": m.Step,
			"day":  m.Fields.Time / ocean.SecondsPerDay,
			"file": path,
		}).Info("ocean: checkpoint written")
		return nil
	}
}

// readClimatology reads the columns of partition p from the climatology
// file at path.
func readClimatology(path string, p ocean.Partition, ny int) (*ocean.ClimatologyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ocean: opening climatology file: %v", err)
	}
	defer f.Close()
	return ocean.ReadClimatology(f, p, ny)
}

// readBathymetry reads the columns of partition p from the bathymetry
// file at path.
func readBathymetry(path string, p ocean.Partition, ny int) (*sparse.DenseArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ocean: opening bathymetry file: %v", err)
	}
	defer f.Close()
	return ocean.ReadBathymetry(f, p, ny)
}
