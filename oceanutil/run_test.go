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
	"bytes"
	"context"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spatialmodel/ocean"
	"github.com/spf13/cobra"
)

// readCheckpoint reads the checkpoint at path.
func readCheckpoint(t *testing.T, path string) (*ocean.Snapshot, *ocean.CheckpointInfo) {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, info, err := ocean.ReadCheckpoint(f)
	if err != nil {
		t.Fatal(err)
	}
	return s, info
}

func TestRun_cli(t *testing.T) {
	dir, err := ioutil.TempDir("", "oceantest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	os.Setenv("OCEAN_TEST_DIR", dir)
	defer os.Unsetenv("OCEAN_TEST_DIR")

	gc := testGridConfig()
	Cfg.Set("config", "")
	Cfg.Set("Grid.Nx", gc.Nx)
	Cfg.Set("Grid.Ny", gc.Ny)
	Cfg.Set("Grid.Nz", gc.Nz)
	Cfg.Set("Grid.West", gc.Longitude[0])
	Cfg.Set("Grid.East", gc.Longitude[1])
	Cfg.Set("Grid.South", gc.Latitude[0])
	Cfg.Set("Grid.North", gc.Latitude[1])
	Cfg.Set("Grid.ZFaces", "[-300, -100, -30, 0]")
	Cfg.Set("Ranks", 2)
	Cfg.Set("rank", -1)
	Cfg.Set("ClimatologyFile", "${OCEAN_TEST_DIR}/climatology.nc")
	Cfg.Set("BathymetryFile", "${OCEAN_TEST_DIR}/bathymetry.nc")
	Cfg.Set("MaskFile", "${OCEAN_TEST_DIR}/mask.geojson")
	Cfg.Set("OutputFile", "${OCEAN_TEST_DIR}/ocean.nc")
	Cfg.Set("Dt", 21600.)
	Cfg.Set("EndTime", 3.)
	Cfg.Set("LogInterval", 1.)
	Cfg.Set("CheckpointInterval", 1.)

	var out bytes.Buffer
	Root.SetOutput(&out)
	defer Root.SetOutput(nil)

	t.Run("version", func(t *testing.T) {
		out.Reset()
		Root.SetArgs([]string{"version"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if have, want := out.String(), "ocean v"+ocean.Version+"\n"; have != want {
			t.Errorf("have %q, want %q", have, want)
		}
	})
	t.Run("idealized", func(t *testing.T) {
		Root.SetArgs([]string{"idealized"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("partition", func(t *testing.T) {
		out.Reset()
		Root.SetArgs([]string{"partition"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if n := strings.Count(out.String(), "\n"); n != 3 {
			t.Errorf("have %d lines:\n%s", n, out.String())
		}
	})
	t.Run("mask", func(t *testing.T) {
		Root.SetArgs([]string{"mask"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(filepath.Join(dir, "mask.geojson")); err != nil {
			t.Error(err)
		}
	})
	t.Run("run", func(t *testing.T) {
		out.Reset()
		Root.SetArgs([]string{"run"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		for _, msg := range []string{"ocean: step complete", "ocean: checkpoint written", "ocean: simulation complete"} {
			if !strings.Contains(out.String(), msg) {
				t.Errorf("log is missing %q", msg)
			}
		}
		for r := 0; r < 2; r++ {
			s, info := readCheckpoint(t, filepath.Join(dir, rankFile("ocean.nc", r, 2)))
			if info.Rank != r || info.Ranks != 2 {
				t.Errorf("rank %d of %d", info.Rank, info.Ranks)
			}
			if info.Step != 12 {
				t.Errorf("rank %d: step %d; want 12", r, info.Step)
			}
			if s.Time != 3*ocean.SecondsPerDay {
				t.Errorf("rank %d: time %g", r, s.Time)
			}
			for _, v := range s.T.Elements {
				if math.IsNaN(v) {
					t.Fatalf("rank %d: NaN temperature", r)
				}
			}
		}
		if _, err := os.Stat(filepath.Join(dir, "ocean.log")); err != nil {
			t.Error(err)
		}
	})
}

// TestRun_restart checks that a simulation that is stopped and restarted
// from a checkpoint ends in exactly the same state as an uninterrupted one.
func TestRun_restart(t *testing.T) {
	os.Mkdir("testbucket", os.ModePerm)
	defer os.RemoveAll("testbucket")
	dir, err := ioutil.TempDir("", "oceantest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	gc := testGridConfig()
	if err = Idealized(ctx, gc, "file://testbucket/climatology.nc", "file://testbucket/bathymetry.nc", false); err != nil {
		t.Fatal(err)
	}
	cmd := &cobra.Command{}
	cmd.SetOutput(ioutil.Discard)
	base := RunConfig{
		Ranks:           2,
		Rank:            -1,
		ClimatologyFile: "file://testbucket/climatology.nc",
		BathymetryFile:  "file://testbucket/bathymetry.nc",
		LogFile:         filepath.Join(dir, "ocean.log"),
		Forcing:         ocean.DefaultForcingParams,
		Dt:              21600,
		StartTime:       25 * ocean.SecondsPerDay,
		LogInterval:     ocean.SecondsPerDay,
	}

	full := base
	full.EndTime = 40 * ocean.SecondsPerDay
	full.OutputFile = filepath.Join(dir, "full.nc")
	if err = Run(ctx, cmd, gc, &full); err != nil {
		t.Fatal(err)
	}

	first := base
	first.EndTime = 32 * ocean.SecondsPerDay
	first.OutputFile = "file://testbucket/first.nc"
	if err = Run(ctx, cmd, gc, &first); err != nil {
		t.Fatal(err)
	}
	second := base
	second.EndTime = 40 * ocean.SecondsPerDay
	second.RestartFile = first.OutputFile
	second.OutputFile = filepath.Join(dir, "second.nc")
	if err = Run(ctx, cmd, gc, &second); err != nil {
		t.Fatal(err)
	}

	for r := 0; r < 2; r++ {
		want, wantInfo := readCheckpoint(t, rankFile(full.OutputFile, r, 2))
		have, haveInfo := readCheckpoint(t, rankFile(second.OutputFile, r, 2))
		if !reflect.DeepEqual(have, want) {
			t.Errorf("rank %d: restarted state differs from uninterrupted state", r)
		}
		if haveInfo.Step != wantInfo.Step {
			t.Errorf("rank %d: step %d != %d", r, haveInfo.Step, wantInfo.Step)
		}
	}

	t.Run("mismatch", func(t *testing.T) {
		third := second
		third.Dt = 10800
		third.OutputFile = filepath.Join(dir, "third.nc")
		err := Run(ctx, cmd, gc, &third)
		if err == nil || !strings.Contains(err.Error(), "fingerprint") {
			t.Errorf("want a fingerprint error but have %v", err)
		}
	})
}
