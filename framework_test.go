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
	"bytes"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// constantClimatology returns a table with an eastward wind stress
// and constant tracer targets.
func constantClimatology(nx, ny int) *ClimatologyTable {
	c, err := NewClimatologyTable(nx, ny,
		monthly(nx, ny, func(int) float64 { return -0.1 }),
		monthly(nx, ny, func(int) float64 { return 0 }),
		monthly(nx, ny, func(int) float64 { return 18 }),
		monthly(nx, ny, func(int) float64 { return 35 }),
	)
	if err != nil {
		panic(err)
	}
	return c
}

var testForcing = ForcingParams{
	RestoringTimescale: SecondsPerDay,
	DragCoefficient:    0.001,
}

// testModel returns a single-rank model on the flux test grid.
func testModel(bathymetry *sparse.DenseArray, params ForcingParams, dt float64, run ...DomainManipulator) *Model {
	p, err := NewPartition(4, 1, 0)
	if err != nil {
		panic(err)
	}
	return &Model{
		InitFuncs: []DomainManipulator{
			Setup(fluxGridConfig(), p, bathymetry, constantClimatology(4, 2), params),
			SetTimestep(dt),
			InitializeFromClimatology(),
		},
		RunFuncs: append([]DomainManipulator{
			Calculations(EvaluateFluxes()),
			Integrate(),
		}, run...),
	}
}

func TestModel_Integrate(t *testing.T) {
	const dt = 100.
	m := testModel(nil, testForcing, dt, StopAfter(1))
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	if m.Mask != nil {
		t.Error("a model without bathymetry should have no mask")
	}
	for _, bc := range m.Conditions {
		if bc.Kind == ImmersedDrag {
			t.Error("a model without bathymetry should not use immersed drag")
		}
	}
	if v := m.SurfaceMean(T); different(v, 18, testTolerance) {
		t.Errorf("initial surface temperature %g", v)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			m.Fields.T.Set(20, i, j, 1)
		}
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	if m.Step != 1 || m.Fields.Time != dt {
		t.Fatalf("step %d, time %g", m.Step, m.Fields.Time)
	}

	// An upward flux of -0.1 m²/s² accelerates the 2 m top cell.
	if u := m.Fields.U.Get(2, 1, 1); different(u, 5, testTolerance) {
		t.Errorf("surface u: have %g, want 5", u)
	}
	if u := m.Fields.U.Get(2, 1, 0); u != 0 {
		t.Errorf("bottom u: have %g, want 0", u)
	}
	if v := m.Fields.V.Get(2, 1, 1); v != 0 {
		t.Errorf("surface v: have %g, want 0", v)
	}
	// Relaxation cools the surface toward the 18° target.
	wantT := 20 - dt*(2/SecondsPerDay)*2/2
	if v := m.Fields.T.Get(0, 0, 1); different(v, wantT, testTolerance) {
		t.Errorf("surface T: have %g, want %g", v, wantT)
	}
	if v := m.Fields.T.Get(0, 0, 0); v != 18 {
		t.Errorf("deep T: have %g, want 18", v)
	}
	if v := m.Fields.S.Get(0, 0, 1); v != 35 {
		t.Errorf("surface S: have %g, want 35", v)
	}

	t.Run("drag", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			for j := 0; j < 2; j++ {
				m.Fields.U.Set(1, i, j, 0)
			}
		}
		m.Done = false
		m.RunFuncs[len(m.RunFuncs)-1] = StopAfter(2)
		if err := m.Run(); err != nil {
			t.Fatal(err)
		}
		// The bottom flux -μu is positive upward into the 98 m bottom cell.
		if u := m.Fields.U.Get(3, 0, 0); different(u, 1-0.001*dt/98, testTolerance) {
			t.Errorf("bottom u: have %g, want %g", u, 1-0.001*dt/98)
		}
	})
}

func TestModel_immersed(t *testing.T) {
	b := sparse.ZerosDense(4, 2)
	for i := range b.Elements {
		b.Elements[i] = -1000
	}
	b.Set(10, 1, 1) // land
	b.Set(-10, 2, 0)
	params := testForcing
	params.Immersed = true
	m := testModel(b, params, 100, StopAfter(3))
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	if m.Mask == nil {
		t.Fatal("missing mask")
	}
	if f := m.Mask.ActiveFraction(); f != float64(6*2+1)/16 {
		t.Errorf("active fraction %g", f)
	}
	for j := 0; j < 2; j++ {
		m.Fields.U.Set(1, 2, j, 1)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 2; k++ {
		for _, f := range Fields {
			if v := m.Fields.Field(f).Get(1, 1, k); v != 0 {
				t.Errorf("land cell %v(1, 1, %d) = %g", f, k, v)
			}
		}
	}
	// Drag acts on the top cell of the shallow column.
	if u := m.Fields.U.Get(2, 0, 1); !(u < m.Fields.U.Get(2, 1, 1)) {
		t.Errorf("shallow column u %g should be slowed more than the deep column u %g",
			u, m.Fields.U.Get(2, 1, 1))
	}
	if u := m.Fields.U.Get(2, 0, 0); u != 0 {
		t.Errorf("inactive cell u = %g", u)
	}
}

func TestModel_Init_invalid(t *testing.T) {
	m := testModel(nil, testForcing, 0)
	err := m.Init()
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("zero time step: want a configuration error but have %T: %v", err, err)
	}

	m = testModel(nil, testForcing, 100)
	m.InitFuncs = append(m.InitFuncs, func(m *Model) error {
		m.Fields.Time = -1
		return nil
	})
	err = m.Init()
	if _, ok := err.(*IndexError); !ok {
		t.Errorf("negative time: want an index error but have %T: %v", err, err)
	}

	m = testModel(sparse.ZerosDense(3, 2), testForcing, 100)
	err = m.Init()
	if _, ok := err.(*DataShapeError); !ok {
		t.Errorf("bathymetry shape: want a data shape error but have %T: %v", err, err)
	}

	params := testForcing
	params.RestoringTimescale = 0
	m = testModel(nil, params, 100)
	err = m.Init()
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("timescale: want a configuration error but have %T: %v", err, err)
	}

	if err := new(Model).Init(); err == nil {
		t.Error("want an error for a model with no grid")
	}
}

func TestCalculations(t *testing.T) {
	m := testModel(nil, testForcing, 100)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	visits := sparse.ZerosDense(4, 2)
	var months []int
	count := func(m *Model, i, j int, ct CyclicTime) {
		visits.AddVal(1, i, j)
		if i == 0 && j == 0 {
			months = append(months, ct.Current)
		}
	}
	m.Fields.Time = 31 * SecondsPerDay
	if err := Calculations(count)(m); err != nil {
		t.Fatal(err)
	}
	for i, v := range visits.Elements {
		if v != 1 {
			t.Errorf("column %d visited %g times", i, v)
		}
	}
	if !reflect.DeepEqual(months, []int{2}) {
		t.Errorf("months %v", months)
	}
	m.Fields.Time = math.NaN()
	if err := Calculations(count)(m); err == nil {
		t.Error("want an error for an invalid time")
	}
}

func TestStopAt(t *testing.T) {
	var calls int
	m := testModel(nil, testForcing, 100,
		RunPeriodically(300, func(*Model) error {
			calls++
			return nil
		}),
		StopAt(1000),
	)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	if m.Step != 10 || m.Fields.Time != 1000 {
		t.Errorf("stopped at step %d, time %g", m.Step, m.Fields.Time)
	}
	if calls != 3 {
		t.Errorf("periodic function called %d times, want 3", calls)
	}
}

func TestLog(t *testing.T) {
	buf := new(bytes.Buffer)
	l := logrus.New()
	l.Out = buf
	l.Formatter = &logrus.TextFormatter{DisableColors: true}
	m := testModel(nil, testForcing, SecondsPerDay, Log(l), StopAfter(2))
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if n := strings.Count(out, "ocean: step complete"); n != 2 {
		t.Errorf("have %d log records, want 2:\n%s", n, out)
	}
	if !strings.Contains(out, "step=2") || !strings.Contains(out, "month=1") {
		t.Errorf("log is missing fields:\n%s", out)
	}
}

func TestCheckpoint(t *testing.T) {
	m := testModel(nil, testForcing, 3600, StopAfter(5))
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	f := tempFile(t)
	defer os.Remove(f.Name())
	defer f.Close()
	if err := Save(f)(m); err != nil {
		t.Fatal(err)
	}
	s, info, err := ReadCheckpoint(f)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s, m.Fields) {
		t.Error("checkpoint state differs from the model state")
	}
	want := &CheckpointInfo{Time: 5 * 3600, Step: 5, Rank: 0, Ranks: 1, Fingerprint: m.Fingerprint()}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("have %+v, want %+v", info, want)
	}

	t.Run("not a checkpoint", func(t *testing.T) {
		g := tempFile(t)
		defer os.Remove(g.Name())
		defer g.Close()
		if err := constantClimatology(4, 2).Write(g); err != nil {
			t.Fatal(err)
		}
		if _, _, err := ReadCheckpoint(g); err == nil {
			t.Error("want an error")
		}
	})
}

func TestRestart(t *testing.T) {
	const dt = 7200.
	full := testModel(nil, testForcing, dt, StopAfter(20))
	if err := full.Init(); err != nil {
		t.Fatal(err)
	}
	if err := full.Run(); err != nil {
		t.Fatal(err)
	}

	f := tempFile(t)
	defer os.Remove(f.Name())
	defer f.Close()
	first := testModel(nil, testForcing, dt, StopAfter(10))
	first.CleanupFuncs = []DomainManipulator{Save(f)}
	if err := first.Init(); err != nil {
		t.Fatal(err)
	}
	if err := first.Run(); err != nil {
		t.Fatal(err)
	}
	if err := first.Cleanup(); err != nil {
		t.Fatal(err)
	}

	second := testModel(nil, testForcing, dt, StopAfter(20))
	second.InitFuncs = append(second.InitFuncs, Restart(f))
	if err := second.Init(); err != nil {
		t.Fatal(err)
	}
	if second.Step != 10 || second.Fields.Time != 10*dt {
		t.Fatalf("restarted at step %d, time %g", second.Step, second.Fields.Time)
	}
	if err := second.Run(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(full.Fields, second.Fields) {
		t.Error("restarted simulation differs from the uninterrupted simulation")
	}

	t.Run("mismatch", func(t *testing.T) {
		params := testForcing
		params.DragCoefficient = 0.002
		m := testModel(nil, params, dt)
		m.InitFuncs = append(m.InitFuncs, Restart(f))
		err := m.Init()
		if _, ok := err.(*ConfigurationError); !ok {
			t.Errorf("want a configuration error but have %T: %v", err, err)
		}

		m = testModel(nil, testForcing, dt/2)
		m.InitFuncs = append(m.InitFuncs, Restart(f))
		if err := m.Init(); err == nil {
			t.Error("want an error for a different time step")
		}
	})
	t.Run("no grid", func(t *testing.T) {
		if err := Restart(f)(new(Model)); err == nil {
			t.Error("want an error")
		}
	})
}

func TestEvaluateFluxes_zero(t *testing.T) {
	m := testModel(nil, testForcing, 100)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	drag := -1
	for c, bc := range m.Conditions {
		if bc.Kind == LinearDrag && bc.Field == U {
			drag = c
		}
	}
	if drag < 0 {
		t.Fatal("no drag on u")
	}
	m.Fields.U.Set(0.5, 1, 1, 0)
	if err := Calculations(EvaluateFluxes())(m); err != nil {
		t.Fatal(err)
	}
	if f := m.Fluxes[drag].Get(1, 1); different(f, -0.0005, testTolerance) {
		t.Fatalf("flux with u=0.5: have %g, want -0.0005", f)
	}
	m.Fields.U.Elements[m.Fields.U.Index1d(1, 1, 0)] = 0
	if err := Calculations(EvaluateFluxes())(m); err != nil {
		t.Fatal(err)
	}
	if f := m.Fluxes[drag].Get(1, 1); f != 0 {
		t.Errorf("flux with u=0: have %g, want 0", f)
	}
}

func TestInitializeFromClimatology_zeroTarget(t *testing.T) {
	m := testModel(nil, testForcing, 100)
	if err := m.Init(); err != nil {
		t.Fatal(err)
	}
	for i := range m.Climatology.TemperatureTarget.Elements {
		m.Climatology.TemperatureTarget.Elements[i] = 0
	}
	if err := InitializeFromClimatology()(m); err != nil {
		t.Fatal(err)
	}
	for i, v := range m.Fields.T.Elements {
		if v != 0 {
			t.Fatalf("element %d: have %g, want 0", i, v)
		}
	}
}

func TestIntegrate_walls(t *testing.T) {
	cfg := fluxGridConfig()
	cfg.Longitude = [2]float64{0, 40}
	cfg.Topology = Topologies{Bounded, Bounded, Bounded}
	stress := func(nx, ny int) *ClimatologyTable {
		c, err := NewClimatologyTable(nx, ny,
			monthly(nx, ny, func(int) float64 { return -0.1 }),
			monthly(nx, ny, func(int) float64 { return -0.1 }),
			monthly(nx, ny, func(int) float64 { return 18 }),
			monthly(nx, ny, func(int) float64 { return 35 }),
		)
		if err != nil {
			t.Fatal(err)
		}
		return c
	}
	for rank := 0; rank < 2; rank++ {
		p, err := NewPartition(4, 2, rank)
		if err != nil {
			t.Fatal(err)
		}
		m := &Model{
			InitFuncs: []DomainManipulator{
				Setup(cfg, p, nil, stress(2, 2), testForcing),
				SetTimestep(100),
				InitializeFromClimatology(),
			},
			RunFuncs: []DomainManipulator{
				Calculations(EvaluateFluxes()),
				Integrate(),
				StopAfter(1),
			},
		}
		if err := m.Init(); err != nil {
			t.Fatal(err)
		}
		if err := m.Run(); err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 2; j++ {
			westWant := 5.
			if rank == 0 {
				westWant = 0
			}
			if u := m.Fields.U.Get(0, j, 1); different(u, westWant, testTolerance) {
				t.Errorf("rank %d: u at face (0, %d): have %g, want %g", rank, j, u, westWant)
			}
			if u := m.Fields.U.Get(1, j, 1); different(u, 5, testTolerance) {
				t.Errorf("rank %d: u at face (1, %d): have %g, want 5", rank, j, u)
			}
		}
		for i := 0; i < 2; i++ {
			if v := m.Fields.V.Get(i, 0, 1); v != 0 {
				t.Errorf("rank %d: v at the south wall: have %g, want 0", rank, v)
			}
			if v := m.Fields.V.Get(i, 1, 1); different(v, 5, testTolerance) {
				t.Errorf("rank %d: v at face (%d, 1): have %g, want 5", rank, i, v)
			}
		}
	}
}
