/*
Copyright © 2013 the InMAP authors.
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
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// Checkpoint dimension names.
var checkpointDims = []string{"x", "y", "z", "xStagger", "yStagger"}

var checkpointFieldDims = map[Field][]string{
	U: {"xStagger", "y", "z"},
	V: {"x", "yStagger", "z"},
	T: {"x", "y", "z"},
	S: {"x", "y", "z"},
}

// CheckpointInfo describes the model that wrote a checkpoint.
type CheckpointInfo struct {
	Time        float64
	Step        int
	Rank, Ranks int
	Fingerprint string
}

// WriteCheckpoint writes the current model state to netcdf file w.
func (m *Model) WriteCheckpoint(w *os.File) error {
	nx, ny, nz := m.Grid.Size()
	h := cdf.NewHeader(checkpointDims, []int{nx, ny, nz,
		m.Grid.Shape(FCC)[X], m.Grid.Shape(CFC)[Y]})
	h.AddAttribute("", "comment", "Ocean model checkpoint")
	h.AddAttribute("", "time", []float64{m.Fields.Time})
	h.AddAttribute("", "step", []int32{int32(m.Step)})
	p := m.Grid.Partition()
	h.AddAttribute("", "rank", []int32{int32(p.Rank)})
	h.AddAttribute("", "ranks", []int32{int32(p.Ranks)})
	h.AddAttribute("", "fingerprint", m.Fingerprint())
	for _, f := range Fields {
		h.AddVariable(f.String(), checkpointFieldDims[f], []float64{0})
		h.AddAttribute(f.String(), "units", fieldInfo[f].units)
		h.AddAttribute(f.String(), "location", f.Location().String())
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("ocean: checkpoint header: %v", errs)
	}
	cf, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("ocean: creating checkpoint: %v", err)
	}
	for _, f := range Fields {
		if err = writeNCF(cf, f.String(), m.Fields.Field(f)); err != nil {
			return fmt.Errorf("ocean: writing checkpoint variable %v: %v", f, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// Save returns a function that writes a checkpoint of the model
// state to w.
func Save(w *os.File) DomainManipulator {
	return func(m *Model) error {
		return m.WriteCheckpoint(w)
	}
}

// ReadCheckpoint reads the model state stored in a checkpoint file.
func ReadCheckpoint(rw cdf.ReaderWriterAt) (*Snapshot, *CheckpointInfo, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, nil, fmt.Errorf("ocean.ReadCheckpoint: %v", err)
	}
	info := new(CheckpointInfo)
	t, ok := f.Header.GetAttribute("", "time").([]float64)
	if !ok || len(t) != 1 {
		return nil, nil, fmt.Errorf("ocean.ReadCheckpoint: missing time attribute")
	}
	info.Time = t[0]
	ints := make(map[string]int)
	for _, a := range []string{"step", "rank", "ranks"} {
		v, ok := f.Header.GetAttribute("", a).([]int32)
		if !ok || len(v) != 1 {
			return nil, nil, fmt.Errorf("ocean.ReadCheckpoint: missing %s attribute", a)
		}
		ints[a] = int(v[0])
	}
	info.Step, info.Rank, info.Ranks = ints["step"], ints["rank"], ints["ranks"]
	if info.Fingerprint, ok = f.Header.GetAttribute("", "fingerprint").(string); !ok {
		return nil, nil, fmt.Errorf("ocean.ReadCheckpoint: missing fingerprint attribute")
	}

	s := &Snapshot{Time: info.Time}
	for _, fld := range Fields {
		shape := f.Header.Lengths(fld.String())
		if shape == nil {
			return nil, nil, fmt.Errorf("ocean.ReadCheckpoint: variable %v is missing", fld)
		}
		a, err := readSlab(f, fld.String(), make([]int, len(shape)), shape)
		if err != nil {
			return nil, nil, err
		}
		*s.ref(fld) = a
	}
	return s, info, nil
}

// Restart returns a function that replaces the model state with the
// contents of a checkpoint. The checkpoint must have been written by a
// model with the same grid, partition, forcing and time step.
func Restart(rw cdf.ReaderWriterAt) DomainManipulator {
	return func(m *Model) error {
		s, info, err := ReadCheckpoint(rw)
		if err != nil {
			return err
		}
		if m.Grid == nil {
			return fmt.Errorf("ocean: the grid must be created before restarting")
		}
		if fp := m.Fingerprint(); fp != info.Fingerprint {
			return configErrorf("checkpoint fingerprint %s does not match the model fingerprint %s",
				info.Fingerprint, fp)
		}
		if err = s.check(m.Grid); err != nil {
			return err
		}
		m.Fields = s
		m.Step = info.Step
		return nil
	}
}
