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
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
)

func TestPartitionColumns(t *testing.T) {
	for r := 0; r < 4; r++ {
		start, nx, err := PartitionColumns(1440, 4, r)
		if err != nil {
			t.Fatal(err)
		}
		if nx != 360 {
			t.Errorf("rank %d: have %d columns, want 360", r, nx)
		}
		if start != 360*r {
			t.Errorf("rank %d: starts at %d, want %d", r, start, 360*r)
		}
	}
}

func TestPartitionColumns_coverage(t *testing.T) {
	for _, test := range []struct{ nx, ranks int }{
		{1, 1}, {8, 1}, {8, 2}, {8, 8}, {90, 6}, {1440, 4},
	} {
		owner := make([]int, test.nx)
		for i := range owner {
			owner[i] = -1
		}
		parts, err := Partitions(test.nx, test.ranks)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range parts {
			if p.Nx != test.nx/test.ranks {
				t.Errorf("%+v: rank %d has %d columns", test, p.Rank, p.Nx)
			}
			for i := p.Start; i < p.End(); i++ {
				if owner[i] != -1 {
					t.Errorf("%+v: column %d owned by ranks %d and %d", test, i, owner[i], p.Rank)
				}
				owner[i] = p.Rank
				if !p.Owns(i) {
					t.Errorf("%+v: rank %d does not own column %d", test, p.Rank, i)
				}
			}
		}
		for i, o := range owner {
			if o == -1 {
				t.Errorf("%+v: column %d has no owner", test, i)
			}
			if i > 0 && o < owner[i-1] {
				t.Errorf("%+v: columns are not ordered by rank at %d", test, i)
			}
		}
	}
}

func TestPartitionColumns_invalid(t *testing.T) {
	for _, test := range []struct{ nx, ranks, rank int }{
		{10, 4, 0},
		{0, 1, 0},
		{8, 0, 0},
		{8, 2, 2},
		{8, 2, -1},
	} {
		_, _, err := PartitionColumns(test.nx, test.ranks, test.rank)
		if err == nil {
			t.Errorf("%+v: want an error", test)
			continue
		}
		if _, ok := err.(*ConfigurationError); !ok {
			t.Errorf("%+v: want a configuration error but have %T", test, err)
		}
	}
	if _, err := Partitions(8, 0); err == nil {
		t.Error("want an error for zero ranks")
	}
}

func TestPartition_Neighbors(t *testing.T) {
	parts, err := Partitions(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	periodic := [][2]int{{3, 1}, {0, 2}, {1, 3}, {2, 0}}
	bounded := [][2]int{{-1, 1}, {0, 2}, {1, 3}, {2, -1}}
	for r, p := range parts {
		if w, e := p.Neighbors(true); [2]int{w, e} != periodic[r] {
			t.Errorf("periodic rank %d: have (%d, %d), want %v", r, w, e, periodic[r])
		}
		if w, e := p.Neighbors(false); [2]int{w, e} != bounded[r] {
			t.Errorf("bounded rank %d: have (%d, %d), want %v", r, w, e, bounded[r])
		}
	}
	single, err := NewPartition(8, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if w, e := single.Neighbors(true); w != 0 || e != 0 {
		t.Errorf("a single periodic rank should neighbor itself but has (%d, %d)", w, e)
	}
}

func TestPartition_String(t *testing.T) {
	p, err := NewPartition(8, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := p.String(), "rank 2/4: columns [4, 6)"; have != want {
		t.Errorf("have %q, want %q", have, want)
	}
}

func TestPartition_SliceColumns(t *testing.T) {
	a := sparse.ZerosDense(6, 2, 3)
	for i := range a.Elements {
		a.Elements[i] = float64(i)
	}
	p, err := NewPartition(6, 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	s, err := p.SliceColumns("a", a)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.Shape, []int{2, 2, 3}) {
		t.Fatalf("shape %v", s.Shape)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 3; k++ {
				if have, want := s.Get(i, j, k), a.Get(i+2, j, k); have != want {
					t.Errorf("(%d, %d, %d): have %g, want %g", i, j, k, have, want)
				}
			}
		}
	}
	s.Set(-1, 0, 0, 0)
	if a.Get(2, 0, 0) == -1 {
		t.Error("slice shares memory with the global array")
	}

	_, err = p.SliceColumns("a", sparse.ZerosDense(5, 2, 3))
	e, ok := err.(*DataShapeError)
	if !ok {
		t.Fatalf("want a data shape error but have %T: %v", err, err)
	}
	if e.Variable != "a" || !reflect.DeepEqual(e.Want, []int{6, 2, 3}) {
		t.Errorf("have %+v", e)
	}
}
