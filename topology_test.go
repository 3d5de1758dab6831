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

import "testing"

func TestParseTopology(t *testing.T) {
	for s, want := range map[string]Topology{
		"Periodic": Periodic,
		"bounded":  Bounded,
		" FLAT ":   Flat,
	} {
		have, err := ParseTopology(s)
		if err != nil {
			t.Errorf("%q: %v", s, err)
		}
		if have != want {
			t.Errorf("%q: have %v, want %v", s, have, want)
		}
	}
	if _, err := ParseTopology("Twisted"); err == nil {
		t.Error("want an error for an unknown topology")
	} else if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("want a configuration error but have %T", err)
	}
	if _, err := ParseTopologies([]string{"Periodic", "Bounded"}); err == nil {
		t.Error("want an error for two topologies")
	}
	topo, err := ParseTopologies([]string{"Periodic", "Bounded", "Flat"})
	if err != nil {
		t.Fatal(err)
	}
	if s := topo.String(); s != "(Periodic, Bounded, Flat)" {
		t.Errorf("have %s", s)
	}
}

func TestTopologyFaces(t *testing.T) {
	for _, test := range []struct {
		t    Topology
		want int
	}{
		{Periodic, 10},
		{Bounded, 11},
		{Flat, 10},
	} {
		if have := test.t.faces(10); have != test.want {
			t.Errorf("%v: have %d faces, want %d", test.t, have, test.want)
		}
	}
}

func TestLocationString(t *testing.T) {
	for l, want := range map[Locations]string{CCC: "CCC", FCC: "FCC", CFC: "CFC", CCF: "CCF"} {
		if have := l.String(); have != want {
			t.Errorf("have %s, want %s", have, want)
		}
	}
}
