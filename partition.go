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
	"fmt"

	"github.com/ctessum/sparse"
)

// PartitionColumns returns the first global column index and the number of
// columns owned by rank rankID when globalNx columns are split into
// rankCount equal contiguous blocks along the x axis. globalNx must be
// evenly divisible by rankCount.
func PartitionColumns(globalNx, rankCount, rankID int) (start, localNx int, err error) {
	if globalNx < 1 {
		return 0, 0, configErrorf("global Nx must be positive but is %d", globalNx)
	}
	if rankCount < 1 {
		return 0, 0, configErrorf("rank count must be positive but is %d", rankCount)
	}
	if rankID < 0 || rankID >= rankCount {
		return 0, 0, configErrorf("rank %d is outside of [0, %d)", rankID, rankCount)
	}
	if globalNx%rankCount != 0 {
		return 0, 0, configErrorf("global Nx (%d) is not evenly divisible by the rank count (%d)",
			globalNx, rankCount)
	}
	localNx = globalNx / rankCount
	return rankID * localNx, localNx, nil
}

// Partition describes the block of x columns owned by one rank.
// The y and z axes are not decomposed.
type Partition struct {
	Rank, Ranks int

	// Start is the global index of the first local column and
	// Nx is the number of local columns.
	Start, Nx int

	GlobalNx int
}

// NewPartition returns the partition for the given rank.
func NewPartition(globalNx, ranks, rank int) (Partition, error) {
	start, nx, err := PartitionColumns(globalNx, ranks, rank)
	if err != nil {
		return Partition{}, err
	}
	return Partition{Rank: rank, Ranks: ranks, Start: start, Nx: nx, GlobalNx: globalNx}, nil
}

// Partitions returns the partitions for every rank.
func Partitions(globalNx, ranks int) ([]Partition, error) {
	if ranks < 1 {
		return nil, configErrorf("rank count must be positive but is %d", ranks)
	}
	o := make([]Partition, ranks)
	for r := range o {
		p, err := NewPartition(globalNx, ranks, r)
		if err != nil {
			return nil, err
		}
		o[r] = p
	}
	return o, nil
}

// End returns the global index one past the last local column.
func (p Partition) End() int { return p.Start + p.Nx }

func (p Partition) String() string {
	return fmt.Sprintf("rank %d/%d: columns [%d, %d)", p.Rank, p.Ranks, p.Start, p.End())
}

// Neighbors returns the ranks that own the columns immediately west and
// east of this partition. When the x axis is periodic, the last rank
// neighbors the first. Otherwise, -1 is returned for a side that
// lies on the domain wall.
func (p Partition) Neighbors(periodic bool) (west, east int) {
	west, east = p.Rank-1, p.Rank+1
	if periodic {
		west = (west + p.Ranks) % p.Ranks
		east = east % p.Ranks
		return
	}
	if east >= p.Ranks {
		east = -1
	}
	return
}

// Owns returns whether global column i belongs to this partition.
func (p Partition) Owns(i int) bool { return i >= p.Start && i < p.End() }

// SliceColumns returns a copy of the local columns of a, which must be an
// array with global x as its leading dimension.
func (p Partition) SliceColumns(name string, a *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(a.Shape) == 0 || a.Shape[0] != p.GlobalNx {
		want := append([]int{p.GlobalNx}, trailing(a.Shape)...)
		return nil, &DataShapeError{Variable: name, Want: want, Have: a.Shape}
	}
	stride := 1
	for _, n := range a.Shape[1:] {
		stride *= n
	}
	shape := append([]int{p.Nx}, a.Shape[1:]...)
	o := sparse.ZerosDense(shape...)
	copy(o.Elements, a.Elements[p.Start*stride:p.End()*stride])
	return o, nil
}

func trailing(s []int) []int {
	if len(s) == 0 {
		return nil
	}
	return s[1:]
}
