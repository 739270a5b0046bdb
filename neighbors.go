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

package cellset

import (
	"fmt"
	"math"
)

// BuildNeighborhood computes, for every cell, the set of cells that share
// at least one grid node with it. It must be called again after any
// change of the cell topology.
func (cs *CellSet) BuildNeighborhood() {
	g := cs.grid
	arity := g.Arity()

	// For each node, store which cells are connected with the node.
	nodeCells := make([][]int, len(g.Nodes))
	for ci, e := range g.Elements {
		for k := 0; k < arity; k++ {
			nodeCells[e[k]] = append(nodeCells[e[k]], ci)
		}
	}

	neighborhood := make([][]int, len(g.Elements))
	for ci, e := range g.Elements {
		var nb []int
		for k := 0; k < arity; k++ {
			for _, n := range nodeCells[e[k]] {
				if n != ci {
					nb = insertSorted(nb, n)
				}
			}
		}
		neighborhood[ci] = nb
	}
	cs.neighborhood = neighborhood
}

// HasNeighborhood returns whether the neighborhood is available.
func (cs *CellSet) HasNeighborhood() bool { return cs.neighborhood != nil }

// Neighbors returns the indices of the cells sharing a node with cell i,
// in ascending order. It panics if BuildNeighborhood has not been called
// since the last topology change or if i is out of range.
func (cs *CellSet) Neighbors(i int) []int {
	if cs.neighborhood == nil {
		panic("cellset: querying neighbors without creating the neighborhood structure")
	}
	if i < 0 || i >= len(cs.neighborhood) {
		panic(fmt.Sprintf("cellset: cell index %d out of bounds [0, %d)", i, len(cs.neighborhood)))
	}
	return cs.neighborhood[i]
}

// DirectionalNeighbor returns the neighbor of cell i that is offset by
// one grid spacing along axis in direction dir (+1 or -1) and shares a
// face with it, or NotFound if there is no such cell.
func (cs *CellSet) DirectionalNeighbor(i, axis, dir int) int {
	g := cs.grid
	tol := cs.gridDelta * 1e-6
	min := g.Nodes[g.Elements[i][0]]
	for _, n := range cs.Neighbors(i) {
		nmin := g.Nodes[g.Elements[n][0]]
		match := true
		for a := 0; a < g.Dim; a++ {
			want := min[a]
			if a == axis {
				want += float64(dir) * cs.gridDelta
			}
			if math.Abs(nmin[a]-want) > tol {
				match = false
				break
			}
		}
		if match {
			return n
		}
	}
	return NotFound
}
