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

// Element is a cell of the grid, given as indices into the node list.
// Only the first 2^D entries are used. Corner 0 is the minimum corner;
// the remaining corners follow VTK quad/hexahedron ordering.
type Element [8]int

// cornerOffsets gives the grid index offset of each element corner.
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Node
}

// Contains returns whether p is inside b in the first dim dimensions.
func (b Box) Contains(p Node, dim int) bool {
	for a := 0; a < dim; a++ {
		if p[a] < b.Min[a] || p[a] > b.Max[a] {
			return false
		}
	}
	return true
}

// Grid is an unstructured quad (2-D) or hexahedral (3-D) mesh with
// per-cell scalar data.
type Grid struct {
	Dim      int
	Nodes    []Node
	Elements []Element
	Fields   *Fields
}

// Arity returns the number of nodes per element.
func (g *Grid) Arity() int { return 1 << uint(g.Dim) }

// Center returns the center of cell i.
func (g *Grid) Center(i int, gridDelta float64) Node {
	c := g.Nodes[g.Elements[i][0]]
	for a := 0; a < g.Dim; a++ {
		c[a] += gridDelta / 2
	}
	return c
}
