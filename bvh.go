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

import "sort"

// bvh is a shallow bounding volume hierarchy over the grid's bounding
// box. The box is split in half along every axis layers times; only the
// leaf level is stored, as a flat array indexed by the per-axis leaf
// coordinates. Each leaf holds the ids of the cells incident to any grid
// node that falls inside it.
type bvh struct {
	box    Box
	dim    int
	layers int
	n      int        // leaves per axis
	size   [3]float64 // leaf extent per axis
	leaves [][]int
}

// bvhLayers returns the hierarchy depth for box: the number of times the
// smallest box extent can be halved while the half stays larger than
// gridDelta.
func bvhLayers(box Box, dim int, gridDelta float64) int {
	minExtent := box.Max[0] - box.Min[0]
	for a := 1; a < dim; a++ {
		if e := box.Max[a] - box.Min[a]; e < minExtent {
			minExtent = e
		}
	}
	layers := 0
	for minExtent/2 > gridDelta {
		layers++
		minExtent /= 2
	}
	return layers
}

func newBVH(box Box, dim, layers int) *bvh {
	b := &bvh{box: box, dim: dim, layers: layers, n: 1 << uint(layers)}
	numLeaves := 1
	for a := 0; a < dim; a++ {
		b.size[a] = (box.Max[a] - box.Min[a]) / float64(b.n)
		numLeaves *= b.n
	}
	b.leaves = make([][]int, numLeaves)
	return b
}

// leaf returns the index of the leaf containing p, or -1 if p is outside
// the bounding box.
func (b *bvh) leaf(p Node) int {
	if !b.box.Contains(p, b.dim) {
		return -1
	}
	i := 0
	stride := 1
	for a := 0; a < b.dim; a++ {
		j := int((p[a] - b.box.Min[a]) / b.size[a])
		if j >= b.n {
			j = b.n - 1
		}
		i += j * stride
		stride *= b.n
	}
	return i
}

// build fills the leaves with the cells incident to each node.
func (b *bvh) build(g *Grid) {
	for i := range b.leaves {
		b.leaves[i] = b.leaves[i][:0]
	}
	arity := g.Arity()
	for ei, e := range g.Elements {
		for k := 0; k < arity; k++ {
			l := b.leaf(g.Nodes[e[k]])
			if l < 0 {
				continue
			}
			b.leaves[l] = insertSorted(b.leaves[l], ei)
		}
	}
}

// cellIDs returns the candidate cells for point p, or nil if p is
// outside the bounding box.
func (b *bvh) cellIDs(p Node) []int {
	l := b.leaf(p)
	if l < 0 {
		return nil
	}
	return b.leaves[l]
}

// insertSorted adds v to the sorted slice s if it is not there yet.
func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
