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

// voxelizer converts a nested set of boundaries into a voxel mesh.
// Boundaries are given innermost first; every voxel gets the index of the
// first boundary that contains its center, and voxels outside every
// boundary are left out.
type voxelizer struct {
	dim        int
	gridDelta  float64
	lo, hi     [3]int // range of voxel min-corner indices, hi exclusive
	boundaries []Surface
}

// voxelMesh is the output of a voxelizer.
type voxelMesh struct {
	nodes    []Node
	elements []Element
	material []float64
}

// apply runs the voxelization. Voxels are visited with axis 0 varying
// fastest and nodes are numbered in order of first use, so the output
// only depends on the inputs.
func (v *voxelizer) apply() *voxelMesh {
	m := new(voxelMesh)
	for a := 0; a < v.dim; a++ {
		if v.hi[a] <= v.lo[a] {
			return m
		}
	}
	arity := 1 << uint(v.dim)
	nodeIndex := make(map[[3]int]int)
	idx := v.lo
	for {
		var center Node
		for a := 0; a < v.dim; a++ {
			center[a] = (float64(idx[a]) + 0.5) * v.gridDelta
		}
		id := -1
		for i, b := range v.boundaries {
			if b.Value(center) <= 0 {
				id = i
				break
			}
		}
		if id >= 0 {
			var e Element
			for k := 0; k < arity; k++ {
				var key [3]int
				for a := 0; a < v.dim; a++ {
					key[a] = idx[a] + cornerOffsets[k][a]
				}
				ni, ok := nodeIndex[key]
				if !ok {
					ni = len(m.nodes)
					nodeIndex[key] = ni
					var n Node
					for a := 0; a < v.dim; a++ {
						n[a] = float64(key[a]) * v.gridDelta
					}
					m.nodes = append(m.nodes, n)
				}
				e[k] = ni
			}
			m.elements = append(m.elements, e)
			m.material = append(m.material, float64(id))
		}

		// Advance to the next voxel.
		a := 0
		for ; a < v.dim; a++ {
			idx[a]++
			if idx[a] < v.hi[a] {
				break
			}
			idx[a] = v.lo[a]
		}
		if a == v.dim {
			break
		}
	}
	return m
}
