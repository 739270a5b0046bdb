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
	"encoding/gob"
	"fmt"
	"io"
)

// savedCellSet is the serialized form of a CellSet.
type savedCellSet struct {
	Dim           int
	GridDelta     float64
	Depth         float64
	DepthPlanePos float64
	Above         bool
	Lo, Hi        [3]int
	Nodes         []Node
	Elements      []Element
	FieldNames    []string
	Fields        [][]float64
}

// Save writes the cells, nodes and fields of the cell set to w. The level
// sets are not saved.
func (cs *CellSet) Save(w io.Writer) error {
	s := savedCellSet{
		Dim:           cs.dim,
		GridDelta:     cs.gridDelta,
		Depth:         cs.depth,
		DepthPlanePos: cs.depthPlanePos,
		Above:         cs.above,
		Lo:            cs.lo,
		Hi:            cs.hi,
		Nodes:         cs.grid.Nodes,
		Elements:      cs.grid.Elements,
		FieldNames:    cs.grid.Fields.Names(),
	}
	for _, name := range s.FieldNames {
		s.Fields = append(s.Fields, cs.grid.Fields.Get(name))
	}
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("cellset: saving cell set: %v", err)
	}
	return nil
}

// Load reads a cell set previously written by Save. The loaded cell set
// can be queried and its fields modified, but it has no level sets, so
// UpdateMaterials and UpdateSurface return ErrNoLevelSets.
func Load(env Env, r io.Reader) (*CellSet, error) {
	var s savedCellSet
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("cellset: loading cell set: %v", err)
	}
	if s.Dim != 2 && s.Dim != 3 {
		return nil, fmt.Errorf("cellset: loading cell set: invalid number of dimensions %d", s.Dim)
	}
	if !(s.GridDelta > 0) {
		return nil, fmt.Errorf("cellset: loading cell set: grid delta %g must be positive", s.GridDelta)
	}
	if len(s.FieldNames) != len(s.Fields) {
		return nil, fmt.Errorf("cellset: loading cell set: %d field names but %d fields", len(s.FieldNames), len(s.Fields))
	}
	fields := newFields(len(s.Elements))
	for i, name := range s.FieldNames {
		if err := fields.Set(name, s.Fields[i]); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{MaterialField, FillingFractionField} {
		if _, ok := fields.data[name]; !ok {
			return nil, fmt.Errorf("cellset: loading cell set: missing field %q", name)
		}
	}
	for _, e := range s.Elements {
		for k := 0; k < 1<<uint(s.Dim); k++ {
			if e[k] < 0 || e[k] >= len(s.Nodes) {
				return nil, fmt.Errorf("cellset: loading cell set: node index %d out of range", e[k])
			}
		}
	}
	cs := &CellSet{
		Env:           env,
		grid:          &Grid{Dim: s.Dim, Nodes: s.Nodes, Elements: s.Elements, Fields: fields},
		dim:           s.Dim,
		gridDelta:     s.GridDelta,
		numberOfCells: len(s.Elements),
		depth:         s.Depth,
		depthPlanePos: s.DepthPlanePos,
		above:         s.Above,
		lo:            s.Lo,
		hi:            s.Hi,
	}
	cs.calculateBounds()
	cs.bvh = newBVH(cs.box, cs.dim, bvhLayers(cs.box, cs.dim, cs.gridDelta))
	cs.bvh.build(cs.grid)
	return cs, nil
}
