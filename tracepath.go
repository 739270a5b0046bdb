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

import "github.com/ctessum/sparse"

// TracePath accumulates filling fraction increments produced by a particle
// tracer. Increments can be recorded sparsely, by cell index, or densely,
// as one value per cell. The path is merged into a cell set with
// CellSet.MergePath.
type TracePath struct {
	data     *sparse.SparseArray
	gridData []float64
}

// NewTracePath returns an empty path for a cell set with numCells cells.
func NewTracePath(numCells int) *TracePath {
	return &TracePath{data: sparse.ZerosSparse(numCells)}
}

// AddPoint adds increment v for cell idx. It panics if idx is outside
// the range the path was created for.
func (p *TracePath) AddPoint(idx int, v float64) {
	p.data.AddVal(v, idx)
}

// AddGridData adds increment v for cell idx in the dense representation.
func (p *TracePath) AddGridData(idx int, v float64) {
	if p.gridData == nil {
		p.gridData = make([]float64, p.data.Shape[0])
	}
	p.gridData[idx] += v
}

// SetGridData replaces the dense representation.
func (p *TracePath) SetGridData(d []float64) { p.gridData = d }

// Data returns the sparse increments keyed by cell index.
func (p *TracePath) Data() map[int]float64 { return p.data.Elements }

// GridData returns the dense increments, or nil if there are none.
func (p *TracePath) GridData() []float64 { return p.gridData }

// Clear removes all increments.
func (p *TracePath) Clear() {
	p.data = sparse.ZerosSparse(p.data.Shape...)
	p.gridData = nil
}
