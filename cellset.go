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

// Package cellset holds a voxel representation of the volume of a
// process domain. A CellSet is built from a stack of nested boundary
// surfaces, spatially indexes its cells, keeps track of which cells
// neighbor each other, and stores named per-cell scalar fields such as the
// material and the filling fraction.
package cellset

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// boxPadding is added on every side of the bounding box so that points on
// the edge of the domain are not missed during point location.
const boxPadding = 1e-4

// CellSet is a dense voxel representation of a volume. The cell set can
// either extend below the surface into the material stack, or above it
// into the surrounding gas, in which case the gas cells are closed off by
// a plane depth above the top of the surface.
type CellSet struct {
	Env

	levelSets []Surface
	surface   Surface // copy of the top level set at the last surface update

	grid         *Grid
	bvh          *bvh
	neighborhood [][]int

	dim           int
	gridDelta     float64
	numberOfCells int
	depth         float64
	depthPlanePos float64
	above         bool
	lo, hi        [3]int
	box           Box
}

// New creates a cell set from levelSets, which are ordered with the
// outermost surface last. depth is the distance of the closing plane from
// the surface, and above specifies whether the cell set is created above
// (true) or below (false) the surface.
func New(env Env, levelSets []Surface, depth float64, above bool) (*CellSet, error) {
	cs := &CellSet{Env: env, above: above}
	if err := cs.FromLevelSets(levelSets, depth); err != nil {
		return nil, err
	}
	return cs, nil
}

// FromLevelSets rebuilds the cell set, including its spatial index, from
// levelSets. If the number of cells is unchanged, user fields are kept;
// otherwise only the default fields remain, with the filling fraction set
// to zero. The neighborhood must be rebuilt afterwards if it is needed.
func (cs *CellSet) FromLevelSets(levelSets []Surface, depth float64) error {
	dim, gridDelta, err := checkStack(levelSets)
	if err != nil {
		return err
	}
	if depth < 0 {
		return fmt.Errorf("cellset: negative depth %g", depth)
	}
	top := levelSets[len(levelSets)-1]

	var minBounds, maxBounds [3]int
	for a := 0; a < dim; a++ {
		minBounds[a], maxBounds[a] = top.IndexBounds(a)
	}

	cs.dim = dim
	cs.gridDelta = gridDelta
	cs.depth = depth
	if cs.above {
		cs.depthPlanePos = float64(maxBounds[dim-1])*gridDelta + depth - gridDelta
	} else {
		cs.depthPlanePos = float64(minBounds[dim-1])*gridDelta - depth + gridDelta
	}
	cs.lo, cs.hi = minBounds, maxBounds
	if depth > 0 {
		if cs.above {
			cs.hi[dim-1] = round(cs.depthPlanePos / gridDelta)
		} else {
			cs.lo[dim-1] = round(cs.depthPlanePos/gridDelta) - 1
		}
	}

	cs.levelSets = levelSets
	m := cs.voxelize(cs.boundaries(levelSets...))

	fields := newFields(len(m.elements))
	if cs.grid != nil && cs.grid.Fields.Len() == fields.Len() {
		for _, name := range cs.grid.Fields.Names() {
			if name == MaterialField {
				continue
			}
			if err := fields.Set(name, cs.grid.Fields.Get(name)); err != nil {
				return err
			}
		}
	}
	if err := fields.Set(MaterialField, m.material); err != nil {
		return err
	}
	if fields.Get(FillingFractionField) == nil {
		if err := fields.Add(FillingFractionField, 0); err != nil {
			return err
		}
	}
	cs.grid = &Grid{Dim: dim, Nodes: m.nodes, Elements: m.elements, Fields: fields}
	cs.numberOfCells = len(m.elements)
	cs.surface = top.Clone()
	cs.neighborhood = nil

	cs.calculateBounds()
	cs.bvh = newBVH(cs.box, dim, bvhLayers(cs.box, dim, gridDelta))
	cs.bvh.build(cs.grid)

	cs.Logger().WithFields(logrus.Fields{
		"cells":     cs.numberOfCells,
		"nodes":     len(cs.grid.Nodes),
		"bvhLayers": cs.bvh.layers,
	}).Debug("cellset: built cell set")
	return nil
}

// hasPlane returns whether the cell set is closed off by a depth plane.
func (cs *CellSet) hasPlane() bool { return cs.depth > 0 }

func (cs *CellSet) plane() *depthPlane {
	return &depthPlane{dim: cs.dim, gridDelta: cs.gridDelta, pos: cs.depthPlanePos}
}

// boundaries returns the boundaries to voxelize, innermost first,
// with the depth plane added on the appropriate side.
func (cs *CellSet) boundaries(surfaces ...Surface) []Surface {
	var b []Surface
	if cs.hasPlane() && !cs.above {
		b = append(b, cs.plane())
	}
	b = append(b, surfaces...)
	if cs.hasPlane() && cs.above {
		b = append(b, cs.plane())
	}
	return b
}

// voxelize converts boundaries to a voxel mesh over the cell set's index
// range. For cell sets below the surface, the depth plane is merged into
// the lowest material.
func (cs *CellSet) voxelize(boundaries []Surface) *voxelMesh {
	v := &voxelizer{
		dim:        cs.dim,
		gridDelta:  cs.gridDelta,
		lo:         cs.lo,
		hi:         cs.hi,
		boundaries: boundaries,
	}
	m := v.apply()
	if !cs.above && cs.hasPlane() {
		mat := m.material
		Calculations(cs.NumProcs(), len(mat), func(i int) {
			if mat[i] > 0 {
				mat[i]--
			}
		})
	}
	return m
}

func (cs *CellSet) calculateBounds() {
	for a := 0; a < cs.dim; a++ {
		cs.box.Min[a] = float64(cs.lo[a])*cs.gridDelta - boxPadding
		cs.box.Max[a] = float64(cs.hi[a])*cs.gridDelta + boxPadding
	}
	if cs.hasPlane() && cs.above {
		cs.box.Max[cs.dim-1] = cs.depthPlanePos + boxPadding
	}
}

// UpdateMaterials re-voxelizes the level sets to update the material of
// each cell. It should be called when the level sets changed in a way
// that does not change the outer surface of the cell set. If the number of
// cells would change, nothing is modified and ErrTopologyMismatch is
// returned; call UpdateSurface first in that case.
func (cs *CellSet) UpdateMaterials() error {
	if len(cs.levelSets) == 0 {
		return ErrNoLevelSets
	}
	m := cs.voxelize(cs.boundaries(cs.levelSets...))
	if len(m.elements) != cs.numberOfCells {
		cs.Logger().WithFields(logrus.Fields{
			"cells":    cs.numberOfCells,
			"newCells": len(m.elements),
		}).Warn("cellset: number of cells not equal in material update; the surface top might have changed")
		return ErrTopologyMismatch
	}
	return cs.grid.Fields.Set(MaterialField, m.material)
}

// UpdateSurface removes the cells that are no longer inside the top level
// set. The new surface must be below the previous one: this function can
// only remove cells. Every field is shrunk together with the cell list,
// and the spatial index (and the neighborhood, if it had been built) is
// rebuilt.
func (cs *CellSet) UpdateSurface() error {
	if cs.above {
		return ErrShrinkOnlyBelow
	}
	if len(cs.levelSets) == 0 {
		return ErrNoLevelSets
	}
	current := cs.levelSets[len(cs.levelSets)-1]
	var b []Surface
	if cs.hasPlane() {
		b = append(b, cs.plane())
	}
	b = append(b, current, cs.surface)
	previous := float64(len(b) - 1)

	v := &voxelizer{dim: cs.dim, gridDelta: cs.gridDelta, lo: cs.lo, hi: cs.hi, boundaries: b}
	cut := v.apply()
	if len(cut.elements) != cs.numberOfCells {
		cs.Logger().WithFields(logrus.Fields{
			"cells":    cs.numberOfCells,
			"cutCells": len(cut.elements),
		}).Warn("cellset: surface update would add cells")
		return ErrTopologyMismatch
	}

	keep := make([]bool, len(cut.material))
	j := 0
	for i, id := range cut.material {
		keep[i] = id != previous
		if keep[i] {
			cs.grid.Elements[j] = cs.grid.Elements[i]
			j++
		}
	}
	removed := cs.numberOfCells - j
	cs.grid.Elements = cs.grid.Elements[:j]
	cs.grid.Fields.keep(keep)
	cs.numberOfCells = j
	cs.surface = current.Clone()

	cs.bvh.build(cs.grid)
	if cs.neighborhood != nil {
		cs.BuildNeighborhood()
	}
	cs.Logger().WithField("removed", removed).Debug("cellset: updated surface")
	return nil
}

// Index returns the index of the cell containing p, or NotFound.
func (cs *CellSet) Index(p Node) int {
	for _, id := range cs.bvh.cellIDs(p) {
		if cs.insideVoxel(p, cs.grid.Nodes[cs.grid.Elements[id][0]]) {
			return id
		}
	}
	return NotFound
}

// insideVoxel returns whether p is inside the voxel with minimum corner
// cellMin. The upper faces are not part of the voxel.
func (cs *CellSet) insideVoxel(p, cellMin Node) bool {
	for a := 0; a < cs.dim; a++ {
		if p[a] < cellMin[a] || p[a] >= cellMin[a]+cs.gridDelta {
			return false
		}
	}
	return true
}

// AddScalarData adds a new per-cell field with every value set to init.
func (cs *CellSet) AddScalarData(name string, init float64) error {
	return cs.grid.Fields.Add(name, init)
}

// ScalarData returns the named per-cell field, or nil if it does not
// exist. The returned slice can be modified in place.
func (cs *CellSet) ScalarData(name string) []float64 {
	return cs.grid.Fields.Get(name)
}

// ScalarAt returns the value of the named field in the cell containing p.
// ok is false if the field does not exist or p is not in any cell.
func (cs *CellSet) ScalarAt(name string, p Node) (v float64, ok bool) {
	d := cs.grid.Fields.Get(name)
	if d == nil {
		return 0, false
	}
	i := cs.Index(p)
	if i == NotFound {
		return 0, false
	}
	return d[i], true
}

// SetScalar sets the named field in cell i. It returns false if the
// field does not exist or i is out of range.
func (cs *CellSet) SetScalar(name string, i int, v float64) bool {
	d := cs.grid.Fields.Get(name)
	if d == nil || i < 0 || i >= len(d) {
		return false
	}
	d[i] = v
	return true
}

// AddScalar adds v to the named field in cell i. It returns false if the
// field does not exist or i is out of range.
func (cs *CellSet) AddScalar(name string, i int, v float64) bool {
	d := cs.grid.Fields.Get(name)
	if d == nil || i < 0 || i >= len(d) {
		return false
	}
	d[i] += v
	return true
}

// SetScalarAt sets the named field in the cell containing p.
func (cs *CellSet) SetScalarAt(name string, p Node, v float64) bool {
	return cs.SetScalar(name, cs.Index(p), v)
}

// AddScalarAt adds v to the named field in the cell containing p.
func (cs *CellSet) AddScalarAt(name string, p Node, v float64) bool {
	return cs.AddScalar(name, cs.Index(p), v)
}

// FieldNames returns the names of all fields in the order they were
// added.
func (cs *CellSet) FieldNames() []string { return cs.grid.Fields.Names() }

// Materials returns the material id of every cell.
func (cs *CellSet) Materials() []float64 { return cs.ScalarData(MaterialField) }

// Material returns the material id of cell i.
func (cs *CellSet) Material(i int) int { return int(cs.Materials()[i]) }

// FillingFractions returns the filling fraction of every cell.
func (cs *CellSet) FillingFractions() []float64 { return cs.ScalarData(FillingFractionField) }

// FillingFraction returns the filling fraction of the cell containing p,
// or -1 if p is not inside the cell set.
func (cs *CellSet) FillingFraction(p Node) float64 {
	i := cs.Index(p)
	if i == NotFound {
		return -1
	}
	return cs.FillingFractions()[i]
}

// SetFillingFraction sets the filling fraction of cell i.
func (cs *CellSet) SetFillingFraction(i int, fill float64) bool {
	return cs.SetScalar(FillingFractionField, i, fill)
}

// SetFillingFractionAt sets the filling fraction of the cell containing p.
func (cs *CellSet) SetFillingFractionAt(p Node, fill float64) bool {
	return cs.SetFillingFraction(cs.Index(p), fill)
}

// AddFillingFraction adds fill to the filling fraction of cell i.
func (cs *CellSet) AddFillingFraction(i int, fill float64) bool {
	return cs.AddScalar(FillingFractionField, i, fill)
}

// AddFillingFractionAt adds fill to the filling fraction of the cell
// containing p.
func (cs *CellSet) AddFillingFractionAt(p Node, fill float64) bool {
	return cs.AddFillingFraction(cs.Index(p), fill)
}

// AddFillingFractionInMaterial adds fill to the filling fraction of the
// cell containing p, but only if that cell has material id materialID.
func (cs *CellSet) AddFillingFractionInMaterial(p Node, fill float64, materialID int) bool {
	i := cs.Index(p)
	if i == NotFound || cs.Material(i) != materialID {
		return false
	}
	return cs.AddFillingFraction(i, fill)
}

// Clear sets every filling fraction to zero.
func (cs *CellSet) Clear() {
	ff := cs.FillingFractions()
	for i := range ff {
		ff[i] = 0
	}
}

// MergePath adds the increments in path, divided by factor, to the
// filling fractions.
func (cs *CellSet) MergePath(path *TracePath, factor float64) error {
	ff := cs.FillingFractions()
	d := path.Data()
	idx := make([]int, 0, len(d))
	for i := range d {
		if i < 0 || i >= len(ff) {
			return fmt.Errorf("cellset: trace path cell %d out of bounds [0, %d)", i, len(ff))
		}
		idx = append(idx, i)
	}
	g := path.GridData()
	if g != nil && len(g) != len(ff) {
		return fmt.Errorf("cellset: trace path has %d values but there are %d cells", len(g), len(ff))
	}
	sort.Ints(idx)
	for _, i := range idx {
		ff[i] += d[i] / factor
	}
	if g != nil {
		floats.AddScaled(ff, 1/factor, g)
	}
	return nil
}

// Grid returns the underlying mesh.
func (cs *CellSet) Grid() *Grid { return cs.grid }

// Nodes returns the grid nodes.
func (cs *CellSet) Nodes() []Node { return cs.grid.Nodes }

// Elements returns the cells as lists of node indices.
func (cs *CellSet) Elements() []Element { return cs.grid.Elements }

// NumCells returns the number of cells.
func (cs *CellSet) NumCells() int { return cs.numberOfCells }

// Dim returns the number of dimensions.
func (cs *CellSet) Dim() int { return cs.dim }

// GridDelta returns the grid spacing.
func (cs *CellSet) GridDelta() float64 { return cs.gridDelta }

// Depth returns the distance of the closing plane from the surface.
func (cs *CellSet) Depth() float64 { return cs.depth }

// Above returns whether the cell set is above the surface.
func (cs *CellSet) Above() bool { return cs.above }

// SetPosition sets whether the cell set should be created below (false)
// or above (true) the surface. It takes effect at the next FromLevelSets.
func (cs *CellSet) SetPosition(above bool) { cs.above = above }

// BoundingBox returns the padded bounding box of the cell set.
func (cs *CellSet) BoundingBox() Box { return cs.box }

// Surface returns the copy of the top level set from the last surface
// update.
func (cs *CellSet) Surface() Surface { return cs.surface }

// LevelSets returns the level sets the cell set is built from.
func (cs *CellSet) LevelSets() []Surface { return cs.levelSets }

// Center returns the center of cell i.
func (cs *CellSet) Center(i int) Node { return cs.grid.Center(i, cs.gridDelta) }

// CheckFields returns an error if any field does not have one value per
// cell.
func (cs *CellSet) CheckFields() error {
	if cs.grid.Fields.Len() != cs.numberOfCells {
		return fmt.Errorf("cellset: fields have %d values but there are %d cells",
			cs.grid.Fields.Len(), cs.numberOfCells)
	}
	return cs.grid.Fields.check()
}
