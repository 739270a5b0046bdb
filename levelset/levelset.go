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

// Package levelset provides dense, node-sampled signed distance surfaces
// that can be combined with boolean operations and moved with a normal
// velocity. Grids implement cellset.Surface.
package levelset

import (
	"fmt"
	"math"

	"github.com/spatialmodel/cellset"
)

// Bounds specifies the region a Grid is defined on. Min and Max are the
// lowest and highest node indices along each axis; node i along axis a is
// at coordinate i*GridDelta.
type Bounds struct {
	Dim       int
	GridDelta float64
	Min, Max  [3]int
	Boundary  [3]cellset.BoundaryCondition
}

func (b Bounds) check() error {
	if b.Dim != 2 && b.Dim != 3 {
		return fmt.Errorf("levelset: invalid number of dimensions %d", b.Dim)
	}
	if b.GridDelta <= 0 {
		return fmt.Errorf("levelset: invalid grid spacing %g", b.GridDelta)
	}
	for a := 0; a < b.Dim; a++ {
		if b.Max[a]-b.Min[a] < 1 {
			return fmt.Errorf("levelset: axis %d needs at least 2 nodes but has bounds [%d, %d]",
				a, b.Min[a], b.Max[a])
		}
	}
	return nil
}

// Grid is a signed distance function sampled at every node of a regular
// grid. Negative values are inside.
type Grid struct {
	b   Bounds
	n   [3]int // nodes per axis
	phi []float64
}

// New returns a grid over b with every value set to init.
func New(b Bounds, init float64) (*Grid, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	g := &Grid{b: b, n: [3]int{1, 1, 1}}
	size := 1
	for a := 0; a < b.Dim; a++ {
		g.n[a] = b.Max[a] - b.Min[a] + 1
		size *= g.n[a]
	}
	g.phi = make([]float64, size)
	for i := range g.phi {
		g.phi[i] = init
	}
	return g, nil
}

// newFunc returns a grid over b sampling f at every node.
func newFunc(b Bounds, f func(p cellset.Node) float64) (*Grid, error) {
	g, err := New(b, 0)
	if err != nil {
		return nil, err
	}
	for i := range g.phi {
		g.phi[i] = f(g.Coord(i))
	}
	return g, nil
}

// Bounds returns the region the grid is defined on.
func (g *Grid) Bounds() Bounds { return g.b }

// GridDelta returns the grid spacing.
func (g *Grid) GridDelta() float64 { return g.b.GridDelta }

// Dim returns the number of dimensions.
func (g *Grid) Dim() int { return g.b.Dim }

// IndexBounds returns the lowest and highest node index along axis.
func (g *Grid) IndexBounds(axis int) (min, max int) { return g.b.Min[axis], g.b.Max[axis] }

// Boundary returns the boundary condition along axis.
func (g *Grid) Boundary(axis int) cellset.BoundaryCondition { return g.b.Boundary[axis] }

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() cellset.Surface { return g.Copy() }

// Copy returns a deep copy of the grid.
func (g *Grid) Copy() *Grid {
	o := *g
	o.phi = make([]float64, len(g.phi))
	copy(o.phi, g.phi)
	return &o
}

// NumNodes returns the number of grid nodes.
func (g *Grid) NumNodes() int { return len(g.phi) }

// Data returns the node values, with axis 0 varying fastest.
func (g *Grid) Data() []float64 { return g.phi }

// index returns the node indices of flat index i, relative to Min.
func (g *Grid) index(i int) [3]int {
	var idx [3]int
	for a := 0; a < g.b.Dim; a++ {
		idx[a] = i % g.n[a]
		i /= g.n[a]
	}
	return idx
}

// flat returns the flat index of relative node indices idx.
func (g *Grid) flat(idx [3]int) int {
	i := 0
	stride := 1
	for a := 0; a < g.b.Dim; a++ {
		i += idx[a] * stride
		stride *= g.n[a]
	}
	return i
}

// Coord returns the coordinates of node i.
func (g *Grid) Coord(i int) cellset.Node {
	idx := g.index(i)
	var p cellset.Node
	for a := 0; a < g.b.Dim; a++ {
		p[a] = float64(idx[a]+g.b.Min[a]) * g.b.GridDelta
	}
	return p
}

// neighbor returns the flat index of the node next to node idx along
// axis in direction dir, applying the boundary condition of the axis.
// ok is false past infinite boundaries.
func (g *Grid) neighbor(idx [3]int, axis, dir int) (int, bool) {
	j := idx[axis] + dir
	last := g.n[axis] - 1
	if j < 0 || j > last {
		switch g.b.Boundary[axis] {
		case cellset.Periodic:
			// Nodes 0 and last coincide.
			if j < 0 {
				j = last - 1
			} else {
				j = 1
			}
		case cellset.Reflective:
			if j < 0 {
				j = 1
			} else {
				j = last - 1
			}
		default:
			return 0, false
		}
	}
	idx[axis] = j
	return g.flat(idx), true
}

// Value returns the signed distance at p, interpolated multilinearly
// between nodes. Outside of the grid, values wrap along periodic axes,
// are mirrored along reflective axes and are extrapolated linearly along
// infinite axes.
func (g *Grid) Value(p cellset.Node) float64 {
	var i0 [3]int
	var t [3]float64
	for a := 0; a < g.b.Dim; a++ {
		last := float64(g.n[a] - 1)
		x := p[a]/g.b.GridDelta - float64(g.b.Min[a])
		switch g.b.Boundary[a] {
		case cellset.Periodic:
			x = math.Mod(x, last)
			if x < 0 {
				x += last
			}
		case cellset.Reflective:
			if x < 0 {
				x = -x
			}
			if x > last {
				x = 2*last - x
			}
			x = math.Max(0, math.Min(last, x))
		}
		f := math.Floor(x)
		if f < 0 {
			f = 0
		}
		if f > last-1 {
			f = last - 1
		}
		i0[a] = int(f)
		t[a] = x - f
	}

	v := 0.
	for k := 0; k < 1<<uint(g.b.Dim); k++ {
		w := 1.
		idx := i0
		for a := 0; a < g.b.Dim; a++ {
			if k&(1<<uint(a)) != 0 {
				idx[a]++
				w *= t[a]
			} else {
				w *= 1 - t[a]
			}
		}
		if w != 0 {
			v += w * g.phi[g.flat(idx)]
		}
	}
	return v
}

// sameBounds returns an error if g and o are not defined on the same
// region.
func (g *Grid) sameBounds(o *Grid) error {
	if g.b != o.b {
		return fmt.Errorf("levelset: grids have different bounds: %+v and %+v", g.b, o.b)
	}
	return nil
}

// Union makes g the union of g and o.
func (g *Grid) Union(o *Grid) error {
	if err := g.sameBounds(o); err != nil {
		return err
	}
	for i, v := range o.phi {
		g.phi[i] = math.Min(g.phi[i], v)
	}
	return nil
}

// Intersect makes g the intersection of g and o.
func (g *Grid) Intersect(o *Grid) error {
	if err := g.sameBounds(o); err != nil {
		return err
	}
	for i, v := range o.phi {
		g.phi[i] = math.Max(g.phi[i], v)
	}
	return nil
}

// Subtract removes o from g.
func (g *Grid) Subtract(o *Grid) error {
	if err := g.sameBounds(o); err != nil {
		return err
	}
	for i, v := range o.phi {
		g.phi[i] = math.Max(g.phi[i], -v)
	}
	return nil
}
