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

import "fmt"

// Node is a point in space. Two-dimensional domains leave the last
// coordinate at zero.
type Node [3]float64

// BoundaryCondition specifies how a Surface treats one of its axes.
type BoundaryCondition int

// Boundary conditions that surfaces can have along each axis.
const (
	Reflective BoundaryCondition = iota
	Periodic
	Infinite
)

func (b BoundaryCondition) String() string {
	switch b {
	case Reflective:
		return "reflective"
	case Periodic:
		return "periodic"
	case Infinite:
		return "infinite"
	default:
		return fmt.Sprintf("BoundaryCondition(%d)", int(b))
	}
}

// Surface is a closed boundary of one material region, as supplied by the
// surface evolution engine. All surfaces in a stack share the same grid
// spacing.
type Surface interface {
	// GridDelta returns the grid spacing.
	GridDelta() float64

	// Dim returns the number of spatial dimensions (2 or 3).
	Dim() int

	// IndexBounds returns the minimum and maximum grid index of the region
	// in which the surface is defined along the given axis. For axes with
	// Infinite boundaries this is the extent of the stored data.
	IndexBounds(axis int) (min, max int)

	// Boundary returns the boundary condition along the given axis.
	Boundary(axis int) BoundaryCondition

	// Value returns the signed distance from p to the surface. Values less
	// than or equal to zero are inside.
	Value(p Node) float64

	// Clone returns a deep copy of the surface.
	Clone() Surface
}

// depthPlane is a horizontal half-space used to close the cell set at a
// given height. Everything below pos is inside.
type depthPlane struct {
	dim       int
	gridDelta float64
	pos       float64
}

func (p *depthPlane) GridDelta() float64 { return p.gridDelta }
func (p *depthPlane) Dim() int           { return p.dim }

func (p *depthPlane) IndexBounds(axis int) (int, int) {
	i := round(p.pos / p.gridDelta)
	return i, i
}

func (p *depthPlane) Boundary(axis int) BoundaryCondition { return Infinite }
func (p *depthPlane) Value(n Node) float64                { return n[p.dim-1] - p.pos }

func (p *depthPlane) Clone() Surface {
	o := *p
	return &o
}

// checkStack makes sure the stack is not empty and that all of its
// surfaces agree on dimension and grid spacing.
func checkStack(stack []Surface) (dim int, gridDelta float64, err error) {
	if len(stack) == 0 {
		return 0, 0, ErrEmptyStack
	}
	dim = stack[0].Dim()
	gridDelta = stack[0].GridDelta()
	if dim != 2 && dim != 3 {
		return 0, 0, fmt.Errorf("cellset: invalid number of dimensions %d", dim)
	}
	if gridDelta <= 0 {
		return 0, 0, fmt.Errorf("cellset: invalid grid spacing %g", gridDelta)
	}
	for i, s := range stack[1:] {
		if s.Dim() != dim {
			return 0, 0, fmt.Errorf("cellset: surface %d has %d dimensions but surface 0 has %d",
				i+1, s.Dim(), dim)
		}
		if s.GridDelta() != gridDelta {
			return 0, 0, fmt.Errorf("%w: surface %d has %g but surface 0 has %g",
				ErrGridDelta, i+1, s.GridDelta(), gridDelta)
		}
	}
	return dim, gridDelta, nil
}

func round(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}
