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

package levelset

import (
	"math"

	"github.com/spatialmodel/cellset"
)

// NewPlane returns a grid whose inside is everything at or below height
// along the vertical (last) axis.
func NewPlane(b Bounds, height float64) (*Grid, error) {
	return newFunc(b, func(p cellset.Node) float64 {
		return p[b.Dim-1] - height
	})
}

// NewBox returns a grid whose inside is the axis-aligned box between min
// and max.
func NewBox(b Bounds, min, max cellset.Node) (*Grid, error) {
	return newFunc(b, func(p cellset.Node) float64 {
		var q [3]float64
		for a := 0; a < b.Dim; a++ {
			c := (min[a] + max[a]) / 2
			h := (max[a] - min[a]) / 2
			q[a] = math.Abs(p[a]-c) - h
		}
		return boxDistance(q[:b.Dim])
	})
}

// NewCylinder returns a grid whose inside is an upright cylinder with its
// base centered at base. In two dimensions the cylinder is a vertical
// slab of width 2*radius.
func NewCylinder(b Bounds, base cellset.Node, height, radius float64) (*Grid, error) {
	v := b.Dim - 1
	return newFunc(b, func(p cellset.Node) float64 {
		r := 0.
		for a := 0; a < v; a++ {
			r += (p[a] - base[a]) * (p[a] - base[a])
		}
		c := base[v] + height/2
		return boxDistance([]float64{
			math.Sqrt(r) - radius,
			math.Abs(p[v]-c) - height/2,
		})
	})
}

// NewSphere returns a grid whose inside is the sphere (circle in two
// dimensions) around center.
func NewSphere(b Bounds, center cellset.Node, radius float64) (*Grid, error) {
	return newFunc(b, func(p cellset.Node) float64 {
		d := 0.
		for a := 0; a < b.Dim; a++ {
			d += (p[a] - center[a]) * (p[a] - center[a])
		}
		return math.Sqrt(d) - radius
	})
}

// boxDistance returns the signed distance to a box given the per-axis
// distances q from the box faces, which are negative inside.
func boxDistance(q []float64) float64 {
	outside := 0.
	inside := math.Inf(-1)
	for _, v := range q {
		if v > 0 {
			outside += v * v
		}
		inside = math.Max(inside, v)
	}
	return math.Sqrt(outside) + math.Min(inside, 0)
}
