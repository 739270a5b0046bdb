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
	"fmt"
	"math"

	"github.com/spatialmodel/cellset"
)

// CFL is the fraction of a grid spacing the surface may move in one
// advection step.
const CFL = 0.45

// materialTolerance is the tolerance, relative to the grid spacing, used
// to decide which level set is at the surface.
const materialTolerance = 1e-6

// Velocity gives the speed at which the surface moves along its outward
// normal. Positive values grow the top level set and negative values
// remove material.
type Velocity interface {
	ScalarVelocity(coord cellset.Node, material int, normal cellset.Node, pointID int) float64
}

// VelocityFunc adapts a function to the Velocity interface.
type VelocityFunc func(coord cellset.Node, material int, normal cellset.Node, pointID int) float64

// ScalarVelocity calls f.
func (f VelocityFunc) ScalarVelocity(coord cellset.Node, material int, normal cellset.Node, pointID int) float64 {
	return f(coord, material, normal, pointID)
}

// checkStack makes sure the level sets are non-empty and share bounds.
func checkStack(levelSets []*Grid) error {
	if len(levelSets) == 0 {
		return fmt.Errorf("levelset: no level sets")
	}
	for _, ls := range levelSets[1:] {
		if err := levelSets[0].sameBounds(ls); err != nil {
			return err
		}
	}
	return nil
}

// material returns the index of the lowest level set at the top surface
// at node i.
func material(levelSets []*Grid, i int) int {
	top := levelSets[len(levelSets)-1]
	tol := materialTolerance * top.b.GridDelta
	for m, ls := range levelSets {
		if ls.phi[i] <= top.phi[i]+tol {
			return m
		}
	}
	return len(levelSets) - 1
}

// Normal returns the outward unit normal of the surface at node i,
// computed with central differences.
func (g *Grid) Normal(i int) cellset.Node {
	idx := g.index(i)
	var n cellset.Node
	norm := 0.
	for a := 0; a < g.b.Dim; a++ {
		m, okm := g.neighbor(idx, a, -1)
		p, okp := g.neighbor(idx, a, 1)
		if !okm {
			m = i
		}
		if !okp {
			p = i
		}
		n[a] = g.phi[p] - g.phi[m]
		norm += n[a] * n[a]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for a := 0; a < g.b.Dim; a++ {
			n[a] /= norm
		}
	}
	return n
}

// Advect moves the top level set with velocity v by one step of at most
// maxTime and returns the time that was advanced. The step is limited so
// that the surface moves by at most CFL grid spacings. The lower level
// sets are then intersected with the top level set so they stay inside
// it. Work is split over nprocs goroutines.
func Advect(levelSets []*Grid, v Velocity, maxTime float64, nprocs int) (float64, error) {
	if err := checkStack(levelSets); err != nil {
		return 0, err
	}
	if maxTime <= 0 {
		return 0, nil
	}
	top := levelSets[len(levelSets)-1]
	gd := top.b.GridDelta
	n := len(top.phi)

	vel := make([]float64, n)
	cellset.Calculations(nprocs, n, func(i int) {
		vel[i] = v.ScalarVelocity(top.Coord(i), material(levelSets, i), top.Normal(i), i)
	})
	maxV := 0.
	for _, s := range vel {
		maxV = math.Max(maxV, math.Abs(s))
	}
	if maxV == 0 {
		return maxTime, nil
	}
	dt := math.Min(CFL*gd/maxV, maxTime)

	next := make([]float64, n)
	cellset.Calculations(nprocs, n, func(i int) {
		s := vel[i]
		if s == 0 {
			next[i] = top.phi[i]
			return
		}
		idx := top.index(i)
		grad := 0.
		for a := 0; a < top.b.Dim; a++ {
			m, okm := top.neighbor(idx, a, -1)
			p, okp := top.neighbor(idx, a, 1)
			var dm, dp float64
			if okm {
				dm = (top.phi[i] - top.phi[m]) / gd
			}
			if okp {
				dp = (top.phi[p] - top.phi[i]) / gd
			}
			// One-sided differences at infinite boundaries.
			if !okm {
				dm = dp
			}
			if !okp {
				dp = dm
			}
			if s > 0 {
				grad += sq(math.Max(dm, 0)) + sq(math.Min(dp, 0))
			} else {
				grad += sq(math.Min(dm, 0)) + sq(math.Max(dp, 0))
			}
		}
		next[i] = top.phi[i] - dt*s*math.Sqrt(grad)
	})
	top.phi = next

	for _, ls := range levelSets[:len(levelSets)-1] {
		if err := ls.Intersect(top); err != nil {
			return 0, err
		}
	}
	return dt, nil
}

func sq(v float64) float64 { return v * v }
