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

package byproduct

import (
	"math"
	"sync/atomic"

	"github.com/spatialmodel/cellset"
)

// stencil holds the face neighbors of a gas cell that are also gas
// cells. Missing neighbors are cellset.NotFound.
type stencil struct {
	gas    bool
	lo, hi [3]int
	center cellset.Node
}

func (d *Dynamics) stencils() []stencil {
	cs := d.cs
	dim := cs.Dim()
	s := make([]stencil, cs.NumCells())
	cellset.Calculations(d.NumProcs(), len(s), func(i int) {
		if !d.isGas(i) {
			return
		}
		st := stencil{gas: true, center: cs.Center(i)}
		for a := 0; a < 3; a++ {
			st.lo[a], st.hi[a] = cellset.NotFound, cellset.NotFound
			if a >= dim {
				continue
			}
			if n := cs.DirectionalNeighbor(i, a, -1); n != cellset.NotFound && d.isGas(n) {
				st.lo[a] = n
			}
			if n := cs.DirectionalNeighbor(i, a, 1); n != cellset.NotFound && d.isGas(n) {
				st.hi[a] = n
			}
		}
		s[i] = st
	})
	return s
}

// diffuse transports the concentration held in the filling fraction field
// for time t with explicit substeps and then adds the concentration
// integrated over t to SumField. Only gas cells take part; the values of
// other cells are left unchanged.
func (d *Dynamics) diffuse(t float64) {
	cs := d.cs
	cfg := d.cfg
	gd := cs.GridDelta()
	dim := cs.Dim()
	v := dim - 1

	dt := math.Min(gd*gd/cfg.DiffusionCoefficient*0.245, 1)
	n := int(t / dt)
	c := dt * cfg.DiffusionCoefficient / (gd * gd)
	holeC := dt / gd * cfg.HoleVelocity
	scallopC := dt / gd * cfg.ScallopVelocity

	data := cs.FillingFractions()
	st := d.stencils()
	buf := make([]float64, len(data))
	copy(buf, data)
	cur, next := data, buf

	var clamped int64
	for step := 0; step < n; step++ {
		cellset.Calculations(d.NumProcs(), len(cur), func(e int) {
			s := &st[e]
			if !s.gas {
				next[e] = cur[e]
				return
			}
			sol := cur[e]
			for a := 0; a < dim; a++ {
				if s.lo[a] != cellset.NotFound {
					sol += c * (cur[s.lo[a]] - cur[e])
				}
				if s.hi[a] != cellset.NotFound {
					sol += c * (cur[s.hi[a]] - cur[e])
				}
			}
			y := s.center[v]
			switch {
			case y > cfg.Top-gd:
				sol = math.Max(sol-cfg.Sink, 0)
			case math.Abs(s.center[0]) < cfg.HoleRadius:
				if up := s.hi[v]; up != cellset.NotFound {
					sol -= holeC * (((y-gd)/cfg.Top)*cur[up] - (y/cfg.Top)*cur[e])
				}
			case s.center[0] < 0:
				if right := s.hi[0]; right != cellset.NotFound {
					sol -= scallopC * (cur[right] - cur[e])
				}
			default:
				if left := s.lo[0]; left != cellset.NotFound {
					sol += scallopC * (cur[e] - cur[left])
				}
			}
			if sol < 0 {
				sol = 0
				atomic.AddInt64(&clamped, 1)
			}
			next[e] = sol
		})
		cur, next = next, cur
	}
	if n%2 == 1 {
		copy(data, cur)
	}
	substeps.Add(float64(n))
	if clamped > 0 {
		clampedCells.Add(float64(clamped))
		d.Logger().WithField("cells", clamped).Warn("byproduct: negative concentrations set to zero")
	}

	sum := cs.ScalarData(SumField)
	for e := range data {
		if st[e].gas {
			sum[e] += data[e] * t
		}
	}
}
