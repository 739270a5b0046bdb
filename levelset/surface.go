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

// SurfacePoint is a grid node close to the top surface.
type SurfacePoint struct {
	Coord    cellset.Node
	Normal   cellset.Node
	Material int // index of the level set at the surface
}

// SurfacePoints returns the nodes whose distance to the top level set is
// at most half a grid spacing, in node order. Duplicate nodes on periodic
// boundaries are only returned once.
func SurfacePoints(levelSets []*Grid) ([]SurfacePoint, error) {
	if err := checkStack(levelSets); err != nil {
		return nil, err
	}
	top := levelSets[len(levelSets)-1]
	limit := 0.5 * top.b.GridDelta
	var pts []SurfacePoint
	for i, v := range top.phi {
		if math.Abs(v) > limit || top.periodicDuplicate(i) {
			continue
		}
		pts = append(pts, SurfacePoint{
			Coord:    top.Coord(i),
			Normal:   top.Normal(i),
			Material: material(levelSets, i),
		})
	}
	return pts, nil
}

// periodicDuplicate returns whether node i is the last node along a
// periodic axis, which is the same as the first one.
func (g *Grid) periodicDuplicate(i int) bool {
	idx := g.index(i)
	for a := 0; a < g.b.Dim; a++ {
		if g.b.Boundary[a] == cellset.Periodic && idx[a] == g.n[a]-1 {
			return true
		}
	}
	return false
}
