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

// Package process runs surface evolution processes on a stack of level
// sets and keeps a cell set of the domain up to date while doing so.
package process

import (
	"fmt"

	"github.com/spatialmodel/cellset"
	"github.com/spatialmodel/cellset/levelset"
	"github.com/spatialmodel/cellset/science/etch"
)

// Domain is a stack of level sets, innermost first, with the material of
// each and an optional cell set built from them.
type Domain struct {
	cellset.Env

	LevelSets []*levelset.Grid
	Materials cellset.MaterialMap
	CellSet   *cellset.CellSet
}

// NewDomain returns a new domain holding the given level sets.
func NewDomain(env cellset.Env, levelSets []*levelset.Grid, materials cellset.MaterialMap) (*Domain, error) {
	if len(levelSets) == 0 {
		return nil, cellset.ErrEmptyStack
	}
	if len(levelSets) != len(materials) {
		return nil, fmt.Errorf("process: %d level sets but %d materials", len(levelSets), len(materials))
	}
	return &Domain{Env: env, LevelSets: levelSets, Materials: materials}, nil
}

// Top returns the top level set.
func (d *Domain) Top() *levelset.Grid { return d.LevelSets[len(d.LevelSets)-1] }

// Surfaces returns the level sets as cell set boundaries.
func (d *Domain) Surfaces() []cellset.Surface {
	s := make([]cellset.Surface, len(d.LevelSets))
	for i, ls := range d.LevelSets {
		s[i] = ls
	}
	return s
}

// DuplicateTopLevelSet adds a copy of the top level set on top of the
// stack. Material that is later deposited on the new top is of material
// m. A cell set generated before the call does not see the new level set.
func (d *Domain) DuplicateTopLevelSet(m cellset.Material) {
	d.LevelSets = append(d.LevelSets, d.Top().Copy())
	d.Materials = append(d.Materials, m)
}

// GenerateCellSet builds the cell set of the domain, either in the
// gas region above the surface or in the material below it.
func (d *Domain) GenerateCellSet(depth float64, above bool) error {
	cs, err := cellset.New(d.Env, d.Surfaces(), depth, above)
	if err != nil {
		return err
	}
	d.CellSet = cs
	return nil
}

// SurfacePoints returns the sample points on the top surface and the
// level set index at each of them.
func (d *Domain) SurfacePoints() ([]cellset.Node, []int, error) {
	sp, err := levelset.SurfacePoints(d.LevelSets)
	if err != nil {
		return nil, nil, err
	}
	points := make([]cellset.Node, len(sp))
	mats := make([]int, len(sp))
	for i, p := range sp {
		points[i] = p.Coord
		mats[i] = p.Material
	}
	return points, mats, nil
}

// Redeposit grows the top surface for the given time. The growth rate at
// every node is the rate of the nearest of the given points.
func (d *Domain) Redeposit(points []cellset.Node, rates []float64, time float64) error {
	if time <= 0 || len(points) == 0 {
		return nil
	}
	v, err := etch.NewRedeposition(d.Top().Dim(), points, rates)
	if err != nil {
		return err
	}
	for t := 0.; t < time; {
		dt, err := levelset.Advect(d.LevelSets, v, time-t, d.NumProcs())
		if err != nil {
			return fmt.Errorf("process: redeposition: %v", err)
		}
		if dt <= 0 {
			break
		}
		t += dt
	}
	return nil
}
