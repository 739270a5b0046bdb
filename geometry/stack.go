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

// Package geometry creates initial process domains.
package geometry

import (
	"fmt"
	"math"

	"github.com/spatialmodel/cellset"
	"github.com/spatialmodel/cellset/levelset"
)

// Stack specifies a stack of alternating SiO2 and Si3N4 layers on a Si
// substrate, with an optional hole (trench in two dimensions) through the
// layers or an optional mask with an opening on top.
type Stack struct {
	Dim       int
	GridDelta float64

	// XExtent and YExtent are the half widths of the domain along the
	// lateral axes. YExtent is only used in three dimensions.
	XExtent, YExtent float64

	NumLayers       int
	LayerHeight     float64
	SubstrateHeight float64

	// HoleRadius is the radius of the hole, or the half width of the
	// trench. The hole is cut through the layers when MaskHeight is zero;
	// otherwise it is the opening in the mask.
	HoleRadius float64
	MaskHeight float64

	// Periodic specifies periodic instead of reflective lateral
	// boundaries.
	Periodic bool
}

// Height returns the height of the top of the layer stack.
func (s *Stack) Height() float64 {
	return s.SubstrateHeight + float64(s.NumLayers)*s.LayerHeight
}

// TopLayer returns the index of the top layer of the stack.
func (s *Stack) TopLayer() int { return s.NumLayers }

// Bounds returns the region the level sets are defined on.
func (s *Stack) Bounds() levelset.Bounds {
	b := levelset.Bounds{Dim: s.Dim, GridDelta: s.GridDelta}
	lateral := cellset.Reflective
	if s.Periodic {
		lateral = cellset.Periodic
	}
	ext := []float64{s.XExtent, s.YExtent}
	for a := 0; a < s.Dim-1; a++ {
		n := int(math.Ceil(ext[a]/s.GridDelta - 1e-9))
		b.Min[a], b.Max[a] = -n, n
		b.Boundary[a] = lateral
	}
	v := s.Dim - 1
	b.Min[v] = -1
	b.Max[v] = int(math.Ceil((s.Height()+s.MaskHeight)/s.GridDelta-1e-9)) + 2
	b.Boundary[v] = cellset.Infinite
	return b
}

func (s *Stack) check() error {
	if s.Dim != 2 && s.Dim != 3 {
		return fmt.Errorf("geometry: invalid number of dimensions %d", s.Dim)
	}
	if s.GridDelta <= 0 {
		return fmt.Errorf("geometry: invalid grid spacing %g", s.GridDelta)
	}
	if s.XExtent < s.GridDelta || (s.Dim == 3 && s.YExtent < s.GridDelta) {
		return fmt.Errorf("geometry: domain extent must be at least one grid spacing")
	}
	if s.NumLayers < 0 || s.LayerHeight < 0 || s.SubstrateHeight < 0 || s.HoleRadius < 0 || s.MaskHeight < 0 {
		return fmt.Errorf("geometry: negative stack dimension")
	}
	return nil
}

// Make creates the level sets of the stack, innermost first, and the
// material of each of them. Each level set contains all of the ones
// before it.
func (s *Stack) Make() ([]*levelset.Grid, cellset.MaterialMap, error) {
	if err := s.check(); err != nil {
		return nil, nil, err
	}
	b := s.Bounds()
	gd := s.GridDelta
	height := s.Height()

	var levelSets []*levelset.Grid
	var materials cellset.MaterialMap
	insert := func(ls *levelset.Grid, m cellset.Material) error {
		if len(levelSets) > 0 {
			if err := ls.Union(levelSets[len(levelSets)-1]); err != nil {
				return err
			}
		}
		levelSets = append(levelSets, ls)
		materials = append(materials, m)
		return nil
	}

	if s.MaskHeight > 0 {
		mask, err := levelset.NewPlane(b, height+s.MaskHeight)
		if err != nil {
			return nil, nil, err
		}
		below, err := levelset.NewPlane(b, height)
		if err != nil {
			return nil, nil, err
		}
		if err := mask.Subtract(below); err != nil {
			return nil, nil, err
		}
		opening, err := s.cutOut(b, height-gd, s.MaskHeight+2*gd)
		if err != nil {
			return nil, nil, err
		}
		if err := mask.Subtract(opening); err != nil {
			return nil, nil, err
		}
		if err := insert(mask, cellset.Mask); err != nil {
			return nil, nil, err
		}
	}

	substrate, err := levelset.NewPlane(b, s.SubstrateHeight)
	if err != nil {
		return nil, nil, err
	}
	if err := insert(substrate, cellset.Si); err != nil {
		return nil, nil, err
	}
	for i := 0; i < s.NumLayers; i++ {
		ls, err := levelset.NewPlane(b, s.SubstrateHeight+s.LayerHeight*float64(i+1))
		if err != nil {
			return nil, nil, err
		}
		m := cellset.SiO2
		if i%2 == 1 {
			m = cellset.Si3N4
		}
		if err := insert(ls, m); err != nil {
			return nil, nil, err
		}
	}

	if s.HoleRadius > 0 && s.MaskHeight == 0 {
		cut, err := s.cutOut(b, 0, height+gd)
		if s.Dim == 3 {
			cut, err = s.cutOut(b, 0, float64(s.NumLayers+1)*s.LayerHeight)
		}
		if err != nil {
			return nil, nil, err
		}
		for _, ls := range levelSets {
			if err := ls.Subtract(cut); err != nil {
				return nil, nil, err
			}
		}
	}
	return levelSets, materials, nil
}

// cutOut returns the trench (2-D) or hole (3-D) starting at base with the
// given height.
func (s *Stack) cutOut(b levelset.Bounds, base, height float64) (*levelset.Grid, error) {
	var origin cellset.Node
	origin[s.Dim-1] = base
	return levelset.NewCylinder(b, origin, height, s.HoleRadius)
}
