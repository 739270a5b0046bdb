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

// Package etch holds the surface velocity models used to move the top
// level set of a process domain.
package etch

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/spatialmodel/cellset"
)

// VelocityField gives the normal velocity of the surface at a point.
// material is the index of the level set at the surface.
type VelocityField interface {
	ScalarVelocity(coord cellset.Node, material int, normal cellset.Node, pointID int) float64
}

// Kind specifies a velocity model that can be chosen by name.
type Kind int

// Velocity models that can be selected by configuration.
const (
	None Kind = iota
	SelectiveEtchingKind
	DirectionalKind
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case SelectiveEtchingKind:
		return "selective"
	case DirectionalKind:
		return "directional"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind returns the Kind with the given name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "none":
		return None, nil
	case "selective", "selectiveetching":
		return SelectiveEtchingKind, nil
	case "directional":
		return DirectionalKind, nil
	default:
		return None, fmt.Errorf("etch: invalid velocity model %q", s)
	}
}

// New returns the velocity model of kind k for a domain with dim
// dimensions. rate is the Si3N4 etch rate and oxideRate the SiO2 etch rate.
func New(k Kind, dim int, rate, oxideRate float64, materials cellset.MaterialMap) (VelocityField, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("etch: invalid number of dimensions %d", dim)
	}
	switch k {
	case None:
		return Zero{}, nil
	case SelectiveEtchingKind:
		return &SelectiveEtching{Rate: rate, OxideRate: oxideRate, Materials: materials}, nil
	case DirectionalKind:
		return &Directional{
			SelectiveEtching: SelectiveEtching{Rate: rate, OxideRate: oxideRate, Materials: materials},
			Axis:             dim - 1,
		}, nil
	default:
		return nil, fmt.Errorf("etch: invalid velocity model %v", k)
	}
}

// Zero is a velocity field that does not move the surface.
type Zero struct{}

// ScalarVelocity returns zero.
func (Zero) ScalarVelocity(cellset.Node, int, cellset.Node, int) float64 { return 0 }

// SelectiveEtching removes Si3N4 at Rate and SiO2 at OxideRate. Other
// materials are not etched.
type SelectiveEtching struct {
	Rate, OxideRate float64
	Materials       cellset.MaterialMap
}

// ScalarVelocity returns the etch velocity for the material.
func (s *SelectiveEtching) ScalarVelocity(_ cellset.Node, material int, _ cellset.Node, _ int) float64 {
	switch s.Materials.Map(material) {
	case cellset.Si3N4:
		return -s.Rate
	case cellset.SiO2:
		return -s.OxideRate
	default:
		return 0
	}
}

// minDirectionalNormal is the smallest normal component along the etch
// axis of a surface that Directional etches.
const minDirectionalNormal = 0.4

// Directional etches like SelectiveEtching but only surfaces facing up
// along Axis, at the selective rate scaled by the normal component.
type Directional struct {
	SelectiveEtching
	Axis int
}

// ScalarVelocity returns the etch velocity for the material and normal.
func (d *Directional) ScalarVelocity(coord cellset.Node, material int, normal cellset.Node, pointID int) float64 {
	n := normal[d.Axis]
	if n <= minDirectionalNormal {
		return 0
	}
	return n * d.SelectiveEtching.ScalarVelocity(coord, material, normal, pointID)
}

// indexedPoint is a surface point stored in the spatial index.
type indexedPoint struct {
	geom.Point
	i int
}

// Redeposition moves the surface with velocities given at a set of
// surface points. Every location gets the velocity of the nearest point.
type Redeposition struct {
	velocities []float64
	index      *rtree.Rtree
}

// NewRedeposition returns a velocity field from velocities at points.
// Only two-dimensional domains are supported.
func NewRedeposition(dim int, points []cellset.Node, velocities []float64) (*Redeposition, error) {
	if dim != 2 {
		return nil, fmt.Errorf("etch: redeposition is only implemented in 2 dimensions, not %d", dim)
	}
	if len(points) != len(velocities) {
		return nil, fmt.Errorf("etch: %d points but %d velocities", len(points), len(velocities))
	}
	r := &Redeposition{velocities: velocities, index: rtree.NewTree(25, 50)}
	for i, p := range points {
		r.index.Insert(&indexedPoint{Point: geom.Point{X: p[0], Y: p[1]}, i: i})
	}
	return r, nil
}

// ScalarVelocity returns the velocity of the surface point nearest to
// coord, or zero if there are no points.
func (r *Redeposition) ScalarVelocity(coord cellset.Node, _ int, _ cellset.Node, _ int) float64 {
	if len(r.velocities) == 0 {
		return 0
	}
	nn := r.index.NearestNeighbor(geom.Point{X: coord[0], Y: coord[1]})
	return r.velocities[nn.(*indexedPoint).i]
}
