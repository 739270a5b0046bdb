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

// Material is a physical material that a cell can be made of.
type Material int

// Materials known to the process models.
const (
	Undefined Material = iota - 1
	Mask
	Si
	SiO2
	Si3N4
	Polymer
	Gas
)

func (m Material) String() string {
	switch m {
	case Mask:
		return "Mask"
	case Si:
		return "Si"
	case SiO2:
		return "SiO2"
	case Si3N4:
		return "Si3N4"
	case Polymer:
		return "Polymer"
	case Gas:
		return "GAS"
	default:
		return "Undefined"
	}
}

// MaterialMap gives the Material of each level set in a stack, in stack
// order. Material ids at or beyond the length of the map belong to the
// probing region above the surface and map to Gas.
type MaterialMap []Material

// Map returns the Material for material id id.
func (m MaterialMap) Map(id int) Material {
	if id < 0 {
		return Undefined
	}
	if id >= len(m) {
		return Gas
	}
	return m[id]
}

// Is returns whether material id id maps to material mat.
func (m MaterialMap) Is(id int, mat Material) bool { return m.Map(id) == mat }
