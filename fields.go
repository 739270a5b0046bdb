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

import (
	"fmt"
	"sort"
)

// Names of the fields every cell set has.
const (
	MaterialField        = "Material"
	FillingFractionField = "fillingFraction"
)

// Fields holds named dense arrays with one value per cell. All arrays
// always have the same length.
type Fields struct {
	n     int
	names []string
	data  map[string][]float64
}

func newFields(n int) *Fields {
	return &Fields{n: n, data: make(map[string][]float64)}
}

// Len returns the number of cells each array holds.
func (f *Fields) Len() int { return f.n }

// Names returns the field names in the order they were added.
func (f *Fields) Names() []string {
	o := make([]string, len(f.names))
	copy(o, f.names)
	return o
}

// SortedNames returns the field names in alphabetical order.
func (f *Fields) SortedNames() []string {
	o := f.Names()
	sort.Strings(o)
	return o
}

// Get returns the array for the named field, or nil if there is no such
// field. The returned slice aliases the stored data.
func (f *Fields) Get(name string) []float64 { return f.data[name] }

// Add creates a new field with every value set to init.
func (f *Fields) Add(name string, init float64) error {
	if _, ok := f.data[name]; ok {
		return fmt.Errorf("cellset: field %q already exists", name)
	}
	d := make([]float64, f.n)
	if init != 0 {
		for i := range d {
			d[i] = init
		}
	}
	f.names = append(f.names, name)
	f.data[name] = d
	return nil
}

// Set replaces the named field, adding it if necessary. The length of
// vals must equal the number of cells.
func (f *Fields) Set(name string, vals []float64) error {
	if len(vals) != f.n {
		return fmt.Errorf("cellset: field %q has %d values but there are %d cells", name, len(vals), f.n)
	}
	if _, ok := f.data[name]; !ok {
		f.names = append(f.names, name)
	}
	f.data[name] = vals
	return nil
}

// keep removes from every field the values at indices where keep is false,
// preserving the order of the remaining values.
func (f *Fields) keep(keep []bool) {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	for _, name := range f.names {
		d := f.data[name]
		j := 0
		for i, v := range d {
			if keep[i] {
				d[j] = v
				j++
			}
		}
		f.data[name] = d[:n]
	}
	f.n = n
}

// check verifies that every array has the expected length.
func (f *Fields) check() error {
	for _, name := range f.names {
		if len(f.data[name]) != f.n {
			return fmt.Errorf("cellset: field %q has %d values but there are %d cells",
				name, len(f.data[name]), f.n)
		}
	}
	return nil
}
