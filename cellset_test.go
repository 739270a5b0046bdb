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
	"errors"
	"math"
	"reflect"
	"testing"
)

// halfSpace is a surface where everything with a vertical coordinate at
// or below top is inside.
type halfSpace struct {
	dim    int
	gd     float64
	lo, hi [3]int
	top    float64
}

func (h *halfSpace) GridDelta() float64                  { return h.gd }
func (h *halfSpace) Dim() int                            { return h.dim }
func (h *halfSpace) IndexBounds(axis int) (int, int)     { return h.lo[axis], h.hi[axis] }
func (h *halfSpace) Boundary(axis int) BoundaryCondition { return Reflective }
func (h *halfSpace) Value(p Node) float64                { return p[h.dim-1] - h.top }
func (h *halfSpace) Clone() Surface {
	o := *h
	return &o
}

// testStack returns a two-layer 2-D stack on a 4 × 4 grid with unit
// spacing: layer 0 is y ≤ 2 and layer 1 is y ≤ 4.
func testStack() []Surface {
	return []Surface{
		&halfSpace{dim: 2, gd: 1, hi: [3]int{4, 4}, top: 2},
		&halfSpace{dim: 2, gd: 1, hi: [3]int{4, 4}, top: 4},
	}
}

func testCellSet(t *testing.T, stack []Surface, above bool) *CellSet {
	cs, err := New(Env{Procs: 2}, stack, 2, above)
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func countMaterials(cs *CellSet) map[int]int {
	o := make(map[int]int)
	for _, m := range cs.Materials() {
		o[int(m)]++
	}
	return o
}

func TestNewBelow(t *testing.T) {
	cs := testCellSet(t, testStack(), false)
	if cs.NumCells() != 24 {
		t.Fatalf("cells: have %d, want 24", cs.NumCells())
	}
	want := map[int]int{0: 16, 1: 8}
	if have := countMaterials(cs); !reflect.DeepEqual(have, want) {
		t.Errorf("materials: have %v, want %v", have, want)
	}
	if err := cs.CheckFields(); err != nil {
		t.Error(err)
	}
	if len(cs.Nodes()) != 5*7 {
		t.Errorf("nodes: have %d, want 35", len(cs.Nodes()))
	}
	ff := cs.FillingFractions()
	for i, v := range ff {
		if v != 0 {
			t.Errorf("filling fraction %d: have %g, want 0", i, v)
		}
	}
}

func TestNewBelowNoPlane(t *testing.T) {
	cs, err := New(Env{}, testStack(), 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if cs.NumCells() != 16 {
		t.Fatalf("cells: have %d, want 16", cs.NumCells())
	}
	want := map[int]int{0: 8, 1: 8}
	if have := countMaterials(cs); !reflect.DeepEqual(have, want) {
		t.Errorf("materials: have %v, want %v", have, want)
	}
	if m := cs.Material(cs.Index(Node{0.5, 3.5})); m != 1 {
		t.Errorf("upper layer: have %d, want 1", m)
	}
}

func TestNewAbove(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	if cs.NumCells() != 20 {
		t.Fatalf("cells: have %d, want 20", cs.NumCells())
	}
	want := map[int]int{0: 8, 1: 8, 2: 4}
	if have := countMaterials(cs); !reflect.DeepEqual(have, want) {
		t.Errorf("materials: have %v, want %v", have, want)
	}
	mm := MaterialMap{SiO2, Si3N4}
	if m := mm.Map(cs.Material(cs.Index(Node{0.5, 4.5}))); m != Gas {
		t.Errorf("top cell material: have %v, want %v", m, Gas)
	}
	b := cs.BoundingBox()
	if different(b.Max[1], 5+boxPadding, 1e-12) || different(b.Min[0], -boxPadding, 1e-12) {
		t.Errorf("bounding box: %+v", b)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(Env{}, nil, 1, true); err != ErrEmptyStack {
		t.Errorf("empty stack: have %v, want %v", err, ErrEmptyStack)
	}
	stack := testStack()
	stack[0].(*halfSpace).gd = 0.5
	if _, err := New(Env{}, stack, 1, true); !errors.Is(err, ErrGridDelta) {
		t.Errorf("grid delta: have %v, want %v", err, ErrGridDelta)
	}
}

func TestDeterminism(t *testing.T) {
	a := testCellSet(t, testStack(), false)
	b := testCellSet(t, testStack(), false)
	if !reflect.DeepEqual(a.Nodes(), b.Nodes()) {
		t.Error("nodes differ")
	}
	if !reflect.DeepEqual(a.Elements(), b.Elements()) {
		t.Error("elements differ")
	}
	if !reflect.DeepEqual(a.Materials(), b.Materials()) {
		t.Error("materials differ")
	}
}

func TestBVHLayers(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	if cs.bvh.layers != 2 {
		t.Errorf("layers: have %d, want 2", cs.bvh.layers)
	}
}

func TestIndex(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	for i := 0; i < cs.NumCells(); i++ {
		c := cs.Center(i)
		if have := cs.Index(c); have != i {
			t.Errorf("cell %d: Index(%v) = %d", i, c, have)
		}
	}
	// Lower faces belong to the cell, upper faces do not.
	i := cs.Index(Node{1, 1})
	min := cs.Nodes()[cs.Elements()[i][0]]
	if min != (Node{1, 1}) {
		t.Errorf("cell min corner: have %v, want [1 1 0]", min)
	}
	for _, p := range []Node{{10, 10}, {-1, 2}, {2, -0.5}} {
		if have := cs.Index(p); have != NotFound {
			t.Errorf("Index(%v) = %d, want NotFound", p, have)
		}
	}
}

func TestFillingFractionNotFound(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	if v := cs.FillingFraction(Node{10, 10}); v != -1 {
		t.Errorf("have %g, want -1", v)
	}
	if cs.SetFillingFractionAt(Node{10, 10}, 1) {
		t.Error("set outside the domain should fail")
	}
	if cs.AddFillingFractionAt(Node{-5, 0}, 1) {
		t.Error("add outside the domain should fail")
	}
}

func TestFillingFraction(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	p := Node{2.5, 3.5}
	if !cs.SetFillingFractionAt(p, 0.25) {
		t.Fatal("set failed")
	}
	if !cs.AddFillingFractionAt(p, 0.5) {
		t.Fatal("add failed")
	}
	if v := cs.FillingFraction(p); v != 0.75 {
		t.Errorf("have %g, want 0.75", v)
	}
	if cs.SetFillingFraction(-1, 1) || cs.AddFillingFraction(cs.NumCells(), 1) {
		t.Error("out of range index should fail")
	}
	cs.Clear()
	if v := cs.FillingFraction(p); v != 0 {
		t.Errorf("after clear: have %g, want 0", v)
	}
}

func TestAddFillingFractionInMaterial(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	p := Node{1.5, 0.5} // material 0
	if cs.AddFillingFractionInMaterial(p, 1, 1) {
		t.Error("add in wrong material should fail")
	}
	if v := cs.FillingFraction(p); v != 0 {
		t.Errorf("wrong material changed value to %g", v)
	}
	if !cs.AddFillingFractionInMaterial(p, 1, 0) {
		t.Error("add in right material failed")
	}
	if v := cs.FillingFraction(p); v != 1 {
		t.Errorf("have %g, want 1", v)
	}
	if cs.AddFillingFractionInMaterial(Node{20, 20}, 1, 0) {
		t.Error("add outside the domain should fail")
	}
}

func TestScalarData(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	if err := cs.AddScalarData("foo", 2); err != nil {
		t.Fatal(err)
	}
	if err := cs.AddScalarData("foo", 2); err == nil {
		t.Error("adding a field twice should fail")
	}
	if !cs.AddScalarAt("foo", Node{0.5, 0.5}, 1) {
		t.Error("add failed")
	}
	if v, ok := cs.ScalarAt("foo", Node{0.5, 0.5}); !ok || v != 3 {
		t.Errorf("have %g (%v), want 3", v, ok)
	}
	if _, ok := cs.ScalarAt("bar", Node{0.5, 0.5}); ok {
		t.Error("missing field should not be found")
	}
	want := []string{MaterialField, FillingFractionField, "foo"}
	if have := cs.FieldNames(); !reflect.DeepEqual(have, want) {
		t.Errorf("field names: have %v, want %v", have, want)
	}
}

func TestUpdateMaterials(t *testing.T) {
	stack := testStack()
	cs := testCellSet(t, stack, true)
	cs.BuildNeighborhood()
	if err := cs.AddScalarData("foo", 0); err != nil {
		t.Fatal(err)
	}
	foo := cs.ScalarData("foo")
	for i := range foo {
		foo[i] = float64(i)
	}
	cs.FillingFractions()[3] = 0.5

	stack[0].(*halfSpace).top = 3
	if err := cs.UpdateMaterials(); err != nil {
		t.Fatal(err)
	}
	want := map[int]int{0: 12, 1: 4, 2: 4}
	if have := countMaterials(cs); !reflect.DeepEqual(have, want) {
		t.Errorf("materials: have %v, want %v", have, want)
	}
	for i, v := range cs.ScalarData("foo") {
		if v != float64(i) {
			t.Errorf("foo[%d] changed to %g", i, v)
		}
	}
	if cs.FillingFractions()[3] != 0.5 {
		t.Error("filling fraction changed")
	}
	if !cs.HasNeighborhood() {
		t.Error("material update should keep the neighborhood")
	}
}

func TestUpdateMaterialsTopologyMismatch(t *testing.T) {
	stack := testStack()
	cs := testCellSet(t, stack, false)
	before := append([]float64{}, cs.Materials()...)
	stack[1].(*halfSpace).top = 3
	if err := cs.UpdateMaterials(); err != ErrTopologyMismatch {
		t.Fatalf("have %v, want %v", err, ErrTopologyMismatch)
	}
	if cs.NumCells() != 24 {
		t.Errorf("cells: have %d, want 24", cs.NumCells())
	}
	if !reflect.DeepEqual(before, cs.Materials()) {
		t.Error("materials changed after a rejected update")
	}
}

func TestUpdateSurface(t *testing.T) {
	stack := testStack()
	cs := testCellSet(t, stack, false)
	cs.BuildNeighborhood()
	if err := cs.AddScalarData("foo", 0); err != nil {
		t.Fatal(err)
	}
	foo := cs.ScalarData("foo")
	for i := range foo {
		foo[i] = float64(i)
	}
	stack[1].(*halfSpace).top = 3
	if err := cs.UpdateSurface(); err != nil {
		t.Fatal(err)
	}
	// The top row of 4 cells is the last 4 cells.
	if cs.NumCells() != 20 {
		t.Fatalf("cells: have %d, want 20", cs.NumCells())
	}
	if err := cs.CheckFields(); err != nil {
		t.Error(err)
	}
	for i, v := range cs.ScalarData("foo") {
		if v != float64(i) {
			t.Errorf("foo[%d]: have %g, want %d", i, v, i)
		}
	}
	if len(cs.neighborhood) != 20 {
		t.Errorf("neighborhood was not rebuilt: %d entries", len(cs.neighborhood))
	}
	if cs.Index(Node{0.5, 3.5}) != NotFound {
		t.Error("removed cell is still indexed")
	}
	if err := cs.UpdateMaterials(); err != nil {
		t.Errorf("material update after surface update: %v", err)
	}
	if cs.Surface().Value(Node{0, 3}) != 0 {
		t.Error("stored surface was not updated")
	}

	// Nothing to remove.
	if err := cs.UpdateSurface(); err != nil || cs.NumCells() != 20 {
		t.Errorf("second update: %v, %d cells", err, cs.NumCells())
	}
}

func TestUpdateSurfaceAbove(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	if err := cs.UpdateSurface(); err != ErrShrinkOnlyBelow {
		t.Errorf("have %v, want %v", err, ErrShrinkOnlyBelow)
	}
}

func TestMergePath(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	path := NewTracePath(cs.NumCells())
	path.AddPoint(3, 1)
	path.AddPoint(3, 2)
	path.AddPoint(5, 1)
	path.AddGridData(0, 4)
	if err := cs.MergePath(path, 2); err != nil {
		t.Fatal(err)
	}
	sum := 0.
	for _, v := range cs.FillingFractions() {
		sum += v
	}
	if sum != 4 {
		t.Errorf("sum: have %g, want 4", sum)
	}
	ff := cs.FillingFractions()
	if ff[3] != 1.5 || ff[5] != 0.5 || ff[0] != 2 {
		t.Errorf("have %v", ff[:6])
	}

	path.Clear()
	if len(path.Data()) != 0 || path.GridData() != nil {
		t.Error("path not cleared")
	}
}

func TestMergePathErrors(t *testing.T) {
	cs := testCellSet(t, testStack(), true)
	path := NewTracePath(100)
	path.AddPoint(50, 1)
	if err := cs.MergePath(path, 1); err == nil {
		t.Error("out of range index should fail")
	}
	path = NewTracePath(cs.NumCells())
	path.SetGridData(make([]float64, 3))
	if err := cs.MergePath(path, 1); err == nil {
		t.Error("dense length mismatch should fail")
	}
	path = NewTracePath(cs.NumCells())
	path.AddPoint(3, 1)
	path.SetGridData(make([]float64, 3))
	if err := cs.MergePath(path, 1); err == nil {
		t.Error("sparse data with a dense length mismatch should fail")
	}
	for _, v := range cs.FillingFractions() {
		if v != 0 {
			t.Fatal("failed merge changed the filling fraction")
		}
	}
}
