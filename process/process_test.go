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

package process

import (
	"context"
	"math"
	"testing"

	"github.com/spatialmodel/cellset"
	"github.com/spatialmodel/cellset/levelset"
	"github.com/spatialmodel/cellset/science/etch"
)

type stepRecorder struct {
	pre, post []float64
	stopAt    int // stop at this PreStep call if > 0
}

func (r *stepRecorder) PreStep(t float64) (bool, error) {
	r.pre = append(r.pre, t)
	return r.stopAt == 0 || len(r.pre) < r.stopAt, nil
}

func (r *stepRecorder) PostStep(t float64) (bool, error) {
	r.post = append(r.post, t)
	return true, nil
}

func different(a, b, tolerance float64) bool {
	return math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b)
}

func equalSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if different(a[i], b[i], 1e-12) {
			return false
		}
	}
	return true
}

// planeDomain returns a domain with one Si3N4 layer below y=2 on a 2-D
// unit grid spanning [0,4] × [0,6].
func planeDomain(t *testing.T) *Domain {
	b := levelset.Bounds{
		Dim:       2,
		GridDelta: 1,
		Max:       [3]int{4, 6},
		Boundary:  [3]cellset.BoundaryCondition{cellset.Reflective, cellset.Infinite},
	}
	g, err := levelset.NewPlane(b, 2)
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDomain(cellset.Env{Procs: 2}, []*levelset.Grid{g}, cellset.MaterialMap{cellset.Si3N4})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNewDomainErrors(t *testing.T) {
	if _, err := NewDomain(cellset.Env{}, nil, nil); err != cellset.ErrEmptyStack {
		t.Errorf("empty: have %v, want %v", err, cellset.ErrEmptyStack)
	}
	d := planeDomain(t)
	if _, err := NewDomain(cellset.Env{}, d.LevelSets, nil); err == nil {
		t.Error("expected a material count error")
	}
}

func TestDuplicateTopLevelSet(t *testing.T) {
	d := planeDomain(t)
	d.DuplicateTopLevelSet(cellset.Polymer)
	if len(d.LevelSets) != 2 || len(d.Materials) != 2 {
		t.Fatalf("have %d level sets and %d materials", len(d.LevelSets), len(d.Materials))
	}
	if d.Materials[1] != cellset.Polymer {
		t.Errorf("material: have %v, want %v", d.Materials[1], cellset.Polymer)
	}
	d.Top().Data()[0] = 100
	if d.LevelSets[0].Data()[0] == 100 {
		t.Error("duplicate shares data with the original")
	}
}

func TestApply(t *testing.T) {
	d := planeDomain(t)
	if err := d.GenerateCellSet(2, true); err != nil {
		t.Fatal(err)
	}
	r := new(stepRecorder)
	var outputs []float64
	p := &Process{
		Domain:        d,
		Velocity:      &etch.SelectiveEtching{Rate: 1, Materials: d.Materials},
		Callback:      r,
		Duration:      1,
		PrintInterval: 0.5,
		Output: func(t float64) error {
			outputs = append(outputs, t)
			return nil
		},
	}
	elapsed, err := p.Apply(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if different(elapsed, 1, 1e-12) {
		t.Errorf("elapsed: have %g, want 1", elapsed)
	}
	if want := []float64{0, 0.45, 0.9}; !equalSlices(r.pre, want) {
		t.Errorf("pre steps: have %v, want %v", r.pre, want)
	}
	if want := []float64{0.45, 0.45, 0.1}; !equalSlices(r.post, want) {
		t.Errorf("post steps: have %v, want %v", r.post, want)
	}
	if want := []float64{0.9, 1}; !equalSlices(outputs, want) {
		t.Errorf("outputs: have %v, want %v", outputs, want)
	}
	if v := d.Top().Value(cellset.Node{0.5, 1}); different(v, 0, 1e-9) {
		t.Errorf("surface position: value %g at y=1", v)
	}
	// The cell at y = 1.5 is now gas.
	if m := d.Materials.Map(d.CellSet.Material(d.CellSet.Index(cellset.Node{0.5, 1.5}))); m != cellset.Gas {
		t.Errorf("material: have %v, want %v", m, cellset.Gas)
	}
}

func TestApplyStop(t *testing.T) {
	d := planeDomain(t)
	r := &stepRecorder{stopAt: 2}
	p := &Process{
		Domain:   d,
		Velocity: &etch.SelectiveEtching{Rate: 1, Materials: d.Materials},
		Callback: r,
		Duration: 1,
	}
	elapsed, err := p.Apply(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if different(elapsed, 0.45, 1e-12) {
		t.Errorf("elapsed: have %g, want 0.45", elapsed)
	}
	if len(r.post) != 1 {
		t.Errorf("post steps: have %d, want 1", len(r.post))
	}
}

func TestApplyZeroDuration(t *testing.T) {
	d := planeDomain(t)
	r := new(stepRecorder)
	var outputs []float64
	p := &Process{
		Domain:        d,
		Velocity:      &etch.SelectiveEtching{Rate: 1, Materials: d.Materials},
		Callback:      r,
		PrintInterval: 1,
		Output: func(t float64) error {
			outputs = append(outputs, t)
			return nil
		},
	}
	elapsed, err := p.Apply(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if elapsed != 0 {
		t.Errorf("elapsed: have %g, want 0", elapsed)
	}
	if !equalSlices(r.pre, []float64{0}) {
		t.Errorf("pre steps: have %v, want [0]", r.pre)
	}
	if len(r.post) != 0 || len(outputs) != 0 {
		t.Errorf("post steps %v and outputs %v should be empty", r.post, outputs)
	}
	if v := d.Top().Value(cellset.Node{0.5, 2}); different(v, 0, 1e-9) {
		t.Errorf("surface moved: value %g at y=2", v)
	}
}

func TestApplyCanceled(t *testing.T) {
	d := planeDomain(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Process{Domain: d, Velocity: etch.Zero{}, Duration: 1}
	if _, err := p.Apply(ctx); err != context.Canceled {
		t.Errorf("have %v, want %v", err, context.Canceled)
	}
}

func TestRedeposit(t *testing.T) {
	d := planeDomain(t)
	points, mats, err := d.SurfacePoints()
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 5 {
		t.Fatalf("surface points: have %d, want 5", len(points))
	}
	rates := make([]float64, len(points))
	for i, m := range mats {
		if m != 0 {
			t.Errorf("point %d material: have %d, want 0", i, m)
		}
		rates[i] = 1
	}
	if err := d.Redeposit(points, rates, 1); err != nil {
		t.Fatal(err)
	}
	if v := d.Top().Value(cellset.Node{2, 3}); different(v, 0, 1e-9) {
		t.Errorf("surface position: value %g at y=3", v)
	}
}
