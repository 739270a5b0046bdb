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
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/spatialmodel/cellset"
	"github.com/spatialmodel/cellset/levelset"
)

type staticSampler struct {
	points []cellset.Node
	mats   []int
	err    error
}

func (s *staticSampler) SurfacePoints() ([]cellset.Node, []int, error) {
	return s.points, s.mats, s.err
}

type recorder struct {
	points []cellset.Node
	rates  []float64
	time   float64
	calls  int
}

func (r *recorder) Redeposit(points []cellset.Node, rates []float64, time float64) error {
	r.points, r.rates, r.time = points, rates, time
	r.calls++
	return nil
}

func different(a, b, tolerance float64) bool {
	return math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b)
}

// planes returns a cell set above horizontal planes at the given heights,
// lowest first, on a 2-D unit grid with nx × ny voxels below the top.
func planes(t *testing.T, nx, ny int, depth float64, heights ...float64) *cellset.CellSet {
	b := levelset.Bounds{Dim: 2, GridDelta: 1, Max: [3]int{nx, ny}}
	var stack []cellset.Surface
	for _, h := range heights {
		g, err := levelset.NewPlane(b, h)
		if err != nil {
			t.Fatal(err)
		}
		stack = append(stack, g)
	}
	cs, err := cellset.New(cellset.Env{Procs: 2}, stack, depth, true)
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func TestDiffusionColumn(t *testing.T) {
	cs := planes(t, 1, 10, 1, 0)
	if cs.NumCells() != 10 {
		t.Fatalf("cells: have %d, want 10", cs.NumCells())
	}
	cs.SetFillingFraction(0, 1)
	cfg := Config{
		DiffusionCoefficient: 1,
		Top:                  100,
		RedepositionInterval: 1e9,
		Materials:            cellset.MaterialMap{cellset.SiO2},
	}
	d, err := New(cellset.Env{Procs: 2}, cfg, cs, &staticSampler{}, &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := d.PreStep(0); !ok || err != nil {
		t.Fatalf("PreStep: %v, %v", ok, err)
	}
	if ok, err := d.PostStep(1000); !ok || err != nil {
		t.Fatalf("PostStep: %v, %v", ok, err)
	}
	total := 0.
	sum := cs.ScalarData(SumField)
	for i, v := range cs.FillingFractions() {
		if different(v, 0.1, 1e-6) {
			t.Errorf("cell %d: have %g, want 0.1", i, v)
		}
		if different(sum[i], v*1000, 1e-9) {
			t.Errorf("cell %d sum: have %g, want %g", i, sum[i], v*1000)
		}
		total += v
	}
	if different(total, 1, 1e-12) {
		t.Errorf("mass: have %g, want 1", total)
	}
	if d.State() != PostStepDone {
		t.Errorf("state: have %v, want %v", d.State(), PostStepDone)
	}
}

func TestDiffusionNonNegative(t *testing.T) {
	cs := planes(t, 2, 1, 1, 0)
	if cs.NumCells() != 2 {
		t.Fatalf("cells: have %d, want 2", cs.NumCells())
	}
	cs.SetFillingFraction(0, 1)
	cfg := Config{
		ScallopVelocity:      0.5,
		Top:                  100,
		RedepositionInterval: 1,
		Materials:            cellset.MaterialMap{cellset.SiO2},
	}
	d, err := New(cellset.Env{}, cfg, cs, &staticSampler{}, &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	d.PreStep(0)
	if _, err := d.PostStep(1); err != nil {
		t.Fatal(err)
	}
	ff := cs.FillingFractions()
	if ff[0] != 1 || ff[1] != 0 {
		t.Errorf("have %v, want [1 0]", ff)
	}
}

func TestSinkAndHole(t *testing.T) {
	// Cells at y < 4 are inside the hole, cells above are at the top.
	cs := planes(t, 1, 10, 1, 0)
	ff := cs.FillingFractions()
	for i := range ff {
		ff[i] = float64(i + 1)
	}
	ff[9] = 0.1
	cfg := Config{
		Sink:                 0.3,
		HoleVelocity:         0.5,
		Top:                  5,
		HoleRadius:           1,
		RedepositionInterval: 1e9,
		Materials:            cellset.MaterialMap{cellset.SiO2},
	}
	d, err := New(cellset.Env{Procs: 2}, cfg, cs, &staticSampler{}, &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.PreStep(0); err != nil {
		t.Fatal(err)
	}
	if _, err := d.PostStep(2); err != nil {
		t.Fatal(err)
	}
	want := []float64{1.315, 2.315, 3.315, 4.4275, 4.4, 5.4, 6.4, 7.4, 8.4, 0}
	sum := cs.ScalarData(SumField)
	for i, w := range want {
		if different(ff[i], w, 1e-12) {
			t.Errorf("cell %d: have %g, want %g", i, ff[i], w)
		}
		if different(sum[i], 2*w, 1e-12) {
			t.Errorf("cell %d sum: have %g, want %g", i, sum[i], 2*w)
		}
	}
}

func TestDiffusionRandomNonNegative(t *testing.T) {
	b := levelset.Bounds{Dim: 2, GridDelta: 1, Min: [3]int{-3, 0}, Max: [3]int{3, 6}}
	g, err := levelset.NewPlane(b, 0)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(1))
	for test := 0; test < 20; test++ {
		cs, err := cellset.New(cellset.Env{Procs: 2}, []cellset.Surface{g}, 1, true)
		if err != nil {
			t.Fatal(err)
		}
		ff := cs.FillingFractions()
		for i := range ff {
			ff[i] = r.Float64()
		}
		cfg := Config{
			DiffusionCoefficient: r.Float64() * 2,
			Sink:                 r.Float64(),
			ScallopVelocity:      r.Float64() * 4,
			HoleVelocity:         r.Float64() * 4,
			Top:                  4,
			HoleRadius:           1,
			RedepositionInterval: 1e9,
			Materials:            cellset.MaterialMap{cellset.SiO2},
		}
		d, err := New(cellset.Env{Procs: 2}, cfg, cs, &staticSampler{}, &recorder{})
		if err != nil {
			t.Fatal(err)
		}
		elapsed := 0.
		for step := 0; step < 1+test%4; step++ {
			if _, err := d.PreStep(elapsed); err != nil {
				t.Fatal(err)
			}
			dt := 0.5 + r.Float64()*3
			if _, err := d.PostStep(dt); err != nil {
				t.Fatal(err)
			}
			elapsed += dt
			for i, v := range cs.FillingFractions() {
				if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("test %d step %d cell %d: %g", test, step, i, v)
				}
			}
		}
	}
}

func redepositionSetup(t *testing.T, threshold float64) (*cellset.CellSet, *Dynamics, *recorder) {
	// Si3N4 below y=1, SiO2 below y=2, gas from y=2 to y=7.
	cs := planes(t, 4, 6, 2, 1, 2)
	if cs.NumCells() != 28 {
		t.Fatalf("cells: have %d, want 28", cs.NumCells())
	}
	cfg := Config{
		Top:                   5,
		RedepositionFactor:    3,
		RedepositionThreshold: threshold,
		RedepositionInterval:  5,
		Materials:             cellset.MaterialMap{cellset.Si3N4, cellset.SiO2},
	}
	sampler := &staticSampler{
		points: []cellset.Node{{1, 2}, {3, 1}, {2, 6.5}},
		mats:   []int{1, 0, 1},
	}
	r := new(recorder)
	d, err := New(cellset.Env{Procs: 3}, cfg, cs, sampler, r)
	if err != nil {
		t.Fatal(err)
	}
	sum := cs.ScalarData(SumField)
	for i := range sum {
		if cfg.Materials.Is(cs.Material(i), cellset.Gas) {
			sum[i] = 1
		}
	}
	sum[cs.Index(cellset.Node{1, 2})] = 7
	return cs, d, r
}

func TestRedeposition(t *testing.T) {
	_, d, r := redepositionSetup(t, 0.1)
	if ok, err := d.PreStep(10); !ok || err != nil {
		t.Fatalf("PreStep: %v, %v", ok, err)
	}
	if r.calls != 1 {
		t.Fatalf("redeposit calls: have %d, want 1", r.calls)
	}
	if r.time != 10 {
		t.Errorf("time: have %g, want 10", r.time)
	}
	want := []float64{0.6, 0, 0}
	for i, w := range want {
		if different(r.rates[i], w, 1e-12) {
			t.Errorf("rate %d: have %g, want %g", i, r.rates[i], w)
		}
	}
	if len(d.EtchPoints()) != 1 || d.EtchPoints()[0] != (cellset.Node{3, 1}) {
		t.Errorf("etch points: %v", d.EtchPoints())
	}
	if _, err := d.PostStep(0); err != nil {
		t.Fatal(err)
	}
	// The next interval ends at 10.
	if _, err := d.PreStep(8.5); err != nil {
		t.Fatal(err)
	}
	if r.calls != 1 {
		t.Errorf("redeposit calls: have %d, want 1", r.calls)
	}
}

func TestRedepositionThreshold(t *testing.T) {
	_, d, r := redepositionSetup(t, 0.5)
	if _, err := d.PreStep(10); err != nil {
		t.Fatal(err)
	}
	for i, v := range r.rates {
		if v != 0 {
			t.Errorf("rate %d: have %g, want 0", i, v)
		}
	}
}

func TestInjection(t *testing.T) {
	cs := planes(t, 4, 6, 2, 1, 2)
	cfg := Config{
		EtchRate:             0.5,
		Top:                  5,
		RedepositionInterval: 100,
		Materials:            cellset.MaterialMap{cellset.Si3N4, cellset.SiO2},
	}
	sampler := &staticSampler{
		points: []cellset.Node{{3, 2}, {3, 1}, {10, 10}},
		mats:   []int{0, 0, 0},
	}
	d, err := New(cellset.Env{}, cfg, cs, sampler, &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.PreStep(0); err != nil {
		t.Fatal(err)
	}
	if _, err := d.PostStep(2); err != nil {
		t.Fatal(err)
	}
	ff := cs.FillingFractions()
	sum := cs.ScalarData(SumField)
	for _, p := range []cellset.Node{{3, 2}, {2, 2}} {
		i := cs.Index(p)
		if different(ff[i], 1, 1e-12) {
			t.Errorf("%v: have %g, want 1", p, ff[i])
		}
		if different(sum[i], 2, 1e-12) {
			t.Errorf("%v sum: have %g, want 2", p, sum[i])
		}
	}
	total := 0.
	for _, v := range ff {
		total += v
	}
	if different(total, 2, 1e-12) {
		t.Errorf("total: have %g, want 2", total)
	}
}

func TestStepOrder(t *testing.T) {
	cs := planes(t, 2, 2, 1, 0)
	cfg := Config{Top: 1, RedepositionInterval: 1, Materials: cellset.MaterialMap{cellset.SiO2}}
	sampler := &staticSampler{}
	d, err := New(cellset.Env{}, cfg, cs, sampler, &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.PostStep(1); !errors.Is(err, ErrStepOrder) {
		t.Errorf("PostStep first: have %v, want %v", err, ErrStepOrder)
	}
	if _, err := d.PreStep(0); err != nil {
		t.Fatal(err)
	}
	if _, err := d.PreStep(0); !errors.Is(err, ErrStepOrder) {
		t.Errorf("PreStep twice: have %v, want %v", err, ErrStepOrder)
	}
	d.Stop()
	if ok, err := d.PostStep(1); ok || err != nil {
		t.Errorf("PostStep after Stop: have %v, %v; want false, <nil>", ok, err)
	}
	if ok, err := d.PreStep(1); ok || err != nil {
		t.Errorf("PreStep after Stop: have %v, %v; want false, <nil>", ok, err)
	}
	if d.State() != Stopped {
		t.Errorf("state: have %v, want %v", d.State(), Stopped)
	}

	d2, err := New(cellset.Env{}, cfg, cs, &staticSampler{err: errors.New("broken")}, &recorder{})
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := d2.PreStep(0); ok || err == nil {
		t.Errorf("sampler error: have %v, %v", ok, err)
	}
	if d2.State() != Stopped {
		t.Errorf("state: have %v, want %v", d2.State(), Stopped)
	}
}

func TestConfigValidate(t *testing.T) {
	for _, c := range []Config{
		{DiffusionCoefficient: -1, Top: 1, RedepositionInterval: 1},
		{Sink: -1, Top: 1, RedepositionInterval: 1},
		{Top: 1},
		{RedepositionInterval: 1},
	} {
		if err := c.Validate(); err == nil {
			t.Errorf("%+v: expected an error", c)
		}
	}
}
