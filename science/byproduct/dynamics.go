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

// Package byproduct models the byproducts of a selective etching process.
// Byproducts are released where the surface is etched, are transported by
// diffusion and convection through the gas cells of a cell set, and are
// redeposited on the surface where their time-integrated concentration is
// high enough.
package byproduct

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cellset"
)

// SumField is the name of the cell set field holding the time-integrated
// byproduct concentration.
const SumField = "byproductSum"

// ErrStepOrder is returned when the step hooks are called out of order.
var ErrStepOrder = errors.New("byproduct: step hooks called out of order")

// State is the position of Dynamics in the step protocol.
type State int

// States of the step protocol. Each advection increment moves from
// PreStepDone to PostStepDone. Stopped is final.
const (
	Idle State = iota
	PreStepDone
	PostStepDone
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case PreStepDone:
		return "PreStepDone"
	case PostStepDone:
		return "PostStepDone"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SurfaceSampler returns the current surface sample points and the
// material id (level set index) at each of them.
type SurfaceSampler interface {
	SurfacePoints() (points []cellset.Node, materials []int, err error)
}

// Redepositor moves the surface so that material grows at each point at
// the given rate for the given time.
type Redepositor interface {
	Redeposit(points []cellset.Node, rates []float64, time float64) error
}

// Config holds the model parameters.
type Config struct {
	// DiffusionCoefficient is the byproduct diffusion coefficient.
	DiffusionCoefficient float64

	// Sink is the amount removed per substep from cells within one grid
	// spacing of Top.
	Sink float64

	// ScallopVelocity is the lateral convection velocity outside of the
	// hole and HoleVelocity the vertical velocity inside of it.
	ScallopVelocity, HoleVelocity float64

	// Top is the height of the top of the stack and HoleRadius the
	// half width of the central hole.
	Top, HoleRadius float64

	// EtchRate is the rate at which byproducts are released at etched
	// Si3N4 surfaces.
	EtchRate float64

	// RedepositionFactor scales the time-averaged concentration next to
	// the surface into a growth rate. Averages below
	// RedepositionThreshold do not cause growth. Redeposition happens
	// every RedepositionInterval of process time.
	RedepositionFactor, RedepositionThreshold, RedepositionInterval float64

	// Materials maps level set and cell material ids to materials.
	Materials cellset.MaterialMap
}

// Validate returns an error if the parameters are not usable.
func (c *Config) Validate() error {
	if c.DiffusionCoefficient < 0 {
		return fmt.Errorf("byproduct: negative diffusion coefficient %g", c.DiffusionCoefficient)
	}
	if c.Sink < 0 {
		return fmt.Errorf("byproduct: negative sink %g", c.Sink)
	}
	if c.RedepositionInterval <= 0 {
		return fmt.Errorf("byproduct: redeposition interval must be positive, not %g", c.RedepositionInterval)
	}
	if c.Top <= 0 {
		return fmt.Errorf("byproduct: top height must be positive, not %g", c.Top)
	}
	return nil
}

// Dynamics couples the byproduct transport to the advection of the
// surface through two hooks that are called around every advection step:
// PreStep before the surface is moved and PostStep after.
type Dynamics struct {
	cellset.Env

	cfg         Config
	cs          *cellset.CellSet
	sampler     SurfaceSampler
	redepositor Redepositor

	etchPoints   []cellset.Node
	prevProcTime float64
	counter      int
	state        State
}

// New returns a new byproduct model working on cs. The neighborhood of cs
// is built if it is not available yet.
func New(env cellset.Env, cfg Config, cs *cellset.CellSet, sampler SurfaceSampler, redepositor Redepositor) (*Dynamics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cs.ScalarData(SumField) == nil {
		if err := cs.AddScalarData(SumField, 0); err != nil {
			return nil, err
		}
	}
	if !cs.HasNeighborhood() {
		cs.BuildNeighborhood()
	}
	return &Dynamics{
		Env:         env,
		cfg:         cfg,
		cs:          cs,
		sampler:     sampler,
		redepositor: redepositor,
	}, nil
}

// State returns the current position in the step protocol.
func (d *Dynamics) State() State { return d.state }

// Stop ends the step protocol. Subsequent hook calls return false with
// no error.
func (d *Dynamics) Stop() { d.state = Stopped }

// EtchPoints returns the surface points recorded by the last PreStep.
func (d *Dynamics) EtchPoints() []cellset.Node { return d.etchPoints }

// fail moves to the final state and returns err.
func (d *Dynamics) fail(err error) (bool, error) {
	d.state = Stopped
	return false, err
}

// PreStep records the surface points where Si3N4 is being etched and, at
// every redeposition interval, grows the surface where the byproduct
// concentration is high. processTime is the total process time so far.
// It returns false if the process should stop.
func (d *Dynamics) PreStep(processTime float64) (bool, error) {
	if d.state == Stopped {
		return false, nil
	}
	if d.state != Idle && d.state != PostStepDone {
		return false, fmt.Errorf("%w: PreStep in state %v", ErrStepOrder, d.state)
	}
	points, mats, err := d.sampler.SurfacePoints()
	if err != nil {
		return d.fail(fmt.Errorf("byproduct: sampling surface: %v", err))
	}
	if len(points) != len(mats) {
		return d.fail(fmt.Errorf("byproduct: %d surface points but %d materials", len(points), len(mats)))
	}

	d.etchPoints = d.etchPoints[:0]
	for i, p := range points {
		if d.cfg.Materials.Is(mats[i], cellset.Si3N4) {
			d.etchPoints = append(d.etchPoints, p)
		}
	}

	if processTime > 0 && processTime-d.cfg.RedepositionInterval*float64(d.counter+1) > -1 {
		rates := d.redepositionRates(points, mats, processTime)
		if err := d.redepositor.Redeposit(points, rates, processTime-d.prevProcTime); err != nil {
			return d.fail(fmt.Errorf("byproduct: redepositing: %v", err))
		}
		d.Logger().WithFields(logrus.Fields{
			"processTime": processTime,
			"interval":    d.counter + 1,
		}).Info("byproduct: redeposited oxide")
		redepositions.Inc()
		d.prevProcTime = processTime
		d.counter++
	}

	d.state = PreStepDone
	return true, nil
}

// isGas returns whether cell i is part of the gas phase.
func (d *Dynamics) isGas(i int) bool {
	return d.cfg.Materials.Is(d.cs.Material(i), cellset.Gas)
}

// redepositionRates returns the growth rate at each surface point. Only
// SiO2 and Polymer surfaces below the top of the stack receive material.
// The rate is the time-averaged byproduct concentration in the cell at
// the point and its gas neighbors.
func (d *Dynamics) redepositionRates(points []cellset.Node, mats []int, processTime float64) []float64 {
	sum := d.cs.ScalarData(SumField)
	v := d.cs.Dim() - 1
	rates := make([]float64, len(points))
	for i, p := range points {
		m := d.cfg.Materials.Map(mats[i])
		if (m != cellset.SiO2 && m != cellset.Polymer) || p[v] >= d.cfg.Top {
			continue
		}
		cell := d.cs.Index(p)
		if cell == cellset.NotFound {
			continue
		}
		n := 0
		if d.isGas(cell) {
			rates[i] = sum[cell]
			n++
		}
		for _, nb := range d.cs.Neighbors(cell) {
			if d.isGas(nb) {
				rates[i] += sum[nb]
				n++
			}
		}
		if n > 1 {
			rates[i] /= float64(n)
		}
		rates[i] /= processTime
		if rates[i] < d.cfg.RedepositionThreshold {
			rates[i] = 0
		}
		rates[i] *= d.cfg.RedepositionFactor
	}
	return rates
}

// PostStep updates the cell materials after the surface has moved,
// releases byproducts at the points recorded by PreStep and transports
// them for advectedTime. It returns false if the process should stop.
func (d *Dynamics) PostStep(advectedTime float64) (bool, error) {
	if d.state == Stopped {
		return false, nil
	}
	if d.state != PreStepDone {
		return false, fmt.Errorf("%w: PostStep in state %v", ErrStepOrder, d.state)
	}
	if err := d.cs.UpdateMaterials(); err != nil && err != cellset.ErrTopologyMismatch {
		return d.fail(err)
	}
	d.inject(d.cfg.EtchRate * advectedTime / d.cs.GridDelta())
	d.diffuse(advectedTime)
	d.state = PostStepDone
	return true, nil
}

// inject adds amount at every recorded etch point. The mass goes to the
// cell at the point if it is a gas cell, and otherwise to its first gas
// neighbor.
func (d *Dynamics) inject(amount float64) {
	if amount == 0 {
		return
	}
	dropped := 0
	for _, p := range d.etchPoints {
		target := cellset.NotFound
		if cell := d.cs.Index(p); cell != cellset.NotFound {
			if d.isGas(cell) {
				target = cell
			} else {
				for _, nb := range d.cs.Neighbors(cell) {
					if d.isGas(nb) {
						target = nb
						break
					}
				}
			}
		}
		if target == cellset.NotFound {
			dropped++
			continue
		}
		d.cs.AddFillingFraction(target, amount)
		injectedMass.Add(amount)
	}
	if dropped > 0 {
		droppedInjections.Add(float64(dropped))
		d.Logger().WithField("points", dropped).Debug("byproduct: no gas cell at etched points")
	}
}
