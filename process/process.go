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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cellset"
	"github.com/spatialmodel/cellset/levelset"
	"github.com/spatialmodel/cellset/science/etch"
)

// Callback is run around every advection step of a Process. Returning
// false from either method ends the process.
type Callback interface {
	// PreStep is called before the surface is moved, with the process
	// time so far.
	PreStep(processTime float64) (bool, error)

	// PostStep is called after the surface has moved by advectedTime.
	PostStep(advectedTime float64) (bool, error)
}

// Process moves the top surface of Domain with Velocity for Duration.
type Process struct {
	Domain   *Domain
	Velocity etch.VelocityField

	// Callback is optional.
	Callback Callback

	Duration float64

	// Output, if not nil, is called with the process time every
	// PrintInterval and once at the end.
	PrintInterval float64
	Output        func(processTime float64) error
}

// Apply runs the process and returns the process time reached. The
// process ends early without an error if the callback asks it to. With a
// zero Duration only the callback's PreStep is run, once.
func (p *Process) Apply(ctx context.Context) (float64, error) {
	d := p.Domain
	if d == nil || p.Velocity == nil {
		return 0, fmt.Errorf("process: missing domain or velocity field")
	}
	log := d.Logger()
	if p.Duration <= 0 {
		if p.Callback == nil {
			log.Warn("process: zero duration and no callback")
			return 0, nil
		}
		_, err := p.Callback.PreStep(0)
		return 0, err
	}
	nextPrint := p.PrintInterval
	elapsed, printed := 0., -1.
	stopped := false
	for elapsed < p.Duration {
		select {
		case <-ctx.Done():
			return elapsed, ctx.Err()
		default:
		}

		if p.Callback != nil {
			ok, err := p.Callback.PreStep(elapsed)
			if err != nil {
				return elapsed, err
			}
			if !ok {
				stopped = true
				break
			}
		}

		dt, err := levelset.Advect(d.LevelSets, p.Velocity, p.Duration-elapsed, d.NumProcs())
		if err != nil {
			return elapsed, fmt.Errorf("process: advection: %v", err)
		}
		elapsed += dt

		if err := p.refresh(); err != nil {
			return elapsed, err
		}

		if p.Callback != nil {
			ok, err := p.Callback.PostStep(dt)
			if err != nil {
				return elapsed, err
			}
			if !ok {
				stopped = true
				break
			}
		}

		log.WithFields(logrus.Fields{"time": elapsed, "step": dt}).Debug("process: advected surface")
		if p.Output != nil && p.PrintInterval > 0 && elapsed >= nextPrint {
			if err := p.Output(elapsed); err != nil {
				return elapsed, err
			}
			printed = elapsed
			for nextPrint <= elapsed {
				nextPrint += p.PrintInterval
			}
		}
	}
	if stopped {
		log.WithField("time", elapsed).Info("process: stopped by callback")
	}
	if p.Output != nil && printed != elapsed {
		if err := p.Output(elapsed); err != nil {
			return elapsed, err
		}
	}
	return elapsed, nil
}

// refresh brings the cell set up to date with the moved surface.
func (p *Process) refresh() error {
	cs := p.Domain.CellSet
	if cs == nil {
		return nil
	}
	if cs.Above() {
		if err := cs.UpdateMaterials(); err != nil && err != cellset.ErrTopologyMismatch {
			return err
		}
		return nil
	}
	return cs.UpdateSurface()
}
