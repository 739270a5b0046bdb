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

package cellsetutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cellset"
	"github.com/spatialmodel/cellset/process"
	"github.com/spatialmodel/cellset/science/byproduct"
	"github.com/spatialmodel/cellset/science/etch"
	"gonum.org/v1/plot/vg"
)

// Summary describes the result of a run.
type Summary struct {
	RunID       string         `json:"runID"`
	Command     string         `json:"command"`
	Version     string         `json:"version"`
	Cells       int            `json:"cells"`
	Nodes       int            `json:"nodes"`
	Materials   map[string]int `json:"materials"`
	Fields      []string       `json:"fields"`
	ProcessTime float64        `json:"processTime"`
	Duration    float64        `json:"duration"`
	WallTime    float64        `json:"wallTimeSeconds"`
	OutputFile  string         `json:"outputFile"`
	Snapshots   []string       `json:"snapshots,omitempty"`
}

func newSummary(command string) *Summary {
	return &Summary{
		RunID:   uuid.New().String(),
		Command: command,
		Version: cellset.Version,
	}
}

// record adds the state of the cell set to the summary.
func (s *Summary) record(cs *cellset.CellSet, materials cellset.MaterialMap) {
	s.Cells = cs.NumCells()
	s.Nodes = len(cs.Nodes())
	s.Fields = cs.Grid().Fields.SortedNames()
	s.Materials = make(map[string]int)
	for i := 0; i < cs.NumCells(); i++ {
		s.Materials[materials.Map(cs.Material(i)).String()]++
	}
}

func (c *Config) env(runID string) cellset.Env {
	return cellset.Env{
		Procs: c.NumProcs,
		Log:   logrus.StandardLogger().WithField("run", runID),
	}
}

// buildDomain makes the layer stack and its cell set. If polymer is true,
// a copy of the top level set is added to receive deposited material.
func buildDomain(c *Config, env cellset.Env, polymer bool) (*process.Domain, error) {
	levelSets, materials, err := c.Stack().Make()
	if err != nil {
		return nil, err
	}
	d, err := process.NewDomain(env, levelSets, materials)
	if err != nil {
		return nil, err
	}
	if polymer {
		d.DuplicateTopLevelSet(cellset.Polymer)
	}
	if err := d.GenerateCellSet(c.Depth(), c.CellSetAbove); err != nil {
		return nil, err
	}
	return d, nil
}

// Voxelize builds the cell set of the layer stack and writes it to the
// output file.
func Voxelize(c *Config) (*Summary, error) {
	start := time.Now()
	s := newSummary("voxelize")
	env := c.env(s.RunID)
	d, err := buildDomain(c, env, false)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(d.CellSet, c.OutputFile); err != nil {
		return nil, err
	}
	s.record(d.CellSet, d.Materials)
	s.OutputFile = c.OutputFile
	s.WallTime = time.Since(start).Seconds()
	env.Logger().WithFields(logrus.Fields{
		"cells": s.Cells,
		"file":  c.OutputFile,
	}).Info("cellset: saved cell set")
	return s, nil
}

// Run selectively etches the Si3N4 layers of the layer stack while
// transporting the etch byproducts through the cell set above the surface
// and redepositing them as oxide. The final cell set is written to the
// output file. Snapshots of the initial cell set and of the cell set at
// every print interval are written next to it.
func Run(ctx context.Context, c *Config) (*Summary, error) {
	if c.Dim != 2 {
		return nil, fmt.Errorf("cellset: oxide redeposition only works in 2 dimensions, not %d", c.Dim)
	}
	if !c.CellSetAbove {
		return nil, fmt.Errorf("cellset: byproduct transport needs a cell set above the surface")
	}
	if err := c.checkStability(); err != nil {
		return nil, err
	}
	start := time.Now()
	s := newSummary("run")
	env := c.env(s.RunID)
	log := env.Logger()

	d, err := buildDomain(c, env, true)
	if err != nil {
		return nil, err
	}
	if err := d.CellSet.AddScalarData(byproduct.SumField, 0); err != nil {
		return nil, err
	}
	d.CellSet.BuildNeighborhood()
	dyn, err := byproduct.New(env, c.Byproduct(d.Materials), d.CellSet, d, d)
	if err != nil {
		return nil, err
	}
	vel, err := etch.New(c.EtchModel, c.Dim, c.NitrideEtchRate/60, c.OxideEtchRate/60, d.Materials)
	if err != nil {
		return nil, err
	}
	snapshot := func(tag string) error {
		name := snapshotName(c.OutputFile, tag)
		if err := writeOutput(d.CellSet, name); err != nil {
			return err
		}
		s.Snapshots = append(s.Snapshots, name)
		return nil
	}
	if err := snapshot("initial"); err != nil {
		return nil, err
	}
	p := &process.Process{
		Domain:        d,
		Velocity:      vel,
		Callback:      dyn,
		Duration:      c.Duration(),
		PrintInterval: c.PrintTimeInterval,
		Output: func(t float64) error {
			log.WithFields(logrus.Fields{
				"time":     t,
				"duration": c.Duration(),
			}).Info("cellset: process time")
			return snapshot(fmt.Sprint(len(s.Snapshots)))
		},
	}
	log.WithFields(logrus.Fields{
		"cells":    d.CellSet.NumCells(),
		"duration": p.Duration,
		"model":    c.EtchModel,
	}).Info("cellset: starting process")

	t, err := p.Apply(ctx)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(d.CellSet, c.OutputFile); err != nil {
		return nil, err
	}
	s.record(d.CellSet, d.Materials)
	s.ProcessTime = t
	s.Duration = p.Duration
	s.OutputFile = c.OutputFile
	s.WallTime = time.Since(start).Seconds()
	return s, nil
}

// snapshotName inserts tag before the extension of fileName, so that
// out.nc becomes out_tag.nc.
func snapshotName(fileName, tag string) string {
	ext := filepath.Ext(fileName)
	return strings.TrimSuffix(fileName, ext) + "_" + tag + ext
}

// writeOutput saves the cell set in the format given by the extension of
// fileName.
func writeOutput(cs *cellset.CellSet, fileName string) error {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".nc":
		f, err := os.Create(fileName)
		if err != nil {
			return fmt.Errorf("cellset: creating output file: %v", err)
		}
		if err := cs.WriteNetCDF(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".gob":
		f, err := os.Create(fileName)
		if err != nil {
			return fmt.Errorf("cellset: creating output file: %v", err)
		}
		if err := cs.Save(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".shp":
		return cs.WriteShapefile(fileName)
	case ".png":
		field := cellset.MaterialField
		if cs.ScalarData(byproduct.SumField) != nil {
			field = byproduct.SumField
		}
		f, err := os.Create(fileName)
		if err != nil {
			return fmt.Errorf("cellset: creating output file: %v", err)
		}
		if err := cs.WritePNG(f, field, 15*vg.Centimeter, 15*vg.Centimeter); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("cellset: unsupported output format %q", filepath.Ext(fileName))
	}
}

// finish writes the run summary and metrics, if requested.
func finish(c *Config, s *Summary) error {
	if c.SummaryFile != "" {
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("cellset: encoding summary: %v", err)
		}
		if err := os.WriteFile(c.SummaryFile, b, 0644); err != nil {
			return fmt.Errorf("cellset: writing summary: %v", err)
		}
	}
	if c.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(c.MetricsFile, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("cellset: writing metrics: %v", err)
		}
	}
	return nil
}
