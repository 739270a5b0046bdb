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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/cellset"
	"github.com/spatialmodel/cellset/geometry"
	"github.com/spatialmodel/cellset/science/byproduct"
	"github.com/spatialmodel/cellset/science/etch"
	"github.com/spf13/cast"
)

// Config holds the settings of a simulation.
type Config struct {
	Dim                                     int
	GridDelta, XExtent, YExtent             float64
	NumLayers                               int
	LayerHeight, SubstrateHeight            float64
	TrenchWidth, MaskHeight                 float64
	Periodic                                bool
	CellSetDepth                            float64
	CellSetAbove                            bool
	EtchModel                               etch.Kind
	NitrideEtchRate, OxideEtchRate          float64
	RedepositionRate, RedepositionThreshold float64
	RedepositionTimeInt                     float64
	DiffusionCoefficient, Sink              float64
	ScallopVelocity, CenterVelocity         float64
	TargetEtchDepth, PrintTimeInterval      float64
	OutputFile, SummaryFile, MetricsFile    string
	NumProcs                                int
}

// LoadConfig reads the simulation settings from cfg.
func LoadConfig(cfg *viper.Viper) (*Config, error) {
	c := new(Config)
	floats := []struct {
		name string
		v    *float64
	}{
		{"GridDelta", &c.GridDelta},
		{"XExtent", &c.XExtent},
		{"YExtent", &c.YExtent},
		{"LayerHeight", &c.LayerHeight},
		{"SubstrateHeight", &c.SubstrateHeight},
		{"TrenchWidth", &c.TrenchWidth},
		{"MaskHeight", &c.MaskHeight},
		{"CellSetDepth", &c.CellSetDepth},
		{"NitrideEtchRate", &c.NitrideEtchRate},
		{"OxideEtchRate", &c.OxideEtchRate},
		{"RedepositionRate", &c.RedepositionRate},
		{"RedepositionThreshold", &c.RedepositionThreshold},
		{"RedepositionTimeInt", &c.RedepositionTimeInt},
		{"DiffusionCoefficient", &c.DiffusionCoefficient},
		{"Sink", &c.Sink},
		{"ScallopVelocity", &c.ScallopVelocity},
		{"CenterVelocity", &c.CenterVelocity},
		{"TargetEtchDepth", &c.TargetEtchDepth},
		{"PrintTimeInterval", &c.PrintTimeInterval},
	}
	for _, f := range floats {
		v, err := cast.ToFloat64E(cfg.Get(f.name))
		if err != nil {
			return nil, fmt.Errorf("cellset: invalid value for %s: %v", f.name, err)
		}
		*f.v = v
	}
	ints := []struct {
		name string
		v    *int
	}{
		{"Dim", &c.Dim},
		{"NumLayers", &c.NumLayers},
		{"NumProcs", &c.NumProcs},
	}
	for _, f := range ints {
		v, err := cast.ToIntE(cfg.Get(f.name))
		if err != nil {
			return nil, fmt.Errorf("cellset: invalid value for %s: %v", f.name, err)
		}
		*f.v = v
	}
	var err error
	if c.Periodic, err = cast.ToBoolE(cfg.Get("Periodic")); err != nil {
		return nil, fmt.Errorf("cellset: invalid value for Periodic: %v", err)
	}
	if c.CellSetAbove, err = cast.ToBoolE(cfg.Get("CellSetAbove")); err != nil {
		return nil, fmt.Errorf("cellset: invalid value for CellSetAbove: %v", err)
	}
	if c.EtchModel, err = etch.ParseKind(cast.ToString(cfg.Get("EtchModel"))); err != nil {
		return nil, err
	}
	c.OutputFile = os.ExpandEnv(cast.ToString(cfg.Get("OutputFile")))
	c.SummaryFile = os.ExpandEnv(cast.ToString(cfg.Get("SummaryFile")))
	c.MetricsFile = os.ExpandEnv(cast.ToString(cfg.Get("MetricsFile")))
	if err := checkOutputFile(c.OutputFile); err != nil {
		return nil, err
	}
	return c, nil
}

// checkOutputFile makes sure that the output file is specified, has a
// known format and that its directory exists.
func checkOutputFile(f string) error {
	if f == "" {
		return fmt.Errorf(`cellset: you need to specify an output file (for example: OutputFile="cellset.nc")`)
	}
	switch strings.ToLower(filepath.Ext(f)) {
	case ".nc", ".gob", ".shp", ".png":
	default:
		return fmt.Errorf("cellset: unsupported OutputFile format %q; use .nc, .gob, .shp or .png", filepath.Ext(f))
	}
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return fmt.Errorf("cellset: the OutputFile directory doesn't exist: %v", err)
	}
	return nil
}

// Stack returns the layer stack to build.
func (c *Config) Stack() *geometry.Stack {
	return &geometry.Stack{
		Dim:             c.Dim,
		GridDelta:       c.GridDelta,
		XExtent:         c.XExtent,
		YExtent:         c.YExtent,
		NumLayers:       c.NumLayers,
		LayerHeight:     c.LayerHeight,
		SubstrateHeight: c.SubstrateHeight,
		HoleRadius:      c.TrenchWidth / 2,
		MaskHeight:      c.MaskHeight,
		Periodic:        c.Periodic,
	}
}

// Depth returns the depth of the cell set.
func (c *Config) Depth() float64 {
	if c.CellSetDepth == 0 && c.CellSetAbove {
		return c.Stack().Height() + 10
	}
	return c.CellSetDepth
}

// Duration returns the process time, in seconds, needed to etch Si3N4 by
// TargetEtchDepth.
func (c *Config) Duration() float64 {
	if c.NitrideEtchRate <= 0 {
		return 0
	}
	return c.TargetEtchDepth / c.NitrideEtchRate * 60
}

// Byproduct returns the byproduct model parameters.
func (c *Config) Byproduct(materials cellset.MaterialMap) byproduct.Config {
	return byproduct.Config{
		DiffusionCoefficient:  c.DiffusionCoefficient,
		Sink:                  c.Sink,
		ScallopVelocity:       c.ScallopVelocity,
		HoleVelocity:          c.CenterVelocity,
		Top:                   c.Stack().Height(),
		HoleRadius:            c.TrenchWidth / 2,
		EtchRate:              c.NitrideEtchRate / 60,
		RedepositionFactor:    c.RedepositionRate,
		RedepositionThreshold: c.RedepositionThreshold,
		RedepositionInterval:  c.RedepositionTimeInt,
		Materials:             materials,
	}
}

// checkStability makes sure that the explicit transport scheme is stable
// at the chosen grid spacing.
func (c *Config) checkStability() error {
	v := c.ScallopVelocity
	if c.CenterVelocity > v {
		v = c.CenterVelocity
	}
	if v <= 0 {
		return nil
	}
	stability := 2 * c.DiffusionCoefficient / v
	if 0.5*stability <= c.GridDelta {
		return fmt.Errorf("cellset: unstable parameters (stability %g); reduce GridDelta below %g",
			stability, 0.5*stability)
	}
	return nil
}
