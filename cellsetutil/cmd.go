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

// Package cellsetutil holds the command-line interface and configuration
// handling for cell set simulations.
package cellsetutil

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/cellset"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	stackFlags := []*pflag.FlagSet{voxelizeCmd.Flags(), runCmd.Flags()}
	runFlags := []*pflag.FlagSet{runCmd.Flags()}
	rootFlags := []*pflag.FlagSet{Root.PersistentFlags()}

	// Options are the configuration options available to cell set
	// simulations.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   rootFlags,
		},
		{
			name: "Dim",
			usage: `
              Dim is the number of spatial dimensions, 2 or 3. Simulations
              with redeposition only work in 2 dimensions.`,
			defaultVal: 2,
			flagsets:   stackFlags,
		},
		{
			name: "GridDelta",
			usage: `
              GridDelta is the grid spacing of the level sets and the cell set.`,
			shorthand:  "g",
			defaultVal: 1.0,
			flagsets:   stackFlags,
		},
		{
			name: "XExtent",
			usage: `
              XExtent is the half width of the domain in the x direction.`,
			defaultVal: 30.0,
			flagsets:   stackFlags,
		},
		{
			name: "YExtent",
			usage: `
              YExtent is the half width of the domain in the y direction. It
              is only used in 3 dimensions.`,
			defaultVal: 30.0,
			flagsets:   stackFlags,
		},
		{
			name: "NumLayers",
			usage: `
              NumLayers is the number of alternating SiO2 and Si3N4 layers
              on top of the substrate.`,
			defaultVal: 10,
			flagsets:   stackFlags,
		},
		{
			name: "LayerHeight",
			usage: `
              LayerHeight is the thickness of each layer.`,
			defaultVal: 10.0,
			flagsets:   stackFlags,
		},
		{
			name: "SubstrateHeight",
			usage: `
              SubstrateHeight is the height of the Si substrate.`,
			defaultVal: 20.0,
			flagsets:   stackFlags,
		},
		{
			name: "TrenchWidth",
			usage: `
              TrenchWidth is the width of the trench (or the diameter of the
              hole in 3 dimensions) through the layers.`,
			defaultVal: 15.0,
			flagsets:   stackFlags,
		},
		{
			name: "MaskHeight",
			usage: `
              MaskHeight is the thickness of a mask on top of the stack. If
              it is greater than zero, the trench is an opening in the mask
              instead of being cut through the layers.`,
			defaultVal: 0.0,
			flagsets:   stackFlags,
		},
		{
			name: "Periodic",
			usage: `
              Periodic specifies whether the lateral boundaries are periodic
              instead of reflective.`,
			defaultVal: false,
			flagsets:   stackFlags,
		},
		{
			name: "CellSetDepth",
			usage: `
              CellSetDepth is the depth of the cell set. For cell sets above
              the surface, zero means 10 length units more than the height
              of the stack.`,
			defaultVal: 0.0,
			flagsets:   stackFlags,
		},
		{
			name: "CellSetAbove",
			usage: `
              CellSetAbove specifies whether the cell set covers the gas
              region above the surface instead of the material below it.`,
			defaultVal: true,
			flagsets:   stackFlags,
		},
		{
			name: "EtchModel",
			usage: `
              EtchModel is the surface velocity model: 'selective',
              'directional' or 'none'.`,
			defaultVal: "selective",
			flagsets:   runFlags,
		},
		{
			name: "NitrideEtchRate",
			usage: `
              NitrideEtchRate is the etch rate of Si3N4 per minute.`,
			defaultVal: 60.0,
			flagsets:   runFlags,
		},
		{
			name: "OxideEtchRate",
			usage: `
              OxideEtchRate is the etch rate of SiO2 per minute.`,
			defaultVal: 0.0,
			flagsets:   runFlags,
		},
		{
			name: "RedepositionRate",
			usage: `
              RedepositionRate scales the time-averaged byproduct
              concentration next to the surface into an oxide growth rate.`,
			defaultVal: 0.1,
			flagsets:   runFlags,
		},
		{
			name: "RedepositionThreshold",
			usage: `
              RedepositionThreshold is the time-averaged byproduct
              concentration below which no oxide is redeposited.`,
			defaultVal: 0.1,
			flagsets:   runFlags,
		},
		{
			name: "RedepositionTimeInt",
			usage: `
              RedepositionTimeInt is the process time between redeposition
              events, in seconds.`,
			defaultVal: 60.0,
			flagsets:   runFlags,
		},
		{
			name: "DiffusionCoefficient",
			usage: `
              DiffusionCoefficient is the byproduct diffusion coefficient.`,
			defaultVal: 20.0,
			flagsets:   runFlags,
		},
		{
			name: "Sink",
			usage: `
              Sink is the amount of byproducts removed at the top of the
              domain in each diffusion substep.`,
			defaultVal: 0.001,
			flagsets:   runFlags,
		},
		{
			name: "ScallopVelocity",
			usage: `
              ScallopVelocity is the lateral byproduct velocity towards the
              center of the trench.`,
			defaultVal: 10.0,
			flagsets:   runFlags,
		},
		{
			name: "CenterVelocity",
			usage: `
              CenterVelocity is the upward byproduct velocity in the center
              of the trench.`,
			defaultVal: 10.0,
			flagsets:   runFlags,
		},
		{
			name: "TargetEtchDepth",
			usage: `
              TargetEtchDepth is the lateral Si3N4 etch depth at which the
              process ends.`,
			defaultVal: 10.0,
			flagsets:   runFlags,
		},
		{
			name: "PrintTimeInterval",
			usage: `
              PrintTimeInterval is the process time between progress
              reports and cell set snapshots, in seconds. Snapshots are
              written next to OutputFile with the snapshot number added
              to the file name.`,
			defaultVal: 30.0,
			flagsets:   runFlags,
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the output file. The extension
              selects the format: '.nc' for NetCDF, '.gob' for a cell set
              that can be loaded again, '.shp' for a shapefile or '.png'
              for an image of the byproduct sum.`,
			shorthand:  "o",
			defaultVal: "cellset.nc",
			flagsets:   rootFlags,
		},
		{
			name: "SummaryFile",
			usage: `
              SummaryFile is the path of a JSON file to write a summary of
              the run to. If empty, no summary is written.`,
			defaultVal: "",
			flagsets:   rootFlags,
		},
		{
			name: "MetricsFile",
			usage: `
              MetricsFile is the path of a file to write the run metrics to
              in the Prometheus text format. If empty, no metrics are written.`,
			defaultVal: "",
			flagsets:   rootFlags,
		},
		{
			name: "NumProcs",
			usage: `
              NumProcs is the number of processors to use. Values < 1 mean
              all available processors.`,
			defaultVal: 0,
			flagsets:   rootFlags,
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of the log messages to show:
              'debug', 'info', 'warning' or 'error'.`,
			defaultVal: "info",
			flagsets:   rootFlags,
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path of a file to additionally write the log
              to. If empty, the log is only written to standard error.`,
			defaultVal: "",
			flagsets:   rootFlags,
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CELLSET")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(voxelizeCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(configCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cellset: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "cellset",
	Short: "Volumetric cell sets for etch and deposition simulations.",
	Long: `cellset converts stacks of level set surfaces into voxel cell sets
and runs processes that transport quantities through them.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CELLSET_var' where 'var' is the
name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return setLogging(Cfg.GetString("LogLevel"), Cfg.GetString("LogFile"))
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeLog()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of cellset.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("cellset v%s\n", cellset.Version)
	},
	DisableAutoGenTag: true,
}

// voxelizeCmd builds a layer stack and its cell set and writes it out.
var voxelizeCmd = &cobra.Command{
	Use:   "voxelize",
	Short: "Build and save the cell set of a layer stack.",
	Long: `voxelize builds a stack of alternating SiO2 and Si3N4 layers as
specified by the configuration, converts it to a cell set and saves the cell
set to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		s, err := Voxelize(c)
		if err != nil {
			return err
		}
		return finish(c, s)
	},
	DisableAutoGenTag: true,
}

// runCmd runs the oxide regrowth process.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a selective etching process with oxide redeposition.",
	Long: `run selectively etches the Si3N4 layers of a layer stack. The etch
byproducts are transported through the gas above the surface and redeposit
on the surface as oxide where their concentration is high. The final cell
set is saved to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		s, err := Run(context.Background(), c)
		if err != nil {
			return err
		}
		return finish(c, s)
	},
	DisableAutoGenTag: true,
}

// configCmd prints the configuration in effect.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration.",
	Long: `config prints the configuration in effect, after combining the
defaults, the configuration file, environment variables and command-line
arguments, in TOML format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(Cfg.AllSettings())
	},
	DisableAutoGenTag: true,
}
