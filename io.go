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
	"io"
	"math"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// WriteNetCDF writes the grid and every field to rw in NetCDF format.
// Node coordinates are stored in variable "nodes" (node × axis), cell
// corners in variable "cells" (cell × corner), and each field in a
// variable of the same name.
func (cs *CellSet) WriteNetCDF(rw cdf.ReaderWriterAt) error {
	g := cs.grid
	if len(g.Elements) == 0 {
		return fmt.Errorf("cellset: writing NetCDF: cell set is empty")
	}
	arity := g.Arity()
	names := g.Fields.SortedNames()

	h := cdf.NewHeader([]string{"cell", "node", "corner", "axis"},
		[]int{len(g.Elements), len(g.Nodes), arity, g.Dim})
	h.AddAttribute("", "gridDelta", []float64{cs.gridDelta})
	h.AddAttribute("", "depth", []float64{cs.depth})
	above := int32(0)
	if cs.above {
		above = 1
	}
	h.AddAttribute("", "above", []int32{above})

	h.AddVariable("nodes", []string{"node", "axis"}, []float64{0})
	h.AddAttribute("nodes", "description", "grid node coordinates")
	h.AddVariable("cells", []string{"cell", "corner"}, []int32{0})
	h.AddAttribute("cells", "description", "node indices of cell corners")
	for _, name := range names {
		h.AddVariable(name, []string{"cell"}, []float64{0})
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("cellset: writing NetCDF header: %v", err)
	}

	f, err := cdf.Create(rw, h)
	if err != nil {
		return fmt.Errorf("cellset: creating NetCDF file: %v", err)
	}

	nodes := make([]float64, 0, len(g.Nodes)*g.Dim)
	for _, n := range g.Nodes {
		nodes = append(nodes, n[:g.Dim]...)
	}
	w := f.Writer("nodes", []int{0, 0}, []int{len(g.Nodes), g.Dim})
	if _, err := w.Write(nodes); err != nil {
		return fmt.Errorf("cellset: writing NetCDF nodes: %v", err)
	}

	cells := make([]int32, 0, len(g.Elements)*arity)
	for _, e := range g.Elements {
		for k := 0; k < arity; k++ {
			cells = append(cells, int32(e[k]))
		}
	}
	w = f.Writer("cells", []int{0, 0}, []int{len(g.Elements), arity})
	if _, err := w.Write(cells); err != nil {
		return fmt.Errorf("cellset: writing NetCDF cells: %v", err)
	}

	for _, name := range names {
		w := f.Writer(name, []int{0}, []int{len(g.Elements)})
		if _, err := w.Write(g.Fields.Get(name)); err != nil {
			return fmt.Errorf("cellset: writing NetCDF variable %s: %v", name, err)
		}
	}
	return nil
}

// cellPolygon returns the outline of 2-D cell i.
func (cs *CellSet) cellPolygon(i int) geom.Polygon {
	g := cs.grid
	e := g.Elements[i]
	ring := make([]geom.Point, 0, 5)
	for _, k := range []int{0, 1, 2, 3, 0} {
		n := g.Nodes[e[k]]
		ring = append(ring, geom.Point{X: n[0], Y: n[1]})
	}
	return geom.Polygon{ring}
}

// WriteShapefile writes each cell of a two-dimensional cell set as a
// polygon to the shapefile fileName, with one attribute column per field.
// Field names are truncated to the 10 characters shapefiles allow.
func (cs *CellSet) WriteShapefile(fileName string) error {
	if cs.dim != 2 {
		return fmt.Errorf("cellset: shapefile output is only possible in 2 dimensions, not %d", cs.dim)
	}
	names := cs.grid.Fields.SortedNames()
	fields := make([]goshp.Field, len(names))
	for i, name := range names {
		if len(name) > 10 {
			name = name[:10]
		}
		fields[i] = goshp.FloatField(name, 14, 8)
	}
	e, err := shp.NewEncoderFromFields(fileName, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("cellset: creating shapefile: %v", err)
	}
	defer e.Close()

	data := make([][]float64, len(names))
	for i, name := range names {
		data[i] = cs.grid.Fields.Get(name)
	}
	vals := make([]interface{}, len(names))
	for c := range cs.grid.Elements {
		for i := range data {
			vals[i] = data[i][c]
		}
		if err := e.EncodeFields(cs.cellPolygon(c), vals...); err != nil {
			return fmt.Errorf("cellset: writing shapefile: %v", err)
		}
	}
	return nil
}

// fieldPlotter draws the cells of a two-dimensional cell set colored by
// the values of one field.
type fieldPlotter struct {
	cs   *CellSet
	data []float64
	cmap palette.ColorMap
}

func (fp *fieldPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	b := fp.cs.box
	return b.Min[0], b.Max[0], b.Min[1], b.Max[1]
}

func (fp *fieldPlotter) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for i := range fp.cs.grid.Elements {
		col, err := fp.cmap.At(math.Max(fp.cmap.Min(), math.Min(fp.cmap.Max(), fp.data[i])))
		if err != nil {
			panic(err)
		}
		poly := fp.cs.cellPolygon(i)
		pts := make([]vg.Point, len(poly[0]))
		for j, pt := range poly[0] {
			pts[j] = vg.Point{X: trX(pt.X), Y: trY(pt.Y)}
		}
		c.FillPolygon(col, pts)
	}
}

// WritePNG draws a heat map of the named field of a two-dimensional cell
// set and writes it to w in PNG format.
func (cs *CellSet) WritePNG(w io.Writer, field string, width, height vg.Length) error {
	if cs.dim != 2 {
		return fmt.Errorf("cellset: PNG output is only possible in 2 dimensions, not %d", cs.dim)
	}
	data := cs.grid.Fields.Get(field)
	if data == nil {
		return fmt.Errorf("cellset: no field named %q", field)
	}
	if len(data) == 0 {
		return fmt.Errorf("cellset: writing PNG: cell set is empty")
	}

	min, max := data[0], data[0]
	for _, v := range data {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if max <= min {
		max = min + 1
	}
	cm := moreland.ExtendedBlackBody()
	cm.SetMin(min)
	cm.SetMax(max)

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("cellset: creating plot: %v", err)
	}
	p.Title.Text = field
	p.Add(&fieldPlotter{cs: cs, data: data, cmap: cm})

	img := vgimg.New(width, height)
	dc := draw.New(img)
	p.Draw(dc)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("cellset: writing PNG: %v", err)
	}
	return nil
}
