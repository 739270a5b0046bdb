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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	substeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellset_byproduct_substeps_total",
		Help: "The number of explicit diffusion substeps computed.",
	})

	clampedCells = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellset_byproduct_clamped_cells_total",
		Help: "The number of negative concentrations set to zero after a diffusion substep.",
	})

	injectedMass = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellset_byproduct_injected_mass_total",
		Help: "The byproduct mass added at etched surface points.",
	})

	droppedInjections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellset_byproduct_dropped_injections_total",
		Help: "Etched surface points with no gas cell to receive their byproducts.",
	})

	redepositions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellset_byproduct_redepositions_total",
		Help: "The number of redeposition events.",
	})
)
