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

import "errors"

// NotFound is returned by point-location queries when the point is not
// inside any cell.
const NotFound = -1

var (
	// ErrTopologyMismatch is returned by UpdateMaterials when
	// re-voxelization yields a different number of cells. The cell set is
	// left unchanged. Use UpdateSurface for surface moves that remove
	// cells.
	ErrTopologyMismatch = errors.New("cellset: number of cells changed during material update; the surface top might have moved")

	// ErrEmptyStack is returned when a cell set is built from no surfaces.
	ErrEmptyStack = errors.New("cellset: empty surface stack")

	// ErrGridDelta is returned when the surfaces of a stack do not share
	// the same grid spacing.
	ErrGridDelta = errors.New("cellset: inconsistent grid spacing")

	// ErrShrinkOnlyBelow is returned by UpdateSurface for cell sets above
	// the surface, where a receding surface would add cells.
	ErrShrinkOnlyBelow = errors.New("cellset: surface update is only possible for cell sets below the surface")

	// ErrNoLevelSets is returned by material and surface updates of a
	// cell set that was loaded without its level sets.
	ErrNoLevelSets = errors.New("cellset: cell set has no level sets")
)
