package nav

import (
	"container/heap"
	"math"

	"github.com/udisondev/rtsnav/internal/geom"
)

// neighborOffsets enumerates the 8-neighborhood in the fixed tie-break
// order: cardinals first (N, E, S, W), then diagonals (NE, SE, SW, NW).
// Flow derivation walks this order, so equal-cost descents resolve the
// same way on every run.
var neighborOffsets = [8]struct {
	dx, dy   int
	stepCost float64
	diagonal bool
}{
	{0, -1, 1, false},
	{1, 0, 1, false},
	{0, 1, 1, false},
	{-1, 0, 1, false},
	{1, -1, math.Sqrt2, true},
	{1, 1, math.Sqrt2, true},
	{-1, 1, math.Sqrt2, true},
	{-1, -1, math.Sqrt2, true},
}

// FlowField holds the integration costs and steepest-descent directions
// toward one destination cell. Valid only while the grid generation it was
// built against is current.
type FlowField struct {
	dest        CellCoord
	generation  uint64
	width       int
	integration []float64
	direction   []geom.Vec2
}

// Destination returns the quantized destination cell.
func (f *FlowField) Destination() CellCoord { return f.dest }

// Generation returns the CostGrid generation the field was built against.
func (f *FlowField) Generation() uint64 { return f.generation }

// IntegrationAt returns the accumulated traversal cost of a cell, or +Inf
// for unreachable or out-of-range cells.
func (f *FlowField) IntegrationAt(c CellCoord) float64 {
	idx := c.Y*f.width + c.X
	if c.X < 0 || c.X >= f.width || idx < 0 || idx >= len(f.integration) {
		return math.Inf(1)
	}
	return f.integration[idx]
}

// DirectionAt returns the flow direction of a cell: a unit vector toward
// the cheapest neighbor, or zero at the destination and on unreachable
// cells.
func (f *FlowField) DirectionAt(c CellCoord) geom.Vec2 {
	idx := c.Y*f.width + c.X
	if c.X < 0 || c.X >= f.width || idx < 0 || idx >= len(f.direction) {
		return geom.Vec2{}
	}
	return f.direction[idx]
}

// fieldNode is a cell queued during Dijkstra propagation.
type fieldNode struct {
	cell  CellCoord
	cost  float64
	index int // heap index
}

// fieldHeap is a min-heap of fieldNodes ordered by integration cost.
type fieldHeap []*fieldNode

func (h fieldHeap) Len() int           { return len(h) }
func (h fieldHeap) Less(i, j int) bool { return h[i].cost < h[j].cost }
func (h fieldHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *fieldHeap) Push(x any)        { n := x.(*fieldNode); n.index = len(*h); *h = append(*h, n) }
func (h *fieldHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return n
}

// generateField runs weighted shortest-path propagation outward from dest
// over the 8-neighborhood and derives per-cell flow directions by steepest
// descent. dest must be a walkable in-bounds cell.
func generateField(grid *CostGrid, dest CellCoord) *FlowField {
	size := grid.width * grid.height
	f := &FlowField{
		dest:        dest,
		generation:  grid.generation,
		width:       grid.width,
		integration: make([]float64, size),
		direction:   make([]geom.Vec2, size),
	}
	for i := range f.integration {
		f.integration[i] = math.Inf(1)
	}

	f.integration[dest.Y*grid.width+dest.X] = 0

	open := &fieldHeap{}
	heap.Init(open)
	heap.Push(open, &fieldNode{cell: dest})

	for open.Len() > 0 {
		current := heap.Pop(open).(*fieldNode)
		curIdx := current.cell.Y*grid.width + current.cell.X

		// Superseded entry: a cheaper path reached this cell already.
		if current.cost > f.integration[curIdx] {
			continue
		}

		for _, off := range neighborOffsets {
			n := CellCoord{X: current.cell.X + off.dx, Y: current.cell.Y + off.dy}
			if !grid.InBounds(n) {
				continue
			}
			nCost := grid.CostAt(n)
			if nCost >= ImpassableCost {
				continue
			}
			if off.diagonal && !diagonalOpen(grid, current.cell, off.dx, off.dy) {
				continue
			}

			newCost := current.cost + off.stepCost*float64(nCost)
			nIdx := n.Y*grid.width + n.X
			if newCost < f.integration[nIdx] {
				f.integration[nIdx] = newCost
				heap.Push(open, &fieldNode{cell: n, cost: newCost})
			}
		}
	}

	f.deriveDirections(grid)
	return f
}

// diagonalOpen reports whether a diagonal step from cell is admissible:
// both adjacent cardinal cells must be passable, otherwise the flow would
// cut through a wall corner.
func diagonalOpen(grid *CostGrid, cell CellCoord, dx, dy int) bool {
	sideA := CellCoord{X: cell.X + dx, Y: cell.Y}
	sideB := CellCoord{X: cell.X, Y: cell.Y + dy}
	return grid.CostAt(sideA) < ImpassableCost && grid.CostAt(sideB) < ImpassableCost
}

// deriveDirections fills per-cell unit vectors toward the neighbor with
// the strictly lowest integration cost. Ties resolve by neighborOffsets
// order (cardinals before diagonals). Destination and unreachable cells
// keep the zero vector.
func (f *FlowField) deriveDirections(grid *CostGrid) {
	for cy := 0; cy < grid.height; cy++ {
		for cx := 0; cx < grid.width; cx++ {
			cell := CellCoord{X: cx, Y: cy}
			idx := cy*grid.width + cx

			own := f.integration[idx]
			if math.IsInf(own, 1) || (cell == f.dest) {
				continue
			}

			best := own
			var bestOff geom.Vec2
			found := false
			for _, off := range neighborOffsets {
				n := CellCoord{X: cx + off.dx, Y: cy + off.dy}
				if !grid.InBounds(n) {
					continue
				}
				if off.diagonal && !diagonalOpen(grid, cell, off.dx, off.dy) {
					continue
				}
				nCost := f.integration[n.Y*grid.width+n.X]
				if nCost < best {
					best = nCost
					bestOff = geom.Vec2{X: float64(off.dx), Y: float64(off.dy)}
					found = true
				}
			}

			if found {
				f.direction[idx] = bestOff.Normalized()
			}
		}
	}
}
