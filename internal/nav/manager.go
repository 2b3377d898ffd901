package nav

import (
	"container/list"
	"fmt"
	"log/slog"
	"math"

	"github.com/udisondev/rtsnav/internal/geom"
)

// DefaultFieldCacheSize bounds the flow-field cache when no capacity is
// configured.
const DefaultFieldCacheSize = 16

// DefaultMaxRingSearch bounds the expanding-ring scan for a walkable
// stand-in when a destination lands on an impassable cell.
const DefaultMaxRingSearch = 8

// Manager owns the CostGrid and the flow-field cache. Fields are keyed by
// destination cell and kept only while the grid generation they were built
// against is current; eviction is LRU. Confined to the logic goroutine.
type Manager struct {
	grid *CostGrid

	capacity int
	maxRing  int
	entries  map[CellCoord]*list.Element
	order    *list.List // front = most recently used, values are *FlowField
}

// NewManager creates a manager over grid. capacity <= 0 and maxRing <= 0
// fall back to the package defaults.
func NewManager(grid *CostGrid, capacity, maxRing int) *Manager {
	if capacity <= 0 {
		capacity = DefaultFieldCacheSize
	}
	if maxRing <= 0 {
		maxRing = DefaultMaxRingSearch
	}
	return &Manager{
		grid:     grid,
		capacity: capacity,
		maxRing:  maxRing,
		entries:  make(map[CellCoord]*list.Element),
		order:    list.New(),
	}
}

// Grid returns the cost grid the manager propagates over.
func (m *Manager) Grid() *CostGrid { return m.grid }

// GenerateFlowField ensures a current field exists for the destination and
// returns it. Destinations outside the grid clamp to the nearest edge
// cell; destinations on an impassable cell fall back to the nearest
// walkable cell within the ring-search bound. A cached field is reused
// while its generation matches, so calling this per tick is cheap — real
// propagation happens only when the destination cell or the grid changed.
func (m *Manager) GenerateFlowField(destWorldPos geom.Vec2) (*FlowField, error) {
	dest, ok := m.resolveDest(destWorldPos)
	if !ok {
		return nil, fmt.Errorf("no walkable cell within %d rings of destination %v",
			m.maxRing, m.grid.ClampedCellAt(destWorldPos))
	}

	if f, ok := m.lookup(dest); ok {
		return f, nil
	}

	f := generateField(m.grid, dest)
	m.insert(f)

	slog.Debug("flow field generated",
		"dest", dest,
		"generation", f.generation,
		"cached", m.order.Len())
	return f, nil
}

// SampleFlowDirection returns the flow direction at worldPos for the field
// keyed by dest. The zero vector means "no guidance": position outside the
// grid, no field for that destination, or a stale field — callers stop or
// fall back, never invent motion.
func (m *Manager) SampleFlowDirection(worldPos, dest geom.Vec2) geom.Vec2 {
	cell, ok := m.grid.CellAt(worldPos)
	if !ok {
		return geom.Vec2{}
	}
	destCell, ok := m.resolveDest(dest)
	if !ok {
		return geom.Vec2{}
	}
	f, ok := m.lookup(destCell)
	if !ok {
		return geom.Vec2{}
	}
	return f.DirectionAt(cell)
}

// IsWalkable reports whether the cell containing worldPos can be
// traversed.
func (m *Manager) IsWalkable(worldPos geom.Vec2) bool {
	return m.grid.IsWalkable(worldPos)
}

// PathCost returns the integration cost from worldPos toward dest in the
// cached field, or +Inf when the cell is unreachable or no current field
// exists.
func (m *Manager) PathCost(worldPos, dest geom.Vec2) float64 {
	cell, ok := m.grid.CellAt(worldPos)
	if !ok {
		return math.Inf(1)
	}
	destCell, ok := m.resolveDest(dest)
	if !ok {
		return math.Inf(1)
	}
	f, ok := m.lookup(destCell)
	if !ok {
		return math.Inf(1)
	}
	return f.IntegrationAt(cell)
}

// resolveDest quantizes a world destination to the cell a field would be
// generated for: clamped to the grid, remapped to the nearest walkable
// cell when impassable. Generation and sampling share this so a remapped
// destination keys the same cache entry everywhere.
func (m *Manager) resolveDest(destWorldPos geom.Vec2) (CellCoord, bool) {
	dest := m.grid.ClampedCellAt(destWorldPos)
	if m.grid.CostAt(dest) < ImpassableCost {
		return dest, true
	}
	return m.nearestWalkable(dest)
}

// lookup returns the cached field for a destination cell if it is still
// current, touching it in the LRU order. Stale fields are dropped.
func (m *Manager) lookup(dest CellCoord) (*FlowField, bool) {
	elem, ok := m.entries[dest]
	if !ok {
		return nil, false
	}
	f := elem.Value.(*FlowField)
	if f.generation != m.grid.generation {
		m.order.Remove(elem)
		delete(m.entries, dest)
		return nil, false
	}
	m.order.MoveToFront(elem)
	return f, true
}

// insert caches a freshly generated field, evicting the least recently
// used entry beyond capacity. A stale entry for the same destination is
// replaced.
func (m *Manager) insert(f *FlowField) {
	if elem, ok := m.entries[f.dest]; ok {
		m.order.Remove(elem)
		delete(m.entries, f.dest)
	}
	m.entries[f.dest] = m.order.PushFront(f)

	for m.order.Len() > m.capacity {
		oldest := m.order.Back()
		evicted := oldest.Value.(*FlowField)
		m.order.Remove(oldest)
		delete(m.entries, evicted.dest)
		slog.Debug("flow field evicted", "dest", evicted.dest)
	}
}

// nearestWalkable scans expanding square rings around center for the
// closest walkable cell, preferring the smallest ring and within a ring
// the enumeration order (top row, bottom row, left column, right column).
func (m *Manager) nearestWalkable(center CellCoord) (CellCoord, bool) {
	for ring := 1; ring <= m.maxRing; ring++ {
		for _, c := range ringCells(center, ring) {
			if m.grid.InBounds(c) && m.grid.CostAt(c) < ImpassableCost {
				return c, true
			}
		}
	}
	return CellCoord{}, false
}

// ringCells enumerates the square ring at Chebyshev distance r from
// center.
func ringCells(center CellCoord, r int) []CellCoord {
	cells := make([]CellCoord, 0, 8*r)
	for dx := -r; dx <= r; dx++ {
		cells = append(cells, CellCoord{X: center.X + dx, Y: center.Y - r})
		cells = append(cells, CellCoord{X: center.X + dx, Y: center.Y + r})
	}
	for dy := -r + 1; dy <= r-1; dy++ {
		cells = append(cells, CellCoord{X: center.X - r, Y: center.Y + dy})
		cells = append(cells, CellCoord{X: center.X + r, Y: center.Y + dy})
	}
	return cells
}
