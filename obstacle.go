// SPDX-License-Identifier: MIT

package pcbroute

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/pcbgrid/pcbroute/internal/gridkey"
)

// zone is an axis-aligned, inclusive BGA exclusion rectangle.
type zone struct {
	minGX, minGY, maxGX, maxGY int32
}

func (z zone) contains(gx, gy int32) bool {
	return gx >= z.minGX && gx <= z.maxGX && gy >= z.minGY && gy <= z.maxGY
}

// ObstacleMap holds the per-layer blocked cells, blocked vias, BGA exclusion
// zones, endpoint overrides, and stub proximity costs that a search reads
// while routing. It is built up by the caller, then treated as read-only for
// the duration of a search; see IsBlocked and IsViaBlocked for the full
// blocking-predicate rules.
type ObstacleMap struct {
	numLayers int

	blockedCells     []map[uint64]struct{} // len == numLayers
	endpointOverride []map[uint64]struct{} // len == numLayers

	blockedVias map[uint64]struct{}
	proximity   map[uint64]int32

	zones        []zone
	allowedCells map[uint64]struct{}

	// blockedLayerMask is a derived accelerator: planar key -> bitset of
	// which layers are hard-blocked at that (gx,gy). It lets IsBlocked and
	// the router's via-transition enumeration skip the per-layer map lookup
	// entirely when no layer is blocked there, the same trick bart's own
	// BitSet256 plays for child-presence tests in its radix nodes.
	blockedLayerMask map[uint64]*bitset.BitSet
}

// NewObstacleMap constructs an empty obstacle map with numLayers layers.
func NewObstacleMap(numLayers int) *ObstacleMap {
	m := &ObstacleMap{
		numLayers:        numLayers,
		blockedCells:     make([]map[uint64]struct{}, numLayers),
		endpointOverride: make([]map[uint64]struct{}, numLayers),
		blockedVias:      make(map[uint64]struct{}),
		proximity:        make(map[uint64]int32),
		allowedCells:     make(map[uint64]struct{}),
		blockedLayerMask: make(map[uint64]*bitset.BitSet),
	}
	for i := range numLayers {
		m.blockedCells[i] = make(map[uint64]struct{})
		m.endpointOverride[i] = make(map[uint64]struct{})
	}
	return m
}

// NumLayers returns the number of layers this map was constructed with.
func (m *ObstacleMap) NumLayers() int {
	return m.numLayers
}

// AddBlockedCell marks (gx,gy,layer) as a hard obstacle. A layer outside
// [0,numLayers) is silently ignored.
func (m *ObstacleMap) AddBlockedCell(gx, gy int32, layer uint8) {
	if int(layer) >= m.numLayers {
		return
	}
	key := gridkey.Planar(gx, gy)
	m.blockedCells[layer][key] = struct{}{}

	mask, ok := m.blockedLayerMask[key]
	if !ok {
		mask = bitset.New(uint(m.numLayers))
		m.blockedLayerMask[key] = mask
	}
	mask.Set(uint(layer))
}

// AddBlockedVia marks (gx,gy) as a position where no via may be placed.
func (m *ObstacleMap) AddBlockedVia(gx, gy int32) {
	m.blockedVias[gridkey.Planar(gx, gy)] = struct{}{}
}

// AddBGAZone adds an inclusive axis-aligned exclusion rectangle. Zones
// accumulate; a cell is "in a zone" if it falls in any of them.
func (m *ObstacleMap) AddBGAZone(minGX, minGY, maxGX, maxGY int32) {
	m.zones = append(m.zones, zone{minGX, minGY, maxGX, maxGY})
}

// AddAllowedCell marks (gx,gy) as exempt from BGA-zone blocking. It does not
// exempt the cell from a hard block (see IsBlocked).
func (m *ObstacleMap) AddAllowedCell(gx, gy int32) {
	m.allowedCells[gridkey.Planar(gx, gy)] = struct{}{}
}

// ClearAllowedCells removes every allowed-cell override, leaving the rest of
// the obstacle state (hard blocks, zones, blocked vias, proximity) intact.
func (m *ObstacleMap) ClearAllowedCells() {
	clear(m.allowedCells)
}

// AddEndpointOverride marks (gx,gy,layer) as exempt from hard blocking. A
// layer outside [0,numLayers) is silently ignored.
func (m *ObstacleMap) AddEndpointOverride(gx, gy int32, layer uint8) {
	if int(layer) >= m.numLayers {
		return
	}
	m.endpointOverride[layer][gridkey.Planar(gx, gy)] = struct{}{}
}

// ClearEndpointOverrides removes every endpoint override, leaving the rest
// of the obstacle state intact.
func (m *ObstacleMap) ClearEndpointOverrides() {
	for _, layer := range m.endpointOverride {
		clear(layer)
	}
}

// SetStubProximity sets the soft proximity cost at (gx,gy) to the larger of
// its current value and cost: updates are monotone-max, so lowering the
// cost of an already-set cell is a no-op.
func (m *ObstacleMap) SetStubProximity(gx, gy int32, cost int32) {
	key := gridkey.Planar(gx, gy)
	if cur, ok := m.proximity[key]; ok && cur >= cost {
		return
	}
	m.proximity[key] = cost
}

// ClearStubProximity removes every proximity cost, leaving the rest of the
// obstacle state intact.
func (m *ObstacleMap) ClearStubProximity() {
	clear(m.proximity)
}

// IsBlocked implements the blocking predicate from the package design:
// a layer out of range is always blocked; a hard-blocked cell is passable
// only via an endpoint override (which is not affected by BGA allowed-cells);
// otherwise a cell inside a BGA zone is passable only via an allowed-cell.
func (m *ObstacleMap) IsBlocked(gx, gy int32, layer uint8) bool {
	if int(layer) >= m.numLayers {
		return true
	}

	key := gridkey.Planar(gx, gy)

	hard := false
	if mask, ok := m.blockedLayerMask[key]; ok {
		hard = mask.Test(uint(layer))
	}

	if hard {
		_, overridden := m.endpointOverride[layer][key]
		return !overridden
	}

	if m.inZone(gx, gy) {
		_, allowed := m.allowedCells[key]
		return !allowed
	}

	return false
}

// IsViaBlocked reports whether a via may not be placed at (gx,gy): either
// because it was explicitly blocked, or because it falls in a BGA zone
// without an allowed-cell override.
func (m *ObstacleMap) IsViaBlocked(gx, gy int32) bool {
	key := gridkey.Planar(gx, gy)
	if _, blocked := m.blockedVias[key]; blocked {
		return true
	}
	if m.inZone(gx, gy) {
		_, allowed := m.allowedCells[key]
		return !allowed
	}
	return false
}

// ProximityCost returns the soft cost added when a search steps onto
// (gx,gy), or zero if none was set.
func (m *ObstacleMap) ProximityCost(gx, gy int32) int32 {
	return m.proximity[gridkey.Planar(gx, gy)]
}

func (m *ObstacleMap) inZone(gx, gy int32) bool {
	for _, z := range m.zones {
		if z.contains(gx, gy) {
			return true
		}
	}
	return false
}

// DeepClone returns an independent copy of the obstacle map. Mutating the
// clone never affects the original and vice versa.
func (m *ObstacleMap) DeepClone() *ObstacleMap {
	clone := &ObstacleMap{
		numLayers:        m.numLayers,
		blockedCells:     make([]map[uint64]struct{}, m.numLayers),
		endpointOverride: make([]map[uint64]struct{}, m.numLayers),
		blockedVias:      make(map[uint64]struct{}, len(m.blockedVias)),
		proximity:        make(map[uint64]int32, len(m.proximity)),
		zones:            append([]zone(nil), m.zones...),
		allowedCells:     make(map[uint64]struct{}, len(m.allowedCells)),
		blockedLayerMask: make(map[uint64]*bitset.BitSet, len(m.blockedLayerMask)),
	}
	for i := range m.numLayers {
		clone.blockedCells[i] = cloneSet(m.blockedCells[i])
		clone.endpointOverride[i] = cloneSet(m.endpointOverride[i])
	}
	for k, v := range m.blockedVias {
		clone.blockedVias[k] = v
	}
	for k, v := range m.proximity {
		clone.proximity[k] = v
	}
	for k, v := range m.allowedCells {
		clone.allowedCells[k] = v
	}
	for k, mask := range m.blockedLayerMask {
		clone.blockedLayerMask[k] = mask.Clone()
	}
	return clone
}

func cloneSet(s map[uint64]struct{}) map[uint64]struct{} {
	out := make(map[uint64]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
