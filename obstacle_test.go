// SPDX-License-Identifier: MIT

package pcbroute

import "testing"

func TestAddBlockedCellIgnoresOutOfRangeLayer(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(2)
	m.AddBlockedCell(1, 1, 5) // layer 5 >= numLayers(2)

	if m.IsBlocked(1, 1, 0) || m.IsBlocked(1, 1, 1) {
		t.Fatal("blocking an out-of-range layer must not affect in-range layers")
	}
}

func TestEndpointOverrideBeatsHardBlock(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBlockedCell(3, 4, 0)
	m.AddEndpointOverride(3, 4, 0)

	if m.IsBlocked(3, 4, 0) {
		t.Fatal("endpoint override must exempt a hard-blocked cell")
	}
}

func TestHardBlockDominatesBGAAllowedCell(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBGAZone(0, 0, 10, 10)
	m.AddBlockedCell(5, 5, 0)
	m.AddAllowedCell(5, 5)

	if !m.IsBlocked(5, 5, 0) {
		t.Fatal("a hard block inside a BGA zone must not be overridden by an allowed-cell")
	}
}

func TestBGAZoneAllowedCell(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBGAZone(0, 0, 10, 10)

	if !m.IsBlocked(5, 5, 0) {
		t.Fatal("a cell inside a BGA zone with no allowed-cell override must be blocked")
	}

	m.AddAllowedCell(5, 5)
	if m.IsBlocked(5, 5, 0) {
		t.Fatal("an allowed-cell inside a BGA zone must not be blocked")
	}
}

func TestCellOutsideZoneIsNeverBlockedByZone(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBGAZone(0, 0, 10, 10)

	if m.IsBlocked(20, 20, 0) {
		t.Fatal("a cell outside every BGA zone and every hard block must not be blocked")
	}
}

func TestStubProximityIsMonotoneMax(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.SetStubProximity(0, 0, 100)
	m.SetStubProximity(0, 0, 50) // lower cost must be a no-op
	if got := m.ProximityCost(0, 0); got != 100 {
		t.Fatalf("ProximityCost = %d, want 100 (monotone-max)", got)
	}

	m.SetStubProximity(0, 0, 200)
	if got := m.ProximityCost(0, 0); got != 200 {
		t.Fatalf("ProximityCost = %d, want 200", got)
	}
}

func TestClearStubProximityLeavesOtherStateIntact(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBlockedCell(1, 1, 0)
	m.SetStubProximity(2, 2, 500)
	m.ClearStubProximity()

	if m.ProximityCost(2, 2) != 0 {
		t.Fatal("ClearStubProximity must reset proximity costs")
	}
	if !m.IsBlocked(1, 1, 0) {
		t.Fatal("ClearStubProximity must not affect hard blocks")
	}
}

func TestClearEndpointOverridesLeavesOtherStateIntact(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBlockedCell(1, 1, 0)
	m.AddEndpointOverride(1, 1, 0)
	m.ClearEndpointOverrides()

	if !m.IsBlocked(1, 1, 0) {
		t.Fatal("clearing endpoint overrides must restore the hard block")
	}
}

func TestClearAllowedCellsLeavesOtherStateIntact(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBGAZone(0, 0, 10, 10)
	m.AddAllowedCell(5, 5)
	m.ClearAllowedCells()

	if !m.IsBlocked(5, 5, 0) {
		t.Fatal("clearing allowed-cells must restore BGA-zone blocking")
	}
}

func TestIsViaBlocked(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(1)
	m.AddBlockedVia(7, 7)
	if !m.IsViaBlocked(7, 7) {
		t.Fatal("explicitly blocked via must be blocked")
	}
	if m.IsViaBlocked(8, 8) {
		t.Fatal("an unrelated cell must not be via-blocked")
	}

	m.AddBGAZone(0, 0, 10, 10)
	if !m.IsViaBlocked(1, 1) {
		t.Fatal("a via inside a BGA zone with no allowed-cell must be blocked")
	}
	m.AddAllowedCell(1, 1)
	if m.IsViaBlocked(1, 1) {
		t.Fatal("an allowed-cell inside a BGA zone must permit a via")
	}
}

func TestDeepCloneIsIndependent(t *testing.T) {
	t.Parallel()

	m := NewObstacleMap(2)
	m.AddBlockedCell(1, 1, 0)
	m.SetStubProximity(2, 2, 10)

	clone := m.DeepClone()
	clone.AddBlockedCell(3, 3, 0)
	clone.SetStubProximity(2, 2, 999)

	if m.IsBlocked(3, 3, 0) {
		t.Fatal("mutating the clone must not affect the original")
	}
	if got := m.ProximityCost(2, 2); got != 10 {
		t.Fatalf("original ProximityCost = %d, want 10 (unaffected by clone mutation)", got)
	}
	if !clone.IsBlocked(1, 1, 0) {
		t.Fatal("the clone must carry over the original's state")
	}
}
