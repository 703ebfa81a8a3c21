// SPDX-License-Identifier: MIT

package pcbroute

import "testing"

func TestVisualRouterMatchesGridRouter(t *testing.T) {
	t.Parallel()

	obstacles := NewObstacleMap(2)
	obstacles.AddBlockedCell(5, 0, 0)
	obstacles.AddBlockedCell(5, 1, 0)
	obstacles.SetStubProximity(3, 0, 75)

	sources := []Cell{{GX: 0, GY: 0, Layer: 0}}
	targets := []Cell{{GX: 10, GY: 0, Layer: 0}}

	want, wantIter := NewGridRouter(4000, 1.0).RouteMulti(obstacles, sources, targets, 1_000_000)

	vr := NewVisualRouter(4000, 1.0)
	vr.Init(obstacles, sources, targets, 1_000_000)
	for !vr.IsDone() {
		vr.Step(obstacles, 8)
	}

	got, ok := vr.GetPath()
	if !ok {
		t.Fatal("VisualRouter driven to completion found no path, GridRouter found one")
	}
	if len(got) != len(want) {
		t.Fatalf("path length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paths diverge at %d: %v vs %v", i, got[i], want[i])
		}
	}
	if vr.GetIterations() != wantIter {
		t.Fatalf("iterations = %d, want %d", vr.GetIterations(), wantIter)
	}
}

func TestVisualRouterStepZeroIsNoop(t *testing.T) {
	t.Parallel()

	obstacles := NewObstacleMap(1)
	vr := NewVisualRouter(1000, 1.0)
	vr.Init(obstacles, []Cell{{0, 0, 0}}, []Cell{{5, 5, 0}}, 1000)

	snap := vr.Step(obstacles, 0)
	if snap.HasPopped {
		t.Fatal("step(n=0) must not report a popped cell")
	}
	if snap.Iterations != 0 {
		t.Fatalf("step(n=0) iterations = %d, want 0", snap.Iterations)
	}
	if vr.IsDone() {
		t.Fatal("step(n=0) must not terminate the search")
	}
}

func TestVisualRouterSnapshotFieldsAdvance(t *testing.T) {
	t.Parallel()

	obstacles := NewObstacleMap(1)
	vr := NewVisualRouter(1000, 1.0)
	vr.Init(obstacles, []Cell{{0, 0, 0}}, []Cell{{50, 50, 0}}, 1_000_000)

	snap := vr.Step(obstacles, 5)
	if !snap.HasPopped {
		t.Fatal("expected at least one popped cell after 5 iterations on a non-trivial search")
	}
	if snap.Iterations == 0 {
		t.Fatal("expected nonzero iteration count")
	}
	if snap.ClosedLen == 0 {
		t.Fatal("expected a nonempty closed set after expanding nodes")
	}
	if snap.Found {
		t.Fatal("target is far away, should not be found after only 5 iterations")
	}
}

func TestVisualRouterMaxIterationsZero(t *testing.T) {
	t.Parallel()

	obstacles := NewObstacleMap(1)
	vr := NewVisualRouter(1000, 1.0)
	vr.Init(obstacles, []Cell{{0, 0, 0}}, []Cell{{1, 0, 0}}, 0)

	snap := vr.Step(obstacles, 10)
	if snap.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", snap.Iterations)
	}
	if !vr.IsDone() {
		t.Fatal("search with max_iterations=0 must be immediately done")
	}
	if _, ok := vr.GetPath(); ok {
		t.Fatal("no path should be found with max_iterations=0")
	}
}
