// SPDX-License-Identifier: MIT

package pcbroute

import "github.com/pcbgrid/pcbroute/internal/gridkey"

// MaxSnapshotCells caps how many closed and frontier cells a Snapshot
// samples for visualization, so a large search does not force every
// rendered frame to carry its entire state.
const MaxSnapshotCells = 50_000

// Snapshot captures one step's worth of observable search state, for
// driving a visualization of the algorithm in progress.
type Snapshot struct {
	Iterations uint32

	// Popped is the cell popped last during this step, and HasPopped is false
	// if the step popped nothing (e.g. n == 0, or the search was already
	// done). The pop that reaches the iteration cap is reported here even
	// though it does not count towards Iterations.
	Popped    Cell
	HasPopped bool

	OpenLen   int
	ClosedLen int
	Found     bool
	Path      Path

	// ClosedCells and FrontierCells are sampled, not exhaustive: each is
	// capped at MaxSnapshotCells and their order is unspecified.
	ClosedCells   []Cell
	FrontierCells []Cell
}

// VisualRouter runs the same search as GridRouter, but exposes it as a
// resumable state machine so a caller can observe its progress one batch of
// iterations at a time.
type VisualRouter struct {
	viaCost int32
	hWeight float32
	s       *search
}

// NewVisualRouter constructs a stepwise router with the same cost
// parameters as NewGridRouter.
func NewVisualRouter(viaCost int32, hWeight float32) *VisualRouter {
	return &VisualRouter{viaCost: viaCost, hWeight: hWeight}
}

// Init resets all search state for a new search over obstacles.
func (r *VisualRouter) Init(obstacles *ObstacleMap, sources, targets []Cell, maxIterations uint32) {
	r.s = newSearch(obstacles.NumLayers(), r.viaCost, r.hWeight)
	r.s.init(sources, targets, maxIterations)
}

// Step performs up to n iterations against obstacles, stopping early if the
// search finds a target, empties its open list, or reaches its iteration
// cap, and returns a snapshot of the resulting state.
func (r *VisualRouter) Step(obstacles *ObstacleMap, n int) Snapshot {
	poppedKey, hasPopped := r.s.stepN(obstacles, n)

	snap := Snapshot{
		Iterations: r.s.iterations,
		HasPopped:  hasPopped,
		OpenLen:    r.s.open.Len(),
		ClosedLen:  len(r.s.closed),
		Found:      r.s.found,
	}
	if hasPopped {
		gx, gy, layer := gridkey.UnpackCell(poppedKey)
		snap.Popped = Cell{GX: gx, GY: gy, Layer: layer}
	}
	if r.s.found {
		snap.Path = r.s.reconstructPath()
	}

	snap.ClosedCells = sampleKeys(keysOf(r.s.closed), nil, MaxSnapshotCells)
	snap.FrontierCells = sampleKeys(keysOf(r.s.g), r.s.closed, MaxSnapshotCells)

	return snap
}

// keysOf adapts either of the two map shapes backing search state (the
// closed set's struct{} values and g-cost's int32 values) to a plain key
// slice for sampleKeys.
func keysOf[V any](m map[uint64]V) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// IsDone reports whether the search has reached a terminal state: a target
// was found, the open list emptied, or the iteration cap was reached.
func (r *VisualRouter) IsDone() bool {
	return r.s.terminal
}

// GetPath returns the final path, if the search found one.
func (r *VisualRouter) GetPath() (Path, bool) {
	if !r.s.found {
		return nil, false
	}
	return r.s.reconstructPath(), true
}

// GetIterations returns the number of nodes popped-and-expanded so far.
func (r *VisualRouter) GetIterations() uint32 {
	return r.s.iterations
}

// sampleKeys collects up to limit cells from keys, skipping any present in
// exclude. It is used both for the closed-set sample (exclude == nil) and
// the frontier sample (every g-cost key not yet closed).
func sampleKeys(keys []uint64, exclude map[uint64]struct{}, limit int) []Cell {
	out := make([]Cell, 0, min(len(keys), limit))
	for _, k := range keys {
		if exclude != nil {
			if _, skip := exclude[k]; skip {
				continue
			}
		}
		if len(out) >= limit {
			break
		}
		gx, gy, layer := gridkey.UnpackCell(k)
		out = append(out, Cell{GX: gx, GY: gy, Layer: layer})
	}
	return out
}
