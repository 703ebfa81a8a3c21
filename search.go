// SPDX-License-Identifier: MIT

package pcbroute

import (
	"github.com/pcbgrid/pcbroute/internal/gridkey"
	"github.com/pcbgrid/pcbroute/internal/openset"
)

// search is the single-trace A* engine shared by GridRouter (run to
// completion in one call) and VisualRouter (driven one step at a time). Its
// fields are exactly the state the design calls out as needing to be
// explicit so that step boundaries are deterministic checkpoints: the open
// heap, g-costs, parents, closed set, and iteration counter.
type search struct {
	numLayers int
	viaCost   int32
	hWeight   float32

	open    *openset.Queue
	g       map[uint64]int32
	parents map[uint64]uint64
	closed  map[uint64]struct{}

	targets    []Cell
	targetKeys map[uint64]struct{}

	iterations    uint32
	maxIterations uint32
	terminal      bool
	found         bool
	foundKey      uint64
}

func newSearch(numLayers int, viaCost int32, hWeight float32) *search {
	return &search{numLayers: numLayers, viaCost: viaCost, hWeight: hWeight}
}

// init resets all search state and seeds the open list with every source.
func (s *search) init(sources, targets []Cell, maxIterations uint32) {
	s.open = openset.New()
	s.g = make(map[uint64]int32)
	s.parents = make(map[uint64]uint64)
	s.closed = make(map[uint64]struct{})
	s.targets = targets
	s.targetKeys = make(map[uint64]struct{}, len(targets))
	s.iterations = 0
	s.maxIterations = maxIterations
	s.terminal = false
	s.found = false
	s.foundKey = 0

	for _, t := range targets {
		s.targetKeys[gridkey.Cell(t.GX, t.GY, t.Layer)] = struct{}{}
	}

	for _, src := range sources {
		key := gridkey.Cell(src.GX, src.GY, src.Layer)
		if old, ok := s.g[key]; ok && old <= 0 {
			continue
		}
		s.g[key] = 0
		h := s.heuristic(src.GX, src.GY, src.Layer)
		s.open.Push(h, 0, key)
	}
}

func (s *search) heuristic(gx, gy int32, layer uint8) int32 {
	var best int32
	haveBest := false
	for _, t := range s.targets {
		raw := octileRaw(gx-t.GX, gy-t.GY)
		if layer != t.Layer {
			raw += s.viaCost
		}
		if !haveBest || raw < best {
			best, haveBest = raw, true
		}
	}
	return int32(s.hWeight * float32(best))
}

func (s *search) isTarget(key uint64) bool {
	_, ok := s.targetKeys[key]
	return ok
}

// runIteration performs one pop-check-expand cycle: §4.3's numbered
// algorithm, check-before-increment. popped/hasPopped report what was
// physically popped this call, even if it was a stale closed-set duplicate
// or the entry that tripped the iteration cap; done reports whether the
// search has reached a terminal state (found, exhausted, or capped).
func (s *search) runIteration(obstacles *ObstacleMap) (popped uint64, hasPopped bool, done bool) {
	e, ok := s.open.Pop()
	if !ok {
		s.terminal = true
		return 0, false, true
	}

	if s.iterations >= s.maxIterations {
		s.terminal = true
		return e.Key, true, true
	}
	s.iterations++

	if _, seen := s.closed[e.Key]; seen {
		return e.Key, true, false
	}
	s.closed[e.Key] = struct{}{}

	if s.isTarget(e.Key) {
		s.found = true
		s.foundKey = e.Key
		s.terminal = true
		return e.Key, true, true
	}

	s.expand(obstacles, e.Key, e.G)
	return e.Key, true, false
}

func (s *search) runToCompletion(obstacles *ObstacleMap) {
	for {
		if _, _, done := s.runIteration(obstacles); done {
			return
		}
	}
}

// stepN runs up to n iterations, stopping early on a terminal state. Once the
// search is terminal, further calls do nothing.
func (s *search) stepN(obstacles *ObstacleMap, n int) (popped uint64, hasPopped bool) {
	for range n {
		if s.terminal {
			break
		}
		p, has, done := s.runIteration(obstacles)
		if has {
			popped, hasPopped = p, true
		}
		if done {
			break
		}
	}
	return popped, hasPopped
}

func (s *search) expand(obstacles *ObstacleMap, fromKey uint64, fromG int32) {
	gx, gy, layer := gridkey.UnpackCell(fromKey)

	for _, d := range planarDirs {
		nx, ny := gx+d.dx, gy+d.dy
		if obstacles.IsBlocked(nx, ny, layer) {
			continue
		}
		cost := planarStepCost(d.dx, d.dy) + obstacles.ProximityCost(nx, ny)
		s.relax(fromKey, nx, ny, layer, fromG+cost)
	}

	if obstacles.IsViaBlocked(gx, gy) {
		return
	}
	for l := range s.numLayers {
		if uint8(l) == layer {
			continue
		}
		if obstacles.IsBlocked(gx, gy, uint8(l)) {
			continue
		}
		cost := s.viaCost + 2*obstacles.ProximityCost(gx, gy)
		s.relax(fromKey, gx, gy, uint8(l), fromG+cost)
	}
}

func (s *search) relax(fromKey uint64, nx, ny int32, nlayer uint8, newG int32) {
	key := gridkey.Cell(nx, ny, nlayer)
	if old, ok := s.g[key]; ok && old <= newG {
		return
	}
	s.g[key] = newG
	s.parents[key] = fromKey
	h := s.heuristic(nx, ny, nlayer)
	s.open.Push(newG+h, newG, key)
}

// reconstructPath walks parents back from foundKey to a source (a key with
// no parent) and returns the source-first path.
func (s *search) reconstructPath() Path {
	var keys []uint64
	k := s.foundKey
	for {
		keys = append(keys, k)
		parent, ok := s.parents[k]
		if !ok {
			break
		}
		k = parent
	}

	path := make(Path, len(keys))
	for i, k := range keys {
		gx, gy, layer := gridkey.UnpackCell(k)
		path[len(keys)-1-i] = Cell{GX: gx, GY: gy, Layer: layer}
	}
	return path
}
