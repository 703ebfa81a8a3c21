// SPDX-License-Identifier: MIT

package pcbroute

import (
	"github.com/pcbgrid/pcbroute/internal/gridkey"
	"github.com/pcbgrid/pcbroute/internal/openset"
)

// DefaultDiffPairTolerance is the Chebyshev goal tolerance, in grid units,
// used when a DiffPairRouter is not given an explicit one. The original
// implementation this router is modeled on hard-codes 5; this router keeps
// that default but exposes it as a parameter.
const DefaultDiffPairTolerance int32 = 5

// DiffPairEndpoint is a source or target for a differential-pair search: the
// absolute grid positions of the P and N traces on one layer. The pair's
// centre and orientation are derived from it, not supplied directly.
type DiffPairEndpoint struct {
	PGX, PGY int32
	NGX, NGY int32
	Layer    uint8
}

// orientOffset is the per-constituent half-spacing offset, in half_spacing
// units, for one of the 4 diff-pair orientations.
type orientOffset struct{ pdx, pdy, ndx, ndy int32 }

var orientOffsets = [4]orientOffset{
	{0, 1, 0, -1},  // 0: P at +Y, N at -Y
	{1, 0, -1, 0},  // 1: P at +X, N at -X
	{1, 1, -1, -1}, // 2: P at +X+Y, N at -X-Y
	{-1, 1, 1, -1}, // 3: P at -X+Y, N at +X-Y
}

// candidateOrientations lists, for each of the 8 planarDirs entries, the
// orientations to try at the destination cell, in preference order.
var candidateOrientations = [8][3]uint8{
	{0, 2, 3}, // E
	{3, 0, 1}, // NE
	{1, 2, 3}, // N
	{2, 0, 1}, // NW
	{0, 2, 3}, // W
	{3, 0, 1}, // SW
	{1, 2, 3}, // S
	{2, 0, 1}, // SE
}

// pairPositions returns the absolute (gx,gy) of the P and N traces for a
// pair centred at (cx,cy) with the given orientation.
func pairPositions(cx, cy int32, orient uint8, halfSpacing int32) (p, n Cell2) {
	o := orientOffsets[orient]
	return Cell2{cx + o.pdx*halfSpacing, cy + o.pdy*halfSpacing},
		Cell2{cx + o.ndx*halfSpacing, cy + o.ndy*halfSpacing}
}

// Cell2 is a bare planar position, used internally to carry P/N offsets
// before they are stamped with a layer into a Cell.
type Cell2 struct{ GX, GY int32 }

// endpointCentre derives the pair centre and orientation from an absolute
// P/N endpoint: centre is the integer midpoint, and orientation is 1 if the
// P/N vector's dominant axis is X, else 0. Diagonal endpoint geometries
// therefore always collapse to orientation 0 or 1; this is a property of
// the algorithm this router reproduces, not a bug in this implementation.
func endpointCentre(e DiffPairEndpoint) (cx, cy int32, orient uint8) {
	cx = (e.PGX + e.NGX) / 2
	cy = (e.PGY + e.NGY) / 2
	dx := e.PGX - e.NGX
	dy := e.PGY - e.NGY
	if abs32(dx) > abs32(dy) {
		orient = 1
	}
	return cx, cy, orient
}

type pairTarget struct {
	cx, cy int32
	layer  uint8
}

// DiffPairRouter runs a joint A* over a pair of electrically coupled traces:
// its state is (gx,gy,layer,orientation) and every expansion moves both
// constituents together, keeping them half_spacing apart.
type DiffPairRouter struct {
	viaCost     int32
	hWeight     float32
	halfSpacing int32
	tolerance   int32
}

// NewDiffPairRouter constructs a differential-pair router. halfSpacing is
// the grid-unit offset from the pair centre to each constituent trace.
func NewDiffPairRouter(viaCost int32, hWeight float32, halfSpacing int32) *DiffPairRouter {
	return &DiffPairRouter{viaCost: viaCost, hWeight: hWeight, halfSpacing: halfSpacing, tolerance: DefaultDiffPairTolerance}
}

// SetGoalTolerance overrides the Chebyshev goal tolerance (default
// DefaultDiffPairTolerance).
func (r *DiffPairRouter) SetGoalTolerance(tolerance int32) {
	r.tolerance = tolerance
}

// RouteDiffPair searches obstacles for the cheapest joint path from any
// source pair to within tolerance grid units of any target pair's centre, on
// the target's layer. It returns the P and N paths (equal in length, with
// matching per-index layers) or two nils if no path was found, along with
// the number of nodes popped-and-expanded. Empty sources or targets return
// (nil, nil, 0) immediately.
func (r *DiffPairRouter) RouteDiffPair(obstacles *ObstacleMap, sources, targets []DiffPairEndpoint, maxIterations uint32) (pPath, nPath Path, iterations uint32) {
	if len(sources) == 0 || len(targets) == 0 {
		return nil, nil, 0
	}

	s := newPairSearch(obstacles.NumLayers(), r.viaCost, r.hWeight, r.halfSpacing, r.tolerance)
	s.init(sources, targets, maxIterations)
	s.runToCompletion(obstacles)

	if !s.found {
		return nil, nil, s.iterations
	}
	pPath, nPath = s.reconstructPaths()
	return pPath, nPath, s.iterations
}

// pairSearch is the diff-pair A* engine, structured identically to search
// but over oriented pair-centre states with a proximity goal test instead
// of exact key membership.
type pairSearch struct {
	numLayers   int
	viaCost     int32
	hWeight     float32
	halfSpacing int32
	tolerance   int32

	open    *openset.Queue
	g       map[uint64]int32
	parents map[uint64]uint64
	closed  map[uint64]struct{}

	targets []pairTarget

	iterations    uint32
	maxIterations uint32
	found         bool
	foundKey      uint64
}

func newPairSearch(numLayers int, viaCost int32, hWeight float32, halfSpacing, tolerance int32) *pairSearch {
	return &pairSearch{numLayers: numLayers, viaCost: viaCost, hWeight: hWeight, halfSpacing: halfSpacing, tolerance: tolerance}
}

func (s *pairSearch) init(sources, targets []DiffPairEndpoint, maxIterations uint32) {
	s.open = openset.New()
	s.g = make(map[uint64]int32)
	s.parents = make(map[uint64]uint64)
	s.closed = make(map[uint64]struct{})
	s.iterations = 0
	s.maxIterations = maxIterations
	s.found = false

	s.targets = make([]pairTarget, len(targets))
	for i, t := range targets {
		cx, cy, _ := endpointCentre(t)
		s.targets[i] = pairTarget{cx: cx, cy: cy, layer: t.Layer}
	}

	for _, src := range sources {
		cx, cy, orient := endpointCentre(src)
		key := gridkey.Oriented(cx, cy, src.Layer, orient)
		if old, ok := s.g[key]; ok && old <= 0 {
			continue
		}
		s.g[key] = 0
		h := s.heuristic(cx, cy, src.Layer)
		s.open.Push(h, 0, key)
	}
}

func (s *pairSearch) heuristic(cx, cy int32, layer uint8) int32 {
	var best int32
	haveBest := false
	for _, t := range s.targets {
		raw := octileRaw(cx-t.cx, cy-t.cy)
		if layer != t.layer {
			raw += 2 * s.viaCost
		}
		if !haveBest || raw < best {
			best, haveBest = raw, true
		}
	}
	return int32(s.hWeight * float32(best))
}

func (s *pairSearch) isGoal(key uint64) bool {
	cx, cy, layer, _ := gridkey.UnpackOriented(key)
	for _, t := range s.targets {
		if layer != t.layer {
			continue
		}
		if abs32(cx-t.cx) <= s.tolerance && abs32(cy-t.cy) <= s.tolerance {
			return true
		}
	}
	return false
}

func (s *pairSearch) runIteration(obstacles *ObstacleMap) (done bool) {
	e, ok := s.open.Pop()
	if !ok {
		return true
	}
	if s.iterations >= s.maxIterations {
		return true
	}
	s.iterations++

	if _, seen := s.closed[e.Key]; seen {
		return false
	}
	s.closed[e.Key] = struct{}{}

	if s.isGoal(e.Key) {
		s.found = true
		s.foundKey = e.Key
		return true
	}

	s.expand(obstacles, e.Key, e.G)
	return false
}

func (s *pairSearch) runToCompletion(obstacles *ObstacleMap) {
	for {
		if s.runIteration(obstacles) {
			return
		}
	}
}

func (s *pairSearch) expand(obstacles *ObstacleMap, fromKey uint64, fromG int32) {
	cx, cy, layer, orient := gridkey.UnpackOriented(fromKey)

	for dirIdx, d := range planarDirs {
		ncx, ncy := cx+d.dx, cy+d.dy
		for _, o2 := range candidateOrientations[dirIdx] {
			p, n := pairPositions(ncx, ncy, o2, s.halfSpacing)
			if obstacles.IsBlocked(p.GX, p.GY, layer) || obstacles.IsBlocked(n.GX, n.GY, layer) {
				continue
			}
			cost := planarStepCost(d.dx, d.dy)
			if o2 != orient {
				cost += OrientChangeCost
			}
			cost += obstacles.ProximityCost(p.GX, p.GY) + obstacles.ProximityCost(n.GX, n.GY)
			key := gridkey.Oriented(ncx, ncy, layer, o2)
			s.relax(fromKey, key, fromG+cost, ncx, ncy, layer)
		}
	}

	pCur, nCur := pairPositions(cx, cy, orient, s.halfSpacing)
	if obstacles.IsViaBlocked(pCur.GX, pCur.GY) || obstacles.IsViaBlocked(nCur.GX, nCur.GY) {
		return
	}
	for l := range s.numLayers {
		if uint8(l) == layer {
			continue
		}
		if obstacles.IsBlocked(pCur.GX, pCur.GY, uint8(l)) || obstacles.IsBlocked(nCur.GX, nCur.GY, uint8(l)) {
			continue
		}
		cost := 2*s.viaCost + 2*(obstacles.ProximityCost(pCur.GX, pCur.GY)+obstacles.ProximityCost(nCur.GX, nCur.GY))
		key := gridkey.Oriented(cx, cy, uint8(l), orient)
		s.relax(fromKey, key, fromG+cost, cx, cy, uint8(l))
	}
}

func (s *pairSearch) relax(fromKey, key uint64, newG int32, cx, cy int32, layer uint8) {
	if old, ok := s.g[key]; ok && old <= newG {
		return
	}
	s.g[key] = newG
	s.parents[key] = fromKey
	h := s.heuristic(cx, cy, layer)
	s.open.Push(newG+h, newG, key)
}

// reconstructPaths walks parents back from foundKey to a source and
// projects every state through its P/N positions.
func (s *pairSearch) reconstructPaths() (pPath, nPath Path) {
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

	pPath = make(Path, len(keys))
	nPath = make(Path, len(keys))
	for i, k := range keys {
		cx, cy, layer, orient := gridkey.UnpackOriented(k)
		p, n := pairPositions(cx, cy, orient, s.halfSpacing)
		idx := len(keys) - 1 - i
		pPath[idx] = Cell{GX: p.GX, GY: p.GY, Layer: layer}
		nPath[idx] = Cell{GX: n.GX, GY: n.GY, Layer: layer}
	}
	return pPath, nPath
}
