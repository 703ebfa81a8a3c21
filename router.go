// SPDX-License-Identifier: MIT

package pcbroute

// GridRouter runs a batch single-trace, multi-source/multi-target A* over (x,y,layer)
// states with an octile heuristic. A router instance is stateless between
// calls to RouteMulti and may be reused for independent searches.
type GridRouter struct {
	viaCost int32
	hWeight float32
}

// NewGridRouter constructs a router. viaCost is the flat cost of an
// inter-layer transition; hWeight inflates the heuristic (1.0 is admissible
// A*, >1.0 trades optimality for speed).
func NewGridRouter(viaCost int32, hWeight float32) *GridRouter {
	return &GridRouter{viaCost: viaCost, hWeight: hWeight}
}

// RouteMulti searches obstacles for the cheapest path from any cell in
// sources to any cell in targets, expanding at most maxIterations nodes. It
// returns the path and the number of nodes popped-and-expanded, or a nil
// path and the iteration count reached if no path was found.
func (r *GridRouter) RouteMulti(obstacles *ObstacleMap, sources, targets []Cell, maxIterations uint32) (Path, uint32) {
	s := newSearch(obstacles.NumLayers(), r.viaCost, r.hWeight)
	s.init(sources, targets, maxIterations)
	s.runToCompletion(obstacles)

	if !s.found {
		return nil, s.iterations
	}
	return s.reconstructPath(), s.iterations
}
