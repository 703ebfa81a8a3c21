// SPDX-License-Identifier: MIT

// Package pcbroute implements a grid-based A* router for printed circuit
// board nets.
//
// Three search flavours share the same cost model and expansion skeleton:
//
//   - GridRouter:    batch single-trace A*, returns a path or none.
//   - VisualRouter:  the same search exposed as a resumable step machine
//     with snapshots, for driving a visualization.
//   - DiffPairRouter: joint A* over a pair of coupled traces, whose state
//     adds a relative orientation and whose expansion moves both traces
//     together.
//
// All three search an [ObstacleMap] — a per-layer blocked-cell set, blocked
// vias, BGA exclusion zones, endpoint overrides, and a soft stub-proximity
// cost field — and never mutate it; a search instance may be reused across
// independent obstacle maps.
//
// Costs are integer-valued: a planar diagonal step costs DiagCost, an
// orthogonal step OrthoCost, and an inter-layer via costs whatever the
// router was constructed with. All three flavours use an octile heuristic.
// For GridRouter and VisualRouter it is admissible and consistent at
// hWeight == 1.0; DiffPairRouter measures it to the target centre while its
// goal test accepts any state within the goal tolerance, so its heuristic
// can overestimate even at hWeight == 1.0. A larger hWeight trades
// optimality for a faster, greedier search.
package pcbroute
