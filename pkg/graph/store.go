package graph

import (
	"errors"
	"fmt"
)

// Edge is a directed record read from a graph file.
// An undirected connection is expected to appear as two edges.
type Edge struct {
	From int
	To   int
}

// Store is an immutable adjacency built once from an edge list.
// Out-arcs are kept in compressed sparse row form, in input order.
type Store struct {
	offsets []int     // offsets[n]..offsets[n+1] index into targets
	targets []int     // neighbor ids
	weights []float64 // centered weight per arc, nil for unweighted stores
	weight  float64   // raw weight passed to BuildWeighted
}

// Build creates an unweighted store. The node count is one plus the
// largest id seen on either side of an edge.
func Build(edges []Edge) (*Store, error) {
	return build(edges, nil)
}

// BuildWeighted creates a store whose arcs all carry weight-0.5.
// The weight must lie strictly between 0 and 1.
func BuildWeighted(edges []Edge, weight float64) (*Store, error) {
	if !(weight > 0 && weight < 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	centered := weight - 0.5
	s, err := build(edges, &centered)
	if err != nil {
		return nil, err
	}
	s.weight = weight
	return s, nil
}

func build(edges []Edge, centered *float64) (*Store, error) {
	nodeCount := 0
	for i, e := range edges {
		if e.From == e.To {
			return nil, fmt.Errorf("%w: self-loop on node %d (edge %d)", ErrInvalidEdge, e.From, i)
		}
		if e.From < 0 || e.To < 0 {
			return nil, fmt.Errorf("%w: negative node id in edge %d (%d, %d)", ErrInvalidEdge, i, e.From, e.To)
		}
		nodeCount = max(nodeCount, e.From+1, e.To+1)
	}

	// Counting pass, then fill. Arcs keep the order they were read in.
	offsets := make([]int, nodeCount+1)
	for _, e := range edges {
		offsets[e.From+1]++
	}
	for n := 0; n < nodeCount; n++ {
		offsets[n+1] += offsets[n]
	}

	targets := make([]int, len(edges))
	cursor := make([]int, nodeCount)
	copy(cursor, offsets[:nodeCount])
	for _, e := range edges {
		targets[cursor[e.From]] = e.To
		cursor[e.From]++
	}

	s := &Store{offsets: offsets, targets: targets}
	if centered != nil {
		s.weights = make([]float64, len(edges))
		for i := range s.weights {
			s.weights[i] = *centered
		}
	}
	return s, nil
}

// NodeCount returns N; valid ids are [0, N).
func (s *Store) NodeCount() int {
	return len(s.offsets) - 1
}

// EdgeCount returns the number of directed arcs, duplicates included.
func (s *Store) EdgeCount() int {
	return len(s.targets)
}

// Degree returns the number of out-arcs of a node.
func (s *Store) Degree(node int) int {
	return s.offsets[node+1] - s.offsets[node]
}

// Neighbors returns the out-neighbors of a node. The slice aliases the
// store and must not be modified.
func (s *Store) Neighbors(node int) []int {
	return s.targets[s.offsets[node]:s.offsets[node+1]]
}

// Weighted reports whether the store was built with BuildWeighted.
func (s *Store) Weighted() bool {
	return s.weights != nil
}

// Weight returns the uncentered weight the store was built with, or 0 for
// an unweighted store.
func (s *Store) Weight() float64 {
	return s.weight
}

// WeightedNeighbors returns the out-neighbors of a node together with the
// centered weight of each arc. Weights are nil on an unweighted store.
func (s *Store) WeightedNeighbors(node int) ([]int, []float64) {
	lo, hi := s.offsets[node], s.offsets[node+1]
	if s.weights == nil {
		return s.targets[lo:hi], nil
	}
	return s.targets[lo:hi], s.weights[lo:hi]
}

// ZeroDegreeNodes returns the ids that have no out-arcs, in ascending order.
func (s *Store) ZeroDegreeNodes() []int {
	var nodes []int
	for n := 0; n < s.NodeCount(); n++ {
		if s.Degree(n) == 0 {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

//--------------------------ERROR-CODES--------------------------

var ErrInvalidEdge = errors.New("invalid edge")
var ErrInvalidWeight = errors.New("edge weight must be in (0, 1)")
