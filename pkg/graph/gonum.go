package graph

import (
	"gonum.org/v1/gonum/graph/simple"
)

// Directed returns the store as a gonum directed graph, one gonum node per
// id in [0, N). Parallel arcs collapse into a single gonum edge.
func (s *Store) Directed() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for n := 0; n < s.NodeCount(); n++ {
		g.AddNode(simple.Node(n))
	}

	for from := 0; from < s.NodeCount(); from++ {
		for _, to := range s.Neighbors(from) {
			// Add edge if it doesn't already exist
			if !g.HasEdgeFromTo(int64(from), int64(to)) {
				g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
			}
		}
	}
	return g
}

// Undirected returns the store as a gonum undirected graph, treating every
// arc as a connection regardless of whether its reverse arc was present.
func (s *Store) Undirected() *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for n := 0; n < s.NodeCount(); n++ {
		g.AddNode(simple.Node(n))
	}

	for from := 0; from < s.NodeCount(); from++ {
		for _, to := range s.Neighbors(from) {
			if !g.HasEdgeBetween(int64(from), int64(to)) {
				g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
			}
		}
	}
	return g
}
