// Package inspect reports structural problems of an input graph that
// silently degrade ranking quality: missing reverse arcs, degree-0 nodes
// and parts of the graph that no trust seed can reach.
package inspect

import (
	"fmt"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/ritzau/sybil-ranker/pkg/graph"
	"github.com/ritzau/sybil-ranker/pkg/input"
)

// maxSamples caps the example arcs kept in a Report
const maxSamples = 10

// Report summarizes the structure of a graph relative to its seeds.
type Report struct {
	Nodes int `json:"nodes"`
	Arcs  int `json:"arcs"`

	ZeroDegree []int `json:"zero_degree"`

	// Arcs whose reverse arc is missing; both algorithms assume symmetry.
	Asymmetric       int          `json:"asymmetric"`
	AsymmetricSample []graph.Edge `json:"asymmetric_sample,omitempty"`

	Components          int `json:"components"`           // weakly connected
	StronglyConnected   int `json:"strongly_connected"`   // equals Components on a symmetric graph
	LargestComponent    int `json:"largest_component"`    // node count
	SeededComponents    int `json:"seeded_components"`    // holding a positive seed
	UnreachableFromSeed int `json:"unreachable_from_seed"` // nodes in unseeded components
	SeedHops            int `json:"seed_hops"`             // BFS depth needed to reach every seeded node
}

// Inspect analyzes g against the positive seeds of labels.
func Inspect(g *graph.Store, labels *input.Labels) Report {
	r := Report{
		Nodes:      g.NodeCount(),
		Arcs:       g.EdgeCount(),
		ZeroDegree: g.ZeroDegreeNodes(),
	}

	directed := g.Directed()
	for from := 0; from < g.NodeCount(); from++ {
		for _, to := range g.Neighbors(from) {
			if directed.HasEdgeFromTo(int64(to), int64(from)) {
				continue
			}
			r.Asymmetric++
			if len(r.AsymmetricSample) < maxSamples {
				r.AsymmetricSample = append(r.AsymmetricSample, graph.Edge{From: from, To: to})
			}
		}
	}
	r.StronglyConnected = len(topo.TarjanSCC(directed))

	undirected := g.Undirected()
	components := topo.ConnectedComponents(undirected)
	r.Components = len(components)

	seeds := labels.Positive
	for _, component := range components {
		r.LargestComponent = max(r.LargestComponent, len(component))

		seeded := false
		for _, n := range component {
			if seeds.Contains(int(n.ID())) {
				seeded = true
				break
			}
		}
		if seeded {
			r.SeededComponents++
		} else {
			r.UnreachableFromSeed += len(component)
		}
	}

	// Multi-source BFS through a virtual root linked to every seed, so
	// each seed sits at depth 1.
	root := simple.Node(g.NodeCount())
	undirected.AddNode(root)
	for _, id := range input.Sorted(seeds) {
		if id < g.NodeCount() {
			undirected.SetEdge(undirected.NewEdge(root, simple.Node(id)))
		}
	}
	bfs := traverse.BreadthFirst{}
	bfs.Walk(undirected, root, func(_ gonumgraph.Node, depth int) bool {
		r.SeedHops = max(r.SeedHops, depth-1)
		return false
	})

	return r
}

// Warnings returns human readable findings, most severe first.
func (r Report) Warnings() []string {
	var warnings []string
	if r.SeededComponents == 0 {
		warnings = append(warnings, "no positive seed in the graph, every score will be the prior")
	}
	if r.Asymmetric > 0 {
		warnings = append(warnings, fmt.Sprintf("%d arcs have no reverse arc, e.g. %v", r.Asymmetric, r.AsymmetricSample))
	}
	if n := len(r.ZeroDegree); n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d nodes have no out-arcs and will score 0 under sybilrank", n))
	}
	if r.UnreachableFromSeed > 0 {
		warnings = append(warnings, fmt.Sprintf("%d nodes are in components without a positive seed", r.UnreachableFromSeed))
	}
	return warnings
}
