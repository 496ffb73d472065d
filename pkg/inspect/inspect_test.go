package inspect

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ritzau/sybil-ranker/pkg/graph"
	"github.com/ritzau/sybil-ranker/pkg/input"
)

func build(t *testing.T, edges []graph.Edge) *graph.Store {
	t.Helper()
	g, err := graph.Build(edges)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func undirected(pairs ...[2]int) []graph.Edge {
	var edges []graph.Edge
	for _, p := range pairs {
		edges = append(edges, graph.Edge{From: p[0], To: p[1]}, graph.Edge{From: p[1], To: p[0]})
	}
	return edges
}

func TestInspectSymmetricPath(t *testing.T) {
	g := build(t, undirected([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}))

	r := Inspect(g, input.NewLabels([]int{0}, nil))

	if r.Nodes != 4 || r.Arcs != 6 {
		t.Errorf("Expected 4 nodes and 6 arcs, got %d and %d", r.Nodes, r.Arcs)
	}
	if r.Asymmetric != 0 {
		t.Errorf("Expected no asymmetric arcs, got %d", r.Asymmetric)
	}
	if r.Components != 1 || r.StronglyConnected != 1 {
		t.Errorf("Expected a single component, got %d weak and %d strong", r.Components, r.StronglyConnected)
	}
	if r.SeedHops != 3 {
		t.Errorf("Expected 3 hops from node 0 to node 3, got %d", r.SeedHops)
	}
	if len(r.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", r.Warnings())
	}
}

func TestInspectMultipleSeedsShortenHops(t *testing.T) {
	g := build(t, undirected([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 4}))

	r := Inspect(g, input.NewLabels([]int{0, 4}, nil))
	if r.SeedHops != 2 {
		t.Errorf("Expected node 2 to be 2 hops from the nearest seed, got %d", r.SeedHops)
	}
}

func TestInspectFindsProblems(t *testing.T) {
	edges := undirected([2]int{0, 1}, [2]int{3, 4})
	edges = append(edges, graph.Edge{From: 1, To: 5}) // one-way arc, node 5 has no out-arcs
	g := build(t, edges)

	r := Inspect(g, input.NewLabels([]int{0}, nil))

	if r.Asymmetric != 1 {
		t.Errorf("Expected 1 asymmetric arc, got %d", r.Asymmetric)
	}
	if !reflect.DeepEqual(r.AsymmetricSample, []graph.Edge{{From: 1, To: 5}}) {
		t.Errorf("Unexpected asymmetric sample %v", r.AsymmetricSample)
	}
	// nodes 2 and 5 have no out-arcs
	if !reflect.DeepEqual(r.ZeroDegree, []int{2, 5}) {
		t.Errorf("Expected zero-degree nodes [2 5], got %v", r.ZeroDegree)
	}
	// {0,1,5} {2} {3,4}
	if r.Components != 3 {
		t.Errorf("Expected 3 weak components, got %d", r.Components)
	}
	if r.StronglyConnected <= r.Components {
		t.Errorf("One-way arc should split strong components: %d strong, %d weak", r.StronglyConnected, r.Components)
	}
	if r.LargestComponent != 3 {
		t.Errorf("Expected largest component of 3 nodes, got %d", r.LargestComponent)
	}
	if r.SeededComponents != 1 || r.UnreachableFromSeed != 3 {
		t.Errorf("Expected 1 seeded component and 3 unreachable nodes, got %d and %d", r.SeededComponents, r.UnreachableFromSeed)
	}

	warnings := strings.Join(r.Warnings(), "\n")
	for _, want := range []string{"no reverse arc", "no out-arcs", "without a positive seed"} {
		if !strings.Contains(warnings, want) {
			t.Errorf("Expected warning containing %q, got:\n%s", want, warnings)
		}
	}
}

func TestInspectWithoutSeeds(t *testing.T) {
	g := build(t, undirected([2]int{0, 1}))

	r := Inspect(g, input.NewLabels(nil, []int{1}))
	if r.SeededComponents != 0 {
		t.Errorf("Expected no seeded components, got %d", r.SeededComponents)
	}
	if w := r.Warnings(); len(w) == 0 || !strings.Contains(w[0], "no positive seed") {
		t.Errorf("Expected the missing-seed warning first, got %v", w)
	}
}
