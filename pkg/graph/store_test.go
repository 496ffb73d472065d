package graph

import (
	"errors"
	"reflect"
	"testing"
)

// path3 is the path 0 - 1 - 2 with both directions present.
var path3 = []Edge{{0, 1}, {1, 0}, {1, 2}, {2, 1}}

func TestBuild(t *testing.T) {
	s, err := Build(path3)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if s.NodeCount() != 3 {
		t.Errorf("Expected 3 nodes, got %d", s.NodeCount())
	}
	if s.EdgeCount() != 4 {
		t.Errorf("Expected 4 arcs, got %d", s.EdgeCount())
	}

	expectedDegrees := []int{1, 2, 1}
	for n, want := range expectedDegrees {
		if got := s.Degree(n); got != want {
			t.Errorf("Degree(%d) = %d, want %d", n, got, want)
		}
	}

	if got := s.Neighbors(1); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("Neighbors(1) = %v, want [0 2]", got)
	}
	if s.Weighted() {
		t.Error("Build() should produce an unweighted store")
	}
}

func TestBuildKeepsInputOrder(t *testing.T) {
	s, err := Build([]Edge{{0, 3}, {0, 1}, {0, 2}, {0, 1}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := s.Neighbors(0); !reflect.DeepEqual(got, []int{3, 1, 2, 1}) {
		t.Errorf("Neighbors(0) = %v, want [3 1 2 1]", got)
	}
	if s.Degree(0) != 4 {
		t.Errorf("Duplicate arcs must count towards degree, got %d", s.Degree(0))
	}
}

func TestBuildNodeCount(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
		want  int
	}{
		{"empty", nil, 0},
		{"single arc", []Edge{{0, 1}}, 2},
		{"max on target side", []Edge{{2, 9}}, 10},
		{"max on source side", []Edge{{7, 1}, {1, 7}}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(tt.edges)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if s.NodeCount() != tt.want {
				t.Errorf("NodeCount() = %d, want %d", s.NodeCount(), tt.want)
			}
		})
	}
}

func TestBuildRejectsSelfLoop(t *testing.T) {
	_, err := Build([]Edge{{0, 1}, {1, 1}})
	if !errors.Is(err, ErrInvalidEdge) {
		t.Fatalf("Expected ErrInvalidEdge, got %v", err)
	}

	_, err = BuildWeighted([]Edge{{4, 4}}, 0.6)
	if !errors.Is(err, ErrInvalidEdge) {
		t.Fatalf("Expected ErrInvalidEdge from BuildWeighted, got %v", err)
	}
}

func TestBuildRejectsNegativeID(t *testing.T) {
	if _, err := Build([]Edge{{-1, 2}}); !errors.Is(err, ErrInvalidEdge) {
		t.Fatalf("Expected ErrInvalidEdge, got %v", err)
	}
}

func TestBuildWeighted(t *testing.T) {
	s, err := BuildWeighted(path3, 0.6)
	if err != nil {
		t.Fatalf("BuildWeighted() error = %v", err)
	}
	if !s.Weighted() {
		t.Fatal("Expected a weighted store")
	}
	if s.Weight() != 0.6 {
		t.Errorf("Weight() = %v, want 0.6", s.Weight())
	}

	neighbors, weights := s.WeightedNeighbors(1)
	if !reflect.DeepEqual(neighbors, []int{0, 2}) {
		t.Errorf("WeightedNeighbors(1) ids = %v, want [0 2]", neighbors)
	}
	for _, w := range weights {
		if diff := w - 0.1; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("Expected centered weight 0.1, got %v", w)
		}
	}
}

func TestBuildWeightedRejectsWeight(t *testing.T) {
	for _, w := range []float64{0, 1, -0.2, 1.5} {
		if _, err := BuildWeighted(path3, w); !errors.Is(err, ErrInvalidWeight) {
			t.Errorf("BuildWeighted(weight=%v) error = %v, want ErrInvalidWeight", w, err)
		}
	}
}

func TestZeroDegreeNodes(t *testing.T) {
	// node 1 never appears, node 3 only appears as a target
	s, err := Build([]Edge{{0, 2}, {2, 0}, {2, 3}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := s.ZeroDegreeNodes(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("ZeroDegreeNodes() = %v, want [1 3]", got)
	}
}

func TestGonumViews(t *testing.T) {
	s, err := Build([]Edge{{0, 1}, {1, 0}, {0, 1}, {2, 1}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	d := s.Directed()
	if d.Nodes().Len() != 3 {
		t.Errorf("Expected 3 gonum nodes, got %d", d.Nodes().Len())
	}
	if d.Edges().Len() != 3 {
		t.Errorf("Expected parallel arcs to collapse into 3 edges, got %d", d.Edges().Len())
	}
	if !d.HasEdgeFromTo(2, 1) || d.HasEdgeFromTo(1, 2) {
		t.Error("Directed view should keep arc direction")
	}

	u := s.Undirected()
	if u.Edges().Len() != 2 {
		t.Errorf("Expected 2 undirected edges, got %d", u.Edges().Len())
	}
}
