package engine

import (
	"reflect"
	"testing"

	"github.com/shaiso/dagrun/internal/domain"
)

func node(id, handler string, deps ...string) domain.NodeDefinition {
	if deps == nil {
		deps = []string{}
	}
	return domain.NodeDefinition{ID: id, Handler: handler, Dependencies: deps, Config: map[string]any{}}
}

func definition(nodes ...domain.NodeDefinition) *domain.WorkflowDefinition {
	return &domain.WorkflowDefinition{Name: "test", DAG: domain.DAGDefinition{Nodes: nodes}}
}

func TestBuildGraph_SimpleChain(t *testing.T) {
	g := BuildGraph(definition(
		node("A", "input"),
		node("B", "transform", "A"),
		node("C", "output", "B"),
	))

	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}

	if roots := g.Roots(); !reflect.DeepEqual(roots, []string{"A"}) {
		t.Errorf("expected roots [A], got %v", roots)
	}

	if got := g.ParentsOf("B"); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("node B should depend on A, got %v", got)
	}
	if got := g.Children("A"); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("node A should have child B, got %v", got)
	}
	if g.GetNode("C").InDegree != 1 {
		t.Errorf("expected in-degree 1 for C, got %d", g.GetNode("C").InDegree)
	}
}

func TestBuildGraph_Diamond(t *testing.T) {
	// A → B → D
	// A → C → D
	g := BuildGraph(definition(
		node("A", "input"),
		node("B", "llm_generate", "A"),
		node("C", "llm_generate", "A"),
		node("D", "output", "B", "C"),
	))

	if got := g.Children("A"); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("expected children [B C], got %v", got)
	}
	if got := g.ParentsOf("D"); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("expected parents [B C], got %v", got)
	}
	if g.GetNode("D").InDegree != 2 {
		t.Errorf("expected in-degree 2 for D, got %d", g.GetNode("D").InDegree)
	}
}

func TestRoots_DeclaredOrder(t *testing.T) {
	g := BuildGraph(definition(
		node("z", "input"),
		node("m", "transform", "z"),
		node("a", "input"),
		node("k", "input"),
	))

	want := []string{"z", "a", "k"}
	if got := g.Roots(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected roots %v, got %v", want, got)
	}
}

func TestTopologicalOrder(t *testing.T) {
	g := BuildGraph(definition(
		node("D", "output", "B", "C"),
		node("B", "transform", "A"),
		node("C", "transform", "A"),
		node("A", "input"),
	))

	order := g.TopologicalOrder()
	if len(order) != 4 {
		t.Fatalf("expected 4 nodes, got %v", order)
	}

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}

	for _, id := range g.Order {
		for _, dep := range g.ParentsOf(id) {
			if pos[dep] >= pos[id] {
				t.Errorf("%s must come before %s in %v", dep, id, order)
			}
		}
	}
}
