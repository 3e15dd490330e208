package propgraph_test

import (
	"testing"

	"github.com/openbroker/resgraph/pkg/memgraph"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// buildResourceTree creates two hosts joined by a link:
//
//	n1 -has- c1 -has- ns1 -connects- cp1 -connects- l1 -connects- cp2 -connects- ns2 -has- c2 -has- n2
func buildResourceTree(t *testing.T) propgraph.Graph {
	t.Helper()
	store := memgraph.NewSharedStore()
	g, err := store.NewGraph("site")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	classes := map[string]model.NodeClass{
		"n1": model.ClassNetworkNode, "c1": model.ClassComponent,
		"ns1": model.ClassNetworkService, "cp1": model.ClassConnectionPoint,
		"l1": model.ClassLink, "cp2": model.ClassConnectionPoint,
		"ns2": model.ClassNetworkService, "c2": model.ClassComponent,
		"n2": model.ClassNetworkNode,
	}
	for id, class := range classes {
		if err := g.AddNode(id, class, map[string]string{model.PropName: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	edges := [][3]string{
		{"n1", string(model.EdgeHas), "c1"},
		{"c1", string(model.EdgeHas), "ns1"},
		{"ns1", string(model.EdgeConnects), "cp1"},
		{"cp1", string(model.EdgeConnects), "l1"},
		{"l1", string(model.EdgeConnects), "cp2"},
		{"cp2", string(model.EdgeConnects), "ns2"},
		{"c2", string(model.EdgeHas), "ns2"},
		{"n2", string(model.EdgeHas), "c2"},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], model.EdgeKind(e[1]), e[2], nil); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestRemoveNetworkNode_CascadesThroughResourceTree(t *testing.T) {
	g := buildResourceTree(t)

	if err := propgraph.RemoveNetworkNode(g, "n1"); err != nil {
		t.Fatalf("RemoveNetworkNode: %v", err)
	}
	for _, gone := range []string{"n1", "c1", "ns1", "cp1", "l1"} {
		if g.HasNode(gone) {
			t.Errorf("%s should be removed by the cascade", gone)
		}
	}
	// The far side of the link stays intact.
	for _, kept := range []string{"cp2", "ns2", "c2", "n2"} {
		if !g.HasNode(kept) {
			t.Errorf("%s should survive removal of the other host", kept)
		}
	}
}

func TestRemoveConnectionPoint_DropsDanglingLink(t *testing.T) {
	g := buildResourceTree(t)

	if err := propgraph.RemoveConnectionPoint(g, "cp1"); err != nil {
		t.Fatalf("RemoveConnectionPoint: %v", err)
	}
	if g.HasNode("cp1") || g.HasNode("l1") {
		t.Error("removing an endpoint of a two-endpoint link must drop the link")
	}
	if !g.HasNode("cp2") {
		t.Error("peer connection point must survive")
	}
}

func TestRemoveComponent_KeepsOwner(t *testing.T) {
	g := buildResourceTree(t)

	if err := propgraph.RemoveComponent(g, "c2"); err != nil {
		t.Fatalf("RemoveComponent: %v", err)
	}
	if g.HasNode("c2") || g.HasNode("ns2") || g.HasNode("cp2") {
		t.Error("component cascade incomplete")
	}
	if !g.HasNode("n2") {
		t.Error("owning node must not be removed with its component")
	}
}
