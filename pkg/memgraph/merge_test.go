package memgraph

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

func TestMergeNodes_DefaultKeepsCaller(t *testing.T) {
	store := NewSharedStore()
	g1 := mustGraph(t, store, "g1")
	g2 := mustGraph(t, store, "g2")
	addNode(t, g1, "n1", model.ClassNetworkNode, map[string]string{model.PropSite: "RENC"})
	addNode(t, g2, "n1", model.ClassNetworkNode, map[string]string{model.PropSite: "UKY"})

	if err := g1.MergeNodes("n1", g2, nil); err != nil {
		t.Fatalf("MergeNodes failed: %v", err)
	}

	_, props, err := g1.GetNodeProperties("n1")
	if err != nil {
		t.Fatalf("GetNodeProperties failed: %v", err)
	}
	if props[model.PropSite] != "RENC" {
		t.Errorf("Default policy should keep caller's value, got %q", props[model.PropSite])
	}
	if store.Graph("g2").HasNode("n1") {
		t.Error("Merged-away node should be gone from g2")
	}
}

func TestMergeNodes_OverwriteAndCombine(t *testing.T) {
	store := NewSharedStore()
	g1 := mustGraph(t, store, "g1")
	g2 := mustGraph(t, store, "g2")
	addNode(t, g1, "n1", model.ClassNetworkNode, map[string]string{
		model.PropSite:  "RENC",
		model.PropLayer: "L2",
	})
	addNode(t, g2, "n1", model.ClassNetworkNode, map[string]string{
		model.PropSite:  "UKY",
		model.PropLayer: "L3",
	})

	policy := propgraph.MergePolicy{
		model.PropSite:  propgraph.MergeOverwrite,
		model.PropLayer: propgraph.MergeCombine,
	}
	if err := g1.MergeNodes("n1", g2, policy); err != nil {
		t.Fatalf("MergeNodes failed: %v", err)
	}

	_, props, err := g1.GetNodeProperties("n1")
	if err != nil {
		t.Fatalf("GetNodeProperties failed: %v", err)
	}
	if props[model.PropSite] != "UKY" {
		t.Errorf("Overwrite should take other's value, got %q", props[model.PropSite])
	}
	var combined []string
	if err := json.Unmarshal([]byte(props[model.PropLayer]), &combined); err != nil {
		t.Fatalf("Combine should produce a JSON list, got %q", props[model.PropLayer])
	}
	if len(combined) != 2 || combined[0] != "L2" || combined[1] != "L3" {
		t.Errorf("Expected [L2 L3], got %v", combined)
	}
}

func TestMergeNodes_RewiresEdges(t *testing.T) {
	store := NewSharedStore()
	g1 := mustGraph(t, store, "g1")
	g2 := mustGraph(t, store, "g2")
	addNode(t, g1, "n1", model.ClassNetworkNode, nil)
	addNode(t, g2, "n1", model.ClassNetworkNode, nil)
	addNode(t, g2, "c1", model.ClassComponent, nil)
	if err := g2.AddEdge("n1", model.EdgeHas, "c1", nil); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	if err := g1.MergeNodes("n1", g2, nil); err != nil {
		t.Fatalf("MergeNodes failed: %v", err)
	}

	// c1 still lives in g2; after re-tagging it into g1 the rewired edge
	// becomes visible in g1's scope.
	if err := store.Graph("g2").UpdateNodeProperty("c1", model.PropGraphID, "g1"); err != nil {
		t.Fatalf("Retag failed: %v", err)
	}
	neighbors, err := g1.GetFirstNeighbor("n1", model.EdgeHas, model.ClassComponent)
	if err != nil {
		t.Fatalf("GetFirstNeighbor failed: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0] != "c1" {
		t.Errorf("Expected rewired edge to c1, got %v", neighbors)
	}
}

func TestMergeNodes_UnsupportedOnDisjoint(t *testing.T) {
	store := NewDisjointStore()
	g1 := mustGraph(t, store, "g1")
	g2 := mustGraph(t, store, "g2")
	addNode(t, g1, "n1", model.ClassNetworkNode, nil)
	addNode(t, g2, "n1", model.ClassNetworkNode, nil)

	err := g1.MergeNodes("n1", g2, nil)
	if !errors.Is(err, propgraph.ErrUnsupportedOperation) {
		t.Errorf("Expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestMergeNodes_MissingNodeFails(t *testing.T) {
	store := NewSharedStore()
	g1 := mustGraph(t, store, "g1")
	g2 := mustGraph(t, store, "g2")
	addNode(t, g1, "n1", model.ClassNetworkNode, nil)

	err := g1.MergeNodes("n1", g2, nil)
	if !errors.Is(err, propgraph.ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
}
