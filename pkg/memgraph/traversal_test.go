package memgraph

import (
	"testing"

	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// buildTopology creates a small two-host topology:
//
//	n1 -has- c1 -has- ns1 -connects- cp1 -connects- l1 -connects- cp2 -connects- ns2 -has- c2 -has- n2
func buildTopology(t *testing.T, store propgraph.Store) propgraph.Graph {
	t.Helper()
	g := mustGraph(t, store, "topo")
	addNode(t, g, "n1", model.ClassNetworkNode, nil)
	addNode(t, g, "n2", model.ClassNetworkNode, nil)
	addNode(t, g, "c1", model.ClassComponent, nil)
	addNode(t, g, "c2", model.ClassComponent, nil)
	addNode(t, g, "ns1", model.ClassNetworkService, nil)
	addNode(t, g, "ns2", model.ClassNetworkService, nil)
	addNode(t, g, "cp1", model.ClassConnectionPoint, nil)
	addNode(t, g, "cp2", model.ClassConnectionPoint, nil)
	addNode(t, g, "l1", model.ClassLink, nil)

	edges := []struct {
		a, b string
		kind model.EdgeKind
	}{
		{"n1", "c1", model.EdgeHas},
		{"c1", "ns1", model.EdgeHas},
		{"ns1", "cp1", model.EdgeConnects},
		{"cp1", "l1", model.EdgeConnects},
		{"l1", "cp2", model.EdgeConnects},
		{"cp2", "ns2", model.EdgeConnects},
		{"ns2", "c2", model.EdgeHas},
		{"c2", "n2", model.EdgeHas},
	}
	for _, e := range edges {
		if err := g.AddEdge(e.a, e.kind, e.b, nil); err != nil {
			t.Fatalf("AddEdge(%s-%s) failed: %v", e.a, e.b, err)
		}
	}
	return g
}

func TestGetFirstNeighbor(t *testing.T) {
	backends(t, func(t *testing.T, store propgraph.Store) {
		g := buildTopology(t, store)

		got, err := g.GetFirstNeighbor("cp1", model.EdgeConnects, model.ClassLink)
		if err != nil {
			t.Fatalf("GetFirstNeighbor failed: %v", err)
		}
		if len(got) != 1 || got[0] != "l1" {
			t.Errorf("Expected [l1], got %v", got)
		}

		// No match is an empty result, not an error.
		got, err = g.GetFirstNeighbor("cp1", model.EdgeHas, model.ClassLink)
		if err != nil {
			t.Fatalf("GetFirstNeighbor failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected empty result, got %v", got)
		}
	})
}

func TestGetFirstAndSecondNeighbor(t *testing.T) {
	backends(t, func(t *testing.T, store propgraph.Store) {
		g := buildTopology(t, store)

		// cp1 -connects-> Link -connects-> ConnectionPoint finds the peer over the link.
		pairs, err := g.GetFirstAndSecondNeighbor("cp1",
			model.EdgeConnects, model.ClassLink,
			model.EdgeConnects, model.ClassConnectionPoint)
		if err != nil {
			t.Fatalf("GetFirstAndSecondNeighbor failed: %v", err)
		}
		if len(pairs) != 1 || pairs[0].First != "l1" || pairs[0].Second != "cp2" {
			t.Errorf("Expected [{l1 cp2}], got %v", pairs)
		}
	})
}

func TestGetFirstAndSecondNeighbor_ExcludesOrigin(t *testing.T) {
	backends(t, func(t *testing.T, store propgraph.Store) {
		g := mustGraph(t, store, "cyc")
		addNode(t, g, "a", model.ClassConnectionPoint, nil)
		addNode(t, g, "b", model.ClassLink, nil)
		// A cycle: a-b and b-a are the same undirected edge; the two-hop
		// walk a->b->a must not report the origin.
		if err := g.AddEdge("a", model.EdgeConnects, "b", nil); err != nil {
			t.Fatalf("AddEdge failed: %v", err)
		}

		pairs, err := g.GetFirstAndSecondNeighbor("a",
			model.EdgeConnects, model.ClassLink,
			model.EdgeConnects, model.ClassConnectionPoint)
		if err != nil {
			t.Fatalf("GetFirstAndSecondNeighbor failed: %v", err)
		}
		if len(pairs) != 0 {
			t.Errorf("Origin must be excluded from results, got %v", pairs)
		}
	})
}

func TestShortestPath(t *testing.T) {
	backends(t, func(t *testing.T, store propgraph.Store) {
		g := buildTopology(t, store)

		path, err := g.ShortestPath("n1", "n2", model.EdgeAny)
		if err != nil {
			t.Fatalf("ShortestPath failed: %v", err)
		}
		want := []string{"n1", "c1", "ns1", "cp1", "l1", "cp2", "ns2", "c2", "n2"}
		if len(path) != len(want) {
			t.Fatalf("Expected path of %d nodes, got %v", len(want), path)
		}
		for i := range want {
			if path[i] != want[i] {
				t.Fatalf("Expected %v, got %v", want, path)
			}
		}
	})
}

func TestShortestPath_RelFilter(t *testing.T) {
	backends(t, func(t *testing.T, store propgraph.Store) {
		g := buildTopology(t, store)

		// Restricted to connects edges, n1 cannot reach its own component.
		path, err := g.ShortestPath("n1", "c1", model.EdgeConnects)
		if err != nil {
			t.Fatalf("ShortestPath failed: %v", err)
		}
		if len(path) != 0 {
			t.Errorf("Expected empty path under rel filter, got %v", path)
		}

		// connects edges alone do carry cp1 to cp2.
		path, err = g.ShortestPath("cp1", "cp2", model.EdgeConnects)
		if err != nil {
			t.Fatalf("ShortestPath failed: %v", err)
		}
		if len(path) != 3 {
			t.Errorf("Expected cp1-l1-cp2, got %v", path)
		}
	})
}

func TestShortestPath_UnreachableIsEmpty(t *testing.T) {
	backends(t, func(t *testing.T, store propgraph.Store) {
		g := mustGraph(t, store, "iso")
		addNode(t, g, "a", model.ClassNetworkNode, nil)
		addNode(t, g, "b", model.ClassNetworkNode, nil)

		path, err := g.ShortestPath("a", "b", model.EdgeAny)
		if err != nil {
			t.Fatalf("ShortestPath failed: %v", err)
		}
		if len(path) != 0 {
			t.Errorf("Expected empty path, got %v", path)
		}
	})
}

func TestPathWithRequiredHops(t *testing.T) {
	backends(t, func(t *testing.T, store propgraph.Store) {
		g := mustGraph(t, store, "hops")
		for _, id := range []string{"a", "b", "c", "d"} {
			addNode(t, g, id, model.ClassConnectionPoint, nil)
		}
		// A diamond: a-b-d and a-c-d.
		for _, e := range [][2]string{{"a", "b"}, {"b", "d"}, {"a", "c"}, {"c", "d"}} {
			if err := g.AddEdge(e[0], model.EdgeConnects, e[1], nil); err != nil {
				t.Fatalf("AddEdge failed: %v", err)
			}
		}

		path, err := g.PathWithRequiredHops("a", "d", []string{"c"}, 4)
		if err != nil {
			t.Fatalf("PathWithRequiredHops failed: %v", err)
		}
		if len(path) != 3 || path[0] != "a" || path[1] != "c" || path[2] != "d" {
			t.Errorf("Expected a-c-d, got %v", path)
		}

		// A cutoff too small to cover the hops yields an empty path.
		path, err = g.PathWithRequiredHops("a", "d", []string{"b", "c"}, 3)
		if err != nil {
			t.Fatalf("PathWithRequiredHops failed: %v", err)
		}
		if len(path) != 0 {
			t.Errorf("Expected no loop-free path through b and c within cutoff 3, got %v", path)
		}
	})
}
