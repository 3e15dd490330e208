package bqm

import (
	"testing"

	"github.com/openbroker/resgraph/pkg/memgraph"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

func addHost(t *testing.T, g propgraph.Graph, id, site string, caps string, components map[string][2]string) {
	t.Helper()
	if err := g.AddNode(id, model.ClassNetworkNode, map[string]string{
		model.PropName:       id,
		model.PropSite:       site,
		model.PropCapacities: caps,
	}); err != nil {
		t.Fatalf("AddNode(%s): %v", id, err)
	}
	for compID, tm := range components {
		if err := g.AddNode(compID, model.ClassComponent, map[string]string{
			model.PropName:       compID,
			model.PropType:       tm[0],
			model.PropModel:      tm[1],
			model.PropCapacities: `{"unit": 1}`,
		}); err != nil {
			t.Fatalf("AddNode(%s): %v", compID, err)
		}
		if err := g.AddEdge(id, model.EdgeHas, compID, nil); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
}

func TestAggregate_PerSiteComposites(t *testing.T) {
	store := memgraph.NewSharedStore()
	src, err := store.NewGraph("cbm")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	addHost(t, src, "w1", "RENC", `{"core": 8, "ram": 128, "disk": 500}`,
		map[string][2]string{"w1-gpu": {"GPU", "RTX6000"}})
	addHost(t, src, "w2", "RENC", `{"core": 8, "ram": 128, "disk": 500}`,
		map[string][2]string{"w2-gpu": {"GPU", "RTX6000"}, "w2-nic": {"SmartNIC", "CX6"}})
	addHost(t, src, "w3", "UKY", `{"core": 4, "ram": 64, "disk": 250}`, nil)

	bqm, err := NewAggregator(store, nil, nil).Aggregate(src, "bqm")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	classes, props, err := bqm.GetNodeProperties("RENC")
	if err != nil {
		t.Fatalf("GetNodeProperties(RENC): %v", err)
	}
	if classes[0] != string(model.ClassCompositeNode) {
		t.Errorf("composite class wrong: %v", classes)
	}
	caps, err := model.CapacitiesFromJSON(props[model.PropCapacities])
	if err != nil {
		t.Fatalf("decode capacities: %v", err)
	}
	if caps.Core != 16 || caps.RAM != 256 || caps.Disk != 1000 {
		t.Errorf("site capacities wrong: %+v", caps)
	}

	if !bqm.HasNode("UKY") {
		t.Error("missing UKY composite")
	}

	gpus, err := bqm.GetFirstNeighbor("RENC", model.EdgeHas, model.ClassComponent)
	if err != nil {
		t.Fatalf("GetFirstNeighbor: %v", err)
	}
	if len(gpus) != 2 {
		t.Fatalf("expected one aggregated component per (type, model) group, got %v", gpus)
	}

	_, gpuProps, err := bqm.GetNodeProperties("RENC-GPU-RTX6000")
	if err != nil {
		t.Fatalf("GetNodeProperties(RENC-GPU-RTX6000): %v", err)
	}
	gpuCaps, err := model.CapacitiesFromJSON(gpuProps[model.PropCapacities])
	if err != nil {
		t.Fatalf("decode component capacities: %v", err)
	}
	if gpuCaps.Unit != 2 {
		t.Errorf("GPU group should sum two units, got %+v", gpuCaps)
	}
}

func TestAggregate_DelegatedCapacitiesSummed(t *testing.T) {
	store := memgraph.NewSharedStore()
	src, err := store.NewGraph("cbm")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	dels := model.NewDelegations(model.DelegationCapacity)
	if err := dels.Add(model.NewSinglePoolDelegation("adm-a", model.DelegationCapacity, `{"core": 4}`)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	encoded, err := dels.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if err := src.AddNode("w1", model.ClassNetworkNode, map[string]string{
		model.PropName:                "w1",
		model.PropSite:                "RENC",
		model.PropCapacities:          `{"core": 8}`,
		model.PropCapacityDelegations: encoded,
	}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	bqm, err := NewAggregator(store, nil, nil).Aggregate(src, "bqm")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	_, props, err := bqm.GetNodeProperties("RENC")
	if err != nil {
		t.Fatalf("GetNodeProperties: %v", err)
	}
	delegated, err := model.CapacitiesFromJSON(props[model.PropCapacityAllocations])
	if err != nil {
		t.Fatalf("decode allocations: %v", err)
	}
	if delegated.Core != 4 {
		t.Errorf("delegated sum wrong: %+v", delegated)
	}
}

func TestAggregate_SkipsSitelessNodes(t *testing.T) {
	store := memgraph.NewSharedStore()
	src, err := store.NewGraph("cbm")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	if err := src.AddNode("orphan", model.ClassNetworkNode, map[string]string{model.PropName: "orphan"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	bqm, err := NewAggregator(store, nil, nil).Aggregate(src, "bqm")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	nodes, err := bqm.ListNodes()
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("siteless hosts must not produce composites, got %v", nodes)
	}
}
