package sliver

import (
	"testing"

	"github.com/openbroker/resgraph/pkg/memgraph"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

func buildHost(t *testing.T) propgraph.Graph {
	t.Helper()
	store := memgraph.NewSharedStore()
	g, err := store.NewGraph("site")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	dels := model.NewDelegations(model.DelegationCapacity)
	if err := dels.Add(model.NewSinglePoolDelegation("del-1", model.DelegationCapacity, `{"core": 4, "ram": 64}`)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	encoded, err := dels.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	add := func(id string, class model.NodeClass, props map[string]string) {
		bag := map[string]string{model.PropName: id}
		for k, v := range props {
			bag[k] = v
		}
		if err := g.AddNode(id, class, bag); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	edge := func(a string, kind model.EdgeKind, b string) {
		if err := g.AddEdge(a, kind, b, nil); err != nil {
			t.Fatalf("AddEdge(%s-%s): %v", a, b, err)
		}
	}

	add("w1", model.ClassNetworkNode, map[string]string{
		model.PropSite:                "RENC",
		model.PropCapacities:          `{"core": 8, "ram": 128, "disk": 500}`,
		model.PropCapacityDelegations: encoded,
	})
	add("gpu1", model.ClassComponent, map[string]string{
		model.PropType:       "GPU",
		model.PropModel:      "RTX6000",
		model.PropCapacities: `{"unit": 1}`,
	})
	add("svc1", model.ClassNetworkService, map[string]string{
		model.PropType:  "OVS",
		model.PropLayer: "L2",
	})
	add("port1", model.ClassConnectionPoint, map[string]string{
		model.PropType:       "DedicatedPort",
		model.PropLabels:     `{"vlan": "100"}`,
		model.PropCapacities: `{"bw": 25}`,
	})
	edge("w1", model.EdgeHas, "gpu1")
	edge("gpu1", model.EdgeHas, "svc1")
	edge("svc1", model.EdgeConnects, "port1")
	return g
}

func TestFromNode_DeepReconstruction(t *testing.T) {
	g := buildHost(t)

	host, err := FromNode(g, "w1")
	if err != nil {
		t.Fatalf("FromNode: %v", err)
	}
	if host.Name != "w1" || host.Site != "RENC" {
		t.Errorf("host identity wrong: %+v", host)
	}
	if host.Capacities == nil || host.Capacities.Core != 8 || host.Capacities.RAM != 128 {
		t.Errorf("host capacities wrong: %+v", host.Capacities)
	}

	if len(host.Components) != 1 {
		t.Fatalf("expected one component, got %d", len(host.Components))
	}
	gpu := host.Components[0]
	if gpu.Type != "GPU" || gpu.Model != "RTX6000" || gpu.Capacities.Unit != 1 {
		t.Errorf("component wrong: %+v", gpu)
	}

	if len(gpu.NetworkServices) != 1 {
		t.Fatalf("expected one network service, got %d", len(gpu.NetworkServices))
	}
	svc := gpu.NetworkServices[0]
	if svc.Layer != "L2" {
		t.Errorf("service wrong: %+v", svc)
	}

	if len(svc.Interfaces) != 1 {
		t.Fatalf("expected one interface, got %d", len(svc.Interfaces))
	}
	port := svc.Interfaces[0]
	if port.Labels == nil || port.Labels.VLAN != "100" {
		t.Errorf("interface labels wrong: %+v", port.Labels)
	}
	if port.Capacities == nil || port.Capacities.Bandwidth != 25 {
		t.Errorf("interface capacities wrong: %+v", port.Capacities)
	}
}

func TestDelegatedCapacities_SumsEntries(t *testing.T) {
	g := buildHost(t)
	host, err := FromNode(g, "w1")
	if err != nil {
		t.Fatalf("FromNode: %v", err)
	}
	delegated, err := host.DelegatedCapacities()
	if err != nil {
		t.Fatalf("DelegatedCapacities: %v", err)
	}
	if delegated.Core != 4 || delegated.RAM != 64 {
		t.Errorf("delegated sum wrong: %+v", delegated)
	}
}

func TestFromNode_MissingNode(t *testing.T) {
	g := buildHost(t)
	if _, err := FromNode(g, "absent"); !propgraph.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
