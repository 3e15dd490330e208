package cbm

import (
	"errors"
	"reflect"
	"testing"

	"github.com/openbroker/resgraph/pkg/memgraph"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

func newBroker(t *testing.T, store propgraph.Store) *Broker {
	t.Helper()
	b, err := NewBroker(store, "cbm", nil, nil)
	if err != nil {
		t.Fatalf("NewBroker: %v", err)
	}
	return b
}

// buildADM creates a single-node delegation model holding one
// delegation entry of the given type on node n1.
func buildADM(t *testing.T, store propgraph.Store, graphID string, dt model.DelegationType, details string) propgraph.Graph {
	t.Helper()
	g, err := store.NewGraph(graphID)
	if err != nil {
		t.Fatalf("NewGraph(%s): %v", graphID, err)
	}
	ds := model.NewDelegations(dt)
	if err := ds.Add(model.NewSinglePoolDelegation("del-orig", dt, details)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	encoded, err := ds.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	props := map[string]string{
		model.PropName: "n1",
		model.PropSite: "RENC",
		dt.PropKey():   encoded,
	}
	if err := g.AddNode("n1", model.ClassNetworkNode, props); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	return g
}

func cbmNodeProps(t *testing.T, b *Broker, nodeID string) map[string]string {
	t.Helper()
	_, props, err := b.Graph().GetNodeProperties(nodeID)
	if err != nil {
		t.Fatalf("GetNodeProperties(%s): %v", nodeID, err)
	}
	return props
}

func TestMergeADM_BootstrapRekeysDelegations(t *testing.T) {
	store := memgraph.NewSharedStore()
	b := newBroker(t, store)
	admA := buildADM(t, store, "A", model.DelegationCapacity, `{"core": 4}`)

	if err := b.MergeADM(admA); err != nil {
		t.Fatalf("MergeADM: %v", err)
	}

	props := cbmNodeProps(t, b, "n1")
	dels, err := model.DelegationsFromJSON(props[model.PropCapacityDelegations], model.DelegationCapacity)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !dels.Has("A") || dels.Has("del-orig") {
		t.Errorf("delegation entries should be rekeyed under the model's graph id, got %v", dels.IDs())
	}
	ids, err := admGraphIDs(props)
	if err != nil {
		t.Fatalf("admGraphIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"A"}) {
		t.Errorf("membership = %v, want [A]", ids)
	}

	// Source model is untouched.
	if !admA.HasNode("n1") {
		t.Error("merge must consume a scratch clone, not the source model")
	}
}

func TestMergeADM_CommonNodeAccumulates(t *testing.T) {
	store := memgraph.NewSharedStore()
	b := newBroker(t, store)
	admA := buildADM(t, store, "A", model.DelegationCapacity, `{"core": 4}`)
	admB := buildADM(t, store, "B", model.DelegationLabel, `{"vlan": "100"}`)

	if err := b.MergeADM(admA); err != nil {
		t.Fatalf("MergeADM(A): %v", err)
	}
	if err := b.MergeADM(admB); err != nil {
		t.Fatalf("MergeADM(B): %v", err)
	}

	props := cbmNodeProps(t, b, "n1")
	ids, err := admGraphIDs(props)
	if err != nil {
		t.Fatalf("admGraphIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"A", "B"}) {
		t.Fatalf("membership = %v, want [A B]", ids)
	}
	caps, err := model.DelegationsFromJSON(props[model.PropCapacityDelegations], model.DelegationCapacity)
	if err != nil {
		t.Fatalf("decode capacities: %v", err)
	}
	if !caps.Has("A") || caps.Size() != 1 {
		t.Errorf("capacity dictionary = %v, want exactly A's entry", caps.IDs())
	}
	labels, err := model.DelegationsFromJSON(props[model.PropLabelDelegations], model.DelegationLabel)
	if err != nil {
		t.Fatalf("decode labels: %v", err)
	}
	if !labels.Has("B") || labels.Size() != 1 {
		t.Errorf("label dictionary = %v, want exactly B's entry", labels.IDs())
	}

	nodes, err := b.Graph().ListNodes()
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 1 {
		t.Errorf("common node should be contracted, got %v", nodes)
	}
}

func TestMergeADM_SameADMTwiceFails(t *testing.T) {
	store := memgraph.NewSharedStore()
	b := newBroker(t, store)
	admA := buildADM(t, store, "A", model.DelegationCapacity, `{"core": 4}`)

	if err := b.MergeADM(admA); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	err := b.MergeADM(admA)
	if !errors.Is(err, model.ErrDuplicateDelegation) {
		t.Fatalf("second merge of the same model: got %v, want ErrDuplicateDelegation", err)
	}
}

func TestUnmergeADM_Inverse(t *testing.T) {
	store := memgraph.NewSharedStore()
	b := newBroker(t, store)
	admA := buildADM(t, store, "A", model.DelegationCapacity, `{"core": 4}`)
	admB := buildADM(t, store, "B", model.DelegationLabel, `{"vlan": "100"}`)

	if err := b.MergeADM(admA); err != nil {
		t.Fatalf("MergeADM(A): %v", err)
	}
	if err := b.MergeADM(admB); err != nil {
		t.Fatalf("MergeADM(B): %v", err)
	}

	if err := b.UnmergeADM("B"); err != nil {
		t.Fatalf("UnmergeADM(B): %v", err)
	}
	props := cbmNodeProps(t, b, "n1")
	ids, err := admGraphIDs(props)
	if err != nil {
		t.Fatalf("admGraphIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"A"}) {
		t.Fatalf("membership after unmerge = %v, want [A]", ids)
	}
	if props[model.PropLabelDelegations] != "" {
		t.Errorf("B's label entries should be stripped, got %s", props[model.PropLabelDelegations])
	}

	if err := b.UnmergeADM("A"); err != nil {
		t.Fatalf("UnmergeADM(A): %v", err)
	}
	if b.Graph().HasNode("n1") {
		t.Error("node contributed only by A must be deleted with A")
	}
}

func TestSnapshotRollback(t *testing.T) {
	store := memgraph.NewSharedStore()
	b := newBroker(t, store)
	admA := buildADM(t, store, "A", model.DelegationCapacity, `{"core": 4}`)
	admB := buildADM(t, store, "B", model.DelegationLabel, `{"vlan": "100"}`)

	if err := b.MergeADM(admA); err != nil {
		t.Fatalf("MergeADM(A): %v", err)
	}
	snapshotID, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if err := b.MergeADM(admB); err != nil {
		t.Fatalf("MergeADM(B): %v", err)
	}

	if err := b.Rollback(snapshotID); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	props := cbmNodeProps(t, b, "n1")
	ids, err := admGraphIDs(props)
	if err != nil {
		t.Fatalf("admGraphIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"A"}) {
		t.Errorf("rolled-back membership = %v, want [A]", ids)
	}
	if props[model.PropLabelDelegations] != "" {
		t.Errorf("rollback should discard B's contribution, got %s", props[model.PropLabelDelegations])
	}
}
