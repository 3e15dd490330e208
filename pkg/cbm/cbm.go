// Package cbm maintains the combined broker model: the union of every
// site's delegation models, merged one at a time into a single graph.
// Each contributed node remembers which delegation models it came from,
// so models can be unmerged again without disturbing the rest.
package cbm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/metrics"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// Broker owns the live combined model. Merging requires a shared-store
// backend, since common nodes are contracted across graphs.
type Broker struct {
	store   propgraph.Store
	graph   propgraph.Graph
	log     logging.Logger
	metrics *metrics.Registry
}

// NewBroker creates a broker with an empty combined model under cbmID.
func NewBroker(store propgraph.Store, cbmID string, log logging.Logger, m *metrics.Registry) (*Broker, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	g, err := store.NewGraph(cbmID)
	if err != nil {
		return nil, err
	}
	return &Broker{store: store, graph: g, log: log, metrics: m}, nil
}

// Graph returns the live combined model.
func (b *Broker) Graph() propgraph.Graph { return b.graph }

// MergeADM folds one delegation model into the combined model. The
// source graph is left untouched; a scratch clone is consumed instead.
// Merging the same model twice fails with ErrDuplicateDelegation.
func (b *Broker) MergeADM(adm propgraph.Graph) error {
	err := b.mergeADM(adm)
	b.metrics.RecordMerge("merge", err)
	if err != nil {
		return err
	}
	b.log.Info("delegation model merged",
		logging.GraphID(b.graph.ID()), logging.String("adm_graph_id", adm.ID()))
	return nil
}

func (b *Broker) mergeADM(adm propgraph.Graph) error {
	scratch, err := adm.Clone(uuid.New().String())
	if err != nil {
		return err
	}
	admID := adm.ID()

	scratchNodes, err := scratch.ListNodes()
	if err != nil {
		return err
	}
	for _, nodeID := range scratchNodes {
		if err := rekeyDelegations(scratch, nodeID, admID); err != nil {
			return err
		}
		if err := setADMGraphIDs(scratch, nodeID, []string{admID}); err != nil {
			return err
		}
	}

	cbmNodes, err := b.graph.ListNodes()
	if err != nil {
		return err
	}
	if len(cbmNodes) == 0 {
		// First model: adopt the scratch wholesale.
		return b.retagAll(scratch, scratchNodes)
	}

	common, err := b.graph.FindMatchingNodes(scratch)
	if err != nil {
		return err
	}
	for nodeID := range common {
		if err := b.mergeCommonNode(scratch, nodeID, admID); err != nil {
			return err
		}
	}

	remaining, err := scratch.ListNodes()
	if err != nil {
		return err
	}
	return b.retagAll(scratch, remaining)
}

// mergeCommonNode contracts one node shared between the combined model
// and the scratch clone, accumulating the scratch node's delegation
// entries and membership into the kept node.
func (b *Broker) mergeCommonNode(scratch propgraph.Graph, nodeID, admID string) error {
	_, cbmProps, err := b.graph.GetNodeProperties(nodeID)
	if err != nil {
		return err
	}
	_, scratchProps, err := scratch.GetNodeProperties(nodeID)
	if err != nil {
		return err
	}

	ids, err := admGraphIDs(cbmProps)
	if err != nil {
		return err
	}
	if contains(ids, admID) {
		return propgraph.NodeError("MergeADM", b.graph.ID(), nodeID,
			fmt.Errorf("%w: model %s already merged", model.ErrDuplicateDelegation, admID))
	}

	merged := make(map[string]string, 2)
	for _, t := range []model.DelegationType{model.DelegationCapacity, model.DelegationLabel} {
		combined, err := combineDelegations(cbmProps[t.PropKey()], scratchProps[t.PropKey()], t)
		if err != nil {
			return propgraph.PropError("MergeADM", b.graph.ID(), nodeID, t.PropKey(), err)
		}
		if combined != "" {
			merged[t.PropKey()] = combined
		}
	}

	// The contraction keeps the combined model's values; the
	// accumulated dictionaries and membership are written afterwards.
	if err := b.graph.MergeNodes(nodeID, scratch, nil); err != nil {
		return err
	}
	for key, value := range merged {
		if err := b.graph.UpdateNodeProperty(nodeID, key, value); err != nil {
			return err
		}
	}
	return setADMGraphIDs(b.graph, nodeID, append(ids, admID))
}

func (b *Broker) retagAll(scratch propgraph.Graph, nodeIDs []string) error {
	for _, nodeID := range nodeIDs {
		if err := scratch.UpdateNodeProperty(nodeID, model.PropGraphID, b.graph.ID()); err != nil {
			return err
		}
	}
	return nil
}

// rekeyDelegations rewrites the node's delegation dictionaries so every
// entry is keyed by the contributing model's graph id.
func rekeyDelegations(g propgraph.Graph, nodeID, admID string) error {
	_, props, err := g.GetNodeProperties(nodeID)
	if err != nil {
		return err
	}
	for _, t := range []model.DelegationType{model.DelegationCapacity, model.DelegationLabel} {
		raw := props[t.PropKey()]
		if raw == "" {
			continue
		}
		dels, err := model.DelegationsFromJSON(raw, t)
		if err != nil {
			return propgraph.PropError("MergeADM", g.ID(), nodeID, t.PropKey(), err)
		}
		rekeyed := model.NewDelegations(t)
		for _, id := range dels.IDs() {
			entry := *dels.Get(id)
			entry.ID = admID
			if err := rekeyed.Add(&entry); err != nil {
				return propgraph.PropError("MergeADM", g.ID(), nodeID, t.PropKey(), err)
			}
		}
		encoded, err := rekeyed.ToJSON()
		if err != nil {
			return err
		}
		if err := g.UpdateNodeProperty(nodeID, t.PropKey(), encoded); err != nil {
			return err
		}
	}
	return nil
}

// combineDelegations unions two delegation dictionaries. A key present
// in both fails with ErrDuplicateDelegation, since every model owns its
// own key.
func combineDelegations(cbmRaw, scratchRaw string, t model.DelegationType) (string, error) {
	if scratchRaw == "" {
		return cbmRaw, nil
	}
	if cbmRaw == "" {
		return scratchRaw, nil
	}
	combined, err := model.DelegationsFromJSON(cbmRaw, t)
	if err != nil {
		return "", err
	}
	incoming, err := model.DelegationsFromJSON(scratchRaw, t)
	if err != nil {
		return "", err
	}
	for _, id := range incoming.IDs() {
		if err := combined.Add(incoming.Get(id)); err != nil {
			return "", err
		}
	}
	return combined.ToJSON()
}

// UnmergeADM removes one model's contribution from the combined model.
// Nodes contributed only by that model are deleted; nodes shared with
// other models lose the model's membership and delegation entries.
func (b *Broker) UnmergeADM(admID string) error {
	err := b.unmergeADM(admID)
	b.metrics.RecordMerge("unmerge", err)
	return err
}

func (b *Broker) unmergeADM(admID string) error {
	nodeIDs, err := b.graph.ListNodes()
	if err != nil {
		return err
	}
	for _, nodeID := range nodeIDs {
		_, props, err := b.graph.GetNodeProperties(nodeID)
		if err != nil {
			return err
		}
		ids, err := admGraphIDs(props)
		if err != nil {
			return err
		}
		if !contains(ids, admID) {
			continue
		}
		ids = remove(ids, admID)
		if len(ids) == 0 {
			if err := b.graph.DeleteNode(nodeID); err != nil {
				return err
			}
			continue
		}
		if err := setADMGraphIDs(b.graph, nodeID, ids); err != nil {
			return err
		}
		if err := stripDelegationEntries(b.graph, nodeID, admID); err != nil {
			return err
		}
	}
	b.log.Info("delegation model unmerged",
		logging.GraphID(b.graph.ID()), logging.String("adm_graph_id", admID))
	return nil
}

// stripDelegationEntries drops the entries keyed by admID from the
// node's dictionaries, unsetting dictionaries left empty.
func stripDelegationEntries(g propgraph.Graph, nodeID, admID string) error {
	_, props, err := g.GetNodeProperties(nodeID)
	if err != nil {
		return err
	}
	for _, t := range []model.DelegationType{model.DelegationCapacity, model.DelegationLabel} {
		raw := props[t.PropKey()]
		if raw == "" {
			continue
		}
		dels, err := model.DelegationsFromJSON(raw, t)
		if err != nil {
			return propgraph.PropError("UnmergeADM", g.ID(), nodeID, t.PropKey(), err)
		}
		if !dels.Has(admID) {
			continue
		}
		kept := model.NewDelegations(t)
		for _, id := range dels.IDs() {
			if id == admID {
				continue
			}
			if err := kept.Add(dels.Get(id)); err != nil {
				return err
			}
		}
		if kept.Size() == 0 {
			if err := g.UnsetNodeProperty(nodeID, t.PropKey()); err != nil {
				return err
			}
			continue
		}
		encoded, err := kept.ToJSON()
		if err != nil {
			return err
		}
		if err := g.UpdateNodeProperty(nodeID, t.PropKey(), encoded); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot clones the combined model under a fresh id and returns it.
func (b *Broker) Snapshot() (string, error) {
	snapshotID := "snapshot-" + uuid.New().String()
	_, err := b.graph.Clone(snapshotID)
	b.metrics.RecordMerge("snapshot", err)
	if err != nil {
		return "", err
	}
	b.log.Info("combined model snapshotted",
		logging.GraphID(b.graph.ID()), logging.String("snapshot_id", snapshotID))
	return snapshotID, nil
}

// Rollback discards the live combined model and revives the snapshot
// under the live GraphID. The snapshot identity is consumed.
func (b *Broker) Rollback(snapshotID string) error {
	err := b.rollback(snapshotID)
	b.metrics.RecordMerge("rollback", err)
	return err
}

func (b *Broker) rollback(snapshotID string) error {
	if err := b.store.DeleteGraph(b.graph.ID()); err != nil {
		return err
	}
	snapshot := b.store.Graph(snapshotID)
	nodeIDs, err := snapshot.ListNodes()
	if err != nil {
		return err
	}
	for _, nodeID := range nodeIDs {
		if err := snapshot.UpdateNodeProperty(nodeID, model.PropGraphID, b.graph.ID()); err != nil {
			return err
		}
	}
	b.log.Info("combined model rolled back",
		logging.GraphID(b.graph.ID()), logging.String("snapshot_id", snapshotID))
	return nil
}
