// Package adm partitions an aggregate resource model into one delegation
// model per delegation id. Each generated graph carries exactly the
// nodes the delegatee referenced, the stitch nodes every delegation
// shares, and enough surrounding topology to stay coherent: links and
// peer connection points, owning network services, and the parents that
// own kept components.
package adm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/metrics"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// Generator derives per-delegation models from a resource model.
type Generator struct {
	store   propgraph.Store
	log     logging.Logger
	metrics *metrics.Registry
}

// NewGenerator creates a generator producing its models in store.
func NewGenerator(store propgraph.Store, log logging.Logger, m *metrics.Registry) *Generator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Generator{store: store, log: log, metrics: m}
}

// delegationTypes in deterministic rewrite order.
var delegationTypes = []model.DelegationType{model.DelegationCapacity, model.DelegationLabel}

// GenerateADMs partitions arm into one graph per delegation id found on
// its nodes. The returned map is keyed by delegation id; each graph's
// delegation dictionaries retain only the entries for its own id.
func (g *Generator) GenerateADMs(arm propgraph.Graph) (map[string]propgraph.Graph, error) {
	nodeIDs, err := arm.ListNodes()
	if err != nil {
		return nil, err
	}

	stitchNodes := make(propgraph.NodeSet)
	keepByDelegation := make(map[string]propgraph.NodeSet)
	for _, nodeID := range nodeIDs {
		_, props, err := arm.GetNodeProperties(nodeID)
		if err != nil {
			return nil, err
		}
		if props[model.PropStitchNode] == "true" {
			stitchNodes.Add(nodeID)
		}
		for _, t := range delegationTypes {
			raw := props[t.PropKey()]
			if raw == "" {
				continue
			}
			dels, err := model.DelegationsFromJSON(raw, t)
			if err != nil {
				return nil, propgraph.PropError("GenerateADMs", arm.ID(), nodeID, t.PropKey(), err)
			}
			for _, delegationID := range dels.IDs() {
				keep, ok := keepByDelegation[delegationID]
				if !ok {
					keep = make(propgraph.NodeSet)
					keepByDelegation[delegationID] = keep
				}
				keep.Add(nodeID)
			}
		}
	}

	adms := make(map[string]propgraph.Graph, len(keepByDelegation))
	for delegationID, seeds := range keepByDelegation {
		adm, err := g.generateOne(arm, delegationID, seeds, stitchNodes)
		if err != nil {
			// Drop models already generated for other delegation ids.
			for _, partial := range adms {
				_ = partial.Delete()
			}
			return nil, err
		}
		adms[delegationID] = adm
		g.metrics.RecordADMGenerated()
	}
	g.log.Info("generated delegation models",
		logging.GraphID(arm.ID()), logging.Int("models", len(adms)))
	return adms, nil
}

func (g *Generator) generateOne(arm propgraph.Graph, delegationID string,
	seeds, stitchNodes propgraph.NodeSet) (propgraph.Graph, error) {
	clone, err := arm.Clone(uuid.New().String())
	if err != nil {
		return nil, err
	}
	nodeIDs, err := clone.ListNodes()
	if err != nil {
		return nil, err
	}

	keep := make(propgraph.NodeSet, len(seeds)+len(stitchNodes))
	for id := range seeds {
		keep.Add(id)
	}
	for id := range stitchNodes {
		keep.Add(id)
	}

	for _, nodeID := range nodeIDs {
		if err := rewriteDelegations(clone, nodeID, delegationID); err != nil {
			return nil, err
		}
	}
	if err := expandKeepSet(clone, keep); err != nil {
		return nil, err
	}

	for _, nodeID := range nodeIDs {
		if keep.Contains(nodeID) {
			continue
		}
		if err := clone.DeleteNode(nodeID); err != nil {
			return nil, err
		}
	}
	g.log.Debug("delegation model carved",
		logging.DelegationID(delegationID),
		logging.GraphID(clone.ID()),
		logging.NodeCount(len(keep)))
	return clone, nil
}

// rewriteDelegations trims the node's delegation dictionaries down to
// the entries for delegationID, unsetting dictionaries left empty.
func rewriteDelegations(g propgraph.Graph, nodeID, delegationID string) error {
	_, props, err := g.GetNodeProperties(nodeID)
	if err != nil {
		return err
	}
	for _, t := range delegationTypes {
		raw := props[t.PropKey()]
		if raw == "" {
			continue
		}
		dels, err := model.DelegationsFromJSON(raw, t)
		if err != nil {
			return propgraph.PropError("GenerateADMs", g.ID(), nodeID, t.PropKey(), err)
		}
		entry := dels.Get(delegationID)
		if entry == nil {
			if err := g.UnsetNodeProperty(nodeID, t.PropKey()); err != nil {
				return err
			}
			continue
		}
		trimmed := model.NewDelegations(t)
		if err := trimmed.Add(entry); err != nil {
			return err
		}
		encoded, err := trimmed.ToJSON()
		if err != nil {
			return fmt.Errorf("rewrite %s on %s: %w", t.PropKey(), nodeID, err)
		}
		if err := g.UpdateNodeProperty(nodeID, t.PropKey(), encoded); err != nil {
			return err
		}
	}
	return nil
}

// expandKeepSet grows keep along the topology: kept connection points
// pull in their links and link-peer connection points, every kept
// connection point pulls in its owning network service and that
// service's parent, and kept components pull in their owning node.
func expandKeepSet(g propgraph.Graph, keep propgraph.NodeSet) error {
	cps, err := keptOfClass(g, keep, model.ClassConnectionPoint)
	if err != nil {
		return err
	}
	expanded := make(map[string]struct{}, len(cps))
	for i := 0; i < len(cps); i++ {
		cp := cps[i]
		if _, dup := expanded[cp]; dup {
			continue
		}
		expanded[cp] = struct{}{}
		pairs, err := g.GetFirstAndSecondNeighbor(cp,
			model.EdgeConnects, model.ClassLink,
			model.EdgeConnects, model.ClassConnectionPoint)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			keep.Add(p.First)
			keep.Add(p.Second)
			cps = append(cps, p.Second)
		}
	}

	seen := make(map[string]struct{}, len(cps))
	for _, cp := range cps {
		if _, dup := seen[cp]; dup {
			continue
		}
		seen[cp] = struct{}{}
		for _, parentClass := range []model.NodeClass{model.ClassNetworkNode, model.ClassComponent, model.ClassCompositeNode} {
			pairs, err := g.GetFirstAndSecondNeighbor(cp,
				model.EdgeConnects, model.ClassNetworkService,
				model.EdgeHas, parentClass)
			if err != nil {
				return err
			}
			for _, p := range pairs {
				keep.Add(p.First)
				keep.Add(p.Second)
			}
		}
	}

	components, err := keptOfClass(g, keep, model.ClassComponent)
	if err != nil {
		return err
	}
	for _, component := range components {
		for _, ownerClass := range []model.NodeClass{model.ClassNetworkNode, model.ClassCompositeNode} {
			owners, err := g.GetFirstNeighbor(component, model.EdgeHas, ownerClass)
			if err != nil {
				return err
			}
			for _, owner := range owners {
				keep.Add(owner)
			}
		}
	}
	return nil
}

func keptOfClass(g propgraph.Graph, keep propgraph.NodeSet, class model.NodeClass) ([]string, error) {
	var out []string
	for nodeID := range keep {
		classes, _, err := g.GetNodeProperties(nodeID)
		if err != nil {
			return nil, err
		}
		for _, c := range classes {
			if c == string(class) {
				out = append(out, nodeID)
				break
			}
		}
	}
	return out, nil
}
