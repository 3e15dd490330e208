package memgraph

import (
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// mergeNodes contracts two same-NodeID nodes from different graphs into
// one, keeping the node in graphID. The other node's incident edges are
// rewired onto the kept node and the other node is removed. Property
// keys present on both sides are resolved by policy (default: keep the
// caller's value); a key present on exactly one side always wins.
func (mg *multigraph) mergeNodes(graphID, nodeID string, otherGraphID string, policy propgraph.MergePolicy) error {
	self, ok := mg.lookup(graphID, nodeID)
	if !ok {
		return propgraph.NodeError("MergeNodes", graphID, nodeID, propgraph.ErrNodeNotFound)
	}
	other, ok := mg.lookup(otherGraphID, nodeID)
	if !ok {
		return propgraph.NodeError("MergeNodes", otherGraphID, nodeID, propgraph.ErrNodeNotFound)
	}

	merged, err := propgraph.ResolveMergedProperties(self.props, other.props, policy)
	if err != nil {
		return propgraph.NodeError("MergeNodes", graphID, nodeID, err)
	}
	self.props = merged

	// Rewire the other node's edges onto the kept node.
	for _, eh := range other.edges {
		e, ok := mg.edges[eh]
		if !ok {
			continue
		}
		if e.a == other.handle {
			e.a = self.handle
		}
		if e.b == other.handle {
			e.b = self.handle
		}
		if e.a == self.handle && e.b == self.handle {
			// Contracting both endpoints would leave a self loop; drop it.
			self.edges = removeHandle(self.edges, eh)
			delete(mg.edges, eh)
			continue
		}
		self.edges = append(self.edges, eh)
	}
	other.edges = nil
	delete(mg.nodes, other.handle)
	if index, ok := mg.byGraph[otherGraphID]; ok {
		delete(index, nodeID)
		if len(index) == 0 {
			delete(mg.byGraph, otherGraphID)
		}
	}
	return nil
}
