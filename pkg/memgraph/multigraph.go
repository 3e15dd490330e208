// Package memgraph implements the property-graph contract over
// process-local multigraph storage, in two variants: a shared store
// where every graph lives in one structure (enabling cross-graph node
// merge) and a disjoint store where each graph is isolated.
package memgraph

import (
	"fmt"
	"sort"

	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// mnode is one stored node. Internal handles are monotonically
// increasing and never reused within a store's lifetime; callers only
// ever see NodeID strings.
type mnode struct {
	handle  uint64
	id      string // NodeID
	graphID string
	class   model.NodeClass
	props   map[string]string // bag without GraphID, NodeID, Class
	edges   []uint64          // incident edge handles
}

// medge is one stored relationship.
type medge struct {
	handle uint64
	a, b   uint64 // node handles
	kind   model.EdgeKind
	props  map[string]string
}

// multigraph is the underlying store structure. The shared backend has
// exactly one; the disjoint backend keeps one per GraphID.
type multigraph struct {
	nodes    map[uint64]*mnode
	edges    map[uint64]*medge
	byGraph  map[string]map[string]uint64 // GraphID -> NodeID -> handle
	nextNode uint64
	nextEdge uint64
}

func newMultigraph() *multigraph {
	return &multigraph{
		nodes:    make(map[uint64]*mnode),
		edges:    make(map[uint64]*medge),
		byGraph:  make(map[string]map[string]uint64),
		nextNode: 1,
		nextEdge: 1,
	}
}

func (mg *multigraph) lookup(graphID, nodeID string) (*mnode, bool) {
	index, ok := mg.byGraph[graphID]
	if !ok {
		return nil, false
	}
	handle, ok := index[nodeID]
	if !ok {
		return nil, false
	}
	return mg.nodes[handle], true
}

func (mg *multigraph) addNode(graphID, nodeID string, class model.NodeClass, props map[string]string) error {
	if _, exists := mg.lookup(graphID, nodeID); exists {
		return propgraph.NodeError("AddNode", graphID, nodeID, propgraph.ErrDuplicateNode)
	}
	n := &mnode{
		handle:  mg.nextNode,
		id:      nodeID,
		graphID: graphID,
		class:   class,
		props:   make(map[string]string, len(props)),
	}
	mg.nextNode++
	for k, v := range props {
		switch k {
		case model.PropGraphID, model.PropNodeID, model.PropClass:
			// Structural, carried outside the bag.
		default:
			n.props[k] = v
		}
	}
	mg.nodes[n.handle] = n
	if mg.byGraph[graphID] == nil {
		mg.byGraph[graphID] = make(map[string]uint64)
	}
	mg.byGraph[graphID][nodeID] = n.handle
	return nil
}

func (mg *multigraph) addEdge(graphID, a string, kind model.EdgeKind, b string, props map[string]string) error {
	na, ok := mg.lookup(graphID, a)
	if !ok {
		return propgraph.NodeError("AddEdge", graphID, a, propgraph.ErrNodeNotFound)
	}
	nb, ok := mg.lookup(graphID, b)
	if !ok {
		return propgraph.NodeError("AddEdge", graphID, b, propgraph.ErrNodeNotFound)
	}
	e := &medge{
		handle: mg.nextEdge,
		a:      na.handle,
		b:      nb.handle,
		kind:   kind,
		props:  make(map[string]string, len(props)),
	}
	mg.nextEdge++
	for k, v := range props {
		e.props[k] = v
	}
	mg.edges[e.handle] = e
	na.edges = append(na.edges, e.handle)
	nb.edges = append(nb.edges, e.handle)
	return nil
}

func (mg *multigraph) deleteNode(graphID, nodeID string) error {
	n, ok := mg.lookup(graphID, nodeID)
	if !ok {
		return propgraph.NodeError("DeleteNode", graphID, nodeID, propgraph.ErrNodeNotFound)
	}
	mg.removeNode(n)
	return nil
}

// removeNode drops a node and cascades to its incident edges.
func (mg *multigraph) removeNode(n *mnode) {
	for _, eh := range n.edges {
		e, ok := mg.edges[eh]
		if !ok {
			continue
		}
		other := mg.nodes[e.a]
		if e.a == n.handle {
			other = mg.nodes[e.b]
		}
		if other != nil && other.handle != n.handle {
			other.edges = removeHandle(other.edges, eh)
		}
		delete(mg.edges, eh)
	}
	delete(mg.nodes, n.handle)
	if index, ok := mg.byGraph[n.graphID]; ok {
		delete(index, n.id)
		if len(index) == 0 {
			delete(mg.byGraph, n.graphID)
		}
	}
}

func (mg *multigraph) deleteGraph(graphID string) {
	index := mg.byGraph[graphID]
	handles := make([]uint64, 0, len(index))
	for _, h := range index {
		handles = append(handles, h)
	}
	for _, h := range handles {
		if n, ok := mg.nodes[h]; ok {
			mg.removeNode(n)
		}
	}
	delete(mg.byGraph, graphID)
}

func (mg *multigraph) nodeIDs(graphID string) []string {
	index := mg.byGraph[graphID]
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (mg *multigraph) getNodeProps(graphID, nodeID string) ([]string, map[string]string, error) {
	n, ok := mg.lookup(graphID, nodeID)
	if !ok {
		return nil, nil, propgraph.NodeError("GetNodeProperties", graphID, nodeID, propgraph.ErrNodeNotFound)
	}
	props := make(map[string]string, len(n.props)+3)
	for k, v := range n.props {
		props[k] = v
	}
	props[model.PropGraphID] = n.graphID
	props[model.PropNodeID] = n.id
	props[model.PropClass] = string(n.class)
	return []string{string(n.class)}, props, nil
}

func (mg *multigraph) updateNodeProp(graphID, nodeID, key, value string) error {
	n, ok := mg.lookup(graphID, nodeID)
	if !ok {
		return propgraph.NodeError("UpdateNodeProperty", graphID, nodeID, propgraph.ErrNodeNotFound)
	}
	if model.IsImmutableProp(key) {
		return propgraph.PropError("UpdateNodeProperty", graphID, nodeID, key, propgraph.ErrProtectedProperty)
	}
	if key == model.PropGraphID {
		return mg.retagNode(n, value)
	}
	n.props[key] = value
	return nil
}

// retagNode moves a node into another graph by rewriting its GraphID.
func (mg *multigraph) retagNode(n *mnode, newGraphID string) error {
	if n.graphID == newGraphID {
		return nil
	}
	if _, taken := mg.lookup(newGraphID, n.id); taken {
		return propgraph.NodeError("UpdateNodeProperty", newGraphID, n.id, propgraph.ErrDuplicateNode)
	}
	if index, ok := mg.byGraph[n.graphID]; ok {
		delete(index, n.id)
		if len(index) == 0 {
			delete(mg.byGraph, n.graphID)
		}
	}
	n.graphID = newGraphID
	if mg.byGraph[newGraphID] == nil {
		mg.byGraph[newGraphID] = make(map[string]uint64)
	}
	mg.byGraph[newGraphID][n.id] = n.handle
	return nil
}

func (mg *multigraph) unsetNodeProp(graphID, nodeID, key string) error {
	n, ok := mg.lookup(graphID, nodeID)
	if !ok {
		return propgraph.NodeError("UnsetNodeProperty", graphID, nodeID, propgraph.ErrNodeNotFound)
	}
	if model.IsProtectedProp(key) {
		return propgraph.PropError("UnsetNodeProperty", graphID, nodeID, key, propgraph.ErrProtectedProperty)
	}
	delete(n.props, key)
	return nil
}

// findEdge locates the edge of the given kind between a and b within
// one graph's scope.
func (mg *multigraph) findEdge(graphID, a, b string, kind model.EdgeKind) (*medge, error) {
	na, ok := mg.lookup(graphID, a)
	if !ok {
		return nil, propgraph.NodeError("GetLinkProperties", graphID, a, propgraph.ErrNodeNotFound)
	}
	nb, ok := mg.lookup(graphID, b)
	if !ok {
		return nil, propgraph.NodeError("GetLinkProperties", graphID, b, propgraph.ErrNodeNotFound)
	}
	for _, eh := range na.edges {
		e, ok := mg.edges[eh]
		if !ok {
			continue
		}
		if e.kind != kind {
			continue
		}
		if (e.a == na.handle && e.b == nb.handle) || (e.a == nb.handle && e.b == na.handle) {
			return e, nil
		}
	}
	return nil, &propgraph.GraphError{
		Op: "GetLinkProperties", GraphID: graphID,
		Cause: fmt.Errorf("%w: no %s edge between %s and %s", propgraph.ErrLinkNotFound, kind, a, b),
	}
}

func (mg *multigraph) getLinkProps(graphID, a, b string, kind model.EdgeKind) (map[string]string, error) {
	e, err := mg.findEdge(graphID, a, b, kind)
	if err != nil {
		return nil, err
	}
	props := make(map[string]string, len(e.props))
	for k, v := range e.props {
		props[k] = v
	}
	return props, nil
}

func (mg *multigraph) updateLinkProps(graphID, a, b string, kind model.EdgeKind, props map[string]string) error {
	e, err := mg.findEdge(graphID, a, b, kind)
	if err != nil {
		return err
	}
	for k, v := range props {
		e.props[k] = v
	}
	return nil
}

func (mg *multigraph) unsetLinkProp(graphID, a, b string, kind model.EdgeKind, key string) error {
	e, err := mg.findEdge(graphID, a, b, kind)
	if err != nil {
		return err
	}
	delete(e.props, key)
	return nil
}

// matchingNodes intersects the NodeID sets of two graphs.
func (mg *multigraph) matchingNodes(graphID string, other *multigraph, otherGraphID string) propgraph.NodeSet {
	common := make(propgraph.NodeSet)
	for id := range mg.byGraph[graphID] {
		if _, ok := other.byGraph[otherGraphID][id]; ok {
			common.Add(id)
		}
	}
	return common
}

func removeHandle(handles []uint64, h uint64) []uint64 {
	for i, v := range handles {
		if v == h {
			return append(handles[:i], handles[i+1:]...)
		}
	}
	return handles
}
