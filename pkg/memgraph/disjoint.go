package memgraph

import (
	"sync"

	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/metrics"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// DisjointStore isolates each graph in its own multigraph. Per-graph
// operations skip the cross-graph query filter, but merging nodes across
// graphs is unsupported.
//
// One global lock guards all mutation and traversal of the per-graph
// map, serializing backend calls process-wide.
type DisjointStore struct {
	mu      sync.Mutex
	graphs  map[string]*multigraph
	log     logging.Logger
	metrics *metrics.Registry
}

// NewDisjointStore creates an empty disjoint store.
func NewDisjointStore() *DisjointStore {
	return NewDisjointStoreWithConfig(StoreConfig{})
}

// NewDisjointStoreWithConfig creates an empty disjoint store with the
// given collaborators.
func NewDisjointStoreWithConfig(cfg StoreConfig) *DisjointStore {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &DisjointStore{graphs: make(map[string]*multigraph), log: log, metrics: cfg.Metrics}
}

// graphFor returns the multigraph backing one graph id, creating it
// lazily. Callers hold the store lock.
func (d *DisjointStore) graphFor(id string) *multigraph {
	mg, ok := d.graphs[id]
	if !ok {
		mg = newMultigraph()
		d.graphs[id] = mg
	}
	return mg
}

// NewGraph creates an empty graph handle under the given id.
func (d *DisjointStore) NewGraph(id string) (propgraph.Graph, error) {
	return &disjointGraph{store: d, id: id}, nil
}

// Graph returns a handle on the graph with the given id.
func (d *DisjointStore) Graph(id string) propgraph.Graph {
	return &disjointGraph{store: d, id: id}
}

// ImportGraph decodes a serialized graph and stores it under id.
func (d *DisjointStore) ImportGraph(serialized string, f propgraph.Format, id string) (propgraph.Graph, error) {
	doc, err := decodeDoc(serialized, f)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.graphFor(id).importDoc(doc, id); err != nil {
		return nil, err
	}
	d.log.Info("graph imported", logging.GraphID(id), logging.NodeCount(len(doc.Nodes)))
	return &disjointGraph{store: d, id: id}, nil
}

// DeleteGraph removes the given graph and its backing structure.
func (d *DisjointStore) DeleteGraph(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.graphs, id)
	return nil
}

// DeleteAll removes every graph in the store.
func (d *DisjointStore) DeleteAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.graphs = make(map[string]*multigraph)
	return nil
}

// disjointGraph is a handle on one isolated graph in a DisjointStore.
type disjointGraph struct {
	store *DisjointStore
	id    string
}

func (g *disjointGraph) ID() string { return g.id }

func (g *disjointGraph) AddNode(id string, class model.NodeClass, props map[string]string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).addNode(g.id, id, class, props)
}

func (g *disjointGraph) AddEdge(a string, kind model.EdgeKind, b string, props map[string]string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).addEdge(g.id, a, kind, b, props)
}

func (g *disjointGraph) DeleteNode(id string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).deleteNode(g.id, id)
}

func (g *disjointGraph) HasNode(id string) bool {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	_, ok := g.store.graphFor(g.id).lookup(g.id, id)
	return ok
}

func (g *disjointGraph) ListNodes() ([]string, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).nodeIDs(g.id), nil
}

func (g *disjointGraph) GetNodeProperties(id string) ([]string, map[string]string, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).getNodeProps(g.id, id)
}

func (g *disjointGraph) UpdateNodeProperty(id, key, value string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	if key == model.PropGraphID {
		// Re-tagging would move the node into an isolated sibling structure.
		return propgraph.PropError("UpdateNodeProperty", g.id, id, key, propgraph.ErrUnsupportedOperation)
	}
	return g.store.graphFor(g.id).updateNodeProp(g.id, id, key, value)
}

func (g *disjointGraph) UpdateNodeProperties(id string, props map[string]string) error {
	for k, v := range props {
		if err := g.UpdateNodeProperty(id, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (g *disjointGraph) UnsetNodeProperty(id, key string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).unsetNodeProp(g.id, id, key)
}

func (g *disjointGraph) GetLinkProperties(a, b string, kind model.EdgeKind) (map[string]string, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).getLinkProps(g.id, a, b, kind)
}

func (g *disjointGraph) UpdateLinkProperty(a, b string, kind model.EdgeKind, key, value string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).updateLinkProps(g.id, a, b, kind, map[string]string{key: value})
}

func (g *disjointGraph) UpdateLinkProperties(a, b string, kind model.EdgeKind, props map[string]string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).updateLinkProps(g.id, a, b, kind, props)
}

func (g *disjointGraph) UnsetLinkProperty(a, b string, kind model.EdgeKind, key string) error {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).unsetLinkProp(g.id, a, b, kind, key)
}

func (g *disjointGraph) GetFirstNeighbor(node string, rel model.EdgeKind, class model.NodeClass) ([]string, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).firstNeighbor(g.id, node, rel, class)
}

func (g *disjointGraph) GetFirstAndSecondNeighbor(node string, rel1 model.EdgeKind, class1 model.NodeClass,
	rel2 model.EdgeKind, class2 model.NodeClass) ([]propgraph.NeighborPair, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).firstAndSecondNeighbor(g.id, node, rel1, class1, rel2, class2)
}

func (g *disjointGraph) ShortestPath(a, z string, rel model.EdgeKind) ([]string, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).shortestPath(g.id, a, z, rel)
}

func (g *disjointGraph) PathWithRequiredHops(a, z string, hops []string, cutoff int) ([]string, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return g.store.graphFor(g.id).pathWithRequiredHops(g.id, a, z, hops, cutoff)
}

func (g *disjointGraph) Serialize(f propgraph.Format) (string, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	return encodeDoc(g.store.graphFor(g.id).toDoc(g.id), f)
}

func (g *disjointGraph) Clone(newID string) (propgraph.Graph, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	doc := g.store.graphFor(g.id).toDoc(g.id)
	if err := g.store.graphFor(newID).importDoc(doc, newID); err != nil {
		return nil, err
	}
	return &disjointGraph{store: g.store, id: newID}, nil
}

func (g *disjointGraph) FindMatchingNodes(other propgraph.Graph) (propgraph.NodeSet, error) {
	if peer, ok := other.(*disjointGraph); ok && peer.store == g.store {
		g.store.mu.Lock()
		defer g.store.mu.Unlock()
		return g.store.graphFor(g.id).matchingNodes(g.id, g.store.graphFor(peer.id), peer.id), nil
	}
	return matchByContract(g, other)
}

// MergeNodes is unsupported: each graph owns an isolated structure, so
// there is no shared node identity to contract.
func (g *disjointGraph) MergeNodes(id string, other propgraph.Graph, policy propgraph.MergePolicy) error {
	return propgraph.NodeError("MergeNodes", g.id, id, propgraph.ErrUnsupportedOperation)
}

func (g *disjointGraph) Validate() error {
	return propgraph.ValidateJSONProperties(g)
}

func (g *disjointGraph) Delete() error {
	return g.store.DeleteGraph(g.id)
}
