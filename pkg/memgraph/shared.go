package memgraph

import (
	"time"

	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/metrics"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// StoreConfig carries the optional collaborators of a store.
type StoreConfig struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// SharedStore keeps every graph in one multigraph, so node identity
// across graphs resolves purely by the GraphID property and MergeNodes
// can contract two same-id nodes from different graphs into one.
//
// The shared store is not safe for concurrent mutation from multiple
// callers; concurrent use requires external serialization, one logical
// operation at a time per graph id.
type SharedStore struct {
	mg      *multigraph
	log     logging.Logger
	metrics *metrics.Registry
}

// NewSharedStore creates an empty shared store.
func NewSharedStore() *SharedStore {
	return NewSharedStoreWithConfig(StoreConfig{})
}

// NewSharedStoreWithConfig creates an empty shared store with the given
// collaborators.
func NewSharedStoreWithConfig(cfg StoreConfig) *SharedStore {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SharedStore{mg: newMultigraph(), log: log, metrics: cfg.Metrics}
}

// NewGraph creates an empty graph handle under the given id.
func (s *SharedStore) NewGraph(id string) (propgraph.Graph, error) {
	return &sharedGraph{store: s, id: id}, nil
}

// Graph returns a handle on the graph with the given id.
func (s *SharedStore) Graph(id string) propgraph.Graph {
	return &sharedGraph{store: s, id: id}
}

// ImportGraph decodes a serialized graph and stores it under id,
// stamping every node with the target GraphID.
func (s *SharedStore) ImportGraph(serialized string, f propgraph.Format, id string) (propgraph.Graph, error) {
	start := time.Now()
	doc, err := decodeDoc(serialized, f)
	if err == nil {
		err = s.mg.importDoc(doc, id)
	}
	s.metrics.RecordGraphOperation("ImportGraph", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.metrics.SetGraphNodes(id, len(s.mg.byGraph[id]))
	s.log.Info("graph imported", logging.GraphID(id), logging.NodeCount(len(s.mg.byGraph[id])))
	return s.Graph(id), nil
}

// DeleteGraph removes every node of the given graph.
func (s *SharedStore) DeleteGraph(id string) error {
	s.mg.deleteGraph(id)
	s.metrics.SetGraphNodes(id, 0)
	return nil
}

// DeleteAll removes every graph in the store.
func (s *SharedStore) DeleteAll() error {
	s.mg = newMultigraph()
	return nil
}

// sharedGraph is a handle on one graph in a SharedStore.
type sharedGraph struct {
	store *SharedStore
	id    string
}

func (g *sharedGraph) ID() string { return g.id }

func (g *sharedGraph) AddNode(id string, class model.NodeClass, props map[string]string) error {
	return g.store.mg.addNode(g.id, id, class, props)
}

func (g *sharedGraph) AddEdge(a string, kind model.EdgeKind, b string, props map[string]string) error {
	return g.store.mg.addEdge(g.id, a, kind, b, props)
}

func (g *sharedGraph) DeleteNode(id string) error {
	return g.store.mg.deleteNode(g.id, id)
}

func (g *sharedGraph) HasNode(id string) bool {
	_, ok := g.store.mg.lookup(g.id, id)
	return ok
}

func (g *sharedGraph) ListNodes() ([]string, error) {
	return g.store.mg.nodeIDs(g.id), nil
}

func (g *sharedGraph) GetNodeProperties(id string) ([]string, map[string]string, error) {
	return g.store.mg.getNodeProps(g.id, id)
}

func (g *sharedGraph) UpdateNodeProperty(id, key, value string) error {
	return g.store.mg.updateNodeProp(g.id, id, key, value)
}

func (g *sharedGraph) UpdateNodeProperties(id string, props map[string]string) error {
	for k, v := range props {
		if err := g.store.mg.updateNodeProp(g.id, id, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (g *sharedGraph) UnsetNodeProperty(id, key string) error {
	return g.store.mg.unsetNodeProp(g.id, id, key)
}

func (g *sharedGraph) GetLinkProperties(a, b string, kind model.EdgeKind) (map[string]string, error) {
	return g.store.mg.getLinkProps(g.id, a, b, kind)
}

func (g *sharedGraph) UpdateLinkProperty(a, b string, kind model.EdgeKind, key, value string) error {
	return g.store.mg.updateLinkProps(g.id, a, b, kind, map[string]string{key: value})
}

func (g *sharedGraph) UpdateLinkProperties(a, b string, kind model.EdgeKind, props map[string]string) error {
	return g.store.mg.updateLinkProps(g.id, a, b, kind, props)
}

func (g *sharedGraph) UnsetLinkProperty(a, b string, kind model.EdgeKind, key string) error {
	return g.store.mg.unsetLinkProp(g.id, a, b, kind, key)
}

func (g *sharedGraph) GetFirstNeighbor(node string, rel model.EdgeKind, class model.NodeClass) ([]string, error) {
	return g.store.mg.firstNeighbor(g.id, node, rel, class)
}

func (g *sharedGraph) GetFirstAndSecondNeighbor(node string, rel1 model.EdgeKind, class1 model.NodeClass,
	rel2 model.EdgeKind, class2 model.NodeClass) ([]propgraph.NeighborPair, error) {
	return g.store.mg.firstAndSecondNeighbor(g.id, node, rel1, class1, rel2, class2)
}

func (g *sharedGraph) ShortestPath(a, z string, rel model.EdgeKind) ([]string, error) {
	return g.store.mg.shortestPath(g.id, a, z, rel)
}

func (g *sharedGraph) PathWithRequiredHops(a, z string, hops []string, cutoff int) ([]string, error) {
	return g.store.mg.pathWithRequiredHops(g.id, a, z, hops, cutoff)
}

func (g *sharedGraph) Serialize(f propgraph.Format) (string, error) {
	return encodeDoc(g.store.mg.toDoc(g.id), f)
}

// Clone deep-copies the graph under a new GraphID via serialize and
// reimport.
func (g *sharedGraph) Clone(newID string) (propgraph.Graph, error) {
	start := time.Now()
	doc := g.store.mg.toDoc(g.id)
	err := g.store.mg.importDoc(doc, newID)
	g.store.metrics.RecordGraphOperation("Clone", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return g.store.Graph(newID), nil
}

func (g *sharedGraph) FindMatchingNodes(other propgraph.Graph) (propgraph.NodeSet, error) {
	if peer, ok := other.(*sharedGraph); ok && peer.store == g.store {
		return g.store.mg.matchingNodes(g.id, g.store.mg, peer.id), nil
	}
	return matchByContract(g, other)
}

func (g *sharedGraph) MergeNodes(id string, other propgraph.Graph, policy propgraph.MergePolicy) error {
	peer, ok := other.(*sharedGraph)
	if !ok || peer.store != g.store {
		return propgraph.OpError("MergeNodes", g.id, propgraph.ErrUnsupportedOperation)
	}
	start := time.Now()
	err := g.store.mg.mergeNodes(g.id, id, peer.id, policy)
	g.store.metrics.RecordGraphOperation("MergeNodes", err, time.Since(start))
	return err
}

func (g *sharedGraph) Validate() error {
	return propgraph.ValidateJSONProperties(g)
}

func (g *sharedGraph) Delete() error {
	return g.store.DeleteGraph(g.id)
}

// matchByContract intersects node sets through the public contract,
// allowing matching across stores and backends.
func matchByContract(g, other propgraph.Graph) (propgraph.NodeSet, error) {
	ids, err := g.ListNodes()
	if err != nil {
		return nil, err
	}
	common := make(propgraph.NodeSet)
	for _, id := range ids {
		if other.HasNode(id) {
			common.Add(id)
		}
	}
	return common, nil
}
