// Package propgraph defines the property-graph contract every storage
// backend implements: node/edge CRUD, property access, typed neighbor
// queries, pathfinding, serialization and cross-graph merge. Callers
// only ever see NodeID strings, never internal storage handles.
package propgraph

import (
	"github.com/openbroker/resgraph/pkg/model"
)

// Format selects a graph serialization encoding.
type Format int

const (
	// FormatGraphML is the portable attributed-graph markup, the default
	// on-disk and on-wire format consumed and produced by all backends.
	FormatGraphML Format = iota
	// FormatJSONNodeLink is the generic node-link JSON encoding, produced
	// only by the in-memory backends.
	FormatJSONNodeLink
	// FormatJSONEdgeList is the node/edge-list JSON layout, produced only
	// by the in-memory backends.
	FormatJSONEdgeList
)

func (f Format) String() string {
	switch f {
	case FormatGraphML:
		return "graphml"
	case FormatJSONNodeLink:
		return "json-node-link"
	case FormatJSONEdgeList:
		return "json-edge-list"
	default:
		return "unknown"
	}
}

// MergeRule arbitrates one property key during a node merge.
type MergeRule int

const (
	// MergeDiscard keeps the caller's value.
	MergeDiscard MergeRule = iota
	// MergeOverwrite takes the other node's value.
	MergeOverwrite
	// MergeCombine produces a two-element JSON list of both values.
	MergeCombine
)

// MergePolicy maps property keys to merge rules. Keys absent from the
// policy default to MergeDiscard. Policies only arbitrate keys present
// on both nodes; a key present on exactly one side always wins.
type MergePolicy map[string]MergeRule

// NeighborPair is one result of a two-hop traversal: the intermediate
// node followed by the second-hop node.
type NeighborPair struct {
	First  string
	Second string
}

// NodeSet is a set of node ids.
type NodeSet map[string]struct{}

// Contains reports membership.
func (s NodeSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s NodeSet) Add(id string) { s[id] = struct{}{} }

// Graph is one resource-model graph held by a storage backend. A graph
// is identified by its GraphID; every node and edge carries that id as
// a property used to scope queries.
type Graph interface {
	// ID returns the GraphID.
	ID() string

	// AddNode creates a node. It fails with ErrDuplicateNode when a node
	// with this id and class already exists in the graph.
	AddNode(id string, class model.NodeClass, props map[string]string) error
	// AddEdge connects two existing nodes. It fails with ErrNodeNotFound
	// when either endpoint is absent.
	AddEdge(a string, kind model.EdgeKind, b string, props map[string]string) error
	// DeleteNode removes a node and all incident edges.
	DeleteNode(id string) error
	// HasNode reports whether the node exists in this graph.
	HasNode(id string) bool
	// ListNodes returns every node id in the graph.
	ListNodes() ([]string, error)

	// GetNodeProperties returns the node's classes and a copy of its
	// property bag, including GraphID, NodeID and Class.
	GetNodeProperties(id string) ([]string, map[string]string, error)
	// UpdateNodeProperty sets one property. NodeID and Class are immutable
	// and rejected with ErrProtectedProperty.
	UpdateNodeProperty(id, key, value string) error
	// UpdateNodeProperties sets several properties at once.
	UpdateNodeProperties(id string, props map[string]string) error
	// UnsetNodeProperty removes a property. GraphID, NodeID, Class, Type
	// and Name can never be unset and fail with ErrProtectedProperty.
	UnsetNodeProperty(id, key string) error

	// GetLinkProperties returns a copy of the property bag of the edge of
	// the given kind between a and b, failing with ErrLinkNotFound when no
	// matching edge exists.
	GetLinkProperties(a, b string, kind model.EdgeKind) (map[string]string, error)
	// UpdateLinkProperty sets one property on a matching edge.
	UpdateLinkProperty(a, b string, kind model.EdgeKind, key, value string) error
	// UpdateLinkProperties sets several properties on a matching edge.
	UpdateLinkProperties(a, b string, kind model.EdgeKind, props map[string]string) error
	// UnsetLinkProperty removes a property from a matching edge.
	UnsetLinkProperty(a, b string, kind model.EdgeKind, key string) error

	// GetFirstNeighbor returns the one-hop neighbors of node reachable
	// over edges of the given kind whose class matches. An empty result
	// is not an error.
	GetFirstNeighbor(node string, rel model.EdgeKind, class model.NodeClass) ([]string, error)
	// GetFirstAndSecondNeighbor returns two-hop filtered traversal results.
	// The origin node never appears in a result, even in cyclic graphs.
	GetFirstAndSecondNeighbor(node string, rel1 model.EdgeKind, class1 model.NodeClass,
		rel2 model.EdgeKind, class2 model.NodeClass) ([]NeighborPair, error)
	// ShortestPath returns a shortest path from a to z, or an empty slice
	// when z is unreachable. When rel is not EdgeAny, edges of other kinds
	// are excluded before pathfinding.
	ShortestPath(a, z string, rel model.EdgeKind) ([]string, error)
	// PathWithRequiredHops returns a loop-free path from a to z of length
	// at most cutoff that passes through every id in hops, or an empty
	// slice when none exists.
	PathWithRequiredHops(a, z string, hops []string, cutoff int) ([]string, error)

	// Serialize encodes the graph in the given format. Round-trips through
	// the store's ImportGraph.
	Serialize(f Format) (string, error)
	// Clone deep-copies the graph under a new GraphID.
	Clone(newID string) (Graph, error)
	// FindMatchingNodes returns the intersection of NodeID sets between
	// this graph and other.
	FindMatchingNodes(other Graph) (NodeSet, error)
	// MergeNodes contracts this graph's node id and other's same-id node
	// into one, resolving shared property keys via policy. Only valid on a
	// shared-store backend; isolated-store backends fail with
	// ErrUnsupportedOperation.
	MergeNodes(id string, other Graph, policy MergePolicy) error

	// Validate runs the on-demand validation pass: every property defined
	// to hold JSON must parse, failing with ErrMalformedJSON.
	Validate() error
	// Delete removes the whole graph from its store.
	Delete() error
}

// Store is a graph storage engine holding many graphs.
type Store interface {
	// NewGraph creates an empty graph under the given id.
	NewGraph(id string) (Graph, error)
	// ImportGraph decodes a serialized graph, stamps every node with the
	// target GraphID and stores it.
	ImportGraph(serialized string, f Format, id string) (Graph, error)
	// Graph returns a handle on the graph with the given id. The handle
	// is valid even when the graph holds no nodes yet.
	Graph(id string) Graph
	// DeleteGraph removes every node of the given graph.
	DeleteGraph(id string) error
	// DeleteAll removes every graph in the store.
	DeleteAll() error
}
