package model

// NodeClass identifies the kind of resource a graph node represents.
// A node's class is assigned at creation and never changes.
type NodeClass string

const (
	ClassNetworkNode      NodeClass = "NetworkNode"
	ClassCompositeNode    NodeClass = "CompositeNode"
	ClassNetworkService   NodeClass = "NetworkService"
	ClassComponent        NodeClass = "Component"
	ClassConnectionPoint  NodeClass = "ConnectionPoint"
	ClassLink             NodeClass = "Link"
	ClassCompositeLink    NodeClass = "CompositeLink"
	ClassMeasurementPoint NodeClass = "MeasurementPoint"
)

// AllClasses lists every node class the model understands.
var AllClasses = []NodeClass{
	ClassNetworkNode,
	ClassCompositeNode,
	ClassNetworkService,
	ClassComponent,
	ClassConnectionPoint,
	ClassLink,
	ClassCompositeLink,
	ClassMeasurementPoint,
}

// ValidClass reports whether c names a known node class.
func ValidClass(c NodeClass) bool {
	for _, k := range AllClasses {
		if k == c {
			return true
		}
	}
	return false
}

// EdgeKind identifies the relationship a graph edge encodes.
// "has" encodes ownership (node to component, component to network service),
// "connects" encodes connectivity (network service to connection point,
// connection point to link to connection point).
type EdgeKind string

const (
	EdgeHas      EdgeKind = "has"
	EdgeConnects EdgeKind = "connects"
	EdgeDepends  EdgeKind = "depends"
	EdgeAdapts   EdgeKind = "adapts"
	EdgePeers    EdgeKind = "peers"

	// EdgeAny matches every edge kind in traversal queries.
	EdgeAny EdgeKind = ""
)

// AllEdgeKinds lists every concrete edge kind.
var AllEdgeKinds = []EdgeKind{EdgeHas, EdgeConnects, EdgeDepends, EdgeAdapts, EdgePeers}

// ValidEdgeKind reports whether k names a known edge kind.
func ValidEdgeKind(k EdgeKind) bool {
	for _, e := range AllEdgeKinds {
		if e == k {
			return true
		}
	}
	return false
}
