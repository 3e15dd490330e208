package memgraph

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/openbroker/resgraph/pkg/graphml"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// toDoc converts one graph's nodes and edges to the neutral serialized
// form. Edges whose endpoints live in different graphs are skipped;
// they are transient merge artifacts, not part of the graph.
func (mg *multigraph) toDoc(graphID string) *graphml.Graph {
	doc := &graphml.Graph{ID: graphID}
	index := mg.byGraph[graphID]

	ids := mg.nodeIDs(graphID)
	for _, id := range ids {
		n := mg.nodes[index[id]]
		props := make(map[string]string, len(n.props)+3)
		for k, v := range n.props {
			props[k] = v
		}
		props[model.PropGraphID] = n.graphID
		props[model.PropNodeID] = n.id
		props[model.PropClass] = string(n.class)
		doc.Nodes = append(doc.Nodes, graphml.Node{ID: n.id, Properties: props})
	}

	seen := make(map[uint64]struct{})
	for _, id := range ids {
		n := mg.nodes[index[id]]
		for _, eh := range n.edges {
			if _, dup := seen[eh]; dup {
				continue
			}
			e, ok := mg.edges[eh]
			if !ok {
				continue
			}
			na, nb := mg.nodes[e.a], mg.nodes[e.b]
			if na == nil || nb == nil || na.graphID != graphID || nb.graphID != graphID {
				continue
			}
			seen[eh] = struct{}{}
			props := make(map[string]string, len(e.props))
			for k, v := range e.props {
				props[k] = v
			}
			doc.Edges = append(doc.Edges, graphml.Edge{
				Source: na.id, Target: nb.id, Kind: string(e.kind), Properties: props,
			})
		}
	}
	sort.Slice(doc.Edges, func(i, j int) bool {
		a, b := doc.Edges[i], doc.Edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
	return doc
}

// importDoc stores a serialized graph under targetGraphID, stamping
// every node with the target id.
func (mg *multigraph) importDoc(doc *graphml.Graph, targetGraphID string) error {
	for _, n := range doc.Nodes {
		nodeID := n.Properties[model.PropNodeID]
		if nodeID == "" {
			nodeID = n.ID
		}
		class := model.NodeClass(n.Properties[model.PropClass])
		if err := mg.addNode(targetGraphID, nodeID, class, n.Properties); err != nil {
			return err
		}
	}
	for _, e := range doc.Edges {
		if err := mg.addEdge(targetGraphID, e.Source, model.EdgeKind(e.Kind), e.Target, e.Properties); err != nil {
			return err
		}
	}
	return nil
}

// jsonNodeLink is the generic node-link JSON encoding.
type jsonNodeLink struct {
	Directed   bool                `json:"directed"`
	Multigraph bool                `json:"multigraph"`
	Graph      map[string]string   `json:"graph"`
	Nodes      []map[string]string `json:"nodes"`
	Links      []map[string]string `json:"links"`
}

// jsonEdgeList is the node/edge-list JSON layout.
type jsonEdgeList struct {
	ID    string              `json:"id"`
	Nodes []map[string]string `json:"nodes"`
	Edges []map[string]string `json:"edges"`
}

// encodeDoc serializes the neutral form in the requested format.
func encodeDoc(doc *graphml.Graph, f propgraph.Format) (string, error) {
	switch f {
	case propgraph.FormatGraphML:
		return graphml.Encode(doc)

	case propgraph.FormatJSONNodeLink:
		out := jsonNodeLink{
			Multigraph: true,
			Graph:      map[string]string{"id": doc.ID},
			Nodes:      make([]map[string]string, 0, len(doc.Nodes)),
			Links:      make([]map[string]string, 0, len(doc.Edges)),
		}
		for _, n := range doc.Nodes {
			bag := copyBag(n.Properties)
			bag["id"] = n.ID
			out.Nodes = append(out.Nodes, bag)
		}
		for _, e := range doc.Edges {
			bag := copyBag(e.Properties)
			bag["source"] = e.Source
			bag["target"] = e.Target
			bag[model.PropClass] = e.Kind
			out.Links = append(out.Links, bag)
		}
		data, err := json.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("encode node-link JSON: %w", err)
		}
		return string(data), nil

	case propgraph.FormatJSONEdgeList:
		out := jsonEdgeList{
			ID:    doc.ID,
			Nodes: make([]map[string]string, 0, len(doc.Nodes)),
			Edges: make([]map[string]string, 0, len(doc.Edges)),
		}
		for _, n := range doc.Nodes {
			out.Nodes = append(out.Nodes, copyBag(n.Properties))
		}
		for _, e := range doc.Edges {
			bag := copyBag(e.Properties)
			bag["source"] = e.Source
			bag["target"] = e.Target
			bag[model.PropClass] = e.Kind
			out.Edges = append(out.Edges, bag)
		}
		data, err := json.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("encode edge-list JSON: %w", err)
		}
		return string(data), nil

	default:
		return "", fmt.Errorf("%w: serialization format %s", propgraph.ErrUnsupportedOperation, f)
	}
}

// decodeDoc parses any supported encoding back to the neutral form.
func decodeDoc(serialized string, f propgraph.Format) (*graphml.Graph, error) {
	switch f {
	case propgraph.FormatGraphML:
		doc, err := graphml.Decode(serialized)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", propgraph.ErrImportFailure, err)
		}
		return doc, nil

	case propgraph.FormatJSONNodeLink:
		var in jsonNodeLink
		if err := json.Unmarshal([]byte(serialized), &in); err != nil {
			return nil, fmt.Errorf("%w: %v", propgraph.ErrImportFailure, err)
		}
		doc := &graphml.Graph{ID: in.Graph["id"]}
		for _, bag := range in.Nodes {
			props := copyBag(bag)
			id := props["id"]
			delete(props, "id")
			if nodeID := props[model.PropNodeID]; nodeID != "" {
				id = nodeID
			}
			doc.Nodes = append(doc.Nodes, graphml.Node{ID: id, Properties: props})
		}
		for _, bag := range in.Links {
			props := copyBag(bag)
			e := graphml.Edge{Source: props["source"], Target: props["target"], Kind: props[model.PropClass]}
			delete(props, "source")
			delete(props, "target")
			delete(props, model.PropClass)
			e.Properties = props
			doc.Edges = append(doc.Edges, e)
		}
		return doc, nil

	case propgraph.FormatJSONEdgeList:
		var in jsonEdgeList
		if err := json.Unmarshal([]byte(serialized), &in); err != nil {
			return nil, fmt.Errorf("%w: %v", propgraph.ErrImportFailure, err)
		}
		doc := &graphml.Graph{ID: in.ID}
		for _, bag := range in.Nodes {
			props := copyBag(bag)
			doc.Nodes = append(doc.Nodes, graphml.Node{ID: props[model.PropNodeID], Properties: props})
		}
		for _, bag := range in.Edges {
			props := copyBag(bag)
			e := graphml.Edge{Source: props["source"], Target: props["target"], Kind: props[model.PropClass]}
			delete(props, "source")
			delete(props, "target")
			delete(props, model.PropClass)
			e.Properties = props
			doc.Edges = append(doc.Edges, e)
		}
		return doc, nil

	default:
		return nil, fmt.Errorf("%w: serialization format %s", propgraph.ErrUnsupportedOperation, f)
	}
}

func copyBag(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
