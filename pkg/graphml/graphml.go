// Package graphml encodes and decodes the portable attributed-graph
// markup every backend speaks: node and edge property bags become keyed
// data elements with declared attribute keys. An encoded graph round
// trips through Decode with the same nodes, edges and properties.
package graphml

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// Node is one serialized graph node: its NodeID and full property bag.
type Node struct {
	ID         string
	Properties map[string]string
}

// Edge is one serialized relationship between two nodes.
type Edge struct {
	Source     string
	Target     string
	Kind       string
	Properties map[string]string
}

// Graph is the neutral serialized form backends convert to and from.
type Graph struct {
	ID    string
	Nodes []Node
	Edges []Edge
}

// edgeKindKey is the reserved edge attribute carrying the edge kind.
const edgeKindKey = "Class"

const xmlns = "http://graphml.graphdrawing.org/xmlns"

type xmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type xmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xmlNode struct {
	ID   string    `xml:"id,attr"`
	Data []xmlData `xml:"data"`
}

type xmlEdge struct {
	Source string    `xml:"source,attr"`
	Target string    `xml:"target,attr"`
	Data   []xmlData `xml:"data"`
}

type xmlGraph struct {
	ID          string    `xml:"id,attr,omitempty"`
	EdgeDefault string    `xml:"edgedefault,attr"`
	Nodes       []xmlNode `xml:"node"`
	Edges       []xmlEdge `xml:"edge"`
}

type xmlDoc struct {
	XMLName xml.Name `xml:"graphml"`
	Xmlns   string   `xml:"xmlns,attr"`
	Keys    []xmlKey `xml:"key"`
	Graph   xmlGraph `xml:"graph"`
}

// Encode serializes g as GraphML.
func Encode(g *Graph) (string, error) {
	nodeKeys := collectKeys(nodeProps(g))
	edgeKeys := collectKeys(edgeProps(g))

	doc := xmlDoc{Xmlns: xmlns}
	nodeKeyIDs := make(map[string]string, len(nodeKeys))
	for i, name := range nodeKeys {
		id := fmt.Sprintf("d%d", i)
		nodeKeyIDs[name] = id
		doc.Keys = append(doc.Keys, xmlKey{ID: id, For: "node", AttrName: name, AttrType: "string"})
	}
	edgeKeyIDs := make(map[string]string, len(edgeKeys)+1)
	for i, name := range append([]string{edgeKindKey}, edgeKeys...) {
		if _, ok := edgeKeyIDs[name]; ok {
			continue
		}
		id := fmt.Sprintf("e%d", i)
		edgeKeyIDs[name] = id
		doc.Keys = append(doc.Keys, xmlKey{ID: id, For: "edge", AttrName: name, AttrType: "string"})
	}

	doc.Graph = xmlGraph{ID: g.ID, EdgeDefault: "undirected"}
	for _, n := range g.Nodes {
		xn := xmlNode{ID: n.ID}
		for _, key := range sortedKeys(n.Properties) {
			xn.Data = append(xn.Data, xmlData{Key: nodeKeyIDs[key], Value: n.Properties[key]})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, xn)
	}
	for _, e := range g.Edges {
		xe := xmlEdge{Source: e.Source, Target: e.Target}
		xe.Data = append(xe.Data, xmlData{Key: edgeKeyIDs[edgeKindKey], Value: e.Kind})
		for _, key := range sortedKeys(e.Properties) {
			if key == edgeKindKey {
				continue
			}
			xe.Data = append(xe.Data, xmlData{Key: edgeKeyIDs[key], Value: e.Properties[key]})
		}
		doc.Graph.Edges = append(doc.Graph.Edges, xe)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode graphml: %w", err)
	}
	return xml.Header + string(out), nil
}

// Decode parses a GraphML document back into its neutral form.
func Decode(s string) (*Graph, error) {
	var doc xmlDoc
	if err := xml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("decode graphml: %w", err)
	}

	keyNames := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		keyNames[k.ID] = k.AttrName
	}
	resolve := func(id string) string {
		if name, ok := keyNames[id]; ok {
			return name
		}
		// Tolerate documents that use attribute names as key ids directly.
		return id
	}

	g := &Graph{ID: doc.Graph.ID}
	for _, xn := range doc.Graph.Nodes {
		n := Node{ID: xn.ID, Properties: make(map[string]string, len(xn.Data))}
		for _, d := range xn.Data {
			n.Properties[resolve(d.Key)] = strings.TrimSpace(d.Value)
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, xe := range doc.Graph.Edges {
		e := Edge{Source: xe.Source, Target: xe.Target, Properties: make(map[string]string)}
		for _, d := range xe.Data {
			name := resolve(d.Key)
			value := strings.TrimSpace(d.Value)
			if name == edgeKindKey {
				e.Kind = value
				continue
			}
			e.Properties[name] = value
		}
		g.Edges = append(g.Edges, e)
	}
	return g, nil
}

func nodeProps(g *Graph) []map[string]string {
	bags := make([]map[string]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		bags = append(bags, n.Properties)
	}
	return bags
}

func edgeProps(g *Graph) []map[string]string {
	bags := make([]map[string]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		bags = append(bags, e.Properties)
	}
	return bags
}

func collectKeys(bags []map[string]string) []string {
	seen := make(map[string]struct{})
	for _, bag := range bags {
		for k := range bag {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
