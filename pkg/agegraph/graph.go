package agegraph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openbroker/resgraph/pkg/graphml"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// ageGraph is a handle on one GraphID inside the store's shared AGE
// namespace.
type ageGraph struct {
	store *Store
	id    string
}

func (g *ageGraph) ID() string { return g.id }

func (g *ageGraph) record(op string, start time.Time, err error) {
	g.store.cfg.Metrics.RecordGraphOperation(op, err, time.Since(start))
}

func (g *ageGraph) AddNode(id string, class model.NodeClass, props map[string]string) error {
	start := time.Now()
	err := g.addNode(id, class, props)
	g.record("AddNode", start, err)
	return err
}

func (g *ageGraph) addNode(id string, class model.NodeClass, props map[string]string) error {
	if g.HasNode(id) {
		return propgraph.NodeError("AddNode", g.id, id, propgraph.ErrDuplicateNode)
	}
	bag := make(map[string]string, len(props)+3)
	for k, v := range props {
		bag[k] = v
	}
	bag[model.PropGraphID] = g.id
	bag[model.PropNodeID] = id
	bag[model.PropClass] = string(class)

	q := fmt.Sprintf("CREATE (:%s %s)", markerLabel, propertyMap(bag))
	if err := g.store.exec(context.Background(), q); err != nil {
		return propgraph.NodeError("AddNode", g.id, id, err)
	}
	return nil
}

func (g *ageGraph) AddEdge(a string, kind model.EdgeKind, b string, props map[string]string) error {
	start := time.Now()
	err := g.addEdge(a, kind, b, props)
	g.record("AddEdge", start, err)
	return err
}

func (g *ageGraph) addEdge(a string, kind model.EdgeKind, b string, props map[string]string) error {
	for _, id := range []string{a, b} {
		if !g.HasNode(id) {
			return propgraph.NodeError("AddEdge", g.id, id, propgraph.ErrNodeNotFound)
		}
	}
	bag := make(map[string]string, len(props)+1)
	for k, v := range props {
		bag[k] = v
	}
	bag[model.PropGraphID] = g.id

	q := fmt.Sprintf("MATCH %s, %s CREATE (a)-[:%s %s]->(b)",
		nodePattern("a", g.id, a), nodePattern("b", g.id, b), kind, propertyMap(bag))
	if err := g.store.exec(context.Background(), q); err != nil {
		return propgraph.NodeError("AddEdge", g.id, a, err)
	}
	return nil
}

func (g *ageGraph) DeleteNode(id string) error {
	start := time.Now()
	err := g.deleteNode(id)
	g.record("DeleteNode", start, err)
	return err
}

func (g *ageGraph) deleteNode(id string) error {
	if !g.HasNode(id) {
		return propgraph.NodeError("DeleteNode", g.id, id, propgraph.ErrNodeNotFound)
	}
	q := fmt.Sprintf("MATCH %s DETACH DELETE n", nodePattern("n", g.id, id))
	if err := g.store.exec(context.Background(), q); err != nil {
		return propgraph.NodeError("DeleteNode", g.id, id, err)
	}
	return nil
}

func (g *ageGraph) HasNode(id string) bool {
	q := fmt.Sprintf("MATCH %s RETURN n.%s", nodePattern("n", g.id, id), model.PropNodeID)
	rows, err := g.store.queryColumn(context.Background(), q)
	return err == nil && len(rows) > 0
}

func (g *ageGraph) ListNodes() ([]string, error) {
	q := fmt.Sprintf("MATCH (n:%s {%s: %s}) RETURN n.%s",
		markerLabel, model.PropGraphID, quoteString(g.id), model.PropNodeID)
	ids, err := g.store.queryColumn(context.Background(), q)
	if err != nil {
		return nil, propgraph.OpError("ListNodes", g.id, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (g *ageGraph) GetNodeProperties(id string) ([]string, map[string]string, error) {
	q := fmt.Sprintf("MATCH %s RETURN properties(n)", nodePattern("n", g.id, id))
	rows, err := g.store.queryColumn(context.Background(), q)
	if err != nil {
		return nil, nil, propgraph.NodeError("GetNodeProperties", g.id, id, err)
	}
	if len(rows) == 0 {
		return nil, nil, propgraph.NodeError("GetNodeProperties", g.id, id, propgraph.ErrNodeNotFound)
	}
	props, err := parseProperties(rows[0])
	if err != nil {
		return nil, nil, propgraph.NodeError("GetNodeProperties", g.id, id, err)
	}
	return []string{props[model.PropClass]}, props, nil
}

func (g *ageGraph) UpdateNodeProperty(id, key, value string) error {
	start := time.Now()
	err := g.updateNodeProperty(id, key, value)
	g.record("UpdateNodeProperty", start, err)
	return err
}

func (g *ageGraph) updateNodeProperty(id, key, value string) error {
	if model.IsImmutableProp(key) {
		return propgraph.PropError("UpdateNodeProperty", g.id, id, key, propgraph.ErrProtectedProperty)
	}
	if !g.HasNode(id) {
		return propgraph.NodeError("UpdateNodeProperty", g.id, id, propgraph.ErrNodeNotFound)
	}
	if key == model.PropGraphID {
		// Retagging moves the node between graphs; refuse a collision
		// with an existing node in the target graph.
		target := &ageGraph{store: g.store, id: value}
		if value != g.id && target.HasNode(id) {
			return propgraph.NodeError("UpdateNodeProperty", value, id, propgraph.ErrDuplicateNode)
		}
	}
	q := fmt.Sprintf("MATCH %s SET n.%s = %s", nodePattern("n", g.id, id), key, quoteString(value))
	if err := g.store.exec(context.Background(), q); err != nil {
		return propgraph.PropError("UpdateNodeProperty", g.id, id, key, err)
	}
	return nil
}

func (g *ageGraph) UpdateNodeProperties(id string, props map[string]string) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := g.UpdateNodeProperty(id, k, props[k]); err != nil {
			return err
		}
	}
	return nil
}

func (g *ageGraph) UnsetNodeProperty(id, key string) error {
	start := time.Now()
	err := g.unsetNodeProperty(id, key)
	g.record("UnsetNodeProperty", start, err)
	return err
}

func (g *ageGraph) unsetNodeProperty(id, key string) error {
	if model.IsProtectedProp(key) {
		return propgraph.PropError("UnsetNodeProperty", g.id, id, key, propgraph.ErrProtectedProperty)
	}
	if !g.HasNode(id) {
		return propgraph.NodeError("UnsetNodeProperty", g.id, id, propgraph.ErrNodeNotFound)
	}
	q := fmt.Sprintf("MATCH %s REMOVE n.%s", nodePattern("n", g.id, id), key)
	if err := g.store.exec(context.Background(), q); err != nil {
		return propgraph.PropError("UnsetNodeProperty", g.id, id, key, err)
	}
	return nil
}

// linkMatch matches the edge of the given kind between a and b in
// either direction.
func (g *ageGraph) linkMatch(a, b string, kind model.EdgeKind) string {
	return fmt.Sprintf("MATCH %s%s%s",
		nodePattern("a", g.id, a), relPattern("r", kind), nodePattern("b", g.id, b))
}

func (g *ageGraph) GetLinkProperties(a, b string, kind model.EdgeKind) (map[string]string, error) {
	q := g.linkMatch(a, b, kind) + " RETURN properties(r)"
	rows, err := g.store.queryColumn(context.Background(), q)
	if err != nil {
		return nil, propgraph.NodeError("GetLinkProperties", g.id, a, err)
	}
	if len(rows) == 0 {
		return nil, propgraph.NodeError("GetLinkProperties", g.id, a, propgraph.ErrLinkNotFound)
	}
	props, err := parseProperties(rows[0])
	if err != nil {
		return nil, propgraph.NodeError("GetLinkProperties", g.id, a, err)
	}
	return props, nil
}

func (g *ageGraph) UpdateLinkProperty(a, b string, kind model.EdgeKind, key, value string) error {
	if _, err := g.GetLinkProperties(a, b, kind); err != nil {
		return err
	}
	q := g.linkMatch(a, b, kind) + fmt.Sprintf(" SET r.%s = %s", key, quoteString(value))
	if err := g.store.exec(context.Background(), q); err != nil {
		return propgraph.PropError("UpdateLinkProperty", g.id, a, key, err)
	}
	return nil
}

func (g *ageGraph) UpdateLinkProperties(a, b string, kind model.EdgeKind, props map[string]string) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := g.UpdateLinkProperty(a, b, kind, k, props[k]); err != nil {
			return err
		}
	}
	return nil
}

func (g *ageGraph) UnsetLinkProperty(a, b string, kind model.EdgeKind, key string) error {
	if _, err := g.GetLinkProperties(a, b, kind); err != nil {
		return err
	}
	q := g.linkMatch(a, b, kind) + fmt.Sprintf(" REMOVE r.%s", key)
	if err := g.store.exec(context.Background(), q); err != nil {
		return propgraph.PropError("UnsetLinkProperty", g.id, a, key, err)
	}
	return nil
}

func (g *ageGraph) GetFirstNeighbor(node string, rel model.EdgeKind, class model.NodeClass) ([]string, error) {
	if !g.HasNode(node) {
		return nil, propgraph.NodeError("GetFirstNeighbor", g.id, node, propgraph.ErrNodeNotFound)
	}
	q := fmt.Sprintf("MATCH %s%s(m:%s {%s: %s, %s: %s}) RETURN m.%s",
		nodePattern("n", g.id, node), relPattern("r", rel),
		markerLabel, model.PropGraphID, quoteString(g.id),
		model.PropClass, quoteString(string(class)), model.PropNodeID)
	ids, err := g.store.queryColumn(context.Background(), q)
	if err != nil {
		return nil, propgraph.NodeError("GetFirstNeighbor", g.id, node, err)
	}
	return dedupeSorted(ids), nil
}

func (g *ageGraph) GetFirstAndSecondNeighbor(node string, rel1 model.EdgeKind, class1 model.NodeClass,
	rel2 model.EdgeKind, class2 model.NodeClass) ([]propgraph.NeighborPair, error) {
	if !g.HasNode(node) {
		return nil, propgraph.NodeError("GetFirstAndSecondNeighbor", g.id, node, propgraph.ErrNodeNotFound)
	}
	q := fmt.Sprintf(
		"MATCH %s%s(m:%s {%s: %s, %s: %s})%s(o:%s {%s: %s, %s: %s}) WHERE o.%s <> %s RETURN m.%s, o.%s",
		nodePattern("n", g.id, node),
		relPattern("r1", rel1), markerLabel,
		model.PropGraphID, quoteString(g.id), model.PropClass, quoteString(string(class1)),
		relPattern("r2", rel2), markerLabel,
		model.PropGraphID, quoteString(g.id), model.PropClass, quoteString(string(class2)),
		model.PropNodeID, quoteString(node),
		model.PropNodeID, model.PropNodeID)
	rows, err := g.store.queryRows(context.Background(), q, "first", "second")
	if err != nil {
		return nil, propgraph.NodeError("GetFirstAndSecondNeighbor", g.id, node, err)
	}
	seen := make(map[propgraph.NeighborPair]struct{}, len(rows))
	pairs := make([]propgraph.NeighborPair, 0, len(rows))
	for _, r := range rows {
		p := propgraph.NeighborPair{First: unquoteScalar(r[0]), Second: unquoteScalar(r[1])}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].First != pairs[j].First {
			return pairs[i].First < pairs[j].First
		}
		return pairs[i].Second < pairs[j].Second
	})
	return pairs, nil
}

// adjacency loads the node-id adjacency of this graph over edges of the
// given kind.
func (g *ageGraph) adjacency(kind model.EdgeKind) (propgraph.Adjacency, error) {
	q := fmt.Sprintf("MATCH (a:%s {%s: %s})%s(b:%s {%s: %s}) RETURN a.%s, b.%s",
		markerLabel, model.PropGraphID, quoteString(g.id),
		relPatternDirected("r", kind),
		markerLabel, model.PropGraphID, quoteString(g.id),
		model.PropNodeID, model.PropNodeID)
	rows, err := g.store.queryRows(context.Background(), q, "a", "b")
	if err != nil {
		return nil, err
	}
	adj := make(propgraph.Adjacency)
	for _, r := range rows {
		adj.AddEdge(unquoteScalar(r[0]), unquoteScalar(r[1]))
	}
	return adj, nil
}

func (g *ageGraph) ShortestPath(a, z string, rel model.EdgeKind) ([]string, error) {
	for _, id := range []string{a, z} {
		if !g.HasNode(id) {
			return nil, propgraph.NodeError("ShortestPath", g.id, id, propgraph.ErrNodeNotFound)
		}
	}
	adj, err := g.adjacency(rel)
	if err != nil {
		return nil, propgraph.OpError("ShortestPath", g.id, err)
	}
	return propgraph.BFSShortestPath(adj, a, z), nil
}

func (g *ageGraph) PathWithRequiredHops(a, z string, hops []string, cutoff int) ([]string, error) {
	for _, id := range append([]string{a, z}, hops...) {
		if !g.HasNode(id) {
			return nil, propgraph.NodeError("PathWithRequiredHops", g.id, id, propgraph.ErrNodeNotFound)
		}
	}
	adj, err := g.adjacency(model.EdgeAny)
	if err != nil {
		return nil, propgraph.OpError("PathWithRequiredHops", g.id, err)
	}
	return propgraph.PathThroughHops(adj, a, z, hops, cutoff), nil
}

func (g *ageGraph) Serialize(f propgraph.Format) (string, error) {
	if f != propgraph.FormatGraphML {
		return "", propgraph.OpError("Serialize", g.id,
			fmt.Errorf("%w: format %s", propgraph.ErrUnsupportedOperation, f))
	}
	doc, err := g.export()
	if err != nil {
		return "", propgraph.OpError("Serialize", g.id, err)
	}
	return graphml.Encode(doc)
}

// export dumps the graph's nodes and edges into the neutral document
// form.
func (g *ageGraph) export() (*graphml.Graph, error) {
	ctx := context.Background()
	doc := &graphml.Graph{ID: g.id}

	ids, err := g.ListNodes()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		_, props, err := g.GetNodeProperties(id)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, graphml.Node{ID: id, Properties: props})
	}

	q := fmt.Sprintf("MATCH (a:%s {%s: %s})-[r]->(b:%s {%s: %s}) RETURN a.%s, b.%s, type(r), properties(r)",
		markerLabel, model.PropGraphID, quoteString(g.id),
		markerLabel, model.PropGraphID, quoteString(g.id),
		model.PropNodeID, model.PropNodeID)
	rows, err := g.store.queryRows(ctx, q, "a", "b", "kind", "props")
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		props, err := parseProperties(r[3])
		if err != nil {
			return nil, err
		}
		doc.Edges = append(doc.Edges, graphml.Edge{
			Source:     unquoteScalar(r[0]),
			Target:     unquoteScalar(r[1]),
			Kind:       unquoteScalar(r[2]),
			Properties: props,
		})
	}
	sort.Slice(doc.Edges, func(i, j int) bool {
		if doc.Edges[i].Source != doc.Edges[j].Source {
			return doc.Edges[i].Source < doc.Edges[j].Source
		}
		return doc.Edges[i].Target < doc.Edges[j].Target
	})
	return doc, nil
}

func (g *ageGraph) Clone(newID string) (propgraph.Graph, error) {
	serialized, err := g.Serialize(propgraph.FormatGraphML)
	if err != nil {
		return nil, err
	}
	return g.store.ImportGraph(serialized, propgraph.FormatGraphML, newID)
}

func (g *ageGraph) FindMatchingNodes(other propgraph.Graph) (propgraph.NodeSet, error) {
	ids, err := g.ListNodes()
	if err != nil {
		return nil, err
	}
	matches := make(propgraph.NodeSet)
	for _, id := range ids {
		if other.HasNode(id) {
			matches.Add(id)
		}
	}
	return matches, nil
}

// MergeNodes contracts this graph's node and other's same-id node. Both
// nodes must live in this store's shared namespace.
func (g *ageGraph) MergeNodes(id string, other propgraph.Graph, policy propgraph.MergePolicy) error {
	start := time.Now()
	err := g.mergeNodes(id, other, policy)
	g.record("MergeNodes", start, err)
	return err
}

func (g *ageGraph) mergeNodes(id string, other propgraph.Graph, policy propgraph.MergePolicy) error {
	og, ok := other.(*ageGraph)
	if !ok || og.store != g.store {
		return propgraph.NodeError("MergeNodes", g.id, id,
			fmt.Errorf("%w: graphs live in different stores", propgraph.ErrUnsupportedOperation))
	}
	_, selfProps, err := g.GetNodeProperties(id)
	if err != nil {
		return err
	}
	_, otherProps, err := og.GetNodeProperties(id)
	if err != nil {
		return err
	}
	merged, err := propgraph.ResolveMergedProperties(selfProps, otherProps, policy)
	if err != nil {
		return propgraph.NodeError("MergeNodes", g.id, id, err)
	}
	merged[model.PropGraphID] = g.id
	merged[model.PropNodeID] = id

	ctx := context.Background()
	// Rewire the other node's edges onto the kept node, dropping the
	// edge between the two when present.
	q := fmt.Sprintf("MATCH %s%s(peer) WHERE peer.%s <> %s OR peer.%s <> %s RETURN peer.%s, peer.%s, type(r), properties(r)",
		nodePattern("o", og.id, id), relPattern("r", model.EdgeAny),
		model.PropNodeID, quoteString(id), model.PropGraphID, quoteString(g.id),
		model.PropGraphID, model.PropNodeID)
	rows, err := g.store.queryRows(ctx, q, "gid", "nid", "kind", "props")
	if err != nil {
		return propgraph.NodeError("MergeNodes", g.id, id, err)
	}

	if err := og.DeleteNode(id); err != nil {
		return err
	}
	set := fmt.Sprintf("MATCH %s SET n = %s", nodePattern("n", g.id, id), propertyMap(merged))
	if err := g.store.exec(ctx, set); err != nil {
		return propgraph.NodeError("MergeNodes", g.id, id, err)
	}
	for _, r := range rows {
		peerGraph, peerNode := unquoteScalar(r[0]), unquoteScalar(r[1])
		kind := model.EdgeKind(unquoteScalar(r[2]))
		props, err := parseProperties(r[3])
		if err != nil {
			return propgraph.NodeError("MergeNodes", g.id, id, err)
		}
		create := fmt.Sprintf("MATCH %s, %s CREATE (n)-[:%s %s]->(peer)",
			nodePattern("n", g.id, id), nodePattern("peer", peerGraph, peerNode),
			kind, propertyMap(props))
		if err := g.store.exec(ctx, create); err != nil {
			return propgraph.NodeError("MergeNodes", g.id, id, err)
		}
	}
	return nil
}

func (g *ageGraph) Validate() error {
	if err := propgraph.ValidateJSONProperties(g); err != nil {
		return err
	}
	return g.runRules(DefaultRules())
}

func (g *ageGraph) Delete() error {
	return g.store.DeleteGraph(g.id)
}

func dedupeSorted(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	var prev string
	for i, id := range ids {
		if i > 0 && id == prev {
			continue
		}
		out = append(out, id)
		prev = id
	}
	return out
}
