package memgraph

import (
	"container/list"
	"sort"

	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// adjacent returns the handles of nodes adjacent to n over edges of the
// given kind, scoped to n's graph. EdgeAny matches every kind.
func (mg *multigraph) adjacent(n *mnode, kind model.EdgeKind) []uint64 {
	out := make([]uint64, 0, len(n.edges))
	for _, eh := range n.edges {
		e, ok := mg.edges[eh]
		if !ok {
			continue
		}
		if kind != model.EdgeAny && e.kind != kind {
			continue
		}
		otherHandle := e.a
		if e.a == n.handle {
			otherHandle = e.b
		}
		other, ok := mg.nodes[otherHandle]
		if !ok || other.graphID != n.graphID {
			continue
		}
		out = append(out, otherHandle)
	}
	return out
}

func (mg *multigraph) firstNeighbor(graphID, nodeID string, rel model.EdgeKind, class model.NodeClass) ([]string, error) {
	n, ok := mg.lookup(graphID, nodeID)
	if !ok {
		return nil, propgraph.NodeError("GetFirstNeighbor", graphID, nodeID, propgraph.ErrNodeNotFound)
	}
	seen := make(map[uint64]struct{})
	result := make([]string, 0)
	for _, h := range mg.adjacent(n, rel) {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		neighbor := mg.nodes[h]
		if neighbor.class == class {
			result = append(result, neighbor.id)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (mg *multigraph) firstAndSecondNeighbor(graphID, nodeID string,
	rel1 model.EdgeKind, class1 model.NodeClass,
	rel2 model.EdgeKind, class2 model.NodeClass) ([]propgraph.NeighborPair, error) {
	origin, ok := mg.lookup(graphID, nodeID)
	if !ok {
		return nil, propgraph.NodeError("GetFirstAndSecondNeighbor", graphID, nodeID, propgraph.ErrNodeNotFound)
	}
	pairs := make([]propgraph.NeighborPair, 0)
	seen := make(map[[2]uint64]struct{})
	for _, h1 := range mg.adjacent(origin, rel1) {
		first := mg.nodes[h1]
		if first.class != class1 {
			continue
		}
		for _, h2 := range mg.adjacent(first, rel2) {
			// Never report the origin, even in cyclic graphs.
			if h2 == origin.handle {
				continue
			}
			second := mg.nodes[h2]
			if second.class != class2 {
				continue
			}
			key := [2]uint64{h1, h2}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, propgraph.NeighborPair{First: first.id, Second: second.id})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].First != pairs[j].First {
			return pairs[i].First < pairs[j].First
		}
		return pairs[i].Second < pairs[j].Second
	})
	return pairs, nil
}

// shortestPath runs a breadth-first search from a to z. An unreachable
// target yields an empty path, not an error.
func (mg *multigraph) shortestPath(graphID, a, z string, rel model.EdgeKind) ([]string, error) {
	start, ok := mg.lookup(graphID, a)
	if !ok {
		return nil, propgraph.NodeError("ShortestPath", graphID, a, propgraph.ErrNodeNotFound)
	}
	end, ok := mg.lookup(graphID, z)
	if !ok {
		return nil, propgraph.NodeError("ShortestPath", graphID, z, propgraph.ErrNodeNotFound)
	}
	if start.handle == end.handle {
		return []string{a}, nil
	}

	parent := make(map[uint64]uint64)
	parent[start.handle] = start.handle
	queue := list.New()
	queue.PushBack(start.handle)

	for queue.Len() > 0 {
		current := queue.Remove(queue.Front()).(uint64)
		for _, h := range mg.adjacent(mg.nodes[current], rel) {
			if _, visited := parent[h]; visited {
				continue
			}
			parent[h] = current
			if h == end.handle {
				return mg.reconstructPath(parent, start.handle, end.handle), nil
			}
			queue.PushBack(h)
		}
	}
	return []string{}, nil
}

func (mg *multigraph) reconstructPath(parent map[uint64]uint64, start, end uint64) []string {
	handles := make([]uint64, 0)
	for h := end; h != start; h = parent[h] {
		handles = append(handles, h)
	}
	handles = append(handles, start)
	path := make([]string, len(handles))
	for i, h := range handles {
		path[len(handles)-1-i] = mg.nodes[h].id
	}
	return path
}

// pathWithRequiredHops searches depth-first for a loop-free path from a
// to z of length at most cutoff that visits every hop. The first such
// path found is returned; an empty path means none exists.
func (mg *multigraph) pathWithRequiredHops(graphID, a, z string, hops []string, cutoff int) ([]string, error) {
	start, ok := mg.lookup(graphID, a)
	if !ok {
		return nil, propgraph.NodeError("PathWithRequiredHops", graphID, a, propgraph.ErrNodeNotFound)
	}
	end, ok := mg.lookup(graphID, z)
	if !ok {
		return nil, propgraph.NodeError("PathWithRequiredHops", graphID, z, propgraph.ErrNodeNotFound)
	}
	required := make(map[uint64]struct{}, len(hops))
	for _, hop := range hops {
		n, ok := mg.lookup(graphID, hop)
		if !ok {
			return nil, propgraph.NodeError("PathWithRequiredHops", graphID, hop, propgraph.ErrNodeNotFound)
		}
		required[n.handle] = struct{}{}
	}

	visited := map[uint64]struct{}{start.handle: {}}
	path := []uint64{start.handle}
	found := mg.dfsRequiredHops(start.handle, end.handle, required, visited, &path, cutoff)
	if !found {
		return []string{}, nil
	}
	result := make([]string, len(path))
	for i, h := range path {
		result[i] = mg.nodes[h].id
	}
	return result, nil
}

func (mg *multigraph) dfsRequiredHops(current, end uint64, required map[uint64]struct{},
	visited map[uint64]struct{}, path *[]uint64, cutoff int) bool {
	if current == end {
		for h := range required {
			if _, onPath := visited[h]; !onPath {
				return false
			}
		}
		return true
	}
	if len(*path) > cutoff {
		return false
	}
	for _, h := range mg.adjacent(mg.nodes[current], model.EdgeAny) {
		if _, seen := visited[h]; seen {
			continue
		}
		visited[h] = struct{}{}
		*path = append(*path, h)
		if mg.dfsRequiredHops(h, end, required, visited, path, cutoff) {
			return true
		}
		*path = (*path)[:len(*path)-1]
		delete(visited, h)
	}
	return false
}
