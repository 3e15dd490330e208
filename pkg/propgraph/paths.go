package propgraph

import "sort"

// Adjacency lists the neighbor node ids of each node id. Backends that
// keep their topology in an external database load an adjacency snapshot
// and run pathfinding locally instead of pushing the search into the
// database.
type Adjacency map[string][]string

// AddEdge records an undirected edge between a and b.
func (adj Adjacency) AddEdge(a, b string) {
	adj[a] = append(adj[a], b)
	adj[b] = append(adj[b], a)
}

// BFSShortestPath returns a shortest path from a to z over adj, or an
// empty slice when z is unreachable. Neighbors are expanded in sorted
// order so results are deterministic.
func BFSShortestPath(adj Adjacency, a, z string) []string {
	if a == z {
		return []string{a}
	}
	parent := map[string]string{a: a}
	queue := []string{a}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		neighbors := append([]string(nil), adj[current]...)
		sort.Strings(neighbors)
		for _, n := range neighbors {
			if _, visited := parent[n]; visited {
				continue
			}
			parent[n] = current
			if n == z {
				return rebuildPath(parent, a, z)
			}
			queue = append(queue, n)
		}
	}
	return []string{}
}

func rebuildPath(parent map[string]string, a, z string) []string {
	rev := []string{}
	for id := z; id != a; id = parent[id] {
		rev = append(rev, id)
	}
	rev = append(rev, a)
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// PathThroughHops searches depth-first for a loop-free path from a to z
// of at most cutoff nodes after the start that passes through every hop.
// An empty slice means no such path exists.
func PathThroughHops(adj Adjacency, a, z string, hops []string, cutoff int) []string {
	visited := map[string]struct{}{a: {}}
	path := []string{a}
	if !dfsThroughHops(adj, a, z, hops, visited, &path, cutoff) {
		return []string{}
	}
	return path
}

func dfsThroughHops(adj Adjacency, current, z string, hops []string,
	visited map[string]struct{}, path *[]string, cutoff int) bool {
	if current == z {
		for _, h := range hops {
			if _, onPath := visited[h]; !onPath {
				return false
			}
		}
		return true
	}
	if len(*path) > cutoff {
		return false
	}
	neighbors := append([]string(nil), adj[current]...)
	sort.Strings(neighbors)
	for _, n := range neighbors {
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		*path = append(*path, n)
		if dfsThroughHops(adj, n, z, hops, visited, path, cutoff) {
			return true
		}
		*path = (*path)[:len(*path)-1]
		delete(visited, n)
	}
	return false
}
