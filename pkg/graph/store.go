package graph

import (
	"container/list"
	"sort"
	"sync"
)

// Store is the directed labeled property graph. At most one edge may
// exist per ordered (src, dst, kind) triple — kind is an opaque
// caller-supplied discriminator (the ontology engine passes the
// relationship type through it) so distinct kinds between the same pair
// of nodes are independent edges, while a second edge of the same kind
// over the same pair is rejected. All reads return copies: attribute maps
// are owned by the store.
//
// Grounded on pkg/storage/memory.go's MemoryEngine: a sync.RWMutex guarding
// plain maps, with separate out/in adjacency indexes per node so traversal
// never scans the full edge set.
type Store struct {
	mu sync.RWMutex

	nodes map[NodeID]map[string]any
	edges map[edgeKey]map[string]any

	// out[src][dst] holds the set of kinds connecting src -> dst.
	out map[NodeID]map[NodeID]map[string]struct{}
	in  map[NodeID]map[NodeID]map[string]struct{}

	// insertion order, for deterministic tie-breaking in rankings.
	nodeOrder []NodeID
}

type edgeKey struct {
	src  NodeID
	dst  NodeID
	kind string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nodes: make(map[NodeID]map[string]any),
		edges: make(map[edgeKey]map[string]any),
		out:   make(map[NodeID]map[NodeID]map[string]struct{}),
		in:    make(map[NodeID]map[NodeID]map[string]struct{}),
	}
}

// AddNode inserts a new node. Returns ErrNodeExists if id is already present.
func (s *Store) AddNode(id NodeID, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; ok {
		return ErrNodeExists
	}
	s.nodes[id] = copyAttrs(attrs)
	s.out[id] = make(map[NodeID]map[string]struct{})
	s.in[id] = make(map[NodeID]map[string]struct{})
	s.nodeOrder = append(s.nodeOrder, id)
	return nil
}

// RemoveNode deletes a node. Fails with ErrNodeHasEdges if incident edges
// remain; the caller must remove them first (or use RemoveNodeCascade).
func (s *Store) RemoveNode(id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	if s.degreeLocked(id) > 0 {
		return ErrNodeHasEdges
	}
	s.deleteNodeLocked(id)
	return nil
}

// RemoveNodeCascade deletes a node and every edge incident to it,
// returning the number of edges removed.
func (s *Store) RemoveNodeCascade(id NodeID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return 0, ErrNodeNotFound
	}

	removed := 0
	for dst, kinds := range s.out[id] {
		for kind := range kinds {
			s.removeEdgeLocked(id, dst, kind)
			removed++
		}
	}
	for src, kinds := range s.in[id] {
		for kind := range kinds {
			s.removeEdgeLocked(src, id, kind)
			removed++
		}
	}

	s.deleteNodeLocked(id)
	return removed, nil
}

func (s *Store) deleteNodeLocked(id NodeID) {
	delete(s.nodes, id)
	delete(s.out, id)
	delete(s.in, id)
	for i, n := range s.nodeOrder {
		if n == id {
			s.nodeOrder = append(s.nodeOrder[:i], s.nodeOrder[i+1:]...)
			break
		}
	}
}

func (s *Store) degreeLocked(id NodeID) int {
	count := 0
	for _, kinds := range s.out[id] {
		count += len(kinds)
	}
	for _, kinds := range s.in[id] {
		count += len(kinds)
	}
	return count
}

// HasNode reports whether id exists.
func (s *Store) HasNode(id NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// NodeAttrs returns a copy of id's attribute map, or (nil, false) if absent.
func (s *Store) NodeAttrs(id NodeID) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return copyAttrs(attrs), true
}

// SetNodeAttrs replaces id's attribute map in place.
func (s *Store) SetNodeAttrs(id NodeID, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	s.nodes[id] = copyAttrs(attrs)
	return nil
}

// AllNodes returns every node in insertion order.
func (s *Store) AllNodes() []NodeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NodeRecord, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, NodeRecord{ID: id, Attrs: copyAttrs(s.nodes[id])})
	}
	return out
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// AddEdge inserts a directed edge src->dst of the given kind. Rejects
// self-loops, missing endpoints, and a second edge of the same kind over
// the same ordered pair. Distinct kinds between the same pair coexist.
func (s *Store) AddEdge(src, dst NodeID, kind string, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src == dst {
		return ErrSelfLoop
	}
	if _, ok := s.nodes[src]; !ok {
		return ErrNodeNotFound
	}
	if _, ok := s.nodes[dst]; !ok {
		return ErrNodeNotFound
	}
	key := edgeKey{src, dst, kind}
	if _, ok := s.edges[key]; ok {
		return ErrEdgeExists
	}

	s.edges[key] = copyAttrs(attrs)
	if s.out[src][dst] == nil {
		s.out[src][dst] = make(map[string]struct{})
	}
	s.out[src][dst][kind] = struct{}{}
	if s.in[dst][src] == nil {
		s.in[dst][src] = make(map[string]struct{})
	}
	s.in[dst][src][kind] = struct{}{}
	return nil
}

// RemoveEdge deletes the src->dst edge of the given kind.
func (s *Store) RemoveEdge(src, dst NodeID, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[edgeKey{src, dst, kind}]; !ok {
		return ErrEdgeNotFound
	}
	s.removeEdgeLocked(src, dst, kind)
	return nil
}

func (s *Store) removeEdgeLocked(src, dst NodeID, kind string) {
	delete(s.edges, edgeKey{src, dst, kind})
	delete(s.out[src][dst], kind)
	if len(s.out[src][dst]) == 0 {
		delete(s.out[src], dst)
	}
	delete(s.in[dst][src], kind)
	if len(s.in[dst][src]) == 0 {
		delete(s.in[dst], src)
	}
}

// HasEdge reports whether a src->dst edge of the given kind exists.
func (s *Store) HasEdge(src, dst NodeID, kind string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[edgeKey{src, dst, kind}]
	return ok
}

// HasAnyEdge reports whether any edge exists between src and dst,
// regardless of kind.
func (s *Store) HasAnyEdge(src, dst NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.out[src][dst]) > 0
}

// EdgeAttrs returns a copy of the src->dst edge's attributes for the
// given kind.
func (s *Store) EdgeAttrs(src, dst NodeID, kind string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.edges[edgeKey{src, dst, kind}]
	if !ok {
		return nil, false
	}
	return copyAttrs(attrs), true
}

// SetEdgeAttrs replaces the src->dst edge's attribute map in place.
func (s *Store) SetEdgeAttrs(src, dst NodeID, kind string, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := edgeKey{src, dst, kind}
	if _, ok := s.edges[key]; !ok {
		return ErrEdgeNotFound
	}
	s.edges[key] = copyAttrs(attrs)
	return nil
}

// OutEdges returns every outgoing edge of id (one entry per destination
// per kind), sorted by destination id then kind for deterministic
// iteration.
func (s *Store) OutEdges(id NodeID) []EdgeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type withKind struct {
		rec  EdgeRecord
		kind string
	}
	tmp := make([]withKind, 0)
	for dst, kinds := range s.out[id] {
		for kind := range kinds {
			tmp = append(tmp, withKind{
				rec:  EdgeRecord{Src: id, Dst: dst, Attrs: copyAttrs(s.edges[edgeKey{id, dst, kind}])},
				kind: kind,
			})
		}
	}
	sort.Slice(tmp, func(i, j int) bool {
		if tmp[i].rec.Dst != tmp[j].rec.Dst {
			return tmp[i].rec.Dst < tmp[j].rec.Dst
		}
		return tmp[i].kind < tmp[j].kind
	})
	out := make([]EdgeRecord, len(tmp))
	for i, w := range tmp {
		out[i] = w.rec
	}
	return out
}

// InEdges returns every incoming edge of id, sorted by source id.
func (s *Store) InEdges(id NodeID) []EdgeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EdgeRecord, 0)
	for src, kinds := range s.in[id] {
		for kind := range kinds {
			out = append(out, EdgeRecord{
				Src:   src,
				Dst:   id,
				Attrs: copyAttrs(s.edges[edgeKey{src, id, kind}]),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Src < out[j].Src })
	return out
}

// AllEdges returns every edge in the store. Order is unspecified.
func (s *Store) AllEdges() []EdgeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EdgeRecord, 0, len(s.edges))
	for key, attrs := range s.edges {
		out = append(out, EdgeRecord{Src: key.src, Dst: key.dst, Attrs: copyAttrs(attrs)})
	}
	return out
}

// InDegree returns the number of incoming edges at id.
func (s *Store) InDegree(id NodeID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, kinds := range s.in[id] {
		count += len(kinds)
	}
	return count
}

// OutDegree returns the number of outgoing edges at id.
func (s *Store) OutDegree(id NodeID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, kinds := range s.out[id] {
		count += len(kinds)
	}
	return count
}

// Degree returns in-degree plus out-degree at id.
func (s *Store) Degree(id NodeID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degreeLocked(id)
}

// Neighbors returns the undirected neighbor set of id (union of in- and
// out-adjacency, one entry per distinct neighbor node regardless of how
// many kinds connect them), used by connected-components/community
// detection.
func (s *Store) Neighbors(id NodeID) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[NodeID]struct{}, len(s.out[id])+len(s.in[id]))
	for n := range s.out[id] {
		seen[n] = struct{}{}
	}
	for n := range s.in[id] {
		seen[n] = struct{}{}
	}
	out := make([]NodeID, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// OutNeighbors returns the distinct set of nodes reachable from id via a
// single outgoing edge, regardless of kind.
func (s *Store) OutNeighbors(id NodeID) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NodeID, 0, len(s.out[id]))
	for n := range s.out[id] {
		out = append(out, n)
	}
	return out
}

// ShortestPathLength returns the number of hops on an unweighted shortest
// path from src to dst via BFS over directed out-edges. ok is false if
// src or dst is absent, or no path exists.
func (s *Store) ShortestPathLength(src, dst NodeID) (length int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[src]; !exists {
		return 0, false
	}
	if _, exists := s.nodes[dst]; !exists {
		return 0, false
	}
	if src == dst {
		return 0, true
	}

	visited := map[NodeID]int{src: 0}
	queue := list.New()
	queue.PushBack(src)

	for queue.Len() > 0 {
		front := queue.Front()
		queue.Remove(front)
		cur := front.Value.(NodeID)
		depth := visited[cur]

		for next := range s.out[cur] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = depth + 1
			if next == dst {
				return depth + 1, true
			}
			queue.PushBack(next)
		}
	}
	return 0, false
}

// Distances runs a single-source BFS from src over directed out-edges and
// returns every reachable node's shortest-path distance (src excluded).
// Nodes beyond maxDistance are omitted; maxDistance <= 0 means unbounded.
func (s *Store) Distances(src NodeID, maxDistance int) map[NodeID]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[NodeID]int)
	if _, exists := s.nodes[src]; !exists {
		return result
	}

	visited := map[NodeID]int{src: 0}
	queue := list.New()
	queue.PushBack(src)

	for queue.Len() > 0 {
		front := queue.Front()
		queue.Remove(front)
		cur := front.Value.(NodeID)
		depth := visited[cur]
		if maxDistance > 0 && depth >= maxDistance {
			continue
		}

		for next := range s.out[cur] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = depth + 1
			result[next] = depth + 1
			queue.PushBack(next)
		}
	}
	return result
}

// AllSimplePaths enumerates every simple directed path from src to dst
// with at most cutoff edges, via DFS over node adjacency. A path visits
// each node at most once; parallel edges of distinct kinds between the
// same pair of nodes collapse onto that one visit and do not produce
// separate paths. Returns nil if either endpoint is missing.
func (s *Store) AllSimplePaths(src, dst NodeID, cutoff int) [][]NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[src]; !ok {
		return nil
	}
	if _, ok := s.nodes[dst]; !ok {
		return nil
	}

	var paths [][]NodeID
	visited := map[NodeID]bool{src: true}
	path := []NodeID{src}

	var dfs func(cur NodeID)
	dfs = func(cur NodeID) {
		if len(path)-1 >= cutoff {
			return
		}
		for next := range s.out[cur] {
			if visited[next] {
				continue
			}
			path = append(path, next)
			if next == dst {
				found := make([]NodeID, len(path))
				copy(found, path)
				paths = append(paths, found)
			} else {
				visited[next] = true
				dfs(next)
				visited[next] = false
			}
			path = path[:len(path)-1]
		}
	}
	dfs(src)
	return paths
}
