package ontology

import (
	"container/list"
	"sort"
	"strconv"
	"strings"

	"github.com/cyberonlab/ontology-engine/pkg/graph"
)

// HierarchyRoot is one root node of the concept hierarchy plus the
// deepest BFS layer reached from it.
type HierarchyRoot struct {
	Entity
	MaxDepth int
}

// Hierarchy is the result of AnalyzeConceptHierarchy: every in-degree-0,
// out-degree>0 root, and for each root a BFS layering keyed by
// stringified depth starting at "0".
type Hierarchy struct {
	Roots       []HierarchyRoot
	Hierarchies map[string]map[string][]Entity
}

// AnalyzeConceptHierarchy finds every root (in-degree 0, out-degree > 0)
// and BFS-layers the graph from each, grounded on apoc/path's
// container/list BFS shape.
func (q *QueryEngine) AnalyzeConceptHierarchy() Hierarchy {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := Hierarchy{Hierarchies: make(map[string]map[string][]Entity)}

	for _, n := range q.store.AllNodes() {
		if q.store.InDegree(n.ID) != 0 || q.store.OutDegree(n.ID) == 0 {
			continue
		}
		layers, maxDepth := q.bfsLayers(n.ID)
		result.Roots = append(result.Roots, HierarchyRoot{
			Entity:   entityFromAttrs(n.ID, n.Attrs),
			MaxDepth: maxDepth,
		})
		result.Hierarchies[string(n.ID)] = layers
	}
	return result
}

func (q *QueryEngine) bfsLayers(root graph.NodeID) (map[string][]Entity, int) {
	layers := make(map[string][]Entity)
	visited := map[graph.NodeID]int{root: 0}
	rootAttrs, _ := q.store.NodeAttrs(root)
	layers[depthKey(0)] = []Entity{entityFromAttrs(root, rootAttrs)}

	queue := list.New()
	queue.PushBack(root)
	maxDepth := 0

	for queue.Len() > 0 {
		front := queue.Front()
		queue.Remove(front)
		cur := front.Value.(graph.NodeID)
		depth := visited[cur]

		for _, e := range q.store.OutEdges(cur) {
			if _, seen := visited[e.Dst]; seen {
				continue
			}
			visited[e.Dst] = depth + 1
			if depth+1 > maxDepth {
				maxDepth = depth + 1
			}
			attrs, _ := q.store.NodeAttrs(e.Dst)
			key := depthKey(depth + 1)
			layers[key] = append(layers[key], entityFromAttrs(e.Dst, attrs))
			queue.PushBack(e.Dst)
		}
	}
	return layers, maxDepth
}

// GetConceptEvolution builds chains by following edges whose label
// contains "evolved". Starting from any unvisited node with such an
// outgoing edge, it follows the first such edge repeatedly until none
// remains, then marks every chain node visited.
func (q *QueryEngine) GetConceptEvolution() [][]Entity {
	q.mu.RLock()
	defer q.mu.RUnlock()

	visited := make(map[graph.NodeID]bool)
	var chains [][]Entity

	for _, n := range q.store.AllNodes() {
		if visited[n.ID] {
			continue
		}
		next, ok := q.firstEvolvedEdge(n.ID)
		if !ok {
			continue
		}
		chain := []Entity{entityFromAttrs(n.ID, n.Attrs)}
		visited[n.ID] = true
		cur := n.ID
		for {
			attrs, _ := q.store.NodeAttrs(next)
			chain = append(chain, entityFromAttrs(next, attrs))
			visited[next] = true
			cur = next
			nxt, ok := q.firstEvolvedEdge(cur)
			if !ok || visited[nxt] {
				break
			}
			next = nxt
		}
		chains = append(chains, chain)
	}
	return chains
}

func (q *QueryEngine) firstEvolvedEdge(id graph.NodeID) (graph.NodeID, bool) {
	for _, e := range q.store.OutEdges(id) {
		if strings.Contains(strings.ToLower(attrsString(e.Attrs, "label")), "evolved") {
			return e.Dst, true
		}
	}
	return "", false
}

// CommunityDetector assigns nodes to community ids. The only concrete
// implementation shipped here is connected-components: no
// modularity-optimizing (Louvain) library is available, so
// FindCommunities documents the attempt-then-fallback contract by always
// using this detector (see DESIGN.md).
type CommunityDetector interface {
	Detect(s *graph.Store) map[string][]string
}

type connectedComponents struct{}

// Detect assigns each weakly-connected component an incrementing id,
// discovered in node insertion order, via BFS over the undirected
// adjacency view — the same traversal shape as apoc/algo.go's Community
// label-propagation seed step, minus the iterative majority-vote pass
// that requires weighted modularity scoring this corpus does not provide.
func (connectedComponents) Detect(s *graph.Store) map[string][]string {
	visited := make(map[graph.NodeID]bool)
	communities := make(map[string][]string)
	nextID := 0

	for _, n := range s.AllNodes() {
		if visited[n.ID] {
			continue
		}
		var members []string
		queue := list.New()
		queue.PushBack(n.ID)
		visited[n.ID] = true

		for queue.Len() > 0 {
			front := queue.Front()
			queue.Remove(front)
			cur := front.Value.(graph.NodeID)
			members = append(members, string(cur))

			for _, neighbor := range s.Neighbors(cur) {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				queue.PushBack(neighbor)
			}
		}

		sort.Strings(members)
		communities[strconv.Itoa(nextID)] = members
		nextID++
	}
	return communities
}

// FindCommunities partitions the undirected projection of the graph into
// communities, keyed by a stringified incrementing community id.
func (q *QueryEngine) FindCommunities() map[string][]string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return connectedComponents{}.Detect(q.store)
}
