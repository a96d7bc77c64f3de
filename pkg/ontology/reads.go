package ontology

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cyberonlab/ontology-engine/pkg/graph"
)

// EdgeRef is the compact {id,label,relationship} shape query_entity
// returns for each incident edge.
type EdgeRef struct {
	ID           string
	Label        string
	Relationship string
}

// EntityRecord is the result of QueryEntity: the entity's attributes plus
// its incident edges split into incoming and outgoing.
type EntityRecord struct {
	Entity
	Incoming []EdgeRef
	Outgoing []EdgeRef
}

// QueryEntity returns one entity's record, or ErrNotFound.
func (q *QueryEngine) QueryEntity(id string) (EntityRecord, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	nid := graph.NodeID(id)
	attrs, ok := q.store.NodeAttrs(nid)
	if !ok {
		return EntityRecord{}, notFoundError()
	}

	rec := EntityRecord{Entity: entityFromAttrs(nid, attrs)}
	for _, e := range q.store.InEdges(nid) {
		rec.Incoming = append(rec.Incoming, edgeRef(q, e.Src, e.Attrs))
	}
	for _, e := range q.store.OutEdges(nid) {
		rec.Outgoing = append(rec.Outgoing, edgeRef(q, e.Dst, e.Attrs))
	}
	return rec, nil
}

func edgeRef(q *QueryEngine, otherEnd graph.NodeID, edgeAttrs map[string]any) EdgeRef {
	otherAttrs, _ := q.store.NodeAttrs(otherEnd)
	label, _ := otherAttrs["label"].(string)
	relLabel, _ := edgeAttrs["label"].(string)
	return EdgeRef{ID: string(otherEnd), Label: label, Relationship: relLabel}
}

// SearchHit is one result of SearchEntities.
type SearchHit struct {
	Entity
	Score float64
}

// SearchEntities matches query against label (case-insensitive substring);
// exact matches score 1.0, partial matches 0.5, sorted by score descending.
func (q *QueryEngine) SearchEntities(query string, entityTypes []string) []SearchHit {
	q.mu.RLock()
	defer q.mu.RUnlock()

	lowerQuery := strings.ToLower(query)
	var typeFilter map[string]struct{}
	if len(entityTypes) > 0 {
		typeFilter = make(map[string]struct{}, len(entityTypes))
		for _, t := range entityTypes {
			typeFilter[t] = struct{}{}
		}
	}

	var hits []SearchHit
	for _, n := range q.store.AllNodes() {
		e := entityFromAttrs(n.ID, n.Attrs)
		if typeFilter != nil {
			if _, ok := typeFilter[e.Type]; !ok {
				continue
			}
		}
		lowerLabel := strings.ToLower(e.Label)
		switch {
		case lowerLabel == lowerQuery:
			hits = append(hits, SearchHit{Entity: e, Score: 1.0})
		case strings.Contains(lowerLabel, lowerQuery):
			hits = append(hits, SearchHit{Entity: e, Score: 0.5})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// PathStep is one node in a path returned by FindPaths.
type PathStep struct {
	ID                 string
	Label              string
	Type               string
	RelationshipToNext string `json:"relationship_to_next,omitempty"`
}

// FindPaths enumerates every simple directed path from src to dst with at
// most maxLength edges. Returns an empty (non-nil) slice if either
// endpoint is missing or disconnected.
func (q *QueryEngine) FindPaths(src, dst string, maxLength int) [][]PathStep {
	if maxLength <= 0 {
		maxLength = 3
	}
	q.mu.RLock()
	defer q.mu.RUnlock()

	rawPaths := q.store.AllSimplePaths(graph.NodeID(src), graph.NodeID(dst), maxLength)
	out := make([][]PathStep, 0, len(rawPaths))
	for _, nodes := range rawPaths {
		steps := make([]PathStep, len(nodes))
		for i, id := range nodes {
			attrs, _ := q.store.NodeAttrs(id)
			steps[i] = PathStep{
				ID:    string(id),
				Label: attrsString(attrs, "label"),
				Type:  attrsString(attrs, "type"),
			}
			if i < len(nodes)-1 {
				steps[i].RelationshipToNext = q.firstEdgeLabel(id, nodes[i+1])
			}
		}
		out = append(out, steps)
	}
	return out
}

func attrsString(attrs map[string]any, key string) string {
	v, _ := attrs[key].(string)
	return v
}

// firstEdgeLabel returns the label of the lexicographically-first kind of
// edge between src and dst, for path steps where more than one
// relationship type connects the same adjacent pair.
func (q *QueryEngine) firstEdgeLabel(src, dst graph.NodeID) string {
	for _, e := range q.store.OutEdges(src) {
		if e.Dst == dst {
			return attrsString(e.Attrs, "label")
		}
	}
	return ""
}

// FindConnections groups nodes by their shortest-path distance from id,
// for distances 1..maxDistance. Unreachable nodes are omitted.
func (q *QueryEngine) FindConnections(id string, maxDistance int) map[int][]Entity {
	if maxDistance <= 0 {
		maxDistance = 2
	}
	q.mu.RLock()
	defer q.mu.RUnlock()

	distances := q.store.Distances(graph.NodeID(id), maxDistance)
	shells := make(map[int][]Entity)
	for nid, d := range distances {
		attrs, _ := q.store.NodeAttrs(nid)
		shells[d] = append(shells[d], entityFromAttrs(nid, attrs))
	}
	return shells
}

// CentralEntity is one ranked result of GetCentralEntities.
type CentralEntity struct {
	Entity
	Centrality  float64
	Connections int
}

// GetCentralEntities ranks nodes by total-degree centrality
// (degree / (N-1)), optionally filtered by entity type, returning the
// top n. Ties are broken by insertion order.
func (q *QueryEngine) GetCentralEntities(topN int, entityType string) []CentralEntity {
	if topN <= 0 {
		topN = 10
	}
	q.mu.RLock()
	defer q.mu.RUnlock()

	nodes := q.store.AllNodes()
	denom := float64(len(nodes) - 1)
	if denom <= 0 {
		denom = 1
	}

	ranked := make([]CentralEntity, 0, len(nodes))
	for _, n := range nodes {
		e := entityFromAttrs(n.ID, n.Attrs)
		if entityType != "" && e.Type != entityType {
			continue
		}
		degree := q.store.Degree(n.ID)
		ranked = append(ranked, CentralEntity{
			Entity:      e,
			Centrality:  float64(degree) / denom,
			Connections: degree,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Centrality > ranked[j].Centrality })
	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// RelatedConcept is one entry of GetRelatedConcepts.
type RelatedConcept struct {
	ID        string
	Label     string
	Type      string
	Direction string
}

// GetRelatedConcepts groups id's neighbors by relationship-type key:
// outgoing edges under the raw type, incoming edges under
// "inverse_"+type. The optional filter matches the raw (non-inverse)
// type for both directions.
func (q *QueryEngine) GetRelatedConcepts(id string, relationshipTypes []string) map[string][]RelatedConcept {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var filter map[string]struct{}
	if len(relationshipTypes) > 0 {
		filter = make(map[string]struct{}, len(relationshipTypes))
		for _, t := range relationshipTypes {
			filter[t] = struct{}{}
		}
	}

	nid := graph.NodeID(id)
	result := make(map[string][]RelatedConcept)

	for _, e := range q.store.OutEdges(nid) {
		relType := attrsString(e.Attrs, "label")
		if filter != nil {
			if _, ok := filter[relType]; !ok {
				continue
			}
		}
		attrs, _ := q.store.NodeAttrs(e.Dst)
		result[relType] = append(result[relType], RelatedConcept{
			ID:        string(e.Dst),
			Label:     attrsString(attrs, "label"),
			Type:      attrsString(attrs, "type"),
			Direction: "outgoing",
		})
	}
	for _, e := range q.store.InEdges(nid) {
		relType := attrsString(e.Attrs, "label")
		if filter != nil {
			if _, ok := filter[relType]; !ok {
				continue
			}
		}
		attrs, _ := q.store.NodeAttrs(e.Src)
		key := "inverse_" + relType
		result[key] = append(result[key], RelatedConcept{
			ID:        string(e.Src),
			Label:     attrsString(attrs, "label"),
			Type:      attrsString(attrs, "type"),
			Direction: "incoming",
		})
	}
	return result
}

// GetEntityTypes returns a count map of entity type -> occurrences.
func (q *QueryEngine) GetEntityTypes() map[string]int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	counts := make(map[string]int)
	for _, n := range q.store.AllNodes() {
		if t := attrsString(n.Attrs, "type"); t != "" {
			counts[t]++
		}
	}
	return counts
}

// GetRelationshipTypes returns a count map of relationship type -> occurrences.
func (q *QueryEngine) GetRelationshipTypes() map[string]int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range q.store.AllEdges() {
		if t := attrsString(e.Attrs, "label"); t != "" {
			counts[t]++
		}
	}
	return counts
}

// depthKey stringifies a BFS depth the way analyze_concept_hierarchy's
// "0", "1", ... layer keys are specified.
func depthKey(d int) string { return strconv.Itoa(d) }
