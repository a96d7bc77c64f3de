package ontology

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cyberonlab/ontology-engine/pkg/graph"
)

// CreateEntity fills in id and created_at, rejects a duplicate id with a
// value-error, and adds the node. data may carry "id", "label", "type",
// "description", "external_url", and an "attributes" map of open extras.
func (q *QueryEngine) CreateEntity(data map[string]any) (Entity, error) {
	label, _ := data["label"].(string)
	if label == "" {
		return Entity{}, valueError(errors.New("entity requires a non-empty label"))
	}
	entityType, _ := data["type"].(string)
	if entityType == "" {
		return Entity{}, valueError(errors.New("entity requires a non-empty type"))
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	id, explicit := data["id"].(string)
	if !explicit || id == "" {
		id = deriveID(label)
		if id == "" {
			id = "entity"
		}
		for q.store.HasNode(graph.NodeID(id)) {
			id = deriveID(label) + "_" + randomSuffix()
		}
	} else if q.store.HasNode(graph.NodeID(id)) {
		return Entity{}, valueError(errors.New("entity id already exists: " + id))
	}

	entity := Entity{
		ID:          id,
		Label:       label,
		Type:        entityType,
		CreatedAt:   nowISO(),
		Attributes:  extractAttributes(data),
	}
	if v, ok := data["description"].(string); ok {
		entity.Description = v
	}
	if v, ok := data["external_url"].(string); ok {
		entity.ExternalURL = v
	}

	if err := q.store.AddNode(graph.NodeID(id), entityToAttrs(entity)); err != nil {
		return Entity{}, valueError(err)
	}
	return entity, nil
}

// extractAttributes pulls an open "attributes" map out of a mutation
// payload, excluding reserved entity keys if the caller mistakenly nested
// them there.
func extractAttributes(data map[string]any) map[string]any {
	out := make(map[string]any)
	if m, ok := data["attributes"].(map[string]any); ok {
		for k, v := range m {
			if _, reserved := reservedEntityKeys[k]; !reserved {
				out[k] = v
			}
		}
	}
	return out
}

// UpdateEntity merges label/type/description/external_url and any keys
// under "attributes" (excluding reserved names), sets updated_at, and
// returns the updated entity.
func (q *QueryEngine) UpdateEntity(id string, data map[string]any) (Entity, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	attrs, ok := q.store.NodeAttrs(graph.NodeID(id))
	if !ok {
		return Entity{}, notFoundError()
	}
	entity := entityFromAttrs(graph.NodeID(id), attrs)

	if v, ok := data["label"].(string); ok && v != "" {
		entity.Label = v
	}
	if v, ok := data["type"].(string); ok && v != "" {
		entity.Type = v
	}
	if v, ok := data["description"].(string); ok {
		entity.Description = v
	}
	if v, ok := data["external_url"].(string); ok {
		entity.ExternalURL = v
	}
	if m, ok := data["attributes"].(map[string]any); ok {
		for k, v := range m {
			if _, reserved := reservedEntityKeys[k]; !reserved {
				entity.Attributes[k] = v
			}
		}
	}
	entity.UpdatedAt = nowISO()

	if err := q.store.SetNodeAttrs(graph.NodeID(id), entityToAttrs(entity)); err != nil {
		return Entity{}, notFoundError()
	}
	return entity, nil
}

// DeleteResult is the outcome of DeleteEntity.
type DeleteResult struct {
	Success             bool
	Message             string
	RelationshipsRemoved int
}

// DeleteEntity removes an entity. With cascade=false it refuses to delete
// a node with incident edges; with cascade=true it removes incident
// edges first and reports how many were removed.
func (q *QueryEngine) DeleteEntity(id string, cascade bool) (DeleteResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	nid := graph.NodeID(id)
	if !q.store.HasNode(nid) {
		return DeleteResult{}, notFoundError()
	}

	if cascade {
		removed, err := q.store.RemoveNodeCascade(nid)
		if err != nil {
			return DeleteResult{}, valueError(err)
		}
		return DeleteResult{Success: true, RelationshipsRemoved: removed}, nil
	}

	if err := q.store.RemoveNode(nid); err != nil {
		if errors.Is(err, graph.ErrNodeHasEdges) {
			return DeleteResult{
				Success: false,
				Message: "entity has incident relationships; retry with cascade=true to remove them",
			}, nil
		}
		return DeleteResult{}, valueError(err)
	}
	return DeleteResult{Success: true}, nil
}

// CreateRelationship requires an existing source and target, rejects a
// second edge of the same relationship_type between the same ordered
// pair, and generates a UUID id.
func (q *QueryEngine) CreateRelationship(data map[string]any) (Relationship, error) {
	sourceID, _ := data["source_id"].(string)
	targetID, _ := data["target_id"].(string)
	relType, _ := data["relationship_type"].(string)

	if sourceID == "" || targetID == "" {
		return Relationship{}, valueError(ErrMissingField)
	}
	if relType == "" {
		return Relationship{}, valueError(ErrMissingField)
	}
	if sourceID == targetID {
		return Relationship{}, valueError(ErrSelfRelationship)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	src, dst := graph.NodeID(sourceID), graph.NodeID(targetID)
	if !q.store.HasNode(src) || !q.store.HasNode(dst) {
		return Relationship{}, valueError(errors.New("source or target entity does not exist"))
	}
	if q.store.HasEdge(src, dst, relType) {
		return Relationship{}, valueError(ErrDuplicateEdge)
	}

	rel := Relationship{
		ID:               uuid.NewString(),
		SourceID:         sourceID,
		TargetID:         targetID,
		RelationshipType: relType,
		CreatedAt:        nowISO(),
		Attributes:       extractEdgeAttributes(data),
	}

	if err := q.store.AddEdge(src, dst, relType, relationshipToAttrs(rel)); err != nil {
		return Relationship{}, valueError(err)
	}
	return rel, nil
}

func extractEdgeAttributes(data map[string]any) map[string]any {
	out := make(map[string]any)
	if m, ok := data["attributes"].(map[string]any); ok {
		for k, v := range m {
			if _, reserved := reservedEdgeKeys[k]; !reserved {
				out[k] = v
			}
		}
	}
	return out
}

// findEdgeByID scans every edge for one whose stored "id" attribute
// matches, mirroring the teacher corpus's scan-based relationship lookup
// (get_relationship is not on the hot path the way node lookup is).
func (q *QueryEngine) findEdgeByID(id string) (graph.EdgeRecord, bool) {
	for _, rec := range q.store.AllEdges() {
		if v, _ := rec.Attrs["id"].(string); v == id {
			return rec, true
		}
	}
	return graph.EdgeRecord{}, false
}

// GetRelationship scans edges to locate the one whose id attribute matches.
func (q *QueryEngine) GetRelationship(id string) (Relationship, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	rec, ok := q.findEdgeByID(id)
	if !ok {
		return Relationship{}, notFoundError()
	}
	return relationshipFromRecord(rec), nil
}

// UpdateRelationship merges keys under "attributes" into the relationship
// and sets updated_at. The relationship_type itself is immutable: it is
// the edge's identity key in the underlying store.
func (q *QueryEngine) UpdateRelationship(id string, data map[string]any) (Relationship, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.findEdgeByID(id)
	if !ok {
		return Relationship{}, notFoundError()
	}
	rel := relationshipFromRecord(rec)
	if m, ok := data["attributes"].(map[string]any); ok {
		for k, v := range m {
			if _, reserved := reservedEdgeKeys[k]; !reserved {
				rel.Attributes[k] = v
			}
		}
	}
	rel.UpdatedAt = nowISO()

	kind := rel.RelationshipType
	if err := q.store.SetEdgeAttrs(rec.Src, rec.Dst, kind, relationshipToAttrs(rel)); err != nil {
		return Relationship{}, notFoundError()
	}
	return rel, nil
}

// DeleteRelationship scans edges to locate the one whose id attribute
// matches and removes it.
func (q *QueryEngine) DeleteRelationship(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.findEdgeByID(id)
	if !ok {
		return notFoundError()
	}
	kind, _ := rec.Attrs["label"].(string)
	return q.store.RemoveEdge(rec.Src, rec.Dst, kind)
}

// ListResult is the paginated response shape shared by ListEntities and
// ListRelationships: items plus the pre-pagination total.
type ListResult struct {
	Items []any
	Total int
}

var entitySortKeys = map[string]struct{}{"id": {}, "label": {}, "type": {}, "created_at": {}}

// ListEntities filters by entity type and a free-text query (matching
// both label and description, case-insensitive substring), sorts by a
// whitelisted key, and applies offset/limit.
func (q *QueryEngine) ListEntities(entityType, query, sortKey, order string, limit, offset int) (ListResult, error) {
	if sortKey == "" {
		sortKey = "created_at"
	}
	if _, ok := entitySortKeys[sortKey]; !ok {
		return ListResult{}, valueError(ErrUnknownSortKey)
	}
	if order == "" {
		order = "desc"
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	nodes := q.store.AllNodes()
	matched := make([]Entity, 0, len(nodes))
	lowerQuery := strings.ToLower(query)
	for _, n := range nodes {
		e := entityFromAttrs(n.ID, n.Attrs)
		if entityType != "" && e.Type != entityType {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Label), lowerQuery) &&
			!strings.Contains(strings.ToLower(e.Description), lowerQuery) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if order == "asc" {
			return entityLess(matched[i], matched[j], sortKey)
		}
		return entityLess(matched[j], matched[i], sortKey)
	})

	total := len(matched)
	return ListResult{Items: paginateEntities(matched, offset, limit), Total: total}, nil
}

func entityLess(a, b Entity, key string) bool {
	switch key {
	case "id":
		return a.ID < b.ID
	case "label":
		return a.Label < b.Label
	case "type":
		return a.Type < b.Type
	default:
		return a.CreatedAt < b.CreatedAt
	}
}

func paginateEntities(items []Entity, offset, limit int) []any {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]any, 0, end-offset)
	for _, e := range items[offset:end] {
		out = append(out, e)
	}
	return out
}

var relationshipSortKeys = map[string]struct{}{
	"id": {}, "relationship_type": {}, "source_label": {}, "target_label": {}, "created_at": {},
}

// ListRelationships filters by source/target/entity id and relationship
// type, sorts by a whitelisted key, and applies offset/limit.
func (q *QueryEngine) ListRelationships(sourceID, targetID, entityID, relType, sortKey, order string, limit, offset int) (ListResult, error) {
	if sortKey == "" {
		sortKey = "created_at"
	}
	if _, ok := relationshipSortKeys[sortKey]; !ok {
		return ListResult{}, valueError(ErrUnknownSortKey)
	}
	if order == "" {
		order = "desc"
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	edges := q.store.AllEdges()
	matched := make([]relWithLabels, 0, len(edges))
	for _, rec := range edges {
		if sourceID != "" && string(rec.Src) != sourceID {
			continue
		}
		if targetID != "" && string(rec.Dst) != targetID {
			continue
		}
		if entityID != "" && string(rec.Src) != entityID && string(rec.Dst) != entityID {
			continue
		}
		rel := relationshipFromRecord(rec)
		if relType != "" && rel.RelationshipType != relType {
			continue
		}
		srcAttrs, _ := q.store.NodeAttrs(rec.Src)
		dstAttrs, _ := q.store.NodeAttrs(rec.Dst)
		srcLabel, _ := srcAttrs["label"].(string)
		dstLabel, _ := dstAttrs["label"].(string)
		matched = append(matched, relWithLabels{rel, srcLabel, dstLabel})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if order == "asc" {
			return relationshipLess(matched[i], matched[j], sortKey)
		}
		return relationshipLess(matched[j], matched[i], sortKey)
	})

	total := len(matched)
	items := paginateRelationships(matched, offset, limit)
	return ListResult{Items: items, Total: total}, nil
}

type relWithLabels struct {
	Relationship
	sourceLabel string
	targetLabel string
}

func relationshipLess(a, b relWithLabels, key string) bool {
	switch key {
	case "id":
		return a.ID < b.ID
	case "relationship_type":
		return a.RelationshipType < b.RelationshipType
	case "source_label":
		return a.sourceLabel < b.sourceLabel
	case "target_label":
		return a.targetLabel < b.targetLabel
	default:
		return a.CreatedAt < b.CreatedAt
	}
}

func paginateRelationships(items []relWithLabels, offset, limit int) []any {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]any, 0, end-offset)
	for _, r := range items[offset:end] {
		out = append(out, r.Relationship)
	}
	return out
}
