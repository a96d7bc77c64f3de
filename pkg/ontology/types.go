package ontology

import "github.com/cyberonlab/ontology-engine/pkg/graph"

// reservedEntityKeys are the Entity fields stored at the top level of a
// node's attribute map; every other key is an open "extra" attribute.
var reservedEntityKeys = map[string]struct{}{
	"id":           {},
	"label":        {},
	"type":         {},
	"description":  {},
	"external_url": {},
	"created_at":   {},
	"updated_at":   {},
}

// reservedEdgeKeys are the Relationship fields stored at the top level of
// an edge's attribute map.
var reservedEdgeKeys = map[string]struct{}{
	"id":         {},
	"label":      {},
	"created_at": {},
	"updated_at": {},
}

// Entity is the caller-facing view of a graph node: the reserved fields
// spec.md §3 names, plus whatever open attributes the node also carries.
type Entity struct {
	ID          string
	Label       string
	Type        string
	Description string
	ExternalURL string
	CreatedAt   string
	UpdatedAt   string
	Attributes  map[string]any
}

// Relationship is the caller-facing view of a graph edge.
type Relationship struct {
	ID               string
	SourceID         string
	TargetID         string
	RelationshipType string
	CreatedAt        string
	UpdatedAt        string
	Attributes       map[string]any
}

func entityToAttrs(e Entity) map[string]any {
	attrs := make(map[string]any, len(e.Attributes)+6)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs["id"] = e.ID
	attrs["label"] = e.Label
	attrs["type"] = e.Type
	if e.Description != "" {
		attrs["description"] = e.Description
	}
	if e.ExternalURL != "" {
		attrs["external_url"] = e.ExternalURL
	}
	attrs["created_at"] = e.CreatedAt
	if e.UpdatedAt != "" {
		attrs["updated_at"] = e.UpdatedAt
	}
	return attrs
}

func entityFromAttrs(id graph.NodeID, attrs map[string]any) Entity {
	e := Entity{ID: string(id), Attributes: make(map[string]any)}
	if v, ok := attrs["label"].(string); ok {
		e.Label = v
	}
	if v, ok := attrs["type"].(string); ok {
		e.Type = v
	}
	if v, ok := attrs["description"].(string); ok {
		e.Description = v
	}
	if v, ok := attrs["external_url"].(string); ok {
		e.ExternalURL = v
	}
	if v, ok := attrs["created_at"].(string); ok {
		e.CreatedAt = v
	}
	if v, ok := attrs["updated_at"].(string); ok {
		e.UpdatedAt = v
	}
	for k, v := range attrs {
		if _, reserved := reservedEntityKeys[k]; !reserved {
			e.Attributes[k] = v
		}
	}
	return e
}

func relationshipToAttrs(r Relationship) map[string]any {
	attrs := make(map[string]any, len(r.Attributes)+3)
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	attrs["id"] = r.ID
	attrs["label"] = r.RelationshipType
	attrs["created_at"] = r.CreatedAt
	if r.UpdatedAt != "" {
		attrs["updated_at"] = r.UpdatedAt
	}
	return attrs
}

func relationshipFromRecord(rec graph.EdgeRecord) Relationship {
	r := Relationship{
		SourceID:   string(rec.Src),
		TargetID:   string(rec.Dst),
		Attributes: make(map[string]any),
	}
	if v, ok := rec.Attrs["id"].(string); ok {
		r.ID = v
	}
	if v, ok := rec.Attrs["label"].(string); ok {
		r.RelationshipType = v
	}
	if v, ok := rec.Attrs["created_at"].(string); ok {
		r.CreatedAt = v
	}
	if v, ok := rec.Attrs["updated_at"].(string); ok {
		r.UpdatedAt = v
	}
	for k, v := range rec.Attrs {
		if _, reserved := reservedEdgeKeys[k]; !reserved {
			r.Attributes[k] = v
		}
	}
	return r
}
