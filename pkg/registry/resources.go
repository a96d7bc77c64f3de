package registry

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
)

// ResourceDescriptor is one catalog entry (concrete or template) returned
// by resources/list or resources/templates/list.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType"`
}

// ResourceContent is one entry of a resources/read result's "contents"
// array (spec.md §4.4).
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// ReadResult is the {contents:[...]} envelope resources/read returns.
type ReadResult struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceRegistry resolves cyberon:// URIs against a QueryEngine. Grounded
// on spec.md §4.4's URI grammar table and
// other_examples/4cbacc79_kraklabs-mie__cmd-mie-mcp.go.go's
// mcpResource/mcpResourcesListResult shapes.
type ResourceRegistry struct {
	engine *ontology.QueryEngine
}

// NewResourceRegistry returns a registry backed by engine.
func NewResourceRegistry(engine *ontology.QueryEngine) *ResourceRegistry {
	return &ResourceRegistry{engine: engine}
}

// templates is the abstract URI grammar, returned by resources/templates/list.
var templates = []ResourceDescriptor{
	{URI: "cyberon:///entity/{id}", Name: "Entity record", MimeType: "application/json"},
	{URI: "cyberon:///entity/search?query={query}&type={type}", Name: "Entity search", MimeType: "application/json"},
	{URI: "cyberon:///relationship/{id}", Name: "Relationship record", MimeType: "application/json"},
	{URI: "cyberon:///entity_type/{type}", Name: "Entity type members", MimeType: "application/json"},
	{URI: "cyberon:///relationship_type/{type}", Name: "Relationship type edges", MimeType: "application/json"},
	{URI: "cyberon:///section/{n}", Name: "Outline section", MimeType: "application/json"},
	{URI: "cyberon:///section/{n}/{subsection}", Name: "Outline subsection", MimeType: "application/json"},
	{URI: "cyberon:///paths?source={source}&target={target}&max_length={max_length}", Name: "Path query", MimeType: "application/json"},
	{URI: "cyberon:///connections/{id}?max_distance={max_distance}", Name: "Distance shells", MimeType: "application/json"},
	{URI: "cyberon:///graph/summary", Name: "Graph summary", MimeType: "application/json"},
}

// Templates returns the abstract URI grammar (resources/templates/list).
func (r *ResourceRegistry) Templates() []ResourceDescriptor {
	return templates
}

// seedTemplates is the subset of the abstract URI grammar folded directly
// into resources/list, mirroring the original handler's practice of
// inlining a few template-shaped entries (Entity, Entity Search,
// Relationship) alongside the concrete catalog rather than making callers
// cross-reference resources/templates/list for the common cases.
var seedTemplates = []ResourceDescriptor{
	{URI: "cyberon:///entity/{id}", Name: "Entity", Description: "Detailed information about a specific entity by ID", MimeType: "application/json"},
	{URI: "cyberon:///entity/search?query={query}", Name: "Entity Search", Description: "Search for entities by keyword", MimeType: "application/json"},
	{URI: "cyberon:///relationship/{id}", Name: "Relationship", Description: "Detailed information about a specific relationship by ID", MimeType: "application/json"},
}

// List returns a seed catalog: concrete URIs for every known entity type,
// relationship type, and outline section, a few central entities, plus
// templates (spec.md §4.4: "resources/list returns a seed catalog —
// concrete URIs for every known type and section, a few central entities,
// plus templates").
func (r *ResourceRegistry) List() []ResourceDescriptor {
	out := []ResourceDescriptor{
		{URI: "cyberon:///graph/summary", Name: "Graph summary", MimeType: "application/json"},
	}
	for entityType := range r.engine.GetEntityTypes() {
		out = append(out, ResourceDescriptor{
			URI: "cyberon:///entity_type/" + url.PathEscape(entityType), Name: "Entity type: " + entityType,
			MimeType: "application/json",
		})
	}
	for relType := range r.engine.GetRelationshipTypes() {
		out = append(out, ResourceDescriptor{
			URI: "cyberon:///relationship_type/" + url.PathEscape(relType), Name: "Relationship type: " + relType,
			MimeType: "application/json",
		})
	}
	for _, section := range r.engine.Sections() {
		out = append(out, ResourceDescriptor{
			URI:         "cyberon:///section/" + strconv.Itoa(section.Number),
			Name:        fmt.Sprintf("Section %d: %s", section.Number, section.Title),
			Description: fmt.Sprintf("Content of section %d: %s", section.Number, section.Title),
			MimeType:    "application/json",
		})
	}
	out = append(out, seedTemplates...)
	for _, central := range r.engine.GetCentralEntities(5, "") {
		out = append(out, ResourceDescriptor{
			URI: "cyberon:///entity/" + url.PathEscape(central.ID), Name: "Entity: " + central.Label,
			MimeType: "application/json",
		})
	}
	return out
}

// Read dispatches uri against the query engine and returns its contents
// wrapped in a resources/read envelope (spec.md §4.4).
func (r *ResourceRegistry) Read(rawURI string) (ReadResult, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return ReadResult{}, fmt.Errorf("invalid resource uri: %w", err)
	}
	if u.Scheme != "cyberon" {
		return ReadResult{}, fmt.Errorf("unsupported resource scheme: %s", u.Scheme)
	}

	query := u.Query()
	path := strings.Trim(u.Path, "/")
	segments := strings.Split(path, "/")

	var payload any
	switch {
	case path == "graph/summary":
		payload = r.engine.GenerateOntologySummary()

	case len(segments) == 2 && segments[0] == "entity" && segments[1] == "search":
		payload = r.engine.SearchEntities(query.Get("query"), splitCSV(query.Get("type")))

	case len(segments) == 2 && segments[0] == "entity":
		rec, err := r.engine.QueryEntity(segments[1])
		if err != nil {
			return ReadResult{}, err
		}
		payload = rec

	case len(segments) == 2 && segments[0] == "relationship":
		rel, err := r.engine.GetRelationship(segments[1])
		if err != nil {
			return ReadResult{}, err
		}
		payload = rel

	case len(segments) == 2 && segments[0] == "entity_type":
		payload = membersOfType(r.engine, segments[1])

	case len(segments) == 2 && segments[0] == "relationship_type":
		payload = edgesOfType(r.engine, segments[1])

	case len(segments) == 2 && segments[0] == "section":
		n, err := strconv.Atoi(segments[1])
		if err != nil {
			return ReadResult{}, fmt.Errorf("invalid section number: %s", segments[1])
		}
		payload = sectionPayload(r.engine, n, "")

	case len(segments) == 3 && segments[0] == "section":
		n, err := strconv.Atoi(segments[1])
		if err != nil {
			return ReadResult{}, fmt.Errorf("invalid section number: %s", segments[1])
		}
		payload = sectionPayload(r.engine, n, segments[2])

	case path == "paths":
		maxLen, _ := strconv.Atoi(query.Get("max_length"))
		payload = r.engine.FindPaths(query.Get("source"), query.Get("target"), maxLen)

	case len(segments) == 2 && segments[0] == "connections":
		maxDist, _ := strconv.Atoi(query.Get("max_distance"))
		payload = r.engine.FindConnections(segments[1], maxDist)

	default:
		return ReadResult{}, fmt.Errorf("unknown resource path: %s", u.Path)
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return ReadResult{}, err
	}
	return ReadResult{Contents: []ResourceContent{{URI: rawURI, MimeType: "application/json", Text: string(text)}}}, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func membersOfType(engine *ontology.QueryEngine, entityType string) map[string]any {
	list, _ := engine.ListEntities(entityType, "", "", "", 0, 0)
	return map[string]any{"count": list.Total, "members": list.Items}
}

func edgesOfType(engine *ontology.QueryEngine, relType string) map[string]any {
	list, _ := engine.ListRelationships("", "", "", relType, "", "", 0, 0)
	return map[string]any{"count": list.Total, "edges": list.Items}
}

func sectionPayload(engine *ontology.QueryEngine, n int, subsection string) any {
	if subsection == "" {
		section, ok := engine.GetSection(n)
		if !ok {
			return map[string]any{"section": n, "found": false}
		}
		return map[string]any{"section": n, "title": section.Title, "subsections": section.Subsections}
	}
	items, ok := engine.GetSubsectionContent(n, subsection)
	if !ok {
		return map[string]any{"section": n, "subsection": subsection, "found": false}
	}
	return map[string]any{"section": n, "subsection": subsection, "items": items}
}
