package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
)

func newResourceTestEngine(t *testing.T) *ontology.QueryEngine {
	t.Helper()
	q := ontology.New()
	_, err := q.CreateEntity(map[string]any{"label": "Cybernetics", "type": "concept"})
	require.NoError(t, err)
	_, err = q.CreateEntity(map[string]any{"label": "Feedback", "type": "concept"})
	require.NoError(t, err)
	_, err = q.CreateRelationship(map[string]any{
		"source_id": "cybernetics", "target_id": "feedback", "relationship_type": "includes",
	})
	require.NoError(t, err)
	return q
}

func TestResourceRegistryReadGraphSummary(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	result, err := r.Read("cyberon:///graph/summary")
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MimeType)

	var summary ontology.Summary
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &summary))
	assert.Equal(t, 2, summary.NodeCount)
	assert.Equal(t, 1, summary.EdgeCount)
}

func TestResourceRegistryReadEntity(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	result, err := r.Read("cyberon:///entity/cybernetics")
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	var rec ontology.EntityRecord
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &rec))
	assert.Equal(t, "cybernetics", rec.ID)
	assert.Len(t, rec.Outgoing, 1)
}

func TestResourceRegistryReadEntityNotFound(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	_, err := r.Read("cyberon:///entity/missing")
	assert.Error(t, err)
}

func TestResourceRegistryReadEntityTypeMembers(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	result, err := r.Read("cyberon:///entity_type/concept")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &payload))
	assert.Equal(t, float64(2), payload["count"])
}

func TestResourceRegistryReadUnknownPath(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	_, err := r.Read("cyberon:///nonsense/path")
	assert.Error(t, err)
}

func TestResourceRegistryReadUnsupportedScheme(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	_, err := r.Read("http:///graph/summary")
	assert.Error(t, err)
}

func TestResourceRegistryTemplatesNonEmpty(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	tmpls := r.Templates()
	assert.NotEmpty(t, tmpls)
}

func TestResourceRegistryListIncludesGraphSummary(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	list := r.List()
	found := false
	for _, entry := range list {
		if entry.URI == "cyberon:///graph/summary" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResourceRegistryListIncludesTypesAndCentralEntities(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	list := r.List()

	uris := make(map[string]bool, len(list))
	for _, entry := range list {
		uris[entry.URI] = true
	}
	assert.True(t, uris["cyberon:///entity_type/concept"])
	assert.True(t, uris["cyberon:///entity/cybernetics"] || uris["cyberon:///entity/feedback"])
}

func TestResourceRegistryListIncludesSections(t *testing.T) {
	doc := []byte(`{
		"structured_ontology": {
			"1": {"title": "Foundations", "subsections": {}}
		},
		"knowledge_graph": {"nodes": [], "edges": []}
	}`)
	q, err := ontology.LoadDocument(doc)
	require.NoError(t, err)

	r := NewResourceRegistry(q)
	list := r.List()

	found := false
	for _, entry := range list {
		if entry.URI == "cyberon:///section/1" {
			assert.Equal(t, "Section 1: Foundations", entry.Name)
			found = true
		}
	}
	assert.True(t, found)
}

func TestResourceRegistryListIncludesSeedTemplates(t *testing.T) {
	r := NewResourceRegistry(newResourceTestEngine(t))
	list := r.List()

	var names []string
	for _, entry := range list {
		if entry.URI == "cyberon:///entity/{id}" {
			names = append(names, entry.Name)
		}
	}
	assert.Contains(t, names, "Entity")
}
