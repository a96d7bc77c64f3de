package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionsSortedByNumber(t *testing.T) {
	doc := []byte(`{
		"structured_ontology": {
			"2": {"title": "Feedback Systems", "subsections": {"Loops": ["negative", "positive"]}},
			"1": {"title": "Foundations", "subsections": {}}
		},
		"knowledge_graph": {"nodes": [], "edges": []}
	}`)
	q, err := LoadDocument(doc)
	require.NoError(t, err)

	sections := q.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, SectionSummary{Number: 1, Title: "Foundations"}, sections[0])
	assert.Equal(t, SectionSummary{Number: 2, Title: "Feedback Systems"}, sections[1])
}

func TestSectionsEmptyOutline(t *testing.T) {
	q := New()
	assert.Empty(t, q.Sections())
}
