package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
)

func newBuiltinsTestEngine(t *testing.T) *ontology.QueryEngine {
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

func TestBuildToolRegistryRegistersEightTools(t *testing.T) {
	r := BuildToolRegistry(newBuiltinsTestEngine(t))
	list := r.List()
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	assert.ElementsMatch(t, []string{
		"search", "analyze_entity", "compare_entities", "central_entities",
		"summarize_ontology", "concept_hierarchy", "related_concepts", "concept_evolution",
	}, names)
}

func TestBuildToolRegistrySearchRequiresQuery(t *testing.T) {
	r := BuildToolRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Execute("search", map[string]any{}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	asMap, isMap := result.Result.(map[string]string)
	require.True(t, isMap)
	assert.Equal(t, "query is required", asMap["error"])
}

func TestBuildToolRegistryAnalyzeEntity(t *testing.T) {
	r := BuildToolRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Execute("analyze_entity", map[string]any{"id": "cybernetics"}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	rec, isRec := result.Result.(ontology.EntityRecord)
	require.True(t, isRec)
	assert.Equal(t, "cybernetics", rec.ID)
}

func TestBuildPromptRegistryExplainEntity(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Get("explain_entity", map[string]any{"id": "cybernetics"}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "Cybernetics")
}

func TestBuildPromptRegistryCompareConceptsTemplate(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Get("compare_concepts", map[string]any{"concept_a": "feedback", "concept_b": "homeostasis"}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "feedback")
	assert.Contains(t, result.Prompt, "homeostasis")
}

func TestBuildPromptRegistryRegistersFivePrompts(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	list := r.List()
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	assert.ElementsMatch(t, []string{
		"explain_entity", "compare_concepts", "explore_ontology", "analyze_hierarchy", "central_concepts",
	}, names)
}

func TestBuildPromptRegistryExploreOntologyRequiresTopic(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	_, ok, err := r.Get("explore_ontology", map[string]any{}, fixedNow)
	require.True(t, ok)
	assert.Error(t, err)
}

func TestBuildPromptRegistryExploreOntology(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Get("explore_ontology", map[string]any{"topic": "feedback"}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "feedback")
	ctx, isMap := result.Context.(map[string]any)
	require.True(t, isMap)
	assert.Contains(t, ctx, "search_results")
}

func TestBuildPromptRegistryAnalyzeHierarchyWholeForest(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Get("analyze_hierarchy", map[string]any{}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	ctx, isMap := result.Context.(map[string]any)
	require.True(t, isMap)
	assert.Contains(t, ctx, "root_nodes")
}

func TestBuildPromptRegistryAnalyzeHierarchyUnknownRoot(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	_, ok, err := r.Get("analyze_hierarchy", map[string]any{"root_concept_id": "missing"}, fixedNow)
	require.True(t, ok)
	assert.Error(t, err)
}

func TestBuildPromptRegistryAnalyzeHierarchySpecificRoot(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Get("analyze_hierarchy", map[string]any{"root_concept_id": "cybernetics"}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "Cybernetics")
}

func TestBuildPromptRegistryCentralConcepts(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Get("central_concepts", map[string]any{"limit": float64(5)}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	ctx, isMap := result.Context.(map[string]any)
	require.True(t, isMap)
	assert.Contains(t, ctx, "central_entities")
}

func TestBuildPromptRegistryCentralConceptsByType(t *testing.T) {
	r := BuildPromptRegistry(newBuiltinsTestEngine(t))
	result, ok, err := r.Get("central_concepts", map[string]any{"entity_type": "concept"}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "concept")
}
