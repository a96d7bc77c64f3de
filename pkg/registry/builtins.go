package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
)

func schema(properties map[string]any, required ...string) json.RawMessage {
	obj := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		obj["required"] = required
	}
	raw, _ := json.Marshal(obj)
	return raw
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

func intParamOr(params map[string]any, key string, defaultVal int) int {
	v, ok := params[key]
	if !ok {
		return defaultVal
	}
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return defaultVal
}

// BuildToolRegistry registers the built-in tools that mirror query-engine
// operations (spec.md §4.4): search, analyze_entity, compare_entities,
// central_entities, summarize_ontology, concept_hierarchy,
// related_concepts, concept_evolution. Grounded on pkg/mcp/tools.go's
// GetToolDefinitions catalog shape (verb-noun naming, nested JSON-schema
// literals).
func BuildToolRegistry(engine *ontology.QueryEngine) *ToolRegistry {
	r := NewToolRegistry()

	r.Register(Tool{
		Name:        "search",
		Description: "Search entities by label, optionally restricted to a set of entity types.",
		Schema: schema(map[string]any{
			"query":        stringProp("Text to match against entity labels."),
			"entity_types": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, "query"),
		Handler: func(params map[string]any) (any, error) {
			query := stringParam(params, "query")
			if query == "" {
				return nil, errors.New("query is required")
			}
			return engine.SearchEntities(query, toStringSlice(params["entity_types"])), nil
		},
	})

	r.Register(Tool{
		Name:        "analyze_entity",
		Description: "Fetch one entity's full record plus its incoming and outgoing relationships.",
		Schema:      schema(map[string]any{"id": stringProp("Entity id.")}, "id"),
		Handler: func(params map[string]any) (any, error) {
			id := stringParam(params, "id")
			if id == "" {
				return nil, errors.New("id is required")
			}
			return engine.QueryEntity(id)
		},
	})

	r.Register(Tool{
		Name:        "compare_entities",
		Description: "Compare two entities: every path of up to 3 hops from the first to the second, plus the first entity's related concepts.",
		Schema: schema(map[string]any{
			"id_a": stringProp("First entity id."),
			"id_b": stringProp("Second entity id."),
		}, "id_a", "id_b"),
		Handler: func(params map[string]any) (any, error) {
			idA, idB := stringParam(params, "id_a"), stringParam(params, "id_b")
			if idA == "" || idB == "" {
				return nil, errors.New("id_a and id_b are required")
			}
			paths := engine.FindPaths(idA, idB, 3)
			related := engine.GetRelatedConcepts(idA, nil)
			return map[string]any{"paths": paths, "related_to_a": related}, nil
		},
	})

	r.Register(Tool{
		Name:        "central_entities",
		Description: "Rank entities by degree centrality, optionally filtered by entity type.",
		Schema: schema(map[string]any{
			"top_n":       intProp("How many results to return (default 10)."),
			"entity_type": stringProp("Restrict results to this entity type."),
		}),
		Handler: func(params map[string]any) (any, error) {
			return engine.GetCentralEntities(intParamOr(params, "top_n", 10), stringParam(params, "entity_type")), nil
		},
	})

	r.Register(Tool{
		Name:        "summarize_ontology",
		Description: "Summarize graph size, type distributions, top central entities, and outline shape.",
		Schema:      schema(map[string]any{}),
		Handler: func(params map[string]any) (any, error) {
			return engine.GenerateOntologySummary(), nil
		},
	})

	r.Register(Tool{
		Name:        "concept_hierarchy",
		Description: "Find every root entity (in-degree 0, out-degree > 0) and its BFS layering.",
		Schema:      schema(map[string]any{}),
		Handler: func(params map[string]any) (any, error) {
			return engine.AnalyzeConceptHierarchy(), nil
		},
	})

	r.Register(Tool{
		Name:        "related_concepts",
		Description: "List an entity's neighbors grouped by relationship type and direction.",
		Schema: schema(map[string]any{
			"id":                 stringProp("Entity id."),
			"relationship_types": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, "id"),
		Handler: func(params map[string]any) (any, error) {
			id := stringParam(params, "id")
			if id == "" {
				return nil, errors.New("id is required")
			}
			return engine.GetRelatedConcepts(id, toStringSlice(params["relationship_types"])), nil
		},
	})

	r.Register(Tool{
		Name:        "concept_evolution",
		Description: "Build evolution chains by following edges whose label contains \"evolved\".",
		Schema:      schema(map[string]any{}),
		Handler: func(params map[string]any) (any, error) {
			return engine.GetConceptEvolution(), nil
		},
	})

	return r
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// BuildPromptRegistry registers a small set of prompts over the same
// engine, each producing a grounding context alongside the rendered
// prompt text (spec.md §4.4).
func BuildPromptRegistry(engine *ontology.QueryEngine) *PromptRegistry {
	r := NewPromptRegistry()

	r.Register(Prompt{
		Name:        "explain_entity",
		Description: "Explain what an entity is and how it relates to its neighbors.",
		Handler: func(params map[string]any) (string, any, error) {
			id := stringParam(params, "id")
			if id == "" {
				return "", nil, errors.New("id is required")
			}
			rec, err := engine.QueryEntity(id)
			if err != nil {
				return "", nil, err
			}
			prompt := fmt.Sprintf(
				"Explain the concept %q (%s) in the context of cybernetics, using its %d incoming and %d outgoing relationships.",
				rec.Label, rec.Type, len(rec.Incoming), len(rec.Outgoing),
			)
			return prompt, rec, nil
		},
		UsageExamples: []string{"prompts/get {\"name\":\"explain_entity\",\"params\":{\"id\":\"cybernetics\"}}"},
	})

	r.Register(Prompt{
		Name:            "compare_concepts",
		Description:     "Compare two concepts using a fixed template.",
		Template:         "Compare {concept_a} and {concept_b}: describe how they relate within cybernetics.",
		ParameterSchema:  map[string]any{"concept_a": stringProp(""), "concept_b": stringProp("")},
		UsageExamples:    []string{"prompts/get {\"name\":\"compare_concepts\",\"params\":{\"concept_a\":\"feedback\",\"concept_b\":\"homeostasis\"}}"},
	})

	r.Register(Prompt{
		Name:        "explore_ontology",
		Description: "Explore a topic's place within the ontology, grounded in search hits, the outline, and a graph summary.",
		Handler: func(params map[string]any) (string, any, error) {
			topic := stringParam(params, "topic")
			if topic == "" {
				return "", nil, errors.New("topic is required")
			}
			searchResults := engine.SearchEntities(topic, nil)
			summary := engine.GenerateOntologySummary()
			sections := engine.FindSectionByTopic(topic)

			prompt := fmt.Sprintf(
				"Please explore the topic %q within the cybernetics ontology. "+
					"Based on the information below, provide an informative exploration "+
					"of %q and its place within cybernetics theory.\n\n"+
					"Your exploration should cover:\n"+
					"1. What %q refers to in the context of cybernetics\n"+
					"2. The most relevant concepts related to %q\n"+
					"3. How this topic fits into the broader cybernetics framework\n"+
					"4. Key applications or examples\n\n"+
					"Please format your response with clear headings and concise paragraphs.",
				topic, topic, topic, topic,
			)

			context := map[string]any{
				"topic":            topic,
				"search_results":   capSlice(searchResults, 5),
				"entity_types":     summary.EntityTypes,
				"related_sections": capSlice(sections, 3),
			}
			return prompt, context, nil
		},
		UsageExamples: []string{"prompts/get {\"name\":\"explore_ontology\",\"params\":{\"topic\":\"feedback\"}}"},
	})

	r.Register(Prompt{
		Name:        "analyze_hierarchy",
		Description: "Analyze concept hierarchies, either the full forest of roots or one root's sub-concept tree.",
		Handler: func(params map[string]any) (string, any, error) {
			hierarchy := engine.AnalyzeConceptHierarchy()
			rootID := stringParam(params, "root_concept_id")

			if rootID == "" {
				maxDepth := 0
				for _, root := range hierarchy.Roots {
					if root.MaxDepth > maxDepth {
						maxDepth = root.MaxDepth
					}
				}
				prompt := "Please analyze the concept hierarchies in the cybernetics ontology. " +
					"Based on the information below, provide a comprehensive explanation of " +
					"how concepts are organized hierarchically within cybernetics theory.\n\n" +
					"Your analysis should include:\n" +
					"1. An overview of the main root concepts in cybernetics\n" +
					"2. How these hierarchies represent different aspects of cybernetics\n" +
					"3. The significance of these hierarchical organizations\n" +
					"4. How this hierarchical organization aids in understanding cybernetics\n\n" +
					"Please format your response with clear headings and concise paragraphs."
				context := map[string]any{
					"root_nodes":  hierarchy.Roots,
					"total_roots": len(hierarchy.Roots),
					"max_depth":   maxDepth,
				}
				return prompt, context, nil
			}

			var root *ontology.HierarchyRoot
			for i, candidate := range hierarchy.Roots {
				if candidate.ID == rootID {
					root = &hierarchy.Roots[i]
					break
				}
			}
			if root == nil {
				return "", nil, fmt.Errorf("root concept not found: %s", rootID)
			}
			layers, ok := hierarchy.Hierarchies[rootID]
			if !ok {
				return "", nil, fmt.Errorf("hierarchy not found for concept: %s", rootID)
			}

			prompt := fmt.Sprintf(
				"Please analyze the concept hierarchy starting from %q in the cybernetics ontology. "+
					"Based on the information below, provide a comprehensive explanation of "+
					"how %q serves as a root concept and how its sub-concepts are organized hierarchically.\n\n"+
					"Your analysis should include:\n"+
					"1. An overview of %q as a fundamental concept\n"+
					"2. The different levels of the hierarchy and what they represent\n"+
					"3. How concepts become more specialized as you move down the hierarchy\n"+
					"4. The significance of this hierarchical organization\n\n"+
					"Please format your response with clear headings and concise paragraphs.",
				root.Label, root.Label, root.Label,
			)
			context := map[string]any{
				"root_concept": root,
				"hierarchy":    layers,
				"max_depth":    root.MaxDepth,
			}
			return prompt, context, nil
		},
		ParameterSchema: map[string]any{"root_concept_id": stringProp("Restrict the analysis to one root's sub-tree.")},
		UsageExamples:   []string{"prompts/get {\"name\":\"analyze_hierarchy\",\"params\":{}}"},
	})

	r.Register(Prompt{
		Name:        "central_concepts",
		Description: "Analyze the most central concepts by degree centrality, optionally restricted to one entity type.",
		Handler: func(params map[string]any) (string, any, error) {
			limit := intParamOr(params, "limit", 10)
			entityType := stringParam(params, "entity_type")

			central := engine.GetCentralEntities(limit, entityType)

			var prompt string
			if entityType != "" {
				prompt = fmt.Sprintf(
					"Please analyze the most central %ss in the cybernetics ontology. "+
						"Based on the centrality metrics below, provide a comprehensive explanation of "+
						"why these %ss are so central to cybernetics theory and how they interconnect.\n\n"+
						"Your analysis should include:\n"+
						"1. An overview of what makes a %s 'central' in cybernetics\n"+
						"2. Detailed explanations of each central concept and its significance\n"+
						"3. How these concepts collectively form the core of cybernetics theory\n"+
						"4. The practical implications of these central concepts\n\n"+
						"Please format your response with clear headings and concise paragraphs.",
					entityType, entityType, entityType,
				)
			} else {
				prompt = "Please analyze the most central concepts in the cybernetics ontology. " +
					"Based on the centrality metrics below, provide a comprehensive explanation of " +
					"why these concepts are so central to cybernetics theory and how they interconnect.\n\n" +
					"Your analysis should include:\n" +
					"1. An overview of what makes a concept 'central' in cybernetics\n" +
					"2. Detailed explanations of each central concept and its significance\n" +
					"3. How these concepts collectively form the core of cybernetics theory\n" +
					"4. The practical implications of these central concepts\n\n" +
					"Please format your response with clear headings and concise paragraphs."
			}

			byType := make(map[string][]ontology.CentralEntity)
			for _, entity := range central {
				byType[entity.Type] = append(byType[entity.Type], entity)
			}
			context := map[string]any{
				"central_entities": central,
				"entities_by_type": byType,
				"total":            len(central),
			}
			return prompt, context, nil
		},
		ParameterSchema: map[string]any{
			"limit":       intProp("How many central entities to consider (default 10)."),
			"entity_type": stringProp("Restrict the analysis to this entity type."),
		},
		UsageExamples: []string{"prompts/get {\"name\":\"central_concepts\",\"params\":{\"limit\":5}}"},
	})

	return r
}

// capSlice returns at most n leading elements of s.
func capSlice[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
