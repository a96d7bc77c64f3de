package mcp

import (
	"errors"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
)

// RegisterCyberon wires the cyberon/* query methods onto d's own session
// store. It's the entry point external packages (pkg/server) use, since
// sessionStore is unexported.
func (d *Dispatcher) RegisterCyberon(engine *ontology.QueryEngine) {
	registerCyberon(d, engine, d.sessions)
}

// registerCyberon wires the cyberon/* query methods onto d, each a thin
// wrapper over engine, grounded on spec.md §4.3's namespace list.
func registerCyberon(d *Dispatcher, engine *ontology.QueryEngine, sessions *sessionStore) {
	d.RegisterMethod("cyberon/search", func(params map[string]any, transportID string) (any, error) {
		query, _ := params["query"].(string)
		if query == "" {
			return nil, ValidationError(errors.New("query is required"))
		}
		sessions.recordSearch(transportID, query)
		return engine.SearchEntities(query, stringSlice(params["entity_types"])), nil
	})

	d.RegisterMethod("cyberon/entity", func(params map[string]any, transportID string) (any, error) {
		id, _ := params["id"].(string)
		if id == "" {
			return nil, ValidationError(errors.New("id is required"))
		}
		rec, err := engine.QueryEntity(id)
		if err != nil {
			if errors.Is(err, ontology.ErrNotFound) {
				return nil, err
			}
			return nil, err
		}
		sessions.recordEntity(transportID, id)
		return rec, nil
	})

	d.RegisterMethod("cyberon/paths", func(params map[string]any, transportID string) (any, error) {
		src, _ := params["source"].(string)
		dst, _ := params["target"].(string)
		if src == "" || dst == "" {
			return nil, ValidationError(errors.New("source and target are required"))
		}
		maxLength := intParam(params, "max_length", 3)
		sessions.recordPath(transportID, src, dst)
		return engine.FindPaths(src, dst, maxLength), nil
	})

	d.RegisterMethod("cyberon/connections", func(params map[string]any, transportID string) (any, error) {
		id, _ := params["id"].(string)
		if id == "" {
			return nil, ValidationError(errors.New("id is required"))
		}
		maxDistance := intParam(params, "max_distance", 2)
		return engine.FindConnections(id, maxDistance), nil
	})

	d.RegisterMethod("cyberon/entity_types", func(params map[string]any, transportID string) (any, error) {
		return engine.GetEntityTypes(), nil
	})

	d.RegisterMethod("cyberon/relationship_types", func(params map[string]any, transportID string) (any, error) {
		return engine.GetRelationshipTypes(), nil
	})
}

func stringSlice(v any) []string {
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

func intParam(params map[string]any, key string, defaultVal int) int {
	v, ok := params[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // encoding/json decodes JSON numbers as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}
