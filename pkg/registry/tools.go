// Package registry implements the three MCP extension registries layered
// over the ontology query engine: tools, prompts, and cyberon:// resources.
// Grounded on pkg/mcp/tools.go's name -> {description, schema, handler} map
// shape and GetToolDefinitions catalog pattern.
package registry

import "encoding/json"

// ToolHandler executes a named tool against decoded params.
type ToolHandler func(params map[string]any) (any, error)

// Tool is one registered tool's full definition: the catalog entry plus
// its handler.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	Handler     ToolHandler     `json:"-"`
}

// ToolCatalogEntry is the subset of Tool returned by tools/list.
type ToolCatalogEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// ToolRegistry is a name -> Tool map, append-only after server construction
// (spec.md §4.6: "the set of registered methods is fixed at server
// construction").
type ToolRegistry struct {
	tools map[string]Tool
	order []string
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds a tool, preserving registration order for List.
func (r *ToolRegistry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// List returns the catalog in registration order (tools/list).
func (r *ToolRegistry) List() []ToolCatalogEntry {
	out := make([]ToolCatalogEntry, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, ToolCatalogEntry{Name: t.Name, Description: t.Description, Schema: t.Schema})
	}
	return out
}

// Schema returns one named tool's schema (tools/schema).
func (r *ToolRegistry) Schema(name string) (json.RawMessage, bool) {
	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return t.Schema, true
}

// ExecuteResult is the {name, timestamp, result} envelope tools/execute
// returns. Handler errors become {error: message} inside result; the
// envelope itself stays successful (spec.md §4.4).
type ExecuteResult struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Result    any    `json:"result"`
}

// Execute invokes name's handler with params, wrapping the outcome in the
// {name, timestamp, result} envelope. now is injected so callers control
// the timestamp format (RFC3339 with millisecond precision, matching
// ontology.nowISO).
func (r *ToolRegistry) Execute(name string, params map[string]any, now func() string) (ExecuteResult, bool, error) {
	t, ok := r.tools[name]
	if !ok {
		return ExecuteResult{}, false, nil
	}
	result, err := t.Handler(params)
	if err != nil {
		return ExecuteResult{Name: name, Timestamp: now(), Result: map[string]string{"error": err.Error()}}, true, nil
	}
	return ExecuteResult{Name: name, Timestamp: now(), Result: result}, true, nil
}
