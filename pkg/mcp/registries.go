package mcp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/cyberonlab/ontology-engine/pkg/registry"
)

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// RegisterTools wires tools/list, tools/schema, tools/execute, and the
// tools/call alias (spec.md §4.4; tools/call wrapping is the
// SPEC_FULL-supplemented kraklabs-mie convention).
func RegisterTools(d *Dispatcher, tools *registry.ToolRegistry) {
	d.RegisterMethod("tools/list", func(params map[string]any, transportID string) (any, error) {
		return struct {
			Tools []registry.ToolCatalogEntry `json:"tools"`
		}{Tools: tools.List()}, nil
	})

	d.RegisterMethod("tools/schema", func(params map[string]any, transportID string) (any, error) {
		name, _ := params["name"].(string)
		schema, ok := tools.Schema(name)
		if !ok {
			return nil, errors.New("unknown tool: " + name)
		}
		return schema, nil
	})

	d.RegisterMethod("tools/execute", func(params map[string]any, transportID string) (any, error) {
		name, _ := params["name"].(string)
		toolParams, _ := params["params"].(map[string]any)
		result, ok, err := tools.Execute(name, toolParams, timestamp)
		if !ok {
			return nil, errors.New("unknown tool: " + name)
		}
		return result, err
	})

	d.RegisterMethod("tools/call", func(params map[string]any, transportID string) (any, error) {
		name, _ := params["name"].(string)
		toolParams, _ := params["arguments"].(map[string]any)
		result, ok, err := tools.Execute(name, toolParams, timestamp)
		if !ok {
			return ToolCallContent{
				Content: []Content{{Type: "text", Text: "unknown tool: " + name}},
				IsError: true,
			}, nil
		}
		if err != nil {
			return ToolCallContent{Content: []Content{{Type: "text", Text: err.Error()}}, IsError: true}, nil
		}
		encoded, _ := json.Marshal(result)
		return ToolCallContent{Content: []Content{{Type: "text", Text: string(encoded)}}}, nil
	})
}

// RegisterPrompts wires prompts/list and prompts/get (spec.md §4.4).
func RegisterPrompts(d *Dispatcher, prompts *registry.PromptRegistry) {
	d.RegisterMethod("prompts/list", func(params map[string]any, transportID string) (any, error) {
		return struct {
			Prompts []registry.PromptCatalogEntry `json:"prompts"`
		}{Prompts: prompts.List()}, nil
	})

	d.RegisterMethod("prompts/get", func(params map[string]any, transportID string) (any, error) {
		name, _ := params["name"].(string)
		promptParams, _ := params["params"].(map[string]any)
		result, ok, err := prompts.Get(name, promptParams, timestamp)
		if !ok {
			return nil, errors.New("unknown prompt: " + name)
		}
		return result, err
	})
}

// RegisterResources wires resources/list, resources/templates/list,
// resources/read, resources/subscribe, and resources/unsubscribe
// (spec.md §4.4; subscribe/unsubscribe are reserved no-ops per the
// incremental-resource-change-notifications Non-goal).
func RegisterResources(d *Dispatcher, resources *registry.ResourceRegistry) {
	d.RegisterMethod("resources/list", func(params map[string]any, transportID string) (any, error) {
		return struct {
			Resources []registry.ResourceDescriptor `json:"resources"`
		}{Resources: resources.List()}, nil
	})

	d.RegisterMethod("resources/templates/list", func(params map[string]any, transportID string) (any, error) {
		return struct {
			ResourceTemplates []registry.ResourceDescriptor `json:"resourceTemplates"`
		}{ResourceTemplates: resources.Templates()}, nil
	})

	d.RegisterMethod("resources/read", func(params map[string]any, transportID string) (any, error) {
		uri, _ := params["uri"].(string)
		if uri == "" {
			return nil, ValidationError(errors.New("uri is required"))
		}
		return resources.Read(uri)
	})

	noop := func(params map[string]any, transportID string) (any, error) {
		return map[string]any{}, nil
	}
	d.RegisterMethod("resources/subscribe", noop)
	d.RegisterMethod("resources/unsubscribe", noop)
}
