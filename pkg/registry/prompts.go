package registry

import "strings"

// PromptHandler builds {prompt, context} directly, bypassing template
// substitution — spec.md §4.4's "custom handler" escape hatch.
type PromptHandler func(params map[string]any) (prompt string, context any, err error)

// Prompt is one registered prompt's full definition.
type Prompt struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Template        string         `json:"template,omitempty"`
	ParameterSchema map[string]any `json:"parameter_schema,omitempty"`
	Handler         PromptHandler  `json:"-"`
	UsageExamples   []string       `json:"usage_examples,omitempty"`
}

// PromptCatalogEntry is the subset of Prompt returned by prompts/list.
type PromptCatalogEntry struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	ParameterSchema map[string]any `json:"parameter_schema,omitempty"`
	UsageExamples   []string       `json:"usage_examples,omitempty"`
}

// PromptRegistry is a name -> Prompt map.
type PromptRegistry struct {
	prompts map[string]Prompt
	order   []string
}

// NewPromptRegistry returns an empty registry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{prompts: make(map[string]Prompt)}
}

// Register adds a prompt, preserving registration order for List.
func (r *PromptRegistry) Register(p Prompt) {
	if _, exists := r.prompts[p.Name]; !exists {
		r.order = append(r.order, p.Name)
	}
	r.prompts[p.Name] = p
}

// List returns the catalog in registration order (prompts/list).
func (r *PromptRegistry) List() []PromptCatalogEntry {
	out := make([]PromptCatalogEntry, 0, len(r.order))
	for _, name := range r.order {
		p := r.prompts[name]
		out = append(out, PromptCatalogEntry{
			Name: p.Name, Description: p.Description,
			ParameterSchema: p.ParameterSchema, UsageExamples: p.UsageExamples,
		})
	}
	return out
}

// GetResult is the {name, timestamp, prompt, context} envelope prompts/get
// returns.
type GetResult struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Prompt    string `json:"prompt"`
	Context   any    `json:"context,omitempty"`
}

// Get applies p's custom handler if present, otherwise "{key}"-style
// substitution against the template using params.
func (r *PromptRegistry) Get(name string, params map[string]any, now func() string) (GetResult, bool, error) {
	p, ok := r.prompts[name]
	if !ok {
		return GetResult{}, false, nil
	}
	if p.Handler != nil {
		prompt, context, err := p.Handler(params)
		if err != nil {
			return GetResult{}, true, err
		}
		return GetResult{Name: name, Timestamp: now(), Prompt: prompt, Context: context}, true, nil
	}
	return GetResult{Name: name, Timestamp: now(), Prompt: substitute(p.Template, params)}, true, nil
}

// substitute replaces every "{key}" occurrence in template with params[key]
// stringified, leaving unknown keys untouched.
func substitute(template string, params map[string]any) string {
	out := template
	for key, v := range params {
		placeholder := "{" + key + "}"
		out = strings.ReplaceAll(out, placeholder, toDisplayString(v))
	}
	return out
}

func toDisplayString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return stringify(t)
	}
}
