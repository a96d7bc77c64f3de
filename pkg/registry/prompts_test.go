package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptRegistryTemplateSubstitution(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(Prompt{
		Name:     "greet",
		Template: "Hello {name}, welcome to {place}.",
	})
	result, ok, err := r.Get("greet", map[string]any{"name": "Ada", "place": "cybernetics"}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, welcome to cybernetics.", result.Prompt)
	assert.Equal(t, fixedNow(), result.Timestamp)
}

func TestPromptRegistryCustomHandlerTakesPriority(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(Prompt{
		Name:     "custom",
		Template: "unused {x}",
		Handler: func(params map[string]any) (string, any, error) {
			return "handled", map[string]any{"k": "v"}, nil
		},
	})
	result, ok, err := r.Get("custom", nil, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "handled", result.Prompt)
	assert.Equal(t, map[string]any{"k": "v"}, result.Context)
}

func TestPromptRegistryHandlerError(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(Prompt{
		Name: "failing",
		Handler: func(params map[string]any) (string, any, error) {
			return "", nil, errors.New("missing id")
		},
	})
	_, ok, err := r.Get("failing", nil, fixedNow)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestPromptRegistryUnknown(t *testing.T) {
	r := NewPromptRegistry()
	_, ok, err := r.Get("nope", nil, fixedNow)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestPromptRegistryListOrder(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(Prompt{Name: "second"})
	r.Register(Prompt{Name: "first"})
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Name)
	assert.Equal(t, "first", list[1].Name)
}
