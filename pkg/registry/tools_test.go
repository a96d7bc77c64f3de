package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() string { return "2026-07-30T00:00:00.000Z" }

func TestToolRegistryListPreservesOrder(t *testing.T) {
	r := NewToolRegistry()
	r.Register(Tool{Name: "b", Description: "second"})
	r.Register(Tool{Name: "a", Description: "first"})

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, "a", list[1].Name)
}

func TestToolRegistryRegisterOverwriteKeepsPosition(t *testing.T) {
	r := NewToolRegistry()
	r.Register(Tool{Name: "a", Description: "v1"})
	r.Register(Tool{Name: "b", Description: "v1"})
	r.Register(Tool{Name: "a", Description: "v2"})

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "v2", list[0].Description)
}

func TestToolRegistrySchemaUnknown(t *testing.T) {
	r := NewToolRegistry()
	_, ok := r.Schema("missing")
	assert.False(t, ok)
}

func TestToolRegistryExecuteUnknown(t *testing.T) {
	r := NewToolRegistry()
	_, ok, err := r.Execute("missing", nil, fixedNow)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestToolRegistryExecuteSuccess(t *testing.T) {
	r := NewToolRegistry()
	r.Register(Tool{
		Name: "double",
		Handler: func(params map[string]any) (any, error) {
			n, _ := params["n"].(int)
			return n * 2, nil
		},
	})
	result, ok, err := r.Execute("double", map[string]any{"n": 5}, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "double", result.Name)
	assert.Equal(t, fixedNow(), result.Timestamp)
	assert.Equal(t, 10, result.Result)
}

func TestToolRegistryExecuteHandlerErrorStaysInEnvelope(t *testing.T) {
	r := NewToolRegistry()
	r.Register(Tool{
		Name: "fails",
		Handler: func(params map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	})
	result, ok, err := r.Execute("fails", nil, fixedNow)
	require.True(t, ok)
	require.NoError(t, err)
	asMap, isMap := result.Result.(map[string]string)
	require.True(t, isMap)
	assert.Equal(t, "boom", asMap["error"])
}
