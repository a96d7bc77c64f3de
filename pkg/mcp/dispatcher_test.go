package mcp

import (
	"encoding/json"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(log.Default())
}

func decodeResponse(t *testing.T, raw []byte) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func TestHandleMessageParseError(t *testing.T) {
	d := newTestDispatcher()
	raw, sent := d.HandleMessage([]byte("{not json"), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)
}

func TestHandleMessageInvalidRequest(t *testing.T) {
	d := newTestDispatcher()

	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"1.0","id":1,"method":"initialize"}`), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)

	raw, sent = d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":""}`), "t1")
	require.True(t, sent)
	resp = decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
}

func TestHandleMessageMethodNotFound(t *testing.T) {
	d := newTestDispatcher()
	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"nope"}`), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestHandleMessageInvalidParamsUnmarshal(t *testing.T) {
	d := newTestDispatcher()
	d.RegisterMethod("echo", func(params map[string]any, transportID string) (any, error) {
		return params, nil
	})
	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"echo","params":"not-an-object"}`), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestHandleMessageValidationError(t *testing.T) {
	d := newTestDispatcher()
	d.RegisterMethod("needs_id", func(params map[string]any, transportID string) (any, error) {
		if params["id"] == nil {
			return nil, ValidationError(errors.New("id is required"))
		}
		return "ok", nil
	})
	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"needs_id","params":{}}`), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
	assert.Equal(t, "Invalid params", resp.Error.Message)
}

func TestHandleMessageInternalError(t *testing.T) {
	d := newTestDispatcher()
	d.RegisterMethod("boom", func(params map[string]any, transportID string) (any, error) {
		return nil, errors.New("disk on fire")
	})
	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"boom"}`), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
}

func TestHandleMessageNotificationProducesNoResponse(t *testing.T) {
	d := newTestDispatcher()
	called := false
	d.RegisterMethod("notifications/initialized", func(params map[string]any, transportID string) (any, error) {
		called = true
		return nil, nil
	})
	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), "t1")
	assert.False(t, sent)
	assert.Nil(t, raw)
	assert.True(t, called)
}

func TestHandleMessageSuccess(t *testing.T) {
	d := newTestDispatcher()
	d.RegisterMethod("echo", func(params map[string]any, transportID string) (any, error) {
		return params["value"], nil
	})
	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":7,"method":"echo","params":{"value":"hi"}}`), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "hi", resp.Result)
	assert.Equal(t, float64(7), resp.ID)
}

func TestRegisterCapabilitiesInitialize(t *testing.T) {
	d := newTestDispatcher()
	RegisterCapabilities(d, "ontologyd", "0.1.0")

	raw, sent := d.HandleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`), "t1")
	require.True(t, sent)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Result)

	encoded, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var cap CapabilitiesResult
	require.NoError(t, json.Unmarshal(encoded, &cap))
	assert.Equal(t, "ontologyd", cap.ServerInfo.Name)
	assert.True(t, cap.Supports.Tools)
	assert.True(t, cap.Supports.Resources)
	assert.True(t, cap.Supports.Prompts)

	raw, sent = d.HandleMessage([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), "t1")
	assert.False(t, sent)
	assert.Nil(t, raw)
}
