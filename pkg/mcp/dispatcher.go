package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
)

// Dispatcher is the single entry point for JSON-RPC 2.0 messages: parses
// the envelope, looks up the handler by method, invokes it, and maps the
// result or error into a response envelope. Grounded on
// other_examples/4cbacc79_kraklabs-mie__cmd-mie-mcp.go.go's handleRequest
// switch and pkg/mcp/server.go's writeJSONRPCError/writeJSONRPCResult shape.
type Dispatcher struct {
	methods  map[string]Handler
	sessions *sessionStore
	logger   *log.Logger
}

// NewDispatcher returns a Dispatcher with no methods registered yet;
// Registries add their methods via RegisterMethod at server construction.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		methods:  make(map[string]Handler),
		sessions: newSessionStore(),
		logger:   logger,
	}
}

// RegisterMethod adds name to the routing table. Registering the same name
// twice overwrites the previous handler — callers are expected to register
// once at construction time (spec.md §4.6: "the set of registered methods
// is fixed at server construction").
func (d *Dispatcher) RegisterMethod(name string, h Handler) {
	d.methods[name] = h
}

// validationError is returned by handlers to signal a caller mistake
// (missing/invalid params); the dispatcher maps it to -32602 rather than
// the generic -32603.
type validationError struct{ err error }

func (v *validationError) Error() string { return v.err.Error() }
func (v *validationError) Unwrap() error { return v.err }

// ValidationError wraps err so HandleMessage reports it as "Invalid params"
// instead of "Internal error".
func ValidationError(err error) error { return &validationError{err: err} }

// HandleMessage parses one line-delimited JSON-RPC message, routes it, and
// returns the encoded response plus whether a response should be sent at
// all (false for notifications, per spec.md §4.3/§5/§8 invariant 10).
func (d *Dispatcher) HandleMessage(raw []byte, transportID string) ([]byte, bool) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return d.encodeError(nil, CodeParseError, "Parse error", err.Error())
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		return d.encodeError(req.ID, CodeInvalidRequest, "Invalid Request", "")
	}

	// A notification gets no reply at all, not even an error envelope.
	fail := func(code int, message, data string) ([]byte, bool) {
		if req.IsNotification() {
			return nil, false
		}
		return d.encodeError(req.ID, code, message, data)
	}

	handler, ok := d.methods[req.Method]
	if !ok {
		return fail(CodeMethodNotFound, "Method not found", req.Method)
	}

	var params map[string]any
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return fail(CodeInvalidParams, "Invalid params", err.Error())
		}
	}

	result, err := handler(params, transportID)
	if err != nil {
		var verr *validationError
		if asValidationError(err, &verr) {
			return fail(CodeInvalidParams, "Invalid params", verr.Error())
		}
		var engineErr *ontology.EngineError
		if errors.As(err, &engineErr) && engineErr.Kind == ontology.KindValue {
			return fail(CodeInvalidParams, "Invalid params", err.Error())
		}
		d.logger.Printf("[mcp] handler error for %s: %v", req.Method, err)
		return fail(CodeInternalError, "Internal error", err.Error())
	}

	if req.IsNotification() {
		return nil, false
	}
	return d.encodeResult(req.ID, result)
}

func asValidationError(err error, target **validationError) bool {
	v, ok := err.(*validationError)
	if ok {
		*target = v
	}
	return ok
}

func (d *Dispatcher) encodeResult(id any, result any) ([]byte, bool) {
	resp := Response{JSONRPC: "2.0", ID: id, Result: result}
	data, err := json.Marshal(resp)
	if err != nil {
		return d.encodeError(id, CodeInternalError, "Internal error", fmt.Sprintf("encode result: %v", err))
	}
	return data, true
}

func (d *Dispatcher) encodeError(id any, code int, message, data string) ([]byte, bool) {
	resp := Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Marshaling a fixed-shape struct of strings/ints cannot fail; this
		// branch exists only to satisfy the error return, never exercised.
		return []byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"Internal error"}}`), true
	}
	return out, true
}
