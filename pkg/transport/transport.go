// Package transport implements the two framed, line-delimited JSON message
// bindings the MCP surface runs over: a cooperative-async StandardStream
// binding and a blocking, thread-based NamedPipe binding. Both funnel
// complete lines into the same MessageHandler callback.
package transport

import "errors"

// ErrClosed is returned by StandardStream's send once the transport has
// been stopped.
var ErrClosed = errors.New("transport: closed")

// MessageHandler processes one inbound line and optionally produces an
// outbound line. hasResponse is false for notifications (spec.md §4.3/§5).
type MessageHandler func(raw []byte, transportID string) (response []byte, hasResponse bool)

// Transport is a scoped connection holding one inbound and one outbound
// framed message stream, bracketed by Start/Stop (spec.md §4.5).
type Transport interface {
	ID() string
	Start(handler MessageHandler) error
	Stop() error
}
