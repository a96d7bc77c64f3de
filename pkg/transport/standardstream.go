package transport

import (
	"bufio"
	"io"
	"log"
	"runtime"
	"sync"
)

// StandardStream is the cooperative-async binding: a single background
// goroutine reads inbound lines, invokes the handler, and writes a response
// if one is produced, yielding after each line so Stop can interrupt it
// promptly. Grounded on
// other_examples/4cbacc79_kraklabs-mie__cmd-mie-mcp.go.go's bufio.Scanner
// based serve loop.
type StandardStream struct {
	id     string
	r      io.Reader
	w      io.Writer
	logger *log.Logger

	mu     sync.Mutex
	closed bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewStandardStream returns a StandardStream reading from r and writing to
// w, identified by id (e.g. "stdio").
func NewStandardStream(id string, r io.Reader, w io.Writer, logger *log.Logger) *StandardStream {
	if logger == nil {
		logger = log.Default()
	}
	return &StandardStream{
		id:     id,
		r:      r,
		w:      w,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// ID returns the transport's identifier.
func (s *StandardStream) ID() string { return s.id }

// Start launches the reader goroutine; it returns immediately.
func (s *StandardStream) Start(handler MessageHandler) error {
	go s.readLoop(handler)
	return nil
}

func (s *StandardStream) readLoop(handler MessageHandler) {
	defer close(s.doneCh)

	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		select {
		case <-s.stopCh:
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineCopy := append([]byte(nil), line...)

		response, hasResponse := handler(lineCopy, s.id)
		if hasResponse {
			if err := s.send(response); err != nil {
				s.logger.Printf("[transport] %s: send failed, closing: %v", s.id, err)
				_ = s.Stop()
				return
			}
		}

		// Yield after every processed line so a pending Stop can interrupt
		// the loop between messages (spec.md §4.5).
		runtime.Gosched()
	}

	_ = s.Stop()
}

// send writes one framed line, returning ErrClosed if the transport has
// already been stopped.
func (s *StandardStream) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return err
	}
	if flusher, ok := s.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Stop is idempotent: it signals the stop event, closes both streams if
// closable, and becomes a no-op on repeat.
func (s *StandardStream) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopCh)
	s.mu.Unlock()

	if closer, ok := s.r.(io.Closer); ok {
		_ = closer.Close()
	}
	if closer, ok := s.w.(io.Closer); ok {
		_ = closer.Close()
	}
	return nil
}
