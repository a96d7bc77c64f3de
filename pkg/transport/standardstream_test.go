package transport

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStandardStreamEchoesResponses(t *testing.T) {
	in := strings.NewReader("one\ntwo\n")
	out := &syncBuffer{}

	s := NewStandardStream("stdio", in, out, nil)
	var handled []string
	var mu sync.Mutex
	done := make(chan struct{})
	count := 0

	err := s.Start(func(raw []byte, transportID string) ([]byte, bool) {
		mu.Lock()
		handled = append(handled, string(raw))
		count++
		if count == 2 {
			close(done)
		}
		mu.Unlock()
		return append([]byte("echo:"), raw...), true
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for both lines to be handled")
	}

	time.Sleep(10 * time.Millisecond) // let the final write land
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, handled)
	assert.Contains(t, out.String(), "echo:one")
	assert.Contains(t, out.String(), "echo:two")
}

func TestStandardStreamNotificationProducesNoWrite(t *testing.T) {
	in := strings.NewReader("ping\n")
	out := &syncBuffer{}
	s := NewStandardStream("stdio", in, out, nil)

	done := make(chan struct{})
	err := s.Start(func(raw []byte, transportID string) ([]byte, bool) {
		close(done)
		return nil, false
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, out.String())
}

func TestStandardStreamStopIsIdempotent(t *testing.T) {
	s := NewStandardStream("stdio", strings.NewReader(""), io.Discard, nil)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.send([]byte("x")), ErrClosed)
}

func TestStandardStreamSendAfterCloseFails(t *testing.T) {
	s := NewStandardStream("stdio", strings.NewReader(""), &syncBuffer{}, nil)
	require.NoError(t, s.Stop())
	err := s.send([]byte("late"))
	assert.ErrorIs(t, err, ErrClosed)
}
