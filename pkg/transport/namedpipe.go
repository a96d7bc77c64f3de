package transport

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"
	"time"
)

// DefaultPipeReopenDelay is how long the worker waits before reopening the
// pipes after a disconnect, interruptible by Stop (spec.md §4.5 step 5).
const DefaultPipeReopenDelay = 1 * time.Second

// NamedPipe is the blocking, thread-based binding: a dedicated goroutine
// blocks on FIFO I/O, looping open-read-close-reopen until stopped.
// Grounded on spec.md §4.5's binding-B state machine; FIFO creation uses
// stdlib syscall.Mkfifo since no library in the retrieval pack offers one.
type NamedPipe struct {
	id          string
	inPath      string
	outPath     string
	reopenDelay time.Duration
	logger      *log.Logger

	mu        sync.Mutex
	closed    bool
	readFile  *os.File
	writeFile *os.File
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewNamedPipe ensures both FIFO paths exist (creating them at mode 0o666
// if absent) and returns a NamedPipe transport. It is a fatal configuration
// error if a path exists but is not a FIFO.
func NewNamedPipe(id, inPath, outPath string, reopenDelay time.Duration, logger *log.Logger) (*NamedPipe, error) {
	if logger == nil {
		logger = log.Default()
	}
	if reopenDelay <= 0 {
		reopenDelay = DefaultPipeReopenDelay
	}
	if err := ensureFIFO(inPath); err != nil {
		return nil, err
	}
	if err := ensureFIFO(outPath); err != nil {
		return nil, err
	}
	return &NamedPipe{
		id:          id,
		inPath:      inPath,
		outPath:     outPath,
		reopenDelay: reopenDelay,
		logger:      logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

func ensureFIFO(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.Mode()&os.ModeNamedPipe == 0 {
			return fmt.Errorf("transport: %s exists and is not a FIFO", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return syscall.Mkfifo(path, 0o666)
}

// ID returns the transport's identifier.
func (p *NamedPipe) ID() string { return p.id }

// Start launches the worker goroutine; it returns immediately.
func (p *NamedPipe) Start(handler MessageHandler) error {
	go p.loop(handler)
	return nil
}

func (p *NamedPipe) loop(handler MessageHandler) {
	defer close(p.doneCh)

	for {
		if p.stopped() {
			return
		}

		// Opening the read side blocks until a writer connects.
		in, err := os.OpenFile(p.inPath, os.O_RDONLY, os.ModeNamedPipe)
		if err != nil {
			p.logger.Printf("[transport] %s: open read pipe: %v", p.id, err)
			if p.wait() {
				return
			}
			continue
		}

		// Opening the write side may block until a reader connects.
		out, err := os.OpenFile(p.outPath, os.O_WRONLY, os.ModeNamedPipe)
		if err != nil {
			p.logger.Printf("[transport] %s: open write pipe: %v", p.id, err)
			_ = in.Close()
			if p.wait() {
				return
			}
			continue
		}

		p.mu.Lock()
		p.readFile, p.writeFile = in, out
		p.mu.Unlock()

		p.innerLoop(in, out, handler)

		p.mu.Lock()
		_ = p.readFile.Close()
		_ = p.writeFile.Close()
		p.readFile, p.writeFile = nil, nil
		p.mu.Unlock()

		if p.stopped() {
			return
		}
		if p.wait() {
			return
		}
	}
}

// innerLoop runs the line-reader loop over one open pipe pair until EOF,
// a read error, a broken-pipe write, or Stop.
func (p *NamedPipe) innerLoop(in *os.File, out *os.File, handler MessageHandler) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if p.stopped() {
			return
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineCopy := append([]byte(nil), line...)

		response, hasResponse := handler(lineCopy, p.id)
		if !hasResponse {
			continue
		}
		if _, err := out.Write(append(response, '\n')); err != nil {
			p.logger.Printf("[transport] %s: broken pipe on send: %v", p.id, err)
			return
		}
	}
}

func (p *NamedPipe) stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// wait pauses for reopenDelay, returning true early if Stop fires first.
func (p *NamedPipe) wait() bool {
	select {
	case <-p.stopCh:
		return true
	case <-time.After(p.reopenDelay):
		return false
	}
}

// Stop signals the stop event, closes both pipes to unblock any blocking
// I/O, and joins the worker with a bounded timeout before giving up.
func (p *NamedPipe) Stop() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopCh)
	if p.readFile != nil {
		_ = p.readFile.Close()
	}
	if p.writeFile != nil {
		_ = p.writeFile.Close()
	}
	p.mu.Unlock()

	select {
	case <-p.doneCh:
	case <-time.After(2 * time.Second):
	}
	return nil
}
