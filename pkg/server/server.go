// Package server assembles the ontology engine's transports, dispatcher,
// registries, and HTTP CRUD surface into one runnable process (spec.md
// §4.6). Grounded on pkg/server/server.go's Server struct (config +
// listener + atomic counters + Start/Stop lifecycle), stripped of the
// Neo4j transaction protocol, JWT/Basic auth, GDPR, and GPU-control
// endpoints it carried — none of those apply to an in-memory ontology
// graph with no persistence, multi-writer concurrency, or auth Non-goals
// (spec.md §9).
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyberonlab/ontology-engine/pkg/mcp"
	"github.com/cyberonlab/ontology-engine/pkg/ontology"
	"github.com/cyberonlab/ontology-engine/pkg/registry"
	"github.com/cyberonlab/ontology-engine/pkg/transport"
)

// ErrAlreadyStarted and ErrAlreadyStopped guard Start/Stop symmetry
// (spec.md §4.6: "start()/stop() are symmetrical").
var (
	ErrAlreadyStarted = errors.New("server: already started")
	ErrAlreadyStopped = errors.New("server: already stopped")
)

// Config controls the HTTP listener; leaving Address empty disables the
// HTTP CRUD surface entirely and runs MCP transports only.
type Config struct {
	Address string
	Port    int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	EnableCORS  bool
	CORSOrigins []string
}

// DefaultConfig returns a Config with HTTP disabled (Address empty) and
// conservative timeouts, matching the teacher's DefaultConfig shape.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		EnableCORS:   true,
		CORSOrigins:  []string{"*"},
	}
}

// Server is the §4.6 assembly: a transport-id keyed map of Transports,
// a single Dispatcher, exactly one QueryEngine, and the three MCP
// registries built over it, plus an optional HTTP CRUD listener.
type Server struct {
	config *Config
	logger *log.Logger

	mu         sync.RWMutex
	engine     *ontology.QueryEngine
	dispatcher *mcp.Dispatcher
	tools      *registry.ToolRegistry
	prompts    *registry.PromptRegistry
	resources  *registry.ResourceRegistry

	transportsMu sync.Mutex
	transports   map[string]transport.Transport

	httpServer *http.Server
	listener   net.Listener

	started    atomic.Bool
	startedAt  time.Time
	requestCount  atomic.Int64
	errorCount    atomic.Int64
	activeRequests atomic.Int64
}

// New builds a Server wired to an empty engine. The method set exposed
// through the dispatcher (initialize, tools/*, prompts/*, resources/*,
// cyberon/*) is fixed the moment New returns; SetQueryEngine later swaps
// the engine each of those methods closes over, not the method set
// itself (spec.md §4.6).
func New(config *Config, logger *log.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		config:     config,
		logger:     logger,
		transports: make(map[string]transport.Transport),
	}
	s.SetQueryEngine(ontology.New())
	return s
}

// SetQueryEngine installs engine as the sole QueryEngine every registered
// method operates against, rebuilding the registries and re-registering
// the dispatcher's method table onto a fresh Dispatcher. Call sites
// already holding a Transport keep working: handleMessage below always
// reads the current dispatcher under lock, so in-flight transports never
// see a partially-rebuilt table.
func (s *Server) SetQueryEngine(engine *ontology.QueryEngine) {
	tools := registry.BuildToolRegistry(engine)
	prompts := registry.BuildPromptRegistry(engine)
	resources := registry.NewResourceRegistry(engine)

	d := mcp.NewDispatcher(s.logger)
	mcp.RegisterCapabilities(d, "ontologyd", "1.0.0")
	d.RegisterCyberon(engine)
	mcp.RegisterTools(d, tools)
	mcp.RegisterPrompts(d, prompts)
	mcp.RegisterResources(d, resources)

	s.mu.Lock()
	s.engine = engine
	s.dispatcher = d
	s.tools = tools
	s.prompts = prompts
	s.resources = resources
	s.mu.Unlock()
}

// Engine returns the currently installed QueryEngine.
func (s *Server) Engine() *ontology.QueryEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// handleMessage is the stable entry point every Transport is started
// with; it delegates to whichever Dispatcher SetQueryEngine last built.
func (s *Server) handleMessage(raw []byte, transportID string) ([]byte, bool) {
	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()
	return d.HandleMessage(raw, transportID)
}

// AddTransport registers t under its ID and starts it immediately against
// the server's current dispatcher. Adding a transport with an ID already
// in use replaces and stops the previous one first.
func (s *Server) AddTransport(t transport.Transport) error {
	s.transportsMu.Lock()
	defer s.transportsMu.Unlock()

	if old, ok := s.transports[t.ID()]; ok {
		_ = old.Stop()
	}
	if err := t.Start(s.handleMessage); err != nil {
		return fmt.Errorf("server: start transport %s: %w", t.ID(), err)
	}
	s.transports[t.ID()] = t
	return nil
}

// RemoveTransport stops and unregisters the transport with the given ID.
func (s *Server) RemoveTransport(id string) error {
	s.transportsMu.Lock()
	defer s.transportsMu.Unlock()

	t, ok := s.transports[id]
	if !ok {
		return nil
	}
	delete(s.transports, id)
	return t.Stop()
}

// Start begins serving the HTTP CRUD surface, if Config.Address is set.
// MCP transports are started individually via AddTransport, which may be
// called before or after Start. Calling Start twice is an error.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	s.startedAt = time.Now()

	if s.config.Address == "" {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.started.Store(false)
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:      s.buildRouter(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("[server] http serve error: %v", err)
		}
	}()

	return nil
}

// Stop stops every registered transport and shuts down the HTTP listener,
// symmetrical with Start. Calling Stop twice is an error.
func (s *Server) Stop(ctx context.Context) error {
	if !s.started.CompareAndSwap(true, false) {
		return ErrAlreadyStopped
	}

	s.transportsMu.Lock()
	for id, t := range s.transports {
		if err := t.Stop(); err != nil {
			s.logger.Printf("[server] stop transport %s: %v", id, err)
		}
	}
	s.transportsMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the HTTP listener's address, or "" if HTTP is disabled.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Stats is a snapshot of runtime counters (spec.md §6 supplement).
type Stats struct {
	Uptime         time.Duration
	RequestCount   int64
	ErrorCount     int64
	ActiveRequests int64
	Transports     int
}

// Stats returns current server runtime statistics.
func (s *Server) Stats() Stats {
	s.transportsMu.Lock()
	n := len(s.transports)
	s.transportsMu.Unlock()

	uptime := time.Duration(0)
	if !s.startedAt.IsZero() {
		uptime = time.Since(s.startedAt)
	}
	return Stats{
		Uptime:         uptime,
		RequestCount:   s.requestCount.Load(),
		ErrorCount:     s.errorCount.Load(),
		ActiveRequests: s.activeRequests.Load(),
		Transports:     n,
	}
}
