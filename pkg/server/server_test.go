package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
	"github.com/cyberonlab/ontology-engine/pkg/transport"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	return New(cfg, log.New(testLogWriter{t}, "", 0))
}

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestNewBuildsDispatcherWithFixedMethods(t *testing.T) {
	s := newTestServer(t)
	raw, sent := s.handleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`), "t1")
	require.True(t, sent)

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"server_info"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "ontologyd", resp.Result.ServerInfo.Name)
}

func TestSetQueryEngineSwapsEngineMethodsStaySame(t *testing.T) {
	s := newTestServer(t)

	engine := ontology.New()
	_, err := engine.CreateEntity(map[string]any{"id": "e1", "label": "Feedback Loop", "type": "concept"})
	require.NoError(t, err)
	s.SetQueryEngine(engine)

	raw, sent := s.handleMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"cyberon/entity","params":{"id":"e1"}}`), "t1")
	require.True(t, sent)

	var resp struct {
		Result struct {
			Label string `json:"Label"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "Feedback Loop", resp.Result.Label)
}

func TestAddTransportHandlesMessages(t *testing.T) {
	s := newTestServer(t)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n")
	out := &syncBuf{}

	st := transport.NewStandardStream("stdio", in, out, nil)
	require.NoError(t, s.AddTransport(st))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "ontologyd")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.RemoveTransport("stdio"))
}

type syncBuf struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuf) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuf) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHTTPCreateAndGetEntity(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.buildRouter())
	defer srv.Close()

	createBody := `{"label":"Homeostasis","type":"concept"}`
	resp, err := http.Post(srv.URL+"/api/entities", "application/json", strings.NewReader(createBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entity ontology.Entity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entity))
	assert.Equal(t, "Homeostasis", entity.Label)

	getResp, err := http.Get(srv.URL + "/api/entities/" + entity.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestHTTPGetUnknownEntityReturns404(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.buildRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/entities/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPCreateRelationshipBetweenEntities(t *testing.T) {
	s := newTestServer(t)
	engine := s.Engine()
	_, err := engine.CreateEntity(map[string]any{"id": "a", "label": "A", "type": "concept"})
	require.NoError(t, err)
	_, err = engine.CreateEntity(map[string]any{"id": "b", "label": "B", "type": "concept"})
	require.NoError(t, err)

	srv := httptest.NewServer(s.buildRouter())
	defer srv.Close()

	body := `{"source_id":"a","target_id":"b","relationship_type":"influences"}`
	resp, err := http.Post(srv.URL+"/api/relationships", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHTTPGraphSummary(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.buildRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/graph/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartStopSymmetry(t *testing.T) {
	s := newTestServer(t)
	s.config.Address = "127.0.0.1"
	s.config.Port = 0

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.ErrorIs(t, s.Stop(ctx), ErrAlreadyStopped)
}
