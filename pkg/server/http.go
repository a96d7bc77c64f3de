package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cyberonlab/ontology-engine/pkg/ontology"
)

// buildRouter assembles the HTTP CRUD surface (spec.md §6 supplement):
// /api/entities, /api/relationships, and /api/graph/summary, wrapped in
// the same logging/recovery/metrics middleware chain the teacher's
// buildRouter used, minus the withAuth wrapper (no auth Non-goal) and the
// Neo4j/admin/GDPR/GPU routes it carried alongside them.
func (s *Server) buildRouter() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/graph/summary", s.handleGraphSummary)
	mux.HandleFunc("/api/entities", s.handleEntitiesCollection)
	mux.HandleFunc("/api/entities/", s.handleEntityItem)
	mux.HandleFunc("/api/relationships", s.handleRelationshipsCollection)
	mux.HandleFunc("/api/relationships/", s.handleRelationshipItem)

	handler := s.corsMiddleware(mux)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	handler = s.metricsMiddleware(handler)
	return handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleGraphSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine().GenerateOntologySummary())
}

// handleEntitiesCollection serves GET (list) and POST (create) on
// /api/entities.
func (s *Server) handleEntitiesCollection(w http.ResponseWriter, r *http.Request) {
	engine := s.Engine()
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		result, err := engine.ListEntities(
			q.Get("type"), q.Get("query"), q.Get("sort"), q.Get("order"),
			queryInt(q, "limit", 0), queryInt(q, "offset", 0),
		)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)

	case http.MethodPost:
		var data map[string]any
		if !s.decodeJSON(w, r, &data) {
			return
		}
		entity, err := engine.CreateEntity(data)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, entity)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

// handleEntityItem serves GET/PUT/DELETE on /api/entities/{id}.
func (s *Server) handleEntityItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/entities/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "entity id required", nil)
		return
	}
	engine := s.Engine()

	switch r.Method {
	case http.MethodGet:
		rec, err := engine.QueryEntity(id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rec)

	case http.MethodPut:
		var data map[string]any
		if !s.decodeJSON(w, r, &data) {
			return
		}
		entity, err := engine.UpdateEntity(id, data)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, entity)

	case http.MethodDelete:
		cascade := r.URL.Query().Get("cascade") == "true"
		result, err := engine.DeleteEntity(id, cascade)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		status := http.StatusOK
		if !result.Success {
			status = http.StatusConflict
		}
		s.writeJSON(w, status, result)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

// handleRelationshipsCollection serves GET (list) and POST (create) on
// /api/relationships.
func (s *Server) handleRelationshipsCollection(w http.ResponseWriter, r *http.Request) {
	engine := s.Engine()
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		result, err := engine.ListRelationships(
			q.Get("source_id"), q.Get("target_id"), q.Get("entity_id"), q.Get("relationship_type"),
			q.Get("sort"), q.Get("order"), queryInt(q, "limit", 0), queryInt(q, "offset", 0),
		)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)

	case http.MethodPost:
		var data map[string]any
		if !s.decodeJSON(w, r, &data) {
			return
		}
		rel, err := engine.CreateRelationship(data)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, rel)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

// handleRelationshipItem serves GET/PUT/DELETE on /api/relationships/{id}.
func (s *Server) handleRelationshipItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/relationships/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "relationship id required", nil)
		return
	}
	engine := s.Engine()

	switch r.Method {
	case http.MethodGet:
		rel, err := engine.GetRelationship(id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rel)

	case http.MethodPut:
		var data map[string]any
		if !s.decodeJSON(w, r, &data) {
			return
		}
		rel, err := engine.UpdateRelationship(id, data)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rel)

	case http.MethodDelete:
		if err := engine.DeleteRelationship(id); err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

func queryInt(q map[string][]string, key string, defaultVal int) int {
	vals, ok := q[key]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		return defaultVal
	}
	return n
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return false
	}
	return true
}

// writeEngineError maps an ontology.EngineError's Kind to an HTTP status,
// matching the teacher's writeNeo4jError split between client and server
// faults without the Neo4j-specific error-code strings.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var engineErr *ontology.EngineError
	if errors.As(err, &engineErr) {
		if engineErr.Kind == ontology.KindNotFound {
			s.writeError(w, http.StatusNotFound, "not found", err)
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, "internal error", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("[server] encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	if status >= 500 {
		s.errorCount.Add(1)
	}
	body := map[string]string{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	s.writeJSON(w, status, body)
}
