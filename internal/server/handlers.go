package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/seed"
	"go.uber.org/zap"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("chat request", zap.Int("message_len", len(req.Message)))
	resp, err := s.orchestrator.Ask(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			s.respondError(w, http.StatusBadRequest, "message is required")
			return
		}
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Content == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	if !s.retrieval.AddDocument(r.Context(), input.Content, input.Metadata) {
		s.respondError(w, http.StatusServiceUnavailable, "document store unavailable")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleClearDocuments(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("clear documents request")
	if !s.retrieval.Clear(r.Context()) {
		s.respondError(w, http.StatusServiceUnavailable, "document store unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))
	start := time.Now()
	results := s.retrieval.Search(r.Context(), req.Query, req.TopK)
	if results == nil {
		results = []*models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Query:     req.Query,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.retrieval.Stats(r.Context()))
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	added, err := seed.Seed(r.Context(), s.retrieval)
	if err != nil {
		s.logger.Error("seed failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"status": "seeded", "added": added})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
