package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/redink/recommender/internal/recommend"
)

// Every response uses the same envelope: {"success": true, "data": ...}
// or {"success": false, "error": "..."}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type recommendRequest struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Scenario string `json:"scenario"`
	Limit    int    `json:"limit"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("recommend request",
		zap.String("topic", req.Topic),
		zap.String("category", req.Category),
		zap.String("scenario", req.Scenario),
		zap.Int("limit", req.Limit))

	results, err := s.service.GetRecommendations(r.Context(), req.Topic, req.Category, req.Scenario, req.Limit)
	if err != nil {
		if errors.Is(err, recommend.ErrEmptyTopic) || errors.Is(err, recommend.ErrInvalidScenario) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("recommendation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"topic":           req.Topic,
		"recommendations": results,
		"count":           len(results),
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "record_id")
	limit := queryInt(r, "limit")

	results, err := s.service.RecommendSimilar(r.Context(), recordID, limit)
	if err != nil {
		if errors.Is(err, recommend.ErrRecordNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("similar lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"record_id":       recordID,
		"recommendations": results,
		"count":           len(results),
	})
}

func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := s.service.Industries()
	if err != nil {
		s.logger.Error("listing industries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if industries == nil {
		industries = []string{}
	}
	s.respondJSON(w, http.StatusOK, industries)
}

type cacheClearRequest struct {
	Target        string `json:"target"`
	RecordID      string `json:"record_id"`
	OlderThanDays int    `json:"older_than_days"`
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	var req cacheClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cleared, err := s.service.ClearCache(req.Target, req.RecordID, req.OlderThanDays)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.CacheStats()
	if err != nil {
		s.logger.Error("cache stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		s.logger.Error("encoding response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: message}); err != nil {
		s.logger.Error("encoding response failed", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
