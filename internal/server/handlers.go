package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sbomrag/internal/engine"
	"sbomrag/internal/models"
)

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleIndexInventory(w http.ResponseWriter, r *http.Request) {
	var inv models.Inventory
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if inv.ProjectID == "" {
		s.respondError(w, http.StatusBadRequest, "inventory missing project_id")
		return
	}
	s.logger.Debug("index inventory request",
		zap.String("project_id", inv.ProjectID), zap.Int("packages", len(inv.Packages)))
	if err := s.engine.IndexInventory(r.Context(), &inv); err != nil {
		s.logger.Error("indexing failed", zap.String("project_id", inv.ProjectID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"project_id": inv.ProjectID, "status": "indexed"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ask request", zap.String("project_id", projectID), zap.String("question", req.Question))
	answer, err := s.engine.Ask(r.Context(), projectID, req.Question)
	if err != nil {
		if errors.Is(err, engine.ErrNotIndexed) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("ask failed", zap.String("project_id", projectID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"projects": s.engine.Projects()})
}

func (s *Server) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	inv, ok := s.engine.Inventory(projectID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "project not indexed: "+projectID)
		return
	}
	s.respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"projects":      len(s.engine.Projects()),
		"store_backend": s.storeType,
	})
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
