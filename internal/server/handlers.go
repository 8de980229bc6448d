package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/models"
	"github.com/hyperjump/regvec/internal/vectorstore"
)

// queryResponse wraps the hit so that "no hit" is an explicit null.
type queryResponse struct {
	Collection string      `json:"collection"`
	Hit        *models.Hit `json:"hit"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req models.LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	collection := req.Collection
	if collection == "" {
		collection = s.loader.Collection()
	}
	s.logger.Debug("load request", zap.String("path", req.Path), zap.String("collection", collection))
	res, err := s.loader.LoadInto(r.Context(), collection, req.Path)
	if err != nil {
		s.logger.Error("load failed", zap.Error(err))
		if errors.Is(err, os.ErrNotExist) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("query", req.Query), zap.String("collection", req.Collection))
	hit, err := s.runner.QueryCollection(r.Context(), req.Collection, req.Query)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	collection := req.Collection
	if collection == "" {
		collection = s.loader.Collection()
	}
	s.respondJSON(w, http.StatusOK, queryResponse{Collection: collection, Hit: hit})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := vectorstore.Describe(r.Context(), s.store)
	if err != nil {
		s.logger.Error("list collections failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"collections": infos})
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
