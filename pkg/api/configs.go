package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kemeter/ring/pkg/storage"
	"github.com/kemeter/ring/pkg/types"
)

type configInput struct {
	Namespace string            `json:"namespace"`
	Name      string            `json:"name"`
	Data      string            `json:"data"`
	Labels    map[string]string `json:"labels"`
}

func (s *Server) handleConfigCreate(w http.ResponseWriter, r *http.Request) {
	var in configInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !json.Valid([]byte(in.Data)) {
		writeError(w, http.StatusBadRequest, "data must be valid JSON")
		return
	}

	labels, err := json.Marshal(in.Labels)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid labels")
		return
	}

	c := &types.Config{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Namespace: in.Namespace,
		Name:      in.Name,
		Data:      in.Data,
		Labels:    string(labels),
	}

	if err := s.store.CreateConfig(c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleConfigList(w http.ResponseWriter, r *http.Request) {
	namespaces := repeatedQueryParam(r.URL.Query(), "namespace")

	var (
		configs []*types.Config
		err     error
	)
	if len(namespaces) > 0 {
		configs, err = s.store.ListConfigs(storage.Filter{"namespace": namespaces})
	} else {
		configs, err = s.store.ListConfigs(storage.Filter{})
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("list configs")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, configs)
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupConfig(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleConfigUpdate is a full replace: name, data and labels are
// overwritten wholesale, id/created_at/namespace are kept.
func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupConfig(w, r)
	if !ok {
		return
	}

	var in configInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !json.Valid([]byte(in.Data)) {
		writeError(w, http.StatusBadRequest, "data must be valid JSON")
		return
	}

	labels, err := json.Marshal(in.Labels)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid labels")
		return
	}

	c.Name = in.Name
	c.Data = in.Data
	c.Labels = string(labels)
	now := time.Now().UTC().Format(time.RFC3339)
	c.UpdatedAt = &now

	if err := s.store.UpdateConfig(c); err != nil {
		s.logger.Error().Err(err).Str("config_id", c.ID).Msg("update config")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleConfigDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupConfig(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteConfig(c.ID); err != nil {
		s.logger.Error().Err(err).Str("config_id", c.ID).Msg("delete config")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupConfig(w http.ResponseWriter, r *http.Request) (*types.Config, bool) {
	id := chi.URLParam(r, "id")

	c, err := s.store.GetConfig(id)
	if err != nil {
		s.logger.Error().Err(err).Str("config_id", id).Msg("get config")
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "config not found")
		return nil, false
	}
	return c, true
}
