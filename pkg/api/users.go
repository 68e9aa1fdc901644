package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kemeter/ring/pkg/types"
)

type userInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userUpdateInput struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("hash password")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.store.CreateUser(in.Username, hashed); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.GetUserByUsername(in.Username)
	if err != nil || user == nil {
		s.logger.Error().Err(err).Str("username", in.Username).Msg("reload created user")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		s.logger.Error().Err(err).Msg("list users")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUserMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r))
}

// handleUserUpdate is a partial update: username and/or password are
// changed only when present in the request, and the password is rehashed
// only when a new one is given.
func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := s.lookupUser(w, r)
	if !ok {
		return
	}

	var in userUpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Password != nil {
		hashed, err := hashPassword(*in.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("hash password")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		user.Password = hashed
	}

	if err := s.store.UpdateUser(user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("update user")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := s.lookupUser(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteUser(user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("delete user")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request) (*types.User, bool) {
	id := chi.URLParam(r, "id")

	user, err := s.store.GetUser(id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("get user")
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}
