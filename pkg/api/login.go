package api

import (
	"net/http"
	"time"
)

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginOutput struct {
	Token string `json:"token"`
}

// handleLogin verifies username/password, issues a token if the user
// doesn't already have one, and persists it via storage.Store.Login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByUsername(in.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("lookup user for login")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !verifyPassword(user.Password, in.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if user.Token == "" {
		token, err := generateToken(time.Now())
		if err != nil {
			s.logger.Error().Err(err).Msg("generate token")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		user.Token = token
	}

	if err := s.store.Login(user); err != nil {
		s.logger.Error().Err(err).Msg("persist login")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginOutput{Token: user.Token})
}
