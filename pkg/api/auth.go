package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/kemeter/ring/pkg/types"
)

type contextKey string

const userContextKey contextKey = "user"

// requireAuth validates the Authorization: Bearer <token> header against
// storage.Store.GetUserByToken and stashes the resolved user in the
// request context for downstream handlers (handleUserMe in particular).
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := s.store.GetUserByToken(token)
		if err != nil || user == nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if user.Status == types.UserDisabled {
			writeError(w, http.StatusUnauthorized, "user disabled")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}

func userFromContext(r *http.Request) *types.User {
	u, _ := r.Context().Value(userContextKey).(*types.User)
	return u
}
