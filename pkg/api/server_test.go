package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kemeter/ring/pkg/events"
	"github.com/kemeter/ring/pkg/storage"
)

// createAuthedUser inserts a user with a known token for tests that need
// to call an authenticated route.
func createAuthedUser(t *testing.T, store storage.Store, username string) string {
	t.Helper()
	require.NoError(t, store.CreateUser(username, "unused-hash"))
	user, err := store.GetUserByUsername(username)
	require.NoError(t, err)
	return user.Token
}

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ring.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewServer(store, events.NewLog(store)), store
}

func doRequest(s *Server, method, path, token string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, req)
	return w
}
