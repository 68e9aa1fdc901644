package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemeter/ring/pkg/types"
)

func TestUserCreateThenList(t *testing.T) {
	s, store := newTestServer(t)
	token := createAuthedUser(t, store, "admin")

	body, _ := json.Marshal(userInput{Username: "bob", Password: "hunter2"})
	w := doRequest(s, http.MethodPost, "/users/", token, body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created types.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "bob", created.Username)
	assert.Empty(t, created.Password, "password must never be echoed back")

	w = doRequest(s, http.MethodGet, "/users/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []types.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestUserMeReturnsAuthenticatedUser(t *testing.T) {
	s, store := newTestServer(t)
	token := createAuthedUser(t, store, "admin")

	w := doRequest(s, http.MethodGet, "/users/me", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var me types.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "admin", me.Username)
}

func TestUserUpdatePartialChangesOnlyGivenFields(t *testing.T) {
	s, store := newTestServer(t)
	token := createAuthedUser(t, store, "admin")
	require.NoError(t, store.CreateUser("bob", "original-hash"))
	bob, err := store.GetUserByUsername("bob")
	require.NoError(t, err)

	newName := "bobby"
	update, _ := json.Marshal(userUpdateInput{Username: &newName})
	w := doRequest(s, http.MethodPut, "/users/"+bob.ID, token, update)

	require.Equal(t, http.StatusOK, w.Code)
	var updated types.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "bobby", updated.Username)

	reloaded, err := store.GetUser(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "original-hash", reloaded.Password, "password untouched when not supplied")
}

func TestUserDelete(t *testing.T) {
	s, store := newTestServer(t)
	token := createAuthedUser(t, store, "admin")
	require.NoError(t, store.CreateUser("bob", "hash"))
	bob, err := store.GetUserByUsername("bob")
	require.NoError(t, err)

	w := doRequest(s, http.MethodDelete, "/users/"+bob.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	reloaded, err := store.GetUser(bob.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded)
}

func TestUserUpdateMissingReturns404(t *testing.T) {
	s, store := newTestServer(t)
	token := createAuthedUser(t, store, "admin")

	newName := "ghost"
	update, _ := json.Marshal(userUpdateInput{Username: &newName})
	w := doRequest(s, http.MethodPut, "/users/does-not-exist", token, update)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
