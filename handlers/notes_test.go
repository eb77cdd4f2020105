package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteResponse struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (rg *rig) createNote(t *testing.T, token, title, content string) noteResponse {
	t.Helper()
	rw := rg.do(t, call{method: http.MethodPost, path: "/api/v1/notes", token: token, body: map[string]string{
		"title": title, "content": content,
	}})
	require.Equal(t, http.StatusCreated, rw.Code, rw.Body.String())
	var n noteResponse
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &n))
	return n
}

func TestNotesCRUD(t *testing.T) {
	rg := newRig(t)
	resp, _ := rg.signup(t, "Alice", "alice@example.com")

	n := rg.createNote(t, resp.AccessToken, "Groceries", "milk")
	assert.Equal(t, "Groceries", n.Title)

	rw := rg.do(t, call{method: http.MethodGet, path: "/api/v1/notes/" + n.ID, token: resp.AccessToken})
	require.Equal(t, http.StatusOK, rw.Code)

	rw = rg.do(t, call{method: http.MethodPatch, path: "/api/v1/notes/" + n.ID, token: resp.AccessToken, body: map[string]string{
		"content": "milk, eggs",
	}})
	require.Equal(t, http.StatusOK, rw.Code)
	var updated noteResponse
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &updated))
	assert.Equal(t, "Groceries", updated.Title)
	assert.Equal(t, "milk, eggs", updated.Content)

	rw = rg.do(t, call{method: http.MethodDelete, path: "/api/v1/notes/" + n.ID, token: resp.AccessToken})
	require.Equal(t, http.StatusOK, rw.Code)

	rw = rg.do(t, call{method: http.MethodGet, path: "/api/v1/notes/" + n.ID, token: resp.AccessToken})
	require.Equal(t, http.StatusNotFound, rw.Code)
}

func TestNotes_OwnershipAcrossUsers(t *testing.T) {
	rg := newRig(t)
	alice, _ := rg.signup(t, "Alice", "alice@example.com")
	bob, _ := rg.signup(t, "Bob", "bob@example.com")

	n := rg.createNote(t, alice.AccessToken, "Private", "secret")

	rw := rg.do(t, call{method: http.MethodGet, path: "/api/v1/notes/" + n.ID, token: bob.AccessToken})
	require.Equal(t, http.StatusForbidden, rw.Code)

	rw = rg.do(t, call{method: http.MethodDelete, path: "/api/v1/notes/" + n.ID, token: bob.AccessToken})
	require.Equal(t, http.StatusForbidden, rw.Code)

	// bob's listing does not include alice's note
	rw = rg.do(t, call{method: http.MethodGet, path: "/api/v1/notes", token: bob.AccessToken})
	require.Equal(t, http.StatusOK, rw.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &page))
	assert.Equal(t, int64(0), page.Total)
}

func TestNotes_AttachmentsWithoutStorage(t *testing.T) {
	rg := newRig(t)
	resp, _ := rg.signup(t, "Alice", "alice@example.com")
	n := rg.createNote(t, resp.AccessToken, "With file", "")

	rw := rg.do(t, call{method: http.MethodPost, path: "/api/v1/notes/" + n.ID + "/attachment", token: resp.AccessToken})
	require.Equal(t, http.StatusServiceUnavailable, rw.Code)

	rw = rg.do(t, call{method: http.MethodGet, path: "/api/v1/notes/" + n.ID + "/attachment", token: resp.AccessToken})
	require.Equal(t, http.StatusServiceUnavailable, rw.Code)

	rw = rg.do(t, call{method: http.MethodGet, path: "/api/v1/notes/" + n.ID + "/attachment/content", token: resp.AccessToken})
	require.Equal(t, http.StatusServiceUnavailable, rw.Code)
}

func TestUsersMe_UpdateAndDelete(t *testing.T) {
	rg := newRig(t)
	resp, _ := rg.signup(t, "Alice", "alice@example.com")
	rg.createNote(t, resp.AccessToken, "Doomed", "")

	rw := rg.do(t, call{method: http.MethodPatch, path: "/api/v1/users/me", token: resp.AccessToken, body: map[string]string{
		"name": "Alicia",
	}})
	require.Equal(t, http.StatusOK, rw.Code)
	var u struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &u))
	assert.Equal(t, "Alicia", u.Name)

	rw = rg.do(t, call{method: http.MethodDelete, path: "/api/v1/users/me", token: resp.AccessToken})
	require.Equal(t, http.StatusOK, rw.Code)

	// the account is gone; the token no longer resolves to a user
	rw = rg.do(t, call{method: http.MethodGet, path: "/api/v1/users/me", token: resp.AccessToken})
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestUsersList_AdminOnly(t *testing.T) {
	rg := newRig(t)
	resp, _ := rg.signup(t, "Alice", "alice@example.com")

	rw := rg.do(t, call{method: http.MethodGet, path: "/api/v1/users", token: resp.AccessToken})
	require.Equal(t, http.StatusForbidden, rw.Code)
}

func TestSwaggerEndpoints(t *testing.T) {
	rg := newRig(t)
	RegisterSwagger(rg.r)

	rw := rg.do(t, call{method: http.MethodGet, path: "/swagger/index.html"})
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "swagger-ui")

	rw = rg.do(t, call{method: http.MethodGet, path: "/swagger/doc.json"})
	require.Equal(t, http.StatusOK, rw.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.0", doc["openapi"])
}
