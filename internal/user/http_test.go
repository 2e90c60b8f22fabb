package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abduss/postboard/internal/auth"
	"github.com/abduss/postboard/internal/auth/authtest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(service *Service, gate *authtest.Gate) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(gate.Service))
	RegisterRoutes(router.Group("/"), protected, service)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestProfileReadsArePublic(t *testing.T) {
	repo := newFakeRepo()
	gate := authtest.NewGate()
	router := newTestRouter(NewService(repo, nil, nil), gate)
	alice := repo.add("alice", "alice@x.com")

	rr := do(t, router, http.MethodGet, "/users", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0]["username"])
	assert.NotContains(t, list[0], "password")
	assert.NotContains(t, list[0], "refreshTokens")

	rr = do(t, router, http.MethodGet, "/users/"+alice.ID.String(), nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/users/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfileEditsRequireOwner(t *testing.T) {
	repo := newFakeRepo()
	gate := authtest.NewGate()
	router := newTestRouter(NewService(repo, nil, nil), gate)
	alice := repo.add("alice", "alice@x.com")
	bob := repo.add("bob", "bob@x.com")

	path := "/users/" + alice.ID.String()
	body := map[string]string{"bio": "hi"}

	rr := do(t, router, http.MethodPut, path, body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodPut, path, body, gate.AccessToken(t, bob.ID, "bob"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodPut, path, map[string]string{"username": "bob"}, gate.AccessToken(t, alice.ID, "alice"))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, http.MethodPut, path, body, gate.AccessToken(t, alice.ID, "alice"))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodDelete, path, nil, gate.AccessToken(t, bob.ID, "bob"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodDelete, path, nil, gate.AccessToken(t, alice.ID, "alice"))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
