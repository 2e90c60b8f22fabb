package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(service *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/"), service)

	protected := router.Group("/")
	protected.Use(AuthMiddleware(service))
	protected.GET("/me", func(c *gin.Context) {
		_, principal, ok := RequireUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": principal.Username})
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, bearer string) (*httptest.ResponseRecorder, map[string]any) {
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

	decoded := map[string]any{}
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &decoded)
	}
	return rr, decoded
}

func TestAuthFlowScenario(t *testing.T) {
	service, _ := newTestService()
	router := newTestRouter(service)

	rr, body := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "pw123456",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "expected user object")
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "alice@x.com", user["email"])
	assert.NotEmpty(t, user["_id"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "refreshTokens")

	rr, _ = doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@x.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, login := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@x.com",
		"password": "pw123456",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	oldRefresh, _ := login["refreshToken"].(string)
	require.NotEmpty(t, oldRefresh)

	_, other := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@x.com",
		"password": "pw123456",
	}, "")
	otherRefresh, _ := other["refreshToken"].(string)
	require.NotEmpty(t, otherRefresh)

	rr, refreshed := doJSON(t, router, http.MethodPost, "/auth/refresh", nil, oldRefresh)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, refreshed["accessToken"])
	assert.NotEqual(t, oldRefresh, refreshed["refreshToken"])

	rr, replay := doJSON(t, router, http.MethodPost, "/auth/refresh", nil, oldRefresh)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "invalid or expired refresh token", replay["error"])

	rr, _ = doJSON(t, router, http.MethodPost, "/auth/refresh", nil, otherRefresh)
	assert.Equal(t, http.StatusForbidden, rr.Code, "sibling session must be revoked after reuse")

	newRefresh, _ := refreshed["refreshToken"].(string)
	rr, _ = doJSON(t, router, http.MethodPost, "/auth/logout", nil, newRefresh)
	assert.Equal(t, http.StatusForbidden, rr.Code, "rotated token was revoked with the rest")
}

func TestRegisterHTTPErrors(t *testing.T) {
	service, _ := newTestService()
	router := newTestRouter(service)

	rr, _ := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{"username": "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	payload := map[string]string{"username": "alice", "email": "alice@x.com", "password": "pw123456"}
	rr, _ = doJSON(t, router, http.MethodPost, "/auth/register", payload, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, _ = doJSON(t, router, http.MethodPost, "/auth/register", payload, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, _ = doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{"email": "alice@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogoutHTTP(t *testing.T) {
	service, _ := newTestService()
	router := newTestRouter(service)
	registered := registerAlice(t, service)

	rr, _ := doJSON(t, router, http.MethodPost, "/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = doJSON(t, router, http.MethodPost, "/auth/logout", nil, "bogus")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, body := doJSON(t, router, http.MethodPost, "/auth/logout", nil, registered.Tokens.RefreshToken)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Logout successful", body["message"])

	rr, _ = doJSON(t, router, http.MethodPost, "/auth/refresh", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthMiddleware(t *testing.T) {
	service, _ := newTestService()
	router := newTestRouter(service)
	registered := registerAlice(t, service)

	rr, _ := doJSON(t, router, http.MethodGet, "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "missing header must be 401")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "non-bearer header carries no token")

	rr, _ = doJSON(t, router, http.MethodGet, "/me", nil, "invalid")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = doJSON(t, router, http.MethodGet, "/me", nil, registered.Tokens.RefreshToken)
	assert.Equal(t, http.StatusForbidden, rr.Code, "refresh token is not an access token")

	rr, body := doJSON(t, router, http.MethodGet, "/me", nil, registered.Tokens.AccessToken)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", body["username"])
}

func TestChangePasswordHTTP(t *testing.T) {
	service, _ := newTestService()
	router := newTestRouter(service)
	registered := registerAlice(t, service)

	rr, _ := doJSON(t, router, http.MethodPost, "/auth/password", map[string]string{
		"currentPassword": "pw123456",
		"newPassword":     "newpass99",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, body := doJSON(t, router, http.MethodPost, "/auth/password", map[string]string{
		"currentPassword": "pw123456",
		"newPassword":     "newpass99",
	}, registered.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, body["refreshToken"])

	rr, _ = doJSON(t, router, http.MethodPost, "/auth/refresh", nil, registered.Tokens.RefreshToken)
	assert.Equal(t, http.StatusForbidden, rr.Code, "sessions opened before the change are gone")
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"Bearer":           "",
		"Bearer ":          "",
		"Bearer abc":       "abc",
		"bearer   abc  ":   "abc",
		"Token abc":        "",
		"BEARER x.y.z":     "x.y.z",
		"Basic dXNlcjpwdw": "",
	}
	for header, want := range cases {
		assert.Equal(t, want, extractBearerToken(header), "header %q", header)
	}
}
