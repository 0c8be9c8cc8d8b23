package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"framefeed/pkg/jwt"
	"framefeed/pkg/logger"
	"framefeed/pkg/middleware"
	apiHTTP "framefeed/services/api/internal/controller/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testRouter(limit gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	return NewRouter(Handlers{
		Posts: apiHTTP.NewPostHandler(nil, nil, 1<<20, log),
		Users: apiHTTP.NewUserHandler(nil, nil, 1<<20, log),
		Media: apiHTTP.NewMediaHandler(nil, log),
		Auth: middleware.AuthMiddleware(jwt.NewService("secret"), middleware.AuthOptions{
			DevToken:   "dev-token-secret",
			DevUserID:  "dev-user-123",
			Production: true,
		}),
		UploadLimit: limit,
	})
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	router := testRouter(nil)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/posts/media"},
		{http.MethodPost, "/api/posts"},
		{http.MethodGet, "/api/users/current"},
		{http.MethodPatch, "/api/users/current"},
		{http.MethodPost, "/api/users/current/avatar"},
		{http.MethodGet, "/api/users/u1/follow"},
		{http.MethodPost, "/api/users/u1/follow"},
		{http.MethodDelete, "/api/users/u1/follow"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_DevTokenRejectedInProduction(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/current", nil)
	req.Header.Set("Authorization", "Bearer dev-token-secret")
	testRouter(nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_UploadLimitRunsAfterAuth(t *testing.T) {
	var limited bool
	limit := func(c *gin.Context) {
		limited = true
		c.AbortWithStatus(http.StatusTooManyRequests)
	}

	token, err := jwt.NewService("secret").GenerateToken("user-1", "")
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/posts/media", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	testRouter(limit).ServeHTTP(w, req)

	assert.True(t, limited)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_MediaIsPublic(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cross-origin", w.Header().Get("Cross-Origin-Resource-Policy"))
}
