package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"framefeed/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_LocalFallback(t *testing.T) {
	router := setupTestRouter()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, c.GetHeader("X-User"))
		c.Next()
	})
	router.Use(RateLimitMiddleware(nil, 2, time.Minute, logger.Nop()))
	router.POST("/upload", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(user string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/upload", nil)
		req.Header.Set("X-User", user)
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, send("alice"))
	assert.Equal(t, http.StatusCreated, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	assert.Equal(t, http.StatusCreated, send("bob"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimitMiddleware(nil, 0, time.Minute, logger.Nop()))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/x", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// failingExpire makes every EXPIRE fail while other commands reach redis.
type failingExpire struct{}

func (failingExpire) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failingExpire) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "expire" {
			err := errors.New("READONLY You can't write against a read only replica")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failingExpire) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func redisRouter(t *testing.T, client *redis.Client, limit int) func(user string) int {
	t.Helper()
	router := setupTestRouter()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, c.GetHeader("X-User"))
		c.Next()
	})
	router.Use(RateLimitMiddleware(client, limit, time.Minute, logger.Nop()))
	router.POST("/upload", func(c *gin.Context) { c.Status(http.StatusCreated) })

	return func(user string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/upload", nil)
		req.Header.Set("X-User", user)
		router.ServeHTTP(w, req)
		return w.Code
	}
}

func TestRateLimitMiddleware_RedisWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	send := redisRouter(t, client, 2)

	assert.Equal(t, http.StatusCreated, send("alice"))
	assert.Equal(t, http.StatusCreated, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	assert.Equal(t, http.StatusCreated, send("bob"))

	key := "rate_limit:/upload:alice"
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusCreated, send("alice"))
}

func TestRateLimitMiddleware_FailedExpireDoesNotLockOut(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	client.AddHook(failingExpire{})

	send := redisRouter(t, client, 1)

	require.Equal(t, http.StatusCreated, send("alice"))
	assert.False(t, mr.Exists("rate_limit:/upload:alice"))
	assert.Equal(t, http.StatusCreated, send("alice"))
}

func TestRateLimitMiddleware_RedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	send := redisRouter(t, client, 1)

	assert.Equal(t, http.StatusCreated, send("alice"))
	assert.Equal(t, http.StatusCreated, send("alice"))
}
