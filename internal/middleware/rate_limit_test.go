package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebook/backend/internal/testhelpers"
)

func limitedRouter(rl *RateLimiter, userID uuid.UUID, perRecipe bool) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(userIDKey, userID)
		c.Next()
	})
	mw := rl.RateLimitMiddleware()
	if perRecipe {
		mw = rl.PerRecipeRateLimitMiddleware()
	}
	router.PUT("/recipes/:id", mw, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return router
}

func put(router *gin.Engine, id string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/recipes/"+id, nil))
	return rr
}

func TestRateLimiterWindow(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	rl := NewRateLimiter(client, RateLimitConfig{Window: time.Minute, Limit: 2, KeyPrefix: "test"}, testhelpers.Logger())
	fixed := time.Date(2024, 5, 1, 10, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	router := limitedRouter(rl, uuid.New(), false)

	first := put(router, "a")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, strconv.FormatInt(fixed.Truncate(time.Minute).Add(time.Minute).Unix(), 10), first.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusNoContent, put(router, "b").Code)

	blocked := put(router, "c")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "30", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), `"error":"rate_limited"`)

	// Next window starts fresh
	fixed = fixed.Add(time.Minute)
	assert.Equal(t, http.StatusNoContent, put(router, "d").Code)
}

func TestPerRecipeRateLimiter(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	rl := NewRateLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 1, KeyPrefix: "test_recipe"}, testhelpers.Logger())
	userID := uuid.New()
	router := limitedRouter(rl, userID, true)

	assert.Equal(t, http.StatusNoContent, put(router, "one").Code)
	assert.Equal(t, http.StatusTooManyRequests, put(router, "one").Code)
	assert.Equal(t, http.StatusNoContent, put(router, "two").Code)

	remaining, _, err := rl.Remaining(context.Background(), userID.String()+":two")
	require.NoError(t, err)
	assert.Zero(t, remaining)

	remaining, _, err = rl.Remaining(context.Background(), userID.String()+":three")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// Nothing listens on this port
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	rl := NewRecipeCreationRateLimiter(client, testhelpers.Logger())
	rr := put(limitedRouter(rl, uuid.New(), false), "x")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "rate limit check failed", rr.Header().Get("X-RateLimit-Error"))
}

func TestRateLimiterRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	rl := NewRecipeModificationRateLimiter(client, testhelpers.Logger())
	router := gin.New()
	router.PUT("/recipes/:id", rl.PerRecipeRateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, put(router, "x").Code)
}
