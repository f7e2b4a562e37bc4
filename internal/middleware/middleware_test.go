package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	userID uuid.UUID
	err    error
}

func (s stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.TokenClaims{UserID: s.userID}, nil
}

func whoAmI(c *gin.Context) {
	id, _ := UserID(c)
	c.JSON(http.StatusOK, gin.H{"user_id": id})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentity(t *testing.T) {
	tokenUser := uuid.New()
	fallback := uuid.New()

	newRouter := func(v TokenValidator, cfg IdentityConfig) *gin.Engine {
		r := gin.New()
		r.Use(Identity(v, cfg))
		r.GET("/me", whoAmI)
		return r
	}

	t.Run("should use the token's user", func(t *testing.T) {
		r := newRouter(stubValidator{userID: tokenUser}, IdentityConfig{DefaultUserID: fallback})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc")

		w := serve(r, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tokenUser.String())
	})

	t.Run("should fall back to the default user", func(t *testing.T) {
		r := newRouter(nil, IdentityConfig{DefaultUserID: fallback})
		w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), fallback.String())
	})

	t.Run("should require a token when configured", func(t *testing.T) {
		r := newRouter(stubValidator{userID: tokenUser}, IdentityConfig{Required: true, DefaultUserID: fallback})
		w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should reject invalid tokens even when optional", func(t *testing.T) {
		r := newRouter(stubValidator{err: errors.New("expired")}, IdentityConfig{DefaultUserID: fallback})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc")

		w := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid token"}`, w.Body.String())
	})

	t.Run("should reject malformed headers", func(t *testing.T) {
		r := newRouter(stubValidator{userID: tokenUser}, IdentityConfig{DefaultUserID: fallback})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")

		w := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	t.Run("should allow any origin by default", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"*"}))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://frontend.test")
		w := serve(r, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("should echo an allowed origin", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"http://localhost:5173"}))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := serve(r, req)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("should refuse other origins", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"http://localhost:5173"}))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := serve(r, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("connection refused")
}

func (failingLimiter) Config() RateLimitConfig { return RateLimitConfig{Window: time.Minute, Limit: 1} }

func limitedRouter(limiter Limiter, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(Identity(nil, IdentityConfig{DefaultUserID: userID}))
	r.POST("/chat/", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit(t *testing.T) {
	t.Run("should reject requests over the limit", func(t *testing.T) {
		limiter := NewLocalRateLimiter(RateLimitConfig{Window: time.Hour, Limit: 2})
		r := limitedRouter(limiter, uuid.New())

		for i := 0; i < 2; i++ {
			w := serve(r, httptest.NewRequest(http.MethodPost, "/chat/", nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		}

		w := serve(r, httptest.NewRequest(http.MethodPost, "/chat/", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "rate limit exceeded", body["error"])
	})

	t.Run("should count users separately", func(t *testing.T) {
		limiter := NewLocalRateLimiter(RateLimitConfig{Window: time.Hour, Limit: 1})

		w := serve(limitedRouter(limiter, uuid.New()), httptest.NewRequest(http.MethodPost, "/chat/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		w = serve(limitedRouter(limiter, uuid.New()), httptest.NewRequest(http.MethodPost, "/chat/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should drop buckets idle for a whole window", func(t *testing.T) {
		clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		limiter := NewLocalRateLimiter(RateLimitConfig{Window: time.Minute, Limit: 1})
		limiter.now = func() time.Time { return clock }
		limiter.lastSweep = clock

		d, err := limiter.Allow(context.Background(), "idle")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		d, err = limiter.Allow(context.Background(), "idle")
		require.NoError(t, err)
		assert.False(t, d.Allowed)

		clock = clock.Add(2 * time.Minute)
		_, err = limiter.Allow(context.Background(), "active")
		require.NoError(t, err)
		assert.Len(t, limiter.limiters, 1)
		assert.Contains(t, limiter.limiters, "active")

		d, err = limiter.Allow(context.Background(), "idle")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("should fail open when the store errors", func(t *testing.T) {
		r := limitedRouter(failingLimiter{}, uuid.New())
		w := serve(r, httptest.NewRequest(http.MethodPost, "/chat/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
	})
}

func TestRedisRateLimiter(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, RateLimitConfig{
		Window:    time.Minute,
		Limit:     2,
		KeyPrefix: "test:rate_limit:" + uuid.NewString(),
	})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := limiter.Allow(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, i <= 2, d.Allowed, "request "+strconv.Itoa(i))
	}
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/recipes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", MetricsHandler())

	serve(r, httptest.NewRequest(http.MethodGet, "/recipes/7", nil))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `kitchen_http_requests_total{method="GET",path="/recipes/:id",status="200"}`)
}
