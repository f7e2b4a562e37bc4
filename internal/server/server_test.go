package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/kitchen-buddy/backend/config"
	"github.com/pageza/kitchen-buddy/backend/internal/service"
	"github.com/pageza/kitchen-buddy/backend/internal/testhelpers"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerHost:         "127.0.0.1",
		ServerPort:         "0",
		CORSAllowedOrigins: []string{"*"},
		MaxUploadBytes:     1 << 20,
		DBDriver:           "sqlite",
		JWTSecret:          "test-secret",
		DefaultUserID:      "00000000-0000-0000-0000-000000000001",
		LLMProvider:        "openai",
		LLMTimeout:         time.Second,
		RateLimitWindow:    time.Minute,
		RateLimitRequests:  5,
	}
}

func get(s *Server, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.NewSQLiteDB(t)

	t.Run("should serve health and metrics", func(t *testing.T) {
		srv, err := New(ctx, testConfig(), db)
		require.NoError(t, err)

		w := get(srv, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

		w = get(srv, "/metrics")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "kitchen_http_requests_total")
	})

	t.Run("should use the default user without a token", func(t *testing.T) {
		srv, err := New(ctx, testConfig(), db)
		require.NoError(t, err)

		w := get(srv, "/recipes/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("should require tokens when configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.AuthRequired = true
		srv, err := New(ctx, cfg, db)
		require.NoError(t, err)

		w := get(srv, "/ingredients/")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		token, err := service.NewAuthService(cfg.JWTSecret, time.Hour).GenerateToken(uuid.New())
		require.NoError(t, err)
		w = get(srv, "/ingredients/", "Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should reject unknown providers", func(t *testing.T) {
		cfg := testConfig()
		cfg.LLMProvider = "mystery"
		_, err := New(ctx, cfg, db)
		assert.Error(t, err)
	})
}

func TestStartShutdown(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), testhelpers.NewSQLiteDB(t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}
