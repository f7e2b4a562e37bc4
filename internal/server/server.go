package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/kitchen-buddy/backend/config"
	"github.com/pageza/kitchen-buddy/backend/internal/api"
	"github.com/pageza/kitchen-buddy/backend/internal/database"
	"github.com/pageza/kitchen-buddy/backend/internal/middleware"
	"github.com/pageza/kitchen-buddy/backend/internal/router"
	"github.com/pageza/kitchen-buddy/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// New wires services, middleware and handlers onto a gin engine.
// Redis and S3 are optional; without them rate limits are kept in
// process and uploaded images are not stored.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Server, error) {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	llm, err := service.NewLLMServiceFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm service: %w", err)
	}
	recipes := service.NewRecipeService(db, llm)
	ingredients := service.NewIngredientService(db)

	s := &Server{cfg: cfg, db: db}

	limitCfg := middleware.RateLimitConfig{
		Window:    cfg.RateLimitWindow,
		Limit:     cfg.RateLimitRequests,
		KeyPrefix: "rate_limit:llm",
	}
	var limiter middleware.Limiter = middleware.NewLocalRateLimiter(limitCfg)
	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(ctx, cfg)
		if err != nil {
			slog.Warn("redis unavailable, using in-process rate limits", "error", err)
		} else {
			s.redis = client
			limiter = middleware.NewRateLimiter(client, limitCfg)
		}
	}
	limit := middleware.RateLimit(limiter)

	var images service.IImageService
	if cfg.StorageEnabled() {
		s3Config, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			slog.Warn("object storage unavailable, uploaded images will not be kept", "error", err)
		} else {
			images = service.NewImageService(s3Config)
		}
	}

	var validator middleware.TokenValidator
	if cfg.JWTSecret != "" {
		validator = service.NewAuthService(cfg.JWTSecret, 0)
	}
	defaultUser, _ := uuid.Parse(cfg.DefaultUserID)
	identity := middleware.Identity(validator, middleware.IdentityConfig{
		Required:      cfg.AuthRequired,
		DefaultUserID: defaultUser,
	})

	s.router = router.SetupRouter(router.Handlers{
		Recipes: api.NewRecipeHandler(recipes, llm, api.RecipeHandlerOptions{
			Images:         images,
			Limit:          limit,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}),
		Ingredients: api.NewIngredientHandler(ingredients),
		Chat:        api.NewChatHandler(recipes, limit),
	}, identity, cfg.CORSAllowedOrigins)
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.cfg.Addr(), "environment", config.GetEnvironment())
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and releases its clients
func (s *Server) Shutdown(ctx context.Context) error {
	errs := []error{s.http.Shutdown(ctx)}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}
