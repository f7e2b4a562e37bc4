package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/kitchen-buddy/backend/internal/api"
	"github.com/pageza/kitchen-buddy/backend/internal/middleware"
)

// Handlers groups the route handlers mounted behind the identity middleware
type Handlers struct {
	Recipes     *api.RecipeHandler
	Ingredients *api.IngredientHandler
	Chat        *api.ChatHandler
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, identity gin.HandlerFunc, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Metrics(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.CORS(corsOrigins),
	)

	router.GET("/health", api.HealthCheck)
	router.GET("/metrics", middleware.MetricsHandler())

	protected := router.Group("")
	protected.Use(identity)
	{
		h.Recipes.RegisterRoutes(protected)
		h.Ingredients.RegisterRoutes(protected)
		h.Chat.RegisterRoutes(protected)
	}

	return router
}
