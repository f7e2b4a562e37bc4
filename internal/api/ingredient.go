package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/kitchen-buddy/backend/internal/service"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

// IngredientHandler serves the pantry endpoints
type IngredientHandler struct {
	ingredients service.IIngredientService
}

func NewIngredientHandler(ingredients service.IIngredientService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

func (h *IngredientHandler) RegisterRoutes(router gin.IRouter) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.POST("/", h.CreateIngredient)
		ingredients.GET("/", h.ListIngredients)
		ingredients.PUT("/:id", h.UpdateIngredient)
		ingredients.DELETE("/:id", h.DeleteIngredient)
	}
}

func (h *IngredientHandler) CreateIngredient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.IngredientCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredient, err := h.ingredients.AddIngredient(c.Request.Context(), &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}

func (h *IngredientHandler) ListIngredients(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ingredients, err := h.ingredients.GetIngredients(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

func (h *IngredientHandler) UpdateIngredient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req types.IngredientCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredient, err := h.ingredients.UpdateIngredient(c.Request.Context(), id, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

func (h *IngredientHandler) DeleteIngredient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.ingredients.DeleteIngredient(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{Message: "Ingredient deleted successfully"})
}
