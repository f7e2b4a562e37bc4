package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/kitchen-buddy/backend/internal/service"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

const fallbackChatResponse = "I couldn't generate a response. Please try again."

// ChatHandler answers free-form cooking questions with the user's pantry in mind
type ChatHandler struct {
	recipes service.IRecipeService
	limit   gin.HandlerFunc
}

// NewChatHandler creates a ChatHandler; limit may be nil
func NewChatHandler(recipes service.IRecipeService, limit gin.HandlerFunc) *ChatHandler {
	return &ChatHandler{recipes: recipes, limit: limit}
}

func (h *ChatHandler) RegisterRoutes(router gin.IRouter) {
	chat := router.Group("/chat")
	chat.POST("/", withLimit(h.limit, h.Chat)...)
}

func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}

	slog.Info("chat request", "user_id", userID, "message_length", len(req.Message))

	reply, err := h.recipes.GetRecipeSuggestions(c.Request.Context(), req.Message, userID)
	if err != nil {
		slog.Error("chat request failed", "user_id", userID, "error", err)
		respondError(c, err)
		return
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackChatResponse
	}

	c.JSON(http.StatusOK, types.ChatResponse{Response: reply})
}

func withLimit(limit gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if limit == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{limit, h}
}
