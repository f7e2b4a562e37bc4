package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/kitchen-buddy/backend/internal/service"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

const defaultMaxUploadBytes = 10 << 20

// RecipeHandler serves recipe CRUD and model-backed extraction
type RecipeHandler struct {
	recipes        service.IRecipeService
	llm            service.ILLMService
	images         service.IImageService
	limit          gin.HandlerFunc
	maxUploadBytes int64
}

// RecipeHandlerOptions carries the optional collaborators of a RecipeHandler
type RecipeHandlerOptions struct {
	// Images stores uploaded photos; nil skips storage
	Images service.IImageService
	// Limit guards the model-backed routes; nil disables limiting
	Limit          gin.HandlerFunc
	MaxUploadBytes int64
}

func NewRecipeHandler(recipes service.IRecipeService, llm service.ILLMService, opts RecipeHandlerOptions) *RecipeHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &RecipeHandler{
		recipes:        recipes,
		llm:            llm,
		images:         opts.Images,
		limit:          opts.Limit,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

func (h *RecipeHandler) RegisterRoutes(router gin.IRouter) {
	recipes := router.Group("/recipes")
	{
		recipes.POST("/", h.CreateRecipe)
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/image", withLimit(h.limit, h.CreateRecipeFromImage)...)
		recipes.POST("/parse", withLimit(h.limit, h.ParseRecipe)...)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", h.UpdateRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
	}
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.RecipeCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// ListRecipes returns every recipe of the caller, ranked by ?q= when given
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	recipes, err := h.recipes.SearchRecipes(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req types.RecipeCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), id, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{Message: "Recipe deleted successfully"})
}

// ParseRecipe turns free text into a recipe draft without storing it
func (h *RecipeHandler) ParseRecipe(c *gin.Context) {
	var req types.ParseRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.llm.ParseRecipe(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// CreateRecipeFromImage reads a recipe photo from the multipart field "file",
// extracts it with the vision model and stores the result
func (h *RecipeHandler) CreateRecipeFromImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}

	mediaType := uploadMediaType(fileHeader.Header.Get("Content-Type"), data)
	ctx := c.Request.Context()

	draft, err := h.llm.ParseRecipeFromImage(ctx, data, mediaType)
	if err != nil {
		slog.Error("image extraction failed", "user_id", userID, "filename", fileHeader.Filename, "error", err)
		respondError(c, err)
		return
	}

	if h.images != nil {
		url, err := h.images.StoreRecipeImage(ctx, data, mediaType, userID)
		if err != nil {
			slog.Warn("recipe image not stored", "user_id", userID, "error", err)
		} else {
			draft.SourceImageURL = &url
		}
	}

	recipe, err := h.recipes.CreateRecipe(ctx, draft, userID)
	if err != nil {
		h.discardImage(ctx, draft.SourceImageURL)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// discardImage removes an upload whose recipe was never created
func (h *RecipeHandler) discardImage(ctx context.Context, url *string) {
	if h.images == nil || url == nil {
		return
	}
	if err := h.images.DeleteRecipeImage(context.WithoutCancel(ctx), *url); err != nil {
		slog.Warn("orphaned recipe image not deleted", "url", *url, "error", err)
	}
}

// uploadMediaType trusts the part's declared image type and sniffs otherwise
func uploadMediaType(declared string, data []byte) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return http.DetectContentType(data)
}
