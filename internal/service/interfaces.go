package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/kitchen-buddy/backend/internal/model"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, in *types.RecipeCreate, userID uuid.UUID) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id uint, userID uuid.UUID) (*model.Recipe, error)
	GetRecipes(ctx context.Context, userID uuid.UUID) ([]model.Recipe, error)
	SearchRecipes(ctx context.Context, userID uuid.UUID, query string) ([]model.Recipe, error)
	UpdateRecipe(ctx context.Context, id uint, in *types.RecipeCreate, userID uuid.UUID) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id uint, userID uuid.UUID) error
	GetRecipeSuggestions(ctx context.Context, query string, userID uuid.UUID) (string, error)
}

// IIngredientService defines the interface for pantry operations
type IIngredientService interface {
	AddIngredient(ctx context.Context, in *types.IngredientCreate, userID uuid.UUID) (*model.Ingredient, error)
	GetIngredients(ctx context.Context, userID uuid.UUID) ([]model.Ingredient, error)
	UpdateIngredient(ctx context.Context, id uint, in *types.IngredientCreate, userID uuid.UUID) (*model.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uint, userID uuid.UUID) error
}

// ILLMService defines the language-model backed operations
type ILLMService interface {
	ParseRecipe(ctx context.Context, text string) (*types.RecipeCreate, error)
	ParseRecipeFromImage(ctx context.Context, image []byte, mediaType string) (*types.RecipeCreate, error)
	GetRecipeSuggestions(ctx context.Context, query string, availableIngredients []string) (string, error)
}

// IImageService stores uploaded recipe images
type IImageService interface {
	StoreRecipeImage(ctx context.Context, data []byte, mediaType string, userID uuid.UUID) (string, error)
	DeleteRecipeImage(ctx context.Context, url string) error
}

// IAuthService defines the interface for token operations
type IAuthService interface {
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(userID uuid.UUID) (string, error)
}
