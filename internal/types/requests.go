package types

import (
	"time"
)

// RecipeIngredientInput is one ingredient line of a recipe payload
type RecipeIngredientInput struct {
	IngredientName string   `json:"ingredient_name" binding:"required"`
	Quantity       *float64 `json:"quantity" binding:"required,min=0"`
	Unit           string   `json:"unit" binding:"required"`
}

// RecipeCreate is the body of recipe create and update requests,
// and the shape a recipe takes when extracted by the language model
type RecipeCreate struct {
	Name            string                  `json:"name" binding:"required"`
	CuisineType     *string                 `json:"cuisine_type"`
	PreparationTime *int                    `json:"preparation_time" binding:"omitempty,min=0"`
	CookingTime     *int                    `json:"cooking_time" binding:"omitempty,min=0"`
	DifficultyLevel *string                 `json:"difficulty_level"`
	TasteProfile    *string                 `json:"taste_profile"`
	Instructions    string                  `json:"instructions" binding:"required"`
	Ingredients     []RecipeIngredientInput `json:"ingredients" binding:"required,dive"`

	// SourceImageURL is set by the server for recipes extracted from an upload
	SourceImageURL *string `json:"-"`
}

// IngredientCreate is the body of ingredient create and update requests
type IngredientCreate struct {
	Name       string     `json:"name" binding:"required"`
	Quantity   *float64   `json:"quantity" binding:"required,min=0"`
	Unit       string     `json:"unit" binding:"required"`
	Category   *string    `json:"category"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// ParseRecipeRequest carries free text to be turned into a recipe draft
type ParseRecipeRequest struct {
	Text string `json:"text" binding:"required"`
}

// ChatRequest is the body of a suggestion request
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse wraps the model's suggestion text
type ChatResponse struct {
	Response string `json:"response"`
}

// MessageResponse is returned by endpoints that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
