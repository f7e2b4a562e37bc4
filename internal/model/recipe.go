package model

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the width of the recipe embedding column.
const EmbeddingDimensions = 64

// Recipe is a stored recipe owned by a single user.
type Recipe struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	Name            string             `gorm:"size:255;not null" json:"name"`
	CuisineType     *string            `gorm:"size:100" json:"cuisine_type"`
	PreparationTime *int               `json:"preparation_time"`
	CookingTime     *int               `json:"cooking_time"`
	DifficultyLevel *string            `gorm:"size:50" json:"difficulty_level"`
	TasteProfile    *string            `gorm:"size:255" json:"taste_profile"`
	Instructions    string             `gorm:"type:text;not null" json:"instructions"`
	Ingredients     []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
	UserID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	AverageRating   float64            `gorm:"not null" json:"average_rating"`
	NumberOfReviews int                `gorm:"not null" json:"number_of_reviews"`
	VectorStoreID   string             `gorm:"size:36;not null;uniqueIndex" json:"vector_store_id"`
	SourceImageURL  *string            `gorm:"size:512" json:"source_image_url,omitempty"`
	Embedding       *pgvector.Vector   `gorm:"type:vector(64)" json:"-"`
	CreatedAt       time.Time          `json:"created_at"`
}

// RecipeIngredient links a free-text ingredient line to a recipe.
// Rows are replaced wholesale whenever the recipe is written.
type RecipeIngredient struct {
	ID             uint    `gorm:"primaryKey" json:"-"`
	RecipeID       uint    `gorm:"not null;index" json:"recipe_id"`
	IngredientName string  `gorm:"size:255;not null" json:"ingredient_name"`
	Quantity       float64 `gorm:"not null" json:"quantity"`
	Unit           string  `gorm:"size:50;not null" json:"unit"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
