package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/kitchen-buddy/backend/internal/model"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db  *gorm.DB
	llm ILLMService
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, llm ILLMService) *RecipeService {
	return &RecipeService{
		db:  db,
		llm: llm,
	}
}

// CreateRecipe stores a recipe and its ingredient lines in one transaction
func (s *RecipeService) CreateRecipe(ctx context.Context, in *types.RecipeCreate, userID uuid.UUID) (*model.Recipe, error) {
	if err := validateRecipe(in); err != nil {
		return nil, err
	}

	recipe := model.Recipe{
		Name:            in.Name,
		CuisineType:     in.CuisineType,
		PreparationTime: in.PreparationTime,
		CookingTime:     in.CookingTime,
		DifficultyLevel: in.DifficultyLevel,
		TasteProfile:    in.TasteProfile,
		Instructions:    in.Instructions,
		UserID:          userID,
		AverageRating:   0,
		NumberOfReviews: 0,
		VectorStoreID:   uuid.NewString(),
		SourceImageURL:  in.SourceImageURL,
		CreatedAt:       time.Now().UTC(),
	}
	links := ingredientLinks(in.Ingredients)
	if s.usesVectors() {
		recipe.Embedding = recipeEmbedding(in)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return insertLinks(tx, recipe.ID, links)
	})
	if err != nil {
		return nil, err
	}

	recipe.Ingredients = links
	slog.Info("recipe created", "recipe_id", recipe.ID, "user_id", userID, "ingredients", len(links))
	return &recipe, nil
}

// GetRecipe returns one of the user's recipes with its ingredients
func (s *RecipeService) GetRecipe(ctx context.Context, id uint, userID uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	err := s.withIngredients(s.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// GetRecipes lists all of the user's recipes with their ingredients
func (s *RecipeService) GetRecipes(ctx context.Context, userID uuid.UUID) ([]model.Recipe, error) {
	recipes := []model.Recipe{}
	err := s.withIngredients(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("id").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// SearchRecipes lists the user's recipes relevant to query. PostgreSQL ranks
// every recipe by embedding distance; other dialects filter by substring.
func (s *RecipeService) SearchRecipes(ctx context.Context, userID uuid.UUID, query string) ([]model.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.GetRecipes(ctx, userID)
	}

	q := s.withIngredients(s.db.WithContext(ctx)).Where("user_id = ?", userID)
	if s.usesVectors() {
		vec := GenerateEmbedding(query)
		q = q.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}, WithoutParentheses: true},
		})
	} else {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(instructions) LIKE ? OR EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = recipes.id AND LOWER(ri.ingredient_name) LIKE ?)",
			like, like, like,
		).Order("id")
	}

	recipes := []model.Recipe{}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return recipes, nil
}

// UpdateRecipe replaces a recipe's fields and its whole ingredient list
func (s *RecipeService) UpdateRecipe(ctx context.Context, id uint, in *types.RecipeCreate, userID uuid.UUID) (*model.Recipe, error) {
	if err := validateRecipe(in); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":             in.Name,
		"cuisine_type":     in.CuisineType,
		"preparation_time": in.PreparationTime,
		"cooking_time":     in.CookingTime,
		"difficulty_level": in.DifficultyLevel,
		"taste_profile":    in.TasteProfile,
		"instructions":     in.Instructions,
	}
	if s.usesVectors() {
		updates["embedding"] = recipeEmbedding(in)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Recipe
		err := tx.Select("id").Where("id = ? AND user_id = ?", id, userID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get recipe: %w", err)
		}

		if err := tx.Model(&model.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to remove recipe ingredients: %w", err)
		}
		return insertLinks(tx, id, ingredientLinks(in.Ingredients))
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, id, userID)
}

// DeleteRecipe removes one of the user's recipes; ingredient lines go by cascade
func (s *RecipeService) DeleteRecipe(ctx context.Context, id uint, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Recipe{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	slog.Info("recipe deleted", "recipe_id", id, "user_id", userID)
	return nil
}

// GetRecipeSuggestions asks the model for recipes built around the user's pantry
func (s *RecipeService) GetRecipeSuggestions(ctx context.Context, query string, userID uuid.UUID) (string, error) {
	if s.llm == nil {
		return "", errors.New("failed to get suggestions: language model is not configured")
	}

	var names []string
	err := s.db.WithContext(ctx).Model(&model.Ingredient{}).
		Where("user_id = ?", userID).
		Order("id").
		Pluck("name", &names).Error
	if err != nil {
		return "", fmt.Errorf("failed to load ingredients: %w", err)
	}

	return s.llm.GetRecipeSuggestions(ctx, query, names)
}

func (s *RecipeService) usesVectors() bool {
	return s.db.Dialector.Name() == "postgres"
}

func (s *RecipeService) withIngredients(db *gorm.DB) *gorm.DB {
	return db.Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

func insertLinks(tx *gorm.DB, recipeID uint, links []model.RecipeIngredient) error {
	if len(links) == 0 {
		return nil
	}
	for i := range links {
		links[i].RecipeID = recipeID
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to add recipe ingredients: %w", err)
	}
	return nil
}

func ingredientLinks(in []types.RecipeIngredientInput) []model.RecipeIngredient {
	links := make([]model.RecipeIngredient, 0, len(in))
	for _, ing := range in {
		var quantity float64
		if ing.Quantity != nil {
			quantity = *ing.Quantity
		}
		links = append(links, model.RecipeIngredient{
			IngredientName: strings.TrimSpace(ing.IngredientName),
			Quantity:       quantity,
			Unit:           strings.TrimSpace(ing.Unit),
		})
	}
	return links
}

func validateRecipe(in *types.RecipeCreate) error {
	if in == nil {
		return fmt.Errorf("%w: recipe is required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: recipe name is required", ErrValidation)
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return fmt.Errorf("%w: recipe instructions are required", ErrValidation)
	}
	if negative(in.PreparationTime) || negative(in.CookingTime) {
		return fmt.Errorf("%w: recipe times must not be negative", ErrValidation)
	}
	for i, ing := range in.Ingredients {
		if strings.TrimSpace(ing.IngredientName) == "" {
			return fmt.Errorf("%w: ingredient %d has no name", ErrValidation, i+1)
		}
		if ing.Quantity == nil {
			return fmt.Errorf("%w: ingredient %q has no quantity", ErrValidation, ing.IngredientName)
		}
		if *ing.Quantity < 0 {
			return fmt.Errorf("%w: ingredient %q has a negative quantity", ErrValidation, ing.IngredientName)
		}
	}
	return nil
}

func negative(v *int) bool {
	return v != nil && *v < 0
}

func recipeEmbedding(in *types.RecipeCreate) *pgvector.Vector {
	parts := []string{in.Name, in.Instructions}
	for _, p := range []*string{in.CuisineType, in.TasteProfile, in.DifficultyLevel} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	for _, ing := range in.Ingredients {
		parts = append(parts, ing.IngredientName)
	}
	vec := GenerateEmbedding(strings.Join(parts, " "))
	return &vec
}
