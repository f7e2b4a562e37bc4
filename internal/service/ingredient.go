package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/kitchen-buddy/backend/internal/model"
	"github.com/pageza/kitchen-buddy/backend/internal/types"
)

// IngredientService handles the user's pantry
type IngredientService struct {
	db *gorm.DB
}

// NewIngredientService creates a new IngredientService instance
func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// AddIngredient stores a pantry item for the user
func (s *IngredientService) AddIngredient(ctx context.Context, in *types.IngredientCreate, userID uuid.UUID) (*model.Ingredient, error) {
	if err := validateIngredient(in); err != nil {
		return nil, err
	}

	ingredient := model.Ingredient{
		Name:        strings.TrimSpace(in.Name),
		Quantity:    *in.Quantity,
		Unit:        strings.TrimSpace(in.Unit),
		Category:    in.Category,
		ExpiryDate:  in.ExpiryDate,
		UserID:      userID,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&ingredient).Error; err != nil {
		return nil, fmt.Errorf("failed to add ingredient: %w", err)
	}
	return &ingredient, nil
}

// GetIngredients lists the user's pantry
func (s *IngredientService) GetIngredients(ctx context.Context, userID uuid.UUID) ([]model.Ingredient, error) {
	ingredients := []model.Ingredient{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// UpdateIngredient overwrites every field of one of the user's pantry items
func (s *IngredientService) UpdateIngredient(ctx context.Context, id uint, in *types.IngredientCreate, userID uuid.UUID) (*model.Ingredient, error) {
	if err := validateIngredient(in); err != nil {
		return nil, err
	}

	var ingredient model.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.findOwned(tx, id, userID, &ingredient); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         strings.TrimSpace(in.Name),
			"quantity":     *in.Quantity,
			"unit":         strings.TrimSpace(in.Unit),
			"category":     in.Category,
			"expiry_date":  in.ExpiryDate,
			"last_updated": time.Now().UTC(),
		}
		if err := tx.Model(&model.Ingredient{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update ingredient: %w", err)
		}
		ingredient = model.Ingredient{}
		return s.findOwned(tx, id, userID, &ingredient)
	})
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// DeleteIngredient removes one of the user's pantry items
func (s *IngredientService) DeleteIngredient(ctx context.Context, id uint, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Ingredient{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete ingredient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrIngredientNotFound
	}
	return nil
}

func (s *IngredientService) findOwned(db *gorm.DB, id uint, userID uuid.UUID, out *model.Ingredient) error {
	err := db.Where("id = ? AND user_id = ?", id, userID).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrIngredientNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get ingredient: %w", err)
	}
	return nil
}

func validateIngredient(in *types.IngredientCreate) error {
	switch {
	case in == nil:
		return fmt.Errorf("%w: ingredient is required", ErrValidation)
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: ingredient name is required", ErrValidation)
	case strings.TrimSpace(in.Unit) == "":
		return fmt.Errorf("%w: ingredient unit is required", ErrValidation)
	case in.Quantity == nil:
		return fmt.Errorf("%w: ingredient quantity is required", ErrValidation)
	case *in.Quantity < 0:
		return fmt.Errorf("%w: ingredient quantity must not be negative", ErrValidation)
	}
	return nil
}
