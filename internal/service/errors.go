package service

import "errors"

var (
	// ErrNotFound is matched by every lookup that finds no row for the caller
	ErrNotFound = errors.New("not found")
	// ErrValidation wraps input the service refuses to store
	ErrValidation = errors.New("validation failed")
	// ErrInvalidToken is returned for bearer tokens that fail verification
	ErrInvalidToken = errors.New("invalid token")
)

// NotFoundError carries the caller-facing message for a missing or foreign-owned row
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrNotFound) match any NotFoundError
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

var (
	ErrRecipeNotFound     error = &NotFoundError{Message: "Recipe not found"}
	ErrIngredientNotFound error = &NotFoundError{Message: "Ingredient not found or access denied"}
)
