// Package repository contains data access abstractions for recipes.
// Implementations live in subpackages (postgres, mongo, firestore, cached).
package repository

import (
	"context"
	"errors"

	"recipebox/internal/model"
)

// ErrNotFound is returned by every implementation when no recipe has the requested id.
var ErrNotFound = errors.New("recipe not found")

// RecipeRepository defines persistence operations for recipes.
// No business logic here: validation and field stamping belong to the service.
type RecipeRepository interface {
	// Create writes a new recipe as a single document and returns the stored
	// record, including the id generated by the backend. Any ID on the input is ignored.
	Create(ctx context.Context, r *model.Recipe) (*model.Recipe, error)

	// FindByID returns a recipe by its id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Recipe, error)

	// List returns every recipe in backend order.
	List(ctx context.Context) ([]model.Recipe, error)
}
