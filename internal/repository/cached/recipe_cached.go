// Package cached provides a read-through LRU decorator for recipe lookups.
package cached

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"recipebox/internal/model"
	"recipebox/internal/repository"
)

// Repository caches FindByID results. Recipes are immutable once written,
// so entries never need invalidation. List always goes to the backend.
type Repository struct {
	next  repository.RecipeRepository
	cache *lru.Cache
}

var _ repository.RecipeRepository = (*Repository)(nil)

// New wraps next with an LRU of the given size. size must be positive.
func New(next repository.RecipeRepository, size int) (*Repository, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create recipe cache: %w", err)
	}
	return &Repository{next: next, cache: c}, nil
}

// Create writes through and primes the cache with the stored record.
func (r *Repository) Create(ctx context.Context, rec *model.Recipe) (*model.Recipe, error) {
	stored, err := r.next.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	r.cache.Add(stored.ID, clone(stored))
	return stored, nil
}

// FindByID serves from the cache when possible. Misses are not cached.
func (r *Repository) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if v, ok := r.cache.Get(id); ok {
		return clone(v.(*model.Recipe)), nil
	}
	rec, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, clone(rec))
	return rec, nil
}

func (r *Repository) List(ctx context.Context) ([]model.Recipe, error) {
	return r.next.List(ctx)
}

// Len reports the number of cached recipes.
func (r *Repository) Len() int {
	return r.cache.Len()
}

// clone keeps callers from mutating cached slices.
func clone(rec *model.Recipe) *model.Recipe {
	out := *rec
	out.Ingredients = append([]string(nil), rec.Ingredients...)
	out.Instructions = append([]string(nil), rec.Instructions...)
	out.Tags = append([]string{}, rec.Tags...)
	return &out
}
