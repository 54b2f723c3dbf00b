package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"recipebox/internal/model"
	"recipebox/internal/repository"
)

// RecipePostgres is a PostgreSQL implementation of repository.RecipeRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type RecipePostgres struct {
	db *sql.DB
}

// NewRecipePostgres creates a new RecipePostgres repository.
func NewRecipePostgres(db *sql.DB) *RecipePostgres {
	return &RecipePostgres{db: db}
}

var _ repository.RecipeRepository = (*RecipePostgres)(nil)

const recipeColumns = `id, name, description, ingredients, instructions, img_url, tags, owner, creation_date`

type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a recipe row; the id is generated by the column default.
func (r *RecipePostgres) Create(ctx context.Context, rec *model.Recipe) (*model.Recipe, error) {
	ingredients, err := encodeList(rec.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("encode ingredients: %w", err)
	}
	instructions, err := encodeList(rec.Instructions)
	if err != nil {
		return nil, fmt.Errorf("encode instructions: %w", err)
	}
	tags, err := encodeList(rec.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	const q = `
		INSERT INTO recipes (name, description, ingredients, instructions, img_url, tags, owner, creation_date)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6::jsonb, $7, $8)
		RETURNING ` + recipeColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.Name,
		rec.Description,
		ingredients,
		instructions,
		rec.ImgURL,
		tags,
		rec.Owner,
		rec.CreationDate,
	)
	return scanRecipe(row)
}

// FindByID fetches a single recipe. Ids that are not UUIDs cannot exist and
// are reported as not found without a round trip.
func (r *RecipePostgres) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	const q = `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`
	rec, err := scanRecipe(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List returns every recipe. No ORDER BY: row order is whatever Postgres returns.
func (r *RecipePostgres) List(ctx context.Context) ([]model.Recipe, error) {
	const q = `SELECT ` + recipeColumns + ` FROM recipes`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Recipe, 0)
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanRecipe(s scanner) (*model.Recipe, error) {
	var (
		out                              model.Recipe
		ingredients, instructions, tags []byte
	)
	if err := s.Scan(
		&out.ID,
		&out.Name,
		&out.Description,
		&ingredients,
		&instructions,
		&out.ImgURL,
		&tags,
		&out.Owner,
		&out.CreationDate,
	); err != nil {
		return nil, err
	}
	var err error
	if out.Ingredients, err = decodeList(ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if out.Instructions, err = decodeList(instructions); err != nil {
		return nil, fmt.Errorf("decode instructions: %w", err)
	}
	if out.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &out, nil
}

func encodeList(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
