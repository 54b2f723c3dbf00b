package model

import (
	"io"
	"strings"
	"time"
)

// Recipe represents a shared recipe.
// This is a pure domain model with no database-specific tags; each repository
// maps it onto its own document shape.
type Recipe struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	ImgURL       string    `json:"img_url"`
	Tags         []string  `json:"tags"`
	Owner        string    `json:"owner"`
	CreationDate time.Time `json:"creation_date"`
}

// RecipeInput holds the user-editable fields of a new recipe together with
// their validation rules.
type RecipeInput struct {
	Name         string   `json:"name" validate:"min=5,letters_spaces"`
	Description  string   `json:"description" validate:"min_words=2"`
	Ingredients  []string `json:"ingredients" validate:"min=1,dive,min=1"`
	Instructions []string `json:"instructions" validate:"min=1,dive,min=1"`
	ImgURL       string   `json:"img_url" validate:"required"`
}

// Normalized returns a copy with surrounding whitespace removed from every
// text field and list entry. Validation runs on the normalized copy so the
// stored values are the ones that passed.
func (in *RecipeInput) Normalized() *RecipeInput {
	return &RecipeInput{
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Ingredients:  trimAll(in.Ingredients),
		Instructions: trimAll(in.Instructions),
		ImgURL:       strings.TrimSpace(in.ImgURL),
	}
}

func trimAll(vals []string) []string {
	if vals == nil {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// ImageUpload is a binary image waiting to be stored.
// Size is the exact number of bytes if known, -1 otherwise.
type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// Image is a stored picture and the URL it can be retrieved from.
type Image struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
