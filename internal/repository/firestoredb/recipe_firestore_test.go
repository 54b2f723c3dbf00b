package firestoredb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebox/internal/config"
	"recipebox/internal/model"
	"recipebox/internal/repository"
)

func TestDocumentMapping(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &model.Recipe{
		ID:           "ignored",
		Name:         "Roasted Chicken",
		Description:  "Very tasty",
		Ingredients:  []string{"1 Chicken Breast"},
		Instructions: []string{"Preheat oven"},
		ImgURL:       "https://img/x.jpg",
		Owner:        "Home Cook",
		CreationDate: now,
	}

	doc := toDocument(rec)
	assert.Equal(t, []string{}, doc.Tags)

	back := fromDocument("abc123", doc)
	assert.Equal(t, "abc123", back.ID)
	assert.Equal(t, rec.Name, back.Name)
	assert.Equal(t, rec.Ingredients, back.Ingredients)
	assert.Equal(t, now, back.CreationDate)
}

func TestNewClient_RequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.FirestoreConfig{})
	assert.Error(t, err)
}

// TestRecipeFirestore_Emulator runs against a local emulator when FIRESTORE_EMULATOR_HOST is set.
func TestRecipeFirestore_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	cli, err := NewClient(ctx, config.FirestoreConfig{ProjectID: "recipebox-test"})
	require.NoError(t, err)
	defer cli.Close()
	repo := NewRecipeFirestore(cli)

	created, err := repo.Create(ctx, &model.Recipe{
		Name:         "Roasted Chicken",
		Description:  "Very tasty",
		Ingredients:  []string{"1 Chicken Breast"},
		Instructions: []string{"Preheat oven"},
		ImgURL:       "https://img/x.jpg",
		CreationDate: time.Now().UTC().Truncate(time.Microsecond),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	first, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = repo.FindByID(ctx, "does-not-exist")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.FindByID(ctx, "a/b")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, all)
}
