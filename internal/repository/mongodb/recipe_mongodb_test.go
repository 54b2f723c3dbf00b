package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"recipebox/internal/model"
	"recipebox/internal/repository"
)

func recipeDoc(id primitive.ObjectID, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "description", Value: "Very tasty"},
		{Key: "ingredients", Value: bson.A{"1 Chicken Breast"}},
		{Key: "instructions", Value: bson.A{"Preheat oven"}},
		{Key: "img_url", Value: "https://img/x.jpg"},
		{Key: "tags", Value: bson.A{}},
		{Key: "owner", Value: "Home Cook"},
		{Key: "creation_date", Value: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestRecipeMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create returns generated id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewRecipeMongo(mt.Coll)

		got, err := repo.Create(ctx, &model.Recipe{
			Name:         "Roasted Chicken",
			Ingredients:  []string{"1 Chicken Breast"},
			Instructions: []string{"Preheat oven"},
		})

		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(got.ID)
		assert.NoError(mt, err)
		assert.Equal(mt, []string{}, got.Tags)
	})

	mt.Run("create write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		repo := NewRecipeMongo(mt.Coll)

		got, err := repo.Create(ctx, &model.Recipe{Name: "Roasted Chicken"})

		assert.Error(mt, err)
		assert.Nil(mt, got)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, recipeDoc(id, "Roasted Chicken")))
		repo := NewRecipeMongo(mt.Coll)

		got, err := repo.FindByID(ctx, id.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), got.ID)
		assert.Equal(mt, "Roasted Chicken", got.Name)
		assert.Equal(mt, []string{"Preheat oven"}, got.Instructions)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewRecipeMongo(mt.Coll)

		got, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, got)
	})

	mt.Run("find by malformed id", func(mt *mtest.T) {
		repo := NewRecipeMongo(mt.Coll)

		_, err := repo.FindByID(ctx, "zzz")

		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("list", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + mt.Coll.Name()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			recipeDoc(primitive.NewObjectID(), "Roasted Chicken"),
			recipeDoc(primitive.NewObjectID(), "Green Curry"),
		)
		last := mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
			recipeDoc(primitive.NewObjectID(), "Apple Pie"),
		)
		mt.AddMockResponses(first, last)
		repo := NewRecipeMongo(mt.Coll)

		got, err := repo.List(ctx)

		require.NoError(mt, err)
		require.Len(mt, got, 3)
		assert.Equal(mt, "Apple Pie", got[2].Name)
	})
}
