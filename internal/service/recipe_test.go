package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recipebox/internal/model"
	"recipebox/internal/repository"
	repoMocks "recipebox/internal/repository/mocks"
	"recipebox/internal/storage"
	storeMocks "recipebox/internal/storage/mocks"
	"recipebox/internal/validation"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(opts ...Option) (RecipeService, *storeMocks.MockStorage, *repoMocks.MockRecipeRepository) {
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRecipeRepository)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewRecipeService(mStore, mRepo, validation.New(), opts...), mStore, mRepo
}

func validInput() *model.RecipeInput {
	return &model.RecipeInput{
		Name:         "Roasted Chicken",
		Description:  "Very tasty",
		Ingredients:  []string{"1 Chicken Breast"},
		Instructions: []string{"Preheat oven", "Roast for an hour"},
		ImgURL:       "https://img.example/recipe_pictures/a.jpg",
	}
}

func isPictureKey(ext string) func(string) bool {
	return func(key string) bool {
		return strings.HasPrefix(key, "recipe_pictures/") && strings.HasSuffix(key, ext)
	}
}

func TestRecipeService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		setup   func(m *repoMocks.MockRecipeRepository)
		wantID  string
		wantErr error
	}{
		{
			name:    "empty id",
			id:      "",
			setup:   func(m *repoMocks.MockRecipeRepository) {},
			wantErr: ErrIDRequired,
		},
		{
			name: "found",
			id:   "r1",
			setup: func(m *repoMocks.MockRecipeRepository) {
				m.On("FindByID", ctx, "r1").Return(&model.Recipe{ID: "r1"}, nil)
			},
			wantID: "r1",
		},
		{
			name: "not found",
			id:   "nope",
			setup: func(m *repoMocks.MockRecipeRepository) {
				m.On("FindByID", ctx, "nope").Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, mRepo := newTestService()
			tt.setup(mRepo)

			got, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, got.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestRecipeService_Get_BackendError(t *testing.T) {
	ctx := context.Background()
	svc, _, mRepo := newTestService()
	mRepo.On("FindByID", ctx, "r1").Return(nil, errors.New("connection reset"))

	_, err := svc.Get(ctx, "r1")

	assert.EqualError(t, err, "find recipe r1: connection reset")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRecipeService_Get_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, mRepo := newTestService()
	rec := &model.Recipe{ID: "r1", Name: "Roasted Chicken", Ingredients: []string{"a"}}
	mRepo.On("FindByID", ctx, "r1").Return(rec, nil).Twice()

	first, err := svc.Get(ctx, "r1")
	require.NoError(t, err)
	second, err := svc.Get(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecipeService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("backend order", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		mRepo.On("List", ctx).Return([]model.Recipe{{ID: "b"}, {ID: "a"}, {ID: "c"}}, nil)

		res, err := svc.List(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, "b", res.Items[0].ID)
	})

	t.Run("nil from backend is empty", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		mRepo.On("List", ctx).Return(nil, nil)

		res, err := svc.List(ctx)

		require.NoError(t, err)
		assert.Equal(t, []model.Recipe{}, res.Items)
		assert.Zero(t, res.Total)
	})

	t.Run("error", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		mRepo.On("List", ctx).Return(nil, errors.New("db down"))

		_, err := svc.List(ctx)
		assert.EqualError(t, err, "list recipes: db down")
	})
}

func TestRecipeService_UploadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("nil reader", func(t *testing.T) {
		svc, mStore, _ := newTestService()

		_, err := svc.UploadImage(ctx, model.ImageUpload{Filename: "a.jpg"})

		assert.ErrorIs(t, err, ErrReaderNil)
		mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("presigned url", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		r := strings.NewReader("jpeg")
		mStore.On("Put", ctx, mock.MatchedBy(isPictureKey(".jpg")), r, storage.PutObjectOptions{
			Size:        4,
			ContentType: "image/jpeg",
			Metadata:    map[string]string{"original-filename": "Chicken.JPG"},
		}).Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
			return storage.ObjectInfo{Key: key, Size: 4}
		}, nil)
		mStore.On("PresignGet", ctx, mock.MatchedBy(isPictureKey(".jpg")), DefaultURLExpiry).
			Return("https://minio.local/signed", nil)

		img, err := svc.UploadImage(ctx, model.ImageUpload{Reader: r, Filename: "Chicken.JPG", ContentType: "image/jpeg", Size: 4})

		require.NoError(t, err)
		assert.True(t, isPictureKey(".jpg")(img.Key), img.Key)
		assert.Equal(t, "https://minio.local/signed", img.URL)
		mStore.AssertExpectations(t)
	})

	t.Run("public base url skips presign", func(t *testing.T) {
		svc, mStore, _ := newTestService(WithPublicBaseURL("https://cdn.example/"))
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "recipe_pictures/x.png"}, nil)

		img, err := svc.UploadImage(ctx, model.ImageUpload{Reader: strings.NewReader("png"), Filename: "x.png"})

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/recipe_pictures/x.png", img.URL)
		mStore.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("distinct keys for the same file", func(t *testing.T) {
		svc, mStore, _ := newTestService(WithPublicBaseURL("https://cdn.example"))
		var keys []string
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
				keys = append(keys, key)
				return storage.ObjectInfo{Key: key}
			}, nil)

		for i := 0; i < 2; i++ {
			_, err := svc.UploadImage(ctx, model.ImageUpload{Reader: strings.NewReader("png"), Filename: "same.png"})
			require.NoError(t, err)
		}
		require.Len(t, keys, 2)
		assert.NotEqual(t, keys[0], keys[1])
	})

	t.Run("storage error", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("storage fail"))

		_, err := svc.UploadImage(ctx, model.ImageUpload{Reader: strings.NewReader("x"), Filename: "a.jpg"})

		assert.EqualError(t, err, "upload to storage: storage fail")
	})

	t.Run("presign error discards object", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "recipe_pictures/k.jpg"}, nil)
		mStore.On("PresignGet", ctx, "recipe_pictures/k.jpg", DefaultURLExpiry).
			Return("", errors.New("no signer"))
		mStore.On("Delete", mock.Anything, "recipe_pictures/k.jpg").Return(nil)

		_, err := svc.UploadImage(ctx, model.ImageUpload{Reader: strings.NewReader("x"), Filename: "k.jpg"})

		assert.EqualError(t, err, "resolve image url: no signer")
		mStore.AssertExpectations(t)
	})
}

func TestRecipeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success stamps owner, tags and date", func(t *testing.T) {
		svc, _, mRepo := newTestService(WithOwner("Test Cook"))
		in := validInput()
		mRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Recipe) bool {
			return r.ID == "" &&
				r.Owner == "Test Cook" &&
				r.CreationDate.Equal(fixedNow) &&
				r.ImgURL == in.ImgURL &&
				r.Tags != nil && len(r.Tags) == 0
		})).Return(&model.Recipe{ID: "gen-id", ImgURL: in.ImgURL}, nil)

		got, err := svc.Create(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, "gen-id", got.ID)
		mRepo.AssertExpectations(t)
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		in := validInput()
		in.Name = "Pie"
		in.Ingredients = []string{}

		_, err := svc.Create(ctx, in)

		assert.ErrorIs(t, err, ErrInvalidInput)
		var ie *InputError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "Must be at least 5 characters", ie.Fields["name"])
		assert.Equal(t, "Must have at least 1 entry", ie.Fields["ingredients"])
		mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("names that only pass with padding are rejected", func(t *testing.T) {
		for _, name := range []string{"     ", "Abcd ", " \t Pie  "} {
			svc, _, mRepo := newTestService()
			in := validInput()
			in.Name = name

			_, err := svc.Create(ctx, in)

			var ie *InputError
			require.ErrorAs(t, err, &ie, "name %q", name)
			assert.Equal(t, "Must be at least 5 characters", ie.Fields["name"], "name %q", name)
			mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		}
	})

	t.Run("stored values are the trimmed ones", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		in := validInput()
		in.Name = "  Roasted Chicken  "
		in.Ingredients = []string{" Salt ", "Pepper"}
		mRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Recipe) bool {
			return r.Name == "Roasted Chicken" && assert.ObjectsAreEqual([]string{"Salt", "Pepper"}, r.Ingredients)
		})).Return(&model.Recipe{ID: "gen-id"}, nil)

		_, err := svc.Create(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, "  Roasted Chicken  ", in.Name)
		mRepo.AssertExpectations(t)
	})

	t.Run("nil input", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Create(ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("write error", func(t *testing.T) {
		svc, _, mRepo := newTestService()
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))

		_, err := svc.Create(ctx, validInput())
		assert.EqualError(t, err, "save recipe: db fail")
	})
}

func TestRecipeService_CreateWithImage(t *testing.T) {
	ctx := context.Background()
	upload := func() model.ImageUpload {
		return model.ImageUpload{Reader: strings.NewReader("jpeg"), Filename: "a.jpg", ContentType: "image/jpeg", Size: 4}
	}
	noImage := func() *model.RecipeInput {
		in := validInput()
		in.ImgURL = ""
		return in
	}

	t.Run("record carries the uploaded url", func(t *testing.T) {
		svc, mStore, mRepo := newTestService(WithPublicBaseURL("https://cdn.example"))
		mStore.On("Put", ctx, mock.MatchedBy(isPictureKey(".jpg")), mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "recipe_pictures/u.jpg"}, nil)
		mRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Recipe) bool {
			return r.ImgURL == "https://cdn.example/recipe_pictures/u.jpg"
		})).Return(&model.Recipe{ID: "gen-id", ImgURL: "https://cdn.example/recipe_pictures/u.jpg"}, nil)

		got, err := svc.CreateWithImage(ctx, noImage(), upload())

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/recipe_pictures/u.jpg", got.ImgURL)
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("upload failure skips the write", func(t *testing.T) {
		svc, mStore, mRepo := newTestService()
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("bucket gone"))

		_, err := svc.CreateWithImage(ctx, noImage(), upload())

		assert.EqualError(t, err, "upload to storage: bucket gone")
		mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("write failure deletes the upload", func(t *testing.T) {
		svc, mStore, mRepo := newTestService(WithPublicBaseURL("https://cdn.example"))
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "recipe_pictures/u.jpg"}, nil)
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", mock.Anything, "recipe_pictures/u.jpg").Return(nil).Once()

		_, err := svc.CreateWithImage(ctx, noImage(), upload())

		assert.EqualError(t, err, "save recipe: db fail")
		mStore.AssertExpectations(t)
	})

	t.Run("failed compensation is reported", func(t *testing.T) {
		svc, mStore, mRepo := newTestService(WithPublicBaseURL("https://cdn.example"))
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "recipe_pictures/u.jpg"}, nil)
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", mock.Anything, "recipe_pictures/u.jpg").Return(errors.New("delete fail"))

		_, err := svc.CreateWithImage(ctx, noImage(), upload())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db fail")
		assert.Contains(t, err.Error(), "delete fail")
	})

	t.Run("invalid input uploads nothing", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		in := noImage()
		in.Description = "Delicious"

		_, err := svc.CreateWithImage(ctx, in, upload())

		var ie *InputError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "Must be at least 2 words", ie.Fields["description"])
		assert.NotContains(t, ie.Fields, "img_url")
		mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing image", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.CreateWithImage(ctx, noImage(), model.ImageUpload{})
		assert.ErrorIs(t, err, ErrReaderNil)
	})
}

func TestRecipeService_DiscardImage(t *testing.T) {
	ctx := context.Background()

	t.Run("empty key", func(t *testing.T) {
		svc, _, _ := newTestService()
		assert.ErrorIs(t, svc.DiscardImage(ctx, ""), ErrKeyRequired)
	})

	t.Run("delete error wrapped", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		mStore.On("Delete", ctx, "recipe_pictures/a.jpg").Return(errors.New("denied"))

		err := svc.DiscardImage(ctx, "recipe_pictures/a.jpg")
		assert.EqualError(t, err, "discard image recipe_pictures/a.jpg: denied")
	})
}

func TestRecipeService_OpenImage(t *testing.T) {
	ctx := context.Background()

	t.Run("streams an object under the prefix", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		body := io.NopCloser(strings.NewReader("jpeg"))
		mStore.On("Get", ctx, "recipe_pictures/a.jpg").
			Return(body, storage.ObjectInfo{Key: "recipe_pictures/a.jpg", Size: 4, ContentType: "image/jpeg"}, nil)

		rc, info, err := svc.OpenImage(ctx, "recipe_pictures/a.jpg")

		require.NoError(t, err)
		b, _ := io.ReadAll(rc)
		assert.Equal(t, "jpeg", string(b))
		assert.Equal(t, "image/jpeg", info.ContentType)
	})

	tests := []struct {
		name string
		key  string
	}{
		{"outside the prefix", "private/secret.txt"},
		{"prefix without separator", "recipe_pictures_old/a.jpg"},
		{"dot segments", "recipe_pictures/../private/secret.txt"},
		{"double slash", "recipe_pictures//a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mStore, _ := newTestService()

			_, _, err := svc.OpenImage(ctx, tt.key)

			assert.ErrorIs(t, err, ErrImageMissing)
			mStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		})
	}

	t.Run("empty key", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, _, err := svc.OpenImage(ctx, "")
		assert.ErrorIs(t, err, ErrKeyRequired)
	})

	t.Run("missing object", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		mStore.On("Get", ctx, "recipe_pictures/gone.jpg").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, _, err := svc.OpenImage(ctx, "recipe_pictures/gone.jpg")
		assert.ErrorIs(t, err, ErrImageMissing)
	})

	t.Run("storage error wrapped", func(t *testing.T) {
		svc, mStore, _ := newTestService()
		mStore.On("Get", ctx, "recipe_pictures/a.jpg").Return(nil, storage.ObjectInfo{}, errors.New("timeout"))

		_, _, err := svc.OpenImage(ctx, "recipe_pictures/a.jpg")
		assert.EqualError(t, err, "open image recipe_pictures/a.jpg: timeout")
	})
}
