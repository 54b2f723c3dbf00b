package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"recipebox/internal/model"
	"recipebox/internal/repository"
	"recipebox/internal/storage"
	"recipebox/internal/validation"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrKeyRequired  = errors.New("image key is required")
	ErrNotFound     = errors.New("recipe not found")
	ErrImageMissing = errors.New("image not found")
	ErrReaderNil    = errors.New("reader is nil")
	ErrInvalidInput = errors.New("invalid recipe input")
)

const (
	DefaultOwner     = "Home Cook"
	DefaultKeyPrefix = "recipe_pictures"
	DefaultURLExpiry = 7 * 24 * time.Hour
)

// InputError carries the per-field messages of a rejected RecipeInput.
// errors.Is(err, ErrInvalidInput) holds for every InputError.
type InputError struct {
	Fields validation.FieldErrors
}

func (e *InputError) Error() string { return "invalid recipe input: " + e.Fields.Error() }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// RecipeListResult is the service-level DTO for the full recipe scan.
type RecipeListResult struct {
	Items []model.Recipe `json:"data"`
	Total int            `json:"total"`
}

// RecipeService is the single gateway to the document and blob stores.
type RecipeService interface {
	// Get returns a single recipe by its ID.
	Get(ctx context.Context, id string) (*model.Recipe, error)

	// List returns every recipe in backend order.
	List(ctx context.Context) (*RecipeListResult, error)

	// UploadImage stores the picture under the key prefix and resolves a URL for it.
	UploadImage(ctx context.Context, img model.ImageUpload) (*model.Image, error)

	// Create validates the input and writes a new recipe whose image is already uploaded.
	Create(ctx context.Context, in *model.RecipeInput) (*model.Recipe, error)

	// CreateWithImage uploads the picture, then writes the recipe. If the write fails
	// the uploaded object is deleted again.
	CreateWithImage(ctx context.Context, in *model.RecipeInput, img model.ImageUpload) (*model.Recipe, error)

	// DiscardImage deletes an uploaded picture by key.
	DiscardImage(ctx context.Context, key string) error

	// OpenImage streams a stored picture. Only keys under the picture prefix are served.
	OpenImage(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error)
}

// Option customizes a recipe service.
type Option func(*recipeService)

// WithClock overrides the creation date source.
func WithClock(now func() time.Time) Option {
	return func(s *recipeService) { s.now = now }
}

// WithOwner sets the owner stamped on every new recipe.
func WithOwner(owner string) Option {
	return func(s *recipeService) {
		if owner != "" {
			s.owner = owner
		}
	}
}

// WithKeyPrefix sets the namespace pictures are stored under.
func WithKeyPrefix(prefix string) Option {
	return func(s *recipeService) {
		if p := strings.Trim(prefix, "/"); p != "" {
			s.prefix = p
		}
	}
}

// WithPublicBaseURL makes image URLs "<base>/<key>" instead of pre-signed links.
func WithPublicBaseURL(base string) Option {
	return func(s *recipeService) { s.publicBase = strings.TrimSuffix(base, "/") }
}

// WithURLExpiry sets the lifetime of pre-signed image URLs.
func WithURLExpiry(d time.Duration) Option {
	return func(s *recipeService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

type recipeService struct {
	store      storage.Storage
	repo       repository.RecipeRepository
	validate   *validation.Validator
	now        func() time.Time
	owner      string
	prefix     string
	publicBase string
	expiry     time.Duration
}

// NewRecipeService constructs a new RecipeService.
func NewRecipeService(store storage.Storage, repo repository.RecipeRepository, v *validation.Validator, opts ...Option) RecipeService {
	s := &recipeService{
		store:    store,
		repo:     repo,
		validate: v,
		now:      time.Now,
		owner:    DefaultOwner,
		prefix:   DefaultKeyPrefix,
		expiry:   DefaultURLExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *recipeService) Get(ctx context.Context, id string) (*model.Recipe, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find recipe %s: %w", id, err)
	}
	return rec, nil
}

func (s *recipeService) List(ctx context.Context) (*RecipeListResult, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if items == nil {
		items = []model.Recipe{}
	}
	return &RecipeListResult{Items: items, Total: len(items)}, nil
}

func (s *recipeService) UploadImage(ctx context.Context, img model.ImageUpload) (*model.Image, error) {
	if img.Reader == nil {
		return nil, ErrReaderNil
	}
	key := path.Join(s.prefix, uuid.New().String()+strings.ToLower(path.Ext(img.Filename)))

	size := img.Size
	if size == 0 {
		size = -1
	}
	info, err := s.store.Put(ctx, key, img.Reader, storage.PutObjectOptions{
		Size:        size,
		ContentType: img.ContentType,
		Metadata: map[string]string{
			"original-filename": path.Base(img.Filename),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	url, err := s.objectURL(ctx, info.Key)
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), info.Key); delErr != nil {
			return nil, fmt.Errorf("resolve image url: %w; discard image: %w", err, delErr)
		}
		return nil, fmt.Errorf("resolve image url: %w", err)
	}
	return &model.Image{Key: info.Key, URL: url}, nil
}

func (s *recipeService) Create(ctx context.Context, in *model.RecipeInput) (*model.Recipe, error) {
	if in == nil {
		return nil, &InputError{Fields: validation.FieldErrors{"": "Recipe is required"}}
	}
	in = in.Normalized()
	if fe := s.validate.Validate(in); len(fe) > 0 {
		return nil, &InputError{Fields: fe}
	}
	stored, err := s.repo.Create(ctx, s.newRecipe(in))
	if err != nil {
		return nil, fmt.Errorf("save recipe: %w", err)
	}
	return stored, nil
}

func (s *recipeService) CreateWithImage(ctx context.Context, in *model.RecipeInput, img model.ImageUpload) (*model.Recipe, error) {
	if in == nil {
		return nil, &InputError{Fields: validation.FieldErrors{"": "Recipe is required"}}
	}
	if img.Reader == nil {
		return nil, ErrReaderNil
	}
	in = in.Normalized()
	// The image travels alongside, so img_url is filled in below.
	fe := s.validate.Validate(in)
	fe.Clear("img_url")
	if len(fe) > 0 {
		return nil, &InputError{Fields: fe}
	}

	image, err := s.UploadImage(ctx, img)
	if err != nil {
		return nil, err
	}

	withImage := *in
	withImage.ImgURL = image.URL
	stored, err := s.repo.Create(ctx, s.newRecipe(&withImage))
	if err != nil {
		// Compensate: the record never landed, so the picture must not linger.
		if delErr := s.DiscardImage(context.WithoutCancel(ctx), image.Key); delErr != nil {
			return nil, fmt.Errorf("save recipe: %w; rollback: %w", err, delErr)
		}
		return nil, fmt.Errorf("save recipe: %w", err)
	}
	return stored, nil
}

func (s *recipeService) DiscardImage(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("discard image %s: %w", key, err)
	}
	return nil
}

func (s *recipeService) OpenImage(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	if key == "" {
		return nil, storage.ObjectInfo{}, ErrKeyRequired
	}
	if clean := path.Clean("/" + key); clean[1:] != key || !strings.HasPrefix(key, s.prefix+"/") {
		return nil, storage.ObjectInfo{}, ErrImageMissing
	}
	rc, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, ErrImageMissing
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("open image %s: %w", key, err)
	}
	return rc, info, nil
}

func (s *recipeService) newRecipe(in *model.RecipeInput) *model.Recipe {
	return &model.Recipe{
		Name:         in.Name,
		Description:  in.Description,
		Ingredients:  append([]string(nil), in.Ingredients...),
		Instructions: append([]string(nil), in.Instructions...),
		ImgURL:       in.ImgURL,
		Tags:         []string{},
		Owner:        s.owner,
		CreationDate: s.now().UTC(),
	}
}

func (s *recipeService) objectURL(ctx context.Context, key string) (string, error) {
	if s.publicBase != "" {
		return s.publicBase + "/" + key, nil
	}
	return s.store.PresignGet(ctx, key, s.expiry)
}
