// Package app assembles the stores, the recipe service and the HTTP server
// from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/database/migration"
	handlers "recipebox/internal/http/handler"
	"recipebox/internal/repository"
	"recipebox/internal/repository/cached"
	"recipebox/internal/repository/firestoredb"
	"recipebox/internal/repository/mongodb"
	"recipebox/internal/repository/postgres"
	"recipebox/internal/service"
	"recipebox/internal/storage"
	"recipebox/internal/validation"
)

// Backends are the opened document and blob stores.
type Backends struct {
	Recipes repository.RecipeRepository
	Store   storage.Storage
	// Health checks that the document store is reachable.
	Health  func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

// Close releases every backend connection.
func (b *Backends) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type docStore struct {
	repo   repository.RecipeRepository
	health func(ctx context.Context) error
	close  func(ctx context.Context) error
}

// OpenBackends connects the configured document store and blob store.
func OpenBackends(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*Backends, error) {
	ds, err := openDocStore(ctx, cfg.DocStore, log)
	if err != nil {
		return nil, err
	}
	b := &Backends{Recipes: ds.repo, Health: ds.health, closers: []func(context.Context) error{ds.close}}

	if cfg.DocStore.CacheSize > 0 {
		c, err := cached.New(b.Recipes, cfg.DocStore.CacheSize)
		if err != nil {
			_ = b.Close(ctx)
			return nil, err
		}
		b.Recipes = c
	}

	store, err := openBlobStore(ctx, cfg.BlobStore)
	if err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	b.Store = store

	log.Info("backends_ready",
		zap.String("docstore", cfg.DocStore.Driver),
		zap.String("blobstore", cfg.BlobStore.Driver),
		zap.Int("cache_size", cfg.DocStore.CacheSize),
	)
	return b, nil
}

func openDocStore(ctx context.Context, c config.DocStoreConfig, log *zap.Logger) (*docStore, error) {
	switch c.Driver {
	case config.DocStorePostgres:
		db, err := database.NewPostgres(ctx, c.Database)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if c.Database.AutoMigrate {
			if err := migration.EnsureMigrated(ctx, db, log, c.Database.Host); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &docStore{
			repo:   postgres.NewRecipePostgres(db),
			health: db.PingContext,
			close:  func(context.Context) error { return db.Close() },
		}, nil

	case config.DocStoreMongo:
		cli, err := mongodb.Connect(ctx, c.Mongo.URI)
		if err != nil {
			return nil, err
		}
		coll := cli.Database(c.Mongo.Database).Collection(mongodb.CollectionName)
		return &docStore{
			repo:   mongodb.NewRecipeMongo(coll),
			health: func(ctx context.Context) error { return cli.Ping(ctx, readpref.Primary()) },
			close:  cli.Disconnect,
		}, nil

	case config.DocStoreFirestore:
		cli, err := firestoredb.NewClient(ctx, c.Firestore)
		if err != nil {
			return nil, err
		}
		return &docStore{
			repo: firestoredb.NewRecipeFirestore(cli),
			health: func(ctx context.Context) error {
				it := cli.Collection(firestoredb.CollectionName).Limit(1).Documents(ctx)
				defer it.Stop()
				if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
					return err
				}
				return nil
			},
			close: func(context.Context) error { return cli.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported docstore driver %q", c.Driver)
	}
}

func openBlobStore(ctx context.Context, c config.BlobStoreConfig) (storage.Storage, error) {
	switch c.Driver {
	case config.BlobStoreMinIO:
		s, err := storage.NewMinIO(ctx, c.MinIO)
		if err != nil {
			return nil, fmt.Errorf("open minio: %w", err)
		}
		return s, nil
	case config.BlobStoreS3:
		s, err := storage.NewS3(ctx, c.S3)
		if err != nil {
			return nil, fmt.Errorf("open s3: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported blobstore driver %q", c.Driver)
	}
}

// ServiceOptions translates configuration into recipe service options.
func ServiceOptions(cfg *config.AppConfig) []service.Option {
	base := cfg.BlobStore.PublicBaseURL
	if base == "" && cfg.BlobStore.ServeImages {
		base = handlers.ImagesPath
	}
	opts := []service.Option{
		service.WithOwner(cfg.Owner),
		service.WithKeyPrefix(cfg.BlobStore.Prefix),
		service.WithPublicBaseURL(base),
	}
	if cfg.BlobStore.URLExpirySec > 0 {
		opts = append(opts, service.WithURLExpiry(time.Duration(cfg.BlobStore.URLExpirySec)*time.Second))
	}
	return opts
}

// NewRecipeService builds the recipe service over b.
func NewRecipeService(cfg *config.AppConfig, b *Backends, v *validation.Validator) service.RecipeService {
	return service.NewRecipeService(b.Store, b.Recipes, v, ServiceOptions(cfg)...)
}
