package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recipebox/internal/config"
	"recipebox/internal/model"
	"recipebox/internal/repository"
)

// CollectionName is the top-level collection holding recipes.
const CollectionName = "recipes"

// recipeDocument is the stored shape; the id is the document's own key.
type recipeDocument struct {
	Name         string    `firestore:"name"`
	Description  string    `firestore:"description"`
	Ingredients  []string  `firestore:"ingredients"`
	Instructions []string  `firestore:"instructions"`
	ImgURL       string    `firestore:"img_url"`
	Tags         []string  `firestore:"tags"`
	Owner        string    `firestore:"owner"`
	CreationDate time.Time `firestore:"creation_date"`
}

// RecipeFirestore is a Cloud Firestore implementation of repository.RecipeRepository.
type RecipeFirestore struct {
	coll *firestore.CollectionRef
}

// NewRecipeFirestore uses the recipes collection of client.
func NewRecipeFirestore(client *firestore.Client) *RecipeFirestore {
	return &RecipeFirestore{coll: client.Collection(CollectionName)}
}

var _ repository.RecipeRepository = (*RecipeFirestore)(nil)

// NewClient opens a Firestore client. Credentials come from the file if set,
// otherwise from the environment (application default credentials or emulator).
func NewClient(ctx context.Context, c config.FirestoreConfig) (*firestore.Client, error) {
	if c.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	cli, err := firestore.NewClient(ctx, c.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return cli, nil
}

// Create writes the recipe under a fresh auto-generated document id.
func (r *RecipeFirestore) Create(ctx context.Context, rec *model.Recipe) (*model.Recipe, error) {
	ref := r.coll.NewDoc()
	doc := toDocument(rec)
	if _, err := ref.Create(ctx, doc); err != nil {
		return nil, err
	}
	return fromDocument(ref.ID, doc), nil
}

// FindByID reads one document snapshot.
func (r *RecipeFirestore) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	if id == "" || strings.Contains(id, "/") {
		return nil, repository.ErrNotFound
	}
	snap, err := r.coll.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	var doc recipeDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	return fromDocument(snap.Ref.ID, doc), nil
}

// List reads every document of the collection.
func (r *RecipeFirestore) List(ctx context.Context) ([]model.Recipe, error) {
	snaps, err := r.coll.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	items := make([]model.Recipe, 0, len(snaps))
	for _, snap := range snaps {
		var doc recipeDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", snap.Ref.ID, err)
		}
		items = append(items, *fromDocument(snap.Ref.ID, doc))
	}
	return items, nil
}

func toDocument(rec *model.Recipe) recipeDocument {
	return recipeDocument{
		Name:         rec.Name,
		Description:  rec.Description,
		Ingredients:  nonNil(rec.Ingredients),
		Instructions: nonNil(rec.Instructions),
		ImgURL:       rec.ImgURL,
		Tags:         nonNil(rec.Tags),
		Owner:        rec.Owner,
		CreationDate: rec.CreationDate,
	}
}

func fromDocument(id string, d recipeDocument) *model.Recipe {
	return &model.Recipe{
		ID:           id,
		Name:         d.Name,
		Description:  d.Description,
		Ingredients:  nonNil(d.Ingredients),
		Instructions: nonNil(d.Instructions),
		ImgURL:       d.ImgURL,
		Tags:         nonNil(d.Tags),
		Owner:        d.Owner,
		CreationDate: d.CreationDate,
	}
}

func nonNil(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}
