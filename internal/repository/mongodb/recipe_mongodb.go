package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"recipebox/internal/model"
	"recipebox/internal/repository"
)

// CollectionName is the collection holding one document per recipe.
const CollectionName = "recipes"

// recipeDocument is the stored shape: the Recipe fields minus id, keyed by _id.
type recipeDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Description  string             `bson:"description"`
	Ingredients  []string           `bson:"ingredients"`
	Instructions []string           `bson:"instructions"`
	ImgURL       string             `bson:"img_url"`
	Tags         []string           `bson:"tags"`
	Owner        string             `bson:"owner"`
	CreationDate time.Time          `bson:"creation_date"`
}

// RecipeMongo is a MongoDB implementation of repository.RecipeRepository.
type RecipeMongo struct {
	coll *mongo.Collection
}

// NewRecipeMongo wraps an existing collection handle.
func NewRecipeMongo(coll *mongo.Collection) *RecipeMongo {
	return &RecipeMongo{coll: coll}
}

var _ repository.RecipeRepository = (*RecipeMongo)(nil)

// Create inserts a new document; the driver assigns the ObjectID.
func (r *RecipeMongo) Create(ctx context.Context, rec *model.Recipe) (*model.Recipe, error) {
	doc := toDocument(rec)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = oid
	return fromDocument(doc), nil
}

// FindByID looks a recipe up by the hex form of its ObjectID.
func (r *RecipeMongo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc recipeDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return fromDocument(doc), nil
}

// List returns every document in natural order.
func (r *RecipeMongo) List(ctx context.Context) ([]model.Recipe, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []recipeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	items := make([]model.Recipe, 0, len(docs))
	for _, d := range docs {
		items = append(items, *fromDocument(d))
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

func fromDocument(d recipeDocument) *model.Recipe {
	return &model.Recipe{
		ID:           d.ID.Hex(),
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

// Connect opens a client for uri and verifies it with a primary ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return cli, nil
}
