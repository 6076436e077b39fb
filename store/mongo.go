package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postsCollection = "posts"

// namespaceExists is the server error code for creating a collection twice.
const namespaceExists = 48

// Mongo stores posts as documents in a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	posts  *mongo.Collection
}

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Prompt    string             `bson:"prompt"`
	Photo     string             `bson:"photo"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d postDocument) post() Post {
	return Post{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Prompt:    d.Prompt,
		Photo:     d.Photo,
		CreatedAt: d.CreatedAt,
	}
}

// NewMongo connects to uri and prepares the posts collection in database.
// The collection is created with a $jsonSchema validator so the server
// rejects documents missing any of the required fields.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	if err := ensureCollection(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo collection: %w", err)
	}
	return &Mongo{client: client, posts: db.Collection(postsCollection)}, nil
}

func ensureCollection(ctx context.Context, db *mongo.Database) error {
	nonEmpty := bson.M{"bsonType": "string", "minLength": 1}
	validator := bson.M{"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"name", "prompt", "photo", "createdAt"},
		"properties": bson.M{
			"name":      nonEmpty,
			"prompt":    nonEmpty,
			"photo":     nonEmpty,
			"createdAt": bson.M{"bsonType": "date"},
		},
	}}
	opts := options.CreateCollection().
		SetValidator(validator).
		SetValidationLevel("strict").
		SetValidationAction("error")
	err := db.CreateCollection(ctx, postsCollection, opts)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExists {
		return nil
	}
	return err
}

// Close disconnects the client.
func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Mongo) CreatePost(ctx context.Context, p Post) (Post, error) {
	if err := p.Validate(); err != nil {
		return Post{}, err
	}
	doc := postDocument{
		Name:      p.Name,
		Prompt:    p.Prompt,
		Photo:     p.Photo,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	res, err := s.posts.InsertOne(ctx, doc)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return Post{}, fmt.Errorf("insert post: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.post(), nil
}

func (s *Mongo) ListPosts(ctx context.Context) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.post())
	}
	return posts, nil
}

func (s *Mongo) GetPost(ctx context.Context, id string) (Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Post{}, ErrNotFound
	}
	var doc postDocument
	err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return doc.post(), nil
}
