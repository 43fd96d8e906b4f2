package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/clishot/pkg/errors"
)

// Mongo defaults.
const (
	DefaultDatabase   = "clishot"
	DefaultCollection = "renders"
)

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// MongoStore stores renders as documents {_id, name, created_at, data}.
type MongoStore struct {
	client *mongo.Client
	coll   collection
	now    func() time.Time
}

// NewMongoStore connects to uri and verifies the connection.
// Empty database or collection names use the defaults.
func NewMongoStore(ctx context.Context, uri, database, coll string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if coll == "" {
		coll = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(coll),
		now:    time.Now,
	}, nil
}

// Save inserts a new document and returns its generated ID.
func (s *MongoStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := errors.ValidateOutputName(name); err != nil {
		return "", err
	}
	rec := Record{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now().UTC(),
		Data:      data,
	}
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "insert render %s", name)
	}
	return rec.ID, nil
}

// Get loads a document by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid render id %q", id)
	}
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "render %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "find render %s", id)
	}
	return &rec, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
