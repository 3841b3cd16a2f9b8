package statusstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"statuscheck/internal/core"
)

const mongoCollection = "status_checks"

// MongoDBStore implements Store on a MongoDB collection.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore ensures the timestamp index exists.
func NewMongoDBStore(ctx context.Context, database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}

	collection := database.Collection(mongoCollection)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create timestamp index: %w", err)
	}

	return &MongoDBStore{collection: collection}, nil
}

func (s *MongoDBStore) Create(ctx context.Context, rec *core.StatusCheck) error {
	doc := *rec
	doc.Timestamp = doc.Timestamp.UTC()
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("failed to insert status check: %w", err)
	}
	return nil
}

func (s *MongoDBStore) List(ctx context.Context, limit int) ([]core.StatusCheck, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query status checks: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]core.StatusCheck, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode status checks: %w", err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

// Close is a no-op; the client belongs to storage.Storage.
func (s *MongoDBStore) Close() error {
	return nil
}
