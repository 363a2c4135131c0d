package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoCloseTimeout = 5 * time.Second
	// DefaultMongoCollection is used when no collection name is configured.
	DefaultMongoCollection = "research_runs"
)

// MongoRecorder stores run records as documents keyed by run id.
type MongoRecorder struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoRecorder(ctx context.Context, uri, database, collection string) (*MongoRecorder, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoRecorder{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (mr *MongoRecorder) Record(ctx context.Context, rec Record) error {
	if mr == nil || mr.collection == nil {
		return nil
	}
	_, err := mr.collection.InsertOne(ctx, mongoDocument(rec))
	if err != nil {
		return fmt.Errorf("mongo journal: %w", err)
	}
	return nil
}

func mongoDocument(rec Record) bson.M {
	doc := bson.M{
		"_id":         rec.RunID,
		"query":       rec.Query,
		"outcome":     rec.Outcome,
		"iterations":  rec.Iterations,
		"started_at":  rec.StartedAt.UTC(),
		"duration_ms": rec.Duration.Milliseconds(),
	}
	if len(rec.Tools) > 0 {
		doc["tools"] = rec.Tools
	}
	if rec.Error != "" {
		doc["error"] = rec.Error
	}
	return doc
}

func (mr *MongoRecorder) Close() error {
	if mr == nil || mr.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return mr.client.Disconnect(ctx)
}
