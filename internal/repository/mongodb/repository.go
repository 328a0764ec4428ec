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
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// Store is a document store backed by one MongoDB database, one collection
// per farm collection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// ReadAll returns every document of collection, newest first when orderBy
// names a field.
func (s *Store) ReadAll(ctx context.Context, collection, orderBy string) ([]models.Record, error) {
	findOptions := options.Find()
	if orderBy != "" {
		findOptions.SetSort(bson.D{{Key: orderBy, Value: -1}})
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	records := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(doc))
	}
	return records, nil
}

// Insert stores record in collection and returns the new document id.
func (s *Store) Insert(ctx context.Context, collection string, record models.Record) (string, error) {
	doc := bson.M{}
	for k, v := range record {
		if k == "id" || k == "_id" {
			continue
		}
		doc[k] = v
	}
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = time.Now().UTC()
	}

	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// Subscribe opens a change stream on collection and calls fn with the full
// re-read collection after every change. It blocks until ctx is done or the
// stream fails; change streams require a replica set.
func (s *Store) Subscribe(ctx context.Context, collection string, fn func([]models.Record)) error {
	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return fmt.Errorf("watch %s: %w", collection, err)
	}
	defer stream.Close(context.Background())

	s.logger.Debug("change stream opened", zap.String("collection", collection))
	for stream.Next(ctx) {
		records, err := s.ReadAll(ctx, collection, models.OrderField(collection))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("re-read after change failed", zap.String("collection", collection), zap.Error(err))
			continue
		}
		fn(records)
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return fmt.Errorf("change stream %s: %w", collection, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
