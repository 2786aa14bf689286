package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection holds one document per dialog key.
const DefaultCollection = "dialogs"

type document struct {
	Key       string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// Store implements ports.Store on a MongoDB collection.
// Expired documents are filtered out on read and removed by a TTL index.
type Store struct {
	collection *mongo.Collection
	log        *slog.Logger
	now        func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Connect dials uri and returns a store on database.collection.
func Connect(ctx context.Context, uri, database, collection string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	if collection == "" {
		collection = DefaultCollection
	}
	return New(ctx, client.Database(database).Collection(collection), opts...), nil
}

// New wraps an existing collection and ensures the TTL index exists.
func New(ctx context.Context, collection *mongo.Collection, opts ...Option) *Store {
	s := &Store{
		collection: collection,
		log:        logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		s.log.Warn("creating ttl index", "collection", collection.Name(), "err", err)
	}
	return s
}

// live matches documents that have not expired.
func (s *Store) live() bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "expires_at", Value: nil}},
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now()}}}},
	}}}
}

// Set upserts the document.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	doc := document{Key: key, Value: value, UpdatedAt: now}
	if ttl > 0 {
		at := now.Add(ttl)
		doc.ExpiresAt = &at
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}
	return nil
}

// Get retrieves the value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	filter := bson.D{{Key: "_id", Value: key}}
	filter = append(filter, s.live()...)

	var doc document
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding %q: %w", key, err)
	}
	return doc.Value, nil
}

// Has reports whether a live document exists.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	filter := bson.D{{Key: "_id", Value: key}}
	filter = append(filter, s.live()...)

	n, err := s.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("counting %q: %w", key, err)
	}
	return n > 0, nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// List returns live keys sorted by key.
func (s *Store) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.collection.Find(ctx, s.live(), opts)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer cur.Close(ctx)

	keys := []string{}
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding key: %w", err)
		}
		keys = append(keys, doc.Key)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.collection.Database().Client().Disconnect(ctx)
}
