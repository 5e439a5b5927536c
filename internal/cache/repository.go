// Package cache persists TTL-bounded external query results in the same
// Mongo database as the curated events, keyed by a deterministic hash of the
// query parameters.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Key derives the cache row key from the operation kind and its parameters.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

type Entry struct {
	QueryHash   string    `bson:"queryHash"`
	QueryParams string    `bson:"queryParams,omitempty"`
	Language    string    `bson:"language,omitempty"`
	Results     string    `bson:"results"`
	ExpiresAt   time.Time `bson:"expiresAt"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// Fresh reports whether the entry is still a cache hit at the given instant.
// Equality with expiresAt already counts as stale.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

type Repository interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *log.Logger
}

func NewMongoRepository(db *mongo.Database, logger *log.Logger) (Repository, error) {
	repo := &mongoRepository{
		col:    db.Collection("cached_searches"),
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "queryHash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	if err != nil && r.logger != nil {
		r.logger.Printf("failed to create cache indexes: %v", err)
	}
	return err
}

// Get returns the stored entry for the key, or nil when no row exists.
// Freshness is the caller's concern; stale rows are returned so a refresh
// can overwrite them.
func (r *mongoRepository) Get(ctx context.Context, key string) (*Entry, error) {
	var entry Entry
	err := r.col.FindOne(ctx, bson.M{"queryHash": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put replaces the row for the entry's key. Upsert keeps the refresh
// idempotent: a stale row is overwritten, never duplicated.
func (r *mongoRepository) Put(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"queryHash": entry.QueryHash}, entry, opts)
	return err
}
