package article

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("article not found")

type Repository interface {
	CountPublished(ctx context.Context) (int64, error)
	ListPublished(ctx context.Context, skip, limit int64) ([]Document, error)
	BySlug(ctx context.Context, slug string) (*Document, error)
	BulkUpsert(ctx context.Context, docs []*Document) (int, error)
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *log.Logger
}

func NewMongoRepository(db *mongo.Database, logger *log.Logger) (Repository, error) {
	repo := &mongoRepository{
		col:    db.Collection("articles"),
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
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "publishedAt", Value: -1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	if err != nil && r.logger != nil {
		r.logger.Printf("failed to create article indexes: %v", err)
	}
	return err
}

func (r *mongoRepository) CountPublished(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"published": true})
}

func (r *mongoRepository) ListPublished(ctx context.Context, skip, limit int64) ([]Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"published": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *mongoRepository) BySlug(ctx context.Context, slug string) (*Document, error) {
	var doc Document
	err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// BulkUpsert writes seed articles keyed by slug, issuing fresh ids for ones
// not seen before.
func (r *mongoRepository) BulkUpsert(ctx context.Context, docs []*Document) (int, error) {
	now := time.Now().UTC()
	changed := 0

	for _, d := range docs {
		key := bson.M{"slug": d.Slug}

		var existing Document
		err := r.col.FindOne(ctx, key).Decode(&existing)
		if errors.Is(err, mongo.ErrNoDocuments) {
			if d.ID == "" {
				d.ID = uuid.NewString()
			}
			d.CreatedAt = now
			d.UpdatedAt = now
			if _, err := r.col.InsertOne(ctx, d); err != nil {
				return changed, err
			}
			changed++
			continue
		}
		if err != nil {
			return changed, err
		}

		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
		d.UpdatedAt = now
		if _, err := r.col.ReplaceOne(ctx, key, d); err != nil {
			return changed, err
		}
		changed++
	}

	return changed, nil
}
