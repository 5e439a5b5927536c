package event

import (
	"context"
	"errors"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("event not found")

// Filter is the store-side search filter. Zero values mean "not filtered".
// Query matches case-insensitively across the base-language and localized
// title/description fields.
type Filter struct {
	Year        *int
	Month       int
	Day         int
	Category    Category
	CountryCode string
	Query       string
}

type SortKey string

const (
	SortByDate       SortKey = "date"
	SortByImportance SortKey = "importance"
)

type SortSpec struct {
	By         SortKey
	Descending bool
}

type Repository interface {
	Count(ctx context.Context, f Filter) (int64, error)
	Search(ctx context.Context, f Filter, sort SortSpec, skip, limit int64) ([]Document, error)
	ByMonthDay(ctx context.Context, month, day int) ([]Document, error)
	CountByCategory(ctx context.Context, category Category) (int64, error)
	Page(ctx context.Context, category Category, skip, limit int64) ([]Document, error)
	ByID(ctx context.Context, id string) (*Document, error)
	Featured(ctx context.Context, limit int64) ([]Document, error)
	BulkUpsert(ctx context.Context, docs []*Document) (int, error)
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *log.Logger
}

func NewMongoRepository(db *mongo.Database, logger *log.Logger) (Repository, error) {
	repo := &mongoRepository{
		col:    db.Collection("events"),
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes backs the main read paths: year and month/day lookups, the
// importance ordinal sort, and the title+year natural key used by the seeder.
func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}, {Key: "year", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "year", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "month", Value: 1}, {Key: "day", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "importanceRank", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	if err != nil && r.logger != nil {
		r.logger.Printf("failed to create event indexes: %v", err)
	}
	return err
}

// filterDoc builds a bson filter document. User input only ever appears as
// bson values (free text is regex-quoted), never spliced into a query string.
func filterDoc(f Filter) bson.M {
	doc := bson.M{}
	if f.Year != nil {
		doc["year"] = *f.Year
	}
	if f.Month != 0 {
		doc["month"] = f.Month
	}
	if f.Day != 0 {
		doc["day"] = f.Day
	}
	if f.Category != "" {
		doc["category"] = f.Category
	}
	if f.CountryCode != "" {
		doc["countryCode"] = f.CountryCode
	}
	if f.Query != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		doc["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"titleAr": rx},
			bson.M{"titleFr": rx},
			bson.M{"description": rx},
			bson.M{"descriptionAr": rx},
			bson.M{"descriptionFr": rx},
		}
	}
	return doc
}

func sortDoc(s SortSpec) bson.D {
	order := 1
	if s.Descending {
		order = -1
	}
	key := "year"
	if s.By == SortByImportance {
		key = "importanceRank"
	}
	return bson.D{{Key: key, Value: order}, {Key: "_id", Value: 1}}
}

func (r *mongoRepository) Count(ctx context.Context, f Filter) (int64, error) {
	return r.col.CountDocuments(ctx, filterDoc(f))
}

func (r *mongoRepository) Search(ctx context.Context, f Filter, sort SortSpec, skip, limit int64) ([]Document, error) {
	opts := options.Find().SetSort(sortDoc(sort)).SetSkip(skip).SetLimit(limit)
	return r.find(ctx, filterDoc(f), opts)
}

func (r *mongoRepository) ByMonthDay(ctx context.Context, month, day int) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"month": month, "day": day}, opts)
}

func (r *mongoRepository) CountByCategory(ctx context.Context, category Category) (int64, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	return r.col.CountDocuments(ctx, filter)
}

// Page returns a contiguous slice of the category-filtered population in a
// stable order, so the random sampler can address it by offset.
func (r *mongoRepository) Page(ctx context.Context, category Category, skip, limit int64) ([]Document, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetSkip(skip).SetLimit(limit)
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) ByID(ctx context.Context, id string) (*Document, error) {
	var doc Document
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *mongoRepository) Featured(ctx context.Context, limit int64) ([]Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(limit)
	return r.find(ctx, bson.M{"importance": ImportanceCritical}, opts)
}

// BulkUpsert writes seed documents keyed by their title+year natural key,
// issuing a fresh id for rows not seen before. Returns the number of
// inserted or replaced documents.
func (r *mongoRepository) BulkUpsert(ctx context.Context, docs []*Document) (int, error) {
	now := time.Now().UTC()
	changed := 0

	for _, d := range docs {
		d.ImportanceRank = d.Importance.Rank()

		key := bson.M{"title": d.Title, "year": d.Year}

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

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Document, error) {
	cur, err := r.col.Find(ctx, filter, opts)
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
