package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"eras-api/internal/article"
	"eras-api/internal/config"
	"eras-api/internal/db"
	"eras-api/internal/event"
	"eras-api/internal/notify"
)

// seedEvent is the JSON shape of a curated seed record.
type seedEvent struct {
	Title         string         `json:"title"`
	TitleAr       string         `json:"titleAr,omitempty"`
	TitleFr       string         `json:"titleFr,omitempty"`
	Description   string         `json:"description"`
	DescriptionAr string         `json:"descriptionAr,omitempty"`
	DescriptionFr string         `json:"descriptionFr,omitempty"`
	Year          int            `json:"year"`
	Month         int            `json:"month,omitempty"`
	Day           int            `json:"day,omitempty"`
	Era           string         `json:"era,omitempty"`
	Category      string         `json:"category"`
	Country       string         `json:"country,omitempty"`
	CountryCode   string         `json:"countryCode,omitempty"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	Importance    string         `json:"importance"`
	Sources       []event.Source `json:"sources,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
}

type seedArticle struct {
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	TitleAr       string         `json:"titleAr,omitempty"`
	TitleFr       string         `json:"titleFr,omitempty"`
	Excerpt       string         `json:"excerpt"`
	ExcerptAr     string         `json:"excerptAr,omitempty"`
	ExcerptFr     string         `json:"excerptFr,omitempty"`
	Content       string         `json:"content"`
	ContentAr     string         `json:"contentAr,omitempty"`
	ContentFr     string         `json:"contentFr,omitempty"`
	CoverImageURL string         `json:"coverImageUrl,omitempty"`
	Author        article.Author `json:"author"`
	Category      string         `json:"category,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	ReadingTime   int            `json:"readingTime,omitempty"`
	Published     bool           `json:"published"`
	PublishedAt   string         `json:"publishedAt,omitempty"`
}

func main() {
	var (
		eventsPath   = flag.String("events", "seed/events.json", "path to curated events JSON")
		articlesPath = flag.String("articles", "seed/articles.json", "path to curated articles JSON")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[eras-seed] ", log.LstdFlags)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()
	dbInstance := mongoClient.Database(cfg.MongoDBName)

	eventRepo, err := event.NewMongoRepository(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init event repository: %v", err)
	}
	articleRepo, err := article.NewMongoRepository(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init article repository: %v", err)
	}

	eventDocs, err := loadEvents(*eventsPath)
	if err != nil {
		logger.Fatalf("failed to load events: %v", err)
	}
	changed, err := eventRepo.BulkUpsert(ctx, eventDocs)
	if err != nil {
		logger.Fatalf("event upsert failed: %v", err)
	}
	logger.Printf("events: %d of %d documents changed", changed, len(eventDocs))

	articleDocs, err := loadArticles(*articlesPath)
	if err != nil {
		logger.Fatalf("failed to load articles: %v", err)
	}
	changedArticles, err := articleRepo.BulkUpsert(ctx, articleDocs)
	if err != nil {
		logger.Fatalf("article upsert failed: %v", err)
	}
	logger.Printf("articles: %d of %d documents changed", changedArticles, len(articleDocs))

	// Change notifications are optional: without a broker configured the
	// seeder is a plain one-shot load.
	if cfg.RabbitURI != "" {
		publisher, err := notify.NewRabbitPublisher(
			cfg.RabbitURI,
			cfg.RabbitExchange,
			cfg.RabbitRoutingKey,
			logger,
		)
		if err != nil {
			logger.Fatalf("failed to init rabbit publisher: %v", err)
		}
		defer publisher.Close()

		for _, d := range eventDocs {
			if err := publisher.PublishEventUpdated(ctx, d); err != nil {
				logger.Printf("failed publishing event %s: %v", d.ID, err)
			}
		}
		logger.Printf("published %d change notifications", len(eventDocs))
	}

	logger.Println("seed complete")
}

func loadEvents(path string) ([]*event.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []seedEvent
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	docs := make([]*event.Document, 0, len(records))
	for i, rec := range records {
		if rec.Title == "" || rec.Description == "" {
			return nil, fmt.Errorf("record %d: title and description are required", i)
		}
		category := event.Category(rec.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("record %d (%s): unknown category %q", i, rec.Title, rec.Category)
		}
		importance := event.Importance(rec.Importance)
		if !importance.Valid() {
			importance = event.ImportanceMedium
		}
		era := event.Era(rec.Era)
		if era == "" {
			if rec.Year < 0 {
				era = event.EraBCE
			} else {
				era = event.EraCE
			}
		}
		docs = append(docs, &event.Document{
			Title:         rec.Title,
			TitleAr:       rec.TitleAr,
			TitleFr:       rec.TitleFr,
			Description:   rec.Description,
			DescriptionAr: rec.DescriptionAr,
			DescriptionFr: rec.DescriptionFr,
			Year:          rec.Year,
			Month:         rec.Month,
			Day:           rec.Day,
			Era:           era,
			Category:      category,
			Country:       rec.Country,
			CountryCode:   rec.CountryCode,
			ImageURL:      rec.ImageURL,
			Importance:    importance,
			Sources:       rec.Sources,
			Tags:          rec.Tags,
		})
	}
	return docs, nil
}

func loadArticles(path string) ([]*article.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []seedArticle
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	docs := make([]*article.Document, 0, len(records))
	for i, rec := range records {
		if rec.Slug == "" || rec.Title == "" {
			return nil, fmt.Errorf("record %d: slug and title are required", i)
		}
		doc := &article.Document{
			Slug:          rec.Slug,
			Title:         rec.Title,
			TitleAr:       rec.TitleAr,
			TitleFr:       rec.TitleFr,
			Excerpt:       rec.Excerpt,
			ExcerptAr:     rec.ExcerptAr,
			ExcerptFr:     rec.ExcerptFr,
			Content:       rec.Content,
			ContentAr:     rec.ContentAr,
			ContentFr:     rec.ContentFr,
			CoverImageURL: rec.CoverImageURL,
			Author:        rec.Author,
			Category:      rec.Category,
			Tags:          rec.Tags,
			ReadingTime:   rec.ReadingTime,
			Published:     rec.Published,
		}
		if rec.PublishedAt != "" {
			t, err := time.Parse(time.RFC3339, rec.PublishedAt)
			if err != nil {
				return nil, fmt.Errorf("record %d (%s): invalid publishedAt: %w", i, rec.Slug, err)
			}
			doc.PublishedAt = t
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
