package event_test

import (
	"context"
	"testing"

	"eras-api/internal/db"
	"eras-api/internal/event"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
)

type EventRepositorySuite struct {
	suite.Suite

	ctx    context.Context
	client *mongo.Client
	db     *mongo.Database

	repo event.Repository
}

func TestEventRepositorySuite(t *testing.T) {
	suite.Run(t, new(EventRepositorySuite))
}

func (s *EventRepositorySuite) SetupSuite() {
	s.ctx = context.Background()

	mongoURI := "mongodb://localhost:27017"
	mongoDBName := "test_erasdb"

	client, err := db.ConnectMongo(s.ctx, mongoURI)
	s.Require().NoError(err, "failed to connect to mongo")
	s.client = client

	s.db = client.Database(mongoDBName)

	repo, err := event.NewMongoRepository(s.db, nil)
	s.Require().NoError(err, "failed to create event repository")
	s.repo = repo
}

func (s *EventRepositorySuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
}

func (s *EventRepositorySuite) SetupTest() {
	// ensure a fresh DB before each test
	_ = s.db.Collection("events").Drop(s.ctx)
}

func (s *EventRepositorySuite) seed(docs ...*event.Document) {
	changed, err := s.repo.BulkUpsert(s.ctx, docs)
	s.Require().NoError(err)
	s.Require().Equal(len(docs), changed)
}

func doc(title string, year, month, day int, category event.Category, importance event.Importance) *event.Document {
	return &event.Document{
		Title:       title,
		Description: "Description of " + title,
		Year:        year,
		Month:       month,
		Day:         day,
		Category:    category,
		Importance:  importance,
	}
}

func (s *EventRepositorySuite) TestBulkUpsert_NaturalKey() {
	first := doc("Moon Landing", 1969, 7, 20, event.CategorySpace, event.ImportanceCritical)
	s.seed(first)
	s.Require().NotEmpty(first.ID, "insert should issue an id")
	s.Require().False(first.CreatedAt.IsZero())
	s.Equal(4, first.ImportanceRank)

	// Same title+year replaces the row and keeps the id and createdAt.
	second := doc("Moon Landing", 1969, 7, 20, event.CategorySpace, event.ImportanceCritical)
	second.Description = "Updated description"
	s.seed(second)

	s.Equal(first.ID, second.ID)
	s.Equal(first.CreatedAt, second.CreatedAt)

	count, err := s.repo.Count(s.ctx, event.Filter{})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	got, err := s.repo.ByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal("Updated description", got.Description)
}

func (s *EventRepositorySuite) TestSearch_QueryAcrossLocalizedFields() {
	arabic := doc("Founding of Baghdad", 762, 0, 0, event.CategoryCulture, event.ImportanceHigh)
	arabic.TitleAr = "تأسيس بغداد"
	s.seed(
		arabic,
		doc("Moon Landing", 1969, 7, 20, event.CategorySpace, event.ImportanceCritical),
	)

	// Case-insensitive match on the base title.
	got, err := s.repo.Search(s.ctx, event.Filter{Query: "moon"}, event.SortSpec{By: event.SortByDate}, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Moon Landing", got[0].Title)

	// Match on a localized title.
	got, err = s.repo.Search(s.ctx, event.Filter{Query: "بغداد"}, event.SortSpec{By: event.SortByDate}, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Founding of Baghdad", got[0].Title)

	// Regex metacharacters in the query are treated literally.
	got, err = s.repo.Search(s.ctx, event.Filter{Query: ".*"}, event.SortSpec{By: event.SortByDate}, 0, 10)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *EventRepositorySuite) TestSearch_ImportanceSortUsesRank() {
	s.seed(
		doc("Low", 1900, 0, 0, event.CategoryScience, event.ImportanceLow),
		doc("Critical", 1910, 0, 0, event.CategoryScience, event.ImportanceCritical),
		doc("Medium", 1920, 0, 0, event.CategoryScience, event.ImportanceMedium),
		doc("High", 1930, 0, 0, event.CategoryScience, event.ImportanceHigh),
	)

	got, err := s.repo.Search(s.ctx, event.Filter{}, event.SortSpec{By: event.SortByImportance, Descending: true}, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 4)
	s.Equal("Critical", got[0].Title)
	s.Equal("High", got[1].Title)
	s.Equal("Medium", got[2].Title)
	s.Equal("Low", got[3].Title)
}

func (s *EventRepositorySuite) TestSearch_YearFilterAndPaging() {
	year := 1969
	s.seed(
		doc("Moon Landing", 1969, 7, 20, event.CategorySpace, event.ImportanceCritical),
		doc("Woodstock", 1969, 8, 15, event.CategoryCulture, event.ImportanceMedium),
		doc("Berlin Wall Falls", 1989, 11, 9, event.CategoryPolitics, event.ImportanceCritical),
	)

	count, err := s.repo.Count(s.ctx, event.Filter{Year: &year})
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	page, err := s.repo.Search(s.ctx, event.Filter{Year: &year}, event.SortSpec{By: event.SortByDate}, 1, 1)
	s.Require().NoError(err)
	s.Len(page, 1)
}

func (s *EventRepositorySuite) TestByMonthDay() {
	s.seed(
		doc("Moon Landing", 1969, 7, 20, event.CategorySpace, event.ImportanceCritical),
		doc("Viking 1 Science Start", 1976, 7, 20, event.CategorySpace, event.ImportanceMedium),
		doc("Berlin Wall Falls", 1989, 11, 9, event.CategoryPolitics, event.ImportanceCritical),
	)

	got, err := s.repo.ByMonthDay(s.ctx, 7, 20)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	// Year-descending order.
	s.Equal("Viking 1 Science Start", got[0].Title)
	s.Equal("Moon Landing", got[1].Title)
}

func (s *EventRepositorySuite) TestPage_StableOrderForSampling() {
	s.seed(
		doc("A", 1901, 0, 0, event.CategoryScience, event.ImportanceLow),
		doc("B", 1902, 0, 0, event.CategoryScience, event.ImportanceLow),
		doc("C", 1903, 0, 0, event.CategoryWar, event.ImportanceLow),
		doc("D", 1904, 0, 0, event.CategoryScience, event.ImportanceLow),
	)

	count, err := s.repo.CountByCategory(s.ctx, event.CategoryScience)
	s.Require().NoError(err)
	s.Equal(int64(3), count)

	// Two pages over the same ordering partition the population.
	first, err := s.repo.Page(s.ctx, event.CategoryScience, 0, 2)
	s.Require().NoError(err)
	s.Require().Len(first, 2)

	second, err := s.repo.Page(s.ctx, event.CategoryScience, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(second, 1)

	seen := map[string]bool{}
	for _, d := range append(first, second...) {
		s.False(seen[d.ID], "offset pages must not overlap")
		seen[d.ID] = true
	}
}

func (s *EventRepositorySuite) TestFeatured() {
	s.seed(
		doc("Critical A", 1900, 0, 0, event.CategoryScience, event.ImportanceCritical),
		doc("High B", 1910, 0, 0, event.CategoryScience, event.ImportanceHigh),
		doc("Critical C", 1920, 0, 0, event.CategoryScience, event.ImportanceCritical),
	)

	got, err := s.repo.Featured(s.ctx, 6)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	for _, d := range got {
		s.Equal(event.ImportanceCritical, d.Importance)
	}
}

func (s *EventRepositorySuite) TestByID_NotFound() {
	_, err := s.repo.ByID(s.ctx, "no-such-id")
	s.ErrorIs(err, event.ErrNotFound)
}
