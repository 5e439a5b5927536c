package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"eras-api/internal/article"
	"eras-api/internal/event"
	"eras-api/internal/search"
	"eras-api/internal/wiki"
)

type mockSearchService struct {
	mock.Mock
}

func (m *mockSearchService) Search(ctx context.Context, p search.Params) (*search.Result, error) {
	args := m.Called(ctx, p)
	if r := args.Get(0); r != nil {
		return r.(*search.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSearchService) OnThisDay(ctx context.Context, month, day int, lang string) (*search.OnThisDayResult, error) {
	args := m.Called(ctx, month, day, lang)
	if r := args.Get(0); r != nil {
		return r.(*search.OnThisDayResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSearchService) Random(ctx context.Context, count int, category event.Category) (*search.Result, error) {
	args := m.Called(ctx, count, category)
	if r := args.Get(0); r != nil {
		return r.(*search.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSearchService) Featured(ctx context.Context) (*search.Result, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*search.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSearchService) EventByID(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if e := args.Get(0); e != nil {
		return e.(*event.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPreviewer struct {
	mock.Mock
}

func (m *mockPreviewer) Preview(ctx context.Context, id string) (*wiki.Preview, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*wiki.Preview), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockArticleRepo struct {
	mock.Mock
}

func (m *mockArticleRepo) CountPublished(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockArticleRepo) ListPublished(ctx context.Context, skip, limit int64) ([]article.Document, error) {
	args := m.Called(ctx, skip, limit)
	return args.Get(0).([]article.Document), args.Error(1)
}

func (m *mockArticleRepo) BySlug(ctx context.Context, slug string) (*article.Document, error) {
	args := m.Called(ctx, slug)
	if d := args.Get(0); d != nil {
		return d.(*article.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockArticleRepo) BulkUpsert(ctx context.Context, docs []*article.Document) (int, error) {
	args := m.Called(ctx, docs)
	return args.Int(0), args.Error(1)
}

type ServerSuite struct {
	suite.Suite

	search    *mockSearchService
	previewer *mockPreviewer
	articles  *mockArticleRepo

	srv *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.search = &mockSearchService{}
	s.previewer = &mockPreviewer{}
	s.articles = &mockArticleRepo{}

	s.srv = NewServer(s.search, s.previewer, s.articles, "https://eratracker.com", log.New(io.Discard, "", 0))
}

// do runs a request through the full router and decodes the envelope.
func (s *ServerSuite) do(method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)

	var envelope map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func emptyResult(source string) *search.Result {
	return &search.Result{Events: []event.Event{}, Total: 0, Page: 1, TotalPages: 1, Source: source}
}

func (s *ServerSuite) TestSearch_OK() {
	s.search.On("Search", mock.Anything, mock.MatchedBy(func(p search.Params) bool {
		return p.Query == "moon" && p.Page == 1 && p.Limit == 10 &&
			p.SortBy == event.SortByDate && p.Descending
	})).Return(&search.Result{
		Events:     []event.Event{{ID: "e1", Title: "Moon Landing"}},
		Total:      1,
		Page:       1,
		TotalPages: 1,
		Source:     search.SourceCombined,
	}, nil).Once()

	rec, envelope := s.do(http.MethodPost, "/api/search", `{"query":"moon"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, envelope["success"])

	data := envelope["data"].(map[string]any)
	s.Equal(float64(1), data["total"])
	s.Len(data["events"], 1)

	meta := envelope["meta"].(map[string]any)
	s.Equal("database+wikipedia", meta["source"])
	s.NotEmpty(meta["timestamp"])
}

func (s *ServerSuite) TestSearch_ValidationDetails() {
	rec, envelope := s.do(http.MethodPost, "/api/search", `{"year":3000,"limit":99,"sortBy":"relevance"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(false, envelope["success"])
	s.Equal("Validation error", envelope["error"])

	details := envelope["details"].([]any)
	s.Len(details, 3)
	fields := map[string]bool{}
	for _, d := range details {
		fields[d.(map[string]any)["field"].(string)] = true
	}
	s.True(fields["year"])
	s.True(fields["limit"])
	s.True(fields["sortBy"])

	s.search.AssertNotCalled(s.T(), "Search", mock.Anything, mock.Anything)
}

func (s *ServerSuite) TestSearch_MalformedBody() {
	rec, envelope := s.do(http.MethodPost, "/api/search", `{"query":`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Validation error", envelope["error"])
}

func (s *ServerSuite) TestRandom_DefaultsAndCategory() {
	s.search.On("Random", mock.Anything, 5, event.CategoryWar).
		Return(emptyResult(search.SourceStore), nil).Once()

	rec, _ := s.do(http.MethodGet, "/api/random?category=war", "")

	s.Equal(http.StatusOK, rec.Code)
	s.search.AssertExpectations(s.T())
}

func (s *ServerSuite) TestRandom_CountOutOfRange() {
	rec, envelope := s.do(http.MethodGet, "/api/random?count=21", "")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Validation error", envelope["error"])
}

func (s *ServerSuite) TestOnThisDay_OK() {
	s.search.On("OnThisDay", mock.Anything, 7, 20, "en").
		Return(&search.OnThisDayResult{
			Month:  7,
			Day:    20,
			Events: []event.Event{{ID: "e1"}},
			Source: search.SourceCombined,
		}, nil).Once()

	rec, envelope := s.do(http.MethodGet, "/api/on-this-day?month=7&day=20", "")

	s.Equal(http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]any)
	s.Equal(float64(1), data["total"])
	date := data["date"].(map[string]any)
	s.Equal(float64(7), date["month"])
	s.Equal(float64(20), date["day"])
}

func (s *ServerSuite) TestOnThisDay_MissingParams() {
	rec, envelope := s.do(http.MethodGet, "/api/on-this-day", "")

	s.Equal(http.StatusBadRequest, rec.Code)
	details := envelope["details"].([]any)
	s.Len(details, 2)
}

func (s *ServerSuite) TestEvent_ExternalID() {
	s.search.On("EventByID", mock.Anything, "wiki-en-Apollo_11").
		Return(nil, search.ErrExternalID).Once()

	rec, envelope := s.do(http.MethodGet, "/api/event/wiki-en-Apollo_11", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("External events have no stored detail", envelope["error"])
}

func (s *ServerSuite) TestEvent_NotFound() {
	s.search.On("EventByID", mock.Anything, "missing").
		Return(nil, event.ErrNotFound).Once()

	rec, envelope := s.do(http.MethodGet, "/api/event/missing", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Event not found", envelope["error"])
}

func (s *ServerSuite) TestEvent_ServerError() {
	s.search.On("EventByID", mock.Anything, "boom").
		Return(nil, errors.New("mongo down")).Once()

	rec, envelope := s.do(http.MethodGet, "/api/event/boom", "")

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("Internal server error", envelope["error"])
}

func (s *ServerSuite) TestPreview_OK() {
	s.previewer.On("Preview", mock.Anything, "wiki-en-Apollo_11").
		Return(&wiki.Preview{Title: "Apollo 11", PreviewContent: "..."}, nil).Once()

	rec, envelope := s.do(http.MethodGet, "/api/event/wiki/preview/wiki-en-Apollo_11", "")

	s.Equal(http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]any)
	s.Equal("Apollo 11", data["title"])
}

func (s *ServerSuite) TestPreview_RejectsStoreID() {
	rec, _ := s.do(http.MethodGet, "/api/event/wiki/preview/stored-id", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.previewer.AssertNotCalled(s.T(), "Preview", mock.Anything, mock.Anything)
}

func (s *ServerSuite) TestPreview_UpstreamFailure() {
	s.previewer.On("Preview", mock.Anything, "wiki-en-Apollo_11").
		Return(nil, errors.New("upstream 500")).Once()

	rec, envelope := s.do(http.MethodGet, "/api/event/wiki/preview/wiki-en-Apollo_11", "")

	s.Equal(http.StatusBadGateway, rec.Code)
	s.Equal("Failed to load preview", envelope["error"])
}

func (s *ServerSuite) TestArticles_List() {
	s.articles.On("CountPublished", mock.Anything).Return(int64(12), nil).Once()
	s.articles.On("ListPublished", mock.Anything, int64(10), int64(10)).
		Return([]article.Document{{ID: "a1", Slug: "first", Title: "First"}}, nil).Once()

	rec, envelope := s.do(http.MethodGet, "/api/articles?page=2", "")

	s.Equal(http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]any)
	s.Equal(float64(12), data["total"])
	s.Equal(float64(2), data["page"])
	s.Equal(float64(2), data["totalPages"])
}

func (s *ServerSuite) TestArticleBySlug_NotFound() {
	s.articles.On("BySlug", mock.Anything, "missing").
		Return(nil, article.ErrNotFound).Once()

	rec, envelope := s.do(http.MethodGet, "/api/articles/missing", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Article not found", envelope["error"])
}

func (s *ServerSuite) TestHealth() {
	rec, envelope := s.do(http.MethodGet, "/health", "")

	s.Equal(http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]any)
	s.Equal("ok", data["status"])
}

func (s *ServerSuite) TestUnknownRoute() {
	rec, envelope := s.do(http.MethodGet, "/api/nope/nothing", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Endpoint not found", envelope["error"])
}

func (s *ServerSuite) TestCORSHeadersAndPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/featured", nil)
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("https://eratracker.com", rec.Header().Get("Access-Control-Allow-Origin"))
	s.search.AssertNotCalled(s.T(), "Featured", mock.Anything)
}
