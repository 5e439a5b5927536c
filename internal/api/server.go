package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eras-api/internal/article"
	"eras-api/internal/event"
	"eras-api/internal/metrics"
	"eras-api/internal/search"
	"eras-api/internal/wiki"
)

// SearchService is the aggregation service surface the handlers call.
type SearchService interface {
	Search(ctx context.Context, p search.Params) (*search.Result, error)
	OnThisDay(ctx context.Context, month, day int, lang string) (*search.OnThisDayResult, error)
	Random(ctx context.Context, count int, category event.Category) (*search.Result, error)
	Featured(ctx context.Context) (*search.Result, error)
	EventByID(ctx context.Context, id string) (*event.Event, error)
}

// Previewer resolves external-event preview content.
type Previewer interface {
	Preview(ctx context.Context, id string) (*wiki.Preview, error)
}

type Server struct {
	search     SearchService
	previewer  Previewer
	articles   article.Repository
	corsOrigin string
	logger     *log.Logger
	router     *mux.Router
}

func NewServer(searchSvc SearchService, previewer Previewer, articles article.Repository, corsOrigin string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		search:     searchSvc,
		previewer:  previewer,
		articles:   articles,
		corsOrigin: corsOrigin,
		logger:     logger,
		router:     mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(s.cors)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", s.instrument("search", s.handleSearch)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/random", s.instrument("random", s.handleRandom)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/featured", s.instrument("featured", s.handleFeatured)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/on-this-day", s.instrument("on-this-day", s.handleOnThisDay)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/event/wiki/preview/{id}", s.instrument("preview", s.handlePreview)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/event/{id}", s.instrument("event", s.handleEvent)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/articles", s.instrument("articles", s.handleArticles)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/articles/{slug}", s.instrument("article", s.handleArticleBySlug)).Methods(http.MethodGet, http.MethodOptions)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Endpoint not found", s.logger)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequests.WithLabelValues(route).Inc()
		h(w, r)
	}
}

type searchData struct {
	Events     []event.Event `json:"events"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

type dayRef struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

type onThisDayData struct {
	Date   dayRef        `json:"date"`
	Events []event.Event `json:"events"`
	Total  int           `json:"total"`
}

type articlesData struct {
	Articles   []article.Article `json:"articles"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := codec.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, []FieldError{{Field: "body", Message: "invalid JSON"}}, s.logger)
		return
	}
	params, errs := req.validate()
	if len(errs) > 0 {
		respondValidation(w, errs, s.logger)
		return
	}

	result, err := s.search.Search(r.Context(), params)
	if err != nil {
		s.serverError(w, "search failed", err)
		return
	}

	respondOK(w, searchData{
		Events:     result.Events,
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}, result.Source, s.logger)
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	count, category, errs := parseRandomParams(r.URL.Query())
	if len(errs) > 0 {
		respondValidation(w, errs, s.logger)
		return
	}

	result, err := s.search.Random(r.Context(), count, category)
	if err != nil {
		s.serverError(w, "random sample failed", err)
		return
	}

	respondOK(w, searchData{
		Events:     result.Events,
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}, result.Source, s.logger)
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	result, err := s.search.Featured(r.Context())
	if err != nil {
		s.serverError(w, "featured lookup failed", err)
		return
	}

	respondOK(w, searchData{
		Events:     result.Events,
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}, result.Source, s.logger)
}

func (s *Server) handleOnThisDay(w http.ResponseWriter, r *http.Request) {
	month, day, errs := parseOnThisDayParams(r.URL.Query())
	if len(errs) > 0 {
		respondValidation(w, errs, s.logger)
		return
	}

	result, err := s.search.OnThisDay(r.Context(), month, day, search.DefaultLanguage)
	if err != nil {
		s.serverError(w, "on-this-day lookup failed", err)
		return
	}

	respondOK(w, onThisDayData{
		Date:   dayRef{Month: result.Month, Day: result.Day},
		Events: result.Events,
		Total:  len(result.Events),
	}, result.Source, s.logger)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	e, err := s.search.EventByID(r.Context(), id)
	if errors.Is(err, search.ErrExternalID) {
		respondError(w, http.StatusNotFound, "External events have no stored detail", s.logger)
		return
	}
	if errors.Is(err, event.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Event not found", s.logger)
		return
	}
	if err != nil {
		s.serverError(w, "event lookup failed", err)
		return
	}

	respondOK(w, e, "", s.logger)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !wiki.IsExternalID(id) {
		respondError(w, http.StatusNotFound, "Not an external event id", s.logger)
		return
	}

	preview, err := s.previewer.Preview(r.Context(), id)
	if errors.Is(err, wiki.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Preview not found", s.logger)
		return
	}
	if err != nil {
		s.logger.Printf("preview fetch failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to load preview", s.logger)
		return
	}

	respondOK(w, preview, "", s.logger)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	page, limit, errs := parsePageParams(r.URL.Query())
	if len(errs) > 0 {
		respondValidation(w, errs, s.logger)
		return
	}

	total, err := s.articles.CountPublished(r.Context())
	if err != nil {
		s.serverError(w, "article count failed", err)
		return
	}

	docs, err := s.articles.ListPublished(r.Context(), int64(page-1)*int64(limit), int64(limit))
	if err != nil {
		s.serverError(w, "article list failed", err)
		return
	}

	articles := make([]article.Article, 0, len(docs))
	for i := range docs {
		articles = append(articles, docs[i].ToArticle())
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	respondOK(w, articlesData{
		Articles:   articles,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, "", s.logger)
}

func (s *Server) handleArticleBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	doc, err := s.articles.BySlug(r.Context(), slug)
	if errors.Is(err, article.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Article not found", s.logger)
		return
	}
	if err != nil {
		s.serverError(w, "article lookup failed", err)
		return
	}

	respondOK(w, doc.ToArticle(), "", s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    map[string]string{"status": "ok"},
		Meta:    newMeta(""),
	}, s.logger)
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Printf("%s: %v", msg, err)
	respondError(w, http.StatusInternalServerError, "Internal server error", s.logger)
}
