// Package search implements the event aggregation and ranking service: it
// merges curated store results with externally-sourced events, deduplicates,
// re-sorts and paginates them for the read endpoints.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"
	"unicode"

	"eras-api/internal/event"
	"eras-api/internal/wiki"
)

const (
	// MaxRandomCount is the internal hard cap on a random sample,
	// regardless of what the request asked for.
	MaxRandomCount = 12

	// FeaturedLimit is how many critical events the featured surface shows.
	FeaturedLimit = 6

	// DefaultLanguage is the base content language.
	DefaultLanguage = "en"

	// Provenance values reported in response metadata.
	SourceStore    = "database"
	SourceCombined = "database+wikipedia"
)

// ErrExternalID marks a detail lookup for an externally-namespaced id, which
// has no stored row by construction. Distinct from a true store miss.
var ErrExternalID = errors.New("external events have no stored detail")

// Store is the event store accessor surface the service reads through.
type Store interface {
	Count(ctx context.Context, f event.Filter) (int64, error)
	Search(ctx context.Context, f event.Filter, sort event.SortSpec, skip, limit int64) ([]event.Document, error)
	ByMonthDay(ctx context.Context, month, day int) ([]event.Document, error)
	CountByCategory(ctx context.Context, category event.Category) (int64, error)
	Page(ctx context.Context, category event.Category, skip, limit int64) ([]event.Document, error)
	ByID(ctx context.Context, id string) (*event.Document, error)
	Featured(ctx context.Context, limit int64) ([]event.Document, error)
}

// External is the external content fetcher surface. Implementations absorb
// upstream failures into empty results; the service tolerates an error here
// anyway and degrades to store-only data.
type External interface {
	OnThisDay(ctx context.Context, month, day int, lang string) ([]event.Event, error)
	SearchByKeyword(ctx context.Context, query, lang string, limit int) ([]event.Event, error)
}

type Params struct {
	Query       string
	Year        *int
	Month       int
	Day         int
	Category    event.Category
	CountryCode string
	Page        int
	Limit       int
	SortBy      event.SortKey
	Descending  bool
}

type Result struct {
	Events     []event.Event
	Total      int64
	Page       int
	TotalPages int
	Source     string
}

type OnThisDayResult struct {
	Month  int
	Day    int
	Events []event.Event
	Source string
}

type Service struct {
	store    Store
	external External
	logger   *log.Logger

	// randOffset is swappable so sampling is deterministic in tests.
	randOffset func(max int64) int64
	shuffle    func(n int, swap func(i, j int))
}

func NewService(store Store, external External, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Service{
		store:      store,
		external:   external,
		logger:     logger,
		randOffset: rng.Int63n,
		shuffle:    rng.Shuffle,
	}
}

// Search runs the keyword/year search: a filtered, sorted store page,
// conditionally enriched with external keyword results on the first page,
// merged, re-sorted and truncated to the requested limit.
func (s *Service) Search(ctx context.Context, p Params) (*Result, error) {
	filter := event.Filter{
		Year:        p.Year,
		Month:       p.Month,
		Day:         p.Day,
		Category:    p.Category,
		CountryCode: p.CountryCode,
		Query:       p.Query,
	}
	spec := event.SortSpec{By: p.SortBy, Descending: p.Descending}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	skip := int64(p.Page-1) * int64(p.Limit)
	docs, err := s.store.Search(ctx, filter, spec, skip, int64(p.Limit))
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	events := toEvents(docs)

	// Enrichment is first-page only, and only when there is something to
	// search the external provider for.
	if p.Page == 1 && (p.Query != "" || p.Year != nil) {
		query := composeQuery(p.Query, p.Year)
		external, err := s.external.SearchByKeyword(ctx, query, detectLanguage(p.Query), p.Limit)
		if err != nil {
			s.logger.Printf("search: external enrichment failed: %v", err)
		} else {
			events = append(events, external...)
		}
	}

	merged := int64(len(events))
	sortEvents(events, spec)
	if len(events) > p.Limit {
		events = events[:p.Limit]
	}

	if merged > total {
		total = merged
	}
	return &Result{
		Events:     events,
		Total:      total,
		Page:       p.Page,
		TotalPages: totalPages(total, p.Limit),
		Source:     provenance(events),
	}, nil
}

// OnThisDay combines the store's month/day matches with the external feed,
// dropping external entries whose year the store already covers. The store
// query and the external fetch are independent and run concurrently.
func (s *Service) OnThisDay(ctx context.Context, month, day int, lang string) (*OnThisDayResult, error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	var (
		docs     []event.Document
		storeErr error
		external []event.Event
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		docs, storeErr = s.store.ByMonthDay(ctx, month, day)
	}()
	go func() {
		defer wg.Done()
		ext, err := s.external.OnThisDay(ctx, month, day, lang)
		if err != nil {
			s.logger.Printf("on-this-day: external fetch failed: %v", err)
			return
		}
		external = ext
	}()
	wg.Wait()

	if storeErr != nil {
		return nil, fmt.Errorf("load events for %d/%d: %w", month, day, storeErr)
	}

	events := toEvents(docs)
	storeYears := make(map[int]struct{}, len(events))
	for _, e := range events {
		storeYears[e.Date.Year] = struct{}{}
	}
	for _, e := range external {
		if _, seen := storeYears[e.Date.Year]; seen {
			continue
		}
		events = append(events, e)
	}

	sortEvents(events, event.SortSpec{By: event.SortByDate, Descending: true})

	return &OnThisDayResult{
		Month:  month,
		Day:    day,
		Events: events,
		Source: SourceCombined,
	}, nil
}

// Random returns a uniform sample of the category-filtered population. The
// sample is addressed by a random offset into a stable ordering; when the
// offset leaves fewer than count rows before the end, the remainder wraps
// around to the head. A final shuffle hides the tail+head seam.
func (s *Service) Random(ctx context.Context, count int, category event.Category) (*Result, error) {
	if count > MaxRandomCount {
		count = MaxRandomCount
	}

	population, err := s.store.CountByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	if population == 0 {
		return &Result{Events: []event.Event{}, Total: 0, Page: 1, TotalPages: 1, Source: SourceStore}, nil
	}
	if int64(count) > population {
		count = int(population)
	}

	offset := s.randOffset(population)

	var docs []event.Document
	if offset+int64(count) <= population {
		docs, err = s.store.Page(ctx, category, offset, int64(count))
		if err != nil {
			return nil, fmt.Errorf("sample events: %w", err)
		}
	} else {
		tailLen := population - offset
		tail, err := s.store.Page(ctx, category, offset, tailLen)
		if err != nil {
			return nil, fmt.Errorf("sample events: %w", err)
		}
		head, err := s.store.Page(ctx, category, 0, int64(count)-tailLen)
		if err != nil {
			return nil, fmt.Errorf("sample events: %w", err)
		}
		docs = append(tail, head...)
	}

	events := toEvents(docs)
	s.shuffle(len(events), func(i, j int) {
		events[i], events[j] = events[j], events[i]
	})

	// Total reflects the filtered population, not the sample size.
	return &Result{Events: events, Total: population, Page: 1, TotalPages: 1, Source: SourceStore}, nil
}

// Featured returns the most recently updated critical events.
func (s *Service) Featured(ctx context.Context) (*Result, error) {
	docs, err := s.store.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("load featured events: %w", err)
	}
	events := toEvents(docs)
	return &Result{
		Events:     events,
		Total:      int64(len(events)),
		Page:       1,
		TotalPages: 1,
		Source:     SourceStore,
	}, nil
}

// EventByID resolves a store event by id. Ids from the external namespace
// are rejected up front: they never reach the store.
func (s *Service) EventByID(ctx context.Context, id string) (*event.Event, error) {
	if wiki.IsExternalID(id) {
		return nil, ErrExternalID
	}
	doc, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e := doc.ToEvent()
	return &e, nil
}

func toEvents(docs []event.Document) []event.Event {
	events := make([]event.Event, 0, len(docs))
	for i := range docs {
		events = append(events, docs[i].ToEvent())
	}
	return events
}

// sortEvents re-sorts a merged store+external sequence. The sort is stable:
// ties keep their store-then-external insertion order.
func sortEvents(events []event.Event, spec event.SortSpec) {
	key := func(e event.Event) int {
		if spec.By == event.SortByImportance {
			return e.Importance.Rank()
		}
		return e.Date.Year
	}
	sort.SliceStable(events, func(i, j int) bool {
		if spec.Descending {
			return key(events[i]) > key(events[j])
		}
		return key(events[i]) < key(events[j])
	})
}

func composeQuery(query string, year *int) string {
	switch {
	case query != "" && year != nil:
		return query + " " + strconv.Itoa(*year)
	case year != nil:
		return strconv.Itoa(*year)
	default:
		return query
	}
}

// detectLanguage picks the external search language from the query's script:
// any rune in the Arabic block selects Arabic, everything else stays on the
// base language.
func detectLanguage(query string) string {
	for _, r := range query {
		if unicode.Is(unicode.Arabic, r) {
			return "ar"
		}
	}
	return DefaultLanguage
}

func provenance(events []event.Event) string {
	for _, e := range events {
		if wiki.IsExternalID(e.ID) {
			return SourceCombined
		}
	}
	return SourceStore
}

func totalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		return 1
	}
	return pages
}
