package wiki

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"eras-api/internal/cache"
	"eras-api/internal/event"
	"eras-api/internal/metrics"
)

const (
	// CacheTTL bounds how long normalized external results are served
	// without a fresh upstream call.
	CacheTTL = 24 * time.Hour

	// PreviewSentences is the approximate length of the external preview
	// extract.
	PreviewSentences = 25
)

var codec = jsoniter.ConfigFastest

// upstream is the slice of Client the fetcher needs; tests substitute mocks.
type upstream interface {
	OnThisDay(ctx context.Context, month, day int, lang string) ([]FeedEvent, error)
	SearchTitles(ctx context.Context, query, lang string, limit int) ([]SearchPage, error)
	Summary(ctx context.Context, title, lang string) (*Summary, error)
	Extract(ctx context.Context, title, lang string, sentences int) (*PageExtract, error)
}

// Fetcher is the external content fetcher: it wraps the upstream client with
// the TTL cache and absorbs every upstream failure into an empty result, so
// callers never distinguish "no external content" from "fetch failed".
type Fetcher struct {
	client upstream
	cache  cache.Repository
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

func NewFetcher(client upstream, cacheRepo cache.Repository, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		client: client,
		cache:  cacheRepo,
		ttl:    CacheTTL,
		logger: logger,
		now:    time.Now,
	}
}

// OnThisDay returns the normalized "on this day" feed for a calendar day,
// served from the cache when a fresh row exists.
func (f *Fetcher) OnThisDay(ctx context.Context, month, day int, lang string) ([]event.Event, error) {
	key := cache.Key("on-this-day", strconv.Itoa(month), strconv.Itoa(day), lang)
	if events, ok := f.cached(ctx, "on-this-day", key); ok {
		return events, nil
	}

	feed, err := f.client.OnThisDay(ctx, month, day, lang)
	if err != nil {
		return f.absorb("on-this-day", err), nil
	}
	metrics.WikiFetches.WithLabelValues("on-this-day", "ok").Inc()

	events := make([]event.Event, 0, len(feed))
	for _, fe := range feed {
		events = append(events, EventFromFeed(fe, month, day, lang))
	}

	params := fmt.Sprintf(`{"month":%d,"day":%d,"lang":%q}`, month, day, lang)
	f.store(ctx, key, params, lang, events)
	return events, nil
}

// SearchByKeyword runs the two-phase keyword lookup: a title search, then
// concurrent per-title summary fetches. Individual summary failures are
// logged and skipped; a failed title search yields an empty result.
func (f *Fetcher) SearchByKeyword(ctx context.Context, query, lang string, limit int) ([]event.Event, error) {
	key := cache.Key("search", query, lang)
	if events, ok := f.cached(ctx, "search", key); ok {
		return limitEvents(events, limit), nil
	}

	pages, err := f.client.SearchTitles(ctx, query, lang, limit)
	if err != nil {
		return f.absorb("search", err), nil
	}
	metrics.WikiFetches.WithLabelValues("search", "ok").Inc()

	// Indexed slots keep upstream result order despite the fan-out.
	summaries := make([]*Summary, len(pages))
	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(i int, title string) {
			defer wg.Done()
			s, err := f.client.Summary(ctx, title, lang)
			if err != nil {
				f.logger.Printf("wiki: summary fetch failed for %q: %v", title, err)
				return
			}
			summaries[i] = s
		}(i, page.Title)
	}
	wg.Wait()

	events := make([]event.Event, 0, len(pages))
	for _, s := range summaries {
		if s == nil {
			continue
		}
		events = append(events, EventFromSummary(s, query, lang))
	}

	params := fmt.Sprintf(`{"query":%q,"lang":%q}`, query, lang)
	f.store(ctx, key, params, lang, events)
	return limitEvents(events, limit), nil
}

// Preview is the detail surface for externally-sourced events: a long
// plain-text extract plus image and canonical link. Unlike the list
// operations it has no required-data fallback, so failures propagate.
type Preview struct {
	Title          string `json:"title"`
	ImageURL       string `json:"imageUrl,omitempty"`
	PreviewContent string `json:"previewContent"`
	SourceURL      string `json:"sourceUrl"`
	Attribution    string `json:"attribution"`
}

func (f *Fetcher) Preview(ctx context.Context, id string) (*Preview, error) {
	lang, title, ok := ParseExternalID(id)
	if !ok {
		return nil, ErrNotFound
	}

	extract, err := f.client.Extract(ctx, title, lang, PreviewSentences)
	if err != nil {
		metrics.WikiFetches.WithLabelValues("preview", "error").Inc()
		return nil, err
	}
	metrics.WikiFetches.WithLabelValues("preview", "ok").Inc()

	p := &Preview{
		Title:          extract.Title,
		PreviewContent: extract.Extract,
		SourceURL:      fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", lang, Slugify(extract.Title)),
		Attribution:    Attribution,
	}
	if extract.Original != nil {
		p.ImageURL = extract.Original.Source
	}
	return p, nil
}

// cached returns the decoded event list when a fresh row exists for key.
// Cache infrastructure errors count as misses.
func (f *Fetcher) cached(ctx context.Context, op, key string) ([]event.Event, bool) {
	entry, err := f.cache.Get(ctx, key)
	if err != nil {
		f.logger.Printf("wiki: cache lookup failed for %s: %v", op, err)
		metrics.CacheLookups.WithLabelValues(op, "error").Inc()
		return nil, false
	}
	if entry == nil || !entry.Fresh(f.now()) {
		metrics.CacheLookups.WithLabelValues(op, "miss").Inc()
		return nil, false
	}

	var events []event.Event
	if err := codec.UnmarshalFromString(entry.Results, &events); err != nil {
		f.logger.Printf("wiki: corrupt cache row for %s: %v", op, err)
		metrics.CacheLookups.WithLabelValues(op, "error").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues(op, "hit").Inc()
	return events, true
}

func (f *Fetcher) store(ctx context.Context, key, params, lang string, events []event.Event) {
	payload, err := codec.MarshalToString(events)
	if err != nil {
		f.logger.Printf("wiki: failed to serialize cache payload: %v", err)
		return
	}
	entry := &cache.Entry{
		QueryHash:   key,
		QueryParams: params,
		Language:    lang,
		Results:     payload,
		ExpiresAt:   f.now().Add(f.ttl),
		CreatedAt:   f.now().UTC(),
	}
	if err := f.cache.Put(ctx, entry); err != nil {
		f.logger.Printf("wiki: cache write failed: %v", err)
	}
}

// absorb logs an upstream failure and converts it into the empty result the
// aggregation service expects. A clean 404 is not a failure.
func (f *Fetcher) absorb(op string, err error) []event.Event {
	if errors.Is(err, ErrNotFound) {
		metrics.WikiFetches.WithLabelValues(op, "not_found").Inc()
		return []event.Event{}
	}
	f.logger.Printf("wiki: %s fetch failed: %v", op, err)
	metrics.WikiFetches.WithLabelValues(op, "error").Inc()
	return []event.Event{}
}

func limitEvents(events []event.Event, limit int) []event.Event {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}
