package wiki

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"eras-api/internal/event"
)

// Policy defaults for externally-sourced events. Named here so a policy
// change touches one place.
const (
	DefaultCategory  = event.CategoryCulture
	FeedImportance   = event.ImportanceMedium
	SearchImportance = event.ImportanceHigh

	// IDPrefix marks the external identity namespace. No store-issued id
	// ever starts with it.
	IDPrefix = "wiki-"

	SourceTitle = "Wikipedia"
	Attribution = "This content is excerpted from Wikipedia and is available under the CC BY-SA license. All rights belong to the Wikipedia authors."
)

var (
	tagPattern  = regexp.MustCompile(`<[^>]*>?`)
	yearPattern = regexp.MustCompile(`\b\d{3,4}\b`)
)

// StripMarkup removes HTML tags and unescapes the handful of entities that
// show up in upstream titles and excerpts.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, "")
	r := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return strings.TrimSpace(r.Replace(s))
}

// Slugify turns a page title into the underscore form Wikipedia uses in URLs
// and that we embed in external ids.
func Slugify(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
}

// ExternalID builds the composite identity for an externally-sourced event.
func ExternalID(lang, title string) string {
	return IDPrefix + lang + "-" + Slugify(title)
}

// IsExternalID reports whether an id belongs to the external namespace.
func IsExternalID(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}

// ParseExternalID splits an external id into its language and page title.
func ParseExternalID(id string) (lang, title string, ok bool) {
	rest, found := strings.CutPrefix(id, IDPrefix)
	if !found {
		return "", "", false
	}
	lang, slug, found := strings.Cut(rest, "-")
	if !found || lang == "" || slug == "" {
		return "", "", false
	}
	return lang, strings.ReplaceAll(slug, "_", " "), true
}

// InferYear scans the given texts in order for a 3-4 digit year token,
// falling back to the current year when none is found.
func InferYear(texts ...string) int {
	for _, t := range texts {
		if m := yearPattern.FindString(t); m != "" {
			if y, err := strconv.Atoi(m); err == nil {
				return y
			}
		}
	}
	return time.Now().Year()
}

// EventFromFeed maps one "on this day" feed entry onto the Event shape.
// The entry's primary topic page supplies the title, image and source link.
func EventFromFeed(fe FeedEvent, month, day int, lang string) event.Event {
	title := StripMarkup(fe.Text)
	topic := fe.Text
	var imageURL, sourceURL string
	sources := []event.Source{}

	if len(fe.Pages) > 0 {
		page := fe.Pages[0]
		topic = page.Title
		if t := StripMarkup(page.DisplayTitle); t != "" {
			title = t
		}
		if page.Thumbnail != nil {
			imageURL = page.Thumbnail.Source
		} else if page.OriginalImage != nil {
			imageURL = page.OriginalImage.Source
		}
		sourceURL = page.ContentURLs.Desktop.Page
		sources = append(sources, event.Source{Title: SourceTitle, URL: sourceURL})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	e := event.Event{
		ID:              ExternalID(lang, topic),
		Title:           title,
		Description:     StripMarkup(fe.Text),
		Date:            event.Date{Year: fe.Year, Month: month, Day: day, Era: eraForYear(fe.Year)},
		Category:        DefaultCategory,
		Importance:      FeedImportance,
		ImageURL:        imageURL,
		Sources:         sources,
		RelatedEventIDs: []string{},
		Tags:            []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return localizedCopy(e)
}

// EventFromSummary maps a keyword-search page summary onto the Event shape.
// The year is inferred from the matched title first, then the original query.
func EventFromSummary(s *Summary, query, lang string) event.Event {
	title := StripMarkup(s.DisplayTitle)
	if title == "" {
		title = StripMarkup(s.Title)
	}

	var imageURL string
	if s.Thumbnail != nil {
		imageURL = s.Thumbnail.Source
	} else if s.OriginalImage != nil {
		imageURL = s.OriginalImage.Source
	}

	year := InferYear(title, query)
	now := time.Now().UTC().Format(time.RFC3339)
	e := event.Event{
		ID:              ExternalID(lang, s.Title),
		Title:           title,
		Description:     StripMarkup(s.Extract),
		Date:            event.Date{Year: year, Era: eraForYear(year)},
		Category:        DefaultCategory,
		Importance:      SearchImportance,
		ImageURL:        imageURL,
		Sources:         []event.Source{{Title: SourceTitle, URL: s.ContentURLs.Desktop.Page}},
		RelatedEventIDs: []string{},
		Tags:            []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return localizedCopy(e)
}

// localizedCopy fills the localized variants with the base-language fields.
// External content arrives in a single language, so the fallback invariant
// is satisfied by construction.
func localizedCopy(e event.Event) event.Event {
	e.TitleAr = e.Title
	e.TitleFr = e.Title
	e.DescriptionAr = e.Description
	e.DescriptionFr = e.Description
	return e
}

func eraForYear(year int) event.Era {
	if year < 0 {
		return event.EraBCE
	}
	return event.EraCE
}
