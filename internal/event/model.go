package event

import (
	"time"
)

type Era string

const (
	EraBCE Era = "BCE"
	EraCE  Era = "CE"
)

type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

// Rank maps importance onto a sortable ordinal: critical > high > medium > low.
func (i Importance) Rank() int {
	switch i {
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	}
	return 0
}

func (i Importance) Valid() bool {
	return i.Rank() > 0
}

type Category string

const (
	CategoryScience         Category = "science"
	CategoryPolitics        Category = "politics"
	CategoryWar             Category = "war"
	CategoryCulture         Category = "culture"
	CategoryDiscovery       Category = "discovery"
	CategoryInvention       Category = "invention"
	CategoryNaturalDisaster Category = "natural_disaster"
	CategoryMedicine        Category = "medicine"
	CategorySpace           Category = "space"
	CategoryReligion        Category = "religion"
	CategoryEconomics       Category = "economics"
	CategorySports          Category = "sports"
	CategoryArt             Category = "art"
	CategoryLiterature      Category = "literature"
)

var categories = map[Category]struct{}{
	CategoryScience: {}, CategoryPolitics: {}, CategoryWar: {},
	CategoryCulture: {}, CategoryDiscovery: {}, CategoryInvention: {},
	CategoryNaturalDisaster: {}, CategoryMedicine: {}, CategorySpace: {},
	CategoryReligion: {}, CategoryEconomics: {}, CategorySports: {},
	CategoryArt: {}, CategoryLiterature: {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

type Source struct {
	Title         string `bson:"title" json:"title"`
	URL           string `bson:"url,omitempty" json:"url,omitempty"`
	Author        string `bson:"author,omitempty" json:"author,omitempty"`
	PublishedDate string `bson:"publishedDate,omitempty" json:"publishedDate,omitempty"`
}

// Document is the stored representation of a curated event.
// Empty localized variants mean "not translated"; the fallback to the base
// language happens in ToEvent, never at the storage layer.
type Document struct {
	ID            string     `bson:"_id,omitempty"`
	Title         string     `bson:"title"`
	TitleAr       string     `bson:"titleAr,omitempty"`
	TitleFr       string     `bson:"titleFr,omitempty"`
	Description   string     `bson:"description"`
	DescriptionAr string     `bson:"descriptionAr,omitempty"`
	DescriptionFr string     `bson:"descriptionFr,omitempty"`
	Year          int        `bson:"year"`
	Month         int        `bson:"month,omitempty"`
	Day           int        `bson:"day,omitempty"`
	Era           Era        `bson:"era,omitempty"`
	Category      Category   `bson:"category"`
	Country       string     `bson:"country,omitempty"`
	CountryCode   string     `bson:"countryCode,omitempty"`
	ImageURL      string     `bson:"imageUrl,omitempty"`
	Importance    Importance `bson:"importance"`
	// ImportanceRank is persisted so the store can sort by the ordinal
	// instead of the lexicographic value of Importance.
	ImportanceRank  int       `bson:"importanceRank"`
	Sources         []Source  `bson:"sources,omitempty"`
	RelatedEventIDs []string  `bson:"relatedEventIds,omitempty"`
	Tags            []string  `bson:"tags,omitempty"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

// Date is the temporal part of the wire shape. Month and day are optional.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
	Era   Era `json:"era"`
}

// Event is the shape served to clients. Localized fields are always
// populated: absent translations fall back to the base language.
type Event struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	TitleAr         string     `json:"titleAr"`
	TitleFr         string     `json:"titleFr"`
	Description     string     `json:"description"`
	DescriptionAr   string     `json:"descriptionAr"`
	DescriptionFr   string     `json:"descriptionFr"`
	Date            Date       `json:"date"`
	Category        Category   `json:"category"`
	Country         string     `json:"country,omitempty"`
	CountryCode     string     `json:"countryCode,omitempty"`
	ImageURL        string     `json:"imageUrl,omitempty"`
	Importance      Importance `json:"importance"`
	Sources         []Source   `json:"sources"`
	RelatedEventIDs []string   `json:"relatedEventIds"`
	Tags            []string   `json:"tags"`
	CreatedAt       string     `json:"createdAt"`
	UpdatedAt       string     `json:"updatedAt"`
}

// ToEvent maps a stored document onto the wire shape. It is the only place
// a document crosses the persistence boundary, so every default lives here:
// localized fields fall back to the base language, era derives from the year
// sign when unset, category and importance get their fallback values, and
// nil slices become empty ones.
func (d *Document) ToEvent() Event {
	e := Event{
		ID:              d.ID,
		Title:           d.Title,
		TitleAr:         fallback(d.TitleAr, d.Title),
		TitleFr:         fallback(d.TitleFr, d.Title),
		Description:     d.Description,
		DescriptionAr:   fallback(d.DescriptionAr, d.Description),
		DescriptionFr:   fallback(d.DescriptionFr, d.Description),
		Date:            Date{Year: d.Year, Month: d.Month, Day: d.Day, Era: d.Era},
		Category:        d.Category,
		Country:         d.Country,
		CountryCode:     d.CountryCode,
		ImageURL:        d.ImageURL,
		Importance:      d.Importance,
		Sources:         d.Sources,
		RelatedEventIDs: d.RelatedEventIDs,
		Tags:            d.Tags,
		CreatedAt:       d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       d.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if e.Date.Era == "" {
		if e.Date.Year < 0 {
			e.Date.Era = EraBCE
		} else {
			e.Date.Era = EraCE
		}
	}
	if !e.Category.Valid() {
		e.Category = CategoryCulture
	}
	if !e.Importance.Valid() {
		e.Importance = ImportanceMedium
	}
	if e.Sources == nil {
		e.Sources = []Source{}
	}
	if e.RelatedEventIDs == nil {
		e.RelatedEventIDs = []string{}
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e
}

func fallback(localized, base string) string {
	if localized != "" {
		return localized
	}
	return base
}
