package article

import "time"

type Author struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	AvatarURL string `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Bio       string `bson:"bio,omitempty" json:"bio,omitempty"`
}

// Document is the stored representation of a CMS article. Localized fields
// follow the same convention as events: empty means "not translated".
type Document struct {
	ID            string    `bson:"_id,omitempty"`
	Slug          string    `bson:"slug"`
	Title         string    `bson:"title"`
	TitleAr       string    `bson:"titleAr,omitempty"`
	TitleFr       string    `bson:"titleFr,omitempty"`
	Excerpt       string    `bson:"excerpt"`
	ExcerptAr     string    `bson:"excerptAr,omitempty"`
	ExcerptFr     string    `bson:"excerptFr,omitempty"`
	Content       string    `bson:"content"`
	ContentAr     string    `bson:"contentAr,omitempty"`
	ContentFr     string    `bson:"contentFr,omitempty"`
	CoverImageURL string    `bson:"coverImageUrl,omitempty"`
	Author        Author    `bson:"author"`
	Category      string    `bson:"category,omitempty"`
	Tags          []string  `bson:"tags,omitempty"`
	ReadingTime   int       `bson:"readingTime,omitempty"`
	Published     bool      `bson:"published"`
	PublishedAt   time.Time `bson:"publishedAt,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

// Article is the shape served to clients, localized fallbacks applied.
type Article struct {
	ID            string   `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	TitleAr       string   `json:"titleAr"`
	TitleFr       string   `json:"titleFr"`
	Excerpt       string   `json:"excerpt"`
	ExcerptAr     string   `json:"excerptAr"`
	ExcerptFr     string   `json:"excerptFr"`
	Content       string   `json:"content"`
	ContentAr     string   `json:"contentAr"`
	ContentFr     string   `json:"contentFr"`
	CoverImageURL string   `json:"coverImageUrl,omitempty"`
	Author        Author   `json:"author"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags"`
	ReadingTime   int      `json:"readingTime"`
	PublishedAt   string   `json:"publishedAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// ToArticle applies the localized fallback before an article leaves the
// persistence boundary. An unset publish timestamp falls back to createdAt.
func (d *Document) ToArticle() Article {
	publishedAt := d.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = d.CreatedAt
	}
	a := Article{
		ID:            d.ID,
		Slug:          d.Slug,
		Title:         d.Title,
		TitleAr:       fallback(d.TitleAr, d.Title),
		TitleFr:       fallback(d.TitleFr, d.Title),
		Excerpt:       d.Excerpt,
		ExcerptAr:     fallback(d.ExcerptAr, d.Excerpt),
		ExcerptFr:     fallback(d.ExcerptFr, d.Excerpt),
		Content:       d.Content,
		ContentAr:     fallback(d.ContentAr, d.Content),
		ContentFr:     fallback(d.ContentFr, d.Content),
		CoverImageURL: d.CoverImageURL,
		Author:        d.Author,
		Category:      d.Category,
		Tags:          d.Tags,
		ReadingTime:   d.ReadingTime,
		PublishedAt:   publishedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a
}

func fallback(localized, base string) string {
	if localized != "" {
		return localized
	}
	return base
}
