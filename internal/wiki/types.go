package wiki

// Payload shapes for the three upstream surfaces we consume: the
// "on this day" feed, the title search endpoint, and page summaries/extracts.

type FeedResponse struct {
	Selected []FeedEvent `json:"selected"`
	Events   []FeedEvent `json:"events"`
	Births   []FeedEvent `json:"births"`
	Deaths   []FeedEvent `json:"deaths"`
}

type FeedEvent struct {
	Text  string     `json:"text"`
	Year  int        `json:"year"`
	Pages []FeedPage `json:"pages"`
}

type FeedPage struct {
	Type          string      `json:"type"`
	Title         string      `json:"title"`
	DisplayTitle  string      `json:"displaytitle"`
	Description   string      `json:"description"`
	Extract       string      `json:"extract"`
	Thumbnail     *Image      `json:"thumbnail,omitempty"`
	OriginalImage *Image      `json:"originalimage,omitempty"`
	ContentURLs   ContentURLs `json:"content_urls"`
}

type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ContentURLs struct {
	Desktop PageURL `json:"desktop"`
	Mobile  PageURL `json:"mobile"`
}

type PageURL struct {
	Page string `json:"page"`
}

type SearchResponse struct {
	Pages []SearchPage `json:"pages"`
}

type SearchPage struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Description string `json:"description"`
}

type Summary struct {
	Title         string      `json:"title"`
	DisplayTitle  string      `json:"displaytitle"`
	Description   string      `json:"description"`
	Extract       string      `json:"extract"`
	Thumbnail     *Image      `json:"thumbnail,omitempty"`
	OriginalImage *Image      `json:"originalimage,omitempty"`
	ContentURLs   ContentURLs `json:"content_urls"`
}

// PageExtract is the action-API shape used for long plain-text previews.
type extractResponse struct {
	Query struct {
		Pages []PageExtract `json:"pages"`
	} `json:"query"`
}

type PageExtract struct {
	Title    string `json:"title"`
	Extract  string `json:"extract"`
	Missing  bool   `json:"missing"`
	Original *Image `json:"original,omitempty"`
}
