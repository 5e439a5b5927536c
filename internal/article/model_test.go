package article

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToArticle_LocalizedFallback(t *testing.T) {
	d := Document{
		ID:      "a1",
		Slug:    "golden-age",
		Title:   "Reading the Abbasid Golden Age",
		TitleAr: "قراءة في العصر الذهبي العباسي",
		Excerpt: "How a century of translation preserved the ancient world.",
		Content: "Full text.",
	}

	a := d.ToArticle()

	assert.Equal(t, "قراءة في العصر الذهبي العباسي", a.TitleAr)
	assert.Equal(t, d.Title, a.TitleFr)
	assert.Equal(t, d.Excerpt, a.ExcerptAr)
	assert.Equal(t, d.Content, a.ContentFr)
	assert.NotNil(t, a.Tags)
}

func TestToArticle_PublishedAtFallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	d := Document{Slug: "draft", Title: "Draft", CreatedAt: created}

	a := d.ToArticle()

	assert.Equal(t, "2026-05-01T09:00:00Z", a.PublishedAt)
}
