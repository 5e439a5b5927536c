package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToEvent_LocalizedFallback(t *testing.T) {
	d := Document{
		ID:            "e1",
		Title:         "Opening of the Suez Canal",
		TitleAr:       "افتتاح قناة السويس",
		Description:   "The canal opens to shipping.",
		DescriptionFr: "Le canal ouvre à la navigation.",
		Year:          1869,
		Category:      CategoryEconomics,
		Importance:    ImportanceHigh,
	}

	e := d.ToEvent()

	// Translated fields pass through, missing ones fall back to the base.
	assert.Equal(t, "افتتاح قناة السويس", e.TitleAr)
	assert.Equal(t, "Opening of the Suez Canal", e.TitleFr)
	assert.Equal(t, "Le canal ouvre à la navigation.", e.DescriptionFr)
	assert.Equal(t, "The canal opens to shipping.", e.DescriptionAr)
}

func TestToEvent_EraFromYearSign(t *testing.T) {
	bce := Document{Title: "Pyramid", Year: -2560, Category: CategoryCulture, Importance: ImportanceHigh}
	ce := Document{Title: "Canal", Year: 1869, Category: CategoryEconomics, Importance: ImportanceHigh}
	explicit := Document{Title: "Odd", Year: -44, Era: EraCE, Category: CategoryPolitics, Importance: ImportanceHigh}

	assert.Equal(t, EraBCE, bce.ToEvent().Date.Era)
	assert.Equal(t, EraCE, ce.ToEvent().Date.Era)
	// A stored era always wins over the year sign.
	assert.Equal(t, EraCE, explicit.ToEvent().Date.Era)
}

func TestToEvent_Defaults(t *testing.T) {
	d := Document{
		Title:      "Unlabelled",
		Year:       1000,
		Category:   "unknown-category",
		Importance: "urgent",
	}

	e := d.ToEvent()

	assert.Equal(t, CategoryCulture, e.Category)
	assert.Equal(t, ImportanceMedium, e.Importance)
	assert.NotNil(t, e.Sources)
	assert.Empty(t, e.Sources)
	assert.NotNil(t, e.Tags)
	assert.NotNil(t, e.RelatedEventIDs)
}

func TestToEvent_Timestamps(t *testing.T) {
	d := Document{
		Title:      "Dated",
		Year:       1900,
		Category:   CategoryScience,
		Importance: ImportanceLow,
		CreatedAt:  time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}

	e := d.ToEvent()

	assert.Equal(t, "2026-03-01T15:04:05Z", e.CreatedAt)
	assert.Equal(t, "2026-03-02T08:00:00Z", e.UpdatedAt)
}

func TestImportanceRank(t *testing.T) {
	assert.Equal(t, 4, ImportanceCritical.Rank())
	assert.Equal(t, 3, ImportanceHigh.Rank())
	assert.Equal(t, 2, ImportanceMedium.Rank())
	assert.Equal(t, 1, ImportanceLow.Rank())
	assert.Equal(t, 0, Importance("urgent").Rank())
	assert.False(t, Importance("urgent").Valid())
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryNaturalDisaster.Valid())
	assert.False(t, Category("architecture").Valid())
}
