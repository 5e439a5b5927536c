package api

import (
	"fmt"
	"net/url"
	"strconv"

	"eras-api/internal/event"
	"eras-api/internal/search"
)

// Validation bounds. The year range matches the curated data set; the limit
// caps mirror the public API contract.
const (
	minYear = -5000
	maxYear = 2026

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 50

	defaultRandomCount = 5
	maxRandomCount     = 20
)

// FieldError carries structured, per-field validation detail back to the
// caller.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type searchRequest struct {
	Query     string `json:"query"`
	Year      *int   `json:"year"`
	Month     *int   `json:"month"`
	Day       *int   `json:"day"`
	Category  string `json:"category"`
	Country   string `json:"country"`
	Page      *int   `json:"page"`
	Limit     *int   `json:"limit"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

func (r *searchRequest) validate() (search.Params, []FieldError) {
	var errs []FieldError

	p := search.Params{
		Query:       r.Query,
		CountryCode: r.Country,
		Page:        defaultPage,
		Limit:       defaultLimit,
		SortBy:      event.SortByDate,
		Descending:  true,
	}

	if r.Year != nil {
		if *r.Year < minYear || *r.Year > maxYear {
			errs = append(errs, rangeError("year", minYear, maxYear))
		} else {
			p.Year = r.Year
		}
	}
	if r.Month != nil {
		if *r.Month < 1 || *r.Month > 12 {
			errs = append(errs, rangeError("month", 1, 12))
		} else {
			p.Month = *r.Month
		}
	}
	if r.Day != nil {
		if *r.Day < 1 || *r.Day > 31 {
			errs = append(errs, rangeError("day", 1, 31))
		} else {
			p.Day = *r.Day
		}
	}
	if r.Category != "" {
		category := event.Category(r.Category)
		if !category.Valid() {
			errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
		} else {
			p.Category = category
		}
	}
	if r.Page != nil {
		if *r.Page < 1 {
			errs = append(errs, FieldError{Field: "page", Message: "must be at least 1"})
		} else {
			p.Page = *r.Page
		}
	}
	if r.Limit != nil {
		if *r.Limit < 1 || *r.Limit > maxLimit {
			errs = append(errs, rangeError("limit", 1, maxLimit))
		} else {
			p.Limit = *r.Limit
		}
	}
	switch r.SortBy {
	case "":
	case string(event.SortByDate):
		p.SortBy = event.SortByDate
	case string(event.SortByImportance):
		p.SortBy = event.SortByImportance
	default:
		errs = append(errs, FieldError{Field: "sortBy", Message: "must be one of: date, importance"})
	}
	switch r.SortOrder {
	case "", "desc":
		p.Descending = true
	case "asc":
		p.Descending = false
	default:
		errs = append(errs, FieldError{Field: "sortOrder", Message: "must be one of: asc, desc"})
	}

	return p, errs
}

func parseOnThisDayParams(q url.Values) (month, day int, errs []FieldError) {
	month, errs = requireIntInRange(q, "month", 1, 12, errs)
	day, errs = requireIntInRange(q, "day", 1, 31, errs)
	return month, day, errs
}

func parseRandomParams(q url.Values) (count int, category event.Category, errs []FieldError) {
	count = defaultRandomCount
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRandomCount {
			errs = append(errs, rangeError("count", 1, maxRandomCount))
		} else {
			count = n
		}
	}
	if raw := q.Get("category"); raw != "" {
		c := event.Category(raw)
		if !c.Valid() {
			errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
		} else {
			category = c
		}
	}
	return count, category, errs
}

func parsePageParams(q url.Values) (page, limit int, errs []FieldError) {
	page = defaultPage
	limit = defaultLimit
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, FieldError{Field: "page", Message: "must be at least 1"})
		} else {
			page = n
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			errs = append(errs, rangeError("limit", 1, maxLimit))
		} else {
			limit = n
		}
	}
	return page, limit, errs
}

func requireIntInRange(q url.Values, name string, lo, hi int, errs []FieldError) (int, []FieldError) {
	raw := q.Get(name)
	if raw == "" {
		return 0, append(errs, FieldError{Field: name, Message: "required"})
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, append(errs, rangeError(name, lo, hi))
	}
	return n, errs
}

func rangeError(field string, lo, hi int) FieldError {
	return FieldError{Field: field, Message: fmt.Sprintf("must be between %d and %d", lo, hi)}
}
