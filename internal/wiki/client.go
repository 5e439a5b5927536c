package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ErrNotFound signals a clean upstream 404, which callers treat as "no
// content" rather than a failure.
var ErrNotFound = fmt.Errorf("wikipedia: page not found")

// Client talks to the Wikipedia REST and action APIs. hostPattern contains a
// single %s verb for the language subdomain, e.g. "https://%s.wikipedia.org";
// tests substitute an httptest server URL.
type Client struct {
	hostPattern string
	userAgent   string
	http        *http.Client
}

func NewClient(hostPattern, userAgent string, httpClient *http.Client) *Client {
	return &Client{
		hostPattern: hostPattern,
		userAgent:   userAgent,
		http:        httpClient,
	}
}

func (c *Client) host(lang string) string {
	return fmt.Sprintf(c.hostPattern, lang)
}

// OnThisDay fetches the curated "selected" feed for a calendar day.
func (c *Client) OnThisDay(ctx context.Context, month, day int, lang string) ([]FeedEvent, error) {
	u := fmt.Sprintf("%s/api/rest_v1/feed/onthisday/selected/%d/%d", c.host(lang), month, day)

	var out FeedResponse
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.Selected, nil
}

// SearchTitles runs the title-search phase of a keyword lookup.
func (c *Client) SearchTitles(ctx context.Context, query, lang string, limit int) ([]SearchPage, error) {
	u := fmt.Sprintf("%s/w/rest.php/v1/search/title?q=%s&limit=%s",
		c.host(lang), url.QueryEscape(query), strconv.Itoa(limit))

	var out SearchResponse
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out.Pages, nil
}

// Summary fetches the content summary for a single page title.
func (c *Client) Summary(ctx context.Context, title, lang string) (*Summary, error) {
	u := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", c.host(lang), url.PathEscape(title))

	var out Summary
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Extract fetches a plain-text extract of up to the given number of
// sentences, plus the page's original image, via the action API.
func (c *Client) Extract(ctx context.Context, title, lang string, sentences int) (*PageExtract, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("prop", "extracts|pageimages")
	q.Set("explaintext", "1")
	q.Set("exsentences", strconv.Itoa(sentences))
	q.Set("piprop", "original")
	q.Set("redirects", "1")
	q.Set("titles", title)
	u := fmt.Sprintf("%s/w/api.php?%s", c.host(lang), q.Encode())

	var out extractResponse
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	if len(out.Query.Pages) == 0 || out.Query.Pages[0].Missing {
		return nil, ErrNotFound
	}
	return &out.Query.Pages[0], nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia: unexpected status %d for %s", resp.StatusCode, u)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
