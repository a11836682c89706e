// Package seed fills the catalog from the Open Library subjects API.
package seed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/gophlibrary/internal/netx"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	DefaultSubject = "love"
	DefaultLimit   = 30
)

type subjectResponse struct {
	Works []work `json:"works"`
}

type work struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Authors []author `json:"authors"`
}

type author struct {
	Name string `json:"name"`
}

// Client reads works from Open Library.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) subjectURL(subject string, limit int) string {
	return fmt.Sprintf("%s/subjects/%s.json?limit=%d", c.baseURL, url.PathEscape(subject), limit)
}

// FetchSubject returns up to limit works of subject as available books.
func (c *Client) FetchSubject(ctx context.Context, subject string, limit int) ([]models.Book, error) {
	var resp subjectResponse
	if err := netx.GetJSON(ctx, c.http, c.subjectURL(subject, limit), &resp); err != nil {
		return nil, fmt.Errorf("fetch subject %q: %w", subject, err)
	}
	return toBooks(resp.Works), nil
}

// toBooks maps works to books. The external id is the last segment of the
// work key ("/works/OL123W" -> "OL123W"). Works without a title are skipped.
func toBooks(works []work) []models.Book {
	out := make([]models.Book, 0, len(works))
	for _, w := range works {
		if strings.TrimSpace(w.Title) == "" {
			continue
		}

		names := make([]string, 0, len(w.Authors))
		for _, a := range w.Authors {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}

		key := w.Key
		if i := strings.LastIndex(key, "/"); i >= 0 {
			key = key[i+1:]
		}

		out = append(out, models.Book{
			ExternalID:   key,
			Title:        w.Title,
			Author:       strings.Join(names, ", "),
			Availability: true,
		})
	}
	return out
}
