// Package fetcher downloads the published timetable pages and hands them to the parser.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"timetable/internal/grouporder"
	"timetable/internal/model"
	"timetable/internal/parser"
)

const maxBodySize = 5 * 1024 * 1024

// DefaultUserAgent is sent when no other agent is configured; the source rejects bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source locates the published pages.
type Source struct {
	BaseURL   string
	IndexPath string
	BellsPath string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher downloads and parses timetable pages.
type Fetcher struct {
	client HTTPClient
	src    Source
	now    func() time.Time
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient, src Source) *Fetcher {
	if src.UserAgent == "" {
		src.UserAgent = DefaultUserAgent
	}
	if src.Timeout == 0 {
		src.Timeout = 10 * time.Second
	}
	return &Fetcher{client: client, src: src, now: time.Now}
}

// Dates downloads the index page and returns the publishable dates in sort order.
func (f *Fetcher) Dates(ctx context.Context) ([]model.DateEntry, error) {
	doc, err := f.Document(ctx, f.src.BaseURL+f.src.IndexPath)
	if err != nil {
		return nil, err
	}
	return parser.ParseDates(doc, f.src.BaseURL, f.src.IndexPath, f.now().Year())
}

// Schedule downloads one date page and extracts its lessons, recording group
// labels into order.
func (f *Fetcher) Schedule(ctx context.Context, pageURL, label string, order *grouporder.Order) ([]model.LessonEntry, error) {
	doc, err := f.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parser.ParseSchedule(doc, label, order)
}

// Bells downloads and parses the bell page.
func (f *Fetcher) Bells(ctx context.Context) (model.BellSchedule, error) {
	doc, err := f.Document(ctx, f.BellsURL())
	if err != nil {
		return model.BellSchedule{}, err
	}
	return parser.ParseBells(doc)
}

// BellsURL returns the escaped address of the bell page.
func (f *Fetcher) BellsURL() string {
	return f.src.BaseURL + (&url.URL{Path: f.src.BellsPath}).EscapedPath()
}

// Document fetches pageURL and parses it as HTML. The whole fetch, retries
// included, is bounded by the source timeout.
func (f *Fetcher) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.src.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.src.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http get: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", parser.ErrMarkup, err)
	}
	return doc, nil
}
