package candidates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"meal-rotation/internal/history"
)

// Fetcher opens an HTML document by URL or local path.
type Fetcher interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// HTTPFetcher reads http(s) URLs over the network and anything else from disk.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher with a bounded request timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: 15 * time.Second}}
}

// Open returns the document body for location.
func (f *HTTPFetcher) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		file, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", location, err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ExtractListItems returns the text of every <li> in the document body,
// ignoring navigation and other page chrome.
func ExtractListItems(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Remove noise so menus and footers do not become meals
	doc.Find("script, style, nav, header, footer, aside, iframe").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	var items []string
	doc.Find("body li").Each(func(i int, s *goquery.Selection) {
		// Nested lists contribute their own items; only keep leaf text.
		if s.Find("li").Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" {
			items = append(items, text)
		}
	})
	return items, nil
}

// Import fetches location, extracts its list items and appends the new ones
// to the category file.
func (s *DirSource) Import(ctx context.Context, fetcher Fetcher, category history.Category, location string) (int, error) {
	body, err := fetcher.Open(ctx, location)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch content: %w", err)
	}
	defer body.Close()

	items, err := ExtractListItems(body)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("no list items found in %s", location)
	}
	return s.Append(category, items)
}
