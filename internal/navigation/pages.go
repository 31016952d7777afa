package navigation

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/yourusername/mat-rankings/internal/models"
)

// PageLoader fetches a page and returns its parsed DOM
type PageLoader interface {
	Load(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// PageReader implements event discovery and row fetching on top of a PageLoader.
// The groups of the most recently opened event page are kept so that walking
// an event group by group loads the page once.
type PageReader struct {
	source string
	loader PageLoader
	opts   Options

	mu          sync.Mutex
	openLocator string
	openGroups  []Group
}

// NewPageReader creates a reader for the named navigator
func NewPageReader(source string, loader PageLoader, opts Options) *PageReader {
	return &PageReader{source: source, loader: loader, opts: opts}
}

// DiscoverEvents loads the season page and extracts its events
func (r *PageReader) DiscoverEvents(ctx context.Context, seasonKey, regionID string) ([]models.Event, error) {
	pageURL, err := EventsURL(r.opts.BaseURL, r.opts.EventsPath, seasonKey, regionID)
	if err != nil {
		return nil, NewError(r.source, ErrCodeInvalidData, "invalid events url", err)
	}

	doc, err := r.loader.Load(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(pageURL)
	return ExtractEvents(doc, r.opts.Selectors, base), nil
}

// FetchRows returns the rows of one result group of the event
func (r *PageReader) FetchRows(ctx context.Context, event models.Event, groupIndex int) ([]RawRow, error) {
	if event.Locator == "" {
		return nil, NewError(r.source, ErrCodeNotFound, fmt.Sprintf("event %q has no results link", event.Text), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.openLocator != event.Locator {
		doc, err := r.loader.Load(ctx, event.Locator)
		if err != nil {
			return nil, err
		}
		r.openLocator = event.Locator
		r.openGroups = ExtractGroups(doc, r.opts.Selectors)
	}

	return GroupRows(r.openGroups, groupIndex)
}

// Reset forgets the open event page
func (r *PageReader) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openLocator = ""
	r.openGroups = nil
}
