// Package htmlnav reads server-rendered result pages over HTTP.
package htmlnav

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/navigation"
)

const sourceName = "html"

// Navigator implements navigation.Navigator for static HTML pages
type Navigator struct {
	logger *logrus.Logger
	client *RateLimitedHTTPClient
	reader *navigation.PageReader
}

// New creates an uninitialized HTML navigator
func New(logger *logrus.Logger) *Navigator {
	return &Navigator{logger: logger}
}

// Name returns the name of the navigator
func (n *Navigator) Name() string {
	return sourceName
}

// Initialize creates the HTTP client
func (n *Navigator) Initialize(ctx context.Context, opts navigation.Options) error {
	if opts.BaseURL == "" {
		return navigation.NewError(sourceName, navigation.ErrCodeInvalidData, "base url is required", nil)
	}

	cfg := DefaultHTTPClientConfig()
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	if opts.MaxRetries >= 0 {
		cfg.MaxRetries = opts.MaxRetries
	}
	if opts.RequestsPerSecond > 0 {
		cfg.RateLimit = opts.RequestsPerSecond
	}
	cfg.UserAgent = opts.UserAgent

	n.client = NewRateLimitedHTTPClient(cfg, n.logger)
	n.reader = navigation.NewPageReader(sourceName, n, opts)
	return nil
}

// DiscoverEvents lists the events of a season
func (n *Navigator) DiscoverEvents(ctx context.Context, seasonKey, regionID string) ([]models.Event, error) {
	if n.reader == nil {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeNotInitialized, "navigator not initialized", nil)
	}
	return n.reader.DiscoverEvents(ctx, seasonKey, regionID)
}

// FetchRows returns the rows of one result group
func (n *Navigator) FetchRows(ctx context.Context, event models.Event, groupIndex int) ([]navigation.RawRow, error) {
	if n.reader == nil {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeNotInitialized, "navigator not initialized", nil)
	}
	return n.reader.FetchRows(ctx, event, groupIndex)
}

// Teardown closes idle connections
func (n *Navigator) Teardown(ctx context.Context) error {
	if n.reader != nil {
		n.reader.Reset()
	}
	if n.client != nil {
		return n.client.Close()
	}
	return nil
}

// Load fetches and parses a page
func (n *Navigator) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := n.client.Get(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, navigation.NewError(sourceName, navigation.ErrCodeTimeout, "request cancelled", err)
		}
		return nil, navigation.NewError(sourceName, navigation.ErrCodeNetworkError, "failed to fetch "+pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, navigation.NewError(sourceName, navigation.ErrCodeNotFound, "page not found: "+pageURL, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, navigation.NewError(sourceName, navigation.ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, navigation.NewError(sourceName, navigation.ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeInvalidData, "failed to parse page", err)
	}
	return doc, nil
}
