// Package browser reads result pages that need JavaScript by rendering them in headless Chrome.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/navigation"
)

const sourceName = "browser"

// Renderer returns the rendered HTML of a page
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Navigator implements navigation.Navigator on a rendered DOM
type Navigator struct {
	logger   *logrus.Logger
	renderer Renderer
	reader   *navigation.PageReader

	mu          sync.Mutex
	allocCancel context.CancelFunc
}

// New creates a browser navigator. A nil renderer starts headless Chrome on Initialize.
func New(logger *logrus.Logger, renderer Renderer) *Navigator {
	return &Navigator{logger: logger, renderer: renderer}
}

// Name returns the name of the navigator
func (n *Navigator) Name() string {
	return sourceName
}

// Initialize starts the browser allocator
func (n *Navigator) Initialize(ctx context.Context, opts navigation.Options) error {
	if opts.BaseURL == "" {
		return navigation.NewError(sourceName, navigation.ErrCodeInvalidData, "base url is required", nil)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.renderer == nil {
		chrome, cancel := newChromeRenderer(opts)
		n.renderer = chrome
		n.allocCancel = cancel
		n.logger.WithFields(logrus.Fields{
			"headless": opts.Headless,
			"timeout":  opts.Timeout.String(),
		}).Info("Browser allocator started")
	}

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

// Teardown stops the browser
func (n *Navigator) Teardown(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.reader != nil {
		n.reader.Reset()
	}
	if n.allocCancel != nil {
		n.allocCancel()
		n.allocCancel = nil
		n.renderer = nil
		n.logger.Info("Browser allocator stopped")
	}
	return nil
}

// Load renders a page and parses the resulting DOM
func (n *Navigator) Load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := n.renderer.Render(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, navigation.NewError(sourceName, navigation.ErrCodeTimeout, "render cancelled", err)
		}
		return nil, navigation.NewError(sourceName, navigation.ErrCodeNetworkError, "failed to render "+pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeInvalidData, "failed to parse rendered page", err)
	}
	return doc, nil
}

// chromeRenderer renders pages with chromedp, one tab per page
type chromeRenderer struct {
	allocator context.Context
	userAgent string
	timeout   time.Duration
}

func newChromeRenderer(opts navigation.Options) (*chromeRenderer, context.CancelFunc) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if opts.Headless {
		execOpts = append(execOpts, chromedp.Flag("headless", "new"))
	} else {
		execOpts = append(execOpts, chromedp.Flag("headless", false))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), execOpts...)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &chromeRenderer{allocator: allocCtx, userAgent: opts.UserAgent, timeout: timeout}, cancel
}

func (r *chromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, r.timeout)
	defer cancel()

	// chromedp contexts derive from the allocator; stop when the caller gives up
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if r.userAgent == "" {
				return nil
			}
			return emulation.SetUserAgentOverride(r.userAgent).Do(ctx)
		}),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, nil
}
