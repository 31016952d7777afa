// Package navigation defines how raw match rows are pulled from a results site.
package navigation

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/mat-rankings/internal/config"
	"github.com/yourusername/mat-rankings/internal/models"
)

// ErrNoMoreGroups is returned by FetchRows when groupIndex is past the last result group
var ErrNoMoreGroups = errors.New("no more result groups")

// RawRow is one match line as shown on the site, with the weight class of its group
type RawRow struct {
	WeightClass string `json:"weight_class"`
	Text        string `json:"text"`
}

// Navigator drives a results site.
// Events returned by DiscoverEvents are in site order; callers sort them.
type Navigator interface {
	// Initialize prepares sessions or browsers. A failure aborts the run.
	Initialize(ctx context.Context, opts Options) error

	// DiscoverEvents lists every event of a season in a region
	DiscoverEvents(ctx context.Context, seasonKey, regionID string) ([]models.Event, error)

	// FetchRows returns the rows of one result group, or ErrNoMoreGroups
	FetchRows(ctx context.Context, event models.Event, groupIndex int) ([]RawRow, error)

	// Teardown releases anything Initialize acquired
	Teardown(ctx context.Context) error

	// Name returns the name of the navigator
	Name() string
}

// Options configures a navigator
type Options struct {
	BaseURL           string
	EventsPath        string
	FixturePath       string
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Headless          bool
	Selectors         Selectors
}

// OptionsFromConfig builds navigator options from the navigation config section
func OptionsFromConfig(c *config.Config) Options {
	cfg := &c.Navigation
	return Options{
		BaseURL:           cfg.BaseURL,
		EventsPath:        cfg.EventsPath,
		FixturePath:       cfg.FixturePath,
		UserAgent:         cfg.UserAgent,
		Timeout:           c.NavigationTimeout(),
		MaxRetries:        cfg.MaxRetries,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Headless:          cfg.Headless,
		Selectors: Selectors{
			Event:       cfg.Selectors.Event,
			EventName:   cfg.Selectors.EventName,
			EventDate:   cfg.Selectors.EventDate,
			EventLink:   cfg.Selectors.EventLink,
			Group:       cfg.Selectors.Group,
			WeightClass: cfg.Selectors.WeightClass,
			Match:       cfg.Selectors.Match,
		},
	}
}
