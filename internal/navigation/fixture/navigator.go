// Package fixture replays recorded result pages from a JSON file.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/navigation"
)

const sourceName = "fixture"

// File is the on-disk fixture layout
type File struct {
	SeasonKey string  `json:"season_key"`
	RegionID  string  `json:"region_id"`
	Events    []Event `json:"events"`
}

// Event is one recorded event
type Event struct {
	Name    string  `json:"name"`
	Date    string  `json:"date"`
	Locator string  `json:"locator"`
	Groups  []Group `json:"groups"`
}

// Group is one recorded result group. A non-empty Error makes FetchRows fail for it.
type Group struct {
	WeightClass string   `json:"weight_class"`
	Rows        []string `json:"rows"`
	Error       string   `json:"error,omitempty"`
}

// Navigator implements navigation.Navigator over a fixture
type Navigator struct {
	logger *logrus.Logger

	mu      sync.Mutex
	file    *File
	preload *File
	groups  map[string][]navigation.Group
	failing map[string]map[int]string
}

// New creates a navigator that reads the fixture file named in the options
func New(logger *logrus.Logger) *Navigator {
	return &Navigator{logger: logger}
}

// NewFromFile creates a navigator over an already loaded fixture
func NewFromFile(logger *logrus.Logger, file *File) *Navigator {
	return &Navigator{logger: logger, preload: file}
}

// Name returns the name of the navigator
func (n *Navigator) Name() string {
	return sourceName
}

// Load reads a fixture file from disk
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Initialize loads the fixture
func (n *Navigator) Initialize(ctx context.Context, opts navigation.Options) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	file := n.preload
	if file == nil {
		if opts.FixturePath == "" {
			return navigation.NewError(sourceName, navigation.ErrCodeInvalidData, "fixture path is required", nil)
		}
		loaded, err := Load(opts.FixturePath)
		if err != nil {
			return navigation.NewError(sourceName, navigation.ErrCodeInvalidData, "failed to load fixture", err)
		}
		file = loaded
	}

	n.file = file
	n.groups = make(map[string][]navigation.Group, len(file.Events))
	n.failing = make(map[string]map[int]string)
	for i, ev := range file.Events {
		locator := locatorFor(i, ev)
		var groups []navigation.Group
		for gi, g := range ev.Groups {
			if g.Error != "" {
				if n.failing[locator] == nil {
					n.failing[locator] = make(map[int]string)
				}
				n.failing[locator][gi] = g.Error
			}
			groups = append(groups, navigation.Group{WeightClass: g.WeightClass, Rows: g.Rows})
		}
		n.groups[locator] = groups
	}

	n.logger.WithFields(logrus.Fields{
		"season": file.SeasonKey,
		"region": file.RegionID,
		"events": len(file.Events),
	}).Info("Fixture loaded")
	return nil
}

// DiscoverEvents returns the recorded events. A fixture recorded for another
// season or region yields no events.
func (n *Navigator) DiscoverEvents(ctx context.Context, seasonKey, regionID string) ([]models.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.file == nil {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeNotInitialized, "navigator not initialized", nil)
	}
	if (n.file.SeasonKey != "" && n.file.SeasonKey != seasonKey) || (n.file.RegionID != "" && n.file.RegionID != regionID) {
		return nil, nil
	}

	events := make([]models.Event, 0, len(n.file.Events))
	for i, ev := range n.file.Events {
		events = append(events, models.Event{
			Index:      i,
			Text:       navigation.CleanText(ev.Name),
			DateText:   navigation.CleanText(ev.Date),
			ParsedDate: navigation.ParseEventDate(ev.Date),
			Locator:    locatorFor(i, ev),
		})
	}
	return events, nil
}

// FetchRows returns the recorded rows of one group
func (n *Navigator) FetchRows(ctx context.Context, event models.Event, groupIndex int) ([]navigation.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeTimeout, "fetch cancelled", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	groups, ok := n.groups[event.Locator]
	if !ok {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeNotFound, fmt.Sprintf("no recorded results for %q", event.Text), nil)
	}
	if msg, failing := n.failing[event.Locator][groupIndex]; failing {
		return nil, navigation.NewError(sourceName, navigation.ErrCodeServerError, msg, nil)
	}
	return navigation.GroupRows(groups, groupIndex)
}

// Teardown is a no-op
func (n *Navigator) Teardown(ctx context.Context) error {
	return nil
}

func locatorFor(i int, ev Event) string {
	if ev.Locator != "" {
		return ev.Locator
	}
	return fmt.Sprintf("fixture://events/%d", i)
}
