package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/yourusername/mat-rankings/internal/models"
)

// ErrStateCorrupt is returned when a persisted state cannot be decoded
var ErrStateCorrupt = errors.New("crawl state is corrupt")

// StateStore persists crawl state per season and region
type StateStore interface {
	// Load returns nil, nil when no state exists
	Load(ctx context.Context, seasonKey, regionID string) (*models.CrawlState, error)
	Save(ctx context.Context, state *models.CrawlState) error
	Delete(ctx context.Context, seasonKey, regionID string) error
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileStateStore keeps one JSON document per season and region in a directory
type FileStateStore struct {
	dir string
}

// NewFileStateStore creates the state directory if needed
func NewFileStateStore(dir string) (*FileStateStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStateStore{dir: dir}, nil
}

// Path returns the state file location for a season and region
func (s *FileStateStore) Path(seasonKey, regionID string) string {
	name := fmt.Sprintf("%s_%s.json",
		unsafeFileChars.ReplaceAllString(seasonKey, "-"),
		unsafeFileChars.ReplaceAllString(regionID, "-"))
	return filepath.Join(s.dir, name)
}

// Load reads the state file
func (s *FileStateStore) Load(ctx context.Context, seasonKey, regionID string) (*models.CrawlState, error) {
	path := s.Path(seasonKey, regionID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state models.CrawlState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStateCorrupt, path, err)
	}
	if err := checkState(&state, seasonKey, regionID); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStateCorrupt, path, err)
	}

	return &state, nil
}

// Save writes the state atomically through a temp file and rename
func (s *FileStateStore) Save(ctx context.Context, state *models.CrawlState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path(state.SeasonKey, state.RegionID)); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Delete removes the state file; a missing file is not an error
func (s *FileStateStore) Delete(ctx context.Context, seasonKey, regionID string) error {
	if err := os.Remove(s.Path(seasonKey, regionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

func checkState(state *models.CrawlState, seasonKey, regionID string) error {
	if state.SeasonKey != seasonKey || state.RegionID != regionID {
		return fmt.Errorf("state belongs to %s/%s", state.SeasonKey, state.RegionID)
	}
	if state.CurrentEventIndex < 0 || state.CurrentEventIndex > len(state.Events) {
		return fmt.Errorf("cursor %d outside event list of %d", state.CurrentEventIndex, len(state.Events))
	}
	return nil
}
