package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mat-rankings/internal/models"
)

func TestFileStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStateStore(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load(ctx, testSeason, testRegion)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	st := models.NewCrawlState(testSeason, testRegion, time.Now().UTC())
	st.Events = []models.Event{{Text: "Tri-State", DateText: "Dec 7, 2024"}}
	st.TotalEvents = 1
	st.CurrentEventIndex = 1
	require.NoError(t, store.Save(ctx, st))

	loaded, err = store.Load(ctx, testSeason, testRegion)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.CurrentEventIndex)
	assert.Equal(t, "Tri-State", loaded.Events[0].Text)

	require.NoError(t, store.Delete(ctx, testSeason, testRegion))
	require.NoError(t, store.Delete(ctx, testSeason, testRegion))
	loaded, err = store.Load(ctx, testSeason, testRegion)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStateStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStateStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), models.NewCrawlState(testSeason, testRegion, time.Now())))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-25_utah.json", entries[0].Name())
}

func TestFileStateStoreDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStateStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(testSeason, testRegion), []byte(`{"season_key":"2024-25","region_id":"utah","current_event_index":3,"events":[]}`), 0o644))
	_, err = store.Load(ctx, testSeason, testRegion)
	assert.ErrorIs(t, err, ErrStateCorrupt)

	require.NoError(t, os.WriteFile(store.Path(testSeason, testRegion), []byte(`{"season_key":"2023-24","region_id":"utah"}`), 0o644))
	_, err = store.Load(ctx, testSeason, testRegion)
	assert.ErrorIs(t, err, ErrStateCorrupt)
}

func TestFileStateStorePathSanitizes(t *testing.T) {
	store, err := NewFileStateStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "2024-25_region-7.json", filepath.Base(store.Path("2024-25", "region/7")))
}

func TestNewFileStateStoreRequiresDir(t *testing.T) {
	_, err := NewFileStateStore("")
	assert.Error(t, err)
}
