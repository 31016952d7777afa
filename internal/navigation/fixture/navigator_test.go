package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mat-rankings/internal/logger"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/navigation"
)

func initialized(t *testing.T) *Navigator {
	t.Helper()
	nav := New(logger.Discard())
	require.NoError(t, nav.Initialize(context.Background(), navigation.Options{FixturePath: "testdata/season.json"}))
	return nav
}

func TestFixtureDiscoverEvents(t *testing.T) {
	nav := initialized(t)

	events, err := nav.DiscoverEvents(context.Background(), "2024-25", "utah")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Holiday Classic", events[0].Text)
	assert.Equal(t, "fixture://events/0", events[0].Locator)
	require.NotNil(t, events[1].ParsedDate)
	assert.Equal(t, "https://results.example.com/events/1", events[1].Locator)
}

func TestFixtureOtherSeasonHasNoEvents(t *testing.T) {
	nav := initialized(t)

	events, err := nav.DiscoverEvents(context.Background(), "2023-24", "utah")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFixtureFetchRows(t *testing.T) {
	nav := initialized(t)
	ctx := context.Background()

	events, err := nav.DiscoverEvents(ctx, "2024-25", "utah")
	require.NoError(t, err)

	rows, err := nav.FetchRows(ctx, events[0], 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "145", rows[0].WeightClass)

	_, err = nav.FetchRows(ctx, events[0], 1)
	assert.True(t, navigation.IsCode(err, navigation.ErrCodeServerError))

	_, err = nav.FetchRows(ctx, events[0], 2)
	assert.ErrorIs(t, err, navigation.ErrNoMoreGroups)

	_, err = nav.FetchRows(ctx, events[1], 0)
	assert.ErrorIs(t, err, navigation.ErrNoMoreGroups)
}

func TestFixtureInitializeErrors(t *testing.T) {
	err := New(logger.Discard()).Initialize(context.Background(), navigation.Options{})
	assert.Error(t, err)

	err = New(logger.Discard()).Initialize(context.Background(), navigation.Options{FixturePath: "testdata/missing.json"})
	assert.Error(t, err)
}

func TestFixtureCancelledContext(t *testing.T) {
	nav := initialized(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := nav.FetchRows(ctx, navigationEvent(), 0)
	assert.True(t, navigation.IsCode(err, navigation.ErrCodeTimeout))
}

func navigationEvent() models.Event {
	return models.Event{Text: "Holiday Classic", Locator: "fixture://events/0"}
}
