package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mat-rankings/internal/dedup"
	"github.com/yourusername/mat-rankings/internal/logger"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/navigation"
	"github.com/yourusername/mat-rankings/internal/navigation/fixture"
	"github.com/yourusername/mat-rankings/internal/parser"
	"github.com/yourusername/mat-rankings/internal/rating"
	"github.com/yourusername/mat-rankings/internal/repository"
	"github.com/yourusername/mat-rankings/internal/repository/memory"
	"github.com/yourusername/mat-rankings/internal/tracker"
)

const (
	testSeason = "2024-25"
	testRegion = "utah"

	rowSmithJohnson = "Championship - John Smith (Springville) over Mike Johnson (Provo) (Dec 3-1)"
	rowBrownDavis   = "Tom Brown (Orem) over Sam Davis (Lehi) (Fall 2:34)"
	rowLeeGarcia    = "Ann Lee (Provo) over Eva Garcia (Orem) (MD 12-3)"
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func seasonFixture() *fixture.File {
	return &fixture.File{
		SeasonKey: testSeason,
		RegionID:  testRegion,
		Events: []fixture.Event{
			{
				Name: "Holiday Classic",
				Date: "Dec 20, 2024",
				Groups: []fixture.Group{
					{WeightClass: "145", Rows: []string{rowSmithJohnson, rowBrownDavis}},
				},
			},
			{
				Name: "Season Opener",
				Date: "Nov 30, 2024",
				Groups: []fixture.Group{
					{WeightClass: "152", Rows: []string{rowLeeGarcia}},
				},
			},
		},
	}
}

type harness struct {
	store      *memory.Store
	stateStore *tracker.FileStateStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stateStore, err := tracker.NewFileStateStore(t.TempDir())
	require.NoError(t, err)
	return &harness{store: memory.NewStore(), stateStore: stateStore}
}

func (h *harness) orchestrator(t *testing.T, nav navigation.Navigator, store repository.Store) *Orchestrator {
	t.Helper()
	if store == nil {
		store = h.store
	}
	o, err := NewOrchestrator(Deps{
		Navigator:  nav,
		Store:      store,
		StateStore: h.stateStore,
		Engine:     rating.NewEngine(rating.DefaultConfig()),
		Logger:     logger.Discard(),
	}, Config{
		SeasonKey:        testSeason,
		RegionID:         testRegion,
		FetchTimeout:     time.Second,
		SkipFutureEvents: true,
		Now:              func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return o
}

func auditsFor(t *testing.T, store repository.Store, row, weightClass string, date time.Time) []*models.RankingMatchAudit {
	t.Helper()
	record := parser.Parse(row, weightClass, &date)
	require.NotNil(t, record)
	audits, err := store.Repositories().Audits.ListByHash(context.Background(), dedup.ComputeHash(record))
	require.NoError(t, err)
	return audits
}

func TestNewOrchestratorRequiresCollaborators(t *testing.T) {
	h := newHarness(t)
	nav := fixture.NewFromFile(logger.Discard(), seasonFixture())

	_, err := NewOrchestrator(Deps{Store: h.store, StateStore: h.stateStore}, Config{SeasonKey: testSeason, RegionID: testRegion})
	assert.Error(t, err)

	_, err = NewOrchestrator(Deps{Navigator: nav, StateStore: h.stateStore}, Config{SeasonKey: testSeason, RegionID: testRegion})
	assert.Error(t, err)

	_, err = NewOrchestrator(Deps{Navigator: nav, Store: h.store, StateStore: h.stateStore}, Config{SeasonKey: testSeason})
	assert.Error(t, err)
}

func TestRunRatesEverySeasonEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	o := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), nil)

	report, err := o.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.True(t, report.Complete)
	assert.Equal(t, "complete", report.Status())
	assert.Equal(t, 2, report.EventsHandled)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 3, report.Totals.Rows)
	assert.Equal(t, 3, report.Totals.Rated)
	assert.Equal(t, 100.0, report.Stats.PercentComplete)
	assert.Equal(t, 3, report.Stats.ProcessedMatches)

	athletes, ratings, audits := h.store.Counts()
	assert.Equal(t, 6, athletes)
	assert.Equal(t, 6, ratings)
	assert.Equal(t, 6, audits)

	// Events are handled in date order
	state := o.Tracker().State()
	require.Len(t, state.ProcessedEvents, 2)
	assert.Equal(t, "Season Opener", state.ProcessedEvents[0].Text)
	assert.Equal(t, "Holiday Classic", state.ProcessedEvents[1].Text)
}

func TestRunWritesComplementaryAudits(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	o := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), nil)

	_, err := o.Run(ctx, RunOptions{})
	require.NoError(t, err)

	audits := auditsFor(t, h.store, rowSmithJohnson, "145", time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC))
	require.Len(t, audits, 2)

	var winner, loser *models.RankingMatchAudit
	for _, a := range audits {
		if a.Won {
			winner = a
		} else {
			loser = a
		}
	}
	require.NotNil(t, winner)
	require.NotNil(t, loser)

	assert.Equal(t, winner.AthleteID, loser.OpponentID)
	assert.Equal(t, loser.AthleteID, winner.OpponentID)
	assert.Equal(t, models.ResultDecision, winner.ResultType)
	assert.Equal(t, 2025, winner.SeasonYear)
	assert.Equal(t, "145", winner.WeightClass)
	assert.Equal(t, "Mike", winner.OpponentFirstName)
	assert.Equal(t, "Provo", winner.OpponentSchool)

	assert.InDelta(t, 1500.0, winner.EloBefore, 1e-9)
	assert.InDelta(t, 1508.0, winner.EloAfter, 1e-9)
	assert.InDelta(t, 1492.0, loser.EloAfter, 1e-9)
	assert.InDelta(t, 1500.0, winner.OpponentEloBefore, 1e-9)
	assert.InDelta(t, 0, winner.EloChange()+loser.EloChange(), 1e-9)
	assert.Less(t, winner.GlickoRDAfter, winner.GlickoRDBefore)
	assert.Less(t, loser.GlickoRDAfter, loser.GlickoRDBefore)

	assert.Equal(t, 0, winner.WinsBefore)
	assert.Equal(t, 1, winner.WinsAfter)
	assert.Equal(t, 0, loser.LossesBefore)
	assert.Equal(t, 1, loser.LossesAfter)

	repos := h.store.Repositories()
	sr, err := repos.SeasonRatings.Get(ctx, models.SeasonRatingKey{AthleteID: winner.AthleteID, SeasonYear: 2025, WeightClass: "145"})
	require.NoError(t, err)
	assert.InDelta(t, 1508.0, sr.FinalElo, 1e-9)
	assert.Equal(t, 1, sr.Wins)
	assert.Equal(t, 1, sr.MatchCount)
	assert.InDelta(t, 1508.0, sr.PeakElo, 1e-9)

	athlete, err := repos.Athletes.GetByID(ctx, loser.AthleteID)
	require.NoError(t, err)
	assert.InDelta(t, 1492.0, athlete.Elo, 1e-9)
	assert.Equal(t, "Provo", athlete.School)
}

func TestRunIsIdempotentAfterReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	_, _, auditsBefore := h.store.Counts()

	repos := h.store.Repositories()
	smith, err := repos.Athletes.GetByIdentity(ctx, models.NewAthleteKey("John", "Smith", ""))
	require.NoError(t, err)
	key := models.SeasonRatingKey{AthleteID: smith.ID, SeasonYear: 2025, WeightClass: "145"}
	sr, err := repos.SeasonRatings.Get(ctx, key)
	require.NoError(t, err)
	ratingBefore, athleteBefore := *sr, *smith

	require.NoError(t, h.stateStore.Delete(ctx, testSeason, testRegion))

	report, err := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Totals.Rated)
	assert.Equal(t, 3, report.Totals.Duplicates)
	_, _, auditsAfter := h.store.Counts()
	assert.Equal(t, auditsBefore, auditsAfter)

	// Replayed rows leave every rating untouched
	sr, err = repos.SeasonRatings.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, ratingBefore, *sr)
	smith, err = repos.Athletes.GetByIdentity(ctx, models.NewAthleteKey("John", "Smith", ""))
	require.NoError(t, err)
	assert.Equal(t, athleteBefore, *smith)
}

func TestRunResumesWhereBudgetStopped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first, err := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), nil).Run(ctx, RunOptions{MaxEventsPerRun: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, first.EventsHandled)
	assert.False(t, first.Complete)
	assert.Equal(t, "partial", first.Status())
	assert.InDelta(t, 50.0, first.Stats.PercentComplete, 1e-9)

	second := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), nil)
	report, err := second.Run(ctx, RunOptions{MaxEventsPerRun: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, report.EventsHandled)
	assert.True(t, report.Complete)
	assert.Equal(t, 2, report.Totals.Rated)

	state := second.Tracker().State()
	assert.Len(t, state.ProcessedEvents, 2)
	assert.Equal(t, 3, state.ProcessedMatches)

	third, err := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, third.EventsHandled)
	assert.True(t, third.Complete)
}

func TestRunCountsDuplicateRowsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	file := &fixture.File{
		SeasonKey: testSeason,
		RegionID:  testRegion,
		Events: []fixture.Event{{
			Name: "Rematch Open",
			Date: "Jan 11, 2025",
			Groups: []fixture.Group{
				{WeightClass: "145", Rows: []string{rowSmithJohnson}},
				{WeightClass: "145", Rows: []string{rowSmithJohnson}},
			},
		}},
	}

	report, err := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), file), nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Totals.Groups)
	assert.Equal(t, 1, report.Totals.Rated)
	assert.Equal(t, 1, report.Totals.Duplicates)
	_, _, audits := h.store.Counts()
	assert.Equal(t, 2, audits)
}

func TestRunRecordsParseErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	file := &fixture.File{
		SeasonKey: testSeason,
		RegionID:  testRegion,
		Events: []fixture.Event{{
			Name: "Messy Invite",
			Date: "Jan 18, 2025",
			Groups: []fixture.Group{
				{WeightClass: "160", Rows: []string{"BYE", "Results pending for this bracket", rowBrownDavis}},
			},
		}},
	}

	o := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), file), nil)
	report, err := o.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Totals.Rows)
	assert.Equal(t, 2, report.Totals.ParseErrors)
	assert.Equal(t, 1, report.Totals.Rated)
	assert.Equal(t, report.Totals.Rows, report.Totals.Rated+report.Totals.Duplicates+report.Totals.ParseErrors+report.Totals.PersistenceErrors)

	counts := o.Tracker().State().CountErrors()
	assert.Equal(t, 2, counts[models.ErrorTypeParse])
}

func TestRunMarksFailedGroupEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	file := seasonFixture()
	file.Events[0].Groups = append(file.Events[0].Groups, fixture.Group{WeightClass: "152", Error: "results table did not load"})

	o := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), file), nil)
	report, err := o.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.Complete)

	state := o.Tracker().State()
	require.Len(t, state.FailedEvents, 1)
	assert.Equal(t, "Holiday Classic", state.FailedEvents[0].Text)
	assert.Equal(t, 1, state.CountErrors()[models.ErrorTypeNavigation])

	// Rows of a failed event are not rated
	_, _, audits := h.store.Counts()
	assert.Equal(t, 2, audits)
}

func TestRunHonoursMaxGroupsPerEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	file := seasonFixture()
	file.Events[0].Groups = append(file.Events[0].Groups, fixture.Group{WeightClass: "152", Error: "never fetched"})

	report, err := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), file), nil).Run(ctx, RunOptions{MaxGroupsPerEvent: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.Totals.Groups)
}

// stubNavigator serves fixed events. Fetches for locators in block never return.
type stubNavigator struct {
	events  []models.Event
	rows    map[string][]navigation.RawRow
	block   map[string]bool
	initErr error
	release chan struct{}
}

func (n *stubNavigator) Initialize(ctx context.Context, opts navigation.Options) error {
	return n.initErr
}

func (n *stubNavigator) DiscoverEvents(ctx context.Context, seasonKey, regionID string) ([]models.Event, error) {
	return n.events, nil
}

func (n *stubNavigator) FetchRows(ctx context.Context, event models.Event, groupIndex int) ([]navigation.RawRow, error) {
	if n.block[event.Locator] {
		<-n.release
	}
	if groupIndex > 0 {
		return nil, navigation.ErrNoMoreGroups
	}
	return n.rows[event.Locator], nil
}

func (n *stubNavigator) Teardown(ctx context.Context) error {
	return nil
}

func (n *stubNavigator) Name() string {
	return "stub"
}

func datedEvent(index int, text string, date time.Time, locator string) models.Event {
	return models.Event{Index: index, Text: text, DateText: date.Format("Jan 2, 2006"), ParsedDate: &date, Locator: locator}
}

func TestRunSkipsFutureAndUnlinkedEvents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	nav := &stubNavigator{
		events: []models.Event{
			datedEvent(0, "Past Duals", time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), "past"),
			datedEvent(1, "No Link Open", time.Date(2025, time.February, 8, 0, 0, 0, 0, time.UTC), ""),
			datedEvent(2, "State Finals", time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC), "future"),
		},
		rows: map[string][]navigation.RawRow{
			"past": {{WeightClass: "138", Text: rowBrownDavis}},
		},
	}

	o := h.orchestrator(t, nav, nil)
	report, err := o.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 2, report.Skipped)

	state := o.Tracker().State()
	require.Len(t, state.SkippedEvents, 2)
	assert.Equal(t, ReasonNoLocator, state.SkippedEvents[0].Reason)
	assert.Equal(t, ReasonFutureEvent, state.SkippedEvents[1].Reason)
}

func TestRunFailsEventWhenFetchHangs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	nav := &stubNavigator{
		events: []models.Event{
			datedEvent(0, "Stuck Invite", time.Date(2025, time.January, 4, 0, 0, 0, 0, time.UTC), "stuck"),
			datedEvent(1, "Quick Duals", time.Date(2025, time.January, 11, 0, 0, 0, 0, time.UTC), "quick"),
		},
		rows: map[string][]navigation.RawRow{
			"quick": {{WeightClass: "120", Text: rowLeeGarcia}},
		},
		block:   map[string]bool{"stuck": true},
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(nav.release) })

	o, err := NewOrchestrator(Deps{
		Navigator:  nav,
		Store:      h.store,
		StateStore: h.stateStore,
		Logger:     logger.Discard(),
	}, Config{
		SeasonKey:    testSeason,
		RegionID:     testRegion,
		FetchTimeout: 20 * time.Millisecond,
		Now:          func() time.Time { return testNow },
	})
	require.NoError(t, err)

	report, err := o.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Processed)
	assert.True(t, report.Complete)

	state := o.Tracker().State()
	require.Len(t, state.FailedEvents, 1)
	assert.Contains(t, state.FailedEvents[0].Reason, "did not finish")
}

// failingStore fails every transaction whose fn touches a given athlete
type failingStore struct {
	*memory.Store
	failLastName string
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := fn(ctx, repos); err != nil {
			return err
		}
		if _, err := repos.Athletes.GetByIdentity(ctx, models.NewAthleteKey("Tom", s.failLastName, "")); err == nil {
			return errors.New("connection reset by peer")
		}
		return nil
	})
}

func TestRunRecordsPersistenceErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	store := &failingStore{Store: h.store, failLastName: "Brown"}

	o := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), seasonFixture()), store)
	report, err := o.Run(ctx, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Totals.PersistenceErrors)
	assert.Equal(t, 2, report.Totals.Rated)
	assert.Equal(t, 1, o.Tracker().State().CountErrors()[models.ErrorTypeRatingPersistence])

	// The failed match left nothing behind
	_, err = h.store.Repositories().Athletes.GetByIdentity(ctx, models.NewAthleteKey("Tom", "Brown", ""))
	assert.ErrorIs(t, err, models.ErrNotFound)
	athletes, _, audits := h.store.Counts()
	assert.Equal(t, 4, athletes)
	assert.Equal(t, 4, audits)
}

func TestRunAbortsWhenNavigatorCannotStart(t *testing.T) {
	h := newHarness(t)
	nav := &stubNavigator{initErr: errors.New("chrome not found")}

	report, err := h.orchestrator(t, nav, nil).Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "failed to initialize navigator")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	nav := &stubNavigator{
		events: []models.Event{
			datedEvent(0, "Past Duals", time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), "past"),
		},
	}
	o := h.orchestrator(t, nav, nil)
	cancel()

	report, err := o.Run(ctx, RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.EventsHandled)
	assert.False(t, o.Tracker().IsComplete())
}

func TestRunHaltsAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	broken := func(name, date string) fixture.Event {
		return fixture.Event{Name: name, Date: date, Groups: []fixture.Group{{WeightClass: "145", Error: "results table did not load"}}}
	}
	file := &fixture.File{
		SeasonKey: testSeason,
		RegionID:  testRegion,
		Events: []fixture.Event{
			broken("Opener", "Nov 2, 2024"),
			broken("Duals", "Nov 9, 2024"),
			broken("Invite", "Nov 16, 2024"),
			{Name: "Classic", Date: "Nov 23, 2024", Groups: []fixture.Group{{WeightClass: "145", Rows: []string{rowBrownDavis}}}},
		},
	}

	o := h.orchestrator(t, fixture.NewFromFile(logger.Discard(), file), nil)
	report, err := o.Run(ctx, RunOptions{MaxConsecutiveFailures: 2})
	require.NoError(t, err)

	assert.True(t, report.Halted)
	assert.Equal(t, "halted", report.Status())
	assert.Contains(t, report.HaltReason, "2 consecutive events failed")
	assert.Equal(t, 2, report.EventsHandled)
	assert.Equal(t, 2, report.Failed)
	assert.False(t, report.Complete)

	// Without the breaker the rest of the season is handled
	report, err = h.orchestrator(t, fixture.NewFromFile(logger.Discard(), file), nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.False(t, report.Halted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Processed)
	assert.True(t, report.Complete)
}

func TestProcessRowUsesTheEventCacheItIsGiven(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	o := h.orchestrator(t, &stubNavigator{}, nil)

	date := time.Date(2025, time.January, 4, 0, 0, 0, 0, time.UTC)
	event := datedEvent(0, "Region Duals", date, "duals")
	row := navigation.RawRow{WeightClass: "138", Text: rowBrownDavis}
	record := parser.Parse(row.Text, row.WeightClass, &date)
	require.NotNil(t, record)

	seen := dedup.NewEventCache()
	seen.SeenAndRecord(dedup.ComputeHash(record))
	var summary models.EventSummary
	o.processRow(ctx, event, row, seen, &summary)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 0, summary.Rated)
	_, _, audits := h.store.Counts()
	assert.Equal(t, 0, audits)

	fresh := dedup.NewEventCache()
	summary = models.EventSummary{}
	o.processRow(ctx, event, row, fresh, &summary)
	assert.Equal(t, 1, summary.Rated)
	assert.Equal(t, 1, fresh.Len())
	_, _, audits = h.store.Counts()
	assert.Equal(t, 2, audits)
}
