// Package service drives a bounded crawl: events are pulled from a navigator,
// their rows parsed, deduplicated and rated, and progress checkpointed after
// every event.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/mat-rankings/internal/dedup"
	"github.com/yourusername/mat-rankings/internal/logger"
	"github.com/yourusername/mat-rankings/internal/metrics"
	"github.com/yourusername/mat-rankings/internal/models"
	"github.com/yourusername/mat-rankings/internal/navigation"
	"github.com/yourusername/mat-rankings/internal/parser"
	"github.com/yourusername/mat-rankings/internal/rating"
	"github.com/yourusername/mat-rankings/internal/repository"
	"github.com/yourusername/mat-rankings/internal/tracker"
)

// Skip reasons recorded on skipped events
const (
	ReasonFutureEvent = "event has not happened yet"
	ReasonNoLocator   = "event has no results link"
)

// errDuplicateMatch marks a match whose audits already exist
var errDuplicateMatch = errors.New("match already rated")

// Deps holds the collaborators of an orchestrator
type Deps struct {
	Navigator  navigation.Navigator
	Store      repository.Store
	StateStore tracker.StateStore
	Engine     *rating.Engine
	Logger     *logrus.Logger
}

// Config controls one orchestrator
type Config struct {
	SeasonKey        string
	RegionID         string
	Navigation       navigation.Options
	FetchTimeout     time.Duration
	SkipFutureEvents bool
	// SchoolAliases maps school spellings to a canonical name
	SchoolAliases map[string]string
	// Now defaults to time.Now
	Now func() time.Time
}

// RunOptions bounds a single run. Zero means unlimited.
type RunOptions struct {
	MaxEventsPerRun   int
	MaxGroupsPerEvent int
	// MaxConsecutiveFailures stops the run early when the site keeps failing
	MaxConsecutiveFailures int
}

// Orchestrator ties navigation, parsing, dedup, rating and crawl state together
type Orchestrator struct {
	nav     navigation.Navigator
	store   repository.Store
	tracker *tracker.Tracker
	engine  *rating.Engine
	checker *dedup.Checker
	norm    *RecordNormalizer
	cfg     Config

	logger      *logrus.Logger
	auditLogger *logger.AuditLogger
	crawlLogger *logger.CrawlLogger
}

// NewOrchestrator creates an orchestrator for one season and region
func NewOrchestrator(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Navigator == nil {
		return nil, fmt.Errorf("navigator is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.StateStore == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if cfg.SeasonKey == "" || cfg.RegionID == "" {
		return nil, fmt.Errorf("season and region are required")
	}
	if deps.Engine == nil {
		deps.Engine = rating.NewEngine(rating.DefaultConfig())
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Orchestrator{
		nav:         deps.Navigator,
		store:       deps.Store,
		tracker:     tracker.New(deps.StateStore, cfg.SeasonKey, cfg.RegionID, deps.Logger),
		engine:      deps.Engine,
		checker:     dedup.NewChecker(deps.Store.Repositories().Audits),
		norm:        NewRecordNormalizer(cfg.SchoolAliases),
		cfg:         cfg,
		logger:      deps.Logger,
		auditLogger: logger.NewAuditLogger(deps.Logger),
		crawlLogger: logger.NewCrawlLogger(deps.Logger, cfg.SeasonKey, cfg.RegionID),
	}, nil
}

// Tracker exposes the crawl tracker, mainly for reporting after a run
func (o *Orchestrator) Tracker() *tracker.Tracker {
	return o.tracker
}

// Run initializes the navigator, discovers and orders the season's events,
// then handles pending events until the crawl completes or the event budget
// is spent. Only setup failures, checkpoint failures and cancellation return
// an error; everything else is recorded in the crawl state.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	start := o.cfg.Now()
	report := newRunReport(o.cfg.SeasonKey, o.cfg.RegionID, start)

	o.logger.WithFields(logrus.Fields{
		"run_id":     report.RunID.String(),
		"season":     o.cfg.SeasonKey,
		"region":     o.cfg.RegionID,
		"navigator":  o.nav.Name(),
		"max_events": opts.MaxEventsPerRun,
	}).Info("Starting crawl run")

	if err := o.nav.Initialize(ctx, o.cfg.Navigation); err != nil {
		return nil, fmt.Errorf("failed to initialize navigator: %w", err)
	}
	defer func() {
		if err := o.nav.Teardown(context.Background()); err != nil {
			o.logger.WithError(err).Warn("Navigator teardown failed")
		}
	}()

	events, err := o.nav.DiscoverEvents(ctx, o.cfg.SeasonKey, o.cfg.RegionID)
	if err != nil {
		return nil, fmt.Errorf("failed to discover events: %w", err)
	}
	if err := o.tracker.Initialize(ctx, events); err != nil {
		return nil, fmt.Errorf("failed to initialize crawl state: %w", err)
	}

	runErr := o.loop(ctx, opts, report)
	if runErr == nil {
		// Errors recorded after the last outcome
		runErr = o.tracker.Checkpoint(ctx)
	}

	report.Duration = o.cfg.Now().Sub(start)
	report.Stats = o.tracker.Stats()
	report.Complete = o.tracker.IsComplete()

	status := report.Status()
	if runErr != nil {
		status = "failed"
	}
	metrics.UpdateProgress(o.cfg.SeasonKey, o.cfg.RegionID, report.Stats.PercentComplete)
	metrics.RecordRun(o.cfg.SeasonKey, o.cfg.RegionID, status, report.Duration.Seconds(), float64(o.cfg.Now().Unix()))
	o.crawlLogger.LogRunSummary(report.EventsHandled, report.Totals, report.Stats, report.Duration, report.Complete)

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

func (o *Orchestrator) loop(ctx context.Context, opts RunOptions, report *RunReport) error {
	breaker := NewFailureBreaker(opts.MaxConsecutiveFailures, o.logger)
	for opts.MaxEventsPerRun <= 0 || report.EventsHandled < opts.MaxEventsPerRun {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl interrupted: %w", err)
		}

		event, ok := o.tracker.Next()
		if !ok {
			return nil
		}

		outcome, cause, err := o.handleEvent(ctx, event, opts, report)
		if err != nil {
			return err
		}
		report.EventsHandled++
		switch outcome {
		case metrics.OutcomeFailed:
			breaker.RecordFailure(cause)
		case metrics.OutcomeProcessed:
			breaker.RecordSuccess()
		}
		o.crawlLogger.LogProgress(o.tracker.Stats())
		metrics.UpdateProgress(o.cfg.SeasonKey, o.cfg.RegionID, o.tracker.Stats().PercentComplete)

		if breaker.IsOpen() {
			report.Halted = true
			report.HaltReason = breaker.Reason()
			return nil
		}
	}
	return nil
}

// handleEvent gives the event exactly one terminal outcome. For a failed
// event the fetch error is returned as cause.
func (o *Orchestrator) handleEvent(ctx context.Context, event models.Event, opts RunOptions, report *RunReport) (outcome string, cause error, err error) {
	start := time.Now()

	if reason := o.skipReason(event); reason != "" {
		if err := o.tracker.MarkSkipped(ctx, event, reason); err != nil {
			return "", nil, err
		}
		report.Skipped++
		metrics.RecordEvent(o.cfg.SeasonKey, o.cfg.RegionID, metrics.OutcomeSkipped, 0)
		o.crawlLogger.LogEventOutcome(event, metrics.OutcomeSkipped, reason, nil)
		return metrics.OutcomeSkipped, nil, nil
	}

	rows, groups, fetchErr := o.fetchEvent(ctx, event, opts.MaxGroupsPerEvent)
	if fetchErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", nil, fmt.Errorf("crawl interrupted: %w", ctxErr)
		}
		if err := o.tracker.MarkFailed(ctx, event, fetchErr); err != nil {
			return "", nil, err
		}
		report.Failed++
		metrics.RecordEvent(o.cfg.SeasonKey, o.cfg.RegionID, metrics.OutcomeFailed, time.Since(start).Seconds())
		o.crawlLogger.LogEventOutcome(event, metrics.OutcomeFailed, fetchErr.Error(), nil)
		return metrics.OutcomeFailed, fetchErr, nil
	}

	summary := models.EventSummary{Groups: groups, Rows: len(rows)}
	seen := dedup.NewEventCache()
	for _, row := range rows {
		o.processRow(ctx, event, row, seen, &summary)
	}
	summary.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return "", nil, fmt.Errorf("crawl interrupted: %w", err)
	}

	if err := o.tracker.MarkProcessed(ctx, event, summary); err != nil {
		return "", nil, err
	}

	report.Processed++
	report.addEvent(summary)
	o.recordRowMetrics(summary)
	metrics.RecordEvent(o.cfg.SeasonKey, o.cfg.RegionID, metrics.OutcomeProcessed, summary.Duration.Seconds())
	o.crawlLogger.LogEventOutcome(event, metrics.OutcomeProcessed, "", &summary)
	return metrics.OutcomeProcessed, nil, nil
}

func (o *Orchestrator) skipReason(event models.Event) string {
	if o.cfg.SkipFutureEvents && event.IsFuture(o.cfg.Now()) {
		return ReasonFutureEvent
	}
	if event.Locator == "" {
		return ReasonNoLocator
	}
	return ""
}

// fetchEvent reads result groups until the navigator runs out or maxGroups is reached
func (o *Orchestrator) fetchEvent(ctx context.Context, event models.Event, maxGroups int) ([]navigation.RawRow, int, error) {
	var rows []navigation.RawRow
	groups := 0
	for gi := 0; maxGroups <= 0 || gi < maxGroups; gi++ {
		groupRows, err := o.fetchGroup(ctx, event, gi)
		if errors.Is(err, navigation.ErrNoMoreGroups) {
			break
		}
		if err != nil {
			o.recordNavigationError(err)
			return nil, groups, fmt.Errorf("group %d: %w", gi, err)
		}
		groups++
		rows = append(rows, groupRows...)
	}
	return rows, groups, nil
}

type fetchResult struct {
	rows []navigation.RawRow
	err  error
}

// fetchGroup bounds one FetchRows call even when the navigator ignores its context
func (o *Orchestrator) fetchGroup(ctx context.Context, event models.Event, groupIndex int) ([]navigation.RawRow, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		rows, err := o.nav.FetchRows(fetchCtx, event, groupIndex)
		done <- fetchResult{rows: rows, err: err}
	}()

	select {
	case res := <-done:
		metrics.RecordFetch(time.Since(start).Seconds())
		return res.rows, res.err
	case <-fetchCtx.Done():
		return nil, navigation.NewError(o.nav.Name(), navigation.ErrCodeTimeout,
			fmt.Sprintf("fetch did not finish within %s", o.cfg.FetchTimeout), fetchCtx.Err())
	}
}

func (o *Orchestrator) recordNavigationError(err error) {
	code := "unknown"
	var navErr *navigation.Error
	if errors.As(err, &navErr) {
		code = navErr.Code
	}
	metrics.RecordNavigationError(code)
}

// processRow rates one row. seen holds the hashes of this event's earlier rows.
// Every failure is recorded and counted, never returned.
func (o *Orchestrator) processRow(ctx context.Context, event models.Event, row navigation.RawRow, seen *dedup.EventCache, summary *models.EventSummary) {
	record := parser.Parse(row.Text, row.WeightClass, event.ParsedDate)
	if record == nil {
		o.rowError(event, summary, models.ErrorTypeParse, row.Text, "unrecognized match text")
		return
	}
	o.norm.Normalize(record)
	if err := parser.Validate(record); err != nil {
		o.rowError(event, summary, models.ErrorTypeParse, row.Text, err.Error())
		return
	}
	winnerKey := models.NewAthleteKey(record.Winner.FirstName, record.Winner.LastName, "")
	loserKey := models.NewAthleteKey(record.Loser.FirstName, record.Loser.LastName, "")
	if winnerKey == loserKey {
		o.rowError(event, summary, models.ErrorTypeParse, row.Text, "winner and loser are the same athlete")
		return
	}
	seasonYear, err := models.SeasonYear(record.EventDate, o.cfg.SeasonKey)
	if err != nil {
		o.rowError(event, summary, models.ErrorTypeParse, row.Text, err.Error())
		return
	}

	matchHash := dedup.ComputeHash(record)
	if seen.SeenAndRecord(matchHash) {
		summary.Duplicates++
		o.auditLogger.LogDuplicateSkipped(matchHash, "event", event.Index)
		return
	}
	outcome, err := o.checker.CheckAndReserve(ctx, matchHash)
	if err != nil {
		o.rowError(event, summary, models.ErrorTypeRatingPersistence, row.Text, err.Error())
		return
	}
	if outcome == dedup.OutcomeDuplicate {
		summary.Duplicates++
		o.auditLogger.LogDuplicateSkipped(matchHash, "store", event.Index)
		return
	}

	audits, err := o.rateMatch(ctx, record, matchHash, seasonYear, winnerKey, loserKey)
	if errors.Is(err, errDuplicateMatch) {
		summary.Duplicates++
		o.auditLogger.LogDuplicateSkipped(matchHash, "constraint", event.Index)
		return
	}
	if err != nil {
		o.rowError(event, summary, models.ErrorTypeRatingPersistence, row.Text, err.Error())
		return
	}

	summary.Rated++
	metrics.RecordMatchRated(string(record.Result.Type))
	o.auditLogger.LogRatingChange(audits[0], record.Winner.FullName())
	o.auditLogger.LogRatingChange(audits[1], record.Loser.FullName())
}

func (o *Orchestrator) rowError(event models.Event, summary *models.EventSummary, errType models.ErrorType, rowText, message string) {
	switch errType {
	case models.ErrorTypeParse:
		summary.ParseErrors++
	case models.ErrorTypeRatingPersistence:
		summary.PersistenceErrors++
	}
	o.tracker.RecordError(models.ErrorRecord{
		Type:       errType,
		Context:    rowText,
		Message:    message,
		EventIndex: event.Index,
	})
	o.crawlLogger.LogRowError(event.Index, errType, rowText, message)
}

func (o *Orchestrator) recordRowMetrics(s models.EventSummary) {
	metrics.RecordRows(o.cfg.SeasonKey, o.cfg.RegionID, metrics.RowRated, s.Rated)
	metrics.RecordRows(o.cfg.SeasonKey, o.cfg.RegionID, metrics.RowDuplicate, s.Duplicates)
	metrics.RecordRows(o.cfg.SeasonKey, o.cfg.RegionID, metrics.RowParseError, s.ParseErrors)
	metrics.RecordRows(o.cfg.SeasonKey, o.cfg.RegionID, metrics.RowPersistenceError, s.PersistenceErrors)
}
