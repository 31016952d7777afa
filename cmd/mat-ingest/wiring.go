package main

import (
	"context"
	"fmt"

	"github.com/yourusername/mat-rankings/internal/config"
	"github.com/yourusername/mat-rankings/internal/database"
	"github.com/yourusername/mat-rankings/internal/metrics"
	"github.com/yourusername/mat-rankings/internal/navigation"
	"github.com/yourusername/mat-rankings/internal/navigation/browser"
	"github.com/yourusername/mat-rankings/internal/navigation/fixture"
	"github.com/yourusername/mat-rankings/internal/navigation/htmlnav"
	"github.com/yourusername/mat-rankings/internal/rating"
	"github.com/yourusername/mat-rankings/internal/repository"
	"github.com/yourusername/mat-rankings/internal/repository/memory"
	"github.com/yourusername/mat-rankings/internal/service"
	"github.com/yourusername/mat-rankings/internal/tracker"
)

// newNavigator builds the navigator named in the configuration
func newNavigator() (navigation.Navigator, error) {
	switch cfg.Navigation.Driver {
	case config.NavigatorHTML:
		return htmlnav.New(appLog), nil
	case config.NavigatorBrowser:
		return browser.New(appLog, nil), nil
	case config.NavigatorFixture:
		return fixture.New(appLog), nil
	default:
		return nil, fmt.Errorf("unknown navigator %q", cfg.Navigation.Driver)
	}
}

// storeHandle is an open persistence backend. db is nil for the memory store.
type storeHandle struct {
	store repository.Store
	db    *database.DB
}

func (h *storeHandle) Close() {
	if h.db != nil {
		h.db.Close()
	}
}

// openStore connects to the configured store, creating the schema when asked to
func openStore(ctx context.Context) (*storeHandle, error) {
	if !cfg.UsesPostgres() {
		appLog.Warn("Using in-memory store; ratings are discarded when the process exits")
		return &storeHandle{store: memory.NewStore()}, nil
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.EnsureSchema {
		if err := database.EnsureSchema(ctx, db.Querier()); err != nil {
			db.Close()
			return nil, err
		}
	}

	store, err := repository.NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}
	appLog.WithField("host", cfg.Database.Host).Info("Database connection established")
	return &storeHandle{store: store, db: db}, nil
}

func newStateStore() (*tracker.FileStateStore, error) {
	return tracker.NewFileStateStore(cfg.Crawl.StateDir)
}

func newEngine() *rating.Engine {
	return rating.NewEngine(rating.Config{
		EloK:              cfg.Rating.EloK,
		InitialElo:        cfg.Rating.InitialElo,
		InitialGlicko:     cfg.Rating.InitialGlicko,
		InitialRD:         cfg.Rating.InitialRD,
		InitialVolatility: cfg.Rating.InitialVolatility,
	})
}

// runTarget performs one bounded run for a season and region
func runTarget(ctx context.Context, store repository.Store, seasonKey, regionID string, opts service.RunOptions) (*service.RunReport, error) {
	nav, err := newNavigator()
	if err != nil {
		return nil, err
	}
	stateStore, err := newStateStore()
	if err != nil {
		return nil, err
	}

	orch, err := service.NewOrchestrator(service.Deps{
		Navigator:  nav,
		Store:      store,
		StateStore: stateStore,
		Engine:     newEngine(),
		Logger:     appLog,
	}, service.Config{
		SeasonKey:        seasonKey,
		RegionID:         regionID,
		Navigation:       navigation.OptionsFromConfig(cfg),
		FetchTimeout:     cfg.FetchTimeout(),
		SkipFutureEvents: cfg.Crawl.SkipFutureEvents,
		SchoolAliases:    cfg.Crawl.SchoolAliases,
	})
	if err != nil {
		return nil, err
	}

	return orch.Run(ctx, opts)
}

// pushMetrics sends run metrics to the Pushgateway when one is configured
func pushMetrics(ctx context.Context, seasonKey, regionID string) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, seasonKey, regionID); err != nil {
		appLog.WithError(err).Warn("Failed to push metrics")
	}
}
