// Package config provides configuration management for the mat-rankings ingester.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Store      StoreConfig      `mapstructure:"store" validate:"required"`
	Crawl      CrawlConfig      `mapstructure:"crawl" validate:"required"`
	Navigation NavigationConfig `mapstructure:"navigation" validate:"required"`
	Rating     RatingConfig     `mapstructure:"rating" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
	EnsureSchema       bool   `mapstructure:"ensure_schema"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,storedriver"`
}

// CrawlConfig controls a batch run over one season and region
type CrawlConfig struct {
	SeasonKey              string `mapstructure:"season_key"`
	RegionID               string `mapstructure:"region_id"`
	StateDir               string `mapstructure:"state_dir" validate:"required"`
	MaxEventsPerRun        int    `mapstructure:"max_events_per_run" validate:"gte=0"`
	MaxGroupsPerEvent      int    `mapstructure:"max_groups_per_event" validate:"required,gt=0"`
	MaxConsecutiveFailures int    `mapstructure:"max_consecutive_failures" validate:"gte=0"`
	FetchTimeoutSeconds    int    `mapstructure:"fetch_timeout_seconds" validate:"required,gt=0"`
	SkipFutureEvents       bool   `mapstructure:"skip_future_events"`
	// SchoolAliases maps alternate school spellings to one canonical name
	SchoolAliases map[string]string `mapstructure:"school_aliases"`
}

// NavigationConfig configures how raw rows are pulled from the results site
type NavigationConfig struct {
	Driver            string          `mapstructure:"driver" validate:"required,navigator"`
	BaseURL           string          `mapstructure:"base_url" validate:"omitempty,url"`
	EventsPath        string          `mapstructure:"events_path"`
	FixturePath       string          `mapstructure:"fixture_path"`
	UserAgent         string          `mapstructure:"user_agent"`
	TimeoutSeconds    int             `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int             `mapstructure:"max_retries" validate:"gte=0"`
	RequestsPerSecond float64         `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Headless          bool            `mapstructure:"headless"`
	Selectors         SelectorsConfig `mapstructure:"selectors"`
}

// SelectorsConfig holds the CSS selectors used to read the results pages
type SelectorsConfig struct {
	Event       string `mapstructure:"event"`
	EventName   string `mapstructure:"event_name"`
	EventDate   string `mapstructure:"event_date"`
	EventLink   string `mapstructure:"event_link"`
	Group       string `mapstructure:"group"`
	WeightClass string `mapstructure:"weight_class"`
	Match       string `mapstructure:"match"`
}

// RatingConfig holds rating engine parameters
type RatingConfig struct {
	EloK              float64 `mapstructure:"elo_k" validate:"required,gt=0"`
	InitialElo        float64 `mapstructure:"initial_elo" validate:"required,gt=0"`
	InitialGlicko     float64 `mapstructure:"initial_glicko" validate:"required,gt=0"`
	InitialRD         float64 `mapstructure:"initial_rd" validate:"required,gt=0"`
	InitialVolatility float64 `mapstructure:"initial_volatility" validate:"required,gt=0,lt=1"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path           string `mapstructure:"path"`
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`
	JobName        string `mapstructure:"job_name"`
}

// ScheduleConfig configures repeated bounded runs
type ScheduleConfig struct {
	Cron       string           `mapstructure:"cron" validate:"omitempty,cronspec"`
	HealthPort int              `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
	Targets    []ScheduleTarget `mapstructure:"targets" validate:"dive"`
}

// ScheduleTarget is one season and region crawled on the schedule
type ScheduleTarget struct {
	SeasonKey string `mapstructure:"season_key" validate:"required"`
	RegionID  string `mapstructure:"region_id" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesPostgres reports whether ratings are persisted to PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.Store.Driver == StoreDriverPostgres
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// FetchTimeout returns the per-group fetch deadline
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawl.FetchTimeoutSeconds) * time.Second
}

// NavigationTimeout returns the HTTP or page load timeout
func (c *Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Navigation.TimeoutSeconds) * time.Second
}
