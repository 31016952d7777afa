package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "MAT_RANKINGS"
	defaultConfigPath = "config/config.yaml"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	NavigatorHTML    = "html"
	NavigatorBrowser = "browser"
	NavigatorFixture = "fixture"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	applySelectorDefaults(&cfg.Navigation.Selectors)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mat-rankings")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("store.driver", StoreDriverPostgres)

	v.SetDefault("crawl.state_dir", "state")
	v.SetDefault("crawl.max_events_per_run", 0)
	v.SetDefault("crawl.max_groups_per_event", 40)
	v.SetDefault("crawl.max_consecutive_failures", 5)
	v.SetDefault("crawl.fetch_timeout_seconds", 60)
	v.SetDefault("crawl.skip_future_events", true)

	v.SetDefault("navigation.driver", NavigatorHTML)
	v.SetDefault("navigation.events_path", "/seasons/{season}/regions/{region}/events")
	v.SetDefault("navigation.timeout_seconds", 30)
	v.SetDefault("navigation.max_retries", 3)
	v.SetDefault("navigation.requests_per_second", 1.0)
	v.SetDefault("navigation.headless", true)

	v.SetDefault("rating.elo_k", 16)
	v.SetDefault("rating.initial_elo", 1500)
	v.SetDefault("rating.initial_glicko", 1500)
	v.SetDefault("rating.initial_rd", 350)
	v.SetDefault("rating.initial_volatility", 0.06)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.job_name", "mat_ingest")

	v.SetDefault("schedule.cron", "0 */6 * * *")
	v.SetDefault("schedule.health_port", 8080)
}

func applySelectorDefaults(s *SelectorsConfig) {
	if s.Event == "" {
		s.Event = "tr.event"
	}
	if s.EventName == "" {
		s.EventName = ".event-name"
	}
	if s.EventDate == "" {
		s.EventDate = ".event-date"
	}
	if s.EventLink == "" {
		s.EventLink = "a"
	}
	if s.Group == "" {
		s.Group = "div.result-group"
	}
	if s.WeightClass == "" {
		s.WeightClass = ".weight-class"
	}
	if s.Match == "" {
		s.Match = "li.match"
	}
}
