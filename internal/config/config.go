package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"

	"github.com/belphemur/holidays/internal/constants"
)

// EnvPrefix prefixes every environment override; "__" separates nested keys,
// e.g. HOLIDAYS_CALENDAR__ID or HOLIDAYS_SERVICE__LOG_LEVEL.
const EnvPrefix = "HOLIDAYS_"

const (
	calendarPlaceholder = "{calendar}"
	languagePlaceholder = "{lang}"
)

// Config holds the application configuration
type Config struct {
	Calendar     CalendarConfig     `koanf:"calendar"`
	Feed         FeedConfig         `koanf:"feed"`
	Schedule     ScheduleConfig     `koanf:"schedule"`
	Connectivity ConnectivityConfig `koanf:"connectivity"`
	Publish      PublishConfig      `koanf:"publish"`
	Service      ServiceConfig      `koanf:"service"`
}

// CalendarConfig is the user selection: which holiday calendar, in which language
type CalendarConfig struct {
	ID       string `koanf:"id"`
	Language string `koanf:"language"`
}

// Configured reports whether a calendar has been selected
func (c CalendarConfig) Configured() bool {
	return strings.TrimSpace(c.ID) != ""
}

// FeedConfig describes where calendar documents are fetched from
type FeedConfig struct {
	URLTemplate  string        `koanf:"url_template"`
	Timeout      time.Duration `koanf:"timeout"`
	GoogleAPIKey string        `koanf:"google_api_key"`
}

// ScheduleConfig holds the trigger cadence
type ScheduleConfig struct {
	Periodic           string        `koanf:"periodic"`
	Midnight           bool          `koanf:"midnight"`
	ClockWatchInterval time.Duration `koanf:"clock_watch_interval"`
	ClockJumpThreshold time.Duration `koanf:"clock_jump_threshold"`
}

// ConnectivityConfig controls the reachability probe run before fetching
type ConnectivityConfig struct {
	Enabled        bool          `koanf:"enabled"`
	ProbeAddresses []string      `koanf:"probe_addresses"`
	Timeout        time.Duration `koanf:"timeout"`
}

// PublishConfig holds the texts and identifiers attached to published results
type PublishConfig struct {
	Icon             string `koanf:"icon"`
	SettingsTarget   string `koanf:"settings_target"`
	NotConfigured    string `koanf:"not_configured"`
	MultipleHolidays string `koanf:"multiple_holidays"`
	Notify           bool   `koanf:"notify"`
}

// ServiceConfig holds the service configuration
type ServiceConfig struct {
	Instance  string `koanf:"instance"`
	StateFile string `koanf:"state_file"`
	LogLevel  string `koanf:"log_level"`
	Port      int    `koanf:"port"`
}

// defaults returns the flattened default values loaded before the file and environment
func defaults() map[string]any {
	return map[string]any{
		"calendar.id":                   "",
		"calendar.language":             constants.DefaultLanguage,
		"feed.url_template":             "https://calendar.google.com/calendar/ical/{lang}.{calendar}/public/basic.ics",
		"feed.timeout":                  "30s",
		"feed.google_api_key":           "",
		"schedule.periodic":             "@every 1h",
		"schedule.midnight":             true,
		"schedule.clock_watch_interval": "1m",
		"schedule.clock_jump_threshold": "5s",
		"connectivity.enabled":          true,
		"connectivity.probe_addresses":  []string{"calendar.google.com:443"},
		"connectivity.timeout":          "3s",
		"publish.icon":                  constants.DefaultIcon,
		"publish.settings_target":       constants.DefaultSettingsTarget,
		"publish.not_configured":        "Not configured",
		"publish.multiple_holidays":     "%d holidays today",
		"publish.notify":                false,
		"service.instance":              "default",
		"service.state_file":            "data/holidays.db",
		"service.log_level":             "info",
		"service.port":                  8888,
	}
}

// Load reads the configuration file, applies environment overrides and validates the result
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	// PORT is honoured for container platforms, like the HTTP port override of the service.
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT environment variable %q: %w", portStr, err)
		}
		cfg.Service.Port = port
	}

	cfg.normalize()

	// Ensure the state file path is absolute
	if !filepath.IsAbs(cfg.Service.StateFile) {
		configDir := filepath.Dir(path)
		abs, err := filepath.Abs(filepath.Join(configDir, "..", cfg.Service.StateFile))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state file path: %w", err)
		}
		cfg.Service.StateFile = abs
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// normalize trims user input and restores defaults for values that must never be empty
func (cfg *Config) normalize() {
	cfg.Calendar.ID = strings.TrimSpace(cfg.Calendar.ID)
	cfg.Calendar.Language = strings.TrimSpace(cfg.Calendar.Language)
	if cfg.Calendar.Language == "" {
		cfg.Calendar.Language = constants.DefaultLanguage
	}
	if cfg.Service.Instance == "" {
		cfg.Service.Instance = "default"
	}
}

// FeedURL expands the URL template for a calendar. The calendar id is percent-encoded.
func (f FeedConfig) FeedURL(calendarID, language string) string {
	return strings.NewReplacer(
		languagePlaceholder, url.PathEscape(language),
		calendarPlaceholder, url.QueryEscape(calendarID),
	).Replace(f.URLTemplate)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if !constants.IsValidLanguage(cfg.Calendar.Language) {
		return fmt.Errorf("invalid calendar language: %s", cfg.Calendar.Language)
	}

	if !strings.Contains(cfg.Feed.URLTemplate, calendarPlaceholder) {
		return fmt.Errorf("feed url_template must contain %s", calendarPlaceholder)
	}
	parsed, err := url.Parse(cfg.Feed.FeedURL("x", "en"))
	if err != nil {
		return fmt.Errorf("invalid feed url_template: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("feed url_template must use http or https, got %q", parsed.Scheme)
	}
	if cfg.Feed.Timeout < 0 {
		return fmt.Errorf("feed timeout must not be negative")
	}

	if _, err := cron.ParseStandard(cfg.Schedule.Periodic); err != nil {
		return fmt.Errorf("invalid periodic schedule %q: %w", cfg.Schedule.Periodic, err)
	}
	if cfg.Schedule.ClockWatchInterval < 0 {
		return fmt.Errorf("clock watch interval must not be negative")
	}
	if cfg.Schedule.ClockWatchInterval > 0 && cfg.Schedule.ClockJumpThreshold <= 0 {
		return fmt.Errorf("clock jump threshold must be positive when the clock watch is enabled")
	}

	if cfg.Connectivity.Enabled {
		if len(cfg.Connectivity.ProbeAddresses) == 0 {
			return fmt.Errorf("at least one connectivity probe address is required")
		}
		if cfg.Connectivity.Timeout <= 0 {
			return fmt.Errorf("connectivity timeout must be positive")
		}
	}

	if strings.Count(cfg.Publish.MultipleHolidays, "%d") != 1 {
		return fmt.Errorf("publish multiple_holidays must contain exactly one %%d verb")
	}

	if cfg.Service.Port < 0 || cfg.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", cfg.Service.Port)
	}

	return nil
}
