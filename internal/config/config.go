package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// DefaultPreviewCacheTTL is how long a preview stays cached when previewCacheTTL is unset
const DefaultPreviewCacheTTL = 5 * time.Minute

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database selects the store backing the roster
type Database struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `yaml:"url" validate:"required"`
}

// Parish holds parish-wide settings
type Parish struct {
	Location string `yaml:"location,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
}

// Engine tunes the allocation engine. Unset values fall back to the engine defaults.
type Engine struct {
	ServingRoles           []string `yaml:"servingRoles,omitempty" validate:"omitempty,dive,oneof=minister coordinator manager"`
	PairingTolerance       *int     `yaml:"pairingTolerance,omitempty" validate:"omitempty,min=0"`
	AlternateOnlyPenalty   *float64 `yaml:"alternateOnlyPenalty,omitempty" validate:"omitempty,min=0,max=1"`
	LowConfidenceThreshold *float64 `yaml:"lowConfidenceThreshold,omitempty" validate:"omitempty,min=0,max=1"`
}

// Novena is the inclusive day window of the novena
type Novena struct {
	Month    int `yaml:"month" validate:"min=1,max=12"`
	StartDay int `yaml:"startDay" validate:"min=1,max=31"`
	EndDay   int `yaml:"endDay" validate:"min=1,max=31,gtefield=StartDay"`
}

// Feast is the monthly feast day and the month it becomes a festival
type Feast struct {
	Day           int `yaml:"day" validate:"min=1,max=31"`
	FestivalMonth int `yaml:"festivalMonth,omitempty" validate:"min=0,max=12"`
}

// Observance is a recurring devotion with its own slot
type Observance struct {
	Name     string `yaml:"name" validate:"required"`
	RRule    string `yaml:"rrule" validate:"required"`
	Time     string `yaml:"time" validate:"required,datetime=15:04"`
	MinStaff int    `yaml:"minStaff" validate:"min=0"`
	MaxStaff int    `yaml:"maxStaff" validate:"min=1,gtefield=MinStaff"`
	Label    string `yaml:"label,omitempty"`
}

// Calendar overrides the parish calendar. Omitted sections keep the standard calendar.
type Calendar struct {
	Novena      *Novena      `yaml:"novena,omitempty"`
	Feast       *Feast       `yaml:"feast,omitempty"`
	Observances []Observance `yaml:"observances,omitempty" validate:"dive"`
}

// Metrics configures metric export
type Metrics struct {
	TextfilePath string `yaml:"textfilePath,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Database        Database `yaml:"database"`
	Parish          Parish   `yaml:"parish,omitempty"`
	Engine          Engine   `yaml:"engine,omitempty"`
	Calendar        Calendar `yaml:"calendar,omitempty"`
	PreviewCacheTTL string   `yaml:"previewCacheTTL,omitempty"`
	Metrics         Metrics  `yaml:"metrics,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates roster_config.yaml.
// It looks for the config file in the current directory first, then in the user's home directory.
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates roster_config.<env>.yaml, or roster_config.yaml when env is empty
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(configFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, rrule syntax, the timezone and the cache TTL
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, obs := range cfg.Calendar.Observances {
		if _, err := rrule.StrToRRule(obs.RRule); err != nil {
			return fmt.Errorf("invalid rrule in calendar.observances[%d]: %w", i, err)
		}
	}

	if _, err := cfg.TimeLocation(); err != nil {
		return err
	}

	if _, err := cfg.PreviewTTL(); err != nil {
		return err
	}

	return nil
}

// TimeLocation returns the parish timezone, UTC when unset
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Parish.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Parish.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid parish.timezone %q: %w", c.Parish.Timezone, err)
	}
	return loc, nil
}

// PreviewTTL returns how long previews stay cached
func (c *Config) PreviewTTL() (time.Duration, error) {
	if c.PreviewCacheTTL == "" {
		return DefaultPreviewCacheTTL, nil
	}
	ttl, err := time.ParseDuration(c.PreviewCacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid previewCacheTTL %q: %w", c.PreviewCacheTTL, err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("invalid previewCacheTTL %q: must not be negative", c.PreviewCacheTTL)
	}
	return ttl, nil
}

func configFileName(env string) string {
	if env == "" {
		return "roster_config.yaml"
	}
	return fmt.Sprintf("roster_config.%s.yaml", env)
}

// findConfigFile searches for the config file in the current directory and home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
