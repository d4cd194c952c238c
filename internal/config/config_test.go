package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *Config {
	return &Config{
		Database: Database{Driver: "sqlite", URL: "roster.db"},
	}
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_MinimalConfig(t *testing.T) {
	assert.NoError(t, Validate(minimalConfig()))
}

func TestValidate_ValidConfig(t *testing.T) {
	tolerance := 3
	penalty := 0.5
	cfg := minimalConfig()
	cfg.Parish = Parish{Location: "Main church", Timezone: "UTC"}
	cfg.Engine = Engine{ServingRoles: []string{"minister", "coordinator"}, PairingTolerance: &tolerance, AlternateOnlyPenalty: &penalty}
	cfg.Calendar = Calendar{
		Novena: &Novena{Month: 10, StartDay: 20, EndDay: 27},
		Feast:  &Feast{Day: 28, FestivalMonth: 10},
		Observances: []Observance{
			{Name: "first_friday", RRule: "FREQ=MONTHLY;BYDAY=+1FR", Time: "06:30", MinStaff: 8, MaxStaff: 12},
		},
	}
	cfg.PreviewCacheTTL = "90s"

	assert.NoError(t, Validate(cfg))
}

func TestValidate_MissingDatabase(t *testing.T) {
	err := Validate(&Config{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := minimalConfig()
	cfg.Database.Driver = "mysql"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_EngineBounds(t *testing.T) {
	negative := -1
	cfg := minimalConfig()
	cfg.Engine.PairingTolerance = &negative
	assert.Error(t, Validate(cfg))

	tooHigh := 1.5
	cfg = minimalConfig()
	cfg.Engine.LowConfidenceThreshold = &tooHigh
	assert.Error(t, Validate(cfg))

	cfg = minimalConfig()
	cfg.Engine.ServingRoles = []string{"sacristan"}
	assert.Error(t, Validate(cfg))
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := minimalConfig()
	cfg.Calendar.Observances = []Observance{
		{Name: "ok", RRule: "FREQ=MONTHLY;BYDAY=+1TH", Time: "19:30", MinStaff: 1, MaxStaff: 2},
		{Name: "broken", RRule: "INVALID_RRULE", Time: "19:30", MinStaff: 1, MaxStaff: 2},
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule in calendar.observances[1]")
}

func TestValidate_ObservanceStaffing(t *testing.T) {
	cfg := minimalConfig()
	cfg.Calendar.Observances = []Observance{
		{Name: "x", RRule: "FREQ=WEEKLY;BYDAY=SU", Time: "10:00", MinStaff: 5, MaxStaff: 2},
	}
	assert.Error(t, Validate(cfg))

	cfg.Calendar.Observances[0] = Observance{Name: "x", RRule: "FREQ=WEEKLY;BYDAY=SU", Time: "25:00", MinStaff: 1, MaxStaff: 2}
	assert.Error(t, Validate(cfg))
}

func TestValidate_NovenaWindow(t *testing.T) {
	cfg := minimalConfig()
	cfg.Calendar.Novena = &Novena{Month: 10, StartDay: 27, EndDay: 20}

	assert.Error(t, Validate(cfg))
}

func TestValidate_InvalidTimezone(t *testing.T) {
	cfg := minimalConfig()
	cfg.Parish.Timezone = "Mars/Olympus"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parish.timezone")
}

func TestValidate_InvalidPreviewTTL(t *testing.T) {
	cfg := minimalConfig()
	cfg.PreviewCacheTTL = "soon"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid previewCacheTTL")
}

func TestPreviewTTL_Default(t *testing.T) {
	ttl, err := minimalConfig().PreviewTTL()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreviewCacheTTL, ttl)
}

func TestTimeLocation_DefaultsToUTC(t *testing.T) {
	loc, err := minimalConfig().TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "roster_config.yaml", `
database:
  driver: postgres
  url: "postgres://localhost/roster"
parish:
  location: "Main church"
engine:
  servingRoles: [minister]
  pairingTolerance: 0
calendar:
  feast:
    day: 28
    festivalMonth: 10
  observances:
    - name: healing_liberation
      rrule: "FREQ=MONTHLY;BYDAY=+1TH"
      time: "19:30"
      minStaff: 20
      maxStaff: 28
previewCacheTTL: 10m
metrics:
  textfilePath: /var/lib/node_exporter/roster.prom
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "Main church", cfg.Parish.Location)
	require.NotNil(t, cfg.Engine.PairingTolerance)
	assert.Equal(t, 0, *cfg.Engine.PairingTolerance, "zero disables pairing and is kept")
	assert.Nil(t, cfg.Engine.AlternateOnlyPenalty)
	assert.Nil(t, cfg.Calendar.Novena)
	require.NotNil(t, cfg.Calendar.Feast)
	assert.Equal(t, 28, cfg.Calendar.Feast.Day)
	require.Len(t, cfg.Calendar.Observances, 1)
	assert.Equal(t, 20, cfg.Calendar.Observances[0].MinStaff)
	assert.Equal(t, "/var/lib/node_exporter/roster.prom", cfg.Metrics.TextfilePath)

	ttl, err := cfg.PreviewTTL()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, ttl)
}

func TestLoadFromPath_InvalidRRule(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "invalid_rrule.yaml", `
database:
  driver: sqlite
  url: roster.db
calendar:
  observances:
    - name: broken
      rrule: "INVALID_RRULE_SYNTAX"
      time: "19:30"
      minStaff: 1
      maxStaff: 2
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "invalid_config.yaml", `
database:
  driver: sqlite
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "invalid_yaml.yaml", `
database:
  driver: "sqlite"
    invalid indentation
  url: roster.db
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv_FindsFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "roster_config.test.yaml", "database:\n  driver: sqlite\n  url: test.db\n")
	t.Chdir(dir)

	cfg, err := LoadWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "test.db", cfg.Database.URL)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := LoadWithEnv("nowhere")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "roster_config.nowhere.yaml not found")
}
