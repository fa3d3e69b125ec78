// Package config loads edboard settings from defaults, an optional config
// file and EDBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/sla"
)

// EnvPrefix is prepended to every environment override, e.g. EDBOARD_DB_PATH.
const EnvPrefix = "EDBOARD"

// DefaultAreas lists the emergency department areas shown when no filter
// has been chosen.
var DefaultAreas = []string{"Antigua", "Amarilla", "Pediatría", "Pasillos", "Clini", "Salaespera"}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the resolved runtime configuration.
type Config struct {
	DBPath        string        `mapstructure:"db_path"`
	User          string        `mapstructure:"user"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	BlinkInterval time.Duration `mapstructure:"blink_interval"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	// ConductThreshold is how long a patient may stay in observation before
	// the disposition cell alarms. Zero disables conduct alarms.
	ConductThreshold time.Duration `mapstructure:"conduct_threshold"`
	Areas            []string      `mapstructure:"areas"`
	Log              LogConfig     `mapstructure:"log"`
	HTTP             HTTPConfig    `mapstructure:"http"`
	// SLA overrides budgets in minutes, keyed by stage name then tier
	// ("3" or "tier3").
	SLA map[string]map[string]int `mapstructure:"sla"`
}

// Load reads configuration. path may be empty, in which case EDBOARD_CONFIG
// is consulted and, failing that, only defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("finding home directory: %w", err)
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "default"
	}

	v.SetDefault("db_path", filepath.Join(home, ".edboard", "edboard.db"))
	v.SetDefault("user", user)
	v.SetDefault("poll_interval", "5s")
	v.SetDefault("blink_interval", "500ms")
	v.SetDefault("fetch_timeout", "3s")
	v.SetDefault("conduct_threshold", "0s")
	v.SetDefault("areas", DefaultAreas)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("http.addr", ":8080")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Areas = trimAreas(cfg.Areas)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the board cannot run with, including an SLA
// matrix that is incomplete after overrides.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.BlinkInterval <= 0 {
		errs = append(errs, fmt.Errorf("blink_interval must be positive, got %s", c.BlinkInterval))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout))
	}
	if c.ConductThreshold < 0 {
		errs = append(errs, fmt.Errorf("conduct_threshold must not be negative, got %s", c.ConductThreshold))
	}
	if len(c.Areas) == 0 {
		errs = append(errs, errors.New("areas must list at least one area"))
	}
	if _, err := c.Matrix(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Matrix returns the default SLA matrix with the configured overrides
// applied, validated.
func (c *Config) Matrix() (sla.Matrix, error) {
	m := sla.DefaultMatrix().Clone()
	for stageKey, tiers := range c.SLA {
		stage, err := domain.ParseStage(stageKey)
		if err != nil {
			return nil, fmt.Errorf("sla override: %w", err)
		}
		for tierKey, minutes := range tiers {
			tier, err := domain.ParseSeverityTier(strings.TrimPrefix(strings.ToLower(tierKey), "tier"))
			if err != nil || tier == domain.TierNone {
				return nil, fmt.Errorf("sla override %s: invalid tier %q", stageKey, tierKey)
			}
			m.Override(stage, tier, minutes)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ConductEnabled reports whether conduct alarms are configured.
func (c *Config) ConductEnabled() bool {
	return c.ConductThreshold > 0
}

func trimAreas(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
