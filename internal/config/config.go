package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Profiler     Profiler      `yaml:"profiler"`
	Logging      LoggingConfig `yaml:"logging"`
	Metrics      MetricsConfig `yaml:"metrics"`
	ConfigReload ReloadConfig  `yaml:"configReload"`
}

// Profiler holds the snapshot lifecycle settings. It is treated as immutable
// once handed to the profiler.
type Profiler struct {
	Enabled         bool          `yaml:"enabled"`
	Dir             string        `yaml:"dir"`
	FirstDelay      time.Duration `yaml:"firstDelay"`
	Interval        time.Duration `yaml:"interval"`
	Cron            string        `yaml:"cron"` // overrides Interval when set
	Lifetime        time.Duration `yaml:"lifetime"`
	Reconcile       bool          `yaml:"reconcile"`
	GCBeforeCapture bool          `yaml:"gcBeforeCapture"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "trace", "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text"
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. ":9464", empty disables the endpoint
	Path   string `yaml:"path"`
}

type ReloadConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Method         string        `yaml:"method"` // "auto", "poll", "fsnotify"
	PollInterval   time.Duration `yaml:"pollInterval"`
	DebounceWindow time.Duration `yaml:"debounceWindow"`
}

const (
	DefaultDir        = ".snapshots"
	DefaultFirstDelay = 5 * time.Minute
	DefaultInterval   = 4 * time.Hour
	DefaultLifetime   = 24 * time.Hour
)

// DefaultProfiler returns the stock lifecycle settings.
func DefaultProfiler() Profiler {
	return Profiler{
		Enabled:         true,
		Dir:             DefaultDir,
		FirstDelay:      DefaultFirstDelay,
		Interval:        DefaultInterval,
		Lifetime:        DefaultLifetime,
		Reconcile:       true,
		GCBeforeCapture: true,
	}
}

func Default() *Config {
	return &Config{
		Profiler: DefaultProfiler(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		ConfigReload: ReloadConfig{
			Method:         "auto",
			PollInterval:   5 * time.Second,
			DebounceWindow: 500 * time.Millisecond,
		},
	}
}

// Validate checks the profiler settings. A disabled profiler is always valid.
func (p Profiler) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Dir == "" {
		return fmt.Errorf("%w: profiler.dir is empty", ErrInvalid)
	}
	if p.FirstDelay < 0 {
		return fmt.Errorf("%w: profiler.firstDelay must not be negative", ErrInvalid)
	}
	if p.Cron != "" {
		if _, err := cron.ParseStandard(p.Cron); err != nil {
			return fmt.Errorf("%w: profiler.cron %q: %v", ErrInvalid, p.Cron, err)
		}
	} else if p.Interval <= 0 {
		return fmt.Errorf("%w: profiler.interval must be positive", ErrInvalid)
	}
	if p.Lifetime <= 0 {
		return fmt.Errorf("%w: profiler.lifetime must be positive", ErrInvalid)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Profiler.Validate(); err != nil {
		return err
	}
	if c.ConfigReload.Enabled {
		switch c.ConfigReload.Method {
		case "auto", "poll", "fsnotify":
		default:
			return fmt.Errorf("%w: unknown configReload.method %q", ErrInvalid, c.ConfigReload.Method)
		}
	}
	return nil
}
