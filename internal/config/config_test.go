package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Profiler.Enabled)
	assert.Equal(t, ".snapshots", cfg.Profiler.Dir)
	assert.Equal(t, 5*time.Minute, cfg.Profiler.FirstDelay)
	assert.Equal(t, 4*time.Hour, cfg.Profiler.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Profiler.Lifetime)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Setenv("HEAPSNAP_TEST_DIR", "/var/lib/heapsnap")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiler:
  dir: $(HEAPSNAP_TEST_DIR)
  interval: 30m
  lifetime: 2h
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/heapsnap", cfg.Profiler.Dir)
	assert.Equal(t, 30*time.Minute, cfg.Profiler.Interval)
	assert.Equal(t, 2*time.Hour, cfg.Profiler.Lifetime)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Minute, cfg.Profiler.FirstDelay)
	assert.True(t, cfg.Profiler.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty dir", "profiler:\n  dir: \"\"\n"},
		{"zero interval", "profiler:\n  interval: 0s\n"},
		{"negative lifetime", "profiler:\n  lifetime: -1h\n"},
		{"negative first delay", "profiler:\n  firstDelay: -1s\n"},
		{"bad cron", "profiler:\n  cron: every tuesday\n"},
		{"cron out of range", "profiler:\n  cron: \"61 * * * *\"\n"},
		{"unknown reload method", "configReload:\n  enabled: true\n  method: inotify\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParse_CronReplacesInterval(t *testing.T) {
	cfg, err := Parse([]byte("profiler:\n  interval: 0s\n  cron: \"0 */6 * * *\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "0 */6 * * *", cfg.Profiler.Cron)
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("profiler: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshalling yaml")
}

func TestProfilerValidate(t *testing.T) {
	t.Run("disabled skips checks", func(t *testing.T) {
		p := Profiler{Enabled: false}
		assert.NoError(t, p.Validate())
	})

	t.Run("cron replaces interval", func(t *testing.T) {
		p := DefaultProfiler()
		p.Interval = 0
		p.Cron = "0 */4 * * *"
		assert.NoError(t, p.Validate())
	})
}
