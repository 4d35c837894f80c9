package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetPluginsDir(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", DEFAULT_PLUGINS_DIR},
		{"Custom", "/opt/imgproc/plugins", "/opt/imgproc/plugins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := HostConf{PluginsDir: tt.input}
			config.setPluginsDir()
			if config.PluginsDir != tt.expected {
				t.Errorf("setPluginsDir() with PluginsDir=%s = %s; want %s", tt.input, config.PluginsDir, tt.expected)
			}
		})
	}
}

func TestSetLegacyParams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Adapt", LEGACY_ADAPT, LEGACY_ADAPT},
		{"Reject", LEGACY_REJECT, LEGACY_REJECT},
		{"Empty", "", LEGACY_REJECT},
		{"Unknown", "FNORD", LEGACY_REJECT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := HostConf{LegacyParams: tt.input}
			config.setLegacyParams()
			require.Equal(t, tt.expected, config.LegacyParams)
		})
	}
}

func TestSetFilters(t *testing.T) {
	config := HostConf{}
	config.setFilters()
	require.NotNil(t, config.Filters)
	require.Empty(t, config.Filters)

	config = HostConf{Filters: map[string]FilterConf{
		"blur":     {},
		"oldmagic": {ABI: ABI_VOID},
	}}
	config.setFilters()
	require.Equal(t, ABI_STATUS, config.Filters["blur"].ABI)
	require.Equal(t, ABI_VOID, config.Filters["oldmagic"].ABI)
}

func TestSetCacheTTL(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected int64
	}{
		{"Zero", 0, DEFAULT_CACHE_TTL},
		{"Negative", -5, DEFAULT_CACHE_TTL},
		{"Custom", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := HostConf{Cache: CacheConf{TTL: tt.input}}
			config.setCacheTTL()
			require.Equal(t, tt.expected, config.Cache.TTL)
		})
	}
}

func TestSetMetricsJob(t *testing.T) {
	config := HostConf{}
	config.setMetricsJob()
	require.Equal(t, DEFAULT_METRICS_JOB, config.Metrics.Job)

	config = HostConf{Metrics: MetricsConf{Job: "batch"}}
	config.setMetricsJob()
	require.Equal(t, "batch", config.Metrics.Job)
}

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			config := HostConf{LogLevel: tt.input}
			config.setLogLevel()
			require.Equal(t, tt.expected, config.GetLogLevel())
		})
	}
}

func TestFilterABI(t *testing.T) {
	config := HostConf{Filters: map[string]FilterConf{"oldmagic": {ABI: ABI_VOID}}}
	require.Equal(t, ABI_VOID, config.FilterABI("oldmagic"))
	require.Equal(t, ABI_STATUS, config.FilterABI("blur"))
}

func TestCacheEnabled(t *testing.T) {
	require.False(t, CacheConf{}.Enabled())
	require.True(t, CacheConf{Dir: "/tmp/cache"}.Enabled())
	require.True(t, CacheConf{InMemory: true}.Enabled())
}

func TestDefault(t *testing.T) {
	conf := Default()
	require.Equal(t, DEFAULT_PLUGINS_DIR, conf.PluginsDir)
	require.Equal(t, LEGACY_REJECT, conf.LegacyParams)
	require.False(t, conf.Cache.Enabled())
	require.Equal(t, slog.LevelInfo, conf.GetLogLevel())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imgproc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseHostConfig(t *testing.T) {
	path := writeConfig(t, `
plugins_dir: /usr/lib/imgproc
rpc_plugins_dir: /usr/libexec/imgproc
legacy_params: adapt
log_level: DEBUG
filters:
  blur: {}
  oldmagic:
    abi: void
cache:
  dir: /var/cache/imgproc
  ttl: 6
metrics:
  pushgateway: http://localhost:9091
`)

	conf, err := ParseHostConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/usr/lib/imgproc", conf.PluginsDir)
	require.Equal(t, "/usr/libexec/imgproc", conf.RPCPluginsDir)
	require.Equal(t, LEGACY_ADAPT, conf.LegacyParams)
	require.Equal(t, slog.LevelDebug, conf.GetLogLevel())
	require.Equal(t, ABI_STATUS, conf.FilterABI("blur"))
	require.Equal(t, ABI_VOID, conf.FilterABI("oldmagic"))
	require.Equal(t, "/var/cache/imgproc", conf.Cache.Dir)
	require.Equal(t, int64(6), conf.Cache.TTL)
	require.Equal(t, "http://localhost:9091", conf.Metrics.Pushgateway)
	require.Equal(t, DEFAULT_METRICS_JOB, conf.Metrics.Job)
}

func TestParseHostConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Invalid YAML", "plugins_dir: [unterminated"},
		{"Unknown legacy mode", "legacy_params: guess"},
		{"Unknown ABI", "filters:\n  blur:\n    abi: stdcall\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHostConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}

	_, err := ParseHostConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
