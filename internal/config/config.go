package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	LEGACY_ADAPT  = "adapt"
	LEGACY_REJECT = "reject"

	ABI_STATUS = "status"
	ABI_VOID   = "void"

	DEFAULT_PLUGINS_DIR = "./plugins"
	DEFAULT_CACHE_TTL   = 24
	DEFAULT_METRICS_JOB = "imgproc"
)

type HostConf struct {
	PluginsDir    string                `yaml:"plugins_dir"`
	RPCPluginsDir string                `yaml:"rpc_plugins_dir"`
	LegacyParams  string                `yaml:"legacy_params"`
	Filters       map[string]FilterConf `yaml:"filters"`
	Cache         CacheConf             `yaml:"cache"`
	Metrics       MetricsConf           `yaml:"metrics"`
	LogLevel      string                `yaml:"log_level"`
	slogLevel     slog.Level
}

// FilterConf holds per-filter overrides keyed by filter name.
type FilterConf struct {
	// ABI is "status" (default) or "void" for legacy plugins whose
	// process_image returns nothing.
	ABI string `yaml:"abi"`
}

type CacheConf struct {
	Dir      string `yaml:"dir"`
	TTL      int64  `yaml:"ttl"` // hours
	InMemory bool   `yaml:"in_memory"`
}

// Enabled reports whether a result cache should be opened.
func (c CacheConf) Enabled() bool {
	return c.Dir != "" || c.InMemory
}

type MetricsConf struct {
	Pushgateway string `yaml:"pushgateway"`
	Job         string `yaml:"job"`
}

// Default returns the configuration used when no file is given.
func Default() HostConf {
	conf := HostConf{}
	conf.normalize()
	return conf
}

// ParseHostConfig reads and normalises the YAML configuration at path.
func ParseHostConfig(path string) (HostConf, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return HostConf{}, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	conf := HostConf{}
	if err := yaml.Unmarshal(file, &conf); err != nil {
		return HostConf{}, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	if err := conf.validate(); err != nil {
		return HostConf{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	conf.normalize()
	return conf, nil
}

func (hc *HostConf) normalize() {
	hc.setPluginsDir()
	hc.setLegacyParams()
	hc.setFilters()
	hc.setCacheTTL()
	hc.setMetricsJob()
	hc.setLogLevel()
}

func (hc *HostConf) validate() error {
	switch hc.LegacyParams {
	case "", LEGACY_ADAPT, LEGACY_REJECT:
	default:
		return fmt.Errorf("legacy_params must be %q or %q, got %q", LEGACY_ADAPT, LEGACY_REJECT, hc.LegacyParams)
	}
	for name, f := range hc.Filters {
		switch f.ABI {
		case "", ABI_STATUS, ABI_VOID:
		default:
			return fmt.Errorf("filter %s: abi must be %q or %q, got %q", name, ABI_STATUS, ABI_VOID, f.ABI)
		}
	}
	return nil
}

func (hc *HostConf) setPluginsDir() {
	if hc.PluginsDir == "" {
		hc.PluginsDir = DEFAULT_PLUGINS_DIR
	}
}

func (hc *HostConf) setLegacyParams() {
	if hc.LegacyParams != LEGACY_ADAPT {
		hc.LegacyParams = LEGACY_REJECT
	}
}

func (hc *HostConf) setFilters() {
	if hc.Filters == nil {
		hc.Filters = map[string]FilterConf{}
	}
	for name, f := range hc.Filters {
		if f.ABI == "" {
			f.ABI = ABI_STATUS
			hc.Filters[name] = f
		}
	}
}

func (hc *HostConf) setCacheTTL() {
	if hc.Cache.TTL <= 0 {
		hc.Cache.TTL = DEFAULT_CACHE_TTL
	}
}

func (hc *HostConf) setMetricsJob() {
	if hc.Metrics.Job == "" {
		hc.Metrics.Job = DEFAULT_METRICS_JOB
	}
}

func (hc *HostConf) setLogLevel() {
	switch hc.LogLevel {
	case "DEBUG":
		hc.slogLevel = slog.LevelDebug
	case "INFO":
		hc.slogLevel = slog.LevelInfo
	case "WARN":
		hc.slogLevel = slog.LevelWarn
	case "ERROR":
		hc.slogLevel = slog.LevelError
	default:
		hc.slogLevel = slog.LevelInfo
	}
}

func (hc *HostConf) GetLogLevel() slog.Level {
	return hc.slogLevel
}

// FilterABI returns the configured ABI variant for a filter.
func (hc *HostConf) FilterABI(name string) string {
	if f, ok := hc.Filters[name]; ok && f.ABI != "" {
		return f.ABI
	}
	return ABI_STATUS
}
