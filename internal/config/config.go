package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Dir is the name of the global (~/.packlist) and repo (.packlist) config directories.
const Dir = ".packlist"

// Config holds application configuration.
type Config struct {
	// DefaultCity seeds the trip when no state has been saved yet
	DefaultCity string `json:"default_city,omitempty"`

	// DefaultCountry seeds the trip when no state has been saved yet
	DefaultCountry string `json:"default_country,omitempty"`

	// DefaultDurationDays seeds the trip duration (default 3)
	DefaultDurationDays int `json:"default_duration_days,omitempty"`

	// WeatherGeocodeURL overrides the Open-Meteo geocoding endpoint
	WeatherGeocodeURL string `json:"weather_geocode_url,omitempty"`

	// WeatherForecastURL overrides the Open-Meteo forecast endpoint
	WeatherForecastURL string `json:"weather_forecast_url,omitempty"`

	// WeatherTimeoutSeconds bounds each weather HTTP request (default 10)
	WeatherTimeoutSeconds int `json:"weather_timeout_seconds,omitempty"`

	// WeatherDebounceMS is the quiet period before a city edit triggers a
	// weather lookup in the web UI (default 600)
	WeatherDebounceMS int `json:"weather_debounce_ms,omitempty"`

	// ShareBaseURL is the base of generated share links.
	// Empty means the web UI address (http://<web_bind>:<web_port>/).
	ShareBaseURL string `json:"share_base_url,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.packlist/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "checklist", "template", "share".
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// WebBind is the address the web UI listens on (default 127.0.0.1)
	WebBind string `json:"web_bind,omitempty"`

	// WebPort is the port the web UI listens on (default 7420)
	WebPort int `json:"web_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultDurationDays:   3,
		WeatherTimeoutSeconds: 10,
		WeatherDebounceMS:     600,
		WebBind:               "127.0.0.1",
		WebPort:               7420,
	}
}

// WeatherTimeout returns the per-request weather timeout.
func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.WeatherTimeoutSeconds) * time.Second
}

// WeatherDebounce returns the weather lookup debounce delay.
func (c *Config) WeatherDebounce() time.Duration {
	return time.Duration(c.WeatherDebounceMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.packlist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.packlist) and repo (.packlist) directories.
// Repo config is found by walking upward from startDir to find the nearest .packlist/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .packlist/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, Dir, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		DefaultCity:           pickString(base.DefaultCity, overlay.DefaultCity),
		DefaultCountry:        pickString(base.DefaultCountry, overlay.DefaultCountry),
		DefaultDurationDays:   pickInt(base.DefaultDurationDays, overlay.DefaultDurationDays),
		WeatherGeocodeURL:     pickString(base.WeatherGeocodeURL, overlay.WeatherGeocodeURL),
		WeatherForecastURL:    pickString(base.WeatherForecastURL, overlay.WeatherForecastURL),
		WeatherTimeoutSeconds: pickInt(base.WeatherTimeoutSeconds, overlay.WeatherTimeoutSeconds),
		WeatherDebounceMS:     pickInt(base.WeatherDebounceMS, overlay.WeatherDebounceMS),
		ShareBaseURL:          pickString(base.ShareBaseURL, overlay.ShareBaseURL),
		DBMaxOpenConns:        pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:        pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
		WebBind:               pickString(base.WebBind, overlay.WebBind),
		WebPort:               pickInt(base.WebPort, overlay.WebPort),

		// Booleans: overlay wins if true, else base
		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,

		AllowedPaths:  mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths),
		DisabledTools: mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes: mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
}

// pickInt returns overlay if non-zero, else base.
func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// pickString returns overlay if non-blank, else base.
func pickString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
