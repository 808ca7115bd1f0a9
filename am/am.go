// Package am holds epicdash configuration: what the dashboard polls, where
// the catalog comes from and which ports it serves on.
package am

import "time"

// Config represents the complete epicdash configuration
type Config struct {
	Feed      FeedConfig      `mapstructure:"feed" toml:"feed" json:"feed" yaml:"feed"`
	Catalog   CatalogConfig   `mapstructure:"catalog" toml:"catalog" json:"catalog" yaml:"catalog"`
	Server    ServerConfig    `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Simulator SimulatorConfig `mapstructure:"simulator" toml:"simulator" json:"simulator" yaml:"simulator"`
	Dashboard DashboardConfig `mapstructure:"dashboard" toml:"dashboard" json:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// FeedConfig configures the ECU data feed
type FeedConfig struct {
	BaseURL               string `mapstructure:"base_url" toml:"base_url" json:"base_url" yaml:"base_url"`
	PollIntervalMS        int    `mapstructure:"poll_interval_ms" toml:"poll_interval_ms" json:"poll_interval_ms" yaml:"poll_interval_ms"`
	TimeoutMS             int    `mapstructure:"timeout_ms" toml:"timeout_ms" json:"timeout_ms" yaml:"timeout_ms"`
	HealthIntervalSeconds int    `mapstructure:"health_interval_seconds" toml:"health_interval_seconds" json:"health_interval_seconds" yaml:"health_interval_seconds"` // 0 disables health polling
}

// CatalogConfig configures where the variable catalog is loaded from.
// File wins over Path when set.
type CatalogConfig struct {
	Path           string `mapstructure:"path" toml:"path" json:"path" yaml:"path"` // relative to feed.base_url
	File           string `mapstructure:"file" toml:"file" json:"file" yaml:"file"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ServerConfig configures the dashboard HTTP/WebSocket server
type ServerConfig struct {
	Port           int      `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
}

// SimulatorConfig configures the mock ECU
type SimulatorConfig struct {
	Port          int    `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
	VariablesFile string `mapstructure:"variables_file" toml:"variables_file" json:"variables_file" yaml:"variables_file"`
}

// DashboardConfig configures the session and its clients
type DashboardConfig struct {
	ClientCommandsPerSecond int `mapstructure:"client_commands_per_second" toml:"client_commands_per_second" json:"client_commands_per_second" yaml:"client_commands_per_second"`
}

// LogConfig configures log output
type LogConfig struct {
	Theme string `mapstructure:"theme" toml:"theme" json:"theme" yaml:"theme"` // gruvbox, everforest
	JSON  bool   `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// Port constants
const (
	DefaultServerPort    = 8090
	DefaultSimulatorPort = 8080
)

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// PollInterval returns feed.poll_interval_ms as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalMS) * time.Millisecond
}

// FeedTimeout returns feed.timeout_ms as a duration
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutMS) * time.Millisecond
}

// HealthInterval returns feed.health_interval_seconds as a duration; zero disables.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.Feed.HealthIntervalSeconds) * time.Second
}

// CatalogTimeout returns catalog.timeout_seconds as a duration
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}
