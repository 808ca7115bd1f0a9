package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// The ECU's access point address
	v.SetDefault("feed.base_url", "http://192.168.4.1")
	v.SetDefault("feed.poll_interval_ms", 1000)
	v.SetDefault("feed.timeout_ms", 2000)
	v.SetDefault("feed.health_interval_seconds", 10)

	v.SetDefault("catalog.path", "/variables.json")
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.timeout_seconds", 5)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})

	v.SetDefault("simulator.port", DefaultSimulatorPort)
	v.SetDefault("simulator.variables_file", "variables.json")

	v.SetDefault("dashboard.client_commands_per_second", 20)

	v.SetDefault("log.theme", "everforest")
	v.SetDefault("log.json", false)
}

// BindEnvVars binds settings people commonly override per shell to short
// environment names in addition to the EPICDASH_SECTION_KEY form.
func BindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("feed.base_url", "EPICDASH_FEED_BASE_URL", "EPICDASH_ECU_URL")
	_ = v.BindEnv("catalog.file", "EPICDASH_CATALOG_FILE")
	_ = v.BindEnv("log.theme", "EPICDASH_LOG_THEME")
}

// GetServerAllowedOrigins returns the allowed websocket origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{"http://localhost", "http://127.0.0.1"}
	}
	return c.Server.AllowedOrigins
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Log.Theme == "" {
		return "everforest"
	}
	return c.Log.Theme
}

// String returns a short summary of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Feed: %s every %dms, Server: :%d, Simulator: :%d}",
		c.Feed.BaseURL, c.Feed.PollIntervalMS, c.Server.Port, c.Simulator.Port)
}
