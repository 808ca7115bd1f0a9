package am

import (
	"net/url"

	"github.com/teranos/epicdash/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.Feed.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Newf("feed.base_url must be an http(s) URL, got %q", c.Feed.BaseURL)
	}
	if c.Feed.PollIntervalMS <= 0 {
		return errors.Newf("feed.poll_interval_ms must be > 0, got %d", c.Feed.PollIntervalMS)
	}
	if c.Feed.TimeoutMS <= 0 {
		return errors.Newf("feed.timeout_ms must be > 0, got %d", c.Feed.TimeoutMS)
	}
	// 0 disables health polling
	if c.Feed.HealthIntervalSeconds < 0 {
		return errors.Newf("feed.health_interval_seconds must be >= 0, got %d", c.Feed.HealthIntervalSeconds)
	}

	if c.Catalog.File == "" && c.Catalog.Path == "" {
		return errors.New("catalog.path cannot be empty when catalog.file is not set")
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		return errors.Newf("catalog.timeout_seconds must be > 0, got %d", c.Catalog.TimeoutSeconds)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Simulator.Port < 1 || c.Simulator.Port > 65535 {
		return errors.Newf("simulator.port must be in 1..65535, got %d", c.Simulator.Port)
	}

	if c.Dashboard.ClientCommandsPerSecond <= 0 {
		return errors.Newf("dashboard.client_commands_per_second must be > 0, got %d", c.Dashboard.ClientCommandsPerSecond)
	}

	switch c.Log.Theme {
	case "", "everforest", "gruvbox":
	default:
		return errors.Newf("log.theme must be everforest or gruvbox, got %q", c.Log.Theme)
	}

	return nil
}
