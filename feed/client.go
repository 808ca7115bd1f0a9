// Package feed talks to the ECU's HTTP API: live readings, health and
// configuration. It also resolves bound variables to reading fields and
// polls on a fixed interval without overlapping fetches.
package feed

import (
	"context"
	"time"

	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/internal/httpclient"
)

// ECU API paths.
const (
	PathData       = "/data"
	PathHealth     = "/health"
	PathConfig     = "/config"
	PathConfigSave = "/config/save"
	PathVariables  = "/variables.json"
)

// Client reads from one ECU.
type Client struct {
	http *httpclient.Client
}

// NewClient returns a client for the ECU at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.New(baseURL, timeout)
	if err != nil {
		return nil, errors.Wrap(err, "feed client")
	}
	return &Client{http: hc}, nil
}

// NewClientWith wraps an existing HTTP client.
func NewClientWith(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

// HTTP returns the underlying client, shared with the catalog source.
func (c *Client) HTTP() *httpclient.Client {
	return c.http
}

// BaseURL returns the ECU address.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// Reading fetches /data.
func (c *Client) Reading(ctx context.Context) (Reading, error) {
	var r Reading
	if err := c.http.GetJSON(ctx, PathData, &r); err != nil {
		return Reading{}, errors.WrapFeedUnavailable(err, "poll "+PathData)
	}
	return r, nil
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.http.GetJSON(ctx, PathHealth, &h); err != nil {
		return Health{}, errors.WrapFeedUnavailable(err, "fetch "+PathHealth)
	}
	return h, nil
}

// Config fetches /config.
func (c *Client) Config(ctx context.Context) (ECUConfig, error) {
	var cfg ECUConfig
	if err := c.http.GetJSON(ctx, PathConfig, &cfg); err != nil {
		return ECUConfig{}, errors.WrapFeedUnavailable(err, "fetch "+PathConfig)
	}
	return cfg, nil
}

// SaveConfig validates cfg and posts it to /config/save.
func (c *Client) SaveConfig(ctx context.Context, cfg ECUConfig) (SaveResult, error) {
	if err := cfg.Validate(); err != nil {
		return SaveResult{}, err
	}
	var res SaveResult
	if err := c.http.PostJSON(ctx, PathConfigSave, cfg, &res); err != nil {
		return SaveResult{}, errors.WrapFeedUnavailable(err, "post "+PathConfigSave)
	}
	if !res.OK() {
		return res, errors.Newf("ECU rejected configuration: %s", res.Message)
	}
	return res, nil
}
