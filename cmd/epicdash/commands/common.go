package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/epicdash/am"
	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/feed"
)

// loadConfig loads and validates the configuration, then applies the
// persistent --ecu override. The cached config is copied, never mutated.
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	loaded, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	cfg := *loaded

	if f := cmd.Flags().Lookup("ecu"); f != nil && f.Value.String() != "" {
		cfg.Feed.BaseURL = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"run 'epicdash am where' to see which file sets it")
	}
	return &cfg, nil
}

func newFeedClient(cfg *am.Config) (*feed.Client, error) {
	client, err := feed.NewClient(cfg.Feed.BaseURL, cfg.FeedTimeout())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ECU URL %q", cfg.Feed.BaseURL)
	}
	return client, nil
}

// catalogSource prefers a local file (flag, then catalog.file) over the ECU.
func catalogSource(cfg *am.Config, client *feed.Client, file string) catalog.Source {
	if file == "" {
		file = cfg.Catalog.File
	}
	if file != "" {
		return catalog.FileSource{Path: file}
	}
	return catalog.NewHTTPSource(client.HTTP(), cfg.Catalog.Path)
}

// loadCatalog never fails: on any error it returns the fallback table and
// the reason.
func loadCatalog(ctx context.Context, cfg *am.Config, src catalog.Source, log *zap.SugaredLogger) (*catalog.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CatalogTimeout())
	defer cancel()
	return catalog.LoadOrFallback(ctx, src, log)
}
