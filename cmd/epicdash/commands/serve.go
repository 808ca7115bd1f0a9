package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/epicdash/am"
	"github.com/teranos/epicdash/dashboard"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/server"
	"github.com/teranos/epicdash/sym"
)

// ServeCmd runs the dashboard server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   sym.Server + " Run the dashboard server",
	Long: `Load the variable catalog, start polling the ECU data feed and serve the
dashboard over HTTP and WebSocket.

If the catalog cannot be loaded the dashboard still starts with the three
fallback variables. Editing epicdash.toml while serving retunes the poll
interval without a restart.`,
	RunE: runServe,
}

var (
	servePort        int
	serveCatalogFile string
)

func init() {
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to serve on (overrides server.port)")
	ServeCmd.Flags().StringVar(&serveCatalogFile, "catalog-file", "", "Read the variable catalog from a local file")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Default to Info for the server
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
	}
	logger.SetLevel(verbosity)
	log := logger.AddOpenSymbol(logger.ComponentLogger("serve"))

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	client, err := newFeedClient(cfg)
	if err != nil {
		return err
	}

	src := catalogSource(cfg, client, serveCatalogFile)
	cat, catErr := loadCatalog(cmd.Context(), cfg, src, log)

	session := dashboard.New(dashboard.Options{
		Catalog:        cat,
		Client:         client,
		PollInterval:   cfg.PollInterval(),
		HealthInterval: cfg.HealthInterval(),
	})
	srv := server.New(session, server.Options{
		AllowedOrigins:    cfg.GetServerAllowedOrigins(),
		CommandsPerSecond: cfg.Dashboard.ClientCommandsPerSecond,
		Verbosity:         verbosity,
	})

	printStartupBanner(cmd.OutOrStdout(), bannerInfo{
		verbosity:    verbosity,
		port:         port,
		ecu:          cfg.Feed.BaseURL,
		catalog:      src.String(),
		variables:    len(cat.Readable()),
		fallback:     cat.IsFallback(),
		pollInterval: cfg.PollInterval().String(),
	})
	if catErr != nil {
		pterm.Warning.Printfln("Variable catalog unavailable: %v", catErr)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session.Start()
	if stop := watchConfig(session); stop != nil {
		defer stop()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, fmt.Sprintf(":%d", port))
	})
	g.Go(func() error {
		<-gctx.Done()
		session.Stop()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	// GRACE: first signal drains, second one exits
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "dashboard server stopped")
		}
		return nil
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")
		cancel()

		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}

// watchConfig retunes the session when a config file changes. It returns
// nil when there is nothing to watch.
func watchConfig(session *dashboard.Session) func() {
	files := am.ActiveConfigFiles()
	if len(files) == 0 {
		return nil
	}
	watcher, err := am.NewConfigWatcher(files...)
	if err != nil {
		logger.Warnw("Config hot reload disabled", logger.FieldError, err)
		return nil
	}
	watcher.OnReload(func(cfg *am.Config) error {
		session.SetPollInterval(cfg.PollInterval())
		logger.SetTheme(cfg.GetLogTheme())
		return nil
	})
	am.SetGlobalWatcher(watcher)
	watcher.Start()

	return func() {
		am.SetGlobalWatcher(nil)
		_ = watcher.Stop()
	}
}
