package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/epicdash/am"
	"github.com/teranos/epicdash/cmd/epicdash/commands"
	"github.com/teranos/epicdash/logger"
)

var rootCmd = &cobra.Command{
	Use:   "epicdash",
	Short: "epicdash - live gauges for EPIC ECUs",
	Long: `epicdash - live gauge dashboard for EPIC engine control units.

epicdash reads the ECU's variable catalog, sorts it into eight selector
widgets and shows the chosen variables in sixteen gauge slots, refreshed
from the ECU data feed.

Available commands:
  serve    - Run the dashboard HTTP/WebSocket server
  watch    - Render the gauges in the terminal
  catalog  - List the variable catalog by widget
  ecu      - Inspect ECU health and settings
  simulate - Run a mock ECU
  am       - Manage epicdash configuration ("I am")
  version  - Show version information

Examples:
  epicdash simulate                   # Mock ECU on :8080
  epicdash serve --ecu http://localhost:8080
  epicdash watch --select 1:1699696209
  epicdash catalog --json
  epicdash am show`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr; stdout carries command output only.
		jsonLogs := false
		if cfg, err := am.Load(); err == nil {
			logger.SetTheme(cfg.GetLogTheme())
			jsonLogs = cfg.Log.JSON
		}
		if err := logger.InitializeWithWriter(jsonLogs, os.Stderr); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logger.SetLevel(verbosity)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().String("ecu", "", "ECU base URL (overrides feed.base_url)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.CatalogCmd)
	rootCmd.AddCommand(commands.EcuCmd)
	rootCmd.AddCommand(commands.SimulateCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
