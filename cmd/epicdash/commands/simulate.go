package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/epicdash/am"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/simulator"
	"github.com/teranos/epicdash/sym"
)

// SimulateCmd runs a mock ECU
var SimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: sym.Sim + " Run a mock ECU",
	Long: `Serve a fake ECU API with the same endpoints as the real logger:
/data, /health, /config, /config/save and /variables.json.

Engine values follow a 20 second cycle so gauges move without hardware.`,
	RunE: runSimulate,
}

var (
	simulatePort      int
	simulateVariables string
)

func init() {
	SimulateCmd.Flags().IntVarP(&simulatePort, "port", "p", 0, "Port to listen on (overrides simulator.port)")
	SimulateCmd.Flags().StringVar(&simulateVariables, "variables", "", "File served at /variables.json (overrides simulator.variables_file)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
	}
	logger.SetLevel(verbosity)

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	port := cfg.Simulator.Port
	if simulatePort != 0 {
		port = simulatePort
	}
	variables := cfg.Simulator.VariablesFile
	if simulateVariables != "" {
		variables = simulateVariables
	}
	if _, err := os.Stat(variables); variables != "" && err != nil {
		pterm.Warning.Printfln("%s not readable, /variables.json will serve []", variables)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := simulator.New(simulator.Options{VariablesFile: variables})
	pterm.Info.Printfln("%s Mock ECU on http://localhost:%d", sym.Sim, port)

	if err := sim.ListenAndServe(ctx, fmt.Sprintf(":%d", port)); err != nil {
		return err
	}
	pterm.Success.Printfln("Mock ECU stopped after %d data requests", sim.Requests())
	return nil
}
