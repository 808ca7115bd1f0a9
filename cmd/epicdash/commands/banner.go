package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/sym"
	"github.com/teranos/epicdash/version"
)

type bannerInfo struct {
	verbosity    int
	port         int
	ecu          string
	catalog      string
	variables    int
	fallback     bool
	pollInterval string
}

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(w io.Writer, b bannerInfo) {
	v := version.Get()

	header := pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack, pterm.Bold)).
		WithMargin(4)
	fmt.Fprintln(w)
	fmt.Fprintln(w, header.Sprint(sym.Gauge+" epicdash  "+sym.Feed+" live ECU gauges"))

	catalogLine := fmt.Sprintf("%d readable variables from %s", b.variables, b.catalog)
	if b.fallback {
		catalogLine = pterm.Yellow(fmt.Sprintf("%d fallback variables (%s unavailable)", b.variables, b.catalog))
	}

	lines := []string{
		fmt.Sprintf("Version:   %s (commit %s)", v.Version, v.Short()),
		fmt.Sprintf("Built:     %s", v.BuildTime),
		fmt.Sprintf("Verbosity: %s", logger.LevelName(b.verbosity)),
		fmt.Sprintf("ECU:       %s every %s", b.ecu, b.pollInterval),
		fmt.Sprintf("Catalog:   %s", catalogLine),
	}
	fmt.Fprintln(w, pterm.DefaultBox.WithTitle("epicdash").Sprint(strings.Join(lines, "\n")))

	fmt.Fprintln(w, pterm.LightYellow(fmt.Sprintf("\n%s Dashboard on http://localhost:%d  (WebSocket /ws)", sym.Server, b.port)))
	fmt.Fprintln(w, pterm.LightBlue("Press Ctrl+C to stop"))
	fmt.Fprintln(w)
}
