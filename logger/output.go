package logger

// OutputCategory defines a category of output that can be enabled/disabled
// independently of log severity.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Command output, gauge tables
	OutputErrors                        // Errors with hints

	// Level 1 (-v)
	OutputStartup    // Banners, config summary
	OutputConnection // Feed connected/disconnected transitions
	OutputSelection  // Widget selections and slot changes

	// Level 2 (-vv)
	OutputTiming    // Poll round-trip times
	OutputConfig    // Config values loaded/applied
	OutputHTTPCalls // Outbound requests to the ECU

	// Level 3 (-vvv)
	OutputTicks     // Every poller tick
	OutputWebSocket // Websocket frames in/out

	// Level 4 (-vvvv)
	OutputFeedDump // Raw /data payloads
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputStartup:    VerbosityInfo,
	OutputConnection: VerbosityInfo,
	OutputSelection:  VerbosityInfo,
	OutputTiming:     VerbosityDebug,
	OutputConfig:     VerbosityDebug,
	OutputHTTPCalls:  VerbosityDebug,
	OutputTicks:      VerbosityTrace,
	OutputWebSocket:  VerbosityTrace,
	OutputFeedDump:   VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

var categoryNames = map[OutputCategory]string{
	OutputResults:    "results",
	OutputErrors:     "errors",
	OutputStartup:    "startup",
	OutputConnection: "connection",
	OutputSelection:  "selection",
	OutputTiming:     "timing",
	OutputConfig:     "config",
	OutputHTTPCalls:  "http",
	OutputTicks:      "ticks",
	OutputWebSocket:  "websocket",
	OutputFeedDump:   "feed-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
