// Package sym defines canonical symbols for epicdash subsystems.
// These symbols are stable across the CLI, log output and the websocket
// status stream.
package sym

// Glyph string constants. Primary symbols have a CLI command.
const (
	Gauge  = "◔" // gauge slots and widget selection
	Feed   = "⇄" // ECU data feed polling
	AM     = "≡" // am: configuration and system settings
	ECU    = "⌁" // ECU health and configuration endpoints
	Vars   = "⋮" // variable catalog
	Sim    = "◌" // ECU simulator
	Watch  = "◉" // terminal dashboard
	Server = "⌂" // dashboard HTTP/websocket server
)

// System markers used in log lines.
const (
	Open  = "✿" // graceful startup
	Close = "❀" // graceful shutdown
	Tick  = "꩜" // poller tick
)

// Category groups symbols by how they surface.
type Category int

const (
	CategoryCommand Category = iota + 1
	CategorySystem
)

type entry struct {
	glyph       string
	command     string
	label       string
	description string
	category    Category
}

// registry is the canonical mapping between glyphs and symbol metadata.
var registry = []entry{
	{Server, "serve", "Serve", "Run the dashboard server", CategoryCommand},
	{Watch, "watch", "Watch", "Render gauges in the terminal", CategoryCommand},
	{Sim, "simulate", "Simulate", "Run a fake ECU", CategoryCommand},
	{Vars, "catalog", "Catalog", "List and categorize ECU variables", CategoryCommand},
	{ECU, "ecu", "ECU", "Inspect ECU health and settings", CategoryCommand},
	{AM, "am", "Configuration", "System settings and state", CategoryCommand},
	{Gauge, "", "Gauge", "Slot allocation and widget selection", CategorySystem},
	{Feed, "", "Feed", "Data feed polling", CategorySystem},
	{Open, "", "Open", "Graceful startup", CategorySystem},
	{Close, "", "Close", "Graceful shutdown", CategorySystem},
	{Tick, "", "Tick", "Poller tick", CategorySystem},
}

// Lookup tables built from the registry at init time.
var (
	// SymbolToCommand maps glyph strings to their CLI command.
	SymbolToCommand map[string]string
	// CommandToSymbol maps CLI commands to their glyph.
	CommandToSymbol map[string]string
	// CommandDescriptions provides one-line help per command.
	CommandDescriptions map[string]string
	// Commands lists the CLI commands in registry order.
	Commands []string

	labels map[string]string
)

func init() {
	SymbolToCommand = make(map[string]string)
	CommandToSymbol = make(map[string]string)
	CommandDescriptions = make(map[string]string)
	labels = make(map[string]string, len(registry))
	for _, e := range registry {
		labels[e.glyph] = e.label
		if e.category != CategoryCommand {
			continue
		}
		SymbolToCommand[e.glyph] = e.command
		CommandToSymbol[e.command] = e.glyph
		CommandDescriptions[e.command] = e.label + ": " + e.description
		Commands = append(Commands, e.command)
	}
}

// Label returns the human name of a glyph, or "" if unknown.
func Label(glyph string) string {
	return labels[glyph]
}

// Prefix returns "glyph command" for banners and help text.
func Prefix(command string) string {
	if g, ok := CommandToSymbol[command]; ok {
		return g + " " + command
	}
	return command
}
