package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/epicdash/am"
	"github.com/teranos/epicdash/display"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Manage epicdash configuration",
	Long: sym.AM + ` am - Manage epicdash configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (EPICDASH_* prefix)
3. Project config (nearest ./epicdash.toml, searching up)
4. User config (~/.epicdash/epicdash.toml)
5. System config (/etc/epicdash/epicdash.toml)
6. Default values

Examples:
  epicdash am show                       # Show current configuration
  epicdash am show --format json         # Show configuration as JSON
  epicdash am get feed.poll_interval_ms  # Get a specific value
  epicdash am set feed.base_url http://localhost:8080
  epicdash am validate                   # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current epicdash configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., feed.base_url, server.port)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Write a single value into a config file, keeping the rest of the file.
The previous file is rotated to .back1 (up to three copies).

Numbers and true/false are stored as such; everything else as a string.
Writes go to the project file when one exists, else to the user file.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which file set each value.`,
	RunE: runAmWhere,
}

var (
	configFormat string
	amSetFile    string
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().StringVar(&amSetFile, "file", "", "Config file to write (default: project file, else user file)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return writeConfig(cmd, cfg, configFormat)
}

func writeConfig(cmd *cobra.Command, cfg *am.Config, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return display.OutputJSON(out, cfg)

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Fprintf(out, "# epicdash configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Fprintf(out, "# epicdash configuration\n%s", data)

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.GetViper().IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(fmt.Errorf("configuration key %q not found", key),
			"run 'epicdash am show' to list the keys")
	}

	path := amSetFile
	if path == "" {
		var err error
		if path, err = defaultWritableConfig(); err != nil {
			return err
		}
	}

	value := parseValue(raw)
	if err := am.SetValue(path, key, value); err != nil {
		return err
	}

	// The written file must still load and validate on its own.
	cfg, err := am.LoadFromFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.WithHintf(fmt.Errorf("%s is now invalid: %w", path, err),
			"the previous version is at %s.back1", filepath.Base(path))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %v (%s)\n", key, value, path)
	return nil
}

// defaultWritableConfig is the project file when one is active, else the
// user file.
func defaultWritableConfig() (string, error) {
	for _, src := range am.SearchPaths() {
		if src.Source == am.SourceProject {
			return src.Path, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot locate home directory")
	}
	return am.UserConfigPath(home), nil
}

// parseValue keeps TOML types for numbers and booleans.
func parseValue(raw string) interface{} {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return fmt.Errorf("failed to get config introspection: %w", err)
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	for i, src := range am.SearchPaths() {
		state := "missing"
		if _, err := os.Stat(src.Path); err == nil {
			state = "found"
		}
		fmt.Fprintf(out, "  %d. [%s] %s (%s)\n", i+2, src.Source, src.Path, state)
	}
	fmt.Fprintf(out, "  %d. [ENV]      EPICDASH_* environment variables\n", len(am.SearchPaths())+2)
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(intro.Settings))
	for _, s := range intro.Settings {
		value := fmt.Sprintf("%v", s.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		origin := string(s.Source)
		if s.SourcePath != "" {
			origin += " " + s.SourcePath
		}
		rows = append(rows, []string{s.Key, value, origin})
	}
	return display.RenderTable(out, []string{"Key", "Value", "Source"}, rows)
}
