package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/epicdash/display"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/feed"
	"github.com/teranos/epicdash/sym"
)

// EcuCmd groups the ECU inspection commands
var EcuCmd = &cobra.Command{
	Use:   "ecu",
	Short: sym.ECU + " Inspect ECU health and settings",
	Long: sym.ECU + ` ecu - talk to the ECU's management endpoints

Examples:
  epicdash ecu health
  epicdash ecu config show --format yaml
  epicdash ecu config save --shift-light-rpm 6500`,
}

var ecuHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show ECU health",
	RunE:  runEcuHealth,
}

var ecuConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or save the ECU configuration",
}

var ecuConfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the ECU configuration",
	RunE:  runEcuConfigShow,
}

var ecuConfigSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Validate and save the ECU configuration",
	Long: `Read the current configuration from the ECU, apply --file and the
individual flags on top, validate it and send it back.

--file accepts YAML or JSON with the same keys as 'ecu config show'.`,
	RunE: runEcuConfigSave,
}

var (
	ecuFormat   string
	ecuSaveFile string
)

func init() {
	ecuHealthCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	ecuConfigShowCmd.Flags().StringVar(&ecuFormat, "format", "table", "Output format: table, json, yaml")

	f := ecuConfigSaveCmd.Flags()
	f.StringVar(&ecuSaveFile, "file", "", "YAML or JSON file with configuration values")
	f.Int("ecu-id", 0, "ECU id (0-255)")
	f.Int("can-speed", 0, "CAN bus speed in kbit/s (125, 250, 500, 1000)")
	f.Int("request-interval", 0, "Request interval in ms (10-1000)")
	f.Int("max-pending", 0, "Maximum pending requests")
	f.Int("shift-light-rpm", 0, "Shift light RPM (1000-15000)")
	f.String("wifi-ssid", "", "WiFi SSID")
	f.String("wifi-password", "", "WiFi password")
	f.Int("wifi-channel", 0, "WiFi channel")
	f.Bool("wifi-hidden", false, "Hide the WiFi network")

	ecuConfigCmd.AddCommand(ecuConfigShowCmd)
	ecuConfigCmd.AddCommand(ecuConfigSaveCmd)
	EcuCmd.AddCommand(ecuHealthCmd)
	EcuCmd.AddCommand(ecuConfigCmd)
}

func ecuClient(cmd *cobra.Command) (*feed.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newFeedClient(cfg)
}

func runEcuHealth(cmd *cobra.Command, args []string) error {
	client, err := ecuClient(cmd)
	if err != nil {
		return err
	}
	h, err := client.Health(cmd.Context())
	if err != nil {
		return errors.WithHint(err, "is the ECU reachable at "+client.BaseURL()+"?")
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), h)
	}
	return display.RenderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, healthRows(h))
}

func healthRows(h feed.Health) [][]string {
	return [][]string{
		{"Uptime", h.UptimeFormatted},
		{"Heap", fmt.Sprintf("%d / %d bytes free (%.1f%% used)", h.FreeHeap, h.TotalHeap, h.MemoryUsagePercent)},
		{"CAN", fmt.Sprintf("%s (%d errors)", h.CANStatus, h.CANErrors)},
		{"SD card", fmt.Sprintf("%s (%d errors)", h.SDStatus, h.SDErrors)},
		{"WiFi", h.WiFiStatus},
		{"State", h.SystemState},
	}
}

func runEcuConfigShow(cmd *cobra.Command, args []string) error {
	client, err := ecuClient(cmd)
	if err != nil {
		return err
	}
	cfg, err := client.Config(cmd.Context())
	if err != nil {
		return err
	}
	return writeECUConfig(cmd, cfg, ecuFormat)
}

func writeECUConfig(cmd *cobra.Command, cfg feed.ECUConfig, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return display.OutputJSON(out, cfg)
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal ECU config to YAML: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "table":
		return display.RenderTable(out, []string{"Setting", "Value"}, [][]string{
			{"ecu_id", strconv.Itoa(cfg.ECUID)},
			{"can_speed", strconv.Itoa(cfg.CANSpeed)},
			{"request_interval_ms", strconv.Itoa(cfg.RequestIntervalMS)},
			{"max_pending_requests", strconv.Itoa(cfg.MaxPendingRequests)},
			{"shift_light_rpm", strconv.Itoa(cfg.ShiftLightRPM)},
			{"wifi_ssid", cfg.WiFiSSID},
			{"wifi_channel", strconv.Itoa(cfg.WiFiChannel)},
			{"wifi_hidden", strconv.Itoa(cfg.WiFiHidden)},
		})
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", format)
	}
}

func runEcuConfigSave(cmd *cobra.Command, args []string) error {
	client, err := ecuClient(cmd)
	if err != nil {
		return err
	}
	cfg, err := client.Config(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to read current ECU config")
	}
	if err := applyECUConfigFlags(cmd, &cfg, ecuSaveFile); err != nil {
		return err
	}

	res, err := client.SaveConfig(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	pterm.Success.Println(res.Message)
	return nil
}

// applyECUConfigFlags layers file, then changed flags, over cfg.
func applyECUConfigFlags(cmd *cobra.Command, cfg *feed.ECUConfig, file string) error {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", file)
		}
		// JSON is valid YAML, so one decoder serves both.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrapf(err, "failed to parse %s", file)
		}
	}

	f := cmd.Flags()
	ints := map[string]*int{
		"ecu-id":           &cfg.ECUID,
		"can-speed":        &cfg.CANSpeed,
		"request-interval": &cfg.RequestIntervalMS,
		"max-pending":      &cfg.MaxPendingRequests,
		"shift-light-rpm":  &cfg.ShiftLightRPM,
		"wifi-channel":     &cfg.WiFiChannel,
	}
	for name, dst := range ints {
		if f.Changed(name) {
			v, _ := f.GetInt(name)
			*dst = v
		}
	}
	if f.Changed("wifi-ssid") {
		cfg.WiFiSSID, _ = f.GetString("wifi-ssid")
	}
	if f.Changed("wifi-password") {
		cfg.WiFiPassword, _ = f.GetString("wifi-password")
	}
	if f.Changed("wifi-hidden") {
		hidden, _ := f.GetBool("wifi-hidden")
		cfg.WiFiHidden = 0
		if hidden {
			cfg.WiFiHidden = 1
		}
	}
	return nil
}
