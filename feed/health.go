package feed

import (
	"github.com/teranos/epicdash/errors"
)

// Health is the /health response.
type Health struct {
	UptimeSeconds      int64   `json:"uptime_seconds"`
	UptimeFormatted    string  `json:"uptime_formatted"`
	FreeHeap           int64   `json:"free_heap"`
	TotalHeap          int64   `json:"total_heap"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
	CANStatus          string  `json:"can_status"`
	SDStatus           string  `json:"sd_status"`
	WiFiStatus         string  `json:"wifi_status"`
	SystemState        string  `json:"system_state"`
	CANErrors          int64   `json:"can_errors"`
	SDErrors           int64   `json:"sd_errors"`
}

// CANSpeeds are the bus speeds the ECU accepts, in kbit/s.
var CANSpeeds = []int{125, 250, 500, 1000}

// ECUConfig is the /config document.
type ECUConfig struct {
	ECUID              int    `json:"ecu_id" yaml:"ecu_id"`
	CANSpeed           int    `json:"can_speed" yaml:"can_speed"`
	RequestIntervalMS  int    `json:"request_interval_ms" yaml:"request_interval_ms"`
	MaxPendingRequests int    `json:"max_pending_requests" yaml:"max_pending_requests"`
	ShiftLightRPM      int    `json:"shift_light_rpm" yaml:"shift_light_rpm"`
	WiFiSSID           string `json:"wifi_ssid" yaml:"wifi_ssid"`
	WiFiPassword       string `json:"wifi_password,omitempty" yaml:"wifi_password,omitempty"`
	WiFiChannel        int    `json:"wifi_channel" yaml:"wifi_channel"`
	WiFiHidden         int    `json:"wifi_hidden" yaml:"wifi_hidden"`
}

// Validate checks the ranges the ECU firmware enforces.
func (c ECUConfig) Validate() error {
	if c.ECUID < 0 || c.ECUID > 255 {
		return errors.NewValidationError("ecu_id %d out of range 0..255", c.ECUID)
	}
	valid := false
	for _, s := range CANSpeeds {
		if c.CANSpeed == s {
			valid = true
			break
		}
	}
	if !valid {
		return errors.WithHint(
			errors.NewValidationError("can_speed %d not supported", c.CANSpeed),
			"use one of 125, 250, 500 or 1000")
	}
	if c.RequestIntervalMS < 10 || c.RequestIntervalMS > 1000 {
		return errors.NewValidationError("request_interval_ms %d out of range 10..1000", c.RequestIntervalMS)
	}
	if c.ShiftLightRPM < 1000 || c.ShiftLightRPM > 15000 {
		return errors.NewValidationError("shift_light_rpm %d out of range 1000..15000", c.ShiftLightRPM)
	}
	if c.WiFiSSID == "" {
		return errors.NewValidationError("wifi_ssid must not be empty")
	}
	return nil
}

// DefaultECUConfig is the firmware's factory configuration.
func DefaultECUConfig() ECUConfig {
	return ECUConfig{
		ECUID:              1,
		CANSpeed:           500,
		RequestIntervalMS:  50,
		MaxPendingRequests: 16,
		ShiftLightRPM:      6000,
		WiFiSSID:           "EPIC_CAN_LOGGER",
		WiFiPassword:       "password123",
		WiFiChannel:        1,
	}
}

// SaveResult is the /config/save response.
type SaveResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the ECU accepted the configuration.
func (r SaveResult) OK() bool {
	return r.Status == "success"
}
