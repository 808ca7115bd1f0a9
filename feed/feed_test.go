package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/errors"
)

func TestReading_Unmarshal(t *testing.T) {
	var r Reading
	err := json.Unmarshal([]byte(`{
		"tps": 45.27, "rpm": 4200, "afr": 14.7, "clt": 88.5,
		"shift_light": true, "timestamp": 1700000000123, "note": "ignored"
	}`), &r)
	require.NoError(t, err)

	v, ok := r.Get(FieldRPM)
	assert.True(t, ok)
	assert.Equal(t, 4200.0, v)
	_, ok = r.Get(FieldBoost)
	assert.False(t, ok)
	_, ok = r.Get("note")
	assert.False(t, ok)
	assert.True(t, r.ShiftLight)
	assert.Equal(t, int64(1700000000123), r.Timestamp)
	assert.Len(t, r.Fields(), 4)
}

func TestReading_ShiftLightAsNumber(t *testing.T) {
	var r Reading
	require.NoError(t, json.Unmarshal([]byte(`{"shift_light": 1}`), &r))
	assert.True(t, r.ShiftLight)
}

func TestReading_NotAnObject(t *testing.T) {
	var r Reading
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestResolver_Field(t *testing.T) {
	res := NewResolver()
	tests := []struct {
		name   string
		id     int64
		varNam string
		want   string
		ok     bool
	}{
		{"known rpm", catalog.RPMValue, "whatever", FieldRPM, true},
		{"known negative afr", catalog.AFRValue, "", FieldAFR, true},
		{"known iat", catalog.IATValue, "", FieldIAT, true},
		{"heuristic tps", 11, "TPSValue2", FieldTPS, true},
		{"heuristic oil", 12, "OilPressure", FieldOilPress, true},
		{"heuristic coolant", 13, "CoolantTemp", FieldCLT, true},
		{"heuristic intake", 14, "IntakeAirTemp", FieldIAT, true},
		{"heuristic boost", 15, "BoostTarget", FieldBoost, true},
		{"map needs value", 16, "MapSelector", "", false},
		{"unresolved", 17, "KnockCount", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := res.Field(tt.id, tt.varNam)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestResolver_Text(t *testing.T) {
	res := NewResolver()
	r := Reading{Values: map[string]float64{FieldRPM: 4200}, Timestamp: 1}

	assert.Equal(t, "4200", res.Text(catalog.RPMValue, "RPMValue", r))
	assert.Equal(t, NotAvailable, res.Text(catalog.TPSValue, "TPSValue", r))
	assert.Equal(t, NotAvailable, res.Text(99, "KnockCount", r))
}

func TestResolver_ReadingFields(t *testing.T) {
	res := NewResolver()
	r := Reading{Values: map[string]float64{
		"knock":       3,
		"knock_count": 7,
		"vbatt":       13.8,
		FieldRPM:      4200,
	}}

	tests := []struct {
		name    string
		varName string
		want    string
	}{
		{"equal field", "VBatt", "13.8"},
		{"equal beats contained", "Knock_Count", "7"},
		{"longest contained field", "knock_count_total", "7"},
		{"contained field", "KnockRetard", "3"},
		{"table before reading", "RPMValue", "4200"},
		{"no field", "EgoCorrection", NotAvailable},
		{"empty name", "", NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, res.Text(99, tt.varName, r))
		})
	}

	_, ok := res.Field(99, "VBatt")
	assert.False(t, ok, "Field alone does not see the reading")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{4200, "4200"},
		{14.73, "14.7"},
		{-0.37, "-0.4"},
		{88, "88"},
		{1234.56, "1235"},
		{-25.0, "-25"},
		{-0.04, "0.0"},
		{0.04, "0.0"},
		{-0.4, "-0.4"},
		{999.94, "999.9"},
		{999.96, "1000"},
		{-999.96, "-1000"},
		{-0.3, "-0.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in), "%v", tt.in)
	}
}

func TestECUConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ECUConfig)
		ok     bool
	}{
		{"defaults", func(*ECUConfig) {}, true},
		{"ecu id high", func(c *ECUConfig) { c.ECUID = 256 }, false},
		{"ecu id negative", func(c *ECUConfig) { c.ECUID = -1 }, false},
		{"can speed", func(c *ECUConfig) { c.CANSpeed = 333 }, false},
		{"can speed 1000", func(c *ECUConfig) { c.CANSpeed = 1000 }, true},
		{"interval low", func(c *ECUConfig) { c.RequestIntervalMS = 9 }, false},
		{"interval high", func(c *ECUConfig) { c.RequestIntervalMS = 1001 }, false},
		{"shift light low", func(c *ECUConfig) { c.ShiftLightRPM = 999 }, false},
		{"shift light high", func(c *ECUConfig) { c.ShiftLightRPM = 15001 }, false},
		{"empty ssid", func(c *ECUConfig) { c.WiFiSSID = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultECUConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func fakeECU(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(PathData, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"rpm": 4200, "timestamp": 5}`)
	})
	mux.HandleFunc(PathHealth, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"uptime_seconds": 61, "can_status": "ACTIVE", "memory_usage_percent": 71.2}`)
	})
	mux.HandleFunc(PathConfig, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(DefaultECUConfig())
	})
	mux.HandleFunc(PathConfigSave, func(w http.ResponseWriter, r *http.Request) {
		var cfg ECUConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"status":"error","message":"bad json"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","message":"Configuration saved"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := fakeECU(t)
	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	r, err := c.Reading(ctx)
	require.NoError(t, err)
	v, _ := r.Get(FieldRPM)
	assert.Equal(t, 4200.0, v)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(61), h.UptimeSeconds)
	assert.Equal(t, "ACTIVE", h.CANStatus)

	cfg, err := c.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.CANSpeed)

	res, err := c.SaveConfig(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, res.OK())

	cfg.CANSpeed = 42
	_, err = c.SaveConfig(ctx, cfg)
	assert.True(t, errors.IsValidationError(err))
}

func TestClient_FeedUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = c.Reading(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFeedUnavailable))
}
