package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/epicdash/am"
	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/dashboard"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/feed"
	"github.com/teranos/epicdash/gauge"
	edtest "github.com/teranos/epicdash/internal/testing"
	"github.com/teranos/epicdash/version"
)

// isolate points config discovery at an empty home and resets the cache.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	am.Reset()
	t.Cleanup(am.Reset)
}

// resetFlags restores every flag under cmd to its default. The commands are
// package globals, so values and Changed marks survive between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "epicdash", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().CountP("verbose", "v", "")
	root.PersistentFlags().String("ecu", "", "")
	root.AddCommand(CatalogCmd, EcuCmd, AmCmd, VersionCmd, WatchCmd)
	resetFlags(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestParsePick(t *testing.T) {
	tests := []struct {
		in      string
		want    pick
		wantErr bool
	}{
		{"1:1699696209", pick{widget: 1, id: 1699696209}, false},
		{"3:-1093429509", pick{widget: 3, id: -1093429509}, false},
		{" 8 : 42 ", pick{widget: 8, id: 42}, false},
		{"1699696209", pick{}, true},
		{"x:1", pick{}, true},
		{"1:abc", pick{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePick(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(9001), parseValue("9001"))
	assert.Equal(t, 2.5, parseValue("2.5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "http://localhost:8080", parseValue("http://localhost:8080"))
}

func TestCatalogCommand_JSON(t *testing.T) {
	isolate(t)
	srv, _ := edtest.StartECU(t, edtest.SampleEntries)

	out, err := execute(t, "catalog", "--json", "--ecu", srv.URL)
	require.NoError(t, err)

	var report CatalogReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Fallback)
	assert.Empty(t, report.Error)
	assert.Equal(t, len(edtest.SampleEntries), report.Total)
	assert.Equal(t, len(edtest.SampleEntries)-1, report.Readable)
	assert.Len(t, report.Widgets, 8)

	n := 0
	for _, w := range report.Widgets {
		n += len(w.Options)
	}
	assert.Equal(t, report.Readable, n)
}

func TestCatalogCommand_Fallback(t *testing.T) {
	isolate(t)
	// No variables file: the ECU serves [].
	srv, _ := edtest.StartECU(t, nil)

	out, err := execute(t, "catalog", "--json", "--ecu", srv.URL)
	require.NoError(t, err)

	var report CatalogReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Fallback)
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, 3, report.Readable)
	assert.Len(t, report.Widgets[0].Options, 3)
	assert.Empty(t, report.Widgets[1].Options)
}

func TestCatalogCommand_File(t *testing.T) {
	isolate(t)
	path := edtest.WriteCatalog(t, edtest.SampleEntries)

	// The ECU URL is never contacted when a file is given.
	out, err := execute(t, "catalog", "--json", "--file", path, "--ecu", "http://127.0.0.1:1")
	require.NoError(t, err)

	var report CatalogReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Fallback)
	assert.Equal(t, path, report.Source)
}

func TestBuildCatalogReport_Fallback(t *testing.T) {
	report := buildCatalogReport(catalog.Fallback(), "http://ecu/variables.json", errors.ErrCatalogUnavailable)
	assert.True(t, report.Fallback)
	assert.Equal(t, "3 fallback variables", report.Widgets[0].Info)
	assert.Nil(t, report.Classes)
}

func TestEcuHealth(t *testing.T) {
	isolate(t)
	srv, _ := edtest.StartECU(t, nil)

	out, err := execute(t, "ecu", "health", "--json", "--ecu", srv.URL)
	require.NoError(t, err)

	var h feed.Health
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.Equal(t, "NORMAL", h.SystemState)
	assert.Positive(t, h.TotalHeap)
}

func TestEcuHealth_Unreachable(t *testing.T) {
	isolate(t)
	_, err := execute(t, "ecu", "health", "--ecu", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFeedUnavailable))
}

func TestEcuConfig_ShowAndSave(t *testing.T) {
	isolate(t)
	srv, sim := edtest.StartECU(t, nil)

	out, err := execute(t, "ecu", "config", "show", "--format", "yaml", "--ecu", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "shift_light_rpm: 6000")

	_, err = execute(t, "ecu", "config", "save", "--shift-light-rpm", "6500", "--ecu", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 6500, sim.Config().ShiftLightRPM)

	_, err = execute(t, "ecu", "config", "save", "--can-speed", "300", "--ecu", srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, 500, sim.Config().CANSpeed)
}

func TestEcuConfig_SaveFromFile(t *testing.T) {
	isolate(t)
	srv, sim := edtest.StartECU(t, nil)

	path := filepath.Join(t.TempDir(), "ecu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ecu_id: 7\nwifi_ssid: PITLANE\n"), 0644))

	_, err := execute(t, "ecu", "config", "save", "--file", path, "--ecu", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 7, sim.Config().ECUID)
	assert.Equal(t, "PITLANE", sim.Config().WiFiSSID)
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Get(), info)
}

func TestAmShow(t *testing.T) {
	isolate(t)

	for _, format := range []string{"toml", "yaml"} {
		out, err := execute(t, "am", "show", "--format", format)
		require.NoError(t, err, format)
		assert.Contains(t, out, "# epicdash configuration", format)
		assert.Contains(t, out, "192.168.4.1", format)
	}

	out, err := execute(t, "am", "show", "--format", "json")
	require.NoError(t, err)
	var cfg am.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, am.DefaultServerPort, cfg.Server.Port)

	_, err = execute(t, "am", "show", "--format", "ini")
	assert.Error(t, err)
}

func TestAmGet(t *testing.T) {
	isolate(t)

	out, err := execute(t, "am", "get", "feed.poll_interval_ms")
	require.NoError(t, err)
	assert.Equal(t, "1000\n", out)

	_, err = execute(t, "am", "get", "feed.nope")
	assert.Error(t, err)
}

func TestAmSet(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), am.ConfigFileName)

	_, err := execute(t, "am", "set", "server.port", "9001", "--file", path)
	require.NoError(t, err)

	cfg, err := am.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)

	_, err = execute(t, "am", "set", "server.port", "0", "--file", path)
	require.Error(t, err)
	assert.FileExists(t, path+".back1")

	_, err = execute(t, "am", "set", "server.nope", "1", "--file", path)
	assert.Error(t, err)
}

func TestAmValidate(t *testing.T) {
	isolate(t)
	out, err := execute(t, "am", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	am.Reset()
	t.Setenv("EPICDASH_FEED_POLL_INTERVAL_MS", "-5")
	_, err = execute(t, "am", "validate")
	assert.Error(t, err)
}

func TestRenderWatch(t *testing.T) {
	id := catalog.RPMValue
	snap := dashboard.Snapshot{
		Slots: []gauge.View{
			{Ref: gauge.Named(gauge.RPM), Label: "RPMValue", VariableID: &id, Value: "4200"},
			{Ref: gauge.Anonymous(0), Label: gauge.EmptyLabel},
		},
		Status: dashboard.Status{
			Connected:  true,
			ShiftLight: true,
			LastUpdate: time.Date(2026, 1, 2, 13, 14, 15, 0, time.UTC),
			Health:     &feed.Health{UptimeFormatted: "0h 1m 5s", MemoryUsagePercent: 71.2},
		},
	}

	out := renderWatch(snap)
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "SHIFT")
	assert.Contains(t, out, "13:14:15")
	assert.Contains(t, out, "0h 1m 5s")
	assert.Contains(t, out, "4200")

	snap.Status = dashboard.Status{Failures: 3, Message: "variable catalog unavailable"}
	out = renderWatch(snap)
	assert.Contains(t, out, "disconnected (3 failures)")
	assert.Contains(t, out, "variable catalog unavailable")
}

func TestFollowSession_CountsFeedTicksOnly(t *testing.T) {
	health := &dashboard.Status{Health: &feed.Health{SystemState: "NORMAL"}}
	tick := func(sec int) dashboard.Event {
		return dashboard.Event{Type: dashboard.EventStatus, Status: &dashboard.Status{
			Connected:  true,
			LastUpdate: time.Date(2026, 1, 2, 0, 0, sec, 0, time.UTC),
		}}
	}
	slot := gauge.View{Ref: gauge.Named(gauge.RPM), Label: gauge.EmptyLabel}

	events := make(chan dashboard.Event, 16)
	events <- dashboard.Event{Type: dashboard.EventSnapshot, Snapshot: &dashboard.Snapshot{Slots: []gauge.View{slot}}}
	events <- dashboard.Event{Type: dashboard.EventHealth, Status: health}
	events <- dashboard.Event{Type: dashboard.EventSlot, Slot: &slot}
	events <- tick(1)
	events <- dashboard.Event{Type: dashboard.EventHealth, Status: health}
	events <- dashboard.Event{Type: dashboard.EventHealth, Status: health}
	events <- tick(2)
	events <- tick(3)

	var drawn []dashboard.Snapshot
	n := followSession(context.Background(), events, 2, func(s dashboard.Snapshot) {
		drawn = append(drawn, s)
	})

	assert.Equal(t, 2, n)
	assert.Len(t, drawn, 6, "snapshot, three health reports and two ticks")
	assert.Len(t, events, 1, "the third tick is left unread")
	last := drawn[len(drawn)-1]
	assert.True(t, last.Status.Connected)
	assert.Equal(t, 2, last.Status.LastUpdate.Second())
}

func TestFollowSession_StopsOnClose(t *testing.T) {
	events := make(chan dashboard.Event, 2)
	events <- dashboard.Event{Type: dashboard.EventHealth, Status: &dashboard.Status{}}
	close(events)

	draws := 0
	n := followSession(context.Background(), events, 5, func(dashboard.Snapshot) { draws++ })
	assert.Zero(t, n)
	assert.Equal(t, 1, draws)
}

func TestFollowSession_LiveECU(t *testing.T) {
	srv, _ := edtest.StartECU(t, edtest.SampleEntries)
	client, err := feed.NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	session := dashboard.New(dashboard.Options{
		Catalog:        catalog.Fallback(),
		Client:         client,
		PollInterval:   150 * time.Millisecond,
		HealthInterval: 5 * time.Millisecond,
	})
	session.Start()
	defer session.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub, err := session.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	updates := map[time.Time]bool{}
	draws, withHealth := 0, 0
	n := followSession(ctx, sub.C, 3, func(s dashboard.Snapshot) {
		draws++
		if s.Status.Health != nil {
			withHealth++
		}
		if !s.Status.LastUpdate.IsZero() {
			updates[s.Status.LastUpdate] = true
		}
	})

	require.NoError(t, ctx.Err())
	assert.Equal(t, 3, n)
	assert.Len(t, updates, 3, "one redraw per feed tick carries a new update time")
	assert.Greater(t, withHealth, 0)
	assert.Greater(t, draws, 4, "health reports redraw without counting as ticks")
}

func TestWatchCommand_Ticks(t *testing.T) {
	isolate(t)
	srv, sim := edtest.StartECU(t, edtest.SampleEntries)

	_, err := execute(t, "watch", "--ecu", srv.URL,
		"--select", "2:-12345", "--interval", "40ms", "--health-interval", "5ms", "--ticks", "2")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sim.Requests(), int64(3), "catalog plus two feed polls")
}

func TestWatchCommand_BadPick(t *testing.T) {
	isolate(t)
	_, err := execute(t, "watch", "--select", "nope")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}
