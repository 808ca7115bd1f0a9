package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/epicdash/dashboard"
	"github.com/teranos/epicdash/display"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/sym"
)

// WatchCmd renders the dashboard in the terminal
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: sym.Watch + " Render the gauges in the terminal",
	Long: `Run a dashboard session in-process and redraw the sixteen gauge slots on
every feed tick.

Picks are given as WIDGET:VARIABLE_ID and applied in order, exactly as if
chosen in the widget selectors:

  epicdash watch --select 1:1699696209 --select 3:-1093429509`,
	RunE: runWatch,
}

var (
	watchSelect   []string
	watchInterval time.Duration
	watchTicks    int
	watchHealth   time.Duration
)

func init() {
	WatchCmd.Flags().StringArrayVarP(&watchSelect, "select", "s", nil, "Pick WIDGET:VARIABLE_ID (repeatable)")
	WatchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Feed poll interval (overrides feed.poll_interval_ms)")
	WatchCmd.Flags().DurationVar(&watchHealth, "health-interval", 0, "ECU health poll interval (overrides feed.health_interval_seconds)")
	WatchCmd.Flags().IntVar(&watchTicks, "ticks", 0, "Exit after this many feed ticks (0 runs until interrupted)")
}

// pick is one --select argument.
type pick struct {
	widget int
	id     int64
}

// parsePick parses WIDGET:VARIABLE_ID. Variable ids may be negative.
func parsePick(s string) (pick, error) {
	w, id, ok := strings.Cut(s, ":")
	if !ok {
		return pick{}, errors.NewValidationError("selection %q must be WIDGET:VARIABLE_ID", s)
	}
	widget, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return pick{}, errors.NewValidationError("widget %q in %q is not a number", w, s)
	}
	vid, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return pick{}, errors.NewValidationError("variable id %q in %q is not an integer", id, s)
	}
	return pick{widget: widget, id: vid}, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	picks := make([]pick, 0, len(watchSelect))
	for _, s := range watchSelect {
		p, err := parsePick(s)
		if err != nil {
			return err
		}
		picks = append(picks, p)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	interval := cfg.PollInterval()
	if watchInterval > 0 {
		interval = watchInterval
	}
	healthInterval := cfg.HealthInterval()
	if watchHealth > 0 {
		healthInterval = watchHealth
	}
	client, err := newFeedClient(cfg)
	if err != nil {
		return err
	}

	log := logger.ComponentLogger("watch")
	cat, catErr := loadCatalog(cmd.Context(), cfg, catalogSource(cfg, client, ""), log)
	if catErr != nil {
		pterm.Warning.Printfln("Variable catalog unavailable, using fallback: %v", catErr)
	}

	session := dashboard.New(dashboard.Options{
		Catalog:        cat,
		Client:         client,
		PollInterval:   interval,
		HealthInterval: healthInterval,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.Start()
	defer session.Stop()

	for _, p := range picks {
		res, err := session.Select(ctx, p.widget, p.id)
		if err != nil {
			return errors.Wrapf(err, "select %d:%d", p.widget, p.id)
		}
		pterm.Info.Printfln("Widget %d -> %d: %s %s", p.widget, p.id, res.Outcome, res.Slot)
	}

	sub, err := session.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	area, err := pterm.DefaultArea.Start()
	if err != nil {
		return errors.Wrap(err, "failed to start terminal area")
	}
	defer func() { _ = area.Stop() }()

	followSession(ctx, sub.C, watchTicks, func(snap dashboard.Snapshot) {
		area.Update(renderWatch(snap))
	})
	return nil
}

// followSession keeps a local copy of the dashboard and hands it to draw on
// the first snapshot, every feed tick and every health report. It returns
// the number of feed ticks seen, stopping after limit of them (0 means
// until ctx ends or the session closes the channel).
func followSession(ctx context.Context, events <-chan dashboard.Event, limit int, draw func(dashboard.Snapshot)) int {
	var snap dashboard.Snapshot
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return ticks
		case ev, ok := <-events:
			if !ok {
				return ticks
			}
			snap.Apply(ev)
			switch ev.Type {
			case dashboard.EventStatus:
				ticks++
			case dashboard.EventSnapshot, dashboard.EventHealth:
			default:
				continue
			}
			draw(snap)
			if limit > 0 && ticks >= limit {
				return ticks
			}
		}
	}
}

// renderWatch draws the status line and the slot table.
func renderWatch(snap dashboard.Snapshot) string {
	var b strings.Builder

	st := snap.Status
	switch {
	case st.Connected:
		b.WriteString(pterm.Green("● connected"))
	case st.Failures > 0:
		b.WriteString(pterm.Red(fmt.Sprintf("● disconnected (%d failures)", st.Failures)))
	default:
		b.WriteString(pterm.Gray("● waiting for ECU"))
	}
	if st.ShiftLight {
		b.WriteString("  " + pterm.BgRed.Sprint(" SHIFT "))
	}
	if !st.LastUpdate.IsZero() {
		fmt.Fprintf(&b, "  updated %s", st.LastUpdate.Format("15:04:05"))
	}
	if st.Health != nil {
		fmt.Fprintf(&b, "  up %s  heap %.0f%%", st.Health.UptimeFormatted, st.Health.MemoryUsagePercent)
	}
	if st.Message != "" {
		b.WriteString("\n" + pterm.Yellow(st.Message))
	}
	b.WriteString("\n")

	_ = display.RenderTable(&b, display.SlotHeader, display.SlotRows(snap.Slots))
	return b.String()
}
