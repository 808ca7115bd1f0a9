package dashboard

import (
	"time"

	"github.com/teranos/epicdash/feed"
	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/selector"
)

// Status is the connection and ECU state shown next to the gauges.
type Status struct {
	Connected  bool         `json:"connected"`
	Failures   int          `json:"failures"`
	LastUpdate time.Time    `json:"last_update,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
	ShiftLight bool         `json:"shift_light"`
	Timestamp  int64        `json:"timestamp"`
	Health     *feed.Health `json:"health,omitempty"`

	CatalogSize     int    `json:"catalog_size"`
	CatalogFallback bool   `json:"catalog_fallback"`
	Message         string `json:"message,omitempty"`
}

// Snapshot is the full dashboard state.
type Snapshot struct {
	SessionID string            `json:"session_id"`
	Slots     []gauge.View      `json:"slots"`
	Widgets   []selector.Widget `json:"widgets"`
	Status    Status            `json:"status"`
}

// EventType tags an Event.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventSlot     EventType = "slot"
	EventWidget   EventType = "widget"
	EventStatus   EventType = "status"
	// EventHealth carries the status after an ECU health report. EventStatus
	// is only sent for feed ticks.
	EventHealth EventType = "health"
)

// Event is one change pushed to subscribers.
type Event struct {
	Type     EventType        `json:"type"`
	Slot     *gauge.View      `json:"slot,omitempty"`
	Widget   *selector.Widget `json:"widget,omitempty"`
	Status   *Status          `json:"status,omitempty"`
	Snapshot *Snapshot        `json:"snapshot,omitempty"`
}

// Apply folds e into s, the way a subscriber keeps its own copy of the
// dashboard current.
func (s *Snapshot) Apply(e Event) {
	switch e.Type {
	case EventSnapshot:
		if e.Snapshot != nil {
			*s = *e.Snapshot
		}
	case EventSlot:
		if e.Slot == nil {
			return
		}
		for i := range s.Slots {
			if s.Slots[i].Ref == e.Slot.Ref {
				s.Slots[i] = *e.Slot
				return
			}
		}
	case EventWidget:
		if e.Widget == nil {
			return
		}
		for i := range s.Widgets {
			if s.Widgets[i].Index == e.Widget.Index {
				s.Widgets[i] = *e.Widget
				return
			}
		}
	case EventStatus, EventHealth:
		if e.Status != nil {
			s.Status = *e.Status
		}
	}
}
