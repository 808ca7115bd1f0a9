// Package gauge holds the sixteen display slots: eight named slots, one per
// well-known engine signal, and eight anonymous overflow slots.
package gauge

import (
	"strings"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/errors"
)

// Signal is one of the eight well-known engine signals.
type Signal int

const (
	RPM Signal = iota
	TPS
	AFR
	CLT
	OilPress
	MAP
	Boost
	IAT
)

// NamedCount and AnonymousCount are the fixed pool sizes.
const (
	NamedCount     = 8
	AnonymousCount = 8
	SlotCount      = NamedCount + AnonymousCount
)

// Signals lists every signal in canonical order. Named slots are filled
// leftmost first in this order.
var Signals = [NamedCount]Signal{RPM, TPS, AFR, CLT, OilPress, MAP, Boost, IAT}

// SignalInfo is the static per-signal display metadata.
type SignalInfo struct {
	Key     string // slot key and /data field name
	Label   string
	Unit    string
	Default int64 // variable pre-bound at startup when present in the catalog
}

var signalInfo = [NamedCount]SignalInfo{
	RPM:      {Key: "rpm", Label: "RPM", Unit: "", Default: catalog.RPMValue},
	TPS:      {Key: "tps", Label: "Throttle", Unit: "%", Default: catalog.TPSValue},
	AFR:      {Key: "afr", Label: "AFR", Unit: "", Default: catalog.AFRValue},
	CLT:      {Key: "clt", Label: "Coolant", Unit: "°C", Default: catalog.CLTValue},
	OilPress: {Key: "oil_press", Label: "Oil Press", Unit: "kPa", Default: catalog.OilPressValue},
	MAP:      {Key: "map", Label: "MAP", Unit: "kPa", Default: catalog.MAPValue},
	// Shares MAP's default; with one slot per variable Boost starts empty.
	Boost: {Key: "boost", Label: "Boost", Unit: "kPa", Default: catalog.MAPValue},
	IAT:   {Key: "iat", Label: "Intake Temp", Unit: "°C", Default: catalog.IATValue},
}

// Info returns the static metadata of s.
func (s Signal) Info() SignalInfo {
	return signalInfo[s]
}

// Key returns the slot key, e.g. "oil_press".
func (s Signal) Key() string {
	return signalInfo[s].Key
}

func (s Signal) String() string {
	return s.Key()
}

// Valid reports whether s is one of the eight signals.
func (s Signal) Valid() bool {
	return s >= RPM && s <= IAT
}

// ParseSignal maps a slot key back to its Signal.
func ParseSignal(key string) (Signal, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, s := range Signals {
		if signalInfo[s].Key == key {
			return s, nil
		}
	}
	return 0, errors.NewValidationError("unknown signal %q", key)
}
