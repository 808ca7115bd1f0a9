// Package simulator serves a mock ECU API for development and tests.
package simulator

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/epicdash/feed"
	"github.com/teranos/epicdash/internal/util"
	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/sym"
)

// Atmospheric pressure in kPa; boost is MAP above it.
const atmosphericKPa = 101.3

// Options configures a Simulator.
type Options struct {
	// VariablesFile is served at /variables.json. Empty serves [].
	VariablesFile string
	Now           func() time.Time
}

// Simulator produces time-driven engine data.
type Simulator struct {
	variablesFile string
	now           func() time.Time
	started       time.Time
	requests      atomic.Int64

	mu     sync.Mutex
	config feed.ECUConfig

	log *zap.SugaredLogger
}

// New returns a simulator whose uptime starts now.
func New(opts Options) *Simulator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		variablesFile: opts.VariablesFile,
		now:           now,
		started:       now(),
		config:        feed.DefaultECUConfig(),
		log:           logger.ComponentLogger("simulator").With(logger.FieldSymbol, sym.Sim),
	}
}

// Requests returns how many /data requests were served.
func (s *Simulator) Requests() int64 {
	return s.requests.Load()
}

// Config returns the last saved configuration.
func (s *Simulator) Config() feed.ECUConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Simulator) setConfig(cfg feed.ECUConfig) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

// Sample returns the reading at t.
//
// RPM ramps from 3000 to 7000 and back over a 20 s cycle of scaled time,
// and the other channels follow it. Coolant warms from 20 °C and holds at
// 95 °C. The shift light is on above 6000 RPM.
func Sample(t time.Time) feed.Reading {
	secs := float64(t.UnixNano()) / float64(time.Second)

	var rpm float64
	cycle := math.Mod(secs*0.3, 20)
	if cycle < 10 {
		rpm = 3000 + math.Trunc(4000*(cycle/10))
	} else {
		rpm = 7000 - math.Trunc(4000*((cycle-10)/10))
	}
	tps := 20 + rpm/7000*60
	afr := 14.5 + math.Mod(secs, 1)*0.5
	clt := util.Clamp(20+math.Mod(secs*0.05, 200)*0.375, 20, 95)
	iat := 25 + rpm/7000*25 + math.Mod(secs, 2)*2
	mapKPa := 50 + tps/100*100 + math.Mod(secs, 3)*5
	boost := mapKPa - atmosphericKPa
	oil := 30 + rpm/7000*50

	return feed.Reading{
		Values: map[string]float64{
			feed.FieldTPS:      round(tps, 2),
			feed.FieldRPM:      rpm,
			feed.FieldAFR:      round(afr, 2),
			feed.FieldCLT:      round(clt, 1),
			feed.FieldIAT:      round(iat, 1),
			feed.FieldMAP:      round(mapKPa, 1),
			feed.FieldBoost:    round(boost, 1),
			feed.FieldOilPress: round(oil, 1),
		},
		ShiftLight: rpm > 6000,
		Timestamp:  t.UnixMilli(),
	}
}

// Health returns the health report at t.
func (s *Simulator) Health(t time.Time) feed.Health {
	up := int64(t.Sub(s.started) / time.Second)
	if up < 0 {
		up = 0
	}
	return feed.Health{
		UptimeSeconds:      up,
		UptimeFormatted:    formatUptime(up),
		FreeHeap:           150000,
		TotalHeap:          520000,
		MemoryUsagePercent: 71.2,
		CANStatus:          "ACTIVE",
		SDStatus:           "ACTIVE",
		WiFiStatus:         "CONNECTED",
		SystemState:        "NORMAL",
	}
}

func formatUptime(secs int64) string {
	return fmt.Sprintf("%dh %dm %ds", secs/3600, secs%3600/60, secs%60)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
