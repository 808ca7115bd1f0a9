package dashboard

import (
	"context"
	"time"

	"github.com/teranos/epicdash/feed"
	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/logger"
)

func (s *Session) pollFeed(ctx context.Context) {
	start := time.Now()
	r, err := s.client.Reading(ctx)
	if ctx.Err() != nil {
		return
	}
	if err == nil {
		s.log.Debugw("Feed polled", logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
	_ = s.Ingest(ctx, r, err)
}

func (s *Session) pollHealth(ctx context.Context) {
	h, err := s.client.Health(ctx)
	if ctx.Err() != nil {
		return
	}
	_ = s.do(ctx, func() { s.applyHealth(h, err) })
}

// Ingest applies one feed poll outcome: a reading refreshes every occupied
// slot's value, an error marks the feed disconnected. Slots keep their
// last value across failures.
func (s *Session) Ingest(ctx context.Context, r feed.Reading, pollErr error) error {
	return s.do(ctx, func() { s.applyReading(r, pollErr) })
}

func (s *Session) applyReading(r feed.Reading, pollErr error) {
	log := logger.AddFeedSymbol(s.log)
	if pollErr != nil {
		s.status.Failures++
		s.status.LastError = pollErr.Error()
		if s.status.Connected {
			s.status.Connected = false
			log.Warnw("Feed disconnected", logger.FieldError, pollErr)
		} else {
			log.Debugw("Feed poll failed",
				logger.FieldError, pollErr,
				logger.FieldFailures, s.status.Failures)
		}
		s.publishStatus(EventStatus)
		return
	}

	if !s.status.Connected {
		log.Infow("Feed connected", "after_failures", s.status.Failures)
	}
	s.status.Connected = true
	s.status.Failures = 0
	s.status.LastError = ""
	s.status.LastUpdate = s.now()
	s.status.ShiftLight = r.ShiftLight
	s.status.Timestamp = r.Timestamp
	s.reading = &r

	s.refreshValues()
	s.publishStatus(EventStatus)
}

// refreshValues re-renders every occupied slot. Occupancy is untouched.
func (s *Session) refreshValues() {
	pool := s.engine.Pool()
	prop := s.engine.Propagator()
	for _, ref := range gauge.AllRefs() {
		if _, ok, _ := pool.At(ref); !ok {
			continue
		}
		v, err := prop.View(ref)
		if err != nil {
			continue
		}
		s.RenderSlot(v)
	}
}

func (s *Session) applyHealth(h feed.Health, err error) {
	if err != nil {
		s.log.Debugw("Health poll failed", logger.FieldError, err)
		return
	}
	s.status.Health = &h
	s.publishStatus(EventHealth)
}

// ApplyHealth records an ECU health report.
func (s *Session) ApplyHealth(ctx context.Context, h feed.Health) error {
	return s.do(ctx, func() { s.applyHealth(h, nil) })
}
