// Package dashboard runs a dashboard session: one goroutine owns the
// allocation engine, widget board and latest feed reading, and every
// selection, clear and feed tick is applied there in arrival order.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/epicdash/alloc"
	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/categorize"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/feed"
	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/selector"
)

// SubscriberBuffer is the event backlog a subscriber may hold before
// further events to it are dropped.
const SubscriberBuffer = 256

// Options configures a Session.
type Options struct {
	Catalog *catalog.Catalog
	// Client polls the ECU. Nil disables polling; readings can still be
	// pushed with Ingest.
	Client         *feed.Client
	PollInterval   time.Duration
	HealthInterval time.Duration
	Categorizer    *categorize.Categorizer
	Now            func() time.Time
}

// Session owns all dashboard state.
type Session struct {
	id       string
	engine   *alloc.Engine
	resolver *feed.Resolver
	client   *feed.Client
	now      func() time.Time

	pollInterval   time.Duration
	healthInterval time.Duration
	feedPoller     *feed.Poller
	healthPoller   *feed.Poller

	// Owned by the loop goroutine.
	reading     *feed.Reading
	status      Status
	subscribers map[*Subscription]bool

	ops    chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	start  sync.Once
	stop   sync.Once

	drops int64
	log   *zap.SugaredLogger
}

// New builds a session: categorizes the catalog into widgets and binds
// each named slot's default variable.
func New(opts Options) *Session {
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Fallback()
	}
	cz := opts.Categorizer
	if cz == nil {
		cz = categorize.New()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var res categorize.Result
	status := Status{CatalogSize: len(cat.Readable()), CatalogFallback: cat.IsFallback()}
	if cat.IsFallback() {
		res = categorize.Fallback(cat)
		status.Message = categorize.Unavailable
	} else {
		res = cz.Categorize(cat.Readable())
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:             uuid.NewString(),
		resolver:       feed.NewResolver(),
		client:         opts.Client,
		now:            now,
		pollInterval:   opts.PollInterval,
		healthInterval: opts.HealthInterval,
		status:         status,
		subscribers:    make(map[*Subscription]bool),
		ops:            make(chan func()),
		ctx:            ctx,
		cancel:         cancel,
	}
	s.log = logger.AddGaugeSymbol(logger.ComponentLogger("dashboard")).With("session", s.id[:8])
	s.engine = alloc.New(cat, selector.NewBoard(res),
		alloc.WithDisplay(s),
		alloc.WithValues(s.valueText),
	)
	bound := s.engine.BindDefaults()
	s.log.Infow("Session created",
		logger.FieldCount, status.CatalogSize,
		"fallback", status.CatalogFallback,
		"defaults", len(bound),
		"classes", res.Counts)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Catalog returns the session's catalog. It is immutable.
func (s *Session) Catalog() *catalog.Catalog { return s.engine.Catalog() }

// Start runs the event loop and, when a client is configured, the feed
// and health pollers.
func (s *Session) Start() {
	s.start.Do(func() {
		s.wg.Add(1)
		go s.run()

		if s.client != nil && s.pollInterval > 0 {
			s.feedPoller = feed.NewPollerWithContext(s.ctx, "data", s.pollInterval, s.pollFeed)
			s.feedPoller.Start()
		}
		if s.client != nil && s.healthInterval > 0 {
			s.healthPoller = feed.NewPollerWithContext(s.ctx, "health", s.healthInterval, s.pollHealth)
			s.healthPoller.Start()
		}
		logger.AddOpenSymbol(s.log).Infow("Session started", logger.FieldInterval, s.pollInterval)
	})
}

// Stop halts the pollers and the loop and closes every subscription.
func (s *Session) Stop() {
	s.stop.Do(func() {
		s.cancel()
		if s.feedPoller != nil {
			s.feedPoller.Stop()
		}
		if s.healthPoller != nil {
			s.healthPoller.Stop()
		}
		s.wg.Wait()
		logger.AddCloseSymbol(s.log).Infow("Session stopped", "dropped_events", s.drops)
	})
}

// SetPollInterval retunes the running feed poller.
func (s *Session) SetPollInterval(d time.Duration) {
	if s.feedPoller != nil {
		s.feedPoller.SetInterval(d)
	}
}

func (s *Session) run() {
	defer s.wg.Done()
	defer s.closeSubscribers()
	for {
		select {
		case <-s.ctx.Done():
			return
		case op := <-s.ops:
			op()
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	op := func() {
		defer close(done)
		fn()
	}
	select {
	case s.ops <- op:
	case <-s.ctx.Done():
		return errors.Wrap(errors.ErrServiceUnavailable, "dashboard session stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select picks variable id on widget.
func (s *Session) Select(ctx context.Context, widget int, id int64) (alloc.Result, error) {
	var r alloc.Result
	var err error
	if derr := s.do(ctx, func() { r, err = s.engine.Select(widget, id) }); derr != nil {
		return alloc.Result{}, derr
	}
	return r, err
}

// Deselect resets widget and clears its variable's slot.
func (s *Session) Deselect(ctx context.Context, widget int) (alloc.Result, error) {
	var r alloc.Result
	var err error
	if derr := s.do(ctx, func() { r, err = s.engine.Deselect(widget) }); derr != nil {
		return alloc.Result{}, derr
	}
	return r, err
}

// Clear empties a slot.
func (s *Session) Clear(ctx context.Context, ref gauge.SlotRef) (alloc.Result, error) {
	var r alloc.Result
	var err error
	if derr := s.do(ctx, func() { r, err = s.engine.Clear(ref) }); derr != nil {
		return alloc.Result{}, derr
	}
	return r, err
}

// Snapshot returns the full current state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := s.do(ctx, func() { snap = s.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		SessionID: s.id,
		Slots:     s.engine.Propagator().Views(),
		Widgets:   s.engine.Board().Widgets(),
		Status:    s.statusCopy(),
	}
}

func (s *Session) statusCopy() Status {
	st := s.status
	if st.Health != nil {
		h := *st.Health
		st.Health = &h
	}
	return st
}

// valueText is the propagator's value source. Before the first reading
// it returns "" so the slot shows the placeholder.
func (s *Session) valueText(_ gauge.SlotRef, b gauge.Binding) string {
	if s.reading == nil {
		return ""
	}
	return s.resolver.Text(b.ID, b.Name, *s.reading)
}

// RenderSlot publishes a slot change. Called on the loop goroutine.
func (s *Session) RenderSlot(v gauge.View) {
	s.publish(Event{Type: EventSlot, Slot: &v})
}

// RenderWidget publishes a widget change. Called on the loop goroutine.
func (s *Session) RenderWidget(w selector.Widget) {
	s.publish(Event{Type: EventWidget, Widget: &w})
}
