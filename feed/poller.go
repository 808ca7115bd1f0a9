package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/epicdash/logger"
)

// Task is one poll. It runs on its own goroutine.
type Task func(ctx context.Context)

// PollerStats counts ticks since Start.
type PollerStats struct {
	Ticks   int64 `json:"ticks"`
	Skipped int64 `json:"skipped"`
}

// Poller runs a Task on a fixed interval. A tick that arrives while the
// previous task is still running is skipped, not queued.
type Poller struct {
	name     string
	task     Task
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	reset  chan time.Duration

	inFlight atomic.Bool
	ticks    atomic.Int64
	skipped  atomic.Int64

	log *zap.SugaredLogger
}

// NewPoller creates a poller. Call Start to begin ticking.
func NewPoller(name string, interval time.Duration, task Task) *Poller {
	return NewPollerWithContext(context.Background(), name, interval, task)
}

// NewPollerWithContext creates a poller bound to a parent context.
func NewPollerWithContext(ctx context.Context, name string, interval time.Duration, task Task) *Poller {
	pollCtx, cancel := context.WithCancel(ctx)
	return &Poller{
		name:     name,
		task:     task,
		interval: interval,
		ctx:      pollCtx,
		cancel:   cancel,
		reset:    make(chan time.Duration, 1),
		log:      logger.AddFeedSymbol(logger.ComponentLogger("feed.poller")).With(logger.FieldOperation, name),
	}
}

// Start begins the poll loop. The first task runs immediately.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.run()
	p.log.Infow("Poller started", logger.FieldInterval, p.interval)
}

// Stop cancels the running task and waits for the loop and any task to
// return.
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
	p.log.Infow("Poller stopped", logger.FieldCount, p.ticks.Load())
}

// SetInterval changes the tick interval of a running poller.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-p.reset:
	default:
	}
	select {
	case p.reset <- d:
	default:
	}
}

// Stats returns tick counters.
func (p *Poller) Stats() PollerStats {
	return PollerStats{Ticks: p.ticks.Load(), Skipped: p.skipped.Load()}
}

// Busy reports whether a task is running.
func (p *Poller) Busy() bool {
	return p.inFlight.Load()
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick()
	for {
		select {
		case <-p.ctx.Done():
			return
		case d := <-p.reset:
			if d != p.interval {
				p.log.Infow("Poll interval changed", logger.FieldInterval, d)
				p.interval = d
				ticker.Reset(d)
			}
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick starts the task unless one is already outstanding.
func (p *Poller) tick() {
	p.ticks.Add(1)
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.log.Debugw("Tick skipped, previous poll in flight")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)
		p.task(p.ctx)
	}()
}
