// Package alloc is the allocation engine. It owns which catalog variable
// occupies which gauge slot and resolves conflicts when slots run out.
//
// Every transition completes or is rejected whole. After each call no
// variable occupies more than one slot, every bound variable is a readable
// catalog member, and every widget selection names a bound variable.
package alloc

import (
	"go.uber.org/zap"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/propagate"
	"github.com/teranos/epicdash/selector"
)

// Outcome describes what a transition did.
type Outcome int

const (
	// OutcomeNoop changed nothing: clearing an empty slot, deselecting an
	// empty widget.
	OutcomeNoop Outcome = iota
	// OutcomeBound placed the variable in an empty slot.
	OutcomeBound
	// OutcomeEvicted placed the variable in anon:0 after evicting its
	// occupant.
	OutcomeEvicted
	// OutcomeDuplicate left occupancy alone because the variable was
	// already bound.
	OutcomeDuplicate
	// OutcomeCleared emptied a slot.
	OutcomeCleared
)

var outcomeNames = [...]string{"noop", "bound", "evicted", "duplicate", "cleared"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return errors.Newf("unknown outcome %q", text)
}

// Result reports one transition to the caller.
type Result struct {
	Outcome Outcome `json:"outcome"`
	// Widget is the requesting widget, 0 for slot clears.
	Widget int `json:"widget,omitempty"`
	// VariableID is the variable that was selected, or the one freed by a
	// clear.
	VariableID int64 `json:"variable_id"`
	// Slot is the slot bound, cleared, or already holding a duplicate.
	Slot gauge.SlotRef `json:"slot"`
	// Freed is the binding removed by an eviction or clear.
	Freed *gauge.Binding `json:"freed,omitempty"`
	// Update is what the propagator redrew.
	Update propagate.Update `json:"-"`
}

// Changed reports whether the transition altered slot occupancy.
func (r Result) Changed() bool {
	return r.Outcome == OutcomeBound || r.Outcome == OutcomeEvicted || r.Outcome == OutcomeCleared
}

// Option configures an Engine.
type Option func(*Engine)

// WithDisplay sets the sink the propagator renders to.
func WithDisplay(d propagate.Display) Option {
	return func(e *Engine) { e.prop.SetDisplay(d) }
}

// WithValues sets how occupied slots get their value text.
func WithValues(f propagate.ValueFunc) Option {
	return func(e *Engine) { e.prop.SetValues(f) }
}

// WithLogger replaces the component logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is the allocation state machine. It is owned by a single
// goroutine and is not safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
	pool    *gauge.Pool
	board   *selector.Board
	prop    *propagate.Propagator
	log     *zap.SugaredLogger
}

// New returns an engine over an empty pool.
func New(cat *catalog.Catalog, board *selector.Board, opts ...Option) *Engine {
	pool := gauge.NewPool()
	e := &Engine{
		catalog: cat,
		pool:    pool,
		board:   board,
		prop:    propagate.New(pool, board),
		log:     logger.AddGaugeSymbol(logger.ComponentLogger("alloc")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the engine validates against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Pool returns the slot pool. Callers must treat it as read-only.
func (e *Engine) Pool() *gauge.Pool { return e.pool }

// Board returns the widget board. Callers must treat it as read-only.
func (e *Engine) Board() *selector.Board { return e.board }

// Propagator returns the propagator that renders engine state.
func (e *Engine) Propagator() *propagate.Propagator { return e.prop }

// BindDefaults pre-binds each named slot to its signal's default variable
// when that variable is readable and not yet bound elsewhere. It returns
// the slots it bound.
func (e *Engine) BindDefaults() []gauge.SlotRef {
	var bound []gauge.SlotRef
	for _, s := range gauge.Signals {
		ref := gauge.Named(s)
		if _, ok, _ := e.pool.At(ref); ok {
			continue
		}
		v, ok := e.catalog.Lookup(s.Info().Default)
		if !ok || !v.Readable() {
			continue
		}
		if _, taken := e.pool.Lookup(v.ID); taken {
			e.log.Debugw("Default already bound", logger.FieldSlot, ref, logger.FieldVariableID, v.ID)
			continue
		}
		if err := e.pool.Bind(ref, gauge.Binding{ID: v.ID, Name: v.Name}); err != nil {
			e.log.Warnw("Default binding failed", logger.FieldSlot, ref, logger.FieldError, err)
			continue
		}
		bound = append(bound, ref)
	}
	if len(bound) > 0 {
		e.prop.Apply(propagate.Change{Slots: bound})
	}
	e.log.Debugw("Defaults bound", logger.FieldCount, len(bound))
	return bound
}

// Select handles widget choosing variable id.
//
// An id that is already bound leaves occupancy unchanged and reports
// OutcomeDuplicate with a nil error. Otherwise the variable goes to the
// leftmost empty named slot, then the lowest empty anonymous slot, and
// when all sixteen are full it replaces the occupant of anon:0.
func (e *Engine) Select(widget int, id int64) (Result, error) {
	if err := selector.ValidIndex(widget); err != nil {
		return Result{}, err
	}
	v, ok := e.catalog.Lookup(id)
	if !ok {
		return Result{}, errors.NewValidationError("variable %d is not in the catalog", id)
	}
	if !v.Readable() {
		return Result{}, errors.NewValidationError("variable %d (%s) is not readable", id, v.Name)
	}

	if ref, bound := e.pool.Lookup(id); bound {
		r := Result{Outcome: OutcomeDuplicate, Widget: widget, VariableID: id, Slot: ref}
		e.log.Debugw("Selection rejected, variable already bound",
			logger.FieldWidget, widget,
			logger.FieldVariableID, id,
			logger.FieldSlot, ref,
			logger.FieldOutcome, r.Outcome)
		r.Update = e.prop.Apply(propagate.Change{
			Pick: &propagate.Pick{Widget: widget, ID: id, Rejected: true},
		})
		return r, nil
	}

	r := Result{Outcome: OutcomeBound, Widget: widget, VariableID: id}
	ref, ok := e.pool.FirstEmptyNamed()
	if !ok {
		ref, ok = e.pool.FirstEmptyAnonymous()
	}
	if !ok {
		ref = gauge.Anonymous(0)
		prev, _, err := e.pool.Unbind(ref)
		if err != nil {
			return Result{}, errors.Wrap(err, "evict anon:0")
		}
		r.Outcome = OutcomeEvicted
		r.Freed = &prev
		e.log.Infow("Evicted variable",
			logger.FieldSlot, ref,
			logger.FieldVariableID, prev.ID,
			logger.FieldVariable, prev.Name)
	}
	r.Slot = ref

	if err := e.pool.Bind(ref, gauge.Binding{ID: v.ID, Name: v.Name}); err != nil {
		// Unreachable: ref is empty and id is unbound.
		return Result{}, errors.Wrapf(err, "bind %d to %s", id, ref)
	}
	if err := e.board.SetSelection(widget, id); err != nil {
		return Result{}, err
	}

	e.log.Debugw("Variable selected",
		logger.FieldWidget, widget,
		logger.FieldVariableID, id,
		logger.FieldVariable, v.Name,
		logger.FieldSlot, ref,
		logger.FieldOutcome, r.Outcome)
	c := propagate.Change{
		Slots: []gauge.SlotRef{ref},
		Pick:  &propagate.Pick{Widget: widget, ID: id},
	}
	if r.Freed != nil {
		c.Freed = []int64{r.Freed.ID}
	}
	r.Update = e.prop.Apply(c)
	return r, nil
}

// Clear empties ref and resets every widget showing the freed variable.
// Clearing an empty slot is a no-op.
func (e *Engine) Clear(ref gauge.SlotRef) (Result, error) {
	return e.clear(ref, nil)
}

func (e *Engine) clear(ref gauge.SlotRef, widgets []int) (Result, error) {
	prev, ok, err := e.pool.Unbind(ref)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		r := Result{Outcome: OutcomeNoop, Slot: ref}
		if len(widgets) > 0 {
			r.Update = e.prop.Apply(propagate.Change{Widgets: widgets})
		}
		return r, nil
	}
	e.log.Debugw("Slot cleared",
		logger.FieldSlot, ref,
		logger.FieldVariableID, prev.ID,
		logger.FieldVariable, prev.Name)
	r := Result{Outcome: OutcomeCleared, VariableID: prev.ID, Slot: ref, Freed: &prev}
	r.Update = e.prop.Apply(propagate.Change{
		Slots:   []gauge.SlotRef{ref},
		Freed:   []int64{prev.ID},
		Widgets: widgets,
	})
	return r, nil
}

// Deselect resets widget to empty and clears the slot bound to the
// variable it showed.
func (e *Engine) Deselect(widget int) (Result, error) {
	id, had, err := e.board.ClearSelection(widget)
	if err != nil {
		return Result{}, err
	}
	if !had {
		return Result{Outcome: OutcomeNoop, Widget: widget}, nil
	}
	ref, bound := e.pool.Lookup(id)
	if !bound {
		r := Result{Outcome: OutcomeNoop, Widget: widget, VariableID: id}
		r.Update = e.prop.Apply(propagate.Change{Widgets: []int{widget}})
		return r, nil
	}
	r, err := e.clear(ref, []int{widget})
	if err != nil {
		return Result{}, err
	}
	r.Widget = widget
	return r, nil
}

// ClearAll empties every slot and widget.
func (e *Engine) ClearAll() []Result {
	var results []Result
	for _, ref := range gauge.AllRefs() {
		r, err := e.Clear(ref)
		if err == nil && r.Changed() {
			results = append(results, r)
		}
	}
	return results
}
