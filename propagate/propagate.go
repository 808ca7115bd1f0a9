// Package propagate keeps selector widgets and slot displays in agreement
// with the allocation engine after every transition.
package propagate

import (
	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/selector"
)

// Placeholder is the value shown by an occupied slot before the feed has
// produced a reading for it.
const Placeholder = "--"

// Display receives the slots and widgets a transition touched.
type Display interface {
	RenderSlot(gauge.View)
	RenderWidget(selector.Widget)
}

// ValueFunc returns the text shown in an occupied slot.
type ValueFunc func(ref gauge.SlotRef, b gauge.Binding) string

// Pick is a widget choice handed to the engine.
type Pick struct {
	Widget   int
	ID       int64
	Rejected bool
}

// Change describes one completed transition.
type Change struct {
	// Slots whose occupancy changed.
	Slots []gauge.SlotRef
	// Freed variables are no longer bound anywhere.
	Freed []int64
	// Pick is set when the transition came from a widget selection.
	Pick *Pick
	// Widgets already modified by the caller that need a redraw.
	Widgets []int
}

// Update is what a Change rendered.
type Update struct {
	Slots   []gauge.View      `json:"slots"`
	Widgets []selector.Widget `json:"widgets"`
}

// Empty reports whether nothing was rendered.
func (u Update) Empty() bool {
	return len(u.Slots) == 0 && len(u.Widgets) == 0
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithDisplay sets the render sink.
func WithDisplay(d Display) Option {
	return func(p *Propagator) { p.display = d }
}

// WithValues sets how occupied slots get their value text.
func WithValues(f ValueFunc) Option {
	return func(p *Propagator) { p.values = f }
}

// Propagator applies Changes to the widget board and renders only the
// affected slots and widgets.
type Propagator struct {
	pool    *gauge.Pool
	board   *selector.Board
	display Display
	values  ValueFunc
}

// New returns a propagator over pool and board.
func New(pool *gauge.Pool, board *selector.Board, opts ...Option) *Propagator {
	p := &Propagator{pool: pool, board: board}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetDisplay replaces the render sink. Nil disables rendering.
func (p *Propagator) SetDisplay(d Display) {
	p.display = d
}

// SetValues replaces the value function.
func (p *Propagator) SetValues(f ValueFunc) {
	p.values = f
}

// Apply blanks stale widget selections and renders the affected state.
//
// Widgets showing a freed variable are reset. An accepted pick stays on
// its widget and any other widget showing the same variable is reset. A
// rejected pick resets the requesting widget unless it already showed
// the variable.
func (p *Propagator) Apply(c Change) Update {
	touched := newIndexSet()
	for _, w := range c.Widgets {
		touched.add(w)
	}
	for _, id := range c.Freed {
		touched.add(p.board.ClearHolding(id, 0)...)
	}
	if pk := c.Pick; pk != nil {
		if pk.Rejected {
			if cur, ok, err := p.board.Selection(pk.Widget); err == nil && (!ok || cur != pk.ID) {
				_, _, _ = p.board.ClearSelection(pk.Widget)
			}
		} else {
			touched.add(p.board.ClearHolding(pk.ID, pk.Widget)...)
		}
		touched.add(pk.Widget)
	}

	var u Update
	for _, ref := range c.Slots {
		v, err := p.View(ref)
		if err != nil {
			continue
		}
		u.Slots = append(u.Slots, v)
	}
	for _, idx := range touched.order {
		w, err := p.board.Widget(idx)
		if err != nil {
			continue
		}
		u.Widgets = append(u.Widgets, w)
	}

	if p.display != nil {
		for _, v := range u.Slots {
			p.display.RenderSlot(v)
		}
		for _, w := range u.Widgets {
			p.display.RenderWidget(w)
		}
	}
	return u
}

// View returns the display state of ref with its value filled in.
func (p *Propagator) View(ref gauge.SlotRef) (gauge.View, error) {
	v, err := p.pool.View(ref)
	if err != nil {
		return gauge.View{}, err
	}
	if v.Empty() {
		return v, nil
	}
	v.Value = Placeholder
	if p.values != nil {
		b := gauge.Binding{ID: *v.VariableID, Name: v.Label}
		if s := p.values(ref, b); s != "" {
			v.Value = s
		}
	}
	return v, nil
}

// Views returns every slot's display state in canonical order.
func (p *Propagator) Views() []gauge.View {
	refs := gauge.AllRefs()
	out := make([]gauge.View, 0, len(refs))
	for _, ref := range refs {
		v, _ := p.View(ref)
		out = append(out, v)
	}
	return out
}

type indexSet struct {
	seen  map[int]bool
	order []int
}

func newIndexSet() *indexSet {
	return &indexSet{seen: make(map[int]bool)}
}

func (s *indexSet) add(idx ...int) {
	for _, i := range idx {
		if i == 0 || s.seen[i] {
			continue
		}
		s.seen[i] = true
		s.order = append(s.order, i)
	}
}
