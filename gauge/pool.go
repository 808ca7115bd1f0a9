package gauge

import (
	"github.com/teranos/epicdash/errors"
)

// EmptyLabel is shown by an anonymous slot that holds nothing.
const EmptyLabel = "Empty"

// NamedSlot is the slot of one well-known signal.
type NamedSlot struct {
	Signal  Signal
	binding *Binding
}

// AnonymousSlot is an overflow slot.
type AnonymousSlot struct {
	Index   int
	binding *Binding
}

// Pool owns the sixteen slots and an occupancy index from variable ID to
// slot. Bind refuses to place a variable twice, so each ID occupies at
// most one slot. A Pool is not safe for concurrent use.
type Pool struct {
	named     [NamedCount]NamedSlot
	anonymous [AnonymousCount]AnonymousSlot
	occupancy map[int64]SlotRef
}

// NewPool returns a pool with every slot empty.
func NewPool() *Pool {
	p := &Pool{occupancy: make(map[int64]SlotRef, SlotCount)}
	for i, s := range Signals {
		p.named[i] = NamedSlot{Signal: s}
	}
	for i := range p.anonymous {
		p.anonymous[i] = AnonymousSlot{Index: i}
	}
	return p
}

func (p *Pool) slot(ref SlotRef) (**Binding, error) {
	if !ref.Valid() {
		return nil, errors.NewValidationError("invalid slot reference %v", ref)
	}
	if ref.Kind == KindNamed {
		return &p.named[ref.Signal].binding, nil
	}
	return &p.anonymous[ref.Index].binding, nil
}

// At returns the binding held by ref.
func (p *Pool) At(ref SlotRef) (Binding, bool, error) {
	b, err := p.slot(ref)
	if err != nil {
		return Binding{}, false, err
	}
	if *b == nil {
		return Binding{}, false, nil
	}
	return **b, true, nil
}

// Lookup returns the slot holding id.
func (p *Pool) Lookup(id int64) (SlotRef, bool) {
	ref, ok := p.occupancy[id]
	return ref, ok
}

// Bind places b into the empty slot ref.
func (p *Pool) Bind(ref SlotRef, b Binding) error {
	slot, err := p.slot(ref)
	if err != nil {
		return err
	}
	if *slot != nil {
		return errors.Newf("slot %s already holds variable %d", ref, (*slot).ID)
	}
	if other, ok := p.occupancy[b.ID]; ok {
		return errors.Wrapf(errors.ErrDuplicateSelection, "variable %d is in slot %s", b.ID, other)
	}
	bound := b
	*slot = &bound
	p.occupancy[b.ID] = ref
	return nil
}

// Unbind empties ref and returns what it held. Unbinding an empty slot
// reports false and changes nothing.
func (p *Pool) Unbind(ref SlotRef) (Binding, bool, error) {
	slot, err := p.slot(ref)
	if err != nil {
		return Binding{}, false, err
	}
	if *slot == nil {
		return Binding{}, false, nil
	}
	prev := **slot
	*slot = nil
	delete(p.occupancy, prev.ID)
	return prev, true, nil
}

// FirstEmptyNamed returns the leftmost empty named slot in canonical order.
func (p *Pool) FirstEmptyNamed() (SlotRef, bool) {
	for _, s := range p.named {
		if s.binding == nil {
			return Named(s.Signal), true
		}
	}
	return SlotRef{}, false
}

// FirstEmptyAnonymous returns the lowest-index empty anonymous slot.
func (p *Pool) FirstEmptyAnonymous() (SlotRef, bool) {
	for _, s := range p.anonymous {
		if s.binding == nil {
			return Anonymous(s.Index), true
		}
	}
	return SlotRef{}, false
}

// Occupied returns how many slots hold a variable.
func (p *Pool) Occupied() int {
	return len(p.occupancy)
}

// Occupancy returns a copy of the ID to slot index.
func (p *Pool) Occupancy() map[int64]SlotRef {
	out := make(map[int64]SlotRef, len(p.occupancy))
	for id, ref := range p.occupancy {
		out[id] = ref
	}
	return out
}

// View is the display state of one slot.
type View struct {
	Ref        SlotRef `json:"ref"`
	Kind       Kind    `json:"kind"`
	Label      string  `json:"label"`
	Unit       string  `json:"unit"`
	VariableID *int64  `json:"variable_id"`
	Value      string  `json:"value"`
}

// Empty reports whether the slot holds nothing.
func (v View) Empty() bool {
	return v.VariableID == nil
}

// View returns the display state of ref. Named slots show the bound
// variable's name with the signal unit, or the static label and unit when
// empty. Anonymous slots show the name with no unit, or EmptyLabel.
// Value is left blank for the caller to fill.
func (p *Pool) View(ref SlotRef) (View, error) {
	b, ok, err := p.At(ref)
	if err != nil {
		return View{}, err
	}

	v := View{Ref: ref, Kind: ref.Kind}
	if ok {
		id := b.ID
		v.VariableID = &id
		v.Label = b.Name
	}
	if ref.Kind == KindNamed {
		info := ref.Signal.Info()
		v.Unit = info.Unit
		if !ok {
			v.Label = info.Label
		}
	} else if !ok {
		v.Label = EmptyLabel
	}
	return v, nil
}

// Views returns every slot's view in AllRefs order.
func (p *Pool) Views() []View {
	refs := AllRefs()
	views := make([]View, 0, len(refs))
	for _, ref := range refs {
		v, _ := p.View(ref)
		views = append(views, v)
	}
	return views
}
