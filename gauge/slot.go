package gauge

import (
	"strconv"
	"strings"

	"github.com/teranos/epicdash/errors"
)

// Kind tells named and anonymous slots apart.
type Kind int

const (
	KindNamed Kind = iota + 1
	KindAnonymous
)

func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// MarshalText renders the kind name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "named":
		*k = KindNamed
	case "anonymous":
		*k = KindAnonymous
	default:
		return errors.NewValidationError("unknown slot kind %q", text)
	}
	return nil
}

// anonPrefix starts the text form of anonymous slot references.
const anonPrefix = "anon:"

// SlotRef addresses one of the sixteen slots. The zero value is invalid.
type SlotRef struct {
	Kind   Kind
	Signal Signal // KindNamed
	Index  int    // KindAnonymous, 0..7
}

// Named returns the reference of the named slot for s.
func Named(s Signal) SlotRef {
	return SlotRef{Kind: KindNamed, Signal: s}
}

// Anonymous returns the reference of anonymous slot i.
func Anonymous(i int) SlotRef {
	return SlotRef{Kind: KindAnonymous, Index: i}
}

// Valid reports whether r addresses an existing slot.
func (r SlotRef) Valid() bool {
	switch r.Kind {
	case KindNamed:
		return r.Signal.Valid()
	case KindAnonymous:
		return r.Index >= 0 && r.Index < AnonymousCount
	default:
		return false
	}
}

// String renders "rpm" for named slots and "anon:3" for anonymous ones.
func (r SlotRef) String() string {
	switch r.Kind {
	case KindNamed:
		return r.Signal.Key()
	case KindAnonymous:
		return anonPrefix + strconv.Itoa(r.Index)
	default:
		return "invalid"
	}
}

// MarshalText renders String in JSON.
func (r SlotRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the String form.
func (r *SlotRef) UnmarshalText(text []byte) error {
	ref, err := ParseSlotRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// ParseSlotRef parses "rpm", "oil_press", "anon:0" ... "anon:7".
func ParseSlotRef(s string) (SlotRef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(s, anonPrefix); ok {
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 || i >= AnonymousCount {
			return SlotRef{}, errors.NewValidationError("anonymous slot index %q out of range 0..%d", rest, AnonymousCount-1)
		}
		return Anonymous(i), nil
	}
	sig, err := ParseSignal(s)
	if err != nil {
		return SlotRef{}, errors.NewValidationError("unknown slot reference %q", s)
	}
	return Named(sig), nil
}

// AllRefs returns the sixteen slot references, named first in canonical
// order, then anonymous 0..7.
func AllRefs() []SlotRef {
	refs := make([]SlotRef, 0, SlotCount)
	for _, s := range Signals {
		refs = append(refs, Named(s))
	}
	for i := 0; i < AnonymousCount; i++ {
		refs = append(refs, Anonymous(i))
	}
	return refs
}

// Binding is the variable held by a slot.
type Binding struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
