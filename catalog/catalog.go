// Package catalog holds the ECU variable catalog: every variable the ECU
// exposes, keyed by its signed hash.
package catalog

import (
	"encoding/json"
	"sort"

	"github.com/teranos/epicdash/errors"
)

// Provenance says whether a variable can be shown in a gauge.
type Provenance int

const (
	// Readable variables are ECU outputs and take part in selection.
	Readable Provenance = iota + 1
	// Writable variables are ECU settings; they are kept but never shown.
	Writable
)

// SourceOutput is the wire source tag of readable variables.
const SourceOutput = "output"

// ProvenanceFromSource maps a wire source tag to a Provenance. Anything other
// than "output" is writable.
func ProvenanceFromSource(source string) Provenance {
	if source == SourceOutput {
		return Readable
	}
	return Writable
}

func (p Provenance) String() string {
	switch p {
	case Readable:
		return "readable"
	case Writable:
		return "writable"
	default:
		return "unknown"
	}
}

// MarshalText renders the provenance name in JSON.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a provenance name.
func (p *Provenance) UnmarshalText(text []byte) error {
	switch string(text) {
	case "readable":
		*p = Readable
	case "writable":
		*p = Writable
	default:
		return errors.Newf("unknown provenance %q", text)
	}
	return nil
}

// Variable is one catalog entry. ID is an opaque signed key; negative
// values are ordinary.
type Variable struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Provenance Provenance `json:"provenance"`
}

// Readable reports whether the variable can be selected.
func (v Variable) Readable() bool {
	return v.Provenance == Readable
}

// Entry is the wire shape of /variables.json items.
type Entry struct {
	Name   string `json:"name"`
	Hash   int64  `json:"hash"`
	Source string `json:"source"`
}

// Catalog is immutable once built.
type Catalog struct {
	vars     []Variable
	byID     map[int64]int
	readable int
	fallback bool
}

// New builds a catalog from vars in order. Entries with an empty name are
// skipped; for duplicate IDs the first entry wins.
func New(vars []Variable) *Catalog {
	c := &Catalog{byID: make(map[int64]int, len(vars))}
	for _, v := range vars {
		if v.Name == "" {
			continue
		}
		if _, dup := c.byID[v.ID]; dup {
			continue
		}
		c.byID[v.ID] = len(c.vars)
		c.vars = append(c.vars, v)
		if v.Readable() {
			c.readable++
		}
	}
	return c
}

// FromEntries converts wire entries into a catalog.
func FromEntries(entries []Entry) *Catalog {
	vars := make([]Variable, 0, len(entries))
	for _, e := range entries {
		vars = append(vars, Variable{ID: e.Hash, Name: e.Name, Provenance: ProvenanceFromSource(e.Source)})
	}
	return New(vars)
}

// Parse decodes a /variables.json body. A body that is not a JSON array,
// or one without a single readable variable, is ErrCatalogUnavailable.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.WrapCatalogUnavailable(err, "decode catalog")
	}
	c := FromEntries(entries)
	if c.readable == 0 {
		return nil, errors.Wrapf(errors.ErrCatalogUnavailable, "catalog has no readable variables (%d entries)", len(entries))
	}
	return c, nil
}

// Lookup returns the variable with the given ID.
func (c *Catalog) Lookup(id int64) (Variable, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Variable{}, false
	}
	return c.vars[i], true
}

// Contains reports whether id is a readable catalog member.
func (c *Catalog) Contains(id int64) bool {
	v, ok := c.Lookup(id)
	return ok && v.Readable()
}

// Len returns the number of entries, readable or not.
func (c *Catalog) Len() int {
	return len(c.vars)
}

// All returns every entry in load order.
func (c *Catalog) All() []Variable {
	out := make([]Variable, len(c.vars))
	copy(out, c.vars)
	return out
}

// Readable returns the readable entries in load order.
func (c *Catalog) Readable() []Variable {
	out := make([]Variable, 0, c.readable)
	for _, v := range c.vars {
		if v.Readable() {
			out = append(out, v)
		}
	}
	return out
}

// IsFallback reports whether this is the built-in fallback table.
func (c *Catalog) IsFallback() bool {
	return c.fallback
}

// IDs returns the readable IDs sorted ascending.
func (c *Catalog) IDs() []int64 {
	ids := make([]int64, 0, c.readable)
	for _, v := range c.vars {
		if v.Readable() {
			ids = append(ids, v.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
