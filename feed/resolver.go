package feed

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/internal/util"
)

// NotAvailable is shown when a bound variable has no value in the feed.
const NotAvailable = "N/A"

// KnownFields maps well-known variable hashes to /data fields.
var KnownFields = map[int64]string{
	catalog.TPSValue:      FieldTPS,
	catalog.RPMValue:      FieldRPM,
	catalog.AFRValue:      FieldAFR,
	catalog.MAPValue:      FieldMAP,
	catalog.OilPressValue: FieldOilPress,
	catalog.CLTValue:      FieldCLT,
	catalog.IATValue:      FieldIAT,
}

// nameRule maps a lowercased variable name to a field when it contains all
// of every and at least one of some.
type nameRule struct {
	field string
	every []string
	some  []string
}

var nameRules = []nameRule{
	{field: FieldTPS, every: []string{"tps", "value"}},
	{field: FieldRPM, every: []string{"rpm", "value"}},
	{field: FieldAFR, every: []string{"afr", "value"}},
	{field: FieldMAP, every: []string{"map", "value"}},
	{field: FieldOilPress, every: []string{"oil", "press"}},
	{field: FieldCLT, some: []string{"clt", "coolant"}},
	{field: FieldIAT, some: []string{"iat", "intake"}},
	{field: FieldBoost, some: []string{"boost"}},
}

func (r nameRule) matches(name string) bool {
	if !util.ContainsAll(name, r.every...) {
		return false
	}
	return len(r.some) == 0 || util.ContainsAny(name, r.some...)
}

// Resolver finds the feed field for a bound variable.
type Resolver struct {
	known map[int64]string
}

// NewResolver returns a resolver using KnownFields.
func NewResolver() *Resolver {
	return &Resolver{known: KnownFields}
}

// Field returns the /data field for a variable: the fixed table first,
// then the name heuristic. Lookup also tries the reading's own fields.
func (r *Resolver) Field(id int64, name string) (string, bool) {
	if f, ok := r.known[id]; ok {
		return f, true
	}
	lower := strings.ToLower(name)
	for _, rule := range nameRules {
		if rule.matches(lower) {
			return rule.field, true
		}
	}
	return "", false
}

// Lookup returns the variable's value from reading.
func (r *Resolver) Lookup(id int64, name string, reading Reading) (float64, bool) {
	f, ok := r.Field(id, name)
	if !ok {
		f, ok = fieldInReading(strings.ToLower(name), reading)
	}
	if !ok {
		return 0, false
	}
	return reading.Get(f)
}

// fieldInReading matches a lowercased variable name against the fields the
// ECU actually sent: an equal field first, else the longest one the name
// contains.
func fieldInReading(name string, reading Reading) (string, bool) {
	if name == "" {
		return "", false
	}
	fields := reading.Fields()
	sort.Strings(fields)
	best := ""
	for _, f := range fields {
		lf := strings.ToLower(f)
		if lf == "" {
			continue
		}
		if lf == name {
			return f, true
		}
		if strings.Contains(name, lf) && len(lf) > len(best) {
			best = f
		}
	}
	return best, best != ""
}

// Text returns the display text for a variable, NotAvailable when the
// reading has no value for it.
func (r *Resolver) Text(id int64, name string, reading Reading) string {
	v, ok := r.Lookup(id, name, reading)
	if !ok {
		return NotAvailable
	}
	return FormatValue(v)
}

// FormatValue shows one decimal for small fractional values and rounds
// everything else. The magnitude check applies after rounding, and zero
// never carries a sign.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	if util.AbsFloat64(v) < 1000 && !util.IsWhole(v) {
		s := strconv.FormatFloat(v, 'f', 1, 64)
		if r, err := strconv.ParseFloat(s, 64); err == nil && util.AbsFloat64(r) < 1000 {
			if r == 0 {
				return "0.0"
			}
			return s
		}
	}
	r := math.Round(v)
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}
