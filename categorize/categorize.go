// Package categorize spreads the readable catalog across the eight selector
// widgets, most safety-relevant variables first.
package categorize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teranos/epicdash/catalog"
)

// WidgetCount is the number of selector widgets.
const WidgetCount = 8

// Class is a priority class. Lower values rank higher.
type Class int

const (
	Critical Class = iota + 1
	Important
	Useful
	Other
)

func (c Class) String() string {
	switch c {
	case Critical:
		return "critical"
	case Important:
		return "important"
	case Useful:
		return "useful"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Rule assigns Class to any name containing one of Keywords,
// case-insensitively.
type Rule struct {
	Class    Class
	Keywords []string
}

func (r Rule) matches(lowerName string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowerName, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// DefaultRules is evaluated top-down; the first matching rule wins.
var DefaultRules = []Rule{
	{Class: Critical, Keywords: []string{
		"AFR", "Lambda", "Knock", "Det", "EGT", "Oil", "Coolant", "CLT",
		"Timing", "Advance", "MAP", "Boost", "Pressure",
	}},
	{Class: Important, Keywords: []string{
		"RPM", "TPS", "Throttle", "Fuel", "Inject", "IAT", "Intake",
		"VE", "Volumetric", "Load", "Speed",
	}},
	{Class: Useful, Keywords: []string{
		"Correction", "Trim", "EGO", "Sensor", "Temp", "Voltage",
	}},
}

// Categorizer classifies variables with a ranked rule list.
type Categorizer struct {
	rules []Rule
}

// New returns a Categorizer using rules, or DefaultRules when none are given.
func New(rules ...Rule) *Categorizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Categorizer{rules: rules}
}

// Classify returns the class of the first rule matching name, or Other.
func (c *Categorizer) Classify(name string) Class {
	lower := strings.ToLower(name)
	for _, r := range c.rules {
		if r.matches(lower) {
			return r.Class
		}
	}
	return Other
}

// Result is the option list and info line for each widget, index 0 being
// widget 1.
type Result struct {
	Options [WidgetCount][]catalog.Variable
	Info    [WidgetCount]string
	Counts  map[Class]int
}

// Total returns the number of variables across all widgets.
func (r Result) Total() int {
	n := 0
	for _, opts := range r.Options {
		n += len(opts)
	}
	return n
}

// Categorize distributes the readable variables in vars over the widgets:
// critical over 1-2, important over 3-4, useful then other over 5-8.
// Writable variables are ignored.
func (c *Categorizer) Categorize(vars []catalog.Variable) Result {
	buckets := map[Class][]catalog.Variable{}
	for _, v := range vars {
		if !v.Readable() {
			continue
		}
		class := c.Classify(v.Name)
		buckets[class] = append(buckets[class], v)
	}
	for _, b := range buckets {
		SortVariables(b)
	}

	var r Result
	r.Counts = map[Class]int{
		Critical:  len(buckets[Critical]),
		Important: len(buckets[Important]),
		Useful:    len(buckets[Useful]),
		Other:     len(buckets[Other]),
	}

	r.Options[0], r.Options[1] = splitHalves(buckets[Critical])
	r.Options[2], r.Options[3] = splitHalves(buckets[Important])

	rest := make([]catalog.Variable, 0, len(buckets[Useful])+len(buckets[Other]))
	rest = append(rest, buckets[Useful]...)
	rest = append(rest, buckets[Other]...)
	for i, chunk := range splitChunks(rest, 4) {
		r.Options[4+i] = chunk
	}

	for i := range r.Options {
		n := len(r.Options[i])
		switch {
		case i < 2:
			r.Info[i] = fmt.Sprintf("%d critical variables", n)
		case i < 4:
			r.Info[i] = fmt.Sprintf("%d important variables", n)
		default:
			r.Info[i] = fmt.Sprintf("%d variables", n)
		}
	}
	return r
}

// Unavailable message shown by widgets 2-8 when the catalog failed to load.
const Unavailable = "variable catalog unavailable"

// Fallback puts every readable variable of fb on widget 1 in catalog order,
// without categorizing, and leaves the other widgets empty.
func Fallback(fb *catalog.Catalog) Result {
	var r Result
	r.Options[0] = fb.Readable()
	r.Info[0] = fmt.Sprintf("%d fallback variables", len(r.Options[0]))
	for i := 1; i < WidgetCount; i++ {
		r.Options[i] = []catalog.Variable{}
		r.Info[i] = Unavailable
	}
	return r
}

// SortVariables orders by lowercase name, then exact name, then ID.
func SortVariables(vars []catalog.Variable) {
	sort.SliceStable(vars, func(i, j int) bool {
		li, lj := strings.ToLower(vars[i].Name), strings.ToLower(vars[j].Name)
		if li != lj {
			return li < lj
		}
		if vars[i].Name != vars[j].Name {
			return vars[i].Name < vars[j].Name
		}
		return vars[i].ID < vars[j].ID
	})
}

// splitHalves splits at ceil(n/2).
func splitHalves(vars []catalog.Variable) ([]catalog.Variable, []catalog.Variable) {
	mid := (len(vars) + 1) / 2
	return clone(vars[:mid]), clone(vars[mid:])
}

// splitChunks splits into k contiguous chunks of ceil(n/k); trailing chunks
// may be shorter or empty.
func splitChunks(vars []catalog.Variable, k int) [][]catalog.Variable {
	size := (len(vars) + k - 1) / k
	chunks := make([][]catalog.Variable, k)
	for i := 0; i < k; i++ {
		start := min(i*size, len(vars))
		end := min(start+size, len(vars))
		chunks[i] = clone(vars[start:end])
	}
	return chunks
}

func clone(vars []catalog.Variable) []catalog.Variable {
	out := make([]catalog.Variable, len(vars))
	copy(out, vars)
	return out
}
