package categorize

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/epicdash/catalog"
)

func readable(id int64, name string) catalog.Variable {
	return catalog.Variable{ID: id, Name: name, Provenance: catalog.Readable}
}

func names(vars []catalog.Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name
	}
	return out
}

func TestClassify(t *testing.T) {
	c := New()
	tests := []struct {
		name string
		want Class
	}{
		{"AFRValue", Critical},
		{"knockRetard", Critical},
		{"oilPressure", Critical},
		{"TPSValue", Important},
		{"RPMValue", Important},
		{"vehicleSpeedKph", Important},
		{"shortTermFuelTrim", Important}, // "Fuel" outranks "Trim"
		{"batteryVoltage", Useful},
		{"auxTemp1", Useful},
		{"Unrelated", Other},
		{"", Other},
		{"MAP boost pressure", Critical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestClassify_RuleOrderMatters(t *testing.T) {
	c := New(
		Rule{Class: Useful, Keywords: []string{"temp"}},
		Rule{Class: Critical, Keywords: []string{"coolant"}},
	)
	assert.Equal(t, Useful, c.Classify("coolantTemp"))
}

func TestCategorize_Split(t *testing.T) {
	vars := []catalog.Variable{
		readable(1, "AFR"), readable(2, "Knock"), readable(3, "EGT"),
		readable(4, "RPM"), readable(5, "TPS"),
		readable(6, "Voltage"),
		readable(7, "alpha"), readable(8, "beta"), readable(9, "gamma"),
		readable(10, "delta"), readable(11, "epsilon"),
		{ID: 12, Name: "Boost target", Provenance: catalog.Writable},
	}

	r := New().Categorize(vars)

	assert.Equal(t, []string{"AFR", "EGT"}, names(r.Options[0]))
	assert.Equal(t, []string{"Knock"}, names(r.Options[1]))
	assert.Equal(t, []string{"RPM"}, names(r.Options[2]))
	assert.Equal(t, []string{"TPS"}, names(r.Options[3]))

	// useful first, then other sorted: 6 entries in chunks of 2
	assert.Equal(t, []string{"Voltage", "alpha"}, names(r.Options[4]))
	assert.Equal(t, []string{"beta", "delta"}, names(r.Options[5]))
	assert.Equal(t, []string{"epsilon", "gamma"}, names(r.Options[6]))
	assert.Empty(t, r.Options[7])

	assert.Equal(t, "2 critical variables", r.Info[0])
	assert.Equal(t, "1 critical variables", r.Info[1])
	assert.Equal(t, "1 important variables", r.Info[3])
	assert.Equal(t, "0 variables", r.Info[7])
	assert.Equal(t, 11, r.Total())
	assert.Equal(t, 3, r.Counts[Critical])
	assert.Equal(t, 5, r.Counts[Other])
}

func TestCategorize_EmptyCatalog(t *testing.T) {
	r := New().Categorize(nil)
	for i := range r.Options {
		assert.Empty(t, r.Options[i])
		assert.NotNil(t, r.Options[i])
	}
	assert.Equal(t, 0, r.Total())
}

func TestCategorize_EndToEndCatalog(t *testing.T) {
	vars := []catalog.Variable{
		readable(1, "RPMValue"),
		readable(2, "AFRValue"),
		{ID: 3, Name: "Unrelated", Provenance: catalog.Writable},
	}
	r := New().Categorize(vars)

	assert.Equal(t, []string{"AFRValue"}, names(r.Options[0]))
	assert.Equal(t, []string{"RPMValue"}, names(r.Options[2]))
	assert.Equal(t, 2, r.Total())
}

func TestSortVariables_TieBreak(t *testing.T) {
	vars := []catalog.Variable{
		readable(9, "rpm"), readable(3, "RPM"), readable(2, "RPM"), readable(1, "afr"),
	}
	SortVariables(vars)

	assert.Equal(t, []string{"afr", "RPM", "RPM", "rpm"}, names(vars))
	assert.Equal(t, int64(2), vars[1].ID)
	assert.Equal(t, int64(3), vars[2].ID)
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, []int{0, 0, 0, 0}},
		{1, []int{1, 0, 0, 0}},
		{4, []int{1, 1, 1, 1}},
		{5, []int{2, 2, 1, 0}},
		{9, []int{3, 3, 3, 0}},
		{10, []int{3, 3, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			vars := make([]catalog.Variable, tt.n)
			chunks := splitChunks(vars, 4)
			got := make([]int, len(chunks))
			for i, c := range chunks {
				got[i] = len(c)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every readable variable lands in exactly one widget.
func TestCategorize_Partition(t *testing.T) {
	words := []string{"AFR", "RPM", "Trim", "Oil", "Idle", "Fuel", "Temp", "Gear", "Knock", "Flex"}
	rng := rand.New(rand.NewSource(7))
	c := New()

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(60)
		vars := make([]catalog.Variable, 0, n)
		wantReadable := 0
		for i := 0; i < n; i++ {
			prov := catalog.Readable
			if rng.Intn(4) == 0 {
				prov = catalog.Writable
			} else {
				wantReadable++
			}
			name := words[rng.Intn(len(words))] + fmt.Sprint(rng.Intn(5))
			vars = append(vars, catalog.Variable{ID: int64(i) - 30, Name: name, Provenance: prov})
		}

		r := c.Categorize(vars)
		require.Equal(t, wantReadable, r.Total())

		seen := map[int64]int{}
		for w, opts := range r.Options {
			for _, v := range opts {
				prev, dup := seen[v.ID]
				require.False(t, dup, "id %d in widgets %d and %d", v.ID, prev, w)
				seen[v.ID] = w
				require.True(t, v.Readable())
			}
		}
	}
}

func TestFallback(t *testing.T) {
	r := Fallback(catalog.Fallback())

	assert.Equal(t, []string{"TPSValue", "RPMValue", "AFRValue"}, names(r.Options[0]))
	assert.Equal(t, "3 fallback variables", r.Info[0])
	for i := 1; i < WidgetCount; i++ {
		assert.Empty(t, r.Options[i])
		assert.Equal(t, Unavailable, r.Info[i])
	}
}
