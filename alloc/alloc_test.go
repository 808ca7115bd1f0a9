package alloc

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/categorize"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/selector"
)

// numbered returns a catalog of n readable variables with ids 1..n.
func numbered(n int) *catalog.Catalog {
	vars := make([]catalog.Variable, 0, n)
	for i := 1; i <= n; i++ {
		vars = append(vars, catalog.Variable{ID: int64(i), Name: fmt.Sprintf("Var%02d", i), Provenance: catalog.Readable})
	}
	return catalog.New(vars)
}

func newEngine(cat *catalog.Catalog) *Engine {
	board := selector.NewBoard(categorize.New().Categorize(cat.Readable()))
	return New(cat, board)
}

func bound(t *testing.T, e *Engine, ref gauge.SlotRef) (int64, bool) {
	t.Helper()
	b, ok, err := e.Pool().At(ref)
	require.NoError(t, err)
	return b.ID, ok
}

func selection(t *testing.T, e *Engine, widget int) (int64, bool) {
	t.Helper()
	id, ok, err := e.Board().Selection(widget)
	require.NoError(t, err)
	return id, ok
}

// checkInvariants asserts one slot per variable, catalog membership of
// every binding, and that widget selections name bound variables.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()
	seen := map[int64]gauge.SlotRef{}
	for _, ref := range gauge.AllRefs() {
		b, ok, err := e.Pool().At(ref)
		require.NoError(t, err)
		if !ok {
			continue
		}
		prev, dup := seen[b.ID]
		require.False(t, dup, "variable %d in %s and %s", b.ID, prev, ref)
		seen[b.ID] = ref
		require.True(t, e.Catalog().Contains(b.ID), "variable %d not in catalog", b.ID)
	}
	assert.Equal(t, len(seen), e.Pool().Occupied())

	shown := map[int64]int{}
	for _, w := range e.Board().Widgets() {
		id, ok := w.Selected()
		if !ok {
			continue
		}
		_, isBound := seen[id]
		require.True(t, isBound, "widget %d shows unbound variable %d", w.Index, id)
		shown[id]++
		require.Equal(t, 1, shown[id], "variable %d shown by two widgets", id)
	}
}

func TestSelect_NamedSlotsFirst(t *testing.T) {
	e := newEngine(numbered(20))

	r, err := e.Select(1, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBound, r.Outcome)
	assert.Equal(t, gauge.Named(gauge.RPM), r.Slot)

	r, err = e.Select(2, 2)
	require.NoError(t, err)
	assert.Equal(t, gauge.Named(gauge.TPS), r.Slot)

	id, ok := selection(t, e, 2)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
	checkInvariants(t, e)
}

func TestSelect_FillOrder(t *testing.T) {
	e := newEngine(numbered(16))
	refs := gauge.AllRefs()
	for i, want := range refs {
		r, err := e.Select(1+i%selector.Count, int64(i+1))
		require.NoError(t, err)
		assert.Equal(t, OutcomeBound, r.Outcome)
		assert.Equal(t, want, r.Slot, "variable %d", i+1)
	}
	assert.Equal(t, gauge.SlotCount, e.Pool().Occupied())
	checkInvariants(t, e)
}

func TestSelect_EvictsAnonZero(t *testing.T) {
	e := newEngine(numbered(17))
	for i := 1; i <= 16; i++ {
		_, err := e.Select(1+(i-1)%selector.Count, int64(i))
		require.NoError(t, err)
	}
	// Variable 9 landed in anon:0 and is shown by widget 1.
	id, ok := bound(t, e, gauge.Anonymous(0))
	require.True(t, ok)
	require.Equal(t, int64(9), id)
	shown, _ := selection(t, e, 1)
	require.Equal(t, int64(9), shown)

	r, err := e.Select(3, 17)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEvicted, r.Outcome)
	assert.Equal(t, gauge.Anonymous(0), r.Slot)
	require.NotNil(t, r.Freed)
	assert.Equal(t, int64(9), r.Freed.ID)

	id, _ = bound(t, e, gauge.Anonymous(0))
	assert.Equal(t, int64(17), id)
	_, still := e.Pool().Lookup(9)
	assert.False(t, still)

	_, ok = selection(t, e, 1)
	assert.False(t, ok, "widget showing the evicted variable is blanked")
	checkInvariants(t, e)
}

func TestSelect_Duplicate(t *testing.T) {
	e := newEngine(numbered(4))
	_, err := e.Select(1, 1)
	require.NoError(t, err)
	_, err = e.Select(2, 3)
	require.NoError(t, err)

	r, err := e.Select(2, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, r.Outcome)
	assert.Equal(t, gauge.Named(gauge.RPM), r.Slot)
	assert.False(t, r.Changed())

	id, ok := selection(t, e, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	_, ok = selection(t, e, 2)
	assert.False(t, ok, "requesting widget is blanked")

	// Variable 3 keeps its slot after its widget moved on.
	_, ok = e.Pool().Lookup(3)
	assert.True(t, ok)
	assert.Equal(t, 2, e.Pool().Occupied())
	checkInvariants(t, e)
}

func TestSelect_DuplicateSameWidget(t *testing.T) {
	e := newEngine(numbered(2))
	_, err := e.Select(1, 1)
	require.NoError(t, err)

	r, err := e.Select(1, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, r.Outcome)
	id, ok := selection(t, e, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestSelect_Validation(t *testing.T) {
	cat := catalog.New([]catalog.Variable{
		{ID: 1, Name: "RPMValue", Provenance: catalog.Readable},
		{ID: 2, Name: "CanSpeed", Provenance: catalog.Writable},
	})
	e := newEngine(cat)

	tests := []struct {
		name   string
		widget int
		id     int64
	}{
		{"widget zero", 0, 1},
		{"widget nine", 9, 1},
		{"unknown variable", 1, 99},
		{"writable variable", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Select(tt.widget, tt.id)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.Zero(t, e.Pool().Occupied())
		})
	}
}

func TestSelect_NegativeIDs(t *testing.T) {
	e := newEngine(catalog.Fallback())
	r, err := e.Select(4, catalog.AFRValue)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBound, r.Outcome)
	assert.Equal(t, gauge.Named(gauge.RPM), r.Slot)
}

func TestClear(t *testing.T) {
	e := newEngine(numbered(3))
	_, err := e.Select(1, 1)
	require.NoError(t, err)

	r, err := e.Clear(gauge.Named(gauge.RPM))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCleared, r.Outcome)
	require.NotNil(t, r.Freed)
	assert.Equal(t, int64(1), r.Freed.ID)

	v, err := e.Pool().View(gauge.Named(gauge.RPM))
	require.NoError(t, err)
	assert.True(t, v.Empty())
	assert.Equal(t, "RPM", v.Label)

	_, ok := selection(t, e, 1)
	assert.False(t, ok)
	checkInvariants(t, e)
}

func TestClear_Idempotent(t *testing.T) {
	e := newEngine(numbered(3))
	_, err := e.Select(1, 1)
	require.NoError(t, err)

	before := e.Propagator().Views()
	r, err := e.Clear(gauge.Anonymous(5))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, r.Outcome)
	assert.True(t, r.Update.Empty())
	assert.Equal(t, before, e.Propagator().Views())

	id, _ := selection(t, e, 1)
	assert.Equal(t, int64(1), id)
}

func TestClear_InvalidRef(t *testing.T) {
	e := newEngine(numbered(1))
	_, err := e.Clear(gauge.SlotRef{Kind: gauge.KindAnonymous, Index: 8})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestDeselect(t *testing.T) {
	e := newEngine(numbered(3))
	_, err := e.Select(5, 2)
	require.NoError(t, err)

	r, err := e.Deselect(5)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCleared, r.Outcome)
	assert.Equal(t, 5, r.Widget)
	assert.Zero(t, e.Pool().Occupied())
	require.Len(t, r.Update.Widgets, 1)
	assert.Equal(t, 5, r.Update.Widgets[0].Index)

	r, err = e.Deselect(5)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, r.Outcome)

	_, err = e.Deselect(0)
	assert.True(t, errors.IsValidationError(err))
}

func TestSwitchingKeepsPreviousBinding(t *testing.T) {
	e := newEngine(numbered(3))
	_, err := e.Select(1, 1)
	require.NoError(t, err)
	_, err = e.Select(1, 2)
	require.NoError(t, err)

	_, ok := e.Pool().Lookup(1)
	assert.True(t, ok)
	id, _ := selection(t, e, 1)
	assert.Equal(t, int64(2), id)
	checkInvariants(t, e)
}

func TestBindDefaults(t *testing.T) {
	t.Run("fallback catalog", func(t *testing.T) {
		e := newEngine(catalog.Fallback())
		refs := e.BindDefaults()
		assert.Equal(t, []gauge.SlotRef{
			gauge.Named(gauge.RPM), gauge.Named(gauge.TPS), gauge.Named(gauge.AFR),
		}, refs)
		checkInvariants(t, e)
	})

	t.Run("map and boost share a default", func(t *testing.T) {
		mapID := gauge.MAP.Info().Default
		cat := catalog.New([]catalog.Variable{{ID: mapID, Name: "MAPValue", Provenance: catalog.Readable}})
		e := newEngine(cat)
		assert.Equal(t, []gauge.SlotRef{gauge.Named(gauge.MAP)}, e.BindDefaults())
		_, ok := bound(t, e, gauge.Named(gauge.Boost))
		assert.False(t, ok)
	})

	t.Run("no defaults present", func(t *testing.T) {
		e := newEngine(numbered(5))
		assert.Empty(t, e.BindDefaults())
	})
}

func TestEndToEnd(t *testing.T) {
	cat, err := catalog.Parse([]byte(`[
		{"name":"RPMValue","hash":1,"source":"output"},
		{"name":"AFRValue","hash":2,"source":"output"},
		{"name":"Unrelated","hash":3,"source":"config"}
	]`))
	require.NoError(t, err)

	res := categorize.New().Categorize(cat.Readable())
	assert.Equal(t, 2, res.Total())

	e := New(cat, selector.NewBoard(res))
	e.BindDefaults()

	r, err := e.Select(1, 1)
	require.NoError(t, err)
	assert.Equal(t, gauge.Named(gauge.RPM), r.Slot)
	v, err := e.Pool().View(gauge.Named(gauge.RPM))
	require.NoError(t, err)
	assert.Equal(t, "RPMValue", v.Label)

	r, err = e.Select(2, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, r.Outcome)
	id, ok := selection(t, e, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	_, err = e.Select(1, 3)
	assert.True(t, errors.IsValidationError(err))
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	refs := gauge.AllRefs()

	for run := 0; run < 50; run++ {
		e := newEngine(numbered(24))
		e.BindDefaults()
		for step := 0; step < 200; step++ {
			var err error
			switch rng.Intn(4) {
			case 0, 1:
				_, err = e.Select(1+rng.Intn(selector.Count), int64(1+rng.Intn(24)))
			case 2:
				_, err = e.Clear(refs[rng.Intn(len(refs))])
			case 3:
				_, err = e.Deselect(1 + rng.Intn(selector.Count))
			}
			require.NoError(t, err)
			checkInvariants(t, e)
		}
	}
}

func TestClearAll(t *testing.T) {
	e := newEngine(numbered(5))
	for i := 1; i <= 5; i++ {
		_, err := e.Select(i, int64(i))
		require.NoError(t, err)
	}
	results := e.ClearAll()
	assert.Len(t, results, 5)
	assert.Zero(t, e.Pool().Occupied())
	for _, w := range e.Board().Widgets() {
		_, ok := w.Selected()
		assert.False(t, ok)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "evicted", OutcomeEvicted.String())
	assert.Equal(t, "unknown", Outcome(42).String())
	b, err := OutcomeDuplicate.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "duplicate", string(b))
}
