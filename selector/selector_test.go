package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/categorize"
	"github.com/teranos/epicdash/errors"
)

func fallbackBoard() *Board {
	return NewBoard(categorize.Fallback(catalog.Fallback()))
}

func TestNewBoard(t *testing.T) {
	b := fallbackBoard()
	ws := b.Widgets()
	require.Len(t, ws, Count)

	assert.Equal(t, 1, ws[0].Index)
	assert.Len(t, ws[0].Options, 3)
	assert.Equal(t, "3 fallback variables", ws[0].Info)
	assert.Equal(t, 8, ws[7].Index)
	assert.Empty(t, ws[7].Options)
	for _, w := range ws {
		_, ok := w.Selected()
		assert.False(t, ok)
	}
}

func TestValidIndex(t *testing.T) {
	for _, i := range []int{0, -1, 9} {
		err := ValidIndex(i)
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	}
	for i := 1; i <= Count; i++ {
		assert.NoError(t, ValidIndex(i))
	}
}

func TestSelectionLifecycle(t *testing.T) {
	b := fallbackBoard()

	require.NoError(t, b.SetSelection(2, catalog.RPMValue))
	id, ok, err := b.Selection(2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalog.RPMValue, id)

	prev, had, err := b.ClearSelection(2)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, catalog.RPMValue, prev)

	_, had, _ = b.ClearSelection(2)
	assert.False(t, had)

	assert.Error(t, b.SetSelection(9, 1))
	_, _, err = b.Selection(0)
	assert.Error(t, err)
}

func TestClearHolding(t *testing.T) {
	b := fallbackBoard()
	require.NoError(t, b.SetSelection(1, 5))
	require.NoError(t, b.SetSelection(3, 5))
	require.NoError(t, b.SetSelection(4, 6))

	assert.Equal(t, []int{1, 3}, b.Holding(5))

	changed := b.ClearHolding(5, 3)
	assert.Equal(t, []int{1}, changed)
	assert.Equal(t, []int{3}, b.Holding(5))

	changed = b.ClearHolding(5, 0)
	assert.Equal(t, []int{3}, changed)
	assert.Empty(t, b.Holding(5))
	assert.Equal(t, []int{4}, b.Holding(6))
}

func TestWidgetCopiesAreIndependent(t *testing.T) {
	b := fallbackBoard()
	require.NoError(t, b.SetSelection(1, 7))

	w, err := b.Widget(1)
	require.NoError(t, err)
	*w.Selection = 99
	w.Options[0].Name = "mutated"

	again, _ := b.Widget(1)
	assert.Equal(t, int64(7), *again.Selection)
	assert.NotEqual(t, "mutated", again.Options[0].Name)
	assert.True(t, again.HasOption(catalog.AFRValue))
	assert.False(t, again.HasOption(42))
}
