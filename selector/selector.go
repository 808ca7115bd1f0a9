// Package selector models the eight pick-one-of-many selector widgets.
package selector

import (
	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/categorize"
	"github.com/teranos/epicdash/errors"
)

// Count is the number of widgets. Widget indexes are 1-based.
const Count = categorize.WidgetCount

// Widget is one selector. Options are fixed at startup.
type Widget struct {
	Index     int                `json:"index"`
	Options   []catalog.Variable `json:"options"`
	Selection *int64             `json:"selection"`
	Info      string             `json:"info"`
}

// Selected returns the current selection.
func (w Widget) Selected() (int64, bool) {
	if w.Selection == nil {
		return 0, false
	}
	return *w.Selection, true
}

// HasOption reports whether id is among the widget's options.
func (w Widget) HasOption(id int64) bool {
	for _, v := range w.Options {
		if v.ID == id {
			return true
		}
	}
	return false
}

func (w Widget) clone() Widget {
	out := w
	out.Options = make([]catalog.Variable, len(w.Options))
	copy(out.Options, w.Options)
	if w.Selection != nil {
		id := *w.Selection
		out.Selection = &id
	}
	return out
}

// ValidIndex rejects widget indexes outside 1..Count.
func ValidIndex(index int) error {
	if index < 1 || index > Count {
		return errors.NewValidationError("widget index %d out of range 1..%d", index, Count)
	}
	return nil
}

// Board holds the eight widgets. It is not safe for concurrent use.
type Board struct {
	widgets [Count]Widget
}

// NewBoard builds widgets from a categorization result, all unselected.
func NewBoard(r categorize.Result) *Board {
	b := &Board{}
	for i := range b.widgets {
		opts := make([]catalog.Variable, len(r.Options[i]))
		copy(opts, r.Options[i])
		b.widgets[i] = Widget{Index: i + 1, Options: opts, Info: r.Info[i]}
	}
	return b
}

// Widget returns a copy of widget index.
func (b *Board) Widget(index int) (Widget, error) {
	if err := ValidIndex(index); err != nil {
		return Widget{}, err
	}
	return b.widgets[index-1].clone(), nil
}

// Widgets returns copies of all widgets in index order.
func (b *Board) Widgets() []Widget {
	out := make([]Widget, Count)
	for i, w := range b.widgets {
		out[i] = w.clone()
	}
	return out
}

// Selection returns the current selection of widget index.
func (b *Board) Selection(index int) (int64, bool, error) {
	if err := ValidIndex(index); err != nil {
		return 0, false, err
	}
	id, ok := b.widgets[index-1].Selected()
	return id, ok, nil
}

// SetSelection marks id as selected on widget index.
func (b *Board) SetSelection(index int, id int64) error {
	if err := ValidIndex(index); err != nil {
		return err
	}
	b.widgets[index-1].Selection = &id
	return nil
}

// ClearSelection blanks widget index and returns what it showed.
func (b *Board) ClearSelection(index int) (int64, bool, error) {
	if err := ValidIndex(index); err != nil {
		return 0, false, err
	}
	w := &b.widgets[index-1]
	id, ok := w.Selected()
	w.Selection = nil
	return id, ok, nil
}

// ClearHolding blanks every widget showing id except keep (0 keeps none)
// and returns the indexes it changed.
func (b *Board) ClearHolding(id int64, keep int) []int {
	var changed []int
	for i := range b.widgets {
		w := &b.widgets[i]
		if w.Index == keep {
			continue
		}
		if sel, ok := w.Selected(); ok && sel == id {
			w.Selection = nil
			changed = append(changed, w.Index)
		}
	}
	return changed
}

// Holding returns the indexes of widgets showing id.
func (b *Board) Holding(id int64) []int {
	var out []int
	for _, w := range b.widgets {
		if sel, ok := w.Selected(); ok && sel == id {
			out = append(out, w.Index)
		}
	}
	return out
}
