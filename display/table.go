// Package display renders CLI output: JSON for scripts, pterm tables for
// people.
package display

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/propagate"
	"github.com/teranos/epicdash/selector"
)

// maxOptionsShown truncates long widget option lists in tables.
const maxOptionsShown = 6

// RenderTable writes a boxed table with a header row.
func RenderTable(w io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// SlotRows turns slot views into table rows: slot, label, value, unit.
// Empty slots show the placeholder value.
func SlotRows(views []gauge.View) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		value := v.Value
		if value == "" || v.Empty() {
			value = propagate.Placeholder
		}
		rows = append(rows, []string{v.Ref.String(), v.Label, value, v.Unit})
	}
	return rows
}

// SlotHeader matches SlotRows.
var SlotHeader = []string{"Slot", "Variable", "Value", "Unit"}

// WidgetRows turns widgets into table rows: index, info, selection, options.
func WidgetRows(widgets []selector.Widget) [][]string {
	rows := make([][]string, 0, len(widgets))
	for _, w := range widgets {
		selection := "-"
		if id, ok := w.Selected(); ok {
			selection = strconv.FormatInt(id, 10)
			for _, o := range w.Options {
				if o.ID == id {
					selection = o.Name
					break
				}
			}
		}
		rows = append(rows, []string{strconv.Itoa(w.Index), w.Info, selection, optionList(w)})
	}
	return rows
}

// WidgetHeader matches WidgetRows.
var WidgetHeader = []string{"Widget", "Info", "Selected", "Options"}

func optionList(w selector.Widget) string {
	out := ""
	for i, o := range w.Options {
		if i == maxOptionsShown {
			return out + fmt.Sprintf(", +%d more", len(w.Options)-maxOptionsShown)
		}
		if i > 0 {
			out += ", "
		}
		out += o.Name
	}
	return out
}
