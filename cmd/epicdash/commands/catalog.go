package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/categorize"
	"github.com/teranos/epicdash/display"
	"github.com/teranos/epicdash/logger"
	"github.com/teranos/epicdash/selector"
	"github.com/teranos/epicdash/sym"
)

// CatalogCmd lists the variable catalog as the eight selector widgets
var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: sym.Vars + " List the variable catalog by widget",
	Long: `Load the ECU variable catalog and show how its readable variables are
distributed over the eight selector widgets: critical over widgets 1-2,
important over 3-4, the rest over 5-8.`,
	RunE: runCatalog,
}

var catalogFile string

func init() {
	CatalogCmd.Flags().StringVar(&catalogFile, "file", "", "Read the catalog from a local file instead of the ECU")
	CatalogCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

// CatalogReport is the --json shape of the catalog command.
type CatalogReport struct {
	Source   string            `json:"source"`
	Fallback bool              `json:"fallback"`
	Error    string            `json:"error,omitempty"`
	Total    int               `json:"total"`
	Readable int               `json:"readable"`
	Classes  map[string]int    `json:"classes,omitempty"`
	Widgets  []selector.Widget `json:"widgets"`
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newFeedClient(cfg)
	if err != nil {
		return err
	}
	src := catalogSource(cfg, client, catalogFile)
	cat, loadErr := loadCatalog(cmd.Context(), cfg, src, logger.ComponentLogger("catalog"))

	report := buildCatalogReport(cat, src.String(), loadErr)
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), report)
	}

	out := cmd.OutOrStdout()
	if report.Fallback {
		fmt.Fprintln(out, pterm.Warning.Sprintf("Catalog unavailable (%s), showing fallback variables", report.Error))
	} else {
		fmt.Fprintln(out, pterm.Info.Sprintf("%d readable of %d variables from %s", report.Readable, report.Total, report.Source))
	}
	return display.RenderTable(out, display.WidgetHeader, display.WidgetRows(report.Widgets))
}

func buildCatalogReport(cat *catalog.Catalog, source string, loadErr error) CatalogReport {
	var res categorize.Result
	if cat.IsFallback() {
		res = categorize.Fallback(cat)
	} else {
		res = categorize.New().Categorize(cat.Readable())
	}

	report := CatalogReport{
		Source:   source,
		Fallback: cat.IsFallback(),
		Total:    cat.Len(),
		Readable: len(cat.Readable()),
		Widgets:  selector.NewBoard(res).Widgets(),
	}
	if loadErr != nil {
		report.Error = loadErr.Error()
	}
	if len(res.Counts) > 0 {
		report.Classes = make(map[string]int, len(res.Counts))
		for class, n := range res.Counts {
			report.Classes[class.String()] = n
		}
	}
	return report
}
