package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"algo-trader/internal/models"
	"algo-trader/pkg/utils"
)

func newScanCmd(app *App) *cobra.Command {
	var symbols []string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the symbol universe and rank by score",
		Long: `Scan computes indicators for every symbol in the scan universe, matches
them against the configured criteria, and prints a ranking. Symbols that fail
to evaluate are reported but never abort the scan.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}
			defer app.Close()
			out := NewOutput(cmd)

			universe := symbols
			if len(universe) == 0 {
				universe = app.Config.Trading.ScanSymbols
			}
			if len(universe) == 0 {
				return fmt.Errorf("no symbols to scan; set trading.scan_symbols or pass --symbols")
			}

			sc := buildScanner(app)
			results, scanErrs := sc.Scan(cmd.Context(), universe)

			if out.IsJSON() {
				return out.JSON(map[string]interface{}{
					"results": results,
					"errors":  scanErrorStrings(scanErrs),
				})
			}

			out.Bold("Scan Results (%d of %d symbols)", len(results), len(universe))
			out.Println()

			table := NewTable(out, "SYMBOL", "PRICE", "TREND", "RSI", "SCORE", "MATCHED")
			for _, r := range results {
				table.AddRow(
					r.Symbol,
					utils.FormatPrice(r.Snapshot.Price),
					trendCell(out, r.Trend),
					rsiCell(r.Snapshot.RSI),
					fmt.Sprintf("%.1f", r.Score),
					strings.Join(r.MatchedCriteria, ", "),
				)
			}
			table.Render()

			if len(scanErrs) > 0 {
				out.Println()
				out.Warning("%d symbol(s) failed:", len(scanErrs))
				for _, e := range scanErrs {
					out.Printf("  %s: %s (%v)\n", e.Symbol, e.Kind, e.Err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "symbols to scan (default: configured scan universe)")
	return cmd
}

func trendCell(out *Output, trend models.Trend) string {
	switch trend {
	case models.TrendBullish:
		return out.Green(string(trend))
	case models.TrendBearish:
		return out.Red(string(trend))
	default:
		return string(trend)
	}
}

func rsiCell(rsi *float64) string {
	if rsi == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *rsi)
}

func scanErrorStrings(errs []models.ScanError) []string {
	var s []string
	for _, e := range errs {
		s = append(s, e.Error())
	}
	return s
}
