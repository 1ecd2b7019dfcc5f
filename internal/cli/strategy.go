package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"algo-trader/internal/models"
	"algo-trader/internal/strategy"
	"algo-trader/pkg/utils"
)

func newStrategyCmd(app *App) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Evaluate crossover state for the trade universe",
		Long: `Strategy fetches bars for every trade symbol, evaluates the fast/slow SMA
relation against the persisted crossover state, and prints any edge-triggered
signals. With --execute, signals are also placed as orders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}
			defer app.Close()
			out := NewOutput(cmd)
			ctx := cmd.Context()

			symbols := app.Config.Trading.TradeSymbols
			if len(symbols) == 0 {
				return fmt.Errorf("no trade symbols configured; set trading.trade_symbols")
			}

			sc := buildScanner(app)
			var snapshots []models.IndicatorSnapshot
			for _, symbol := range symbols {
				snap, err := sc.Snapshot(ctx, symbol)
				if err != nil {
					out.Warning("%s: data fetch failed: %v", symbol, err)
					continue
				}
				snapshots = append(snapshots, snap)
			}

			tracker := strategy.NewCrossoverTracker(app.Store, app.Logger)
			signals := tracker.EvaluateAll(ctx, snapshots)

			var orders []models.Order
			var orderErrs []error
			if execute && len(signals) > 0 {
				governor := buildGovernor(app)
				orders, orderErrs = governor.ExecuteAll(ctx, signals)
			}

			if out.IsJSON() {
				return out.JSON(map[string]interface{}{
					"signals": signals,
					"orders":  orders,
				})
			}

			printCrossStates(ctx, app, out)

			if len(signals) == 0 {
				out.Println()
				out.Info("No new signals")
				return nil
			}

			out.Println()
			out.Bold("Signals")
			for _, sig := range signals {
				line := fmt.Sprintf("  %s %s @ %s (%s)", sig.Kind, sig.Symbol, utils.FormatPrice(sig.TriggerPrice), sig.Reason)
				if sig.Kind == models.SignalBuy {
					out.Println(out.Green(line))
				} else {
					out.Println(out.Red(line))
				}
			}

			for _, o := range orders {
				out.Printf("  order %s: %s %d %s -> %s\n", o.SignalID, o.Side, o.Quantity, o.Symbol, o.Status)
			}
			for _, err := range orderErrs {
				out.Error("  execution: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "place orders for generated signals")
	return cmd
}

func printCrossStates(ctx context.Context, app *App, out *Output) {
	states, err := app.Store.GetAllCrossStates(ctx)
	if err != nil || len(states) == 0 {
		return
	}
	out.Bold("Crossover State")
	table := NewTable(out, "SYMBOL", "RELATION", "LAST EVALUATED")
	for _, st := range states {
		table.AddRow(st.Symbol, string(st.Relation), st.LastEvaluated.Format("2006-01-02"))
	}
	table.Render()
}
