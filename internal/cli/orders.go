package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"algo-trader/internal/models"
	"algo-trader/pkg/utils"
)

func newOrdersCmd(app *App) *cobra.Command {
	var status string
	var days int

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List placed orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}
			defer app.Close()
			out := NewOutput(cmd)
			ctx := cmd.Context()

			var orders []models.Order
			var err error
			if status != "" {
				orders, err = app.Store.GetOrdersByStatus(ctx, models.OrderStatus(status))
			} else {
				to := time.Now()
				from := to.AddDate(0, 0, -days)
				orders, err = app.Store.GetOrders(ctx, from, to)
			}
			if err != nil {
				return fmt.Errorf("loading orders: %w", err)
			}

			if out.IsJSON() {
				return out.JSON(orders)
			}

			if len(orders) == 0 {
				out.Info("No orders")
				return nil
			}

			table := NewTable(out, "SIGNAL", "SYMBOL", "SIDE", "QTY", "PRICE", "STATUS", "ATTEMPTS", "PLACED")
			for _, o := range orders {
				table.AddRow(
					o.SignalID,
					o.Symbol,
					sideCell(out, o.Side),
					fmt.Sprintf("%d", o.Quantity),
					utils.FormatPrice(o.Price),
					statusCell(out, o.Status),
					fmt.Sprintf("%d", o.AttemptCount),
					o.PlacedAt.Format("2006-01-02 15:04"),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (PENDING, SUBMITTED, FILLED, REJECTED, FAILED)")
	cmd.Flags().IntVar(&days, "days", 30, "how many days back to list")
	return cmd
}

func sideCell(out *Output, side models.OrderSide) string {
	if side == models.OrderSideBuy {
		return out.Green(string(side))
	}
	return out.Red(string(side))
}

func statusCell(out *Output, status models.OrderStatus) string {
	switch status {
	case models.OrderFilled:
		return out.Green(string(status))
	case models.OrderFailed, models.OrderRejected:
		return out.Red(string(status))
	case models.OrderSubmitted:
		return out.Yellow(string(status))
	default:
		return string(status)
	}
}
