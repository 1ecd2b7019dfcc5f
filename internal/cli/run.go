package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler loop",
		Long: `Run starts the scheduler and blocks. Each configured report time fires at
most once per day; fired slots are persisted, so a restart within the same day
never repeats a pass. Stop with SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}
			defer app.Close()
			out := NewOutput(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.Broker.Connect(ctx); err != nil {
				return fmt.Errorf("connecting broker: %w", err)
			}

			driver, err := buildDriver(app)
			if err != nil {
				return err
			}

			out.Info("algobot %s running in %s mode; schedule %v",
				Version, app.Config.Trading.Mode, app.Config.Schedule.ReportTimes)

			err = driver.Loop(ctx)
			if err != nil && ctx.Err() != nil {
				out.Info("Shutting down")
				return nil
			}
			return err
		},
	}
}
