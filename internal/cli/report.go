package cli

import (
	"time"

	"github.com/spf13/cobra"

	"algo-trader/internal/scheduler"
)

func newReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Run a full pass now and write the report",
		Long: `Report runs the complete pipeline immediately, outside the configured
schedule: scan, evaluate crossovers, execute signals, reconcile, and write the
report file. The pass is recorded under a manual slot and does not consume a
scheduled slot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}
			defer app.Close()
			out := NewOutput(cmd)

			driver, err := buildDriver(app)
			if err != nil {
				return err
			}

			now := time.Now()
			slot := scheduler.Slot{
				Name:   "manual-" + now.Format("1504"),
				Hour:   now.Hour(),
				Minute: now.Minute(),
			}

			if err := driver.RunPass(cmd.Context(), slot); err != nil {
				return err
			}

			out.Success("Pass complete; report written to %s", app.Config.Storage.ReportsDir)
			return nil
		},
	}
}
