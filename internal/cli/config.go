package cli

import (
	"github.com/spf13/cobra"

	"algo-trader/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(
		newConfigShowCmd(app),
		newConfigPathCmd(app),
		newConfigValidateCmd(app),
	)

	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(); err != nil {
				return err
			}
			out := NewOutput(cmd)
			cfg := app.Config

			if out.IsJSON() {
				return out.JSON(cfg)
			}

			out.Bold("Trading")
			out.Printf("  mode:             %s\n", cfg.Trading.Mode)
			out.Printf("  shares per trade: %d\n", cfg.Trading.SharesPerTrade)
			out.Printf("  trade symbols:    %v\n", cfg.Trading.TradeSymbols)
			out.Printf("  scan symbols:     %v\n", cfg.Trading.ScanSymbols)
			out.Println()
			out.Bold("Indicators")
			out.Printf("  SMA:  %d/%d\n", cfg.Indicators.SMAFast, cfg.Indicators.SMASlow)
			out.Printf("  RSI:  %d\n", cfg.Indicators.RSIPeriod)
			out.Printf("  MACD: %d/%d/%d\n", cfg.Indicators.MACDFast, cfg.Indicators.MACDSlow, cfg.Indicators.MACDSignal)
			out.Printf("  ATR:  %d\n", cfg.Indicators.ATRPeriod)
			out.Println()
			out.Bold("Schedule")
			out.Printf("  report times: %v\n", cfg.Schedule.ReportTimes)
			out.Printf("  timezone:     %s\n", cfg.Schedule.Timezone)
			out.Println()
			out.Bold("Storage")
			out.Printf("  database: %s\n", cfg.Storage.DatabasePath)
			out.Printf("  reports:  %s\n", cfg.Storage.ReportsDir)
			return nil
		},
	}
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			dir := app.configDir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if out.IsJSON() {
				return out.JSON(map[string]string{"config_dir": dir})
			}
			out.Println(dir)
			return nil
		},
	}
}

func newConfigValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			if err := app.loadConfig(); err != nil {
				out.Error("Config invalid: %v", err)
				return err
			}
			out.Success("Config OK")
			return nil
		},
	}
}
