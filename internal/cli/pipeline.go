package cli

import (
	"time"

	"algo-trader/internal/analysis/indicators"
	"algo-trader/internal/config"
	"algo-trader/internal/execution"
	"algo-trader/internal/models"
	"algo-trader/internal/notify"
	"algo-trader/internal/report"
	"algo-trader/internal/scanner"
	"algo-trader/internal/scheduler"
	"algo-trader/internal/strategy"
)

// indicatorParams maps configured periods onto indicator params, falling back
// to the defaults for any unset period.
func indicatorParams(cfg config.IndicatorConfig) indicators.Params {
	p := indicators.DefaultParams()
	if cfg.SMAFast > 0 {
		p.SMAFast = cfg.SMAFast
	}
	if cfg.SMASlow > 0 {
		p.SMASlow = cfg.SMASlow
	}
	if cfg.RSIPeriod > 0 {
		p.RSIPeriod = cfg.RSIPeriod
	}
	if cfg.MACDFast > 0 {
		p.MACDFast = cfg.MACDFast
	}
	if cfg.MACDSlow > 0 {
		p.MACDSlow = cfg.MACDSlow
	}
	if cfg.MACDSignal > 0 {
		p.MACDSignal = cfg.MACDSignal
	}
	if cfg.ATRPeriod > 0 {
		p.ATRPeriod = cfg.ATRPeriod
	}
	if cfg.VolPeriod > 0 {
		p.VolPeriod = cfg.VolPeriod
	}
	return p
}

func buildScanner(app *App) *scanner.Scanner {
	cfg := scanner.DefaultConfig()
	cfg.Params = indicatorParams(app.Config.Indicators)
	if app.Config.Scanner.Concurrency > 0 {
		cfg.Concurrency = app.Config.Scanner.Concurrency
	}
	if app.Config.Scanner.Lookback > 0 {
		cfg.Lookback = app.Config.Scanner.Lookback
	}
	if app.Config.Scanner.RSIOversold > 0 {
		cfg.Criteria.RSIOversold = app.Config.Scanner.RSIOversold
	}
	if app.Config.Scanner.RSIOverbought > 0 {
		cfg.Criteria.RSIOverbought = app.Config.Scanner.RSIOverbought
	}
	cfg.Criteria.MinVolume = app.Config.Scanner.MinVolume
	cfg.Criteria.MaxATRPct = app.Config.Scanner.MaxATRPct
	return scanner.NewScanner(cfg, app.Broker, app.Store, app.Logger)
}

func tradeMode(app *App) models.TradeMode {
	if app.Config.IsPaperMode() {
		return models.ModePaper
	}
	return models.ModeLive
}

func buildGovernor(app *App) *execution.Governor {
	cfg := execution.DefaultConfig()
	cfg.Mode = tradeMode(app)
	if app.Config.Trading.SharesPerTrade > 0 {
		cfg.SharesPerTrade = app.Config.Trading.SharesPerTrade
	}
	return execution.NewGovernor(cfg, app.Store, app.Broker, app.Logger)
}

func buildNotifier(app *App) notify.Notifier {
	if !app.Config.Notifications.Enabled {
		return notify.NewNoOpNotifier()
	}
	return notify.NewMultiNotifier(app.Config.Notifications)
}

// buildDriver assembles the full scheduled pipeline from configuration.
func buildDriver(app *App) (*scheduler.Driver, error) {
	loc := time.Local
	if tz := app.Config.Schedule.Timezone; tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
		loc = parsed
	}

	var slots []scheduler.Slot
	for _, s := range app.Config.Schedule.ReportTimes {
		slot, err := scheduler.ParseSlot(s)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	driverCfg := scheduler.Config{
		Slots:        slots,
		Location:     loc,
		TradeSymbols: app.Config.Trading.TradeSymbols,
		ScanSymbols:  app.Config.Trading.ScanSymbols,
	}

	deps := scheduler.Deps{
		Store:    app.Store,
		Broker:   app.Broker,
		Scanner:  buildScanner(app),
		Tracker:  strategy.NewCrossoverTracker(app.Store, app.Logger),
		Governor: buildGovernor(app),
		Reports:  report.NewGenerator(app.Config.Storage.ReportsDir),
		Notifier: buildNotifier(app),
		Mode:     tradeMode(app),
		Logger:   app.Logger,
	}

	return scheduler.NewDriver(driverCfg, deps), nil
}
