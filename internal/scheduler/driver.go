// Package scheduler fires the scan and execution pipeline at configured
// daily times, at most once per slot per day.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"algo-trader/internal/broker"
	"algo-trader/internal/errors"
	"algo-trader/internal/execution"
	"algo-trader/internal/logging"
	"algo-trader/internal/models"
	"algo-trader/internal/notify"
	"algo-trader/internal/report"
	"algo-trader/internal/scanner"
	"algo-trader/internal/store"
	"algo-trader/internal/strategy"
	"algo-trader/pkg/utils"
)

// Clock abstracts wall-clock time so the firing logic is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Slot is one daily fire time.
type Slot struct {
	Name   string // "HH:MM" wall clock, also the persistence key
	Hour   int
	Minute int
}

// ParseSlot parses an "HH:MM" string into a Slot.
func ParseSlot(s string) (Slot, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Slot{}, fmt.Errorf("invalid slot %q: %w", s, err)
	}
	return Slot{Name: s, Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Config holds driver configuration.
type Config struct {
	Slots        []Slot
	Location     *time.Location
	TradeSymbols []string
	ScanSymbols  []string
	PollInterval time.Duration
}

// Driver runs the scheduled pipeline: scan, evaluate crossovers, execute
// signals, reconcile, report, notify. Firing state is persisted, so a
// restart within the same day never repeats a slot.
type Driver struct {
	cfg      Config
	clock    Clock
	store    store.DataStore
	broker   broker.Broker
	scanner  *scanner.Scanner
	tracker  *strategy.CrossoverTracker
	governor *execution.Governor
	reports  *report.Generator
	notifier notify.Notifier
	mode     models.TradeMode
	logger   zerolog.Logger
}

// Deps bundles the driver's collaborators.
type Deps struct {
	Clock    Clock
	Store    store.DataStore
	Broker   broker.Broker
	Scanner  *scanner.Scanner
	Tracker  *strategy.CrossoverTracker
	Governor *execution.Governor
	Reports  *report.Generator
	Notifier notify.Notifier
	Mode     models.TradeMode
	Logger   zerolog.Logger
}

// NewDriver creates a scheduler driver.
func NewDriver(cfg Config, deps Deps) *Driver {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NewNoOpNotifier()
	}
	return &Driver{
		cfg:      cfg,
		clock:    clock,
		store:    deps.Store,
		broker:   deps.Broker,
		scanner:  deps.Scanner,
		tracker:  deps.Tracker,
		governor: deps.Governor,
		reports:  deps.Reports,
		notifier: notifier,
		mode:     deps.Mode,
		logger:   deps.Logger.With().Str("component", "scheduler").Logger(),
	}
}

// DueSlot returns the slot that should fire now, or nil. A slot is due when
// its wall-clock time has passed today and it has not fired today yet.
// Weekends never fire. Persisted last-fired times make this restart safe.
func (d *Driver) DueSlot(ctx context.Context) (*Slot, error) {
	now := d.clock.Now().In(d.cfg.Location)
	if !utils.IsTradingDay(now) {
		return nil, nil
	}

	for _, slot := range d.cfg.Slots {
		fireAt := time.Date(now.Year(), now.Month(), now.Day(), slot.Hour, slot.Minute, 0, 0, d.cfg.Location)
		if now.Before(fireAt) {
			continue
		}

		lastFired, err := d.store.GetLastFired(ctx, slot.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "loading last fired for slot %s", slot.Name)
		}
		if !lastFired.IsZero() && utils.SameDay(lastFired, now, d.cfg.Location) {
			continue
		}

		s := slot
		return &s, nil
	}
	return nil, nil
}

// RunPass executes one full pipeline pass for a slot and marks it fired.
// The slot is marked before the pipeline runs: a crash mid-pass must not
// cause a duplicate pass (and duplicate orders) on restart.
func (d *Driver) RunPass(ctx context.Context, slot Slot) error {
	started := d.clock.Now()

	if err := d.store.SetLastFired(ctx, slot.Name, started); err != nil {
		return errors.Wrapf(err, "marking slot %s fired", slot.Name)
	}

	results, scanErrs := d.scanner.Scan(ctx, d.cfg.ScanSymbols)

	tradeable := make(map[string]bool, len(d.cfg.TradeSymbols))
	for _, s := range d.cfg.TradeSymbols {
		tradeable[s] = true
	}

	// Crossover evaluation covers every scanned symbol plus the full trade
	// universe. A trade symbol outside the scan universe, or one whose scan
	// failed, is still evaluated from its own snapshot; only signals for the
	// trade universe reach the governor.
	var snapshots []models.IndicatorSnapshot
	scanned := make(map[string]bool, len(results))
	for _, r := range results {
		snapshots = append(snapshots, r.Snapshot)
		scanned[r.Symbol] = true
	}
	for _, symbol := range d.cfg.TradeSymbols {
		if scanned[symbol] {
			continue
		}
		snap, err := d.scanner.Snapshot(ctx, symbol)
		if err != nil {
			d.logger.Warn().Err(err).Str("symbol", symbol).Msg("trade symbol not evaluated")
			continue
		}
		snapshots = append(snapshots, snap)
	}
	signals := d.tracker.EvaluateAll(ctx, snapshots)

	var actionable []models.Signal
	for _, sig := range signals {
		if tradeable[sig.Symbol] {
			actionable = append(actionable, sig)
		}
	}

	orders, orderErrs := d.governor.ExecuteAll(ctx, actionable)

	if err := d.governor.Reconcile(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("reconciliation failed")
	}

	d.recordPortfolio(ctx)

	summary := report.PassSummary{
		Slot:        slot.Name,
		GeneratedAt: started,
		Mode:        d.mode,
		Results:     results,
		ScanErrors:  scanErrs,
		Signals:     signals,
		Orders:      orders,
		OrderErrors: orderErrs,
	}
	if history, err := d.store.GetPortfolioHistory(ctx, 30); err == nil {
		summary.Portfolio = history
	}

	path, err := d.reports.Save(summary)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to save report")
	} else {
		d.logger.Info().Str("path", path).Msg("report written")
	}

	if err := d.notifier.SendReport(ctx, fmt.Sprintf("Pass %s", slot.Name), d.reports.Render(summary)); err != nil {
		d.logger.Warn().Err(err).Msg("report notification failed")
	}
	ordersByID := make(map[string]*models.Order, len(orders))
	for i := range orders {
		ordersByID[orders[i].SignalID] = &orders[i]
	}
	for _, sig := range actionable {
		if err := d.notifier.SendSignal(ctx, sig, ordersByID[sig.ID]); err != nil {
			d.logger.Warn().Err(err).Str("signal_id", sig.ID).Msg("signal notification failed")
		}
	}

	logging.LogPass(d.logger, slot.Name, len(d.cfg.ScanSymbols), len(signals), len(orders), len(scanErrs)+len(orderErrs), time.Since(started))
	return nil
}

// recordPortfolio stores the current account value when the broker can
// provide one.
func (d *Driver) recordPortfolio(ctx context.Context) {
	value, err := d.broker.AccountValue(ctx)
	if err != nil {
		d.logger.Debug().Err(err).Msg("account value unavailable")
		return
	}
	if err := d.store.RecordPortfolioValue(ctx, d.clock.Now(), value); err != nil {
		d.logger.Warn().Err(err).Msg("failed to record portfolio value")
	}
}

// Tick checks for a due slot and runs it. Returns the slot that fired, if
// any.
func (d *Driver) Tick(ctx context.Context) (*Slot, error) {
	slot, err := d.DueSlot(ctx)
	if err != nil || slot == nil {
		return nil, err
	}
	if err := d.RunPass(ctx, *slot); err != nil {
		return slot, err
	}
	return slot, nil
}

// Loop polls for due slots until the context is canceled. A pass in flight
// finishes before Loop returns; cancellation is only observed between ticks.
func (d *Driver) Loop(ctx context.Context) error {
	d.logger.Info().
		Int("slots", len(d.cfg.Slots)).
		Str("poll", d.cfg.PollInterval.String()).
		Msg("scheduler started")

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.Tick(ctx); err != nil {
			d.logger.Error().Err(err).Msg("pass failed")
		}

		select {
		case <-ctx.Done():
			d.logger.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
