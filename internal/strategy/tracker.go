// Package strategy implements the edge-triggered crossover signal logic.
package strategy

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"algo-trader/internal/errors"
	"algo-trader/internal/models"
)

// StateStore is the persistence the tracker needs. GetCrossState returns
// errors.ErrDataNotFound for a symbol that has never been evaluated.
type StateStore interface {
	GetCrossState(ctx context.Context, symbol string) (*models.CrossState, error)
	SaveCrossState(ctx context.Context, state models.CrossState) error
}

// CrossoverTracker turns fast/slow SMA relations into BUY and SELL signals.
// A signal fires only on the bar where the relation flips; holding the same
// relation for a thousand bars emits nothing.
type CrossoverTracker struct {
	store  StateStore
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCrossoverTracker creates a tracker backed by the given state store.
func NewCrossoverTracker(store StateStore, logger zerolog.Logger) *CrossoverTracker {
	return &CrossoverTracker{
		store:  store,
		logger: logger.With().Str("component", "crossover").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// symbolLock returns the per-symbol mutex, creating it on first use.
// Evaluations for different symbols proceed concurrently; evaluations for
// the same symbol serialize on its lock.
func (t *CrossoverTracker) symbolLock(symbol string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[symbol] = lock
	}
	return lock
}

// relationOf classifies the fast/slow SMA pair. A tie is not a crossing in
// either direction, so it maps to no relation change at the call site.
func relationOf(fast, slow float64) models.CrossRelation {
	switch {
	case fast > slow:
		return models.RelationFastAbove
	case fast < slow:
		return models.RelationFastBelow
	default:
		return models.RelationUnknown
	}
}

// Evaluate updates the crossover state for a symbol from its latest snapshot
// and returns a signal if the relation flipped, or nil otherwise.
//
// Rules, in order:
//   - a snapshot at or before the stored LastEvaluated is a no-op
//   - missing SMAs (not enough history) leave state untouched
//   - equal SMAs hold the previous relation
//   - the first known relation establishes a baseline without signaling
//   - FAST_BELOW to FAST_ABOVE fires BUY, FAST_ABOVE to FAST_BELOW fires SELL
func (t *CrossoverTracker) Evaluate(ctx context.Context, snapshot models.IndicatorSnapshot) (*models.Signal, error) {
	lock := t.symbolLock(snapshot.Symbol)
	lock.Lock()
	defer lock.Unlock()

	if snapshot.SMAFast == nil || snapshot.SMASlow == nil {
		t.logger.Debug().Str("symbol", snapshot.Symbol).Msg("skipping evaluation, SMAs unavailable")
		return nil, nil
	}

	prev, err := t.store.GetCrossState(ctx, snapshot.Symbol)
	if err != nil && !errors.Is(err, errors.ErrDataNotFound) {
		return nil, errors.Wrapf(err, "loading cross state for %s", snapshot.Symbol)
	}
	if prev == nil {
		prev = &models.CrossState{Symbol: snapshot.Symbol, Relation: models.RelationUnknown}
	}

	if !prev.LastEvaluated.IsZero() && !snapshot.Timestamp.After(prev.LastEvaluated) {
		t.logger.Debug().
			Str("symbol", snapshot.Symbol).
			Time("bar", snapshot.Timestamp).
			Time("last_evaluated", prev.LastEvaluated).
			Msg("skipping evaluation, bar already seen")
		return nil, nil
	}

	relation := relationOf(*snapshot.SMAFast, *snapshot.SMASlow)
	if relation == models.RelationUnknown {
		// Tie: hold the previous relation, only advance the clock
		relation = prev.Relation
	}

	next := models.CrossState{
		Symbol:        snapshot.Symbol,
		Relation:      relation,
		LastEvaluated: snapshot.Timestamp,
	}
	if err := t.store.SaveCrossState(ctx, next); err != nil {
		return nil, errors.Wrapf(err, "saving cross state for %s", snapshot.Symbol)
	}

	signal := signalFor(prev.Relation, relation, snapshot)
	if signal != nil {
		t.logger.Info().
			Str("symbol", signal.Symbol).
			Str("signal_id", signal.ID).
			Str("kind", string(signal.Kind)).
			Float64("price", signal.TriggerPrice).
			Msg(signal.Reason)
	}
	return signal, nil
}

// signalFor maps a relation transition to a signal. Only the two genuine
// crossings fire; UNKNOWN to anything is baseline establishment.
func signalFor(prev, next models.CrossRelation, snapshot models.IndicatorSnapshot) *models.Signal {
	if prev == next || prev == models.RelationUnknown || next == models.RelationUnknown {
		return nil
	}

	var kind models.SignalKind
	var reason string
	switch {
	case prev == models.RelationFastBelow && next == models.RelationFastAbove:
		kind, reason = models.SignalBuy, "golden cross"
	case prev == models.RelationFastAbove && next == models.RelationFastBelow:
		kind, reason = models.SignalSell, "death cross"
	default:
		return nil
	}

	sig := models.NewSignal(snapshot.Symbol, kind, snapshot.Timestamp, snapshot.Price, reason)
	return &sig
}

// EvaluateAll runs Evaluate for each snapshot and collects the fired signals.
// Per-symbol failures are logged and skipped so one broken symbol cannot
// block the rest of the pass.
func (t *CrossoverTracker) EvaluateAll(ctx context.Context, snapshots []models.IndicatorSnapshot) []models.Signal {
	var signals []models.Signal
	for _, snap := range snapshots {
		if ctx.Err() != nil {
			return signals
		}
		sig, err := t.Evaluate(ctx, snap)
		if err != nil {
			t.logger.Error().Err(err).Str("symbol", snap.Symbol).Msg("crossover evaluation failed")
			continue
		}
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals
}
