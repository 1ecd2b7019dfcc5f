package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"algo-trader/internal/errors"
	"algo-trader/internal/models"
)

// memoryStateStore is an in-memory StateStore for tests.
type memoryStateStore struct {
	states map[string]models.CrossState
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{states: make(map[string]models.CrossState)}
}

func (m *memoryStateStore) GetCrossState(_ context.Context, symbol string) (*models.CrossState, error) {
	state, ok := m.states[symbol]
	if !ok {
		return nil, errors.ErrDataNotFound
	}
	return &state, nil
}

func (m *memoryStateStore) SaveCrossState(_ context.Context, state models.CrossState) error {
	m.states[state.Symbol] = state
	return nil
}

func f(v float64) *float64 { return &v }

func snapshotAt(symbol string, ts time.Time, fast, slow *float64) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Symbol:    symbol,
		Timestamp: ts,
		Price:     100,
		SMAFast:   fast,
		SMASlow:   slow,
	}
}

func newTestTracker() (*CrossoverTracker, *memoryStateStore) {
	store := newMemoryStateStore()
	return NewCrossoverTracker(store, zerolog.Nop()), store
}

func TestCrossoverSequence(t *testing.T) {
	// Fast/slow pairs over four bars: below, tie, cross up, cross down.
	// Expect exactly one BUY at the third bar and one SELL at the fourth.
	tracker, _ := newTestTracker()
	ctx := context.Background()
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	pairs := []struct {
		fast, slow float64
		wantKind   models.SignalKind
		wantSignal bool
	}{
		{1, 2, "", false}, // baseline FAST_BELOW
		{2, 2, "", false}, // tie holds state
		{3, 2, models.SignalBuy, true},
		{2, 3, models.SignalSell, true},
	}

	for i, p := range pairs {
		snap := snapshotAt("AAPL", base.Add(time.Duration(i)*time.Hour), f(p.fast), f(p.slow))
		sig, err := tracker.Evaluate(ctx, snap)
		if err != nil {
			t.Fatalf("bar %d: Evaluate: %v", i, err)
		}
		if p.wantSignal {
			if sig == nil {
				t.Fatalf("bar %d: expected %s signal, got none", i, p.wantKind)
			}
			if sig.Kind != p.wantKind {
				t.Errorf("bar %d: kind = %s, want %s", i, sig.Kind, p.wantKind)
			}
		} else if sig != nil {
			t.Errorf("bar %d: unexpected signal %+v", i, sig)
		}
	}
}

func TestFirstEvaluationEstablishesBaseline(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()
	ts := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	sig, err := tracker.Evaluate(ctx, snapshotAt("MSFT", ts, f(10), f(5)))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if sig != nil {
		t.Errorf("baseline establishment emitted a signal: %+v", sig)
	}

	state := store.states["MSFT"]
	if state.Relation != models.RelationFastAbove {
		t.Errorf("relation = %s, want %s", state.Relation, models.RelationFastAbove)
	}
	if !state.LastEvaluated.Equal(ts) {
		t.Errorf("last evaluated = %s, want %s", state.LastEvaluated, ts)
	}
}

func TestStaleBarIgnored(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()
	ts := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	if _, err := tracker.Evaluate(ctx, snapshotAt("AAPL", ts, f(1), f(2))); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// Same timestamp would flip the relation if processed; it must not be
	for _, stale := range []time.Time{ts, ts.Add(-time.Hour)} {
		sig, err := tracker.Evaluate(ctx, snapshotAt("AAPL", stale, f(3), f(2)))
		if err != nil {
			t.Fatalf("Evaluate(stale %s): %v", stale, err)
		}
		if sig != nil {
			t.Errorf("stale bar %s emitted a signal", stale)
		}
	}
	if store.states["AAPL"].Relation != models.RelationFastBelow {
		t.Errorf("stale bar mutated state: %s", store.states["AAPL"].Relation)
	}
}

func TestMissingSMAsSkipped(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()
	ts := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		fast, slow *float64
	}{
		{"no fast", nil, f(5)},
		{"no slow", f(5), nil},
		{"neither", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig, err := tracker.Evaluate(ctx, snapshotAt("GOOG", ts, tc.fast, tc.slow))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if sig != nil {
				t.Errorf("signal emitted without both SMAs")
			}
			if _, ok := store.states["GOOG"]; ok {
				t.Errorf("state written without both SMAs")
			}
		})
	}
}

func TestTieAdvancesClockWithoutFlipping(t *testing.T) {
	tracker, store := newTestTracker()
	ctx := context.Background()
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	if _, err := tracker.Evaluate(ctx, snapshotAt("AAPL", base, f(5), f(2))); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	sig, err := tracker.Evaluate(ctx, snapshotAt("AAPL", base.Add(time.Hour), f(3), f(3)))
	if err != nil {
		t.Fatalf("Evaluate(tie): %v", err)
	}
	if sig != nil {
		t.Errorf("tie emitted a signal")
	}

	state := store.states["AAPL"]
	if state.Relation != models.RelationFastAbove {
		t.Errorf("tie changed relation to %s", state.Relation)
	}
	if !state.LastEvaluated.Equal(base.Add(time.Hour)) {
		t.Errorf("tie did not advance last evaluated: %s", state.LastEvaluated)
	}
}

func TestSignalIDsDeterministic(t *testing.T) {
	ts := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	a := models.SignalID("AAPL", ts, models.SignalBuy)
	b := models.SignalID("AAPL", ts, models.SignalBuy)
	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if models.SignalID("AAPL", ts, models.SignalSell) == a {
		t.Errorf("different kinds produced the same ID")
	}
	if models.SignalID("MSFT", ts, models.SignalBuy) == a {
		t.Errorf("different symbols produced the same ID")
	}
}

func TestEvaluateAllCollectsSignals(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	// Establish baselines
	tracker.EvaluateAll(ctx, []models.IndicatorSnapshot{
		snapshotAt("AAPL", base, f(1), f(2)),
		snapshotAt("MSFT", base, f(4), f(2)),
	})

	// AAPL crosses up, MSFT crosses down
	signals := tracker.EvaluateAll(ctx, []models.IndicatorSnapshot{
		snapshotAt("AAPL", base.Add(time.Hour), f(3), f(2)),
		snapshotAt("MSFT", base.Add(time.Hour), f(1), f(2)),
	})

	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Kind != models.SignalBuy || signals[0].Symbol != "AAPL" {
		t.Errorf("first signal = %+v, want AAPL BUY", signals[0])
	}
	if signals[1].Kind != models.SignalSell || signals[1].Symbol != "MSFT" {
		t.Errorf("second signal = %+v, want MSFT SELL", signals[1])
	}
}
