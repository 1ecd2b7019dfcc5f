package broker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"algo-trader/internal/errors"
	"algo-trader/internal/models"
)

// SimBroker is an in-process broker simulation. It serves deterministic
// synthetic bars and fills every submitted order, and is what paper mode and
// the test suite run against.
type SimBroker struct {
	mu sync.RWMutex

	connected    bool
	orderCounter int
	orders       map[string]models.OrderStatus // brokerRef -> status
	bars         map[string][]models.Bar
	quotes       map[string]float64
	accountValue float64

	// SubmitErr, when non-nil, is returned by Submit until FailCount
	// submissions have failed. Used to exercise retry paths.
	SubmitErr error
	FailCount int
	failures  int
}

// NewSimBroker creates a simulated broker with the given starting account
// value.
func NewSimBroker(initialValue float64) *SimBroker {
	if initialValue == 0 {
		initialValue = 100000
	}
	return &SimBroker{
		orders:       make(map[string]models.OrderStatus),
		bars:         make(map[string][]models.Bar),
		quotes:       make(map[string]float64),
		accountValue: initialValue,
	}
}

// Connect marks the broker connected.
func (b *SimBroker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	return nil
}

// Disconnect marks the broker disconnected.
func (b *SimBroker) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	return nil
}

// IsConnected reports the connection state.
func (b *SimBroker) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// SetBars seeds the bar history served for a symbol.
func (b *SimBroker) SetBars(symbol string, bars []models.Bar) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bars[symbol] = bars
	if len(bars) > 0 {
		b.quotes[symbol] = bars[len(bars)-1].Close
	}
}

// GetBars returns the last lookback seeded bars for a symbol, or a synthetic
// random-walk history when none were seeded.
func (b *SimBroker) GetBars(ctx context.Context, symbol string, lookback int) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	bars, ok := b.bars[symbol]
	b.mu.RUnlock()

	if !ok {
		bars = syntheticBars(symbol, lookback)
		b.mu.Lock()
		b.bars[symbol] = bars
		b.quotes[symbol] = bars[len(bars)-1].Close
		b.mu.Unlock()
	}

	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	return bars, nil
}

// GetQuote returns the last close for a symbol.
func (b *SimBroker) GetQuote(ctx context.Context, symbol string) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	quote, ok := b.quotes[symbol]
	if !ok {
		return 0, errors.Wrapf(errors.ErrDataNotFound, "no quote for %s", symbol)
	}
	return quote, nil
}

// Submit accepts an order and fills it immediately. Configured failures are
// consumed first, which lets tests drive the retry machinery.
func (b *SimBroker) Submit(ctx context.Context, order *models.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.SubmitErr != nil && b.failures < b.FailCount {
		b.failures++
		return "", b.SubmitErr
	}

	b.orderCounter++
	ref := fmt.Sprintf("SIM-%06d", b.orderCounter)
	b.orders[ref] = models.OrderFilled
	return ref, nil
}

// GetStatus resolves a broker reference to its status.
func (b *SimBroker) GetStatus(ctx context.Context, brokerRef string) (models.OrderStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	status, ok := b.orders[brokerRef]
	if !ok {
		return "", errors.Wrapf(errors.ErrDataNotFound, "unknown broker ref %s", brokerRef)
	}
	return status, nil
}

// SetStatus overrides a broker reference's status. Test hook for
// reconciliation scenarios.
func (b *SimBroker) SetStatus(brokerRef string, status models.OrderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders[brokerRef] = status
}

// AccountValue returns the simulated account value.
func (b *SimBroker) AccountValue(ctx context.Context) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accountValue, nil
}

// syntheticBars builds a deterministic pseudo-random walk for a symbol so
// repeated runs against the same universe produce the same data.
func syntheticBars(symbol string, count int) []models.Bar {
	if count <= 0 {
		count = 100
	}

	seed := int64(0)
	for _, c := range symbol {
		seed = seed*31 + int64(c)
	}

	base := 50.0 + float64(seed%200)
	bars := make([]models.Bar, count)
	day := time.Date(2025, 1, 2, 16, 0, 0, 0, time.UTC)
	price := base

	for i := 0; i < count; i++ {
		// Deterministic drift from the symbol seed and bar index
		drift := math.Sin(float64(seed%17)+float64(i)/5.0) * base * 0.01
		open := price
		close := price + drift
		high := math.Max(open, close) * 1.005
		low := math.Min(open, close) * 0.995

		bars[i] = models.Bar{
			Timestamp: day,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    100000 + (seed+int64(i)*7919)%50000,
		}
		price = close
		day = day.Add(24 * time.Hour)
	}

	return bars
}
