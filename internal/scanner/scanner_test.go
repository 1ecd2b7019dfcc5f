package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"algo-trader/internal/errors"
	"algo-trader/internal/models"
)

// stubMarketData serves canned bars per symbol and fails configured symbols.
type stubMarketData struct {
	bars    map[string][]models.Bar
	failing map[string]error
}

func (s *stubMarketData) GetBars(_ context.Context, symbol string, _ int) ([]models.Bar, error) {
	if err, ok := s.failing[symbol]; ok {
		return nil, err
	}
	return s.bars[symbol], nil
}

func (s *stubMarketData) GetQuote(_ context.Context, symbol string) (float64, error) {
	bars := s.bars[symbol]
	if len(bars) == 0 {
		return 0, errors.ErrDataNotFound
	}
	return bars[len(bars)-1].Close, nil
}

// trendingBars builds count daily bars walking from start by step per bar.
func trendingBars(count int, start, step float64) []models.Bar {
	bars := make([]models.Bar, count)
	day := time.Date(2025, 1, 2, 16, 0, 0, 0, time.UTC)
	price := start
	for i := range bars {
		next := price + step
		high, low := price, next
		if high < low {
			high, low = low, high
		}
		bars[i] = models.Bar{
			Timestamp: day,
			Open:      price,
			High:      high * 1.01,
			Low:       low * 0.99,
			Close:     next,
			Volume:    500000,
		}
		price = next
		day = day.Add(24 * time.Hour)
	}
	return bars
}

func newTestScanner(data *stubMarketData) *Scanner {
	cfg := DefaultConfig()
	cfg.Concurrency = 2
	return NewScanner(cfg, data, nil, zerolog.Nop())
}

func TestScanRanksByScore(t *testing.T) {
	data := &stubMarketData{
		bars: map[string][]models.Bar{
			"UP":   trendingBars(120, 100, 1.5),  // strong uptrend, high RSI
			"FLAT": trendingBars(120, 100, 0.01), // drifting sideways
		},
	}

	results, scanErrs := newTestScanner(data).Scan(context.Background(), []string{"FLAT", "UP"})
	if len(scanErrs) != 0 {
		t.Fatalf("unexpected scan errors: %v", scanErrs)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Symbol != "UP" {
		t.Errorf("top result = %s, want UP", results[0].Symbol)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("results not sorted by score: %f <= %f", results[0].Score, results[1].Score)
	}
	if results[0].Trend != models.TrendBullish {
		t.Errorf("UP trend = %s, want bullish", results[0].Trend)
	}
}

func TestScanCollectsPartialFailures(t *testing.T) {
	// B fails to fetch; A and C must still come back
	data := &stubMarketData{
		bars: map[string][]models.Bar{
			"A": trendingBars(120, 100, 0.5),
			"C": trendingBars(120, 50, -0.2),
		},
		failing: map[string]error{
			"B": errors.NewTransientBrokerError("CONN", "connection refused"),
		},
	}

	results, scanErrs := newTestScanner(data).Scan(context.Background(), []string{"A", "B", "C"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if len(scanErrs) != 1 {
		t.Fatalf("expected 1 scan error, got %d", len(scanErrs))
	}
	if scanErrs[0].Symbol != "B" || scanErrs[0].Kind != models.ScanErrFetch {
		t.Errorf("scan error = %+v, want B/data_fetch", scanErrs[0])
	}
	for _, r := range results {
		if r.Symbol == "B" {
			t.Errorf("failed symbol leaked into results")
		}
	}
}

func TestScanInsufficientDataReported(t *testing.T) {
	data := &stubMarketData{
		bars: map[string][]models.Bar{
			"THIN": trendingBars(10, 100, 0.5),
		},
	}

	results, scanErrs := newTestScanner(data).Scan(context.Background(), []string{"THIN"})
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if len(scanErrs) != 1 {
		t.Fatalf("expected 1 scan error, got %d", len(scanErrs))
	}
	if scanErrs[0].Kind != models.ScanErrInsufficient {
		t.Errorf("kind = %s, want insufficient_data", scanErrs[0].Kind)
	}
}

func TestScanEmptyUniverse(t *testing.T) {
	results, scanErrs := newTestScanner(&stubMarketData{}).Scan(context.Background(), nil)
	if results != nil || scanErrs != nil {
		t.Errorf("empty universe should return nil, nil")
	}
}

func TestClassifyTrend(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		fast, slow *float64
		rsi        *float64
		want       models.Trend
	}{
		{"fast above slow", f(110), f(100), f(60), models.TrendBullish},
		{"fast above but weak rsi", f(110), f(100), f(35), models.TrendNeutral},
		{"fast below slow", f(90), f(100), f(40), models.TrendBearish},
		{"fast below but strong rsi", f(90), f(100), f(65), models.TrendNeutral},
		{"equal smas", f(100), f(100), f(50), models.TrendNeutral},
		{"missing smas", nil, nil, f(50), models.TrendNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := models.IndicatorSnapshot{SMAFast: tt.fast, SMASlow: tt.slow, RSI: tt.rsi}
			if got := classifyTrend(snap); got != tt.want {
				t.Errorf("classifyTrend = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMatchCriteria(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	s := newTestScanner(&stubMarketData{})

	snap := models.IndicatorSnapshot{
		Price:    100,
		RSI:      f(25),
		MACDHist: f(0.5),
		Volume:   1000000,
	}
	matched := s.matchCriteria(snap)

	want := map[string]bool{"rsi_oversold": true, "macd_bullish": true}
	if len(matched) != len(want) {
		t.Fatalf("matched = %v, want keys %v", matched, want)
	}
	for _, m := range matched {
		if !want[m] {
			t.Errorf("unexpected criterion %s", m)
		}
	}
}

// memoryBarCache is an in-memory BarCache for tests.
type memoryBarCache struct {
	mu   sync.Mutex
	bars map[string][]models.Bar
}

func newMemoryBarCache() *memoryBarCache {
	return &memoryBarCache{bars: make(map[string][]models.Bar)}
}

func (c *memoryBarCache) SaveBars(_ context.Context, symbol, _ string, bars []models.Bar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bars[symbol] = bars
	return nil
}

func (c *memoryBarCache) GetBars(_ context.Context, symbol, _ string, _, _ time.Time) ([]models.Bar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bars[symbol], nil
}

func TestScanWritesBarsThroughToCache(t *testing.T) {
	data := &stubMarketData{bars: map[string][]models.Bar{
		"A": trendingBars(120, 100, 0.5),
	}}
	cache := newMemoryBarCache()

	sc := NewScanner(DefaultConfig(), data, cache, zerolog.Nop())
	results, scanErrs := sc.Scan(context.Background(), []string{"A"})
	if len(results) != 1 || len(scanErrs) != 0 {
		t.Fatalf("results = %d, errors = %d", len(results), len(scanErrs))
	}

	cached, _ := cache.GetBars(context.Background(), "A", "1d", time.Time{}, time.Now())
	if len(cached) != 120 {
		t.Errorf("cached %d bars, want 120", len(cached))
	}
}

func TestScanServesCachedBarsWhenFetchFails(t *testing.T) {
	cache := newMemoryBarCache()
	if err := cache.SaveBars(context.Background(), "A", "1d", trendingBars(120, 100, 0.5)); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	data := &stubMarketData{failing: map[string]error{
		"A": errors.NewTransientBrokerError("CONN", "connection refused"),
	}}

	sc := NewScanner(DefaultConfig(), data, cache, zerolog.Nop())
	results, scanErrs := sc.Scan(context.Background(), []string{"A"})
	if len(scanErrs) != 0 {
		t.Fatalf("scan errors with warm cache: %v", scanErrs)
	}
	if len(results) != 1 || results[0].Symbol != "A" {
		t.Fatalf("expected cached evaluation of A, got %+v", results)
	}
}

func TestSnapshotBypassesScreeningCriteria(t *testing.T) {
	data := &stubMarketData{bars: map[string][]models.Bar{
		"A": trendingBars(120, 100, 0.5),
	}}
	sc := newTestScanner(data)

	snap, err := sc.Snapshot(context.Background(), "A")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Symbol != "A" || snap.SMAFast == nil || snap.SMASlow == nil {
		t.Errorf("incomplete snapshot: %+v", snap)
	}

	if _, err := sc.Snapshot(context.Background(), "MISSING"); err != nil {
		t.Errorf("Snapshot over empty history should yield nil fields, not error: %v", err)
	}
}
