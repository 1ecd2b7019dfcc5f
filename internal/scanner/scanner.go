// Package scanner evaluates a symbol universe concurrently and ranks the
// results.
package scanner

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"algo-trader/internal/analysis/indicators"
	"algo-trader/internal/broker"
	"algo-trader/internal/errors"
	"algo-trader/internal/models"
)

// Criteria are the pass/fail filters a symbol is screened against. All
// enabled criteria combine with AND logic.
type Criteria struct {
	RSIOversold   float64 // match when RSI <= this; 0 disables
	RSIOverbought float64 // match when RSI >= this; 0 disables
	MinVolume     int64   // match when latest volume >= this; 0 disables
	MaxATRPct     float64 // reject when ATR/price exceeds this; 0 disables
}

// DefaultCriteria returns the stock screening defaults.
func DefaultCriteria() Criteria {
	return Criteria{
		RSIOversold:   30,
		RSIOverbought: 70,
		MinVolume:     0,
		MaxATRPct:     0,
	}
}

// Config controls a scan pass.
type Config struct {
	Concurrency int
	Lookback    int
	Params      indicators.Params
	Criteria    Criteria
}

// DefaultConfig returns scanner defaults sized for daily bars.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Lookback:    120,
		Params:      indicators.DefaultParams(),
		Criteria:    DefaultCriteria(),
	}
}

// barTimeframe is the sampling interval of every cached bar window.
const barTimeframe = "1d"

// BarCache persists fetched bar windows so a later pass can evaluate a symbol
// even when the data source is down.
type BarCache interface {
	SaveBars(ctx context.Context, symbol, timeframe string, bars []models.Bar) error
	GetBars(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Bar, error)
}

// Scanner screens a symbol universe with concurrent workers. Per-symbol
// failures never abort a pass; they are collected and reported alongside the
// successful results.
type Scanner struct {
	cfg    Config
	data   broker.MarketData
	cache  BarCache
	logger zerolog.Logger
}

// NewScanner creates a scanner over the given market data source. cache may
// be nil, in which case fetch failures have no fallback.
func NewScanner(cfg Config, data broker.MarketData, cache BarCache, logger zerolog.Logger) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 120
	}
	return &Scanner{
		cfg:    cfg,
		data:   data,
		cache:  cache,
		logger: logger.With().Str("component", "scanner").Logger(),
	}
}

type scanOutcome struct {
	result *models.ScanResult
	err    *models.ScanError
}

// Scan evaluates every symbol and returns results sorted by score, highest
// first, plus the per-symbol failures.
func (s *Scanner) Scan(ctx context.Context, symbols []string) ([]models.ScanResult, []models.ScanError) {
	if len(symbols) == 0 {
		return nil, nil
	}

	resultChan := make(chan scanOutcome, len(symbols))
	workChan := make(chan string, len(symbols))

	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < s.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- s.scanSymbol(ctx, symbol)
				}
			}
		}()
	}

	// Send work
	go func() {
		for _, symbol := range symbols {
			select {
			case <-ctx.Done():
			case workChan <- symbol:
			}
		}
		close(workChan)
	}()

	// Wait for workers and close result channel
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []models.ScanResult
	var scanErrs []models.ScanError
	for outcome := range resultChan {
		if outcome.err != nil {
			s.logger.Warn().
				Str("symbol", outcome.err.Symbol).
				Str("kind", string(outcome.err.Kind)).
				Err(outcome.err.Err).
				Msg("symbol failed scan")
			scanErrs = append(scanErrs, *outcome.err)
			continue
		}
		if outcome.result != nil {
			results = append(results, *outcome.result)
		}
	}

	// Highest score first; symbol breaks ties so output is stable
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Symbol < results[j].Symbol
	})

	return results, scanErrs
}

// fetchBars pulls a bar window from the data source, writing every
// successful fetch through to the cache. On a fetch failure the cached
// window, when one exists, stands in for the live data.
func (s *Scanner) fetchBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	bars, err := s.data.GetBars(ctx, symbol, s.cfg.Lookback)
	if err != nil {
		if s.cache != nil {
			cached, cacheErr := s.cache.GetBars(ctx, symbol, barTimeframe, time.Time{}, time.Now())
			if cacheErr == nil && len(cached) > 0 {
				if len(cached) > s.cfg.Lookback {
					cached = cached[len(cached)-s.cfg.Lookback:]
				}
				s.logger.Warn().
					Str("symbol", symbol).
					Int("bars", len(cached)).
					Err(err).
					Msg("data fetch failed, serving cached bars")
				return cached, nil
			}
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SaveBars(ctx, symbol, barTimeframe, bars); err != nil {
			s.logger.Warn().Str("symbol", symbol).Err(err).Msg("bar cache write failed")
		}
	}
	return bars, nil
}

// Snapshot fetches bars for one symbol and computes its indicators,
// bypassing the screening criteria. Values the window cannot support are nil.
func (s *Scanner) Snapshot(ctx context.Context, symbol string) (models.IndicatorSnapshot, error) {
	bars, err := s.fetchBars(ctx, symbol)
	if err != nil {
		return models.IndicatorSnapshot{}, errors.Wrapf(err, "fetching bars for %s", symbol)
	}
	return indicators.Snapshot(symbol, bars, s.cfg.Params), nil
}

// scanSymbol evaluates a single symbol.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string) scanOutcome {
	bars, err := s.fetchBars(ctx, symbol)
	if err != nil {
		return scanOutcome{err: &models.ScanError{Symbol: symbol, Kind: models.ScanErrFetch, Err: err}}
	}
	if len(bars) < s.cfg.Params.SMASlow {
		return scanOutcome{err: &models.ScanError{
			Symbol: symbol,
			Kind:   models.ScanErrInsufficient,
			Err:    errors.Wrapf(indicators.ErrInsufficientData, "%d bars, need %d", len(bars), s.cfg.Params.SMASlow),
		}}
	}

	snapshot := indicators.Snapshot(symbol, bars, s.cfg.Params)
	if snapshot.SMAFast == nil || snapshot.SMASlow == nil {
		return scanOutcome{err: &models.ScanError{
			Symbol: symbol,
			Kind:   models.ScanErrCompute,
			Err:    errors.Wrapf(indicators.ErrInsufficientData, "SMAs unavailable for %s", symbol),
		}}
	}

	matched := s.matchCriteria(snapshot)

	result := models.ScanResult{
		Symbol:          symbol,
		Snapshot:        snapshot,
		Trend:           classifyTrend(snapshot),
		MatchedCriteria: matched,
		Score:           scoreSnapshot(snapshot, matched),
	}
	return scanOutcome{result: &result}
}

// matchCriteria returns the names of the criteria the snapshot satisfies.
func (s *Scanner) matchCriteria(snap models.IndicatorSnapshot) []string {
	var matched []string
	c := s.cfg.Criteria

	if snap.RSI != nil {
		if c.RSIOversold > 0 && *snap.RSI <= c.RSIOversold {
			matched = append(matched, "rsi_oversold")
		}
		if c.RSIOverbought > 0 && *snap.RSI >= c.RSIOverbought {
			matched = append(matched, "rsi_overbought")
		}
	}
	if c.MinVolume > 0 && snap.Volume >= c.MinVolume {
		matched = append(matched, "volume")
	}
	if snap.MACDHist != nil && *snap.MACDHist > 0 {
		matched = append(matched, "macd_bullish")
	}
	if c.MaxATRPct > 0 && snap.ATR != nil && snap.Price > 0 {
		if *snap.ATR/snap.Price*100 <= c.MaxATRPct {
			matched = append(matched, "volatility_ok")
		}
	}

	return matched
}

// classifyTrend buckets a snapshot into bullish, bearish, or neutral from
// the SMA relation and RSI.
func classifyTrend(snap models.IndicatorSnapshot) models.Trend {
	if snap.SMAFast == nil || snap.SMASlow == nil {
		return models.TrendNeutral
	}

	switch {
	case *snap.SMAFast > *snap.SMASlow:
		if snap.RSI != nil && *snap.RSI < 40 {
			return models.TrendNeutral
		}
		return models.TrendBullish
	case *snap.SMAFast < *snap.SMASlow:
		if snap.RSI != nil && *snap.RSI > 60 {
			return models.TrendNeutral
		}
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

// scoreSnapshot ranks a snapshot. RSI distance from the neutral 50 dominates;
// MACD histogram magnitude and matched criteria add on top.
func scoreSnapshot(snap models.IndicatorSnapshot, matched []string) float64 {
	score := 0.0

	if snap.RSI != nil {
		score += math.Abs(*snap.RSI - 50)
	}
	if snap.MACDHist != nil && snap.Price > 0 {
		// Normalize the histogram by price so scores compare across symbols
		score += math.Abs(*snap.MACDHist) / snap.Price * 1000
	}
	score += float64(len(matched)) * 5

	return score
}
