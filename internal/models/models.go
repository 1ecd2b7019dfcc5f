// Package models provides domain models for the trading bot.
package models

import (
	"time"
)

// TradeMode selects between simulated and real order placement.
type TradeMode string

const (
	ModePaper TradeMode = "PAPER"
	ModeLive  TradeMode = "LIVE"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Bar represents OHLCV data for one symbol at one sampling interval.
// Bars are append-only and ordered oldest-first; spacing is not guaranteed
// to be uniform (market holidays, data gaps).
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// IndicatorSnapshot holds the derived indicator values for one symbol at one
// evaluation. Fields are nil when the window is too short to compute them;
// callers treat nil as "no opinion yet", never as an error.
type IndicatorSnapshot struct {
	Symbol     string
	Timestamp  time.Time
	Price      float64
	SMAFast    *float64
	SMASlow    *float64
	RSI        *float64
	MACDLine   *float64
	MACDSignal *float64
	MACDHist   *float64
	ATR        *float64
	Volume     int64
	VolumeSMA  *float64
}

// Trend classifies a snapshot as bullish, bearish, or neutral.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// CrossRelation is the tracked relation between the fast and slow SMA.
type CrossRelation string

const (
	RelationUnknown   CrossRelation = "UNKNOWN"
	RelationFastAbove CrossRelation = "FAST_ABOVE"
	RelationFastBelow CrossRelation = "FAST_BELOW"
)

// CrossState is the per-symbol crossover state. It survives across evaluation
// passes and process restarts; LastEvaluated guards against re-evaluating the
// same or an older bar.
type CrossState struct {
	Symbol        string
	Relation      CrossRelation
	LastEvaluated time.Time
}

// ScanResult is the per-symbol output of one scanner pass.
type ScanResult struct {
	Symbol          string
	Snapshot        IndicatorSnapshot
	Trend           Trend
	MatchedCriteria []string
	Score           float64
}

// ScanErrorKind classifies per-symbol scanner failures.
type ScanErrorKind string

const (
	ScanErrFetch        ScanErrorKind = "data_fetch"
	ScanErrInsufficient ScanErrorKind = "insufficient_data"
	ScanErrCompute      ScanErrorKind = "compute"
)

// ScanError records a symbol that failed evaluation during a scan pass.
// A ScanError never aborts the pass; it is reported alongside the results.
type ScanError struct {
	Symbol string
	Kind   ScanErrorKind
	Err    error
}

func (e ScanError) Error() string {
	return string(e.Kind) + " " + e.Symbol + ": " + e.Err.Error()
}
