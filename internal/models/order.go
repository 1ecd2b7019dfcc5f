package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SignalKind is the direction of a trading signal.
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
)

// Signal is an edge-triggered crossover signal for one symbol at one bar.
type Signal struct {
	ID           string
	Symbol       string
	Kind         SignalKind
	Timestamp    time.Time
	TriggerPrice float64
	Reason       string
}

// SignalID derives the deterministic signal identifier. Re-evaluating the
// same bar always yields the same ID, which is what makes order submission
// idempotent downstream.
func SignalID(symbol string, ts time.Time, kind SignalKind) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", symbol, ts.Unix(), kind)))
	return hex.EncodeToString(sum[:8])
}

// NewSignal builds a Signal with its deterministic ID.
func NewSignal(symbol string, kind SignalKind, ts time.Time, price float64, reason string) Signal {
	return Signal{
		ID:           SignalID(symbol, ts, kind),
		Symbol:       symbol,
		Kind:         kind,
		Timestamp:    ts,
		TriggerPrice: price,
		Reason:       reason,
	}
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderSubmitted OrderStatus = "SUBMITTED"
	OrderFilled    OrderStatus = "FILLED"
	OrderRejected  OrderStatus = "REJECTED"
	OrderFailed    OrderStatus = "FAILED"
)

// Terminal reports whether the status cannot change anymore.
func (s OrderStatus) Terminal() bool {
	return s == OrderFilled || s == OrderRejected || s == OrderFailed
}

// Order is created from exactly one Signal. SignalID is the dedupe key: at
// most one non-FAILED order may exist per signal, enforced both by the
// governor and by the store's primary key.
type Order struct {
	SignalID     string
	Symbol       string
	Side         OrderSide
	Quantity     int
	Price        float64
	Mode         TradeMode
	Status       OrderStatus
	AttemptCount int
	BrokerRef    string
	LastError    string
	PlacedAt     time.Time
	UpdatedAt    time.Time
}
