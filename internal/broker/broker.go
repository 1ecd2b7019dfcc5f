// Package broker provides broker integration interfaces and implementations.
package broker

import (
	"context"

	"algo-trader/internal/models"
)

// MarketData provides historical bar data for a symbol.
type MarketData interface {
	// GetBars returns up to lookback daily bars ending at the most recent
	// session, oldest first.
	GetBars(ctx context.Context, symbol string, lookback int) ([]models.Bar, error)

	// GetQuote returns the latest traded price for a symbol.
	GetQuote(ctx context.Context, symbol string) (float64, error)
}

// OrderBroker submits orders and reports their downstream status. Submit
// returns the broker's own order reference; GetStatus resolves that reference
// back into a lifecycle status during reconciliation.
type OrderBroker interface {
	Submit(ctx context.Context, order *models.Order) (string, error)
	GetStatus(ctx context.Context, brokerRef string) (models.OrderStatus, error)
}

// Broker is the full surface the engine wires against.
type Broker interface {
	MarketData
	OrderBroker

	// AccountValue returns the current total account value.
	AccountValue(ctx context.Context) (float64, error)

	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
}
