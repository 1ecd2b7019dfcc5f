// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"algo-trader/internal/models"
)

// DataStore defines the interface for data persistence. Cross state, orders,
// and schedule slots must survive process restart; everything else is cache.
type DataStore interface {
	// Bars cache
	SaveBars(ctx context.Context, symbol, timeframe string, bars []models.Bar) error
	GetBars(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Bar, error)

	// Crossover state
	SaveCrossState(ctx context.Context, state models.CrossState) error
	GetCrossState(ctx context.Context, symbol string) (*models.CrossState, error)
	GetAllCrossStates(ctx context.Context) ([]models.CrossState, error)

	// Orders, keyed by signal ID
	SaveOrder(ctx context.Context, order *models.Order) error
	GetOrderBySignalID(ctx context.Context, signalID string) (*models.Order, error)
	GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetOrders(ctx context.Context, from, to time.Time) ([]models.Order, error)

	// Schedule slots
	GetLastFired(ctx context.Context, slot string) (time.Time, error)
	SetLastFired(ctx context.Context, slot string, t time.Time) error

	// Portfolio history
	RecordPortfolioValue(ctx context.Context, t time.Time, value float64) error
	GetPortfolioHistory(ctx context.Context, limit int) ([]PortfolioSnapshot, error)

	// Lifecycle
	Close() error
}

// PortfolioSnapshot is one recorded account value observation.
type PortfolioSnapshot struct {
	Timestamp  time.Time
	TotalValue float64
}
