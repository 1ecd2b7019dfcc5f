// Package execution turns signals into broker orders with idempotent,
// retry-bounded submission.
package execution

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"algo-trader/internal/broker"
	"algo-trader/internal/errors"
	"algo-trader/internal/logging"
	"algo-trader/internal/models"
	"algo-trader/pkg/utils"
)

// OrderStore is the persistence the governor needs.
type OrderStore interface {
	SaveOrder(ctx context.Context, order *models.Order) error
	GetOrderBySignalID(ctx context.Context, signalID string) (*models.Order, error)
	GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
}

// Config controls execution behavior.
type Config struct {
	Mode           models.TradeMode
	SharesPerTrade int
	Retry          utils.RetryConfig
	SubmitTimeout  time.Duration
}

// DefaultConfig returns paper-mode execution defaults.
func DefaultConfig() Config {
	retry := utils.DefaultRetryConfig()
	retry.Retryable = errors.IsTransient
	return Config{
		Mode:           models.ModePaper,
		SharesPerTrade: 1,
		Retry:          retry,
		SubmitTimeout:  30 * time.Second,
	}
}

// Governor executes signals as orders. Exactly one order record exists per
// signal ID, regardless of retries or repeated Execute calls; the broker is
// never contacted for a signal that already has a live record.
type Governor struct {
	cfg    Config
	store  OrderStore
	broker broker.OrderBroker
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGovernor creates an execution governor.
func NewGovernor(cfg Config, store OrderStore, orderBroker broker.OrderBroker, logger zerolog.Logger) *Governor {
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = errors.IsTransient
	}
	if cfg.SharesPerTrade <= 0 {
		cfg.SharesPerTrade = 1
	}
	return &Governor{
		cfg:    cfg,
		store:  store,
		broker: orderBroker,
		logger: logger.With().Str("component", "execution").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (g *Governor) symbolLock(symbol string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[symbol] = lock
	}
	return lock
}

// Execute places an order for a signal and returns the resulting record.
//
// Dedupe comes first: an existing record for the signal ID is returned as-is
// unless it is FAILED, in which case execution is re-attempted on the same
// record. Paper mode fills immediately without touching the broker. Live mode
// submits with bounded exponential backoff on transient errors only; a
// permanent broker rejection or retry exhaustion marks the record FAILED and
// surfaces the error.
func (g *Governor) Execute(ctx context.Context, signal models.Signal) (*models.Order, error) {
	lock := g.symbolLock(signal.Symbol)
	lock.Lock()
	defer lock.Unlock()

	existing, err := g.store.GetOrderBySignalID(ctx, signal.ID)
	if err != nil && !errors.Is(err, errors.ErrDataNotFound) {
		return nil, errors.Wrapf(err, "looking up order for signal %s", signal.ID)
	}

	order := existing
	if order != nil && order.Status != models.OrderFailed {
		g.logger.Debug().
			Str("signal_id", signal.ID).
			Str("status", string(order.Status)).
			Msg("signal already has an order, skipping")
		return order, nil
	}
	if order == nil {
		now := time.Now().UTC()
		order = &models.Order{
			SignalID:  signal.ID,
			Symbol:    signal.Symbol,
			Side:      models.OrderSide(signal.Kind),
			Quantity:  g.cfg.SharesPerTrade,
			Price:     signal.TriggerPrice,
			Mode:      g.cfg.Mode,
			Status:    models.OrderPending,
			PlacedAt:  now,
			UpdatedAt: now,
		}
	}

	if g.cfg.Mode == models.ModePaper {
		order.Status = models.OrderFilled
		order.AttemptCount++
		order.UpdatedAt = time.Now().UTC()
		if err := g.store.SaveOrder(ctx, order); err != nil {
			return nil, errors.Wrapf(err, "persisting paper fill for signal %s", signal.ID)
		}
		logging.LogOrder(g.logger, order.SignalID, order.Symbol, string(order.Side), string(order.Status), order.AttemptCount)
		return order, nil
	}

	return g.submitLive(ctx, order)
}

// submitLive drives the live submission path for one order record. The
// configured SubmitTimeout bounds each broker call, not the whole retry loop,
// so a slow attempt cannot eat the budget of the attempts after it.
func (g *Governor) submitLive(ctx context.Context, order *models.Order) (*models.Order, error) {
	ref, submitErr := utils.RetryWithResult(ctx, g.cfg.Retry, func() (string, error) {
		attemptCtx := ctx
		if g.cfg.SubmitTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, g.cfg.SubmitTimeout)
			defer cancel()
		}

		order.AttemptCount++
		order.Status = models.OrderPending
		order.UpdatedAt = time.Now().UTC()
		if err := g.store.SaveOrder(attemptCtx, order); err != nil {
			return "", errors.Wrap(err, "persisting attempt")
		}

		ref, err := g.broker.Submit(attemptCtx, order)
		if err != nil {
			order.LastError = err.Error()
			g.logger.Warn().
				Str("signal_id", order.SignalID).
				Int("attempt", order.AttemptCount).
				Err(err).
				Msg("order submission failed")
			return "", err
		}
		return ref, nil
	})

	now := time.Now().UTC()
	if submitErr != nil {
		order.Status = models.OrderFailed
		order.LastError = submitErr.Error()
		order.UpdatedAt = now
		if err := g.store.SaveOrder(ctx, order); err != nil {
			g.logger.Error().Err(err).Str("signal_id", order.SignalID).Msg("failed to persist FAILED order")
		}
		logging.LogOrder(g.logger, order.SignalID, order.Symbol, string(order.Side), string(order.Status), order.AttemptCount)
		return order, errors.NewOrderError(order.SignalID, order.Symbol, "submit", "attempts exhausted", submitErr)
	}

	order.BrokerRef = ref
	order.Status = models.OrderSubmitted
	order.LastError = ""
	order.UpdatedAt = now
	if err := g.store.SaveOrder(ctx, order); err != nil {
		return nil, errors.Wrapf(err, "persisting SUBMITTED order for signal %s", order.SignalID)
	}
	logging.LogOrder(g.logger, order.SignalID, order.Symbol, string(order.Side), string(order.Status), order.AttemptCount)
	return order, nil
}

// ExecuteAll executes each signal in turn. Failures are collected, not fatal,
// so one rejected order cannot stop the remainder of the pass.
func (g *Governor) ExecuteAll(ctx context.Context, signals []models.Signal) ([]models.Order, []error) {
	var orders []models.Order
	var errs []error
	for _, sig := range signals {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			return orders, errs
		}
		order, err := g.Execute(ctx, sig)
		if err != nil {
			errs = append(errs, err)
		}
		if order != nil {
			orders = append(orders, *order)
		}
	}
	return orders, errs
}

// Reconcile polls the broker for every SUBMITTED order and applies terminal
// statuses. A broker answer that is not terminal never downgrades the record;
// SUBMITTED stays SUBMITTED until the broker says otherwise.
func (g *Governor) Reconcile(ctx context.Context) error {
	submitted, err := g.store.GetOrdersByStatus(ctx, models.OrderSubmitted)
	if err != nil {
		return errors.Wrap(err, "loading submitted orders")
	}

	for i := range submitted {
		order := &submitted[i]
		if order.BrokerRef == "" {
			continue
		}

		status, err := g.broker.GetStatus(ctx, order.BrokerRef)
		if err != nil {
			g.logger.Warn().
				Str("signal_id", order.SignalID).
				Str("broker_ref", order.BrokerRef).
				Err(err).
				Msg("reconciliation status check failed")
			continue
		}

		if !status.Terminal() || status == order.Status {
			continue
		}

		order.Status = status
		order.UpdatedAt = time.Now().UTC()
		if err := g.store.SaveOrder(ctx, order); err != nil {
			g.logger.Error().Err(err).Str("signal_id", order.SignalID).Msg("failed to persist reconciled status")
			continue
		}
		g.logger.Info().
			Str("signal_id", order.SignalID).
			Str("broker_ref", order.BrokerRef).
			Str("status", string(status)).
			Msg("order reconciled")
	}

	return nil
}
