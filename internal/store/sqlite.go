package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"algo-trader/internal/errors"
	"algo-trader/internal/models"
)

// maxPortfolioHistory bounds the portfolio_history table; older rows are
// trimmed on insert.
const maxPortfolioHistory = 500

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Bars table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, timestamp)
	);

	-- Crossover state per symbol; survives restart
	CREATE TABLE IF NOT EXISTS cross_state (
		symbol TEXT PRIMARY KEY,
		relation TEXT NOT NULL,
		last_evaluated DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Orders keyed by signal ID; the primary key is what makes
	-- duplicate submission for the same signal impossible
	CREATE TABLE IF NOT EXISTS orders (
		signal_id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		broker_ref TEXT,
		last_error TEXT,
		placed_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Schedule slots track the last day each slot fired
	CREATE TABLE IF NOT EXISTS schedule_slots (
		slot TEXT PRIMARY KEY,
		last_fired DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Portfolio value history
	CREATE TABLE IF NOT EXISTS portfolio_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		total_value REAL NOT NULL
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_bars_symbol_timeframe ON bars(symbol, timeframe);
	CREATE INDEX IF NOT EXISTS idx_bars_timestamp ON bars(timestamp);
	CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_portfolio_timestamp ON portfolio_history(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Bars Methods
// ============================================================================

// SaveBars saves bars to the database.
func (s *SQLiteStore) SaveBars(ctx context.Context, symbol, timeframe string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, symbol, timeframe, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBars retrieves bars from the database ordered by timestamp.
func (s *SQLiteStore) GetBars(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timeframe = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, symbol, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	return bars, nil
}

// ============================================================================
// Crossover State Methods
// ============================================================================

// SaveCrossState upserts the crossover state for a symbol.
func (s *SQLiteStore) SaveCrossState(ctx context.Context, state models.CrossState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cross_state (symbol, relation, last_evaluated, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(symbol) DO UPDATE SET
			relation = excluded.relation,
			last_evaluated = excluded.last_evaluated,
			updated_at = CURRENT_TIMESTAMP
	`, state.Symbol, string(state.Relation), state.LastEvaluated)
	if err != nil {
		return fmt.Errorf("failed to save cross state: %w", err)
	}
	return nil
}

// GetCrossState returns the crossover state for a symbol, or ErrDataNotFound
// if the symbol has never been evaluated.
func (s *SQLiteStore) GetCrossState(ctx context.Context, symbol string) (*models.CrossState, error) {
	var state models.CrossState
	var relation string
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, relation, last_evaluated FROM cross_state WHERE symbol = ?
	`, symbol).Scan(&state.Symbol, &relation, &state.LastEvaluated)
	if err == sql.ErrNoRows {
		return nil, errors.ErrDataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cross state: %w", err)
	}
	state.Relation = models.CrossRelation(relation)
	return &state, nil
}

// GetAllCrossStates returns every tracked symbol's crossover state.
func (s *SQLiteStore) GetAllCrossStates(ctx context.Context) ([]models.CrossState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, relation, last_evaluated FROM cross_state ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cross states: %w", err)
	}
	defer rows.Close()

	var states []models.CrossState
	for rows.Next() {
		var state models.CrossState
		var relation string
		if err := rows.Scan(&state.Symbol, &relation, &state.LastEvaluated); err != nil {
			return nil, fmt.Errorf("failed to scan cross state: %w", err)
		}
		state.Relation = models.CrossRelation(relation)
		states = append(states, state)
	}

	return states, rows.Err()
}

// ============================================================================
// Orders Methods
// ============================================================================

// SaveOrder upserts an order record. The signal ID primary key guarantees a
// single record per signal regardless of how many attempts were made.
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (signal_id, symbol, side, quantity, price, mode, status,
			attempt_count, broker_ref, last_error, placed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(signal_id) DO UPDATE SET
			status = excluded.status,
			attempt_count = excluded.attempt_count,
			broker_ref = excluded.broker_ref,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, order.SignalID, order.Symbol, string(order.Side), order.Quantity, order.Price,
		string(order.Mode), string(order.Status), order.AttemptCount, order.BrokerRef,
		order.LastError, order.PlacedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// GetOrderBySignalID returns the order for a signal, or ErrDataNotFound.
func (s *SQLiteStore) GetOrderBySignalID(ctx context.Context, signalID string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT signal_id, symbol, side, quantity, price, mode, status,
			attempt_count, broker_ref, last_error, placed_at, updated_at
		FROM orders WHERE signal_id = ?
	`, signalID)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, errors.ErrDataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetOrdersByStatus returns all orders currently in the given status.
func (s *SQLiteStore) GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_id, symbol, side, quantity, price, mode, status,
			attempt_count, broker_ref, last_error, placed_at, updated_at
		FROM orders WHERE status = ? ORDER BY placed_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// GetOrders returns orders placed within the given time range.
func (s *SQLiteStore) GetOrders(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_id, symbol, side, quantity, price, mode, status,
			attempt_count, broker_ref, last_error, placed_at, updated_at
		FROM orders WHERE placed_at >= ? AND placed_at <= ? ORDER BY placed_at ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var side, mode, status string
	var brokerRef, lastError sql.NullString
	err := row.Scan(&order.SignalID, &order.Symbol, &side, &order.Quantity,
		&order.Price, &mode, &status, &order.AttemptCount, &brokerRef,
		&lastError, &order.PlacedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.Side = models.OrderSide(side)
	order.Mode = models.TradeMode(mode)
	order.Status = models.OrderStatus(status)
	order.BrokerRef = brokerRef.String
	order.LastError = lastError.String
	return &order, nil
}

func collectOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// ============================================================================
// Schedule Slot Methods
// ============================================================================

// GetLastFired returns the last time a slot fired; the zero time if never.
func (s *SQLiteStore) GetLastFired(ctx context.Context, slot string) (time.Time, error) {
	var lastFired time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT last_fired FROM schedule_slots WHERE slot = ?
	`, slot).Scan(&lastFired)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last fired: %w", err)
	}
	return lastFired, nil
}

// SetLastFired records that a slot fired at the given time.
func (s *SQLiteStore) SetLastFired(ctx context.Context, slot string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_slots (slot, last_fired, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET
			last_fired = excluded.last_fired,
			updated_at = CURRENT_TIMESTAMP
	`, slot, t)
	if err != nil {
		return fmt.Errorf("failed to set last fired: %w", err)
	}
	return nil
}

// ============================================================================
// Portfolio History Methods
// ============================================================================

// RecordPortfolioValue appends a portfolio value observation and trims the
// table to the most recent maxPortfolioHistory rows.
func (s *SQLiteStore) RecordPortfolioValue(ctx context.Context, t time.Time, value float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO portfolio_history (timestamp, total_value) VALUES (?, ?)
	`, t, value); err != nil {
		return fmt.Errorf("failed to record portfolio value: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM portfolio_history WHERE id NOT IN (
			SELECT id FROM portfolio_history ORDER BY timestamp DESC LIMIT ?
		)
	`, maxPortfolioHistory); err != nil {
		return fmt.Errorf("failed to trim portfolio history: %w", err)
	}

	return tx.Commit()
}

// GetPortfolioHistory returns the most recent portfolio observations, oldest
// first.
func (s *SQLiteStore) GetPortfolioHistory(ctx context.Context, limit int) ([]PortfolioSnapshot, error) {
	if limit <= 0 {
		limit = maxPortfolioHistory
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, total_value FROM (
			SELECT timestamp, total_value FROM portfolio_history
			ORDER BY timestamp DESC LIMIT ?
		) ORDER BY timestamp ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio history: %w", err)
	}
	defer rows.Close()

	var history []PortfolioSnapshot
	for rows.Next() {
		var snap PortfolioSnapshot
		if err := rows.Scan(&snap.Timestamp, &snap.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio snapshot: %w", err)
		}
		history = append(history, snap)
	}

	return history, rows.Err()
}
