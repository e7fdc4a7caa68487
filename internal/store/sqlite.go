// Package store provides the SQLite storage port for a trading record.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/stream"
)

// Store is a file-backed record store for one trading profile. All
// mutations run inside Transaction/TransactionWithResult; atomicity of
// those transactions is the sole recovery mechanism for partial failure.
type Store struct {
	db  *sql.DB
	hub *stream.Hub
}

// Open opens (creating if necessary) the store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// between our own transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, hub: stream.NewHub()}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates all required tables and indexes.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		broker TEXT NOT NULL,
		instrument TEXT NOT NULL,
		ticker TEXT NOT NULL,
		quantity TEXT NOT NULL,
		lots INTEGER,
		side TEXT NOT NULL,
		price TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		locked INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		broker TEXT NOT NULL,
		instrument TEXT NOT NULL,
		ticker TEXT NOT NULL,
		quantity TEXT NOT NULL,
		closed_quantity TEXT NOT NULL,
		lots INTEGER,
		side TEXT NOT NULL,
		average_entry TEXT NOT NULL,
		average_exit TEXT NOT NULL,
		entry_timestamp INTEGER NOT NULL,
		exit_timestamp INTEGER,
		pnl TEXT NOT NULL,
		fees TEXT NOT NULL,
		net_pnl TEXT NOT NULL,
		is_closed INTEGER NOT NULL DEFAULT 0
	);

	-- Join table. override_quantity is set only for the two links adjacent
	-- to a position flip.
	CREATE TABLE IF NOT EXISTS trade_executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		execution_id INTEGER NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
		override_quantity TEXT,
		UNIQUE(trade_id, execution_id)
	);

	CREATE TABLE IF NOT EXISTS trade_stops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		price TEXT NOT NULL,
		is_primary INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS trade_targets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		price TEXT NOT NULL,
		is_primary INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS trade_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		markdown INTEGER NOT NULL DEFAULT 0,
		added_at INTEGER NOT NULL,
		edited_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS trade_tags (
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (trade_id, tag_id)
	);

	-- Content-addressed attachment files, shared across trades.
	CREATE TABLE IF NOT EXISTS attachment_files (
		checksum TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		added_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trade_attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		checksum TEXT NOT NULL REFERENCES attachment_files(checksum),
		title TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS trade_excursions (
		trade_id INTEGER PRIMARY KEY REFERENCES trades(id) ON DELETE CASCADE,
		trade_mfe_price TEXT NOT NULL,
		trade_mfe_pnl TEXT NOT NULL,
		trade_mae_price TEXT NOT NULL,
		trade_mae_pnl TEXT NOT NULL,
		session_mfe_price TEXT NOT NULL,
		session_mfe_pnl TEXT NOT NULL,
		session_mae_price TEXT NOT NULL,
		session_mae_pnl TEXT NOT NULL,
		computed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS review_trades (
		review_id INTEGER NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
		trade_id INTEGER NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		PRIMARY KEY (review_id, trade_id)
	);

	CREATE INDEX IF NOT EXISTS idx_executions_key ON executions(broker, instrument, ticker);
	CREATE INDEX IF NOT EXISTS idx_executions_timestamp ON executions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_trades_key ON trades(broker, instrument, ticker);
	CREATE INDEX IF NOT EXISTS idx_trades_open ON trades(broker, instrument, ticker, is_closed);
	CREATE INDEX IF NOT EXISTS idx_trades_entry ON trades(entry_timestamp);
	CREATE INDEX IF NOT EXISTS idx_links_trade ON trade_executions(trade_id);
	CREATE INDEX IF NOT EXISTS idx_links_execution ON trade_executions(execution_id);
	CREATE INDEX IF NOT EXISTS idx_attachments_checksum ON trade_attachments(checksum);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Hub exposes the change-notification hub for live-query subscribers.
func (s *Store) Hub() *stream.Hub {
	return s.hub
}

// Close closes the store and its notification hub.
func (s *Store) Close() error {
	s.hub.Close()
	return s.db.Close()
}

// Tx is a transaction over the store, carrying the typed entity
// primitives. It must not be used after the enclosing Transaction call
// returns.
type Tx struct {
	tx *sql.Tx
}

// Transaction runs fn atomically. If fn returns an error the transaction
// rolls back and the error is returned unchanged.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TransactionWithResult runs fn atomically and returns its value. On error
// the transaction rolls back and the zero value is returned.
func TransactionWithResult[T any](ctx context.Context, s *Store, fn func(tx *Tx) (T, error)) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := fn(&Tx{tx: tx})
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// lastInsertID recovers the generated identity of the immediately
// preceding insert on this transaction.
func (t *Tx) lastInsertID(result sql.Result, entity string) (int64, error) {
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s insert id: %w", entity, err)
	}
	return id, nil
}
