package store

import (
	"context"
	"fmt"
	"time"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

// The read layer: filtered, sorted, paged snapshots for display. Readers
// wanting live results subscribe to the store's hub and re-query on
// change events.

// TradeSort orders trade listings.
type TradeSort string

const (
	TradeSortEntryDesc TradeSort = "entry_desc"
	TradeSortEntryAsc  TradeSort = "entry_asc"
	TradeSortNetPnL    TradeSort = "net_pnl"
)

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Broker     models.Broker
	Instrument models.Instrument
	Ticker     string
	Side       models.TradeSide
	Closed     *bool
	From       time.Time
	To         time.Time
	Tag        string
	Sort       TradeSort
	Limit      int
	Offset     int
}

// ExecutionFilter represents filters for querying executions.
type ExecutionFilter struct {
	Broker     models.Broker
	Instrument models.Instrument
	Ticker     string
	Side       models.ExecutionSide
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// TradeCounts summarizes the trade table for the host application.
type TradeCounts struct {
	Total int
	Open  int
}

// ListTrades retrieves trades matching the filter.
func (s *Store) ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades t WHERE 1=1`
	args := []interface{}{}

	if filter.Broker != "" {
		query += " AND broker = ?"
		args = append(args, filter.Broker)
	}
	if filter.Instrument != "" {
		query += " AND instrument = ?"
		args = append(args, filter.Instrument)
	}
	if filter.Ticker != "" {
		query += " AND ticker = ?"
		args = append(args, filter.Ticker)
	}
	if filter.Side != "" {
		query += " AND side = ?"
		args = append(args, filter.Side)
	}
	if filter.Closed != nil {
		closed := 0
		if *filter.Closed {
			closed = 1
		}
		query += " AND is_closed = ?"
		args = append(args, closed)
	}
	if !filter.From.IsZero() {
		query += " AND entry_timestamp >= ?"
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		query += " AND entry_timestamp <= ?"
		args = append(args, filter.To.Unix())
	}
	if filter.Tag != "" {
		query += ` AND id IN (
			SELECT tt.trade_id FROM trade_tags tt JOIN tags tg ON tg.id = tt.tag_id WHERE tg.name = ?)`
		args = append(args, filter.Tag)
	}

	switch filter.Sort {
	case TradeSortEntryAsc:
		query += " ORDER BY entry_timestamp ASC, id ASC"
	case TradeSortNetPnL:
		query += " ORDER BY CAST(net_pnl AS REAL) DESC, id ASC"
	default:
		query += " ORDER BY entry_timestamp DESC, id DESC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// ListExecutions retrieves executions matching the filter, newest first.
func (s *Store) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE 1=1`
	args := []interface{}{}

	if filter.Broker != "" {
		query += " AND broker = ?"
		args = append(args, filter.Broker)
	}
	if filter.Instrument != "" {
		query += " AND instrument = ?"
		args = append(args, filter.Instrument)
	}
	if filter.Ticker != "" {
		query += " AND ticker = ?"
		args = append(args, filter.Ticker)
	}
	if filter.Side != "" {
		query += " AND side = ?"
		args = append(args, filter.Side)
	}
	if !filter.From.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.To.Unix())
	}

	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var executions []models.Execution
	for rows.Next() {
		exec, err := scanExecution(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, exec)
	}
	return executions, rows.Err()
}

// CountTrades returns total and open trade counts. The host's
// onTradesUpdated callback typically refreshes these.
func (s *Store) CountTrades(ctx context.Context) (TradeCounts, error) {
	var counts TradeCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN is_closed = 0 THEN 1 ELSE 0 END)
		FROM trades
	`).Scan(&counts.Total, &nullInt{&counts.Open})
	if err != nil {
		return TradeCounts{}, fmt.Errorf("failed to count trades: %w", err)
	}
	return counts, nil
}

// nullInt scans a nullable integer aggregate into an int, defaulting to 0.
type nullInt struct {
	dest *int
}

func (n *nullInt) Scan(value interface{}) error {
	if value == nil {
		*n.dest = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		*n.dest = int(v)
	case int:
		*n.dest = v
	default:
		return fmt.Errorf("unexpected aggregate type %T", value)
	}
	return nil
}
