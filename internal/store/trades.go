package store

import (
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

const tradeColumns = `id, broker, instrument, ticker, quantity, closed_quantity, lots, side,
	average_entry, average_exit, entry_timestamp, exit_timestamp, pnl, fees, net_pnl, is_closed`

func scanTrade(scan func(dest ...interface{}) error) (models.Trade, error) {
	var (
		trade       models.Trade
		quantity    string
		closedQty   string
		lots        sql.NullInt64
		avgEntry    string
		avgExit     string
		entryTS     int64
		exitTS      sql.NullInt64
		pnl, fees   string
		netPnL      string
		isClosed    int
	)
	err := scan(&trade.ID, &trade.Broker, &trade.Instrument, &trade.Ticker, &quantity, &closedQty,
		&lots, &trade.Side, &avgEntry, &avgExit, &entryTS, &exitTS, &pnl, &fees, &netPnL, &isClosed)
	if err != nil {
		return models.Trade{}, err
	}
	if trade.Quantity, err = parseDecimal(quantity, "quantity"); err != nil {
		return models.Trade{}, err
	}
	if trade.ClosedQuantity, err = parseDecimal(closedQty, "closed_quantity"); err != nil {
		return models.Trade{}, err
	}
	if trade.AverageEntry, err = parseDecimal(avgEntry, "average_entry"); err != nil {
		return models.Trade{}, err
	}
	if trade.AverageExit, err = parseDecimal(avgExit, "average_exit"); err != nil {
		return models.Trade{}, err
	}
	if trade.PnL, err = parseDecimal(pnl, "pnl"); err != nil {
		return models.Trade{}, err
	}
	if trade.Fees, err = parseDecimal(fees, "fees"); err != nil {
		return models.Trade{}, err
	}
	if trade.NetPnL, err = parseDecimal(netPnL, "net_pnl"); err != nil {
		return models.Trade{}, err
	}
	if lots.Valid {
		v := lots.Int64
		trade.Lots = &v
	}
	trade.EntryTimestamp = time.Unix(entryTS, 0).UTC()
	if exitTS.Valid {
		v := time.Unix(exitTS.Int64, 0).UTC()
		trade.ExitTimestamp = &v
	}
	trade.IsClosed = isClosed == 1
	return trade, nil
}

// InsertTrade inserts a derived trade and returns its generated id.
func (t *Tx) InsertTrade(trade models.Trade) (models.TradeID, error) {
	isClosed := 0
	if trade.IsClosed {
		isClosed = 1
	}
	result, err := t.tx.Exec(`
		INSERT INTO trades (broker, instrument, ticker, quantity, closed_quantity, lots, side,
			average_entry, average_exit, entry_timestamp, exit_timestamp, pnl, fees, net_pnl, is_closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.Broker, trade.Instrument, trade.Ticker, trade.Quantity.String(), trade.ClosedQuantity.String(),
		nullLots(trade.Lots), trade.Side, trade.AverageEntry.String(), trade.AverageExit.String(),
		trade.EntryTimestamp.Unix(), nullUnix(trade.ExitTimestamp),
		trade.PnL.String(), trade.Fees.String(), trade.NetPnL.String(), isClosed)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade: %w", err)
	}
	id, err := t.lastInsertID(result, "trade")
	return models.TradeID(id), err
}

// UpdateTrade rewrites a derived trade in place, keeping its identity.
func (t *Tx) UpdateTrade(trade models.Trade) error {
	isClosed := 0
	if trade.IsClosed {
		isClosed = 1
	}
	result, err := t.tx.Exec(`
		UPDATE trades
		SET broker = ?, instrument = ?, ticker = ?, quantity = ?, closed_quantity = ?, lots = ?, side = ?,
			average_entry = ?, average_exit = ?, entry_timestamp = ?, exit_timestamp = ?,
			pnl = ?, fees = ?, net_pnl = ?, is_closed = ?
		WHERE id = ?
	`, trade.Broker, trade.Instrument, trade.Ticker, trade.Quantity.String(), trade.ClosedQuantity.String(),
		nullLots(trade.Lots), trade.Side, trade.AverageEntry.String(), trade.AverageExit.String(),
		trade.EntryTimestamp.Unix(), nullUnix(trade.ExitTimestamp),
		trade.PnL.String(), trade.Fees.String(), trade.NetPnL.String(), isClosed, trade.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "trade %d", trade.ID)
	}
	return nil
}

// DeleteTrade removes a trade; links and supplemental rows cascade.
func (t *Tx) DeleteTrade(id models.TradeID) error {
	result, err := t.tx.Exec(`DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "trade %d", id)
	}
	return nil
}

// GetTrade returns a single trade by id.
func (t *Tx) GetTrade(id models.TradeID) (models.Trade, error) {
	row := t.tx.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	trade, err := scanTrade(row.Scan)
	if err == sql.ErrNoRows {
		return models.Trade{}, apperrors.Wrapf(apperrors.ErrNotFound, "trade %d", id)
	}
	if err != nil {
		return models.Trade{}, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

// OpenTrade returns the open trade for a (broker, instrument, ticker)
// triple, or nil if none exists. The consolidation engine preserves the
// invariant that at most one such trade is open at a time.
func (t *Tx) OpenTrade(broker models.Broker, instrument models.Instrument, ticker string) (*models.Trade, error) {
	row := t.tx.QueryRow(`
		SELECT `+tradeColumns+` FROM trades
		WHERE broker = ? AND instrument = ? AND ticker = ? AND is_closed = 0
		ORDER BY id DESC LIMIT 1
	`, broker, instrument, ticker)
	trade, err := scanTrade(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open trade: %w", err)
	}
	return &trade, nil
}
