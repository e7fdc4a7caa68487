package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

// Prices and quantities are stored as decimal strings; timestamps as unix
// seconds (the journal truncates to whole seconds before storage).

func parseDecimal(s, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s %q: %w", column, s, err)
	}
	return d, nil
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullLots(lots *int64) interface{} {
	if lots == nil {
		return nil
	}
	return *lots
}

func nullUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// InsertExecution inserts an execution row and returns the generated id.
func (t *Tx) InsertExecution(exec models.Execution) (models.ExecutionID, error) {
	locked := 0
	if exec.Locked {
		locked = 1
	}
	result, err := t.tx.Exec(`
		INSERT INTO executions (broker, instrument, ticker, quantity, lots, side, price, timestamp, locked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, exec.Broker, exec.Instrument, exec.Ticker, exec.Quantity.String(), nullLots(exec.Lots),
		exec.Side, exec.Price.String(), exec.Timestamp.Unix(), locked)
	if err != nil {
		return 0, fmt.Errorf("failed to insert execution: %w", err)
	}
	id, err := t.lastInsertID(result, "execution")
	return models.ExecutionID(id), err
}

// UpdateExecution rewrites an execution row in place. The locked flag is
// not touched here; use LockExecution.
func (t *Tx) UpdateExecution(exec models.Execution) error {
	result, err := t.tx.Exec(`
		UPDATE executions
		SET broker = ?, instrument = ?, ticker = ?, quantity = ?, lots = ?, side = ?, price = ?, timestamp = ?
		WHERE id = ?
	`, exec.Broker, exec.Instrument, exec.Ticker, exec.Quantity.String(), nullLots(exec.Lots),
		exec.Side, exec.Price.String(), exec.Timestamp.Unix(), exec.ID)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "execution %d", exec.ID)
	}
	return nil
}

// DeleteExecution removes an execution row; its trade links cascade.
func (t *Tx) DeleteExecution(id models.ExecutionID) error {
	result, err := t.tx.Exec(`DELETE FROM executions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete execution: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "execution %d", id)
	}
	return nil
}

// LockExecution flips the one-way locked flag.
func (t *Tx) LockExecution(id models.ExecutionID) error {
	result, err := t.tx.Exec(`UPDATE executions SET locked = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to lock execution: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "execution %d", id)
	}
	return nil
}

const executionColumns = `id, broker, instrument, ticker, quantity, lots, side, price, timestamp, locked`

func scanExecution(scan func(dest ...interface{}) error) (models.Execution, error) {
	var (
		exec     models.Execution
		quantity string
		price    string
		lots     sql.NullInt64
		ts       int64
		locked   int
	)
	err := scan(&exec.ID, &exec.Broker, &exec.Instrument, &exec.Ticker, &quantity, &lots,
		&exec.Side, &price, &ts, &locked)
	if err != nil {
		return models.Execution{}, err
	}
	if exec.Quantity, err = parseDecimal(quantity, "quantity"); err != nil {
		return models.Execution{}, err
	}
	if exec.Price, err = parseDecimal(price, "price"); err != nil {
		return models.Execution{}, err
	}
	if lots.Valid {
		v := lots.Int64
		exec.Lots = &v
	}
	exec.Timestamp = time.Unix(ts, 0).UTC()
	exec.Locked = locked == 1
	return exec, nil
}

// GetExecution returns a single execution by id.
func (t *Tx) GetExecution(id models.ExecutionID) (models.Execution, error) {
	row := t.tx.QueryRow(`SELECT `+executionColumns+` FROM executions WHERE id = ?`, id)
	exec, err := scanExecution(row.Scan)
	if err == sql.ErrNoRows {
		return models.Execution{}, apperrors.Wrapf(apperrors.ErrNotFound, "execution %d", id)
	}
	if err != nil {
		return models.Execution{}, fmt.Errorf("failed to get execution: %w", err)
	}
	return exec, nil
}

// LinkExecution attaches an execution to a trade, optionally with an
// override quantity for the flip case.
func (t *Tx) LinkExecution(tradeID models.TradeID, execID models.ExecutionID, override *decimal.Decimal) error {
	_, err := t.tx.Exec(`
		INSERT INTO trade_executions (trade_id, execution_id, override_quantity)
		VALUES (?, ?, ?)
	`, tradeID, execID, nullDecimal(override))
	if err != nil {
		return fmt.Errorf("failed to link execution %d to trade %d: %w", execID, tradeID, err)
	}
	return nil
}

// ExecutionsForTrade returns the trade's executions in link-insertion
// order, with override quantities already applied. This is the exact input
// the derivation step consumes.
func (t *Tx) ExecutionsForTrade(tradeID models.TradeID) ([]models.Execution, error) {
	rows, err := t.tx.Query(`
		SELECT e.`+executionColumnsAliased("e")+`, l.override_quantity
		FROM trade_executions l
		JOIN executions e ON e.id = l.execution_id
		WHERE l.trade_id = ?
		ORDER BY l.id ASC
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade executions: %w", err)
	}
	defer rows.Close()

	var executions []models.Execution
	for rows.Next() {
		var (
			exec     models.Execution
			quantity string
			price    string
			lots     sql.NullInt64
			ts       int64
			locked   int
			override sql.NullString
		)
		if err := rows.Scan(&exec.ID, &exec.Broker, &exec.Instrument, &exec.Ticker, &quantity,
			&lots, &exec.Side, &price, &ts, &locked, &override); err != nil {
			return nil, fmt.Errorf("failed to scan trade execution: %w", err)
		}
		if exec.Quantity, err = parseDecimal(quantity, "quantity"); err != nil {
			return nil, err
		}
		if exec.Price, err = parseDecimal(price, "price"); err != nil {
			return nil, err
		}
		if lots.Valid {
			v := lots.Int64
			exec.Lots = &v
		}
		exec.Timestamp = time.Unix(ts, 0).UTC()
		exec.Locked = locked == 1
		if override.Valid {
			ov, err := parseDecimal(override.String, "override_quantity")
			if err != nil {
				return nil, err
			}
			exec.Quantity = ov
		}
		executions = append(executions, exec)
	}
	return executions, rows.Err()
}

// TradesForExecution returns the ids of every trade an execution is linked
// to. Normally one, two around a position flip.
func (t *Tx) TradesForExecution(execID models.ExecutionID) ([]models.TradeID, error) {
	rows, err := t.tx.Query(`
		SELECT trade_id FROM trade_executions WHERE execution_id = ? ORDER BY id ASC
	`, execID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for execution: %w", err)
	}
	defer rows.Close()

	var ids []models.TradeID
	for rows.Next() {
		var id models.TradeID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trade id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LinkCount returns the number of executions still linked to a trade.
func (t *Tx) LinkCount(tradeID models.TradeID) (int, error) {
	var count int
	err := t.tx.QueryRow(`SELECT COUNT(*) FROM trade_executions WHERE trade_id = ?`, tradeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trade links: %w", err)
	}
	return count, nil
}

func executionColumnsAliased(alias string) string {
	return `id, ` + alias + `.broker, ` + alias + `.instrument, ` + alias + `.ticker, ` +
		alias + `.quantity, ` + alias + `.lots, ` + alias + `.side, ` + alias + `.price, ` +
		alias + `.timestamp, ` + alias + `.locked`
}
