package engine

import (
	"context"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
)

// Consume folds a newly inserted execution into the trade state. It must
// run inside the same transaction as the execution insert.
//
// Exactly one open trade may exist per (broker, instrument, ticker). If
// none does, the execution opens one. If one does, the execution either
// continues it, closes it, or over-closes it. Over-closing is the flip
// case: the surplus opens a second trade in the opposite direction and
// the single execution ends up linked to both trades with override
// quantities that sum to its full quantity.
func (e *Engine) Consume(ctx context.Context, tx *store.Tx, exec models.Execution) error {
	open, err := tx.OpenTrade(exec.Broker, exec.Instrument, exec.Ticker)
	if err != nil {
		return err
	}

	if open == nil {
		trade, err := e.Derive([]models.Execution{exec})
		if err != nil {
			return err
		}
		tradeID, err := tx.InsertTrade(trade)
		if err != nil {
			return err
		}
		return tx.LinkExecution(tradeID, exec.ID, nil)
	}

	// The new execution counts towards the closed quantity only when it
	// offsets the open position.
	adjustedClosed := open.ClosedQuantity
	if exec.Side != open.Side.EntrySide() {
		adjustedClosed = adjustedClosed.Add(exec.Quantity)
	}
	currentOpen := open.Quantity.Sub(adjustedClosed)

	if currentOpen.Sign() < 0 {
		// Flip: only the portion that closes the open trade is attributed
		// to it; the remainder opens a new trade in the other direction.
		closing := exec.Quantity.Add(currentOpen)
		if err := tx.LinkExecution(open.ID, exec.ID, &closing); err != nil {
			return err
		}
		if err := e.Rebuild(ctx, tx, open.ID); err != nil {
			return err
		}

		remainder := currentOpen.Neg()
		flipExec := exec
		flipExec.Quantity = remainder
		flipTrade, err := e.Derive([]models.Execution{flipExec})
		if err != nil {
			return err
		}
		flipID, err := tx.InsertTrade(flipTrade)
		if err != nil {
			return err
		}
		return tx.LinkExecution(flipID, exec.ID, &remainder)
	}

	if err := tx.LinkExecution(open.ID, exec.ID, nil); err != nil {
		return err
	}
	return e.Rebuild(ctx, tx, open.ID)
}

// Rebuild re-derives a trade from its full current execution set, fetched
// fresh from storage, and writes it back in place. The excursion cache is
// dropped unconditionally: it depends on the trade's price and quantity
// profile and is recomputed lazily by the refresh job.
//
// Inserts, edits and deletes all regenerate through this one path.
func (e *Engine) Rebuild(ctx context.Context, tx *store.Tx, tradeID models.TradeID) error {
	executions, err := tx.ExecutionsForTrade(tradeID)
	if err != nil {
		return err
	}
	if len(executions) == 0 {
		return apperrors.NewInvariantError("rebuild", "trade has no linked executions")
	}

	trade, err := e.Derive(executions)
	if err != nil {
		return err
	}
	trade.ID = tradeID
	if err := tx.UpdateTrade(trade); err != nil {
		return err
	}
	return tx.DeleteExcursions(tradeID)
}
