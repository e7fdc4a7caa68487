// Package journal is the execution ledger and orchestration layer of the
// trading record. It owns the executions table, drives the consolidation
// engine inside storage transactions, and manages the supplemental data
// attached to derived trades.
package journal

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/engine"
	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/stream"
	"github.com/SaurabhSandav/TradingCompanion-sub000/pkg/utils"
)

// Config holds the journal's collaborators.
type Config struct {
	Store          *store.Store
	Engine         *engine.Engine
	Logger         zerolog.Logger
	AttachmentsDir string

	// OnTradesUpdated is invoked after any execution mutation commits,
	// outside the transaction, so the host can refresh aggregate counts.
	OnTradesUpdated func(ctx context.Context) error
}

// Journal coordinates execution mutations and supplemental data for one
// trading profile's record.
type Journal struct {
	store          *store.Store
	engine         *engine.Engine
	log            zerolog.Logger
	attachmentsDir string
	onTradesUpdated func(ctx context.Context) error
}

// New creates a journal over an open store.
func New(cfg Config) *Journal {
	return &Journal{
		store:           cfg.Store,
		engine:          cfg.Engine,
		log:             cfg.Logger,
		attachmentsDir:  cfg.AttachmentsDir,
		onTradesUpdated: cfg.OnTradesUpdated,
	}
}

// Store exposes the underlying store for the read layer and live queries.
func (j *Journal) Store() *store.Store {
	return j.store
}

// ExecutionParams describes a fill to record or the new state of an
// edited one.
type ExecutionParams struct {
	Broker     models.Broker
	Instrument models.Instrument
	Ticker     string
	Quantity   decimal.Decimal
	Lots       *int64
	Side       models.ExecutionSide
	Price      decimal.Decimal
	Timestamp  time.Time
	Locked     bool
}

func (p ExecutionParams) validate() error {
	if !p.Broker.Valid() {
		return apperrors.NewValidationError("broker", p.Broker, "unknown broker")
	}
	if !p.Instrument.Valid() {
		return apperrors.NewValidationError("instrument", p.Instrument, "unknown instrument")
	}
	if p.Ticker == "" {
		return apperrors.NewValidationError("ticker", p.Ticker, "must not be empty")
	}
	if !p.Side.Valid() {
		return apperrors.NewValidationError("side", p.Side, "unknown side")
	}
	if p.Quantity.Sign() <= 0 {
		return apperrors.NewValidationError("quantity", p.Quantity, "must be positive")
	}
	if p.Price.Sign() < 0 {
		return apperrors.NewValidationError("price", p.Price, "must not be negative")
	}
	if p.Timestamp.IsZero() {
		return apperrors.NewValidationError("timestamp", p.Timestamp, "must be set")
	}
	return nil
}

// normalized strips insignificant trailing digits from quantity and price
// and truncates the timestamp to whole seconds.
func (p ExecutionParams) normalized() ExecutionParams {
	p.Quantity = utils.StripTrailingZeros(p.Quantity)
	p.Price = utils.StripTrailingZeros(p.Price)
	p.Timestamp = utils.TruncateToSecond(p.Timestamp)
	return p
}

// NewExecution records a fill and consolidates it into the trade state,
// all inside one transaction. Returns the new execution's identity.
func (j *Journal) NewExecution(ctx context.Context, params ExecutionParams) (models.ExecutionID, error) {
	if err := params.validate(); err != nil {
		return 0, err
	}
	params = params.normalized()

	id, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (models.ExecutionID, error) {
		exec := models.Execution{
			Broker:     params.Broker,
			Instrument: params.Instrument,
			Ticker:     params.Ticker,
			Quantity:   params.Quantity,
			Lots:       params.Lots,
			Side:       params.Side,
			Price:      params.Price,
			Timestamp:  params.Timestamp,
			Locked:     params.Locked,
		}
		execID, err := tx.InsertExecution(exec)
		if err != nil {
			return 0, err
		}
		exec.ID = execID
		if err := j.engine.Consume(ctx, tx, exec); err != nil {
			return 0, err
		}
		return execID, nil
	})
	if err != nil {
		return 0, err
	}

	j.log.Info().
		Int64("execution_id", int64(id)).
		Str("ticker", params.Ticker).
		Str("side", string(params.Side)).
		Str("quantity", params.Quantity.String()).
		Str("price", params.Price.String()).
		Msg("Execution recorded")

	j.tradesChanged(ctx)
	return id, nil
}

// EditExecution rewrites an execution in place and re-derives every trade
// it participates in. Fails with ErrExecutionLocked if it is locked.
func (j *Journal) EditExecution(ctx context.Context, id models.ExecutionID, params ExecutionParams) error {
	if err := params.validate(); err != nil {
		return err
	}
	params = params.normalized()

	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		current, err := tx.GetExecution(id)
		if err != nil {
			return err
		}
		if current.Locked {
			return apperrors.Wrapf(apperrors.ErrExecutionLocked, "execution %d", id)
		}

		updated := models.Execution{
			ID:         id,
			Broker:     params.Broker,
			Instrument: params.Instrument,
			Ticker:     params.Ticker,
			Quantity:   params.Quantity,
			Lots:       params.Lots,
			Side:       params.Side,
			Price:      params.Price,
			Timestamp:  params.Timestamp,
		}
		if err := tx.UpdateExecution(updated); err != nil {
			return err
		}

		tradeIDs, err := tx.TradesForExecution(id)
		if err != nil {
			return err
		}
		for _, tradeID := range tradeIDs {
			if err := j.engine.Rebuild(ctx, tx, tradeID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	j.log.Info().Int64("execution_id", int64(id)).Msg("Execution edited")
	j.tradesChanged(ctx)
	return nil
}

// DeleteExecutions removes a batch of executions atomically. The whole
// batch is refused if any target is locked. Trades left without a single
// linked execution are deleted along with their supplemental data;
// attachment files no longer referenced by any trade are swept from disk.
func (j *Journal) DeleteExecutions(ctx context.Context, ids []models.ExecutionID) error {
	if len(ids) == 0 {
		return apperrors.ErrEmptyBatch
	}

	var orphanedFiles []string
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		// Lock check up front so the batch is all-or-nothing.
		for _, id := range ids {
			exec, err := tx.GetExecution(id)
			if err != nil {
				return err
			}
			if exec.Locked {
				return apperrors.Wrapf(apperrors.ErrExecutionLocked, "execution %d", id)
			}
		}

		for _, id := range ids {
			tradeIDs, err := tx.TradesForExecution(id)
			if err != nil {
				return err
			}
			if err := tx.DeleteExecution(id); err != nil {
				return err
			}
			for _, tradeID := range tradeIDs {
				remaining, err := tx.LinkCount(tradeID)
				if err != nil {
					return err
				}
				if remaining == 0 {
					if err := tx.DeleteTrade(tradeID); err != nil {
						return err
					}
					continue
				}
				if err := j.engine.Rebuild(ctx, tx, tradeID); err != nil {
					return err
				}
			}
		}

		// Trade deletion cascades attachment links; sweep file rows that
		// lost their last reference.
		orphans, err := tx.OrphanedAttachmentFiles()
		if err != nil {
			return err
		}
		for _, checksum := range orphans {
			if err := tx.DeleteAttachmentFile(checksum); err != nil {
				return err
			}
		}
		orphanedFiles = orphans
		return nil
	})
	if err != nil {
		return err
	}

	j.removeAttachmentFiles(orphanedFiles)
	j.log.Info().Int("count", len(ids)).Msg("Executions deleted")
	j.tradesChanged(ctx)
	return nil
}

// LockExecutions flips the one-way locked flag on a batch of executions.
// Locking has no effect on derived trades.
func (j *Journal) LockExecutions(ctx context.Context, ids []models.ExecutionID) error {
	if len(ids) == 0 {
		return apperrors.ErrEmptyBatch
	}
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		for _, id := range ids {
			if err := tx.LockExecution(id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	j.log.Info().Int("count", len(ids)).Msg("Executions locked")
	j.store.Hub().Publish(stream.TopicExecutions)
	return nil
}

// Executions returns the effective executions linked to a trade, in link
// order with overrides applied.
func (j *Journal) Executions(ctx context.Context, tradeID models.TradeID) ([]models.Execution, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) ([]models.Execution, error) {
		return tx.ExecutionsForTrade(tradeID)
	})
}

// Trade returns a single trade by id.
func (j *Journal) Trade(ctx context.Context, id models.TradeID) (models.Trade, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (models.Trade, error) {
		return tx.GetTrade(id)
	})
}

// tradesChanged publishes change events and runs the host callback.
// Callback failures are logged, not propagated: the mutation committed.
func (j *Journal) tradesChanged(ctx context.Context) {
	j.store.Hub().Publish(stream.TopicExecutions, stream.TopicTrades, stream.TopicExcursions)
	if j.onTradesUpdated != nil {
		if err := j.onTradesUpdated(ctx); err != nil {
			j.log.Warn().Err(err).Msg("onTradesUpdated callback failed")
		}
	}
}
