package journal

import (
	"context"

	"github.com/shopspring/decimal"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/stream"
	"github.com/SaurabhSandav/TradingCompanion-sub000/pkg/utils"
)

// validateStopPrice enforces that a stop sits on the losing side of the
// average entry: strictly below for longs, strictly above for shorts.
func validateStopPrice(trade models.Trade, price decimal.Decimal) error {
	switch trade.Side {
	case models.TradeLong:
		if price.GreaterThanOrEqual(trade.AverageEntry) {
			return apperrors.NewValidationError("price", price, "stop for a long trade must be below average entry")
		}
	case models.TradeShort:
		if price.LessThanOrEqual(trade.AverageEntry) {
			return apperrors.NewValidationError("price", price, "stop for a short trade must be above average entry")
		}
	}
	return nil
}

// validateTargetPrice enforces that a target sits on the winning side of
// the average entry, mirror of validateStopPrice.
func validateTargetPrice(trade models.Trade, price decimal.Decimal) error {
	switch trade.Side {
	case models.TradeLong:
		if price.LessThanOrEqual(trade.AverageEntry) {
			return apperrors.NewValidationError("price", price, "target for a long trade must be above average entry")
		}
	case models.TradeShort:
		if price.GreaterThanOrEqual(trade.AverageEntry) {
			return apperrors.NewValidationError("price", price, "target for a short trade must be below average entry")
		}
	}
	return nil
}

// AddStop attaches a stop level to a trade after validating it against
// the trade's side and average entry.
func (j *Journal) AddStop(ctx context.Context, tradeID models.TradeID, price decimal.Decimal, isPrimary bool) (int64, error) {
	price = utils.StripTrailingZeros(price)

	id, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (int64, error) {
		trade, err := tx.GetTrade(tradeID)
		if err != nil {
			return 0, err
		}
		if err := validateStopPrice(trade, price); err != nil {
			return 0, err
		}
		return tx.InsertStop(models.TradeStop{
			TradeID:   tradeID,
			Price:     price,
			IsPrimary: isPrimary,
		})
	})
	if err != nil {
		return 0, err
	}

	j.store.Hub().Publish(stream.TopicStops)
	return id, nil
}

// RemoveStop deletes a stop level. Excursion caches are unaffected since
// stops do not enter the excursion computation.
func (j *Journal) RemoveStop(ctx context.Context, id int64) error {
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.DeleteStop(id)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicStops)
	return nil
}

// Stops lists a trade's stop levels.
func (j *Journal) Stops(ctx context.Context, tradeID models.TradeID) ([]models.TradeStop, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) ([]models.TradeStop, error) {
		return tx.StopsForTrade(tradeID)
	})
}

// AddTarget attaches a target level to a trade and invalidates the
// trade's excursion cache, since targets feed excursion reporting.
func (j *Journal) AddTarget(ctx context.Context, tradeID models.TradeID, price decimal.Decimal, isPrimary bool) (int64, error) {
	price = utils.StripTrailingZeros(price)

	id, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (int64, error) {
		trade, err := tx.GetTrade(tradeID)
		if err != nil {
			return 0, err
		}
		if err := validateTargetPrice(trade, price); err != nil {
			return 0, err
		}
		id, err := tx.InsertTarget(models.TradeTarget{
			TradeID:   tradeID,
			Price:     price,
			IsPrimary: isPrimary,
		})
		if err != nil {
			return 0, err
		}
		return id, tx.DeleteExcursions(tradeID)
	})
	if err != nil {
		return 0, err
	}

	j.store.Hub().Publish(stream.TopicTargets, stream.TopicExcursions)
	return id, nil
}

// RemoveTarget deletes a target level and invalidates the owning trade's
// excursion cache.
func (j *Journal) RemoveTarget(ctx context.Context, id int64) error {
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		tradeID, err := tx.DeleteTarget(id)
		if err != nil {
			return err
		}
		return tx.DeleteExcursions(tradeID)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicTargets, stream.TopicExcursions)
	return nil
}

// Targets lists a trade's target levels.
func (j *Journal) Targets(ctx context.Context, tradeID models.TradeID) ([]models.TradeTarget, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) ([]models.TradeTarget, error) {
		return tx.TargetsForTrade(tradeID)
	})
}
