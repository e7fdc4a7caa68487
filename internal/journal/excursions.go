package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/stream"
	"github.com/SaurabhSandav/TradingCompanion-sub000/pkg/utils"
)

// Excursions returns the cached excursion profile for a trade, or nil
// when the cache is cold and needs recomputing from candle data.
func (j *Journal) Excursions(ctx context.Context, tradeID models.TradeID) (*models.TradeExcursions, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (*models.TradeExcursions, error) {
		return tx.GetExcursions(tradeID)
	})
}

// InvalidateExcursions drops a trade's cached excursion profile. A cold
// cache is not an error.
func (j *Journal) InvalidateExcursions(ctx context.Context, tradeID models.TradeID) error {
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.DeleteExcursions(tradeID)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicExcursions)
	return nil
}

// extremes tracks the best and worst prices seen over a candle window.
type extremes struct {
	high decimal.Decimal
	low  decimal.Decimal
	set  bool
}

func (e *extremes) observe(c models.Candle) {
	if !e.set {
		e.high = c.High
		e.low = c.Low
		e.set = true
		return
	}
	if c.High.GreaterThan(e.high) {
		e.high = c.High
	}
	if c.Low.LessThan(e.low) {
		e.low = c.Low
	}
}

// excursionPnL is the signed profit at a given price for the trade's
// full entry quantity.
func excursionPnL(trade models.Trade, price decimal.Decimal) decimal.Decimal {
	diff := price.Sub(trade.AverageEntry)
	if trade.Side == models.TradeShort {
		diff = diff.Neg()
	}
	return diff.Mul(trade.Quantity)
}

// RefreshExcursions recomputes a trade's maximum favorable and adverse
// excursions from session candle data and caches the result.
//
// Two windows are profiled: the trade window, candles between entry and
// exit, and the session window, every candle supplied. For a long trade
// the favorable extreme is the highest high and the adverse extreme the
// lowest low; shorts mirror that.
func (j *Journal) RefreshExcursions(ctx context.Context, tradeID models.TradeID, candles []models.Candle) (*models.TradeExcursions, error) {
	if len(candles) == 0 {
		return nil, apperrors.NewValidationError("candles", nil, "must not be empty")
	}

	exc, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (*models.TradeExcursions, error) {
		trade, err := tx.GetTrade(tradeID)
		if err != nil {
			return nil, err
		}

		var session, window extremes
		for _, c := range candles {
			session.observe(c)
			if c.Timestamp.Before(trade.EntryTimestamp) {
				continue
			}
			if trade.ExitTimestamp != nil && c.Timestamp.After(*trade.ExitTimestamp) {
				continue
			}
			window.observe(c)
		}
		if !window.set {
			// No candles overlap the trade; profile the trade window on
			// the session extremes so the cache is never half-filled.
			window = session
		}

		favWindow, advWindow := window.high, window.low
		favSession, advSession := session.high, session.low
		if trade.Side == models.TradeShort {
			favWindow, advWindow = window.low, window.high
			favSession, advSession = session.low, session.high
		}

		result := models.TradeExcursions{
			TradeID:         tradeID,
			TradeMFEPrice:   favWindow,
			TradeMFEPnL:     excursionPnL(trade, favWindow),
			TradeMAEPrice:   advWindow,
			TradeMAEPnL:     excursionPnL(trade, advWindow),
			SessionMFEPrice: favSession,
			SessionMFEPnL:   excursionPnL(trade, favSession),
			SessionMAEPrice: advSession,
			SessionMAEPnL:   excursionPnL(trade, advSession),
			ComputedAt:      utils.TruncateToSecond(time.Now()),
		}
		if err := tx.PutExcursions(result); err != nil {
			return nil, err
		}
		return &result, nil
	})
	if err != nil {
		return nil, err
	}

	j.store.Hub().Publish(stream.TopicExcursions)
	return exc, nil
}
