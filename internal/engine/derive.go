// Package engine implements the execution-to-trade consolidation engine.
//
// A Trade is always fully re-derivable from its linked executions: Derive
// is the single pure derivation path shared by insert, edit and delete,
// and Consume is the stateful procedure that decides whether a new
// execution opens, continues, closes or flips a position.
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/brokerage"
	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/pkg/utils"
)

// DefaultPricePrecision is the significant-digit context applied to
// average prices. Configurable because the original records were produced
// under a 7-significant-digit decimal context.
const DefaultPricePrecision = 7

// Engine derives trades from executions.
type Engine struct {
	precision int32
	fees      brokerage.Calculator
}

// New creates an engine with the given price precision (significant
// digits) and fee calculator.
func New(precision int32, fees brokerage.Calculator) *Engine {
	if precision <= 0 {
		precision = DefaultPricePrecision
	}
	return &Engine{precision: precision, fees: fees}
}

// Derive computes the trade described by an ordered, non-empty list of
// executions. Quantities must already have any link overrides applied.
//
// The side of the first execution fixes the trade's side. Executions on
// that side form the entry group; the rest form the exit group. If the
// exit group over-fills the entry group, the surplus belongs to a new
// trade opened by the flip (handled by Consume); the last exit execution
// is truncated by the surplus before the exit average is computed.
//
// The returned trade has no identity; the caller assigns one on insert or
// keeps the existing one on update.
func (e *Engine) Derive(executions []models.Execution) (models.Trade, error) {
	if len(executions) == 0 {
		return models.Trade{}, apperrors.NewInvariantError("derive", "empty execution list")
	}

	first := executions[0]
	side := models.TradeSideOf(first.Side)

	var entries, exits []models.Execution
	for _, exec := range executions {
		if exec.Side == first.Side {
			entries = append(entries, exec)
		} else {
			exits = append(exits, exec)
		}
	}

	entryQuantity := sumQuantity(entries)
	exitQuantity := sumQuantity(exits)
	extra := exitQuantity.Sub(entryQuantity)

	if extra.Sign() > 0 {
		// The surplus opens the flip trade; only the closing portion of
		// the last exit counts towards this trade's exit average.
		last := exits[len(exits)-1]
		last.Quantity = last.Quantity.Sub(extra)
		exits[len(exits)-1] = last
		exitQuantity = entryQuantity
	}

	closedQuantity := decimal.Min(entryQuantity, exitQuantity)
	isClosed := extra.Sign() >= 0

	trade := models.Trade{
		Broker:         first.Broker,
		Instrument:     first.Instrument,
		Ticker:         first.Ticker,
		Quantity:       entryQuantity,
		ClosedQuantity: closedQuantity,
		Lots:           sumLots(entries),
		Side:           side,
		AverageEntry:   e.averagePrice(entries),
		AverageExit:    e.averagePrice(exits),
		EntryTimestamp: first.Timestamp,
		PnL:            decimal.Zero,
		Fees:           decimal.Zero,
		NetPnL:         decimal.Zero,
		IsClosed:       isClosed,
	}

	if len(exits) > 0 {
		exitTS := exits[len(exits)-1].Timestamp
		trade.ExitTimestamp = &exitTS

		result := e.fees.Compute(trade.Broker, trade.Instrument,
			trade.AverageEntry, trade.AverageExit, closedQuantity, side)
		trade.PnL = result.PnL
		trade.Fees = result.TotalCharges
		trade.NetPnL = result.NetPnL
	}

	return trade, nil
}

func (e *Engine) averagePrice(group []models.Execution) decimal.Decimal {
	prices := make([]decimal.Decimal, len(group))
	quantities := make([]decimal.Decimal, len(group))
	for i, exec := range group {
		prices[i] = exec.Price
		quantities[i] = exec.Quantity
	}
	return utils.WeightedAverage(prices, quantities, e.precision)
}

func sumQuantity(group []models.Execution) decimal.Decimal {
	total := decimal.Zero
	for _, exec := range group {
		total = total.Add(exec.Quantity)
	}
	return total
}

// sumLots totals the lot counts of the entry group. A zero sum collapses
// to nil, matching records that never carried lots.
func sumLots(entries []models.Execution) *int64 {
	var total int64
	for _, exec := range entries {
		if exec.Lots != nil {
			total += *exec.Lots
		}
	}
	if total == 0 {
		return nil
	}
	return &total
}
