// Package brokerage computes fees and PNL for the closed part of a trade.
//
// Fee schedules are broker-specific and owned by this package alone; the
// consolidation engine treats the calculator as a pure collaborator.
package brokerage

import (
	"github.com/shopspring/decimal"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

// Calculator computes gross PNL, total charges and net PNL for the closed
// quantity of a trade. Implementations must be pure.
type Calculator interface {
	Compute(broker models.Broker, instrument models.Instrument,
		entry, exit, quantity decimal.Decimal, side models.TradeSide) models.BrokerageResult
}

// GrossPnL returns the direction-adjusted gross PNL for a closed quantity.
func GrossPnL(entry, exit, quantity decimal.Decimal, side models.TradeSide) decimal.Decimal {
	diff := exit.Sub(entry)
	if side == models.TradeShort {
		diff = entry.Sub(exit)
	}
	return diff.Mul(quantity)
}

// Schedule is a discount-broker style fee schedule: a flat fee per closed
// round trip capped at a percentage of turnover, plus statutory charges
// quoted as a fraction of turnover.
type Schedule struct {
	FlatFee       decimal.Decimal // per side, capped by PercentCap
	PercentCap    decimal.Decimal // fraction of one side's turnover
	StatutoryRate decimal.Decimal // fraction of total turnover (STT, stamp, exchange)
}

// Calc applies per-broker, per-instrument fee schedules.
type Calc struct {
	schedules map[models.Broker]map[models.Instrument]Schedule
}

// New returns a calculator loaded with the built-in schedules.
func New() *Calc {
	zerodhaEquity := Schedule{
		FlatFee:       decimal.NewFromInt(20),
		PercentCap:    decimal.RequireFromString("0.0003"),
		StatutoryRate: decimal.RequireFromString("0.00035"),
	}
	zerodhaDeriv := Schedule{
		FlatFee:       decimal.NewFromInt(20),
		PercentCap:    decimal.RequireFromString("0.0003"),
		StatutoryRate: decimal.RequireFromString("0.0005"),
	}
	finvasia := Schedule{
		FlatFee:       decimal.Zero,
		PercentCap:    decimal.Zero,
		StatutoryRate: decimal.RequireFromString("0.00035"),
	}

	return &Calc{
		schedules: map[models.Broker]map[models.Instrument]Schedule{
			models.BrokerZerodha: {
				models.InstrumentEquity: zerodhaEquity,
				models.InstrumentFuture: zerodhaDeriv,
				models.InstrumentOption: zerodhaDeriv,
			},
			models.BrokerFinvasia: {
				models.InstrumentEquity: finvasia,
				models.InstrumentFuture: finvasia,
				models.InstrumentOption: finvasia,
			},
			// Paper trades carry no charges.
			models.BrokerPaper: {},
		},
	}
}

// Compute implements Calculator.
func (c *Calc) Compute(broker models.Broker, instrument models.Instrument,
	entry, exit, quantity decimal.Decimal, side models.TradeSide) models.BrokerageResult {

	pnl := GrossPnL(entry, exit, quantity, side)

	schedule, ok := c.schedules[broker][instrument]
	if !ok {
		return models.BrokerageResult{PnL: pnl, TotalCharges: decimal.Zero, NetPnL: pnl}
	}

	entryTurnover := entry.Mul(quantity)
	exitTurnover := exit.Mul(quantity)

	charges := sideFee(schedule, entryTurnover).
		Add(sideFee(schedule, exitTurnover)).
		Add(entryTurnover.Add(exitTurnover).Mul(schedule.StatutoryRate)).
		Round(2)

	return models.BrokerageResult{
		PnL:          pnl,
		TotalCharges: charges,
		NetPnL:       pnl.Sub(charges),
	}
}

func sideFee(schedule Schedule, turnover decimal.Decimal) decimal.Decimal {
	if schedule.FlatFee.IsZero() {
		return decimal.Zero
	}
	capped := turnover.Mul(schedule.PercentCap)
	if capped.LessThan(schedule.FlatFee) {
		return capped
	}
	return schedule.FlatFee
}
