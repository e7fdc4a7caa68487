// Package models provides domain models for the trading journal.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Broker identifies the brokerage an execution was filled through.
type Broker string

const (
	BrokerZerodha  Broker = "ZERODHA"
	BrokerFinvasia Broker = "FINVASIA"
	BrokerPaper    Broker = "PAPER"
)

// Valid reports whether the broker is a known value.
func (b Broker) Valid() bool {
	switch b {
	case BrokerZerodha, BrokerFinvasia, BrokerPaper:
		return true
	}
	return false
}

// Instrument represents the kind of instrument traded.
type Instrument string

const (
	InstrumentEquity Instrument = "EQUITY"
	InstrumentFuture Instrument = "FUTURE"
	InstrumentOption Instrument = "OPTION"
)

// Valid reports whether the instrument is a known value.
func (i Instrument) Valid() bool {
	switch i {
	case InstrumentEquity, InstrumentFuture, InstrumentOption:
		return true
	}
	return false
}

// ExecutionSide represents the side of a single fill.
type ExecutionSide string

const (
	ExecutionBuy  ExecutionSide = "BUY"
	ExecutionSell ExecutionSide = "SELL"
)

// Opposite returns the other side.
func (s ExecutionSide) Opposite() ExecutionSide {
	if s == ExecutionBuy {
		return ExecutionSell
	}
	return ExecutionBuy
}

// Valid reports whether the side is a known value.
func (s ExecutionSide) Valid() bool {
	return s == ExecutionBuy || s == ExecutionSell
}

// TradeSide represents the direction of a derived trade. It is fixed by the
// side of the trade's first execution and never changes afterwards.
type TradeSide string

const (
	TradeLong  TradeSide = "LONG"
	TradeShort TradeSide = "SHORT"
)

// EntrySide returns the execution side that adds to a position of this side.
func (s TradeSide) EntrySide() ExecutionSide {
	if s == TradeLong {
		return ExecutionBuy
	}
	return ExecutionSell
}

// TradeSideOf returns the trade side opened by an execution side.
func TradeSideOf(s ExecutionSide) TradeSide {
	if s == ExecutionBuy {
		return TradeLong
	}
	return TradeShort
}

// Candle represents OHLCV data for a time period. Used by the excursion
// refresh job to compute MFE/MAE over a trade's holding window.
type Candle struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// BrokerageResult is the outcome of a fee calculation for the closed part
// of a trade.
type BrokerageResult struct {
	PnL          decimal.Decimal
	TotalCharges decimal.Decimal
	NetPnL       decimal.Decimal
}
