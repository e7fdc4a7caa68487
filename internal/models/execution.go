package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionID identifies a stored execution.
type ExecutionID int64

// TradeID identifies a derived trade.
type TradeID int64

// Execution is a single recorded fill. Quantity is always a positive
// magnitude; direction is carried by Side. Timestamp is truncated to whole
// seconds before storage. A locked execution cannot be edited or deleted.
type Execution struct {
	ID         ExecutionID
	Broker     Broker
	Instrument Instrument
	Ticker     string
	Quantity   decimal.Decimal
	Lots       *int64
	Side       ExecutionSide
	Price      decimal.Decimal
	Timestamp  time.Time
	Locked     bool
}

// TradeExecution links an execution to a trade. OverrideQuantity is set
// only for the two links adjacent to a position flip, where a single
// execution is split between the trade it closes and the trade it opens.
type TradeExecution struct {
	TradeID          TradeID
	ExecutionID      ExecutionID
	OverrideQuantity *decimal.Decimal
}

// Effective returns the execution with the link's override quantity
// applied, if any. Derivation always operates on effective quantities.
func (l TradeExecution) Effective(exec Execution) Execution {
	if l.OverrideQuantity != nil {
		exec.Quantity = *l.OverrideQuantity
	}
	return exec
}
