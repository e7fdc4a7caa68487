package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an aggregate derived from the executions linked to it. It is
// never edited directly; the consolidation engine recomputes it whenever a
// linked execution is added, edited or deleted.
type Trade struct {
	ID             TradeID
	Broker         Broker
	Instrument     Instrument
	Ticker         string
	Quantity       decimal.Decimal // entry-side total
	ClosedQuantity decimal.Decimal
	Lots           *int64
	Side           TradeSide
	AverageEntry   decimal.Decimal
	AverageExit    decimal.Decimal
	EntryTimestamp time.Time
	ExitTimestamp  *time.Time
	PnL            decimal.Decimal
	Fees           decimal.Decimal
	NetPnL         decimal.Decimal
	IsClosed       bool
}

// OpenQuantity returns the portion of the position not yet offset.
func (t Trade) OpenQuantity() decimal.Decimal {
	return t.Quantity.Sub(t.ClosedQuantity)
}

// TradeStop is a stop-loss price point attached to a trade.
type TradeStop struct {
	ID        int64
	TradeID   TradeID
	Price     decimal.Decimal
	IsPrimary bool
}

// TradeTarget is a profit-target price point attached to a trade.
type TradeTarget struct {
	ID        int64
	TradeID   TradeID
	Price     decimal.Decimal
	IsPrimary bool
}

// TradeNote is a free-text note attached to a trade.
type TradeNote struct {
	ID       int64
	TradeID  TradeID
	Text     string
	Markdown bool
	AddedAt  time.Time
	EditedAt *time.Time
}

// Tag is a globally named label. Trades reference tags many-to-many.
type Tag struct {
	ID   int64
	Name string
}

// AttachmentFile is a content-addressed stored file. Identical content is
// stored once and shared across trades.
type AttachmentFile struct {
	Checksum string // SHA-1 hex of the content
	Name     string
	Size     int64
	AddedAt  time.Time
}

// TradeAttachment links a trade to an attachment file.
type TradeAttachment struct {
	ID       int64
	TradeID  TradeID
	Checksum string
	Title    string
}

// TradeExcursions is a cached maximum favorable/adverse excursion profile
// for a trade. It is derived data: invalidated whenever the owning trade's
// quantity or price profile could have changed, and lazily recomputed.
type TradeExcursions struct {
	TradeID         TradeID
	TradeMFEPrice   decimal.Decimal
	TradeMFEPnL     decimal.Decimal
	TradeMAEPrice   decimal.Decimal
	TradeMAEPnL     decimal.Decimal
	SessionMFEPrice decimal.Decimal
	SessionMFEPnL   decimal.Decimal
	SessionMAEPrice decimal.Decimal
	SessionMAEPnL   decimal.Decimal
	ComputedAt      time.Time
}

// Review is a free-text write-up referencing a set of trades.
type Review struct {
	ID        int64
	Title     string
	Text      string
	TradeIDs  []TradeID
	CreatedAt time.Time
	UpdatedAt time.Time
}
