package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/brokerage"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/engine"
	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "record.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	eng := engine.New(engine.DefaultPricePrecision, brokerage.New())
	return New(Config{
		Store:          st,
		Engine:         eng,
		Logger:         zerolog.Nop(),
		AttachmentsDir: filepath.Join(t.TempDir(), "attachments"),
	})
}

func buyParams(ticker, qty, price string, at time.Time) ExecutionParams {
	return ExecutionParams{
		Broker:     models.BrokerPaper,
		Instrument: models.InstrumentEquity,
		Ticker:     ticker,
		Quantity:   decimal.RequireFromString(qty),
		Side:       models.ExecutionBuy,
		Price:      decimal.RequireFromString(price),
		Timestamp:  at,
	}
}

func sellParams(ticker, qty, price string, at time.Time) ExecutionParams {
	p := buyParams(ticker, qty, price, at)
	p.Side = models.ExecutionSell
	return p
}

func allTrades(t *testing.T, j *Journal) []models.Trade {
	t.Helper()
	trades, err := j.store.ListTrades(context.Background(), store.TradeFilter{Sort: store.TradeSortEntryAsc})
	if err != nil {
		t.Fatalf("Failed to list trades: %v", err)
	}
	return trades
}

var testStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func TestNewExecutionOpensTrade(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	id, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero execution id")
	}

	trades := allTrades(t, j)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	trade := trades[0]
	if trade.Side != models.TradeLong {
		t.Errorf("expected LONG, got %s", trade.Side)
	}
	if trade.IsClosed {
		t.Error("expected open trade")
	}
	if !trade.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected quantity 10, got %s", trade.Quantity)
	}
}

func TestScaleIncontinuesOpenTrade(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart)); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "5", "106", testStart.Add(time.Minute))); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	trades := allTrades(t, j)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].Quantity.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected quantity 15, got %s", trades[0].Quantity)
	}
	if !trades[0].AverageEntry.Equal(decimal.NewFromInt(102)) {
		t.Errorf("expected average entry 102, got %s", trades[0].AverageEntry)
	}
}

func TestExactCloseThenNewTrade(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart)); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if _, err := j.NewExecution(ctx, sellParams("RELIANCE", "10", "105", testStart.Add(time.Minute))); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	trades := allTrades(t, j)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].IsClosed {
		t.Error("expected closed trade")
	}
	// Paper trades carry no charges, so net equals gross.
	if !trades[0].NetPnL.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected net pnl 50, got %s", trades[0].NetPnL)
	}

	// The next buy opens a fresh trade.
	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "3", "104", testStart.Add(2*time.Minute))); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	trades = allTrades(t, j)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[1].IsClosed {
		t.Error("expected second trade open")
	}
}

func TestPositionFlip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart)); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	sellID, err := j.NewExecution(ctx, sellParams("RELIANCE", "15", "120", testStart.Add(time.Minute)))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	trades := allTrades(t, j)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades after flip, got %d", len(trades))
	}

	long, short := trades[0], trades[1]
	if long.Side != models.TradeLong || short.Side != models.TradeShort {
		t.Fatalf("expected LONG then SHORT, got %s then %s", long.Side, short.Side)
	}

	if !long.IsClosed {
		t.Error("expected original trade closed")
	}
	if !long.ClosedQuantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected closed quantity 10, got %s", long.ClosedQuantity)
	}
	if !long.AverageExit.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected average exit 120, got %s", long.AverageExit)
	}

	if short.IsClosed {
		t.Error("expected flip trade open")
	}
	if !short.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected flip quantity 5, got %s", short.Quantity)
	}
	if !short.AverageEntry.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected flip average entry 120, got %s", short.AverageEntry)
	}

	// The single sell execution is linked to both trades with override
	// quantities 10 and 5.
	longExecs, err := j.Executions(ctx, long.ID)
	if err != nil {
		t.Fatalf("Executions failed: %v", err)
	}
	shortExecs, err := j.Executions(ctx, short.ID)
	if err != nil {
		t.Fatalf("Executions failed: %v", err)
	}
	if len(longExecs) != 2 || len(shortExecs) != 1 {
		t.Fatalf("expected 2 and 1 linked executions, got %d and %d", len(longExecs), len(shortExecs))
	}
	if longExecs[1].ID != sellID || shortExecs[0].ID != sellID {
		t.Error("expected the same sell execution linked to both trades")
	}
	if !longExecs[1].Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected closing override 10, got %s", longExecs[1].Quantity)
	}
	if !shortExecs[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected opening override 5, got %s", shortExecs[0].Quantity)
	}
}

func TestOpenTradesPerTickerIndependent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart)); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if _, err := j.NewExecution(ctx, buyParams("TCS", "5", "4000", testStart.Add(time.Second))); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	trades := allTrades(t, j)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
}

func TestNewExecutionNormalizesInput(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	at := testStart.Add(300 * time.Millisecond)
	id, err := j.NewExecution(ctx, buyParams("RELIANCE", "10.500", "100.2500", at))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	exec, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (models.Execution, error) {
		return tx.GetExecution(id)
	})
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}

	if exec.Quantity.String() != "10.5" {
		t.Errorf("expected quantity 10.5, got %s", exec.Quantity)
	}
	if exec.Price.String() != "100.25" {
		t.Errorf("expected price 100.25, got %s", exec.Price)
	}
	if !exec.Timestamp.Equal(testStart) {
		t.Errorf("expected timestamp truncated to %s, got %s", testStart, exec.Timestamp)
	}
}

func TestNewExecutionRejectsInvalidInput(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	params := buyParams("RELIANCE", "10", "100", testStart)
	params.Quantity = decimal.Zero
	if _, err := j.NewExecution(ctx, params); err == nil {
		t.Error("expected zero quantity to be rejected")
	}

	params = buyParams("", "10", "100", testStart)
	if _, err := j.NewExecution(ctx, params); err == nil {
		t.Error("expected empty ticker to be rejected")
	}

	params = buyParams("RELIANCE", "10", "100", testStart)
	params.Side = "HOLD"
	if _, err := j.NewExecution(ctx, params); err == nil {
		t.Error("expected unknown side to be rejected")
	}
}

func TestEditExecutionRebuildsTrade(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	id, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	if err := j.EditExecution(ctx, id, buyParams("RELIANCE", "10", "110", testStart)); err != nil {
		t.Fatalf("EditExecution failed: %v", err)
	}

	trades := allTrades(t, j)
	if !trades[0].AverageEntry.Equal(decimal.NewFromInt(110)) {
		t.Errorf("expected average entry 110 after edit, got %s", trades[0].AverageEntry)
	}
}

func TestEditLockedExecutionRefused(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	id, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if err := j.LockExecutions(ctx, []models.ExecutionID{id}); err != nil {
		t.Fatalf("LockExecutions failed: %v", err)
	}

	err = j.EditExecution(ctx, id, buyParams("RELIANCE", "10", "110", testStart))
	if !apperrors.Is(err, apperrors.ErrExecutionLocked) {
		t.Fatalf("expected ErrExecutionLocked, got %v", err)
	}

	trades := allTrades(t, j)
	if !trades[0].AverageEntry.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected trade unchanged at 100, got %s", trades[0].AverageEntry)
	}
}

func TestDeleteOnlyExecutionDeletesTrade(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	id, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	if err := j.DeleteExecutions(ctx, []models.ExecutionID{id}); err != nil {
		t.Fatalf("DeleteExecutions failed: %v", err)
	}

	if trades := allTrades(t, j); len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
}

func TestDeleteOneOfSeveralRebuilds(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart)); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	second, err := j.NewExecution(ctx, buyParams("RELIANCE", "5", "106", testStart.Add(time.Minute)))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	if err := j.DeleteExecutions(ctx, []models.ExecutionID{second}); err != nil {
		t.Fatalf("DeleteExecutions failed: %v", err)
	}

	trades := allTrades(t, j)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected quantity back to 10, got %s", trades[0].Quantity)
	}
	if !trades[0].AverageEntry.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected average entry back to 100, got %s", trades[0].AverageEntry)
	}
}

func TestBatchDeleteAtomicOnLock(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	first, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	second, err := j.NewExecution(ctx, buyParams("RELIANCE", "5", "106", testStart.Add(time.Minute)))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if err := j.LockExecutions(ctx, []models.ExecutionID{second}); err != nil {
		t.Fatalf("LockExecutions failed: %v", err)
	}

	err = j.DeleteExecutions(ctx, []models.ExecutionID{first, second})
	if !apperrors.Is(err, apperrors.ErrExecutionLocked) {
		t.Fatalf("expected ErrExecutionLocked, got %v", err)
	}

	// Nothing was deleted, the trade is untouched.
	trades := allTrades(t, j)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].Quantity.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected quantity still 15, got %s", trades[0].Quantity)
	}
}

func TestDeleteEmptyBatchRefused(t *testing.T) {
	j := newTestJournal(t)
	if err := j.DeleteExecutions(context.Background(), nil); !apperrors.Is(err, apperrors.ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestLockHasNoTradeSideEffects(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	id, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart))
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	before := allTrades(t, j)[0]

	if err := j.LockExecutions(ctx, []models.ExecutionID{id}); err != nil {
		t.Fatalf("LockExecutions failed: %v", err)
	}

	after := allTrades(t, j)[0]
	if !before.Quantity.Equal(after.Quantity) || !before.AverageEntry.Equal(after.AverageEntry) {
		t.Error("lock must not change the derived trade")
	}

	// A locked execution still participates: closing still works.
	if _, err := j.NewExecution(ctx, sellParams("RELIANCE", "10", "105", testStart.Add(time.Minute))); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if !allTrades(t, j)[0].IsClosed {
		t.Error("expected trade closed by sell against locked entry")
	}
}

func TestOnTradesUpdatedCallback(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "record.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	calls := 0
	j := New(Config{
		Store:  st,
		Engine: engine.New(engine.DefaultPricePrecision, brokerage.New()),
		Logger: zerolog.Nop(),
		OnTradesUpdated: func(ctx context.Context) error {
			calls++
			return nil
		},
	})

	ctx := context.Background()
	if _, err := j.NewExecution(ctx, buyParams("RELIANCE", "10", "100", testStart)); err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 callback call, got %d", calls)
	}

	id, _ := store.TransactionWithResult(ctx, st, func(tx *store.Tx) (models.ExecutionID, error) {
		execs, err := tx.ExecutionsForTrade(allTrades(t, j)[0].ID)
		if err != nil {
			return 0, err
		}
		return execs[0].ID, nil
	})
	if err := j.EditExecution(ctx, id, buyParams("RELIANCE", "10", "101", testStart)); err != nil {
		t.Fatalf("EditExecution failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 callback calls, got %d", calls)
	}
}
