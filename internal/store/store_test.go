package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "record.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testExecution(ticker string, side models.ExecutionSide) models.Execution {
	return models.Execution{
		Broker:     models.BrokerPaper,
		Instrument: models.InstrumentEquity,
		Ticker:     ticker,
		Quantity:   decimal.NewFromInt(10),
		Side:       side,
		Price:      decimal.NewFromInt(100),
		Timestamp:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func testTrade(ticker string, closed bool) models.Trade {
	return models.Trade{
		Broker:         models.BrokerPaper,
		Instrument:     models.InstrumentEquity,
		Ticker:         ticker,
		Quantity:       decimal.NewFromInt(10),
		ClosedQuantity: decimal.Zero,
		Side:           models.TradeLong,
		AverageEntry:   decimal.NewFromInt(100),
		AverageExit:    decimal.Zero,
		EntryTimestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		PnL:            decimal.Zero,
		Fees:           decimal.Zero,
		NetPnL:         decimal.Zero,
		IsClosed:       closed,
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.InsertExecution(testExecution("RELIANCE", models.ExecutionBuy)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	executions, err := s.ListExecutions(ctx, ExecutionFilter{})
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(executions) != 0 {
		t.Fatalf("expected rollback to leave no rows, got %d", len(executions))
	}
}

func TestTransactionWithResultCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := TransactionWithResult(ctx, s, func(tx *Tx) (models.ExecutionID, error) {
		return tx.InsertExecution(testExecution("RELIANCE", models.ExecutionBuy))
	})
	if err != nil {
		t.Fatalf("TransactionWithResult failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected generated identity")
	}

	executions, _ := s.ListExecutions(ctx, ExecutionFilter{})
	if len(executions) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(executions))
	}
}

func TestOpenTradeLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.InsertTrade(testTrade("RELIANCE", true)); err != nil {
			return err
		}
		if _, err := tx.InsertTrade(testTrade("RELIANCE", false)); err != nil {
			return err
		}
		if _, err := tx.InsertTrade(testTrade("TCS", false)); err != nil {
			return err
		}

		open, err := tx.OpenTrade(models.BrokerPaper, models.InstrumentEquity, "RELIANCE")
		if err != nil {
			return err
		}
		if open == nil {
			t.Fatal("expected open trade for RELIANCE")
		}
		if open.IsClosed {
			t.Error("open-trade lookup returned a closed trade")
		}

		missing, err := tx.OpenTrade(models.BrokerZerodha, models.InstrumentEquity, "RELIANCE")
		if err != nil {
			return err
		}
		if missing != nil {
			t.Error("expected no open trade for a different broker")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
}

func TestGetExecutionNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Transaction(context.Background(), func(tx *Tx) error {
		_, err := tx.GetExecution(9999)
		return err
	})
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLinkOverrideApplied(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Tx) error {
		execID, err := tx.InsertExecution(testExecution("RELIANCE", models.ExecutionSell))
		if err != nil {
			return err
		}
		tradeID, err := tx.InsertTrade(testTrade("RELIANCE", false))
		if err != nil {
			return err
		}

		override := decimal.NewFromInt(4)
		if err := tx.LinkExecution(tradeID, execID, &override); err != nil {
			return err
		}

		execs, err := tx.ExecutionsForTrade(tradeID)
		if err != nil {
			return err
		}
		if len(execs) != 1 {
			t.Fatalf("expected 1 linked execution, got %d", len(execs))
		}
		if !execs[0].Quantity.Equal(override) {
			t.Errorf("expected override quantity 4, got %s", execs[0].Quantity)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
}

func TestListTradesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.InsertTrade(testTrade("RELIANCE", false)); err != nil {
			return err
		}
		closed := testTrade("TCS", true)
		closed.NetPnL = decimal.NewFromInt(500)
		_, err := tx.InsertTrade(closed)
		return err
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	open := false
	trades, err := s.ListTrades(ctx, TradeFilter{Closed: &open})
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	if len(trades) != 1 || trades[0].Ticker != "RELIANCE" {
		t.Fatalf("expected only the open RELIANCE trade, got %+v", trades)
	}

	counts, err := s.CountTrades(ctx)
	if err != nil {
		t.Fatalf("CountTrades failed: %v", err)
	}
	if counts.Total != 2 || counts.Open != 1 {
		t.Errorf("expected total 2 open 1, got %+v", counts)
	}
}
