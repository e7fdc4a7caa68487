package brokerage

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGrossPnLDirection(t *testing.T) {
	long := GrossPnL(d("100"), d("110"), d("10"), models.TradeLong)
	if !long.Equal(d("100")) {
		t.Errorf("expected long pnl 100, got %s", long)
	}

	short := GrossPnL(d("100"), d("110"), d("10"), models.TradeShort)
	if !short.Equal(d("-100")) {
		t.Errorf("expected short pnl -100, got %s", short)
	}
}

func TestPaperTradesCarryNoCharges(t *testing.T) {
	result := New().Compute(models.BrokerPaper, models.InstrumentEquity,
		d("100"), d("110"), d("10"), models.TradeLong)

	if !result.TotalCharges.IsZero() {
		t.Errorf("expected zero charges, got %s", result.TotalCharges)
	}
	if !result.NetPnL.Equal(result.PnL) {
		t.Errorf("expected net pnl %s to equal gross, got %s", result.PnL, result.NetPnL)
	}
}

func TestZerodhaEquityCappedBelowFlatFee(t *testing.T) {
	// Turnover of 1000 per side keeps the percent cap (0.30) under the
	// flat 20 per side. Statutory charges on 2000 total turnover: 0.70.
	result := New().Compute(models.BrokerZerodha, models.InstrumentEquity,
		d("100"), d("100"), d("10"), models.TradeLong)

	if !result.TotalCharges.Equal(d("1.3")) {
		t.Errorf("expected charges 1.3, got %s", result.TotalCharges)
	}
	if !result.NetPnL.Equal(d("-1.3")) {
		t.Errorf("expected net pnl -1.3, got %s", result.NetPnL)
	}
}

func TestZerodhaEquityFlatFeeOnLargeTurnover(t *testing.T) {
	// Turnover of 1,000,000 per side: 0.03% is 300, so the flat 20
	// applies per side. Statutory charges: 2,000,000 * 0.00035 = 700.
	result := New().Compute(models.BrokerZerodha, models.InstrumentEquity,
		d("1000"), d("1000"), d("1000"), models.TradeLong)

	if !result.TotalCharges.Equal(d("740")) {
		t.Errorf("expected charges 740, got %s", result.TotalCharges)
	}
}

func TestFinvasiaFlatFeeIsZero(t *testing.T) {
	// Only statutory charges apply: 2000 * 0.00035 = 0.70.
	result := New().Compute(models.BrokerFinvasia, models.InstrumentEquity,
		d("100"), d("100"), d("10"), models.TradeLong)

	if !result.TotalCharges.Equal(d("0.7")) {
		t.Errorf("expected charges 0.7, got %s", result.TotalCharges)
	}
}

func TestChargesRoundedToPaise(t *testing.T) {
	result := New().Compute(models.BrokerFinvasia, models.InstrumentEquity,
		d("99.95"), d("100.05"), d("3"), models.TradeLong)

	if result.TotalCharges.Exponent() < -2 {
		t.Errorf("expected charges rounded to 2 places, got %s", result.TotalCharges)
	}
	if !result.NetPnL.Equal(result.PnL.Sub(result.TotalCharges)) {
		t.Errorf("net pnl should be gross minus charges, got %s", result.NetPnL)
	}
}
