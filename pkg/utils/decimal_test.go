package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStripTrailingZeros(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.500", "12.5"},
		{"12.000", "12"},
		{"100", "100"},
		{"0.0012300", "0.00123"},
		{"-5.250", "-5.25"},
		{"0.000", "0"},
	}

	for _, tt := range tests {
		got := StripTrailingZeros(d(tt.in))
		if got.String() != tt.want {
			t.Errorf("StripTrailingZeros(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRoundSignificant(t *testing.T) {
	tests := []struct {
		in   string
		sig  int32
		want string
	}{
		{"102.5", 7, "102.5"},
		{"101.33333333", 7, "101.3333"},
		{"123456789", 7, "123456800"},
		{"0.0012345678", 7, "0.001234568"},
		{"99.999999999", 7, "100"},
		{"-101.33333333", 7, "-101.3333"},
		{"0", 7, "0"},
	}

	for _, tt := range tests {
		got := RoundSignificant(d(tt.in), tt.sig)
		if got.String() != tt.want {
			t.Errorf("RoundSignificant(%s, %d) = %s, want %s", tt.in, tt.sig, got, tt.want)
		}
	}
}

func TestWeightedAverage(t *testing.T) {
	prices := []decimal.Decimal{d("100"), d("106")}
	quantities := []decimal.Decimal{d("10"), d("5")}

	avg := WeightedAverage(prices, quantities, 7)
	if !avg.Equal(d("102")) {
		t.Errorf("expected weighted average 102, got %s", avg)
	}
}

func TestWeightedAverageRepeatingFraction(t *testing.T) {
	// (100 + 101 + 103) / 3 rounds to 7 significant digits.
	prices := []decimal.Decimal{d("100"), d("101"), d("103")}
	quantities := []decimal.Decimal{d("1"), d("1"), d("1")}

	avg := WeightedAverage(prices, quantities, 7)
	if !avg.Equal(d("101.3333")) {
		t.Errorf("expected 101.3333, got %s", avg)
	}
}

func TestWeightedAverageZeroQuantity(t *testing.T) {
	avg := WeightedAverage([]decimal.Decimal{d("100")}, []decimal.Decimal{d("0")}, 7)
	if !avg.IsZero() {
		t.Errorf("expected zero, got %s", avg)
	}
}

func TestTruncateToSecond(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 30, 15, 300_000_000, time.UTC)
	got := TruncateToSecond(in)
	want := time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}
