// Package utils provides shared utility functions.
package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StripTrailingZeros removes insignificant trailing fractional digits, so
// "12.500" and "12.5" store identically.
func StripTrailingZeros(d decimal.Decimal) decimal.Decimal {
	s := d.String()
	if !strings.Contains(s, ".") {
		return d
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	out, err := decimal.NewFromString(s)
	if err != nil {
		return d
	}
	return out
}

// RoundSignificant rounds d to the given number of significant digits.
// Zero is returned unchanged; sig must be positive.
func RoundSignificant(d decimal.Decimal, sig int32) decimal.Decimal {
	if d.IsZero() || sig <= 0 {
		return d
	}
	// Number of digits left of the first significant digit's decimal point:
	// for 102.5 this is 3, for 0.0012 it is -2.
	coeff := strings.TrimLeft(d.Abs().Coefficient().String(), "0")
	intDigits := int32(len(coeff)) + d.Exponent()
	places := sig - intDigits
	return StripTrailingZeros(d.Round(places))
}

// WeightedAverage computes sum(price*qty)/sum(qty) rounded to sig
// significant digits. A zero total quantity yields zero.
func WeightedAverage(prices, quantities []decimal.Decimal, sig int32) decimal.Decimal {
	total := decimal.Zero
	weighted := decimal.Zero
	for i, p := range prices {
		total = total.Add(quantities[i])
		weighted = weighted.Add(p.Mul(quantities[i]))
	}
	if total.IsZero() {
		return decimal.Zero
	}
	// DivisionPrecision default (16) exceeds any supported significant-digit
	// setting, so dividing first and rounding after is exact enough.
	return RoundSignificant(weighted.Div(total), sig)
}

// TruncateToSecond discards sub-second precision from a timestamp.
func TruncateToSecond(t time.Time) time.Time {
	return t.Truncate(time.Second)
}
