package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAmount coerces free-form amount text into a fixed-point value with
// two decimals.
//
// Every character other than digits and '.' is dropped, except a '-' seen
// before the first digit, which keeps the amount negative. The longest
// numeric prefix of what remains is parsed, so "1.2.3" reads as 1.2 and
// "¥ 1,299.00" as 1299. Text with no digits normalizes to 0.00.
//
// Examples:
//
//	NormalizeAmount("199.99")   -> 199.99
//	NormalizeAmount("¥88.5")    -> 88.50
//	NormalizeAmount("-¥12.345") -> -12.35
//	NormalizeAmount("abc")      -> 0.00
func NormalizeAmount(raw string) decimal.Decimal {
	var b strings.Builder
	negative := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = true
		}
	}

	prefix := numericPrefix(b.String())
	if prefix == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d.Round(2)
}

// NormalizeAmountFloat rounds a numeric amount to two decimals. NaN and
// infinities normalize to 0.00.
func NormalizeAmountFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(2)
}

// FormatAmount renders an amount with exactly two decimals, e.g. "288.49".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// numericPrefix returns the longest leading "digits[.digits]" run of s in a
// form decimal.NewFromString accepts, or "" when it holds no digit.
func numericPrefix(s string) string {
	end := 0
	seenDot := false
	digits := 0
	for end < len(s) {
		c := s[end]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else {
			digits++
		}
		end++
	}
	if digits == 0 {
		return ""
	}
	p := strings.TrimSuffix(s[:end], ".")
	if strings.HasPrefix(p, ".") {
		p = "0" + p
	}
	return p
}

// RawAmount is an amount as submitted by a client or read from a legacy
// source: either a number or text that may carry currency symbols.
type RawAmount string

// AmountFromFloat wraps a numeric amount.
func AmountFromFloat(v float64) RawAmount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return RawAmount(strconv.FormatFloat(v, 'f', -1, 64))
}

// AmountFromDecimal wraps an already fixed-point amount.
func AmountFromDecimal(d decimal.Decimal) RawAmount {
	return RawAmount(d.String())
}

// Normalize applies NormalizeAmount.
func (a RawAmount) Normalize() decimal.Decimal {
	return NormalizeAmount(string(a))
}

// HasDigits reports whether the amount carries any digit at all.
func (a RawAmount) HasDigits() bool {
	return strings.ContainsAny(string(a), "0123456789")
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(s)
		return nil
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
		}
		*a = AmountFromDecimal(d)
		return nil
	}
}
