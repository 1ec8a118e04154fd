package models

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitsExponent is the number of implied decimal places in a Money value
const MinorUnitsExponent = 2

// Money is a monetary amount held as an integer count of minor units (cents).
type Money int64

// Zero is the zero amount
const Zero Money = 0

// MaxAmount bounds any single parsed amount to 10,000,000,000,000.00. Sums of
// many bounded amounts still fit in an int64.
const MaxAmount Money = 1_000_000_000_000_000

// ErrAmountOutOfRange is returned for amounts whose magnitude exceeds MaxAmount
var ErrAmountOutOfRange = errors.New("monetary amount out of range")

var maxAmountDecimal = decimal.NewFromInt(int64(MaxAmount))

// NewMoney builds a Money value from major and minor units, e.g. NewMoney(12, 50) == 12.50
func NewMoney(major, minor int64) Money {
	if major < 0 {
		return Money(major*100 - minor)
	}
	return Money(major*100 + minor)
}

// Units returns a Money value for a whole number of currency units
func Units(n int64) Money {
	return Money(n * 100)
}

// ParseMoney parses a decimal string, rounding half away from zero to minor units
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid monetary amount %q: %w", s, err)
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("invalid monetary amount %q: %w", s, err)
	}
	return m, nil
}

// MoneyFromDecimal converts a decimal to Money, rounding to minor units.
// Magnitudes above MaxAmount fail with ErrAmountOutOfRange.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Shift(MinorUnitsExponent).Round(0)
	if minor.Abs().GreaterThan(maxAmountDecimal) {
		return 0, ErrAmountOutOfRange
	}
	return Money(minor.IntPart()), nil
}

// Decimal returns the value as a decimal in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnitsExponent)
}

// String formats the amount with two fractional digits
func (m Money) String() string {
	return m.Decimal().StringFixed(MinorUnitsExponent)
}

// Float64 returns an approximate float representation for display purposes only
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// IsNegative reports whether the amount is below zero
func (m Money) IsNegative() bool {
	return m < 0
}

// IsPositive reports whether the amount is above zero
func (m Money) IsPositive() bool {
	return m > 0
}

// MarshalJSON encodes the amount as a JSON number with two fractional digits
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		*m = 0
		return nil
	}

	parsed, err := ParseMoney(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer; amounts are stored as integer minor units
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = 0
	case int64:
		*m = Money(v)
	case float64:
		*m = Money(decimal.NewFromFloat(v).Round(0).IntPart())
	case []byte:
		parsed, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("cannot scan %q into Money: %w", v, err)
		}
		*m = Money(parsed.IntPart())
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("cannot scan %q into Money: %w", v, err)
		}
		*m = Money(parsed.IntPart())
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}

// SumMoney adds up a list of amounts
func SumMoney(values ...Money) Money {
	var total Money
	for _, v := range values {
		total += v
	}
	return total
}
