// Package money provides currency-safe monetary values using integer cents.
// It wraps go-money for arithmetic and display and shopspring/decimal for
// precision conversions.
package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	GBP = "GBP" // British Pound
	INR = "INR" // Indian Rupee
	JPY = "JPY" // Japanese Yen (no decimal places)
)

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates a new Money value from cents (minor units) and currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{
		m: money.New(amountCents, currencyCode),
	}
}

// NewFromDecimal creates Money from a decimal.Decimal value, rounding to the
// currency's minor unit.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := amount.Mul(multiplier).Round(0).IntPart()

	return New(cents, currencyCode)
}

// Zero returns a zero-value Money in the given currency.
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the value in cents (minor units).
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero reports whether the amount is zero.
func (m *Money) IsZero() bool {
	return m.Amount() == 0
}

// IsPositive reports whether the amount is greater than zero.
func (m *Money) IsPositive() bool {
	return m.Amount() > 0
}

// IsNegative reports whether the amount is less than zero.
func (m *Money) IsNegative() bool {
	return m.Amount() < 0
}

// Negate returns the amount with its sign flipped.
func (m *Money) Negate() *Money {
	if m == nil || m.m == nil {
		return nil
	}
	return New(-m.m.Amount(), m.Currency())
}

// Add returns the sum. Returns an error on currency mismatch.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || other == nil || m.m == nil || other.m == nil {
		return nil, errors.New("cannot add nil money values")
	}
	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("currency mismatch: %w", err)
	}
	return &Money{m: result}, nil
}

// MustAdd is Add that panics on error. Use only when currencies are known to
// match.
func (m *Money) MustAdd(other *Money) *Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns the difference. Returns an error on currency mismatch.
func (m *Money) Subtract(other *Money) (*Money, error) {
	if m == nil || other == nil || m.m == nil || other.m == nil {
		return nil, errors.New("cannot subtract nil money values")
	}
	result, err := m.m.Subtract(other.m)
	if err != nil {
		return nil, fmt.Errorf("currency mismatch: %w", err)
	}
	return &Money{m: result}, nil
}

// Equals reports whether both values have the same currency and amount.
func (m *Money) Equals(other *Money) bool {
	if m == nil || other == nil || m.m == nil || other.m == nil {
		return false
	}
	eq, err := m.m.Equals(other.m)
	return err == nil && eq
}

// Display returns a formatted string for display (e.g., "$1,234.56")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "$0.00"
	}
	return m.m.Display()
}

// String returns the amount as a decimal string (e.g., "1234.56")
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().String()
}

// ToDecimal converts to decimal.Decimal for precise calculations.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	currency := m.m.Currency()
	d := decimal.NewFromInt(m.m.Amount())
	divisor := decimal.New(1, int32(currency.Fraction))
	return d.Div(divisor)
}

// PercentageOf calculates what percentage this amount is of another amount.
// Returns the percentage as a decimal.Decimal (e.g., 25.5 for 25.5%)
func (m *Money) PercentageOf(total *Money) decimal.Decimal {
	if m == nil || m.m == nil || total == nil || total.m == nil || total.IsZero() {
		return decimal.Zero
	}
	return m.ToDecimal().Div(total.ToDecimal()).Mul(decimal.NewFromInt(100))
}

type moneyJSON struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// MarshalJSON serializes as {"amount": cents, "currency": code, "display": formatted}.
func (m *Money) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(moneyJSON{
		Amount:   m.Amount(),
		Currency: m.Currency(),
		Display:  m.Display(),
	})
}

// UnmarshalJSON deserializes from the MarshalJSON shape.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Currency == "" {
		return errors.New("money: currency is required")
	}
	m.m = money.New(v.Amount, v.Currency)
	return nil
}
