package chat

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount sanitization errors.
var (
	// ErrAmountEmpty means no digits survived cleaning.
	ErrAmountEmpty = errors.New("amount is empty after cleaning")
	// ErrAmountNonPositive means the cleaned amount parsed to a value <= 0.
	ErrAmountNonPositive = errors.New("amount must be positive")
)

// SanitizeAmount cleans a raw numeric substring into a positive decimal.
// It scans left to right keeping decimal digits and the first decimal point;
// any later decimal point and every other character (currency symbols,
// trailing punctuation, signs, whitespace) is discarded. "20.5.3" becomes
// 20.53, "$20," becomes 20, "-5" becomes 5.
func SanitizeAmount(raw string) (decimal.Decimal, error) {
	var (
		b            strings.Builder
		decimalFound bool
	)
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !decimalFound:
			b.WriteRune(r)
			decimalFound = true
		}
	}

	cleaned := b.String()
	if cleaned == "" || cleaned == "." {
		return decimal.Zero, ErrAmountEmpty
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrAmountEmpty
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrAmountNonPositive
	}
	return amount, nil
}
