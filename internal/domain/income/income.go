// Package income holds recurring monthly income records and their summary.
package income

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Income is a recurring monthly income source.
type Income struct {
	ID                    uuid.UUID       `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	EverymonthPaymentDate int             `json:"everymonth_payment_date"` // day of month, 1-31
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description"`
	CreatedAt             time.Time       `json:"created_at"`
}

// Source is one row of the per-description income breakdown.
type Source struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDays int             `json:"payment_day"`
}

// Total summarizes a user's income sources.
type Total struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	Sources      []Source        `json:"income_sources"`
	SourcesCount int             `json:"sources_count"`
}
