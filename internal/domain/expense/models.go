// Package expense holds the expense and category domain: models, the
// PostgreSQL repository, the dashboard summary service, category matching,
// note search and export.
package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is a user-owned expense category. Names are unique per user.
type Category struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubCategory refines a Category. Names are unique per (user, category).
type SubCategory struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expense is a single recorded expense. Immutable once created by the
// conversational flow; the REST layer may still delete it.
type Expense struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id"`
	Note                string          `json:"expense_note"`
	Amount              decimal.Decimal `json:"expense_amount"`
	TransactionDatetime time.Time       `json:"transaction_datetime"`
	CategoryID          *uuid.UUID      `json:"category_id"`
	CategoryName        *string         `json:"category_name"` // populated on reads that join categories
	SubcategoryID       *uuid.UUID      `json:"subcategory_id"`
	CreatedAt           time.Time       `json:"created_at"`
}
