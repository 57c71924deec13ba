package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shlok2903/spendora/internal/domain/expense"
	"github.com/Shlok2903/spendora/pkg/db"
)

// Recipient is a verified user with spending activity in the report window.
type Recipient struct {
	ID       uuid.UUID
	Email    string
	Username string
}

// CategorySpend is a windowed per-category total.
type CategorySpend struct {
	CategoryName string
	Total        decimal.Decimal
	Count        int
}

// Repository reads the data needed to assemble weekly reports.
type Repository struct {
	db db.Conn
}

// NewRepository creates a new report repository.
func NewRepository(conn db.Conn) *Repository {
	return &Repository{db: conn}
}

// ListRecipients returns verified users who recorded at least one expense in
// the window.
func (r *Repository) ListRecipients(ctx context.Context, start, end time.Time) ([]Recipient, error) {
	query := `
		SELECT u.id, u.email, u.username
		FROM users u
		WHERE u.is_verified
		  AND EXISTS (
			SELECT 1 FROM expenses e
			WHERE e.user_id = u.id AND e.transaction_datetime >= $1 AND e.transaction_datetime < $2
		  )
		ORDER BY u.created_at ASC`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list report recipients: %w", err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Username); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recipients: %w", err)
	}
	return recipients, nil
}

// CategorySpending returns the user's per-category totals inside the window,
// largest first.
func (r *Repository) CategorySpending(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]CategorySpend, error) {
	query := `
		SELECT COALESCE(c.name, 'Uncategorized'), COALESCE(SUM(e.expense_amount), 0)::text, COUNT(e.id)
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1 AND e.transaction_datetime >= $2 AND e.transaction_datetime < $3
		GROUP BY c.name
		ORDER BY SUM(e.expense_amount) DESC`

	rows, err := r.db.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query category spending: %w", err)
	}
	defer rows.Close()

	var spending []CategorySpend
	for rows.Next() {
		var (
			s        CategorySpend
			totalStr string
		)
		if err := rows.Scan(&s.CategoryName, &totalStr, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category spending: %w", err)
		}
		total, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse category total: %w", err)
		}
		s.Total = total
		spending = append(spending, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read category spending: %w", err)
	}
	return spending, nil
}

// Expenses returns the user's expenses inside the window, oldest first, for
// the attached workbook.
func (r *Repository) Expenses(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]expense.Expense, error) {
	query := `
		SELECT e.id, e.user_id, e.expense_note, e.expense_amount::text, e.transaction_datetime,
		       e.category_id, c.name, e.subcategory_id, e.created_at
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1 AND e.transaction_datetime >= $2 AND e.transaction_datetime < $3
		ORDER BY e.transaction_datetime ASC`

	rows, err := r.db.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query report expenses: %w", err)
	}
	defer rows.Close()

	var expenses []expense.Expense
	for rows.Next() {
		var (
			e         expense.Expense
			amountStr string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Note, &amountStr, &e.TransactionDatetime,
			&e.CategoryID, &e.CategoryName, &e.SubcategoryID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report expense: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expense amount: %w", err)
		}
		e.Amount = amount
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report expenses: %w", err)
	}
	return expenses, nil
}
