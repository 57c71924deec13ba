package income

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Shlok2903/spendora/pkg/db"
)

// ErrIncomeNotFound is returned when an income lookup matches no row.
var ErrIncomeNotFound = errors.New("income not found")

// Repository implements income persistence on PostgreSQL.
type Repository struct {
	db db.Conn
}

// NewRepository creates a new income repository.
func NewRepository(db db.Conn) *Repository {
	return &Repository{db: db}
}

const incomeColumns = `id, user_id, everymonth_payment_date, amount::text, description, created_at`

func scanIncome(row pgx.Row) (*Income, error) {
	var (
		in        Income
		amountStr string
	)
	if err := row.Scan(&in.ID, &in.UserID, &in.EverymonthPaymentDate, &amountStr, &in.Description, &in.CreatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amountStr, err)
	}
	in.Amount = amount
	return &in, nil
}

// Create inserts a new income source.
func (r *Repository) Create(ctx context.Context, in *Income) error {
	query := `
		INSERT INTO incomes (id, user_id, everymonth_payment_date, amount, description)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING created_at`

	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		in.ID, in.UserID, in.EverymonthPaymentDate, in.Amount.StringFixed(2), in.Description,
	).Scan(&in.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create income: %w", err)
	}
	return nil
}

// List returns the user's income sources ordered by payment day.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]Income, error) {
	query := `
		SELECT ` + incomeColumns + `
		FROM incomes
		WHERE user_id = $1
		ORDER BY everymonth_payment_date ASC, created_at ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		incomes = append(incomes, *in)
	}
	return incomes, rows.Err()
}

// Delete removes one of the user's income sources.
func (r *Repository) Delete(ctx context.Context, userID, incomeID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM incomes WHERE id = $1 AND user_id = $2`, incomeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIncomeNotFound
	}
	return nil
}

// Total aggregates the user's income: overall sum, per-description breakdown
// (largest first) and the number of sources.
func (r *Repository) Total(ctx context.Context, userID uuid.UUID) (*Total, error) {
	query := `
		SELECT description, SUM(amount)::text, COUNT(everymonth_payment_date)
		FROM incomes
		WHERE user_id = $1
		GROUP BY description
		ORDER BY SUM(amount) DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query income total: %w", err)
	}
	defer rows.Close()

	total := &Total{TotalIncome: decimal.Zero}
	for rows.Next() {
		var (
			s         Source
			amountStr string
		)
		if err := rows.Scan(&s.Description, &amountStr, &s.PaymentDays); err != nil {
			return nil, err
		}
		if s.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amountStr, err)
		}
		total.Sources = append(total.Sources, s)
		total.TotalIncome = total.TotalIncome.Add(s.Amount)
		total.SourcesCount += s.PaymentDays
	}
	return total, rows.Err()
}
