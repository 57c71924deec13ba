package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Shlok2903/spendora/pkg/db"
)

// ErrExpenseNotFound is returned when an expense lookup matches no row.
var ErrExpenseNotFound = errors.New("expense not found")

// Repository implements expense and category persistence on PostgreSQL.
type Repository struct {
	db db.Conn
}

// NewRepository creates a new expense repository.
func NewRepository(db db.Conn) *Repository {
	return &Repository{db: db}
}

const expenseColumns = `
	e.id, e.user_id, e.expense_note, e.expense_amount::text, e.transaction_datetime,
	e.category_id, c.name, e.subcategory_id, e.created_at`

func scanExpense(row pgx.Row) (*Expense, error) {
	var (
		e         Expense
		amountStr string
	)
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Note,
		&amountStr,
		&e.TransactionDatetime,
		&e.CategoryID,
		&e.CategoryName,
		&e.SubcategoryID,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amountStr, err)
	}
	e.Amount = amount
	return &e, nil
}

// Create inserts a new expense.
func (r *Repository) Create(ctx context.Context, e *Expense) error {
	return create(ctx, r.db, e)
}

func create(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, e *Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, expense_note, expense_amount, transaction_datetime, category_id, subcategory_id)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING created_at`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	err := q.QueryRow(ctx, query,
		e.ID,
		e.UserID,
		e.Note,
		e.Amount.StringFixed(2),
		e.TransactionDatetime,
		e.CategoryID,
		e.SubcategoryID,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// QueryRange returns a user's expenses with transaction_datetime in
// [start, end), oldest first. When categoryIDs is non-empty the result is
// restricted to those categories.
func (r *Repository) QueryRange(ctx context.Context, userID uuid.UUID, start, end time.Time, categoryIDs []uuid.UUID) ([]Expense, error) {
	query := `
		SELECT` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		  AND e.transaction_datetime >= $2
		  AND e.transaction_datetime < $3`
	args := []any{userID, start, end}

	if len(categoryIDs) > 0 {
		query += ` AND e.category_id = ANY($4)`
		args = append(args, categoryIDs)
	}
	query += ` ORDER BY e.transaction_datetime ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// List returns a user's expenses, newest first, with an optional limit.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int) ([]Expense, error) {
	query := `
		SELECT` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		ORDER BY e.transaction_datetime DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// Delete removes one of the user's expenses.
func (r *Repository) Delete(ctx context.Context, userID, expenseID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, expenseID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// RecordWithCategory resolves (or creates) the named category and inserts the
// expense in one transaction, so a category is never created without its
// accompanying expense. The category upsert is atomic under concurrent calls
// for the same (user, name) pair.
func (r *Repository) RecordWithCategory(ctx context.Context, userID uuid.UUID, categoryName, categoryDescription, note string, amount decimal.Decimal, at time.Time) (*Expense, error) {
	var recorded *Expense

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		category, err := getOrCreateCategory(ctx, tx, userID, categoryName, categoryDescription)
		if err != nil {
			return err
		}

		e := &Expense{
			UserID:              userID,
			Note:                note,
			Amount:              amount,
			TransactionDatetime: at,
			CategoryID:          &category.ID,
			CategoryName:        &category.Name,
		}
		if err := create(ctx, tx, e); err != nil {
			return err
		}
		recorded = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// BucketTotal is one date_trunc bucket of the dashboard time series.
type BucketTotal struct {
	Bucket time.Time
	Total  decimal.Decimal
}

// TotalAmount returns the lifetime sum of the user's expenses.
func (r *Repository) TotalAmount(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(expense_amount), 0)::text FROM expenses WHERE user_id = $1`

	var totalStr string
	if err := r.db.QueryRow(ctx, query, userID).Scan(&totalStr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored total %q: %w", totalStr, err)
	}
	return total, nil
}

// CategoryTotals returns lifetime per-category totals, largest first.
// Uncategorized expenses form their own row with a nil category id.
func (r *Repository) CategoryTotals(ctx context.Context, userID uuid.UUID) ([]CategoryTotal, error) {
	query := `
		SELECT e.category_id, COALESCE(c.name, 'Uncategorized'),
		       SUM(e.expense_amount)::text, COUNT(e.id)
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		GROUP BY e.category_id, c.name
		ORDER BY SUM(e.expense_amount) DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var (
			ct       CategoryTotal
			totalStr string
		)
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &totalStr, &ct.Count); err != nil {
			return nil, err
		}
		if ct.Total, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("invalid stored total %q: %w", totalStr, err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// BucketTotals sums the user's expenses in [start, end) grouped by
// date_trunc. truncate must be "day" or "month".
func (r *Repository) BucketTotals(ctx context.Context, userID uuid.UUID, start, end time.Time, truncate string) ([]BucketTotal, error) {
	if truncate != "day" && truncate != "month" {
		return nil, fmt.Errorf("unsupported bucket granularity %q", truncate)
	}

	query := `
		SELECT date_trunc('` + truncate + `', transaction_datetime) AS bucket,
		       SUM(expense_amount)::text
		FROM expenses
		WHERE user_id = $1
		  AND transaction_datetime >= $2
		  AND transaction_datetime < $3
		GROUP BY bucket
		ORDER BY bucket ASC`

	rows, err := r.db.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket totals: %w", err)
	}
	defer rows.Close()

	var buckets []BucketTotal
	for rows.Next() {
		var (
			b        BucketTotal
			totalStr string
		)
		if err := rows.Scan(&b.Bucket, &totalStr); err != nil {
			return nil, err
		}
		if b.Total, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("invalid stored total %q: %w", totalStr, err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

const categoryColumns = `id, user_id, name, description, created_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindCategoryByName returns the user's category with the exact name, or nil
// when absent.
func (r *Repository) FindCategoryByName(ctx context.Context, userID uuid.UUID, name string) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND name = $2`

	c, err := scanCategory(r.db.QueryRow(ctx, query, userID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}

// GetOrCreateCategory resolves a category by exact name, creating it with the
// given description when absent. Safe under concurrent invocation.
func (r *Repository) GetOrCreateCategory(ctx context.Context, userID uuid.UUID, name, description string) (*Category, error) {
	return getOrCreateCategory(ctx, r.db, userID, name, description)
}

func getOrCreateCategory(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, userID uuid.UUID, name, description string) (*Category, error) {
	// The self-assignment on conflict makes RETURNING yield the existing row
	// without touching its description.
	query := `
		INSERT INTO categories (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + categoryColumns

	c, err := scanCategory(q.QueryRow(ctx, query, uuid.New(), userID, name, description))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create category: %w", err)
	}
	return c, nil
}

// ListCategories returns all of the user's categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}
