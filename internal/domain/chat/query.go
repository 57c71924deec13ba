package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shlok2903/spendora/internal/domain/expense"
)

// UncategorizedBucket is the breakdown bucket for expenses without a category.
const UncategorizedBucket = "Uncategorized"

// CategorySubtotal is one entry of the per-category breakdown.
type CategorySubtotal struct {
	Name   string
	Amount decimal.Decimal
}

// QuerySummary aggregates the expenses matched by one query turn.
type QuerySummary struct {
	Total            decimal.Decimal
	ByCategory       []CategorySubtotal // first-seen order
	TransactionCount int
	Average          decimal.Decimal // defined only when TransactionCount > 0
}

// ExpenseReader is the expense repository surface the query executor needs.
type ExpenseReader interface {
	QueryRange(ctx context.Context, userID uuid.UUID, start, end time.Time, categoryIDs []uuid.UUID) ([]expense.Expense, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]expense.Category, error)
}

// QueryExecutor turns a classified query intent into an aggregate summary.
type QueryExecutor struct {
	expenses ExpenseReader
	loc      *time.Location
}

// NewQueryExecutor creates a query executor. loc is the time zone of record
// for persisted timestamps.
func NewQueryExecutor(expenses ExpenseReader, loc *time.Location) *QueryExecutor {
	if loc == nil {
		loc = time.UTC
	}
	return &QueryExecutor{expenses: expenses, loc: loc}
}

// Execute filters the user's expenses by the resolved time window and, when a
// category was named, by the user's categories whose name contains it
// (case-insensitive). When the named category matches none of the user's
// categories the filter is dropped and the whole window is summarized; see
// DESIGN.md for why this fallback is preserved.
func (q *QueryExecutor) Execute(ctx context.Context, userID uuid.UUID, categoryName string, period Period, now time.Time) (QuerySummary, error) {
	start, end := ResolvePeriod(period, now, q.loc)

	var categoryIDs []uuid.UUID
	if !equalsAllCategories(categoryName) {
		categories, err := q.expenses.ListCategories(ctx, userID)
		if err != nil {
			return QuerySummary{}, fmt.Errorf("failed to list categories: %w", err)
		}
		categoryIDs = expense.MatchCategoriesContaining(categories, categoryName)
	}

	matched, err := q.expenses.QueryRange(ctx, userID, start, end, categoryIDs)
	if err != nil {
		return QuerySummary{}, fmt.Errorf("failed to query expenses: %w", err)
	}

	return summarize(matched), nil
}

func summarize(expenses []expense.Expense) QuerySummary {
	summary := QuerySummary{Total: decimal.Zero}
	index := make(map[string]int)

	for _, e := range expenses {
		summary.Total = summary.Total.Add(e.Amount)

		name := UncategorizedBucket
		if e.CategoryName != nil {
			name = *e.CategoryName
		}
		if i, ok := index[name]; ok {
			summary.ByCategory[i].Amount = summary.ByCategory[i].Amount.Add(e.Amount)
		} else {
			index[name] = len(summary.ByCategory)
			summary.ByCategory = append(summary.ByCategory, CategorySubtotal{Name: name, Amount: e.Amount})
		}
	}

	summary.TransactionCount = len(expenses)
	if summary.TransactionCount > 0 {
		summary.Average = summary.Total.Div(decimal.NewFromInt(int64(summary.TransactionCount)))
	}
	return summary
}

func equalsAllCategories(name string) bool {
	return name == "" || strings.EqualFold(name, AllCategories)
}
