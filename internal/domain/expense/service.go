package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SummaryPeriod selects the dashboard time-series granularity.
type SummaryPeriod string

const (
	SummaryWeek  SummaryPeriod = "week"
	SummaryMonth SummaryPeriod = "month"
	SummaryYear  SummaryPeriod = "year"
)

// CategoryTotal is one row of the per-category dashboard breakdown.
type CategoryTotal struct {
	CategoryID   *uuid.UUID      `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total_amount"`
	Count        int             `json:"count"`
}

// TimePoint is one bucket of the dashboard time series.
type TimePoint struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total_amount"`
}

// Summary is the dashboard payload: lifetime total, per-category breakdown
// and a time series for the selected period.
type Summary struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	Categories  []CategoryTotal `json:"category_expenses"`
	Series      []TimePoint     `json:"monthly_expenses"`
	Period      SummaryPeriod   `json:"period"`
}

// Store is the repository surface the expense service needs.
type Store interface {
	Create(ctx context.Context, e *Expense) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]Expense, error)
	Delete(ctx context.Context, userID, expenseID uuid.UUID) error
	TotalAmount(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	CategoryTotals(ctx context.Context, userID uuid.UUID) ([]CategoryTotal, error)
	BucketTotals(ctx context.Context, userID uuid.UUID, start, end time.Time, truncate string) ([]BucketTotal, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error)
	GetOrCreateCategory(ctx context.Context, userID uuid.UUID, name, description string) (*Category, error)
}

// Service handles expense business logic.
type Service struct {
	repo   Store
	loc    *time.Location
	logger *slog.Logger
}

// NewService creates a new expense service. loc is the time zone of record.
func NewService(repo Store, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, logger: logger}
}

// Record inserts an expense under an optional category name, creating the
// category when needed.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, note string, amount decimal.Decimal, at time.Time, categoryName string) (*Expense, error) {
	e := &Expense{
		UserID:              userID,
		Note:                note,
		Amount:              amount,
		TransactionDatetime: at,
	}

	if categoryName != "" {
		description := fmt.Sprintf("Automatically created category for %s expenses", categoryName)
		category, err := s.repo.GetOrCreateCategory(ctx, userID, categoryName, description)
		if err != nil {
			return nil, err
		}
		e.CategoryID = &category.ID
		e.CategoryName = &category.Name
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the user's expenses, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]Expense, error) {
	return s.repo.List(ctx, userID, limit)
}

// Delete removes one of the user's expenses.
func (s *Service) Delete(ctx context.Context, userID, expenseID uuid.UUID) error {
	return s.repo.Delete(ctx, userID, expenseID)
}

// Categories returns the user's categories ordered by name.
func (s *Service) Categories(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	return s.repo.ListCategories(ctx, userID)
}

// DashboardSummary computes the dashboard statistics. The per-category
// breakdown is lifetime; the time series covers the current week, month or
// year, bucketed by day, day and month respectively.
func (s *Service) DashboardSummary(ctx context.Context, userID uuid.UUID, period SummaryPeriod, now time.Time) (*Summary, error) {
	total, err := s.repo.TotalAmount(ctx, userID)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.CategoryTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	series, period, err := s.timeSeries(ctx, userID, period, now)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalAmount: total,
		Categories:  categories,
		Series:      series,
		Period:      period,
	}, nil
}

func (s *Service) timeSeries(ctx context.Context, userID uuid.UUID, period SummaryPeriod, now time.Time) ([]TimePoint, SummaryPeriod, error) {
	year, month, day := now.In(s.loc).Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, s.loc)

	var (
		start, end time.Time
		truncate   string
		label      func(time.Time) string
	)

	switch period {
	case SummaryWeek:
		// Week starts on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		start = today.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
		truncate = "day"
		label = func(t time.Time) string { return t.Format("Mon") }
	case SummaryYear:
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
		end = time.Date(year+1, time.January, 1, 0, 0, 0, 0, s.loc)
		truncate = "month"
		label = func(t time.Time) string { return t.Format("Jan") }
	default:
		period = SummaryMonth
		start = time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
		end = time.Date(year, month+1, 1, 0, 0, 0, 0, s.loc)
		truncate = "day"
		label = func(t time.Time) string { return strconv.Itoa(t.Day()) }
	}

	buckets, err := s.repo.BucketTotals(ctx, userID, start, end, truncate)
	if err != nil {
		return nil, period, err
	}

	series := make([]TimePoint, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, TimePoint{Name: label(b.Bucket.In(s.loc)), Total: b.Total})
	}
	return series, period, nil
}
