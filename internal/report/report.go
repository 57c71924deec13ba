// Package report assembles and emails the weekly spending summary.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shlok2903/spendora/internal/domain/expense"
	"github.com/Shlok2903/spendora/pkg/money"
)

// Store reads report data.
type Store interface {
	ListRecipients(ctx context.Context, start, end time.Time) ([]Recipient, error)
	CategorySpending(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]CategorySpend, error)
	Expenses(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]expense.Expense, error)
}

// Mailer delivers the rendered report.
type Mailer interface {
	SendWeeklyReport(ctx context.Context, to, subject, html, attachmentName string, attachment []byte) error
}

// Generator builds and sends weekly spending reports.
type Generator struct {
	store  Store
	mailer Mailer
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator creates a report generator. Windows are computed in loc.
func NewGenerator(store Store, mailer Mailer, loc *time.Location, logger *slog.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{
		store:  store,
		mailer: mailer,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// WeekWindow returns the last full Monday-to-Monday week before now.
func WeekWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	// Days since the most recent Monday.
	sinceMonday := (int(today.Weekday()) + 6) % 7
	end := today.AddDate(0, 0, -sinceMonday)
	return end.AddDate(0, 0, -7), end
}

// RunWeekly sends last week's summary to every user who spent in the window.
func (g *Generator) RunWeekly(ctx context.Context) error {
	start, end := WeekWindow(g.now(), g.loc)

	recipients, err := g.store.ListRecipients(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}

	var failed int
	for _, rec := range recipients {
		if err := g.sendForUser(ctx, rec, start, end); err != nil {
			failed++
			g.logger.ErrorContext(ctx, "weekly report failed",
				slog.String("user_id", rec.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	g.logger.InfoContext(ctx, "weekly reports sent",
		slog.Int("recipients", len(recipients)),
		slog.Int("failed", failed),
		slog.Time("window_start", start),
		slog.Time("window_end", end),
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d weekly reports failed", failed, len(recipients))
	}
	return nil
}

func (g *Generator) sendForUser(ctx context.Context, rec Recipient, start, end time.Time) error {
	spending, err := g.store.CategorySpending(ctx, rec.ID, start, end)
	if err != nil {
		return err
	}
	if len(spending) == 0 {
		return nil
	}

	expenses, err := g.store.Expenses(ctx, rec.ID, start, end)
	if err != nil {
		return err
	}

	var workbook bytes.Buffer
	if err := expense.WriteExcel(&workbook, expenses); err != nil {
		return fmt.Errorf("failed to build report workbook: %w", err)
	}

	subject := fmt.Sprintf("Your Spendora week in review (%s)", start.Format("Jan 2"))
	body := renderHTML(rec.Username, spending, start, end)
	attachmentName := fmt.Sprintf("spendora-week-%s.xlsx", start.Format("2006-01-02"))

	return g.mailer.SendWeeklyReport(ctx, rec.Email, subject, body, attachmentName, workbook.Bytes())
}

func renderHTML(username string, spending []CategorySpend, start, end time.Time) string {
	total := money.Zero(money.USD)
	count := 0
	for _, s := range spending {
		total = total.MustAdd(money.NewFromDecimal(s.Total, money.USD))
		count += s.Count
	}

	var rows strings.Builder
	for _, s := range spending {
		amount := money.NewFromDecimal(s.Total, money.USD)
		pct := amount.PercentageOf(total)
		fmt.Fprintf(&rows,
			`<tr><td class="cat">%s</td><td class="amt">%s</td><td class="pct">%s%%</td></tr>`,
			html.EscapeString(s.CategoryName), amount.Display(), pct.StringFixed(1))
	}

	name := html.EscapeString(username)
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <style>
    body { background-color: #f4f4f5; font-family: 'Inter', sans-serif; margin: 0; padding: 40px 0; }
    .container { background-color: #ffffff; border: 1px solid #e4e4e7; border-radius: 12px; padding: 40px; max-width: 520px; margin: 0 auto; }
    .topLabel { color: #7c3aed; font-size: 12px; font-weight: 700; letter-spacing: 2px; text-align: center; }
    h1 { color: #18181b; font-size: 26px; font-weight: 900; text-align: center; margin: 20px 0; }
    .text { color: #52525b; font-size: 15px; line-height: 22px; text-align: center; }
    .total { color: #18181b; font-size: 40px; font-weight: 900; text-align: center; margin: 24px 0 4px; }
    .sub { color: #a1a1aa; font-size: 12px; text-align: center; margin-bottom: 24px; }
    table { width: 100%%; border-collapse: collapse; margin: 10px 0 24px; }
    td { padding: 8px 4px; border-bottom: 1px solid #f4f4f5; font-size: 14px; }
    .cat { color: #18181b; }
    .amt { color: #18181b; text-align: right; font-weight: 700; }
    .pct { color: #a1a1aa; text-align: right; width: 60px; }
    .footer { color: #a1a1aa; font-size: 12px; text-align: center; margin-top: 20px; }
  </style>
</head>
<body>
  <div class="container">
    <p class="topLabel">WEEKLY REPORT</p>
    <h1>Hi %s, here's your week.</h1>
    <p class="text">%s to %s</p>
    <p class="total">%s</p>
    <p class="sub">%d transactions &middot; top category: %s</p>
    <table>%s</table>
    <p class="footer">Full details are in the attached spreadsheet.</p>
  </div>
</body>
</html>
`, name,
		start.Format("January 2"), end.AddDate(0, 0, -1).Format("January 2"),
		total.Display(), count, html.EscapeString(spending[0].CategoryName), rows.String())
}
