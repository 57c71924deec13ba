package report

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Shlok2903/spendora/internal/domain/expense"
)

type fakeStore struct {
	recipients []Recipient
	spending   map[uuid.UUID][]CategorySpend
	expenses   map[uuid.UUID][]expense.Expense

	gotStart time.Time
	gotEnd   time.Time

	spendingErr error
}

func (f *fakeStore) ListRecipients(_ context.Context, start, end time.Time) ([]Recipient, error) {
	f.gotStart, f.gotEnd = start, end
	return f.recipients, nil
}

func (f *fakeStore) CategorySpending(_ context.Context, userID uuid.UUID, _, _ time.Time) ([]CategorySpend, error) {
	if f.spendingErr != nil {
		return nil, f.spendingErr
	}
	return f.spending[userID], nil
}

func (f *fakeStore) Expenses(_ context.Context, userID uuid.UUID, _, _ time.Time) ([]expense.Expense, error) {
	return f.expenses[userID], nil
}

type sentMail struct {
	to             string
	subject        string
	html           string
	attachmentName string
	attachment     []byte
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendWeeklyReport(_ context.Context, to, subject, html, attachmentName string, attachment []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, html, attachmentName, attachment})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       string
		wantStart string
		wantEnd   string
	}{
		{"monday morning", "2025-03-17T08:00:00Z", "2025-03-10", "2025-03-17"},
		{"mid week", "2025-03-19T23:30:00Z", "2025-03-10", "2025-03-17"},
		{"sunday", "2025-03-16T12:00:00Z", "2025-03-03", "2025-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.Parse(time.RFC3339, tt.now)
			require.NoError(t, err)

			start, end := WeekWindow(now, time.UTC)
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02"))
			assert.Equal(t, time.Monday, start.Weekday())
			assert.Equal(t, time.Monday, end.Weekday())
		})
	}

	t.Run("window boundaries use the reporting location", func(t *testing.T) {
		kolkata := time.FixedZone("IST", 5*3600+1800)
		// Late Sunday UTC is already Monday in IST.
		now, _ := time.Parse(time.RFC3339, "2025-03-16T20:00:00Z")

		start, _ := WeekWindow(now, kolkata)
		assert.Equal(t, "2025-03-10", start.Format("2006-01-02"))
	})
}

func TestRunWeekly(t *testing.T) {
	userID := uuid.New()
	catName := "Food"

	newGenerator := func(store *fakeStore, mailer *fakeMailer) *Generator {
		g := NewGenerator(store, mailer, time.UTC, testLogger())
		g.now = func() time.Time {
			return time.Date(2025, 3, 19, 12, 0, 0, 0, time.UTC)
		}
		return g
	}

	t.Run("sends summary with workbook attached", func(t *testing.T) {
		store := &fakeStore{
			recipients: []Recipient{{ID: userID, Email: "alice@example.com", Username: "alice"}},
			spending: map[uuid.UUID][]CategorySpend{userID: {
				{CategoryName: "Food", Total: dec("75.00"), Count: 3},
				{CategoryName: "Transport", Total: dec("25.00"), Count: 1},
			}},
			expenses: map[uuid.UUID][]expense.Expense{userID: {
				{
					ID:                  uuid.New(),
					UserID:              userID,
					Note:                "Lunch",
					Amount:              dec("20.50"),
					TransactionDatetime: time.Date(2025, 3, 11, 13, 0, 0, 0, time.UTC),
					CategoryName:        &catName,
				},
			}},
		}
		mailer := &fakeMailer{}

		require.NoError(t, newGenerator(store, mailer).RunWeekly(context.Background()))

		require.Len(t, mailer.sent, 1)
		mail := mailer.sent[0]
		assert.Equal(t, "alice@example.com", mail.to)
		assert.Equal(t, "Your Spendora week in review (Mar 10)", mail.subject)
		assert.Equal(t, "spendora-week-2025-03-10.xlsx", mail.attachmentName)

		assert.Contains(t, mail.html, "Hi alice")
		assert.Contains(t, mail.html, "$100.00")
		assert.Contains(t, mail.html, "75.0%")
		assert.Contains(t, mail.html, "top category: Food")
		assert.Contains(t, mail.html, "4 transactions")

		wb, err := excelize.OpenReader(bytes.NewReader(mail.attachment))
		require.NoError(t, err)
		rows, err := wb.GetRows("Expenses")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"2025-03-11 13:00", "Lunch", "Food", "20.50"}, rows[1])
	})

	t.Run("window is the last full week", func(t *testing.T) {
		store := &fakeStore{}
		require.NoError(t, newGenerator(store, &fakeMailer{}).RunWeekly(context.Background()))

		assert.Equal(t, "2025-03-10", store.gotStart.Format("2006-01-02"))
		assert.Equal(t, "2025-03-17", store.gotEnd.Format("2006-01-02"))
	})

	t.Run("skips users without spending", func(t *testing.T) {
		store := &fakeStore{
			recipients: []Recipient{{ID: userID, Email: "alice@example.com", Username: "alice"}},
		}
		mailer := &fakeMailer{}

		require.NoError(t, newGenerator(store, mailer).RunWeekly(context.Background()))
		assert.Empty(t, mailer.sent)
	})

	t.Run("one failing user does not stop the run", func(t *testing.T) {
		bob := uuid.New()
		store := &fakeStore{
			recipients: []Recipient{
				{ID: userID, Email: "alice@example.com", Username: "alice"},
				{ID: bob, Email: "bob@example.com", Username: "bob"},
			},
			spending: map[uuid.UUID][]CategorySpend{
				userID: {{CategoryName: "Food", Total: dec("10.00"), Count: 1}},
				bob:    {{CategoryName: "Food", Total: dec("10.00"), Count: 1}},
			},
			expenses: map[uuid.UUID][]expense.Expense{},
		}
		mailer := &fakeMailer{err: errors.New("smtp down")}

		err := newGenerator(store, mailer).RunWeekly(context.Background())
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "2 of 2"))
	})

	t.Run("blank username falls back to a greeting", func(t *testing.T) {
		store := &fakeStore{
			recipients: []Recipient{{ID: userID, Email: "alice@example.com"}},
			spending: map[uuid.UUID][]CategorySpend{
				userID: {{CategoryName: "Food", Total: dec("10.00"), Count: 1}},
			},
			expenses: map[uuid.UUID][]expense.Expense{},
		}
		mailer := &fakeMailer{}

		require.NoError(t, newGenerator(store, mailer).RunWeekly(context.Background()))
		require.Len(t, mailer.sent, 1)
		assert.Contains(t, mailer.sent[0].html, "Hi there")
	})
}
