package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shlok2903/spendora/internal/domain/expense"
	"github.com/Shlok2903/spendora/internal/llm"
)

// ExpenseWriter is the expense repository surface the recorder needs.
type ExpenseWriter interface {
	RecordWithCategory(ctx context.Context, userID uuid.UUID, categoryName, categoryDescription, note string, amount decimal.Decimal, at time.Time) (*expense.Expense, error)
}

// NoteIndexer receives recorded expenses for full-text note search. A nil
// indexer disables indexing.
type NoteIndexer interface {
	Index(e *expense.Expense) error
}

// Recorder persists an expense from a classified creation intent. The stored
// note is generated by a second model call; when that call fails the expense
// is still recorded with a deterministic fallback note.
type Recorder struct {
	expenses ExpenseWriter
	llm      llm.Client
	notes    NoteIndexer
	logger   *slog.Logger
}

// NewRecorder creates an expense recorder.
func NewRecorder(expenses ExpenseWriter, llmClient llm.Client, notes NoteIndexer, logger *slog.Logger) *Recorder {
	return &Recorder{expenses: expenses, llm: llmClient, notes: notes, logger: logger}
}

// Record sanitizes the captured amount, generates a note from the user's
// original message and persists the expense under the named category,
// creating the category if the user does not have it yet.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, categoryName, rawAmount, userMessage string, now time.Time) (*expense.Expense, error) {
	amount, err := SanitizeAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	note := r.generateNote(ctx, categoryName, userMessage)
	description := fmt.Sprintf("Automatically created category for %s expenses", categoryName)

	recorded, err := r.expenses.RecordWithCategory(ctx, userID, categoryName, description, note, amount, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}

	// The search index is best effort: the expense is already persisted.
	if r.notes != nil {
		if err := r.notes.Index(recorded); err != nil {
			r.logger.WarnContext(ctx, "failed to index expense note",
				slog.String("error", err.Error()))
		}
	}

	r.logger.InfoContext(ctx, "recorded expense from chat",
		slog.String("user_id", userID.String()),
		slog.String("category", categoryName),
		slog.String("amount", amount.StringFixed(2)))
	return recorded, nil
}

func (r *Recorder) generateNote(ctx context.Context, categoryName, userMessage string) string {
	note, err := r.llm.Complete(ctx, NoteSystemPrompt, nil, userMessage)
	if err != nil {
		r.logger.WarnContext(ctx, "note generation failed, using fallback",
			slog.String("error", err.Error()))
		return fmt.Sprintf("Expense for %s: %s", categoryName, truncateRunes(userMessage, 50))
	}
	return strings.TrimSpace(note)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
