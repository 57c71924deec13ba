package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shlok2903/spendora/internal/domain/expense"
	"github.com/Shlok2903/spendora/internal/llm"
)

// historyFetchLimit is how many stored messages feed the model context:
// four complete exchanges plus the just-saved current user message.
const historyFetchLimit = 8

// Service-level errors the transport layer maps to client responses.
var (
	// ErrEmptyMessage means the incoming user message was blank.
	ErrEmptyMessage = errors.New("message is required")
	// ErrAmountUnclear means a creation reply carried an unusable amount.
	ErrAmountUnclear = errors.New("could not understand the expense amount")
	// ErrMessageSave means the user's message could not be persisted.
	ErrMessageSave = errors.New("failed to save message")
)

// MessageStore is the chat repository surface the orchestrator needs.
type MessageStore interface {
	Create(ctx context.Context, m *Message) error
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error)
	History(ctx context.Context, userID uuid.UUID) ([]Message, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAssistantMessage(ctx context.Context, userID uuid.UUID, content string) (*Message, error)
}

// Reply is the outcome of one conversation turn.
type Reply struct {
	Message string           `json:"message"`
	Intent  Intent           `json:"-"`
	Expense *expense.Expense `json:"-"`
}

// Service orchestrates one conversation turn: persist the user's message,
// call the model with recent context, classify the reply and either record
// an expense or answer a spending query from the database.
type Service struct {
	messages   MessageStore
	llm        llm.Client
	classifier *Classifier
	recorder   *Recorder
	queries    *QueryExecutor
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates the conversation orchestrator.
func NewService(messages MessageStore, llmClient llm.Client, recorder *Recorder, queries *QueryExecutor, logger *slog.Logger) *Service {
	return &Service{
		messages:   messages,
		llm:        llmClient,
		classifier: NewClassifier(),
		recorder:   recorder,
		queries:    queries,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleMessage runs one turn for the user and returns the reply to show.
func (s *Service) HandleMessage(ctx context.Context, userID uuid.UUID, userMessage string) (*Reply, error) {
	if userMessage == "" {
		return nil, ErrEmptyMessage
	}

	ctx, span := otel.Tracer("spendora/chat").Start(ctx, "chat.HandleMessage",
		trace.WithAttributes(attribute.String("chat.user_id", userID.String())))
	defer span.End()

	userMsg := &Message{UserID: userID, Role: RoleUser, Content: userMessage}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		s.logger.ErrorContext(ctx, "failed to save user message", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrMessageSave, err)
	}

	history, err := s.conversationContext(ctx, userID)
	if err != nil {
		// Context is best effort: answer without it rather than fail the turn.
		s.logger.WarnContext(ctx, "failed to load conversation context", slog.String("error", err.Error()))
		history = nil
	}

	replyText, err := s.llm.Complete(ctx, AssistantSystemPrompt, history, userMessage)
	if err != nil {
		return nil, fmt.Errorf("assistant completion failed: %w", err)
	}

	assistantMsg := &Message{UserID: userID, Role: RoleAssistant, Content: replyText}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		// The reply is still returned; only the stored transcript loses it.
		s.logger.ErrorContext(ctx, "failed to save assistant message", slog.String("error", err.Error()))
	}

	intent := s.classifier.Classify(replyText)
	span.SetAttributes(attribute.String("chat.intent", intent.Kind.String()))
	switch intent.Kind {
	case IntentExpenseCreation:
		return s.handleCreation(ctx, userID, intent, userMessage, replyText)
	case IntentExpenseQuery:
		return s.handleQuery(ctx, userID, intent)
	default:
		return &Reply{Message: replyText, Intent: IntentUnclassified}, nil
	}
}

// conversationContext returns the turns preceding the current user message,
// oldest first.
func (s *Service) conversationContext(ctx context.Context, userID uuid.UUID) ([]llm.Message, error) {
	recent, err := s.messages.Recent(ctx, userID, historyFetchLimit)
	if err != nil {
		return nil, err
	}
	if len(recent) <= 1 {
		return nil, nil
	}

	// Drop the newest entry (the message being answered) and restore
	// chronological order.
	prior := recent[1:]
	history := make([]llm.Message, 0, len(prior))
	for i := len(prior) - 1; i >= 0; i-- {
		history = append(history, llm.Message{Role: prior[i].Role, Content: prior[i].Content})
	}
	return history, nil
}

func (s *Service) handleCreation(ctx context.Context, userID uuid.UUID, intent ClassifiedIntent, userMessage, replyText string) (*Reply, error) {
	recorded, err := s.recorder.Record(ctx, userID, intent.CategoryName, intent.RawAmount, userMessage, s.now())
	if errors.Is(err, ErrAmountEmpty) || errors.Is(err, ErrAmountNonPositive) {
		return nil, fmt.Errorf("%w: %v", ErrAmountUnclear, err)
	}
	if err != nil {
		return nil, err
	}

	// The model's confirmation sentence is already the right reply.
	return &Reply{Message: replyText, Intent: IntentExpenseCreation, Expense: recorded}, nil
}

func (s *Service) handleQuery(ctx context.Context, userID uuid.UUID, intent ClassifiedIntent) (*Reply, error) {
	summary, err := s.queries.Execute(ctx, userID, intent.CategoryName, intent.Period, s.now())
	if err != nil {
		return nil, err
	}

	return &Reply{
		Message: FormatQuerySummary(intent.CategoryName, intent.Period, summary),
		Intent:  IntentExpenseQuery,
	}, nil
}

// History returns the user's full conversation, oldest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	return s.messages.History(ctx, userID)
}

// ClearHistory deletes the user's conversation and reports how many messages
// were removed.
func (s *Service) ClearHistory(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.messages.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "cleared chat history",
		slog.String("user_id", userID.String()),
		slog.Int64("deleted", count))
	return count, nil
}

// InitWelcome seeds the welcome message into an empty conversation. It is
// idempotent: the existing message is returned when one is already stored.
func (s *Service) InitWelcome(ctx context.Context, userID uuid.UUID) (*Message, bool, error) {
	existing, err := s.messages.FindAssistantMessage(ctx, userID, WelcomeMessage)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	msg := &Message{UserID: userID, Role: RoleAssistant, Content: WelcomeMessage}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, false, err
	}
	return msg, true, nil
}
