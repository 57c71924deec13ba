package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shlok2903/spendora/internal/llm"
)

// fakeMessageStore implements MessageStore in memory. Recent returns stored
// messages newest first, matching the repository contract.
type fakeMessageStore struct {
	messages  []Message
	createErr error
	recentErr error
}

func (f *fakeMessageStore) Create(ctx context.Context, m *Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeMessageStore) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	var out []Message
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].UserID == userID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeMessageStore) History(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	var out []Message
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	var kept []Message
	var deleted int64
	for _, m := range f.messages {
		if m.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	f.messages = kept
	return deleted, nil
}

func (f *fakeMessageStore) FindAssistantMessage(ctx context.Context, userID uuid.UUID, content string) (*Message, error) {
	for _, m := range f.messages {
		if m.UserID == userID && m.Role == RoleAssistant && m.Content == content {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func newTestService(store MessageStore, model llm.Client, writer ExpenseWriter, reader ExpenseReader) *Service {
	logger := testLogger()
	recorder := NewRecorder(writer, model, nil, logger)
	queries := NewQueryExecutor(reader, time.UTC)
	svc := NewService(store, model, recorder, queries, logger)
	svc.now = func() time.Time { return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestHandleMessage_GeneralReplyPassesThrough(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeLLM{replies: map[string]string{
		AssistantSystemPrompt: "Happy to help! What would you like to know?",
	}}
	svc := newTestService(store, model, &fakeExpenseWriter{}, &fakeExpenseReader{})
	userID := uuid.New()

	reply, err := svc.HandleMessage(context.Background(), userID, "hi there")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help! What would you like to know?", reply.Message)
	assert.Equal(t, IntentUnclassified, reply.Intent)

	// Both turns are persisted.
	require.Len(t, store.messages, 2)
	assert.Equal(t, RoleUser, store.messages[0].Role)
	assert.Equal(t, "hi there", store.messages[0].Content)
	assert.Equal(t, RoleAssistant, store.messages[1].Role)
}

func TestHandleMessage_CreationRecordsExpense(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeLLM{replies: map[string]string{
		AssistantSystemPrompt: "I've recorded your food expense of $20.50.",
		NoteSystemPrompt:      "2025-03-15 - Lunch at Chipotle - Food",
	}}
	writer := &fakeExpenseWriter{}
	svc := newTestService(store, model, writer, &fakeExpenseReader{})

	reply, err := svc.HandleMessage(context.Background(), uuid.New(), "I spent $20.50 on lunch at Chipotle")
	require.NoError(t, err)

	assert.Equal(t, IntentExpenseCreation, reply.Intent)
	// The model's confirmation is returned unchanged.
	assert.Equal(t, "I've recorded your food expense of $20.50.", reply.Message)
	require.NotNil(t, reply.Expense)

	assert.Equal(t, "food", writer.gotCategory)
	assert.Equal(t, "20.5", writer.gotAmount.String())
	assert.True(t, writer.gotAt.Equal(time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)))
}

func TestHandleMessage_CreationWithBadAmount(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeLLM{replies: map[string]string{
		AssistantSystemPrompt: "I've recorded your food expense of $..",
	}}
	svc := newTestService(store, model, &fakeExpenseWriter{}, &fakeExpenseReader{})

	_, err := svc.HandleMessage(context.Background(), uuid.New(), "I spent some money on food")
	assert.ErrorIs(t, err, ErrAmountUnclear)
}

func TestHandleMessage_QueryAnswersFromRecords(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeLLM{replies: map[string]string{
		AssistantSystemPrompt: "Based on your records, you spent $[amount] on food last week.",
	}}
	svc := newTestService(store, model, &fakeExpenseWriter{}, &fakeExpenseReader{})

	reply, err := svc.HandleMessage(context.Background(), uuid.New(), "How much did I spend on food last week?")
	require.NoError(t, err)

	assert.Equal(t, IntentExpenseQuery, reply.Intent)
	assert.Equal(t, "Based on your records, you spent $0.00 on food last week.", reply.Message)
}

func TestHandleMessage_EmptyMessage(t *testing.T) {
	svc := newTestService(&fakeMessageStore{}, &fakeLLM{}, &fakeExpenseWriter{}, &fakeExpenseReader{})

	_, err := svc.HandleMessage(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHandleMessage_SaveFailure(t *testing.T) {
	store := &fakeMessageStore{createErr: errors.New("db down")}
	svc := newTestService(store, &fakeLLM{}, &fakeExpenseWriter{}, &fakeExpenseReader{})

	_, err := svc.HandleMessage(context.Background(), uuid.New(), "hello")
	assert.ErrorIs(t, err, ErrMessageSave)
}

func TestHandleMessage_ModelFailure(t *testing.T) {
	store := &fakeMessageStore{}
	model := &fakeLLM{err: llm.ErrUnavailable}
	svc := newTestService(store, model, &fakeExpenseWriter{}, &fakeExpenseReader{})

	_, err := svc.HandleMessage(context.Background(), uuid.New(), "hello")
	assert.ErrorIs(t, err, llm.ErrUnavailable)

	// The user's message is still in the transcript.
	require.Len(t, store.messages, 1)
	assert.Equal(t, RoleUser, store.messages[0].Role)
}

func TestHandleMessage_ContextSkipsCurrentMessageAndRestoresOrder(t *testing.T) {
	store := &fakeMessageStore{}
	userID := uuid.New()

	// Seed two prior exchanges.
	prior := []Message{
		{UserID: userID, Role: RoleUser, Content: "first question"},
		{UserID: userID, Role: RoleAssistant, Content: "first answer"},
		{UserID: userID, Role: RoleUser, Content: "second question"},
		{UserID: userID, Role: RoleAssistant, Content: "second answer"},
	}
	for i := range prior {
		require.NoError(t, store.Create(context.Background(), &prior[i]))
	}

	model := &fakeLLM{replies: map[string]string{AssistantSystemPrompt: "sure"}}
	svc := newTestService(store, model, &fakeExpenseWriter{}, &fakeExpenseReader{})

	_, err := svc.HandleMessage(context.Background(), userID, "third question")
	require.NoError(t, err)

	require.Len(t, model.calls, 1)
	history := model.calls[0].history
	require.Len(t, history, 4)
	assert.Equal(t, "first question", history[0].Content)
	assert.Equal(t, "first answer", history[1].Content)
	assert.Equal(t, "second question", history[2].Content)
	assert.Equal(t, "second answer", history[3].Content)
	assert.Equal(t, "third question", model.calls[0].user)
}

func TestHandleMessage_ContextFetchFailureIsNonFatal(t *testing.T) {
	store := &fakeMessageStore{recentErr: errors.New("db hiccup")}
	model := &fakeLLM{replies: map[string]string{AssistantSystemPrompt: "hello!"}}
	svc := newTestService(store, model, &fakeExpenseWriter{}, &fakeExpenseReader{})

	reply, err := svc.HandleMessage(context.Background(), uuid.New(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello!", reply.Message)
	require.Len(t, model.calls, 1)
	assert.Empty(t, model.calls[0].history)
}

func TestInitWelcome_Idempotent(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newTestService(store, &fakeLLM{}, &fakeExpenseWriter{}, &fakeExpenseReader{})
	userID := uuid.New()

	first, created, err := svc.InitWelcome(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, WelcomeMessage, first.Content)

	second, created, err := svc.InitWelcome(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestClearHistory(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newTestService(store, &fakeLLM{}, &fakeExpenseWriter{}, &fakeExpenseReader{})
	userID := uuid.New()

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, store.Create(context.Background(), &Message{UserID: userID, Role: RoleUser, Content: content}))
	}

	count, err := svc.ClearHistory(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	history, err := svc.History(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
