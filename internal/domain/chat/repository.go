package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shlok2903/spendora/pkg/db"
)

// Repository implements chat message persistence on PostgreSQL.
type Repository struct {
	db db.Conn
}

// NewRepository creates a new chat repository.
func NewRepository(db db.Conn) *Repository {
	return &Repository{db: db}
}

const messageColumns = `id, user_id, role, content, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	if err := row.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new chat message.
func (r *Repository) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO chat_messages (id, user_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query, m.ID, m.UserID, m.Role, m.Content).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// Recent returns the user's newest messages, newest first, up to limit.
func (r *Repository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// History returns the user's full conversation, oldest first.
func (r *Repository) History(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// DeleteAll removes the user's conversation and reports how many messages
// were removed.
func (r *Repository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear chat history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FindAssistantMessage returns the user's oldest assistant message with the
// exact content, or nil when absent.
func (r *Repository) FindAssistantMessage(ctx context.Context, userID uuid.UUID, content string) (*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE user_id = $1 AND role = $2 AND content = $3
		ORDER BY created_at ASC
		LIMIT 1`

	m, err := scanMessage(r.db.QueryRow(ctx, query, userID, RoleAssistant, content))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assistant message: %w", err)
	}
	return m, nil
}

func collectMessages(rows pgx.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}
