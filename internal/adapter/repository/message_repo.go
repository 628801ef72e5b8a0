package repository

import (
	"context"

	"brain-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) domain.MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateMessage(ctx context.Context, chatID uuid.UUID, role domain.Role, content string, tokenCount int) (*domain.Message, error) {
	// The id comes from a single store-wide sequence, so concurrent
	// appends to the same chat commit in strictly increasing id order
	// and appends to different chats never contend on anything but the
	// sequence itself.
	query := `
		INSERT INTO messages (chat_id, role, content, token_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, chat_id, role, content, token_count, created_at
	`

	var msg domain.Message
	var roleStr string
	err := r.db.QueryRow(ctx, query, chatID, string(role), content, tokenCount).Scan(
		&msg.ID,
		&msg.ChatID,
		&roleStr,
		&msg.Content,
		&msg.TokenCount,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, domain.NewStorageError("create message", err)
	}
	msg.Role, err = domain.ParseRole(roleStr)
	if err != nil {
		return nil, domain.NewStorageError("create message", err)
	}
	return &msg, nil
}

func (r *MessageRepository) ListMessages(ctx context.Context, chatID uuid.UUID, limit int, cursor *int64) ([]domain.Message, *int64, error) {
	// Fetch the page newest-first so LIMIT selects the right window,
	// then reverse so callers always see conversation-natural order.
	var query string
	var args []any
	if cursor != nil {
		query = `
			SELECT id, chat_id, role, content, token_count, created_at
			  FROM messages
			 WHERE chat_id = $1
			   AND id < $2
			 ORDER BY id DESC
			 LIMIT $3
		`
		args = []any{chatID, *cursor, limit}
	} else {
		query = `
			SELECT id, chat_id, role, content, token_count, created_at
			  FROM messages
			 WHERE chat_id = $1
			 ORDER BY id DESC
			 LIMIT $2
		`
		args = []any{chatID, limit}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, domain.NewStorageError("list messages", err)
	}
	defer rows.Close()

	msgs := make([]domain.Message, 0, limit)
	for rows.Next() {
		var msg domain.Message
		var roleStr string
		if err := rows.Scan(&msg.ID, &msg.ChatID, &roleStr, &msg.Content, &msg.TokenCount, &msg.CreatedAt); err != nil {
			return nil, nil, domain.NewStorageError("scan message", err)
		}
		role, err := domain.ParseRole(roleStr)
		if err != nil {
			return nil, nil, domain.NewStorageError("scan message", err)
		}
		msg.Role = role
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, domain.NewStorageError("list messages", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	var nextCursor *int64
	if len(msgs) == limit && limit > 0 {
		oldest := msgs[0].ID
		nextCursor = &oldest
	}
	return msgs, nextCursor, nil
}
