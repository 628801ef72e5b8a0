package repository

import (
	"context"
	"errors"
	"time"

	"brain-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) domain.ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) CreateChat(ctx context.Context, userID uuid.UUID, title string) (*domain.Chat, error) {
	query := `
		INSERT INTO chats (id, user_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, title, created_at, updated_at
	`

	var chat domain.Chat
	err := r.db.QueryRow(ctx, query, uuid.New(), userID, title).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, domain.NewStorageError("create chat", err)
	}
	return &chat, nil
}

func (r *ChatRepository) ListChats(ctx context.Context, userID uuid.UUID, limit int, cursor *uuid.UUID) ([]domain.Chat, *uuid.UUID, error) {
	// Ordering key is (created_at, id), not the cursor id alone, so
	// pages never repeat or skip when newer chats are inserted between
	// requests.
	var query string
	var args []any
	if cursor != nil {
		// Resolve the cursor row first instead of a correlated subquery:
		// a deleted cursor chat would make the subquery NULL and the
		// comparison match nothing, which is indistinguishable from a
		// genuine end of results. A vanished cursor ends pagination
		// explicitly with an empty page and no next cursor.
		var cursorCreatedAt time.Time
		err := r.db.QueryRow(ctx, `SELECT created_at FROM chats WHERE id = $1`, *cursor).
			Scan(&cursorCreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Chat{}, nil, nil
		}
		if err != nil {
			return nil, nil, domain.NewStorageError("resolve chat cursor", err)
		}

		query = `
			SELECT id, user_id, title, created_at, updated_at
			  FROM chats
			 WHERE user_id = $1
			   AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4
		`
		args = []any{userID, cursorCreatedAt, *cursor, limit}
	} else {
		query = `
			SELECT id, user_id, title, created_at, updated_at
			  FROM chats
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2
		`
		args = []any{userID, limit}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, domain.NewStorageError("list chats", err)
	}
	defer rows.Close()

	chats := make([]domain.Chat, 0, limit)
	for rows.Next() {
		var chat domain.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, nil, domain.NewStorageError("scan chat", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, domain.NewStorageError("list chats", err)
	}

	var nextCursor *uuid.UUID
	if len(chats) == limit && limit > 0 {
		last := chats[len(chats)-1].ID
		nextCursor = &last
	}
	return chats, nextCursor, nil
}

func (r *ChatRepository) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	// Owner-scoped delete; ON DELETE CASCADE removes the messages.
	// Zero rows affected is not an error: the operation is idempotent.
	query := `
		DELETE FROM chats
		 WHERE id = $1
		   AND user_id = $2
	`

	if _, err := r.db.Exec(ctx, query, chatID, userID); err != nil {
		return domain.NewStorageError("delete chat", err)
	}
	return nil
}
