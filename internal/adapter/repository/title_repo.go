package repository

import (
	"context"
	"errors"

	"brain-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatTitleRepository struct {
	db *pgxpool.Pool
}

func NewChatTitleRepository(db *pgxpool.Pool) domain.ChatTitleRepository {
	return &ChatTitleRepository{db: db}
}

func (r *ChatTitleRepository) AcquireNextUntitled(ctx context.Context) (*domain.UntitledChat, error) {
	// Oldest placeholder-titled chat that already has a user message.
	// The lateral join picks the first user message as title material.
	query := `
		SELECT c.id, m.content
		  FROM chats c
		  JOIN LATERAL (
				SELECT content
				  FROM messages
				 WHERE chat_id = c.id
				   AND role = 'user'
				 ORDER BY id ASC
				 LIMIT 1
		  ) m ON true
		 WHERE c.title = $1
		 ORDER BY c.created_at ASC, c.id ASC
		 LIMIT 1
	`

	var job domain.UntitledChat
	err := r.db.QueryRow(ctx, query, domain.DefaultChatTitle).Scan(&job.ChatID, &job.FirstMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("acquire untitled chat", err)
	}
	return &job, nil
}

func (r *ChatTitleRepository) UpdateTitle(ctx context.Context, chatID uuid.UUID, title string) error {
	query := `
		UPDATE chats
		   SET title = $2, updated_at = now()
		 WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, chatID, title); err != nil {
		return domain.NewStorageError("update chat title", err)
	}
	return nil
}
