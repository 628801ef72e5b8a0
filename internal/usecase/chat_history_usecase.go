package usecase

import (
	"context"

	"brain-orchestrator/internal/domain"

	"github.com/google/uuid"
)

const (
	defaultChatPageSize    = 20
	defaultMessagePageSize = 50
	maxPageSize            = 100
)

// ChatHistoryUsecase exposes the paging and deletion operations over the
// durable transcript store.
type ChatHistoryUsecase interface {
	ListChats(ctx context.Context, userID uuid.UUID, limit int, cursor *uuid.UUID) ([]domain.Chat, *uuid.UUID, error)
	ListMessages(ctx context.Context, chatID uuid.UUID, limit int, cursor *int64) ([]domain.Message, *int64, error)
	DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error
}

type chatHistoryUsecase struct {
	chats domain.ChatRepository
	msgs  domain.MessageRepository
}

func NewChatHistoryUsecase(chats domain.ChatRepository, msgs domain.MessageRepository) ChatHistoryUsecase {
	return &chatHistoryUsecase{chats: chats, msgs: msgs}
}

func (u *chatHistoryUsecase) ListChats(ctx context.Context, userID uuid.UUID, limit int, cursor *uuid.UUID) ([]domain.Chat, *uuid.UUID, error) {
	return u.chats.ListChats(ctx, userID, clampLimit(limit, defaultChatPageSize), cursor)
}

func (u *chatHistoryUsecase) ListMessages(ctx context.Context, chatID uuid.UUID, limit int, cursor *int64) ([]domain.Message, *int64, error) {
	return u.msgs.ListMessages(ctx, chatID, clampLimit(limit, defaultMessagePageSize), cursor)
}

func (u *chatHistoryUsecase) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	return u.chats.DeleteChat(ctx, userID, chatID)
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
