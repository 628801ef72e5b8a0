package domain

import (
	"context"

	"github.com/google/uuid"
)

// ChatRepository persists conversations. All failures are reported as
// *StorageError.
type ChatRepository interface {
	// CreateChat inserts a new chat owned by userID.
	CreateChat(ctx context.Context, userID uuid.UUID, title string) (*Chat, error)

	// ListChats returns chats for userID ordered by creation time
	// descending, id as tie-break. When cursor is non-nil only chats
	// strictly older than the cursor chat are returned; a cursor whose
	// chat no longer exists yields an empty page with a nil next
	// cursor, ending pagination. The second return value is the cursor
	// for the next page, nil when the page was not full.
	ListChats(ctx context.Context, userID uuid.UUID, limit int, cursor *uuid.UUID) ([]Chat, *uuid.UUID, error)

	// DeleteChat removes the chat and, via cascade, all of its messages.
	// Deleting a chat that does not exist or belongs to another user is
	// a no-op.
	DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error
}

// UntitledChat is a chat that still carries the placeholder title
// together with the first user message to derive a real title from.
type UntitledChat struct {
	ChatID       uuid.UUID
	FirstMessage string
}

// ChatTitleRepository feeds the background title worker.
type ChatTitleRepository interface {
	// AcquireNextUntitled returns the oldest chat that still has the
	// placeholder title and at least one user message, or nil when
	// there is nothing to do.
	AcquireNextUntitled(ctx context.Context) (*UntitledChat, error)

	// UpdateTitle replaces the chat title. Titling is idempotent, so a
	// concurrent worker racing on the same chat is harmless.
	UpdateTitle(ctx context.Context, chatID uuid.UUID, title string) error
}

// MessageRepository persists the per-chat ordered message log.
type MessageRepository interface {
	// CreateMessage appends one immutable message and assigns the next
	// sequence id. Fails if chatID does not exist.
	CreateMessage(ctx context.Context, chatID uuid.UUID, role Role, content string, tokenCount int) (*Message, error)

	// ListMessages returns up to limit messages in ascending
	// chronological order (oldest first). When cursor is non-nil only
	// messages with id strictly below it are returned. The next cursor
	// is the id of the oldest message of a full page, nil otherwise.
	// An unknown or deleted chat yields an empty page, not an error.
	ListMessages(ctx context.Context, chatID uuid.UUID, limit int, cursor *int64) ([]Message, *int64, error)
}
