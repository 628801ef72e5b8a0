package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message. The set is closed: anything
// outside the three constants is rejected at the boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole converts a wire string into a Role, rejecting unknown tags.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s), nil
	default:
		return "", &ValidationError{Field: "role", Reason: "unknown role " + s}
	}
}

// DefaultChatTitle is the placeholder set when a chat is created on
// demand; the title worker later replaces it with a derived title.
const DefaultChatTitle = "New chat"

// Chat is one conversation owned by a single user.
type Chat struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one immutable entry in a chat transcript. IDs come from a
// single store-wide sequence, so within a chat they are strictly increasing
// and equal to chronological order.
type Message struct {
	ID         int64
	ChatID     uuid.UUID
	Role       Role
	Content    string
	TokenCount int
	CreatedAt  time.Time
}
