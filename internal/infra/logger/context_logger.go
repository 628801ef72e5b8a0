package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

const (
	// Business context keys propagated through one chat turn.
	ChatIDKey ContextKey = "brain.chat.id"
	TurnIDKey ContextKey = "brain.turn.id"
	UserIDKey ContextKey = "brain.user.id"
)

// ContextLogger provides context-aware structured logging so that every
// line emitted inside a turn carries the chat and turn identifiers.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger creates a new context-aware logger.
func NewContextLogger(serviceName string) *ContextLogger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &ContextLogger{
		logger:      slog.New(handler),
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	return FromContext(ctx, cl.logger.With("service", cl.serviceName))
}

// FromContext decorates base with whichever turn identifiers ctx carries.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	var fields []any

	if chatID := ctx.Value(ChatIDKey); chatID != nil {
		fields = append(fields, string(ChatIDKey), chatID)
	}
	if turnID := ctx.Value(TurnIDKey); turnID != nil {
		fields = append(fields, string(TurnIDKey), turnID)
	}
	if userID := ctx.Value(UserIDKey); userID != nil {
		fields = append(fields, string(UserIDKey), userID)
	}

	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}

// WithChatID adds the chat id to context for observability.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, ChatIDKey, chatID)
}

// WithTurnID adds the turn id to context for observability.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, TurnIDKey, turnID)
}

// WithUserID adds the user id to context for observability.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
