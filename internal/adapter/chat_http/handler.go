package chat_http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/infra/logger"
	"brain-orchestrator/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	turnUsecase    usecase.StreamTurnUsecase
	historyUsecase usecase.ChatHistoryUsecase
	logger         *slog.Logger
}

func NewHandler(
	turnUsecase usecase.StreamTurnUsecase,
	historyUsecase usecase.ChatHistoryUsecase,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		turnUsecase:    turnUsecase,
		historyUsecase: historyUsecase,
		logger:         logger,
	}
}

// RegisterRoutes wires the chat surface onto the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/chat/stream", h.StreamChat)
	e.GET("/v1/chats", h.ListChats)
	e.GET("/v1/chats/:id/messages", h.ListMessages)
	e.DELETE("/v1/chats/:id", h.DeleteChat)
}

type streamChatRequest struct {
	UserID  string `json:"user_id"`
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type messageResponse struct {
	ID         int64  `json:"id"`
	ChatID     string `json:"chat_id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	TokenCount int    `json:"token_count"`
	CreatedAt  string `json:"created_at"`
}

// StreamChat runs one turn and delivers the answer over Server-Sent
// Events: one data event per chunk, terminated by exactly one event
// with is_final set.
// (POST /v1/chat/stream)
func (h *Handler) StreamChat(c echo.Context) error {
	var req streamChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	input := usecase.StreamTurnInput{
		UserID:  userID,
		Content: req.Message,
	}
	if req.ChatID != "" {
		chatID, err := uuid.Parse(req.ChatID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid chat_id"})
		}
		input.ChatID = &chatID
	}

	setStreamingHeaders(c)

	ctx := logger.WithUserID(c.Request().Context(), userID.String())
	for chunk := range h.turnUsecase.Stream(ctx, input) {
		payload, err := json.Marshal(chunk)
		if err != nil {
			h.logger.Error("failed to marshal stream chunk", slog.String("error", err.Error()))
			return err
		}
		if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", payload); err != nil {
			// Caller went away; the usecase observes the context
			// cancellation and abandons the turn.
			h.logger.Info("stream client disconnected")
			return nil
		}
		c.Response().Flush()
	}
	return nil
}

// List chats for a user, newest first, cursor-paginated.
// (GET /v1/chats)
func (h *Handler) ListChats(c echo.Context) error {
	userID, err := uuid.Parse(c.QueryParam("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
	}

	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
	}

	var cursor *uuid.UUID
	if raw := c.QueryParam("cursor"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid cursor"})
		}
		cursor = &parsed
	}

	chats, nextCursor, err := h.historyUsecase.ListChats(c.Request().Context(), userID, limit, cursor)
	if err != nil {
		return h.storageError(c, err)
	}

	items := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		items = append(items, chatResponse{
			ID:        chat.ID.String(),
			UserID:    chat.UserID.String(),
			Title:     chat.Title,
			CreatedAt: chat.CreatedAt.Format(time.RFC3339),
			UpdatedAt: chat.UpdatedAt.Format(time.RFC3339),
		})
	}

	resp := map[string]any{"chats": items}
	if nextCursor != nil {
		resp["next_cursor"] = nextCursor.String()
	}
	return c.JSON(http.StatusOK, resp)
}

// List messages of a chat in chronological order, cursor-paginated
// backwards through history.
// (GET /v1/chats/:id/messages)
func (h *Handler) ListMessages(c echo.Context) error {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
	}

	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
	}

	var cursor *int64
	if raw := c.QueryParam("cursor"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid cursor"})
		}
		cursor = &parsed
	}

	msgs, nextCursor, err := h.historyUsecase.ListMessages(c.Request().Context(), chatID, limit, cursor)
	if err != nil {
		return h.storageError(c, err)
	}

	items := make([]messageResponse, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, messageResponse{
			ID:         msg.ID,
			ChatID:     msg.ChatID.String(),
			Role:       string(msg.Role),
			Content:    msg.Content,
			TokenCount: msg.TokenCount,
			CreatedAt:  msg.CreatedAt.Format(time.RFC3339),
		})
	}

	resp := map[string]any{"messages": items}
	if nextCursor != nil {
		resp["next_cursor"] = strconv.FormatInt(*nextCursor, 10)
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete a chat and, via cascade, its messages. Idempotent.
// (DELETE /v1/chats/:id)
func (h *Handler) DeleteChat(c echo.Context) error {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
	}
	userID, err := uuid.Parse(c.QueryParam("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
	}

	if err := h.historyUsecase.DeleteChat(c.Request().Context(), userID, chatID); err != nil {
		return h.storageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) storageError(c echo.Context, err error) error {
	var storageErr *domain.StorageError
	if errors.As(err, &storageErr) {
		h.logger.Error("storage operation failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}

func setStreamingHeaders(c echo.Context) {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
}
