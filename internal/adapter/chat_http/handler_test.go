package chat_http_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"brain-orchestrator/internal/adapter/chat_http"
	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTurnUsecase struct {
	chunks   []usecase.StreamChunk
	gotInput usecase.StreamTurnInput
}

func (s *stubTurnUsecase) Stream(ctx context.Context, input usecase.StreamTurnInput) <-chan usecase.StreamChunk {
	s.gotInput = input
	out := make(chan usecase.StreamChunk, len(s.chunks))
	for _, chunk := range s.chunks {
		out <- chunk
	}
	close(out)
	return out
}

type stubHistoryUsecase struct {
	chats      []domain.Chat
	chatCursor *uuid.UUID
	msgs       []domain.Message
	msgCursor  *int64
	deletedTo  []uuid.UUID
	err        error
}

func (s *stubHistoryUsecase) ListChats(ctx context.Context, userID uuid.UUID, limit int, cursor *uuid.UUID) ([]domain.Chat, *uuid.UUID, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.chats, s.chatCursor, nil
}

func (s *stubHistoryUsecase) ListMessages(ctx context.Context, chatID uuid.UUID, limit int, cursor *int64) ([]domain.Message, *int64, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.msgs, s.msgCursor, nil
}

func (s *stubHistoryUsecase) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.deletedTo = append(s.deletedTo, chatID)
	return nil
}

func newTestServer(turn *stubTurnUsecase, history *stubHistoryUsecase) *echo.Echo {
	e := echo.New()
	handler := chat_http.NewHandler(turn, history, slog.Default())
	handler.RegisterRoutes(e)
	return e
}

func TestStreamChat_SSE(t *testing.T) {
	turn := &stubTurnUsecase{chunks: []usecase.StreamChunk{
		{Content: "Hello"},
		{Content: " world"},
		{IsFinal: true, TokensUsed: 2},
	}}
	e := newTestServer(turn, &stubHistoryUsecase{})

	userID := uuid.New()
	body := fmt.Sprintf(`{"user_id":%q,"message":"What about $TSLA?"}`, userID)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/event-stream")

	events := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.Len(t, events, 3)
	assert.Equal(t, `data: {"content":"Hello","is_final":false,"tokens_used":0}`, events[0])
	assert.Contains(t, events[2], `"is_final":true`)
	assert.Contains(t, events[2], `"tokens_used":2`)

	assert.Equal(t, userID, turn.gotInput.UserID)
	assert.Nil(t, turn.gotInput.ChatID)
	assert.Equal(t, "What about $TSLA?", turn.gotInput.Content)
}

func TestStreamChat_ExistingChatID(t *testing.T) {
	turn := &stubTurnUsecase{chunks: []usecase.StreamChunk{{IsFinal: true}}}
	e := newTestServer(turn, &stubHistoryUsecase{})

	chatID := uuid.New()
	body := fmt.Sprintf(`{"user_id":%q,"chat_id":%q,"message":"more"}`, uuid.New(), chatID)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, turn.gotInput.ChatID)
	assert.Equal(t, chatID, *turn.gotInput.ChatID)
}

func TestStreamChat_Validation(t *testing.T) {
	e := newTestServer(&stubTurnUsecase{}, &stubHistoryUsecase{})

	tests := []struct {
		name string
		body string
	}{
		{"missing user id", `{"message":"hi"}`},
		{"bad user id", `{"user_id":"nope","message":"hi"}`},
		{"empty message", fmt.Sprintf(`{"user_id":%q}`, uuid.New())},
		{"bad chat id", fmt.Sprintf(`{"user_id":%q,"chat_id":"nope","message":"hi"}`, uuid.New())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListChats(t *testing.T) {
	userID := uuid.New()
	chatID := uuid.New()
	next := uuid.New()
	history := &stubHistoryUsecase{
		chats: []domain.Chat{{
			ID:        chatID,
			UserID:    userID,
			Title:     "New chat",
			CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}},
		chatCursor: &next,
	}
	e := newTestServer(&stubTurnUsecase{}, history)

	req := httptest.NewRequest(http.MethodGet, "/v1/chats?user_id="+userID.String()+"&limit=1", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), chatID.String())
	assert.Contains(t, rec.Body.String(), next.String())
}

func TestListMessages_WithCursor(t *testing.T) {
	chatID := uuid.New()
	cursor := int64(42)
	history := &stubHistoryUsecase{
		msgs: []domain.Message{{
			ID:      41,
			ChatID:  chatID,
			Role:    domain.RoleUser,
			Content: "hello",
		}},
		msgCursor: &cursor,
	}
	e := newTestServer(&stubTurnUsecase{}, history)

	req := httptest.NewRequest(http.MethodGet, "/v1/chats/"+chatID.String()+"/messages?cursor=50", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"next_cursor":"42"`)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)
}

func TestListMessages_BadCursor(t *testing.T) {
	e := newTestServer(&stubTurnUsecase{}, &stubHistoryUsecase{})

	req := httptest.NewRequest(http.MethodGet, "/v1/chats/"+uuid.NewString()+"/messages?cursor=abc", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteChat(t *testing.T) {
	history := &stubHistoryUsecase{}
	e := newTestServer(&stubTurnUsecase{}, history)

	chatID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/chats/"+chatID.String()+"?user_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, history.deletedTo, 1)
	assert.Equal(t, chatID, history.deletedTo[0])
}

func TestListChats_StorageErrorMapsTo500(t *testing.T) {
	history := &stubHistoryUsecase{
		err: domain.NewStorageError("list chats", context.DeadlineExceeded),
	}
	e := newTestServer(&stubTurnUsecase{}, history)

	req := httptest.NewRequest(http.MethodGet, "/v1/chats?user_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage unavailable")
}
