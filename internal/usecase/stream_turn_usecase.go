package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/infra/logger"
	"brain-orchestrator/internal/infra/metrics"

	"github.com/google/uuid"
)

// StreamTurnInput carries one inbound message. A nil ChatID means the
// chat is created on demand and adopted for the rest of the turn.
type StreamTurnInput struct {
	UserID  uuid.UUID
	ChatID  *uuid.UUID
	Content string
}

// StreamChunk is one element of the streamed response. Non-final chunks
// carry a fragment and a zero token count; the single final chunk
// carries either the error text or an empty body with the true total.
type StreamChunk struct {
	Content    string `json:"content"`
	IsFinal    bool   `json:"is_final"`
	TokensUsed int    `json:"tokens_used"`
}

// StreamTurnUsecase drives one chat turn: resolve the chat, persist the
// inbound message, gather market context, stream the model answer, and
// persist the finalized assistant message.
type StreamTurnUsecase interface {
	Stream(ctx context.Context, input StreamTurnInput) <-chan StreamChunk
}

type streamTurnUsecase struct {
	chats        domain.ChatRepository
	msgs         domain.MessageRepository
	extractor    *domain.TickerExtractor
	aggregator   ContextAggregator
	llm          domain.StreamingLLMClient
	historyLimit int
	logger       *slog.Logger
}

func NewStreamTurnUsecase(
	chats domain.ChatRepository,
	msgs domain.MessageRepository,
	extractor *domain.TickerExtractor,
	aggregator ContextAggregator,
	llm domain.StreamingLLMClient,
	historyLimit int,
	logger *slog.Logger,
) StreamTurnUsecase {
	return &streamTurnUsecase{
		chats:        chats,
		msgs:         msgs,
		extractor:    extractor,
		aggregator:   aggregator,
		llm:          llm,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// Stream runs the turn on its own goroutine and closes the returned
// channel once a terminal state is reached. The caller observes either a
// complete answer ending in an empty final chunk with the token total,
// or a single error-bearing final chunk; never a hanging stream.
func (u *streamTurnUsecase) Stream(ctx context.Context, input StreamTurnInput) <-chan StreamChunk {
	// Capacity 1 keeps at most a single chunk in flight between the
	// turn and the transport, mirroring the adapter's channel.
	out := make(chan StreamChunk, 1)
	go func() {
		defer close(out)
		u.run(ctx, input, out)
	}()
	return out
}

func (u *streamTurnUsecase) run(ctx context.Context, input StreamTurnInput, out chan<- StreamChunk) {
	start := time.Now()

	if strings.TrimSpace(input.Content) == "" {
		u.fail(ctx, out, start, "message content is required")
		return
	}

	// Resolving Chat: adopt the supplied id as-is, or create one on
	// demand. Existence of a supplied id is enforced transitively by
	// the inbound CreateMessage below.
	var chatID uuid.UUID
	if input.ChatID != nil {
		chatID = *input.ChatID
	} else {
		chat, err := u.chats.CreateChat(ctx, input.UserID, domain.DefaultChatTitle)
		if err != nil {
			u.fail(ctx, out, start, err.Error())
			return
		}
		chatID = chat.ID
	}

	// Identifiers ride the context so every log line of this turn, here
	// and in the transport, carries them.
	ctx = logger.WithChatID(ctx, chatID.String())
	ctx = logger.WithTurnID(ctx, uuid.NewString())
	log := logger.FromContext(ctx, u.logger)

	// Persisting Inbound: the user's message is durable before any
	// model call, so a later failure never loses the inbound text.
	inboundTokens := domain.ApproxTokenCount(input.Content)
	if _, err := u.msgs.CreateMessage(ctx, chatID, domain.RoleUser, input.Content, inboundTokens); err != nil {
		u.fail(ctx, out, start, err.Error())
		return
	}

	// Gathering Context: individual source failures were already
	// degraded to placeholders inside the aggregator; this stage never
	// blocks generation.
	tickers := u.extractor.Extract(input.Content)
	bundles := u.aggregator.Gather(ctx, tickers)
	contextLines := ContextLines(tickers, bundles)

	historyLines, err := u.fetchHistory(ctx, chatID)
	if err != nil {
		u.fail(ctx, out, start, err.Error())
		return
	}

	prompt := BuildChatPrompt(input.Content, contextLines, historyLines)

	chunkCh, errCh, err := u.llm.GenerateStream(ctx, prompt)
	if err != nil {
		genErr := &domain.GenerationError{Err: err}
		log.Error("generation setup failed", slog.String("error", genErr.Error()))
		u.fail(ctx, out, start, fmt.Sprintf("[LLM error] %v", err))
		return
	}

	// Streaming: forward fragments in emission order while accumulating
	// the answer and an approximate token total.
	var builder strings.Builder
	totalTokens := 0
	chunkStream := chunkCh
	errStream := errCh

	for chunkStream != nil || errStream != nil {
		select {
		case <-ctx.Done():
			// Caller cancelled. The model call is abandoned and the
			// partial answer is intentionally not persisted: the chat
			// keeps only the inbound message.
			log.Info("turn cancelled",
				slog.Int("partial_tokens", totalTokens),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()))
			metrics.TurnsTotal.WithLabelValues("error").Inc()
			metrics.TurnDuration.Observe(time.Since(start).Seconds())
			return
		case chunk, ok := <-chunkStream:
			if !ok {
				chunkStream = nil
				continue
			}
			if !u.forward(ctx, out, chunk, &builder, &totalTokens) {
				return
			}
		case streamErr, ok := <-errStream:
			if !ok {
				errStream = nil
				continue
			}
			// The producer sends fragments and the error from one
			// goroutine, so anything emitted before the failure is
			// already buffered in chunkStream. Forward it first: an
			// error must never erase a fragment that won its race.
			for drained := false; !drained && chunkStream != nil; {
				select {
				case chunk, ok := <-chunkStream:
					if !ok {
						chunkStream = nil
						continue
					}
					if !u.forward(ctx, out, chunk, &builder, &totalTokens) {
						return
					}
				default:
					drained = true
				}
			}
			// Mid-stream failure: one final error chunk, no partial
			// assistant message is persisted.
			genErr := &domain.GenerationError{Err: streamErr}
			log.Error("generation failed mid-stream", slog.String("error", genErr.Error()))
			u.fail(ctx, out, start, fmt.Sprintf("[LLM error] %v", streamErr))
			return
		}
	}

	// Finalizing: disclaimer exactly once, then the durable assistant
	// message with the true total, then the terminal chunk.
	fullAnswer := AppendDisclaimer(builder.String())
	if _, err := u.msgs.CreateMessage(ctx, chatID, domain.RoleAssistant, fullAnswer, totalTokens); err != nil {
		u.fail(ctx, out, start, err.Error())
		return
	}

	u.send(ctx, out, StreamChunk{IsFinal: true, TokensUsed: totalTokens})
	metrics.TurnsTotal.WithLabelValues("success").Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	metrics.TokensStreamed.Add(float64(totalTokens))
	log.Info("turn completed",
		slog.Int("tokens", totalTokens),
		slog.Int("context_tickers", len(tickers)),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()))
}

// forward accumulates one model fragment and relays it to the caller.
// Returns false when the caller is gone.
func (u *streamTurnUsecase) forward(ctx context.Context, out chan<- StreamChunk, chunk domain.LLMStreamChunk, builder *strings.Builder, totalTokens *int) bool {
	if chunk.Content == "" {
		return true
	}
	builder.WriteString(chunk.Content)
	*totalTokens += domain.ApproxTokenCount(chunk.Content)
	if !u.send(ctx, out, StreamChunk{Content: chunk.Content}) {
		return false
	}
	metrics.ChunksStreamed.Inc()
	return true
}

// fetchHistory returns prior message bodies oldest-first, system rows
// excluded.
func (u *streamTurnUsecase) fetchHistory(ctx context.Context, chatID uuid.UUID) ([]string, error) {
	history, _, err := u.msgs.ListMessages(ctx, chatID, u.historyLimit, nil)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		if msg.Role == domain.RoleSystem {
			continue
		}
		lines = append(lines, msg.Content)
	}
	return lines, nil
}

func (u *streamTurnUsecase) fail(ctx context.Context, out chan<- StreamChunk, start time.Time, msg string) {
	u.send(ctx, out, StreamChunk{Content: msg, IsFinal: true})
	metrics.TurnsTotal.WithLabelValues("error").Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
}

func (u *streamTurnUsecase) send(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- chunk:
		return true
	}
}
