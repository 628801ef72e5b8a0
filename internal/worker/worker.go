package worker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"brain-orchestrator/internal/domain"
)

const (
	defaultPollInterval = 5 * time.Second
	jobTimeout          = 10 * time.Second
	initialBackoff      = 1 * time.Second
	maxBackoff          = 5 * time.Minute

	maxTitleRunes = 60
)

// TitleWorker replaces the placeholder title of freshly created chats
// with a title derived from the first user message. Titling is
// idempotent, so the single-row poll needs no cross-process locking.
type TitleWorker struct {
	titleRepo domain.ChatTitleRepository
	logger    *slog.Logger
	stopChan  chan struct{}
	backoff   time.Duration
}

func NewTitleWorker(titleRepo domain.ChatTitleRepository, logger *slog.Logger) *TitleWorker {
	return &TitleWorker{
		titleRepo: titleRepo,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

func (w *TitleWorker) Start() {
	w.logger.Info("starting title worker")
	go w.run()
}

func (w *TitleWorker) Stop() {
	w.logger.Info("stopping title worker")
	close(w.stopChan)
}

func (w *TitleWorker) run() {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processNext()
			if w.backoff > 0 {
				ticker.Reset(w.backoff)
			} else {
				ticker.Reset(defaultPollInterval)
			}
		}
	}
}

func (w *TitleWorker) processNext() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	job, err := w.titleRepo.AcquireNextUntitled(ctx)
	if err != nil {
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("title worker backing off",
			slog.Duration("backoff", w.backoff),
			slog.String("error", err.Error()))
		return
	}
	if job == nil {
		w.backoff = 0
		return // nothing to title
	}

	title := DeriveTitle(job.FirstMessage)
	if err := w.titleRepo.UpdateTitle(ctx, job.ChatID, title); err != nil {
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("title worker backing off",
			slog.String("chat_id", job.ChatID.String()),
			slog.Duration("backoff", w.backoff),
			slog.String("error", err.Error()))
		return
	}

	w.backoff = 0
	w.logger.Info("chat titled",
		slog.String("chat_id", job.ChatID.String()),
		slog.String("title", title))
}

func (w *TitleWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

// DeriveTitle condenses the first user message into a short chat title:
// collapsed whitespace, cut at a word boundary, capped at maxTitleRunes.
func DeriveTitle(message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return domain.DefaultChatTitle
	}

	var b strings.Builder
	for i, word := range fields {
		candidate := b.Len()
		if i > 0 {
			candidate++ // joining space
		}
		if candidate+len(word) > maxTitleRunes && b.Len() > 0 {
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}

	title := b.String()
	if len([]rune(title)) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes])
	}
	return title
}
