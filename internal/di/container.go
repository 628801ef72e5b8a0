package di

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"brain-orchestrator/internal/adapter/llm"
	"brain-orchestrator/internal/adapter/market"
	"brain-orchestrator/internal/adapter/repository"
	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/infra/config"
	"brain-orchestrator/internal/infra/httpclient"
	"brain-orchestrator/internal/usecase"
	"brain-orchestrator/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Repositories
	ChatRepo    domain.ChatRepository
	MessageRepo domain.MessageRepository
	TitleRepo   domain.ChatTitleRepository

	// Usecases
	TurnUsecase    usecase.StreamTurnUsecase
	HistoryUsecase usecase.ChatHistoryUsecase

	// Worker
	Worker *worker.TitleWorker
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Repositories
	chatRepo := repository.NewChatRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	titleRepo := repository.NewChatTitleRepository(pool)

	// Enrichment sources share one limiter so the combined request rate
	// against the sibling services stays bounded.
	limiter := rate.NewLimiter(rate.Limit(cfg.SourceRatePerSec), int(cfg.SourceRatePerSec))
	sentiment := market.NewSentimentClient(cfg.XServiceURL, cfg.SourceTimeout, limiter)
	price := market.NewPriceClient(cfg.XServiceURL, cfg.SourceTimeout, limiter)
	trend := market.NewTrendClient(cfg.MLServiceURL, cfg.SourceTimeout, limiter)

	// LLM client over a pooled HTTP transport; the generous timeout
	// covers the full streamed completion, not a single request hop.
	llmClient := llm.NewOpenAIStreamClient(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		cfg.LLMTemperature,
		httpclient.NewPooledClient(cfg.LLMTimeout),
	)

	// Domain services
	extractor := domain.NewTickerExtractor()

	// Usecases
	aggregator := usecase.NewContextAggregator(
		sentiment, price, trend,
		cfg.SourceTimeout, cfg.EnrichmentCacheTTL, log,
	)
	turnUsecase := usecase.NewStreamTurnUsecase(
		chatRepo, messageRepo, extractor, aggregator, llmClient,
		cfg.HistoryLimit, log,
	)
	historyUsecase := usecase.NewChatHistoryUsecase(chatRepo, messageRepo)

	// Worker
	titleWorker := worker.NewTitleWorker(titleRepo, log)

	return &ApplicationComponents{
		ChatRepo:       chatRepo,
		MessageRepo:    messageRepo,
		TitleRepo:      titleRepo,
		TurnUsecase:    turnUsecase,
		HistoryUsecase: historyUsecase,
		Worker:         titleWorker,
	}
}
