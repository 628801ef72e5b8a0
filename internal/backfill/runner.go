package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/infra"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config controls a token recount run.
type Config struct {
	DatabaseURL string
	CursorFile  string
	BatchSize   int
	DryRun      bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CursorFile: "cursor.json",
		BatchSize:  500,
	}
}

// Runner walks the message log in id order and recomputes the stored
// token counts, persisting progress after every batch so an interrupted
// run resumes where it stopped.
type Runner struct {
	cfg    Config
	cursor *CursorManager
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRunner creates a Runner. The database connection is opened lazily
// on Run, so cursor-only commands work without a reachable database.
func NewRunner(cfg Config, logger *slog.Logger) (*Runner, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	return &Runner{
		cfg:    cfg,
		cursor: NewCursorManager(cfg.CursorFile),
		logger: logger,
	}, nil
}

// Run processes the whole message log from the saved cursor onwards.
// Returns context.Canceled when interrupted; the cursor is already
// saved at the last completed batch.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.cursor.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := r.cursor.Unlock(); err != nil {
			r.logger.Warn("failed to release cursor lock", slog.String("error", err.Error()))
		}
	}()

	cursor, err := r.cursor.Load()
	if err != nil {
		return err
	}

	pool, err := infra.NewPostgresDB(ctx, r.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	r.pool = pool
	defer pool.Close()

	started := time.Now()
	r.logger.Info("starting token recount",
		slog.Int64("from_id", cursor.LastID),
		slog.Int("batch_size", r.cfg.BatchSize),
		slog.Bool("dry_run", r.cfg.DryRun),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		processed, updated, lastID, err := r.processBatch(ctx, cursor.LastID)
		if err != nil {
			return err
		}
		if processed == 0 {
			break
		}

		cursor.LastID = lastID
		cursor.ProcessedCount += processed
		cursor.UpdatedCount += updated
		if err := r.cursor.Save(cursor); err != nil {
			return err
		}

		r.logger.Debug("batch done",
			slog.Int64("last_id", lastID),
			slog.Int("processed", cursor.ProcessedCount),
			slog.Int("updated", cursor.UpdatedCount),
		)
	}

	r.logger.Info("token recount finished",
		slog.Int("processed", cursor.ProcessedCount),
		slog.Int("updated", cursor.UpdatedCount),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}

type messageRow struct {
	id         int64
	content    string
	tokenCount int
}

func (r *Runner) processBatch(ctx context.Context, afterID int64) (processed, updated int, lastID int64, err error) {
	query := `
		SELECT id, content, token_count
		  FROM messages
		 WHERE id > $1
		 ORDER BY id ASC
		 LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, afterID, r.cfg.BatchSize)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	batch := make([]messageRow, 0, r.cfg.BatchSize)
	for rows.Next() {
		var row messageRow
		if err := rows.Scan(&row.id, &row.content, &row.tokenCount); err != nil {
			return 0, 0, 0, fmt.Errorf("scan message: %w", err)
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		return 0, 0, 0, fmt.Errorf("read messages: %w", err)
	}
	rows.Close()

	for _, row := range batch {
		want := domain.ApproxTokenCount(row.content)
		if want == row.tokenCount {
			continue
		}
		if r.cfg.DryRun {
			r.logger.Info("would update token count",
				slog.Int64("message_id", row.id),
				slog.Int("stored", row.tokenCount),
				slog.Int("computed", want),
			)
			updated++
			continue
		}
		tag, err := r.pool.Exec(ctx,
			`UPDATE messages SET token_count = $2 WHERE id = $1`,
			row.id, want)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("update message %d: %w", row.id, err)
		}
		updated += int(tag.RowsAffected())
	}

	if len(batch) == 0 {
		return 0, 0, 0, nil
	}
	return len(batch), updated, batch[len(batch)-1].id, nil
}

// GetCursor returns the currently persisted cursor.
func (r *Runner) GetCursor() (Cursor, error) {
	return r.cursor.Load()
}

// ResetCursor clears the persisted cursor.
func (r *Runner) ResetCursor() error {
	return r.cursor.Reset()
}
