package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"brain-orchestrator/internal/backfill"
)

var (
	version = "dev"

	// Global flags
	verbose    bool
	cursorFile string

	// Run command flags
	batchSize int
	dryRun    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "backfill",
	Short:   "Recount stored message token counts",
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the token recount",
	Long: `Walk the message log and recompute each stored token count with the
current tokenizer approximation, updating rows that drifted.

The process can be resumed from where it left off using cursor tracking.

Examples:
  # Process all messages (resumes from cursor)
  backfill run

  # Dry run to see what would be updated
  backfill run --dry-run

  # Larger batches
  backfill run --batch-size 2000`,
	RunE: runRecount,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current cursor status",
	RunE:  showStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset-cursor",
	Short: "Reset the cursor to start from beginning",
	RunE:  resetCursor,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cursorFile, "cursor-file", "cursor.json", "cursor file path")

	runCmd.Flags().IntVar(&batchSize, "batch-size", 500, "messages per batch")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be updated without writing")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func runRecount(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	logger := newLogger()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg := backfill.DefaultConfig()
	cfg.DatabaseURL = dbURL
	cfg.CursorFile = cursorFile
	cfg.BatchSize = batchSize
	cfg.DryRun = dryRun

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner, err := backfill.NewRunner(cfg, logger)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	// Setup signal handler for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", slog.String("signal", sig.String()))
		cancel()
	}()

	if err := runner.Run(ctx); err != nil {
		if err == context.Canceled {
			logger.Info("recount interrupted, cursor saved for resume")
			return nil
		}
		return fmt.Errorf("run recount: %w", err)
	}

	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg := backfill.DefaultConfig()
	cfg.CursorFile = cursorFile

	runner, err := backfill.NewRunner(cfg, logger)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	cursor, err := runner.GetCursor()
	if err != nil {
		return fmt.Errorf("get cursor: %w", err)
	}

	if cursor.IsEmpty() {
		fmt.Println("No cursor found. Recount will start from the beginning.")
		return nil
	}

	fmt.Printf("Cursor Status:\n")
	fmt.Printf("  Version:         %d\n", cursor.Version)
	fmt.Printf("  Last ID:         %d\n", cursor.LastID)
	fmt.Printf("  Processed Count: %d\n", cursor.ProcessedCount)
	fmt.Printf("  Updated Count:   %d\n", cursor.UpdatedCount)
	fmt.Printf("  Updated At:      %s\n", cursor.UpdatedAt.Format(time.RFC3339))

	return nil
}

func resetCursor(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg := backfill.DefaultConfig()
	cfg.CursorFile = cursorFile

	runner, err := backfill.NewRunner(cfg, logger)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	if err := runner.ResetCursor(); err != nil {
		return fmt.Errorf("reset cursor: %w", err)
	}

	logger.Info("cursor reset successfully")
	return nil
}
