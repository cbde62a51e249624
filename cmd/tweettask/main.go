package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abdulachik/tweettask/internal/app"
	"github.com/abdulachik/tweettask/internal/config"
	"github.com/abdulachik/tweettask/internal/credentials"
)

var rootCmd = &cobra.Command{
	Use:   "tweettask",
	Short: "Run Twitter media upload and status tasks",
	Long: `tweettask uploads media, posts statuses and fetches statuses and
upload progress through the Twitter REST API.

Credentials are read from TWITTER_* environment variables (or .env):
a bearer token, a full user context, or an app-only consumer pair.`,
	SilenceUsage: true,
}

func init() {
	// Load .env file if present
	_ = godotenv.Load()

	// Set up logging
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	})))
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openApp loads configuration, resolves credentials and wires the app.
// Posting commands require user-context credentials.
func openApp(ctx context.Context, posting bool) (*app.App, credentials.Credentials, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	validate := cfg.ValidateForTasks
	if posting {
		validate = cfg.ValidateForPosting
	}
	if err := validate(); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve credentials: %w", err)
	}
	slog.Debug("resolved credentials", "kind", creds.Kind())

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create app: %w", err)
	}
	return a, creds, nil
}
