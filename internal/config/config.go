package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abdulachik/tweettask/internal/credentials"
	"github.com/abdulachik/tweettask/internal/twitterapi"
)

// HistoryDisabled is the HISTORY_PATH value that turns run history off.
const HistoryDisabled = "off"

// Config holds all application configuration.
type Config struct {
	// Twitter credentials
	BearerToken       string
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string

	// Twitter endpoints
	APIBaseURL    string
	UploadBaseURL string
	TokenURL      string

	// Uploads
	ChunkSize int

	// Task execution
	Workers        int
	RequestTimeout time.Duration

	// Run history database ("off" disables it)
	HistoryPath string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BearerToken:       getEnv("TWITTER_BEARER_TOKEN", ""),
		ConsumerKey:       getEnv("TWITTER_CONSUMER_KEY", ""),
		ConsumerSecret:    getEnv("TWITTER_CONSUMER_SECRET", ""),
		AccessToken:       getEnv("TWITTER_ACCESS_TOKEN", ""),
		AccessTokenSecret: getEnv("TWITTER_ACCESS_TOKEN_SECRET", ""),
		APIBaseURL:        getEnv("TWITTER_API_BASE_URL", twitterapi.DefaultAPIBaseURL),
		UploadBaseURL:     getEnv("TWITTER_UPLOAD_BASE_URL", twitterapi.DefaultUploadBaseURL),
		TokenURL:          getEnv("TWITTER_TOKEN_URL", credentials.DefaultTokenURL),
		HistoryPath:       getEnv("HISTORY_PATH", "data/tweettask.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	cfg.Workers, err = strconv.Atoi(getEnv("WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKERS: %w", err)
	}

	cfg.ChunkSize, err = strconv.Atoi(getEnv("UPLOAD_CHUNK_SIZE", strconv.Itoa(twitterapi.DefaultChunkSize)))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_CHUNK_SIZE: %w", err)
	}

	return cfg, nil
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if c.ChunkSize <= 0 || c.ChunkSize > twitterapi.MaxChunkSize {
		return fmt.Errorf("UPLOAD_CHUNK_SIZE must be between 1 and %d bytes, got %d", twitterapi.MaxChunkSize, c.ChunkSize)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}
	return nil
}

// ValidateForHistory checks configuration needed to open the history database.
func (c *Config) ValidateForHistory() error {
	if !c.HistoryEnabled() {
		return fmt.Errorf("HISTORY_PATH is %q; run history is disabled", HistoryDisabled)
	}
	if c.HistoryPath == "" {
		return fmt.Errorf("HISTORY_PATH is required")
	}
	return nil
}

// ValidateForTasks checks configuration needed to call the API.
func (c *Config) ValidateForTasks() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.Secrets().Validate(); err != nil {
		return fmt.Errorf("TWITTER_* credentials: %w", err)
	}
	return nil
}

// ValidateForPosting checks configuration needed to post or upload, which
// requires user-context credentials.
func (c *Config) ValidateForPosting() error {
	if err := c.ValidateForTasks(); err != nil {
		return err
	}
	creds, _ := c.Credentials()
	if creds.Kind() != credentials.KindUserContext {
		return fmt.Errorf("posting requires TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, "+
			"TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_TOKEN_SECRET (resolved %s)", creds.Kind())
	}
	return nil
}

// HistoryEnabled reports whether runs are recorded.
func (c *Config) HistoryEnabled() bool {
	return !strings.EqualFold(c.HistoryPath, HistoryDisabled)
}

// Secrets returns the credential fields.
func (c *Config) Secrets() credentials.Secrets {
	return credentials.Secrets{
		BearerToken:       c.BearerToken,
		ConsumerKey:       c.ConsumerKey,
		ConsumerSecret:    c.ConsumerSecret,
		AccessToken:       c.AccessToken,
		AccessTokenSecret: c.AccessTokenSecret,
	}
}

// Credentials resolves the configured secrets, applying TokenURL to
// app-only credentials.
func (c *Config) Credentials() (credentials.Credentials, error) {
	creds, err := credentials.Resolve(c.Secrets())
	if err != nil {
		return nil, err
	}
	if app, ok := creds.(credentials.AppOnly); ok && c.TokenURL != "" {
		app.TokenURL = c.TokenURL
		return app, nil
	}
	return creds, nil
}

// TwitterAPI returns the client settings shared by every task.
func (c *Config) TwitterAPI() twitterapi.Config {
	return twitterapi.Config{
		APIBaseURL:    c.APIBaseURL,
		UploadBaseURL: c.UploadBaseURL,
		ChunkSize:     c.ChunkSize,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
