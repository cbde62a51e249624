package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/tweettask/internal/credentials"
	"github.com/abdulachik/tweettask/internal/twitterapi"
)

func TestLoad(t *testing.T) {
	// Save original env and restore after test
	origEnv := os.Environ()
	t.Cleanup(func() {
		os.Clearenv()
		for _, e := range origEnv {
			for i := 0; i < len(e); i++ {
				if e[i] == '=' {
					os.Setenv(e[:i], e[i+1:])
					break
				}
			}
		}
	})

	t.Run("defaults", func(t *testing.T) {
		os.Clearenv()
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "data/tweettask.db", cfg.HistoryPath)
		assert.Equal(t, twitterapi.DefaultAPIBaseURL, cfg.APIBaseURL)
		assert.Equal(t, twitterapi.DefaultUploadBaseURL, cfg.UploadBaseURL)
		assert.Equal(t, credentials.DefaultTokenURL, cfg.TokenURL)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, twitterapi.DefaultChunkSize, cfg.ChunkSize)
		assert.True(t, cfg.HistoryEnabled())
	})

	t.Run("custom values", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("TWITTER_BEARER_TOKEN", "bearer")
		os.Setenv("TWITTER_CONSUMER_KEY", "ck")
		os.Setenv("HISTORY_PATH", "off")
		os.Setenv("WORKERS", "8")
		os.Setenv("REQUEST_TIMEOUT", "5s")
		os.Setenv("UPLOAD_CHUNK_SIZE", "4194304")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "bearer", cfg.BearerToken)
		assert.Equal(t, "ck", cfg.ConsumerKey)
		assert.False(t, cfg.HistoryEnabled())
		assert.Equal(t, 8, cfg.Workers)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 4194304, cfg.ChunkSize)
	})

	t.Run("invalid duration", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("REQUEST_TIMEOUT", "invalid")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "REQUEST_TIMEOUT")
	})

	t.Run("invalid integer", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("WORKERS", "notanumber")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "WORKERS")
	})
}

func validConfig() *Config {
	return &Config{
		Workers:        4,
		ChunkSize:      twitterapi.DefaultChunkSize,
		RequestTimeout: time.Minute,
		HistoryPath:    "test.db",
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("no workers", func(t *testing.T) {
		cfg := validConfig()
		cfg.Workers = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "WORKERS")
	})

	t.Run("chunk too large", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChunkSize = twitterapi.MaxChunkSize + 1
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "UPLOAD_CHUNK_SIZE")
	})
}

func TestConfig_ValidateForHistory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().ValidateForHistory())
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.HistoryPath = "OFF"
		err := cfg.ValidateForHistory()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disabled")
	})
}

func TestConfig_ValidateForTasks(t *testing.T) {
	t.Run("bearer token", func(t *testing.T) {
		cfg := validConfig()
		cfg.BearerToken = "bearer"
		assert.NoError(t, cfg.ValidateForTasks())
	})

	t.Run("no credentials", func(t *testing.T) {
		err := validConfig().ValidateForTasks()
		assert.ErrorIs(t, err, credentials.ErrInvalidCredentials)
		assert.Contains(t, err.Error(), "TWITTER_")
	})
}

func TestConfig_ValidateForPosting(t *testing.T) {
	t.Run("user context", func(t *testing.T) {
		cfg := validConfig()
		cfg.ConsumerKey = "ck"
		cfg.ConsumerSecret = "cs"
		cfg.AccessToken = "at"
		cfg.AccessTokenSecret = "as"
		assert.NoError(t, cfg.ValidateForPosting())
	})

	t.Run("bearer token cannot post", func(t *testing.T) {
		cfg := validConfig()
		cfg.BearerToken = "bearer"
		err := cfg.ValidateForPosting()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bearer_token")
	})
}

func TestConfig_Credentials(t *testing.T) {
	cfg := validConfig()
	cfg.ConsumerKey = "ck"
	cfg.ConsumerSecret = "cs"
	cfg.TokenURL = "http://localhost:9999/oauth2/token"

	creds, err := cfg.Credentials()
	require.NoError(t, err)

	app, ok := creds.(credentials.AppOnly)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9999/oauth2/token", app.TokenURL)
}
