// Package task exposes Twitter operations as asynchronous tasks. Each task
// validates its input synchronously, resolves a client for the supplied
// credentials, and runs the blocking API call on a worker pool.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abdulachik/tweettask/internal/credentials"
	"github.com/abdulachik/tweettask/internal/twitterapi"
	"github.com/abdulachik/tweettask/internal/worker"
)

var (
	// ErrMissingContent is returned when a status has neither text nor media.
	ErrMissingContent = errors.New("one of text or media ids must be provided")

	// ErrMissingFilename is returned when a media upload names no file.
	ErrMissingFilename = errors.New("a filename is required to upload media")

	// ErrInvalidMediaID is returned for a non-positive media id.
	ErrInvalidMediaID = errors.New("media id must be positive")

	// ErrInvalidStatusID is returned for a non-positive status id.
	ErrInvalidStatusID = errors.New("status id must be positive")
)

// Operation names a task.
type Operation string

const (
	OpMediaUpload       Operation = "media_upload"
	OpMediaUploadStatus Operation = "get_media_upload_status"
	OpUpdateStatus      Operation = "update_status"
	OpGetStatus         Operation = "get_status"
)

// API is the subset of the Twitter client the tasks call.
type API interface {
	UploadMedia(ctx context.Context, req twitterapi.UploadRequest) (*twitterapi.Media, error)
	MediaStatus(ctx context.Context, mediaID int64) (*twitterapi.Media, error)
	UpdateStatus(ctx context.Context, update twitterapi.StatusUpdate) (*twitterapi.Status, error)
	GetStatus(ctx context.Context, id int64) (*twitterapi.Status, error)
}

// ClientFactory builds a fresh API client for one task invocation.
type ClientFactory func(ctx context.Context, creds credentials.Credentials) (API, error)

// NewClientFactory returns a factory producing twitterapi clients. cfg's
// HTTPClient is replaced by one authenticated with the task's credentials.
func NewClientFactory(cfg twitterapi.Config, timeout time.Duration) ClientFactory {
	return func(ctx context.Context, creds credentials.Credentials) (API, error) {
		httpClient := *creds.HTTPClient(context.WithoutCancel(ctx))
		if timeout > 0 {
			httpClient.Timeout = timeout
		}
		c := cfg
		c.HTTPClient = &httpClient
		return twitterapi.New(c)
	}
}

// Run is the record of a finished task.
type Run struct {
	ID         uuid.UUID
	Operation  Operation
	Succeeded  bool
	ResultID   string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
}

// Runner dispatches tasks onto a worker pool.
type Runner struct {
	pool      *worker.Pool
	newClient ClientFactory
	recorder  Recorder
	health    *Health
}

// Config holds configuration for a Runner.
type Config struct {
	Pool          *worker.Pool  // default: worker.NewPool(worker.DefaultSize)
	ClientFactory ClientFactory // default: NewClientFactory(twitterapi.Config{}, 0)
	Recorder      Recorder      // optional
}

// New creates a Runner.
func New(cfg Config) *Runner {
	pool := cfg.Pool
	if pool == nil {
		pool = worker.NewPool(worker.DefaultSize)
	}
	factory := cfg.ClientFactory
	if factory == nil {
		factory = NewClientFactory(twitterapi.Config{}, 0)
	}
	return &Runner{
		pool:      pool,
		newClient: factory,
		recorder:  cfg.Recorder,
		health:    NewHealth(),
	}
}

// Health returns the runner's per-operation health tracker.
func (r *Runner) Health() *Health {
	return r.health
}

// Wait blocks until every dispatched task has finished.
func (r *Runner) Wait() {
	r.pool.Wait()
}

// submit resolves a client and runs call on the pool. Errors returned
// directly happen before any network I/O.
func submit[T any](
	ctx context.Context,
	r *Runner,
	op Operation,
	creds credentials.Credentials,
	call func(ctx context.Context, api API) (T, error),
	resultID func(T) string,
) (*worker.Future[T], error) {
	if creds == nil {
		return nil, fmt.Errorf("%s: %w: no credentials provided", op, credentials.ErrInvalidCredentials)
	}

	api, err := r.newClient(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("%s: create client: %w", op, err)
	}

	return worker.Go(ctx, r.pool, func(ctx context.Context) (T, error) {
		started := time.Now()
		val, err := call(ctx, api)

		run := Run{
			ID:         uuid.New(),
			Operation:  op,
			Succeeded:  err == nil,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err != nil {
			run.Error = err.Error()
		} else {
			run.ResultID = resultID(val)
		}
		r.finish(ctx, run, err)

		return val, err
	}), nil
}

func (r *Runner) finish(ctx context.Context, run Run, err error) {
	if err != nil {
		r.health.SetUnhealthy(run.Operation, err)
		slog.Error("task failed",
			"operation", run.Operation,
			"run_id", run.ID,
			"error", err,
		)
	} else {
		r.health.SetHealthy(run.Operation, run.ResultID)
		slog.Debug("task succeeded",
			"operation", run.Operation,
			"run_id", run.ID,
			"result_id", run.ResultID,
			"duration", run.FinishedAt.Sub(run.StartedAt),
		)
	}

	if r.recorder == nil {
		return
	}
	if recErr := r.recorder.RecordRun(ctx, run); recErr != nil {
		slog.Warn("failed to record task run", "run_id", run.ID, "error", recErr)
	}
}
