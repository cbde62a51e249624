package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulachik/tweettask/internal/credentials"
	"github.com/abdulachik/tweettask/internal/twitterapi"
	"github.com/abdulachik/tweettask/internal/worker"
)

// StatusOptions describes a tweet. Text is required unless MediaIDs is set.
type StatusOptions struct {
	Text     string
	MediaIDs []int64

	InReplyToStatusID         int64
	AutoPopulateReplyMetadata bool
	AttachmentURL             string
	PossiblySensitive         bool
	PlaceID                   string
	TrimUser                  bool
}

// SubmitUpdateStatus posts a tweet as the authenticating user on the worker
// pool. A tweet with neither text nor media is rejected before any client
// is created.
func (r *Runner) SubmitUpdateStatus(ctx context.Context, creds credentials.Credentials, opts StatusOptions) (*worker.Future[*twitterapi.Status], error) {
	slog.Info("updating status", "media", len(opts.MediaIDs))

	if opts.Text == "" && len(opts.MediaIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", OpUpdateStatus, ErrMissingContent)
	}

	update := twitterapi.StatusUpdate{
		Text:                      opts.Text,
		MediaIDs:                  opts.MediaIDs,
		InReplyToStatusID:         opts.InReplyToStatusID,
		AutoPopulateReplyMetadata: opts.AutoPopulateReplyMetadata,
		AttachmentURL:             opts.AttachmentURL,
		PossiblySensitive:         opts.PossiblySensitive,
		PlaceID:                   opts.PlaceID,
		TrimUser:                  opts.TrimUser,
	}

	return submit(ctx, r, OpUpdateStatus, creds,
		func(ctx context.Context, api API) (*twitterapi.Status, error) {
			return api.UpdateStatus(ctx, update)
		},
		statusResultID,
	)
}

// UpdateStatus posts a tweet and waits for the created status.
func (r *Runner) UpdateStatus(ctx context.Context, creds credentials.Credentials, opts StatusOptions) (*twitterapi.Status, error) {
	f, err := r.SubmitUpdateStatus(ctx, creds, opts)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

// SubmitGetStatus fetches a tweet by id on the worker pool.
func (r *Runner) SubmitGetStatus(ctx context.Context, creds credentials.Credentials, id int64) (*worker.Future[*twitterapi.Status], error) {
	if id <= 0 {
		return nil, fmt.Errorf("%s: %w", OpGetStatus, ErrInvalidStatusID)
	}

	return submit(ctx, r, OpGetStatus, creds,
		func(ctx context.Context, api API) (*twitterapi.Status, error) {
			return api.GetStatus(ctx, id)
		},
		statusResultID,
	)
}

// GetStatus fetches a tweet and waits for the result.
func (r *Runner) GetStatus(ctx context.Context, creds credentials.Credentials, id int64) (*twitterapi.Status, error) {
	f, err := r.SubmitGetStatus(ctx, creds, id)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

func statusResultID(s *twitterapi.Status) string {
	if s == nil {
		return ""
	}
	if s.IDStr != "" {
		return s.IDStr
	}
	return fmt.Sprint(s.ID)
}
