package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/abdulachik/tweettask/internal/credentials"
	"github.com/abdulachik/tweettask/internal/twitterapi"
	"github.com/abdulachik/tweettask/internal/worker"
)

// MediaUploadOptions describes a media upload.
type MediaUploadOptions struct {
	// Filename is used for MIME type detection. When File is nil the file
	// with this name is uploaded.
	Filename string
	File     io.Reader

	// Chunked selects the chunked upload protocol. Videos are always
	// uploaded in chunks regardless of this flag.
	Chunked bool

	// MediaCategory defaults to tweet_video, tweet_gif or tweet_image.
	MediaCategory    string
	AdditionalOwners []int64

	// SkipProcessingWait returns as soon as a chunked upload is finalized
	// instead of waiting for server-side processing to finish.
	SkipProcessingWait bool
}

// SubmitMediaUpload uploads media on the worker pool. The future yields the
// provider's media record; its MediaID can be attached to a status.
func (r *Runner) SubmitMediaUpload(ctx context.Context, creds credentials.Credentials, opts MediaUploadOptions) (*worker.Future[*twitterapi.Media], error) {
	if opts.Filename == "" {
		return nil, fmt.Errorf("%s: %w", OpMediaUpload, ErrMissingFilename)
	}

	slog.Info("uploading media", "filename", opts.Filename)

	req := twitterapi.UploadRequest{
		Filename:           opts.Filename,
		File:               opts.File,
		Chunked:            opts.Chunked || twitterapi.IsVideo(twitterapi.MediaTypeByFilename(opts.Filename)),
		MediaCategory:      opts.MediaCategory,
		AdditionalOwners:   opts.AdditionalOwners,
		SkipProcessingWait: opts.SkipProcessingWait,
	}

	return submit(ctx, r, OpMediaUpload, creds,
		func(ctx context.Context, api API) (*twitterapi.Media, error) {
			return api.UploadMedia(ctx, req)
		},
		mediaResultID,
	)
}

// MediaUpload uploads media and waits for the result.
func (r *Runner) MediaUpload(ctx context.Context, creds credentials.Credentials, opts MediaUploadOptions) (*twitterapi.Media, error) {
	f, err := r.SubmitMediaUpload(ctx, creds, opts)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

// SubmitMediaUploadStatus checks on the progress of a chunked upload. Once
// processing has succeeded it is safe to tweet with the media id.
func (r *Runner) SubmitMediaUploadStatus(ctx context.Context, creds credentials.Credentials, mediaID int64) (*worker.Future[*twitterapi.Media], error) {
	if mediaID <= 0 {
		return nil, fmt.Errorf("%s: %w", OpMediaUploadStatus, ErrInvalidMediaID)
	}

	return submit(ctx, r, OpMediaUploadStatus, creds,
		func(ctx context.Context, api API) (*twitterapi.Media, error) {
			return api.MediaStatus(ctx, mediaID)
		},
		mediaResultID,
	)
}

// MediaUploadStatus checks on a chunked upload and waits for the result.
func (r *Runner) MediaUploadStatus(ctx context.Context, creds credentials.Credentials, mediaID int64) (*twitterapi.Media, error) {
	f, err := r.SubmitMediaUploadStatus(ctx, creds, mediaID)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

func mediaResultID(m *twitterapi.Media) string {
	if m == nil {
		return ""
	}
	if m.MediaIDString != "" {
		return m.MediaIDString
	}
	return fmt.Sprint(m.MediaID)
}
