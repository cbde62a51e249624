package twitterapi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const uploadPath = "media/upload.json"

// Processing states reported for asynchronously finalized media.
const (
	StatePending    = "pending"
	StateInProgress = "in_progress"
	StateSucceeded  = "succeeded"
	StateFailed     = "failed"
)

// Media is the upload endpoint's description of a media object.
type Media struct {
	MediaID          int64           `json:"media_id"`
	MediaIDString    string          `json:"media_id_string"`
	MediaKey         string          `json:"media_key,omitempty"`
	Size             int64           `json:"size,omitempty"`
	ExpiresAfterSecs int             `json:"expires_after_secs,omitempty"`
	ProcessingInfo   *ProcessingInfo `json:"processing_info,omitempty"`
}

// ProcessingInfo tracks server-side processing of chunked uploads.
type ProcessingInfo struct {
	State           string           `json:"state"`
	CheckAfterSecs  int              `json:"check_after_secs,omitempty"`
	ProgressPercent int              `json:"progress_percent,omitempty"`
	Error           *ProcessingError `json:"error,omitempty"`
}

// ProcessingError explains why processing failed.
type ProcessingError struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// UploadRequest describes a file to upload. Only the listed options are
// forwarded to the API.
type UploadRequest struct {
	// Filename is used for MIME detection and is opened when File is nil.
	Filename string
	File     io.Reader

	// MediaType overrides detection when set.
	MediaType string

	Chunked          bool
	MediaCategory    string
	AdditionalOwners []int64

	// SkipProcessingWait returns right after FINALIZE instead of polling
	// STATUS until processing leaves the pending states.
	SkipProcessingWait bool
}

// UploadMedia uploads a file. Video always uses the chunked protocol.
func (c *Client) UploadMedia(ctx context.Context, req UploadRequest) (*Media, error) {
	if req.Filename == "" {
		return nil, errors.New("upload media: filename is required")
	}

	data, size, closeFn, err := openMedia(req)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	defer closeFn()

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = MediaTypeByFilename(req.Filename)
	}
	if mediaType == "" {
		br := bufio.NewReaderSize(data, 3072)
		head, _ := br.Peek(3072)
		mediaType = mimetype.Detect(head).String()
		data = br
	}

	var media *Media
	if req.Chunked || IsVideo(mediaType) {
		media, err = c.uploadChunked(ctx, req, data, size, mediaType)
	} else {
		media, err = c.uploadSimple(ctx, req, data)
	}
	if err != nil {
		return nil, fmt.Errorf("upload media %s: %w", req.Filename, err)
	}
	return media, nil
}

// MediaStatus reports the processing state of a chunked upload. Once the
// state is succeeded it is safe to attach the media to a tweet.
func (c *Client) MediaStatus(ctx context.Context, mediaID int64) (*Media, error) {
	params := &uploadCommand{Command: "STATUS", MediaID: mediaID}

	media := new(Media)
	if err := c.do(ctx, c.upload.New().Get(uploadPath).QueryStruct(params), media); err != nil {
		return nil, fmt.Errorf("media status %d: %w", mediaID, err)
	}
	return media, nil
}

type uploadCommand struct {
	Command          string  `url:"command"`
	MediaID          int64   `url:"media_id,omitempty"`
	TotalBytes       int64   `url:"total_bytes,omitempty"`
	MediaType        string  `url:"media_type,omitempty"`
	MediaCategory    string  `url:"media_category,omitempty"`
	AdditionalOwners []int64 `url:"additional_owners,omitempty,comma"`
}

func (c *Client) uploadSimple(ctx context.Context, req UploadRequest, data io.Reader) (*Media, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}

	var fields []formField
	if req.MediaCategory != "" {
		fields = append(fields, formField{"media_category", req.MediaCategory})
	}
	if len(req.AdditionalOwners) > 0 {
		fields = append(fields, formField{"additional_owners", joinIDs(req.AdditionalOwners)})
	}

	body, err := newMultipartBody(fields, filepath.Base(req.Filename), content)
	if err != nil {
		return nil, err
	}

	media := new(Media)
	if err := c.do(ctx, c.upload.New().Post(uploadPath).BodyProvider(body), media); err != nil {
		return nil, err
	}
	return media, nil
}

func (c *Client) uploadChunked(ctx context.Context, req UploadRequest, data io.Reader, size int64, mediaType string) (*Media, error) {
	category := req.MediaCategory
	if category == "" {
		category = MediaCategory(mediaType)
	}

	initParams := &uploadCommand{
		Command:          "INIT",
		TotalBytes:       size,
		MediaType:        mediaType,
		MediaCategory:    category,
		AdditionalOwners: req.AdditionalOwners,
	}
	media := new(Media)
	if err := c.do(ctx, c.upload.New().Post(uploadPath).BodyForm(initParams), media); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	slog.Debug("chunked upload initialized", "media_id", media.MediaID, "total_bytes", size)

	id := strconv.FormatInt(media.MediaID, 10)
	chunk := make([]byte, c.chunkSize)
	for segment := 0; ; segment++ {
		n, readErr := io.ReadFull(data, chunk)
		if n > 0 {
			body, err := newMultipartBody([]formField{
				{"command", "APPEND"},
				{"media_id", id},
				{"segment_index", strconv.Itoa(segment)},
			}, "blob", chunk[:n])
			if err != nil {
				return nil, err
			}
			if err := c.do(ctx, c.upload.New().Post(uploadPath).BodyProvider(body), nil); err != nil {
				return nil, fmt.Errorf("append segment %d: %w", segment, err)
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read media: %w", readErr)
		}
	}

	finalized := new(Media)
	finalizeParams := &uploadCommand{Command: "FINALIZE", MediaID: media.MediaID}
	if err := c.do(ctx, c.upload.New().Post(uploadPath).BodyForm(finalizeParams), finalized); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	if req.SkipProcessingWait {
		return finalized, nil
	}
	return c.waitForProcessing(ctx, finalized)
}

// waitForProcessing polls STATUS while the media is pending or in progress.
// A failed state is returned as-is for the caller to inspect.
func (c *Client) waitForProcessing(ctx context.Context, media *Media) (*Media, error) {
	for media.ProcessingInfo != nil {
		state := media.ProcessingInfo.State
		if state != StatePending && state != StateInProgress {
			break
		}

		wait := time.Duration(media.ProcessingInfo.CheckAfterSecs) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		slog.Debug("waiting for media processing",
			"media_id", media.MediaID,
			"state", state,
			"progress", media.ProcessingInfo.ProgressPercent,
			"wait", wait,
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}

		next, err := c.MediaStatus(ctx, media.MediaID)
		if err != nil {
			return nil, err
		}
		media = next
	}
	return media, nil
}

// openMedia returns the upload's content and its size in bytes.
func openMedia(req UploadRequest) (io.Reader, int64, func(), error) {
	if req.File != nil {
		content, err := io.ReadAll(req.File)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("read media: %w", err)
		}
		return bytes.NewReader(content), int64(len(content)), func() {}, nil
	}

	f, err := os.Open(req.Filename)
	if err != nil {
		return nil, 0, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, nil, fmt.Errorf("%s is a directory, not a file", req.Filename)
	}
	return f, info.Size(), func() { f.Close() }, nil
}

var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".srt":  "application/x-subrip",
}

// MediaTypeByFilename guesses a MIME type from the file extension, or
// returns "" when the extension is unknown.
func MediaTypeByFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// IsVideo reports whether mediaType is a video type.
func IsVideo(mediaType string) bool {
	return strings.HasPrefix(mediaType, "video/")
}

// MediaCategory is the category sent with INIT when the caller gives none.
func MediaCategory(mediaType string) string {
	switch {
	case IsVideo(mediaType):
		return "tweet_video"
	case mediaType == "image/gif":
		return "tweet_gif"
	default:
		return "tweet_image"
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

type formField struct {
	name  string
	value string
}

// multipartBody is a sling.BodyProvider for multipart/form-data uploads.
type multipartBody struct {
	content     []byte
	contentType string
}

func newMultipartBody(fields []formField, filename string, media []byte) (*multipartBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	part, err := w.CreateFormFile("media", filename)
	if err != nil {
		return nil, fmt.Errorf("create media part: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return nil, fmt.Errorf("write media part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return &multipartBody{content: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func (b *multipartBody) ContentType() string {
	return b.contentType
}

func (b *multipartBody) Body() (io.Reader, error) {
	return bytes.NewReader(b.content), nil
}
