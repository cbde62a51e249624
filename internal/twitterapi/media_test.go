package twitterapi

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadServer fakes media/upload.json and records every command it sees.
type uploadServer struct {
	mu       sync.Mutex
	commands []string
	segments map[int]string
	initForm map[string]string
	statuses []string // processing states returned by successive STATUS calls
}

func newUploadServer() *uploadServer {
	return &uploadServer{segments: make(map[int]string)}
}

func (s *uploadServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		command := r.FormValue("command")
		if command == "" {
			command = "UPLOAD"
		}
		s.commands = append(s.commands, command)

		switch command {
		case "UPLOAD":
			file, header, err := r.FormFile("media")
			require.NoError(t, err)
			content, _ := io.ReadAll(file)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"media_id":        710511363345354753,
				"media_id_string": "710511363345354753",
				"size":            len(content),
				"media_key":       header.Filename + ":" + r.FormValue("media_category"),
			})
		case "INIT":
			s.initForm = map[string]string{
				"total_bytes":       r.FormValue("total_bytes"),
				"media_type":        r.FormValue("media_type"),
				"media_category":    r.FormValue("media_category"),
				"additional_owners": r.FormValue("additional_owners"),
			}
			writeJSON(w, http.StatusAccepted, map[string]interface{}{
				"media_id":        42,
				"media_id_string": "42",
			})
		case "APPEND":
			assert.Equal(t, "42", r.FormValue("media_id"))
			segment, err := strconv.Atoi(r.FormValue("segment_index"))
			require.NoError(t, err)
			file, _, err := r.FormFile("media")
			require.NoError(t, err)
			content, _ := io.ReadAll(file)
			s.segments[segment] = string(content)
			w.WriteHeader(http.StatusNoContent)
		case "FINALIZE":
			resp := map[string]interface{}{"media_id": 42, "media_id_string": "42"}
			if len(s.statuses) > 0 {
				resp["processing_info"] = map[string]interface{}{"state": StatePending, "check_after_secs": 1}
			}
			writeJSON(w, http.StatusCreated, resp)
		case "STATUS":
			assert.Equal(t, http.MethodGet, r.Method)
			state := StateSucceeded
			if len(s.statuses) > 0 {
				state = s.statuses[0]
				s.statuses = s.statuses[1:]
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"media_id":        42,
				"media_id_string": "42",
				"processing_info": map[string]interface{}{"state": state, "progress_percent": 50},
			})
		default:
			t.Errorf("unexpected command %q", command)
		}
	}
}

func newUploadClient(t *testing.T, s *uploadServer) *Client {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/1.1/media/upload.json", s.handler(t))
	return newTestClient(t, mux)
}

func TestClient_UploadMedia_Simple(t *testing.T) {
	s := newUploadServer()
	c := newUploadClient(t, s)

	media, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename: "prefection.png",
		File:     strings.NewReader("\x89PNG fake image"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(710511363345354753), media.MediaID)
	assert.Equal(t, int64(len("\x89PNG fake image")), media.Size)
	assert.Equal(t, "prefection.png:", media.MediaKey)
	assert.Equal(t, []string{"UPLOAD"}, s.commands)
}

func TestClient_UploadMedia_FromPath(t *testing.T) {
	s := newUploadServer()
	c := newUploadClient(t, s)

	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0644))

	media, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename:      path,
		MediaCategory: "dm_image",
	})
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg:dm_image", media.MediaKey)
}

func TestClient_UploadMedia_Chunked(t *testing.T) {
	s := newUploadServer()
	c := newUploadClient(t, s)

	media, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename:         "image.png",
		File:             strings.NewReader("0123456789"),
		Chunked:          true,
		AdditionalOwners: []int64{7, 8},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), media.MediaID)

	// chunk size is 4 bytes in tests
	assert.Equal(t, []string{"INIT", "APPEND", "APPEND", "APPEND", "FINALIZE"}, s.commands)
	assert.Equal(t, map[int]string{0: "0123", 1: "4567", 2: "89"}, s.segments)
	assert.Equal(t, "10", s.initForm["total_bytes"])
	assert.Equal(t, "image/png", s.initForm["media_type"])
	assert.Equal(t, "tweet_image", s.initForm["media_category"])
	assert.Equal(t, "7,8", s.initForm["additional_owners"])
}

func TestClient_UploadMedia_VideoForcesChunked(t *testing.T) {
	s := newUploadServer()
	c := newUploadClient(t, s)

	_, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename: "clip.mp4",
		File:     strings.NewReader("12345678"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"INIT", "APPEND", "APPEND", "FINALIZE"}, s.commands)
	assert.Equal(t, "video/mp4", s.initForm["media_type"])
	assert.Equal(t, "tweet_video", s.initForm["media_category"])
}

func TestClient_UploadMedia_WaitsForProcessing(t *testing.T) {
	s := newUploadServer()
	s.statuses = []string{StateInProgress, StateSucceeded}
	c := newUploadClient(t, s)

	media, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename: "clip.mp4",
		File:     strings.NewReader("1234"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"INIT", "APPEND", "FINALIZE", "STATUS", "STATUS"}, s.commands)
	require.NotNil(t, media.ProcessingInfo)
	assert.Equal(t, StateSucceeded, media.ProcessingInfo.State)
}

func TestClient_UploadMedia_SkipProcessingWait(t *testing.T) {
	s := newUploadServer()
	s.statuses = []string{StateInProgress}
	c := newUploadClient(t, s)

	media, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename:           "clip.mp4",
		File:               strings.NewReader("1234"),
		SkipProcessingWait: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"INIT", "APPEND", "FINALIZE"}, s.commands)
	assert.Equal(t, StatePending, media.ProcessingInfo.State)
}

func TestClient_UploadMedia_ProcessingFailedIsReturned(t *testing.T) {
	s := newUploadServer()
	s.statuses = []string{StateFailed}
	c := newUploadClient(t, s)

	media, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename: "clip.mp4",
		File:     strings.NewReader("1234"),
	})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, media.ProcessingInfo.State)
}

func TestClient_UploadMedia_Errors(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	t.Run("missing filename", func(t *testing.T) {
		_, err := c.UploadMedia(context.Background(), UploadRequest{File: strings.NewReader("x")})
		assert.ErrorContains(t, err, "filename is required")
	})

	t.Run("file does not exist", func(t *testing.T) {
		_, err := c.UploadMedia(context.Background(), UploadRequest{
			Filename: filepath.Join(t.TempDir(), "missing.png"),
		})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := c.UploadMedia(context.Background(), UploadRequest{Filename: t.TempDir()})
		assert.ErrorContains(t, err, "is a directory")
	})
}

func TestClient_UploadMedia_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": []map[string]interface{}{{"message": "media type unrecognized.", "code": 324}},
		})
	})
	c := newTestClient(t, mux)

	_, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename: "a.png",
		File:     strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media type unrecognized.")
}

func TestClient_MediaStatus(t *testing.T) {
	s := newUploadServer()
	c := newUploadClient(t, s)

	media, err := c.MediaStatus(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), media.MediaID)
	assert.Equal(t, StateSucceeded, media.ProcessingInfo.State)
	assert.Equal(t, 50, media.ProcessingInfo.ProgressPercent)
}

func TestMediaTypeByFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"photo.jpg", "image/jpeg"},
		{"PHOTO.JPEG", "image/jpeg"},
		{"/path/to/prefection.png", "image/png"},
		{"anim.gif", "image/gif"},
		{"clip.mp4", "video/mp4"},
		{"clip.MOV", "video/quicktime"},
		{"noext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MediaTypeByFilename(tt.name))
		})
	}
}

func TestMediaCategory(t *testing.T) {
	assert.Equal(t, "tweet_video", MediaCategory("video/mp4"))
	assert.Equal(t, "tweet_gif", MediaCategory("image/gif"))
	assert.Equal(t, "tweet_image", MediaCategory("image/png"))
	assert.Equal(t, "tweet_image", MediaCategory("application/octet-stream"))
}

func TestUploadMedia_SniffsUnknownExtension(t *testing.T) {
	s := newUploadServer()
	c := newUploadClient(t, s)

	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	_, err := c.UploadMedia(context.Background(), UploadRequest{
		Filename: "upload",
		File:     strings.NewReader(png),
		Chunked:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", s.initForm["media_type"])
}
