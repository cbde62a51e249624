package twitterapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/go-twitter/twitter"
	"github.com/dghubble/sling"
)

const (
	// DefaultAPIBaseURL is the REST v1.1 root the go-twitter client is bound to.
	DefaultAPIBaseURL = "https://api.twitter.com/1.1/"

	// DefaultUploadBaseURL is the media upload root.
	DefaultUploadBaseURL = "https://upload.twitter.com/1.1/"

	// DefaultChunkSize is the APPEND segment size for chunked uploads.
	DefaultChunkSize = 1 << 20

	// MaxChunkSize is the largest APPEND segment the upload endpoint accepts.
	MaxChunkSize = 5 << 20
)

// Client wraps the Twitter REST API for one set of credentials.
type Client struct {
	tw        *twitter.Client
	upload    *sling.Sling
	chunkSize int
	sleep     func(ctx context.Context, d time.Duration) error
}

// Config holds configuration for a Client.
type Config struct {
	// HTTPClient must already authenticate its requests.
	HTTPClient *http.Client

	APIBaseURL    string // default: DefaultAPIBaseURL
	UploadBaseURL string // default: DefaultUploadBaseURL
	ChunkSize     int    // default: DefaultChunkSize
}

// New creates a Client. It performs no network I/O.
func New(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	apiBase, err := baseURL(cfg.APIBaseURL, DefaultAPIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	uploadBase, err := baseURL(cfg.UploadBaseURL, DefaultUploadBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upload base url: %w", err)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("chunk size %d exceeds maximum of %d bytes", chunkSize, MaxChunkSize)
	}

	// go-twitter always targets DefaultAPIBaseURL, so a different root is
	// reached by rewriting requests on their way out.
	twHTTP := httpClient
	if apiBase.String() != DefaultAPIBaseURL {
		from, _ := url.Parse(DefaultAPIBaseURL)
		twHTTP = &http.Client{
			Transport:     &rewriteTransport{from: from, to: apiBase, next: httpClient.Transport},
			CheckRedirect: httpClient.CheckRedirect,
			Jar:           httpClient.Jar,
			Timeout:       httpClient.Timeout,
		}
	}

	return &Client{
		tw:        twitter.NewClient(twHTTP),
		upload:    sling.New().Client(httpClient).Base(uploadBase.String()),
		chunkSize: chunkSize,
		sleep:     sleepContext,
	}, nil
}

// User is the account the client's credentials act as.
type User struct {
	ID         int64  `json:"id"`
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

// VerifyCredentials returns the authenticating user. It fails for
// app-only credentials, which have no user context.
func (c *Client) VerifyCredentials(ctx context.Context) (*User, error) {
	skip := true
	u, _, err := c.tw.Accounts.VerifyCredentials(&twitter.AccountVerifyParams{SkipStatus: &skip})
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	return &User{
		ID:         u.ID,
		IDStr:      u.IDStr,
		ScreenName: u.ScreenName,
		Name:       u.Name,
	}, nil
}

// do sends a sling request, decoding a 2xx body into success and an error
// body into a twitter.APIError.
func (c *Client) do(ctx context.Context, s *sling.Sling, success interface{}) error {
	req, err := s.Request()
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	var apiErr twitter.APIError
	resp, err := s.Do(req.WithContext(ctx), success, &apiErr)
	return relevantError(resp, err, apiErr)
}

func relevantError(resp *http.Response, err error, apiErr twitter.APIError) error {
	if !apiErr.Empty() {
		return apiErr
	}
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("twitter: unexpected status %s", resp.Status)
	}
	return err
}

func baseURL(raw, def string) (*url.URL, error) {
	if raw == "" {
		raw = def
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute url", raw)
	}
	return u, nil
}

// rewriteTransport redirects requests under from to the same path under to.
type rewriteTransport struct {
	from *url.URL
	to   *url.URL
	next http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	if req.URL.Host != t.from.Host || !strings.HasPrefix(req.URL.Path, t.from.Path) {
		return next.RoundTrip(req)
	}

	r := req.Clone(req.Context())
	r.URL.Scheme = t.to.Scheme
	r.URL.Host = t.to.Host
	r.URL.Path = t.to.Path + strings.TrimPrefix(req.URL.Path, t.from.Path)
	r.URL.RawPath = ""
	r.Host = t.to.Host
	return next.RoundTrip(r)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
