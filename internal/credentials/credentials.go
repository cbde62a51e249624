package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dghubble/oauth1"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the endpoint that exchanges a consumer pair for an
// application-only bearer token.
const DefaultTokenURL = "https://api.twitter.com/oauth2/token"

// ErrInvalidCredentials is returned when no accepted combination of secrets
// is fully populated.
var ErrInvalidCredentials = errors.New("invalid twitter credentials")

// Kind names the authentication strategy a set of credentials resolved to.
type Kind string

const (
	KindBearerToken Kind = "bearer_token"
	KindUserContext Kind = "user_context"
	KindAppOnly     Kind = "app_only"
)

// Secrets holds the raw, optional secret fields as provided by the caller.
// See the Keys and Tokens tab of an app in the Twitter Developer Portal.
type Secrets struct {
	BearerToken       string
	ConsumerKey       string // also known as API key
	ConsumerSecret    string // also known as API secret key
	AccessToken       string // also known as oauth_token
	AccessTokenSecret string // also known as oauth_token_secret
}

// Credentials is an authentication strategy resolved from Secrets. The set of
// implementations is closed: BearerToken, UserContext and AppOnly.
type Credentials interface {
	// Kind reports which strategy these credentials use.
	Kind() Kind

	// HTTPClient returns a client that authenticates every request.
	// Building the client performs no network I/O.
	HTTPClient(ctx context.Context) *http.Client

	sealed()
}

// BearerToken authenticates with a single app-level OAuth 2.0 bearer token.
type BearerToken struct {
	Token string
}

func (BearerToken) Kind() Kind { return KindBearerToken }

func (b BearerToken) HTTPClient(ctx context.Context) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: b.Token,
		TokenType:   "Bearer",
	})
	return oauth2.NewClient(ctx, src)
}

func (BearerToken) sealed() {}

// UserContext authenticates as a specific user with OAuth 1.0a. It is the
// only strategy that can post statuses and upload media.
type UserContext struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

func (UserContext) Kind() Kind { return KindUserContext }

func (u UserContext) HTTPClient(ctx context.Context) *http.Client {
	config := oauth1.NewConfig(u.ConsumerKey, u.ConsumerSecret)
	token := oauth1.NewToken(u.AccessToken, u.AccessTokenSecret)
	return config.Client(ctx, token)
}

func (UserContext) sealed() {}

// AppOnly authenticates with the OAuth 2.0 client credentials grant. The
// bearer token is fetched from TokenURL on the first request.
type AppOnly struct {
	ConsumerKey    string
	ConsumerSecret string
	TokenURL       string
}

func (AppOnly) Kind() Kind { return KindAppOnly }

func (a AppOnly) HTTPClient(ctx context.Context) *http.Client {
	tokenURL := a.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	config := &clientcredentials.Config{
		ClientID:     a.ConsumerKey,
		ClientSecret: a.ConsumerSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return config.Client(ctx)
}

func (AppOnly) sealed() {}

// Resolve selects an authentication strategy from the populated fields.
// The first match wins:
//
//  1. bearer token                         -> BearerToken
//  2. consumer pair and access pair        -> UserContext
//  3. consumer pair, no access pair at all -> AppOnly
//
// Anything else, including a partially populated pair, is rejected with
// ErrInvalidCredentials.
func Resolve(s Secrets) (Credentials, error) {
	s = s.trimmed()

	if s.BearerToken != "" {
		return BearerToken{Token: s.BearerToken}, nil
	}

	hasConsumer := s.ConsumerKey != "" && s.ConsumerSecret != ""
	hasAccess := s.AccessToken != "" && s.AccessTokenSecret != ""
	anyAccess := s.AccessToken != "" || s.AccessTokenSecret != ""

	switch {
	case hasConsumer && hasAccess:
		return UserContext{
			ConsumerKey:       s.ConsumerKey,
			ConsumerSecret:    s.ConsumerSecret,
			AccessToken:       s.AccessToken,
			AccessTokenSecret: s.AccessTokenSecret,
		}, nil
	case hasConsumer && !anyAccess:
		return AppOnly{
			ConsumerKey:    s.ConsumerKey,
			ConsumerSecret: s.ConsumerSecret,
			TokenURL:       DefaultTokenURL,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s; provide one of: bearer token; "+
		"consumer key, consumer secret, access token and access token secret; "+
		"consumer key and consumer secret", ErrInvalidCredentials, s.missing())
}

// Validate reports whether Resolve would accept s.
func (s Secrets) Validate() error {
	_, err := Resolve(s)
	return err
}

func (s Secrets) trimmed() Secrets {
	return Secrets{
		BearerToken:       strings.TrimSpace(s.BearerToken),
		ConsumerKey:       strings.TrimSpace(s.ConsumerKey),
		ConsumerSecret:    strings.TrimSpace(s.ConsumerSecret),
		AccessToken:       strings.TrimSpace(s.AccessToken),
		AccessTokenSecret: strings.TrimSpace(s.AccessTokenSecret),
	}
}

// missing describes the gap in a rejected set of secrets.
func (s Secrets) missing() string {
	if s == (Secrets{}) {
		return "no credentials provided"
	}
	var fields []string
	if s.ConsumerKey == "" {
		fields = append(fields, "consumer key")
	}
	if s.ConsumerSecret == "" {
		fields = append(fields, "consumer secret")
	}
	if s.AccessToken != "" || s.AccessTokenSecret != "" {
		if s.AccessToken == "" {
			fields = append(fields, "access token")
		}
		if s.AccessTokenSecret == "" {
			fields = append(fields, "access token secret")
		}
	}
	return "missing " + strings.Join(fields, ", ")
}
