package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zefau/libnello/internal/httpclient"
	"github.com/zefau/libnello/webhook"
)

const (
	defaultBaseURL = "https://public-api.nello.io/v1"
	defaultAuthURL = "https://auth.nello.io/oauth/token/"
)

var (
	// ErrNoToken is returned when an authenticated call is attempted before
	// a token has been set or requested.
	ErrNoToken = errors.New("no token set, request one first")
	// ErrAPIFailure is returned when a response arrives but the API reports
	// the operation did not succeed.
	ErrAPIFailure = errors.New("nello API reported failure")
)

// Token is an immutable bearer credential snapshot. RequestToken publishes a
// new snapshot atomically instead of mutating the current one.
type Token struct {
	Type   string
	Access string
}

func (t *Token) valid() bool {
	return t != nil && t.Type != "" && t.Access != ""
}

// Client defines the nello API operations.
type Client interface {
	RequestToken(ctx context.Context, clientID, clientSecret string) (*Token, error)
	Token() (*Token, bool)
	Locations(ctx context.Context) ([]Location, error)
	OpenDoor(ctx context.Context, locationID string) error
	TimeWindows(ctx context.Context, locationID string) ([]TimeWindow, error)
	CreateTimeWindow(ctx context.Context, locationID, name string, sched any) (*TimeWindow, error)
	DeleteTimeWindow(ctx context.Context, locationID, twID string) error
	DeleteAllTimeWindows(ctx context.Context, locationID string) (<-chan DeleteResult, error)
	Listen(ctx context.Context, locationID string, external ExternalURI, cb webhook.Callback, actions ...string) (*Subscription, error)
	Unlisten(ctx context.Context, locationID string) error
}

// Options configures a Client. The zero value targets the public nello API
// with a discarding logger and no TLS on the webhook listener.
type Options struct {
	Token      *Token       // initial credential snapshot, optional
	HTTPClient *http.Client // outbound client, defaults to a fresh one
	Logger     *slog.Logger
	BaseURL    string             // API base override, mainly for tests
	AuthURL    string             // token endpoint override, mainly for tests
	TLS        *webhook.TLSConfig // serve the webhook listener over HTTPS
}

type nelloClient struct {
	api     httpclient.ApiClient
	auth    *http.Client // token endpoint is called without bearer auth
	baseURL string
	authURL string
	logger  *slog.Logger
	tlsConf *webhook.TLSConfig

	token atomic.Pointer[Token]

	mu       sync.Mutex
	listener *webhook.Server
}

// New creates a nello API client.
func New(opts Options) (Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	c := &nelloClient{
		auth:    hc,
		baseURL: strings.TrimSuffix(firstNonEmpty(opts.BaseURL, defaultBaseURL), "/"),
		authURL: firstNonEmpty(opts.AuthURL, defaultAuthURL),
		logger:  logger,
		tlsConf: opts.TLS,
	}
	if opts.Token.valid() {
		c.token.Store(opts.Token)
	}

	transport := httpclient.NewBearerAuthTransport(c.tokenSource, hc.Transport, logger)
	api, err := httpclient.NewApiClient(&http.Client{Transport: transport, Timeout: hc.Timeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build API client: %w", err)
	}
	c.api = api
	return c, nil
}

// Token returns the current credential snapshot.
func (c *nelloClient) Token() (*Token, bool) {
	t := c.token.Load()
	if !t.valid() {
		return nil, false
	}
	return t, true
}

func (c *nelloClient) tokenSource() (string, string, bool) {
	t, ok := c.Token()
	if !ok {
		return "", "", false
	}
	return t.Type, t.Access, true
}

// url joins path segments onto the API base, with the trailing slash the
// nello API insists on.
func (c *nelloClient) url(parts ...string) string {
	return c.baseURL + "/" + strings.Join(parts, "/") + "/"
}

// checkEnvelope maps an API envelope onto the error channel.
func checkEnvelope(env *httpclient.Envelope, err error) (*httpclient.Envelope, error) {
	if err != nil {
		return nil, err
	}
	if !env.Result.Success {
		msg := env.Result.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s", ErrAPIFailure, msg)
	}
	return env, nil
}

// requireToken fails fast before a request is built, so callers get
// ErrNoToken instead of a transport error.
func (c *nelloClient) requireToken() error {
	if _, ok := c.Token(); !ok {
		return ErrNoToken
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
