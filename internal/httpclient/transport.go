package httpclient

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// ErrNoToken is returned when a request is attempted before a bearer token
// has been obtained.
var ErrNoToken = errors.New("no bearer token set")

// TokenSource yields the current credential snapshot. ok is false when no
// token is available yet.
type TokenSource func() (tokenType, access string, ok bool)

// BearerAuthTransport implements http.RoundTripper and adds the nello
// bearer token to outgoing requests.
type BearerAuthTransport struct {
	Source    TokenSource
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewBearerAuthTransport creates a new BearerAuthTransport reading
// credentials from source and delegating to the given underlying transport.
// If transport is nil, http.DefaultTransport will be used.
func NewBearerAuthTransport(source TokenSource, transport http.RoundTripper, logger *slog.Logger) *BearerAuthTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BearerAuthTransport{
		Source:    source,
		Transport: transport,
		Logger:    logger,
	}
}

// RoundTrip implements the http.RoundTripper interface. It attaches the
// current token snapshot to the request and delegates to the underlying
// transport.
func (t *BearerAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Log request details
	reqBody := ""
	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err == nil {
			reqBody = string(bodyBytes)
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes)) // Reset the body
		}
	}

	t.Logger.Debug("outgoing request",
		"method", req.Method,
		"url", req.URL.String(),
		"body", reqBody)

	if t.Source == nil {
		return nil, ErrNoToken
	}
	tokenType, access, ok := t.Source()
	if !ok {
		return nil, ErrNoToken
	}
	if t.Transport == nil {
		return nil, errors.New("transport cannot be nil")
	}
	req.Header.Set("Authorization", tokenType+" "+access)
	resp, err := t.Transport.RoundTrip(req)

	if err == nil && resp != nil {
		t.Logger.Debug("incoming response",
			"status", resp.Status,
			"headers", resp.Header)
	}

	return resp, err
}
