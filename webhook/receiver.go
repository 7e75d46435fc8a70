// Package webhook receives the event pushes the nello API delivers to a
// registered callback URL. The receiver is a sink: it buffers one request
// body, parses it, and hands the outcome to a user callback exactly once per
// request. It never writes a response body of its own.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// Event is the parsed body of one webhook push. Data is required on the
// wire; before delivery the receiver stamps it with a "timestamp" key
// holding the receipt time in epoch seconds.
type Event struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

// Callback receives the outcome of one inbound request. It is invoked
// exactly once per request, with either the parsed event or the transport or
// parse error that ended the request.
type Callback func(mo.Result[*Event])

// Receiver is the http.Handler bound to the webhook listener. It keeps no
// state across requests; every request gets its own buffer and its own
// callback invocation.
type Receiver struct {
	callback Callback
	logger   *slog.Logger
	maxBody  int64
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Receiver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxBodyBytes caps how many body bytes a single request may carry.
// Zero, the default, leaves the body uncapped.
func WithMaxBodyBytes(n int64) Option {
	return func(r *Receiver) { r.maxBody = n }
}

// New creates a Receiver delivering to cb.
func New(cb Callback, opts ...Option) *Receiver {
	r := &Receiver{
		callback: cb,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	body := r.Body
	if rc.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, rc.maxBody)
	}

	buf, err := io.ReadAll(body)
	if err != nil {
		rc.logger.Debug("webhook body read failed",
			"request_id", requestID,
			"remote", r.RemoteAddr,
			"error", err)
		rc.callback(mo.Err[*Event](fmt.Errorf("failed to read webhook body: %w", err)))
		return
	}

	rc.logger.Debug("webhook request received",
		"request_id", requestID,
		"remote", r.RemoteAddr,
		"bytes", len(buf))

	event, err := parseEvent(buf)
	if err != nil {
		rc.callback(mo.Err[*Event](err))
		return
	}
	rc.callback(mo.Ok(event))
}

// parseEvent decodes one buffered body and stamps the receipt time into its
// data object.
func parseEvent(buf []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(buf, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook body: %w", err)
	}
	if event.Data == nil {
		return nil, errors.New("webhook body has no data object")
	}
	event.Data["timestamp"] = timeNow().Unix()
	return &event, nil
}
