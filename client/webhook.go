package client

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zefau/libnello/webhook"
)

// defaultActions are the event kinds a subscription listens for when the
// caller does not narrow them down.
var defaultActions = []string{"swipe", "geo", "tw", "deny"}

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// ExternalURI is the address the nello API will push events to: the
// externally reachable host plus the port the local listener binds.
type ExternalURI struct {
	Host string
	Port int
}

// ParseExternalURI splits a "host:port" string. Any http:// or https://
// prefix on the host is dropped; the scheme is decided by whether the client
// serves TLS.
func ParseExternalURI(s string) (ExternalURI, error) {
	idx := strings.LastIndex(s, ":")
	if idx == -1 {
		return ExternalURI{}, errors.New(`invalid url specified, separate host and port with ":", e.g. domain.com:PORT`)
	}
	port, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return ExternalURI{}, fmt.Errorf("invalid port in %q: %w", s, err)
	}
	return ExternalURI{Host: schemePrefix.ReplaceAllString(s[:idx], ""), Port: port}, nil
}

func (u ExternalURI) String(secure bool) string {
	scheme := "http://"
	if secure {
		scheme = "https://"
	}
	return scheme + schemePrefix.ReplaceAllString(u.Host, "") + ":" + strconv.Itoa(u.Port)
}

// Subscription is an established webhook registration together with the
// local listener serving it.
type Subscription struct {
	URI string // the externally visible callback address registered upstream

	client     *nelloClient
	locationID string
	server     *webhook.Server
}

// Close deregisters the webhook upstream and stops the local listener.
func (s *Subscription) Close(ctx context.Context) error {
	return s.client.Unlisten(ctx, s.locationID)
}

// Listen registers a webhook for the location and starts the local HTTP or
// HTTPS listener with a receiver delivering every pushed event to cb. The
// listener binds the port of external; whether it serves TLS follows the
// client's TLS configuration.
func (c *nelloClient) Listen(ctx context.Context, locationID string, external ExternalURI, cb webhook.Callback, actions ...string) (*Subscription, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, errors.New("a callback is required")
	}
	if len(actions) == 0 {
		actions = defaultActions
	}

	uri := external.String(c.tlsConf != nil)
	_, err := checkEnvelope(c.api.DoPUT(ctx, c.url("locations", locationID, "webhook"), map[string]any{
		"url":     uri,
		"actions": actions,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}

	receiver := webhook.New(cb, webhook.WithLogger(c.logger))
	server := webhook.NewServer(fmt.Sprintf(":%d", external.Port), receiver, c.tlsConf, c.logger)
	if err := server.Start(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if prev := c.listener; prev != nil {
		// a stale listener from an earlier subscription would hold the port
		_ = prev.Shutdown(ctx)
	}
	c.listener = server
	c.mu.Unlock()

	return &Subscription{
		URI:        uri,
		client:     c,
		locationID: locationID,
		server:     server,
	}, nil
}

// Unlisten deletes the webhook registration of a location and stops the
// local listener if one is running.
func (c *nelloClient) Unlisten(ctx context.Context, locationID string) error {
	c.mu.Lock()
	server := c.listener
	c.listener = nil
	c.mu.Unlock()
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			c.logger.Debug("webhook listener shutdown failed", "error", err)
		}
	}

	if err := c.requireToken(); err != nil {
		return err
	}
	if _, err := checkEnvelope(c.api.DoDELETE(ctx, c.url("locations", locationID, "webhook"))); err != nil {
		return fmt.Errorf("failed to deregister webhook: %w", err)
	}
	return nil
}
