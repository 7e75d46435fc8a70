package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Envelope is the wrapper every nello API response carries: a result block
// stating success plus the endpoint-specific payload.
type Envelope struct {
	Result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	} `json:"result"`
	Data json.RawMessage `json:"data"`
}

// ApiClient wraps http.Client with nello-specific functionality.
type ApiClient interface {
	DoGET(ctx context.Context, url string) (*Envelope, error)
	DoPOST(ctx context.Context, url string, body any) (*Envelope, error)
	DoPUT(ctx context.Context, url string, body any) (*Envelope, error)
	DoDELETE(ctx context.Context, url string) (*Envelope, error)
}

type apiClient struct {
	client *http.Client
	logger *slog.Logger
}

// NewApiClient creates a new client wrapper. The http.Client is expected to
// carry a BearerAuthTransport; this layer only shapes requests and decodes
// envelopes.
func NewApiClient(client *http.Client, logger *slog.Logger) (ApiClient, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if client == nil {
		client = &http.Client{}
	}
	return &apiClient{client: client, logger: logger}, nil
}

func (c *apiClient) DoGET(ctx context.Context, url string) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *apiClient) DoPOST(ctx context.Context, url string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *apiClient) DoPUT(ctx context.Context, url string, body any) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, url, body)
}

func (c *apiClient) DoDELETE(ctx context.Context, url string) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, url, nil)
}

func (c *apiClient) do(ctx context.Context, method, url string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request for %q: %w", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	c.logger.Debug("api response",
		"method", method,
		"url", url,
		"status", resp.Status,
		"bytes", len(data))

	// an empty body decodes to the zero envelope; callers treat the missing
	// success flag as an API failure, which is how the API signals nothing
	env := &Envelope{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, env); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
		}
	}
	return env, nil
}
