package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/zefau/libnello/internal/httpclient"
)

// mockApiClient lets each test script the API surface call by call.
type mockApiClient struct {
	doGET    func(ctx context.Context, url string) (*httpclient.Envelope, error)
	doPOST   func(ctx context.Context, url string, body any) (*httpclient.Envelope, error)
	doPUT    func(ctx context.Context, url string, body any) (*httpclient.Envelope, error)
	doDELETE func(ctx context.Context, url string) (*httpclient.Envelope, error)
}

func (m *mockApiClient) DoGET(ctx context.Context, url string) (*httpclient.Envelope, error) {
	if m.doGET == nil {
		return nil, errors.New("unexpected GET " + url)
	}
	return m.doGET(ctx, url)
}

func (m *mockApiClient) DoPOST(ctx context.Context, url string, body any) (*httpclient.Envelope, error) {
	if m.doPOST == nil {
		return nil, errors.New("unexpected POST " + url)
	}
	return m.doPOST(ctx, url, body)
}

func (m *mockApiClient) DoPUT(ctx context.Context, url string, body any) (*httpclient.Envelope, error) {
	if m.doPUT == nil {
		return nil, errors.New("unexpected PUT " + url)
	}
	return m.doPUT(ctx, url, body)
}

func (m *mockApiClient) DoDELETE(ctx context.Context, url string) (*httpclient.Envelope, error) {
	if m.doDELETE == nil {
		return nil, errors.New("unexpected DELETE " + url)
	}
	return m.doDELETE(ctx, url)
}

// newTestClient builds a client around a mock API with a valid token set.
func newTestClient(api httpclient.ApiClient) *nelloClient {
	c := &nelloClient{
		api:     api,
		baseURL: defaultBaseURL,
		authURL: defaultAuthURL,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.token.Store(&Token{Type: "Bearer", Access: "test-token"})
	return c
}

func okEnvelope(t *testing.T, data any) *httpclient.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal envelope data: %v", err)
	}
	env := &httpclient.Envelope{Data: raw}
	env.Result.Success = true
	return env
}

func failEnvelope(message string) *httpclient.Envelope {
	env := &httpclient.Envelope{}
	env.Result.Message = message
	return env
}
