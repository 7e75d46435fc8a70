package webhook

import (
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

// collect runs one request through the receiver and returns every callback
// invocation it produced.
func collect(t *testing.T, body io.Reader) []mo.Result[*Event] {
	t.Helper()
	var (
		mu      sync.Mutex
		results []mo.Result[*Event]
	)
	rc := New(func(res mo.Result[*Event]) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, res)
	})
	req := httptest.NewRequest("POST", "/", body)
	rc.ServeHTTP(httptest.NewRecorder(), req)
	mu.Lock()
	defer mu.Unlock()
	return results
}

func TestReceiverDeliversParsedBody(t *testing.T) {
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })

	results := collect(t, strings.NewReader(`{"action":"swipe","data":{"foo":1}}`))
	require.Len(t, results, 1, "exactly one callback per request")

	event, err := results[0].Get()
	require.NoError(t, err)
	assert.Equal(t, "swipe", event.Action)
	assert.Equal(t, float64(1), event.Data["foo"])
	assert.Equal(t, now.Unix(), event.Data["timestamp"])
}

func TestReceiverReportsMalformedJSON(t *testing.T) {
	results := collect(t, strings.NewReader(`{"data": not json`))
	require.Len(t, results, 1)

	_, err := results[0].Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse webhook body")
}

func TestReceiverReportsMissingData(t *testing.T) {
	for _, body := range []string{`{}`, `{"action":"swipe"}`, `null`} {
		results := collect(t, strings.NewReader(body))
		require.Len(t, results, 1, "body %q", body)
		assert.True(t, results[0].IsError(), "body %q must fail the shape check", body)
	}
}

func TestReceiverReportsTransportError(t *testing.T) {
	results := collect(t, errReader{})
	require.Len(t, results, 1)

	_, err := results[0].Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read webhook body")
}

func TestReceiverBodyCap(t *testing.T) {
	var results []mo.Result[*Event]
	rc := New(func(res mo.Result[*Event]) {
		results = append(results, res)
	}, WithMaxBodyBytes(8))
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"data":{"padding":"xxxxxxxxxxxxxxxx"}}`))
	rc.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, results, 1)
	assert.True(t, results[0].IsError(), "oversized body must fail")
}

func TestReceiverConcurrentRequestsStayIsolated(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[float64]int{}
	)
	rc := New(func(res mo.Result[*Event]) {
		event, err := res.Get()
		if err != nil {
			t.Errorf("unexpected failure result: %v", err)
			return
		}
		mu.Lock()
		seen[event.Data["id"].(float64)]++
		mu.Unlock()
	})

	srv := httptest.NewServer(rc)
	defer srv.Close()

	var wg sync.WaitGroup
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			body := strings.NewReader(`{"data":{"id":` + strconv.Itoa(id) + `}}`)
			resp, err := srv.Client().Post(srv.URL, "application/json", body)
			if err != nil {
				t.Errorf("request %d failed: %v", id, err)
				return
			}
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[float64]int{1: 1, 2: 1}, seen, "each request delivers once, with its own id")
}
