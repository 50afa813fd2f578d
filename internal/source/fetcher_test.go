package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type mockResponse struct {
	status int
	body   string
	err    error
}

// mockTransport replays responses in order and repeats the last one.
type mockTransport struct {
	mu        sync.Mutex
	responses []mockResponse
	calls     int
	agents    []string
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.responses[min(m.calls, len(m.responses)-1)]
	m.calls++
	m.agents = append(m.agents, req.Header.Get("User-Agent"))
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
	}, nil
}

func (m *mockTransport) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// routeTransport answers by URL substring; unmatched requests get 404.
type routeTransport struct {
	mu     sync.Mutex
	routes map[string]string
	urls   []string
}

func (m *routeTransport) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := req.URL.String()
	m.urls = append(m.urls, u)
	for frag, body := range m.routes {
		if strings.Contains(u, frag) {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewBufferString(body))}, nil
		}
	}
	return &http.Response{StatusCode: 404, Body: io.NopCloser(bytes.NewBufferString("not found"))}, nil
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + name) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func testFetcher(client HTTPClient) *Fetcher {
	return NewFetcher(client, WithRetries(2, time.Millisecond))
}

func TestFetcherGet(t *testing.T) {
	tests := []struct {
		name      string
		responses []mockResponse
		wantBody  string
		wantCalls int
		wantErr   error
	}{
		{
			name:      "success",
			responses: []mockResponse{{status: 200, body: "<html>ok</html>"}},
			wantBody:  "<html>ok</html>",
			wantCalls: 1,
		},
		{
			name:      "retries server error then succeeds",
			responses: []mockResponse{{status: 503}, {status: 200, body: "fine"}},
			wantBody:  "fine",
			wantCalls: 2,
		},
		{
			name:      "retries rate limit until exhausted",
			responses: []mockResponse{{status: 429}},
			wantCalls: 3,
		},
		{
			name:      "client error is not retried",
			responses: []mockResponse{{status: 404}},
			wantCalls: 1,
		},
		{
			name:      "cloudflare challenge",
			responses: []mockResponse{{status: 200, body: `<div id="cf-chl-widget"></div>`}},
			wantCalls: 1,
			wantErr:   ErrBlocked,
		},
		{
			name:      "attention required page",
			responses: []mockResponse{{status: 200, body: "<title>Attention Required! | Cloudflare</title>"}},
			wantCalls: 1,
			wantErr:   ErrBlocked,
		},
		{
			name:      "truncated body is retried",
			responses: []mockResponse{{err: io.ErrUnexpectedEOF}, {status: 200, body: "ok"}},
			wantBody:  "ok",
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &mockTransport{responses: tt.responses}
			body, err := testFetcher(tr).Get(context.Background(), "https://example.com/page")
			if tt.wantBody == "" && err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantBody != "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.wantBody, string(body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
			if got := tr.callCount(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestFetcherHTTPStatusError(t *testing.T) {
	tr := &mockTransport{responses: []mockResponse{{status: 403}}}
	_, err := testFetcher(tr).Get(context.Background(), "https://example.com/page")

	var se *HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if se.Code != 403 {
		t.Errorf("code = %d, want 403", se.Code)
	}
}

func TestFetcherSetsUserAgent(t *testing.T) {
	tr := &mockTransport{responses: []mockResponse{{status: 200, body: "ok"}}}
	f := NewFetcher(tr, WithUserAgent("TipBot/1.0"))
	if _, err := f.Get(context.Background(), "https://example.com/"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"TipBot/1.0"}, tr.agents); diff != "" {
		t.Errorf("user agent mismatch (-want +got):\n%s", diff)
	}
}

func TestFetcherBreakerOpens(t *testing.T) {
	tr := &mockTransport{responses: []mockResponse{{status: 500}}}
	f := NewFetcher(tr, WithRetries(0, time.Millisecond))
	ctx := context.Background()

	for n := 0; n < 5; n++ {
		_, _ = f.Get(ctx, "https://flaky.example.com/")
	}
	calls := tr.callCount()

	if _, err := f.Get(ctx, "https://flaky.example.com/"); err == nil {
		t.Fatal("expected error from open breaker")
	}
	if got := tr.callCount(); got != calls {
		t.Errorf("open breaker still called transport: %d calls, want %d", got, calls)
	}
}

func TestFetcherCancelledContext(t *testing.T) {
	tr := &mockTransport{responses: []mockResponse{{status: 503}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testFetcher(tr).Get(ctx, "https://example.com/"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestFetcherCycle(t *testing.T) {
	tests := []struct {
		name      string
		responses []mockResponse
		wantBody  string
		wantCalls int
	}{
		{
			name:      "body is reused",
			responses: []mockResponse{{status: 200, body: "listing"}},
			wantBody:  "listing",
			wantCalls: 1,
		},
		{
			name:      "failure is reused",
			responses: []mockResponse{{status: 404}},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &mockTransport{responses: tt.responses}
			f := testFetcher(tr)
			ctx := WithCycle(context.Background())

			var wg sync.WaitGroup
			bodies := make([]string, 4)
			for i := range bodies {
				i := i
				wg.Add(1)
				go func() {
					defer wg.Done()
					b, _ := f.Get(ctx, "https://example.com/listing")
					bodies[i] = string(b)
				}()
			}
			wg.Wait()
			if _, err := f.Get(WithCycle(ctx), "https://example.com/listing"); (err == nil) != (tt.wantBody != "") {
				t.Errorf("nested cycle error = %v", err)
			}

			want := []string{tt.wantBody, tt.wantBody, tt.wantBody, tt.wantBody}
			if diff := cmp.Diff(want, bodies); diff != "" {
				t.Errorf("bodies mismatch (-want +got):\n%s", diff)
			}
			if got := tr.callCount(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}

			if _, err := f.Get(WithCycle(context.Background()), "https://example.com/listing"); (err == nil) != (tt.wantBody != "") {
				t.Errorf("next cycle error = %v", err)
			}
			if got := tr.callCount(); got != tt.wantCalls+1 {
				t.Errorf("next cycle calls = %d, want %d", got, tt.wantCalls+1)
			}
		})
	}
}
