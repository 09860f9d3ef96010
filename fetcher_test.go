package fetchkit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	f := New()

	if !f.IsValid() {
		t.Fatalf("expected valid configuration, got %v", f.ValidationError())
	}

	cfg := f.Config()
	if cfg.Transport == nil {
		t.Error("expected default transport to be set")
	}
	client, ok := cfg.Transport.(*http.Client)
	if !ok {
		t.Fatalf("expected default transport to be *http.Client, got %T", cfg.Transport)
	}
	if client.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", client.Timeout)
	}
	if cfg.NoTrailingSlash {
		t.Error("expected trailing slash enabled by default")
	}
	if cfg.Debug == nil || cfg.Debug.Enabled {
		t.Error("expected debug config present but disabled by default")
	}
}

func TestFetcherGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/users/" {
			t.Errorf("expected path /users/, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	f := New(WithBaseURL(server.URL))

	resp, err := f.Get(context.Background(), "users", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestFetcherTrailingSlashDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("expected path /users, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	f := New(WithBaseURL(server.URL), WithoutTrailingSlash())

	resp, err := f.Get(context.Background(), "users", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestFetcherPostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"alice"}` {
			t.Errorf("unexpected request body: %s", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	f := New(WithBaseURL(server.URL))

	resp, err := f.Post(context.Background(), "users", &FetchOptions{Body: []byte(`{"name":"alice"}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected status 201, got %d", resp.StatusCode)
	}
}

func TestFetcherHeaderMergeCallWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Tenant"); got != "call" {
			t.Errorf("expected call-level header to win, got %q", got)
		}
		if got := r.Header.Get("X-Keep"); got != "instance" {
			t.Errorf("expected instance header to survive, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(
		WithBaseURL(server.URL),
		WithHeader("X-Tenant", "instance"),
		WithHeader("X-Keep", "instance"),
	)

	resp, err := f.Get(context.Background(), "", &FetchOptions{
		Headers: map[string]string{"X-Tenant": "call"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestFetcherQueryMergeCallWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("page"); got != "2" {
			t.Errorf("expected call-level page=2, got %q", got)
		}
		if got := q.Get("limit"); got != "10" {
			t.Errorf("expected instance limit=10, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(
		WithBaseURL(server.URL),
		WithQueryParam("page", 1),
		WithQueryParam("limit", 10),
	)

	resp, err := f.Get(context.Background(), "", &FetchOptions{
		QueryParams: QueryParams{"page": 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestFetcherFetchParamsOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Editor"); got != "call" {
			t.Errorf("expected call-level editor to run last, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(
		WithBaseURL(server.URL),
		WithFetchParams(func(req *http.Request) {
			req.Header.Set("X-Editor", "instance")
		}),
	)

	resp, err := f.Get(context.Background(), "", &FetchOptions{
		FetchParams: FetchParams{func(req *http.Request) {
			req.Header.Set("X-Editor", "call")
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestFetcherErrorNoHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	f := New(WithBaseURL(server.URL))

	_, err := f.Get(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", httpErr.StatusCode)
	}
	if httpErr.Class != ClassClient {
		t.Errorf("expected CLIENT class, got %s", httpErr.Class)
	}
	if !strings.Contains(httpErr.Body, "not found") {
		t.Errorf("expected body to carry response text, got %q", httpErr.Body)
	}
}

func TestFetcherRetrySucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	var observedAttempts []int
	var observedStatus []int
	f := New(
		WithBaseURL(server.URL),
		WithErrorHandler(func(ctx context.Context, err *HTTPError, attempt int, retry func()) error {
			observedAttempts = append(observedAttempts, attempt)
			observedStatus = append(observedStatus, err.StatusCode)
			if err.StatusCode == http.StatusUnauthorized && attempt == 1 {
				retry()
			}
			return nil
		}),
	)

	resp, err := f.Get(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if calls.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", calls.Load())
	}
	if len(observedAttempts) != 1 || observedAttempts[0] != 1 {
		t.Errorf("expected handler to see attempt 1 once, got %v", observedAttempts)
	}
	if observedStatus[0] != http.StatusUnauthorized {
		t.Errorf("expected handler to see status 401, got %v", observedStatus)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("unexpected body after retry: %s", body)
	}
}

func TestFetcherRetryResendsBody(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(
		WithBaseURL(server.URL),
		WithErrorHandler(func(ctx context.Context, err *HTTPError, attempt int, retry func()) error {
			if attempt == 1 {
				retry()
			}
			return nil
		}),
	)

	resp, err := f.Post(context.Background(), "", &FetchOptions{Body: []byte("payload")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}
	for i, b := range bodies {
		if b != "payload" {
			t.Errorf("attempt %d: expected body to be resent, got %q", i+1, b)
		}
	}
}

func TestFetcherHandlerNotRetryingPropagatesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	f := New(
		WithBaseURL(server.URL),
		WithErrorHandler(func(ctx context.Context, err *HTTPError, attempt int, retry func()) error {
			return nil
		}),
	)

	_, err := f.Get(context.Background(), "", nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", httpErr.StatusCode)
	}
}

func TestFetcherHandlerErrorWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sentinel := errors.New("session expired")
	f := New(
		WithBaseURL(server.URL),
		WithErrorHandler(func(ctx context.Context, err *HTTPError, attempt int, retry func()) error {
			return sentinel
		}),
	)

	_, err := f.Get(context.Background(), "", nil)
	if !errors.Is(err, sentinel) {
		t.Errorf("expected handler error to propagate, got %v", err)
	}
}

func TestFetcherProcessPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("expected injected authorization header, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "signed:original" {
			t.Errorf("expected transformed body, got %q", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(
		WithBaseURL(server.URL),
		WithProcessPayload(func(ctx context.Context, p *Payload) (*Payload, error) {
			p.Headers["Authorization"] = "Bearer token-123"
			p.Body = append([]byte("signed:"), p.Body...)
			return p, nil
		}),
	)

	resp, err := f.Post(context.Background(), "", &FetchOptions{Body: []byte("original")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestFetcherProcessPayloadError(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer server.Close()

	sentinel := errors.New("refused to sign")
	f := New(
		WithBaseURL(server.URL),
		WithProcessPayload(func(ctx context.Context, p *Payload) (*Payload, error) {
			return nil, sentinel
		}),
	)

	_, err := f.Get(context.Background(), "", nil)
	if !errors.Is(err, sentinel) {
		t.Errorf("expected payload hook error, got %v", err)
	}
	if called.Load() {
		t.Error("expected no request when the payload hook fails")
	}
}

func TestFetcherProcessResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	type user struct {
		ID int `json:"id"`
	}

	f := New(
		WithBaseURL(server.URL),
		WithProcessResponse(func(ctx context.Context, resp *http.Response) (any, error) {
			defer resp.Body.Close()
			var u user
			if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
				return nil, err
			}
			return u, nil
		}),
	)

	resp, err := f.Get(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := resp.Value.(user)
	if !ok {
		t.Fatalf("expected user value, got %T", resp.Value)
	}
	if got.ID != 7 {
		t.Errorf("expected id 7, got %d", got.ID)
	}
}

func TestFetcherOverrideIsolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Tenant", r.Header.Get("X-Tenant"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	parent := New(WithBaseURL(server.URL), WithHeader("X-Keep", "yes"))
	child := parent.Override(func(cfg Config) Config {
		cfg.Headers["X-Tenant"] = "acme"
		return cfg
	})

	resp, err := child.Get(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Seen-Tenant"); got != "acme" {
		t.Errorf("expected child to send tenant header, got %q", got)
	}

	resp, err = parent.Get(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Seen-Tenant"); got != "" {
		t.Errorf("expected parent to stay untouched, got tenant %q", got)
	}
}

func TestFetcherConfigCopyCannotMutate(t *testing.T) {
	f := New(WithHeader("X-A", "1"))

	cfg := f.Config()
	cfg.Headers["X-A"] = "mutated"

	if got := f.Config().Headers["X-A"]; got != "1" {
		t.Errorf("expected stored config to be isolated from returned copy, got %q", got)
	}
}

func TestFetcherNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	f := New(WithBaseURL(server.URL))

	_, err := f.Get(context.Background(), "", nil)
	if err == nil {
		t.Fatal("expected network error")
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		t.Errorf("network failures must not be HTTPError, got %v", httpErr)
	}
}

func TestFetcherHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.Header().Set("X-Total", "12")
	}))
	defer server.Close()

	f := New(WithBaseURL(server.URL))

	resp, err := f.Head(context.Background(), "users", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Total"); got != "12" {
		t.Errorf("expected X-Total header, got %q", got)
	}
}

func TestFetcherInstanceQueryOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "1,2" {
			t.Errorf("expected comma-joined ids, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(
		WithBaseURL(server.URL),
		WithQueryOptions(&EncodeOptions{ArrayFormat: ArrayFormatComma}),
	)

	resp, err := f.Get(context.Background(), "", &FetchOptions{
		QueryParams: QueryParams{"ids": []any{1, 2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestEndpointFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://api.example.com/users/42", "api.example.com/users/42"},
		{"https://api.example.com/", "api.example.com/"},
		{"https://api.example.com", "api.example.com/"},
		{"://bad", "unknown"},
	}
	for _, tt := range tests {
		if got := endpointFromURL(tt.url); got != tt.want {
			t.Errorf("endpointFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
