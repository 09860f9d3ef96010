package fetchkit

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestOptionsAccumulate(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	f := New(
		WithBaseURL("https://api.example.com"),
		WithHeaders(map[string]string{"X-A": "1", "X-B": "2"}),
		WithHeader("X-C", "3"),
		WithQueryParams(QueryParams{"a": 1}),
		WithQueryParam("b", 2),
		WithTransport(client),
	)

	cfg := f.Config()
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if len(cfg.Headers) != 3 {
		t.Errorf("expected 3 headers, got %d", len(cfg.Headers))
	}
	if len(cfg.QueryParams) != 2 {
		t.Errorf("expected 2 query params, got %d", len(cfg.QueryParams))
	}
	if cfg.Transport != client {
		t.Error("expected custom transport to be kept")
	}
}

func TestValidateDebugRequiresLogger(t *testing.T) {
	f := NewFromConfig(Config{
		Debug: &DebugConfig{Enabled: true, RequestIDGen: func() string { return "id" }},
	})

	if f.IsValid() {
		t.Fatal("expected invalid configuration when debug is enabled without logger")
	}
	if !errors.Is(f.ValidationError(), ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", f.ValidationError())
	}
}

func TestValidateDebugRequiresRequestIDGen(t *testing.T) {
	f := NewFromConfig(Config{
		Debug:  &DebugConfig{Enabled: true},
		Logger: NewSimpleLogger(),
	})

	if f.IsValid() {
		t.Fatal("expected invalid configuration when debug lacks a request ID generator")
	}
}

func TestWithSimpleLoggerIsValid(t *testing.T) {
	f := New(WithSimpleLogger())
	if !f.IsValid() {
		t.Fatalf("expected valid configuration, got %v", f.ValidationError())
	}
	cfg := f.Config()
	if !cfg.Debug.Enabled {
		t.Error("expected debug to be enabled")
	}
	if cfg.Logger == nil {
		t.Error("expected logger to be set")
	}
}

func TestValidateBadBaseURL(t *testing.T) {
	f := New(WithBaseURL("://no-scheme"))
	if f.IsValid() {
		t.Error("expected invalid configuration for malformed base URL")
	}
}

func TestValidateIncompleteSerializer(t *testing.T) {
	f := New(WithQueryOptions(&EncodeOptions{
		Serializers: []Serializer{{Test: func(any) bool { return true }}},
	}))
	if f.IsValid() {
		t.Error("expected invalid configuration for serializer without Serialize")
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	f := New(
		WithSimpleLogger(),
		WithRequestIDGenerator(func() string { return "fixed-id" }),
	)
	cfg := f.Config()
	if got := cfg.Debug.RequestIDGen(); got != "fixed-id" {
		t.Errorf("expected custom generator, got %q", got)
	}
}

func TestWithDebugKeepsExistingConfig(t *testing.T) {
	custom := &DebugConfig{LogRequests: false, LogRetries: true, LogErrors: true, RequestIDGen: func() string { return "x" }}
	f := New(WithDebugConfig(custom), WithDebug(), WithLogger(NewSimpleLogger()))

	cfg := f.Config()
	if !cfg.Debug.Enabled {
		t.Error("expected WithDebug to enable the existing config")
	}
	if cfg.Debug.LogRequests {
		t.Error("expected custom LogRequests=false to survive WithDebug")
	}
}
