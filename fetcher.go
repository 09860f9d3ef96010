package fetchkit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config is the instance-level configuration of a Fetcher. It is treated as
// read-only once the Fetcher is constructed; Override derives a new Fetcher
// from a transformed copy instead of mutating in place.
type Config struct {
	// BaseURL is joined in front of every per-call URL.
	BaseURL string
	// NoTrailingSlash disables the trailing slash URLJoin adds by default.
	NoTrailingSlash bool
	// Headers apply to every call; call-level headers win key-by-key.
	Headers map[string]string
	// QueryParams apply to every call; call-level params win key-by-key.
	QueryParams QueryParams
	// QueryOptions configure query-string encoding for merged params.
	QueryOptions *EncodeOptions
	// FetchParams are instance-level request editors, run before call-level
	// ones.
	FetchParams FetchParams
	// Transport performs the round trips. Defaults to an *http.Client with a
	// 30 second timeout.
	Transport Doer

	ProcessPayload  ProcessPayload
	ProcessResponse ProcessResponse
	ErrorHandler    ErrorHandler

	Debug   *DebugConfig
	Logger  Logger
	Metrics *MetricsCollector
}

// clone copies the config deeply enough that mutating the copy's maps and
// slices cannot leak into the original.
func (c Config) clone() Config {
	out := c
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	if c.QueryParams != nil {
		out.QueryParams = make(QueryParams, len(c.QueryParams))
		for k, v := range c.QueryParams {
			out.QueryParams[k] = v
		}
	}
	if c.FetchParams != nil {
		out.FetchParams = append(FetchParams{}, c.FetchParams...)
	}
	if c.QueryOptions != nil {
		opts := *c.QueryOptions
		opts.Serializers = append([]Serializer{}, c.QueryOptions.Serializers...)
		out.QueryOptions = &opts
	}
	if c.Debug != nil {
		debug := *c.Debug
		out.Debug = &debug
	}
	return out
}

// Fetcher executes HTTP requests with instance/call config merging, payload
// and response hooks and a handler-driven retry loop. A single Fetcher is
// safe for concurrent use: no call path mutates the stored config.
type Fetcher struct {
	config          Config
	validationError error
}

// New constructs a Fetcher from functional options. A best effort validation
// is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Fetcher {
	cfg := Config{
		Debug: DefaultDebugConfig(),
	}
	for _, option := range options {
		option(&cfg)
	}
	return NewFromConfig(cfg)
}

// NewFromConfig constructs a Fetcher from an explicit Config. A nil Transport
// falls back to an *http.Client with a 30 second timeout and a nil Debug to
// DefaultDebugConfig.
func NewFromConfig(cfg Config) *Fetcher {
	if cfg.Transport == nil {
		cfg.Transport = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Debug == nil {
		cfg.Debug = DefaultDebugConfig()
	}

	f := &Fetcher{config: cfg}
	if err := f.ValidateConfiguration(); err != nil {
		f.validationError = err
	}

	if f.debugEnabled() {
		f.config.Logger.Debug("fetcher configured",
			"baseUrl", cfg.BaseURL,
			"trailingSlash", !cfg.NoTrailingSlash,
			"headers", len(cfg.Headers),
			"queryParams", len(cfg.QueryParams),
			"errorHandler", cfg.ErrorHandler != nil,
		)
	}
	return f
}

// Config returns a copy of the Fetcher's configuration.
func (f *Fetcher) Config() Config {
	return f.config.clone()
}

// Override produces a new Fetcher whose config is fn(current config). The
// receiver and its config are left untouched; fn receives a deep enough copy
// that even map mutation cannot reach back.
func (f *Fetcher) Override(fn func(Config) Config) *Fetcher {
	return NewFromConfig(fn(f.config.clone()))
}

// IsValid reports whether configuration validation passed at construction.
func (f *Fetcher) IsValid() bool {
	return f.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (f *Fetcher) ValidationError() error {
	return f.validationError
}

// Fetch performs one logical request: merges instance and call configuration,
// builds the final URL, runs ProcessPayload, dispatches and drives the
// ErrorHandler retry loop. On a 2xx response the ProcessResponse result (when
// configured) is available as Response.Value.
func (f *Fetcher) Fetch(ctx context.Context, method, rawURL string, opts *FetchOptions) (*Response, error) {
	if opts == nil {
		opts = &FetchOptions{}
	}

	joined := URLJoin([]string{f.config.BaseURL, rawURL}, WithJoinTrailingSlash(!f.config.NoTrailingSlash))
	target, err := InsertQueryParams(joined, mergeQueryParams(f.config.QueryParams, opts.QueryParams), f.config.QueryOptions)
	if err != nil {
		return nil, err
	}

	payload := &Payload{
		Method:  method,
		URL:     target,
		Headers: mergeHeaders(f.config.Headers, opts.Headers),
		Body:    opts.Body,
		Editors: append(append(FetchParams{}, f.config.FetchParams...), opts.FetchParams...),
	}
	if f.config.ProcessPayload != nil {
		payload, err = f.config.ProcessPayload(ctx, payload)
		if err != nil {
			return nil, err
		}
	}

	var requestID string
	if f.debugEnabled() && f.config.Debug.RequestIDGen != nil {
		requestID = f.config.Debug.RequestIDGen()
	}
	if f.debugEnabled() && f.config.Debug.LogRequests {
		f.config.Logger.Debug("dispatching request",
			"requestID", requestID,
			"method", payload.Method,
			"url", payload.URL,
			"bodyBytes", len(payload.Body),
		)
	}

	return f.dispatch(ctx, payload, requestID)
}

// Get performs an HTTP GET.
func (f *Fetcher) Get(ctx context.Context, url string, opts *FetchOptions) (*Response, error) {
	return f.Fetch(ctx, http.MethodGet, url, opts)
}

// Post performs an HTTP POST.
func (f *Fetcher) Post(ctx context.Context, url string, opts *FetchOptions) (*Response, error) {
	return f.Fetch(ctx, http.MethodPost, url, opts)
}

// Put performs an HTTP PUT.
func (f *Fetcher) Put(ctx context.Context, url string, opts *FetchOptions) (*Response, error) {
	return f.Fetch(ctx, http.MethodPut, url, opts)
}

// Patch performs an HTTP PATCH.
func (f *Fetcher) Patch(ctx context.Context, url string, opts *FetchOptions) (*Response, error) {
	return f.Fetch(ctx, http.MethodPatch, url, opts)
}

// Delete performs an HTTP DELETE.
func (f *Fetcher) Delete(ctx context.Context, url string, opts *FetchOptions) (*Response, error) {
	return f.Fetch(ctx, http.MethodDelete, url, opts)
}

// Head performs an HTTP HEAD.
func (f *Fetcher) Head(ctx context.Context, url string, opts *FetchOptions) (*Response, error) {
	return f.Fetch(ctx, http.MethodHead, url, opts)
}

// dispatch drives the retry loop. The loop itself imposes no attempt bound:
// bounding retries is wholly owned by the configured ErrorHandler.
func (f *Fetcher) dispatch(ctx context.Context, payload *Payload, requestID string) (*Response, error) {
	endpoint := endpointFromURL(payload.URL)
	metrics := f.config.Metrics
	metrics.RecordRequestStart(payload.Method, endpoint)
	defer metrics.RecordRequestEnd(payload.Method, endpoint)

	start := time.Now()
	for attempt := 1; ; attempt++ {
		resp, err := f.roundTrip(ctx, payload)
		if err != nil {
			metrics.RecordError("Network", payload.Method, endpoint)
			if f.debugEnabled() && f.config.Debug.LogErrors {
				f.config.Logger.Error("network request failed",
					"requestID", requestID, "attempt", attempt, "error", err.Error())
			}
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			metrics.RecordRequest(payload.Method, endpoint, resp.StatusCode, time.Since(start))
			out := &Response{
				StatusCode: resp.StatusCode,
				Header:     resp.Header,
				Body:       resp.Body,
				Raw:        resp,
			}
			if f.config.ProcessResponse != nil {
				value, err := f.config.ProcessResponse(ctx, resp)
				if err != nil {
					return nil, err
				}
				out.Value = value
			}
			return out, nil
		}

		httpErr := f.readError(resp)
		metrics.RecordError(string(httpErr.Class), payload.Method, endpoint)
		if f.debugEnabled() && f.config.Debug.LogErrors {
			f.config.Logger.Warn("request failed",
				"requestID", requestID,
				"attempt", attempt,
				"statusCode", httpErr.StatusCode,
				"class", httpErr.Class,
			)
		}

		if f.config.ErrorHandler == nil {
			metrics.RecordRequest(payload.Method, endpoint, resp.StatusCode, time.Since(start))
			return nil, httpErr
		}

		retryRequested := false
		if handlerErr := f.config.ErrorHandler(ctx, httpErr, attempt, func() { retryRequested = true }); handlerErr != nil {
			metrics.RecordRequest(payload.Method, endpoint, resp.StatusCode, time.Since(start))
			return nil, handlerErr
		}
		if !retryRequested {
			metrics.RecordRequest(payload.Method, endpoint, resp.StatusCode, time.Since(start))
			return nil, httpErr
		}

		metrics.RecordRetry(payload.Method, endpoint, attempt)
		if f.debugEnabled() && f.config.Debug.LogRetries {
			f.config.Logger.Info("retrying request",
				"requestID", requestID, "nextAttempt", attempt+1, "endpoint", endpoint)
		}
	}
}

// roundTrip builds and executes a single http.Request from the payload. The
// body is re-materialized from the payload's bytes on every attempt.
func (f *Fetcher) roundTrip(ctx context.Context, payload *Payload) (*http.Response, error) {
	var body io.Reader
	if len(payload.Body) > 0 {
		body = bytes.NewReader(payload.Body)
	}
	req, err := http.NewRequestWithContext(ctx, payload.Method, payload.URL, body)
	if err != nil {
		return nil, err
	}
	for key, value := range payload.Headers {
		req.Header.Set(key, value)
	}
	for _, edit := range payload.Editors {
		if edit != nil {
			edit(req)
		}
	}
	return f.config.Transport.Do(req)
}

// readError drains the response body once and wraps status + text into an
// HTTPError carrying the response headers.
func (f *Fetcher) readError(resp *http.Response) *HTTPError {
	var text string
	if resp.Body != nil {
		if raw, err := io.ReadAll(resp.Body); err == nil {
			text = string(raw)
		}
		resp.Body.Close()
	}
	httpErr := NewHTTPError(resp.StatusCode, text)
	httpErr.Header = resp.Header
	return httpErr
}

func (f *Fetcher) debugEnabled() bool {
	return f.config.Debug != nil && f.config.Debug.Enabled && f.config.Logger != nil
}

func mergeHeaders(instance, call map[string]string) map[string]string {
	merged := make(map[string]string, len(instance)+len(call))
	for k, v := range instance {
		merged[k] = v
	}
	for k, v := range call {
		merged[k] = v
	}
	return merged
}

func mergeQueryParams(instance, call QueryParams) QueryParams {
	merged := make(QueryParams, len(instance)+len(call))
	for k, v := range instance {
		merged[k] = v
	}
	for k, v := range call {
		merged[k] = v
	}
	return merged
}

// endpointFromURL reduces a URL to host+path for metric labels.
func endpointFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}
	return builder.String()
}
