package fetchkit

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// Doer executes a single HTTP round trip. *http.Client satisfies it; any
// transport does as long as it returns a response with a status code and a
// readable body.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditor mutates the outgoing *http.Request just before dispatch.
// Editors stand in for per-call transport options: instance-level editors run
// first, call-level editors after, so call-level settings win.
type RequestEditor func(req *http.Request)

// FetchParams is an ordered list of request editors.
type FetchParams []RequestEditor

// Payload is the fully assembled request handed to the transport: final URL,
// merged headers and the body bytes. ProcessPayload receives it after merging
// and may replace it wholesale.
type Payload struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Editors FetchParams
}

// FetchOptions carries per-call request configuration. Call-level headers and
// query params win key-by-key over the Fetcher's instance-level ones.
type FetchOptions struct {
	Headers     map[string]string
	QueryParams QueryParams
	Body        []byte
	FetchParams FetchParams
}

// Response is the result of a Fetch call. Body is the unread response body;
// closing it is the caller's responsibility. Value holds the ProcessResponse
// hook's result when one is configured, nil otherwise.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	Raw        *http.Response
	Value      any
}

// ProcessPayload transforms the assembled payload before dispatch. Its return
// value replaces the payload in full. It may block; the call path awaits it.
type ProcessPayload func(ctx context.Context, p *Payload) (*Payload, error)

// ProcessResponse transforms a successful (2xx) response. Its result becomes
// Response.Value. Errors propagate unmodified to the Fetch caller.
type ProcessResponse func(ctx context.Context, resp *http.Response) (any, error)

// ErrorHandler owns the retry policy for non-2xx responses. attempt is
// 1-based. Calling retry requests one more attempt with the same processed
// payload and URL. Returning a non-nil error propagates that error instead of
// the HTTPError; returning nil without calling retry propagates the HTTPError.
// There is no built-in attempt bound: a handler that always calls retry loops
// forever by design, so bound your own attempts (see BackoffErrorHandler).
type ErrorHandler func(ctx context.Context, err *HTTPError, attempt int, retry func()) error

// BeforeRequest runs before a factory-built request dispatches and must
// return the (possibly modified) options.
type BeforeRequest func(ctx context.Context, opts *FetchOptions) (*FetchOptions, error)

// OnResponse transforms the result of a factory-built request.
type OnResponse func(ctx context.Context, resp *Response) (*Response, error)

// Logger is the minimal structured logging surface used for debug output.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// DebugConfig controls the diagnostic side channel. It never affects control
// flow.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogErrors    bool
	RequestIDGen func() string
}

// DefaultDebugConfig returns a config with all categories enabled (but
// Enabled false) and UUID request IDs.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogRetries:   true,
		LogErrors:    true,
		RequestIDGen: uuid.NewString,
	}
}
