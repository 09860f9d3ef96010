package fetchkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Hooks are per-request-factory extension points. BeforeRequest sees the
// fully assembled FetchOptions; OnResponse sees (and may replace) the result.
type Hooks struct {
	BeforeRequest BeforeRequest
	OnResponse    OnResponse
}

// Input is the per-invocation argument of a factory-built request function.
type Input struct {
	Body        []byte
	PathParams  PathParams
	QueryParams QueryParams
}

// RequestFunc is a frozen, reusable request bound to a Fetcher, a method and
// a URL template.
type RequestFunc func(ctx context.Context, in Input) (*Response, error)

// Request is an immutable request builder. Every chain call returns a new
// value embedding the accumulated configuration, so a partially-built Request
// can be shared and branched without hazards.
type Request struct {
	fetcher    *Fetcher
	method     string
	url        string
	pathParams bool
	defaults   QueryParams
	hooks      Hooks
}

// NewRequest starts a builder bound to fetcher, an HTTP method and a URL or
// route path. Route values can be passed via their String()/Path.
func NewRequest(fetcher *Fetcher, method, url string) Request {
	return Request{fetcher: fetcher, method: method, url: url}
}

// NewGet starts a GET builder.
func NewGet(fetcher *Fetcher, url string) Request {
	return NewRequest(fetcher, http.MethodGet, url)
}

// NewPost starts a POST builder.
func NewPost(fetcher *Fetcher, url string) Request {
	return NewRequest(fetcher, http.MethodPost, url)
}

// NewPut starts a PUT builder.
func NewPut(fetcher *Fetcher, url string) Request {
	return NewRequest(fetcher, http.MethodPut, url)
}

// NewPatch starts a PATCH builder.
func NewPatch(fetcher *Fetcher, url string) Request {
	return NewRequest(fetcher, http.MethodPatch, url)
}

// NewDelete starts a DELETE builder.
func NewDelete(fetcher *Fetcher, url string) Request {
	return NewRequest(fetcher, http.MethodDelete, url)
}

// WithPathParams declares that the bound URL is a template whose :name
// placeholders are interpolated from Input.PathParams at call time.
func (r Request) WithPathParams() Request {
	r.pathParams = true
	return r
}

// WithQueryParams records default query params merged under call-supplied
// ones (call wins key-by-key). The map is copied.
func (r Request) WithQueryParams(defaults QueryParams) Request {
	copied := make(QueryParams, len(defaults))
	for k, v := range defaults {
		copied[k] = v
	}
	r.defaults = copied
	return r
}

// WithHooks attaches BeforeRequest / OnResponse hooks.
func (r Request) WithHooks(hooks Hooks) Request {
	r.hooks = hooks
	return r
}

// Build freezes the builder into a reusable request function. The returned
// function merges default and call query params, interpolates path params
// when declared, applies BeforeRequest, delegates to the Fetcher and applies
// OnResponse to the result.
func (r Request) Build() RequestFunc {
	frozen := r
	return func(ctx context.Context, in Input) (*Response, error) {
		target := frozen.url
		if frozen.pathParams {
			interpolated, err := GeneratePath(target, in.PathParams)
			if err != nil {
				return nil, err
			}
			target = interpolated
		}

		opts := &FetchOptions{
			Body:        in.Body,
			QueryParams: mergeQueryParams(frozen.defaults, in.QueryParams),
		}
		if frozen.hooks.BeforeRequest != nil {
			transformed, err := frozen.hooks.BeforeRequest(ctx, opts)
			if err != nil {
				return nil, err
			}
			opts = transformed
		}

		resp, err := frozen.fetcher.Fetch(ctx, frozen.method, target, opts)
		if err != nil {
			return nil, err
		}
		if frozen.hooks.OnResponse != nil {
			return frozen.hooks.OnResponse(ctx, resp)
		}
		return resp, nil
	}
}

// DecodeJSON reads and closes the response body and unmarshals it into T.
func DecodeJSON[T any](resp *Response) (T, error) {
	var out T
	if resp == nil || resp.Body == nil {
		return out, fmt.Errorf("fetchkit: response has no body")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("fetchkit: read response body: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("fetchkit: unmarshal response json: %w", err)
	}
	return out, nil
}

// Typed wraps a built request function with a JSON decode of the response
// body into T.
func Typed[T any](fn RequestFunc) func(ctx context.Context, in Input) (T, error) {
	return func(ctx context.Context, in Input) (T, error) {
		resp, err := fn(ctx, in)
		if err != nil {
			var zero T
			return zero, err
		}
		return DecodeJSON[T](resp)
	}
}
