package fetchkit

import (
	"fmt"
	"net/url"
)

// Option represents a configuration option
type Option func(*Config)

// WithBaseURL sets the base URL joined in front of every per-call URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithoutTrailingSlash disables the trailing slash appended to joined URLs by
// default.
func WithoutTrailingSlash() Option {
	return func(c *Config) {
		c.NoTrailingSlash = true
	}
}

// WithHeader sets one instance-level header.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}

// WithHeaders merges instance-level headers.
func WithHeaders(headers map[string]string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.Headers[k] = v
		}
	}
}

// WithQueryParam sets one instance-level query parameter.
func WithQueryParam(key string, value any) Option {
	return func(c *Config) {
		if c.QueryParams == nil {
			c.QueryParams = make(QueryParams)
		}
		c.QueryParams[key] = value
	}
}

// WithQueryParams merges instance-level query parameters.
func WithQueryParams(params QueryParams) Option {
	return func(c *Config) {
		if c.QueryParams == nil {
			c.QueryParams = make(QueryParams, len(params))
		}
		for k, v := range params {
			c.QueryParams[k] = v
		}
	}
}

// WithQueryOptions sets the encoding options used for merged query params.
func WithQueryOptions(opts *EncodeOptions) Option {
	return func(c *Config) {
		c.QueryOptions = opts
	}
}

// WithFetchParams appends instance-level request editors.
func WithFetchParams(editors ...RequestEditor) Option {
	return func(c *Config) {
		c.FetchParams = append(c.FetchParams, editors...)
	}
}

// WithTransport sets a custom transport. *http.Client satisfies Doer.
func WithTransport(transport Doer) Option {
	return func(c *Config) {
		c.Transport = transport
	}
}

// WithProcessPayload sets the payload transform hook.
func WithProcessPayload(fn ProcessPayload) Option {
	return func(c *Config) {
		c.ProcessPayload = fn
	}
}

// WithProcessResponse sets the response transform hook.
func WithProcessResponse(fn ProcessResponse) Option {
	return func(c *Config) {
		c.ProcessResponse = fn
	}
}

// WithErrorHandler sets the retry/error hook. The handler fully owns retry
// policy; see ErrorHandler.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(c *Config) {
		c.ErrorHandler = fn
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Config) {
		if c.Debug == nil {
			c.Debug = DefaultDebugConfig()
		}
		c.Debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Config) {
		c.Debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Config) {
		if c.Debug == nil {
			c.Debug = DefaultDebugConfig()
		}
		c.Debug.Enabled = true
		c.Logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Config) {
		if c.Debug == nil {
			c.Debug = DefaultDebugConfig()
		}
		c.Debug.RequestIDGen = gen
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Config) {
		c.Metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Config) {
		c.Metrics = collector
	}
}

// ValidateConfiguration validates the Fetcher configuration and returns an
// error wrapping ErrInvalidConfig if anything is inconsistent.
func (f *Fetcher) ValidateConfiguration() error {
	var errs []string

	errs = append(errs, f.validateBaseURL()...)
	errs = append(errs, f.validateDebugConfig()...)
	errs = append(errs, f.validateQueryOptions()...)
	errs = append(errs, f.validateTransport()...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	return nil
}

func (f *Fetcher) validateBaseURL() []string {
	var errs []string
	if f.config.BaseURL != "" {
		if _, err := url.Parse(f.config.BaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("baseUrl is not a valid URL: %v", err))
		}
	}
	return errs
}

func (f *Fetcher) validateDebugConfig() []string {
	var errs []string
	if f.config.Debug != nil && f.config.Debug.Enabled {
		if f.config.Logger == nil {
			errs = append(errs, "logger must be set when debug is enabled")
		}
		if f.config.Debug.RequestIDGen == nil {
			errs = append(errs, "debug RequestIDGen must be set when debug is enabled")
		}
	}
	return errs
}

func (f *Fetcher) validateQueryOptions() []string {
	var errs []string
	if f.config.QueryOptions != nil {
		for i, s := range f.config.QueryOptions.Serializers {
			if s.Test == nil || s.Serialize == nil {
				errs = append(errs, fmt.Sprintf("serializer[%d] must set both Test and Serialize", i))
			}
		}
	}
	return errs
}

func (f *Fetcher) validateTransport() []string {
	var errs []string
	if f.config.Transport == nil {
		errs = append(errs, "transport cannot be nil")
	}
	return errs
}
