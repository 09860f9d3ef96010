// Package fetchkit is a configurable HTTP request toolkit built from small
// composable layers:
//
//   - Query codec with a pluggable serializer chain and three array formats
//   - URL utilities: segment joining, section extraction and :param templating
//   - Route registry flattening a declarative route tree into absolute paths
//   - Fetcher: a request-execution wrapper with config merging, payload and
//     response hooks and a handler-driven retry loop
//   - Request factory: an immutable builder freezing a method, URL template,
//     default query params and hooks into a single reusable callable
//
// Design goals:
//   - Small surface area: functional options configure everything
//   - Immutable configuration: Override derives a new Fetcher, never mutates
//   - Safe concurrent use of a single *Fetcher instance
//   - Extensibility via custom serializers, request editors and hooks
//   - Prometheus metrics and lightweight structured debug logging
//
// Typical usage:
//
//	fetcher := fetchkit.New(
//	    fetchkit.WithBaseURL("https://api.example.com"),
//	    fetchkit.WithHeader("Authorization", "Bearer "+token),
//	    fetchkit.WithQueryParam("locale", "en"),
//	    fetchkit.WithErrorHandler(fetchkit.BackoffErrorHandler(fetchkit.BackoffConfig{MaxRetries: 3})),
//	)
//	resp, err := fetcher.Get(ctx, "users", nil)
//
// The retry loop has no built-in attempt cap or backoff: the configured
// ErrorHandler fully owns retry policy, including when to stop. Use
// BackoffErrorHandler for a bounded, jittered default rather than writing an
// unconditional retry() handler.
package fetchkit
