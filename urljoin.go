package fetchkit

import "strings"

type joinConfig struct {
	separator     string
	trailingSlash bool
}

// JoinOption configures URLJoin.
type JoinOption func(*joinConfig)

// WithSeparator overrides the segment separator (default "/").
func WithSeparator(sep string) JoinOption {
	return func(c *joinConfig) {
		if sep != "" {
			c.separator = sep
		}
	}
}

// WithJoinTrailingSlash controls whether the joined result ends with the
// separator. The default is true.
func WithJoinTrailingSlash(enabled bool) JoinOption {
	return func(c *joinConfig) {
		c.trailingSlash = enabled
	}
}

// URLJoin joins path segments with separator normalization: empty segments
// are dropped, the separator is stripped from the trailing edge of the first
// segment, the leading edge of the last segment and both edges of interior
// segments, and the result either ends with exactly one separator or none at
// all depending on the trailing-slash option.
func URLJoin(parts []string, opts ...JoinOption) string {
	cfg := joinConfig{separator: "/", trailingSlash: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	sep := cfg.separator

	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}

	trimmed := make([]string, 0, len(filtered))
	for i, p := range filtered {
		if i > 0 {
			p = trimLeft(p, sep)
		}
		// Trailing edges always come off; the trailing-slash pass below
		// re-adds exactly one when requested.
		p = trimRight(p, sep)
		if p != "" {
			trimmed = append(trimmed, p)
		}
	}

	joined := strings.Join(trimmed, sep)
	if joined == "" {
		return ""
	}
	if cfg.trailingSlash {
		return joined + sep
	}
	return joined
}

func trimLeft(s, sep string) string {
	for strings.HasPrefix(s, sep) {
		s = s[len(sep):]
	}
	return s
}

func trimRight(s, sep string) string {
	for strings.HasSuffix(s, sep) {
		s = s[:len(s)-len(sep)]
	}
	return s
}

// ExtractSection returns the path segment of url at the signed index pos
// (negative indexes from the end, -1 being the last segment). The reported
// bool is false when pos is out of range. One trailing slash, the http(s)
// scheme and any query string are ignored.
func ExtractSection(rawURL string, pos int) (string, bool) {
	s := strings.TrimSuffix(rawURL, "/")
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	segments := strings.Split(s, "/")
	idx := pos
	if idx < 0 {
		idx += len(segments)
	}
	if idx < 0 || idx >= len(segments) {
		return "", false
	}
	return segments[idx], true
}
