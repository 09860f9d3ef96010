package fetchkit

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// QueryParams is a key/value payload destined for a URL query string. Values
// may be strings, numbers, booleans, nil, time.Time, slices of any of these,
// or any custom type recognized by a user-supplied Serializer.
type QueryParams map[string]any

// ArrayFormat selects how slice values are laid out in the query string.
type ArrayFormat string

const (
	// ArrayFormatRepeat emits one key=value pair per element.
	ArrayFormatRepeat ArrayFormat = "repeat"
	// ArrayFormatComma emits a single key=v1,v2,... pair.
	ArrayFormatComma ArrayFormat = "comma"
	// ArrayFormatBracket emits one key[]=value pair per element.
	ArrayFormatBracket ArrayFormat = "bracket"
)

// EncodeOptions configures query-string encoding.
type EncodeOptions struct {
	// Serializers are tried before the built-in chain, in order.
	Serializers []Serializer
	// ArrayFormat defaults to ArrayFormatRepeat. An unknown value fails at
	// encode time, not at configuration time.
	ArrayFormat ArrayFormat
	// SkipNull drops nil values instead of encoding the literal "null".
	SkipNull bool
}

type queryPair struct {
	key   string
	value string
}

// EncodeQueryParams serializes params into percent-encoded query-string form
// (space as +, pairs joined with &). Keys are processed in sorted order: Go
// map iteration order is randomized, and deterministic output is required for
// stable URLs. Slice element order is always preserved.
func EncodeQueryParams(params QueryParams, opts *EncodeOptions) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	if opts == nil {
		opts = &EncodeOptions{}
	}
	chain := append(append([]Serializer{}, opts.Serializers...), builtinSerializers()...)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]queryPair, 0, len(params))
	for _, key := range keys {
		value := params[key]
		if value == nil && opts.SkipNull {
			continue
		}

		rv := reflect.ValueOf(value)
		if value != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
			elemPairs, err := encodeArray(key, rv, chain, opts)
			if err != nil {
				return "", err
			}
			pairs = append(pairs, elemPairs...)
			continue
		}

		s, err := serializeValue(value, chain)
		if err != nil {
			return "", fmt.Errorf("key %q: %w", key, err)
		}
		pairs = append(pairs, queryPair{key: key, value: s})
	}

	return joinPairs(pairs), nil
}

// encodeArray serializes each element independently, dropping nil elements
// under SkipNull. A key whose elements all drop contributes nothing.
func encodeArray(key string, rv reflect.Value, chain []Serializer, opts *EncodeOptions) ([]queryPair, error) {
	values := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if elem == nil && opts.SkipNull {
			continue
		}
		s, err := serializeValue(elem, chain)
		if err != nil {
			return nil, fmt.Errorf("key %q element %d: %w", key, i, err)
		}
		values = append(values, s)
	}
	if len(values) == 0 {
		return nil, nil
	}

	format := opts.ArrayFormat
	if format == "" {
		format = ArrayFormatRepeat
	}
	switch format {
	case ArrayFormatRepeat:
		pairs := make([]queryPair, len(values))
		for i, v := range values {
			pairs[i] = queryPair{key: key, value: v}
		}
		return pairs, nil
	case ArrayFormatComma:
		return []queryPair{{key: key, value: strings.Join(values, ",")}}, nil
	case ArrayFormatBracket:
		pairs := make([]queryPair, len(values))
		for i, v := range values {
			pairs[i] = queryPair{key: key + "[]", value: v}
		}
		return pairs, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedArrayFormat, format)
	}
}

func joinPairs(pairs []queryPair) string {
	if len(pairs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// InsertQueryParams appends params to baseURL. If baseURL already carries a
// query string, the existing params are merged with the new ones: new values
// win on key collision while keeping the key's original position, and
// genuinely new keys are appended after. Returns baseURL unchanged when
// params is empty or encodes to nothing.
func InsertQueryParams(baseURL string, params QueryParams, opts *EncodeOptions) (string, error) {
	if len(params) == 0 {
		return baseURL, nil
	}
	encoded, err := EncodeQueryParams(params, opts)
	if err != nil {
		return "", err
	}
	if encoded == "" {
		return baseURL, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("fetchkit: invalid base URL %q: %w", baseURL, err)
	}
	if u.RawQuery == "" {
		u.RawQuery = encoded
	} else {
		u.RawQuery = mergeEncodedQueries(u.RawQuery, encoded)
	}
	u.Fragment = ""
	return u.String(), nil
}

// mergeEncodedQueries merges two already-encoded query strings. Keys from
// incoming replace existing occurrences in place; incoming-only keys are
// appended in incoming order. Repeated existing keys collapse to a single
// occurrence, matching ExtractQueryParams semantics.
func mergeEncodedQueries(existing, incoming string) string {
	incomingOrder, incomingPieces := groupEncodedPairs(incoming)
	existingOrder, existingPieces := groupEncodedPairs(existing)

	out := make([]string, 0, len(existingOrder)+len(incomingOrder))
	seen := make(map[string]bool, len(existingOrder))
	for _, key := range existingOrder {
		seen[key] = true
		if pieces, ok := incomingPieces[key]; ok {
			out = append(out, pieces...)
			continue
		}
		out = append(out, existingPieces[key][len(existingPieces[key])-1])
	}
	for _, key := range incomingOrder {
		if !seen[key] {
			out = append(out, incomingPieces[key]...)
		}
	}
	return strings.Join(out, "&")
}

// groupEncodedPairs splits an encoded query string into raw k=v pieces
// grouped by decoded key, preserving first-occurrence key order.
func groupEncodedPairs(query string) ([]string, map[string][]string) {
	order := make([]string, 0, 4)
	groups := make(map[string][]string, 4)
	for _, piece := range strings.Split(query, "&") {
		if piece == "" {
			continue
		}
		rawKey := piece
		if i := strings.IndexByte(piece, '='); i >= 0 {
			rawKey = piece[:i]
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], piece)
	}
	return order, groups
}

// ExtractQueryParams parses an absolute or relative URL and returns each
// query key mapped to its last occurring value.
func ExtractQueryParams(rawURL string) (map[string]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetchkit: invalid URL %q: %w", rawURL, err)
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("fetchkit: invalid query in %q: %w", rawURL, err)
	}
	out := make(map[string]string, len(values))
	for key, vs := range values {
		out[key] = vs[len(vs)-1]
	}
	return out, nil
}
