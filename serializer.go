package fetchkit

import (
	"fmt"
	"strconv"
	"time"
)

// Serializer is a predicate + converter pair that recognizes and stringifies
// one value shape for query encoding. Serializers are tried in order; the
// first whose Test returns true wins. A value no serializer recognizes is an
// encoding error, not a silent fallback.
type Serializer struct {
	// Test reports whether this serializer handles v.
	Test func(v any) bool
	// Serialize converts v into its query-string form.
	Serialize func(v any) (string, error)
}

// StringSerializer passes string values through unchanged.
func StringSerializer() Serializer {
	return Serializer{
		Test: func(v any) bool {
			_, ok := v.(string)
			return ok
		},
		Serialize: func(v any) (string, error) {
			return v.(string), nil
		},
	}
}

// NumberSerializer renders every Go integer and float kind in decimal form.
func NumberSerializer() Serializer {
	return Serializer{
		Test: func(v any) bool {
			switch v.(type) {
			case int, int8, int16, int32, int64,
				uint, uint8, uint16, uint32, uint64,
				float32, float64:
				return true
			}
			return false
		},
		Serialize: func(v any) (string, error) {
			switch n := v.(type) {
			case int:
				return strconv.Itoa(n), nil
			case int8:
				return strconv.FormatInt(int64(n), 10), nil
			case int16:
				return strconv.FormatInt(int64(n), 10), nil
			case int32:
				return strconv.FormatInt(int64(n), 10), nil
			case int64:
				return strconv.FormatInt(n, 10), nil
			case uint:
				return strconv.FormatUint(uint64(n), 10), nil
			case uint8:
				return strconv.FormatUint(uint64(n), 10), nil
			case uint16:
				return strconv.FormatUint(uint64(n), 10), nil
			case uint32:
				return strconv.FormatUint(uint64(n), 10), nil
			case uint64:
				return strconv.FormatUint(n, 10), nil
			case float32:
				return strconv.FormatFloat(float64(n), 'f', -1, 32), nil
			case float64:
				return strconv.FormatFloat(n, 'f', -1, 64), nil
			}
			return "", fmt.Errorf("fetchkit: value %v is not a number", v)
		},
	}
}

// BoolSerializer renders booleans as "true" / "false".
func BoolSerializer() Serializer {
	return Serializer{
		Test: func(v any) bool {
			_, ok := v.(bool)
			return ok
		},
		Serialize: func(v any) (string, error) {
			return strconv.FormatBool(v.(bool)), nil
		},
	}
}

// NullSerializer renders nil values as the literal string "null".
func NullSerializer() Serializer {
	return Serializer{
		Test: func(v any) bool {
			return v == nil
		},
		Serialize: func(v any) (string, error) {
			return "null", nil
		},
	}
}

// TimeSerializer renders time.Time values as a calendar date (2006-01-02)
// when the time of day is exactly midnight in the value's own location, and
// as a full RFC 3339 UTC timestamp otherwise.
func TimeSerializer() Serializer {
	return Serializer{
		Test: func(v any) bool {
			_, ok := v.(time.Time)
			return ok
		},
		Serialize: func(v any) (string, error) {
			t := v.(time.Time)
			h, m, s := t.Clock()
			if h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
				return t.Format("2006-01-02"), nil
			}
			return t.UTC().Format(time.RFC3339), nil
		},
	}
}

// builtinSerializers returns the default chain in fallback order. Custom
// serializers supplied via EncodeOptions are always consulted first.
func builtinSerializers() []Serializer {
	return []Serializer{
		StringSerializer(),
		NumberSerializer(),
		BoolSerializer(),
		NullSerializer(),
		TimeSerializer(),
	}
}

// serializeValue runs v through the chain and returns the first match.
func serializeValue(v any, chain []Serializer) (string, error) {
	for _, s := range chain {
		if s.Test != nil && s.Test(v) {
			return s.Serialize(v)
		}
	}
	return "", fmt.Errorf("%w for value %v (%T)", ErrNoSerializer, v, v)
}
