package fetchkit

import (
	"fmt"
	"strconv"
	"strings"
)

// PathParams supplies values for :name placeholders in a path template.
type PathParams map[string]any

// GeneratePath interpolates params into a path template. Template segments
// use :name for required and :name? for optional placeholders. Optional
// placeholders without a matching (non-nil) param are dropped; required ones
// fail with ErrMissingPathParam naming the placeholder. Non-placeholder
// segments ending in a literal ? have the marker stripped. Empty segments are
// removed after substitution and a leading / is preserved.
func GeneratePath(template string, params PathParams) (string, error) {
	leading := strings.HasPrefix(template, "/")
	segments := strings.Split(template, "/")

	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			name := strings.TrimPrefix(seg, ":")
			optional := strings.HasSuffix(name, "?")
			name = strings.TrimSuffix(name, "?")

			value, ok := params[name]
			if !ok || value == nil {
				if optional {
					continue
				}
				return "", fmt.Errorf("%w: %q", ErrMissingPathParam, name)
			}
			s := stringifyPathParam(value)
			if s == "" {
				continue
			}
			out = append(out, s)
			continue
		}

		seg = strings.TrimSuffix(seg, "?")
		if seg == "" {
			continue
		}
		out = append(out, seg)
	}

	path := strings.Join(out, "/")
	if leading {
		path = "/" + path
	}
	return path, nil
}

func stringifyPathParam(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case int:
		return strconv.Itoa(p)
	case int8:
		return strconv.FormatInt(int64(p), 10)
	case int16:
		return strconv.FormatInt(int64(p), 10)
	case int32:
		return strconv.FormatInt(int64(p), 10)
	case int64:
		return strconv.FormatInt(p, 10)
	case uint:
		return strconv.FormatUint(uint64(p), 10)
	case uint64:
		return strconv.FormatUint(p, 10)
	case float32:
		return strconv.FormatFloat(float64(p), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(p)
	case fmt.Stringer:
		return p.String()
	default:
		return fmt.Sprint(p)
	}
}
