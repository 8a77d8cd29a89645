package actions

import (
	"fmt"
	"strconv"
)

// intParam reads a numeric parameter that a YAML-authored definition may
// have supplied as either a JSON number or a quoted string (§4.4's
// "int|numeric-string" max_attempts).
func intParam(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing %q parameter", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%q is not a valid integer: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%q has unsupported type %T", key, v)
	}
}

func stringParam(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}
