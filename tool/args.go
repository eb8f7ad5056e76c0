package tool

import "fmt"

// stringArg extracts an optional string argument, returning the empty string
// when the key is absent.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: key, Value: v, Message: fmt.Sprintf("expected type string, got %T", v)}
	}

	return s, nil
}

// requireString extracts a mandatory, non-empty string argument.
func requireString(args map[string]any, key string) (string, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return "", err
	}

	if s == "" {
		return "", &ValidationError{Field: key, Message: "required field is missing"}
	}

	return s, nil
}

// intArg extracts an optional integer argument with a default. JSON decoding
// delivers numbers as float64, so both representations are accepted.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, &ValidationError{Field: key, Value: v, Message: fmt.Sprintf("expected type integer, got %T", v)}
	}
}
