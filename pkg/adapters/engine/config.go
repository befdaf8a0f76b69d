package engine

import "fmt"

// StringOption reads a required or optional string from an adapter config map.
func StringOption(config map[string]any, key string, required bool) (string, error) {
	if v, ok := config[key].(string); ok && v != "" {
		return v, nil
	}
	if required {
		return "", fmt.Errorf("%s is required", key)
	}
	return "", nil
}

// IntOption reads an integer, accepting the float64 produced by JSON decoding.
func IntOption(config map[string]any, key string, def int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64: // JSON numbers are float64
		return int(v)
	}
	return def
}

// FormatScalar renders a driver value the way callers expect to see it in
// a report. NULL becomes the empty string.
func FormatScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
