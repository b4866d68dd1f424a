package config

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting returns the first candidate key present in settings. Viper
// lowercases keys, so candidates are also tried in lowercase.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

// asStringSlice treats a scalar string as a one-element list. cast would
// split it on whitespace, which breaks "latency:p95 < 100".
func asStringSlice(value interface{}) ([]string, error) {
	if s, ok := value.(string); ok {
		return []string{s}, nil
	}
	return cast.ToStringSliceE(value)
}

// parseHeader splits a "Key: Value" header argument. The key is canonicalized.
func parseHeader(entry string) (string, string, error) {
	parts := strings.SplitN(entry, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("header must be in \"Key: Value\" format: %s", entry)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return "", "", fmt.Errorf("header key cannot be empty: %s", entry)
	}
	return http.CanonicalHeaderKey(key), strings.TrimSpace(parts[1]), nil
}

// asSeconds interprets bare numbers as seconds and strings as either numbers
// or Go durations ("1500ms", "2s").
func asSeconds(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, nil
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		return time.ParseDuration(trimmed)
	}
	n, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration type %T", value)
	}
	return time.Duration(n * float64(time.Second)), nil
}
