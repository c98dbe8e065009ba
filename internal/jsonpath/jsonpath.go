package jsonpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned by Text when neither the path nor the "text"
// field yields a scalar value.
var ErrNotFound = errors.New("text not found in response")

// Text parses a JSON response body and extracts the transcription using
// path, falling back to a top-level "text" field.
func Text(body []byte, path string) (string, error) {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if path != "" {
		if v, ok := Lookup(root, path); ok {
			return v, nil
		}
	}
	if path != "text" {
		if v, ok := Lookup(root, "text"); ok {
			return v, nil
		}
	}
	return "", ErrNotFound
}

// Lookup extracts a scalar from a decoded JSON document using a
// dot-separated path such as "results[0].alternatives[0].transcript".
// Numbers and booleans are formatted as text.
func Lookup(root interface{}, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		key, idxs, err := parseSegment(part)
		if err != nil {
			return "", false
		}

		if key != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return "", false
			}
			next, exists := m[key]
			if !exists {
				return "", false
			}
			cur = next
		}

		for _, idx := range idxs {
			arr, ok := cur.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return "", false
			}
			cur = arr[idx]
		}
	}

	switch v := cur.(type) {
	case string:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// parseSegment splits "foo[0][1]", "[0]" or "bar" into key and indexes.
func parseSegment(token string) (string, []int, error) {
	if token == "" {
		return "", nil, fmt.Errorf("empty path segment")
	}
	br := strings.Index(token, "[")
	if br == -1 {
		return token, nil, nil
	}
	key := token[:br]
	rest := token[br:]
	var idxs []int
	for len(rest) > 0 {
		if !strings.HasPrefix(rest, "[") {
			return "", nil, fmt.Errorf("invalid index syntax in %s", token)
		}
		closePos := strings.Index(rest, "]")
		if closePos == -1 {
			return "", nil, fmt.Errorf("missing closing ] in %s", token)
		}
		numStr := rest[1:closePos]
		if numStr == "" {
			return "", nil, fmt.Errorf("empty index in %s", token)
		}
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return "", nil, fmt.Errorf("invalid index '%s' in %s", numStr, token)
		}
		idxs = append(idxs, n)
		rest = rest[closePos+1:]
	}
	return key, idxs, nil
}
