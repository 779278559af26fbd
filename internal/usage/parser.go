package usage

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Keys read from a runtime usage payload. Claude reports cache usage with the
// *_input_tokens suffix; the short forms come from other runtimes.
var (
	inputKeys         = []string{"input_tokens", "prompt_tokens"}
	outputKeys        = []string{"output_tokens", "completion_tokens"}
	cacheReadKeys     = []string{"cache_read_input_tokens", "cache_read_tokens"}
	cacheCreationKeys = []string{"cache_creation_input_tokens", "cache_write_tokens"}
)

// DeltaFromMap extracts a usage delta from a decoded usage payload.
// Returns false if the map does not look like a usage report at all.
func DeltaFromMap(raw map[string]any) (Delta, bool) {
	usage := findUsageMap(raw)
	if usage == nil {
		return Delta{}, false
	}

	var d Delta
	found := false
	if n := findNumber(usage, inputKeys); n != nil {
		d.Input = *n
		found = true
	}
	if n := findNumber(usage, outputKeys); n != nil {
		d.Output = *n
		found = true
	}
	if n := findNumber(usage, cacheReadKeys); n != nil {
		d.CacheRead = *n
		found = true
	}
	if n := findNumber(usage, cacheCreationKeys); n != nil {
		d.CacheCreation = *n
		found = true
	}
	return d, found
}

func findUsageMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		if looksLikeUsageMap(v) {
			return v
		}
		for _, child := range v {
			if found := findUsageMap(child); found != nil {
				return found
			}
		}
	case []any:
		for _, child := range v {
			if found := findUsageMap(child); found != nil {
				return found
			}
		}
	}
	return nil
}

func looksLikeUsageMap(m map[string]any) bool {
	for key, value := range m {
		if _, nested := value.(map[string]any); nested {
			continue
		}
		if strings.Contains(strings.ToLower(key), "token") {
			return true
		}
	}
	return false
}

func findNumber(m map[string]any, keys []string) *int64 {
	for _, key := range keys {
		if value, ok := m[key]; ok {
			if n := parseNumber(value); n != nil {
				return n
			}
		}
	}
	return nil
}

func parseNumber(value any) *int64 {
	switch v := value.(type) {
	case float64:
		n := int64(v)
		return &n
	case float32:
		n := int64(v)
		return &n
	case int:
		n := int64(v)
		return &n
	case int64:
		return &v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return &i
		}
	case string:
		clean := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if clean == "" {
			return nil
		}
		if i, err := strconv.ParseInt(clean, 10, 64); err == nil {
			return &i
		}
	}
	return nil
}
