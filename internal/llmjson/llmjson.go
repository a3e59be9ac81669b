// Package llmjson recovers JSON objects from model responses that are
// expected to be a single {"<key>": [ ... ]} envelope but may arrive fenced,
// truncated by a length limit, or with trailing commas.
package llmjson

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
)

// trailingCommaRegex matches a comma that directly precedes a closing brace or bracket.
var trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

// StripFences removes a leading "```json" or "```" marker and a trailing "```"
// marker. Only these exact literals are recognised.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RepairTrailingCommas deletes commas that sit immediately before a closing
// brace or bracket. It is a regex-level fix and does not look inside strings.
func RepairTrailingCommas(s string) string {
	return trailingCommaRegex.ReplaceAllString(s, "$1")
}

// Objects returns the elements of the array stored under key.
//
// The whole response is decoded first. When that fails (usually a truncated
// response) the array is scanned object by object and every element that
// closed completely is kept; a trailing incomplete element is dropped.
// Elements that are not JSON objects, or that fail to decode, are skipped.
// Objects never fails: an unusable response yields nil.
func Objects(raw, key string) []map[string]any {
	text := StripFences(raw)
	if text == "" {
		return nil
	}
	if objs, ok := decodeEnvelope(text, key); ok {
		return objs
	}
	return scanArray(text, key)
}

func decodeEnvelope(text, key string) ([]map[string]any, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(RepairTrailingCommas(text)), &envelope); err != nil {
		return nil, false
	}
	rawItems, ok := envelope[key]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, false
	}
	objs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := decodeObject(item); ok {
			objs = append(objs, obj)
		}
	}
	return objs, true
}

// scanArray walks the array that follows "key": with a string-aware depth
// counter. Structural characters inside string literals are ignored.
func scanArray(text, key string) []map[string]any {
	body, ok := arrayAfterKey(text, key)
	if !ok {
		return nil
	}

	var (
		objs     []map[string]any
		depth    int
		inString bool
		escaped  bool
		start    = -1
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			if depth == 0 && c == '{' {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				if c == ']' {
					return objs
				}
				continue
			}
			depth--
			if depth == 0 && c == '}' && start >= 0 {
				if obj, ok := decodeObject([]byte(body[start : i+1])); ok {
					objs = append(objs, obj)
				}
				start = -1
			}
		}
	}
	return objs
}

// arrayAfterKey returns the text following the "[" of the first `"key": [`
// occurrence. Matches of the quoted key used as a value are passed over.
func arrayAfterKey(text, key string) (string, bool) {
	quoted := `"` + key + `"`
	for from := 0; ; {
		idx := strings.Index(text[from:], quoted)
		if idx < 0 {
			return "", false
		}
		from += idx + len(quoted)
		rest := strings.TrimLeft(text[from:], " \t\r\n")
		rest, ok := strings.CutPrefix(rest, ":")
		if !ok {
			continue
		}
		rest = strings.TrimLeft(rest, " \t\r\n")
		if body, ok := strings.CutPrefix(rest, "["); ok {
			return body, true
		}
	}
}

func decodeObject(b []byte) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(RepairTrailingCommas(string(b))), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// String returns obj[key] when it is a string.
func String(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok
}

// Number returns obj[key] when it is a JSON number.
func Number(obj map[string]any, key string) (float64, bool) {
	f, ok := obj[key].(float64)
	return f, ok
}

// Int returns obj[key] when it is a JSON number with no fractional part.
func Int(obj map[string]any, key string) (int, bool) {
	f, ok := Number(obj, key)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Bool returns obj[key] when it is a JSON boolean.
func Bool(obj map[string]any, key string) (bool, bool) {
	b, ok := obj[key].(bool)
	return b, ok
}

// Array returns obj[key] when it is a JSON array.
func Array(obj map[string]any, key string) ([]any, bool) {
	a, ok := obj[key].([]any)
	return a, ok
}
