// Package jsonutil decodes model responses that are almost JSON: payloads
// wrapped in markdown fences, prefixed with prose, or HTML-escaped. It also
// provides escape-free marshalling for JSON embedded into prompts.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Decode unmarshals a model response into v, tolerating markdown fences
// and surrounding prose around the JSON payload.
func Decode(raw json.RawMessage, v any) error {
	data := bytes.TrimSpace(raw)
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	data = StripFences(data)
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	if body, ok := extractJSON(data); ok {
		return json.Unmarshal(body, v)
	}
	return fmt.Errorf("jsonutil: no JSON payload in %d bytes", len(raw))
}

// StripFences removes a surrounding ```json ... ``` (or bare ```) block.
func StripFences(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") {
		return data
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		// The fence line may carry a language tag ("json").
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return []byte(strings.TrimSpace(s))
}

// extractJSON returns the first balanced JSON object or array in data.
func extractJSON(data []byte) ([]byte, bool) {
	start := bytes.IndexAny(data, "{[")
	if start < 0 {
		return nil, false
	}
	open := data[start]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}
	depth := 0
	inString := false
	for i := start; i < len(data); i++ {
		c := data[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return data[start : i+1], true
			}
		}
	}
	return nil, false
}

// MarshalIndent renders v as indented JSON without HTML escaping, so table
// and column descriptions embed into prompts as written.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
