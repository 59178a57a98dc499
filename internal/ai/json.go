package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/qri-io/jsonschema"
)

var fenceRe = regexp.MustCompile("(?i)```(?:json)?")

// StripFences removes markdown code-fence markers around a reply.
func StripFences(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
}

// outermostObject returns the slice between the first '{' and the last '}'.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// DecodeJSON parses a completion reply into dst. It strips code fences,
// falls back to the outermost brace-delimited slice and, when schema is
// set, validates the document before decoding. Every failure wraps
// ErrFormat.
func DecodeJSON(ctx context.Context, raw string, schema *jsonschema.Schema, dst any) error {
	text := StripFences(raw)
	if !json.Valid([]byte(text)) {
		obj, ok := outermostObject(text)
		if !ok || !json.Valid([]byte(obj)) {
			return fmt.Errorf("%w: not valid JSON", ErrFormat)
		}
		text = obj
	}

	if schema != nil {
		keyErrs, err := schema.ValidateBytes(ctx, []byte(text))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if len(keyErrs) > 0 {
			return fmt.Errorf("%w: %s %s", ErrFormat, keyErrs[0].PropertyPath, keyErrs[0].Message)
		}
	}

	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return nil
}
