package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Validator is implemented by parameter structs that have required fields.
type Validator interface {
	Validate() error
}

// DecodeParams decodes the canonical JSON parameter encoding into v. An
// empty string means "no parameters" and decodes as an empty object, so
// required fields are still reported. Every failure wraps ErrParameter.
func DecodeParams(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrParameter, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON object", ErrParameter)
	}
	if val, ok := v.(Validator); ok {
		if err := val.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrParameter, err)
		}
	}
	return nil
}

// IsJSON reports whether raw looks like the canonical encoding.
func IsJSON(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// LegacyToJSON converts the line-oriented "key value" encoding into the
// canonical JSON object. Values that parse as JSON literals (numbers,
// booleans, null) keep their type, anything else becomes a string. Blank
// lines and lines starting with '#' are skipped.
func LegacyToJSON(raw []byte) ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sep := strings.IndexFunc(line, unicode.IsSpace)
		if sep < 0 {
			return nil, fmt.Errorf("%w: line %d: expected \"key value\", got %q", ErrParameter, i+1, line)
		}
		key, value := line[:sep], strings.TrimSpace(line[sep:])
		if key == "" || value == "" {
			return nil, fmt.Errorf("%w: line %d: expected \"key value\", got %q", ErrParameter, i+1, line)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate key %q", ErrParameter, i+1, key)
		}
		fields[key] = legacyValue(value)
	}
	return json.Marshal(fields)
}

func legacyValue(value string) json.RawMessage {
	var literal any
	if err := json.Unmarshal([]byte(value), &literal); err == nil {
		switch literal.(type) {
		case float64, bool, nil:
			return json.RawMessage(value)
		}
	}
	quoted, _ := json.Marshal(value)
	return quoted
}
