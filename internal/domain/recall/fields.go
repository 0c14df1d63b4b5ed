package recall

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Fields is one upstream record keyed by source field name, values left undecoded.
type Fields map[string]json.RawMessage

// ParseFields decodes a single JSON object.
func ParseFields(raw json.RawMessage) (Fields, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedRecord
	}

	var fields Fields
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, ErrMalformedRecord
	}
	return fields, nil
}

// Text returns the field as text, or nil when it is absent or falsy: null, "", false, 0.
// Numbers and booleans keep their literal JSON spelling. Arrays and objects are returned
// as compact JSON.
func (f Fields) Text(name string) *string {
	raw, ok := f[name]
	if !ok {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case 'n', 'f':
		// null, false
		return nil
	case 't':
		return ptr("true")
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return nil
		}
		return &s
	case '[', '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil
		}
		return ptr(buf.String())
	default:
		n, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || n == 0 {
			return nil
		}
		return ptr(string(raw))
	}
}

// String is Text with nil flattened to "".
func (f Fields) String(name string) string {
	if v := f.Text(name); v != nil {
		return *v
	}
	return ""
}

// StripHyphens turns "2024-01-05" into "20240105". Nil and values that become empty map
// to nil, so a missing date never fails a record.
func StripHyphens(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.ReplaceAll(*v, "-", "")
	if out == "" {
		return nil
	}
	return &out
}

func ptr(s string) *string { return &s }
