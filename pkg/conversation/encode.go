package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalRecords encodes rows as a JSON array in column order. Values are
// written as-is, without the HTML escaping encoding/json applies by default,
// so "&", "<" and ">" reach the model unchanged. A non-empty indent
// pretty-prints the result.
func MarshalRecords(rows []*Record, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encode terminates every value with a newline.
	encode := func(v any) error {
		if err := enc.Encode(v); err != nil {
			return err
		}
		buf.Truncate(buf.Len() - 1)
		return nil
	}

	buf.WriteByte('[')
	for i, rec := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if rec == nil {
			buf.WriteString("null")
			continue
		}
		buf.WriteByte('{')
		for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
			if pair != rec.Oldest() {
				buf.WriteByte(',')
			}
			if err := encode(pair.Key); err != nil {
				return nil, fmt.Errorf("encode column name: %w", err)
			}
			buf.WriteByte(':')
			if err := encode(pair.Value); err != nil {
				return nil, fmt.Errorf("encode column %q: %w", pair.Key, err)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	if indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
