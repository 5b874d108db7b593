package event

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON. Event identities are
// hashes over this serialization and nothing else.
//
// Differences from encoding/json:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping (<, >, & pass through)
//   - strings NFC-normalized
//   - nulls rejected (hashing input must be fully determined)
func MarshalCanonical(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case Str:
		return canonicalString(string(val)), nil
	case Int:
		return []byte(fmt.Sprintf("%d", int64(val))), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Arr:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Obj:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(canonicalString(k))
			buf.WriteByte(':')
			b, err := MarshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// canonicalString encodes a string per RFC 8785: NFC normalized, no HTML
// escaping, and U+2028/U+2029 left literal. Only control characters,
// backslash and quote are escaped.
func canonicalString(s string) []byte {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		// Strings always encode.
		panic(err)
	}

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(out)
}

// unescapeLineSeparators rewrites   and   escape sequences to the
// literal characters. Go's encoder escapes them for JavaScript embedding,
// which RFC 8785 forbids. A sequence preceded by an odd number of backslashes
// is a literal backslash followed by text and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	var out []byte
	backslashes := 0
	for i := 0; i < len(data); {
		if data[i] == '\\' && backslashes%2 == 0 && i+6 <= len(data) &&
			bytes.HasPrefix(data[i:], []byte(`\u202`)) &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if out == nil {
				out = append(out, data[:i]...)
			}
			if data[i+5] == '8' {
				out = append(out, " "...)
			} else {
				out = append(out, " "...)
			}
			i += 6
			backslashes = 0
			continue
		}
		if data[i] == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		if out != nil {
			out = append(out, data[i])
		}
		i++
	}
	if out == nil {
		return data
	}
	return out
}
