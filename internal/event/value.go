package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is the sealed set of types allowed in event parameters. There is
// deliberately no float variant: every monetary or rate field is carried as a
// decimal string, so a payload hashed today hashes identically forever.
type Value interface {
	value()
}

// Null is an explicit JSON null. Allowed in event payloads (absent prices are
// logged as null) but forbidden inside canonical hashing input.
type Null struct{}

func (Null) value() {}

func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Str is a string value.
type Str string

func (Str) value() {}

// Int is an integer value, always int64.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Arr is an ordered list of values.
type Arr []Value

func (Arr) value() {}

// Obj is a string-keyed map of values. Use SortedKeys for deterministic
// iteration.
type Obj map[string]Value

func (Obj) value() {}

// SortedKeys returns keys in RFC 8785 canonical order, which compares UTF-16
// code units. Go's native string order compares UTF-8 bytes and diverges for
// characters outside the BMP.
func (o Obj) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// MarshalJSON emits the object with keys in canonical order so journal rows
// and log lines are byte-stable. This is display serialization; hashing goes
// through MarshalCanonical.
func (o Obj) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := marshalValue(o[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a Arr) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Str:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Arr:
		return val.MarshalJSON()
	case Obj:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// UnmarshalJSON decodes a JSON object into an Obj, rejecting floats. Used
// when reading event payloads back out of the journal.
func (o *Obj) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = make(Obj, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		(*o)[k] = val
	}
	return nil
}

func (a *Arr) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = make(Arr, len(raw))
	for i, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		(*a)[i] = val
	}
	return nil
}

func unmarshalValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Str(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return Null{}, nil
	case '[':
		var arr Arr
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	case '{':
		var obj Obj
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		if strings.ContainsAny(string(n), ".eE") {
			return nil, fmt.Errorf("floats are forbidden in event payloads: %s", n)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", n)
		}
		return Int(i), nil
	}
}
