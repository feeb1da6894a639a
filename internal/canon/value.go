package canon

import (
	"bytes"
	"encoding/json"
	"io"
	"slices"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
)

// Value is a sealed interface over the JSON subset that has exactly one
// canonical encoding. Only String, Int, Bool, Array and Object implement it.
type Value interface {
	canonValue()
}

// String is a JSON string.
type String string

func (String) canonValue() {}

// Int is a JSON integer. Always int64, never float64.
type Int int64

func (Int) canonValue() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) canonValue() {}

// Array is an ordered JSON array.
type Array []Value

func (Array) canonValue() {}

// Object is a JSON object. Iterate with SortedKeys for deterministic order.
type Object map[string]Value

func (Object) canonValue() {}

// Strings builds an Array of String values.
func Strings(ss ...string) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = String(s)
	}
	return arr
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's native string comparison is UTF-8 byte order, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Decode parses a single JSON document into a Value.
// Floats, nulls and trailing data are rejected.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after json value")
	}
	return fromAny(raw)
}

// fromAny converts the output of a UseNumber json decode into a Value.
func fromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, errors.New("null is not allowed")
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, errors.Newf("floats are not allowed: %s", val)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			ev, err := fromAny(elem)
			if err != nil {
				return nil, errors.Wrapf(err, "[%d]", i)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			ev, err := fromAny(elem)
			if err != nil {
				return nil, errors.Wrapf(err, "[%q]", k)
			}
			obj[k] = ev
		}
		return obj, nil
	default:
		return nil, errors.Newf("unsupported json type %T", v)
	}
}
