package canon

import (
	"strconv"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

// Marshal produces RFC 8785 canonical JSON.
// Fingerprints hash this form; cursor payloads use MarshalVerbatim.
//
// Differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping and no U+2028/U+2029 escaping
//  3. Strings are NFC normalized
func Marshal(v Value) ([]byte, error) {
	return encoder{nfc: true}.appendValue(nil, v)
}

// MarshalVerbatim is Marshal without NFC normalization: strings are
// written byte for byte. Values that must decode to exactly what was
// encoded, such as stored sort keys, use it.
func MarshalVerbatim(v Value) ([]byte, error) {
	return encoder{}.appendValue(nil, v)
}

type encoder struct {
	nfc bool
}

func (e encoder) appendValue(buf []byte, v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, errors.New("null is forbidden in canonical JSON")
	case String:
		return e.appendString(buf, string(val))
	case Int:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case Bool:
		return strconv.AppendBool(buf, bool(val)), nil
	case Array:
		buf = append(buf, '[')
		for i, elem := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = e.appendValue(buf, elem); err != nil {
				return nil, errors.Wrapf(err, "array[%d]", i)
			}
		}
		return append(buf, ']'), nil
	case Object:
		buf = append(buf, '{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = e.appendString(buf, k); err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			buf = append(buf, ':')
			if buf, err = e.appendValue(buf, val[k]); err != nil {
				return nil, errors.Wrapf(err, "value for key %q", k)
			}
		}
		return append(buf, '}'), nil
	default:
		return nil, errors.Newf("unsupported type for canonical JSON: %T", v)
	}
}

const hexDigits = "0123456789abcdef"

// appendString writes a JSON string. Only the quote, the backslash and
// control characters below U+0020 are escaped.
func (e encoder) appendString(buf []byte, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.Newf("invalid UTF-8 in string %q", s)
	}
	if e.nfc {
		s = norm.NFC.String(s)
	}

	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			buf = append(buf, '\\', c)
		case c == '\b':
			buf = append(buf, '\\', 'b')
		case c == '\f':
			buf = append(buf, '\\', 'f')
		case c == '\n':
			buf = append(buf, '\\', 'n')
		case c == '\r':
			buf = append(buf, '\\', 'r')
		case c == '\t':
			buf = append(buf, '\\', 't')
		case c < 0x20:
			buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, '"'), nil
}
