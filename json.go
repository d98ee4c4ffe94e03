package toon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-json-experiment/json/jsontext"
)

// MarshalJSON writes v as JSON, keeping record fields in order. Absent
// fields are skipped and NaN or infinite numbers are written as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	if err := writeJSON(enc, v); err != nil {
		return nil, err
	}
	// The encoder ends every top-level value with a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeJSON(enc *jsontext.Encoder, v Value) error {
	switch v.kind {
	case KindBool:
		return enc.WriteToken(jsontext.Bool(v.b))
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return enc.WriteToken(jsontext.Null)
		}
		// Numbers keep the text the TOON encoder would write.
		return enc.WriteValue(jsontext.Value(FormatNumber(v.n)))
	case KindString:
		return enc.WriteToken(jsontext.String(v.s))
	case KindList:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, item := range v.items {
			if err := writeJSON(enc, item); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case KindRecord:
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, f := range v.fields {
			if f.Value.kind == KindAbsent {
				continue
			}
			if err := enc.WriteToken(jsontext.String(f.Key)); err != nil {
				return err
			}
			if err := writeJSON(enc, f.Value); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndObject)
	default:
		return enc.WriteToken(jsontext.Null)
	}
}

// UnmarshalJSON reads a single JSON value into v. Object keys keep their
// document order; a repeated key keeps its first position and its last value.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := jsontext.NewDecoder(bytes.NewReader(data), jsontext.AllowDuplicateNames(true))

	out, err := readJSON(dec)
	if err != nil {
		return err
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		return errors.New("toon: unexpected data after top-level JSON value")
	}
	*v = out
	return nil
}

// readJSON consumes one value from the token stream.
func readJSON(dec *jsontext.Decoder) (Value, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return Value{}, err
	}

	switch tok.Kind() {
	case 'n':
		return Null(), nil
	case 't', 'f':
		return Bool(tok.Bool()), nil
	case '0':
		n := tok.Float()
		if math.IsInf(n, 0) {
			return Value{}, fmt.Errorf("toon: JSON number %s out of range", tok)
		}
		return Number(n), nil
	case '"':
		return String(tok.String()), nil
	case '[':
		items := make([]Value, 0, 4)
		for dec.PeekKind() != ']' {
			item, err := readJSON(dec)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		if _, err := dec.ReadToken(); err != nil {
			return Value{}, err
		}
		return Value{kind: KindList, items: items}, nil
	case '{':
		fields := make([]Field, 0, 4)
		for dec.PeekKind() != '}' {
			keyTok, err := dec.ReadToken()
			if err != nil {
				return Value{}, err
			}
			val, err := readJSON(dec)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Key: keyTok.String(), Value: val})
		}
		if _, err := dec.ReadToken(); err != nil {
			return Value{}, err
		}
		return Record(fields...), nil
	}
	return Value{}, fmt.Errorf("toon: unexpected JSON token %v", tok)
}
