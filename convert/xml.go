package convert

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/toon-lang/go-toon"
)

const (
	xmlRoot = "root"
	xmlItem = "item"
)

// FromXML reads an XML document. The root element is unwrapped and its
// children become the Value: repeated child names become lists, attributes
// are ignored and text is typed with the TOON scalar rules. An element with
// both text and children keeps only the children.
func FromXML(data []byte) (toon.Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return toon.Value{}, errors.New("convert: xml: no root element")
		}
		if err != nil {
			return toon.Value{}, fmt.Errorf("convert: xml: %w", err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			v, err := elementValue(dec)
			if err != nil {
				return toon.Value{}, fmt.Errorf("convert: xml: %w", err)
			}
			return v, nil
		}
	}
}

// elementValue reads the content of the element whose start tag was just
// consumed, up to and including its end tag.
func elementValue(dec *xml.Decoder) (toon.Value, error) {
	var (
		text   strings.Builder
		keys   []string
		values = make(map[string][]toon.Value)
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return toon.Value{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := elementValue(dec)
			if err != nil {
				return toon.Value{}, err
			}
			name := t.Name.Local
			if _, ok := values[name]; !ok {
				keys = append(keys, name)
			}
			values[name] = append(values[name], child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(keys) == 0 {
				return textValue(text.String()), nil
			}
			fields := make([]toon.Field, len(keys))
			for i, k := range keys {
				vs := values[k]
				if len(vs) == 1 {
					fields[i] = toon.F(k, vs[0])
				} else {
					fields[i] = toon.F(k, toon.List(vs...))
				}
			}
			return toon.Record(fields...), nil
		}
	}
}

// textValue types element text. Quoted text is kept verbatim.
func textValue(s string) toon.Value {
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasPrefix(s, `"`) {
		if v, err := toon.ParseScalar(s); err == nil {
			return v
		}
	}
	return toon.String(s)
}

// ToXML writes v inside a <root> element with two-space indentation. A
// list at the root is written as repeated <item> elements.
func ToXML(v toon.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if v.Kind() == toon.KindList {
		v = toon.Record(toon.F(xmlItem, v))
	}
	if err := writeElement(enc, xmlRoot, v); err != nil {
		return nil, fmt.Errorf("convert: xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("convert: xml: %w", err)
	}
	return buf.Bytes(), nil
}

// writeField writes a record field. List values repeat the element once per
// item.
func writeField(enc *xml.Encoder, name string, v toon.Value) error {
	if v.Kind() != toon.KindList {
		return writeElement(enc, name, v)
	}
	for _, item := range v.Items() {
		if err := writeElement(enc, name, item); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(enc *xml.Encoder, name string, v toon.Value) error {
	start := xml.StartElement{Name: xml.Name{Local: xmlName(name)}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch v.Kind() {
	case toon.KindRecord:
		for _, f := range v.Fields() {
			if f.Value.IsAbsent() {
				continue
			}
			if err := writeField(enc, f.Key, f.Value); err != nil {
				return err
			}
		}
	case toon.KindList:
		// A list directly inside a list.
		for _, item := range v.Items() {
			if err := writeElement(enc, xmlItem, item); err != nil {
				return err
			}
		}
	default:
		if s := scalarText(v); s != "" {
			if err := enc.EncodeToken(xml.CharData(s)); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

func scalarText(v toon.Value) string {
	switch v.Kind() {
	case toon.KindBool:
		b, _ := v.AsBool()
		if b {
			return "true"
		}
		return "false"
	case toon.KindNumber:
		n, _ := v.AsNumber()
		if !finite(n) {
			return ""
		}
		return toon.FormatNumber(n)
	case toon.KindString:
		s, _ := v.AsString()
		return s
	}
	return ""
}

// xmlName turns a record key into a valid element name by replacing
// characters XML does not allow.
func xmlName(key string) string {
	if key == "" {
		return "_"
	}
	var sb strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			if i == 0 && (r == '-' || r == '.' || unicode.IsDigit(r)) {
				sb.WriteRune('_')
				sb.WriteRune(r)
				continue
			}
			r = '_'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
