package convert

import (
	"bytes"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/toon-lang/go-toon"
)

// FromJSON reads a single JSON document. Object keys keep their order.
func FromJSON(data []byte) (toon.Value, error) {
	var v toon.Value
	if err := v.UnmarshalJSON(data); err != nil {
		return toon.Value{}, fmt.Errorf("convert: json: %w", err)
	}
	return v, nil
}

// ToJSON writes v as JSON indented by two spaces.
func ToJSON(v toon.Value) ([]byte, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("convert: json: %w", err)
	}
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf, jsontext.WithIndent("  "))
	if err := enc.WriteValue(raw); err != nil {
		return nil, fmt.Errorf("convert: json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
