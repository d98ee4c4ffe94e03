package convert

import (
	"bytes"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/toon-lang/go-toon"
)

// FromYAML reads the first document in data. Mapping keys keep their order
// and scalars are typed by their resolved tag. An empty document is Null.
func FromYAML(data []byte) (toon.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return toon.Value{}, fmt.Errorf("convert: yaml: %w", err)
	}
	if doc.Kind == 0 {
		return toon.Null(), nil
	}
	v, err := nodeValue(&doc)
	if err != nil {
		return toon.Value{}, fmt.Errorf("convert: yaml: %w", err)
	}
	return v, nil
}

func nodeValue(n *yaml.Node) (toon.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return toon.Null(), nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		items := make([]toon.Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := nodeValue(c)
			if err != nil {
				return toon.Value{}, err
			}
			items = append(items, item)
		}
		return toon.List(items...), nil
	case yaml.MappingNode:
		fields := make([]toon.Field, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return toon.Value{}, fmt.Errorf("line %d: mapping key must be a scalar", key.Line)
			}
			val, err := nodeValue(n.Content[i+1])
			if err != nil {
				return toon.Value{}, err
			}
			fields = append(fields, toon.F(key.Value, val))
		}
		return toon.Record(fields...), nil
	case yaml.ScalarNode:
		return scalarNodeValue(n)
	}
	return toon.Value{}, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

func scalarNodeValue(n *yaml.Node) (toon.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return toon.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return toon.Value{}, err
		}
		return toon.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return toon.Value{}, err
		}
		return toon.Number(f), nil
	}
	return toon.String(n.Value), nil
}

// ToYAML writes v as a YAML document with two-space indentation.
func ToYAML(v toon.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(valueNode(v)); err != nil {
		return nil, fmt.Errorf("convert: yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("convert: yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// maxExactInt is the largest integer a float64 holds exactly. Larger
// integral values are written as floats so they resolve to the same tag.
const maxExactInt = 1 << 53

func valueNode(v toon.Value) *yaml.Node {
	switch v.Kind() {
	case toon.KindBool:
		b, _ := v.AsBool()
		if b {
			return scalarNode("!!bool", "true")
		}
		return scalarNode("!!bool", "false")
	case toon.KindNumber:
		n, _ := v.AsNumber()
		if !finite(n) {
			return scalarNode("!!null", "null")
		}
		if v.IsInteger() && math.Abs(n) <= maxExactInt {
			return scalarNode("!!int", toon.FormatNumber(n))
		}
		return scalarNode("!!float", toon.FormatNumber(n))
	case toon.KindString:
		s, _ := v.AsString()
		return scalarNode("!!str", s)
	case toon.KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			n.Content = append(n.Content, valueNode(item))
		}
		return n
	case toon.KindRecord:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range v.Fields() {
			if f.Value.IsAbsent() {
				continue
			}
			n.Content = append(n.Content, scalarNode("!!str", f.Key), valueNode(f.Value))
		}
		return n
	}
	return scalarNode("!!null", "null")
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
