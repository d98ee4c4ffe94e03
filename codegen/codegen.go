// Package codegen infers type declarations from a toon.Value.
//
// Generate walks a Value depth-first and emits one declaration per distinct
// record shape. Two records share a shape when they have the same key set,
// regardless of key order or values, so structurally identical records
// collapse into a single declaration named after the first field that held
// one:
//
//	v, _ := toon.Decode("a:\n  x: 1\nb:\n  x: 2")
//	out, _ := codegen.Generate(v, "Root", codegen.Go)
//
// produces a single A struct referenced by both fields of Root.
package codegen

import (
	"strconv"
	"strings"

	"github.com/toon-lang/go-toon"
)

// DefaultRootName names the top-level declaration when none is given.
const DefaultRootName = "Root"

// fallbackTypeName names records held by a field whose name cases to nothing.
const fallbackTypeName = "Item"

// generator carries the tables for a single Generate call.
type generator struct {
	cfg   *targetConfig
	names map[string]string // signature -> type name
	decls map[string]string // signature -> declaration
	order []string          // signatures in registration order
	taken map[string]bool   // type names in use
}

// Generate returns declarations for every record shape in v, written for
// target. Declarations are separated by blank lines and follow the target's
// preamble; the type for v itself comes last.
func Generate(v toon.Value, rootName string, target Target) (string, error) {
	if !target.valid() {
		return "", &UnsupportedTargetError{Name: target.String()}
	}
	if rootName == "" {
		rootName = DefaultRootName
	}

	g := &generator{
		cfg:   &targets[target],
		names: make(map[string]string),
		decls: make(map[string]string),
		taken: make(map[string]bool),
	}
	g.typeOf(v, rootName)

	var sb strings.Builder
	sb.WriteString(g.cfg.preamble)
	for i := len(g.order) - 1; i >= 0; i-- {
		sb.WriteString(g.decls[g.order[i]])
		if i > 0 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String(), nil
}

// typeOf returns the target type for v, declaring record types on the way.
// key is the name of the field holding v.
func (g *generator) typeOf(v toon.Value, key string) string {
	switch v.Kind() {
	case toon.KindBool:
		return g.cfg.boolean
	case toon.KindNumber:
		if v.IsInteger() {
			return g.cfg.integer
		}
		return g.cfg.float
	case toon.KindString:
		return g.cfg.str
	case toon.KindList:
		if v.Len() == 0 {
			return g.cfg.array(g.cfg.any)
		}
		return g.cfg.array(g.typeOf(v.Index(0), key))
	case toon.KindRecord:
		sig := v.Signature()
		if name, ok := g.names[sig]; ok {
			return name
		}
		name := g.register(sig, key)
		g.decls[sig] = g.declare(v, name)
		return name
	default:
		return g.cfg.any
	}
}

// register assigns a type name to sig before its fields are visited, so a
// record nested inside itself resolves to the name being declared.
func (g *generator) register(sig, key string) string {
	base := g.cfg.typeName(singular(key))
	if base == "" {
		base = fallbackTypeName
	}
	name := base
	for n := 2; g.taken[name]; n++ {
		name = base + strconv.Itoa(n)
	}

	g.taken[name] = true
	g.names[sig] = name
	g.order = append(g.order, sig)
	return name
}

func (g *generator) declare(v toon.Value, name string) string {
	fields := make([]string, 0, v.Len())
	for _, f := range v.Fields() {
		if f.Value.IsAbsent() {
			continue
		}
		fields = append(fields, g.cfg.field(g.cfg.property(f.Key), g.typeOf(f.Value, f.Key), f.Key))
	}
	return g.cfg.decl(name, fields)
}
