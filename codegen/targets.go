package codegen

import (
	"fmt"
	"strings"
)

// Target is a language that Generate can emit type declarations for.
type Target int

// Supported targets.
const (
	TypeScript Target = iota
	Python
	Go
	Rust
	Java
	CSharp
)

// targetConfig holds everything the inference walker needs to know about a
// target language.
type targetConfig struct {
	name    string
	aliases []string

	property func(string) string // field name casing
	typeName func(string) string // declaration name casing

	integer string
	float   string
	str     string
	boolean string
	any     string
	array   func(elem string) string

	field    func(prop, typ, key string) string
	decl     func(name string, fields []string) string
	preamble string
}

var targets = [...]targetConfig{
	TypeScript: {
		name:     "typescript",
		aliases:  []string{"ts"},
		property: toCamel,
		typeName: toPascal,
		integer:  "number",
		float:    "number",
		str:      "string",
		boolean:  "boolean",
		any:      "any",
		array:    func(t string) string { return t + "[]" },
		field: func(p, t, _ string) string {
			return fmt.Sprintf("  %s: %s;", p, t)
		},
		decl: func(name string, fields []string) string {
			return "interface " + name + " {\n" + strings.Join(fields, "\n") + "\n}"
		},
	},
	Python: {
		name:     "python",
		aliases:  []string{"py"},
		property: toSnake,
		typeName: toPascal,
		integer:  "int",
		float:    "float",
		str:      "str",
		boolean:  "bool",
		any:      "Any",
		array:    func(t string) string { return "List[" + t + "]" },
		field: func(p, t, _ string) string {
			return fmt.Sprintf("    %s: %s", p, t)
		},
		decl: func(name string, fields []string) string {
			if len(fields) == 0 {
				return "@dataclass\nclass " + name + ":\n    pass"
			}
			return "@dataclass\nclass " + name + ":\n" + strings.Join(fields, "\n")
		},
		preamble: "from dataclasses import dataclass\nfrom typing import Any, List\n\n",
	},
	Go: {
		name:     "go",
		aliases:  []string{"golang"},
		property: toPascal,
		typeName: toPascal,
		integer:  "int64",
		float:    "float64",
		str:      "string",
		boolean:  "bool",
		any:      "interface{}",
		array:    func(t string) string { return "[]" + t },
		field: func(p, t, key string) string {
			return fmt.Sprintf("\t%s %s `json:%q`", p, t, key)
		},
		decl: func(name string, fields []string) string {
			return "type " + name + " struct {\n" + strings.Join(fields, "\n") + "\n}"
		},
	},
	Rust: {
		name:     "rust",
		aliases:  []string{"rs"},
		property: toSnake,
		typeName: toPascal,
		integer:  "i64",
		float:    "f64",
		str:      "String",
		boolean:  "bool",
		any:      "Option<serde_json::Value>",
		array:    func(t string) string { return "Vec<" + t + ">" },
		field: func(p, t, _ string) string {
			return fmt.Sprintf("    %s: %s,", p, t)
		},
		decl: func(name string, fields []string) string {
			return "#[derive(Serialize, Deserialize)]\nstruct " + name + " {\n" + strings.Join(fields, "\n") + "\n}"
		},
		preamble: "use serde::{Serialize, Deserialize};\n\n",
	},
	Java: {
		name:     "java",
		property: toCamel,
		typeName: toPascal,
		integer:  "int",
		float:    "double",
		str:      "String",
		boolean:  "boolean",
		any:      "Object",
		array:    func(t string) string { return "ArrayList<" + t + ">" },
		field: func(p, t, _ string) string {
			return fmt.Sprintf("    public %s %s;", t, p)
		},
		decl: func(name string, fields []string) string {
			return "public class " + name + " {\n" + strings.Join(fields, "\n") + "\n}"
		},
		preamble: "import java.util.ArrayList;\n\n",
	},
	CSharp: {
		name:     "csharp",
		aliases:  []string{"cs", "c#"},
		property: toPascal,
		typeName: toPascal,
		integer:  "int",
		float:    "double",
		str:      "string",
		boolean:  "bool",
		any:      "object",
		array:    func(t string) string { return "List<" + t + ">" },
		field: func(p, t, _ string) string {
			return fmt.Sprintf("    public %s %s { get; set; }", t, p)
		},
		decl: func(name string, fields []string) string {
			return "public class " + name + "\n{\n" + strings.Join(fields, "\n") + "\n}"
		},
		preamble: "using System.Collections.Generic;\n\n",
	},
}

// String returns the canonical lowercase name of t.
func (t Target) String() string {
	if !t.valid() {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targets[t].name
}

func (t Target) valid() bool {
	return t >= 0 && int(t) < len(targets)
}

// Targets returns every supported target in declaration order.
func Targets() []Target {
	out := make([]Target, len(targets))
	for i := range targets {
		out[i] = Target(i)
	}
	return out
}

// ParseTarget looks up a target by name or alias, ignoring case.
func ParseTarget(name string) (Target, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	for i, cfg := range targets {
		if cfg.name == s {
			return Target(i), nil
		}
		for _, a := range cfg.aliases {
			if a == s {
				return Target(i), nil
			}
		}
	}
	return 0, &UnsupportedTargetError{Name: name}
}

// UnsupportedTargetError is returned for a target name or value that has no
// configuration.
type UnsupportedTargetError struct {
	Name string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("codegen: unsupported target %q", e.Name)
}
