package toon

import "fmt"

// lineKind represents the structural role of a single TOON line.
type lineKind int

const (
	lineValue lineKind = iota // Bare value token: scalar, [inline, list] or {}.

	// Block list marker.
	lineItem // '-' or '- rest'.

	// Record entries.
	lineEntry   // key<delim>value.
	lineKey     // key with no separator; needs a nested block.
	lineTable   // key[count]{h1<delim>h2}<delim>.
	lineCompact // key[count]<delim>v1<delim>v2.
)

// line is one non-blank, non-comment source line.
type line struct {
	num     int    // Line number (1-based).
	indent  int    // Leading whitespace count.
	content string // Trimmed text.
}

// entry is a classified line.
type entry struct {
	kind    lineKind
	key     string   // Unquoted key, for record entries.
	count   int      // Declared length, for tables and compact lists.
	headers []string // Column names, for tables.
	delim   rune     // Row delimiter, for tables.
	rest    string   // Value text, list item remainder or compact items.
}

// String returns a human-readable representation of the line kind.
func (k lineKind) String() string {
	switch k {
	case lineValue:
		return "value"
	case lineItem:
		return "list item"
	case lineEntry:
		return "entry"
	case lineKey:
		return "key"
	case lineTable:
		return "table header"
	case lineCompact:
		return "compact list"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// String returns a human-readable representation of the entry.
func (e entry) String() string {
	switch e.kind {
	case lineItem:
		return fmt.Sprintf("Item(%s)", e.rest)
	case lineEntry:
		return fmt.Sprintf("Entry(%s=%s)", e.key, e.rest)
	case lineKey:
		return fmt.Sprintf("Key(%s)", e.key)
	case lineTable:
		return fmt.Sprintf("Table(%s[%d]%v)", e.key, e.count, e.headers)
	case lineCompact:
		return fmt.Sprintf("Compact(%s[%d]=%s)", e.key, e.count, e.rest)
	default:
		return fmt.Sprintf("Value(%s)", e.rest)
	}
}
