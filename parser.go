package toon

import (
	"strings"
)

// parser builds a Value from the classified lines of a document.
type parser struct {
	lexer    *lexer
	lines    []line
	pos      int
	strict   bool
	warnings []Warning
}

// newParser creates a new parser from a lexer.
func newParser(l *lexer, strict bool) *parser {
	return &parser{lexer: l, strict: strict}
}

// parse parses the entire document and returns the result.
func (p *parser) parse() (Value, error) {
	lines, err := p.lexer.readLines()
	if err != nil {
		return Value{}, err
	}
	p.lines = lines

	// Blank and comment-only documents are null.
	if len(p.lines) == 0 {
		return Null(), nil
	}

	first := p.lines[0]
	if first.indent != 0 {
		return Value{}, decodeErrorf(first.num, ReasonRootIndented, "root element must not be indented")
	}

	// A lone line that is not a record entry is a root value.
	if len(p.lines) == 1 {
		e := p.lexer.classify(first.content)
		if e.kind == lineValue || e.kind == lineKey {
			p.pos++
			return p.parseValueToken(first.content, first.num)
		}
	}

	out, err := p.parseBlock(0)
	if err != nil {
		return Value{}, err
	}
	if p.pos < len(p.lines) {
		return Value{}, p.unexpected(p.lines[p.pos])
	}
	return out, nil
}

// current returns the line under the cursor.
func (p *parser) current() (line, bool) {
	if p.pos >= len(p.lines) {
		return line{}, false
	}
	return p.lines[p.pos], true
}

// deeper returns the indent of the next line if it is nested below indent.
func (p *parser) deeper(indent int) (int, bool) {
	ln, ok := p.current()
	if !ok || ln.indent <= indent {
		return 0, false
	}
	return ln.indent, true
}

// unexpected reports a line that no construct could consume.
func (p *parser) unexpected(ln line) error {
	if ln.indent > 0 {
		return decodeErrorf(ln.num, ReasonUnexpectedIndent, "unexpected indentation")
	}
	return decodeErrorf(ln.num, ReasonMixedBlock, "unexpected content after root element")
}

// parseBlock parses the list or record starting at the cursor.
func (p *parser) parseBlock(indent int) (Value, error) {
	ln, _ := p.current()
	if p.lexer.classify(ln.content).kind == lineItem {
		return p.parseList(indent)
	}
	return p.parseRecord(indent)
}

// parseList parses consecutive list items at the given indentation.
func (p *parser) parseList(indent int) (Value, error) {
	out := make([]Value, 0, 8)

	for {
		ln, ok := p.current()

		// End conditions.
		if !ok || ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return Value{}, decodeErrorf(ln.num, ReasonUnexpectedIndent, "bad indent %d, expected %d", ln.indent, indent)
		}

		e := p.lexer.classify(ln.content)
		if e.kind != lineItem {
			return Value{}, decodeErrorf(ln.num, ReasonMixedBlock, "%s follows a list at the same depth", e.kind)
		}
		p.pos++

		val, err := p.parseItem(e.rest, indent, ln.num)
		if err != nil {
			return Value{}, err
		}
		out = append(out, val)
	}

	return Value{kind: KindList, items: out}, nil
}

// parseItem parses the remainder of a "- " line. A remainder that looks like
// a record entry starts a record whose other fields follow on deeper lines.
func (p *parser) parseItem(rest string, indent, num int) (Value, error) {
	if rest == "" {
		if next, ok := p.deeper(indent); ok {
			return p.parseBlock(next)
		}
		return String(""), nil
	}

	e := p.lexer.classify(rest)
	switch e.kind {
	case lineKey:
		if _, ok := p.deeper(indent); !ok {
			return p.parseValueToken(rest, num)
		}
	case lineValue, lineItem:
		if ln, ok := p.current(); ok && ln.indent > indent {
			return Value{}, decodeErrorf(ln.num, ReasonUnexpectedIndent, "nested block after list value")
		}
		return p.parseValueToken(rest, num)
	}

	first, err := p.parseEntryValue(e, indent, num)
	if err != nil {
		return Value{}, err
	}
	fields := []Field{{Key: e.key, Value: first}}

	if next, ok := p.deeper(indent); ok {
		more, err := p.parseRecord(next)
		if err != nil {
			return Value{}, err
		}
		for _, f := range more.fields {
			if f.Key == e.key {
				return Value{}, decodeErrorf(num, ReasonDuplicateKey, "duplicate key %q in record", f.Key)
			}
			fields = append(fields, f)
		}
	}

	return Value{kind: KindRecord, fields: fields}, nil
}

// parseRecord parses consecutive record entries at the given indentation.
func (p *parser) parseRecord(indent int) (Value, error) {
	out := make([]Field, 0, 8)
	seen := make(map[string]struct{}, 8)

	for {
		ln, ok := p.current()

		// End conditions.
		if !ok || ln.indent < indent {
			break
		}

		// Validate indentation.
		if ln.indent > indent {
			return Value{}, decodeErrorf(ln.num, ReasonUnexpectedIndent, "bad indent %d, expected %d", ln.indent, indent)
		}

		e := p.lexer.classify(ln.content)
		switch e.kind {
		case lineItem:
			return Value{}, decodeErrorf(ln.num, ReasonMixedBlock, "list item follows a record at the same depth")
		case lineValue:
			return Value{}, decodeErrorf(ln.num, ReasonMissingSeparator, "expected key %q", string(p.lexer.delim))
		}
		p.pos++

		if _, exists := seen[e.key]; exists {
			return Value{}, decodeErrorf(ln.num, ReasonDuplicateKey, "duplicate key %q in record", e.key)
		}
		seen[e.key] = struct{}{}

		val, err := p.parseEntryValue(e, indent, ln.num)
		if err != nil {
			return Value{}, err
		}
		out = append(out, Field{Key: e.key, Value: val})
	}

	return Value{kind: KindRecord, fields: out}, nil
}

// parseEntryValue parses the value of a record entry whose line sits at
// indent. Nested blocks and table rows are read from the following lines.
func (p *parser) parseEntryValue(e entry, indent, num int) (Value, error) {
	switch e.kind {
	case lineTable:
		return p.parseTable(e, indent, num)

	case lineCompact:
		return p.parseCompact(e, num)

	case lineKey:
		if next, ok := p.deeper(indent); ok {
			return p.parseBlock(next)
		}
		return Value{}, decodeErrorf(num, ReasonMissingSeparator, "expected %q after key %q", string(p.lexer.delim), e.key)

	default:
		if e.rest == "" {
			if next, ok := p.deeper(indent); ok {
				return p.parseBlock(next)
			}
			return String(""), nil
		}
		return p.parseValueToken(e.rest, num)
	}
}

// parseTable reads exactly e.count rows one level below the header.
func (p *parser) parseTable(e entry, indent, num int) (Value, error) {
	rows := make([]Value, 0, e.count)
	if e.count == 0 {
		return Value{kind: KindList, items: rows}, nil
	}

	rowIndent, ok := p.deeper(indent)
	if !ok {
		return Value{}, decodeErrorf(num, ReasonTableRows, "table %q declares %d rows, found 0", e.key, e.count)
	}

	for len(rows) < e.count {
		ln, ok := p.current()
		if !ok || ln.indent != rowIndent {
			return Value{}, decodeErrorf(num, ReasonTableRows, "table %q declares %d rows, found %d", e.key, e.count, len(rows))
		}
		p.pos++

		cells, err := splitFields(ln.content, e.delim, ln.num)
		if err != nil {
			return Value{}, err
		}
		if len(cells) != len(e.headers) {
			if err := p.warn(Warning{Line: ln.num, Kind: WarnRowWidth, Key: e.key, Declared: len(e.headers), Actual: len(cells)}); err != nil {
				return Value{}, err
			}
		}

		fields := make([]Field, 0, len(e.headers))
		for i, h := range e.headers {
			cell := String("")
			if i < len(cells) {
				if cell, err = parseScalar(cells[i], ln.num); err != nil {
					return Value{}, err
				}
			}
			fields = append(fields, Field{Key: h, Value: cell})
		}
		rows = append(rows, Record(fields...))
	}

	return Value{kind: KindList, items: rows}, nil
}

// parseCompact parses the items of a key[count]<delim>v1<delim>v2 line.
func (p *parser) parseCompact(e entry, num int) (Value, error) {
	var items []Value
	if e.rest != "" {
		cells, err := splitFields(e.rest, p.lexer.delim, num)
		if err != nil {
			return Value{}, err
		}
		items = make([]Value, 0, len(cells))
		for _, c := range cells {
			v, err := parseScalar(c, num)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
	}

	if len(items) != e.count {
		if err := p.warn(Warning{Line: num, Kind: WarnCountMismatch, Key: e.key, Declared: e.count, Actual: len(items)}); err != nil {
			return Value{}, err
		}
	}
	return Value{kind: KindList, items: items}, nil
}

// parseValueToken parses an inline value: [a, b], {} or a scalar.
func (p *parser) parseValueToken(s string, num int) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "{}" {
		return Value{kind: KindRecord}, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return parseScalar(s, num)
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return Value{kind: KindList}, nil
	}
	cells, err := splitFields(inner, ',', num)
	if err != nil {
		return Value{}, err
	}
	items := make([]Value, 0, len(cells))
	for _, c := range cells {
		v, err := parseScalar(c, num)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return Value{kind: KindList, items: items}, nil
}

// warn records a warning, or fails in strict mode.
func (p *parser) warn(w Warning) error {
	if p.strict {
		return &DecodeError{Line: w.Line, Reason: ReasonWarningPromoted, Detail: w.String()}
	}
	p.warnings = append(p.warnings, w)
	return nil
}
