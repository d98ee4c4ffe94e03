package toon

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// flowLimit is the length from which a scalar-only list is written as a
// block instead of an inline bracketed list.
const flowLimit = 80

// EncodeOptions controls the layout of encoded text.
type EncodeOptions struct {
	// Indent is the whitespace written once per nesting level.
	Indent string

	// Delimiter separates keys from values, compact list items and table
	// cells.
	Delimiter rune
}

// DefaultEncodeOptions returns two-space indentation and the colon delimiter.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Indent: "  ", Delimiter: DefaultDelimiter}
}

// normalize fills in defaults and validates the options.
func (o EncodeOptions) normalize() (EncodeOptions, error) {
	if o.Indent == "" {
		o.Indent = "  "
	}
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if strings.Trim(o.Indent, " \t") != "" {
		return o, &OptionsError{Field: "indent", Value: o.Indent}
	}
	if !validDelimiter(o.Delimiter) {
		return o, &OptionsError{Field: "delimiter", Value: string(o.Delimiter)}
	}
	return o, nil
}

// Encode returns the TOON text for v. The output has no trailing newline and
// decodes back to a Value equal to v, with the delimiter given or detected.
func Encode(v Value, opts EncodeOptions) (string, error) {
	opts, err := opts.normalize()
	if err != nil {
		return "", err
	}

	s := newState(opts)
	out := s.render(v, 0)
	putState(s)
	return out, nil
}

// Marshal returns the TOON encoding of v.
//
// This function works like json.Marshal, converting a Go value into TOON
// text terminated by a newline. See ValueOf for the mapping from Go types.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// An Encoder writes TOON values to an output stream.
type Encoder struct {
	w    io.Writer
	opts EncodeOptions
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, opts: DefaultEncodeOptions()}
}

// SetOptions replaces the layout used by subsequent calls to Encode.
func (enc *Encoder) SetOptions(opts EncodeOptions) {
	enc.opts = opts
}

// Encode writes the TOON encoding of v to the stream, followed by a newline.
func (enc *Encoder) Encode(v any) error {
	val, err := ValueOf(v)
	if err != nil {
		return err
	}

	out, err := Encode(val, enc.opts)
	if err != nil {
		return err
	}

	// Ensure the document ends with a newline for POSIX compatibility.
	_, err = io.WriteString(enc.w, out+"\n")
	return err
}

// state holds the layout settings for a single Encode call along with the
// indentation prefixes computed so far.
type state struct {
	indent   string
	delim    rune
	sep      string
	prefixes []string
}

var statePool = sync.Pool{
	New: func() any {
		return new(state)
	},
}

// newState retrieves a new state from the pool.
func newState(opts EncodeOptions) *state {
	s := statePool.Get().(*state)
	s.indent = opts.Indent
	s.delim = opts.Delimiter
	s.sep = string(opts.Delimiter)
	if opts.Delimiter == DelimiterColon {
		s.sep += " "
	}
	return s
}

// putState returns a state to the pool.
func putState(s *state) {
	s.indent = ""
	s.prefixes = s.prefixes[:0]
	statePool.Put(s)
}

// prefix returns the indentation for the given nesting level.
func (s *state) prefix(level int) string {
	for len(s.prefixes) <= level {
		s.prefixes = append(s.prefixes, strings.Repeat(s.indent, len(s.prefixes)))
	}
	return s.prefixes[level]
}

// render dispatches on the kind of v. Block output carries the indentation
// of level on every line; inline output carries none.
func (s *state) render(v Value, level int) string {
	switch v.kind {
	case KindList:
		return s.renderList(v, level)
	case KindRecord:
		return s.renderRecord(v, level)
	default:
		return renderToken(v, s.delim)
	}
}

// renderList picks between the inline form, a block of scalars, a block of
// records and the mixed block.
func (s *state) renderList(v Value, level int) string {
	if len(v.items) == 0 {
		return "[]"
	}

	p := s.prefix(level)
	lines := make([]string, len(v.items))

	switch {
	case v.isScalarList():
		if flow := renderFlow(v); len(flow) < flowLimit {
			return flow
		}
		for i, item := range v.items {
			lines[i] = p + "- " + renderToken(item, s.delim)
		}
		return strings.Join(lines, "\n")

	case v.isRecordList():
		for i, item := range v.items {
			lines[i] = s.renderListRecord(item, level)
		}
		return strings.Join(lines, "\n\n")
	}

	for i, item := range v.items {
		switch item.kind {
		case KindList:
			r := s.renderList(item, level+1)
			if isInline(r) {
				lines[i] = p + "- " + r
			} else {
				lines[i] = p + "-\n" + r
			}
		case KindRecord:
			lines[i] = s.renderListRecord(item, level)
		default:
			lines[i] = p + "- " + renderToken(item, s.delim)
		}
	}
	return strings.Join(lines, "\n")
}

// renderListRecord writes a record as a list item, its first field sharing
// the line with the dash.
func (s *state) renderListRecord(v Value, level int) string {
	r := s.renderRecord(v, level+1)
	if isInline(r) {
		return s.prefix(level) + "- " + r
	}
	return s.prefix(level) + "- " + strings.TrimPrefix(r, s.prefix(level+1))
}

// renderRecord writes one line per present field, using the compact and
// table shorthands where they apply.
func (s *state) renderRecord(v Value, level int) string {
	p := s.prefix(level)
	d := string(s.delim)
	lines := make([]string, 0, len(v.fields))

	for _, f := range v.fields {
		val := f.Value
		if val.kind == KindAbsent {
			continue
		}
		key := quoteKeyIfNeeded(f.Key)

		switch {
		case val.kind == KindList && len(val.items) > 0 && val.isScalarList():
			cells := make([]string, len(val.items))
			for i, item := range val.items {
				cells[i] = renderScalar(item, s.delim)
			}
			lines = append(lines, p+key+"["+strconv.Itoa(len(cells))+"]"+s.sep+strings.Join(cells, d))

		case isUniformTable(val):
			lines = append(lines, s.renderTable(key, val, level))

		case val.kind == KindList || val.kind == KindRecord:
			r := s.render(val, level+1)
			if r == "" || isInline(r) {
				lines = append(lines, p+key+s.sep+r)
			} else {
				lines = append(lines, p+key+d+"\n"+r)
			}

		default:
			lines = append(lines, p+key+s.sep+renderScalar(val, s.delim))
		}
	}

	if len(lines) == 0 {
		return "{}"
	}
	return strings.Join(lines, "\n")
}

// renderTable writes a header line followed by one row per record. Columns
// follow the key order of the first record.
func (s *state) renderTable(key string, v Value, level int) string {
	d := string(s.delim)
	cols := v.items[0].Keys()

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = quoteKeyIfNeeded(c)
	}

	var sb strings.Builder
	sb.WriteString(s.prefix(level))
	sb.WriteString(key)
	sb.WriteString("[" + strconv.Itoa(len(v.items)) + "]")
	sb.WriteString("{" + strings.Join(headers, d) + "}")
	sb.WriteString(d)

	rp := s.prefix(level + 1)
	cells := make([]string, len(cols))
	for _, row := range v.items {
		for i, c := range cols {
			cell, _ := row.Get(c)
			cells[i] = renderScalar(cell, s.delim)
		}
		sb.WriteByte('\n')
		sb.WriteString(rp)
		sb.WriteString(strings.Join(cells, d))
	}
	return sb.String()
}

// isUniformTable reports whether v is a non-empty list of flat records that
// all share one non-empty key set.
func isUniformTable(v Value) bool {
	if v.kind != KindList || len(v.items) == 0 || !v.isRecordList() {
		return false
	}
	sig := v.items[0].Signature()
	for _, item := range v.items {
		if len(item.fields) == 0 || !item.isFlatRecord() || item.Signature() != sig {
			return false
		}
	}
	return true
}

// isInline reports whether a rendering fits on the line of its parent.
func isInline(r string) bool {
	return strings.HasPrefix(r, "[") || r == "{}"
}

// renderFlow writes a scalar-only list as [a, b].
func renderFlow(v Value) string {
	items := make([]string, len(v.items))
	for i, item := range v.items {
		items[i] = renderFlowScalar(item)
	}
	return "[" + strings.Join(items, flowSeparator) + "]"
}

// A regular expression to check if a key is a "bare" key, meaning it doesn't
// require quoting. A bare key never starts with a dash, which would read as
// a list item.
var bareKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// quoteKeyIfNeeded wraps a key in quotes if it contains characters that are
// not allowed in a bare key.
func quoteKeyIfNeeded(key string) string {
	if bareKeyRegex.MatchString(key) {
		return key
	}
	return quote(key)
}

// ValueOf converts Go data to a Value.
//
// The mapping from Go types is as follows:
//   - bool -> Bool
//   - int, uint, float, etc. -> Number
//   - string -> String
//   - struct, map with string keys -> Record (map keys sorted)
//   - slice, array -> List
//   - nil pointer or interface -> Null
//   - Value -> itself
//
// Struct fields can be customized with `toon` tags. For example:
//
//	// Field appears as 'my_field' in TOON.
//	Field int `toon:"my_field"`
//
//	// Field is left out when it holds its zero value.
//	Field int `toon:"my_field,omitempty"`
//
//	// Field is ignored.
//	Field int `toon:"-"`
func ValueOf(v any) (Value, error) {
	return valueOf(reflect.ValueOf(v))
}

func valueOf(v reflect.Value) (Value, error) {
	var err error

	// Follow pointers and interfaces to find the concrete value.
	v = indirect(v, &err)
	if err != nil {
		return Value{}, err
	}

	// A reflect.Invalid value, often from a nil pointer, is null.
	if !v.IsValid() {
		return Null(), nil
	}
	if v.Type() == valueType {
		return v.Interface().(Value), nil
	}

	switch v.Kind() {
	case reflect.Map:
		return mapValue(v)
	case reflect.Struct:
		return structValue(v)
	case reflect.Slice, reflect.Array:
		return sliceValue(v)
	case reflect.String:
		return String(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("toon: unsupported value: %v", f)
		}
		return Number(f), nil
	case reflect.Bool:
		return Bool(v.Bool()), nil
	default:
		// Any type we don't explicitly handle is unsupported.
		return Value{}, fmt.Errorf("toon: unsupported type: %s", v.Type())
	}
}

// mapValue converts a Go map into a record.
func mapValue(v reflect.Value) (Value, error) {
	// Records require string keys.
	if v.Type().Key().Kind() != reflect.String {
		return Value{}, fmt.Errorf("toon: map key type must be a string, not %s", v.Type().Key())
	}

	// Sort map keys to ensure the output is deterministic.
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		val, err := valueOf(v.MapIndex(key))
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, Field{Key: key.String(), Value: val})
	}
	return Value{kind: KindRecord, fields: fields}, nil
}

// structValue converts a Go struct into a record. Fields tagged omitempty
// that hold their zero value become absent.
func structValue(v reflect.Value) (Value, error) {
	fields := make([]Field, 0, v.NumField())

	// Iterate over the struct fields to gather exported fields and their names.
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		// Skip unexported fields as they are not accessible.
		if !field.IsExported() {
			continue
		}

		name, omitEmpty := parseStructTag(field.Tag)
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		fv := v.Field(i)
		if omitEmpty && isEmptyValue(fv) {
			fields = append(fields, Field{Key: name})
			continue
		}

		val, err := valueOf(fv)
		if err != nil {
			return Value{}, fmt.Errorf("field %s: %w", field.Name, err)
		}
		fields = append(fields, Field{Key: name, Value: val})
	}
	return Record(fields...), nil
}

// sliceValue converts a Go slice or array into a list.
func sliceValue(v reflect.Value) (Value, error) {
	items := make([]Value, v.Len())
	for i := range items {
		val, err := valueOf(v.Index(i))
		if err != nil {
			return Value{}, err
		}
		items[i] = val
	}
	return Value{kind: KindList, items: items}, nil
}

// parseStructTag splits a `toon` tag into the field name and the omitempty
// option.
func parseStructTag(tag reflect.StructTag) (string, bool) {
	name, opts, _ := strings.Cut(tag.Get("toon"), ",")
	omitEmpty := false
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

// isEmptyValue reports whether v holds the zero value for omitempty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

// indirect walks down a chain of pointers and interfaces to find the underlying
// concrete value. If a nil pointer is found, it returns an invalid
// reflect.Value, which is converted to null.
func indirect(v reflect.Value, err *error) reflect.Value {
	// The loop limit guards against circular pointer chains.
	for i := 0; i < 1000; i++ {
		if !v.IsValid() {
			return v
		}
		kind := v.Kind()
		if kind != reflect.Pointer && kind != reflect.Interface {
			return v
		}
		if v.IsNil() {
			return reflect.Value{} // Return an invalid value for nil.
		}
		v = v.Elem()
	}
	// If we hit the loop limit, the structure is too deep or cyclical.
	*err = fmt.Errorf("toon: encountered a circular or excessively deep data structure")
	return reflect.Value{}
}
