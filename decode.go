package toon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
)

// DecodeOptions controls how text is read.
type DecodeOptions struct {
	// Delimiter separates keys from values, compact list items and table
	// cells. Zero detects it from the document with DetectDelimiter.
	Delimiter rune

	// Strict turns every Warning into a *DecodeError.
	Strict bool
}

// normalize fills in defaults and validates the options.
func (o DecodeOptions) normalize() (DecodeOptions, error) {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if !validDelimiter(o.Delimiter) {
		return o, &OptionsError{Field: "delimiter", Value: string(o.Delimiter)}
	}
	return o, nil
}

// Decode parses a TOON document written with any accepted delimiter.
// Warnings are discarded; use DecodeWithOptions to inspect them.
func Decode(text string) (Value, error) {
	v, _, err := DecodeWithOptions(text, DecodeOptions{})
	return v, err
}

// DecodeWithOptions parses a TOON document and returns the non-fatal
// diagnostics collected along the way.
func DecodeWithOptions(text string, opts DecodeOptions) (Value, []Warning, error) {
	return decode(strings.NewReader(text), opts)
}

func decode(r io.Reader, opts DecodeOptions) (Value, []Warning, error) {
	if opts.Delimiter == 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return Value{}, nil, err
		}
		opts.Delimiter = DetectDelimiter(string(data))
		r = bytes.NewReader(data)
	}

	opts, err := opts.normalize()
	if err != nil {
		return Value{}, nil, err
	}

	p := newParser(newLexer(r, opts.Delimiter), opts.Strict)
	out, err := p.parse()
	if err != nil {
		return Value{}, p.warnings, err
	}
	return out, p.warnings, nil
}

// Decoder reads and decodes TOON values from an input stream.
type Decoder struct {
	r        io.Reader
	opts     DecodeOptions
	warnings []Warning
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// SetOptions replaces the options used by subsequent calls to Decode.
func (dec *Decoder) SetOptions(opts DecodeOptions) {
	dec.opts = opts
}

// Warnings returns the diagnostics produced by the last call to Decode.
func (dec *Decoder) Warnings() []Warning {
	return dec.warnings
}

// Decode reads the whole TOON document from the input stream and stores the
// result in the pointer v.
func (dec *Decoder) Decode(v any) error {
	out, warnings, err := decode(dec.r, dec.opts)
	dec.warnings = warnings
	if err != nil {
		return err
	}

	return setValue(v, out)
}

// Unmarshal parses TOON data and stores the result in the value pointed to by v.
// If v is nil or not a pointer, it returns an error.
//
// It converts TOON data into values with the following mappings:
//   - strings become string
//   - integral numbers become int64 and other numbers float64 when v holds an
//     interface; typed numeric fields are converted with overflow checks
//   - true/false become bool
//   - null becomes nil or the zero value
//   - lists become []any and records become map[string]any
//   - a *Value or Value destination receives the decoded tree as is
//
// If the data is malformed, a *DecodeError carrying the line number is returned.
func Unmarshal(data []byte, v any) error {
	dec := NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}

var valueType = reflect.TypeOf(Value{})

// setValue sets the destination value from the parsed source value.
func setValue(dst any, src Value) error {
	if dst == nil {
		return errors.New("cannot unmarshal into a nil value")
	}

	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Ptr {
		return errors.New("destination is not a pointer")
	}
	if val.IsNil() {
		return errors.New("destination pointer is nil")
	}

	d := val.Elem()
	return setValueReflect(d, src)
}

// setValueReflect recursively sets values to dst from src using reflection.
func setValueReflect(dst reflect.Value, src Value) error {
	// Value destinations take the tree as is.
	if dst.Type() == valueType {
		dst.Set(reflect.ValueOf(src))
		return nil
	}

	if src.kind == KindNull || src.kind == KindAbsent {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	// If the destination is an interface, set it directly.
	if dst.Kind() == reflect.Interface {
		s := reflect.ValueOf(src.Interface())
		if !s.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("cannot unmarshal %s into %s", src.kind, dst.Type())
		}
		dst.Set(s)
		return nil
	}

	// Handle type conversions.
	switch dst.Kind() {
	case reflect.Struct:
		return setStruct(dst, src)
	case reflect.Slice:
		return setSlice(dst, src)
	case reflect.Array:
		return setArray(dst, src)
	case reflect.Map:
		return setMap(dst, src)
	case reflect.Ptr:
		return setPtr(dst, src)
	case reflect.String:
		return setString(dst, src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return setFloat(dst, src)
	case reflect.Bool:
		return setBool(dst, src)
	default:
		return fmt.Errorf("cannot unmarshal %s into %s", src.kind, dst.Type())
	}
}

// setStruct unmarshals a record into a struct.
func setStruct(dst reflect.Value, src Value) error {
	if src.kind != KindRecord {
		return fmt.Errorf("cannot unmarshal %s into struct", src.kind)
	}

	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := dst.Field(i)

		// Skip unexported fields.
		if !fieldValue.CanSet() {
			continue
		}

		// Get the field name for mapping.
		fieldName := getFieldName(field)
		if fieldName == "-" {
			continue
		}

		// Look for the value in the source record.
		if srcValue, exists := src.Get(fieldName); exists {
			if err := setValueReflect(fieldValue, srcValue); err != nil {
				return fmt.Errorf("error setting field %s: %w", field.Name, err)
			}
		}
	}

	return nil
}

// getFieldName returns the field name to use for mapping, checking for struct tags.
func getFieldName(field reflect.StructField) string {
	name, _ := parseStructTag(field.Tag)
	if name == "" {
		return field.Name
	}
	return name
}

// setSlice unmarshals a list into a slice.
func setSlice(dst reflect.Value, src Value) error {
	if src.kind != KindList {
		return fmt.Errorf("cannot unmarshal %s into slice", src.kind)
	}

	sliceType := dst.Type()
	newSlice := reflect.MakeSlice(sliceType, len(src.items), len(src.items))

	for i, srcElem := range src.items {
		elemValue := newSlice.Index(i)
		if err := setValueReflect(elemValue, srcElem); err != nil {
			return fmt.Errorf("error setting slice element %d: %w", i, err)
		}
	}

	dst.Set(newSlice)
	return nil
}

// setArray unmarshals a list into a fixed size array.
func setArray(dst reflect.Value, src Value) error {
	if src.kind != KindList {
		return fmt.Errorf("cannot unmarshal %s into array", src.kind)
	}
	if len(src.items) != dst.Len() {
		return fmt.Errorf("cannot unmarshal list of %d items into %s", len(src.items), dst.Type())
	}

	for i, srcElem := range src.items {
		if err := setValueReflect(dst.Index(i), srcElem); err != nil {
			return fmt.Errorf("error setting array element %d: %w", i, err)
		}
	}
	return nil
}

// setMap unmarshals a src record into a dest map.
func setMap(dst reflect.Value, src Value) error {
	if src.kind != KindRecord {
		return fmt.Errorf("cannot unmarshal %s into map", src.kind)
	}

	mapType := dst.Type()
	keyType := mapType.Key()
	valueType := mapType.Elem()

	// Only support string keys for now (like JSON).
	if keyType.Kind() != reflect.String {
		return fmt.Errorf("maps with non-string keys are not supported")
	}

	newMap := reflect.MakeMapWithSize(mapType, len(src.fields))
	for _, f := range src.fields {
		keyValue := reflect.ValueOf(f.Key).Convert(keyType)
		valueValue := reflect.New(valueType).Elem()

		if err := setValueReflect(valueValue, f.Value); err != nil {
			return fmt.Errorf("error setting map value for key %s: %w", f.Key, err)
		}

		newMap.SetMapIndex(keyValue, valueValue)
	}

	dst.Set(newMap)
	return nil
}

// setPtr unmarshals into a pointer.
func setPtr(dst reflect.Value, src Value) error {
	elemType := dst.Type().Elem()
	newPtr := reflect.New(elemType)

	if err := setValueReflect(newPtr.Elem(), src); err != nil {
		return err
	}

	dst.Set(newPtr)
	return nil
}

// setString converts a string value.
func setString(dst reflect.Value, src Value) error {
	if src.kind != KindString {
		return fmt.Errorf("cannot unmarshal %s into string", src.kind)
	}
	dst.SetString(src.s)
	return nil
}

// setInt converts a whole number to int.
func setInt(dst reflect.Value, src Value) error {
	if src.kind != KindNumber {
		return fmt.Errorf("cannot unmarshal %s into integer", src.kind)
	}
	v := src.n
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return fmt.Errorf("cannot unmarshal float %g into integer type", v)
	}
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}
	intVal := int64(v)
	if dst.OverflowInt(intVal) {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}
	dst.SetInt(intVal)
	return nil
}

// setUint converts a non-negative whole number to uint.
func setUint(dst reflect.Value, src Value) error {
	if src.kind != KindNumber {
		return fmt.Errorf("cannot unmarshal %s into unsigned integer", src.kind)
	}
	v := src.n
	if v < 0 {
		return fmt.Errorf("cannot unmarshal negative value %g into unsigned integer", v)
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return fmt.Errorf("cannot unmarshal float %g into integer type", v)
	}
	if v >= math.MaxUint64 {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}
	uintVal := uint64(v)
	if dst.OverflowUint(uintVal) {
		return fmt.Errorf("value %g overflows %s", v, dst.Type())
	}
	dst.SetUint(uintVal)
	return nil
}

// setFloat converts a number to float.
func setFloat(dst reflect.Value, src Value) error {
	if src.kind != KindNumber {
		return fmt.Errorf("cannot unmarshal %s into float", src.kind)
	}
	if dst.OverflowFloat(src.n) {
		return fmt.Errorf("value %g overflows %s", src.n, dst.Type())
	}
	dst.SetFloat(src.n)
	return nil
}

// setBool converts a boolean value.
func setBool(dst reflect.Value, src Value) error {
	if src.kind != KindBool {
		return fmt.Errorf("cannot unmarshal %s into bool", src.kind)
	}
	dst.SetBool(src.b)
	return nil
}

// Interface returns v as plain Go data: nil, bool, int64 for integral numbers
// that fit, float64, string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.IsInteger() && v.n >= math.MinInt64 && v.n < math.MaxInt64 {
			return int64(v.n)
		}
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindRecord:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			if f.Value.kind == KindAbsent {
				continue
			}
			out[f.Key] = f.Value.Interface()
		}
		return out
	default:
		return nil
	}
}
