package toon

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	f := func(name, input string, expectedVal any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			var result any
			if err := Unmarshal([]byte(input), &result); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(result, expectedVal) {
				t.Errorf("expected %+v, got %+v", expectedVal, result)
			}
		})
	}

	f("null_value", "key: null", map[string]any{"key": nil})
	f("boolean_values", "t: true\nf: false", map[string]any{"t": true, "f": false})
	f("integer", "num: 42", map[string]any{"num": int64(42)})
	f("float", "num: 3.14", map[string]any{"num": 3.14})
	f("exponent", "num: 1.5e3", map[string]any{"num": int64(1500)})
	f("quoted_string", `str: "hello"`, map[string]any{"str": "hello"})
	f("bare_string", "str: hello world", map[string]any{"str": "hello world"})
	f("quoted_number", `str: "42"`, map[string]any{"str": "42"})
	f("escapes", `str: "a\"b\\c\nd"`, map[string]any{"str": "a\"b\\c\nd"})
	f("value_with_delimiter", "url: http://example.com:8080", map[string]any{"url": "http://example.com:8080"})
	f("empty_value", "key:", map[string]any{"key": ""})
	f("empty_list", "list: []", map[string]any{"list": []any{}})
	f("empty_record", "dict: {}", map[string]any{"dict": map[string]any{}})
	f("inline_list", "list: [1, 2, 3]", map[string]any{"list": []any{int64(1), int64(2), int64(3)}})
	f("inline_list_quoted", `list: ["a, b", "c"]`, map[string]any{"list": []any{"a, b", "c"}})
	f("root_list", "[1, 2, 3, 5.6, +4, -2]", []any{int64(1), int64(2), int64(3), 5.6, int64(4), int64(-2)})
	f("root_number", "5", int64(5))
	f("root_string", `"x: y"`, "x: y")
	f("root_bare_string", "hello", "hello")
	f("root_record", "{}", map[string]any{})
	f("empty_document", "", nil)
	f("comments_only", "# one\n\n   # two\n", nil)
	f("comment_lines", "# header\nkey: v\n# trailer", map[string]any{"key": "v"})
	f("quoted_key", `"a b": 1`, map[string]any{"a b": int64(1)})
	f("compact_list", "tags[3]: a:b:c", map[string]any{"tags": []any{"a", "b", "c"}})
	f("compact_list_tight", "tags[2]:1:2", map[string]any{"tags": []any{int64(1), int64(2)}})
	f("nested_record", "server:\n  host: localhost\n  port: 3000", map[string]any{
		"server": map[string]any{"host": "localhost", "port": int64(3000)},
	})
	f("table", "users[2]{id:name}:\n  1:Alice\n  2:Bob", map[string]any{
		"users": []any{
			map[string]any{"id": int64(1), "name": "Alice"},
			map[string]any{"id": int64(2), "name": "Bob"},
		},
	})
	f("table_without_trailing_delimiter", "users[1]{id:name}\n  1:Alice", map[string]any{
		"users": []any{map[string]any{"id": int64(1), "name": "Alice"}},
	})
	f("table_empty", "users[0]{id:name}:", map[string]any{"users": []any{}})
	f("block_list", "- a\n- 2\n- null", []any{"a", int64(2), nil})
	f("dash_records", "- name: x\n  age: 3\n- name: y", []any{
		map[string]any{"name": "x", "age": int64(3)},
		map[string]any{"name": "y"},
	})
	f("dash_nested_first_field", "- meta:\n    a: 1\n  name: x", []any{
		map[string]any{"meta": map[string]any{"a": int64(1)}, "name": "x"},
	})
	f("dash_table_first_field", "- rows[2]{a}:\n    1\n    2\n  name: x", []any{
		map[string]any{"rows": []any{map[string]any{"a": int64(1)}, map[string]any{"a": int64(2)}}, "name": "x"},
	})
	f("bare_dash_nested_list", "-\n  - 1\n  - 2\n- 3", []any{[]any{int64(1), int64(2)}, int64(3)})
	f("bare_dash_empty", "- \n- x", []any{"", "x"})
	f("dash_empty_record", "- {}\n- a: 1", []any{map[string]any{}, map[string]any{"a": int64(1)}})
	f("tab_indent", "outer:\n\tinner: 1", map[string]any{"outer": map[string]any{"inner": int64(1)}})
}

func TestDecodeErrors(t *testing.T) {
	f := func(name, input string, reason Reason, line int) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			_, err := Decode(input)
			require.Error(t, err)

			var derr *DecodeError
			require.True(t, errors.As(err, &derr), "expected *DecodeError, got %T", err)
			assert.Equal(t, reason, derr.Reason)
			assert.Equal(t, line, derr.Line)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	f("table_rows_short", "users[2]{id:name}:\n  1:Alice", ReasonTableRows, 1)
	f("table_rows_missing", "users[2]{id:name}:\nother: 1", ReasonTableRows, 1)
	f("unterminated_quote", "a: 1\nkey: \"abc", ReasonUnterminatedQuote, 2)
	f("unterminated_quote_in_row", "t[1]{a:b}:\n  \"x:1", ReasonUnterminatedQuote, 2)
	f("missing_separator", "a: 1\nkey", ReasonMissingSeparator, 2)
	f("value_in_record", "a: 1\n[1, 2]", ReasonMissingSeparator, 2)
	f("duplicate_key", "a: 1\na: 2", ReasonDuplicateKey, 2)
	f("duplicate_key_in_item", "- a: 1\n  a: 2", ReasonDuplicateKey, 1)
	f("dash_after_record", "a: 1\n- b", ReasonMixedBlock, 2)
	f("record_after_dash", "- a\nb: 1", ReasonMixedBlock, 2)
	f("unexpected_indent", "a: 1\n    b: 2", ReasonUnexpectedIndent, 2)
	f("block_after_item_value", "- [1]\n  - 2", ReasonUnexpectedIndent, 2)
	f("root_indented", "  a: 1", ReasonRootIndented, 1)
}

func TestDecodeWarnings(t *testing.T) {
	t.Run("count_mismatch", func(t *testing.T) {
		v, warnings, err := DecodeWithOptions("tags[3]: a:b", DecodeOptions{})
		require.NoError(t, err)
		assert.True(t, v.Equal(Record(F("tags", List(String("a"), String("b"))))))
		require.Len(t, warnings, 1)
		assert.Equal(t, Warning{Line: 1, Kind: WarnCountMismatch, Key: "tags", Declared: 3, Actual: 2}, warnings[0])
	})

	t.Run("row_width", func(t *testing.T) {
		v, warnings, err := DecodeWithOptions("t[1]{a:b}:\n  1", DecodeOptions{})
		require.NoError(t, err)
		want := Record(F("t", List(Record(F("a", Number(1)), F("b", String(""))))))
		assert.True(t, v.Equal(want), "got %s", v)
		require.Len(t, warnings, 1)
		assert.Equal(t, WarnRowWidth, warnings[0].Kind)
		assert.Equal(t, 2, warnings[0].Line)
	})

	t.Run("strict", func(t *testing.T) {
		_, _, err := DecodeWithOptions("tags[3]: a:b", DecodeOptions{Strict: true})
		var derr *DecodeError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, ReasonWarningPromoted, derr.Reason)
		assert.Contains(t, derr.Error(), "count-mismatch")
	})

	t.Run("decoder", func(t *testing.T) {
		dec := NewDecoder(strings.NewReader("tags[1]: a:b"))
		var out map[string][]string
		require.NoError(t, dec.Decode(&out))
		assert.Equal(t, []string{"a", "b"}, out["tags"])
		assert.Len(t, dec.Warnings(), 1)
	})
}

func TestDecodeDelimiters(t *testing.T) {
	f := func(name string, delim rune, input string, want Value) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			v, _, err := DecodeWithOptions(input, DecodeOptions{Delimiter: delim})
			require.NoError(t, err)
			assert.True(t, v.Equal(want), "got %s", v)
		})
	}

	server := Record(F("server", Record(F("host", String("localhost")), F("port", Number(3000)), F("ssl", Bool(true)))))
	f("comma", ',', "server,\n  host,localhost\n  port,3000\n  ssl,true", server)
	f("pipe", '|', "server|\n  host|localhost\n  port|3000\n  ssl|true", server)
	f("semicolon", ';', "server;\n  host;localhost\n  port;3000\n  ssl;true", server)
	f("tab", '\t', "server\n  host\tlocalhost\n  port\t3000\n  ssl\ttrue", server)

	f("comma_table", ',', "u[2]{id,name}\n  1,Alice\n  2,\"B, b\"", Record(F("u", List(
		Record(F("id", Number(1)), F("name", String("Alice"))),
		Record(F("id", Number(2)), F("name", String("B, b"))),
	))))
	f("pipe_compact", '|', "tags[2]|a:b|c", Record(F("tags", List(String("a:b"), String("c")))))
	f("tab_quoted_key", '\t', "\"a b\"\t1", Record(F("a b", Number(1))))
	f("comma_value_with_colon", ',', "url,http://x", Record(F("url", String("http://x"))))

	users := Record(F("users", List(
		Record(F("id", Number(1)), F("name", String("Alice"))),
		Record(F("id", Number(2)), F("name", String("Bob"))),
	)))
	f("header_declares_row_delimiter", ':', "users[2]{id,name}:\n  1,Alice\n  2,Bob", users)
	f("header_terminated_by_other_delimiter", ',', "users[2]{id,name}:\n  1,Alice\n  2,Bob", users)
	f("header_declares_row_delimiter_detected", 0, "users[2]{id|name}:\n  1|Alice\n  2|Bob", users)
	f("detected_comma", 0, "server,\n  host,localhost\n  port,3000\n  ssl,true", server)
	f("detected_tab_header", 0, "u[2]{id\tname}\n  1\tAlice\n  2\t\"B, b\"", Record(F("u", List(
		Record(F("id", Number(1)), F("name", String("Alice"))),
		Record(F("id", Number(2)), F("name", String("B, b"))),
	))))

	t.Run("invalid", func(t *testing.T) {
		_, _, err := DecodeWithOptions("a: 1", DecodeOptions{Delimiter: '/'})
		var oerr *OptionsError
		require.True(t, errors.As(err, &oerr))
		assert.Equal(t, "delimiter", oerr.Field)
	})
}

func TestDetectDelimiter(t *testing.T) {
	f := func(input string, want rune) {
		t.Helper()
		assert.Equal(t, want, DetectDelimiter(input), "input %q", input)
	}

	f("a: 1", ':')
	f("# comment\na,1", ',')
	f("a\t1", '\t')
	f("a;1", ';')
	f("a|1", '|')
	f("- a|1", '|')
	f("users[2]{id,name},\n  1,x", ',')
	f(`"quoted key";1`, ';')
	f("t[2]{a\tb}\n  1\t2", '\t')
	f("users[2]{id,name}:\n  1,x", ':')
	f("- \"a:b\"\n- c|1", '|')
	f("", DefaultDelimiter)
	f("[1, 2]", DefaultDelimiter)
}

// TestSetValue tests error conditions in setValue function.
func TestSetValue(t *testing.T) {
	f := func(name string, dst any, val Value, errExpected bool, expectedVal any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			err := setValue(dst, val)
			if errExpected {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if v, ok := dst.(*any); ok && *v != expectedVal {
				t.Errorf("expected %v, got %v", expectedVal, *v)
			}
		})
	}

	var s *string
	f("nil_destination", nil, String("test"), true, nil)
	f("non_pointer_destination", "", String("test"), true, nil)
	f("nil_pointer_destination", s, String("test"), true, nil)
	f("incompatible_types", new(int), String("string_value"), true, nil)
	f("fractional_into_int", new(int), Number(1.5), true, nil)
	f("overflow", new(int8), Number(300), true, nil)
	f("negative_into_uint", new(uint), Number(-1), true, nil)
	f("interface_assignment", new(any), String("test"), false, "test")
	f("interface_nil_assignment", new(any), Null(), false, nil)
	f("value_assignment", new(Value), List(Number(1)), false, nil)

	t.Run("value_destination", func(t *testing.T) {
		var out Value
		require.NoError(t, Unmarshal([]byte("a: [1, 2]"), &out))
		assert.True(t, out.Equal(Record(F("a", List(Number(1), Number(2))))))
	})

	t.Run("array_destination", func(t *testing.T) {
		var out struct {
			Pair [2]int `toon:"pair"`
		}
		require.NoError(t, Unmarshal([]byte("pair[2]: 3:4"), &out))
		assert.Equal(t, [2]int{3, 4}, out.Pair)
		assert.Error(t, Unmarshal([]byte("pair[3]: 3:4:5"), &out))
	})
}

func FuzzParsing(f *testing.F) {
	inputs := []string{
		"",
		"   \n  \n  ",
		"# comment\n# another comment",
		"key: value",
		"key: null",
		"key: true",
		"key: 123",
		"key: -123.456",
		"key: 6.022e23",
		"key: \"hello world\"",
		"key: \"hello \\\"world\\\"\"",
		"key: \"unclosed",
		"\"quoted key\": value",
		"key:",
		"key",
		"key: []",
		"key: {}",
		"key: [1, \"a, b\", true]",
		"tags[3]: a:b:c",
		"tags[3]: a:b",
		"users[2]{id:name}:\n  1:Alice\n  2:Bob",
		"users[2]{id:name}:\n  1:Alice",
		"server:\n  host: localhost\n  port: 3000",
		"- a\n- b",
		"- name: x\n  age: 3\n\n- name: y",
		"-\n  - 1\n  - 2",
		"a: 1\n- b",
		"a: 1\n    b: 2",
		"  a: 1",
		"a: 1\na: 2",
		"[1, 2]",
		"{}",
	}

	for _, seed := range inputs {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		var result any
		_ = Unmarshal([]byte(input), &result)
	})
}

// TestDocuments reads fully formed TOON documents from testdata/documents/*.toon
// and compares them against their corresponding JSON files (with the same name
// but .json extension).
func TestDocuments(t *testing.T) {
	files, err := filepath.Glob("testdata/documents/*.toon")
	if err != nil {
		t.Fatalf("failed to glob testdata/documents: %v", err)
	}

	if len(files) < 1 {
		t.Fatalf("expected at least 1 toon file in testdata/documents, found %d", len(files))
	}

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			var resToon map[string]any
			b, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, Unmarshal(b, &resToon))
			out := normalizeToJSON(resToon)

			// Read the corresponding JSON file.
			var resJson map[string]any
			b, err = os.ReadFile(strings.TrimSuffix(path, ".toon") + ".json")
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(b, &resJson))

			// Deep-compare both.
			assert.Equal(t, resJson, out, "%s and its JSON counterpart should be deeply equal", path)
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	f, err := os.ReadFile("testdata/documents/mixed.toon")
	if err != nil {
		b.Fatalf("failed to read mixed.toon: %v", err)
	}
	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		var result any
		if err := Unmarshal(f, &result); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

func BenchmarkDecodeJSON(b *testing.B) {
	f, err := os.ReadFile("testdata/documents/mixed.json")
	if err != nil {
		b.Fatalf("failed to read mixed.json: %v", err)
	}

	b.ReportAllocs()

	for b.Loop() {
		var result any
		if err := json.Unmarshal(f, &result); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

// json lib uses float64 for all numbers. Convert all numbers to the same type
// in the TOON-parsed structure to make a deep-comparison with the JSON structure possible.
func normalizeToJSON(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any)
		for key, val := range v {
			result[key] = normalizeToJSON(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = normalizeToJSON(val)
		}
		return result

	case int64:
		return float64(v)

	default:
		return v
	}
}

// TestDecoderMultipleDecodes tests multiple sequential decodes.
func TestDecoderMultipleDecodes(t *testing.T) {
	// A decoder consumes the whole stream on the first call.
	input := "foo: \"bar\""
	decoder := NewDecoder(strings.NewReader(input))

	var result1 any
	if err := decoder.Decode(&result1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	v := map[string]any{"foo": "bar"}
	if !reflect.DeepEqual(result1, v) {
		t.Errorf("expected %+v, got %+v", v, result1)
	}

	// The drained stream reads as an empty document, which is null.
	var result2 any = "sentinel"
	if err := decoder.Decode(&result2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Nil(t, result2)
}

// TestDecoderWithDifferentReaderTypes tests with various io.Reader implementations.
func TestDecoderWithDifferentReaderTypes(t *testing.T) {
	data := "count: 42\nactive: true"
	v := map[string]any{"count": int64(42), "active": true}

	f := func(name string, reader func() any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			decoder := NewDecoder(reader().(interface{ Read([]byte) (int, error) }))
			var result any
			if err := decoder.Decode(&result); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, v) {
				t.Errorf("expected %+v, got %+v", v, result)
			}
		})
	}

	f("strings.Reader", func() any { return strings.NewReader(data) })
	f("bytes.Buffer", func() any {
		var buf bytes.Buffer
		buf.WriteString(data)
		return &buf
	})
	f("bytes.Reader", func() any { return bytes.NewReader([]byte(data)) })
	f("crlf", func() any { return strings.NewReader("count: 42\r\nactive: true\r\n") })
}

// TestDecoderErrorHandling tests error handling scenarios.
func TestDecoderErrorHandling(t *testing.T) {
	t.Run("nil dest", func(t *testing.T) {
		decoder := NewDecoder(strings.NewReader("key: \"value\""))
		err := decoder.Decode(nil)
		if err == nil {
			t.Fatal("expected error but got none")
		}
		if !strings.Contains(err.Error(), "nil value") {
			t.Errorf("expected error to contain 'nil value', got: %v", err)
		}
	})

	t.Run("non-pointer dest", func(t *testing.T) {
		decoder := NewDecoder(strings.NewReader("key: \"value\""))

		// Initialize with a non-nil value.
		result := make(map[string]any)
		err := decoder.Decode(result)
		if err == nil {
			t.Fatal("expected error but got none")
		}
		if !strings.Contains(err.Error(), "not a pointer") {
			t.Errorf("expected error to contain 'not a pointer', got: %v", err)
		}
	})

	t.Run("reader error", func(t *testing.T) {
		// Create a reader that always returns an error.
		decoder := NewDecoder(&errorReader{err: errors.New("reader error")})

		var result any
		err := decoder.Decode(&result)
		if err == nil {
			t.Fatal("expected error but got none")
		}
		if !strings.Contains(err.Error(), "reader error") {
			t.Errorf("expected error to contain 'reader error', got: %v", err)
		}
	})
}

// errorReader is a helper type that always returns an error when reading
type errorReader struct {
	err error
}

func (e *errorReader) Read(p []byte) (n int, err error) {
	return 0, e.err
}
