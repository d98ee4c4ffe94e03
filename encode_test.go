package toon

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	f := func(name string, v Value, opts EncodeOptions, expected string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			out, err := Encode(v, opts)
			require.NoError(t, err)
			assert.Equal(t, expected, out)
		})
	}

	server := Record(F("server", Record(
		F("host", String("localhost")),
		F("port", Number(3000)),
		F("ssl", Bool(true)),
	)))
	users := Record(F("users", List(
		Record(F("id", Number(1)), F("name", String("Alice"))),
		Record(F("id", Number(2)), F("name", String("Bob"))),
	)))

	f("nested_record", server, EncodeOptions{}, "server:\n  host: localhost\n  port: 3000\n  ssl: true")
	f("nested_record_comma", server, EncodeOptions{Delimiter: ','}, "server,\n  host,localhost\n  port,3000\n  ssl,true")
	f("nested_record_tab_indent", server, EncodeOptions{Indent: "\t"}, "server:\n\thost: localhost\n\tport: 3000\n\tssl: true")
	f("table", users, EncodeOptions{}, "users[2]{id:name}:\n  1:Alice\n  2:Bob")
	f("table_pipe", users, EncodeOptions{Delimiter: '|'}, "users[2]{id|name}|\n  1|Alice\n  2|Bob")
	f("table_column_order", Record(F("u", List(
		Record(F("b", Number(1)), F("a", Number(2))),
		Record(F("a", Number(3)), F("b", Number(4))),
	))), EncodeOptions{}, "u[2]{b:a}:\n  1:2\n  4:3")
	f("table_quoted_cell", Record(F("u", List(Record(F("s", String("a:b")))))), EncodeOptions{}, "u[1]{s}:\n  \"a:b\"")
	f("compact", Record(F("tags", List(String("a"), String("b"), String("c")))), EncodeOptions{}, "tags[3]: a:b:c")
	f("compact_semicolon", Record(F("tags", List(Number(1), Null(), Bool(false)))), EncodeOptions{Delimiter: ';'}, "tags[3];1;null;false")
	f("empty_list", List(), EncodeOptions{}, "[]")
	f("empty_record", Record(), EncodeOptions{}, "{}")
	f("empty_list_field", Record(F("a", List())), EncodeOptions{}, "a: []")
	f("empty_record_field", Record(F("a", Record())), EncodeOptions{}, "a: {}")
	f("flow_list", List(Number(1), String("a"), Bool(true), Null()), EncodeOptions{}, `[1, "a", true, null]`)
	f("record_list", List(
		Record(F("name", String("x")), F("age", Number(3))),
		Record(F("name", String("y"))),
	), EncodeOptions{}, "- name: x\n  age: 3\n\n- name: y")
	f("mixed_list", List(Number(1), List(Number(2)), Record(F("a", Number(1)))), EncodeOptions{}, "- 1\n- [2]\n- a: 1")
	f("nested_block_list", List(List(Record(F("a", Number(1)))), Number(2)), EncodeOptions{}, "-\n  - a: 1\n- 2")
	f("list_of_empty_records", List(Record(), Record(F("a", Number(1)))), EncodeOptions{}, "- {}\n\n- a: 1")
	f("record_list_field", Record(F("items", List(
		Record(F("meta", Record(F("x", Number(1)))), F("name", String("n"))),
		Record(F("name", String("m"))),
	))), EncodeOptions{}, "items:\n  - meta:\n      x: 1\n    name: n\n\n  - name: m")
	f("absent_field", Record(F("a", Number(1)), F("b", Value{})), EncodeOptions{}, "a: 1")
	f("all_absent", Record(F("b", Value{})), EncodeOptions{}, "{}")
	f("absent_root", Value{}, EncodeOptions{}, "null")
	f("quoted_key", Record(F("my key", Number(1)), F("-x", Number(2))), EncodeOptions{}, "\"my key\": 1\n\"-x\": 2")
	f("root_scalar", String("hello"), EncodeOptions{}, "hello")
	f("root_scalar_with_delimiter", String("a: b"), EncodeOptions{}, `"a: b"`)
	f("root_scalar_with_other_delimiter", String("a,b"), EncodeOptions{}, `"a,b"`)
	f("block_items_with_delimiters", List(String("x|y"), Record(F("a", Number(1)))), EncodeOptions{Delimiter: ','}, "- \"x|y\"\n- a,1")
}

func TestEncodeQuoting(t *testing.T) {
	f := func(s string, delim rune, expected string) {
		t.Helper()
		out, err := Encode(Record(F("k", String(s))), EncodeOptions{Delimiter: delim})
		require.NoError(t, err)
		sep := string(delim)
		if delim == ':' {
			sep += " "
		}
		assert.Equal(t, "k"+sep+expected, out, "string %q", s)
	}

	// Minimal quoting: plain text stays bare.
	f("hello world", ':', "hello world")
	f("a,b", ':', "a,b")
	f("a:b", ',', "a:b")
	f("café", ':', "café")

	f("", ':', `""`)
	f(" pad", ':', `" pad"`)
	f("pad ", ':', `"pad "`)
	f("true", ':', `"true"`)
	f("False", ':', `"False"`)
	f("null", ':', `"null"`)
	f("42", ':', `"42"`)
	f("-1.5e3", ':', `"-1.5e3"`)
	f(".5", ':', `".5"`)
	f("a:b", ':', `"a:b"`)
	f("a,b", ',', `"a,b"`)
	f("a|b", '|', `"a|b"`)
	f("a;b", ';', `"a;b"`)
	f("a\tb", '\t', `"a\tb"`)
	f("#tag", ':', `"#tag"`)
	f("say \"hi\"", ':', `"say \"hi\""`)
	f(`back\slash`, ':', `"back\\slash"`)
	f("-dash", ':', `"-dash"`)
	f("[x]", ':', `"[x]"`)
	f("{x}", ':', `"{x}"`)
	f("line\nbreak", ':', `"line\nbreak"`)
	f("t[2]{a,b}", ',', `"t[2]{a,b}"`)
}

func TestEncodeNumbers(t *testing.T) {
	f := func(n float64, expected string) {
		t.Helper()
		out, err := Encode(Number(n), EncodeOptions{})
		require.NoError(t, err)
		assert.Equal(t, expected, out)
	}

	f(0, "0")
	f(-3, "-3")
	f(0.5, "0.5")
	f(3000, "3000")
	f(1e20, "100000000000000000000")
	f(1e21, "1e+21")
	f(1e-7, "1e-07")
	f(math.NaN(), "null")
	f(math.Inf(1), "null")

	// The format converters share this helper.
	assert.Equal(t, "1e+21", FormatNumber(1e21))
	assert.Equal(t, "100000000000000000000", FormatNumber(1e20))
	assert.Equal(t, "-0.25", FormatNumber(-0.25))
}

func TestEncodeLongScalarList(t *testing.T) {
	items := make([]Value, 20)
	for i := range items {
		items[i] = String(fmt.Sprintf("item%02d", i))
	}

	out, err := Encode(List(items...), EncodeOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "- item00\n- item01\n"), out)
	assert.Len(t, strings.Split(out, "\n"), 20)

	// Short lists stay inline.
	out, err = Encode(List(items[:3]...), EncodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, `["item00", "item01", "item02"]`, out)
}

func TestEncodeOptions(t *testing.T) {
	f := func(name string, opts EncodeOptions, field string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			_, err := Encode(Null(), opts)
			var oerr *OptionsError
			require.True(t, errors.As(err, &oerr), "expected *OptionsError, got %v", err)
			assert.Equal(t, field, oerr.Field)
		})
	}

	f("indent_not_whitespace", EncodeOptions{Indent: "ab"}, "indent")
	f("indent_newline", EncodeOptions{Indent: "\n"}, "indent")
	f("delimiter", EncodeOptions{Delimiter: '/'}, "delimiter")

	assert.Equal(t, EncodeOptions{Indent: "  ", Delimiter: ':'}, DefaultEncodeOptions())
}

func TestValueOf(t *testing.T) {
	type inner struct {
		X int `toon:"x"`
	}
	type doc struct {
		Name    string            `toon:"name"`
		Count   uint8             `toon:"count,omitempty"`
		Ratio   float32           `toon:"ratio"`
		Inner   *inner            `toon:"inner"`
		Missing *inner            `toon:"missing"`
		Tags    []string          `toon:"tags"`
		Attrs   map[string]string `toon:"attrs"`
		Raw     Value             `toon:"raw"`
		Skip    string            `toon:"-"`
		Plain   bool
		hidden  int
	}

	v, err := ValueOf(doc{
		Name:  "n",
		Ratio: 0.5,
		Inner: &inner{X: 1},
		Tags:  []string{"a"},
		Attrs: map[string]string{"z": "1", "a": "2"},
		Raw:   List(Null()),
		Skip:  "skip",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "count", "ratio", "inner", "missing", "tags", "attrs", "raw", "Plain"}, v.Keys())
	count, _ := v.Get("count")
	assert.True(t, count.IsAbsent())
	missing, _ := v.Get("missing")
	assert.True(t, missing.IsNull())
	attrs, _ := v.Get("attrs")
	assert.Equal(t, []string{"a", "z"}, attrs.Keys())
	raw, _ := v.Get("raw")
	assert.True(t, raw.Equal(List(Null())))

	_, err = ValueOf(map[int]string{1: "a"})
	assert.Error(t, err)
	_, err = ValueOf(make(chan int))
	assert.Error(t, err)
	_, err = ValueOf(math.NaN())
	assert.Error(t, err)
}

func TestEncodeDoc(t *testing.T) {
	// Scan source data as TOON.
	var resToon map[string]any
	b, err := os.ReadFile("testdata/documents/mixed.toon")
	if err != nil {
		t.Fatalf("failed to read mixed.toon: %v", err)
	}
	if err := Unmarshal(b, &resToon); err != nil {
		t.Fatalf("failed to unmarshal mixed.toon: %v", err)
	}

	// Marshal it back to TOON.
	marshalled, err := Marshal(resToon)
	if err != nil {
		t.Fatalf("failed to marshal to TOON: %v", err)
	}

	// Read it again.
	var resToonConverted map[string]any
	if err := Unmarshal(marshalled, &resToonConverted); err != nil {
		t.Fatalf("failed to unmarshal converted TOON: %v", err)
	}

	// Deep-compare both.
	assert.Equal(t, resToon, resToonConverted, "mixed.toon should survive a Marshal round trip")
}
