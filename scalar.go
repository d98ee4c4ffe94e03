package toon

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Delimiters accepted by the encoder and decoder.
const (
	DelimiterColon     = ':'
	DelimiterComma     = ','
	DelimiterTab       = '\t'
	DelimiterSemicolon = ';'
	DelimiterPipe      = '|'
)

// DefaultDelimiter separates keys from values when no delimiter is configured.
const DefaultDelimiter = DelimiterColon

// flowSeparator joins items of an inline bracketed list regardless of the
// active delimiter.
const flowSeparator = ", "

// delimiters lists every accepted delimiter, default first.
var delimiters = []rune{DelimiterColon, DelimiterComma, DelimiterTab, DelimiterSemicolon, DelimiterPipe}

// validDelimiter reports whether r can be used as a field delimiter.
func validDelimiter(r rune) bool {
	switch r {
	case DelimiterColon, DelimiterComma, DelimiterTab, DelimiterSemicolon, DelimiterPipe:
		return true
	}
	return false
}

// numberRegex matches a complete numeric literal. Anything it accepts is
// decoded as a Number, so strings it accepts must be quoted.
var numberRegex = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)

// tableShapeRegex matches text that would be read back as a table header.
var tableShapeRegex = regexp.MustCompile(`^(?:"(?:[^"\\]|\\.)*"|[\w-]+)\[\d+\]\{.*\}`)

// ParseScalar converts a single scalar token to a Value. Quoted tokens are
// unescaped; unquoted tokens that are not true, false, null or a number are
// returned as strings verbatim.
func ParseScalar(text string) (Value, error) {
	return parseScalar(text, 0)
}

func parseScalar(text string, line int) (Value, error) {
	s := strings.TrimSpace(text)
	switch s {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null(), nil
	}

	if numberRegex.MatchString(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(n), nil
		}
	}

	if strings.HasPrefix(s, `"`) {
		end := closingQuote(s)
		if end < 0 {
			return Value{}, decodeErrorf(line, ReasonUnterminatedQuote, "%s", s)
		}
		if end == len(s)-1 {
			return String(unescape(s[1:end])), nil
		}
	}

	return String(s), nil
}

// closingQuote returns the index of the quote closing the quoted token that
// starts at s[0], or -1 if the token is never closed.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// unescape reverses quote.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// quote wraps s in double quotes, escaping backslashes, quotes and line
// breaking characters.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// needsQuote reports whether s must be quoted to decode back to the same
// string when written with delimiter delim.
func needsQuote(s string, delim rune) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") || strings.EqualFold(s, "null") {
		return true
	}
	if strings.ContainsRune(s, delim) || strings.ContainsAny(s, "#\"\\") {
		return true
	}
	switch s[0] {
	case '-', '[', '{':
		return true
	}
	if numberRegex.MatchString(s) || tableShapeRegex.MatchString(s) {
		return true
	}
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// renderScalar writes a scalar using the minimal quoting rules.
func renderScalar(v Value, delim rune) string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		// NaN and the infinities have no literal.
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return "null"
		}
		return FormatNumber(v.n)
	case KindString:
		if needsQuote(v.s, delim) {
			return quote(v.s)
		}
		return v.s
	default:
		return "null"
	}
}

// renderToken writes a scalar that stands alone on a line: the document
// root or a block list item. Strings holding any delimiter are quoted so the
// line is never mistaken for a key line, whichever delimiter the reader
// detects.
func renderToken(v Value, delim rune) string {
	if v.kind == KindString && strings.ContainsAny(v.s, ":,\t;|") {
		return quote(v.s)
	}
	return renderScalar(v, delim)
}

// renderFlowScalar writes an item of an inline bracketed list. Strings are
// always quoted there.
func renderFlowScalar(v Value) string {
	if v.kind == KindString {
		return quote(v.s)
	}
	return renderScalar(v, ',')
}

// FormatNumber returns the shortest decimal text that parses back to n:
// plain notation for integral magnitudes below 1e21, exponent notation
// otherwise.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// splitFields splits s on delim, ignoring delimiters inside quoted fields.
// Fields are trimmed but keep their quotes so ParseScalar can tell quoted
// and bare tokens apart.
func splitFields(s string, delim rune, line int) ([]string, error) {
	var (
		out     []string
		start   int
		inQuote bool
	)
	d := byte(delim)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case c == d && !inQuote:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if inQuote {
		return nil, decodeErrorf(line, ReasonUnterminatedQuote, "%s", strings.TrimSpace(s))
	}
	return append(out, strings.TrimSpace(s[start:])), nil
}
