package toon

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// lexer splits TOON input into indented lines and classifies them.
type lexer struct {
	r       *bufio.Reader
	delim   rune
	grammar *grammar
	lineNum int // Current line number (1-based).
}

// grammar holds the patterns that depend on the active delimiter.
type grammar struct {
	table   *regexp.Regexp
	compact *regexp.Regexp
}

// keyPattern matches a quoted key or a bare key in shorthand headers.
const keyPattern = `("(?:[^"\\]|\\.)*"|[\w-]+)`

// grammars is built once for every accepted delimiter and only read afterwards.
var grammars = func() map[rune]*grammar {
	out := make(map[rune]*grammar, 5)
	for _, d := range delimiters {
		q := regexp.QuoteMeta(string(d))
		out[d] = &grammar{
			table:   regexp.MustCompile(`^` + keyPattern + `\[(\d+)\]\{(.*)\}\s*[:,\t;|]?$`),
			compact: regexp.MustCompile(`^` + keyPattern + `\[(\d+)\]\s*` + q + `(.*)$`),
		}
	}
	return out
}()

// detectRegex captures the character following the first key of a line.
var detectRegex = regexp.MustCompile(`^(?:-\s+)?(?:"(?:[^"\\]|\\.)*"|[\w-]+)(?:\[\d+\])?(?:\{[^}]*\})?\s*([:,\t;|])`)

// headerDetectRegex captures the character following the first column of a
// table header that has no trailing delimiter.
var headerDetectRegex = regexp.MustCompile(`^(?:-\s+)?(?:"(?:[^"\\]|\\.)*"|[\w-]+)\[\d+\]\{(?:"(?:[^"\\]|\\.)*"|[\w-]+)\s*([:,\t;|])`)

// newLexer creates a new lexer that reads from r.
func newLexer(r io.Reader, delim rune) *lexer {
	return &lexer{
		r:       bufio.NewReader(r),
		delim:   delim,
		grammar: grammars[delim],
	}
}

// readLines reads the whole input, dropping blank and comment lines.
func (l *lexer) readLines() ([]line, error) {
	var out []line
	for {
		raw, err := l.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if raw != "" || err == nil {
			l.lineNum++
			content := strings.TrimSpace(raw)
			if content != "" && !strings.HasPrefix(content, "#") {
				out = append(out, line{num: l.lineNum, indent: countIndent(raw), content: content})
			}
		}
		if err != nil {
			return out, nil
		}
	}
}

// countIndent returns the number of leading whitespace characters. Tabs and
// spaces count the same.
func countIndent(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}

// classify determines the structural role of a line's content.
func (l *lexer) classify(content string) entry {
	if content == "-" || strings.HasPrefix(content, "- ") || strings.HasPrefix(content, "-\t") {
		return entry{kind: lineItem, rest: strings.TrimSpace(content[1:])}
	}
	if strings.HasPrefix(content, "[") || strings.HasPrefix(content, "{") {
		return entry{kind: lineValue, rest: content}
	}

	if m := l.grammar.table.FindStringSubmatch(content); m != nil {
		count, err := strconv.Atoi(m[2])
		if err == nil {
			headers, delim := l.headers(m[3])
			return entry{kind: lineTable, key: unquoteKey(m[1]), count: count, headers: headers, delim: delim}
		}
	}
	if m := l.grammar.compact.FindStringSubmatch(content); m != nil {
		count, err := strconv.Atoi(m[2])
		if err == nil {
			return entry{kind: lineCompact, key: unquoteKey(m[1]), count: count, rest: strings.TrimSpace(m[3])}
		}
	}

	if strings.HasPrefix(content, `"`) {
		end := closingQuote(content)
		if end < 0 {
			return entry{kind: lineValue, rest: content}
		}
		key := unescape(content[1:end])
		// Keep a tab delimiter while dropping the padding around it.
		rest := strings.TrimLeftFunc(content[end+1:], func(r rune) bool {
			return r != l.delim && unicode.IsSpace(r)
		})
		switch {
		case rest == "":
			return entry{kind: lineKey, key: key, rest: content}
		case strings.HasPrefix(rest, string(l.delim)):
			return entry{kind: lineEntry, key: key, rest: strings.TrimSpace(rest[len(string(l.delim)):])}
		default:
			return entry{kind: lineValue, rest: content}
		}
	}

	idx := strings.IndexRune(content, l.delim)
	if idx < 0 {
		return entry{kind: lineKey, key: content, rest: content}
	}
	key := strings.TrimSpace(content[:idx])
	if key == "" {
		return entry{kind: lineValue, rest: content}
	}
	return entry{kind: lineEntry, key: key, rest: strings.TrimSpace(content[idx+1:])}
}

// headers splits the column list of a table header and returns the
// delimiter its rows use. A column list that only splits on another
// delimiter, as in "users[2]{id,name}:", declares that delimiter for the rows.
func (l *lexer) headers(s string) ([]string, rune) {
	if strings.TrimSpace(s) == "" {
		return nil, l.delim
	}
	fields, err := splitFields(s, l.delim, l.lineNum)
	if err != nil {
		return []string{s}, l.delim
	}
	delim := l.delim
	if len(fields) == 1 {
		for _, d := range delimiters {
			if d == l.delim {
				continue
			}
			if alt, err := splitFields(s, d, l.lineNum); err == nil && len(alt) > 1 {
				fields, delim = alt, d
				break
			}
		}
	}
	for i, f := range fields {
		fields[i] = unquoteKey(f)
	}
	return fields, delim
}

// unquoteKey strips the quotes of a quoted key.
func unquoteKey(s string) string {
	if len(s) >= 2 && s[0] == '"' && closingQuote(s) == len(s)-1 {
		return unescape(s[1 : len(s)-1])
	}
	return s
}

// DetectDelimiter guesses the delimiter a document was written with by
// looking at the character that follows the first key, or the first table
// column when a header has no trailing delimiter. It returns
// DefaultDelimiter when no key line is found.
func DetectDelimiter(text string) rune {
	for _, raw := range strings.Split(text, "\n") {
		content := strings.TrimSpace(raw)
		if content == "" || strings.HasPrefix(content, "#") {
			continue
		}
		if m := detectRegex.FindStringSubmatch(content); m != nil {
			return rune(m[1][0])
		}
		if m := headerDetectRegex.FindStringSubmatch(content); m != nil {
			return rune(m[1][0])
		}
	}
	return DefaultDelimiter
}
