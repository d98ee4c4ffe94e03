package codegen

import (
	"regexp"
	"strings"
)

// wordBreakRegex matches a separator and the word character after it.
var wordBreakRegex = regexp.MustCompile(`[-_](\w)`)

// upperRegex matches a single ASCII capital.
var upperRegex = regexp.MustCompile(`[A-Z]`)

// joinWords drops '-' and '_' separators, capitalizing the character that
// follows each one.
func joinWords(s string) string {
	return wordBreakRegex.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// toPascal converts user_name and user-name to UserName.
func toPascal(s string) string {
	s = joinWords(s)
	if s == "" || !isWordByte(s[0]) {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// toCamel converts user_name and UserName to userName.
func toCamel(s string) string {
	s = joinWords(s)
	if s == "" || !isWordByte(s[0]) {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// toSnake converts userName to user_name. Existing separators are kept.
func toSnake(s string) string {
	s = upperRegex.ReplaceAllStringFunc(s, func(m string) string {
		return "_" + strings.ToLower(m)
	})
	return strings.TrimPrefix(s, "_")
}

// singular strips one trailing 's' from a field name.
func singular(s string) string {
	return strings.TrimSuffix(s, "s")
}
