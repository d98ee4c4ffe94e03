package toon

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every *DecodeError through errors.Is.
var ErrMalformed = errors.New("toon: malformed document")

// Reason classifies a DecodeError.
type Reason string

const (
	ReasonTableRows         Reason = "table-rows"
	ReasonUnterminatedQuote Reason = "unterminated-quote"
	ReasonMissingSeparator  Reason = "missing-separator"
	ReasonDuplicateKey      Reason = "duplicate-key"
	ReasonMixedBlock        Reason = "mixed-block"
	ReasonUnexpectedIndent  Reason = "unexpected-indent"
	ReasonRootIndented      Reason = "root-indented"
	ReasonWarningPromoted   Reason = "strict-warning"
)

// DecodeError reports a document whose structure cannot be decoded.
// Line is 1-based and refers to the source text.
type DecodeError struct {
	Line   int
	Reason Reason
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Reason, e.Detail)
}

// Is lets errors.Is(err, ErrMalformed) match any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}

func decodeErrorf(line int, reason Reason, format string, args ...any) *DecodeError {
	return &DecodeError{Line: line, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// WarningKind classifies a non-fatal decode diagnostic.
type WarningKind string

const (
	// WarnCountMismatch is reported when a compact list declares a length
	// that differs from the number of items actually present.
	WarnCountMismatch WarningKind = "count-mismatch"
	// WarnRowWidth is reported when a table row has more or fewer fields
	// than the header declares.
	WarnRowWidth WarningKind = "row-width"
)

// Warning is a recoverable diagnostic produced while decoding. Decoding
// continues using the actual item count.
type Warning struct {
	Line     int
	Kind     WarningKind
	Key      string
	Declared int
	Actual   int
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s for %q: declared %d, found %d", w.Line, w.Kind, w.Key, w.Declared, w.Actual)
}

// OptionsError reports an invalid EncodeOptions or DecodeOptions value.
type OptionsError struct {
	Field string
	Value string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("toon: invalid %s %q", e.Field, e.Value)
}
