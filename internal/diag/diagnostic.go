package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer  Stage = "lexer"
	StageParser Stage = "parser"
	StageTypes  Stage = "types"
	StageMono   Stage = "mono"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// LabeledSpan is a span with an optional label. Primary spans are emphasized
// when rendered; secondary spans point at supporting locations ("first defined
// here", "conflicting type here").
type LabeledSpan struct {
	Span  Span
	Label string
	Style string // "primary" or "secondary"
}

// Code is a stable identifier for a diagnostic kind. Consumers dispatch on
// codes, never on message text.
type Code string

const (
	// Lexical errors
	CodeLexUnterminatedLiteral Code = "LEX_UNTERMINATED_LITERAL"
	CodeLexInvalidCharacter    Code = "LEX_INVALID_CHARACTER"
	CodeLexMalformedNumber     Code = "LEX_MALFORMED_NUMBER"
	CodeLexResourceLimit       Code = "LEX_RESOURCE_LIMIT_EXCEEDED"
	CodeLexUnicodeConfusable   Code = "LEX_UNICODE_CONFUSABLE"

	// Syntactic errors
	CodeParseUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeParseMissingToken    Code = "PARSE_MISSING_EXPECTED_TOKEN"
	CodeParseRecursionLimit  Code = "PARSE_RECURSION_LIMIT_EXCEEDED"
	CodeParseInvalidPattern  Code = "PARSE_INVALID_PATTERN_SYNTAX"

	// Type errors
	CodeTypeMismatch         Code = "TYPE_MISMATCH"
	CodeTypeUnboundIdent     Code = "TYPE_UNBOUND_IDENTIFIER"
	CodeTypeUnsatisfiedBound Code = "TYPE_UNSATISFIED_TRAIT_BOUND"
	CodeTypeOccursCheck      Code = "TYPE_OCCURS_CHECK_FAILURE"
	CodeTypeResourceLimit    Code = "TYPE_RESOURCE_LIMIT_EXCEEDED"

	// Monomorphization errors
	CodeMonoInstantiationLimit Code = "MONO_INSTANTIATION_LIMIT_EXCEEDED"
	CodeMonoInternal           Code = "MONO_INTERNAL_CONSISTENCY_VIOLATION"
)

// Span represents a location in source code. Line and Column are 1-based;
// Start and End are rune offsets into the original input, End exclusive.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has usable location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Diagnostic is a compiler diagnostic surfaced to end users. Each stage
// accumulates diagnostics and keeps going; a single run surfaces every
// independently detectable error.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span // primary span
	// LabeledSpans carries additional spans with labels. The first primary
	// span is emphasized, secondary spans are rendered as supporting context.
	LabeledSpans []LabeledSpan
	Notes        []string
	Help         string
}

// WithLabeledSpan adds a labeled span to the diagnostic.
func (d Diagnostic) WithLabeledSpan(span Span, label string, style string) Diagnostic {
	if style == "" {
		style = "primary"
	}
	d.LabeledSpans = append(d.LabeledSpans, LabeledSpan{
		Span:  span,
		Label: label,
		Style: style,
	})
	return d
}

// WithPrimarySpan adds a primary labeled span.
func (d Diagnostic) WithPrimarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "primary")
}

// WithSecondarySpan adds a secondary labeled span.
func (d Diagnostic) WithSecondarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "secondary")
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// HasErrors reports whether any diagnostic in ds is error severity.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
