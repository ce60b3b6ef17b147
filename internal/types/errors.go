package types

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// TypeErrorKind classifies type checking failures.
type TypeErrorKind int

const (
	ErrTypeMismatch TypeErrorKind = iota
	ErrUnboundIdent
	ErrUnsatisfiedBound
	ErrOccursCheck
	ErrTypeResourceLimit
)

// TypeError is a single type checking failure. Errors accumulate; the
// checker keeps going after each one so a file reports as many genuine
// problems as possible in one run.
type TypeError struct {
	Kind    TypeErrorKind
	Message string
	Span    lexer.Span
	Notes   []string
	Help    string
}

func (e *TypeError) Error() string { return e.Message }

// ToDiagnostic converts the error for rendering.
func (e *TypeError) ToDiagnostic() diag.Diagnostic {
	var code diag.Code
	switch e.Kind {
	case ErrTypeMismatch:
		code = diag.CodeTypeMismatch
	case ErrUnboundIdent:
		code = diag.CodeTypeUnboundIdent
	case ErrUnsatisfiedBound:
		code = diag.CodeTypeUnsatisfiedBound
	case ErrOccursCheck:
		code = diag.CodeTypeOccursCheck
	case ErrTypeResourceLimit:
		code = diag.CodeTypeResourceLimit
	}
	return diag.Diagnostic{
		Stage:    diag.StageTypes,
		Severity: diag.SeverityError,
		Code:     code,
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
		Notes: e.Notes,
		Help:  e.Help,
	}
}

// maxSuggestionDistance caps how far a candidate may be from the unknown
// name before suggesting it reads as noise.
const maxSuggestionDistance = 2

// suggestName returns the closest candidate within edit distance, or ""
// when nothing is plausibly a typo for name.
func suggestName(name string, candidates []string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, c := range sorted {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(name, c)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func unboundIdentError(name string, span lexer.Span, candidates []string) *TypeError {
	e := &TypeError{
		Kind:    ErrUnboundIdent,
		Message: fmt.Sprintf("cannot find %q in this scope", name),
		Span:    span,
	}
	if s := suggestName(name, candidates); s != "" {
		e.Help = fmt.Sprintf("a binding with a similar name exists: %q", s)
	}
	return e
}
