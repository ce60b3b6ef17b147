package lexer

import (
	"strings"
	"testing"
)

func TestInputSizeLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxInputBytes = 16

	l := New(strings.Repeat("a", 17), WithLimits(limits))
	tok := l.NextToken()
	if tok.Type != EOF {
		t.Fatalf("oversized input must yield only EOF, got %q", tok.Type)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrResourceLimit {
		t.Fatalf("expected one resource-limit error, got %+v", l.Errors)
	}

	// At the boundary the input is accepted.
	l = New(strings.Repeat("a", 16), WithLimits(limits))
	if tok := l.NextToken(); tok.Type != IDENT {
		t.Fatalf("boundary-size input must lex, got %q", tok.Type)
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected errors at boundary: %+v", l.Errors)
	}
}

func TestTokenCountLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxTokens = 5

	l := New("a b c d e f g h", WithLimits(limits))
	toks := l.Tokenize()

	// Five tokens then a forced EOF.
	if len(toks) != 6 {
		t.Fatalf("expected 6 tokens (5 + EOF), got %d: %+v", len(toks), toks)
	}
	if toks[5].Type != EOF {
		t.Fatalf("expected trailing EOF, got %q", toks[5].Type)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrResourceLimit {
		t.Fatalf("expected one resource-limit error, got %+v", l.Errors)
	}

	// The lexer stays pinned at EOF afterwards.
	if tok := l.NextToken(); tok.Type != EOF {
		t.Fatalf("exhausted lexer must keep returning EOF, got %q", tok.Type)
	}
}

func TestStringLiteralLengthLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxLiteralLen = 8

	l := New(`"`+strings.Repeat("x", 9)+`" y`, WithLimits(limits))
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING token, got %q", tok.Type)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrResourceLimit {
		t.Fatalf("expected one resource-limit error, got %+v", l.Errors)
	}

	// Scanning resumes cleanly after the oversized literal.
	if tok := l.NextToken(); tok.Type != IDENT || tok.Value != "y" {
		t.Fatalf("expected IDENT y after oversized string, got %q %q", tok.Type, tok.Value)
	}
}

func TestStringLiteralLimitCountsBytes(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxLiteralLen = 8

	// Three runes but nine UTF-8 bytes; the limit is a byte budget.
	l := New(`"世世世"`, WithLimits(limits))
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING token, got %q", tok.Type)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrResourceLimit {
		t.Fatalf("expected one resource-limit error, got %+v", l.Errors)
	}

	// The same content in bytes stays within budget.
	l = New(`"世世"`, WithLimits(limits))
	if tok := l.NextToken(); tok.Type != STRING || tok.Value != "世世" {
		t.Fatalf("expected STRING 世世, got %q %q", tok.Type, tok.Value)
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", l.Errors)
	}
}

func TestCommentNestingLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxCommentDepth = 2

	l := New("/* a /* b /* c */ */ */ 7", WithLimits(limits))
	tok := l.NextToken()
	if tok.Type != INT || tok.Value != "7" {
		t.Fatalf("expected INT 7 after over-nested comment, got %q %q", tok.Type, tok.Value)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrResourceLimit {
		t.Fatalf("expected one resource-limit error, got %+v", l.Errors)
	}
}

func TestZeroLimitsFallBackToDefaults(t *testing.T) {
	l := New("let x = 1;", WithLimits(Limits{}))
	toks := l.Tokenize()
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", l.Errors)
	}
	if len(toks) != 6 { // let x = 1 ; EOF
		t.Fatalf("expected 6 tokens, got %d", len(toks))
	}
}

func TestInternerBounded(t *testing.T) {
	in := NewInterner(4)
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		if got := in.Intern(s); got != s {
			t.Fatalf("intern changed the string: %q -> %q", s, got)
		}
	}
	if in.Len() > 4 {
		t.Fatalf("interner exceeded its bound: %d entries", in.Len())
	}
	// A hit returns the cached instance.
	if got := in.Intern("f"); got != "f" {
		t.Fatalf("unexpected intern result: %q", got)
	}
}
