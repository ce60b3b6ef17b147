package lexer

import "testing"

func TestNFKCNormalization(t *testing.T) {
	// Fullwidth spelling normalizes to the plain ASCII identifier.
	l := New("ｆｏｏ") // ｆｏｏ
	tok := l.NextToken()
	if tok.Type != IDENT {
		t.Fatalf("expected IDENT, got %q", tok.Type)
	}
	if tok.Value != "foo" {
		t.Fatalf("expected normalized value %q, got %q", "foo", tok.Value)
	}
	if tok.Raw != "ｆｏｏ" {
		t.Fatalf("raw must keep the original spelling, got %q", tok.Raw)
	}
}

func TestNormalizedKeyword(t *testing.T) {
	// NFKC runs before keyword lookup, so a fullwidth "let" is the keyword.
	l := New("ｌｅｔ x") // ｌｅｔ x
	tok := l.NextToken()
	if tok.Type != LET {
		t.Fatalf("expected LET after normalization, got %q (value %q)", tok.Type, tok.Value)
	}
}

func TestConfusableDetectionWarns(t *testing.T) {
	// Latin first, Cyrillic lookalike second.
	l := New("paypal pаypal")
	l.Tokenize()

	if len(l.Errors) != 1 {
		t.Fatalf("expected exactly one confusable report, got %+v", l.Errors)
	}
	e := l.Errors[0]
	if e.Kind != ErrConfusableIdent {
		t.Fatalf("expected confusable kind, got %v", e.Kind)
	}
	if e.Severity != SeverityWarning {
		t.Fatalf("default level must warn, got severity %v", e.Severity)
	}
	if l.HasErrors() {
		t.Fatal("a warning must not count as an error")
	}
}

func TestConfusableDetectionEitherOrder(t *testing.T) {
	// Cyrillic first, Latin second: still detected.
	l := New("pаypal paypal")
	l.Tokenize()
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrConfusableIdent {
		t.Fatalf("expected one confusable report, got %+v", l.Errors)
	}
}

func TestConfusableWarnsOncePerPair(t *testing.T) {
	l := New("paypal pаypal pаypal pаypal")
	l.Tokenize()
	if len(l.Errors) != 1 {
		t.Fatalf("expected a single deduplicated report, got %d: %+v", len(l.Errors), l.Errors)
	}
}

func TestConfusableStrictIsError(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.Level = SecurityStrict

	l := New("paypal pаypal", WithSecurity(cfg))
	l.Tokenize()
	if len(l.Errors) != 1 || l.Errors[0].Severity != SeverityError {
		t.Fatalf("strict level must reject confusables, got %+v", l.Errors)
	}
	if !l.HasErrors() {
		t.Fatal("expected HasErrors in strict mode")
	}
}

func TestConfusablePermissiveIsSilent(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.Level = SecurityPermissive

	l := New("paypal pаypal", WithSecurity(cfg))
	l.Tokenize()
	if len(l.Errors) != 0 {
		t.Fatalf("permissive level must stay silent, got %+v", l.Errors)
	}
}

func TestSameIdentifierNeverConfusable(t *testing.T) {
	l := New("pаypal pаypal")
	l.Tokenize()
	if len(l.Errors) != 0 {
		t.Fatalf("repeated identical identifier must not be flagged: %+v", l.Errors)
	}
}

func TestConfusableSkeletonFolding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{"pаypal", "paypal"},                      // Cyrillic а
		{"ρο", "po"},                         // Greek rho, omicron
		{"ａｂｃ", "abc"},                  // fullwidth
		{"\U0001D41A\U0001D41B", "ab"},                 // math bold
		{"x₁", "x1"},                              // subscript one
		{"x¹", "x1"},                              // superscript one
		{"ᴀʙᴄ", "ABC"},                  // small caps
		{"ХУСЕРО", "XYCEPO"}, // Cyrillic capitals
	}

	c := newSecurityChecker(DefaultSecurityConfig())
	for _, tt := range tests {
		if got := c.skeleton(tt.in); got != tt.want {
			t.Errorf("skeleton(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
