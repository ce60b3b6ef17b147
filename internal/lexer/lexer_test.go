package lexer

import (
	"strings"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `let five = 5;
let mut ten = 10;

fn add(x: i32, y: i32) -> i32 {
	x + y
}

let result = add(five, ten);
!-/*5;
5 < 10 > 5;

if 5 < 10 {
	return true;
} else {
	return false;
}

10 == 10;
10 != 9;
10 <= 11;
10 >= 9;
"foobar"
"foo bar"
[1, 2];
{"foo"}
a.b
1..5
Option::None
x % 2
a && b || c
|acc| acc + 1
match v { _ => 0 }
v?
@inline
`

	tests := []struct {
		expectedType  TokenType
		expectedValue string
	}{
		{LET, "let"},
		{IDENT, "five"},
		{ASSIGN, "="},
		{INT, "5"},
		{SEMICOLON, ";"},
		{LET, "let"},
		{MUT, "mut"},
		{IDENT, "ten"},
		{ASSIGN, "="},
		{INT, "10"},
		{SEMICOLON, ";"},
		{FN, "fn"},
		{IDENT, "add"},
		{LPAREN, "("},
		{IDENT, "x"},
		{COLON, ":"},
		{IDENT, "i32"},
		{COMMA, ","},
		{IDENT, "y"},
		{COLON, ":"},
		{IDENT, "i32"},
		{RPAREN, ")"},
		{ARROW, "->"},
		{IDENT, "i32"},
		{LBRACE, "{"},
		{IDENT, "x"},
		{PLUS, "+"},
		{IDENT, "y"},
		{RBRACE, "}"},
		{LET, "let"},
		{IDENT, "result"},
		{ASSIGN, "="},
		{IDENT, "add"},
		{LPAREN, "("},
		{IDENT, "five"},
		{COMMA, ","},
		{IDENT, "ten"},
		{RPAREN, ")"},
		{SEMICOLON, ";"},
		{BANG, "!"},
		{MINUS, "-"},
		{SLASH, "/"},
		{ASTERISK, "*"},
		{INT, "5"},
		{SEMICOLON, ";"},
		{INT, "5"},
		{LT, "<"},
		{INT, "10"},
		{GT, ">"},
		{INT, "5"},
		{SEMICOLON, ";"},
		{IF, "if"},
		{INT, "5"},
		{LT, "<"},
		{INT, "10"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{TRUE, "true"},
		{SEMICOLON, ";"},
		{RBRACE, "}"},
		{ELSE, "else"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{FALSE, "false"},
		{SEMICOLON, ";"},
		{RBRACE, "}"},
		{INT, "10"},
		{EQ, "=="},
		{INT, "10"},
		{SEMICOLON, ";"},
		{INT, "10"},
		{NOT_EQ, "!="},
		{INT, "9"},
		{SEMICOLON, ";"},
		{INT, "10"},
		{LE, "<="},
		{INT, "11"},
		{SEMICOLON, ";"},
		{INT, "10"},
		{GE, ">="},
		{INT, "9"},
		{SEMICOLON, ";"},
		{STRING, "foobar"},
		{STRING, "foo bar"},
		{LBRACKET, "["},
		{INT, "1"},
		{COMMA, ","},
		{INT, "2"},
		{RBRACKET, "]"},
		{SEMICOLON, ";"},
		{LBRACE, "{"},
		{STRING, "foo"},
		{RBRACE, "}"},
		{IDENT, "a"},
		{DOT, "."},
		{IDENT, "b"},
		{INT, "1"},
		{DOTDOT, ".."},
		{INT, "5"},
		{IDENT, "Option"},
		{COLONCOLON, "::"},
		{IDENT, "None"},
		{IDENT, "x"},
		{PERCENT, "%"},
		{INT, "2"},
		{IDENT, "a"},
		{AND, "&&"},
		{IDENT, "b"},
		{OR, "||"},
		{IDENT, "c"},
		{PIPE, "|"},
		{IDENT, "acc"},
		{PIPE, "|"},
		{IDENT, "acc"},
		{PLUS, "+"},
		{INT, "1"},
		{MATCH, "match"},
		{IDENT, "v"},
		{LBRACE, "{"},
		{UNDERSCORE, "_"},
		{FATARROW, "=>"},
		{INT, "0"},
		{RBRACE, "}"},
		{IDENT, "v"},
		{QUESTION, "?"},
		{AT, "@"},
		{IDENT, "inline"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q (value %q)",
				i, tt.expectedType, tok.Type, tok.Value)
		}
		if tok.Value != tt.expectedValue {
			t.Fatalf("tests[%d] - wrong value. expected=%q, got=%q",
				i, tt.expectedValue, tok.Value)
		}
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected lexer errors: %+v", l.Errors)
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input         string
		expectedType  TokenType
		expectedValue string
	}{
		{"0", INT, "0"},
		{"1343456", INT, "1343456"},
		{"1_000_000", INT, "1000000"},
		{"0xFF", INT, "0xFF"},
		{"0b1010", INT, "0b1010"},
		{"3.14", FLOAT, "3.14"},
		{"1_0.5_0", FLOAT, "10.50"},
		{"1e9", FLOAT, "1e9"},
		{"2.5e-3", FLOAT, "2.5e-3"},
		{"1E+6", FLOAT, "1E+6"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Errorf("input %q: wrong type. expected=%q, got=%q", tt.input, tt.expectedType, tok.Type)
		}
		if tok.Value != tt.expectedValue {
			t.Errorf("input %q: wrong value. expected=%q, got=%q", tt.input, tt.expectedValue, tok.Value)
		}
		if len(l.Errors) != 0 {
			t.Errorf("input %q: unexpected errors %+v", tt.input, l.Errors)
		}
	}
}

func TestMalformedNumbers(t *testing.T) {
	tests := []struct {
		input string
		raw   string
	}{
		{"1.2.3", "1.2.3"},
		{"1e", "1e"},
		{"1e+", "1e+"},
		{"0x", "0x"},
		{"0b", "0b"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != ILLEGAL {
			t.Errorf("input %q: expected ILLEGAL, got %q", tt.input, tok.Type)
			continue
		}
		if tok.Raw != tt.raw {
			t.Errorf("input %q: expected raw %q, got %q", tt.input, tt.raw, tok.Raw)
		}
		if len(l.Errors) != 1 || l.Errors[0].Kind != ErrMalformedNumber {
			t.Errorf("input %q: expected one malformed-number error, got %+v", tt.input, l.Errors)
		}
	}
}

func TestRangeVersusFloat(t *testing.T) {
	l := New("1..5")
	types := []TokenType{INT, DOTDOT, INT, EOF}
	for i, want := range types {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %q, got %q", i, want, tok.Type)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\t\"c\"\\d\0"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	want := "a\nb\t\"c\"\\d\x00"
	if tok.Value != want {
		t.Fatalf("wrong decoded value. expected=%q, got=%q", want, tok.Value)
	}
	if tok.Raw != `"a\nb\t\"c\"\\d\0"` {
		t.Fatalf("raw must preserve escapes, got %q", tok.Raw)
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, input := range []string{`"abc`, "\"abc\ndef\""} {
		l := New(input)
		tok := l.NextToken()
		if tok.Type != ILLEGAL {
			t.Errorf("input %q: expected ILLEGAL, got %q", input, tok.Type)
		}
		if len(l.Errors) == 0 || l.Errors[0].Kind != ErrUnterminatedString {
			t.Errorf("input %q: expected unterminated-string error, got %+v", input, l.Errors)
		}
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("let x = $;")
	var illegal *Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == ILLEGAL {
			cp := tok
			illegal = &cp
		}
	}
	if illegal == nil {
		t.Fatal("expected an ILLEGAL token")
	}
	if illegal.Raw != "$" {
		t.Fatalf("expected raw %q, got %q", "$", illegal.Raw)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrIllegalRune {
		t.Fatalf("expected one illegal-rune error, got %+v", l.Errors)
	}
}

func TestTriviaRoundTrip(t *testing.T) {
	input := "let x = 1; // trailing\n/* block\n * with lines */\n\t let y=\"s\"\r\n/// doc\nfn f() {}\n"
	l := NewWithTrivia(input)

	var sb strings.Builder
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		sb.WriteString(tok.Raw)
	}
	if sb.String() != input {
		t.Fatalf("trivia round trip mismatch.\nexpected: %q\ngot:      %q", input, sb.String())
	}
}

func TestDocComments(t *testing.T) {
	input := "/// line doc\n/** block doc */\n// plain\n/* plain */"
	l := NewWithTrivia(input)

	var got []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == NEWLINE || tok.Type == WHITESPACE {
			continue
		}
		got = append(got, tok)
	}

	want := []struct {
		tt  TokenType
		raw string
	}{
		{DOC_COMMENT, "/// line doc"},
		{DOC_COMMENT, "/** block doc */"},
		{LINE_COMMENT, "// plain"},
		{BLOCK_COMMENT, "/* plain */"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d comment tokens, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Type != w.tt || got[i].Raw != w.raw {
			t.Errorf("comment %d: expected (%q, %q), got (%q, %q)",
				i, w.tt, w.raw, got[i].Type, got[i].Raw)
		}
	}
}

func TestNestedBlockComment(t *testing.T) {
	l := New("/* a /* b /* c */ */ */ 42")
	tok := l.NextToken()
	if tok.Type != INT || tok.Value != "42" {
		t.Fatalf("expected INT 42 after nested comment, got %q %q", tok.Type, tok.Value)
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", l.Errors)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("/* never closed")
	tok := l.NextToken()
	if tok.Type != EOF {
		t.Fatalf("expected EOF, got %q", tok.Type)
	}
	if len(l.Errors) != 1 || l.Errors[0].Kind != ErrUnterminatedBlockComment {
		t.Fatalf("expected unterminated-block-comment error, got %+v", l.Errors)
	}
}

func TestSpans(t *testing.T) {
	input := "let x = 10;\nlet y = 20;"
	l := New(input, WithFilename("spans.cin"))

	tests := []struct {
		value  string
		line   int
		column int
		start  int
		end    int
	}{
		{"let", 1, 1, 0, 3},
		{"x", 1, 5, 4, 5},
		{"=", 1, 7, 6, 7},
		{"10", 1, 9, 8, 10},
		{";", 1, 11, 10, 11},
		{"let", 2, 1, 12, 15},
		{"y", 2, 5, 16, 17},
	}

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Value != tt.value {
			t.Fatalf("token %d: expected value %q, got %q", i, tt.value, tok.Value)
		}
		s := tok.Span
		if s.Filename != "spans.cin" {
			t.Errorf("token %d: missing filename in span: %+v", i, s)
		}
		if s.Line != tt.line || s.Column != tt.column || s.Start != tt.start || s.End != tt.end {
			t.Errorf("token %d (%q): wrong span. expected={%d %d %d %d}, got={%d %d %d %d}",
				i, tt.value, tt.line, tt.column, tt.start, tt.end,
				s.Line, s.Column, s.Start, s.End)
		}
	}
}

func TestTokenizeEmitsTrailingEOF(t *testing.T) {
	toks := New("x").Tokenize()
	if len(toks) != 2 || toks[0].Type != IDENT || toks[1].Type != EOF {
		t.Fatalf("unexpected token stream: %+v", toks)
	}
}

func TestDiagnosticsBridge(t *testing.T) {
	l := New(`"unterminated`)
	l.NextToken()
	ds := l.Diagnostics()
	if len(ds) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(ds))
	}
	d := ds[0]
	if d.Stage != "lexer" || d.Severity != "error" {
		t.Fatalf("wrong stage/severity: %+v", d)
	}
	if d.Code != "LEX_UNTERMINATED_LITERAL" {
		t.Fatalf("wrong code: %q", d.Code)
	}
}
