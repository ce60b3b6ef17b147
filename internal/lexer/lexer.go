package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cinder-lang/cinder/internal/diag"
)

// Limits bounds resource consumption while scanning. Every limit exists to
// turn a pathological or hostile input into a clean diagnostic instead of a
// memory or CPU blowup.
type Limits struct {
	MaxInputBytes   int // total input size
	MaxLiteralLen   int // string literal and doc comment length, in bytes
	MaxTokens       int // tokens produced per session
	MaxCommentDepth int // block comment nesting
}

// DefaultLimits returns the production defaults: 1 MiB input, 64 KiB
// literals, 100,000 tokens, 32 levels of comment nesting.
func DefaultLimits() Limits {
	return Limits{
		MaxInputBytes:   1 << 20,
		MaxLiteralLen:   64 << 10,
		MaxTokens:       100_000,
		MaxCommentDepth: 32,
	}
}

type LexErrorKind int

const (
	ErrUnterminatedString LexErrorKind = iota
	ErrUnterminatedBlockComment
	ErrIllegalRune
	ErrMalformedNumber
	ErrResourceLimit
	ErrConfusableIdent
)

// Severity mirrors diag severities so lexer warnings survive the trip
// through the error slice.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// LexError is a structured lexical error with a stable kind and a span
// pointing at the offending input.
type LexError struct {
	Kind     LexErrorKind
	Severity Severity
	Message  string
	Span     Span
}

func (k LexErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedString, ErrUnterminatedBlockComment:
		return diag.CodeLexUnterminatedLiteral
	case ErrIllegalRune:
		return diag.CodeLexInvalidCharacter
	case ErrMalformedNumber:
		return diag.CodeLexMalformedNumber
	case ErrResourceLimit:
		return diag.CodeLexResourceLimit
	case ErrConfusableIdent:
		return diag.CodeLexUnicodeConfusable
	default:
		return diag.Code("LEX_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a lexer error into the shared diagnostic structure.
func (e LexError) ToDiagnostic() diag.Diagnostic {
	severity := diag.SeverityError
	if e.Severity == SeverityWarning {
		severity = diag.SeverityWarning
	}
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: severity,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}

// Lexer scans Cinder source into tokens. It never fails hard: errors are
// accumulated on Errors and scanning continues so one pass surfaces every
// independently detectable problem.
type Lexer struct {
	input      []rune
	filename   string
	pos        int  // index of the current rune
	ch         rune // current rune (0 = EOF)
	line       int  // 1-based
	column     int  // 1-based
	emitTrivia bool

	limits     Limits
	security   *securityChecker
	interner   *Interner
	tokenCount int
	exhausted  bool // token budget spent; only EOF from here on

	Errors []LexError
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithTrivia makes the lexer emit whitespace and comment tokens.
func WithTrivia() Option {
	return func(l *Lexer) { l.emitTrivia = true }
}

// WithFilename attaches a filename to every produced span.
func WithFilename(name string) Option {
	return func(l *Lexer) { l.filename = name }
}

// WithLimits overrides the default resource limits.
func WithLimits(limits Limits) Option {
	return func(l *Lexer) { l.limits = limits }
}

// WithSecurity overrides the default Unicode security configuration.
func WithSecurity(cfg SecurityConfig) Option {
	return func(l *Lexer) { l.security = newSecurityChecker(cfg) }
}

// WithInterner shares an identifier interner across lexer sessions.
func WithInterner(in *Interner) Option {
	return func(l *Lexer) { l.interner = in }
}

// New creates a lexer for the given input. Inputs over the configured byte
// limit are rejected up front: the lexer records a resource error and
// produces only EOF.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{
		pos:    -1,
		line:   1,
		column: 0, // becomes 1 after the first read
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(l)
	}
	defaults := DefaultLimits()
	if l.limits.MaxInputBytes <= 0 {
		l.limits.MaxInputBytes = defaults.MaxInputBytes
	}
	if l.limits.MaxLiteralLen <= 0 {
		l.limits.MaxLiteralLen = defaults.MaxLiteralLen
	}
	if l.limits.MaxTokens <= 0 {
		l.limits.MaxTokens = defaults.MaxTokens
	}
	if l.limits.MaxCommentDepth <= 0 {
		l.limits.MaxCommentDepth = defaults.MaxCommentDepth
	}
	if l.security == nil {
		l.security = newSecurityChecker(DefaultSecurityConfig())
	}
	if l.interner == nil {
		l.interner = NewInterner(DefaultInternerSize)
	}

	if len(input) > l.limits.MaxInputBytes {
		l.addError(ErrResourceLimit, fmt.Sprintf(
			"input size %d exceeds maximum %d bytes",
			len(input), l.limits.MaxInputBytes),
			Span{Filename: l.filename, Line: 1, Column: 1})
		l.exhausted = true
	} else {
		l.input = []rune(input)
	}

	l.read()
	return l
}

// NewWithTrivia creates a lexer that also emits trivia tokens.
func NewWithTrivia(input string, opts ...Option) *Lexer {
	return New(input, append([]Option{WithTrivia()}, opts...)...)
}

func (l *Lexer) addError(kind LexErrorKind, msg string, span Span) {
	l.Errors = append(l.Errors, LexError{Kind: kind, Message: msg, Span: span})
}

// Diagnostics converts accumulated errors to shared diagnostics.
func (l *Lexer) Diagnostics() []diag.Diagnostic {
	if len(l.Errors) == 0 {
		return nil
	}
	ds := make([]diag.Diagnostic, len(l.Errors))
	for i, e := range l.Errors {
		ds[i] = e.ToDiagnostic()
	}
	return ds
}

// HasErrors reports whether any error-severity problem was recorded.
func (l *Lexer) HasErrors() bool {
	for _, e := range l.Errors {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Tokenize scans the remaining input and returns all tokens including the
// trailing EOF.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

// read advances to the next rune, maintaining line and column so they always
// describe the rune at pos.
func (l *Lexer) read() {
	l.pos++
	prev := l.pos - 1

	advance := func() {
		if prev >= 0 && prev < len(l.input) && l.input[prev] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}

	if l.pos >= len(l.input) {
		advance()
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	advance()
}

func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

// mark captures the span start for the token about to be scanned.
func (l *Lexer) mark() (line, column, pos int) {
	return l.line, l.column, l.pos
}

func (l *Lexer) span(line, column, start, end int) Span {
	return Span{
		Filename: l.filename,
		Line:     line,
		Column:   column,
		Start:    start,
		End:      end,
	}
}

func (l *Lexer) makeToken(tt TokenType, line, column, start, end int, raw, value string) Token {
	return Token{
		Type:  tt,
		Raw:   raw,
		Value: value,
		Span:  l.span(line, column, start, end),
	}
}

// single scans a one-rune token.
func (l *Lexer) single(tt TokenType) Token {
	line, column, start := l.mark()
	raw := string(l.ch)
	l.read()
	return l.makeToken(tt, line, column, start, l.pos, raw, raw)
}

// pair scans a two-rune token when the next rune matches, falling back to
// the one-rune token otherwise.
func (l *Lexer) pair(next rune, two, one TokenType) Token {
	line, column, start := l.mark()
	first := l.ch
	l.read()
	if l.ch == next {
		raw := string(first) + string(l.ch)
		l.read()
		return l.makeToken(two, line, column, start, l.pos, raw, raw)
	}
	raw := string(first)
	return l.makeToken(one, line, column, start, l.pos, raw, raw)
}

// NextToken returns the next token. After the token budget is exhausted or
// an oversized input was rejected, it returns EOF forever.
func (l *Lexer) NextToken() Token {
	tok := l.scan()
	if tok.Type != EOF && !IsTrivia(tok.Type) {
		l.tokenCount++
		if l.tokenCount > l.limits.MaxTokens {
			l.addError(ErrResourceLimit, fmt.Sprintf(
				"token count exceeds maximum %d", l.limits.MaxTokens), tok.Span)
			l.exhausted = true
			return l.makeToken(EOF, tok.Span.Line, tok.Span.Column, tok.Span.Start, tok.Span.Start, "", "")
		}
	}
	return tok
}

func (l *Lexer) scan() Token {
	for {
		if l.exhausted {
			return l.makeToken(EOF, l.line, max(l.column, 1), l.pos, l.pos, "", "")
		}

		if trivia := l.scanWhitespace(); trivia != nil {
			return *trivia
		}

		switch l.ch {
		case 0:
			line, column, start := l.mark()
			return l.makeToken(EOF, line, max(column, 1), start, start, "", "")

		case '=':
			line, column, start := l.mark()
			l.read()
			switch l.ch {
			case '=':
				l.read()
				return l.makeToken(EQ, line, column, start, l.pos, "==", "==")
			case '>':
				l.read()
				return l.makeToken(FATARROW, line, column, start, l.pos, "=>", "=>")
			default:
				return l.makeToken(ASSIGN, line, column, start, l.pos, "=", "=")
			}

		case '+':
			return l.single(PLUS)

		case '-':
			return l.pair('>', ARROW, MINUS)

		case '!':
			return l.pair('=', NOT_EQ, BANG)

		case '*':
			return l.single(ASTERISK)

		case '%':
			return l.single(PERCENT)

		case '&':
			line, column, start := l.mark()
			l.read()
			if l.ch == '&' {
				l.read()
				return l.makeToken(AND, line, column, start, l.pos, "&&", "&&")
			}
			tok := l.makeToken(ILLEGAL, line, column, start, l.pos, "&", "&")
			l.addError(ErrIllegalRune, "unexpected character '&' (did you mean '&&'?)", tok.Span)
			return tok

		case '|':
			return l.pair('|', OR, PIPE)

		case '?':
			return l.single(QUESTION)

		case '@':
			return l.single(AT)

		case '/':
			line, column, start := l.mark()
			switch l.peek() {
			case '/':
				if trivia := l.scanLineComment(line, column, start); trivia != nil {
					return *trivia
				}
				continue
			case '*':
				if trivia := l.scanBlockComment(line, column, start); trivia != nil {
					return *trivia
				}
				continue
			default:
				return l.single(SLASH)
			}

		case '<':
			return l.pair('=', LE, LT)

		case '>':
			return l.pair('=', GE, GT)

		case ';':
			return l.single(SEMICOLON)

		case ',':
			return l.single(COMMA)

		case ':':
			return l.pair(':', COLONCOLON, COLON)

		case '.':
			return l.pair('.', DOTDOT, DOT)

		case '"':
			line, column, start := l.mark()
			raw, value, terminated := l.scanString(line, column, start)
			if !terminated {
				return l.makeToken(ILLEGAL, line, column, start, l.pos, raw, raw)
			}
			return l.makeToken(STRING, line, column, start, l.pos, raw, l.interner.Intern(value))

		case '(':
			return l.single(LPAREN)
		case ')':
			return l.single(RPAREN)
		case '{':
			return l.single(LBRACE)
		case '}':
			return l.single(RBRACE)
		case '[':
			return l.single(LBRACKET)
		case ']':
			return l.single(RBRACKET)

		default:
			switch {
			case isLetter(l.ch):
				return l.scanIdentifier()
			case isDigit(l.ch):
				return l.scanNumber()
			default:
				tok := l.single(ILLEGAL)
				l.addError(ErrIllegalRune,
					"illegal character "+strconv.Quote(tok.Raw), tok.Span)
				return tok
			}
		}
	}
}

// scanWhitespace skips whitespace, returning a trivia token in trivia mode.
func (l *Lexer) scanWhitespace() *Token {
	if !l.emitTrivia {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.read()
		}
		return nil
	}

	line, column, start := l.mark()

	if l.ch == '\n' || l.ch == '\r' {
		raw := string(l.ch)
		l.read()
		if raw == "\r" && l.ch == '\n' {
			raw = "\r\n"
			l.read()
		}
		tok := l.makeToken(NEWLINE, line, column, start, l.pos, raw, raw)
		return &tok
	}

	if l.ch == ' ' || l.ch == '\t' {
		for l.ch == ' ' || l.ch == '\t' {
			l.read()
		}
		raw := string(l.input[start:l.pos])
		tok := l.makeToken(WHITESPACE, line, column, start, l.pos, raw, raw)
		return &tok
	}

	return nil
}

// scanLineComment consumes "//..." to end of line. A third slash makes it a
// doc comment.
func (l *Lexer) scanLineComment(line, column, start int) *Token {
	l.read() // first '/'
	l.read() // second '/'
	isDoc := l.ch == '/'

	for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
		l.read()
	}
	raw := string(l.input[start:l.pos])
	l.checkLiteralLen(raw, "doc comment", line, column, start)

	if l.emitTrivia {
		tt := LINE_COMMENT
		if isDoc {
			tt = DOC_COMMENT
		}
		tok := l.makeToken(tt, line, column, start, l.pos, raw, raw)
		return &tok
	}
	return nil
}

// scanBlockComment consumes a nestable "/* ... */" comment. "/**" opens a
// doc comment. Nesting beyond the configured depth is a resource error; the
// scanner still consumes to the matching terminator so scanning can resume.
func (l *Lexer) scanBlockComment(line, column, start int) *Token {
	l.read() // '/'
	l.read() // '*'
	isDoc := l.ch == '*' && l.peek() != '/'

	depth := 1
	depthExceeded := false
	for depth > 0 {
		if l.ch == 0 {
			l.addError(ErrUnterminatedBlockComment, "unterminated block comment",
				l.span(line, column, start, l.pos))
			break
		}
		if l.ch == '/' && l.peek() == '*' {
			l.read()
			l.read()
			depth++
			if depth > l.limits.MaxCommentDepth && !depthExceeded {
				depthExceeded = true
				l.addError(ErrResourceLimit, fmt.Sprintf(
					"block comment nesting exceeds maximum depth %d",
					l.limits.MaxCommentDepth),
					l.span(line, column, start, l.pos))
			}
		} else if l.ch == '*' && l.peek() == '/' {
			l.read()
			l.read()
			depth--
		} else {
			l.read()
		}
	}

	raw := string(l.input[start:l.pos])
	if isDoc {
		l.checkLiteralLen(raw, "doc comment", line, column, start)
	}

	if l.emitTrivia {
		tt := BLOCK_COMMENT
		if isDoc {
			tt = DOC_COMMENT
		}
		tok := l.makeToken(tt, line, column, start, l.pos, raw, raw)
		return &tok
	}
	return nil
}

func (l *Lexer) checkLiteralLen(raw, what string, line, column, start int) {
	if len(raw) > l.limits.MaxLiteralLen {
		l.addError(ErrResourceLimit, fmt.Sprintf(
			"%s length %d exceeds maximum %d bytes",
			what, len(raw), l.limits.MaxLiteralLen),
			l.span(line, column, start, l.pos))
	}
}

// scanIdentifier reads an identifier or keyword, NFKC-normalizing non-ASCII
// spellings and running confusable detection.
func (l *Lexer) scanIdentifier() Token {
	line, column, start := l.mark()
	for isLetter(l.ch) || isDigit(l.ch) {
		l.read()
	}
	raw := string(l.input[start:l.pos])

	if raw == "_" {
		return l.makeToken(UNDERSCORE, line, column, start, l.pos, raw, raw)
	}

	span := l.span(line, column, start, l.pos)
	normalized, errs := l.security.check(raw, span)
	l.Errors = append(l.Errors, errs...)

	tt := LookupIdent(normalized)
	value := normalized
	if tt == IDENT {
		value = l.interner.Intern(normalized)
	}
	return l.makeToken(tt, line, column, start, l.pos, raw, value)
}

// scanNumber reads an integer or float literal. Malformed shapes (1.2.3,
// a dangling exponent, an empty hex or binary prefix) are consumed whole and
// reported, so one bad literal produces one error rather than a cascade.
func (l *Lexer) scanNumber() Token {
	line, column, start := l.mark()
	malformed := false
	tt := INT

	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X' || l.peek() == 'b' || l.peek() == 'B') {
		base := l.peek()
		l.read() // '0'
		l.read() // base marker
		isBaseDigit := isHexDigit
		if base == 'b' || base == 'B' {
			isBaseDigit = func(ch rune) bool { return ch == '0' || ch == '1' }
		}
		n := 0
		for isBaseDigit(l.ch) || l.ch == '_' {
			if l.ch != '_' {
				n++
			}
			l.read()
		}
		if n == 0 {
			malformed = true
		}
		return l.finishNumber(tt, malformed, line, column, start)
	}

	l.readDigits()

	if l.ch == '.' && isDigit(l.peek()) {
		tt = FLOAT
		l.read()
		l.readDigits()
		// 1.2.3 is one malformed literal, not a float dotted with an int
		if l.ch == '.' && isDigit(l.peek()) {
			malformed = true
			for (l.ch == '.' && isDigit(l.peek())) || isDigit(l.ch) || l.ch == '_' {
				l.read()
			}
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		tt = FLOAT
		l.read()
		if l.ch == '+' || l.ch == '-' {
			l.read()
		}
		if !isDigit(l.ch) {
			malformed = true
		}
		l.readDigits()
	}

	return l.finishNumber(tt, malformed, line, column, start)
}

func (l *Lexer) readDigits() {
	for isDigit(l.ch) || l.ch == '_' {
		l.read()
	}
}

func (l *Lexer) finishNumber(tt TokenType, malformed bool, line, column, start int) Token {
	raw := string(l.input[start:l.pos])
	if malformed {
		tok := l.makeToken(ILLEGAL, line, column, start, l.pos, raw, raw)
		l.addError(ErrMalformedNumber,
			"malformed number literal "+strconv.Quote(raw), tok.Span)
		return tok
	}
	value := strings.ReplaceAll(raw, "_", "")
	return l.makeToken(tt, line, column, start, l.pos, raw, value)
}

// scanString reads a string literal, decoding escape sequences. It returns
// the raw spelling, the decoded value, and whether a closing quote was
// found. Literals over the length limit keep scanning to the closing quote
// so the rest of the input still tokenizes, but stop accumulating.
func (l *Lexer) scanString(line, column, start int) (raw, value string, terminated bool) {
	var rawRunes, decoded []rune
	decodedBytes := 0
	overflowed := false

	rawRunes = append(rawRunes, '"')
	l.read() // opening quote

	appendDecoded := func(r rune) {
		if overflowed {
			return
		}
		decoded = append(decoded, r)
		decodedBytes += utf8.RuneLen(r)
		if decodedBytes > l.limits.MaxLiteralLen {
			overflowed = true
			l.addError(ErrResourceLimit, fmt.Sprintf(
				"string literal exceeds maximum length %d", l.limits.MaxLiteralLen),
				l.span(line, column, start, l.pos))
			decoded = decoded[:0]
		}
	}

	for {
		switch {
		case l.ch == 0:
			l.addError(ErrUnterminatedString, "unterminated string literal",
				l.span(line, column, start, l.pos))
			return string(rawRunes), string(decoded), false

		case l.ch == '"':
			rawRunes = append(rawRunes, '"')
			l.read()
			return string(rawRunes), string(decoded), true

		case l.ch == '\n' || l.ch == '\r':
			l.addError(ErrUnterminatedString, "newline in string literal",
				l.span(line, column, start, l.pos))
			return string(rawRunes), string(decoded), false

		case l.ch == '\\':
			rawRunes = append(rawRunes, '\\')
			l.read()
			if l.ch == 0 {
				continue
			}
			rawRunes = append(rawRunes, l.ch)
			switch l.ch {
			case 'n':
				appendDecoded('\n')
			case 't':
				appendDecoded('\t')
			case 'r':
				appendDecoded('\r')
			case '0':
				appendDecoded(0)
			case '\\':
				appendDecoded('\\')
			case '"':
				appendDecoded('"')
			default:
				// Unknown escapes pass through verbatim.
				appendDecoded('\\')
				appendDecoded(l.ch)
			}
			l.read()

		default:
			rawRunes = append(rawRunes, l.ch)
			appendDecoded(l.ch)
			l.read()
		}
	}
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	// Numeric literals are restricted to ASCII digits.
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'f') ||
		(ch >= 'A' && ch <= 'F')
}
