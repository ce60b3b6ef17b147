package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// DefaultMaxDepth bounds expression, type, and block nesting. Recursive
// descent consumes Go stack proportional to nesting, so a hostile input like
// ((((...)))) must hit a diagnostic before it hits the runtime stack.
const DefaultMaxDepth = 256

type Option func(*options)

type options struct {
	filename string
	maxDepth int
	limits   lexer.Limits
	security *lexer.SecurityConfig
}

// WithFilename attributes all emitted spans to the provided filename.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxDepth overrides the nesting depth limit.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithLexerLimits passes resource limits through to the lexer.
func WithLexerLimits(limits lexer.Limits) Option {
	return func(o *options) { o.limits = limits }
}

// WithSecurity passes a Unicode security configuration through to the lexer.
func WithSecurity(cfg lexer.SecurityConfig) Option {
	return func(o *options) { o.security = &cfg }
}

const (
	precedenceLowest = iota
	precedenceAssign
	precedenceRange
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
	precedencePostfix
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:     precedenceAssign,
	lexer.DOTDOT:     precedenceRange,
	lexer.OR:         precedenceOr,
	lexer.AND:        precedenceAnd,
	lexer.EQ:         precedenceEquality,
	lexer.NOT_EQ:     precedenceEquality,
	lexer.LT:         precedenceComparison,
	lexer.LE:         precedenceComparison,
	lexer.GT:         precedenceComparison,
	lexer.GE:         precedenceComparison,
	lexer.PLUS:       precedenceSum,
	lexer.MINUS:      precedenceSum,
	lexer.ASTERISK:   precedenceProduct,
	lexer.SLASH:      precedenceProduct,
	lexer.PERCENT:    precedenceProduct,
	lexer.LPAREN:     precedencePostfix,
	lexer.LBRACKET:   precedencePostfix,
	lexer.DOT:        precedencePostfix,
	lexer.COLONCOLON: precedencePostfix,
	lexer.QUESTION:   precedencePostfix,
}

// ParseError captures a recoverable parsing error with location context.
type ParseError struct {
	Code     diag.Code
	Message  string
	Span     lexer.Span
	Severity diag.Severity
}

// ToDiagnostic converts a parse error into the shared diagnostic structure.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: e.Severity,
		Code:     e.Code,
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

// Parser implements a Pratt-style recursive descent parser for Cinder.
//
// Invariants:
//   - Lookahead: curTok always reflects the token under examination; peekTok
//     mirrors the next token pulled from the lexer. The pair forms the sole
//     lookahead window and is only mutated via nextToken.
//   - Diagnostics: errors is an append-only accumulator of recoverable
//     diagnostics. Callers consult Errors() after ParseFile.
//   - Spans: node spans are composed via mergeSpan so tail.End is never less
//     than head.End.
//   - Identity: every node receives a fresh NodeID from nextID before it is
//     returned; later stages key side tables on those IDs.
type Parser struct {
	lx      *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token

	errors []ParseError

	filename string
	maxDepth int
	depth    int
	depthHit bool

	nextID ast.NodeID

	// pendingDoc accumulates doc comment text until the next declaration
	// claims it.
	pendingDoc []string

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn

	// noStructLit suppresses struct literal parsing inside if/while/for/match
	// headers, where Ident { would otherwise swallow the body block.
	noStructLit bool
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	lexOpts := []lexer.Option{lexer.WithTrivia()}
	if cfg.filename != "" {
		lexOpts = append(lexOpts, lexer.WithFilename(cfg.filename))
	}
	if cfg.limits != (lexer.Limits{}) {
		lexOpts = append(lexOpts, lexer.WithLimits(cfg.limits))
	}
	if cfg.security != nil {
		lexOpts = append(lexOpts, lexer.WithSecurity(*cfg.security))
	}

	p := &Parser{
		lx:        lexer.New(input, lexOpts...),
		filename:  cfg.filename,
		maxDepth:  cfg.maxDepth,
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseBlockLiteral)
	p.registerPrefix(lexer.IF, p.parseIfExpr)
	p.registerPrefix(lexer.WHILE, p.parseWhileExpr)
	p.registerPrefix(lexer.FOR, p.parseForExpr)
	p.registerPrefix(lexer.MATCH, p.parseMatchExpr)

	p.registerInfix(lexer.ASSIGN, p.parseAssignExpr)
	p.registerInfix(lexer.DOTDOT, p.parseRangeExpr)
	p.registerInfix(lexer.PLUS, p.parseInfixExpr)
	p.registerInfix(lexer.MINUS, p.parseInfixExpr)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpr)
	p.registerInfix(lexer.SLASH, p.parseInfixExpr)
	p.registerInfix(lexer.PERCENT, p.parseInfixExpr)
	p.registerInfix(lexer.AND, p.parseInfixExpr)
	p.registerInfix(lexer.OR, p.parseInfixExpr)
	p.registerInfix(lexer.EQ, p.parseInfixExpr)
	p.registerInfix(lexer.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(lexer.LT, p.parseInfixExpr)
	p.registerInfix(lexer.LE, p.parseInfixExpr)
	p.registerInfix(lexer.GT, p.parseInfixExpr)
	p.registerInfix(lexer.GE, p.parseInfixExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpr)
	p.registerInfix(lexer.DOT, p.parseFieldExpr)
	p.registerInfix(lexer.COLONCOLON, p.parsePathExpr)
	p.registerInfix(lexer.QUESTION, p.parseTryExpr)

	// Seed curTok/peekTok.
	p.nextToken()
	p.nextToken()

	return p
}

// Errors returns all recoverable parse errors that were encountered.
func (p *Parser) Errors() []ParseError {
	return p.errors
}

// Diagnostics returns lexer and parser diagnostics in source order: lexical
// problems first, then syntactic ones.
func (p *Parser) Diagnostics() []diag.Diagnostic {
	ds := p.lx.Diagnostics()
	for _, e := range p.errors {
		ds = append(ds, e.ToDiagnostic())
	}
	return ds
}

// nextToken advances the token window, skipping trivia. Doc comments are
// collected into pendingDoc instead of being discarded so declarations can
// claim them.
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	for {
		tok := p.lx.NextToken()
		switch tok.Type {
		case lexer.DOC_COMMENT:
			p.pendingDoc = append(p.pendingDoc, docText(tok.Raw))
			continue
		case lexer.WHITESPACE, lexer.NEWLINE, lexer.LINE_COMMENT, lexer.BLOCK_COMMENT:
			continue
		}
		p.peekTok = tok
		return
	}
}

// takeDoc claims and clears pending doc comment text.
func (p *Parser) takeDoc() string {
	if len(p.pendingDoc) == 0 {
		return ""
	}
	doc := ""
	for i, line := range p.pendingDoc {
		if i > 0 {
			doc += "\n"
		}
		doc += line
	}
	p.pendingDoc = nil
	return doc
}

// expect asserts that the peek token matches the provided type, promoting it
// into curTok on success. expect never rewinds.
func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.peekTok.Type == tt {
		p.nextToken()
		return true
	}
	p.reportErrorCode(diag.CodeParseMissingToken,
		"expected '"+string(tt)+"', found '"+string(p.peekTok.Type)+"'", p.peekTok.Span)
	return false
}

func (p *Parser) reportErrorCode(code diag.Code, msg string, span lexer.Span) {
	p.errors = append(p.errors, ParseError{
		Code:     code,
		Message:  msg,
		Span:     p.spanWithFilename(span),
		Severity: diag.SeverityError,
	})
}

func (p *Parser) reportError(msg string, span lexer.Span) {
	p.reportErrorCode(diag.CodeParseUnexpectedToken, msg, span)
}

func (p *Parser) spanWithFilename(span lexer.Span) lexer.Span {
	if span.Filename == "" && p.filename != "" {
		span.Filename = p.filename
	}
	return span
}

// enter guards recursion depth. It returns false once the limit is hit, at
// which point exactly one recursion-limit diagnostic has been recorded.
func (p *Parser) enter() bool {
	if p.depth >= p.maxDepth {
		if !p.depthHit {
			p.depthHit = true
			p.reportErrorCode(diag.CodeParseRecursionLimit,
				"nesting too deep while parsing", p.curTok.Span)
		}
		return false
	}
	p.depth++
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// finish assigns the node its identity and span and returns it.
func finish[T ast.Node](p *Parser, n T, span lexer.Span) T {
	p.nextID++
	n.SetID(p.nextID)
	n.SetSpan(p.spanWithFilename(span))
	return n
}

// errorExpr produces a placeholder expression spanning the current token.
func (p *Parser) errorExpr(span lexer.Span) ast.Expr {
	return finish(p, &ast.ErrorExpr{}, span)
}

func (p *Parser) registerPrefix(tt lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tt] = fn
}

func (p *Parser) registerInfix(tt lexer.TokenType, fn infixParseFn) {
	p.infixFns[tt] = fn
}

func (p *Parser) peekPrecedence() int {
	return precedences[p.peekTok.Type]
}

func sameTokenPosition(a, b lexer.Token) bool {
	return a.Type == b.Type && a.Span.Start == b.Span.Start && a.Span.End == b.Span.End
}

func isTopLevelDeclStart(tt lexer.TokenType) bool {
	switch tt {
	case lexer.FN, lexer.STRUCT, lexer.ENUM:
		return true
	default:
		return false
	}
}

// recoverDecl skips tokens until a plausible declaration boundary.
func (p *Parser) recoverDecl(prev lexer.Token) {
	if p.curTok.Type == lexer.EOF {
		return
	}
	if sameTokenPosition(p.curTok, prev) {
		p.nextToken()
	}
	for p.curTok.Type != lexer.EOF {
		switch p.curTok.Type {
		case lexer.SEMICOLON:
			p.nextToken()
			return
		case lexer.RBRACE:
			p.nextToken()
			return
		default:
			if isTopLevelDeclStart(p.curTok.Type) {
				return
			}
		}
		p.nextToken()
	}
}

// recoverStmt skips tokens until a statement boundary inside a block.
func (p *Parser) recoverStmt(prev lexer.Token) {
	if sameTokenPosition(p.curTok, prev) && p.curTok.Type != lexer.EOF {
		p.nextToken()
	}
	for p.curTok.Type != lexer.EOF {
		switch p.curTok.Type {
		case lexer.SEMICOLON:
			p.nextToken()
			return
		case lexer.RBRACE:
			return
		case lexer.LET, lexer.RETURN, lexer.BREAK, lexer.CONTINUE:
			return
		}
		p.nextToken()
	}
}

// mergeSpan returns a span covering both arguments. Callers pass the
// earliest span first so node spans grow monotonically.
func mergeSpan(start, end lexer.Span) lexer.Span {
	span := start
	if span.Filename == "" {
		span.Filename = end.Filename
	}
	if span.Line == 0 && end.Line != 0 {
		span.Line = end.Line
		span.Column = end.Column
		span.Start = end.Start
	}
	if end.End > span.End {
		span.End = end.End
	}
	return span
}

// docText strips comment markers from a doc comment's raw text.
func docText(raw string) string {
	switch {
	case len(raw) >= 3 && raw[:3] == "///":
		return trimDocLine(raw[3:])
	case len(raw) >= 4 && raw[:3] == "/**":
		body := raw[3:]
		if len(body) >= 2 && body[len(body)-2:] == "*/" {
			body = body[:len(body)-2]
		}
		return trimDocLine(body)
	default:
		return raw
	}
}

func trimDocLine(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t' || s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
