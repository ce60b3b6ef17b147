package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

func (p *Parser) parseExpr() ast.Expr {
	return p.parseExprPrecedence(precedenceLowest)
}

// parseExprNoStruct parses an expression with struct literals suppressed.
// Used for if/while/for/match headers where Ident { must leave the brace to
// the body block.
func (p *Parser) parseExprNoStruct() ast.Expr {
	saved := p.noStructLit
	p.noStructLit = true
	expr := p.parseExpr()
	p.noStructLit = saved
	return expr
}

// parseExprStructOK runs f with struct literals re-enabled, for nested
// contexts (parentheses, argument lists, struct literal values) inside a
// suppressed header.
func (p *Parser) parseExprStructOK(f func() ast.Expr) ast.Expr {
	saved := p.noStructLit
	p.noStructLit = false
	expr := f()
	p.noStructLit = saved
	return expr
}

func (p *Parser) parseExprPrecedence(precedence int) ast.Expr {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.reportError("unexpected token in expression '"+string(p.curTok.Type)+"'", p.curTok.Span)
		return nil
	}

	left := prefix()
	if left == nil {
		return nil
	}

	for p.peekTok.Type != lexer.SEMICOLON && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.Type]
		if infix == nil {
			break
		}

		p.nextToken()

		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parseIntegerLiteral() ast.Expr {
	return finish(p, &ast.IntegerLit{Text: p.curTok.Value}, p.curTok.Span)
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	return finish(p, &ast.FloatLit{Text: p.curTok.Value}, p.curTok.Span)
}

func (p *Parser) parseStringLiteral() ast.Expr {
	return finish(p, &ast.StringLit{Value: p.curTok.Value}, p.curTok.Span)
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	return finish(p, &ast.BoolLit{Value: p.curTok.Type == lexer.TRUE}, p.curTok.Span)
}

// parseIdentifier parses a bare identifier, or a struct literal when the
// identifier is immediately followed by '{' and the context permits.
func (p *Parser) parseIdentifier() ast.Expr {
	ident := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)
	if p.peekTok.Type == lexer.LBRACE && !p.noStructLit {
		return p.parseStructLit(ident)
	}
	return ident
}

// parseStructLit parses Name { field: value, ... } with curTok on the name.
func (p *Parser) parseStructLit(name *ast.Ident) ast.Expr {
	start := name.Span()
	p.nextToken() // move to '{'
	p.nextToken() // move past '{'

	fields, ok := parseDelimited[*ast.FieldInit](p, delimitedConfig{
		Closing:             lexer.RBRACE,
		AllowEmpty:          true,
		AllowTrailing:       true,
		MissingElementMsg:   "expected field initializer",
		MissingSeparatorMsg: "expected ',' or '}' in struct literal",
	}, func(int) (*ast.FieldInit, bool) {
		return p.parseFieldInit()
	})
	if !ok {
		return nil
	}

	return finish(p, &ast.StructLit{Name: name, Fields: fields}, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseFieldInit() (*ast.FieldInit, bool) {
	if p.curTok.Type != lexer.IDENT {
		p.reportError("expected field name in struct literal", p.curTok.Span)
		return nil, false
	}
	start := p.curTok.Span
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	if !p.expect(lexer.COLON) {
		return nil, false
	}
	p.nextToken() // move to value start

	value := p.parseExprStructOK(p.parseExpr)
	if value == nil {
		return nil, false
	}

	return finish(p, &ast.FieldInit{Name: name, Value: value}, mergeSpan(start, p.curTok.Span)), true
}

// parsePrefixExpr consumes the operator before recursing so precedencePrefix
// controls binding.
func (p *Parser) parsePrefixExpr() ast.Expr {
	opTok := p.curTok

	p.nextToken()

	right := p.parseExprPrecedence(precedencePrefix)
	if right == nil {
		return nil
	}

	return finish(p, &ast.PrefixExpr{Op: opTok.Type, Expr: right}, mergeSpan(opTok.Span, right.Span()))
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	opTok := p.curTok
	precedence := precedences[opTok.Type]

	p.nextToken()

	right := p.parseExprPrecedence(precedence)
	if right == nil {
		return nil
	}

	return finish(p, &ast.InfixExpr{Op: opTok.Type, Left: left, Right: right},
		mergeSpan(left.Span(), right.Span()))
}

// parseAssignExpr parses right-associatively: a = b = c is a = (b = c).
func (p *Parser) parseAssignExpr(left ast.Expr) ast.Expr {
	switch left.(type) {
	case *ast.Ident, *ast.IndexExpr, *ast.FieldExpr:
	default:
		p.reportError("invalid assignment target", left.Span())
	}

	p.nextToken()

	value := p.parseExprPrecedence(precedenceAssign - 1)
	if value == nil {
		return nil
	}

	return finish(p, &ast.AssignExpr{Target: left, Value: value},
		mergeSpan(left.Span(), value.Span()))
}

// parseRangeExpr parses the half-open range left..end.
func (p *Parser) parseRangeExpr(left ast.Expr) ast.Expr {
	p.nextToken()

	end := p.parseExprPrecedence(precedenceRange)
	if end == nil {
		return nil
	}

	return finish(p, &ast.RangeExpr{Start: left, End: end}, mergeSpan(left.Span(), end.Span()))
}

// parseGroupedExpr parses "(expr)" without a synthetic paren node; the
// sub-expression's span is widened to cover the parentheses.
func (p *Parser) parseGroupedExpr() ast.Expr {
	start := p.curTok.Span

	p.nextToken()

	expr := p.parseExprStructOK(p.parseExpr)
	if expr == nil {
		return nil
	}
	if !p.expect(lexer.RPAREN) {
		return nil
	}

	expr.SetSpan(p.spanWithFilename(mergeSpan(start, p.curTok.Span)))
	return expr
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	start := p.curTok.Span

	if p.peekTok.Type == lexer.RBRACKET {
		p.nextToken()
		return finish(p, &ast.ArrayLit{}, mergeSpan(start, p.curTok.Span))
	}
	p.nextToken() // move past '['

	elems, ok := parseDelimited[ast.Expr](p, delimitedConfig{
		Closing:             lexer.RBRACKET,
		AllowTrailing:       true,
		MissingElementMsg:   "expected expression in array literal",
		MissingSeparatorMsg: "expected ',' or ']' in array literal",
	}, func(int) (ast.Expr, bool) {
		elem := p.parseExprStructOK(p.parseExpr)
		return elem, elem != nil
	})
	if !ok {
		return nil
	}

	return finish(p, &ast.ArrayLit{Elems: elems}, mergeSpan(start, p.curTok.Span))
}

// parseCallExpr parses an argument list with curTok on '('. Generic calls
// look identical to ordinary calls; type arguments are always inferred.
func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
		return finish(p, &ast.CallExpr{Callee: callee}, mergeSpan(callee.Span(), p.curTok.Span))
	}
	p.nextToken() // move past '('

	args, ok := parseDelimited[ast.Expr](p, delimitedConfig{
		Closing:             lexer.RPAREN,
		AllowTrailing:       true,
		MissingElementMsg:   "expected argument",
		MissingSeparatorMsg: "expected ',' or ')' in argument list",
	}, func(int) (ast.Expr, bool) {
		arg := p.parseExprStructOK(p.parseExpr)
		return arg, arg != nil
	})
	if !ok {
		return nil
	}

	return finish(p, &ast.CallExpr{Callee: callee, Args: args}, mergeSpan(callee.Span(), p.curTok.Span))
}

func (p *Parser) parseIndexExpr(target ast.Expr) ast.Expr {
	p.nextToken() // move past '['

	index := p.parseExprStructOK(p.parseExpr)
	if index == nil {
		return nil
	}
	if !p.expect(lexer.RBRACKET) {
		return nil
	}

	return finish(p, &ast.IndexExpr{Target: target, Index: index},
		mergeSpan(target.Span(), p.curTok.Span))
}

func (p *Parser) parseFieldExpr(target ast.Expr) ast.Expr {
	if !p.expect(lexer.IDENT) {
		return nil
	}
	field := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	return finish(p, &ast.FieldExpr{Target: target, Field: field},
		mergeSpan(target.Span(), p.curTok.Span))
}

// parsePathExpr extends an identifier or path with another :: segment.
func (p *Parser) parsePathExpr(left ast.Expr) ast.Expr {
	var segments []*ast.Ident
	switch l := left.(type) {
	case *ast.Ident:
		segments = []*ast.Ident{l}
	case *ast.PathExpr:
		segments = l.Segments
	default:
		p.reportError("'::' must follow a path", left.Span())
		return nil
	}

	if !p.expect(lexer.IDENT) {
		return nil
	}
	segments = append(segments, finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span))

	return finish(p, &ast.PathExpr{Segments: segments}, mergeSpan(left.Span(), p.curTok.Span))
}

// parseTryExpr parses the postfix ? operator with curTok on '?'.
func (p *Parser) parseTryExpr(operand ast.Expr) ast.Expr {
	return finish(p, &ast.TryExpr{Expr: operand}, mergeSpan(operand.Span(), p.curTok.Span))
}

func (p *Parser) parseBlockLiteral() ast.Expr {
	return p.parseBlockExpr()
}

// parseIfExpr parses if cond { } [else if ... | else { }] with curTok on
// 'if'. Conditions suppress struct literals.
func (p *Parser) parseIfExpr() ast.Expr {
	start := p.curTok.Span

	p.nextToken()
	cond := p.parseExprNoStruct()
	if cond == nil {
		return nil
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	then := p.parseBlockExpr()
	if then == nil {
		return nil
	}

	var els ast.Expr
	if p.peekTok.Type == lexer.ELSE {
		p.nextToken() // move to 'else'
		switch p.peekTok.Type {
		case lexer.IF:
			p.nextToken()
			els = p.parseIfExpr()
		case lexer.LBRACE:
			p.nextToken()
			els = p.parseBlockExpr()
		default:
			p.reportError("expected 'if' or '{' after 'else'", p.peekTok.Span)
			return nil
		}
		if els == nil {
			return nil
		}
	}

	return finish(p, &ast.IfExpr{Cond: cond, Then: then, Else: els},
		mergeSpan(start, p.curTok.Span))
}

// parseWhileExpr parses while cond { } with curTok on 'while'.
func (p *Parser) parseWhileExpr() ast.Expr {
	start := p.curTok.Span

	p.nextToken()
	cond := p.parseExprNoStruct()
	if cond == nil {
		return nil
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	if body == nil {
		return nil
	}

	return finish(p, &ast.WhileExpr{Cond: cond, Body: body}, mergeSpan(start, p.curTok.Span))
}

// parseForExpr parses for name in iter { } with curTok on 'for'.
func (p *Parser) parseForExpr() ast.Expr {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return nil
	}
	loopVar := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	if !p.expect(lexer.IN) {
		return nil
	}
	p.nextToken() // move to iterable start

	iter := p.parseExprNoStruct()
	if iter == nil {
		return nil
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	if body == nil {
		return nil
	}

	return finish(p, &ast.ForExpr{Var: loopVar, Iter: iter, Body: body},
		mergeSpan(start, p.curTok.Span))
}

// parseMatchExpr parses match subject { pattern [if guard] => body, ... }
// with curTok on 'match'. Guards are ordinary expressions evaluated after
// the pattern matches; they are preserved on the arm, never folded into the
// pattern.
func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.curTok.Span

	p.nextToken()
	subject := p.parseExprNoStruct()
	if subject == nil {
		return nil
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	p.nextToken() // move past '{'

	var arms []*ast.MatchArm
	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF {
		arm := p.parseMatchArm()
		if arm == nil {
			return nil
		}
		arms = append(arms, arm)

		switch p.peekTok.Type {
		case lexer.COMMA:
			p.nextToken() // move to ','
			p.nextToken() // move to next arm or '}'
		case lexer.RBRACE:
			p.nextToken()
		default:
			p.reportError("expected ',' or '}' after match arm", p.peekTok.Span)
			return nil
		}
	}

	if p.curTok.Type != lexer.RBRACE {
		p.reportError("expected '}' to close match expression", p.curTok.Span)
		return nil
	}

	return finish(p, &ast.MatchExpr{Subject: subject, Arms: arms}, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	start := p.curTok.Span

	pattern := p.parsePattern()
	if pattern == nil {
		return nil
	}

	var guard ast.Expr
	if p.peekTok.Type == lexer.IF {
		p.nextToken() // move to 'if'
		p.nextToken() // move to guard start
		guard = p.parseExprNoStruct()
		if guard == nil {
			return nil
		}
	}

	if !p.expect(lexer.FATARROW) {
		return nil
	}
	p.nextToken() // move to body start

	body := p.parseExprStructOK(p.parseExpr)
	if body == nil {
		return nil
	}

	return finish(p, &ast.MatchArm{Pattern: pattern, Guard: guard, Body: body},
		mergeSpan(start, body.Span()))
}
