package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// parseType parses a type expression with curTok at its first token. On
// success curTok is the type's final token.
func (p *Parser) parseType() ast.TypeExpr {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	switch p.curTok.Type {
	case lexer.IDENT:
		return p.parseNamedType()
	case lexer.UNDERSCORE:
		return finish(p, &ast.InferType{}, p.curTok.Span)
	case lexer.LBRACKET:
		return p.parseArrayType()
	case lexer.FN:
		return p.parseFnType()
	default:
		p.reportError("expected type expression, found '"+string(p.curTok.Type)+"'", p.curTok.Span)
		return nil
	}
}

func isTypeStart(tt lexer.TokenType) bool {
	switch tt {
	case lexer.IDENT, lexer.UNDERSCORE, lexer.LBRACKET, lexer.FN:
		return true
	default:
		return false
	}
}

// parseNamedType parses Name or Name<Arg, ...>. In type position '<' is
// unambiguous because no expression grammar applies.
func (p *Parser) parseNamedType() ast.TypeExpr {
	start := p.curTok.Span
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var args []ast.TypeExpr
	if p.peekTok.Type == lexer.LT {
		p.nextToken() // move to '<'
		p.nextToken() // move to first argument

		var ok bool
		args, ok = parseDelimited[ast.TypeExpr](p, delimitedConfig{
			Closing:             lexer.GT,
			MissingElementMsg:   "expected type in generic argument list",
			MissingSeparatorMsg: "expected ',' or '>' in generic argument list",
		}, func(int) (ast.TypeExpr, bool) {
			arg := p.parseType()
			return arg, arg != nil
		})
		if !ok {
			return nil
		}
	}

	return finish(p, &ast.NamedType{Name: name, Args: args}, mergeSpan(start, p.curTok.Span))
}

// parseArrayType parses [Elem].
func (p *Parser) parseArrayType() ast.TypeExpr {
	start := p.curTok.Span
	p.nextToken() // move past '['

	elem := p.parseType()
	if elem == nil {
		return nil
	}
	if !p.expect(lexer.RBRACKET) {
		return nil
	}

	return finish(p, &ast.ArrayType{Elem: elem}, mergeSpan(start, p.curTok.Span))
}

// parseFnType parses fn(A, B) -> R in type position.
func (p *Parser) parseFnType() ast.TypeExpr {
	start := p.curTok.Span

	if !p.expect(lexer.LPAREN) {
		return nil
	}
	p.nextToken() // move past '('

	params, ok := parseDelimited[ast.TypeExpr](p, delimitedConfig{
		Closing:             lexer.RPAREN,
		AllowEmpty:          true,
		MissingElementMsg:   "expected type in function type",
		MissingSeparatorMsg: "expected ',' or ')' in function type",
	}, func(int) (ast.TypeExpr, bool) {
		param := p.parseType()
		return param, param != nil
	})
	if !ok {
		return nil
	}

	var ret ast.TypeExpr
	if p.peekTok.Type == lexer.ARROW {
		p.nextToken() // move to '->'
		p.nextToken() // move to return type start
		ret = p.parseType()
		if ret == nil {
			return nil
		}
	}

	return finish(p, &ast.FnType{Params: params, Return: ret}, mergeSpan(start, p.curTok.Span))
}
