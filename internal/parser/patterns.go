package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// parsePattern parses a match pattern with curTok at its first token. On
// success curTok is the pattern's final token.
//
// Or-patterns are parsed at this level: 1 | 2 | 3. Alternatives may not
// bind names, since the arm body could otherwise see an unbound variable
// depending on which alternative matched.
func (p *Parser) parsePattern() ast.Pattern {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	first := p.parseSimplePattern()
	if first == nil {
		return nil
	}
	if p.peekTok.Type != lexer.PIPE {
		return first
	}

	alts := []ast.Pattern{first}
	for p.peekTok.Type == lexer.PIPE {
		p.nextToken() // move to '|'
		p.nextToken() // move to next alternative
		alt := p.parseSimplePattern()
		if alt == nil {
			return nil
		}
		alts = append(alts, alt)
	}

	for _, alt := range alts {
		if binding, ok := alt.(*ast.BindingPattern); ok {
			p.reportErrorCode(diag.CodeParseInvalidPattern,
				"or-pattern alternative cannot bind '"+binding.Name.Name+"'", binding.Span())
		}
	}

	return finish(p, &ast.OrPattern{Alts: alts},
		mergeSpan(first.Span(), alts[len(alts)-1].Span()))
}

func (p *Parser) parseSimplePattern() ast.Pattern {
	switch p.curTok.Type {
	case lexer.UNDERSCORE:
		return finish(p, &ast.WildcardPattern{}, p.curTok.Span)

	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.TRUE, lexer.FALSE:
		return p.parseLiteralPattern()

	case lexer.MINUS:
		return p.parseNegatedLiteralPattern()

	case lexer.IDENT:
		return p.parseNamePattern()

	case lexer.LPAREN:
		return p.parseTuplePattern()

	case lexer.LBRACKET:
		return p.parseArrayPattern()

	default:
		p.reportErrorCode(diag.CodeParseInvalidPattern,
			"unexpected token in pattern '"+string(p.curTok.Type)+"'", p.curTok.Span)
		return nil
	}
}

func (p *Parser) parseLiteralPattern() ast.Pattern {
	var lit ast.Expr
	switch p.curTok.Type {
	case lexer.INT:
		lit = p.parseIntegerLiteral()
	case lexer.FLOAT:
		lit = p.parseFloatLiteral()
	case lexer.STRING:
		lit = p.parseStringLiteral()
	case lexer.TRUE, lexer.FALSE:
		lit = p.parseBoolLiteral()
	}
	return finish(p, &ast.LiteralPattern{Lit: lit}, lit.Span())
}

func (p *Parser) parseNegatedLiteralPattern() ast.Pattern {
	start := p.curTok.Span

	if p.peekTok.Type != lexer.INT && p.peekTok.Type != lexer.FLOAT {
		p.reportErrorCode(diag.CodeParseInvalidPattern,
			"'-' in pattern must be followed by a numeric literal", p.peekTok.Span)
		return nil
	}
	p.nextToken()

	var inner ast.Expr
	if p.curTok.Type == lexer.INT {
		inner = p.parseIntegerLiteral()
	} else {
		inner = p.parseFloatLiteral()
	}

	span := mergeSpan(start, inner.Span())
	neg := finish(p, &ast.PrefixExpr{Op: lexer.MINUS, Expr: inner}, span)
	return finish(p, &ast.LiteralPattern{Lit: neg}, span)
}

// parseNamePattern disambiguates bindings from variant patterns: a path
// (Option::Some) or a capitalized name (None) is a variant reference, a
// lowercase bare identifier binds.
func (p *Parser) parseNamePattern() ast.Pattern {
	start := p.curTok.Span
	first := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	path := []*ast.Ident{first}
	for p.peekTok.Type == lexer.COLONCOLON {
		p.nextToken() // move to '::'
		if !p.expect(lexer.IDENT) {
			return nil
		}
		path = append(path, finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span))
	}

	if len(path) == 1 && p.peekTok.Type != lexer.LPAREN && !startsUpper(first.Name) {
		return finish(p, &ast.BindingPattern{Name: first}, start)
	}

	var elems []ast.Pattern
	if p.peekTok.Type == lexer.LPAREN {
		p.nextToken() // move to '('
		p.nextToken() // move to first element

		var ok bool
		elems, ok = parseDelimited[ast.Pattern](p, delimitedConfig{
			Closing:             lexer.RPAREN,
			MissingElementMsg:   "expected pattern in variant payload",
			MissingSeparatorMsg: "expected ',' or ')' in variant pattern",
		}, func(int) (ast.Pattern, bool) {
			elem := p.parsePattern()
			return elem, elem != nil
		})
		if !ok {
			return nil
		}
	}

	return finish(p, &ast.VariantPattern{Path: path, Elems: elems},
		mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseTuplePattern() ast.Pattern {
	start := p.curTok.Span
	p.nextToken() // move past '('

	elems, ok := parseDelimited[ast.Pattern](p, delimitedConfig{
		Closing:             lexer.RPAREN,
		MissingElementMsg:   "expected pattern in tuple",
		MissingSeparatorMsg: "expected ',' or ')' in tuple pattern",
	}, func(int) (ast.Pattern, bool) {
		elem := p.parsePattern()
		return elem, elem != nil
	})
	if !ok {
		return nil
	}

	return finish(p, &ast.TuplePattern{Elems: elems}, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	start := p.curTok.Span
	p.nextToken() // move past '['

	elems, ok := parseDelimited[ast.Pattern](p, delimitedConfig{
		Closing:             lexer.RBRACKET,
		AllowEmpty:          true,
		MissingElementMsg:   "expected pattern in array",
		MissingSeparatorMsg: "expected ',' or ']' in array pattern",
	}, func(int) (ast.Pattern, bool) {
		elem := p.parsePattern()
		return elem, elem != nil
	})
	if !ok {
		return nil
	}

	return finish(p, &ast.ArrayPattern{Elems: elems}, mergeSpan(start, p.curTok.Span))
}

func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
