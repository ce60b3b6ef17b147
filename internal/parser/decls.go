package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// ParseFile parses a full compilation unit and returns its AST. The file is
// always non-nil; recoverable errors are accumulated and the tree is kept
// structurally complete so later stages can still run.
func (p *Parser) ParseFile() *ast.File {
	start := p.curTok.Span
	file := &ast.File{Filename: p.filename}

	for p.curTok.Type != lexer.EOF {
		prevTok := p.curTok
		decl := p.parseDecl()
		if decl != nil {
			file.Decls = append(file.Decls, decl)
			continue
		}
		if p.curTok.Type == lexer.EOF {
			break
		}
		p.recoverDecl(prevTok)
	}

	return finish(p, file, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseDecl() ast.Decl {
	switch p.curTok.Type {
	case lexer.FN:
		return p.parseFnDecl()
	case lexer.STRUCT:
		return p.parseStructDecl()
	case lexer.ENUM:
		return p.parseEnumDecl()
	default:
		p.reportError("expected declaration, found '"+string(p.curTok.Type)+"'", p.curTok.Span)
		return nil
	}
}

// parseFnDecl parses
//
//	fn name<T: Bound, U>(x: T, y) -> U where T: Other { ... }
//
// Type parameter bounds may appear inline, in the where clause, or both;
// they are merged onto the declared parameter.
func (p *Parser) parseFnDecl() ast.Decl {
	start := p.curTok.Span
	doc := p.takeDoc()

	if !p.expect(lexer.IDENT) {
		return nil
	}
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var typeParams []*ast.TypeParam
	if p.peekTok.Type == lexer.LT {
		typeParams = p.parseTypeParams()
		if typeParams == nil {
			return nil
		}
	}

	if !p.expect(lexer.LPAREN) {
		return nil
	}
	p.nextToken() // move past '('

	params, ok := parseDelimited[*ast.Param](p, delimitedConfig{
		Closing:             lexer.RPAREN,
		AllowEmpty:          true,
		AllowTrailing:       true,
		MissingElementMsg:   "expected parameter",
		MissingSeparatorMsg: "expected ',' or ')' in parameter list",
	}, func(int) (*ast.Param, bool) {
		return p.parseParam()
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

	if p.peekTok.Type == lexer.WHERE {
		p.nextToken()
		if !p.parseWhereClause(typeParams) {
			return nil
		}
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()

	span := mergeSpan(start, p.curTok.Span)
	p.nextToken() // move past '}'

	return finish(p, &ast.FnDecl{
		Doc:        doc,
		Name:       name,
		TypeParams: typeParams,
		Params:     params,
		ReturnType: ret,
		Body:       body,
	}, span)
}

// parseParam parses name[: Type]. A missing annotation leaves Type nil and
// the parameter types as unknown during inference.
func (p *Parser) parseParam() (*ast.Param, bool) {
	if p.curTok.Type != lexer.IDENT {
		p.reportError("expected parameter name", p.curTok.Span)
		return nil, false
	}
	start := p.curTok.Span
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var typ ast.TypeExpr
	if p.peekTok.Type == lexer.COLON {
		p.nextToken() // move to ':'
		p.nextToken() // move to type start
		typ = p.parseType()
		if typ == nil {
			return nil, false
		}
	}

	return finish(p, &ast.Param{Name: name, Type: typ}, mergeSpan(start, p.curTok.Span)), true
}

// parseTypeParams parses <T, U: Bound + Bound>. On entry peekTok is '<'; on
// success curTok is '>'.
func (p *Parser) parseTypeParams() []*ast.TypeParam {
	p.nextToken() // move to '<'
	p.nextToken() // move to first parameter

	params, ok := parseDelimited[*ast.TypeParam](p, delimitedConfig{
		Closing:             lexer.GT,
		MissingElementMsg:   "expected type parameter",
		MissingSeparatorMsg: "expected ',' or '>' in type parameter list",
	}, func(int) (*ast.TypeParam, bool) {
		return p.parseTypeParam()
	})
	if !ok {
		return nil
	}
	if len(params) == 0 {
		p.reportError("type parameter list cannot be empty", p.curTok.Span)
		return nil
	}
	return params
}

func (p *Parser) parseTypeParam() (*ast.TypeParam, bool) {
	if p.curTok.Type != lexer.IDENT {
		p.reportError("expected type parameter name", p.curTok.Span)
		return nil, false
	}
	start := p.curTok.Span
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var bounds []*ast.Ident
	if p.peekTok.Type == lexer.COLON {
		p.nextToken() // move to ':'
		var ok bool
		bounds, ok = p.parseBoundList()
		if !ok {
			return nil, false
		}
	}

	return finish(p, &ast.TypeParam{Name: name, Bounds: bounds}, mergeSpan(start, p.curTok.Span)), true
}

// parseBoundList parses Bound + Bound + ... On entry curTok is ':'; on
// success curTok is the last bound.
func (p *Parser) parseBoundList() ([]*ast.Ident, bool) {
	var bounds []*ast.Ident
	for {
		if !p.expect(lexer.IDENT) {
			return nil, false
		}
		bounds = append(bounds, finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span))
		if p.peekTok.Type != lexer.PLUS {
			return bounds, true
		}
		p.nextToken() // move to '+'
	}
}

// parseWhereClause parses where T: Bound, U: Bound + Bound and merges the
// bounds onto the declared type parameters. On entry curTok is 'where'.
func (p *Parser) parseWhereClause(typeParams []*ast.TypeParam) bool {
	for {
		if !p.expect(lexer.IDENT) {
			return false
		}
		nameTok := p.curTok

		var target *ast.TypeParam
		for _, tp := range typeParams {
			if tp.Name.Name == nameTok.Value {
				target = tp
				break
			}
		}
		if target == nil {
			p.reportError("where clause names undeclared type parameter '"+nameTok.Value+"'", nameTok.Span)
		}

		if !p.expect(lexer.COLON) {
			return false
		}
		bounds, ok := p.parseBoundList()
		if !ok {
			return false
		}
		if target != nil {
			target.Bounds = append(target.Bounds, bounds...)
		}

		if p.peekTok.Type != lexer.COMMA {
			return true
		}
		p.nextToken() // move to ','
	}
}

// parseStructDecl parses struct Name<T> { field: Type, ... }.
func (p *Parser) parseStructDecl() ast.Decl {
	start := p.curTok.Span
	doc := p.takeDoc()

	if !p.expect(lexer.IDENT) {
		return nil
	}
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var typeParams []*ast.TypeParam
	if p.peekTok.Type == lexer.LT {
		typeParams = p.parseTypeParams()
		if typeParams == nil {
			return nil
		}
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	p.nextToken() // move past '{'

	fields, ok := parseDelimited[*ast.FieldDef](p, delimitedConfig{
		Closing:             lexer.RBRACE,
		AllowEmpty:          true,
		AllowTrailing:       true,
		MissingElementMsg:   "expected field declaration",
		MissingSeparatorMsg: "expected ',' or '}' in struct body",
	}, func(int) (*ast.FieldDef, bool) {
		return p.parseFieldDef()
	})
	if !ok {
		return nil
	}

	span := mergeSpan(start, p.curTok.Span)
	p.nextToken() // move past '}'

	return finish(p, &ast.StructDecl{
		Doc:        doc,
		Name:       name,
		TypeParams: typeParams,
		Fields:     fields,
	}, span)
}

func (p *Parser) parseFieldDef() (*ast.FieldDef, bool) {
	if p.curTok.Type != lexer.IDENT {
		p.reportError("expected field name", p.curTok.Span)
		return nil, false
	}
	start := p.curTok.Span
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	if !p.expect(lexer.COLON) {
		return nil, false
	}
	p.nextToken() // move to type start

	typ := p.parseType()
	if typ == nil {
		return nil, false
	}

	return finish(p, &ast.FieldDef{Name: name, Type: typ}, mergeSpan(start, p.curTok.Span)), true
}

// parseEnumDecl parses enum Name<T> { Variant, Variant(Type, ...), ... }.
func (p *Parser) parseEnumDecl() ast.Decl {
	start := p.curTok.Span
	doc := p.takeDoc()

	if !p.expect(lexer.IDENT) {
		return nil
	}
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var typeParams []*ast.TypeParam
	if p.peekTok.Type == lexer.LT {
		typeParams = p.parseTypeParams()
		if typeParams == nil {
			return nil
		}
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	p.nextToken() // move past '{'

	variants, ok := parseDelimited[*ast.VariantDef](p, delimitedConfig{
		Closing:             lexer.RBRACE,
		AllowEmpty:          true,
		AllowTrailing:       true,
		MissingElementMsg:   "expected enum variant",
		MissingSeparatorMsg: "expected ',' or '}' in enum body",
	}, func(int) (*ast.VariantDef, bool) {
		return p.parseVariantDef()
	})
	if !ok {
		return nil
	}

	span := mergeSpan(start, p.curTok.Span)
	p.nextToken() // move past '}'

	return finish(p, &ast.EnumDecl{
		Doc:        doc,
		Name:       name,
		TypeParams: typeParams,
		Variants:   variants,
	}, span)
}

func (p *Parser) parseVariantDef() (*ast.VariantDef, bool) {
	if p.curTok.Type != lexer.IDENT {
		p.reportError("expected variant name", p.curTok.Span)
		return nil, false
	}
	start := p.curTok.Span
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var fields []ast.TypeExpr
	if p.peekTok.Type == lexer.LPAREN {
		p.nextToken() // move to '('
		p.nextToken() // move to first payload type

		var ok bool
		fields, ok = parseDelimited[ast.TypeExpr](p, delimitedConfig{
			Closing:             lexer.RPAREN,
			MissingElementMsg:   "expected type in variant payload",
			MissingSeparatorMsg: "expected ',' or ')' in variant payload",
		}, func(int) (ast.TypeExpr, bool) {
			typ := p.parseType()
			return typ, typ != nil
		})
		if !ok {
			return nil, false
		}
	}

	return finish(p, &ast.VariantDef{Name: name, Fields: fields}, mergeSpan(start, p.curTok.Span)), true
}
