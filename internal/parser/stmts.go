package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// parseBlockExpr parses { stmt* [tail] } with curTok on '{'. A final
// expression without a semicolon becomes the block's tail; block-shaped
// expressions (if, while, for, match, block) may stand alone as statements
// without one. On success curTok is the closing '}'.
func (p *Parser) parseBlockExpr() *ast.BlockExpr {
	start := p.curTok.Span

	if p.curTok.Type != lexer.LBRACE {
		p.reportError("expected '{' to start block", p.curTok.Span)
		return nil
	}
	if !p.enter() {
		return nil
	}
	defer p.leave()

	block := &ast.BlockExpr{}
	saved := p.noStructLit
	p.noStructLit = false

	p.nextToken()

	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF {
		prevTok := p.curTok

		switch p.curTok.Type {
		case lexer.LET:
			if stmt := p.parseLetStmt(); stmt != nil {
				block.Stmts = append(block.Stmts, stmt)
				continue
			}
		case lexer.RETURN:
			if stmt := p.parseReturnStmt(); stmt != nil {
				block.Stmts = append(block.Stmts, stmt)
				continue
			}
		case lexer.BREAK:
			if stmt := p.parseLoopCtrlStmt(); stmt != nil {
				block.Stmts = append(block.Stmts, stmt)
				continue
			}
		case lexer.CONTINUE:
			if stmt := p.parseLoopCtrlStmt(); stmt != nil {
				block.Stmts = append(block.Stmts, stmt)
				continue
			}
		default:
			expr := p.parseExpr()
			if expr != nil {
				if done := p.placeExprInBlock(block, expr); done {
					p.noStructLit = saved
					block.SetSpan(p.spanWithFilename(mergeSpan(start, p.curTok.Span)))
					return finishBlock(p, block)
				}
				continue
			}
		}

		p.recoverStmt(prevTok)
	}

	p.noStructLit = saved

	if p.curTok.Type != lexer.RBRACE {
		p.reportError("expected '}' to close block", p.curTok.Span)
	}

	block.SetSpan(p.spanWithFilename(mergeSpan(start, p.curTok.Span)))
	return finishBlock(p, block)
}

// finishBlock assigns identity to a block whose span is already set.
func finishBlock(p *Parser, block *ast.BlockExpr) *ast.BlockExpr {
	p.nextID++
	block.SetID(p.nextID)
	return block
}

// placeExprInBlock decides whether a parsed expression is a terminated
// statement, a standalone block-shaped statement, or the block tail. It
// returns true when the block is complete (curTok on '}').
func (p *Parser) placeExprInBlock(block *ast.BlockExpr, expr ast.Expr) bool {
	switch p.peekTok.Type {
	case lexer.SEMICOLON:
		p.nextToken() // move to ';'
		stmt := finish(p, &ast.ExprStmt{Expr: expr, Semicolon: true},
			mergeSpan(expr.Span(), p.curTok.Span))
		block.Stmts = append(block.Stmts, stmt)
		p.nextToken() // move past ';'
		return false

	case lexer.RBRACE:
		block.Tail = expr
		p.nextToken() // move to '}'
		return true

	default:
		if isBlockShaped(expr) {
			stmt := finish(p, &ast.ExprStmt{Expr: expr}, expr.Span())
			block.Stmts = append(block.Stmts, stmt)
			p.nextToken()
			return false
		}
		p.reportError("expected ';' after expression", p.peekTok.Span)
		p.nextToken()
		return false
	}
}

// isBlockShaped reports whether the expression carries its own braces and
// may appear in statement position without a semicolon.
func isBlockShaped(expr ast.Expr) bool {
	switch expr.(type) {
	case *ast.IfExpr, *ast.WhileExpr, *ast.ForExpr, *ast.MatchExpr, *ast.BlockExpr:
		return true
	default:
		return false
	}
}

// parseLetStmt parses let [mut] name [: Type] = value; with curTok on
// 'let'. On success curTok is the token after ';'.
func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.curTok.Span

	mutable := false
	if p.peekTok.Type == lexer.MUT {
		p.nextToken()
		mutable = true
	}

	if !p.expect(lexer.IDENT) {
		return nil
	}
	name := finish(p, &ast.Ident{Name: p.curTok.Value}, p.curTok.Span)

	var typ ast.TypeExpr
	if p.peekTok.Type == lexer.COLON {
		p.nextToken() // move to ':'
		p.nextToken() // move to type start

		if !isTypeStart(p.curTok.Type) {
			p.reportError("expected type after ':' in let binding '"+name.Name+"'", p.curTok.Span)
			return nil
		}
		typ = p.parseType()
		if typ == nil {
			return nil
		}
	}

	if !p.expect(lexer.ASSIGN) {
		return nil
	}
	p.nextToken() // move to value start

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	span := mergeSpan(start, p.curTok.Span)
	p.nextToken() // move past ';'

	return finish(p, &ast.LetStmt{Mutable: mutable, Name: name, Type: typ, Value: value}, span)
}

// parseReturnStmt parses return [value]; with curTok on 'return'.
func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.curTok.Span

	if p.peekTok.Type == lexer.SEMICOLON {
		p.nextToken() // move to ';'
		span := mergeSpan(start, p.curTok.Span)
		p.nextToken() // move past ';'
		return finish(p, &ast.ReturnStmt{}, span)
	}

	p.nextToken() // move to value start

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	span := mergeSpan(start, p.curTok.Span)
	p.nextToken() // move past ';'

	return finish(p, &ast.ReturnStmt{Value: value}, span)
}

// parseLoopCtrlStmt parses break; or continue;.
func (p *Parser) parseLoopCtrlStmt() ast.Stmt {
	start := p.curTok.Span
	isBreak := p.curTok.Type == lexer.BREAK

	if !p.expect(lexer.SEMICOLON) {
		return nil
	}
	span := mergeSpan(start, p.curTok.Span)
	p.nextToken() // move past ';'

	if isBreak {
		return finish(p, &ast.BreakStmt{}, span)
	}
	return finish(p, &ast.ContinueStmt{}, span)
}
