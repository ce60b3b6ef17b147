package ast

import (
	"fmt"
	"strings"
)

// Print renders a file back to canonical source form. The output is for
// tests, debugging, and golden comparisons: stable formatting, one
// declaration per blank-line separated block, no preserved trivia.
func Print(f *File) string {
	var p printer
	for i, d := range f.Decls {
		if i > 0 {
			p.sb.WriteString("\n")
		}
		p.decl(d)
	}
	return p.sb.String()
}

// PrintExpr renders a single expression.
func PrintExpr(e Expr) string {
	var p printer
	p.expr(e)
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) ws() {
	p.sb.WriteString(strings.Repeat("    ", p.indent))
}

func (p *printer) typeParams(tps []*TypeParam) {
	if len(tps) == 0 {
		return
	}
	p.sb.WriteString("<")
	for i, tp := range tps {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString(tp.Name.Name)
		for j, b := range tp.Bounds {
			if j == 0 {
				p.sb.WriteString(": ")
			} else {
				p.sb.WriteString(" + ")
			}
			p.sb.WriteString(b.Name)
		}
	}
	p.sb.WriteString(">")
}

func (p *printer) decl(d Decl) {
	switch d := d.(type) {
	case *FnDecl:
		p.ws()
		p.sb.WriteString("fn ")
		p.sb.WriteString(d.Name.Name)
		p.typeParams(d.TypeParams)
		p.sb.WriteString("(")
		for i, param := range d.Params {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(param.Name.Name)
			if param.Type != nil {
				p.sb.WriteString(": ")
				p.typeExpr(param.Type)
			}
		}
		p.sb.WriteString(")")
		if d.ReturnType != nil {
			p.sb.WriteString(" -> ")
			p.typeExpr(d.ReturnType)
		}
		p.sb.WriteString(" ")
		p.block(d.Body)
		p.sb.WriteString("\n")

	case *StructDecl:
		p.ws()
		p.sb.WriteString("struct ")
		p.sb.WriteString(d.Name.Name)
		p.typeParams(d.TypeParams)
		p.sb.WriteString(" {\n")
		p.indent++
		for _, f := range d.Fields {
			p.ws()
			p.sb.WriteString(f.Name.Name)
			p.sb.WriteString(": ")
			p.typeExpr(f.Type)
			p.sb.WriteString(",\n")
		}
		p.indent--
		p.ws()
		p.sb.WriteString("}\n")

	case *EnumDecl:
		p.ws()
		p.sb.WriteString("enum ")
		p.sb.WriteString(d.Name.Name)
		p.typeParams(d.TypeParams)
		p.sb.WriteString(" {\n")
		p.indent++
		for _, v := range d.Variants {
			p.ws()
			p.sb.WriteString(v.Name.Name)
			if len(v.Fields) > 0 {
				p.sb.WriteString("(")
				for i, f := range v.Fields {
					if i > 0 {
						p.sb.WriteString(", ")
					}
					p.typeExpr(f)
				}
				p.sb.WriteString(")")
			}
			p.sb.WriteString(",\n")
		}
		p.indent--
		p.ws()
		p.sb.WriteString("}\n")
	}
}

func (p *printer) typeExpr(t TypeExpr) {
	switch t := t.(type) {
	case *NamedType:
		p.sb.WriteString(t.Name.Name)
		if len(t.Args) > 0 {
			p.sb.WriteString("<")
			for i, a := range t.Args {
				if i > 0 {
					p.sb.WriteString(", ")
				}
				p.typeExpr(a)
			}
			p.sb.WriteString(">")
		}
	case *ArrayType:
		p.sb.WriteString("[")
		p.typeExpr(t.Elem)
		p.sb.WriteString("]")
	case *FnType:
		p.sb.WriteString("fn(")
		for i, param := range t.Params {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.typeExpr(param)
		}
		p.sb.WriteString(")")
		if t.Return != nil {
			p.sb.WriteString(" -> ")
			p.typeExpr(t.Return)
		}
	case *InferType:
		p.sb.WriteString("_")
	}
}

func (p *printer) block(b *BlockExpr) {
	if b == nil {
		p.sb.WriteString("{}")
		return
	}
	p.sb.WriteString("{\n")
	p.indent++
	for _, s := range b.Stmts {
		p.ws()
		p.stmt(s)
		p.sb.WriteString("\n")
	}
	if b.Tail != nil {
		p.ws()
		p.expr(b.Tail)
		p.sb.WriteString("\n")
	}
	p.indent--
	p.ws()
	p.sb.WriteString("}")
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *LetStmt:
		p.sb.WriteString("let ")
		if s.Mutable {
			p.sb.WriteString("mut ")
		}
		p.sb.WriteString(s.Name.Name)
		if s.Type != nil {
			p.sb.WriteString(": ")
			p.typeExpr(s.Type)
		}
		if s.Value != nil {
			p.sb.WriteString(" = ")
			p.expr(s.Value)
		}
		p.sb.WriteString(";")
	case *ReturnStmt:
		p.sb.WriteString("return")
		if s.Value != nil {
			p.sb.WriteString(" ")
			p.expr(s.Value)
		}
		p.sb.WriteString(";")
	case *BreakStmt:
		p.sb.WriteString("break;")
	case *ContinueStmt:
		p.sb.WriteString("continue;")
	case *ExprStmt:
		p.expr(s.Expr)
		if s.Semicolon {
			p.sb.WriteString(";")
		}
	}
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case *Ident:
		p.sb.WriteString(e.Name)
	case *IntegerLit:
		p.sb.WriteString(e.Text)
	case *FloatLit:
		p.sb.WriteString(e.Text)
	case *StringLit:
		p.sb.WriteString(fmt.Sprintf("%q", e.Value))
	case *BoolLit:
		if e.Value {
			p.sb.WriteString("true")
		} else {
			p.sb.WriteString("false")
		}
	case *ArrayLit:
		p.sb.WriteString("[")
		for i, el := range e.Elems {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.expr(el)
		}
		p.sb.WriteString("]")
	case *PrefixExpr:
		p.sb.WriteString("(")
		p.sb.WriteString(string(e.Op))
		p.expr(e.Expr)
		p.sb.WriteString(")")
	case *InfixExpr:
		p.sb.WriteString("(")
		p.expr(e.Left)
		p.sb.WriteString(" ")
		p.sb.WriteString(string(e.Op))
		p.sb.WriteString(" ")
		p.expr(e.Right)
		p.sb.WriteString(")")
	case *AssignExpr:
		p.sb.WriteString("(")
		p.expr(e.Target)
		p.sb.WriteString(" = ")
		p.expr(e.Value)
		p.sb.WriteString(")")
	case *RangeExpr:
		p.expr(e.Start)
		p.sb.WriteString("..")
		p.expr(e.End)
	case *CallExpr:
		p.expr(e.Callee)
		p.sb.WriteString("(")
		for i, a := range e.Args {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.expr(a)
		}
		p.sb.WriteString(")")
	case *IndexExpr:
		p.expr(e.Target)
		p.sb.WriteString("[")
		p.expr(e.Index)
		p.sb.WriteString("]")
	case *FieldExpr:
		p.expr(e.Target)
		p.sb.WriteString(".")
		p.sb.WriteString(e.Field.Name)
	case *PathExpr:
		for i, seg := range e.Segments {
			if i > 0 {
				p.sb.WriteString("::")
			}
			p.sb.WriteString(seg.Name)
		}
	case *TryExpr:
		p.expr(e.Expr)
		p.sb.WriteString("?")
	case *StructLit:
		p.sb.WriteString(e.Name.Name)
		p.sb.WriteString(" { ")
		for i, f := range e.Fields {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(f.Name.Name)
			p.sb.WriteString(": ")
			p.expr(f.Value)
		}
		p.sb.WriteString(" }")
	case *BlockExpr:
		p.block(e)
	case *IfExpr:
		p.sb.WriteString("if ")
		p.expr(e.Cond)
		p.sb.WriteString(" ")
		p.block(e.Then)
		if e.Else != nil {
			p.sb.WriteString(" else ")
			p.expr(e.Else)
		}
	case *WhileExpr:
		p.sb.WriteString("while ")
		p.expr(e.Cond)
		p.sb.WriteString(" ")
		p.block(e.Body)
	case *ForExpr:
		p.sb.WriteString("for ")
		p.sb.WriteString(e.Var.Name)
		p.sb.WriteString(" in ")
		p.expr(e.Iter)
		p.sb.WriteString(" ")
		p.block(e.Body)
	case *MatchExpr:
		p.sb.WriteString("match ")
		p.expr(e.Subject)
		p.sb.WriteString(" {\n")
		p.indent++
		for _, arm := range e.Arms {
			p.ws()
			p.pattern(arm.Pattern)
			if arm.Guard != nil {
				p.sb.WriteString(" if ")
				p.expr(arm.Guard)
			}
			p.sb.WriteString(" => ")
			p.expr(arm.Body)
			p.sb.WriteString(",\n")
		}
		p.indent--
		p.ws()
		p.sb.WriteString("}")
	case *ErrorExpr:
		p.sb.WriteString("<error>")
	}
}

func (p *printer) pattern(pat Pattern) {
	switch pat := pat.(type) {
	case *WildcardPattern:
		p.sb.WriteString("_")
	case *BindingPattern:
		p.sb.WriteString(pat.Name.Name)
	case *LiteralPattern:
		p.expr(pat.Lit)
	case *VariantPattern:
		for i, seg := range pat.Path {
			if i > 0 {
				p.sb.WriteString("::")
			}
			p.sb.WriteString(seg.Name)
		}
		if pat.Elems != nil {
			p.sb.WriteString("(")
			for i, el := range pat.Elems {
				if i > 0 {
					p.sb.WriteString(", ")
				}
				p.pattern(el)
			}
			p.sb.WriteString(")")
		}
	case *TuplePattern:
		p.sb.WriteString("(")
		for i, el := range pat.Elems {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.pattern(el)
		}
		p.sb.WriteString(")")
	case *ArrayPattern:
		p.sb.WriteString("[")
		for i, el := range pat.Elems {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.pattern(el)
		}
		p.sb.WriteString("]")
	case *OrPattern:
		for i, alt := range pat.Alts {
			if i > 0 {
				p.sb.WriteString(" | ")
			}
			p.pattern(alt)
		}
	}
}
