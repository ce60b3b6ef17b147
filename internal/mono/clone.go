package mono

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
	"github.com/cinder-lang/cinder/internal/types"
)

// cloner deep-copies AST subtrees. Inside a specialization it carries the
// type-parameter substitution and gives every cloned node a fresh ID;
// outside it preserves IDs so the inference side table stays valid. Both
// modes retarget call, construction, and annotation sites.
type cloner struct {
	eng   *engine
	subst map[string]types.Type // nil outside generic bodies
}

func (c *cloner) id(n ast.Node) ast.NodeID {
	if c.subst == nil {
		return n.ID()
	}
	return c.eng.freshID()
}

// stamp copies identity and span from the original onto the clone and
// carries the original's inferred type into the output table.
func (c *cloner) stamp(clone, orig ast.Node) {
	id := c.id(orig)
	clone.SetID(id)
	clone.SetSpan(orig.Span())
	c.eng.recordType(id, orig.ID(), c.subst)
}

func (c *cloner) fnDecl(d *ast.FnDecl) *ast.FnDecl {
	out := &ast.FnDecl{
		Doc:        d.Doc,
		Name:       c.ident(d.Name),
		Params:     make([]*ast.Param, len(d.Params)),
		ReturnType: c.typeExpr(d.ReturnType),
		Body:       c.block(d.Body),
	}
	for i, p := range d.Params {
		out.Params[i] = c.param(p)
	}
	for _, tp := range d.TypeParams {
		out.TypeParams = append(out.TypeParams, c.typeParam(tp))
	}
	c.stamp(out, d)
	return out
}

func (c *cloner) structDecl(d *ast.StructDecl) *ast.StructDecl {
	out := &ast.StructDecl{
		Doc:    d.Doc,
		Name:   c.ident(d.Name),
		Fields: make([]*ast.FieldDef, len(d.Fields)),
	}
	for _, tp := range d.TypeParams {
		out.TypeParams = append(out.TypeParams, c.typeParam(tp))
	}
	for i, f := range d.Fields {
		fd := &ast.FieldDef{Name: c.ident(f.Name), Type: c.typeExpr(f.Type)}
		c.stamp(fd, f)
		out.Fields[i] = fd
	}
	c.stamp(out, d)
	return out
}

func (c *cloner) enumDecl(d *ast.EnumDecl) *ast.EnumDecl {
	out := &ast.EnumDecl{
		Doc:      d.Doc,
		Name:     c.ident(d.Name),
		Variants: make([]*ast.VariantDef, len(d.Variants)),
	}
	for _, tp := range d.TypeParams {
		out.TypeParams = append(out.TypeParams, c.typeParam(tp))
	}
	for i, v := range d.Variants {
		vd := &ast.VariantDef{Name: c.ident(v.Name)}
		for _, f := range v.Fields {
			vd.Fields = append(vd.Fields, c.typeExpr(f))
		}
		c.stamp(vd, v)
		out.Variants[i] = vd
	}
	c.stamp(out, d)
	return out
}

func (c *cloner) typeParam(tp *ast.TypeParam) *ast.TypeParam {
	out := &ast.TypeParam{Name: c.ident(tp.Name)}
	for _, b := range tp.Bounds {
		out.Bounds = append(out.Bounds, c.ident(b))
	}
	c.stamp(out, tp)
	return out
}

func (c *cloner) param(p *ast.Param) *ast.Param {
	out := &ast.Param{Name: c.ident(p.Name), Type: c.typeExpr(p.Type)}
	c.stamp(out, p)
	return out
}

func (c *cloner) ident(id *ast.Ident) *ast.Ident {
	if id == nil {
		return nil
	}
	out := &ast.Ident{Name: id.Name}
	c.stamp(out, id)
	return out
}

// typeExpr rebuilds a type annotation through its semantic form: type
// parameters are substituted with their concrete binding and references
// to generic types land on the mangled specialization name.
func (c *cloner) typeExpr(te ast.TypeExpr) ast.TypeExpr {
	if te == nil {
		return nil
	}
	out := c.typeRef(c.exprToType(te), te.Span())
	out.SetID(c.id(te))
	out.SetSpan(te.Span())
	return out
}

// exprToType converts annotation syntax to a semantic type, applying the
// active type-parameter substitution.
func (c *cloner) exprToType(te ast.TypeExpr) types.Type {
	switch te := te.(type) {
	case *ast.NamedType:
		name := te.Name.Name
		if len(te.Args) == 0 {
			switch name {
			case "i32":
				return types.I32
			case "i64":
				return types.I64
			case "f32":
				return types.F32
			case "f64":
				return types.F64
			case "bool":
				return types.Bool
			case "string":
				return types.String
			case "unit":
				return types.Unit
			case "unknown":
				return types.Unknown{}
			}
			if c.subst != nil {
				if t, ok := c.subst[name]; ok {
					return t
				}
			}
		}
		args := make([]types.Type, len(te.Args))
		for j, a := range te.Args {
			args[j] = c.exprToType(a)
		}
		return types.Named{Name: name, Args: args}
	case *ast.ArrayType:
		return types.Array{Elem: c.exprToType(te.Elem)}
	case *ast.FnType:
		out := types.Function{Return: types.Unit}
		for _, p := range te.Params {
			out.Params = append(out.Params, c.exprToType(p))
		}
		if te.Return != nil {
			out.Return = c.exprToType(te.Return)
		}
		return out
	default:
		return types.Unknown{}
	}
}

// typeRef renders a semantic type as annotation syntax. A fully concrete
// reference to a generic type is retargeted at its specialization and
// the specialization is demanded. Tuples have no surface syntax, so they
// degrade to the inference placeholder.
func (c *cloner) typeRef(t types.Type, span lexer.Span) ast.TypeExpr {
	switch t := t.(type) {
	case types.Primitive:
		return c.namedRef(string(t), span)
	case types.Param:
		return c.namedRef(t.Name, span)
	case types.Named:
		if _, ok := c.eng.genericTypes[t.Name]; ok && len(t.Args) > 0 && !hasParams(t.Args) {
			c.eng.enqueue(t.Name, t.Args, span)
			return c.namedRef(Mangle(t.Name, t.Args), span)
		}
		out := c.namedRef(t.Name, span)
		for _, a := range t.Args {
			out.Args = append(out.Args, c.typeRef(a, span))
		}
		return out
	case types.Array:
		out := &ast.ArrayType{Elem: c.typeRef(t.Elem, span)}
		c.stampFresh(out, span)
		return out
	case types.Function:
		out := &ast.FnType{}
		for _, p := range t.Params {
			out.Params = append(out.Params, c.typeRef(p, span))
		}
		if p, ok := t.Return.(types.Primitive); t.Return != nil && (!ok || p != types.Unit) {
			out.Return = c.typeRef(t.Return, span)
		}
		c.stampFresh(out, span)
		return out
	case types.Range:
		out := c.namedRef("Range", span)
		out.Args = append(out.Args, c.typeRef(t.Elem, span))
		return out
	default:
		out := &ast.InferType{}
		c.stampFresh(out, span)
		return out
	}
}

func (c *cloner) namedRef(name string, span lexer.Span) *ast.NamedType {
	id := &ast.Ident{Name: name}
	c.stampFresh(id, span)
	out := &ast.NamedType{Name: id}
	c.stampFresh(out, span)
	return out
}

// stampFresh assigns a fresh ID; regenerated annotation nodes have no
// original to inherit from.
func (c *cloner) stampFresh(n ast.Node, span lexer.Span) {
	n.SetID(c.eng.freshID())
	n.SetSpan(span)
}

func (c *cloner) block(b *ast.BlockExpr) *ast.BlockExpr {
	if b == nil {
		return nil
	}
	out := &ast.BlockExpr{}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, c.stmt(s))
	}
	if b.Tail != nil {
		out.Tail = c.expr(b.Tail)
	}
	c.stamp(out, b)
	return out
}

func (c *cloner) stmt(s ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *ast.LetStmt:
		out := &ast.LetStmt{
			Mutable: s.Mutable,
			Name:    c.ident(s.Name),
			Type:    c.typeExpr(s.Type),
			Value:   c.expr(s.Value),
		}
		c.stamp(out, s)
		return out
	case *ast.ReturnStmt:
		out := &ast.ReturnStmt{}
		if s.Value != nil {
			out.Value = c.expr(s.Value)
		}
		c.stamp(out, s)
		return out
	case *ast.BreakStmt:
		out := &ast.BreakStmt{}
		c.stamp(out, s)
		return out
	case *ast.ContinueStmt:
		out := &ast.ContinueStmt{}
		c.stamp(out, s)
		return out
	case *ast.ExprStmt:
		out := &ast.ExprStmt{Expr: c.expr(s.Expr), Semicolon: s.Semicolon}
		c.stamp(out, s)
		return out
	default:
		return s
	}
}

func (c *cloner) expr(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *ast.Ident:
		return c.ident(e)
	case *ast.IntegerLit:
		out := &ast.IntegerLit{Text: e.Text}
		c.stamp(out, e)
		return out
	case *ast.FloatLit:
		out := &ast.FloatLit{Text: e.Text}
		c.stamp(out, e)
		return out
	case *ast.StringLit:
		out := &ast.StringLit{Value: e.Value}
		c.stamp(out, e)
		return out
	case *ast.BoolLit:
		out := &ast.BoolLit{Value: e.Value}
		c.stamp(out, e)
		return out
	case *ast.ArrayLit:
		out := &ast.ArrayLit{}
		for _, el := range e.Elems {
			out.Elems = append(out.Elems, c.expr(el))
		}
		c.stamp(out, e)
		return out
	case *ast.PrefixExpr:
		out := &ast.PrefixExpr{Op: e.Op, Expr: c.expr(e.Expr)}
		c.stamp(out, e)
		return out
	case *ast.InfixExpr:
		out := &ast.InfixExpr{Op: e.Op, Left: c.expr(e.Left), Right: c.expr(e.Right)}
		c.stamp(out, e)
		return out
	case *ast.AssignExpr:
		out := &ast.AssignExpr{Target: c.expr(e.Target), Value: c.expr(e.Value)}
		c.stamp(out, e)
		return out
	case *ast.RangeExpr:
		out := &ast.RangeExpr{Start: c.expr(e.Start), End: c.expr(e.End)}
		c.stamp(out, e)
		return out
	case *ast.CallExpr:
		return c.callExpr(e)
	case *ast.IndexExpr:
		out := &ast.IndexExpr{Target: c.expr(e.Target), Index: c.expr(e.Index)}
		c.stamp(out, e)
		return out
	case *ast.FieldExpr:
		out := &ast.FieldExpr{Target: c.expr(e.Target), Field: c.ident(e.Field)}
		c.stamp(out, e)
		return out
	case *ast.PathExpr:
		out := &ast.PathExpr{}
		for _, seg := range e.Segments {
			out.Segments = append(out.Segments, c.ident(seg))
		}
		// Enum::Variant with a generic enum resolves to the enum's
		// specialization.
		if newName, ok := c.retarget(e.ID(), e.Span()); ok && len(out.Segments) > 0 {
			out.Segments[0].Name = newName
		}
		c.stamp(out, e)
		return out
	case *ast.TryExpr:
		out := &ast.TryExpr{Expr: c.expr(e.Expr)}
		c.stamp(out, e)
		return out
	case *ast.StructLit:
		out := &ast.StructLit{Name: c.ident(e.Name)}
		if newName, ok := c.retarget(e.ID(), e.Span()); ok {
			out.Name.Name = newName
		}
		for _, f := range e.Fields {
			fi := &ast.FieldInit{Name: c.ident(f.Name), Value: c.expr(f.Value)}
			c.stamp(fi, f)
			out.Fields = append(out.Fields, fi)
		}
		c.stamp(out, e)
		return out
	case *ast.BlockExpr:
		return c.block(e)
	case *ast.IfExpr:
		out := &ast.IfExpr{Cond: c.expr(e.Cond), Then: c.block(e.Then)}
		if e.Else != nil {
			out.Else = c.expr(e.Else)
		}
		c.stamp(out, e)
		return out
	case *ast.WhileExpr:
		out := &ast.WhileExpr{Cond: c.expr(e.Cond), Body: c.block(e.Body)}
		c.stamp(out, e)
		return out
	case *ast.ForExpr:
		out := &ast.ForExpr{Var: c.ident(e.Var), Iter: c.expr(e.Iter), Body: c.block(e.Body)}
		c.stamp(out, e)
		return out
	case *ast.MatchExpr:
		out := &ast.MatchExpr{Subject: c.expr(e.Subject)}
		for _, arm := range e.Arms {
			a := &ast.MatchArm{Pattern: c.pattern(arm.Pattern), Body: c.expr(arm.Body)}
			if arm.Guard != nil {
				a.Guard = c.expr(arm.Guard)
			}
			c.stamp(a, arm)
			out.Arms = append(out.Arms, a)
		}
		c.stamp(out, e)
		return out
	case *ast.ErrorExpr:
		out := &ast.ErrorExpr{}
		c.stamp(out, e)
		return out
	default:
		return e
	}
}

// retarget resolves the instantiation request recorded for a call or
// construction site, if any, to the mangled specialization name. Inside
// a generic body the request's type arguments are substituted first and
// the resulting concrete demand is enqueued, which is how nested generic
// calls and constructions spawn further specializations.
func (c *cloner) retarget(site ast.NodeID, span lexer.Span) (string, bool) {
	req, ok := c.eng.reqBySite[site]
	if !ok {
		return "", false
	}
	args := req.TypeArgs
	if c.subst != nil {
		args = make([]types.Type, len(req.TypeArgs))
		for i, a := range req.TypeArgs {
			args[i] = types.Substitute(a, c.subst)
		}
		c.eng.enqueue(req.Callee, args, span)
	}
	return Mangle(req.Callee, args), true
}

func (c *cloner) callExpr(e *ast.CallExpr) ast.Expr {
	out := &ast.CallExpr{}
	for _, a := range e.Args {
		out.Args = append(out.Args, c.expr(a))
	}

	if newName, ok := c.retarget(e.ID(), e.Span()); ok {
		callee := &ast.Ident{Name: newName}
		c.stamp(callee, e.Callee)
		out.Callee = callee
	} else {
		out.Callee = c.expr(e.Callee)
	}
	c.stamp(out, e)
	return out
}

func (c *cloner) pattern(p ast.Pattern) ast.Pattern {
	switch p := p.(type) {
	case *ast.WildcardPattern:
		out := &ast.WildcardPattern{}
		c.stamp(out, p)
		return out
	case *ast.BindingPattern:
		out := &ast.BindingPattern{Name: c.ident(p.Name)}
		c.stamp(out, p)
		return out
	case *ast.LiteralPattern:
		out := &ast.LiteralPattern{Lit: c.expr(p.Lit)}
		c.stamp(out, p)
		return out
	case *ast.VariantPattern:
		out := &ast.VariantPattern{}
		for _, seg := range p.Path {
			out.Path = append(out.Path, c.ident(seg))
		}
		if newName, ok := c.retarget(p.ID(), p.Span()); ok {
			if len(out.Path) == 1 {
				en := &ast.Ident{Name: newName}
				c.stampFresh(en, p.Span())
				out.Path = append([]*ast.Ident{en}, out.Path...)
			} else {
				out.Path[0].Name = newName
			}
		}
		if p.Elems != nil {
			out.Elems = make([]ast.Pattern, 0, len(p.Elems))
			for _, el := range p.Elems {
				out.Elems = append(out.Elems, c.pattern(el))
			}
		}
		c.stamp(out, p)
		return out
	case *ast.TuplePattern:
		out := &ast.TuplePattern{}
		for _, el := range p.Elems {
			out.Elems = append(out.Elems, c.pattern(el))
		}
		c.stamp(out, p)
		return out
	case *ast.ArrayPattern:
		out := &ast.ArrayPattern{}
		for _, el := range p.Elems {
			out.Elems = append(out.Elems, c.pattern(el))
		}
		c.stamp(out, p)
		return out
	case *ast.OrPattern:
		out := &ast.OrPattern{}
		for _, alt := range p.Alts {
			out.Alts = append(out.Alts, c.pattern(alt))
		}
		c.stamp(out, p)
		return out
	default:
		return p
	}
}
