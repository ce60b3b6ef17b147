package ast

// Walk traverses the AST starting from node, calling fn for each node.
// If fn returns false, Walk stops traversing that branch.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *File:
		for _, decl := range n.Decls {
			Walk(decl, fn)
		}

	case *FnDecl:
		Walk(n.Name, fn)
		for _, tp := range n.TypeParams {
			Walk(tp, fn)
		}
		for _, param := range n.Params {
			Walk(param, fn)
		}
		if n.ReturnType != nil {
			Walk(n.ReturnType, fn)
		}
		if n.Body != nil {
			Walk(n.Body, fn)
		}

	case *TypeParam:
		Walk(n.Name, fn)
		for _, bound := range n.Bounds {
			Walk(bound, fn)
		}

	case *Param:
		Walk(n.Name, fn)
		if n.Type != nil {
			Walk(n.Type, fn)
		}

	case *StructDecl:
		Walk(n.Name, fn)
		for _, tp := range n.TypeParams {
			Walk(tp, fn)
		}
		for _, field := range n.Fields {
			Walk(field, fn)
		}

	case *FieldDef:
		Walk(n.Name, fn)
		if n.Type != nil {
			Walk(n.Type, fn)
		}

	case *EnumDecl:
		Walk(n.Name, fn)
		for _, tp := range n.TypeParams {
			Walk(tp, fn)
		}
		for _, variant := range n.Variants {
			Walk(variant, fn)
		}

	case *VariantDef:
		Walk(n.Name, fn)
		for _, field := range n.Fields {
			Walk(field, fn)
		}

	case *LetStmt:
		Walk(n.Name, fn)
		if n.Type != nil {
			Walk(n.Type, fn)
		}
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *ReturnStmt:
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *ExprStmt:
		Walk(n.Expr, fn)

	case *BreakStmt, *ContinueStmt:
		// leaf statements

	case *Ident, *IntegerLit, *FloatLit, *StringLit, *BoolLit, *ErrorExpr:
		// leaf expressions

	case *ArrayLit:
		for _, elem := range n.Elems {
			Walk(elem, fn)
		}

	case *PrefixExpr:
		Walk(n.Expr, fn)

	case *InfixExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *AssignExpr:
		Walk(n.Target, fn)
		Walk(n.Value, fn)

	case *RangeExpr:
		Walk(n.Start, fn)
		Walk(n.End, fn)

	case *CallExpr:
		Walk(n.Callee, fn)
		for _, arg := range n.Args {
			Walk(arg, fn)
		}

	case *IndexExpr:
		Walk(n.Target, fn)
		Walk(n.Index, fn)

	case *FieldExpr:
		Walk(n.Target, fn)
		Walk(n.Field, fn)

	case *PathExpr:
		for _, seg := range n.Segments {
			Walk(seg, fn)
		}

	case *TryExpr:
		Walk(n.Expr, fn)

	case *StructLit:
		Walk(n.Name, fn)
		for _, field := range n.Fields {
			Walk(field, fn)
		}

	case *FieldInit:
		Walk(n.Name, fn)
		Walk(n.Value, fn)

	case *BlockExpr:
		for _, stmt := range n.Stmts {
			Walk(stmt, fn)
		}
		if n.Tail != nil {
			Walk(n.Tail, fn)
		}

	case *IfExpr:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		if n.Else != nil {
			Walk(n.Else, fn)
		}

	case *WhileExpr:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)

	case *ForExpr:
		Walk(n.Var, fn)
		Walk(n.Iter, fn)
		Walk(n.Body, fn)

	case *MatchExpr:
		Walk(n.Subject, fn)
		for _, arm := range n.Arms {
			Walk(arm, fn)
		}

	case *MatchArm:
		Walk(n.Pattern, fn)
		if n.Guard != nil {
			Walk(n.Guard, fn)
		}
		Walk(n.Body, fn)

	case *WildcardPattern:
		// leaf pattern

	case *BindingPattern:
		Walk(n.Name, fn)

	case *LiteralPattern:
		Walk(n.Lit, fn)

	case *VariantPattern:
		for _, seg := range n.Path {
			Walk(seg, fn)
		}
		for _, elem := range n.Elems {
			Walk(elem, fn)
		}

	case *TuplePattern:
		for _, elem := range n.Elems {
			Walk(elem, fn)
		}

	case *ArrayPattern:
		for _, elem := range n.Elems {
			Walk(elem, fn)
		}

	case *OrPattern:
		for _, alt := range n.Alts {
			Walk(alt, fn)
		}

	case *NamedType:
		Walk(n.Name, fn)
		for _, arg := range n.Args {
			Walk(arg, fn)
		}

	case *ArrayType:
		Walk(n.Elem, fn)

	case *FnType:
		for _, param := range n.Params {
			Walk(param, fn)
		}
		if n.Return != nil {
			Walk(n.Return, fn)
		}

	case *InferType:
		// leaf type
	}
}
