package ast

// WildcardPattern matches anything without binding: _.
type WildcardPattern struct {
	base
}

func (*WildcardPattern) patternNode() {}

// BindingPattern matches anything and binds it to a name.
type BindingPattern struct {
	base
	Name *Ident
}

func (*BindingPattern) patternNode() {}

// LiteralPattern matches a literal value. Lit is one of the literal
// expression nodes, possibly negated.
type LiteralPattern struct {
	base
	Lit Expr
}

func (*LiteralPattern) patternNode() {}

// VariantPattern matches an enum variant such as Option::Some(x). A bare
// path with no parentheses has nil Elems.
type VariantPattern struct {
	base
	Path  []*Ident
	Elems []Pattern
}

func (*VariantPattern) patternNode() {}

// TuplePattern matches a fixed-size tuple: (a, b, _).
type TuplePattern struct {
	base
	Elems []Pattern
}

func (*TuplePattern) patternNode() {}

// ArrayPattern destructures a fixed-length array: [a, b, _].
type ArrayPattern struct {
	base
	Elems []Pattern
}

func (*ArrayPattern) patternNode() {}

// OrPattern matches when any alternative matches: 1 | 2 | 3. Alternatives
// bind no names so the arm body sees a consistent scope.
type OrPattern struct {
	base
	Alts []Pattern
}

func (*OrPattern) patternNode() {}
