package ast

// NamedType represents a type reference, optionally with generic arguments
// such as Vec<i32> or Option<T>.
type NamedType struct {
	base
	Name *Ident
	Args []TypeExpr
}

func (*NamedType) typeNode() {}

// ArrayType represents [T].
type ArrayType struct {
	base
	Elem TypeExpr
}

func (*ArrayType) typeNode() {}

// FnType represents fn(A, B) -> R in type position.
type FnType struct {
	base
	Params []TypeExpr
	Return TypeExpr
}

func (*FnType) typeNode() {}

// InferType is the _ placeholder in type position. Inference treats it as
// the gradual unknown type.
type InferType struct {
	base
}

func (*InferType) typeNode() {}
