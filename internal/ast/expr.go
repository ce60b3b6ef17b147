package ast

import "github.com/cinder-lang/cinder/internal/lexer"

// Ident represents an identifier in expression position.
type Ident struct {
	base
	Name string
}

func (*Ident) exprNode() {}

// IntegerLit represents an integer literal. Text keeps the normalized
// spelling (underscores stripped); conversion happens during inference.
type IntegerLit struct {
	base
	Text string
}

func (*IntegerLit) exprNode() {}

// FloatLit represents a floating-point literal.
type FloatLit struct {
	base
	Text string
}

func (*FloatLit) exprNode() {}

// StringLit represents a string literal with escapes already decoded.
type StringLit struct {
	base
	Value string
}

func (*StringLit) exprNode() {}

// BoolLit represents true or false.
type BoolLit struct {
	base
	Value bool
}

func (*BoolLit) exprNode() {}

// ArrayLit represents an array literal.
type ArrayLit struct {
	base
	Elems []Expr
}

func (*ArrayLit) exprNode() {}

// PrefixExpr represents a prefix expression such as -x or !ok.
type PrefixExpr struct {
	base
	Op   lexer.TokenType
	Expr Expr
}

func (*PrefixExpr) exprNode() {}

// InfixExpr represents an infix binary expression.
type InfixExpr struct {
	base
	Op    lexer.TokenType
	Left  Expr
	Right Expr
}

func (*InfixExpr) exprNode() {}

// AssignExpr represents an assignment. Assignment is right-associative and
// evaluates to unit.
type AssignExpr struct {
	base
	Target Expr
	Value  Expr
}

func (*AssignExpr) exprNode() {}

// RangeExpr represents a half-open range start..end.
type RangeExpr struct {
	base
	Start Expr
	End   Expr
}

func (*RangeExpr) exprNode() {}

// CallExpr represents a function call. Generic calls carry no explicit type
// arguments; inference derives them and records an instantiation request
// keyed by this node's ID.
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// IndexExpr represents target[index].
type IndexExpr struct {
	base
	Target Expr
	Index  Expr
}

func (*IndexExpr) exprNode() {}

// FieldExpr represents target.field.
type FieldExpr struct {
	base
	Target Expr
	Field  *Ident
}

func (*FieldExpr) exprNode() {}

// PathExpr represents a :: separated path such as Option::None.
type PathExpr struct {
	base
	Segments []*Ident
}

func (*PathExpr) exprNode() {}

// TryExpr represents the postfix ? operator.
type TryExpr struct {
	base
	Expr Expr
}

func (*TryExpr) exprNode() {}

// FieldInit is one field: value pair in a struct literal.
type FieldInit struct {
	base
	Name  *Ident
	Value Expr
}

// StructLit represents a struct literal such as Point { x: 1, y: 2 }.
type StructLit struct {
	base
	Name   *Ident
	Fields []*FieldInit
}

func (*StructLit) exprNode() {}

// BlockExpr represents a braced sequence of statements with an optional
// tail expression supplying the block's value.
type BlockExpr struct {
	base
	Stmts []Stmt
	Tail  Expr
}

func (*BlockExpr) exprNode() {}

// IfExpr represents an if/else expression. Else is nil, a *BlockExpr, or
// another *IfExpr for else-if chains.
type IfExpr struct {
	base
	Cond Expr
	Then *BlockExpr
	Else Expr
}

func (*IfExpr) exprNode() {}

// WhileExpr represents a while loop. Loops evaluate to unit.
type WhileExpr struct {
	base
	Cond Expr
	Body *BlockExpr
}

func (*WhileExpr) exprNode() {}

// ForExpr represents iteration over a range or array.
type ForExpr struct {
	base
	Var  *Ident
	Iter Expr
	Body *BlockExpr
}

func (*ForExpr) exprNode() {}

// MatchArm is one pattern => body arm with an optional if guard.
type MatchArm struct {
	base
	Pattern Pattern
	Guard   Expr // nil when absent
	Body    Expr
}

// MatchExpr represents a match expression.
type MatchExpr struct {
	base
	Subject Expr
	Arms    []*MatchArm
}

func (*MatchExpr) exprNode() {}

// ErrorExpr is a placeholder produced during error recovery so later
// stages see a structurally complete tree.
type ErrorExpr struct {
	base
}

func (*ErrorExpr) exprNode() {}
