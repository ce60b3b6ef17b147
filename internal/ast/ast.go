package ast

import "github.com/cinder-lang/cinder/internal/lexer"

// NodeID uniquely identifies an AST node within a single parse. IDs are
// assigned by the parser in creation order and never reused; derived
// information (inferred types, instantiation requests) lives in side tables
// keyed by NodeID so the tree itself stays immutable after parsing.
type NodeID uint32

// NoID marks a node that has not been registered with a parser.
const NoID NodeID = 0

// Node represents any AST node with an identity and a source span.
type Node interface {
	ID() NodeID
	SetID(NodeID)
	Span() lexer.Span
	SetSpan(lexer.Span)
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl represents a top-level declaration.
type Decl interface {
	Node
	declNode()
	DeclName() string
}

// TypeExpr represents a type annotation expression.
type TypeExpr interface {
	Node
	typeNode()
}

// Pattern represents a match pattern.
type Pattern interface {
	Node
	patternNode()
}

// base carries the identity and span shared by every node. Nodes embed it
// and are always handled through pointers.
type base struct {
	id   NodeID
	span lexer.Span
}

func (b *base) ID() NodeID            { return b.id }
func (b *base) SetID(id NodeID)       { b.id = id }
func (b *base) Span() lexer.Span      { return b.span }
func (b *base) SetSpan(sp lexer.Span) { b.span = sp }

// File represents a parsed compilation unit.
type File struct {
	base
	Filename string
	Decls    []Decl
}

// TypeParam is a declared generic parameter with optional trait bounds,
// collected from both the parameter list and the where clause.
type TypeParam struct {
	base
	Name   *Ident
	Bounds []*Ident
}

// Param represents a function parameter.
type Param struct {
	base
	Name *Ident
	Type TypeExpr
}

// FnDecl represents a function declaration.
type FnDecl struct {
	base
	Doc        string
	Name       *Ident
	TypeParams []*TypeParam
	Params     []*Param
	ReturnType TypeExpr
	Body       *BlockExpr
}

func (*FnDecl) declNode() {}

// DeclName returns the declared function name.
func (d *FnDecl) DeclName() string { return d.Name.Name }

// IsGeneric reports whether the function declares type parameters.
func (d *FnDecl) IsGeneric() bool { return len(d.TypeParams) > 0 }

// FieldDef is a named struct field.
type FieldDef struct {
	base
	Name *Ident
	Type TypeExpr
}

// StructDecl represents a struct declaration.
type StructDecl struct {
	base
	Doc        string
	Name       *Ident
	TypeParams []*TypeParam
	Fields     []*FieldDef
}

func (*StructDecl) declNode() {}

// DeclName returns the declared struct name.
func (d *StructDecl) DeclName() string { return d.Name.Name }

// VariantDef is one enum variant, with optional payload types.
type VariantDef struct {
	base
	Name   *Ident
	Fields []TypeExpr
}

// EnumDecl represents an enum declaration.
type EnumDecl struct {
	base
	Doc        string
	Name       *Ident
	TypeParams []*TypeParam
	Variants   []*VariantDef
}

func (*EnumDecl) declNode() {}

// DeclName returns the declared enum name.
func (d *EnumDecl) DeclName() string { return d.Name.Name }

// LetStmt represents a let binding statement.
type LetStmt struct {
	base
	Mutable bool
	Name    *Ident
	Type    TypeExpr // nil when inferred
	Value   Expr
}

func (*LetStmt) stmtNode() {}

// ReturnStmt represents a return statement with an optional value.
type ReturnStmt struct {
	base
	Value Expr
}

func (*ReturnStmt) stmtNode() {}

// BreakStmt exits the innermost loop.
type BreakStmt struct {
	base
}

func (*BreakStmt) stmtNode() {}

// ContinueStmt restarts the innermost loop.
type ContinueStmt struct {
	base
}

func (*ContinueStmt) stmtNode() {}

// ExprStmt wraps an expression used in statement position.
type ExprStmt struct {
	base
	Expr Expr
	// Semicolon records whether the statement was terminated explicitly.
	// A block's final expression without a semicolon is its tail instead.
	Semicolon bool
}

func (*ExprStmt) stmtNode() {}
